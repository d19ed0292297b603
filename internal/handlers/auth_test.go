package handlers

import (
	"context"
	"net/http"
	"testing"

	"tronik-dashboard/internal/database"
	"tronik-dashboard/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterAndLogin(t *testing.T) {
	s := newTestServer(t)

	body := map[string]string{
		"username": "maria",
		"email":    "Maria@Tronik.com",
		"senha":    "Segura123",
	}
	rec := s.do(t, http.MethodPost, "/auth/registro", "", body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	registered := decode[struct {
		Usuario models.UserResponse `json:"usuario"`
	}](t, rec)
	assert.Equal(t, "maria@tronik.com", registered.Usuario.Email)
	assert.False(t, registered.Usuario.Admin)
	assert.True(t, registered.Usuario.Ativo)

	rec = s.do(t, http.MethodPost, "/auth/registro", "", body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Username ou email já cadastrado", decode[map[string]string](t, rec)["erro"])

	rec = s.do(t, http.MethodPost, "/auth/login", "", map[string]string{"username": "maria", "senha": "Segura123"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	login := decode[LoginResponse](t, rec)
	assert.Equal(t, "Login realizado com sucesso", login.Mensagem)
	assert.NotEmpty(t, login.Token)
	require.NotNil(t, login.Usuario)
	assert.Equal(t, "maria", login.Usuario.Username)

	rec = s.do(t, http.MethodGet, "/auth/usuario/atual", login.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	me := decode[models.UserResponse](t, rec)
	assert.Equal(t, "maria", me.Username)
	assert.NotNil(t, me.UltimoLoginEm)

	// Email works as the identifier too.
	rec = s.do(t, http.MethodPost, "/auth/login", "", map[string]string{"email": "maria@tronik.com", "senha": "Segura123"})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRegister_Validation(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/auth/registro", "", map[string]string{
		"username": "x",
		"email":    "not-an-email",
		"senha":    "fraca",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	resp := decode[struct {
		Erro     string   `json:"erro"`
		Detalhes []string `json:"detalhes"`
	}](t, rec)
	assert.Equal(t, "Dados inválidos", resp.Erro)
	assert.Len(t, resp.Detalhes, 3)
}

func TestLogin_Failures(t *testing.T) {
	s := newTestServer(t)
	s.createUser(t, "joao", "Segura123", false)

	inactive := s.createUser(t, "inativo", "Segura123", false)
	_, err := s.db.Exec(s.db.Rebind(`UPDATE users SET active = ? WHERE id = ?`), false, inactive.ID)
	require.NoError(t, err)

	cases := []struct {
		name   string
		body   map[string]string
		status int
		erro   string
	}{
		{"missing password", map[string]string{"username": "joao"}, http.StatusBadRequest, "Username e senha são obrigatórios"},
		{"missing identifier", map[string]string{"senha": "Segura123"}, http.StatusBadRequest, "Username e senha são obrigatórios"},
		{"wrong password", map[string]string{"username": "joao", "senha": "Errada123"}, http.StatusUnauthorized, "Credenciais inválidas"},
		{"unknown user", map[string]string{"username": "ninguem", "senha": "Segura123"}, http.StatusUnauthorized, "Credenciais inválidas"},
		{"inactive user", map[string]string{"username": "inativo", "senha": "Segura123"}, http.StatusForbidden, "Usuário inativo"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := s.do(t, http.MethodPost, "/auth/login", "", tc.body)
			assert.Equal(t, tc.status, rec.Code)
			assert.Equal(t, tc.erro, decode[map[string]string](t, rec)["erro"])
		})
	}
}

func TestLogout(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/auth/logout", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(t, http.MethodPost, "/auth/logout", s.token(t, false), nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Logout realizado com sucesso", decode[map[string]string](t, rec)["mensagem"])
}

func TestCreateUser_AdminOnly(t *testing.T) {
	s := newTestServer(t)
	body := map[string]interface{}{
		"username": "operador",
		"email":    "operador@tronik.com",
		"senha":    "Segura123",
		"admin":    true,
	}

	rec := s.do(t, http.MethodPost, "/api/usuarios", s.token(t, false), body)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/usuarios", s.token(t, true), body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	user, err := database.GetUserByLogin(context.Background(), s.db, "operador")
	require.NoError(t, err)
	assert.True(t, user.Admin)
}

func TestUpdateFCMToken(t *testing.T) {
	s := newTestServer(t)
	s.createUser(t, "admin", "Segura123", true)

	rec := s.do(t, http.MethodPost, "/auth/login", "", map[string]string{"username": "admin", "senha": "Segura123"})
	require.Equal(t, http.StatusOK, rec.Code)
	token := decode[LoginResponse](t, rec).Token

	rec = s.do(t, http.MethodPost, "/api/usuario/fcm-token", token, map[string]string{"token": "device-abc"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	tokens, err := database.AdminFCMTokens(context.Background(), s.db)
	require.NoError(t, err)
	assert.Equal(t, []string{"device-abc"}, tokens)
}
