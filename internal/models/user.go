package models

type User struct {
	ID           string  `json:"id" db:"id"`
	Username     string  `json:"username" db:"username"`
	Email        string  `json:"email" db:"email"`
	PasswordHash string  `json:"-" db:"password_hash"` // Never return password in JSON
	FullName     *string `json:"full_name,omitempty" db:"full_name"`
	Active       bool    `json:"active" db:"active"`
	Admin        bool    `json:"admin" db:"admin"`
	FCMToken     *string `json:"-" db:"fcm_token"`
	CreatedAt    int64   `json:"created_at" db:"created_at"`
	LastLogin    *int64  `json:"last_login,omitempty" db:"last_login"`
}

// Role is the JWT role claim for the user.
func (u *User) Role() string {
	if u.Admin {
		return "admin"
	}
	return "user"
}

type UserResponse struct {
	ID            string  `json:"id"`
	Username      string  `json:"username"`
	Email         string  `json:"email"`
	NomeCompleto  *string `json:"nome_completo"`
	Admin         bool    `json:"admin"`
	Ativo         bool    `json:"ativo"`
	CriadoEm      string  `json:"criado_em"`
	UltimoLoginEm *string `json:"ultimo_login"`
}

func (u *User) ToUserResponse() UserResponse {
	resp := UserResponse{
		ID:           u.ID,
		Username:     u.Username,
		Email:        u.Email,
		NomeCompleto: u.FullName,
		Admin:        u.Admin,
		Ativo:        u.Active,
		CriadoEm:     isoTime(u.CreatedAt),
	}
	if u.LastLogin != nil {
		iso := isoTime(*u.LastLogin)
		resp.UltimoLoginEm = &iso
	}
	return resp
}

// LoginRequest accepts either username or email in the username field.
type LoginRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Senha    string `json:"senha" validate:"required"`
}

// Identifier returns whichever login identifier the client sent.
func (r LoginRequest) Identifier() string {
	if r.Username != "" {
		return r.Username
	}
	return r.Email
}

type RegisterRequest struct {
	Username     string  `json:"username" validate:"required,username"`
	Email        string  `json:"email" validate:"required,email,max=120"`
	Senha        string  `json:"senha" validate:"required,strong_password"`
	NomeCompleto *string `json:"nome_completo" validate:"omitempty,max=200"`
}

// CreateUserRequest is the admin-only variant of registration.
type CreateUserRequest struct {
	RegisterRequest
	Admin bool `json:"admin"`
}

type FCMTokenRequest struct {
	Token string `json:"token" validate:"required"`
}
