package handlers

import (
	"context"
	"net/http"
	"testing"

	"tronik-dashboard/internal/database"
	"tronik-dashboard/internal/models"
	"tronik-dashboard/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeocodeAddress(t *testing.T) {
	s := newTestServer(t)
	token := s.token(t, false)

	rec := s.do(t, http.MethodPost, "/api/geocodificar", token, map[string]string{"endereco": "Esplanada dos Ministérios"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decode[map[string]interface{}](t, rec)
	assert.Equal(t, true, resp["sucesso"])
	assert.Equal(t, -15.7801, resp["latitude"])
	assert.Equal(t, "1", resp["estrategia"])

	rec = s.do(t, http.MethodPost, "/api/geocodificar", token, map[string]string{"endereco": "   "})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/geocodificar", "", map[string]string{"endereco": "Esplanada"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestGeocodeBinEndpoints(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	bin := &models.Bin{Location: "Esplanada dos Ministérios"}
	require.NoError(t, database.CreateBin(ctx, s.db, bin))
	require.NoError(t, database.CreateBin(ctx, s.db, &models.Bin{Location: "Rodoviária do Plano Piloto"}))

	rec := s.do(t, http.MethodPost, "/api/lixeira/"+bin.ID+"/geocodificar", s.token(t, false), nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	result := decode[services.BinGeocodeResult](t, rec)
	assert.True(t, result.Sucesso)

	stored, err := database.GetBin(ctx, s.db, bin.ID)
	require.NoError(t, err)
	require.True(t, stored.HasCoordinates())
	assert.Equal(t, -15.7801, *stored.Latitude)

	rec = s.do(t, http.MethodPost, "/api/lixeira/missing/geocodificar", s.token(t, false), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/geocodificar/lote", s.token(t, false), nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/geocodificar/lote", s.token(t, true), nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	stats := decode[services.BatchGeocodeStats](t, rec)
	assert.Equal(t, 1, stats.Total)
	assert.Equal(t, 1, stats.Sucesso)
}
