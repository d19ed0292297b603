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

func TestSensorLifecycle(t *testing.T) {
	s := newTestServer(t)
	token := s.token(t, false)

	bin := &models.Bin{Location: "Praça"}
	require.NoError(t, database.CreateBin(context.Background(), s.db, bin))

	rec := s.do(t, http.MethodPost, "/api/sensor", token, map[string]interface{}{"lixeira_id": "missing", "bateria": 50})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/sensor", token, map[string]interface{}{"lixeira_id": bin.ID, "bateria": 15})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	sensor := decode[models.SensorResponse](t, rec)
	assert.Equal(t, bin.ID, sensor.LixeiraID)
	assert.NotNil(t, sensor.UltimoPingIso)

	rec = s.do(t, http.MethodGet, "/api/sensores?bateria_min=20", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[[]models.SensorResponse](t, rec))

	rec = s.do(t, http.MethodGet, "/api/sensores?bateria_min=abc", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPut, "/api/sensor/"+sensor.ID, token, map[string]interface{}{"bateria": 90})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 90.0, decode[models.SensorResponse](t, rec).Bateria)

	rec = s.do(t, http.MethodGet, "/api/sensores?lixeira_id="+bin.ID, "", nil)
	assert.Len(t, decode[[]models.SensorResponse](t, rec), 1)

	rec = s.do(t, http.MethodDelete, "/api/sensor/"+sensor.ID, s.token(t, true), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/sensor/"+sensor.ID, "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
