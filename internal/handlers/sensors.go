package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"tronik-dashboard/internal/database"
	"tronik-dashboard/internal/helpers"
	"tronik-dashboard/internal/logger"
	"tronik-dashboard/internal/models"
	"tronik-dashboard/pkg/utils"

	"github.com/go-chi/chi/v5"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

const msgSensorNotFound = "Sensor não encontrado"

// GetSensors lists sensors, optionally for one bin (lixeira_id) or with at
// least bateria_min percent of battery.
func GetSensors(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter := database.SensorFilter{BinID: strings.TrimSpace(r.URL.Query().Get("lixeira_id"))}

		if raw := strings.TrimSpace(r.URL.Query().Get("bateria_min")); raw != "" {
			v, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				utils.ValidationError(w, []string{"bateria_min deve ser um número"})
				return
			}
			filter.MinBattery = &v
		}

		sensors, err := database.ListSensors(r.Context(), db, filter)
		if err != nil {
			writeDBError(w, err, "")
			return
		}

		responses := make([]models.SensorResponse, len(sensors))
		for i := range sensors {
			responses[i] = sensors[i].ToSensorResponse()
		}
		utils.Success(w, responses)
	}
}

func GetSensor(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sensor, err := database.GetSensor(r.Context(), db, chi.URLParam(r, "id"))
		if err != nil {
			writeDBError(w, err, msgSensorNotFound)
			return
		}
		utils.Success(w, sensor.ToSensorResponse())
	}
}

func CreateSensor(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req models.CreateSensorRequest
		if !decodeAndValidate(w, r, &req) {
			return
		}

		var errs helpers.ValidationErrors
		if _, err := database.GetBin(r.Context(), db, req.LixeiraID); err != nil {
			if !database.IsNotFound(err) {
				writeDBError(w, err, "")
				return
			}
			errs = append(errs, "lixeira_id não encontrado")
		}
		if err := checkReference(r.Context(), db, database.SensorTypes, req.TipoSensorID, "tipo_sensor_id", &errs); err != nil {
			writeDBError(w, err, "")
			return
		}
		if len(errs) > 0 {
			utils.ValidationError(w, errs)
			return
		}

		now := time.Now().Unix()
		sensor := &models.Sensor{
			BinID:        req.LixeiraID,
			SensorTypeID: nilIfEmpty(req.TipoSensorID),
			Battery:      *req.Bateria,
			LastPing:     &now,
		}
		if err := database.CreateSensor(r.Context(), db, sensor); err != nil {
			writeDBError(w, err, "")
			return
		}

		created, err := database.GetSensor(r.Context(), db, sensor.ID)
		if err != nil {
			writeDBError(w, err, msgSensorNotFound)
			return
		}

		logger.Info("✅ Sensor created", zap.String("sensor_id", sensor.ID), zap.String("bin_id", sensor.BinID))
		utils.JSON(w, http.StatusCreated, created.ToSensorResponse())
	}
}

func UpdateSensor(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req models.UpdateSensorRequest
		if !decodeAndValidate(w, r, &req) {
			return
		}

		sensor, err := database.GetSensor(r.Context(), db, chi.URLParam(r, "id"))
		if err != nil {
			writeDBError(w, err, msgSensorNotFound)
			return
		}

		var errs helpers.ValidationErrors
		if err := checkReference(r.Context(), db, database.SensorTypes, req.TipoSensorID, "tipo_sensor_id", &errs); err != nil {
			writeDBError(w, err, "")
			return
		}
		if len(errs) > 0 {
			utils.ValidationError(w, errs)
			return
		}

		if req.Bateria != nil {
			sensor.Battery = *req.Bateria
		}
		if req.TipoSensorID != nil {
			sensor.SensorTypeID = nilIfEmpty(req.TipoSensorID)
		}

		if err := database.UpdateSensor(r.Context(), db, sensor); err != nil {
			writeDBError(w, err, msgSensorNotFound)
			return
		}

		updated, err := database.GetSensor(r.Context(), db, sensor.ID)
		if err != nil {
			writeDBError(w, err, msgSensorNotFound)
			return
		}
		utils.Success(w, updated.ToSensorResponse())
	}
}

func DeleteSensor(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if err := database.DeleteSensor(r.Context(), db, id); err != nil {
			writeDBError(w, err, msgSensorNotFound)
			return
		}

		logger.Info("🗑️ Sensor deleted", zap.String("sensor_id", id))
		utils.Message(w, http.StatusOK, "Sensor deletado com sucesso")
	}
}
