package handlers

import (
	"math"
	"math/rand"
	"net/http"
	"strconv"
	"strings"

	"tronik-dashboard/internal/database"
	"tronik-dashboard/internal/helpers"
	"tronik-dashboard/internal/logger"
	"tronik-dashboard/internal/models"
	"tronik-dashboard/internal/services"
	"tronik-dashboard/pkg/utils"

	"github.com/go-chi/chi/v5"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

const (
	msgBinNotFound        = "Lixeira não encontrada"
	defaultSimulateDelta  = 5.0
	defaultSimulateReduce = 2.0
)

func GetBins(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter := database.BinFilter{
			Status:    strings.TrimSpace(r.URL.Query().Get("status")),
			PartnerID: strings.TrimSpace(r.URL.Query().Get("parceiro_id")),
		}

		bins, err := database.ListBins(r.Context(), db, filter)
		if err != nil {
			writeDBError(w, err, "")
			return
		}

		responses := make([]models.BinResponse, len(bins))
		for i := range bins {
			responses[i] = bins[i].ToBinResponse()
		}
		utils.Success(w, responses)
	}
}

func GetBin(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		bin, err := database.GetBin(r.Context(), db, chi.URLParam(r, "id"))
		if err != nil {
			writeDBError(w, err, msgBinNotFound)
			return
		}
		utils.Success(w, bin.ToBinResponse())
	}
}

func CreateBin(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req models.CreateBinRequest
		if !decodeAndValidate(w, r, &req) {
			return
		}

		var errs helpers.ValidationErrors
		if err := checkReference(r.Context(), db, database.Partners, req.ParceiroID, "parceiro_id", &errs); err != nil {
			writeDBError(w, err, "")
			return
		}
		if err := checkReference(r.Context(), db, database.MaterialTypes, req.TipoMaterialID, "tipo_material_id", &errs); err != nil {
			writeDBError(w, err, "")
			return
		}
		if len(errs) > 0 {
			utils.ValidationError(w, errs)
			return
		}

		bin := &models.Bin{
			Location:       strings.TrimSpace(req.Localizacao),
			Status:         strings.TrimSpace(req.Status),
			Latitude:       req.Latitude,
			Longitude:      req.Longitude,
			PartnerID:      nilIfEmpty(req.ParceiroID),
			MaterialTypeID: nilIfEmpty(req.TipoMaterialID),
		}
		if req.NivelPreenchimento != nil {
			bin.FillLevel = *req.NivelPreenchimento
		}
		if bin.Status == "" {
			bin.Status = models.StatusForLevel("", bin.FillLevel)
		}

		if err := database.CreateBin(r.Context(), db, bin); err != nil {
			writeDBError(w, err, "")
			return
		}

		created, err := database.GetBin(r.Context(), db, bin.ID)
		if err != nil {
			writeDBError(w, err, msgBinNotFound)
			return
		}

		logger.Info("✅ Bin created", zap.String("bin_id", bin.ID), zap.String("location", bin.Location))
		utils.JSON(w, http.StatusCreated, created.ToBinResponse())
	}
}

// UpdateBin applies only the fields present in the body. A new fill level
// without an explicit status recomputes the status.
func UpdateBin(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req models.UpdateBinRequest
		if !decodeAndValidate(w, r, &req) {
			return
		}

		bin, err := database.GetBin(r.Context(), db, chi.URLParam(r, "id"))
		if err != nil {
			writeDBError(w, err, msgBinNotFound)
			return
		}

		var errs helpers.ValidationErrors
		if err := checkReference(r.Context(), db, database.Partners, req.ParceiroID, "parceiro_id", &errs); err != nil {
			writeDBError(w, err, "")
			return
		}
		if err := checkReference(r.Context(), db, database.MaterialTypes, req.TipoMaterialID, "tipo_material_id", &errs); err != nil {
			writeDBError(w, err, "")
			return
		}
		if len(errs) > 0 {
			utils.ValidationError(w, errs)
			return
		}

		if req.Localizacao != nil {
			bin.Location = strings.TrimSpace(*req.Localizacao)
		}
		if req.NivelPreenchimento != nil {
			bin.FillLevel = *req.NivelPreenchimento
			if req.Status == nil {
				bin.Status = models.StatusForLevel(bin.Status, bin.FillLevel)
			}
		}
		if req.Status != nil {
			bin.Status = strings.TrimSpace(*req.Status)
		}
		if req.Latitude != nil {
			bin.Latitude = req.Latitude
		}
		if req.Longitude != nil {
			bin.Longitude = req.Longitude
		}
		if req.ParceiroID != nil {
			bin.PartnerID = nilIfEmpty(req.ParceiroID)
		}
		if req.TipoMaterialID != nil {
			bin.MaterialTypeID = nilIfEmpty(req.TipoMaterialID)
		}

		if err := database.UpdateBin(r.Context(), db, bin); err != nil {
			writeDBError(w, err, msgBinNotFound)
			return
		}

		updated, err := database.GetBin(r.Context(), db, bin.ID)
		if err != nil {
			writeDBError(w, err, msgBinNotFound)
			return
		}
		utils.Success(w, updated.ToBinResponse())
	}
}

// DeleteBin removes the bin with its sensors, collections and notifications.
func DeleteBin(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if err := database.DeleteBin(r.Context(), db, id); err != nil {
			writeDBError(w, err, msgBinNotFound)
			return
		}

		logger.Info("🗑️ Bin deleted", zap.String("bin_id", id))
		utils.Message(w, http.StatusOK, "Lixeira deletada com sucesso")
	}
}

// SimulateLevels moves every bin's fill level by a random step in
// [-reduzir_max, +delta_max], clamped to 0..100. Demo data only.
func SimulateLevels(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req models.SimulateLevelsRequest
		if !decodeAndValidate(w, r, &req) {
			return
		}

		delta, reduce := defaultSimulateDelta, defaultSimulateReduce
		if req.DeltaMax != nil {
			delta = *req.DeltaMax
		}
		if req.ReduzirMax != nil {
			reduce = *req.ReduzirMax
		}

		tx, err := db.BeginTxx(r.Context(), nil)
		if err != nil {
			writeDBError(w, err, "")
			return
		}
		defer tx.Rollback()

		bins, err := database.ListBins(r.Context(), tx, database.BinFilter{})
		if err != nil {
			writeDBError(w, err, "")
			return
		}

		responses := make([]models.BinResponse, 0, len(bins))
		for i := range bins {
			bin := &bins[i]
			step := rand.Float64()*(delta+reduce) - reduce
			level := math.Round(math.Max(0, math.Min(100, bin.FillLevel+step))*10) / 10
			status := models.StatusForLevel(bin.Status, level)

			if err := database.UpdateBinReading(r.Context(), tx, bin.ID, level, status); err != nil {
				writeDBError(w, err, msgBinNotFound)
				return
			}
			bin.FillLevel, bin.Status = level, status
			responses = append(responses, bin.ToBinResponse())
		}

		if err := tx.Commit(); err != nil {
			writeDBError(w, err, "")
			return
		}

		utils.Success(w, map[string]interface{}{
			"mensagem":          "Níveis simulados com sucesso",
			"total_atualizadas": len(responses),
			"lixeiras":          responses,
		})
	}
}

// BinQRCode serves the printable PNG label of a bin.
func BinQRCode(db *sqlx.DB, labeler *services.BinLabeler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		bin, err := database.GetBin(r.Context(), db, chi.URLParam(r, "id"))
		if err != nil {
			writeDBError(w, err, msgBinNotFound)
			return
		}

		png, err := labeler.PNG(bin.ID)
		if err != nil {
			logger.Error("❌ Failed to render QR label", zap.String("bin_id", bin.ID), zap.Error(err))
			utils.Error(w, http.StatusInternalServerError, msgInternalError)
			return
		}

		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Content-Length", strconv.Itoa(len(png)))
		w.WriteHeader(http.StatusOK)
		w.Write(png)
	}
}

// GeocodeBin resolves one bin's location text. Existing coordinates are
// replaced unless forcar=false.
func GeocodeBin(geocoder *services.BinGeocoder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		force := r.URL.Query().Get("forcar") != "false"

		result, err := geocoder.GeocodeBin(r.Context(), chi.URLParam(r, "id"), force)
		if err != nil {
			writeDBError(w, err, msgBinNotFound)
			return
		}
		if !result.Sucesso {
			utils.JSON(w, http.StatusUnprocessableEntity, result)
			return
		}
		utils.Success(w, result)
	}
}
