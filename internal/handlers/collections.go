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
	"tronik-dashboard/internal/services"
	"tronik-dashboard/pkg/utils"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

// GetCollections lists collections filtered by lixeira_id, parceiro_id,
// tipo_operacao and the data_inicio/data_fim range, newest first.
func GetCollections(db *sqlx.DB, loc *time.Location) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rf, err := services.ParseReportFilter(r.URL.Query(), loc)
		if err != nil {
			writeValidationError(w, err)
			return
		}

		filter := database.CollectionFilter{
			BinID:         strings.TrimSpace(r.URL.Query().Get("lixeira_id")),
			PartnerID:     rf.PartnerID,
			OperationType: rf.OperationType,
		}
		if rf.Start != nil {
			v := rf.Start.Unix()
			filter.Start = &v
		}
		if rf.End != nil {
			v := rf.End.Unix()
			filter.End = &v
		}

		writeCollections(w, r, db, filter)
	}
}

// GetHistory returns the collections of one day (data=YYYY-MM-DD), or the
// latest ones when no day is given.
func GetHistory(db *sqlx.DB, loc *time.Location) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var filter database.CollectionFilter

		if raw := strings.TrimSpace(r.URL.Query().Get("data")); raw != "" {
			day, err := time.ParseInLocation("2006-01-02", raw, loc)
			if err != nil {
				utils.ValidationError(w, []string{"data deve estar no formato YYYY-MM-DD"})
				return
			}
			start, end := helpers.DayBounds(day)
			s, e := start.Unix(), end.Unix()
			filter.Start, filter.End = &s, &e
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("limite")); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 1 {
				utils.ValidationError(w, []string{"limite deve ser um inteiro positivo"})
				return
			}
			filter.Limit = n
		}

		writeCollections(w, r, db, filter)
	}
}

func writeCollections(w http.ResponseWriter, r *http.Request, db *sqlx.DB, filter database.CollectionFilter) {
	collections, err := database.ListCollections(r.Context(), db, filter)
	if err != nil {
		writeDBError(w, err, "")
		return
	}

	responses := make([]models.CollectionResponse, len(collections))
	for i := range collections {
		responses[i] = collections[i].ToCollectionResponse()
	}
	utils.Success(w, responses)
}

// CreateCollection records a collection. Without parceiro_id the bin's
// partner is used, then the placeholder partner.
func CreateCollection(db *sqlx.DB, loc *time.Location) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req models.CreateCollectionRequest
		if !decodeAndValidate(w, r, &req) {
			return
		}

		var errs helpers.ValidationErrors
		bin, err := database.GetBin(r.Context(), db, req.LixeiraID)
		if err != nil {
			if !database.IsNotFound(err) {
				writeDBError(w, err, "")
				return
			}
			errs = append(errs, "lixeira_id não encontrado")
		}
		if err := checkReference(r.Context(), db, database.Partners, req.ParceiroID, "parceiro_id", &errs); err != nil {
			writeDBError(w, err, "")
			return
		}
		if err := checkReference(r.Context(), db, database.CollectorTypes, req.TipoColetorID, "tipo_coletor_id", &errs); err != nil {
			writeDBError(w, err, "")
			return
		}

		collectedAt := time.Now()
		if req.DataHora != nil && strings.TrimSpace(*req.DataHora) != "" {
			t, _, err := helpers.ParseTimestamp(*req.DataHora, loc)
			if err != nil {
				errs = append(errs, "data_hora deve estar no formato ISO 8601")
			} else {
				collectedAt = t
			}
		}
		if len(errs) > 0 {
			utils.ValidationError(w, errs)
			return
		}

		tx, err := db.BeginTxx(r.Context(), nil)
		if err != nil {
			writeDBError(w, err, "")
			return
		}
		defer tx.Rollback()

		partnerID := nilIfEmpty(req.ParceiroID)
		if partnerID == nil {
			partnerID = bin.PartnerID
		}
		if partnerID == nil {
			id, err := database.FindOrCreatePartner(r.Context(), tx, "")
			if err != nil {
				writeDBError(w, err, "")
				return
			}
			partnerID = &id
		}

		var opType *string
		if req.TipoOperacao != nil {
			opType = services.NormalizeOperationType(*req.TipoOperacao)
		}

		c := &models.Collection{
			BinID:           bin.ID,
			CollectedAt:     collectedAt.Unix(),
			WeightKg:        req.VolumeEstimado,
			OperationType:   opType,
			KmTraveled:      req.KmPercorrido,
			FuelPrice:       req.PrecoCombustivel,
			ProfitPerKg:     req.LucroPorKg,
			MTREmitted:      req.EmissaoMTR,
			PartnerID:       partnerID,
			CollectorTypeID: nilIfEmpty(req.TipoColetorID),
		}
		if err := database.CreateCollection(r.Context(), tx, c); err != nil {
			writeDBError(w, err, "")
			return
		}
		if err := tx.Commit(); err != nil {
			writeDBError(w, err, "")
			return
		}

		created, err := database.GetCollection(r.Context(), db, c.ID)
		if err != nil {
			writeDBError(w, err, "Coleta não encontrada")
			return
		}

		logger.Info("✅ Collection created", zap.String("collection_id", c.ID), zap.String("bin_id", c.BinID))
		utils.JSON(w, http.StatusCreated, created.ToCollectionResponse())
	}
}
