package handlers

import (
	"net/http"

	"tronik-dashboard/internal/database"
	"tronik-dashboard/internal/models"
	"tronik-dashboard/pkg/utils"

	"github.com/go-chi/chi/v5"
	"github.com/jmoiron/sqlx"
)

// GetPartners lists active partners.
func GetPartners(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		partners, err := database.ListPartners(r.Context(), db, true)
		if err != nil {
			writeDBError(w, err, "")
			return
		}

		responses := make([]models.PartnerResponse, len(partners))
		for i := range partners {
			responses[i] = partners[i].ToPartnerResponse()
		}
		utils.Success(w, responses)
	}
}

// GetLookupTypes serves /api/tipos/{tipo} for material, sensor and coletor.
func GetLookupTypes(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		table, ok := database.ParseLookupTable(chi.URLParam(r, "tipo"))
		if !ok {
			utils.Error(w, http.StatusNotFound, "Tipo não encontrado")
			return
		}

		rows, err := database.ListLookups(r.Context(), db, table)
		if err != nil {
			writeDBError(w, err, "")
			return
		}

		responses := make([]models.LookupResponse, len(rows))
		for i := range rows {
			responses[i] = rows[i].ToLookupResponse()
		}
		utils.Success(w, responses)
	}
}
