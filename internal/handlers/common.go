package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"tronik-dashboard/internal/database"
	"tronik-dashboard/internal/helpers"
	"tronik-dashboard/internal/logger"
	"tronik-dashboard/pkg/utils"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

const maxBodyBytes = 1 << 20

const msgInternalError = "Erro interno do servidor"

// decodeAndValidate reads a JSON body into dst and runs its validate tags.
// It writes the 400 response itself and returns false on failure.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		utils.Error(w, http.StatusBadRequest, "Corpo da requisição inválido")
		return false
	}
	if err := helpers.ValidateStruct(dst); err != nil {
		writeValidationError(w, err)
		return false
	}
	return true
}

// writeValidationError sends per-field details when err carries them.
func writeValidationError(w http.ResponseWriter, err error) {
	var verrs helpers.ValidationErrors
	if errors.As(err, &verrs) {
		utils.ValidationError(w, verrs)
		return
	}
	utils.Error(w, http.StatusBadRequest, err.Error())
}

// writeDBError maps persistence errors to 404 or a generic 500.
func writeDBError(w http.ResponseWriter, err error, notFoundMsg string) {
	if database.IsNotFound(err) {
		utils.Error(w, http.StatusNotFound, notFoundMsg)
		return
	}
	logger.Error("❌ Database error", zap.Error(err))
	utils.Error(w, http.StatusInternalServerError, msgInternalError)
}

// checkReference appends a message to errs when id is set but names no row
// of table.
func checkReference(ctx context.Context, db *sqlx.DB, table database.LookupTable, id *string, field string, errs *helpers.ValidationErrors) error {
	if id == nil || *id == "" {
		return nil
	}
	exists, err := database.LookupExists(ctx, db, table, *id)
	if err != nil {
		return err
	}
	if !exists {
		*errs = append(*errs, field+" não encontrado")
	}
	return nil
}

// nilIfEmpty turns "" into nil so optional references can be cleared.
func nilIfEmpty(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	return s
}
