package handlers

import (
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"tronik-dashboard/internal/logger"
	"tronik-dashboard/internal/services"
	"tronik-dashboard/pkg/utils"

	"go.uber.org/zap"
)

const maxImportBytes = 10 << 20

// ImportCollections accepts a multipart CSV upload in "arquivo"; the
// "atualizar" form value overwrites duplicates instead of skipping them.
func ImportCollections(importer *services.Importer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxImportBytes)
		if err := r.ParseMultipartForm(maxImportBytes); err != nil {
			utils.Error(w, http.StatusBadRequest, "Envie o arquivo CSV no campo 'arquivo' (máximo 10MB)")
			return
		}

		file, header, err := r.FormFile("arquivo")
		if err != nil {
			utils.Error(w, http.StatusBadRequest, "Arquivo não enviado")
			return
		}
		defer file.Close()

		if !strings.EqualFold(filepath.Ext(header.Filename), ".csv") {
			utils.Error(w, http.StatusBadRequest, "O arquivo deve ser CSV")
			return
		}

		update, _ := strconv.ParseBool(r.FormValue("atualizar"))

		logger.Info("📥 CSV import requested",
			zap.String("file", header.Filename),
			zap.Int64("size", header.Size),
			zap.Bool("update", update))

		stats, err := importer.Import(r.Context(), file, update)
		if err != nil {
			logger.Error("❌ CSV import failed", zap.String("file", header.Filename), zap.Error(err))
			utils.Error(w, http.StatusBadRequest, "Não foi possível importar o arquivo: "+err.Error())
			return
		}

		utils.Success(w, map[string]interface{}{
			"mensagem":     "Importação concluída",
			"estatisticas": stats,
		})
	}
}
