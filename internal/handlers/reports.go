package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"tronik-dashboard/internal/logger"
	"tronik-dashboard/internal/services"
	"tronik-dashboard/pkg/utils"

	"go.uber.org/zap"
)

// GetReport serves the collection report as JSON.
func GetReport(reports *services.ReportService, loc *time.Location) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter, err := services.ParseReportFilter(r.URL.Query(), loc)
		if err != nil {
			writeValidationError(w, err)
			return
		}

		report, err := reports.Build(r.Context(), filter)
		if err != nil {
			writeDBError(w, err, "")
			return
		}
		utils.Success(w, report)
	}
}

// GetReportPDF serves the same report as a downloadable PDF.
func GetReportPDF(reports *services.ReportService, loc *time.Location) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter, err := services.ParseReportFilter(r.URL.Query(), loc)
		if err != nil {
			writeValidationError(w, err)
			return
		}

		report, err := reports.Build(r.Context(), filter)
		if err != nil {
			writeDBError(w, err, "")
			return
		}

		var buf bytes.Buffer
		if err := services.RenderReportPDF(report, &buf); err != nil {
			logger.Error("❌ Failed to render report PDF", zap.Error(err))
			utils.Error(w, http.StatusInternalServerError, msgInternalError)
			return
		}

		filename := fmt.Sprintf("relatorio_%s.pdf", time.Now().In(loc).Format("20060102_150405"))
		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
		w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
		w.WriteHeader(http.StatusOK)
		w.Write(buf.Bytes())
	}
}
