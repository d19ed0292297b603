package handlers

import (
	"net/http"
	"strings"

	"tronik-dashboard/internal/services"
	"tronik-dashboard/pkg/utils"
)

const defaultBatchGeocodeLimit = 50

// GeocodeRequest is the body of POST /api/geocodificar
type GeocodeRequest struct {
	Endereco string `json:"endereco" validate:"required,max=300"`
}

// BatchGeocodeRequest is the body of POST /api/geocodificar/lote
type BatchGeocodeRequest struct {
	Forcar bool `json:"forcar"`
	Limite *int `json:"limite" validate:"omitempty,gte=1,lte=500"`
}

// GeocodeAddress resolves free text without touching any bin.
func GeocodeAddress(geocoder *services.Geocoder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req GeocodeRequest
		if !decodeAndValidate(w, r, &req) {
			return
		}

		if strings.TrimSpace(req.Endereco) == "" {
			utils.ValidationError(w, []string{"endereco é obrigatório"})
			return
		}
		result := geocoder.Geocode(r.Context(), req.Endereco)

		utils.Success(w, map[string]interface{}{
			"sucesso":           true,
			"endereco":          req.Endereco,
			"latitude":          result.Latitude,
			"longitude":         result.Longitude,
			"endereco_completo": result.DisplayName,
			"importancia":       result.Importance,
			"estrategia":        result.Strategy,
			"aviso":             result.Warning,
		})
	}
}

// GeocodeBatch geocodes bins lacking coordinates (all bins with forcar).
// The request blocks for about one rate-limit delay per bin.
func GeocodeBatch(binGeocoder *services.BinGeocoder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req BatchGeocodeRequest
		if r.ContentLength != 0 {
			if !decodeAndValidate(w, r, &req) {
				return
			}
		}

		limit := defaultBatchGeocodeLimit
		if req.Limite != nil {
			limit = *req.Limite
		}

		stats, err := binGeocoder.GeocodeBins(r.Context(), services.BatchGeocodeOptions{
			Force: req.Forcar,
			Limit: limit,
		})
		if err != nil {
			writeDBError(w, err, "")
			return
		}
		utils.Success(w, stats)
	}
}
