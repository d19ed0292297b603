package services

import (
	"context"
	"fmt"
	"time"

	"tronik-dashboard/internal/database"
	"tronik-dashboard/internal/logger"
	"tronik-dashboard/internal/models"

	"github.com/jmoiron/sqlx"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
	"go.uber.org/zap"
)

// reviewDistanceKm flags re-geocoded bins that moved further than this.
const reviewDistanceKm = 1.0

// BinGeocodeResult is the outcome of geocoding a single bin
type BinGeocodeResult struct {
	LixeiraID         string   `json:"lixeira_id"`
	Localizacao       string   `json:"localizacao"`
	Sucesso           bool     `json:"sucesso"`
	Pulada            bool     `json:"pulada"`
	Mensagem          string   `json:"mensagem"`
	Latitude          *float64 `json:"latitude,omitempty"`
	Longitude         *float64 `json:"longitude,omitempty"`
	Estrategia        string   `json:"estrategia,omitempty"`
	Aviso             string   `json:"aviso,omitempty"`
	DistanciaMovidaKm float64  `json:"distancia_movida_km,omitempty"`
	RequerRevisao     bool     `json:"requer_revisao,omitempty"`
}

// BatchGeocodeError describes one bin the batch could not geocode
type BatchGeocodeError struct {
	LixeiraID   string `json:"lixeira_id"`
	Localizacao string `json:"localizacao"`
	Erro        string `json:"erro"`
}

// BatchGeocodeStats summarizes a GeocodeBins run
type BatchGeocodeStats struct {
	Total       int                 `json:"total"`
	Processadas int                 `json:"processadas"`
	Sucesso     int                 `json:"sucesso"`
	Falha       int                 `json:"falha"`
	Puladas     int                 `json:"puladas"`
	Erros       []BatchGeocodeError `json:"erros"`
}

type BatchGeocodeOptions struct {
	Force bool
	Limit int
	// Delay between bins; zero means the geocoder's own delay.
	Delay time.Duration
}

// BinGeocoder stores geocoding results on bins.
type BinGeocoder struct {
	db       *sqlx.DB
	geocoder *Geocoder
}

func NewBinGeocoder(db *sqlx.DB, geocoder *Geocoder) *BinGeocoder {
	return &BinGeocoder{db: db, geocoder: geocoder}
}

// GeocodeBin resolves the bin's location and saves the coordinates. Bins
// that already have coordinates are skipped unless force is set.
func (s *BinGeocoder) GeocodeBin(ctx context.Context, binID string, force bool) (*BinGeocodeResult, error) {
	bin, err := database.GetBin(ctx, s.db, binID)
	if err != nil {
		return nil, err
	}
	return s.geocodeBin(ctx, bin, force)
}

func (s *BinGeocoder) geocodeBin(ctx context.Context, bin *models.Bin, force bool) (*BinGeocodeResult, error) {
	out := &BinGeocodeResult{LixeiraID: bin.ID, Localizacao: bin.Location}

	if !force && bin.HasCoordinates() {
		out.Sucesso = true
		out.Pulada = true
		out.Mensagem = "Lixeira já possui coordenadas"
		out.Latitude, out.Longitude = bin.Latitude, bin.Longitude
		return out, nil
	}

	result := s.geocoder.Geocode(ctx, bin.Location)
	if result == nil {
		out.Mensagem = fmt.Sprintf("Não foi possível geocodificar: %s", bin.Location)
		return out, nil
	}

	if err := database.UpdateBinCoordinates(ctx, s.db, bin.ID, result.Latitude, result.Longitude); err != nil {
		return nil, err
	}

	if bin.HasCoordinates() {
		out.DistanciaMovidaKm, out.RequerRevisao = compareCoordinates(
			*bin.Latitude, *bin.Longitude, result.Latitude, result.Longitude)
	}

	out.Sucesso = true
	out.Latitude = &result.Latitude
	out.Longitude = &result.Longitude
	out.Estrategia = result.Strategy
	out.Aviso = result.Warning
	if result.IsFallback() {
		out.Mensagem = fmt.Sprintf("Coordenadas aproximadas (fallback): (%.6f, %.6f)", result.Latitude, result.Longitude)
	} else {
		out.Mensagem = fmt.Sprintf("Coordenadas atualizadas: (%.6f, %.6f)", result.Latitude, result.Longitude)
	}
	return out, nil
}

// GeocodeBins processes every bin lacking coordinates (all bins with Force),
// pausing between bins. Per-bin failures are collected, never returned.
func (s *BinGeocoder) GeocodeBins(ctx context.Context, opts BatchGeocodeOptions) (*BatchGeocodeStats, error) {
	bins, err := database.BinsForGeocoding(ctx, s.db, opts.Force, opts.Limit)
	if err != nil {
		return nil, err
	}

	delay := opts.Delay
	if delay <= 0 {
		delay = s.geocoder.delay
	}

	stats := &BatchGeocodeStats{Total: len(bins), Erros: []BatchGeocodeError{}}
	logger.Info("🌍 Starting batch geocoding", zap.Int("bins", stats.Total), zap.Bool("force", opts.Force))

	for i := range bins {
		if ctx.Err() != nil {
			break
		}
		bin := &bins[i]
		stats.Processadas++

		logger.Info("Geocoding bin",
			zap.Int("index", i+1),
			zap.Int("total", stats.Total),
			zap.String("location", bin.Location))

		out, err := s.geocodeBin(ctx, bin, opts.Force)
		switch {
		case err != nil:
			stats.Falha++
			stats.Erros = append(stats.Erros, BatchGeocodeError{LixeiraID: bin.ID, Localizacao: bin.Location, Erro: err.Error()})
		case out.Pulada:
			stats.Puladas++
		case out.Sucesso:
			stats.Sucesso++
		default:
			stats.Falha++
			stats.Erros = append(stats.Erros, BatchGeocodeError{LixeiraID: bin.ID, Localizacao: bin.Location, Erro: out.Mensagem})
		}

		if i < len(bins)-1 {
			s.geocoder.sleep(delay)
		}
	}

	logger.Info("✅ Batch geocoding finished",
		zap.Int("total", stats.Total),
		zap.Int("success", stats.Sucesso),
		zap.Int("failed", stats.Falha),
		zap.Int("skipped", stats.Puladas))

	return stats, nil
}

// compareCoordinates returns how far a bin moved in km and whether the move
// is large enough to need a human look.
func compareCoordinates(oldLat, oldLon, newLat, newLon float64) (float64, bool) {
	if oldLat == 0 && oldLon == 0 {
		return 0, false
	}
	km := geo.DistanceHaversine(orb.Point{oldLon, oldLat}, orb.Point{newLon, newLat}) / 1000
	return km, km > reviewDistanceKm
}
