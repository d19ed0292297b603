package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"tronik-dashboard/internal/logger"

	"github.com/paulmach/orb"
	"go.uber.org/zap"
)

const (
	DefaultNominatimURL = "https://nominatim.openstreetmap.org/search"
	DefaultUserAgent    = "Dashboard-TRONIK/1.0"

	FallbackStrategy      = "fallback"
	warningOutsideRegion  = "Coordenadas podem estar incorretas"
	warningApproximate    = "Coordenadas aproximadas - endereço não encontrado no Nominatim"
	nominatimResultLimit  = "3"
	nominatimCountryCodes = "br"
)

// venueKeywords mark inputs that already name a kind of place; short inputs
// without one get extra region-qualified variants.
var venueKeywords = []string{"hotel", "condomínio", "shopping", "escola", "igreja", "colegio", "associação"}

// Region describes where addresses are expected to be.
type Region struct {
	City             string
	State            string
	Country          string
	PriorityKeywords []string
	Bounds           orb.Bound
	Center           orb.Point
}

// Brasilia is the default region.
var Brasilia = Region{
	City:             "Brasília",
	State:            "DF",
	Country:          "Brasil",
	PriorityKeywords: []string{"brasília", "brasilia", "df", "distrito federal"},
	Bounds: orb.Bound{
		Min: orb.Point{-48.5, -16.5},
		Max: orb.Point{-47.0, -15.0},
	},
	Center: orb.Point{-47.8822, -15.7942},
}

// GeocodeResult is a resolved coordinate. Strategy is the 1-based variant
// index that produced it, or "fallback".
type GeocodeResult struct {
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	DisplayName string  `json:"display_name"`
	Importance  float64 `json:"importance"`
	Strategy    string  `json:"estrategia"`
	Warning     string  `json:"aviso,omitempty"`
}

// IsFallback reports whether the result is the region center placeholder.
func (r *GeocodeResult) IsFallback() bool {
	return r.Strategy == FallbackStrategy
}

type nominatimPlace struct {
	Lat         string  `json:"lat"`
	Lon         string  `json:"lon"`
	DisplayName string  `json:"display_name"`
	Importance  float64 `json:"importance"`
}

// Geocoder resolves free-text bin locations through Nominatim.
type Geocoder struct {
	baseURL   string
	userAgent string
	delay     time.Duration
	region    Region
	client    *http.Client
	cache     *GeocodeCache
	sleep     func(time.Duration)
}

type GeocoderOption func(*Geocoder)

func WithBaseURL(u string) GeocoderOption {
	return func(g *Geocoder) { g.baseURL = u }
}

func WithUserAgent(ua string) GeocoderOption {
	return func(g *Geocoder) { g.userAgent = ua }
}

func WithDelay(d time.Duration) GeocoderOption {
	return func(g *Geocoder) { g.delay = d }
}

func WithRegion(r Region) GeocoderOption {
	return func(g *Geocoder) { g.region = r }
}

func WithHTTPClient(c *http.Client) GeocoderOption {
	return func(g *Geocoder) { g.client = c }
}

func WithCache(c *GeocodeCache) GeocoderOption {
	return func(g *Geocoder) { g.cache = c }
}

// WithSleep replaces time.Sleep, mainly so tests can record the pauses.
func WithSleep(fn func(time.Duration)) GeocoderOption {
	return func(g *Geocoder) { g.sleep = fn }
}

func NewGeocoder(opts ...GeocoderOption) *Geocoder {
	g := &Geocoder{
		baseURL:   DefaultNominatimURL,
		userAgent: DefaultUserAgent,
		delay:     time.Second,
		region:    Brasilia,
		client:    &http.Client{Timeout: 10 * time.Second},
		sleep:     time.Sleep,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Variants returns the query strings tried for text, most specific first.
func (g *Geocoder) Variants(text string) []string {
	r := g.region
	variants := []string{
		fmt.Sprintf("%s, %s, %s, %s", text, r.City, r.State, r.Country),
		fmt.Sprintf("%s, %s, %s", text, r.City, r.State),
		fmt.Sprintf("%s, %s", text, r.City),
		text,
	}

	if len(strings.Fields(text)) <= 2 && !containsAny(strings.ToLower(text), venueKeywords) {
		extra := []string{
			fmt.Sprintf("%s, Brasília, DF, Brasil", text),
			fmt.Sprintf("%s, Distrito Federal, Brasil", text),
		}
		variants = append(variants[:1], append(extra, variants[1:]...)...)
	}
	return variants
}

// Geocode resolves text to coordinates. It returns nil only for blank input;
// when no variant succeeds the region center is returned with a warning.
func (g *Geocoder) Geocode(ctx context.Context, text string) *GeocodeResult {
	text = strings.TrimSpace(text)
	if text == "" {
		logger.Warn("Empty address passed to geocoder")
		return nil
	}

	if g.cache != nil {
		if cached, ok := g.cache.Get(text); ok {
			return cached
		}
	}

	variants := g.Variants(text)
	for i, query := range variants {
		attempt := i + 1
		last := attempt == len(variants)

		places, status, err := g.search(ctx, query)
		if status == http.StatusTooManyRequests {
			logger.Warn("⚠️ Nominatim rate limit hit",
				zap.Int("attempt", attempt))
			if !last {
				g.sleep(2 * g.delay)
			}
			continue
		}
		if err != nil {
			logger.Debug("Geocoding request failed",
				zap.Int("attempt", attempt),
				zap.String("query", query),
				zap.Error(err))
		} else if len(places) > 0 {
			best, lat, lon, ok := g.pick(places)
			if ok {
				result := &GeocodeResult{
					Latitude:    lat,
					Longitude:   lon,
					DisplayName: best.DisplayName,
					Importance:  best.Importance,
					Strategy:    strconv.Itoa(attempt),
				}
				if g.region.Bounds.Contains(orb.Point{lon, lat}) {
					logger.Info("✅ Geocoded address",
						zap.String("address", text),
						zap.Float64("lat", lat),
						zap.Float64("lon", lon),
						zap.Int("strategy", attempt))
					g.remember(text, result)
					return result
				}
				if last {
					logger.Warn("⚠️ Geocoding result outside region",
						zap.String("address", text),
						zap.Float64("lat", lat),
						zap.Float64("lon", lon))
					result.Warning = warningOutsideRegion
					g.remember(text, result)
					return result
				}
			}
		}

		if !last {
			g.sleep(g.delay)
		}
	}

	logger.Warn("⚠️ Address not found, using region center",
		zap.String("address", text),
		zap.Int("attempts", len(variants)))

	return &GeocodeResult{
		Latitude:    g.region.Center.Lat(),
		Longitude:   g.region.Center.Lon(),
		DisplayName: fmt.Sprintf("%s, %s, %s, %s (aproximado)", text, g.region.City, g.region.State, g.region.Country),
		Importance:  0,
		Strategy:    FallbackStrategy,
		Warning:     warningApproximate,
	}
}

func (g *Geocoder) search(ctx context.Context, query string) ([]nominatimPlace, int, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("format", "json")
	params.Set("limit", nominatimResultLimit)
	params.Set("addressdetails", "1")
	params.Set("countrycodes", nominatimCountryCodes)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("User-Agent", g.userAgent)

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, resp.StatusCode, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, resp.StatusCode, fmt.Errorf("nominatim returned status %d", resp.StatusCode)
	}

	var places []nominatimPlace
	if err := json.NewDecoder(resp.Body).Decode(&places); err != nil {
		return nil, resp.StatusCode, fmt.Errorf("failed to decode response: %w", err)
	}
	return places, resp.StatusCode, nil
}

// pick moves candidates naming the region to the front and parses the first.
func (g *Geocoder) pick(places []nominatimPlace) (nominatimPlace, float64, float64, bool) {
	sort.SliceStable(places, func(i, j int) bool {
		return g.mentionsRegion(places[i].DisplayName) && !g.mentionsRegion(places[j].DisplayName)
	})

	best := places[0]
	lat, err := strconv.ParseFloat(best.Lat, 64)
	if err != nil {
		return best, 0, 0, false
	}
	lon, err := strconv.ParseFloat(best.Lon, 64)
	if err != nil {
		return best, 0, 0, false
	}
	return best, lat, lon, true
}

func (g *Geocoder) mentionsRegion(displayName string) bool {
	return containsAny(strings.ToLower(displayName), g.region.PriorityKeywords)
}

func (g *Geocoder) remember(text string, result *GeocodeResult) {
	if g.cache != nil {
		g.cache.Set(text, result)
	}
}

// ValidateCoordinates reports whether lat/lon are valid WGS84 values.
func ValidateCoordinates(lat, lon float64) bool {
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}
