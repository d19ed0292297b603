package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"tronik-dashboard/internal/config"
	"tronik-dashboard/internal/database"
	"tronik-dashboard/internal/helpers"
	"tronik-dashboard/internal/middleware"
	"tronik-dashboard/internal/models"
	"tronik-dashboard/internal/services"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
)

const testJWTSecret = "handlers-test-secret"

type fakeAlertRunner struct {
	calls int
	stats services.AlertStats
	err   error
}

func (f *fakeAlertRunner) Process(context.Context) (services.AlertStats, error) {
	f.calls++
	if f.err != nil {
		return services.AlertStats{}, f.err
	}
	return f.stats, nil
}

type testServer struct {
	db      *sqlx.DB
	handler http.Handler
	alerts  *fakeAlertRunner
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	db, err := database.Connect("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.Migrate(db))
	require.NoError(t, database.SeedLookups(context.Background(), db))

	cfg := &config.Config{
		JWT:       config.JWTConfig{Secret: testJWTSecret, ExpiryHours: 1},
		Scheduler: config.SchedulerConfig{IntervalMinutes: 60},
		RateLimit: config.RateLimitConfig{AuthRPS: 100, AuthBurst: 100},
		CORS:      config.CORSConfig{AllowedOrigins: []string{"*"}},
		Dashboard: config.DashboardConfig{
			AlertLevel:     80,
			CriticalLevel:  95,
			RefreshSeconds: 30,
			Timezone:       "UTC",
		},
	}

	nominatim := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"lat":"-15.7801","lon":"-47.9292","display_name":"Esplanada, Brasília, Distrito Federal, Brasil","importance":0.6}]`))
	}))
	t.Cleanup(nominatim.Close)
	geocoder := services.NewGeocoder(
		services.WithBaseURL(nominatim.URL),
		services.WithDelay(0),
		services.WithSleep(func(time.Duration) {}),
	)

	alerts := &fakeAlertRunner{stats: services.AlertStats{LixeirasAlertadas: 2}}
	handler := NewRouter(Deps{
		DB:          db,
		Config:      cfg,
		Geocoder:    geocoder,
		BinGeocoder: services.NewBinGeocoder(db, geocoder),
		Reports:     services.NewReportService(db),
		Alerts:      alerts,
		Importer:    services.NewImporter(db, time.UTC),
		Labeler:     services.NewBinLabeler("http://dashboard.local", 128, "M"),
	})

	return &testServer{db: db, handler: handler, alerts: alerts}
}

// createUser stores an active account with the given password.
func (s *testServer) createUser(t *testing.T, username, password string, admin bool) *models.User {
	t.Helper()
	hash, err := helpers.HashPassword(password)
	require.NoError(t, err)

	user := &models.User{
		Username:     username,
		Email:        username + "@tronik.local",
		PasswordHash: hash,
		Active:       true,
		Admin:        admin,
	}
	require.NoError(t, database.CreateUser(context.Background(), s.db, user))
	return user
}

func (s *testServer) token(t *testing.T, admin bool) string {
	t.Helper()
	user := &models.User{ID: "token-user", Username: "token-user", Admin: admin}
	token, err := middleware.GenerateToken(testJWTSecret, user, time.Hour)
	require.NoError(t, err)
	return token
}

func (s *testServer) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func floatPtr(v float64) *float64 { return &v }
