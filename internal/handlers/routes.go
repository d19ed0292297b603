package handlers

import (
	"net/http"

	"tronik-dashboard/internal/config"
	"tronik-dashboard/internal/middleware"
	"tronik-dashboard/internal/services"
	"tronik-dashboard/internal/websocket"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jmoiron/sqlx"
)

// Deps is everything the HTTP layer needs. Hub and Scheduler may be nil.
type Deps struct {
	DB          *sqlx.DB
	Config      *config.Config
	Geocoder    *services.Geocoder
	BinGeocoder *services.BinGeocoder
	Reports     *services.ReportService
	Alerts      services.AlertRunner
	Scheduler   *services.AlertScheduler
	Importer    *services.Importer
	Labeler     *services.BinLabeler
	Hub         *websocket.Hub
}

// NewRouter wires every route of the API.
func NewRouter(d Deps) http.Handler {
	db := d.DB
	cfg := d.Config
	loc := cfg.Dashboard.Location()

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/health", Health(db))

	authLimiter := middleware.NewRateLimiter(cfg.RateLimit.AuthRPS, cfg.RateLimit.AuthBurst)
	requireAuth := middleware.Auth(cfg.JWT.Secret)

	r.Route("/auth", func(r chi.Router) {
		r.With(authLimiter.Limit).Post("/login", Login(db, cfg.JWT))
		r.With(authLimiter.Limit).Post("/registro", Register(db))

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Get("/usuario/atual", CurrentUser(db))
			r.Post("/logout", Logout())
		})
	})

	if d.Hub != nil {
		// Authentication handled in handler via query param
		r.Get("/ws", websocket.HandleWebSocket(d.Hub, cfg.JWT.Secret))
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/lixeiras", GetBins(db))
		r.Get("/lixeira/{id}", GetBin(db))
		r.Get("/lixeira/{id}/qrcode", BinQRCode(db, d.Labeler))
		r.Get("/sensores", GetSensors(db))
		r.Get("/sensor/{id}", GetSensor(db))
		r.Get("/coletas", GetCollections(db, loc))
		r.Get("/historico", GetHistory(db, loc))
		r.Get("/parceiros", GetPartners(db))
		r.Get("/tipos/{tipo}", GetLookupTypes(db))
		r.Get("/estatisticas", GetStats(db, cfg.Dashboard))
		r.Get("/configuracoes", GetSettings(cfg.Dashboard))
		r.Get("/relatorios", GetReport(d.Reports, loc))
		r.Get("/relatorios/pdf", GetReportPDF(d.Reports, loc))

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)

			r.Post("/lixeira", CreateBin(db))
			r.Put("/lixeira/{id}", UpdateBin(db))
			r.Post("/lixeira/{id}/geocodificar", GeocodeBin(d.BinGeocoder))
			r.Post("/lixeiras/simular-niveis", SimulateLevels(db))

			r.Post("/sensor", CreateSensor(db))
			r.Put("/sensor/{id}", UpdateSensor(db))

			r.Post("/coleta", CreateCollection(db, loc))

			r.Get("/notificacoes", GetNotifications(db))
			r.Put("/notificacoes/{id}/lida", MarkNotificationRead(db))

			r.Post("/geocodificar", GeocodeAddress(d.Geocoder))
			r.Post("/usuario/fcm-token", UpdateFCMToken(db))
		})

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Use(middleware.RequireRole(middleware.RoleAdmin))

			r.Delete("/lixeira/{id}", DeleteBin(db))
			r.Delete("/sensor/{id}", DeleteSensor(db))

			r.Post("/alertas/processar", ProcessAlerts(d.Alerts))
			r.Get("/alertas/agendamento", GetSchedulerStatus(d.Scheduler, cfg.Scheduler.IntervalMinutes))

			r.Post("/importar", ImportCollections(d.Importer))
			r.Post("/geocodificar/lote", GeocodeBatch(d.BinGeocoder))

			r.Post("/usuarios", CreateUser(db))
		})
	})

	return r
}
