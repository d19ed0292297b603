package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	JWT       JWTConfig
	SMTP      SMTPConfig
	Scheduler SchedulerConfig
	Geocoding GeocodingConfig
	FCM       FCMConfig
	Telegram  TelegramConfig
	MQTT      MQTTConfig
	RateLimit RateLimitConfig
	CORS      CORSConfig
	Dashboard DashboardConfig
}

type ServerConfig struct {
	Port        string
	Environment string
	PublicURL   string
}

type DatabaseConfig struct {
	Driver string
	URL    string
}

type JWTConfig struct {
	Secret      string
	ExpiryHours int
}

type SMTPConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
}

// Enabled reports whether enough SMTP settings exist to attempt delivery.
func (c SMTPConfig) Enabled() bool {
	return c.Host != "" && c.From != ""
}

type SchedulerConfig struct {
	Enabled         bool
	IntervalMinutes int
}

// Interval returns the alert job period; anything below one minute means 60.
func (c SchedulerConfig) Interval() time.Duration {
	if c.IntervalMinutes < 1 {
		return 60 * time.Minute
	}
	return time.Duration(c.IntervalMinutes) * time.Minute
}

type GeocodingConfig struct {
	BaseURL   string
	UserAgent string
	Delay     time.Duration
	CacheTTL  time.Duration
}

type FCMConfig struct {
	CredentialsFile   string
	CredentialsBase64 string
}

type TelegramConfig struct {
	BotToken string
	ChatID   int64
}

type MQTTConfig struct {
	Broker   string
	ClientID string
	Username string
	Password string
	Topic    string
}

type RateLimitConfig struct {
	AuthRPS   float64
	AuthBurst int
}

type CORSConfig struct {
	AllowedOrigins []string
}

// DashboardConfig holds the values exposed by GET /api/configuracoes.
type DashboardConfig struct {
	AlertLevel     float64
	CriticalLevel  float64
	RefreshSeconds int
	Timezone       string
}

// Location resolves the configured timezone, falling back to UTC.
func (c DashboardConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "8080")
	v.SetDefault("ENVIRONMENT", "development")
	v.SetDefault("PUBLIC_URL", "http://localhost:8080")
	v.SetDefault("DATABASE_DRIVER", "postgres")
	v.SetDefault("JWT_EXPIRY_HOURS", 24*7)
	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("AGENDAMENTO_ENABLED", false)
	v.SetDefault("AGENDAMENTO_INTERVALO_MINUTOS", 60)
	v.SetDefault("NOMINATIM_URL", "https://nominatim.openstreetmap.org/search")
	v.SetDefault("NOMINATIM_USER_AGENT", "Dashboard-TRONIK/1.0")
	v.SetDefault("GEOCODING_DELAY", "1s")
	v.SetDefault("GEOCODING_CACHE_TTL", "24h")
	v.SetDefault("MQTT_CLIENT_ID", "tronik-dashboard")
	v.SetDefault("MQTT_TOPIC", "tronik/lixeiras/+/leitura")
	v.SetDefault("RATE_LIMIT_AUTH_RPS", 1.0)
	v.SetDefault("RATE_LIMIT_AUTH_BURST", 5)
	v.SetDefault("CORS_ALLOWED_ORIGINS", "*")
	v.SetDefault("NIVEL_ALERTA", 80.0)
	v.SetDefault("NIVEL_CRITICO", 95.0)
	v.SetDefault("INTERVALO_ATUALIZACAO", 30)
	v.SetDefault("TIMEZONE", "America/Sao_Paulo")
}

// Load reads .env (when present) into the process environment and builds
// the typed configuration from environment variables.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		fmt.Println("⚠️  .env file not found, using environment variables from system")
	}

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	cfg := &Config{
		Server: ServerConfig{
			Port:        v.GetString("PORT"),
			Environment: v.GetString("ENVIRONMENT"),
			PublicURL:   strings.TrimRight(v.GetString("PUBLIC_URL"), "/"),
		},
		Database: DatabaseConfig{
			Driver: v.GetString("DATABASE_DRIVER"),
			URL:    v.GetString("DATABASE_URL"),
		},
		JWT: JWTConfig{
			Secret:      v.GetString("APP_JWT_SECRET"),
			ExpiryHours: v.GetInt("JWT_EXPIRY_HOURS"),
		},
		SMTP: SMTPConfig{
			Host:     v.GetString("SMTP_HOST"),
			Port:     v.GetInt("SMTP_PORT"),
			User:     v.GetString("SMTP_USER"),
			Password: v.GetString("SMTP_PASSWORD"),
			From:     v.GetString("SMTP_FROM"),
		},
		Scheduler: SchedulerConfig{
			Enabled:         v.GetBool("AGENDAMENTO_ENABLED"),
			IntervalMinutes: v.GetInt("AGENDAMENTO_INTERVALO_MINUTOS"),
		},
		Geocoding: GeocodingConfig{
			BaseURL:   v.GetString("NOMINATIM_URL"),
			UserAgent: v.GetString("NOMINATIM_USER_AGENT"),
			Delay:     v.GetDuration("GEOCODING_DELAY"),
			CacheTTL:  v.GetDuration("GEOCODING_CACHE_TTL"),
		},
		FCM: FCMConfig{
			CredentialsFile:   v.GetString("FIREBASE_CREDENTIALS_FILE"),
			CredentialsBase64: v.GetString("FIREBASE_CREDENTIALS_BASE64"),
		},
		Telegram: TelegramConfig{
			BotToken: v.GetString("TELEGRAM_BOT_TOKEN"),
			ChatID:   v.GetInt64("TELEGRAM_CHAT_ID"),
		},
		MQTT: MQTTConfig{
			Broker:   v.GetString("MQTT_BROKER"),
			ClientID: v.GetString("MQTT_CLIENT_ID"),
			Username: v.GetString("MQTT_USERNAME"),
			Password: v.GetString("MQTT_PASSWORD"),
			Topic:    v.GetString("MQTT_TOPIC"),
		},
		RateLimit: RateLimitConfig{
			AuthRPS:   v.GetFloat64("RATE_LIMIT_AUTH_RPS"),
			AuthBurst: v.GetInt("RATE_LIMIT_AUTH_BURST"),
		},
		CORS: CORSConfig{
			AllowedOrigins: splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
		},
		Dashboard: DashboardConfig{
			AlertLevel:     v.GetFloat64("NIVEL_ALERTA"),
			CriticalLevel:  v.GetFloat64("NIVEL_CRITICO"),
			RefreshSeconds: v.GetInt("INTERVALO_ATUALIZACAO"),
			Timezone:       v.GetString("TIMEZONE"),
		},
	}

	return cfg, nil
}

// Validate checks the settings the HTTP server cannot start without.
func (c *Config) Validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL environment variable is required")
	}
	if c.JWT.Secret == "" {
		return fmt.Errorf("APP_JWT_SECRET environment variable is required")
	}
	return nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
