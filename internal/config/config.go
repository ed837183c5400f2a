package config

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cast"
)

// Config regroupe toute la configuration lue depuis l'environnement.
type Config struct {
	Port   string
	AppEnv string

	LogFile string

	MongoURI string
	MongoDB  string

	RedisHost     string
	RedisPassword string

	ElasticURL      string
	ElasticUser     string
	ElasticPassword string

	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool

	JWTSecret string

	StripeSecretKey      string
	StripePublishableKey string
	StripeWebhookSecret  string

	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	EmailFrom    string

	FrontendURL string
	BaseURL     string

	GoogleClientID       string
	GoogleClientSecret   string
	FacebookClientID     string
	FacebookClientSecret string
	SessionSecret        string

	CORSOrigins []string

	CronEnabled  bool
	CronLocation string
}

// App est la configuration active. Load la remplace; les tests peuvent la modifier directement.
var App = defaults()

func defaults() *Config {
	return &Config{
		Port:         "8080",
		AppEnv:       "development",
		MongoURI:     "mongodb://localhost:27017",
		MongoDB:      "vendora",
		MinioBucket:  "vendora",
		JWTSecret:    "super_secret",
		SMTPPort:     587,
		EmailFrom:    "noreply@vendora.shop",
		FrontendURL:  "http://localhost:3000",
		BaseURL:      "http://localhost:8080",
		CORSOrigins:  []string{"*"},
		CronEnabled:  true,
		CronLocation: "UTC",
	}
}

// Load charge le fichier .env (s'il existe) puis lit l'environnement.
// L'erreur retournée concerne uniquement le .env et n'est pas bloquante:
// le logger n'existe pas encore, c'est à l'appelant de la journaliser.
func Load() (*Config, error) {
	envErr := godotenv.Load(".env")

	cfg := defaults()
	cfg.Port = getEnv("PORT", cfg.Port)
	cfg.AppEnv = getEnv("APP_ENV", cfg.AppEnv)
	cfg.LogFile = os.Getenv("LOG_FILE")

	cfg.MongoURI = getEnv("MONGODB_URI", cfg.MongoURI)
	cfg.MongoDB = getEnv("MONGODB_DB", cfg.MongoDB)

	cfg.RedisHost = os.Getenv("REDIS_HOST")
	cfg.RedisPassword = os.Getenv("REDIS_PASSWORD")

	cfg.ElasticURL = os.Getenv("ELASTIC_URL")
	cfg.ElasticUser = os.Getenv("ELASTIC_USER")
	cfg.ElasticPassword = os.Getenv("ELASTIC_PASSWORD")

	cfg.MinioEndpoint = os.Getenv("MINIO_ENDPOINT")
	cfg.MinioAccessKey = os.Getenv("MINIO_ACCESS_KEY")
	cfg.MinioSecretKey = os.Getenv("MINIO_SECRET_KEY")
	cfg.MinioBucket = getEnv("MINIO_BUCKET", cfg.MinioBucket)
	cfg.MinioUseSSL = cast.ToBool(os.Getenv("MINIO_USE_SSL"))

	cfg.JWTSecret = getEnv("JWT_SECRET", cfg.JWTSecret)

	cfg.StripeSecretKey = os.Getenv("STRIPE_SECRET_KEY")
	cfg.StripePublishableKey = os.Getenv("STRIPE_PUBLISHABLE_KEY")
	cfg.StripeWebhookSecret = os.Getenv("STRIPE_WEBHOOK_SECRET")

	cfg.SMTPHost = os.Getenv("SMTP_HOST")
	if port := cast.ToInt(os.Getenv("SMTP_PORT")); port > 0 {
		cfg.SMTPPort = port
	}
	cfg.SMTPUsername = os.Getenv("SMTP_USERNAME")
	cfg.SMTPPassword = os.Getenv("SMTP_PASSWORD")
	cfg.EmailFrom = getEnv("EMAIL_FROM", cfg.EmailFrom)

	cfg.FrontendURL = strings.TrimRight(getEnv("FRONTEND_URL", cfg.FrontendURL), "/")
	cfg.BaseURL = strings.TrimRight(getEnv("BASE_URL", cfg.BaseURL), "/")

	cfg.GoogleClientID = os.Getenv("GOOGLE_CLIENT_ID")
	cfg.GoogleClientSecret = os.Getenv("GOOGLE_CLIENT_SECRET")
	cfg.FacebookClientID = os.Getenv("FACEBOOK_CLIENT_ID")
	cfg.FacebookClientSecret = os.Getenv("FACEBOOK_CLIENT_SECRET")
	cfg.SessionSecret = os.Getenv("SESSION_SECRET")

	if origins := os.Getenv("CORS_ORIGINS"); origins != "" {
		cfg.CORSOrigins = splitList(origins)
	}

	if v := os.Getenv("CRON_ENABLED"); v != "" {
		cfg.CronEnabled = cast.ToBool(v)
	}
	cfg.CronLocation = getEnv("CRON_LOCATION", cfg.CronLocation)

	App = cfg
	return cfg, envErr
}

// IsProduction indique si l'application tourne en production.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
