package config

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// ErrMissingSecret is returned when SECRET is not configured. The server must
// not start without it since nonces and tokens derive from it.
var ErrMissingSecret = errors.New("SECRET is not set")

// Config holds all runtime settings for the server.
type Config struct {
	Port        string
	Env         string
	ServiceName string

	DBDriver string
	DSN      string

	Secret   string
	TokenTTL time.Duration

	AdamikAPIKey     string
	AdamikBaseURL    string
	AddressTimeout   time.Duration
	ProjectID        string
	RPCURLTemplate   string
	VerifyTimeout    time.Duration
	NonceReplayGuard bool

	RabbitMQURL string

	ClientOrigin   string
	CSRFEnabled    bool
	RateLimitRPS   float64
	RateLimitBurst int

	S3Region       string
	S3Bucket       string
	S3Endpoint     string
	S3AccessKey    string
	S3SecretKey    string
	S3PublicURL    string
	MediaUploadTTL time.Duration

	OTelEndpoint string
}

// IsProduction reports whether cookies should be marked secure.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// S3Enabled reports whether media uploads can be served.
func (c *Config) S3Enabled() bool {
	return c.S3Bucket != "" && c.S3AccessKey != "" && c.S3SecretKey != ""
}

// Load reads .env (when present) and the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file loaded: %v", err)
	}

	viper.SetDefault("APP_PORT", ":8080")
	viper.SetDefault("APP_ENV", "development")
	viper.SetDefault("SERVICE_NAME", "bloom-api")
	viper.SetDefault("DB_DRIVER", "postgres")
	viper.SetDefault("DATABASE_DSN", "host=localhost user=postgres password=postgres dbname=bloom port=5432 sslmode=disable")
	viper.SetDefault("TOKEN_TTL", "1h")
	viper.SetDefault("ADAMIK_BASE_URL", "https://api.adamik.io")
	viper.SetDefault("ADDRESS_VALIDATION_TIMEOUT", "5s")
	viper.SetDefault("RPC_URL_TEMPLATE", "https://rpc.walletconnect.com/v1/?chainId=eip155:%d&projectId=%s")
	viper.SetDefault("VERIFY_TIMEOUT", "5s")
	viper.SetDefault("NONCE_REPLAY_GUARD", true)
	viper.SetDefault("RABBITMQ_URL", "")
	viper.SetDefault("CLIENT_ORIGIN", "http://localhost:3000")
	viper.SetDefault("CSRF_ENABLED", true)
	viper.SetDefault("RATE_LIMIT_RPS", 5)
	viper.SetDefault("RATE_LIMIT_BURST", 10)
	viper.SetDefault("S3_REGION", "us-east-1")
	viper.SetDefault("MEDIA_UPLOAD_TTL", "15m")
	viper.AutomaticEnv()

	cfg := &Config{
		Port:             viper.GetString("APP_PORT"),
		Env:              viper.GetString("APP_ENV"),
		ServiceName:      viper.GetString("SERVICE_NAME"),
		DBDriver:         viper.GetString("DB_DRIVER"),
		DSN:              viper.GetString("DATABASE_DSN"),
		Secret:           viper.GetString("SECRET"),
		TokenTTL:         viper.GetDuration("TOKEN_TTL"),
		AdamikAPIKey:     viper.GetString("ADAMIK_API_KEY"),
		AdamikBaseURL:    viper.GetString("ADAMIK_BASE_URL"),
		AddressTimeout:   viper.GetDuration("ADDRESS_VALIDATION_TIMEOUT"),
		ProjectID:        viper.GetString("PROJECT_ID"),
		RPCURLTemplate:   viper.GetString("RPC_URL_TEMPLATE"),
		VerifyTimeout:    viper.GetDuration("VERIFY_TIMEOUT"),
		NonceReplayGuard: viper.GetBool("NONCE_REPLAY_GUARD"),
		RabbitMQURL:      viper.GetString("RABBITMQ_URL"),
		ClientOrigin:     viper.GetString("CLIENT_ORIGIN"),
		CSRFEnabled:      viper.GetBool("CSRF_ENABLED"),
		RateLimitRPS:     viper.GetFloat64("RATE_LIMIT_RPS"),
		RateLimitBurst:   viper.GetInt("RATE_LIMIT_BURST"),
		S3Region:         viper.GetString("S3_REGION"),
		S3Bucket:         viper.GetString("S3_BUCKET"),
		S3Endpoint:       viper.GetString("S3_ENDPOINT"),
		S3AccessKey:      viper.GetString("S3_ACCESS_KEY"),
		S3SecretKey:      viper.GetString("S3_SECRET_KEY"),
		S3PublicURL:      viper.GetString("S3_PUBLIC_URL"),
		MediaUploadTTL:   viper.GetDuration("MEDIA_UPLOAD_TTL"),
		OTelEndpoint:     viper.GetString("OTEL_EXPORTER_OTLP_ENDPOINT"),
	}

	if cfg.Secret == "" {
		return nil, ErrMissingSecret
	}
	if cfg.DBDriver != "postgres" && cfg.DBDriver != "sqlite" {
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
	}
	if cfg.TokenTTL <= 0 {
		return nil, fmt.Errorf("TOKEN_TTL must be positive, got %s", cfg.TokenTTL)
	}

	return cfg, nil
}
