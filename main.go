package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bloom/internal/addressvalidator"
	"bloom/internal/config"
	"bloom/internal/database"
	"bloom/internal/handlers"
	"bloom/internal/middleware"
	"bloom/internal/repositories"
	"bloom/internal/services"
	"bloom/internal/siwe"
	"bloom/internal/telemetry"
	"bloom/pkg/mediastore"
	"bloom/pkg/rabbitmq"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

func main() {
	// --- Configuration ---
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx := context.Background()

	// --- Tracing ---
	shutdownTracing, err := telemetry.Setup(ctx, cfg.ServiceName, cfg.OTelEndpoint)
	if err != nil {
		log.Fatalf("Failed to initialize tracing: %v", err)
	}

	// --- Database ---
	db, err := database.Open(database.Config{Driver: cfg.DBDriver, DSN: cfg.DSN})
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	// --- RabbitMQ (optional) ---
	// Events are best effort; the API keeps serving without a broker.
	var events services.EventPublisher
	var mqClient *rabbitmq.Client
	if cfg.RabbitMQURL != "" {
		mqClient, err = rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQURL})
		if err != nil {
			log.Printf("RabbitMQ unavailable, domain events disabled: %v", err)
		} else {
			events = mqClient
			if err := mqClient.Consume("bloom.activity-log", "#", rabbitmq.LogEvent); err != nil {
				log.Printf("Failed to start RabbitMQ consumer: %v", err)
			}
		}
	}

	// --- Media storage (optional) ---
	var media *services.MediaService
	if cfg.S3Enabled() {
		store, err := mediastore.New(ctx, mediastore.Config{
			Region:    cfg.S3Region,
			Bucket:    cfg.S3Bucket,
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			PublicURL: cfg.S3PublicURL,
		})
		if err != nil {
			log.Fatalf("Failed to initialize media storage: %v", err)
		}
		media = services.NewMediaService(store, cfg.MediaUploadTTL)
	} else {
		log.Println("S3 is not configured, media uploads are disabled")
	}

	app, err := newApp(cfg, db, events, media)
	if err != nil {
		log.Fatalf("Failed to build application: %v", err)
	}

	// --- Start HTTP Server ---
	log.Printf("Starting server on port %s", cfg.Port)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := app.Listen(cfg.Port); err != nil {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	<-quit
	log.Println("Shutting down server...")

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.Printf("Error during Fiber shutdown: %v", err)
	}
	if mqClient != nil {
		if err := mqClient.Close(); err != nil {
			log.Printf("Error closing RabbitMQ client: %v", err)
		}
	}
	if err := database.Close(db); err != nil {
		log.Printf("Error closing database: %v", err)
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Printf("Error flushing traces: %v", err)
	}
	log.Println("Server gracefully stopped")
}

// newApp wires repositories, verifiers and services into the HTTP app.
// events and media may be nil.
func newApp(cfg *config.Config, db *gorm.DB, events services.EventPublisher, media *services.MediaService) (*fiber.App, error) {
	// --- Repositories ---
	userRepo := repositories.NewGORMUserRepository(db)
	accountRepo := repositories.NewGORMWeb3AccountRepository(db)
	nonceRepo := repositories.NewGORMNonceRepository(db)
	followRepo := repositories.NewGORMFollowRepository(db)
	postRepo := repositories.NewGORMPostRepository(db)

	// --- Address validation and signature verification ---
	var addresses addressvalidator.Validator = addressvalidator.Local{}
	if cfg.AdamikAPIKey != "" {
		addresses = addressvalidator.NewAdamik(cfg.AdamikBaseURL, cfg.AdamikAPIKey, cfg.AddressTimeout)
	} else {
		log.Println("ADAMIK_API_KEY is not set, wallet addresses are only checked for format")
	}

	var contracts siwe.ContractChecker
	if cfg.ProjectID != "" {
		contracts = siwe.NewRPCContractChecker(cfg.RPCURLTemplate, cfg.ProjectID)
	} else {
		log.Println("PROJECT_ID is not set, smart-contract wallet signatures are disabled")
	}
	verifier := siwe.NewSignatureVerifier(cfg.VerifyTimeout, contracts)

	nonceGen, err := services.NewNonceGenerator(cfg.Secret)
	if err != nil {
		return nil, err
	}
	tokens, err := services.NewTokenIssuer(cfg.Secret, cfg.TokenTTL)
	if err != nil {
		return nil, err
	}

	// --- Services ---
	authService := services.NewAuthService(accountRepo, nonceRepo, verifier, nonceGen, tokens, cfg.NonceReplayGuard)
	userService := services.NewUserService(userRepo, accountRepo, followRepo, addresses, verifier, events, cfg.NonceReplayGuard)
	socialService := services.NewSocialService(userRepo, followRepo, events)
	feedService := services.NewFeedService(userRepo, accountRepo, postRepo, events)

	var limiter *middleware.RateLimiter
	if cfg.RateLimitRPS > 0 {
		limiter = middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	}

	return handlers.NewApp(handlers.Options{
		Auth:         authService,
		Users:        userService,
		Social:       socialService,
		Feed:         feedService,
		Media:        media,
		Production:   cfg.IsProduction(),
		ClientOrigin: cfg.ClientOrigin,
		CSRF:         cfg.CSRFEnabled,
		RateLimiter:  limiter,
		Health: func() fiber.Map {
			return fiber.Map{"database": databaseStatus(db), "events": events != nil}
		},
	}), nil
}

func databaseStatus(db *gorm.DB) string {
	sqlDB, err := db.DB()
	if err != nil {
		return "down"
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		return "down"
	}
	return "up"
}
