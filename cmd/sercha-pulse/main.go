package main

// @title           Sercha Pulse API
// @version         1.0
// @description     Connect team communication and meeting providers over OAuth and read one merged feed of messages, meetings and activities.

// @contact.name   Sercha OSS
// @contact.url    https://github.com/custodia-labs/sercha-pulse/issues

// @license.name  Apache 2.0
// @license.url   http://www.apache.org/licenses/LICENSE-2.0.html

// @host      localhost:8080
// @BasePath  /api/v1
// @schemes   http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description JWT Bearer token. Format: "Bearer {token}"

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/pflag"

	"github.com/custodia-labs/sercha-pulse/internal/adapters/driven/auth"
	"github.com/custodia-labs/sercha-pulse/internal/adapters/driven/connectors"
	"github.com/custodia-labs/sercha-pulse/internal/adapters/driven/events"
	"github.com/custodia-labs/sercha-pulse/internal/adapters/driven/postgres"
	"github.com/custodia-labs/sercha-pulse/internal/adapters/driven/rabbitmq"
	redisadapter "github.com/custodia-labs/sercha-pulse/internal/adapters/driven/redis"
	"github.com/custodia-labs/sercha-pulse/internal/adapters/driving/http"
	"github.com/custodia-labs/sercha-pulse/internal/config"
	"github.com/custodia-labs/sercha-pulse/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-pulse/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-pulse/internal/core/services"
	"github.com/custodia-labs/sercha-pulse/internal/normalisers"
)

var version = "dev"

func main() {
	mode := pflag.String("mode", envOr("RUN_MODE", "all"), "run mode: api, janitor or all")
	configPath := pflag.String("config", "", "YAML override file (default $CONFIG_FILE)")
	port := pflag.Int("port", 0, "HTTP port (overrides PORT)")
	issueToken := pflag.String("issue-token", "", "print an API token for this user id and exit")
	tokenEmail := pflag.String("email", "", "email claim for --issue-token")
	tokenName := pflag.String("name", "", "name claim for --issue-token")
	showVersion := pflag.Bool("version", false, "print version and exit")
	pflag.Parse()

	if *showVersion {
		fmt.Println(version)
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if *port != 0 {
		cfg.Port = *port
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: parseLevel(cfg.LogLevel)}))
	slog.SetDefault(logger)

	if cfg.UsingDefaultJWTSecret() {
		log.Println("Warning: JWT_SECRET is not set, using the development secret")
	}

	authService := services.NewAuthService(auth.NewAdapter(cfg.JWTSecret))
	if *issueToken != "" {
		token, err := authService.IssueToken(context.Background(), *issueToken, *tokenEmail, *tokenName)
		if err != nil {
			log.Fatalf("Failed to issue token: %v", err)
		}
		fmt.Println(token)
		return
	}

	log.Printf("sercha-pulse %s starting in %s mode", version, *mode)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// ===== Initialize PostgreSQL =====
	log.Println("Connecting to PostgreSQL...")
	db, err := postgres.Connect(ctx, postgres.Config{
		URL:             cfg.DatabaseURL,
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: cfg.DBConnMaxLifetime,
		ConnMaxIdleTime: cfg.DBConnMaxIdleTime,
	})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if cfg.AutoMigrate {
		if err := db.InitSchema(ctx); err != nil {
			log.Fatalf("Failed to initialize schema: %v", err)
		}
		log.Println("PostgreSQL connected and schema initialized")
	} else {
		log.Println("PostgreSQL connected (AUTO_MIGRATE=false)")
	}

	// ===== Initialize Redis (optional) =====
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		log.Println("Connecting to Redis...")
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			log.Fatalf("Failed to parse Redis URL: %v", err)
		}
		redisClient = redis.NewClient(opts)
		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer redisClient.Close()
		log.Println("Redis connected")
	}

	// ===== Keys =====
	encKey, err := auth.DeriveKey(cfg.MasterKey, auth.PurposeCredentialEncryption)
	if err != nil {
		log.Fatalf("Failed to derive encryption key: %v", err)
	}
	stateKey, err := auth.DeriveKey(cfg.MasterKey, auth.PurposeOAuthState)
	if err != nil {
		log.Fatalf("Failed to derive state key: %v", err)
	}
	encryptor, err := postgres.NewSecretEncryptor(encKey)
	if err != nil {
		log.Fatalf("Failed to create secret encryptor: %v", err)
	}

	// ===== PostgreSQL Stores =====
	credentialStore := postgres.NewCredentialStore(db.DB, encryptor)
	providerConfigs := config.NewChainProviderConfigStore(
		postgres.NewProviderConfigStore(db.DB, encryptor),
		config.NewStaticProviderConfigStore(cfg.Providers),
	)

	// ===== OAuth state and lock (Redis if available, otherwise PostgreSQL) =====
	var (
		stateStore      driven.OAuthStateStore
		distributedLock driven.DistributedLock
		redisPinger     http.Pinger
	)
	if redisClient != nil {
		stateStore = redisadapter.NewOAuthStateStore(redisClient)
		lock := redisadapter.NewLock(redisClient)
		distributedLock, redisPinger = lock, lock
		log.Println("Using Redis OAuth state store and lock")
	} else {
		stateStore = postgres.NewOAuthStateStore(db.DB)
		distributedLock = postgres.NewAdvisoryLock(db)
		log.Println("Using PostgreSQL OAuth state store and advisory lock")
	}

	// ===== Events (RabbitMQ if configured, otherwise log) =====
	var publisher driven.EventPublisher
	if cfg.AMQPURL != "" {
		p, err := rabbitmq.NewEventPublisher(cfg.AMQPURL, cfg.AMQPExchange, logger)
		if err != nil {
			log.Fatalf("Failed to connect to RabbitMQ: %v", err)
		}
		publisher = p
		log.Printf("Publishing integration events to exchange %s", cfg.AMQPExchange)
	} else {
		publisher = events.NewLogPublisher(logger)
	}
	defer publisher.Close()

	// ===== Providers =====
	registry := connectors.NewRegistry(connectors.Options{
		Configs: providerConfigs,
		Policy:  cfg.Scan,
		Logger:  logger,
	})
	refresher := services.NewTokenRefresher(registry, providerConfigs, credentialStore, logger)

	// ===== Services =====
	oauthService := services.NewOAuthService(services.OAuthServiceConfig{
		ProviderConfigStore: providerConfigs,
		OAuthStateStore:     stateStore,
		CredentialStore:     credentialStore,
		Handlers:            registry,
		StateSigner:         auth.NewStateSigner(stateKey),
		Events:              publisher,
		Logger:              logger,
		BaseURL:             cfg.PublicBaseURL,
		StateTTL:            cfg.StateTTL,
	})
	aggregationService := services.NewAggregationService(services.AggregationServiceConfig{
		CredentialStore: credentialStore,
		Adapters:        registry,
		Normalisers:     normalisers.DefaultRegistry(),
		Refresher:       refresher,
		ProviderTimeout: cfg.ProviderTimeout,
		Logger:          logger,
	})

	janitor := services.NewJanitor(services.JanitorConfig{
		States:   stateStore,
		Lock:     distributedLock,
		Logger:   logger,
		Interval: cfg.JanitorInterval,
	})

	switch *mode {
	case "api":
		runAPI(ctx, cfg, logger, authService, oauthService, aggregationService, db, redisPinger)

	case "janitor":
		janitor.Start(ctx)
		log.Println("Janitor started, sweeping expired OAuth state")
		<-ctx.Done()
		janitor.Stop()

	case "all":
		janitor.Start(ctx)
		runAPI(ctx, cfg, logger, authService, oauthService, aggregationService, db, redisPinger)
		janitor.Stop()

	default:
		log.Fatalf("Unknown mode: %s (use: api, janitor, or all)", *mode)
	}
	log.Println("Stopped")
}

func runAPI(
	ctx context.Context,
	cfg *config.Config,
	logger *slog.Logger,
	authService driving.AuthService,
	oauthService driving.OAuthService,
	aggregationService driving.AggregationService,
	db http.Pinger,
	redisPinger http.Pinger,
) {
	server := http.NewServer(
		http.Config{
			Host:          "0.0.0.0",
			Port:          cfg.Port,
			Version:       version,
			FrontendURL:   cfg.FrontendURL,
			CORSOrigins:   cfg.CORSOrigins,
			CookieTTL:     cfg.StateTTL,
			SecureCookies: strings.HasPrefix(cfg.PublicBaseURL, "https://"),
			Logger:        logger,
		},
		authService,
		oauthService,
		aggregationService,
		db,
		redisPinger,
	)

	log.Printf("API server starting on :%d", cfg.Port)
	if err := server.Start(ctx); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}

func parseLevel(s string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(s))); err != nil {
		return slog.LevelInfo
	}
	return level
}

func envOr(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
