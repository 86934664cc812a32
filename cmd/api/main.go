package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/uptrace/bun"

	"github.com/scholarport/scholarship-api/internal/admin"
	"github.com/scholarport/scholarship-api/internal/application"
	"github.com/scholarport/scholarship-api/internal/auth"
	"github.com/scholarport/scholarship-api/internal/cache"
	"github.com/scholarport/scholarship-api/internal/config"
	"github.com/scholarport/scholarship-api/internal/database"
	"github.com/scholarport/scholarship-api/internal/email"
	httpServer "github.com/scholarport/scholarship-api/internal/http"
	"github.com/scholarport/scholarship-api/internal/logging"
	"github.com/scholarport/scholarship-api/internal/profile"
	"github.com/scholarport/scholarship-api/internal/ratelimit"
	"github.com/scholarport/scholarship-api/internal/scholarship"
	"github.com/scholarport/scholarship-api/internal/user"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Application error: %v", err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := logging.NewLogger(cfg.Server.IsDevelopment())
	logger.Info("starting application",
		"env", cfg.Server.Env,
		"port", cfg.Server.Port,
		"token_scheme", cfg.Auth.TokenScheme,
	)

	db, err := initDB(cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	redisClient, err := initRedis(cfg.Redis)
	if err != nil {
		return fmt.Errorf("failed to initialize Redis: %w", err)
	}
	defer redisClient.Close()

	// Repositories
	userRepo := user.NewRepository(db)
	scholarshipRepo := scholarship.NewRepository(db)
	applicationRepo := application.NewRepository(db)
	adminRepo := admin.NewRepository(db)

	// Redis-backed infrastructure
	rateLimiter := ratelimit.NewLimiter(redisClient)
	readCache := cache.New(redisClient)

	tokenService, err := newTokenService(cfg.Auth)
	if err != nil {
		return fmt.Errorf("failed to initialize token service: %w", err)
	}

	emailService := email.NewService(
		cfg.Email.SMTPHost,
		cfg.Email.SMTPPort,
		cfg.Email.SMTPUser,
		cfg.Email.SMTPPassword,
		cfg.Email.FrontendURL,
		logger,
	)

	authService := auth.NewService(
		userRepo,
		tokenService,
		emailService,
		logger,
		cfg.Auth.SessionTokenDuration,
		cfg.Auth.ResetTokenDuration,
		cfg.Auth.VerificationTokenDuration,
	)

	isProduction := !cfg.Server.IsDevelopment()

	handlers := httpServer.Handlers{
		Auth:        auth.NewHandler(authService, rateLimiter, logger, isProduction),
		Profile:     profile.NewHandler(userRepo, authService, readCache),
		Scholarship: scholarship.NewHandler(scholarshipRepo, readCache),
		Application: application.NewHandler(applicationRepo, scholarshipRepo),
		Admin:       admin.NewHandler(adminRepo, userRepo),
	}
	authMiddleware := auth.NewMiddleware(tokenService, userRepo)

	router := httpServer.NewRouter(cfg, handlers, authMiddleware, logger)

	server := httpServer.NewServer(
		":"+cfg.Server.Port,
		router,
		cfg.Server.ReadTimeout,
		cfg.Server.WriteTimeout,
		logger,
	)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- server.Start()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case sig := <-shutdown:
		logger.Info("received shutdown signal", "signal", sig.String())

		ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// newTokenService builds the session token implementation selected by
// AUTH_TOKEN_SCHEME. Both implementations share the same 32-byte key.
func newTokenService(cfg config.AuthConfig) (auth.TokenService, error) {
	switch cfg.TokenScheme {
	case config.TokenSchemePaseto:
		return auth.NewPasetoService(cfg.SigningKey)
	default:
		return auth.NewJWTService(cfg.SigningKey)
	}
}

// initDB initializes the database connection and returns a Bun DB instance
func initDB(cfg config.DatabaseConfig) (*bun.DB, error) {
	sqlDB, err := sql.Open("postgres", cfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)

	return database.NewBunDB(sqlDB), nil
}

// initRedis initializes the Redis connection and returns a Redis client
func initRedis(cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}

	return client, nil
}
