package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/quizadmin/quiz-admin-server/internal/audit"
	"github.com/quizadmin/quiz-admin-server/internal/config"
	"github.com/quizadmin/quiz-admin-server/internal/database"
	"github.com/quizadmin/quiz-admin-server/internal/middleware"
	"github.com/quizadmin/quiz-admin-server/internal/redis"
	"github.com/quizadmin/quiz-admin-server/internal/repository"
	"github.com/quizadmin/quiz-admin-server/internal/server"
	"github.com/quizadmin/quiz-admin-server/internal/service"
	"github.com/quizadmin/quiz-admin-server/internal/util"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warn().Err(err).Msg("failed to read .env file")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	isProduction := cfg.IsProduction()
	if isProduction {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	}
	setLogLevel(cfg.LogLevel)

	if err := cfg.Validate(isProduction); err != nil {
		log.Fatal().Err(err).Msg("invalid config")
	}

	db, err := database.Connect(cfg.DatabaseDriver, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), config.DBPingTimeout)
	if err := db.Ping(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to ping database")
	}
	cancel()
	log.Info().Str("driver", cfg.DatabaseDriver).Msg("database connected")

	if err := db.Migrate(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("failed to migrate database")
	}

	var loginLimiter middleware.AttemptLimiter
	if cfg.RedisURL != "" {
		redisClient, err := redis.NewClient(cfg.RedisURL)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to redis")
		}
		defer redisClient.Close()
		log.Info().Msg("redis connected")

		loginLimiter = middleware.NewRedisAttemptLimiter(
			service.NewRateLimiter(redisClient.Client), config.LoginMaxAttempts, config.LoginWindow,
		)
	}

	adminRepo := repository.NewAdminRepository(db.DB)
	quizRepo := repository.NewQuizRepository(db.DB)

	tokenService := service.NewTokenService(cfg.SessionSecret, config.SessionTTL)
	adminService := service.NewAdminService(
		adminRepo, util.NewPasswordHasher(util.DefaultArgon2Params), tokenService, cfg.AdminLoginCheckPassword,
	)
	quizService := service.NewQuizService(quizRepo)

	// The bootstrap admin must exist before the first request can authenticate.
	admin, err := adminService.EnsureBootstrapAdmin(context.Background(), cfg.AdminEmail, cfg.AdminPassword)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to bootstrap admin")
	}
	audit.Log(context.Background(), audit.Event{
		Type:    audit.EventBootstrapAdmin,
		AdminID: admin.ID,
		Email:   admin.Email,
	})

	r := server.NewRouter(server.Deps{
		DB:           db,
		AdminService: adminService,
		QuizService:  quizService,
		TokenService: tokenService,
		LoginLimiter: loginLimiter,
		IsProduction: isProduction,
	})

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  config.ServerReadTimeout,
		WriteTimeout: config.ServerWriteTimeout,
		IdleTimeout:  config.ServerIdleTimeout,
	}

	go func() {
		log.Info().Str("addr", cfg.Addr()).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), config.ServerShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}

func setLogLevel(level string) {
	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}
