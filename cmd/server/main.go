package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-proctor/internal/config"
	"github.com/stemsi/exstem-proctor/internal/database"
	"github.com/stemsi/exstem-proctor/internal/handler"
	"github.com/stemsi/exstem-proctor/internal/logger"
	"github.com/stemsi/exstem-proctor/internal/middleware"
	"github.com/stemsi/exstem-proctor/internal/repository"
	"github.com/stemsi/exstem-proctor/internal/router"
	"github.com/stemsi/exstem-proctor/internal/service"
	"github.com/stemsi/exstem-proctor/internal/validator"
	"github.com/stemsi/exstem-proctor/internal/worker"
)

// Registration is limited to 30 requests per minute per IP.
const (
	registerRate     = 30
	registerInterval = time.Minute
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("log_level", cfg.LogLevel).
		Str("snapshot_store", cfg.SnapshotStore).
		Msg("Starting ExStem Proctor")

	// ─── Initialize Validator ──────────────────────────────────────────
	validator.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ─── Connect to Redis (optional) ───────────────────────────────────
	var rdb *redis.Client
	if cfg.RedisURL != "" {
		var err error
		rdb, err = database.NewRedisClient(ctx, cfg, log)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to Redis")
		}
	}

	// ─── Connect to PostgreSQL (optional) ──────────────────────────────
	var pool *pgxpool.Pool
	if cfg.DatabaseURL != "" {
		var err error
		pool, err = database.NewPostgresPool(ctx, cfg, log)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
		}
	}

	// ─── Snapshot Store ────────────────────────────────────────────────
	var sqliteDB *sql.DB
	var store repository.SnapshotStore
	switch cfg.SnapshotStore {
	case config.StoreRedis:
		if rdb == nil {
			log.Fatal().Msg("SNAPSHOT_STORE=redis requires REDIS_URL")
		}
		store = repository.NewRedisSnapshotRepository(rdb, cfg.SnapshotTTL)
	case config.StorePostgres:
		if pool == nil {
			log.Fatal().Msg("SNAPSHOT_STORE=postgres requires DATABASE_URL")
		}
		store = repository.NewPostgresSnapshotRepository(pool)
	case config.StoreSQLite:
		var err error
		sqliteDB, err = database.NewSQLiteDB(ctx, cfg.SQLitePath, log)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to open SQLite")
		}
		store, err = repository.NewSQLiteSnapshotRepository(ctx, sqliteDB)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to prepare SQLite snapshot store")
		}
	case config.StoreMemory:
		log.Warn().Msg("Using in-memory snapshot store; sessions will not survive a restart")
		store = repository.NewMemorySnapshotRepository()
	default:
		log.Fatal().Str("snapshot_store", cfg.SnapshotStore).Msg("Unknown snapshot store")
	}

	// ─── Question Bank ─────────────────────────────────────────────────
	bank, err := repository.LoadQuestionBank(cfg.QuestionBankPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.QuestionBankPath).Msg("Failed to load question bank")
	}

	// ─── Event Publishing ──────────────────────────────────────────────
	publishers := service.MultiPublisher{service.NewLogEventPublisher(log)}
	var proctorEvents *repository.ProctorEventRepository
	if rdb != nil {
		proctorEvents = repository.NewProctorEventRepository(rdb, cfg.Exam.PersistenceKey)
		publishers = append(publishers, proctorEvents)
	}

	// ─── Exam Session ──────────────────────────────────────────────────
	session, err := service.NewExamSession(cfg.Exam, bank, store, log, service.WithEventPublisher(publishers))
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid exam configuration")
	}
	if session.Restore(ctx) {
		log.Info().Str("session_id", session.SessionID()).Msg("Restored exam session from snapshot")
	}

	authService := service.NewAuthService(cfg, session)

	// ─── Initialize Handlers ──────────────────────────────────────────
	var violationLister handler.ViolationLister
	var violationRepo *repository.ViolationEventRepository
	if pool != nil {
		violationRepo = repository.NewViolationEventRepository(pool)
		violationLister = violationRepo
	}

	handlers := &router.Handlers{
		Exam:    handler.NewExamHandler(session, authService, log),
		WS:      handler.NewWSHandler(session, authService, log, cfg.AllowedOrigins),
		Monitor: handler.NewMonitorHandler(session, proctorEvents, violationLister, log),
		System:  handler.NewSystemHandler(rdb, session, log),
	}

	// ─── Start Background Workers ─────────────────────────────────────
	workerCtx, workerCancel := context.WithCancel(context.Background())
	var workers sync.WaitGroup

	if rdb != nil && violationRepo != nil {
		violationWorker := worker.NewViolationWorker(violationRepo, rdb, log)
		workers.Add(1)
		go func() {
			defer workers.Done()
			violationWorker.Start(workerCtx)
		}()
	} else {
		log.Info().Msg("Violation audit disabled (needs both Redis and PostgreSQL)")
	}

	// ─── Setup Router ──────────────────────────────────────────────────
	registerLimiter := middleware.NewRateLimiter(registerRate, registerInterval)
	r := router.SetupRouter(authService, handlers, cfg, registerLimiter)

	// ─── Create HTTP Server ────────────────────────────────────────────
	srv := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: r,
	}

	// ─── Start Server in Goroutine ─────────────────────────────────────
	go func() {
		log.Info().Str("addr", ":"+cfg.ServerPort).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	// ─── Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully...")

	// 1. Stop accepting new HTTP requests (5s timeout).
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	var result *multierror.Error
	if err := srv.Shutdown(shutdownCtx); err != nil {
		result = multierror.Append(result, err)
	}

	// 2. Stop the countdown; the snapshot stays for the next start.
	session.Close()
	registerLimiter.Stop()

	// 3. Stop background workers and wait for their buffers to flush.
	workerCancel()
	workers.Wait()

	// 4. Release connections.
	if sqliteDB != nil {
		if err := sqliteDB.Close(); err != nil {
			result = multierror.Append(result, err)
		}
	}
	if pool != nil {
		pool.Close()
	}
	if rdb != nil {
		if err := rdb.Close(); err != nil {
			result = multierror.Append(result, err)
		}
	}

	if err := result.ErrorOrNil(); err != nil {
		log.Error().Err(err).Msg("Shutdown completed with errors")
		return
	}
	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
