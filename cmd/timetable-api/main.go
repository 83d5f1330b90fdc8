package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	_ "github.com/noah-isme/sma-timetable/api/swagger"
	"github.com/noah-isme/sma-timetable/internal/repository"
	"github.com/noah-isme/sma-timetable/internal/service"
	"github.com/noah-isme/sma-timetable/pkg/cache"
	"github.com/noah-isme/sma-timetable/pkg/config"
	"github.com/noah-isme/sma-timetable/pkg/database"
	"github.com/noah-isme/sma-timetable/pkg/jobs"
	"github.com/noah-isme/sma-timetable/pkg/logger"
	"github.com/noah-isme/sma-timetable/pkg/storage"
)

// @title Timetable API
// @version 1.0.0
// @description Timetable consistency checks and weekly layouts for preparatory classes
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logr); err != nil {
		logr.Fatal("timetable api stopped", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, logr *zap.Logger) error {
	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	loc, err := time.LoadLocation(cfg.Timetable.Location)
	if err != nil {
		logr.Warn("unknown timetable location, using UTC", zap.String("location", cfg.Timetable.Location), zap.Error(err))
		loc = time.UTC
	}

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close() //nolint:errcheck

	redisClient, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, layouts will not be cached", zap.Error(err))
		redisClient = nil
	}
	if redisClient != nil {
		defer redisClient.Close() //nolint:errcheck
	}

	metrics := service.NewMetricsService()
	cacheSvc := service.NewCacheService(
		repository.NewCacheRepository(redisClient, cfg.Redis.Namespace, logr),
		metrics,
		cfg.Timetable.CacheTTL,
		logr,
		redisClient != nil,
	)

	weekRepo := repository.NewWeekRepository(db)
	attendance := service.NewAttendanceService(repository.NewRosterRepository(db), cacheSvc, metrics, cfg.Timetable.DefaultLevel, logr)
	timetableSvc := service.NewTimetableService(
		repository.NewEventRepository(db),
		repository.NewColleRepository(db),
		weekRepo,
		attendance,
		cacheSvc,
		metrics,
		service.TimetableConfig{
			DefaultLevel: cfg.Timetable.DefaultLevel,
			DisplayDays:  cfg.Timetable.DisplayDays,
			CacheTTL:     cfg.Timetable.CacheTTL,
			Location:     loc,
		},
		logr,
	)
	weekSvc := service.NewWeekService(weekRepo, cacheSvc, service.WeekConfig{HolidaysICS: cfg.Timetable.HolidaysICS, Location: loc}, logr)

	files, err := storage.NewLocalStorage(cfg.Reports.StorageDir)
	if err != nil {
		return fmt.Errorf("init export storage: %w", err)
	}
	exportSvc := service.NewExportService(
		files,
		storage.NewSignedURLSigner(cfg.Reports.SignedURLSecret, cfg.Reports.SignedURLTTL),
		service.ExportConfig{APIPrefix: cfg.APIPrefix, ResultTTL: cfg.Reports.SignedURLTTL, CSVSeparator: cfg.Reports.CSVSeparator},
		logr,
		nil,
		nil,
	)

	deps := routerDeps{
		cfg:        cfg,
		logger:     logr,
		metrics:    metrics,
		db:         db,
		timetable:  timetableSvc,
		attendance: attendance,
		weeks:      weekSvc,
		exporter:   exportSvc,
	}

	if cfg.Reports.Enabled {
		jobRepo := repository.NewValidationJobRepository(db)
		worker := service.NewValidationJobWorker(jobRepo, timetableSvc, exportSvc, metrics, cfg.Reports.WorkerRetries, logr)
		queue := jobs.NewQueue("timetable-validation", worker.Handle, jobs.QueueConfig{
			Workers:    cfg.Reports.WorkerConcurrency,
			MaxRetries: cfg.Reports.WorkerRetries,
			RetryDelay: 2 * time.Second,
			Logger:     logr,
		})
		queue.Start(ctx)
		defer queue.Stop()
		metrics.RegisterQueueDepth(queue.Len)

		levels := cfg.Timetable.RevalidationLevels
		jobSvc := service.NewValidationJobService(jobRepo, queue, exportSvc, service.ValidationJobConfig{
			ResultTTL:       cfg.Reports.SignedURLTTL,
			CleanupInterval: cfg.Reports.CleanupInterval,
			DefaultLevel:    cfg.Timetable.DefaultLevel,
			Levels:          levels,
		}, logr)
		attendance.SetRevalidation(jobSvc)
		jobSvc.RecoverPendingJobs(ctx)
		jobSvc.StartCleanup(ctx)
		deps.jobs = jobSvc

		if cfg.Timetable.RevalidationCron != "" {
			scheduler, err := service.NewRevalidationScheduler(cfg.Timetable.RevalidationCron, loc, jobSvc, logr)
			if err != nil {
				return err
			}
			scheduler.Start()
			defer scheduler.Stop()
		}
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           newRouter(deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
