package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/hackgods/appointment-push-notifier/internal/appointment"
	"github.com/hackgods/appointment-push-notifier/internal/config"
	"github.com/hackgods/appointment-push-notifier/internal/db"
	"github.com/hackgods/appointment-push-notifier/internal/logging"
	"github.com/hackgods/appointment-push-notifier/internal/notification"
	"github.com/hackgods/appointment-push-notifier/internal/push"
	redisclient "github.com/hackgods/appointment-push-notifier/internal/redis"
)

const runTimeout = 10 * time.Minute

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load error: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.Env, "reminder-job")
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init error: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("reminder job stopped with error", zap.Error(err))
	}
}

func run(cfg config.Config, logger *zap.Logger) error {
	loc, err := time.LoadLocation(cfg.ReminderTimeZone)
	if err != nil {
		return fmt.Errorf("load time zone: %w", err)
	}

	logger.Info("reminder job starting up",
		zap.String("schedule", cfg.ReminderSchedule),
		zap.String("time_zone", loc.String()),
		zap.Bool("run_once", cfg.ReminderRunOnce),
	)

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pgCtx, cancelPg := context.WithTimeout(rootCtx, 10*time.Second)
	pgPool, err := db.ConnectPostgres(pgCtx, cfg.PostgresDSN)
	cancelPg()
	if err != nil {
		return fmt.Errorf("postgres connection: %w", err)
	}
	defer pgPool.Close()
	logger.Info("connected to Postgres")

	var claims notification.Claimer
	rdb, err := redisclient.NewRedisClient(rootCtx, cfg.RedisAddr, cfg.RedisUsername, cfg.RedisPassword)
	if err != nil {
		logger.Warn("redis unavailable, runs will not be claimed", zap.Error(err))
	} else {
		defer func() {
			if err := rdb.Close(); err != nil {
				logger.Warn("error closing redis", zap.Error(err))
			}
		}()
		claims = redisclient.NewClaimStore(rdb, "notifier:")
		logger.Info("connected to Redis")
	}

	transport, err := push.New(rootCtx, cfg.PushTransport, cfg.FirebaseCredentialsFile, cfg.FirebaseProjectID, logger)
	if err != nil {
		return fmt.Errorf("push transport: %w", err)
	}

	notifier := notification.NewNotifier(
		notification.NewResolver(notification.NewPgTokenStore(pgPool)),
		notification.NewDispatcher(transport, cfg.DispatchTimeout),
		logger,
	)
	job := notification.NewReminderJob(appointment.NewPgRepository(pgPool), notifier, claims, notification.ReminderConfig{
		Location: loc,
		ClaimTTL: cfg.ReminderClaimTTL,
	}, logger)

	if cfg.ReminderRunOnce {
		return runOnce(rootCtx, job, logger)
	}

	c := cron.New(cron.WithLocation(loc))
	if _, err := c.AddFunc(cfg.ReminderSchedule, func() {
		if err := runOnce(rootCtx, job, logger); err != nil {
			logger.Error("reminder run failed", zap.Error(err))
		}
	}); err != nil {
		return fmt.Errorf("invalid REMINDER_SCHEDULE %q: %w", cfg.ReminderSchedule, err)
	}

	c.Start()
	logger.Info("reminder schedule armed")

	<-rootCtx.Done()
	logger.Info("shutdown signal received, waiting for running batch")
	<-c.Stop().Done()
	return nil
}

func runOnce(ctx context.Context, job *notification.ReminderJob, logger *zap.Logger) error {
	runCtx, cancel := context.WithTimeout(ctx, runTimeout)
	defer cancel()

	start := time.Now()
	count, err := job.Run(runCtx)
	if err != nil {
		return err
	}
	logger.Info("reminder run complete", zap.Int("count", count), zap.Duration("took", time.Since(start)))
	return nil
}
