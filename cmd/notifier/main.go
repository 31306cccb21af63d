package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/hackgods/appointment-push-notifier/internal/api"
	"github.com/hackgods/appointment-push-notifier/internal/changefeed"
	"github.com/hackgods/appointment-push-notifier/internal/config"
	"github.com/hackgods/appointment-push-notifier/internal/db"
	"github.com/hackgods/appointment-push-notifier/internal/logging"
	"github.com/hackgods/appointment-push-notifier/internal/notification"
	"github.com/hackgods/appointment-push-notifier/internal/push"
	redisclient "github.com/hackgods/appointment-push-notifier/internal/redis"
)

var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load error: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.Env, "notifier")
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init error: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("notifier stopped with error", zap.Error(err))
	}
}

func run(cfg config.Config, logger *zap.Logger) error {
	logger.Info("notifier starting up",
		zap.String("http_port", cfg.HTTPPort),
		zap.String("change_feed", cfg.ChangeFeed),
		zap.String("push_transport", cfg.PushTransport),
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

	if err := db.EnsureSchema(rootCtx, pgPool); err != nil {
		return err
	}
	logger.Info("connected to Postgres")

	// Redis is optional; without it Kafka redeliveries are not suppressed.
	var claims notification.Claimer
	var redisPing api.PingFunc
	rdb, err := redisclient.NewRedisClient(rootCtx, cfg.RedisAddr, cfg.RedisUsername, cfg.RedisPassword)
	if err != nil {
		logger.Warn("redis unavailable, running without dedupe", zap.Error(err))
	} else {
		defer func() {
			if err := rdb.Close(); err != nil {
				logger.Warn("error closing redis", zap.Error(err))
			}
		}()
		claims = redisclient.NewClaimStore(rdb, "notifier:")
		redisPing = pingRedis(rdb)
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
	changes := notification.NewChangeHandler(notifier, logger)
	topics := notification.NewTopicSubscriber(transport, cfg.DefaultTopic, logger)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		switch cfg.ChangeFeed {
		case config.ChangeFeedKafka:
			changefeed.NewKafkaSource(changefeed.KafkaConfig{
				Brokers:   cfg.KafkaBrokers,
				Topic:     cfg.KafkaTopic,
				GroupID:   cfg.KafkaGroupID,
				DedupeTTL: cfg.EventDedupeTTL,
			}, changes, claims, logger).Run(rootCtx)
		default:
			changefeed.NewPgListener(pgPool, changes, topics, logger).Run(rootCtx)
		}
	}()

	srv := &http.Server{
		Addr: ":" + cfg.HTTPPort,
		Handler: api.NewRouter(api.RouterConfig{
			Broadcaster:        transport,
			Health:             api.NewHealthHandler(pgPool.Ping, redisPing, cfg.Env, version),
			Logger:             logger,
			JWTSecret:          cfg.JWTSecret,
			BroadcastPerMinute: cfg.BroadcastRatePerMinute,
			DefaultTopic:       cfg.DefaultTopic,
		}),
		ReadHeaderTimeout: 5 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("http server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-rootCtx.Done():
	case err := <-serveErr:
		if err != nil {
			stop()
			wg.Wait()
			return fmt.Errorf("http server: %w", err)
		}
	}

	logger.Info("shutting down notifier")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown error", zap.Error(err))
	}

	wg.Wait()
	logger.Info("notifier stopped")
	return nil
}

func pingRedis(rdb *redis.Client) api.PingFunc {
	return func(ctx context.Context) error {
		return rdb.Ping(ctx).Err()
	}
}
