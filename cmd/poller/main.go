package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"power-roulette/internal/adapters/provider"
	"power-roulette/internal/adapters/repo"
	"power-roulette/internal/adapters/telegram"
	"power-roulette/internal/domain"
	"power-roulette/internal/infra/cache"
	"power-roulette/internal/infra/config"
	"power-roulette/internal/infra/db"
	httpinfra "power-roulette/internal/infra/http"
	"power-roulette/internal/infra/httpclient"
	applog "power-roulette/internal/infra/log"
	"power-roulette/internal/infra/metrics"
	"power-roulette/internal/infra/queue"
	"power-roulette/internal/usecase/outage"
	"power-roulette/internal/usecase/poll"
)

func main() {
	cfg := config.Load()
	logger := applog.NewLogger(cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metrics.MustRegister(prometheus.DefaultRegisterer)
	if cfg.MetricsAddr != "" && cfg.MetricsAddr != cfg.HTTPAddr {
		metrics.StartServer(ctx, logger, cfg.MetricsAddr)
	}

	source, err := provider.ForCity(cfg.City, provider.Options{
		IFBaseURL:  cfg.Providers.IFBaseURL,
		LOEURL:     cfg.Providers.LOEURL,
		HTTPClient: httpclient.New(httpclient.Options{Timeout: cfg.Poll.FetchTimeout}),
	})
	if err != nil {
		logger.Fatal().Err(err).Str("city", cfg.City).Msg("poller: нет источника для города")
	}

	svc := poll.NewService(source, poll.Config{
		City:         cfg.City,
		Queue:        cfg.Queue,
		Timezone:     cfg.TZ,
		Interval:     cfg.Poll.Interval,
		FetchTimeout: cfg.Poll.FetchTimeout,
	}, logger.With().Str("provider", source.Name()).Str("queue", cfg.Queue).Logger())

	if cfg.PGDSN != "" {
		pool, err := db.Connect(cfg.PGDSN)
		if err != nil {
			logger.Fatal().Err(err).Msg("poller: нет подключения к БД")
		}
		defer pool.Close()
		store := repo.NewPostgres(pool)
		if err := store.EnsureSchema(ctx); err != nil {
			logger.Fatal().Err(err).Msg("poller: не удалось подготовить схему")
		}
		svc.WithStore(store)
	}

	var dedupe domain.Cache
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer client.Close()
		redisCache := cache.NewRedis(client)
		svc.WithCache(redisCache)
		dedupe = redisCache
		if cfg.RabbitMQ.URL == "" {
			svc.WithEvents(queue.NewRedisEventQueue(client, cfg.Queues.Events))
		}
	}
	if cfg.RabbitMQ.URL != "" {
		events, err := queue.NewRabbitEventQueue(cfg.RabbitMQ.URL, cfg.RabbitMQ.ManagementURL, cfg.Queues.Events)
		if err != nil {
			logger.Fatal().Err(err).Msg("poller: некорректные настройки RabbitMQ")
		}
		svc.WithEvents(events)
	}

	if cfg.Telegram.Token != "" && cfg.Telegram.NotifyChatID != 0 {
		botAPI, err := tgbotapi.NewBotAPI(cfg.Telegram.Token)
		if err != nil {
			logger.Fatal().Err(err).Msg("poller: не удалось создать бота")
		}
		loc, _ := outage.LoadLocation(cfg.TZ)
		svc.WithNotifier(telegram.NewNotifier(botAPI, cfg.Telegram.NotifyChatID, loc), dedupe)
	}

	if err := svc.Seed(ctx); err != nil {
		logger.Warn().Err(err).Msg("poller: не удалось восстановить снимок")
	}

	srv := httpinfra.NewServer(logger)
	httpinfra.NewAPI(svc, logger).Mount(srv.Router, cfg.APIToken)
	go func() {
		if err := srv.Start(cfg.HTTPAddr); err != nil {
			logger.Error().Err(err).Msg("poller: HTTP сервер остановлен")
			stop()
		}
	}()

	logger.Info().
		Str("city", cfg.City).
		Str("queue", cfg.Queue).
		Str("provider", source.Name()).
		Dur("interval", svc.Config().Interval).
		Msg("poller: запущен")
	svc.Run(ctx)

	logger.Info().Msg("poller: остановка")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}
