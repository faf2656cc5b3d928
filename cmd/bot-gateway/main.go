package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	chi "github.com/go-chi/chi/v5"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"power-roulette/internal/adapters/bot"
	"power-roulette/internal/adapters/provider"
	"power-roulette/internal/infra/cache"
	"power-roulette/internal/infra/config"
	"power-roulette/internal/infra/httpclient"
	applog "power-roulette/internal/infra/log"
	"power-roulette/internal/infra/metrics"
	"power-roulette/internal/usecase/outage"
)

func main() {
	cfg := config.Load()
	logger := applog.NewLogger(cfg.AppEnv)

	if cfg.RedisAddr == "" {
		logger.Fatal().Msg("bot-gateway: REDIS_ADDR обязателен, снимки читаются из Redis")
	}
	metrics.MustRegister(prometheus.DefaultRegisterer)

	client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer client.Close()

	source, err := provider.ForCity(cfg.City, provider.Options{
		IFBaseURL:  cfg.Providers.IFBaseURL,
		LOEURL:     cfg.Providers.LOEURL,
		HTTPClient: httpclient.New(httpclient.Options{Timeout: cfg.Poll.FetchTimeout}),
	})
	if err != nil {
		logger.Warn().Err(err).Str("city", cfg.City).Msg("bot-gateway: команда /queues недоступна")
	}

	botAPI, err := tgbotapi.NewBotAPI(cfg.Telegram.Token)
	if err != nil {
		logger.Fatal().Err(err).Msg("bot-gateway: не удалось создать бота")
	}

	loc, _ := outage.LoadLocation(cfg.TZ)
	h := bot.NewHandler(botAPI, logger, cache.NewRedis(client), source, cfg.City, cfg.Queue, loc)

	r := chi.NewRouter()
	r.Post("/bot/webhook", func(w http.ResponseWriter, r *http.Request) {
		var update tgbotapi.Update
		if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		h.HandleUpdate(r.Context(), update)
		w.WriteHeader(http.StatusOK)
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if cfg.MetricsAddr != "" {
		metrics.StartServer(ctx, logger, cfg.MetricsAddr)
	}

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: r}
	go func() {
		logger.Info().Str("addr", cfg.HTTPAddr).Msg("bot-gateway: запущен")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("bot-gateway: HTTP сервер остановлен")
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("bot-gateway: остановка")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}
