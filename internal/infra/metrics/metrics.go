package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

var (
	PollCyclesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "poll_cycles_total",
		Help: "Циклы опроса по результату",
	}, []string{"provider", "result"})
	PollCycleSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "poll_cycle_seconds",
		Help:    "Длительность цикла опроса",
		Buckets: prometheus.DefBuckets,
	})
	PollSkippedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "poll_skipped_total",
		Help: "Циклы, пропущенные из-за уже идущего опроса",
	})
	DroppedIntervalsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "schedule_dropped_intervals_total",
		Help: "Интервалы, отброшенные при нормализации",
	}, []string{"provider"})
	ScheduleIntervals = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "schedule_intervals",
		Help: "Интервалы отключений в последнем снимке",
	})
	PowerOff = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "power_off",
		Help: "1, если по графику света сейчас нет",
	})
	SnapshotStale = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "snapshot_stale",
		Help: "1, если последний опрос завершился ошибкой",
	})
	NotifyErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "notify_errors_total",
		Help: "Ошибки отправки уведомлений",
	})

	NetworkRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "network_request_duration_seconds",
		Help:    "Длительность сетевых запросов",
		Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 15, 20, 30, 60},
	}, []string{"component", "operation", "target", "status"})

	NetworkRequestTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "network_request_total",
		Help: "Количество сетевых запросов",
	}, []string{"component", "operation", "target", "status"})
)

// MustRegister регистрирует метрики.
func MustRegister(registerer prometheus.Registerer) {
	registerer.MustRegister(
		PollCyclesTotal,
		PollCycleSeconds,
		PollSkippedTotal,
		DroppedIntervalsTotal,
		ScheduleIntervals,
		PowerOff,
		SnapshotStale,
		NotifyErrors,
		NetworkRequestDuration,
		NetworkRequestTotal,
	)
}

// StartServer запускает HTTP сервер с эндпоинтом /metrics.
func StartServer(ctx context.Context, logger zerolog.Logger, addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	}

	shutdownCtx, cancel := context.WithCancel(context.Background())
	go func() {
		select {
		case <-ctx.Done():
		case <-shutdownCtx.Done():
		}
		shutdownTimeout, timeoutCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer timeoutCancel()
		if err := srv.Shutdown(shutdownTimeout); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("metrics: graceful shutdown failed")
		}
	}()

	go func() {
		logger.Info().Str("addr", addr).Msg("metrics: server started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("metrics: server stopped")
		}
		cancel()
	}()
}

// ObserveNetworkRequest записывает длительность и статус сетевого запроса.
func ObserveNetworkRequest(component, operation, target string, start time.Time, err error) {
	if component == "" {
		component = "unknown"
	}
	if operation == "" {
		operation = "unknown"
	}
	if target == "" {
		target = "unknown"
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	duration := time.Since(start).Seconds()
	NetworkRequestDuration.WithLabelValues(component, operation, target, status).Observe(duration)
	NetworkRequestTotal.WithLabelValues(component, operation, target, status).Inc()
}

// ObservePollCycle записывает итог цикла опроса.
func ObservePollCycle(provider, result string, start time.Time) {
	if provider == "" {
		provider = "unknown"
	}
	PollCyclesTotal.WithLabelValues(provider, result).Inc()
	PollCycleSeconds.Observe(time.Since(start).Seconds())
}

// SetPowerOff отражает текущее состояние в gauge.
func SetPowerOff(off bool) {
	PowerOff.Set(boolToFloat(off))
}

// SetStale отмечает, что снимок устарел.
func SetStale(stale bool) {
	SnapshotStale.Set(boolToFloat(stale))
}

func boolToFloat(v bool) float64 {
	if v {
		return 1
	}
	return 0
}
