// Package poll выполняет цикл опроса: загрузка, нормализация, вычисление
// состояния и атомарная публикация снимка.
package poll

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"power-roulette/internal/domain"
	"power-roulette/internal/infra/metrics"
	"power-roulette/internal/usecase/outage"
)

const (
	// DefaultInterval задаёт период опроса по умолчанию.
	DefaultInterval = 5 * time.Minute
	// DefaultFetchTimeout ограничивает одно обращение к провайдеру.
	DefaultFetchTimeout = 20 * time.Second

	sideEffectTimeout = 5 * time.Second
	notifyDedupeTTL   = 24 * time.Hour
)

// ErrCycleInProgress возвращается, если предыдущий цикл ещё не завершён.
var ErrCycleInProgress = errors.New("poll cycle already in progress")

// Config описывает отслеживаемую очередь.
type Config struct {
	City         string
	Queue        string
	Timezone     string
	Interval     time.Duration
	FetchTimeout time.Duration
}

// Service управляет циклом опроса и единственный пишет снимок.
type Service struct {
	provider domain.ScheduleProvider
	cfg      Config
	loc      *time.Location
	log      zerolog.Logger

	store    domain.SnapshotStore
	cache    domain.SnapshotCache
	events   domain.EventPublisher
	notifier domain.Notifier
	dedupe   domain.Cache
	now      func() time.Time

	current atomic.Pointer[domain.Snapshot]
	running atomic.Bool
}

// NewService создаёт контроллер. Неизвестный часовой пояс заменяется
// поясом по умолчанию с предупреждением в логе.
func NewService(provider domain.ScheduleProvider, cfg Config, logger zerolog.Logger) *Service {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = DefaultFetchTimeout
	}
	loc, ok := outage.LoadLocation(cfg.Timezone)
	if !ok {
		logger.Warn().Str("timezone", cfg.Timezone).Str("fallback", outage.DefaultTimezone).Msg("poll: неизвестный часовой пояс, используем пояс по умолчанию")
	}
	cfg.Timezone = loc.String()
	return &Service{
		provider: provider,
		cfg:      cfg,
		loc:      loc,
		log:      logger,
		now:      time.Now,
	}
}

// WithStore подключает хранилище последнего снимка.
func (s *Service) WithStore(store domain.SnapshotStore) *Service {
	s.store = store
	return s
}

// WithCache подключает зеркало снимка для других процессов.
func (s *Service) WithCache(cache domain.SnapshotCache) *Service {
	s.cache = cache
	return s
}

// WithEvents подключает публикацию событий.
func (s *Service) WithEvents(events domain.EventPublisher) *Service {
	s.events = events
	return s
}

// WithNotifier подключает уведомления. dedupe может быть nil.
func (s *Service) WithNotifier(notifier domain.Notifier, dedupe domain.Cache) *Service {
	s.notifier = notifier
	s.dedupe = dedupe
	return s
}

// WithClock подменяет часы; используется в тестах.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Config возвращает итоговую конфигурацию.
func (s *Service) Config() Config { return s.cfg }

// Provider возвращает адаптер источника.
func (s *Service) Provider() domain.ScheduleProvider { return s.provider }

// Snapshot возвращает последний опубликованный снимок без блокировок.
func (s *Service) Snapshot() (domain.Snapshot, bool) {
	snap := s.current.Load()
	if snap == nil {
		return domain.Snapshot{}, false
	}
	return *snap, true
}

// Seed подгружает последний сохранённый снимок, пока нет свежего.
func (s *Service) Seed(ctx context.Context) error {
	if s.store == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, sideEffectTimeout)
	defer cancel()
	snap, ok, err := s.store.LoadLatest(ctx, s.cfg.City, s.cfg.Queue)
	if err != nil {
		return fmt.Errorf("загрузка снимка: %w", err)
	}
	if !ok {
		return nil
	}
	snap.Stale = true
	if s.current.CompareAndSwap(nil, &snap) {
		s.log.Info().Time("retrieved_at", snap.RetrievedAt).Msg("poll: восстановлен сохранённый снимок")
	}
	return nil
}

// Run выполняет цикл сразу и затем по таймеру до отмены ctx.
func (s *Service) Run(ctx context.Context) {
	s.runLogged(ctx)
	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runLogged(ctx)
		}
	}
}

func (s *Service) runLogged(ctx context.Context) {
	snap, err := s.RunOnce(ctx)
	switch {
	case err == nil:
		s.log.Debug().Str("status", string(snap.State.Status)).Int("intervals", len(snap.Intervals)).Msg("poll: цикл завершён")
	case errors.Is(err, ErrCycleInProgress):
		s.log.Debug().Msg("poll: цикл уже выполняется, пропускаем")
	default:
		s.log.Warn().Err(err).Str("kind", string(domain.KindOf(err))).Msg("poll: не удалось обновить график")
	}
}

// RunOnce выполняет один цикл. Одновременно выполняется не больше одного цикла.
// При ошибке провайдера предыдущее состояние сохраняется и помечается устаревшим.
func (s *Service) RunOnce(ctx context.Context) (domain.Snapshot, error) {
	if !s.running.CompareAndSwap(false, true) {
		metrics.PollSkippedTotal.Inc()
		return domain.Snapshot{}, ErrCycleInProgress
	}
	defer s.running.Store(false)

	start := time.Now()
	fetchCtx, cancel := context.WithTimeout(ctx, s.cfg.FetchTimeout)
	days, err := s.provider.FetchSchedule(fetchCtx, s.cfg.Queue)
	cancel()
	if err != nil {
		var providerErr *domain.ProviderError
		if !errors.As(err, &providerErr) {
			err = domain.Unavailable(s.provider.Name(), "fetch_schedule", s.cfg.Queue, err)
		}
		return s.fail(ctx, err, start)
	}

	intervals, dropped := outage.NormalizeIn(days, s.loc)
	if dropped > 0 {
		metrics.DroppedIntervalsTotal.WithLabelValues(s.provider.Name()).Add(float64(dropped))
		s.log.Debug().Int("dropped", dropped).Msg("poll: пропущены битые интервалы")
	}
	now := s.now()
	snap := domain.Snapshot{
		City:        s.cfg.City,
		Queue:       s.cfg.Queue,
		Provider:    s.provider.Name(),
		Timezone:    s.cfg.Timezone,
		Days:        days,
		Intervals:   intervals,
		State:       outage.Resolve(intervals, now),
		RetrievedAt: now,
		ResolvedAt:  now,
	}
	prev := s.current.Swap(&snap)

	metrics.ObservePollCycle(s.provider.Name(), "success", start)
	metrics.ScheduleIntervals.Set(float64(len(intervals)))
	metrics.SetPowerOff(snap.State.Status == domain.PowerOff)
	metrics.SetStale(false)

	s.afterSuccess(ctx, prev, snap)
	return snap, nil
}

// fail помечает последний снимок устаревшим и записывает его туда же, куда
// и успешный, чтобы читатели кэша и БД видели ошибку.
func (s *Service) fail(ctx context.Context, err error, start time.Time) (domain.Snapshot, error) {
	now := s.now()
	next := domain.Snapshot{
		City:     s.cfg.City,
		Queue:    s.cfg.Queue,
		Provider: s.provider.Name(),
		Timezone: s.cfg.Timezone,
	}
	if prev := s.current.Load(); prev != nil {
		next = *prev
	}
	next = next.Failed(err, now)
	s.current.Store(&next)

	metrics.ObservePollCycle(s.provider.Name(), string(domain.KindOf(err)), start)
	metrics.SetStale(true)

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sideEffectTimeout)
	defer cancel()
	s.persist(ctx, next)
	return next, err
}

func (s *Service) persist(ctx context.Context, snap domain.Snapshot) {
	if s.store != nil {
		if err := s.store.SaveLatest(ctx, snap); err != nil {
			s.log.Error().Err(err).Msg("poll: не удалось сохранить снимок в БД")
		}
	}
	if s.cache != nil {
		if err := s.cache.PutSnapshot(ctx, snap); err != nil {
			s.log.Error().Err(err).Msg("poll: не удалось обновить снимок в кэше")
		}
	}
}

func (s *Service) afterSuccess(ctx context.Context, prev *domain.Snapshot, snap domain.Snapshot) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sideEffectTimeout)
	defer cancel()

	s.persist(ctx, snap)
	if prev == nil || prev.State.Status == "" || prev.State.Equal(snap.State) {
		return
	}
	event := domain.StatusEvent{
		ID:         uuid.NewString(),
		City:       snap.City,
		Queue:      snap.Queue,
		Cause:      domain.StatusCauseSchedule,
		Previous:   prev.State,
		Current:    snap.State,
		OccurredAt: snap.ResolvedAt,
	}
	if prev.State.Status != snap.State.Status {
		event.Cause = domain.StatusCausePower
	}
	s.dispatch(ctx, event, snap)
}

func (s *Service) dispatch(ctx context.Context, event domain.StatusEvent, snap domain.Snapshot) {
	send := func() error {
		if s.events != nil {
			if err := s.events.Publish(ctx, event); err != nil {
				s.log.Error().Err(err).Str("event", event.ID).Msg("poll: не удалось опубликовать событие")
			}
		}
		if s.notifier != nil {
			if err := s.notifier.NotifyStatus(ctx, event, snap); err != nil {
				metrics.NotifyErrors.Inc()
				return fmt.Errorf("уведомление: %w", err)
			}
		}
		return nil
	}

	var err error
	if s.dedupe != nil {
		err = s.dedupe.Once(dedupeKey(event), notifyDedupeTTL, send)
	} else {
		err = send()
	}
	if err != nil {
		s.log.Error().Err(err).Str("event", event.ID).Msg("poll: не удалось отправить уведомление")
		return
	}
	s.log.Info().Str("event", event.ID).Str("cause", string(event.Cause)).Str("status", string(event.Current.Status)).Msg("poll: состояние изменилось")
}

func dedupeKey(event domain.StatusEvent) string {
	return fmt.Sprintf("notify:%s:%s:%s:%s:%s", event.City, event.Queue, event.Current.Status, unixOrDash(event.Current.NextOutage), unixOrDash(event.Current.NextRestore))
}

func unixOrDash(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return strconv.FormatInt(t.Unix(), 10)
}
