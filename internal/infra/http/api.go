package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	chi "github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"power-roulette/internal/adapters/provider"
	"power-roulette/internal/domain"
	"power-roulette/internal/usecase/outage"
	"power-roulette/internal/usecase/poll"
	"power-roulette/internal/usecase/report"
)

// Poller описывает, что API нужно от контроллера опроса.
type Poller interface {
	Snapshot() (domain.Snapshot, bool)
	RunOnce(ctx context.Context) (domain.Snapshot, error)
	Provider() domain.ScheduleProvider
}

// API отдаёт состояние очереди по HTTP.
type API struct {
	poller Poller
	log    zerolog.Logger
	now    func() time.Time
}

// NewAPI создаёт обработчики.
func NewAPI(poller Poller, logger zerolog.Logger) *API {
	return &API{poller: poller, log: logger, now: time.Now}
}

// Mount регистрирует маршруты. refreshToken защищает ручной запуск цикла.
func (a *API) Mount(r chi.Router, refreshToken string) {
	r.Get("/healthz", a.health)
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/state", a.state)
		r.Get("/schedule", a.schedule)
		r.Get("/queues", a.queues)
		r.With(TokenAuthMiddleware(refreshToken)).Post("/refresh", a.refresh)
	})
}

type stateResponse struct {
	City          string             `json:"city"`
	Queue         string             `json:"queue"`
	Provider      string             `json:"provider"`
	Timezone      string             `json:"timezone"`
	CurrentStatus domain.PowerStatus `json:"current_status"`
	NextOutage    *time.Time         `json:"next_outage"`
	NextRestore   *time.Time         `json:"next_restore"`
	Countdown     countdownResponse  `json:"countdown"`
	RetrievedAt   time.Time          `json:"retrieved_at"`
	Stale         bool               `json:"stale"`
	LastError     string             `json:"last_error,omitempty"`
	LastErrorKind domain.ErrorKind   `json:"last_error_kind,omitempty"`
	Intervals     int                `json:"intervals"`
}

type countdownResponse struct {
	NextOutage  string `json:"next_outage,omitempty"`
	NextRestore string `json:"next_restore,omitempty"`
}

type scheduleResponse struct {
	City        string                    `json:"city"`
	Queue       string                    `json:"queue"`
	Timezone    string                    `json:"timezone"`
	RetrievedAt time.Time                 `json:"retrieved_at"`
	Stale       bool                      `json:"stale"`
	Intervals   []domain.ResolvedInterval `json:"intervals"`
}

type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

func (a *API) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (a *API) state(w http.ResponseWriter, _ *http.Request) {
	snap, ok := a.ready(w)
	if !ok {
		return
	}
	now := a.now()
	writeJSON(w, http.StatusOK, a.stateOf(snap, now))
}

func (a *API) stateOf(snap domain.Snapshot, now time.Time) stateResponse {
	state := outage.Resolve(snap.Intervals, now)
	return stateResponse{
		City:          snap.City,
		Queue:         snap.Queue,
		Provider:      snap.Provider,
		Timezone:      snap.Timezone,
		CurrentStatus: state.Status,
		NextOutage:    state.NextOutage,
		NextRestore:   state.NextRestore,
		Countdown: countdownResponse{
			NextOutage:  report.Countdown(state.NextOutage, now),
			NextRestore: report.Countdown(state.NextRestore, now),
		},
		RetrievedAt:   snap.RetrievedAt,
		Stale:         snap.Stale,
		LastError:     snap.LastError,
		LastErrorKind: snap.LastErrorKind,
		Intervals:     len(snap.Intervals),
	}
}

func (a *API) schedule(w http.ResponseWriter, _ *http.Request) {
	snap, ok := a.ready(w)
	if !ok {
		return
	}
	intervals := snap.Intervals
	if intervals == nil {
		intervals = []domain.ResolvedInterval{}
	}
	writeJSON(w, http.StatusOK, scheduleResponse{
		City:        snap.City,
		Queue:       snap.Queue,
		Timezone:    snap.Timezone,
		RetrievedAt: snap.RetrievedAt,
		Stale:       snap.Stale,
		Intervals:   intervals,
	})
}

func (a *API) queues(w http.ResponseWriter, r *http.Request) {
	queues, err := a.poller.Provider().ListQueues(r.Context())
	if err != nil {
		a.log.Warn().Err(err).Msg("http: не удалось получить список очередей")
		writeError(w, http.StatusBadGateway, err.Error(), string(domain.KindOf(err)))
		return
	}
	provider.SortQueues(queues)
	writeJSON(w, http.StatusOK, map[string]any{"provider": a.poller.Provider().Name(), "queues": queues})
}

func (a *API) refresh(w http.ResponseWriter, r *http.Request) {
	snap, err := a.poller.RunOnce(r.Context())
	switch {
	case errors.Is(err, poll.ErrCycleInProgress):
		writeError(w, http.StatusConflict, err.Error(), "")
	case err != nil:
		writeError(w, http.StatusBadGateway, err.Error(), string(domain.KindOf(err)))
	default:
		writeJSON(w, http.StatusOK, a.stateOf(snap, a.now()))
	}
}

// ready отвечает 503, пока нет ни одного успешно загруженного графика.
func (a *API) ready(w http.ResponseWriter) (domain.Snapshot, bool) {
	snap, ok := a.poller.Snapshot()
	if !ok {
		writeError(w, http.StatusServiceUnavailable, "график ещё не загружен", "")
		return domain.Snapshot{}, false
	}
	if snap.RetrievedAt.IsZero() {
		writeError(w, http.StatusServiceUnavailable, snap.LastError, string(snap.LastErrorKind))
		return domain.Snapshot{}, false
	}
	return snap, true
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg, kind string) {
	writeJSON(w, status, errorResponse{Error: msg, Kind: kind})
}
