package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"power-roulette/internal/domain"
	"power-roulette/internal/usecase/poll"
)

type fakeProvider struct {
	queues []string
	err    error
}

func (p fakeProvider) Name() string { return "fake" }
func (p fakeProvider) ListQueues(context.Context) ([]string, error) {
	return p.queues, p.err
}
func (p fakeProvider) FetchSchedule(context.Context, string) ([]domain.RawDayRecord, error) {
	return nil, nil
}

type fakePoller struct {
	snap     *domain.Snapshot
	runErr   error
	provider fakeProvider
}

func (p *fakePoller) Snapshot() (domain.Snapshot, bool) {
	if p.snap == nil {
		return domain.Snapshot{}, false
	}
	return *p.snap, true
}

func (p *fakePoller) RunOnce(context.Context) (domain.Snapshot, error) {
	if p.runErr != nil {
		return domain.Snapshot{}, p.runErr
	}
	return *p.snap, nil
}

func (p *fakePoller) Provider() domain.ScheduleProvider { return p.provider }

var now = time.Date(2026, 10, 17, 10, 0, 0, 0, time.UTC)

func readySnapshot() *domain.Snapshot {
	return &domain.Snapshot{
		City:        "Калуш",
		Queue:       "1.1",
		Provider:    "fake",
		Timezone:    "Europe/Kyiv",
		RetrievedAt: now.Add(-10 * time.Minute),
		Intervals: []domain.ResolvedInterval{
			{Start: now.Add(-time.Hour), End: now.Add(-30 * time.Minute), Status: domain.IntervalOff},
			{Start: now.Add(4*time.Hour + 23*time.Minute), End: now.Add(6 * time.Hour), Status: domain.IntervalOff},
		},
	}
}

func newTestServer(p *fakePoller, token string) *Server {
	srv := NewServer(zerolog.Nop())
	api := NewAPI(p, zerolog.Nop())
	api.now = func() time.Time { return now }
	api.Mount(srv.Router, token)
	return srv
}

func do(t *testing.T, srv *Server, method, path string, header map[string]string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	srv.Router.ServeHTTP(rec, req)
	var body map[string]any
	if rec.Body.Len() > 0 && rec.Header().Get("Content-Type") == "application/json; charset=utf-8" {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	}
	return rec, body
}

func TestHealthz(t *testing.T) {
	rec, body := do(t, newTestServer(&fakePoller{}, ""), http.MethodGet, "/healthz", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "ok", body["status"])
}

func TestStateBeforeFirstSnapshot(t *testing.T) {
	rec, _ := do(t, newTestServer(&fakePoller{}, ""), http.MethodGet, "/api/v1/state", nil)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	failed := domain.Snapshot{Queue: "1.1"}.Failed(domain.Unavailable("fake", "fetch_schedule", "1.1", errors.New("timeout")), now)
	rec, body := do(t, newTestServer(&fakePoller{snap: &failed}, ""), http.MethodGet, "/api/v1/state", nil)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	require.Equal(t, "unavailable", body["kind"])
}

func TestStateResolvesAtRequestTime(t *testing.T) {
	rec, body := do(t, newTestServer(&fakePoller{snap: readySnapshot()}, ""), http.MethodGet, "/api/v1/state", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "on", body["current_status"])
	require.Equal(t, "2026-10-17T14:23:00Z", body["next_outage"])
	require.Equal(t, "2026-10-17T16:00:00Z", body["next_restore"])
	countdown := body["countdown"].(map[string]any)
	require.Equal(t, "In 4h 23m", countdown["next_outage"])
	require.Equal(t, false, body["stale"])
}

func TestSchedule(t *testing.T) {
	rec, body := do(t, newTestServer(&fakePoller{snap: readySnapshot()}, ""), http.MethodGet, "/api/v1/schedule", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, body["intervals"], 2)
	first := body["intervals"].([]any)[0].(map[string]any)
	require.Equal(t, "off", first["status"])
}

func TestQueues(t *testing.T) {
	p := &fakePoller{provider: fakeProvider{queues: []string{"2.1", "10.1", "1.2"}}}
	rec, body := do(t, newTestServer(p, ""), http.MethodGet, "/api/v1/queues", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, []any{"1.2", "2.1", "10.1"}, body["queues"])

	p.provider.err = domain.FormatError("fake", "list_queues", "", errors.New("bad json"))
	rec, body = do(t, newTestServer(p, ""), http.MethodGet, "/api/v1/queues", nil)
	require.Equal(t, http.StatusBadGateway, rec.Code)
	require.Equal(t, "format", body["kind"])
}

func TestRefresh(t *testing.T) {
	p := &fakePoller{snap: readySnapshot()}
	rec, body := do(t, newTestServer(p, ""), http.MethodPost, "/api/v1/refresh", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "on", body["current_status"])

	p.runErr = poll.ErrCycleInProgress
	rec, _ = do(t, newTestServer(p, ""), http.MethodPost, "/api/v1/refresh", nil)
	require.Equal(t, http.StatusConflict, rec.Code)

	p.runErr = domain.UnavailableStatus("fake", "fetch_schedule", "1.1", http.StatusBadGateway)
	rec, body = do(t, newTestServer(p, ""), http.MethodPost, "/api/v1/refresh", nil)
	require.Equal(t, http.StatusBadGateway, rec.Code)
	require.Equal(t, "unavailable", body["kind"])
}

func TestRefreshRequiresToken(t *testing.T) {
	srv := newTestServer(&fakePoller{snap: readySnapshot()}, "s3cret")

	rec, _ := do(t, srv, http.MethodPost, "/api/v1/refresh", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, _ = do(t, srv, http.MethodPost, "/api/v1/refresh", map[string]string{"Authorization": "Bearer nope"})
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, _ = do(t, srv, http.MethodPost, "/api/v1/refresh", map[string]string{"Authorization": "bearer s3cret"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec, _ = do(t, srv, http.MethodGet, "/api/v1/state", nil)
	require.Equal(t, http.StatusOK, rec.Code)
}
