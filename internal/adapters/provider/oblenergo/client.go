// Package oblenergo — адаптер JSON API Прикарпаттяобленерго (be-svitlo.oe.if.ua).
package oblenergo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"power-roulette/internal/domain"
	"power-roulette/internal/infra/metrics"
)

const (
	// ProviderName идентифицирует адаптер в логах, метриках и снимках.
	ProviderName = "oblenergo-if"

	defaultBaseURL   = "https://be-svitlo.oe.if.ua"
	queuesEndpoint   = "/gpv-queue-list"
	scheduleEndpoint = "/schedule-by-queue"

	statusProbable = "2"
)

// Client ходит в API за списком очередей и графиками.
type Client struct {
	http    *http.Client
	baseURL string
}

var _ domain.ScheduleProvider = (*Client)(nil)

// NewClient создаёт клиента. httpClient может быть nil.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{http: httpClient, baseURL: strings.TrimRight(baseURL, "/")}
}

// Name реализует domain.ScheduleProvider.
func (c *Client) Name() string { return ProviderName }

type queueItem struct {
	Code string `json:"code"`
}

type scheduleDay struct {
	EventDate     string                      `json:"eventDate"`
	Queues        map[string][]scheduleWindow `json:"queues"`
	CreatedAt     string                      `json:"createdAt"`
	ApprovedSince string                      `json:"scheduleApprovedSince"`
}

type scheduleWindow struct {
	From          string          `json:"from"`
	To            string          `json:"to"`
	Status        json.RawMessage `json:"status"`
	ShutdownHours string          `json:"shutdownHours"`
}

// ListQueues реализует domain.ScheduleProvider.
func (c *Client) ListQueues(ctx context.Context) ([]string, error) {
	body, err := c.do(ctx, http.MethodPost, queuesEndpoint, nil, "list_queues", "")
	if err != nil {
		return nil, err
	}
	var items []queueItem
	if err := json.Unmarshal(body, &items); err != nil {
		return nil, domain.FormatError(ProviderName, "list_queues", "", fmt.Errorf("decode queues: %w", err))
	}
	queues := make([]string, 0, len(items))
	for _, item := range items {
		code := strings.TrimSpace(item.Code)
		if code == "" {
			continue
		}
		queues = append(queues, code)
	}
	return queues, nil
}

// FetchSchedule реализует domain.ScheduleProvider.
func (c *Client) FetchSchedule(ctx context.Context, queue string) ([]domain.RawDayRecord, error) {
	params := url.Values{}
	params.Set("queue", queue)
	body, err := c.do(ctx, http.MethodGet, scheduleEndpoint, params, "fetch_schedule", queue)
	if err != nil {
		return nil, err
	}
	var payload []scheduleDay
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, domain.FormatError(ProviderName, "fetch_schedule", queue, fmt.Errorf("decode schedule: %w", err))
	}
	return toRawDays(payload, queue), nil
}

func toRawDays(payload []scheduleDay, queue string) []domain.RawDayRecord {
	days := make([]domain.RawDayRecord, 0, len(payload))
	for _, item := range payload {
		windows := item.Queues[queue]
		intervals := make([]domain.RawInterval, 0, len(windows))
		for _, w := range windows {
			code := statusCode(w.Status)
			intervals = append(intervals, domain.RawInterval{
				Start:  w.From,
				End:    w.To,
				Status: interpretStatus(code),
				Code:   code,
			})
		}
		days = append(days, domain.RawDayRecord{Date: item.EventDate, Intervals: intervals})
	}
	return days
}

// statusCode приводит статус к строке: API отдаёт его то числом, то строкой.
func statusCode(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return strings.TrimSpace(string(raw))
}

// interpretStatus: код 2 означает возможное отключение, всё остальное считается
// плановым отключением, потому что API отдаёт только окна без света.
func interpretStatus(code string) domain.IntervalStatus {
	if code == statusProbable {
		return domain.IntervalProbablyOff
	}
	return domain.IntervalOff
}

func (c *Client) do(ctx context.Context, method, endpoint string, params url.Values, operation, queue string) ([]byte, error) {
	target := c.baseURL + endpoint
	if len(params) > 0 {
		target += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, target, nil)
	if err != nil {
		return nil, domain.Unavailable(ProviderName, operation, queue, fmt.Errorf("build request: %w", err))
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		metrics.ObserveNetworkRequest(ProviderName, operation, queue, start, err)
		return nil, domain.Unavailable(ProviderName, operation, queue, fmt.Errorf("do request: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		err := domain.UnavailableStatus(ProviderName, operation, queue, resp.StatusCode)
		metrics.ObserveNetworkRequest(ProviderName, operation, queue, start, err)
		return nil, err
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	metrics.ObserveNetworkRequest(ProviderName, operation, queue, start, err)
	if err != nil {
		return nil, domain.Unavailable(ProviderName, operation, queue, fmt.Errorf("read response: %w", err))
	}
	return body, nil
}
