// Package loe — адаптер опубликованного графика Львівобленерго.
// Источник отдаёт HTML (или JSON с HTML-фрагментами в rawHtml), график
// вытаскивается из текста по украинским маркерам.
package loe

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"power-roulette/internal/domain"
	"power-roulette/internal/infra/metrics"
)

const (
	// ProviderName идентифицирует адаптер в логах, метриках и снимках.
	ProviderName = "loe-lviv"

	defaultURL = "https://api.loe.lviv.ua/api/menus?page=1&type=photo-grafic"
)

// Scraper загружает страницу графика и разбирает её.
type Scraper struct {
	http *http.Client
	url  string
}

var _ domain.ScheduleProvider = (*Scraper)(nil)

// NewScraper создаёт адаптер. httpClient может быть nil.
func NewScraper(url string, httpClient *http.Client) *Scraper {
	if url == "" {
		url = defaultURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Scraper{http: httpClient, url: url}
}

// Name реализует domain.ScheduleProvider.
func (s *Scraper) Name() string { return ProviderName }

// ListQueues реализует domain.ScheduleProvider.
func (s *Scraper) ListQueues(ctx context.Context) ([]string, error) {
	days, err := s.load(ctx, "list_queues", "")
	if err != nil {
		return nil, err
	}
	return queuesOf(days), nil
}

// FetchSchedule реализует domain.ScheduleProvider. Если группы нет в дне,
// день возвращается без интервалов.
func (s *Scraper) FetchSchedule(ctx context.Context, queue string) ([]domain.RawDayRecord, error) {
	days, err := s.load(ctx, "fetch_schedule", queue)
	if err != nil {
		return nil, err
	}
	queue = strings.TrimSpace(queue)
	out := make([]domain.RawDayRecord, 0, len(days))
	for _, d := range days {
		intervals := append([]domain.RawInterval(nil), d.Groups[queue]...)
		out = append(out, domain.RawDayRecord{Date: d.Date, Intervals: intervals})
	}
	return out, nil
}

func (s *Scraper) load(ctx context.Context, operation, queue string) ([]daySchedule, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, domain.Unavailable(ProviderName, operation, queue, fmt.Errorf("build request: %w", err))
	}
	req.Header.Set("Accept", "text/html, application/json")

	start := time.Now()
	resp, err := s.http.Do(req)
	if err != nil {
		metrics.ObserveNetworkRequest(ProviderName, operation, "page", start, err)
		return nil, domain.Unavailable(ProviderName, operation, queue, fmt.Errorf("do request: %w", err))
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		err := domain.UnavailableStatus(ProviderName, operation, queue, resp.StatusCode)
		metrics.ObserveNetworkRequest(ProviderName, operation, "page", start, err)
		return nil, err
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	metrics.ObserveNetworkRequest(ProviderName, operation, "page", start, err)
	if err != nil {
		return nil, domain.Unavailable(ProviderName, operation, queue, fmt.Errorf("read response: %w", err))
	}

	days, err := parseDocument(body)
	if err != nil {
		return nil, domain.FormatError(ProviderName, operation, queue, fmt.Errorf("parse page: %w", err))
	}
	return days, nil
}
