package loe

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"power-roulette/internal/domain"
)

const page = `<div>
<p><b>Графік погодинних відключень на 17.10.2026</b></p>
<p>Інформація станом на 10:30 17.10.2026</p>
<p>Група 1.1. Електроенергії немає з 06:00 до 09:00, з 16:00 до 19:30.</p>
<p>Група 1.2. Електроенергія є.</p>
<p>Група 2.1. Можливі відключення з 20:00 до 24:00.</p>
<p>Група 2.2. Електроенергії немає з 8 до 11.</p>
</div>
<div>
<p>Графік погодинних відключень на 18.10.2026</p>
<p>Група 1.1. Електроенергії немає з 23:00 до 01:00.</p>
</div>`

func TestParseDocument(t *testing.T) {
	days, err := parseDocument([]byte(page))
	require.NoError(t, err)
	require.Len(t, days, 2)

	first := days[0]
	require.Equal(t, "17.10.2026", first.Date)
	require.Equal(t, []string{"1.1", "1.2", "2.1", "2.2"}, first.order)
	require.Equal(t, []domain.RawInterval{
		{Start: "06:00", End: "09:00", Status: domain.IntervalOff, Code: "немає"},
		{Start: "16:00", End: "19:30", Status: domain.IntervalOff, Code: "немає"},
	}, first.Groups["1.1"])
	require.Empty(t, first.Groups["1.2"])
	require.Equal(t, domain.IntervalProbablyOff, first.Groups["2.1"][0].Status)
	require.Equal(t, "24:00", first.Groups["2.1"][0].End)
	require.Empty(t, first.Groups["2.2"], "окна без минут не распознаются")

	require.Equal(t, "18.10.2026", days[1].Date)
	require.Len(t, days[1].Groups["1.1"], 1)
}

func TestParseDocumentJSONWrapper(t *testing.T) {
	wrapper := map[string]any{
		"hydra:member": []any{
			map[string]any{
				"menuItems": []any{
					map[string]any{"name": "Today", "rawHtml": page},
					map[string]any{"name": "Empty", "rawHtml": ""},
				},
			},
		},
	}
	body, err := json.Marshal(wrapper)
	require.NoError(t, err)

	days, err := parseDocument(body)
	require.NoError(t, err)
	require.Len(t, days, 2)
}

func TestParseDocumentWithoutSchedule(t *testing.T) {
	_, err := parseDocument([]byte(`<p>Сайт на технічному обслуговуванні</p>`))
	require.ErrorIs(t, err, errNoSchedule)
}

func TestScraperFetchSchedule(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(page))
	}))
	defer srv.Close()

	scraper := NewScraper(srv.URL, srv.Client())
	days, err := scraper.FetchSchedule(context.Background(), "1.1")
	require.NoError(t, err)
	require.Len(t, days, 2)
	require.Len(t, days[0].Intervals, 2)
	require.Equal(t, "23:00", days[1].Intervals[0].Start)

	missing, err := scraper.FetchSchedule(context.Background(), "9.9")
	require.NoError(t, err)
	require.Len(t, missing, 2)
	require.Empty(t, missing[0].Intervals)

	queues, err := scraper.ListQueues(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{"1.1", "1.2", "2.1", "2.2"}, queues)
}

func TestScraperFormatError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><body>404</body></html>`))
	}))
	defer srv.Close()

	_, err := NewScraper(srv.URL, srv.Client()).FetchSchedule(context.Background(), "1.1")
	require.True(t, errors.Is(err, domain.ErrProviderFormat))
}

func TestScraperUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := NewScraper(srv.URL, srv.Client()).FetchSchedule(context.Background(), "1.1")
	require.True(t, errors.Is(err, domain.ErrProviderUnavailable))
}
