// Package httpclient собирает HTTP-клиент для обращений к источникам графиков.
package httpclient

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
)

var errRetryableStatus = errors.New("retryable status")

// Options настраивает повторы. Нулевые значения заменяются значениями по умолчанию.
type Options struct {
	Timeout         time.Duration
	MaxRetries      uint64
	InitialInterval time.Duration
	Transport       http.RoundTripper
}

// New возвращает клиент, который повторяет GET и HEAD при сетевых ошибках,
// 429 и 5xx. Общий бюджет ограничен Timeout и контекстом запроса.
func New(opts Options) *http.Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 20 * time.Second
	}
	if opts.MaxRetries == 0 {
		opts.MaxRetries = 2
	}
	if opts.InitialInterval <= 0 {
		opts.InitialInterval = 500 * time.Millisecond
	}
	if opts.Transport == nil {
		opts.Transport = http.DefaultTransport
	}
	return &http.Client{
		Timeout: opts.Timeout,
		Transport: &retryTransport{
			base:       opts.Transport,
			maxRetries: opts.MaxRetries,
			initial:    opts.InitialInterval,
		},
	}
}

type retryTransport struct {
	base       http.RoundTripper
	maxRetries uint64
	initial    time.Duration
}

func (t *retryTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Method != http.MethodGet && req.Method != http.MethodHead {
		return t.base.RoundTrip(req)
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = t.initial
	policy.MaxInterval = 4 * t.initial
	policy.MaxElapsedTime = 0
	policy.Reset()

	var last *http.Response
	err := backoff.Retry(func() error {
		if last != nil {
			discard(last)
			last = nil
		}
		resp, err := t.base.RoundTrip(req)
		if err != nil {
			if req.Context().Err() != nil {
				return backoff.Permanent(err)
			}
			return err
		}
		last = resp
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return errRetryableStatus
		}
		return nil
	}, backoff.WithContext(backoff.WithMaxRetries(policy, t.maxRetries), req.Context()))

	if err != nil && !errors.Is(err, errRetryableStatus) {
		if last != nil {
			discard(last)
		}
		return nil, err
	}
	return last, nil
}

func discard(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
	_ = resp.Body.Close()
}
