package queue

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"power-roulette/internal/domain"
	"power-roulette/internal/infra/metrics"
)

// RabbitEventQueue публикует события через HTTP API RabbitMQ.
type RabbitEventQueue struct {
	client   *http.Client
	baseURL  *url.URL
	vhost    string
	queue    string
	username string
	password string
}

// NewRabbitEventQueue создаёт публикатор с использованием AMQP URL и Management API URL.
func NewRabbitEventQueue(amqpURL, managementURL, queue string) (*RabbitEventQueue, error) {
	if amqpURL == "" {
		return nil, errors.New("amqp url is empty")
	}
	parsed, err := url.Parse(amqpURL)
	if err != nil {
		return nil, fmt.Errorf("parse amqp url: %w", err)
	}
	if queue == "" {
		return nil, errors.New("queue name is empty")
	}
	username := parsed.User.Username()
	password, _ := parsed.User.Password()
	vhost := strings.TrimPrefix(parsed.Path, "/")
	if vhost == "" {
		vhost = "/"
	}
	base := strings.TrimSpace(managementURL)
	if base == "" {
		scheme := "http"
		if parsed.Scheme == "amqps" {
			scheme = "https"
		}
		base = fmt.Sprintf("%s://%s:15672", scheme, parsed.Hostname())
	}
	baseURL, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("parse management url: %w", err)
	}
	baseURL.Path = strings.TrimRight(baseURL.Path, "/")
	return &RabbitEventQueue{
		client:   &http.Client{Timeout: 10 * time.Second},
		baseURL:  baseURL,
		vhost:    vhost,
		queue:    queue,
		username: username,
		password: password,
	}, nil
}

// Publish отправляет событие в default exchange с routing key = имя очереди.
func (q *RabbitEventQueue) Publish(ctx context.Context, event domain.StatusEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	reqBody := map[string]any{
		"properties": map[string]any{
			"message_id":   event.ID,
			"content_type": "application/json",
		},
		"routing_key":      q.queue,
		"payload":          base64.StdEncoding.EncodeToString(payload),
		"payload_encoding": "base64",
	}
	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	endpoint := q.publishURL()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint.String(), bytes.NewReader(bodyBytes))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if q.username != "" {
		req.SetBasicAuth(q.username, q.password)
	}
	start := time.Now()
	resp, err := q.client.Do(req)
	metrics.ObserveNetworkRequest("rabbitmq", "publish", q.queue, start, err)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("publish failed: status %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}
	var result struct {
		Routed bool `json:"routed"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err == nil && !result.Routed {
		return fmt.Errorf("publish failed: queue %q not bound", q.queue)
	}
	return nil
}

// publishURL кодирует vhost отдельно: vhost по умолчанию "/" должен уйти как %2F.
func (q *RabbitEventQueue) publishURL() *url.URL {
	endpoint := *q.baseURL
	endpoint.Path = q.baseURL.Path + "/api/exchanges/" + q.vhost + "/amq.default/publish"
	endpoint.RawPath = q.baseURL.Path + "/api/exchanges/" + url.PathEscape(q.vhost) + "/amq.default/publish"
	return &endpoint
}
