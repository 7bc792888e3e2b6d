package telemetry

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/shaiso/Planner/internal/correlation"
)

// metricsTimeout — таймаут запроса к metrics-service.
const metricsTimeout = 2 * time.Second

// Локальные Prometheus метрики, экспортируются на /metrics.
var (
	RequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "planner_http_requests_total",
		Help: "Total HTTP requests handled by planner-service",
	}, []string{"method", "path", "status"})

	RequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "planner_http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path"})
)

// MetricRecord — запись о вызове API для metrics-service.
type MetricRecord struct {
	Endpoint       string `json:"endpoint"`
	Method         string `json:"method"`
	ServiceName    string `json:"service_name"`
	ResponseTimeMS int64  `json:"response_time_ms"`
}

// MetricsClient отправляет метрики запросов в metrics-service.
//
// Отправка fire-and-forget: любая ошибка (таймаут, connection refused,
// не-2xx) проглатывается и логируется только через Emitter.
type MetricsClient struct {
	baseURL string
	service string
	emitter *Emitter
	client  *http.Client
}

// NewMetricsClient создаёт MetricsClient.
func NewMetricsClient(baseURL, service string, emitter *Emitter) *MetricsClient {
	return &MetricsClient{
		baseURL: baseURL,
		service: service,
		emitter: emitter,
		client: &http.Client{
			Timeout: metricsTimeout,
		},
	}
}

// Record отправляет метрику вызова в metrics-service в отдельной
// горутине и сразу возвращает управление.
func (c *MetricsClient) Record(endpoint, method, correlationID string, duration time.Duration) {
	go c.record(endpoint, method, correlationID, duration)
}

func (c *MetricsClient) record(endpoint, method, correlationID string, duration time.Duration) {
	rec := MetricRecord{
		Endpoint:       endpoint,
		Method:         method,
		ServiceName:    c.service,
		ResponseTimeMS: duration.Milliseconds(),
	}

	body, err := json.Marshal(rec)
	if err != nil {
		c.emitter.Warn(endpoint, correlationID, fmt.Sprintf("failed to marshal metric: %v", err))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), metricsTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/metrics/record", bytes.NewReader(body))
	if err != nil {
		c.emitter.Warn(endpoint, correlationID, fmt.Sprintf("failed to build metric request: %v", err))
		return
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(correlation.Header, correlationID)

	resp, err := c.client.Do(req)
	if err != nil {
		c.emitter.Warn(endpoint, correlationID, fmt.Sprintf("failed to record metric: %v", err))
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.emitter.Warn(endpoint, correlationID,
			fmt.Sprintf("metrics service returned status %d", resp.StatusCode))
	}
}
