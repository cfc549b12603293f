package sdk

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
)

// Poll outcomes besides the terminal rag statuses.
const (
	pollExhausted = "exhausted"
	pollNotFound  = "not_found"
	pollCanceled  = "canceled"
	pollFailed    = "failed"
)

type sdkMetrics struct {
	requests     *prometheus.CounterVec
	latency      *prometheus.HistogramVec
	pollAttempts *prometheus.CounterVec
	pollOutcomes *prometheus.CounterVec
	pollsPerJob  prometheus.Histogram
}

func newSDKMetrics(reg prometheus.Registerer) (*sdkMetrics, error) {
	m := &sdkMetrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "grantmatch",
			Subsystem: "sdk",
			Name:      "operations_total",
			Help:      "API calls by operation and result code.",
		}, []string{"operation", "status"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "grantmatch",
			Subsystem: "sdk",
			Name:      "operation_duration_seconds",
			Help:      "API call latency in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		pollAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "grantmatch",
			Subsystem: "sdk",
			Name:      "search_job_poll_attempts_total",
			Help:      "Search job polls by rag status seen, or error.",
		}, []string{"rag_status"}),
		pollOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "grantmatch",
			Subsystem: "sdk",
			Name:      "search_job_polls_finished_total",
			Help:      "Finished search job polling loops by outcome.",
		}, []string{"outcome"}),
		pollsPerJob: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "grantmatch",
			Subsystem: "sdk",
			Name:      "search_job_polls_per_job",
			Help:      "Polls spent per search job before it finished or the budget ran out.",
			Buckets:   []float64{1, 2, 3, 5, 10, 20, 30, 60},
		}),
	}
	if err := registerOrReuse(reg, &m.requests); err != nil {
		return nil, err
	}
	if err := registerOrReuse(reg, &m.latency); err != nil {
		return nil, err
	}
	if err := registerOrReuse(reg, &m.pollAttempts); err != nil {
		return nil, err
	}
	if err := registerOrReuse(reg, &m.pollOutcomes); err != nil {
		return nil, err
	}
	if err := registerOrReuse(reg, &m.pollsPerJob); err != nil {
		return nil, err
	}
	return m, nil
}

// registerOrReuse lets several clients share one registry.
func registerOrReuse[T prometheus.Collector](reg prometheus.Registerer, c *T) error {
	err := reg.Register(*c)
	if err == nil {
		return nil
	}
	var are prometheus.AlreadyRegisteredError
	if !errors.As(err, &are) {
		return fmt.Errorf("grantmatch: register metric: %w", err)
	}
	existing, ok := are.ExistingCollector.(T)
	if !ok {
		return fmt.Errorf("grantmatch: metric already registered as %T", are.ExistingCollector)
	}
	*c = existing
	return nil
}

// observer logs and counts API calls and search job polling. A nil observer is a no-op.
type observer struct {
	logger  *slog.Logger
	metrics *sdkMetrics
}

func newObserver(logger *slog.Logger, reg prometheus.Registerer) (*observer, error) {
	o := &observer{logger: logger}
	if reg == nil {
		return o, nil
	}
	m, err := newSDKMetrics(reg)
	if err != nil {
		return nil, err
	}
	o.metrics = m
	return o, nil
}

// statusLabel is "ok", the API error code, or "transport" for calls that got no answer.
func statusLabel(err error) string {
	if err == nil {
		return "ok"
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Code != "" {
		return apiErr.Code
	}
	return "transport"
}

func (o *observer) request(op string, start time.Time, err error) {
	if o == nil {
		return
	}
	dur := time.Since(start)
	if o.metrics != nil {
		o.metrics.requests.WithLabelValues(op, statusLabel(err)).Inc()
		o.metrics.latency.WithLabelValues(op).Observe(dur.Seconds())
	}
	if o.logger == nil {
		return
	}
	if err != nil {
		o.logger.Warn("grantmatch call failed", "op", op, "duration", dur, "error", err)
		return
	}
	o.logger.Debug("grantmatch call done", "op", op, "duration", dur)
}

// pollAttempt records one poll; j is nil when the poll failed.
func (o *observer) pollAttempt(id uuid.UUID, attempt int, j *SearchJob, err error) {
	if o == nil {
		return
	}
	label := pollFailed
	if j != nil {
		label = j.RagStatus
	}
	if o.metrics != nil {
		o.metrics.pollAttempts.WithLabelValues(label).Inc()
	}
	if o.logger == nil {
		return
	}
	if err != nil {
		o.logger.Warn("search job poll failed", "job_id", id.String(), "attempt", attempt, "error", err)
		return
	}
	o.logger.Debug("search job polled", "job_id", id.String(), "attempt", attempt, "rag_status", label)
}

// pollFinished records how a polling loop ended: a terminal rag status or one of the poll outcomes.
func (o *observer) pollFinished(id uuid.UUID, attempts int, outcome string, start time.Time) {
	if o == nil {
		return
	}
	if o.metrics != nil {
		o.metrics.pollOutcomes.WithLabelValues(outcome).Inc()
		o.metrics.pollsPerJob.Observe(float64(attempts))
	}
	if o.logger != nil {
		o.logger.Info("search job polling finished",
			"job_id", id.String(),
			"outcome", outcome,
			"attempts", attempts,
			"duration", time.Since(start),
		)
	}
}

// pollOutcome classifies the error that ended a polling loop.
func pollOutcome(err error) string {
	switch {
	case errors.Is(err, ErrPollExhausted):
		return pollExhausted
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrNotConfigured):
		return pollNotFound
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return pollCanceled
	default:
		return pollFailed
	}
}
