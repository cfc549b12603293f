package health

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/grantmatch/internal/logger"
)

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates partial failure.
	Degraded Status = "degraded"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Component names reported by Check.
const (
	ComponentIndex     = "index"
	ComponentPostgres  = "postgres"
	ComponentEmbedding = "embedding"
)

// DefaultCheckTimeout bounds each component probe.
const DefaultCheckTimeout = 3 * time.Second

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

// Service coordinates health checks.
type Service struct {
	index     Pinger
	postgres  Pinger
	embedding EmbeddingChecker
	timeout   time.Duration
}

// New creates a Service. Any component may be nil and is then left out of the report.
func New(index, postgres Pinger, embedding EmbeddingChecker) *Service {
	return &Service{index: index, postgres: postgres, embedding: embedding, timeout: DefaultCheckTimeout}
}

// Check probes all wired components concurrently.
func (s *Service) Check(ctx context.Context) Report {
	probes := make(map[string]func(context.Context) error, 3)
	if s.index != nil {
		probes[ComponentIndex] = s.index.Ping
	}
	if s.postgres != nil {
		probes[ComponentPostgres] = s.postgres.Ping
	}
	if s.embedding != nil {
		probes[ComponentEmbedding] = s.embedding.HealthCheck
	}

	results := make(map[string]CheckResult, len(probes))
	errs := make(map[string]error, len(probes))
	type outcome struct {
		name string
		err  error
	}
	out := make(chan outcome, len(probes))

	var g errgroup.Group
	for name, probe := range probes {
		g.Go(func() error {
			pctx, cancel := context.WithTimeout(ctx, s.timeout)
			defer cancel()
			out <- outcome{name: name, err: probe(pctx)}
			return nil
		})
	}
	_ = g.Wait()
	close(out)

	status := Healthy
	for o := range out {
		if o.err != nil {
			results[o.name] = CheckError
			errs[o.name] = o.err
			status = Degraded
			continue
		}
		results[o.name] = CheckOK
	}

	if status == Degraded {
		log := logger.FromContext(ctx)
		for name, err := range errs {
			log.Warn("health check failed", zap.String("component", name), zap.Error(err))
		}
	}
	return Report{Status: status, Checks: results}
}
