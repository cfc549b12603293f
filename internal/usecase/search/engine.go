// Package search fuses lexical and vector retrieval and merges filter matches into one ranking.
package search

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/grantmatch/internal/domain"
	"github.com/kailas-cloud/grantmatch/internal/domain/search/result"
	"github.com/kailas-cloud/grantmatch/internal/logger"
	"github.com/kailas-cloud/grantmatch/internal/metrics"
)

// Fusion parameters.
const (
	DefaultK       = 40
	LexicalWeight  = 0.4
	SemanticWeight = 0.6
	// NoiseFloor is the combined score at or below which a grant is dropped.
	NoiseFloor = 0.05
)

// Match reasons.
const (
	ReasonBoth     = "keyword and meaning"
	ReasonLexical  = "keyword"
	ReasonSemantic = "meaning"
)

// Engine runs hybrid retrieval over the chunk index.
type Engine struct {
	index Index
	k     int
}

// NewEngine creates a hybrid engine. A nil index yields empty results.
func NewEngine(index Index, k int) *Engine {
	if k <= 0 {
		k = DefaultK
	}
	return &Engine{index: index, k: k}
}

// HybridSearch queries both channels concurrently and fuses the scores.
// A failed channel degrades to fewer results; when every attempted channel
// fails the error wraps domain.ErrDependency.
// An empty vector skips the vector channel; k <= 0 uses the engine default.
func (e *Engine) HybridSearch(ctx context.Context, query string, vector []float32, k int) ([]result.Scored, error) {
	if e.index == nil {
		return []result.Scored{}, nil
	}
	if k <= 0 {
		k = e.k
	}
	log := logger.FromContext(ctx)

	var (
		lexical, semantic []result.Hit
		lexErr, vecErr    error
		attempted         int
		g                 errgroup.Group
	)

	if strings.TrimSpace(query) != "" {
		attempted++
		g.Go(func() error {
			hits, err := e.index.SearchLexical(ctx, query, k)
			if err != nil {
				log.Warn("lexical channel failed", zap.Error(err))
				metrics.HybridChannelErrorsTotal.WithLabelValues("lexical").Inc()
				lexErr = fmt.Errorf("lexical channel: %w", err)
				return nil
			}
			metrics.HybridHitsTotal.WithLabelValues("lexical").Add(float64(len(hits)))
			lexical = hits
			return nil
		})
	}
	if len(vector) > 0 {
		attempted++
		g.Go(func() error {
			hits, err := e.index.SearchVector(ctx, vector, k)
			if err != nil {
				log.Warn("vector channel failed", zap.Error(err))
				metrics.HybridChannelErrorsTotal.WithLabelValues("vector").Inc()
				vecErr = fmt.Errorf("vector channel: %w", err)
				return nil
			}
			metrics.HybridHitsTotal.WithLabelValues("vector").Add(float64(len(hits)))
			semantic = hits
			return nil
		})
	}
	_ = g.Wait()

	failed := 0
	for _, err := range []error{lexErr, vecErr} {
		if err != nil {
			failed++
		}
	}
	if attempted > 0 && failed == attempted {
		return nil, fmt.Errorf("hybrid search: %w: %w", domain.ErrDependency, errors.Join(lexErr, vecErr))
	}
	return Fuse(lexical, semantic), nil
}

type channels struct {
	bm25     float64
	semantic float64
	order    int
}

// Fuse combines raw channel hits into one ranking.
// Lexical scores are divided by the lexical maximum; semantic scores are clamped to [0,1].
// Each grant keeps the maximum per channel across its chunks.
func Fuse(lexical, semantic []result.Hit) []result.Scored {
	acc := make(map[string]*channels)
	get := func(id string) *channels {
		c, ok := acc[id]
		if !ok {
			c = &channels{order: len(acc)}
			acc[id] = c
		}
		return c
	}

	var maxRaw float64
	for _, h := range lexical {
		if h.Score > maxRaw {
			maxRaw = h.Score
		}
	}
	if maxRaw > 0 {
		for _, h := range lexical {
			id, ok := GrantID(h.Location)
			if !ok {
				continue
			}
			c := get(id)
			c.bm25 = max(c.bm25, h.Score/maxRaw)
		}
	}

	for _, h := range semantic {
		id, ok := GrantID(h.Location)
		if !ok {
			continue
		}
		c := get(id)
		c.semantic = max(c.semantic, clamp01(h.Score))
	}

	type row struct {
		scored result.Scored
		order  int
	}
	rows := make([]row, 0, len(acc))
	for id, c := range acc {
		combined := Combine(c.bm25, c.semantic)
		if combined <= NoiseFloor {
			continue
		}
		rows = append(rows, row{
			scored: result.New(id, combined, result.Hybrid, reason(c.bm25, c.semantic)),
			order:  c.order,
		})
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].scored.Score != rows[j].scored.Score {
			return rows[i].scored.Score > rows[j].scored.Score
		}
		return rows[i].order < rows[j].order
	})

	out := make([]result.Scored, len(rows))
	for i, r := range rows {
		r.scored.Score = result.Round2(r.scored.Score)
		out[i] = r.scored
	}
	return out
}

// Combine is the weighted channel fusion.
func Combine(bm25, semantic float64) float64 {
	return LexicalWeight*bm25 + SemanticWeight*semantic
}

func reason(bm25, semantic float64) string {
	switch {
	case bm25 > 0 && semantic > 0:
		return ReasonBoth
	case bm25 > 0:
		return ReasonLexical
	default:
		return ReasonSemantic
	}
}

func clamp01(v float64) float64 {
	return min(max(v, 0), 1)
}

// GrantID derives the grant folder from a chunk location: the path segment before the file name.
func GrantID(location string) (string, bool) {
	loc := strings.TrimRight(strings.TrimSpace(location), "/")
	if i := strings.Index(loc, "://"); i >= 0 {
		loc = loc[i+3:]
	}
	parts := strings.Split(loc, "/")
	if len(parts) < 2 {
		return "", false
	}
	id := strings.TrimSpace(parts[len(parts)-2])
	if id == "" {
		return "", false
	}
	return id, true
}
