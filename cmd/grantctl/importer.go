package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/grantmatch/internal/db/postgres"
	"github.com/kailas-cloud/grantmatch/internal/domain/grant"
	grantrepo "github.com/kailas-cloud/grantmatch/internal/repository/grant"
	summaryrepo "github.com/kailas-cloud/grantmatch/internal/repository/summary"
)

type criterionFile struct {
	Item        string `yaml:"item"`
	Description string `yaml:"description"`
}

type summaryFile struct {
	Eligibility []criterionFile `yaml:"eligibility_criteria"`
	Narrative   []criterionFile `yaml:"project_narrative_sections"`
	Deadlines   []criterionFile `yaml:"key_deadlines"`
}

type grantFile struct {
	Name     string       `yaml:"name"`
	Status   string       `yaml:"status"`
	Pinned   bool         `yaml:"pinned"`
	Agency   string       `yaml:"agency"`
	Category string       `yaml:"category"`
	Expires  string       `yaml:"expires"` // YYYY-MM-DD
	Summary  *summaryFile `yaml:"summary"`
}

type seedFile struct {
	Grants []grantFile `yaml:"grants"`
}

type seedRecord struct {
	grant   grant.Grant
	summary *grant.Summary
}

type grantWriter interface {
	Upsert(ctx context.Context, g grant.Grant) error
}

type summaryWriter interface {
	Put(ctx context.Context, id string, s *grant.Summary) error
}

func parseSeed(data []byte) ([]seedRecord, error) {
	var f seedFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}

	out := make([]seedRecord, 0, len(f.Grants))
	for i, gf := range f.Grants {
		status := grant.Status(gf.Status)
		if status == "" {
			status = grant.Active
		}
		var expires time.Time
		if gf.Expires != "" {
			t, err := time.Parse(time.DateOnly, gf.Expires)
			if err != nil {
				return nil, fmt.Errorf("grant %d (%s): expires: %w", i, gf.Name, err)
			}
			expires = t
		}
		g, err := grant.New(gf.Name, status, gf.Pinned, gf.Agency, grant.Category(gf.Category), expires)
		if err != nil {
			return nil, fmt.Errorf("grant %d: %w", i, err)
		}

		rec := seedRecord{grant: g}
		if gf.Summary != nil {
			rec.summary = &grant.Summary{
				GrantName:                gf.Name,
				EligibilityCriteria:      criteria(gf.Summary.Eligibility),
				ProjectNarrativeSections: criteria(gf.Summary.Narrative),
				KeyDeadlines:             criteria(gf.Summary.Deadlines),
				Status:                   status,
				IsPinned:                 gf.Pinned,
			}
		}
		out = append(out, rec)
	}
	return out, nil
}

func criteria(cs []criterionFile) []grant.Criterion {
	if len(cs) == 0 {
		return nil
	}
	out := make([]grant.Criterion, len(cs))
	for i, c := range cs {
		out[i] = grant.Criterion{Item: c.Item, Description: c.Description}
	}
	return out
}

// seed writes every record; writers may be nil to skip a store.
func seed(ctx context.Context, recs []seedRecord, grants grantWriter, summaries summaryWriter) (nGrants, nSummaries int, err error) {
	for _, r := range recs {
		if grants != nil {
			if err := grants.Upsert(ctx, r.grant); err != nil {
				return nGrants, nSummaries, err
			}
			nGrants++
		}
		if summaries != nil && r.summary != nil {
			if err := summaries.Put(ctx, r.grant.Name(), r.summary); err != nil {
				return nGrants, nSummaries, fmt.Errorf("put summary %s: %w", r.grant.Name(), err)
			}
			nSummaries++
		}
	}
	return nGrants, nSummaries, nil
}

func importCommand(c *cli.Context) error {
	data, err := os.ReadFile(filepath.Clean(c.String("file")))
	if err != nil {
		return fmt.Errorf("read seed file: %w", err)
	}
	recs, err := parseSeed(data)
	if err != nil {
		return err
	}

	ctx := c.Context
	var grants grantWriter
	if url := c.String("database-url"); url != "" {
		if c.Bool("migrate") {
			if err := postgres.RunMigrations(url); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
		}
		pool, err := postgres.Connect(ctx, postgres.Config{URL: url, MaxConns: 2})
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer pool.Close()
		grants = grantrepo.New(pool)
	}

	var summaries summaryWriter
	if dir := c.String("summaries-dir"); dir != "" {
		store, err := summaryrepo.Open(dir, false, zap.NewNop())
		if err != nil {
			return fmt.Errorf("open summary store: %w", err)
		}
		defer func() { _ = store.Close() }()
		summaries = store
	}

	if grants == nil && summaries == nil {
		return fmt.Errorf("nothing to import into: set --database-url and/or --summaries-dir")
	}

	nGrants, nSummaries, err := seed(ctx, recs, grants, summaries)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(c.App.Writer, "imported %d grants, %d summaries\n", nGrants, nSummaries)
	return err
}
