package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/urfave/cli/v2"

	"github.com/kailas-cloud/grantmatch/pkg/sdk"
)

func queryArg(c *cli.Context, name string) (string, error) {
	q := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if q == "" {
		return "", fmt.Errorf("%s is required", name)
	}
	return q, nil
}

func searchCommand(c *cli.Context) error {
	q, err := queryArg(c, "query")
	if err != nil {
		return err
	}
	client, err := newClient(c)
	if err != nil {
		return err
	}
	resp, err := client.Search(c.Context, q)
	if err != nil {
		return fmt.Errorf("search: %w", err)
	}
	return printJSON(c.App.Writer, resp)
}

func recommendCommand(c *cli.Context) error {
	q, err := queryArg(c, "query")
	if err != nil {
		return err
	}
	client, err := newClient(c, sdk.WithPollInterval(c.Duration("interval")))
	if err != nil {
		return err
	}

	var prefs *sdk.Preferences
	if c.IsSet("agency") || c.IsSet("category") || c.IsSet("nofo-id") {
		prefs = &sdk.Preferences{
			Agency:   c.String("agency"),
			Category: c.String("category"),
			NofoID:   c.String("nofo-id"),
		}
	}

	resp, err := client.Recommend(c.Context, q, prefs)
	if err != nil {
		return fmt.Errorf("recommend: %w", err)
	}
	if resp.JobID == nil || c.Bool("no-wait") {
		return printJSON(c.App.Writer, resp)
	}

	set := sdk.NewResultSet(resp.Grants)
	j, err := client.PollSearchJob(c.Context, *resp.JobID, set)
	if err != nil && !errors.Is(err, sdk.ErrPollExhausted) {
		return fmt.Errorf("poll: %w", err)
	}
	resp.Grants = set.Grants()
	if j != nil {
		resp.RagStatus = j.RagStatus
	}
	return printJSON(c.App.Writer, resp)
}

func pollCommand(c *cli.Context) error {
	raw, err := queryArg(c, "jobId")
	if err != nil {
		return err
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return fmt.Errorf("jobId: %w", err)
	}
	client, err := newClient(c,
		sdk.WithPollInterval(c.Duration("interval")),
		sdk.WithMaxPollAttempts(c.Int("attempts")),
	)
	if err != nil {
		return err
	}

	set := sdk.NewResultSet(nil)
	j, err := client.PollSearchJob(c.Context, id, set)
	if err != nil && !errors.Is(err, sdk.ErrPollExhausted) {
		return fmt.Errorf("poll: %w", err)
	}

	out := struct {
		JobID     uuid.UUID   `json:"jobId"`
		RagStatus string      `json:"ragStatus"`
		Exhausted bool        `json:"exhausted,omitempty"`
		Grants    []sdk.Grant `json:"grants"`
	}{JobID: id, Exhausted: err != nil, Grants: set.Grants()}
	if j != nil {
		out.RagStatus = j.RagStatus
	}
	return printJSON(c.App.Writer, out)
}

func similarCommand(c *cli.Context) error {
	id, err := queryArg(c, "nofoId")
	if err != nil {
		return err
	}
	client, err := newClient(c)
	if err != nil {
		return err
	}
	resp, err := client.SimilarGrants(c.Context, id)
	if err != nil {
		return fmt.Errorf("similar: %w", err)
	}
	return printJSON(c.App.Writer, resp)
}

func healthCommand(c *cli.Context) error {
	client, err := newClient(c)
	if err != nil {
		return err
	}
	h, err := client.Health(c.Context)
	if err != nil {
		return fmt.Errorf("health: %w", err)
	}
	return printJSON(c.App.Writer, h)
}
