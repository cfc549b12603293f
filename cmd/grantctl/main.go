package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/kailas-cloud/grantmatch/internal/version"
	"github.com/kailas-cloud/grantmatch/pkg/sdk"
)

func main() {
	if err := newApp(os.Stdout).Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "grantctl:", err)
		os.Exit(1)
	}
}

func newApp(out io.Writer) *cli.App {
	return &cli.App{
		Name:    "grantctl",
		Usage:   "Query and seed a grantmatch server",
		Version: version.String(),
		Writer:  out,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "server",
				Aliases: []string{"s"},
				Usage:   "grantmatch API base URL",
				Value:   "http://localhost:8080",
				EnvVars: []string{"GRANTMATCH_URL"},
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "Log SDK operations to stderr",
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "search",
				Usage:     "Run a synchronous search",
				ArgsUsage: "<query>",
				Action:    searchCommand,
			},
			{
				Name:      "recommend",
				Usage:     "Ask for recommendations; semantic answers are polled to completion",
				ArgsUsage: "<query>",
				Action:    recommendCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "agency", Usage: "Preferred funding agency"},
					&cli.StringFlag{Name: "category", Usage: "Preferred funding category"},
					&cli.StringFlag{Name: "nofo-id", Usage: "Grant to find alternatives for"},
					&cli.BoolFlag{Name: "no-wait", Usage: "Do not poll the search job"},
					&cli.DurationFlag{Name: "interval", Usage: "Delay between polls", Value: sdk.DefaultPollInterval},
				},
			},
			{
				Name:      "poll",
				Usage:     "Poll a search job until it finishes or the attempt budget is spent",
				ArgsUsage: "<jobId>",
				Action:    pollCommand,
				Flags: []cli.Flag{
					&cli.DurationFlag{Name: "interval", Usage: "Delay between polls", Value: sdk.DefaultPollInterval},
					&cli.IntFlag{Name: "attempts", Usage: "Maximum number of polls", Value: sdk.DefaultMaxPollAttempts},
				},
			},
			{
				Name:      "similar",
				Usage:     "List grants similar to a grant",
				ArgsUsage: "<nofoId>",
				Action:    similarCommand,
			},
			{
				Name:   "health",
				Usage:  "Show dependency health",
				Action: healthCommand,
			},
			{
				Name:   "import",
				Usage:  "Load grants and summaries from a YAML file into postgres and the summary store",
				Action: importCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "file",
						Aliases:  []string{"f"},
						Usage:    "YAML file with a top-level grants list",
						Required: true,
					},
					&cli.StringFlag{
						Name:    "database-url",
						Usage:   "Postgres connection URL",
						EnvVars: []string{"DATABASE_URL"},
					},
					&cli.StringFlag{
						Name:    "summaries-dir",
						Usage:   "Summary store directory",
						EnvVars: []string{"SUMMARIES_DIR"},
					},
					&cli.BoolFlag{
						Name:  "migrate",
						Usage: "Run schema migrations first",
						Value: true,
					},
				},
			},
		},
	}
}

func newClient(c *cli.Context, opts ...sdk.Option) (*sdk.Client, error) {
	if c.Bool("verbose") {
		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
		opts = append(opts, sdk.WithLogger(logger))
	}
	client, err := sdk.New(c.String("server"), opts...)
	if err != nil {
		return nil, fmt.Errorf("create client: %w", err)
	}
	return client, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}
