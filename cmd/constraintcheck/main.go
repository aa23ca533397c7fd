// Command constraintcheck statically checks `validate` struct tags in Go
// source for illegal constraint placement. It never executes validation;
// misuse is reported as diagnostics whose severity is configurable per
// check.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/urfave/cli/v3"

	constraint "github.com/constraintgo/constraint"
	"github.com/constraintgo/constraint/internal/checker"
)

func main() {
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	cmd := &cli.Command{
		Name:  "constraintcheck",
		Usage: "static checks for validate struct tags",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "enable debug logging",
			},
		},
		Commands: []*cli.Command{
			checkCmd(&log),
			constraintsCmd(),
		},
	}
	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Error().Err(err).Msg("constraintcheck failed")
		os.Exit(2)
	}
}

func checkCmd(log *zerolog.Logger) *cli.Command {
	return &cli.Command{
		Name:      "check",
		Usage:     "Check validate tags in the given files or directories",
		ArgsUsage: "[path ...]",
		Description: `Parses Go source and reports constraint misuse: unknown constraint
names, constraints that cannot apply to the field's type, malformed
arguments, constraints on unexported fields, and dive on non-container
fields.

Severity per check, a suppressions file, and a cache file are read from
the YAML config:

  checks:
    inapplicable-constraint: warning
  suppressions: suppressions.yaml
  cache: .constraintcheck.cache

Exit status is 1 when any error-severity diagnostic remains after
suppression, 0 otherwise.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to the YAML configuration file",
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Value:   "text",
				Usage:   "Output format: text or json",
			},
			&cli.BoolFlag{
				Name:  "no-cache",
				Usage: "Re-check every file even when the cache says it is clean",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			lg := *log
			if cmd.Root().Bool("verbose") {
				lg = lg.Level(zerolog.DebugLevel)
			} else {
				lg = lg.Level(zerolog.InfoLevel)
			}

			cfg := checker.DefaultConfig()
			if path := cmd.String("config"); path != "" {
				var err error
				cfg, err = checker.LoadConfig(path)
				if err != nil {
					return err
				}
			}
			if cmd.Bool("no-cache") {
				cfg.CacheFile = ""
			}
			format := cmd.String("format")
			if format != "text" && format != "json" {
				return fmt.Errorf("unknown output format: %q, valid formats are: text, json", format)
			}

			targets := cmd.Args().Slice()
			if len(targets) == 0 {
				targets = []string{"."}
			}

			c := checker.New(cfg, nil, lg)
			diags, err := c.Run(ctx, targets)
			if err != nil {
				return err
			}
			lg.Debug().Int("diagnostics", len(diags)).Msg("check finished")

			if format == "json" {
				if err := checker.WriteJSON(os.Stdout, diags); err != nil {
					return err
				}
			} else {
				if err := checker.WriteText(os.Stdout, diags); err != nil {
					return err
				}
			}
			if checker.HasErrors(diags) {
				return cli.Exit("", 1)
			}
			return nil
		},
	}
}

func constraintsCmd() *cli.Command {
	return &cli.Command{
		Name:  "constraints",
		Usage: "List the registered constraint names",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			for _, name := range constraint.DefaultRegistry().Names() {
				fmt.Println(name)
			}
			return nil
		},
	}
}
