/*
Copyright © 2026 MQMeter Authors
SPDX-License-Identifier: Apache-2.0
*/

package cli

import (
	"context"
	"fmt"
	"time"

	"log/slog"

	"github.com/urfave/cli/v3"

	"github.com/mqmeter/mqmeter/pkg/audit"
	"github.com/mqmeter/mqmeter/pkg/config"
	"github.com/mqmeter/mqmeter/pkg/fetch"
	"github.com/mqmeter/mqmeter/pkg/logging"
	"github.com/mqmeter/mqmeter/pkg/signing"
	"github.com/mqmeter/mqmeter/pkg/version"
)

func runCmd() *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "Measure queue throughput over a sampling window and write a signed report",
		Description: `Discovers the queues of the selected transport, measures their
throughput over the sampling window, aggregates the samples into a single
report, signs it, and writes the signed report file.

# Examples

Measure a RabbitMQ cluster for one hour:
  mqmeter run --transport rabbitmq --customer "Acme Ltd" --duration 1h

Measure with a config file and ignore infrastructure queues:
  mqmeter run --config mqmeter.yaml --ignore "audit" --ignore "*.retries"`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to the YAML run configuration",
			},
			&cli.StringFlag{
				Name:    "transport",
				Aliases: []string{"t"},
				Usage:   "Transport to measure (rabbitmq, servicebus, sqltable, cloudqueue, monitoring)",
			},
			&cli.StringFlag{
				Name:  "customer",
				Usage: "Customer name stamped into the report",
			},
			&cli.StringFlag{
				Name:  "prefix",
				Usage: "Only measure queues whose name starts with this prefix",
			},
			&cli.StringSliceFlag{
				Name:  "ignore",
				Usage: "Queue name or wildcard pattern to exclude from totals (can be repeated)",
			},
			&cli.DurationFlag{
				Name:    "duration",
				Aliases: []string{"d"},
				Usage:   "Sampling window length (default from config, 1h)",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Output file path (default: throughput-report-<customer>-<timestamp>.json)",
			},
			&cli.BoolFlag{
				Name:  "skip-version-check",
				Usage: "Skip the release feed freshness check",
			},
		},
		Action: runAction,
	}
}

func runAction(ctx context.Context, cmd *cli.Command) error {
	logging.SetDefaultStructuredLogger(appName, version.Build, logging.Options{
		Debug: cmd.Bool("debug"),
		JSON:  cmd.Bool("log-json"),
	})

	cfg, err := config.Load(cmd.String("config"))
	if err != nil {
		return err
	}
	mergeFlags(cfg, cmd)

	transport, err := parseTransport(cfg.Transport)
	if err != nil {
		return err
	}
	if cfg.Customer == "" {
		return fmt.Errorf("a customer name is required (--customer or the customer config key)")
	}

	if !cmd.Bool("skip-version-check") {
		checkVersion(ctx)
	}

	client := fetch.NewClient(credentialProvider(cfg), fetch.WithRateLimit(20, 40))

	runner := &audit.Runner{
		Customer:       cfg.Customer,
		Transport:      transport,
		Prefix:         cfg.Prefix,
		IgnoreList:     cfg.IgnoreQueues,
		Duration:       time.Duration(cfg.Duration),
		MaxConcurrency: cfg.MaxConcurrency,
		ToolVersion:    version.Build,
		Factory:        audit.NewDefaultFactory(cfg, client),
	}

	signed, err := runner.Run(ctx)
	if err != nil {
		return err
	}

	output := cfg.Output
	if output == "" {
		output = defaultOutputPath(cfg.Customer, signed.ReportData.EndTime)
	}
	if err := signing.WriteFile(output, signed); err != nil {
		return err
	}

	printRunSummary(output, signed)
	return nil
}

// mergeFlags overlays explicitly set CLI flags onto the loaded config.
func mergeFlags(cfg *config.Config, cmd *cli.Command) {
	if v := cmd.String("transport"); v != "" {
		cfg.Transport = v
	}
	if v := cmd.String("customer"); v != "" {
		cfg.Customer = v
	}
	if v := cmd.String("prefix"); v != "" {
		cfg.Prefix = v
	}
	if v := cmd.StringSlice("ignore"); len(v) > 0 {
		cfg.IgnoreQueues = append(cfg.IgnoreQueues, v...)
	}
	if v := cmd.Duration("duration"); v > 0 {
		cfg.Duration = config.Duration(v)
	}
	if v := cmd.String("output"); v != "" {
		cfg.Output = v
	}
}

// credentialProvider prefers configured credentials and falls back to the
// interactive console prompt.
func credentialProvider(cfg *config.Config) fetch.CredentialProvider {
	if len(cfg.Credentials) == 0 {
		return fetch.ConsolePrompt{}
	}
	provider := make(fetch.StaticProvider, len(cfg.Credentials))
	for origin, cred := range cfg.Credentials {
		provider[origin] = fetch.Credential{Username: cred.Username, Password: cred.Password}
	}
	return provider
}

// checkVersion warns when a newer release exists. Feed outages degrade to
// a warning; they never abort the run.
func checkVersion(ctx context.Context) {
	latest, newer, err := version.CheckForUpdate(ctx, version.DefaultFeedURL, version.Build)
	if err != nil {
		slog.Warn("version check failed", "error", err)
		return
	}
	if newer {
		slog.Warn("a newer release is available", "current", version.Build, "latest", latest)
	}
}

func printRunSummary(path string, signed *signing.SignedReport) {
	r := signed.ReportData
	fmt.Printf("\nSigned report written to %s\n", path)
	fmt.Printf("Customer:          %s\n", r.CustomerName)
	fmt.Printf("Transport:         %s\n", r.MessageTransport)
	fmt.Printf("Method:            %s\n", r.ReportMethod)
	fmt.Printf("Queues:            %d\n", r.TotalQueues)
	fmt.Printf("Total throughput:  %d\n", r.TotalThroughput)
	if len(r.IgnoredQueues) > 0 {
		fmt.Printf("Ignored queues:    %d\n", len(r.IgnoredQueues))
	}
}
