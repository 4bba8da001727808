/*
Copyright © 2026 MQMeter Authors
SPDX-License-Identifier: Apache-2.0
*/

package cli

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/mqmeter/mqmeter/pkg/logging"
	"github.com/mqmeter/mqmeter/pkg/signing"
	"github.com/mqmeter/mqmeter/pkg/version"
)

func verifyCmd() *cli.Command {
	return &cli.Command{
		Name:      "verify",
		Usage:     "Verify the signature of a signed report file",
		ArgsUsage: "FILE",
		Description: `Re-canonicalizes the report data in FILE, recomputes its digest and
validates the signature against the public key shipped with this tool.
Legacy reports signed by older tool versions verify under their original
canonicalization rules.`,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			logging.SetDefaultStructuredLogger(appName, version.Build, logging.Options{
				Debug: cmd.Bool("debug"),
				JSON:  cmd.Bool("log-json"),
			})

			if cmd.Args().Len() != 1 {
				return fmt.Errorf("verify expects exactly one report file argument")
			}
			path := cmd.Args().First()

			signed, err := signing.ReadFile(path)
			if err != nil {
				return err
			}
			if err := signing.Verify(*signed); err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}

			r := signed.ReportData
			fmt.Printf("Signature valid.\n")
			fmt.Printf("Customer:          %s\n", r.CustomerName)
			fmt.Printf("Transport:         %s\n", r.MessageTransport)
			fmt.Printf("Method:            %s\n", r.ReportMethod)
			fmt.Printf("Tool version:      %s\n", r.ToolVersion)
			fmt.Printf("Window:            %s to %s\n", r.StartTime.Format("2006-01-02 15:04:05 MST"), r.EndTime.Format("2006-01-02 15:04:05 MST"))
			fmt.Printf("Queues:            %d\n", r.TotalQueues)
			fmt.Printf("Total throughput:  %d\n", r.TotalThroughput)
			return nil
		},
	}
}
