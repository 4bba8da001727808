/*
Copyright © 2026 MQMeter Authors
SPDX-License-Identifier: Apache-2.0
*/

// Package cli implements the mqmeter command-line interface.
//
// # Commands
//
// run - Measure queue throughput and write a signed report:
//
//	mqmeter run --transport rabbitmq --customer "Acme" --duration 1h
//	mqmeter run --transport sqltable --config mqmeter.yaml --output report.json
//
// verify - Verify a previously written signed report:
//
//	mqmeter verify throughput-report-acme-20260829T120000Z.json
//
// # Exit Codes
//
//	0  Success
//	1  Fatal error (invalid environment, verification failure); a
//	   remediation message is printed
//	2  Context canceled or timeout
package cli

import (
	"github.com/urfave/cli/v3"

	"github.com/mqmeter/mqmeter/pkg/version"
)

const appName = "mqmeter"

// New builds the root command.
func New() *cli.Command {
	return &cli.Command{
		Name:    appName,
		Usage:   "Measure message-queue throughput and emit a signed, tamper-evident report",
		Version: version.Build,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "Enable debug logging",
			},
			&cli.BoolFlag{
				Name:  "log-json",
				Usage: "Output logs in JSON format",
			},
		},
		Commands: []*cli.Command{
			runCmd(),
			verifyCmd(),
		},
	}
}
