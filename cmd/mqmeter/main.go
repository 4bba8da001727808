/*
Copyright © 2026 MQMeter Authors
SPDX-License-Identifier: Apache-2.0
*/

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mqmeter/mqmeter/pkg/cli"
	"github.com/mqmeter/mqmeter/pkg/collector"
	"github.com/mqmeter/mqmeter/pkg/signing"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := cli.New().Run(ctx, os.Args)
	stop()
	if err == nil {
		return
	}

	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		fmt.Fprintln(os.Stderr, "run canceled; no report was produced")
		os.Exit(2)
	case isEnvironmentError(err):
		var envErr *collector.EnvironmentError
		errors.As(err, &envErr)
		fmt.Fprintf(os.Stderr, "error: %s\n%s\n", envErr.Reason, envErr.Remediation)
		os.Exit(1)
	case errors.Is(err, signing.ErrTamperedOrCorrupt):
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	default:
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		fmt.Fprintln(os.Stderr, "If the problem persists, contact support.")
		os.Exit(1)
	}
}

func isEnvironmentError(err error) bool {
	var envErr *collector.EnvironmentError
	return errors.As(err, &envErr)
}
