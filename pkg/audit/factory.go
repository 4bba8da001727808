/*
Copyright © 2026 MQMeter Authors
SPDX-License-Identifier: Apache-2.0
*/

// Package audit orchestrates a full measurement run: it selects the
// collector for the requested transport, drives the sampling window,
// aggregates samples into a report and signs it.
package audit

import (
	"fmt"

	"github.com/mqmeter/mqmeter/pkg/collector"
	"github.com/mqmeter/mqmeter/pkg/collector/cloudqueue"
	"github.com/mqmeter/mqmeter/pkg/collector/monitoring"
	"github.com/mqmeter/mqmeter/pkg/collector/rabbitmq"
	"github.com/mqmeter/mqmeter/pkg/collector/servicebus"
	"github.com/mqmeter/mqmeter/pkg/collector/sqltable"
	"github.com/mqmeter/mqmeter/pkg/config"
	"github.com/mqmeter/mqmeter/pkg/fetch"
)

// Factory creates the collector for a transport.
// This interface enables dependency injection for testing.
type Factory interface {
	Create(t collector.Transport) (collector.Collector, error)
}

// DefaultFactory creates collectors with production dependencies: the
// shared fetch client and the loaded run configuration.
type DefaultFactory struct {
	Config *config.Config
	Fetch  *fetch.Client
}

// NewDefaultFactory creates a factory over the given configuration and
// fetch client.
func NewDefaultFactory(cfg *config.Config, client *fetch.Client) *DefaultFactory {
	return &DefaultFactory{Config: cfg, Fetch: client}
}

// Create builds the collector for the transport.
func (f *DefaultFactory) Create(t collector.Transport) (collector.Collector, error) {
	prefix := f.Config.Prefix
	switch t {
	case collector.TransportRabbitMQ:
		return rabbitmq.New(f.Config.RabbitMQ, f.Fetch, prefix), nil
	case collector.TransportServiceBus:
		return servicebus.New(f.Config.ServiceBus, f.Fetch, prefix), nil
	case collector.TransportSQLTable:
		return sqltable.New(f.Config.SQLTable, prefix), nil
	case collector.TransportCloudQueue:
		return cloudqueue.New(f.Config.CloudQueue, f.Fetch, prefix), nil
	case collector.TransportMonitoring:
		return monitoring.New(f.Config.Monitoring, f.Fetch, prefix), nil
	default:
		return nil, fmt.Errorf("unsupported transport %q", t)
	}
}
