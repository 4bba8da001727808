/*
Copyright © 2026 MQMeter Authors
SPDX-License-Identifier: Apache-2.0
*/

// Package sqltable measures throughput for a relational queue-table
// transport. Each queue is a table whose auto-increment counter advances
// once per enqueued message, so the counter delta over the sampling window
// is the number of messages that flowed through the queue.
package sqltable

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mqmeter/mqmeter/pkg/collector"
	"github.com/mqmeter/mqmeter/pkg/config"
	"github.com/mqmeter/mqmeter/pkg/report"
)

// Collector reads queue tables from information_schema.
type Collector struct {
	cfg    config.SQLTableConfig
	prefix string

	mu       sync.Mutex
	gdb      *gorm.DB
	baseline map[string]*int64
}

// New builds a collector that dials the configured DSN on first use.
func New(cfg config.SQLTableConfig, prefix string) *Collector {
	return &Collector{cfg: cfg, prefix: prefix, baseline: make(map[string]*int64)}
}

// NewWithDB builds a collector over an existing connection. Used by tests
// and by callers that manage pooling themselves.
func NewWithDB(conn *sql.DB, cfg config.SQLTableConfig, prefix string) (*Collector, error) {
	gdb, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      conn,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		return nil, fmt.Errorf("wrap connection: %w", err)
	}
	return &Collector{cfg: cfg, gdb: gdb, prefix: prefix, baseline: make(map[string]*int64)}, nil
}

// ScopeType implements collector.ScopeTyper.
func (c *Collector) ScopeType() string { return "Schema" }

func (c *Collector) db(ctx context.Context) (*gorm.DB, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gdb != nil {
		return c.gdb.WithContext(ctx), nil
	}

	gdb, err := gorm.Open(mysql.Open(c.cfg.DSN), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, collector.NewEnvironmentError(
			fmt.Sprintf("cannot connect to queue database: %v", err),
			"Check the sqltable.dsn setting and that the database accepts connections from this host, then re-run.",
		)
	}
	c.gdb = gdb
	return gdb.WithContext(ctx), nil
}

// DiscoverQueues lists queue tables in the configured schema and records
// their auto-increment counters as the measurement baseline. Table listing
// order (by name) becomes report order.
func (c *Collector) DiscoverQueues(ctx context.Context) ([]string, error) {
	db, err := c.db(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := db.Raw(
		"SELECT TABLE_NAME, AUTO_INCREMENT FROM information_schema.TABLES WHERE TABLE_SCHEMA = ? ORDER BY TABLE_NAME",
		c.cfg.Schema,
	).Rows()
	if err != nil {
		return nil, fmt.Errorf("list queue tables: %w", err)
	}
	defer rows.Close()

	var names []string
	c.mu.Lock()
	defer c.mu.Unlock()
	for rows.Next() {
		var name string
		var autoInc sql.NullInt64
		if err := rows.Scan(&name, &autoInc); err != nil {
			return nil, fmt.Errorf("scan queue table row: %w", err)
		}
		if c.prefix != "" && !strings.HasPrefix(name, c.prefix) {
			continue
		}
		names = append(names, name)
		if autoInc.Valid {
			v := autoInc.Int64
			c.baseline[name] = &v
		} else {
			c.baseline[name] = nil
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list queue tables: %w", err)
	}

	if len(names) == 0 && c.cfg.Schema != "" {
		return nil, collector.NewEnvironmentError(
			fmt.Sprintf("schema %q contains no queue tables", c.cfg.Schema),
			"Point sqltable.schema at the schema holding the transport's queue tables, then re-run.",
		)
	}
	return names, nil
}

// MeasureThroughput re-reads one table's auto-increment counter and
// subtracts the baseline. Tables without an auto-increment column cannot
// be measured this way and yield a NoDataOrSendOnly sample.
func (c *Collector) MeasureThroughput(ctx context.Context, queue string, _ collector.Window) (report.QueueThroughputSample, error) {
	c.mu.Lock()
	base, known := c.baseline[queue]
	c.mu.Unlock()
	if !known {
		return report.QueueThroughputSample{}, fmt.Errorf("queue table %q was not discovered", queue)
	}
	if base == nil {
		sample := report.Unmeasured(queue)
		sample.Scope = c.cfg.Schema
		return sample, nil
	}

	db, err := c.db(ctx)
	if err != nil {
		return report.QueueThroughputSample{}, err
	}

	var current sql.NullInt64
	row := db.Raw(
		"SELECT AUTO_INCREMENT FROM information_schema.TABLES WHERE TABLE_SCHEMA = ? AND TABLE_NAME = ?",
		c.cfg.Schema, queue,
	).Row()
	if err := row.Scan(&current); err != nil {
		return report.QueueThroughputSample{}, fmt.Errorf("read counter for %q: %w", queue, err)
	}

	if !current.Valid {
		sample := report.Unmeasured(queue)
		sample.Scope = c.cfg.Schema
		return sample, nil
	}

	delta := current.Int64 - *base
	if delta < 0 {
		delta = 0
	}
	sample := report.Measured(queue, delta)
	sample.Scope = c.cfg.Schema
	return sample, nil
}

// DescribeMethod reports the server version and schema.
func (c *Collector) DescribeMethod(ctx context.Context) (string, error) {
	db, err := c.db(ctx)
	if err != nil {
		return "", err
	}
	var version string
	if err := db.Raw("SELECT VERSION()").Row().Scan(&version); err != nil {
		return "", fmt.Errorf("read server version: %w", err)
	}
	return fmt.Sprintf("SQL queue tables, server v%s, schema %s", version, c.cfg.Schema), nil
}
