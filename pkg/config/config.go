/*
Copyright © 2026 MQMeter Authors
SPDX-License-Identifier: Apache-2.0
*/

// Package config loads the run configuration from a YAML file with an
// optional .env overlay for secrets.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the full run configuration. CLI flags override the fields they
// duplicate (customer, transport, prefix, ignore list, duration, output).
type Config struct {
	Customer       string   `yaml:"customer"`
	Transport      string   `yaml:"transport"`
	Prefix         string   `yaml:"prefix"`
	IgnoreQueues   []string `yaml:"ignore_queues"`
	Duration       Duration `yaml:"duration"`
	MaxConcurrency int      `yaml:"max_concurrency"`
	Output         string   `yaml:"output"`

	// Credentials maps an origin (scheme://host:port) to a credential
	// pair, the non-interactive substitute for console prompts.
	Credentials map[string]CredentialConfig `yaml:"credentials"`

	RabbitMQ   RabbitMQConfig   `yaml:"rabbitmq"`
	ServiceBus ServiceBusConfig `yaml:"servicebus"`
	SQLTable   SQLTableConfig   `yaml:"sqltable"`
	CloudQueue CloudQueueConfig `yaml:"cloudqueue"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
}

// CredentialConfig is one configured username/password pair. The password
// may reference an environment variable via ${VAR} expansion.
type CredentialConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// RabbitMQConfig points at a RabbitMQ management API.
type RabbitMQConfig struct {
	ManagementURL string `yaml:"management_url"`
	PageSize      int    `yaml:"page_size"`
}

// ServiceBusConfig points at a managed service bus management endpoint.
type ServiceBusConfig struct {
	ManagementURL string `yaml:"management_url"`
	Namespace     string `yaml:"namespace"`
}

// SQLTableConfig points at a relational queue-table database.
type SQLTableConfig struct {
	DSN    string `yaml:"dsn"`
	Schema string `yaml:"schema"`
}

// CloudQueueConfig points at the metrics sidecar of a cloud queue service.
type CloudQueueConfig struct {
	SidecarURL string `yaml:"sidecar_url"`
	Region     string `yaml:"region"`
}

// MonitoringConfig points at a monitoring platform's query API.
type MonitoringConfig struct {
	APIURL    string `yaml:"api_url"`
	AccountID string `yaml:"account_id"`
}

// Duration parses YAML duration strings like "1h" or "30m".
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// Load reads a YAML configuration file, overlays .env from the working
// directory if present, applies defaults and validates. An empty path
// returns defaults only.
func Load(path string) (*Config, error) {
	_ = loadDotEnv()

	cfg := &Config{}
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %q: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("parse config %q: %w", path, err)
		}
	}

	cfg.applyDefaults()
	cfg.expandEnv()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadDotEnv() error {
	if _, err := os.Stat(".env"); err == nil {
		return godotenv.Load(".env")
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Duration == 0 {
		c.Duration = Duration(time.Hour)
	}
	if c.MaxConcurrency == 0 {
		c.MaxConcurrency = 8
	}
	if c.RabbitMQ.PageSize == 0 {
		c.RabbitMQ.PageSize = 500
	}
	if c.SQLTable.DSN == "" {
		c.SQLTable.DSN = os.Getenv("MQMETER_SQL_DSN")
	}
}

// expandEnv resolves ${VAR} references in secret-bearing fields so the
// YAML file can stay free of plaintext passwords.
func (c *Config) expandEnv() {
	for origin, cred := range c.Credentials {
		cred.Username = os.ExpandEnv(cred.Username)
		cred.Password = os.ExpandEnv(cred.Password)
		c.Credentials[origin] = cred
	}
	c.SQLTable.DSN = os.ExpandEnv(c.SQLTable.DSN)
}

func (c *Config) validate() error {
	if c.Duration < 0 {
		return fmt.Errorf("duration must be positive")
	}
	if c.MaxConcurrency < 1 {
		return fmt.Errorf("max_concurrency must be at least 1")
	}
	return nil
}
