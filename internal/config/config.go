// Trailsentry - CloudTrail Security Analytics and Reporting
// Copyright 2026 KYEOL Security
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/kyeol-sec/trailsentry

// Package config loads Lambda configuration from environment variables.
//
// Configuration is loaded via Koanf v2 with layered sources (highest priority
// wins): environment variables over built-in defaults. Lambda functions have
// no config file, so the env layer is the only external source.
package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// Config holds all settings for the Trailsentry Lambda functions.
type Config struct {
	Buckets BucketConfig  `koanf:"buckets"`
	Athena  AthenaConfig  `koanf:"athena"`
	Bedrock BedrockConfig `koanf:"bedrock"`
	Slack   SlackConfig   `koanf:"slack"`
	Logging LoggingConfig `koanf:"logging"`
}

// BucketConfig names the S3 buckets involved in report generation.
type BucketConfig struct {
	// Audit is the bucket holding CloudTrail logs queried by Athena.
	Audit string `koanf:"audit" validate:"required"`

	// Report is the bucket receiving generated Markdown reports.
	Report string `koanf:"report" validate:"required"`
}

// AthenaConfig controls the aggregation query execution.
type AthenaConfig struct {
	Workgroup string `koanf:"workgroup" validate:"required"`
	Database  string `koanf:"database" validate:"required"`

	// PollInterval is the fixed delay between query state checks.
	PollInterval time.Duration `koanf:"poll_interval"`

	// MaxWait bounds the total time spent waiting for a query to reach a
	// terminal state. Zero disables the bound.
	MaxWait time.Duration `koanf:"max_wait"`
}

// BedrockConfig identifies the AI model used for report summaries.
type BedrockConfig struct {
	ModelID string `koanf:"model_id" validate:"required"`
	Region  string `koanf:"region" validate:"required"`
}

// SlackConfig controls chat notifications.
type SlackConfig struct {
	// SecretARN identifies the Secrets Manager secret holding the webhook URL.
	SecretARN string `koanf:"secret_arn" validate:"required"`

	// Channel is the target Slack channel name.
	Channel string `koanf:"channel" validate:"required"`
}

// LoggingConfig configures the global logger.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// defaultConfig returns a Config with all default values. Defaults are
// applied first, then overridden by environment variables.
func defaultConfig() *Config {
	return &Config{
		Athena: AthenaConfig{
			PollInterval: 2 * time.Second,
			MaxWait:      10 * time.Minute,
		},
		Bedrock: BedrockConfig{
			Region: "us-east-1",
		},
		Slack: SlackConfig{
			Channel: "#kyeol-security-alerts",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// ValidateReporter checks that every setting required by the report
// generation Lambda is present.
func (c *Config) ValidateReporter() error {
	for name, section := range map[string]any{
		"buckets": c.Buckets,
		"athena":  c.Athena,
		"bedrock": c.Bedrock,
		"slack":   c.Slack,
	} {
		if err := validate.Struct(section); err != nil {
			return fmt.Errorf("invalid %s configuration: %w", name, err)
		}
	}
	if c.Athena.PollInterval <= 0 {
		return fmt.Errorf("QUERY_POLL_INTERVAL must be positive")
	}
	if c.Athena.MaxWait < 0 {
		return fmt.Errorf("QUERY_MAX_WAIT must not be negative")
	}
	return nil
}

// ValidateAlerter checks that every setting required by the realtime alert
// Lambda is present. The alert path only talks to Slack.
func (c *Config) ValidateAlerter() error {
	if err := validate.Struct(c.Slack); err != nil {
		return fmt.Errorf("invalid slack configuration: %w", err)
	}
	return nil
}
