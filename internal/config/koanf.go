// Trailsentry - CloudTrail Security Analytics and Reporting
// Copyright 2026 KYEOL Security
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/kyeol-sec/trailsentry

package config

import (
	"fmt"
	"strings"

	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// Load builds the configuration from defaults and environment variables.
//
// Environment variables use the flat names the deployment already defines
// (AUDIT_BUCKET, ATHENA_WORKGROUP, ...) and are mapped onto nested koanf
// paths by envTransformFunc.
func Load() (*Config, error) {
	k := koanf.New(".")

	// Layer 1: defaults from struct
	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// Layer 2: environment variables (highest priority)
	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	return cfg, nil
}

// envTransformFunc maps environment variable names to koanf config paths.
//
// Examples:
//   - AUDIT_BUCKET -> buckets.audit
//   - ATHENA_WORKGROUP -> athena.workgroup
//   - QUERY_MAX_WAIT -> athena.max_wait
func envTransformFunc(key string) string {
	envMappings := map[string]string{
		"audit_bucket":  "buckets.audit",
		"report_bucket": "buckets.report",

		"athena_workgroup":    "athena.workgroup",
		"athena_database":     "athena.database",
		"query_poll_interval": "athena.poll_interval",
		"query_max_wait":      "athena.max_wait",

		"bedrock_model_id": "bedrock.model_id",
		"bedrock_region":   "bedrock.region",

		"slack_secret_arn": "slack.secret_arn",
		"slack_channel":    "slack.channel",

		"log_level":  "logging.level",
		"log_format": "logging.format",
	}

	if mapped, ok := envMappings[strings.ToLower(key)]; ok {
		return mapped
	}

	// Unmapped keys are skipped so unrelated environment variables do not
	// pollute the configuration.
	return ""
}
