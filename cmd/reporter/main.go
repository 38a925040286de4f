// Trailsentry - CloudTrail Security Analytics and Reporting
// Copyright 2026 KYEOL Security
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/kyeol-sec/trailsentry

// Package main is the entry point for the periodic report Lambda.
//
// EventBridge schedules invoke this function with a report_type of daily,
// weekly, or monthly. One invocation runs the whole pipeline: Athena
// aggregation over the CloudTrail table, Bedrock summarization, Markdown
// artifact in the report bucket, and a Slack message with a 7-day link.
//
// Configuration comes from the environment: AUDIT_BUCKET, REPORT_BUCKET,
// ATHENA_WORKGROUP, ATHENA_DATABASE, BEDROCK_MODEL_ID, BEDROCK_REGION,
// SLACK_SECRET_ARN, SLACK_CHANNEL, plus optional QUERY_POLL_INTERVAL,
// QUERY_MAX_WAIT, LOG_LEVEL, and LOG_FORMAT.
package main

import (
	"context"

	"github.com/aws/aws-lambda-go/lambda"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/athena"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"

	"github.com/kyeol-sec/trailsentry/internal/cloud"
	"github.com/kyeol-sec/trailsentry/internal/config"
	"github.com/kyeol-sec/trailsentry/internal/logging"
	"github.com/kyeol-sec/trailsentry/internal/notify"
	"github.com/kyeol-sec/trailsentry/internal/report"
)

// request is the invocation input. An absent or unrecognized report_type
// falls back to daily.
type request struct {
	ReportType string `json:"report_type"`
}

// response is the invocation output on success.
type response struct {
	StatusCode int           `json:"statusCode"`
	Body       report.Result `json:"body"`
}

type handler struct {
	pipeline *report.Pipeline
}

// Handle runs one report generation. Errors propagate to the Lambda runtime
// after the pipeline has sent its best-effort failure notification.
func (h *handler) Handle(ctx context.Context, req request) (response, error) {
	result, err := h.pipeline.Run(ctx, report.ParseKind(req.ReportType))
	if err != nil {
		return response{}, err
	}
	return response{StatusCode: 200, Body: result}, nil
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Cannot load configuration")
	}
	logging.Init(logging.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format})
	if err := cfg.ValidateReporter(); err != nil {
		logging.Fatal().Err(err).Msg("Invalid configuration")
	}

	ctx := context.Background()
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		logging.Fatal().Err(err).Msg("Cannot load AWS configuration")
	}
	// Bedrock may live in a different region than the rest of the stack.
	bedrockCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Bedrock.Region))
	if err != nil {
		logging.Fatal().Err(err).Msg("Cannot load Bedrock AWS configuration")
	}

	engine := cloud.NewAthenaEngine(athena.NewFromConfig(awsCfg), cfg.Athena.Database, cfg.Athena.Workgroup)
	store := cloud.NewS3Store(s3.NewFromConfig(awsCfg), cfg.Buckets.Report)
	invoker := cloud.NewBedrockInvoker(bedrockruntime.NewFromConfig(bedrockCfg), cfg.Bedrock.ModelID)
	secrets := cloud.NewSecretsSource(secretsmanager.NewFromConfig(awsCfg), cfg.Slack.SecretARN)

	pipeline := report.NewPipeline(
		report.NewExecutor(engine, cfg.Athena.PollInterval, cfg.Athena.MaxWait),
		report.NewSummarizer(invoker),
		report.NewPersister(store, cfg.Bedrock.ModelID),
		notify.NewNotifier(notify.NewWebhookSender(secrets), cfg.Slack.Channel),
	)

	lambda.Start((&handler{pipeline: pipeline}).Handle)
}
