// Trailsentry - CloudTrail Security Analytics and Reporting
// Copyright 2026 KYEOL Security
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/kyeol-sec/trailsentry

// Package main is the entry point for the realtime security alert Lambda.
//
// EventBridge rules matching sensitive CloudTrail events invoke this
// function; each event becomes one severity-classified Slack message. The
// path is stateless: classify, render, send.
package main

import (
	"context"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"

	"github.com/kyeol-sec/trailsentry/internal/alert"
	"github.com/kyeol-sec/trailsentry/internal/cloud"
	"github.com/kyeol-sec/trailsentry/internal/config"
	"github.com/kyeol-sec/trailsentry/internal/logging"
	"github.com/kyeol-sec/trailsentry/internal/notify"
)

// response mirrors the report Lambda's output shape.
type response struct {
	StatusCode int    `json:"statusCode"`
	Body       string `json:"body"`
}

type handler struct {
	sender  notify.Sender
	channel string
}

// Handle turns one CloudTrail event into one Slack alert. A send failure is
// fatal: an undelivered alert must surface as an invocation error so the
// platform records it.
func (h *handler) Handle(ctx context.Context, event events.CloudWatchEvent) (response, error) {
	e, err := alert.ParseDetail(event.Detail)
	if err != nil {
		logging.Err(err).Msg("Cannot parse security event")
		return response{}, err
	}

	if err := h.sender.Send(ctx, alert.BuildMessage(e, h.channel)); err != nil {
		logging.Err(err).Str("event_name", e.EventName).Msg("Security alert not delivered")
		return response{}, err
	}

	logging.Info().Str("event_name", e.EventName).Msg("Security alert sent")
	return response{StatusCode: 200, Body: "Alert sent successfully"}, nil
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Cannot load configuration")
	}
	logging.Init(logging.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format})
	if err := cfg.ValidateAlerter(); err != nil {
		logging.Fatal().Err(err).Msg("Invalid configuration")
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background())
	if err != nil {
		logging.Fatal().Err(err).Msg("Cannot load AWS configuration")
	}

	secrets := cloud.NewSecretsSource(secretsmanager.NewFromConfig(awsCfg), cfg.Slack.SecretARN)
	h := &handler{
		sender:  notify.NewWebhookSender(secrets),
		channel: cfg.Slack.Channel,
	}

	lambda.Start(h.Handle)
}
