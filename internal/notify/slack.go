// Trailsentry - CloudTrail Security Analytics and Reporting
// Copyright 2026 KYEOL Security
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/kyeol-sec/trailsentry

// Package notify builds and delivers Slack messages for the report pipeline
// and the realtime alert path.
//
// Messages use Slack's Block Kit structure and are POSTed as JSON to an
// incoming-webhook URL resolved from the secret store at send time.
package notify

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"
)

// Payload is a Slack incoming-webhook message.
type Payload struct {
	Channel     string       `json:"channel,omitempty"`
	Blocks      []Block      `json:"blocks,omitempty"`
	Attachments []Attachment `json:"attachments,omitempty"`
}

// Block is a Slack Block Kit block.
type Block struct {
	Type     string       `json:"type"`
	Text     *TextObject  `json:"text,omitempty"`
	Fields   []TextObject `json:"fields,omitempty"`
	Elements []Element    `json:"elements,omitempty"`
}

// TextObject is a Slack text object (plain_text or mrkdwn).
type TextObject struct {
	Type  string `json:"type"`
	Text  string `json:"text"`
	Emoji bool   `json:"emoji,omitempty"`
}

// Element is a block element, used for action buttons and context lines.
type Element struct {
	Type  string      `json:"type"`
	Text  *TextObject `json:"text,omitempty"`
	URL   string      `json:"url,omitempty"`
	Style string      `json:"style,omitempty"`
}

// MarshalJSON flattens text elements. Context blocks hold bare text objects,
// so a mrkdwn or plain_text element serializes with a string text field; the
// nested-object form is rejected by the webhook as invalid_blocks.
func (e Element) MarshalJSON() ([]byte, error) {
	if e.Type == "mrkdwn" || e.Type == "plain_text" {
		var text string
		if e.Text != nil {
			text = e.Text.Text
		}
		return json.Marshal(TextObject{Type: e.Type, Text: text})
	}
	type element Element
	return json.Marshal(element(e))
}

// Attachment carries a colored sidebar around nested blocks.
type Attachment struct {
	Color  string  `json:"color,omitempty"`
	Blocks []Block `json:"blocks,omitempty"`
}

// SecretsSource resolves the webhook URL from the secret store.
type SecretsSource interface {
	WebhookURL(ctx context.Context) (string, error)
}

// Sender delivers a payload to the chat transport.
type Sender interface {
	Send(ctx context.Context, payload Payload) error
}

// WebhookSender posts payloads to a Slack incoming webhook. The POST runs
// behind a circuit breaker so a dead webhook endpoint fails fast instead of
// holding the invocation for the full HTTP timeout on every call.
type WebhookSender struct {
	secrets SecretsSource
	client  *http.Client
	breaker *gobreaker.CircuitBreaker[any]
}

// NewWebhookSender creates a sender resolving its webhook URL from secrets.
func NewWebhookSender(secrets SecretsSource) *WebhookSender {
	return &WebhookSender{
		secrets: secrets,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		breaker: gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
			Name:    "slack-webhook",
			Timeout: 30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 3
			},
		}),
	}
}

// Send delivers the payload. Any non-2xx response is an error carrying the
// status and a bounded slice of the response body.
func (s *WebhookSender) Send(ctx context.Context, payload Payload) error {
	webhookURL, err := s.secrets.WebhookURL(ctx)
	if err != nil {
		return fmt.Errorf("failed to resolve webhook URL: %w", err)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal slack payload: %w", err)
	}

	_, err = s.breaker.Execute(func() (any, error) {
		return nil, s.post(ctx, webhookURL, body)
	})
	return err
}

func (s *WebhookSender) post(ctx context.Context, url string, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send webhook: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 300 {
		respBody, readErr := io.ReadAll(io.LimitReader(resp.Body, 1024))
		if readErr != nil {
			respBody = []byte("(failed to read response)")
		}
		return fmt.Errorf("slack webhook returned %d: %s", resp.StatusCode, respBody)
	}
	return nil
}
