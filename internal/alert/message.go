// Trailsentry - CloudTrail Security Analytics and Reporting
// Copyright 2026 KYEOL Security
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/kyeol-sec/trailsentry

package alert

import (
	"fmt"
	"time"

	"github.com/goccy/go-json"

	"github.com/kyeol-sec/trailsentry/internal/notify"
)

// Event is the CloudTrail event detail delivered through EventBridge.
type Event struct {
	EventName       string       `json:"eventName"`
	EventTime       string       `json:"eventTime"`
	EventSource     string       `json:"eventSource"`
	AWSRegion       string       `json:"awsRegion"`
	UserIdentity    UserIdentity `json:"userIdentity"`
	SourceIPAddress string       `json:"sourceIPAddress"`
	ErrorCode       string       `json:"errorCode"`
	ErrorMessage    string       `json:"errorMessage"`
}

// UserIdentity identifies the actor behind an audit event.
type UserIdentity struct {
	Type        string `json:"type"`
	UserName    string `json:"userName"`
	PrincipalID string `json:"principalId"`
}

// ParseDetail decodes the EventBridge detail payload. Fields missing from
// the payload stay empty and fall back to "Unknown" at render time.
func ParseDetail(detail []byte) (Event, error) {
	var e Event
	if err := json.Unmarshal(detail, &e); err != nil {
		return Event{}, fmt.Errorf("failed to parse event detail: %w", err)
	}
	return e, nil
}

// errorDetailLimit caps the error message excerpt in the alert, counted in
// characters so multi-byte text is not cut mid-rune.
const errorDetailLimit = 500

// BuildMessage renders the event as a colored Slack attachment message.
func BuildMessage(e Event, channel string) notify.Payload {
	severity, description := Classify(orUnknown(e.EventName))

	status := "✅ 성공"
	color := severity.Color()
	if e.ErrorCode != "" {
		status = fmt.Sprintf("❌ 실패 (%s)", e.ErrorCode)
		color = SeverityHigh.Color()
	}

	blocks := []notify.Block{
		{
			Type: "header",
			Text: &notify.TextObject{
				Type:  "plain_text",
				Text:  fmt.Sprintf("%s ISMS-P 보안 이벤트 감지", severity.Emoji()),
				Emoji: true,
			},
		},
		{
			Type: "section",
			Fields: []notify.TextObject{
				{Type: "mrkdwn", Text: fmt.Sprintf("*이벤트*\n`%s`", orUnknown(e.EventName))},
				{Type: "mrkdwn", Text: fmt.Sprintf("*설명*\n%s", description)},
				{Type: "mrkdwn", Text: fmt.Sprintf("*심각도*\n%s", severity.Label())},
				{Type: "mrkdwn", Text: fmt.Sprintf("*상태*\n%s", status)},
				{Type: "mrkdwn", Text: fmt.Sprintf("*사용자*\n%s", e.actor())},
				{Type: "mrkdwn", Text: fmt.Sprintf("*유형*\n%s", orUnknown(e.UserIdentity.Type))},
				{Type: "mrkdwn", Text: fmt.Sprintf("*소스 IP*\n%s", orUnknown(e.SourceIPAddress))},
				{Type: "mrkdwn", Text: fmt.Sprintf("*리전*\n%s", orUnknown(e.AWSRegion))},
			},
		},
		{
			Type: "context",
			Elements: []notify.Element{
				{
					Type: "mrkdwn",
					Text: &notify.TextObject{
						Type: "mrkdwn",
						Text: fmt.Sprintf("📅 %s | 📡 %s", formatEventTime(e.EventTime), orUnknown(e.EventSource)),
					},
				},
			},
		},
	}

	if e.ErrorMessage != "" {
		detail := []rune(e.ErrorMessage)
		if len(detail) > errorDetailLimit {
			detail = detail[:errorDetailLimit]
		}
		blocks = append(blocks, notify.Block{
			Type: "section",
			Text: &notify.TextObject{
				Type: "mrkdwn",
				Text: fmt.Sprintf("*오류 상세*\n```%s```", string(detail)),
			},
		})
	}

	return notify.Payload{
		Channel: channel,
		Attachments: []notify.Attachment{
			{Color: color, Blocks: blocks},
		},
	}
}

// actor resolves the displayed user: user name, then principal ID, then
// Unknown.
func (e Event) actor() string {
	if e.UserIdentity.UserName != "" {
		return e.UserIdentity.UserName
	}
	if e.UserIdentity.PrincipalID != "" {
		return e.UserIdentity.PrincipalID
	}
	return "Unknown"
}

const eventTimeLayout = "2006-01-02 15:04:05 UTC"

// formatEventTime reformats the event timestamp. An absent timestamp falls
// back to the current time; unparseable input passes through unchanged.
func formatEventTime(eventTime string) string {
	if eventTime == "" {
		return time.Now().UTC().Format(eventTimeLayout)
	}
	t, err := time.Parse(time.RFC3339, eventTime)
	if err != nil {
		return eventTime
	}
	return t.UTC().Format(eventTimeLayout)
}

func orUnknown(s string) string {
	if s == "" {
		return "Unknown"
	}
	return s
}
