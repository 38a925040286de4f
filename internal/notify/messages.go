// Trailsentry - CloudTrail Security Analytics and Reporting
// Copyright 2026 KYEOL Security
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/kyeol-sec/trailsentry

package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/kyeol-sec/trailsentry/internal/report"
)

// previewLimit caps the summary excerpt embedded in the success message,
// counted in characters so Korean text is not cut mid-rune. Strictly longer
// summaries are cut at the limit and suffixed with "..."; a summary of
// exactly previewLimit characters is sent unchanged.
const previewLimit = 300

// Notifier renders and sends the report pipeline's chat messages.
type Notifier struct {
	sender  Sender
	channel string
	now     func() time.Time
}

// NewNotifier creates a Notifier posting to the given channel.
func NewNotifier(sender Sender, channel string) *Notifier {
	return &Notifier{sender: sender, channel: channel, now: time.Now}
}

// Success sends the report-ready message: header, window and generation-time
// fields, a code-block preview of the summary, and a button linking to the
// stored report.
func (n *Notifier) Success(ctx context.Context, summary string, kind report.Kind, reportURL string, w report.Window) error {
	payload := Payload{
		Channel: n.channel,
		Blocks: []Block{
			{
				Type: "header",
				Text: &TextObject{
					Type:  "plain_text",
					Text:  fmt.Sprintf("📊 KYEOL %s 보안 리포트", kind.Label()),
					Emoji: true,
				},
			},
			{
				Type: "section",
				Fields: []TextObject{
					{Type: "mrkdwn", Text: fmt.Sprintf("*기간*\n%s ~ %s", w.StartDate(), w.EndDate())},
					{Type: "mrkdwn", Text: fmt.Sprintf("*생성 시간*\n%s UTC", n.now().UTC().Format("15:04"))},
				},
			},
			{
				Type: "section",
				Text: &TextObject{
					Type: "mrkdwn",
					Text: fmt.Sprintf("*AI 요약*\n```%s```", Preview(summary)),
				},
			},
			{
				Type: "actions",
				Elements: []Element{
					{
						Type:  "button",
						Text:  &TextObject{Type: "plain_text", Text: "📄 상세 리포트 보기"},
						URL:   reportURL,
						Style: "primary",
					},
				},
			},
		},
	}
	return n.sender.Send(ctx, payload)
}

// Failure sends the compensating notification with the raw error text,
// untruncated. The send error is returned; the pipeline discards it so a
// secondary notification failure never hides the primary error.
func (n *Notifier) Failure(ctx context.Context, errText string, kind report.Kind) error {
	payload := Payload{
		Channel: n.channel,
		Blocks: []Block{
			{
				Type: "header",
				Text: &TextObject{
					Type:  "plain_text",
					Text:  "⚠️ 리포트 생성 오류",
					Emoji: true,
				},
			},
			{
				Type: "section",
				Text: &TextObject{
					Type: "mrkdwn",
					Text: fmt.Sprintf("*%s* 리포트 생성 중 오류가 발생했습니다.\n```%s```", kind, errText),
				},
			},
		},
	}
	return n.sender.Send(ctx, payload)
}

// Preview truncates a summary for the chat message. The full text passes
// through iff it is at most previewLimit characters long.
func Preview(s string) string {
	r := []rune(s)
	if len(r) > previewLimit {
		return string(r[:previewLimit]) + "..."
	}
	return s
}
