// Trailsentry - CloudTrail Security Analytics and Reporting
// Copyright 2026 KYEOL Security
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/kyeol-sec/trailsentry

package notify

import (
	"context"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/kyeol-sec/trailsentry/internal/report"
)

type captureSender struct {
	payload Payload
	err     error
}

func (s *captureSender) Send(_ context.Context, payload Payload) error {
	s.payload = payload
	return s.err
}

func TestPreview(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantRunes int
		cut       bool
	}{
		{"short passes through", strings.Repeat("a", 50), 50, false},
		{"exactly 300 passes through", strings.Repeat("a", 300), 300, false},
		{"301 is truncated", strings.Repeat("a", 301), 303, true},
		{"400 yields 303", strings.Repeat("a", 400), 303, true},
		{"300 korean characters pass through", strings.Repeat("분", 300), 300, false},
		{"400 korean characters yield 303", strings.Repeat("분", 400), 303, true},
		{"cut at a multi-byte boundary stays valid", strings.Repeat("a", 299) + strings.Repeat("한", 2), 303, true},
		{"empty passes through", "", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Preview(tt.input)
			if n := utf8.RuneCountInString(got); n != tt.wantRunes {
				t.Errorf("Preview() rune count = %d, want %d", n, tt.wantRunes)
			}
			if !utf8.ValidString(got) {
				t.Errorf("Preview() produced invalid UTF-8: %q", got)
			}
			if tt.cut {
				if !strings.HasSuffix(got, "...") {
					t.Error("truncated preview missing ellipsis suffix")
				}
				if strings.TrimSuffix(got, "...") != string([]rune(tt.input)[:300]) {
					t.Error("preview prefix does not match the first 300 characters of the input")
				}
			} else if got != tt.input {
				t.Errorf("Preview() = %q, want input unchanged", got)
			}
		})
	}
}

func testReportWindow() report.Window {
	return report.Window{
		Start: time.Date(2026, 3, 8, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC),
	}
}

func TestNotifierSuccess(t *testing.T) {
	sender := &captureSender{}
	n := NewNotifier(sender, "#kyeol-security-alerts")
	n.now = func() time.Time { return time.Date(2026, 3, 15, 9, 30, 0, 0, time.UTC) }

	summary := strings.Repeat("분", 301) // one character past the preview cap
	err := n.Success(context.Background(), summary, report.KindWeekly, "https://example.com/r", testReportWindow())
	if err != nil {
		t.Fatalf("Success() error = %v", err)
	}

	p := sender.payload
	if p.Channel != "#kyeol-security-alerts" {
		t.Errorf("channel = %q", p.Channel)
	}
	if len(p.Blocks) != 4 {
		t.Fatalf("got %d blocks, want 4", len(p.Blocks))
	}

	if p.Blocks[0].Type != "header" || !strings.Contains(p.Blocks[0].Text.Text, "주간 보안 리포트") {
		t.Errorf("header block = %+v", p.Blocks[0])
	}

	fields := p.Blocks[1].Fields
	if len(fields) != 2 {
		t.Fatalf("got %d fields, want window and generation time", len(fields))
	}
	if !strings.Contains(fields[0].Text, "2026-03-08 ~ 2026-03-15") {
		t.Errorf("window field = %q", fields[0].Text)
	}
	if !strings.Contains(fields[1].Text, "09:30 UTC") {
		t.Errorf("generation time field = %q", fields[1].Text)
	}

	preview := p.Blocks[2].Text.Text
	if !strings.Contains(preview, "```") {
		t.Error("summary preview should be a code block")
	}
	if !strings.Contains(preview, "...") {
		t.Error("long summary should be truncated with an ellipsis")
	}

	button := p.Blocks[3].Elements[0]
	if button.Type != "button" || button.URL != "https://example.com/r" || button.Style != "primary" {
		t.Errorf("action button = %+v", button)
	}
}

func TestNotifierSuccess_ShortSummaryUntruncated(t *testing.T) {
	sender := &captureSender{}
	n := NewNotifier(sender, "#ch")

	if err := n.Success(context.Background(), "짧은 요약", report.KindDaily, "https://e.com", testReportWindow()); err != nil {
		t.Fatalf("Success() error = %v", err)
	}
	if !strings.Contains(sender.payload.Blocks[2].Text.Text, "```짧은 요약```") {
		t.Errorf("short summary should pass through unchanged: %q", sender.payload.Blocks[2].Text.Text)
	}
}

func TestNotifierFailure(t *testing.T) {
	sender := &captureSender{}
	n := NewNotifier(sender, "#ch")

	longErr := strings.Repeat("x", 800)
	if err := n.Failure(context.Background(), longErr, report.KindMonthly); err != nil {
		t.Fatalf("Failure() error = %v", err)
	}

	p := sender.payload
	if p.Blocks[0].Type != "header" || !strings.Contains(p.Blocks[0].Text.Text, "리포트 생성 오류") {
		t.Errorf("header block = %+v", p.Blocks[0])
	}
	body := p.Blocks[1].Text.Text
	if !strings.Contains(body, "*monthly*") {
		t.Errorf("failure body missing kind: %q", body)
	}
	if !strings.Contains(body, longErr) {
		t.Error("failure body must carry the raw error text untruncated")
	}
}

func TestNotifierFailure_SendErrorReturned(t *testing.T) {
	sender := &captureSender{err: context.DeadlineExceeded}
	n := NewNotifier(sender, "#ch")

	if err := n.Failure(context.Background(), "boom", report.KindDaily); err == nil {
		t.Error("Failure() should return the send error for the caller to discard")
	}
}
