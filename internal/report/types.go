// Trailsentry - CloudTrail Security Analytics and Reporting
// Copyright 2026 KYEOL Security
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/kyeol-sec/trailsentry

// Package report implements the periodic security report pipeline:
// resolve period, run the CloudTrail aggregation query, summarize the
// aggregate with an AI model, persist the report to object storage, and
// notify the security channel.
//
// Each invocation is a single sequential flow. Nothing survives past one
// invocation except the stored report artifact.
package report

import (
	"fmt"
	"strings"
	"time"
)

// Kind identifies the report period.
type Kind string

const (
	KindDaily   Kind = "daily"
	KindWeekly  Kind = "weekly"
	KindMonthly Kind = "monthly"
)

// ParseKind maps an invocation input to a Kind. Empty or unrecognized
// values resolve to daily; this is a documented fallback, not an error.
func ParseKind(s string) Kind {
	switch Kind(s) {
	case KindDaily, KindWeekly, KindMonthly:
		return Kind(s)
	default:
		return KindDaily
	}
}

// Duration returns the length of the analysis window for the kind.
// Unknown kinds use the daily duration.
func (k Kind) Duration() time.Duration {
	switch k {
	case KindWeekly:
		return 7 * 24 * time.Hour
	case KindMonthly:
		return 30 * 24 * time.Hour
	default:
		return 24 * time.Hour
	}
}

// Label returns the Korean period label used in report titles and prompts.
func (k Kind) Label() string {
	switch k {
	case KindWeekly:
		return "주간"
	case KindMonthly:
		return "월간"
	default:
		return "일간"
	}
}

// Window is the concrete time range a report covers. End is always the
// resolution instant; Start is End minus the kind's duration.
type Window struct {
	Start time.Time
	End   time.Time
}

// Window resolves the analysis window ending at now.
func (k Kind) Window(now time.Time) Window {
	return Window{Start: now.Add(-k.Duration()), End: now}
}

// StartDate and EndDate format the window bounds as UTC calendar dates.
func (w Window) StartDate() string { return w.Start.UTC().Format("2006-01-02") }
func (w Window) EndDate() string   { return w.End.UTC().Format("2006-01-02") }

// Row is one aggregate row from the audit-event query. Count stays a string
// because the query engine returns all columns as varchar.
type Row struct {
	EventName   string
	EventSource string
	UserName    string
	SourceIP    string
	Count       string
}

// Line renders the row as one human-readable summary line.
func (r Row) Line() string {
	return fmt.Sprintf("이벤트: %s, 소스: %s, 사용자: %s, IP: %s, 횟수: %s",
		r.EventName, r.EventSource, r.UserName, r.SourceIP, r.Count)
}

// NoResultsMarker is the sentinel text passed to the summarizer when the
// aggregation query returned no data rows. It is a valid non-failure
// outcome, not structured data.
const NoResultsMarker = "쿼리 결과가 없습니다."

// Aggregate is the ordered result of the aggregation query. Row order is the
// engine's order: descending by count, ties in the engine's stable native
// order.
type Aggregate struct {
	Rows []Row
}

// Lines renders up to max rows, one line each, joined with newlines. An
// empty aggregate renders as NoResultsMarker.
func (a Aggregate) Lines(max int) string {
	if len(a.Rows) == 0 {
		return NoResultsMarker
	}
	rows := a.Rows
	if len(rows) > max {
		rows = rows[:max]
	}
	lines := make([]string, 0, len(rows))
	for _, r := range rows {
		lines = append(lines, r.Line())
	}
	return strings.Join(lines, "\n")
}

// Result is the successful invocation output.
type Result struct {
	Message   string `json:"message"`
	ReportURL string `json:"report_url"`
}
