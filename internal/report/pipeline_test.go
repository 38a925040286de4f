// Trailsentry - CloudTrail Security Analytics and Reporting
// Copyright 2026 KYEOL Security
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/kyeol-sec/trailsentry

package report

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

type fakeNotifier struct {
	successCalls int
	successErr   error

	failureCalls int
	failureTexts []string
	failureErr   error
}

func (n *fakeNotifier) Success(_ context.Context, _ string, _ Kind, _ string, _ Window) error {
	n.successCalls++
	return n.successErr
}

func (n *fakeNotifier) Failure(_ context.Context, errText string, _ Kind) error {
	n.failureCalls++
	n.failureTexts = append(n.failureTexts, errText)
	return n.failureErr
}

// newTestPipeline wires real stages over scripted collaborators.
func newTestPipeline(engine *scriptedEngine, model *fakeModel, store *fakeStore, notifier *fakeNotifier) *Pipeline {
	p := NewPipeline(
		NewExecutor(engine, time.Millisecond, 0),
		NewSummarizer(model),
		NewPersister(store, "test-model"),
		notifier,
	)
	p.now = func() time.Time { return time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC) }
	return p
}

func succeedingEngine() *scriptedEngine {
	return &scriptedEngine{
		statuses: []JobStatus{{State: StateSucceeded}},
		results: [][]string{
			{"eventname", "eventsource", "username", "sourceipaddress", "event_count"},
			{"ConsoleLogin", "signin.amazonaws.com", "alice", "1.2.3.4", "7"},
			{"CreateUser", "iam.amazonaws.com", "bob", "5.6.7.8", "3"},
			{"DeleteUser", "iam.amazonaws.com", "bob", "5.6.7.8", "1"},
		},
	}
}

func TestPipelineRun_Success(t *testing.T) {
	engine := succeedingEngine()
	model := &fakeModel{text: strings.Repeat("요", 400)}
	store := &fakeStore{url: "https://example.com/reports/weekly"}
	notifier := &fakeNotifier{}

	result, err := newTestPipeline(engine, model, store, notifier).Run(context.Background(), KindWeekly)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if result.ReportURL != "https://example.com/reports/weekly" {
		t.Errorf("ReportURL = %q", result.ReportURL)
	}
	if result.Message != "weekly report generated successfully" {
		t.Errorf("Message = %q", result.Message)
	}
	if store.putKey != "reports/weekly/2026-03-15.md" {
		t.Errorf("artifact key = %q", store.putKey)
	}
	if notifier.successCalls != 1 {
		t.Errorf("success notifications = %d, want 1", notifier.successCalls)
	}
	if notifier.failureCalls != 0 {
		t.Errorf("failure notifications = %d, want 0", notifier.failureCalls)
	}
}

func TestPipelineRun_QueryFailure(t *testing.T) {
	engine := &scriptedEngine{
		statuses: []JobStatus{{State: StateCancelled, Reason: "timeout"}},
	}
	store := &fakeStore{}
	notifier := &fakeNotifier{}

	_, err := newTestPipeline(engine, &fakeModel{}, store, notifier).Run(context.Background(), KindDaily)
	if err == nil || !strings.Contains(err.Error(), "timeout") {
		t.Fatalf("Run() error = %v, want engine reason preserved", err)
	}

	if notifier.failureCalls != 1 {
		t.Fatalf("failure notifications = %d, want exactly 1", notifier.failureCalls)
	}
	if !strings.Contains(notifier.failureTexts[0], "timeout") {
		t.Errorf("failure notification %q missing reason", notifier.failureTexts[0])
	}
	if notifier.successCalls != 0 {
		t.Error("no success notification expected on failure")
	}
	if store.putKey != "" {
		t.Error("no artifact should be written when the query fails")
	}
}

func TestPipelineRun_SummarizerFailure(t *testing.T) {
	model := &fakeModel{err: errors.New("model unavailable")}
	store := &fakeStore{}
	notifier := &fakeNotifier{}

	_, err := newTestPipeline(succeedingEngine(), model, store, notifier).Run(context.Background(), KindDaily)
	if err == nil || !strings.Contains(err.Error(), "model unavailable") {
		t.Fatalf("Run() error = %v", err)
	}
	if notifier.failureCalls != 1 {
		t.Errorf("failure notifications = %d, want 1", notifier.failureCalls)
	}
	if store.putKey != "" {
		t.Error("no artifact should be written when summarization fails")
	}
}

func TestPipelineRun_SuccessNotificationFailureCompensates(t *testing.T) {
	notifier := &fakeNotifier{successErr: errors.New("webhook down")}
	store := &fakeStore{url: "https://example.com/r"}

	_, err := newTestPipeline(succeedingEngine(), &fakeModel{text: "요약"}, store, notifier).Run(context.Background(), KindDaily)
	if err == nil || !strings.Contains(err.Error(), "webhook down") {
		t.Fatalf("Run() error = %v, want success-notification failure surfaced", err)
	}
	if notifier.failureCalls != 1 {
		t.Errorf("failure notifications = %d, want 1", notifier.failureCalls)
	}
}

func TestPipelineRun_FailureNotificationErrorIsSwallowed(t *testing.T) {
	engine := &scriptedEngine{
		statuses: []JobStatus{{State: StateFailed, Reason: "boom"}},
	}
	notifier := &fakeNotifier{failureErr: errors.New("secondary failure")}

	_, err := newTestPipeline(engine, &fakeModel{}, &fakeStore{}, notifier).Run(context.Background(), KindDaily)
	if err == nil {
		t.Fatal("Run() expected the original error")
	}
	if strings.Contains(err.Error(), "secondary failure") {
		t.Errorf("secondary notification error leaked into %q", err)
	}
	if !strings.Contains(err.Error(), "boom") {
		t.Errorf("original error lost: %q", err)
	}
}
