// Trailsentry - CloudTrail Security Analytics and Reporting
// Copyright 2026 KYEOL Security
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/kyeol-sec/trailsentry

package report

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
)

type fakeModel struct {
	prompt    string
	maxTokens int
	text      string
	err       error
}

func (m *fakeModel) Invoke(_ context.Context, prompt string, maxTokens int) (string, error) {
	m.prompt = prompt
	m.maxTokens = maxTokens
	return m.text, m.err
}

func TestBuildPrompt(t *testing.T) {
	w := testWindow()

	t.Run("includes rows, window and period label", func(t *testing.T) {
		agg := Aggregate{Rows: []Row{
			{EventName: "ConsoleLogin", EventSource: "signin.amazonaws.com", UserName: "alice", SourceIP: "1.2.3.4", Count: "9"},
		}}
		prompt := BuildPrompt(agg, KindWeekly, w)

		for _, want := range []string{
			"주간",
			"2026-03-08 00:00 UTC",
			"2026-03-15 00:00 UTC",
			"이벤트: ConsoleLogin",
			"비정상적인 로그인 시도",
			"권한 변경 이벤트",
			"보안 그룹 수정",
			"권장 조치사항",
		} {
			if !strings.Contains(prompt, want) {
				t.Errorf("prompt missing %q", want)
			}
		}
	})

	t.Run("empty aggregate embeds the marker as text", func(t *testing.T) {
		prompt := BuildPrompt(Aggregate{}, KindDaily, w)
		if !strings.Contains(prompt, NoResultsMarker) {
			t.Errorf("prompt missing no-results marker %q", NoResultsMarker)
		}
	})

	t.Run("caps rows at fifty", func(t *testing.T) {
		agg := Aggregate{}
		for i := 0; i < 80; i++ {
			agg.Rows = append(agg.Rows, Row{EventName: fmt.Sprintf("Event%d", i)})
		}
		prompt := BuildPrompt(agg, KindDaily, w)
		if !strings.Contains(prompt, "Event49") {
			t.Error("row 50 should be included")
		}
		if strings.Contains(prompt, "Event50") {
			t.Error("row 51 should be excluded")
		}
	})

	t.Run("deterministic for identical input", func(t *testing.T) {
		agg := Aggregate{Rows: []Row{{EventName: "CreateUser", Count: "1"}}}
		if BuildPrompt(agg, KindMonthly, w) != BuildPrompt(agg, KindMonthly, w) {
			t.Error("prompt is not deterministic")
		}
	})
}

func TestSummarize(t *testing.T) {
	w := testWindow()

	t.Run("invokes model with output budget", func(t *testing.T) {
		model := &fakeModel{text: "요약입니다."}
		got, err := NewSummarizer(model).Summarize(context.Background(), Aggregate{}, KindDaily, w)
		if err != nil {
			t.Fatalf("Summarize() error = %v", err)
		}
		if got != "요약입니다." {
			t.Errorf("Summarize() = %q, want model text", got)
		}
		if model.maxTokens != 2000 {
			t.Errorf("maxTokens = %d, want 2000", model.maxTokens)
		}
	})

	t.Run("model error propagates without retry", func(t *testing.T) {
		model := &fakeModel{err: errors.New("throttled")}
		_, err := NewSummarizer(model).Summarize(context.Background(), Aggregate{}, KindDaily, w)
		if err == nil || !strings.Contains(err.Error(), "throttled") {
			t.Errorf("Summarize() error = %v, want model error propagated", err)
		}
	})

	t.Run("empty model output is an error", func(t *testing.T) {
		model := &fakeModel{text: ""}
		_, err := NewSummarizer(model).Summarize(context.Background(), Aggregate{}, KindDaily, w)
		if err == nil {
			t.Error("Summarize() expected an error for empty model output")
		}
	})
}
