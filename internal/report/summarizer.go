// Trailsentry - CloudTrail Security Analytics and Reporting
// Copyright 2026 KYEOL Security
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/kyeol-sec/trailsentry

package report

import (
	"context"
	"fmt"
)

// ModelInvoker is the boundary to the AI inference service.
type ModelInvoker interface {
	Invoke(ctx context.Context, prompt string, maxTokens int) (string, error)
}

const (
	// summaryMaxTokens bounds the model's output length.
	summaryMaxTokens = 2000

	// promptRowLimit caps how many aggregate rows are rendered into the
	// prompt. The query already limits rows at the engine; this is the
	// tighter prompt-side cap.
	promptRowLimit = 50
)

// Summarizer turns an aggregate into a narrative report body via the AI
// model. The prompt is deterministic for a given aggregate and window.
type Summarizer struct {
	model ModelInvoker
}

// NewSummarizer creates a Summarizer backed by the given model.
func NewSummarizer(model ModelInvoker) *Summarizer {
	return &Summarizer{model: model}
}

// BuildPrompt renders the fixed analysis prompt for the aggregate.
func BuildPrompt(agg Aggregate, kind Kind, w Window) string {
	return fmt.Sprintf(`당신은 AWS 보안 분석가입니다. ISMS-P 기준에 따라 CloudTrail 로그를 분석하고 %s 보안 리포트를 작성하세요.

## 분석 기간
- 시작: %s UTC
- 종료: %s UTC

## CloudTrail 로그 요약
%s

## 리포트 형식 (한글로 작성)
1. **주요 이벤트 요약** (3-5줄)
2. **보안 이상 징후** (ISMS-P 관점)
   - 비정상적인 로그인 시도
   - 권한 변경 이벤트
   - 보안 그룹 수정
3. **통계**
   - 총 이벤트 수
   - 상위 이벤트 타입
   - 상위 사용자
4. **권장 조치사항** (있으면)

간결하고 핵심만 포함하세요.`,
		kind.Label(),
		w.Start.UTC().Format("2006-01-02 15:04"),
		w.End.UTC().Format("2006-01-02 15:04"),
		agg.Lines(promptRowLimit))
}

// Summarize invokes the model once with the rendered prompt. Inference
// failures are not retried; they propagate as stage failures.
func (s *Summarizer) Summarize(ctx context.Context, agg Aggregate, kind Kind, w Window) (string, error) {
	text, err := s.model.Invoke(ctx, BuildPrompt(agg, kind, w), summaryMaxTokens)
	if err != nil {
		return "", fmt.Errorf("model invocation failed: %w", err)
	}
	if text == "" {
		return "", fmt.Errorf("model returned an empty summary")
	}
	return text, nil
}
