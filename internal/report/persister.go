// Trailsentry - CloudTrail Security Analytics and Reporting
// Copyright 2026 KYEOL Security
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/kyeol-sec/trailsentry

package report

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// ObjectStore is the boundary to the report storage service.
type ObjectStore interface {
	Put(ctx context.Context, key, body, contentType string) error
	Presign(ctx context.Context, key string, ttl time.Duration) (string, error)
}

// presignTTL is how long the minted report link stays valid.
const presignTTL = 7 * 24 * time.Hour

// ReportKey is the storage key for a report of the given kind ending at end.
// The key is a pure function of (kind, end date), so re-running the pipeline
// for the same window overwrites the previous artifact (last writer wins).
func ReportKey(kind Kind, end time.Time) string {
	return fmt.Sprintf("reports/%s/%s.md", kind, end.UTC().Format("2006-01-02"))
}

// Persister stores report artifacts and mints time-limited access links.
type Persister struct {
	store ObjectStore

	// modelName appears in the report header as the generating model.
	modelName string

	now func() time.Time
}

// NewPersister creates a Persister writing through the given store.
func NewPersister(store ObjectStore, modelName string) *Persister {
	return &Persister{store: store, modelName: modelName, now: time.Now}
}

// Save writes the summary as a dated Markdown artifact and returns a
// presigned URL valid for seven days. Writing to an existing key replaces
// it; callers must not assume report immutability.
func (p *Persister) Save(ctx context.Context, summary string, kind Kind, w Window) (string, error) {
	key := ReportKey(kind, w.End)
	content := renderReport(summary, kind, w, p.modelName, p.now().UTC())

	if err := p.store.Put(ctx, key, content, "text/markdown; charset=utf-8"); err != nil {
		return "", fmt.Errorf("failed to store report %s: %w", key, err)
	}

	url, err := p.store.Presign(ctx, key, presignTTL)
	if err != nil {
		return "", fmt.Errorf("failed to presign report %s: %w", key, err)
	}
	return url, nil
}

// renderReport wraps the summary with the fixed header block and footer
// disclaimer.
func renderReport(summary string, kind Kind, w Window, modelName string, generatedAt time.Time) string {
	return fmt.Sprintf(`# KYEOL %s 보안 리포트

> **생성일**: %s UTC
> **분석 기간**: %s ~ %s
> **AI 모델**: %s

---

%s

---

*이 리포트는 ISMS-P 규정 준수를 위해 자동 생성되었습니다.*
`,
		strings.ToUpper(string(kind)),
		generatedAt.Format("2006-01-02 15:04:05"),
		w.StartDate(), w.EndDate(),
		modelName,
		summary)
}
