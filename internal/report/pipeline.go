// Trailsentry - CloudTrail Security Analytics and Reporting
// Copyright 2026 KYEOL Security
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/kyeol-sec/trailsentry

package report

import (
	"context"
	"fmt"
	"time"

	"github.com/kyeol-sec/trailsentry/internal/logging"
)

// Notifier is the boundary to the chat notification channel.
type Notifier interface {
	Success(ctx context.Context, summary string, kind Kind, reportURL string, w Window) error
	Failure(ctx context.Context, errText string, kind Kind) error
}

// Pipeline sequences the five report stages: resolve period, execute the
// aggregation query, summarize, persist, notify.
//
// Any stage failure short-circuits to exactly one best-effort failure
// notification, after which the original error is returned to the caller. A
// failure-notification error never masks or replaces the original error.
type Pipeline struct {
	executor   *Executor
	summarizer *Summarizer
	persister  *Persister
	notifier   Notifier
	now        func() time.Time
}

// NewPipeline wires the report stages together.
func NewPipeline(executor *Executor, summarizer *Summarizer, persister *Persister, notifier Notifier) *Pipeline {
	return &Pipeline{
		executor:   executor,
		summarizer: summarizer,
		persister:  persister,
		notifier:   notifier,
		now:        time.Now,
	}
}

// Run generates one report of the given kind.
func (p *Pipeline) Run(ctx context.Context, kind Kind) (Result, error) {
	logging.Info().Str("report_type", string(kind)).Msg("Report generation started")

	result, err := p.run(ctx, kind)
	if err != nil {
		logging.Err(err).Str("report_type", string(kind)).Msg("Report generation failed")

		// Best effort: a notification failure on this path is logged and
		// discarded so it never replaces the original error.
		if nerr := p.notifier.Failure(ctx, err.Error(), kind); nerr != nil {
			logging.Warn().Err(nerr).Msg("Failure notification not delivered")
		}
		return Result{}, err
	}

	logging.Info().
		Str("report_type", string(kind)).
		Str("report_url", result.ReportURL).
		Msg("Report generation finished")
	return result, nil
}

func (p *Pipeline) run(ctx context.Context, kind Kind) (Result, error) {
	window := kind.Window(p.now().UTC())

	agg, err := p.executor.Run(ctx, window)
	if err != nil {
		return Result{}, err
	}
	logging.Debug().Int("rows", len(agg.Rows)).Msg("Aggregation query completed")

	summary, err := p.summarizer.Summarize(ctx, agg, kind, window)
	if err != nil {
		return Result{}, err
	}

	url, err := p.persister.Save(ctx, summary, kind, window)
	if err != nil {
		return Result{}, err
	}

	// An unsent success notification is a pipeline failure; it routes
	// through the failure-notification path like any other stage error.
	if err := p.notifier.Success(ctx, summary, kind, url, window); err != nil {
		return Result{}, fmt.Errorf("success notification failed: %w", err)
	}

	return Result{
		Message:   fmt.Sprintf("%s report generated successfully", kind),
		ReportURL: url,
	}, nil
}
