// Trailsentry - CloudTrail Security Analytics and Reporting
// Copyright 2026 KYEOL Security
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/kyeol-sec/trailsentry

package report

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kyeol-sec/trailsentry/internal/logging"
)

// QueryState is the lifecycle state of a submitted aggregation query.
type QueryState string

const (
	StateRunning   QueryState = "RUNNING"
	StateSucceeded QueryState = "SUCCEEDED"
	StateFailed    QueryState = "FAILED"
	StateCancelled QueryState = "CANCELLED"
)

// Terminal reports whether no further state transition can occur.
func (s QueryState) Terminal() bool {
	switch s {
	case StateSucceeded, StateFailed, StateCancelled:
		return true
	default:
		return false
	}
}

// JobStatus is a point-in-time view of a query job.
type JobStatus struct {
	State QueryState

	// Reason is the engine-provided explanation for FAILED and CANCELLED
	// states.
	Reason string
}

// QueryEngine is the boundary to the aggregation query service.
// Result rows are string columns; the first row is a header row.
type QueryEngine interface {
	Submit(ctx context.Context, sql string) (string, error)
	State(ctx context.Context, id string) (JobStatus, error)
	Results(ctx context.Context, id string) ([][]string, error)
}

// ErrQueryTimeout is returned when a query does not reach a terminal state
// within the executor's maximum wait.
var ErrQueryTimeout = errors.New("query did not reach a terminal state before the wait deadline")

const (
	defaultPollInterval = 2 * time.Second

	// queryRowLimit caps the aggregation result size at the engine.
	queryRowLimit = 100
)

// Executor submits the aggregation query and polls it to completion.
type Executor struct {
	engine   QueryEngine
	interval time.Duration
	maxWait  time.Duration
}

// NewExecutor creates an Executor polling at the given fixed interval with
// the given overall wait bound. A zero interval uses the 2s default; a zero
// maxWait disables the bound entirely.
func NewExecutor(engine QueryEngine, interval, maxWait time.Duration) *Executor {
	if interval <= 0 {
		interval = defaultPollInterval
	}
	return &Executor{engine: engine, interval: interval, maxWait: maxWait}
}

// BuildQuery renders the grouped count query over [w.Start, w.End).
func BuildQuery(w Window) string {
	const timeLayout = "2006-01-02T15:04:05Z"
	return fmt.Sprintf(`SELECT
    eventname,
    eventsource,
    useridentity.username as username,
    sourceipaddress,
    COUNT(*) as event_count
FROM cloudtrail_logs
WHERE eventtime >= '%s'
  AND eventtime < '%s'
GROUP BY eventname, eventsource, useridentity.username, sourceipaddress
ORDER BY event_count DESC
LIMIT %d`,
		w.Start.UTC().Format(timeLayout), w.End.UTC().Format(timeLayout), queryRowLimit)
}

// Run executes the aggregation query for the window and returns the parsed
// aggregate. A FAILED or CANCELLED query fails the stage with the engine's
// reason verbatim; the query is never resubmitted.
func (e *Executor) Run(ctx context.Context, w Window) (Aggregate, error) {
	id, err := e.engine.Submit(ctx, BuildQuery(w))
	if err != nil {
		return Aggregate{}, fmt.Errorf("failed to submit query: %w", err)
	}

	logging.Debug().Str("query_id", id).Msg("Aggregation query submitted")

	var deadline time.Time
	if e.maxWait > 0 {
		deadline = time.Now().Add(e.maxWait)
	}

	for {
		status, err := e.engine.State(ctx, id)
		if err != nil {
			return Aggregate{}, fmt.Errorf("failed to fetch query state: %w", err)
		}

		if status.State == StateSucceeded {
			rows, err := e.engine.Results(ctx, id)
			if err != nil {
				return Aggregate{}, fmt.Errorf("failed to fetch query results: %w", err)
			}
			return parseRows(rows), nil
		}
		if status.State.Terminal() {
			reason := status.Reason
			if reason == "" {
				reason = "Unknown"
			}
			return Aggregate{}, fmt.Errorf("athena query %s: %s", status.State, reason)
		}

		if !deadline.IsZero() && !time.Now().Before(deadline) {
			return Aggregate{}, fmt.Errorf("%w (waited %s)", ErrQueryTimeout, e.maxWait)
		}

		select {
		case <-ctx.Done():
			return Aggregate{}, ctx.Err()
		case <-time.After(e.interval):
		}
	}
}

// parseRows maps raw engine rows to the aggregate. The first row is a
// header and is discarded; each data row's five positional columns map to
// Row fields in order. Missing columns map to empty strings.
func parseRows(raw [][]string) Aggregate {
	if len(raw) <= 1 {
		return Aggregate{}
	}
	rows := make([]Row, 0, len(raw)-1)
	for _, r := range raw[1:] {
		rows = append(rows, Row{
			EventName:   column(r, 0),
			EventSource: column(r, 1),
			UserName:    column(r, 2),
			SourceIP:    column(r, 3),
			Count:       column(r, 4),
		})
	}
	return Aggregate{Rows: rows}
}

func column(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}
