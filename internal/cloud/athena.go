// Trailsentry - CloudTrail Security Analytics and Reporting
// Copyright 2026 KYEOL Security
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/kyeol-sec/trailsentry

// Package cloud adapts the AWS services behind the pipeline's interface
// boundaries: Athena (query engine), S3 (object storage), Bedrock (AI
// inference), and Secrets Manager (webhook secret).
package cloud

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/athena"
	"github.com/aws/aws-sdk-go-v2/service/athena/types"

	"github.com/kyeol-sec/trailsentry/internal/report"
)

// AthenaEngine implements report.QueryEngine against an Athena workgroup.
type AthenaEngine struct {
	client    *athena.Client
	database  string
	workgroup string
}

// NewAthenaEngine creates an engine scoped to one database and workgroup.
func NewAthenaEngine(client *athena.Client, database, workgroup string) *AthenaEngine {
	return &AthenaEngine{client: client, database: database, workgroup: workgroup}
}

// Submit starts a query execution and returns its ID.
func (e *AthenaEngine) Submit(ctx context.Context, sql string) (string, error) {
	out, err := e.client.StartQueryExecution(ctx, &athena.StartQueryExecutionInput{
		QueryString: aws.String(sql),
		QueryExecutionContext: &types.QueryExecutionContext{
			Database: aws.String(e.database),
		},
		WorkGroup: aws.String(e.workgroup),
	})
	if err != nil {
		return "", fmt.Errorf("athena start query execution: %w", err)
	}
	return aws.ToString(out.QueryExecutionId), nil
}

// State fetches the current execution state. Queued executions report as
// running; the distinction does not matter to the polling loop.
func (e *AthenaEngine) State(ctx context.Context, id string) (report.JobStatus, error) {
	out, err := e.client.GetQueryExecution(ctx, &athena.GetQueryExecutionInput{
		QueryExecutionId: aws.String(id),
	})
	if err != nil {
		return report.JobStatus{}, fmt.Errorf("athena get query execution: %w", err)
	}
	if out.QueryExecution == nil || out.QueryExecution.Status == nil {
		return report.JobStatus{State: report.StateRunning}, nil
	}

	status := out.QueryExecution.Status
	return report.JobStatus{
		State:  mapState(status.State),
		Reason: aws.ToString(status.StateChangeReason),
	}, nil
}

// Results fetches the result rows as string columns. Athena's first row is
// the column header.
func (e *AthenaEngine) Results(ctx context.Context, id string) ([][]string, error) {
	out, err := e.client.GetQueryResults(ctx, &athena.GetQueryResultsInput{
		QueryExecutionId: aws.String(id),
	})
	if err != nil {
		return nil, fmt.Errorf("athena get query results: %w", err)
	}
	if out.ResultSet == nil {
		return nil, nil
	}

	rows := make([][]string, 0, len(out.ResultSet.Rows))
	for _, row := range out.ResultSet.Rows {
		cols := make([]string, 0, len(row.Data))
		for _, datum := range row.Data {
			cols = append(cols, aws.ToString(datum.VarCharValue))
		}
		rows = append(rows, cols)
	}
	return rows, nil
}

func mapState(s types.QueryExecutionState) report.QueryState {
	switch s {
	case types.QueryExecutionStateSucceeded:
		return report.StateSucceeded
	case types.QueryExecutionStateFailed:
		return report.StateFailed
	case types.QueryExecutionStateCancelled:
		return report.StateCancelled
	default:
		return report.StateRunning
	}
}
