package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/athena"
	"github.com/aws/aws-sdk-go-v2/service/athena/types"
)

// ErrQueryTimeout is returned when a query does not finish within the
// configured maximum wait.
var ErrQueryTimeout = errors.New("query did not complete before the maximum wait")

// AthenaQueryAPI is the subset of the Athena client the repository needs.
type AthenaQueryAPI interface {
	StartQueryExecution(ctx context.Context, params *athena.StartQueryExecutionInput, optFns ...func(*athena.Options)) (*athena.StartQueryExecutionOutput, error)
	GetQueryExecution(ctx context.Context, params *athena.GetQueryExecutionInput, optFns ...func(*athena.Options)) (*athena.GetQueryExecutionOutput, error)
	GetQueryResults(ctx context.Context, params *athena.GetQueryResultsInput, optFns ...func(*athena.Options)) (*athena.GetQueryResultsOutput, error)
}

// AthenaQueryRepository submits a query, polls its lifecycle
// (QUEUED -> RUNNING -> SUCCEEDED|FAILED|CANCELLED) with exponential
// backoff, and pages through the results.
type AthenaQueryRepository struct {
	logger         *log.Logger
	client         AthenaQueryAPI
	database       string
	outputLocation string
	pollBase       time.Duration
	pollCap        time.Duration
	maxWait        time.Duration
}

func NewAthenaQueryRepository(client AthenaQueryAPI, database string, outputLocation string, maxWait time.Duration, logger *log.Logger) (AthenaQueryRepository, error) {
	if client == nil {
		return AthenaQueryRepository{}, errors.New("athena client nil")
	}
	if database == "" {
		return AthenaQueryRepository{}, errors.New("athena database is empty")
	}
	if outputLocation == "" {
		return AthenaQueryRepository{}, errors.New("athena output location is empty")
	}
	if maxWait <= 0 {
		maxWait = 10 * time.Minute
	}
	return AthenaQueryRepository{
		logger:         logger,
		client:         client,
		database:       database,
		outputLocation: outputLocation,
		pollBase:       time.Second,
		pollCap:        30 * time.Second,
		maxWait:        maxWait,
	}, nil
}

// RunQuery runs the query to completion and returns its records, header
// row first. Missing values come back as empty strings, the way the
// engine renders NULL varchar data.
func (r AthenaQueryRepository) RunQuery(ctx context.Context, query string) ([][]string, error) {
	start, err := r.client.StartQueryExecution(ctx, &athena.StartQueryExecutionInput{
		QueryString: aws.String(query),
		QueryExecutionContext: &types.QueryExecutionContext{
			Database: aws.String(r.database),
		},
		ResultConfiguration: &types.ResultConfiguration{
			OutputLocation: aws.String(r.outputLocation),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("starting query execution: %w", err)
	}
	executionID := start.QueryExecutionId

	if err := r.waitForCompletion(ctx, executionID); err != nil {
		return nil, err
	}
	return r.fetchResults(ctx, executionID)
}

func (r AthenaQueryRepository) waitForCompletion(ctx context.Context, executionID *string) error {
	deadline := time.Now().Add(r.maxWait)
	delay := r.pollBase
	for {
		execution, err := r.client.GetQueryExecution(ctx, &athena.GetQueryExecutionInput{
			QueryExecutionId: executionID,
		})
		if err != nil {
			return fmt.Errorf("polling query execution: %w", err)
		}
		status := execution.QueryExecution.Status
		switch status.State {
		case types.QueryExecutionStateSucceeded:
			return nil
		case types.QueryExecutionStateFailed, types.QueryExecutionStateCancelled:
			reason := ""
			if status.StateChangeReason != nil {
				reason = *status.StateChangeReason
			}
			return fmt.Errorf("query execution %s ended in state %s: %s", aws.ToString(executionID), status.State, reason)
		}

		if time.Now().After(deadline) {
			return fmt.Errorf("query execution %s still %s after %s: %w", aws.ToString(executionID), status.State, r.maxWait, ErrQueryTimeout)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		if delay *= 2; delay > r.pollCap {
			delay = r.pollCap
		}
	}
}

func (r AthenaQueryRepository) fetchResults(ctx context.Context, executionID *string) ([][]string, error) {
	records := make([][]string, 0, 64)
	var nextToken *string
	for {
		page, err := r.client.GetQueryResults(ctx, &athena.GetQueryResultsInput{
			QueryExecutionId: executionID,
			NextToken:        nextToken,
		})
		if err != nil {
			return nil, fmt.Errorf("fetching query results: %w", err)
		}
		for _, row := range page.ResultSet.Rows {
			record := make([]string, len(row.Data))
			for i, datum := range row.Data {
				record[i] = aws.ToString(datum.VarCharValue)
			}
			records = append(records, record)
		}
		if page.NextToken == nil {
			break
		}
		nextToken = page.NextToken
	}
	return records, nil
}
