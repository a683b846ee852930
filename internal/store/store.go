// Package store persists DRC reports keyed by project id.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/soc-pilot/drc/internal/result"
)

// ErrNotFound is returned by Get when a project has no report.
var ErrNotFound = errors.New("report not found")

// ReportStore holds the latest report per project. Delete of a missing
// report is not an error.
type ReportStore interface {
	Get(ctx context.Context, projectID string) (*result.DRCResult, error)
	Put(ctx context.Context, projectID string, res *result.DRCResult) error
	Delete(ctx context.Context, projectID string) error
	Close() error
}

func encodeJSON(res *result.DRCResult) ([]byte, error) {
	b, err := json.Marshal(res)
	if err != nil {
		return nil, fmt.Errorf("encode report: %w", err)
	}
	return b, nil
}

func decodeJSON(b []byte) (*result.DRCResult, error) {
	var res result.DRCResult
	if err := json.Unmarshal(b, &res); err != nil {
		return nil, fmt.Errorf("decode report: %w", err)
	}
	return &res, nil
}
