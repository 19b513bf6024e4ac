// Package store journals discovery results. The discovery pipeline never
// reads from it; the CLI and HTTP API record runs after the fact.
package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"

	"github.com/aeolive/competitor-cli/internal/model"
)

// ErrNotFound is returned when a run ID does not exist.
var ErrNotFound = eris.New("store: run not found")

// RunFilter specifies criteria for listing runs.
type RunFilter struct {
	Status   model.DiscoveryStatus `json:"status,omitempty"`
	Industry string                `json:"industry,omitempty"`
	Limit    int                   `json:"limit,omitempty"`
	Offset   int                   `json:"offset,omitempty"`
}

func (f RunFilter) limit() int {
	if f.Limit <= 0 || f.Limit > 1000 {
		return 100
	}
	return f.Limit
}

// Store persists discovery runs.
type Store interface {
	RecordRun(ctx context.Context, res *model.DiscoveryResult) (*model.Run, error)
	GetRun(ctx context.Context, runID string) (*model.Run, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error)

	Migrate(ctx context.Context) error
	Close() error
}

// Open returns the journal for driver. The "none" driver yields a nil Store
// and no error.
func Open(ctx context.Context, driver, databaseURL string) (Store, error) {
	switch driver {
	case "", "none":
		return nil, nil
	case "sqlite":
		st, err := NewSQLite(databaseURL)
		if err != nil {
			return nil, err
		}
		return st, nil
	case "postgres":
		st, err := NewPostgres(ctx, databaseURL)
		if err != nil {
			return nil, err
		}
		return st, nil
	default:
		return nil, eris.Errorf("store: unknown driver %q", driver)
	}
}

// newRun builds the row for a result and its JSON encoding.
func newRun(res *model.DiscoveryResult) (*model.Run, []byte, error) {
	if res == nil {
		return nil, nil, eris.New("store: nil result")
	}
	data, err := json.Marshal(res)
	if err != nil {
		return nil, nil, eris.Wrap(err, "store: marshal result")
	}
	created := res.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	return &model.Run{
		ID:        uuid.New().String(),
		Domain:    res.Domain,
		Industry:  res.Classification.Industry,
		Status:    res.Status,
		Source:    string(res.Source),
		Result:    res,
		CreatedAt: created.UTC(),
	}, data, nil
}

func decodeResult(data []byte) (*model.DiscoveryResult, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var res model.DiscoveryResult
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, eris.Wrap(err, "store: unmarshal result")
	}
	return &res, nil
}
