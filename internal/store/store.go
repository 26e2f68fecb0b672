// Package store persists analysis runs. Two backends exist: SQLite for the
// CLI's local history and Postgres for the served deployment.
package store

import (
	"context"

	"github.com/visionprobe/probe-cli/internal/model"
)

// RunFilter narrows ListRuns results.
type RunFilter struct {
	Status model.RunStatus
	Limit  int
	Offset int
}

// Store persists analysis runs and their results.
type Store interface {
	Migrate(ctx context.Context) error
	Close() error

	CreateRun(ctx context.Context, input model.AnalysisInput) (*model.Run, error)
	UpdateRunStatus(ctx context.Context, runID string, status model.RunStatus) error
	UpdateRunResult(ctx context.Context, runID string, status model.RunStatus, result *model.RunResult) error
	GetRun(ctx context.Context, runID string) (*model.Run, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error)
}
