package api

import (
	"context"

	"musicreplacer/internal/media"
	"musicreplacer/internal/overrides"
	"musicreplacer/internal/workpool"
)

// OverrideService is the subset of overrides.Manager the API exposes.
type OverrideService interface {
	Exists(ctx context.Context, name string) bool
	Tracks(ctx context.Context) ([]string, error)
	OverrideExists(ctx context.Context, name string) (bool, error)
	Get(ctx context.Context, name string) (*overrides.TrackOverride, error)
	List(ctx context.Context) ([]*overrides.TrackOverride, error)
	SubmitFromFile(ctx context.Context, name, path string) (string, error)
	CreateFromStream(ctx context.Context, name string, item media.StreamItem) (string, error)
	BulkCreate(ctx context.Context, dir string) (string, error)
	Remove(ctx context.Context, name string) (string, error)
	RemoveAll(ctx context.Context) ([]string, error)
}

// TaskSource reports the state of background tasks.
type TaskSource interface {
	Task(id string) (workpool.Task, bool)
	Tasks() []workpool.Task
}

// CreateRequest is the body of POST /api/overrides. Exactly one of File or
// URL must be set.
type CreateRequest struct {
	Name  string `json:"name"`
	File  string `json:"file,omitempty"`
	URL   string `json:"url,omitempty"`
	Title string `json:"title,omitempty"`
}

// BulkRequest is the body of POST /api/overrides/bulk.
type BulkRequest struct {
	Dir string `json:"dir"`
}

// TrackStatus describes one game track.
type TrackStatus struct {
	Name       string `json:"name"`
	Overridden bool   `json:"overridden"`
}

// Accepted is returned by every mutating route.
type Accepted struct {
	TaskIDs []string `json:"task_ids"`
}
