package model

import "time"

// RunStatus represents the persistence-level state of an analysis run.
type RunStatus string

const (
	RunStatusQueued   RunStatus = "queued"
	RunStatusRunning  RunStatus = "running"
	RunStatusComplete RunStatus = "complete"
	RunStatusAborted  RunStatus = "aborted"
	RunStatusFailed   RunStatus = "failed"
)

// AnalysisInput describes what the caller supplied for one run.
type AnalysisInput struct {
	ImageName string   `json:"image_name,omitempty"`
	ImageSize int64    `json:"image_size,omitempty"`
	URLs      []string `json:"urls,omitempty"`
}

// HasImage reports whether an image was part of the input.
func (in AnalysisInput) HasImage() bool {
	return in.ImageName != "" || in.ImageSize > 0
}

// Run is the stored record of a single pipeline invocation.
type Run struct {
	ID        string        `json:"id"`
	Input     AnalysisInput `json:"input"`
	Status    RunStatus     `json:"status"`
	Result    *RunResult    `json:"result,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// RunResult holds the final accounting for a run.
type RunResult struct {
	Report       *Report `json:"report"`
	ImageURL     string  `json:"image_url,omitempty"`
	DurationMS   int64   `json:"duration_ms"`
	TotalTokens  int64   `json:"total_tokens"`
	EstimatedUSD float64 `json:"estimated_usd"`
}
