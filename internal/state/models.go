package state

import "time"

// Status describes the lifecycle of a single stage unit.
type Status string

const (
	StatusPending Status = "pending"
	StatusRunning Status = "running"
	StatusDone    Status = "done"
	StatusFailed  Status = "failed"
)

// Unit is one unit of stage work for one version: either a whole-document
// stage (SceneID empty) or one scene of a per-scene stage.
type Unit struct {
	ID           int64
	Version      int
	Stage        string
	SceneID      string
	Status       Status
	Attempts     int
	Artifact     string
	ErrorMessage string
	RunID        string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Key identifies a unit independent of its row id.
type Key struct {
	Version int
	Stage   string
	SceneID string
}
