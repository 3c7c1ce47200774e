package events

import "github.com/jobdeck/jobdeck/internal/entities"

const (
	SearchProgressTopic = "SearchProgressEvent"
	SweepProgressTopic  = "SweepProgressEvent"
	StatusChangedTopic  = "StatusChangedEvent"
	JobsSnapshotTopic   = "JobsSnapshotEvent"
)

// SearchProgress is published after every platform in a search run, carrying
// the accumulated result set so far.
type SearchProgress struct {
	ProfileID     string
	Platform      string
	PlatformIndex int
	PlatformCount int
	Results       []entities.Job
}

type SweepProgress struct {
	ProfileID string
	JobID     string
	Message   string
	Checked   int
	Archived  int
}

type StatusChanged struct {
	JobID     string
	ProfileID string
	From      entities.KanbanStatus
	To        entities.KanbanStatus
}

// JobsSnapshot mirrors the tracked-jobs store after a mutation. Subscribers
// treat it as the source of truth and reconcile local state against it.
type JobsSnapshot struct {
	ProfileID string
	Jobs      []entities.Job
}
