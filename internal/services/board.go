package services

import (
	"sync"

	"github.com/asaskevich/EventBus"
	"github.com/jobdeck/jobdeck/internal/entities"
	"github.com/jobdeck/jobdeck/internal/events"
	log "github.com/sirupsen/logrus"
)

// Board keeps an in-memory view of one profile's kanban columns. Local
// moves apply immediately; whenever the repository publishes a snapshot it
// replaces the whole view, so the store always wins over optimistic state.
type Board struct {
	mu        sync.RWMutex
	bus       EventBus.Bus
	profileID string
	jobs      map[string]entities.Job
}

func NewBoard(bus EventBus.Bus, profileID string) (*Board, error) {
	b := &Board{
		bus:       bus,
		profileID: profileID,
		jobs:      make(map[string]entities.Job),
	}

	if err := bus.Subscribe(events.JobsSnapshotTopic, b.onSnapshot); err != nil {
		return nil, err
	}
	return b, nil
}

func (b *Board) Close() {
	if err := b.bus.Unsubscribe(events.JobsSnapshotTopic, b.onSnapshot); err != nil {
		log.Errorf("board unsubscribe: %v", err)
	}
}

func (b *Board) onSnapshot(snapshot events.JobsSnapshot) {
	if snapshot.ProfileID != b.profileID {
		return
	}

	next := make(map[string]entities.Job, len(snapshot.Jobs))
	for _, job := range snapshot.Jobs {
		next[job.ID] = job
	}

	b.mu.Lock()
	b.jobs = next
	b.mu.Unlock()
}

// ApplyLocal moves a job between columns before the store confirms the
// change. The next snapshot overwrites it either way.
func (b *Board) ApplyLocal(jobID string, status entities.KanbanStatus) {
	b.mu.Lock()
	defer b.mu.Unlock()

	job, ok := b.jobs[jobID]
	if !ok {
		return
	}
	job.Status = status
	b.jobs[jobID] = job
}

// Column returns the jobs currently shown under one status.
func (b *Board) Column(status entities.KanbanStatus) []entities.Job {
	b.mu.RLock()
	defer b.mu.RUnlock()

	var column []entities.Job
	for _, job := range b.jobs {
		if job.Status == status {
			column = append(column, job)
		}
	}
	return column
}

func (b *Board) Job(jobID string) (entities.Job, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	job, ok := b.jobs[jobID]
	return job, ok
}

func (b *Board) Size() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.jobs)
}
