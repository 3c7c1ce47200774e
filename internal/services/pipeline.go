package services

import (
	"context"
	"time"

	"github.com/asaskevich/EventBus"
	"github.com/jobdeck/jobdeck/internal/entities"
	"github.com/jobdeck/jobdeck/internal/events"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// TransitionSource records what drove a status change. Automated sources may
// not move a job out of the archive; a person may.
type TransitionSource string

const (
	SourceManual     TransitionSource = "manual"
	SourceQuickApply TransitionSource = "quick_apply"
	SourceEmail      TransitionSource = "email"
	SourceSweep      TransitionSource = "sweep"
)

// ErrJobArchived is returned when an automated process tries to move an
// archived job.
var ErrJobArchived = errors.New("job is archived")

type pipelineJobStore interface {
	GetByID(ctx context.Context, jobID string) (*entities.Job, error)
	Track(ctx context.Context, jobs []entities.Job) error
	UpdateStatus(ctx context.Context, jobID string, status entities.KanbanStatus,
		interaction entities.Interaction) error
}

// Pipeline owns the kanban lifecycle of tracked jobs: which statuses exist,
// who may move a job between them, and the audit trail every move leaves.
type Pipeline struct {
	jobs pipelineJobStore
	bus  EventBus.Bus
}

func NewPipeline(jobs pipelineJobStore, bus EventBus.Bus) *Pipeline {
	return &Pipeline{jobs: jobs, bus: bus}
}

// Track persists found postings as tracked jobs. Every job enters the board
// in the "new" column with an empty history.
func (p *Pipeline) Track(ctx context.Context, found []entities.Job) error {

	for i := range found {
		found[i].Status = entities.StatusNew
		found[i].History = nil
	}
	return p.jobs.Track(ctx, found)
}

// SetStatus moves a job to a new column and appends exactly one
// status_change entry. Moving to the current status is a silent no-op.
func (p *Pipeline) SetStatus(ctx context.Context, jobID string,
	to entities.KanbanStatus, source TransitionSource) error {

	// coerce before building the history text so the entry names the
	// column the job actually lands in
	to = entities.CoerceStatus(string(to))
	return p.transition(ctx, jobID, to, source, "Статус изменён: "+to.Label())
}

// Archive moves a job to the archive column with the given reason in its
// history entry.
func (p *Pipeline) Archive(ctx context.Context, jobID string, reason string,
	source TransitionSource) error {
	return p.transition(ctx, jobID, entities.StatusArchive, source,
		reason+" Статус изменён: "+entities.StatusArchive.Label())
}

// QuickApplyPromote moves a job from "new" to "tracking" after a successful
// quick-apply. Jobs already past "new" are left where they are.
func (p *Pipeline) QuickApplyPromote(ctx context.Context, jobID string) error {

	job, err := p.jobs.GetByID(ctx, jobID)
	if err != nil {
		return err
	}
	if job.Status != entities.StatusNew {
		return nil
	}
	return p.SetStatus(ctx, jobID, entities.StatusTracking, SourceQuickApply)
}

func (p *Pipeline) transition(ctx context.Context, jobID string,
	to entities.KanbanStatus, source TransitionSource, content string) error {

	job, err := p.jobs.GetByID(ctx, jobID)
	if err != nil {
		return err
	}

	if job.Status == to {
		return nil
	}

	// archive is terminal for automation; only a manual move leaves it
	if job.Status == entities.StatusArchive && source != SourceManual {
		return errors.Wrapf(ErrJobArchived, "job %v", jobID)
	}

	interaction := entities.Interaction{
		Type:      entities.InteractionStatusChange,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}

	if err := p.jobs.UpdateStatus(ctx, jobID, to, interaction); err != nil {
		return err
	}

	log.Infof("job %v moved from %v to %v by %v", jobID, job.Status, to, source)
	if p.bus != nil {
		p.bus.Publish(events.StatusChangedTopic, events.StatusChanged{
			JobID:     jobID,
			ProfileID: job.ProfileID,
			From:      job.Status,
			To:        to,
		})
	}
	return nil
}
