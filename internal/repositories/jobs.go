package repositories

import (
	"context"

	"github.com/asaskevich/EventBus"
	"github.com/jobdeck/jobdeck/internal/entities"
	"github.com/jobdeck/jobdeck/internal/events"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var ErrJobNotFound = errors.New("job not found")

// Jobs stores tracked applications. Every mutation republishes the owner's
// full job set on the bus, which is the live read channel subscribers
// reconcile against.
type Jobs struct {
	db  *gorm.DB
	bus EventBus.Bus
}

func NewJobsRepository(db *gorm.DB, bus EventBus.Bus) *Jobs {
	return &Jobs{db: db, bus: bus}
}

// Track batch-inserts found postings as tracked jobs. The whole batch is one
// transaction: either every posting becomes durable or none does.
func (repo *Jobs) Track(ctx context.Context, jobs []entities.Job) error {

	if len(jobs) == 0 {
		return nil
	}

	err := repo.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(&jobs).Error
	})
	if err != nil {
		return err
	}

	repo.publishSnapshot(ctx, jobs[0].ProfileID)
	return nil
}

func (repo *Jobs) GetByID(ctx context.Context, jobID string) (*entities.Job, error) {

	var job entities.Job
	err := repo.db.WithContext(ctx).Preload("History").First(&job, "id = ?", jobID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrJobNotFound
		}
		return nil, err
	}
	return &job, nil
}

func (repo *Jobs) GetByProfile(ctx context.Context, profileID string) ([]entities.Job, error) {

	var jobs []entities.Job
	err := repo.db.WithContext(ctx).Preload("History").
		Find(&jobs, "profile_id = ?", profileID).Error
	if err != nil {
		return nil, err
	}
	return jobs, nil
}

func (repo *Jobs) GetByStatuses(ctx context.Context, profileID string,
	statuses ...entities.KanbanStatus) ([]entities.Job, error) {

	var jobs []entities.Job
	err := repo.db.WithContext(ctx).
		Find(&jobs, "profile_id = ? AND status IN (?)", profileID, statuses).Error
	if err != nil {
		return nil, err
	}
	return jobs, nil
}

// TrackedURLs returns the URLs of every job tracked for the profile, the
// dedup set for search runs.
func (repo *Jobs) TrackedURLs(ctx context.Context, profileID string) (map[string]struct{}, error) {

	var urls []string
	err := repo.db.WithContext(ctx).Model(&entities.Job{}).
		Where("profile_id = ?", profileID).
		Pluck("url", &urls).Error
	if err != nil {
		return nil, err
	}

	tracked := make(map[string]struct{}, len(urls))
	for _, url := range urls {
		tracked[url] = struct{}{}
	}
	return tracked, nil
}

// UpdateStatus changes the kanban status and appends the history entry in the
// same transaction, so a transition never lands without its audit record.
func (repo *Jobs) UpdateStatus(ctx context.Context, jobID string,
	status entities.KanbanStatus, interaction entities.Interaction) error {

	var profileID string
	err := repo.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {

		var job entities.Job
		if err := tx.Select("id", "profile_id").First(&job, "id = ?", jobID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrJobNotFound
			}
			return err
		}
		profileID = job.ProfileID

		if err := tx.Model(&entities.Job{}).Where("id = ?", jobID).
			Update("status", status).Error; err != nil {
			return err
		}

		interaction.JobID = jobID
		return tx.Create(&interaction).Error
	})
	if err != nil {
		return err
	}

	repo.publishSnapshot(ctx, profileID)
	return nil
}

func (repo *Jobs) AppendInteraction(ctx context.Context, jobID string, interaction entities.Interaction) error {
	interaction.JobID = jobID
	return repo.db.WithContext(ctx).Create(&interaction).Error
}

func (repo *Jobs) UpdateNotes(ctx context.Context, jobID string, notes string) error {
	return repo.db.WithContext(ctx).Model(&entities.Job{}).
		Where("id = ?", jobID).Update("notes", notes).Error
}

func (repo *Jobs) publishSnapshot(ctx context.Context, profileID string) {
	if repo.bus == nil {
		return
	}

	jobs, err := repo.GetByProfile(ctx, profileID)
	if err != nil {
		log.Errorf("failed to build jobs snapshot for profile %v: %v", profileID, err)
		return
	}
	repo.bus.Publish(events.JobsSnapshotTopic, events.JobsSnapshot{ProfileID: profileID, Jobs: jobs})
}
