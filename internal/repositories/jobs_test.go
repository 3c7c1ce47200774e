package repositories

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/asaskevich/EventBus"
	"github.com/jobdeck/jobdeck/internal/entities"
	"github.com/jobdeck/jobdeck/internal/events"
	"github.com/stretchr/testify/assert"
)

func newTestDb(t *testing.T) *DbContext {

	dbContext, err := NewDbContext(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name()))
	assert.NoError(t, err)
	assert.NoError(t, dbContext.Migrate())

	t.Cleanup(func() {
		_ = dbContext.Close()
	})
	return dbContext
}

func testJob(id, profileID, url string) entities.Job {
	return entities.Job{
		ID:        id,
		UserID:    "u1",
		ProfileID: profileID,
		Title:     "Go developer",
		Company:   "Acme",
		Url:       url,
		Status:    entities.StatusNew,
	}
}

func Test_Jobs_TrackAndGetByProfile_ShouldRoundTrip(t *testing.T) {

	dbContext := newTestDb(t)
	repo := NewJobsRepository(dbContext.DB, EventBus.New())

	err := repo.Track(context.Background(), []entities.Job{
		testJob("1", "p1", "https://jobs/1"),
		testJob("2", "p1", "https://jobs/2"),
		testJob("3", "p2", "https://jobs/3"),
	})
	assert.NoError(t, err)

	jobs, err := repo.GetByProfile(context.Background(), "p1")
	assert.NoError(t, err)
	assert.Len(t, jobs, 2)
}

func Test_Jobs_Track_WithDuplicateUrlInProfile_ShouldFailWholeBatch(t *testing.T) {

	dbContext := newTestDb(t)
	repo := NewJobsRepository(dbContext.DB, EventBus.New())

	err := repo.Track(context.Background(), []entities.Job{testJob("1", "p1", "https://jobs/1")})
	assert.NoError(t, err)

	err = repo.Track(context.Background(), []entities.Job{
		testJob("2", "p1", "https://jobs/2"),
		testJob("3", "p1", "https://jobs/1"),
	})
	assert.Error(t, err)

	// transactional batch: the non-duplicate must not slip in either
	jobs, err := repo.GetByProfile(context.Background(), "p1")
	assert.NoError(t, err)
	assert.Len(t, jobs, 1)
}

func Test_Jobs_SameUrlInDifferentProfiles_ShouldBeAllowed(t *testing.T) {

	dbContext := newTestDb(t)
	repo := NewJobsRepository(dbContext.DB, EventBus.New())

	err := repo.Track(context.Background(), []entities.Job{testJob("1", "p1", "https://jobs/1")})
	assert.NoError(t, err)

	err = repo.Track(context.Background(), []entities.Job{testJob("2", "p2", "https://jobs/1")})
	assert.NoError(t, err)
}

func Test_Jobs_UpdateStatus_ShouldPersistStatusAndHistoryTogether(t *testing.T) {

	dbContext := newTestDb(t)
	repo := NewJobsRepository(dbContext.DB, EventBus.New())

	err := repo.Track(context.Background(), []entities.Job{testJob("1", "p1", "https://jobs/1")})
	assert.NoError(t, err)

	interaction := entities.Interaction{
		Type:      entities.InteractionStatusChange,
		Content:   "Статус изменён: Отслеживается",
		CreatedAt: time.Now().UTC(),
	}
	err = repo.UpdateStatus(context.Background(), "1", entities.StatusTracking, interaction)
	assert.NoError(t, err)

	job, err := repo.GetByID(context.Background(), "1")
	assert.NoError(t, err)
	assert.Equal(t, entities.StatusTracking, job.Status)
	assert.Len(t, job.History, 1)
	assert.Equal(t, "Статус изменён: Отслеживается", job.History[0].Content)
}

func Test_Jobs_UpdateStatus_OnMissingJob_ShouldFail(t *testing.T) {

	dbContext := newTestDb(t)
	repo := NewJobsRepository(dbContext.DB, EventBus.New())

	err := repo.UpdateStatus(context.Background(), "ghost", entities.StatusTracking, entities.Interaction{})
	assert.ErrorIs(t, err, ErrJobNotFound)
}

func Test_Jobs_GetByStatuses_ShouldFilterByProfileAndStatus(t *testing.T) {

	dbContext := newTestDb(t)
	repo := NewJobsRepository(dbContext.DB, EventBus.New())

	tracking := testJob("1", "p1", "https://jobs/1")
	tracking.Status = entities.StatusTracking
	archived := testJob("2", "p1", "https://jobs/2")
	archived.Status = entities.StatusArchive
	other := testJob("3", "p2", "https://jobs/3")
	other.Status = entities.StatusTracking

	err := repo.Track(context.Background(), []entities.Job{tracking, archived, other})
	assert.NoError(t, err)

	active, err := repo.GetByStatuses(context.Background(), "p1",
		entities.StatusTracking, entities.StatusInterview)
	assert.NoError(t, err)
	assert.Len(t, active, 1)
	assert.Equal(t, "1", active[0].ID)
}

func Test_Jobs_TrackedURLs_ShouldReturnProfileUrlsOnly(t *testing.T) {

	dbContext := newTestDb(t)
	repo := NewJobsRepository(dbContext.DB, EventBus.New())

	err := repo.Track(context.Background(), []entities.Job{
		testJob("1", "p1", "https://jobs/1"),
		testJob("2", "p2", "https://jobs/2"),
	})
	assert.NoError(t, err)

	urls, err := repo.TrackedURLs(context.Background(), "p1")
	assert.NoError(t, err)
	assert.Len(t, urls, 1)
	_, ok := urls["https://jobs/1"]
	assert.True(t, ok)
}

func Test_Jobs_Mutation_ShouldPublishSnapshot(t *testing.T) {

	dbContext := newTestDb(t)
	bus := EventBus.New()

	var snapshots []events.JobsSnapshot
	err := bus.Subscribe(events.JobsSnapshotTopic, func(snapshot events.JobsSnapshot) {
		snapshots = append(snapshots, snapshot)
	})
	assert.NoError(t, err)

	repo := NewJobsRepository(dbContext.DB, bus)

	err = repo.Track(context.Background(), []entities.Job{testJob("1", "p1", "https://jobs/1")})
	assert.NoError(t, err)

	err = repo.UpdateStatus(context.Background(), "1", entities.StatusTracking, entities.Interaction{
		Type: entities.InteractionStatusChange, Content: "x", CreatedAt: time.Now().UTC(),
	})
	assert.NoError(t, err)

	bus.WaitAsync()
	assert.Len(t, snapshots, 2)
	assert.Equal(t, "p1", snapshots[1].ProfileID)
	assert.Equal(t, entities.StatusTracking, snapshots[1].Jobs[0].Status)
}
