package services

import (
	"context"
	"fmt"
	"time"

	"github.com/asaskevich/EventBus"
	"github.com/google/uuid"
	"github.com/jobdeck/jobdeck/internal/entities"
	"github.com/jobdeck/jobdeck/internal/events"
	"github.com/jobdeck/jobdeck/internal/logger"
	"github.com/jobdeck/jobdeck/internal/metrics"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// ErrNoActivePlatforms is returned when a profile has no enabled platform.
var ErrNoActivePlatforms = errors.New("profile has no active platforms")

type trackedURLSource interface {
	TrackedURLs(ctx context.Context, profileID string) (map[string]struct{}, error)
}

// SearchOrchestrator runs a multi-platform search for one profile. Platforms
// are visited strictly in configuration order and one at a time: parallel
// scans would burn through AI quota and scramble progress reporting.
type SearchOrchestrator struct {
	bus    EventBus.Bus
	jobs   trackedURLSource
	scrape PlatformAdapter
	api    PlatformAdapter
}

func NewSearchOrchestrator(bus EventBus.Bus, jobs trackedURLSource,
	scrape PlatformAdapter, api PlatformAdapter) *SearchOrchestrator {
	return &SearchOrchestrator{bus: bus, jobs: jobs, scrape: scrape, api: api}
}

// Run fans the search out over the profile's enabled platforms and returns
// the deduplicated result set. One platform failing fails the whole run: a
// mid-run adapter error usually means a broken prompt or credential, which is
// worth surfacing immediately rather than scanning on.
func (o *SearchOrchestrator) Run(ctx context.Context, profile *entities.Profile,
	creds *CredentialProvider) ([]entities.Job, error) {

	platforms := profile.EnabledPlatforms()
	if len(platforms) == 0 {
		return nil, ErrNoActivePlatforms
	}

	if _, err := creds.Current(); err != nil {
		return nil, err
	}

	tracked, err := o.jobs.TrackedURLs(ctx, profile.ID)
	if err != nil {
		log.WithField(logger.ErrorTypeField, logger.ErrorTypeDb).
			Errorf("failed to get tracked urls for profile %v: %v", profile.ID, err)
		return nil, err
	}

	seen := make(map[string]struct{}, len(tracked))
	for url := range tracked {
		seen[url] = struct{}{}
	}

	start := time.Now()
	var results []entities.Job

	for i, platform := range platforms {

		adapter, err := o.adapterFor(platform.Kind)
		if err != nil {
			return nil, err
		}

		platformStart := time.Now()
		postings, err := adapter.Search(ctx, profile, platform, creds)
		metrics.PlatformSearchDuration.WithLabelValues(platform.Name).
			Observe(time.Since(platformStart).Seconds())

		if err != nil {
			log.WithField(logger.ErrorTypeField, logger.ErrorTypeBoardApi).
				Errorf("search failed on platform %v: %v", platform.Name, err)
			return nil, fmt.Errorf("search failed on platform %v: %w", platform.Name, err)
		}

		for _, posting := range postings {
			if _, duplicate := seen[posting.Url]; duplicate {
				metrics.DuplicatePostingsCounter.Inc()
				continue
			}
			// rating 0 means the platform doesn't publish one
			if min := profile.Settings.MinCompanyRating; min > 0 &&
				posting.CompanyRating > 0 && posting.CompanyRating < min {
				continue
			}
			seen[posting.Url] = struct{}{}
			results = append(results, o.newJob(posting, profile, platform))
		}

		metrics.FoundPostingsCounter.Add(float64(len(postings)))
		o.publishProgress(profile.ID, platform.Name, i, len(platforms), results)
	}

	metrics.SearchDuration.Observe(time.Since(start).Seconds())
	log.Infof("search for profile %v finished: %v postings from %v platforms",
		profile.ID, len(results), len(platforms))

	return results, nil
}

func (o *SearchOrchestrator) adapterFor(kind entities.PlatformKind) (PlatformAdapter, error) {
	switch kind {
	case entities.PlatformScrape:
		return o.scrape, nil
	case entities.PlatformAPI:
		return o.api, nil
	default:
		return nil, fmt.Errorf("unknown platform kind %q", kind)
	}
}

func (o *SearchOrchestrator) newJob(posting Posting, profile *entities.Profile,
	platform entities.Platform) entities.Job {

	return entities.Job{
		ID:               uuid.NewString(),
		UserID:           profile.UserID,
		ProfileID:        profile.ID,
		Title:            posting.Title,
		Company:          posting.Company,
		CompanyRating:    posting.CompanyRating,
		CompanyReviews:   posting.CompanyReviews,
		Salary:           posting.Salary,
		Location:         posting.Location,
		Description:      posting.Description,
		Responsibilities: posting.Responsibilities,
		Requirements:     posting.Requirements,
		MatchAnalysis:    posting.MatchAnalysis,
		Platform:         platform.Name,
		Url:              posting.Url,
		ContactEmail:     posting.ContactEmail,
		ContactPhone:     posting.ContactPhone,
		ContactTelegram:  posting.ContactTelegram,
		Status:           entities.StatusNew,
	}
}

// publishProgress exposes the accumulated result set after every platform,
// not only at the end of the run.
func (o *SearchOrchestrator) publishProgress(profileID, platformName string,
	index, total int, results []entities.Job) {

	if o.bus == nil {
		return
	}
	o.bus.Publish(events.SearchProgressTopic, events.SearchProgress{
		ProfileID:     profileID,
		Platform:      platformName,
		PlatformIndex: index,
		PlatformCount: total,
		Results:       append([]entities.Job(nil), results...),
	})
}
