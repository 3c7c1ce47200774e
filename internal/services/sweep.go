package services

import (
	"context"
	"strings"
	"time"

	"github.com/asaskevich/EventBus"
	"github.com/jobdeck/jobdeck/internal/clients/web"
	"github.com/jobdeck/jobdeck/internal/entities"
	"github.com/jobdeck/jobdeck/internal/events"
	"github.com/jobdeck/jobdeck/internal/logger"
	"github.com/jobdeck/jobdeck/internal/metrics"
	"github.com/patrickmn/go-cache"
	log "github.com/sirupsen/logrus"
)

type sweepJobSource interface {
	GetByStatuses(ctx context.Context, profileID string, statuses ...entities.KanbanStatus) ([]entities.Job, error)
}

type SweepResult struct {
	Checked  int
	Archived int
}

// StatusSweep walks the active jobs of a profile and archives the ones whose
// posting is no longer reachable or no longer open. One failed job never
// stops the rest of the sweep.
type StatusSweep struct {
	bus      EventBus.Bus
	jobs     sweepJobSource
	pipeline *Pipeline
	fetcher  pageFetcher
	ai       aiClient
	verdicts *cache.Cache
}

func NewStatusSweep(bus EventBus.Bus, jobs sweepJobSource, pipeline *Pipeline,
	fetcher pageFetcher, ai aiClient, verdictTTL time.Duration) *StatusSweep {
	return &StatusSweep{
		bus:      bus,
		jobs:     jobs,
		pipeline: pipeline,
		fetcher:  fetcher,
		ai:       ai,
		verdicts: cache.New(verdictTTL, 2*verdictTTL),
	}
}

func (s *StatusSweep) Run(ctx context.Context, profile *entities.Profile,
	creds *CredentialProvider) (SweepResult, error) {

	started := time.Now()
	active, err := s.jobs.GetByStatuses(ctx, profile.ID, entities.StatusTracking, entities.StatusInterview)
	if err != nil {
		log.WithField(logger.ErrorTypeField, logger.ErrorTypeDb).
			Errorf("status sweep: load active jobs: %v", err)
		return SweepResult{}, err
	}

	var res SweepResult
	for _, job := range active {
		if ctx.Err() != nil {
			return res, ctx.Err()
		}

		res.Checked++
		closed, err := s.postingClosed(ctx, &job, creds)
		if err != nil {
			log.WithField(logger.ErrorTypeField, logger.ErrorTypeFetch).
				Errorf("status sweep: check job %s: %v", job.ID, err)
			continue
		}

		if closed {
			if err := s.pipeline.Archive(ctx, job.ID, "Вакансия закрыта.", SourceSweep); err != nil {
				log.WithField(logger.ErrorTypeField, logger.ErrorTypeDb).
					Errorf("status sweep: archive job %s: %v", job.ID, err)
				continue
			}
			res.Archived++
			metrics.SweepArchivedCounter.Inc()
		}

		s.bus.Publish(events.SweepProgressTopic, events.SweepProgress{
			ProfileID: profile.ID,
			JobID:     job.ID,
			Message:   sweepMessage(&job, closed),
			Checked:   res.Checked,
			Archived:  res.Archived,
		})
	}

	metrics.SweepDuration.Observe(time.Since(started).Seconds())
	log.Infof("status sweep for profile %s: checked %d, archived %d", profile.ID, res.Checked, res.Archived)
	return res, nil
}

// postingClosed answers whether the job's posting is gone. Verdicts are
// cached by URL so repeated sweeps within the TTL skip the fetch.
func (s *StatusSweep) postingClosed(ctx context.Context, job *entities.Job,
	creds *CredentialProvider) (bool, error) {

	if cached, ok := s.verdicts.Get(job.Url); ok {
		return cached.(bool), nil
	}

	text, err := s.fetcher.PageText(ctx, job.Url)
	if err != nil {
		if web.IsGone(err) {
			s.verdicts.SetDefault(job.Url, true)
			return true, nil
		}
		return false, err
	}

	prompt := renderTemplate(postingAlivePrompt, map[string]string{
		"markup": trimRunes(text, 6000),
	})

	var answer string
	err = creds.RotateAndRetry(ctx, func(apiKey string) error {
		var genErr error
		answer, genErr = s.ai.GenerateResponse(ctx, apiKey, prompt)
		return genErr
	})
	if err != nil {
		return false, err
	}

	closed := strings.EqualFold(strings.TrimSpace(answer), "closed")
	s.verdicts.SetDefault(job.Url, closed)
	return closed, nil
}

func sweepMessage(job *entities.Job, closed bool) string {
	if closed {
		return "Закрыта: " + job.Title
	}
	return "Открыта: " + job.Title
}
