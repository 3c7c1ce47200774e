package services

import (
	"context"

	"github.com/jobdeck/jobdeck/internal/entities"
	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"
)

type profileSource interface {
	GetByUser(ctx context.Context, userID string) ([]entities.Profile, error)
	UpdateActiveKeyIndex(ctx context.Context, profileID string, index int) error
}

// Scheduler runs the periodic maintenance pass for every profile of a user
// on a cron schedule: the status sweep, then an inbox scan. A scan limit of
// zero disables the inbox scan.
type Scheduler struct {
	sweep     *StatusSweep
	outreach  *Outreach
	profiles  profileSource
	userID    string
	scanLimit int64
	cron      *cron.Cron
}

func NewScheduler(sweep *StatusSweep, outreach *Outreach, profiles profileSource,
	userID string, schedule string, scanLimit int64) (*Scheduler, error) {

	if schedule == "" {
		return nil, errors.New("maintenance schedule must not be empty")
	}

	s := &Scheduler{
		sweep:     sweep,
		outreach:  outreach,
		profiles:  profiles,
		userID:    userID,
		scanLimit: scanLimit,
		cron:      cron.New(),
	}

	_, err := s.cron.AddFunc(schedule, s.runAll)
	if err != nil {
		return nil, err
	}

	s.cron.Start()
	log.Infof("maintenance scheduler started with schedule %q", schedule)
	return s, nil
}

func (s *Scheduler) Stop() {
	s.cron.Stop()
}

func (s *Scheduler) runAll() {
	ctx := context.Background()

	profiles, err := s.profiles.GetByUser(ctx, s.userID)
	if err != nil {
		log.Errorf("Failed to load profiles for scheduled maintenance: %v", err)
		return
	}

	for i := range profiles {
		profile := &profiles[i]
		creds := NewCredentialProvider(profile, s.profiles)

		if _, err := s.sweep.Run(ctx, profile, creds); err != nil {
			log.Errorf("Scheduled sweep for profile %s failed: %v", profile.ID, err)
		}

		if s.outreach == nil || s.scanLimit <= 0 {
			continue
		}
		applied, err := s.outreach.ScanInbox(ctx, profile, creds, s.scanLimit)
		if err != nil {
			log.Errorf("Scheduled inbox scan for profile %s failed: %v", profile.ID, err)
			continue
		}
		if applied > 0 {
			log.Infof("inbox scan for profile %s applied %d status updates", profile.ID, applied)
		}
	}
}
