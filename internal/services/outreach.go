package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jobdeck/jobdeck/internal/entities"
	"github.com/jobdeck/jobdeck/internal/logger"
	"github.com/jobdeck/jobdeck/internal/metrics"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// ErrNoContactEmail means the posting carries no address to apply to.
var ErrNoContactEmail = errors.New("job has no contact email")

type mailClient interface {
	ListRecent(ctx context.Context, limit int64) ([]entities.Email, error)
	Send(ctx context.Context, to string, from string, subject string, body string) error
}

type streamingAIClient interface {
	aiClient
	GenerateStream(ctx context.Context, apiKey string, prompt string) (<-chan string, <-chan error)
}

type outreachJobStore interface {
	GetByID(ctx context.Context, jobID string) (*entities.Job, error)
	GetByStatuses(ctx context.Context, profileID string, statuses ...entities.KanbanStatus) ([]entities.Job, error)
	AppendInteraction(ctx context.Context, jobID string, interaction entities.Interaction) error
}

// Outreach covers everything said to an employer: cover letters, quick-apply
// emails, the adapted resume, and reading what the employer wrote back.
type Outreach struct {
	ai         streamingAIClient
	mail       mailClient
	jobs       outreachJobStore
	pipeline   *Pipeline
	classifier *ReplyClassifier
	fromAddr   string
}

func NewOutreach(ai streamingAIClient, mail mailClient, jobs outreachJobStore,
	pipeline *Pipeline, classifier *ReplyClassifier, fromAddr string) *Outreach {
	return &Outreach{
		ai:         ai,
		mail:       mail,
		jobs:       jobs,
		pipeline:   pipeline,
		classifier: classifier,
		fromAddr:   fromAddr,
	}
}

// CoverLetter generates a cover letter for one tracked job.
func (o *Outreach) CoverLetter(ctx context.Context, profile *entities.Profile,
	jobID string, creds *CredentialProvider) (string, error) {

	job, err := o.jobs.GetByID(ctx, jobID)
	if err != nil {
		return "", err
	}

	template := profile.Templates.CoverLetter
	if template == "" {
		template = defaultCoverLetterPrompt
	}
	prompt := renderTemplate(template, map[string]string{
		"resume": profile.Resume,
		"job":    jobText(job),
	})

	var letter string
	err = creds.RotateAndRetry(ctx, func(apiKey string) error {
		var genErr error
		letter, genErr = o.ai.GenerateResponse(ctx, apiKey, prompt)
		return genErr
	})
	if err != nil {
		log.WithField(logger.ErrorTypeField, logger.ErrorTypeAiApi).
			Errorf("cover letter for job %s: %v", jobID, err)
		return "", err
	}
	return letter, nil
}

// QuickApply sends a short generated message to the posting's contact email,
// records the send in the job's history and promotes the job out of "new".
func (o *Outreach) QuickApply(ctx context.Context, profile *entities.Profile,
	jobID string, creds *CredentialProvider) error {

	job, err := o.jobs.GetByID(ctx, jobID)
	if err != nil {
		return err
	}
	if job.ContactEmail == "" {
		return errors.Wrapf(ErrNoContactEmail, "job %v", jobID)
	}

	template := profile.Templates.ShortMessage
	if template == "" {
		template = defaultShortMessagePrompt
	}
	prompt := renderTemplate(template, map[string]string{
		"resume": profile.Resume,
		"job":    jobText(job),
	})

	var message string
	err = creds.RotateAndRetry(ctx, func(apiKey string) error {
		var genErr error
		message, genErr = o.ai.GenerateResponse(ctx, apiKey, prompt)
		return genErr
	})
	if err != nil {
		return err
	}

	subject := "Отклик на вакансию: " + job.Title
	if err := o.mail.Send(ctx, job.ContactEmail, o.fromAddr, subject, message); err != nil {
		log.WithField(logger.ErrorTypeField, logger.ErrorTypeMailApi).
			Errorf("quick apply for job %s: %v", jobID, err)
		return err
	}
	metrics.SentApplicationsCounter.Inc()

	interaction := entities.Interaction{
		Type:      entities.InteractionEmailSent,
		Content:   "Отправлен быстрый отклик на " + job.ContactEmail,
		CreatedAt: time.Now().UTC(),
	}
	if err := o.jobs.AppendInteraction(ctx, jobID, interaction); err != nil {
		log.WithField(logger.ErrorTypeField, logger.ErrorTypeDb).
			Errorf("record quick apply for job %s: %v", jobID, err)
	}

	return o.pipeline.QuickApplyPromote(ctx, jobID)
}

// AdaptResume streams a job-tailored resume. The first value on the text
// channel arrives as soon as the model produces it, so a caller can drop
// its loading state on the first delta.
func (o *Outreach) AdaptResume(ctx context.Context, profile *entities.Profile,
	jobID string, creds *CredentialProvider) (<-chan string, <-chan error, error) {

	job, err := o.jobs.GetByID(ctx, jobID)
	if err != nil {
		return nil, nil, err
	}

	template := profile.Templates.AdaptResume
	if template == "" {
		template = defaultAdaptResumePrompt
	}
	prompt := renderTemplate(template, map[string]string{
		"resume": profile.Resume,
		"job":    jobText(job),
	})

	apiKey, err := creds.Current()
	if err != nil {
		return nil, nil, err
	}

	text, errs := o.ai.GenerateStream(ctx, apiKey, prompt)
	return text, errs, nil
}

// ScanInbox reads recent emails and applies the status each one implies.
// Emails about untracked jobs are skipped; one bad email never stops the
// scan.
func (o *Outreach) ScanInbox(ctx context.Context, profile *entities.Profile,
	creds *CredentialProvider, limit int64) (int, error) {

	emails, err := o.mail.ListRecent(ctx, limit)
	if err != nil {
		log.WithField(logger.ErrorTypeField, logger.ErrorTypeMailApi).
			Errorf("scan inbox: %v", err)
		return 0, err
	}

	tracked, err := o.jobs.GetByStatuses(ctx, profile.ID,
		entities.StatusTracking, entities.StatusInterview, entities.StatusOffer)
	if err != nil {
		return 0, err
	}

	applied := 0
	for _, email := range emails {
		if ctx.Err() != nil {
			return applied, ctx.Err()
		}

		classification, err := o.classifier.Classify(ctx, email, tracked, profile, creds)
		if errors.Is(err, ErrNoMatchingJob) {
			continue
		}
		if err != nil {
			log.WithField(logger.ErrorTypeField, logger.ErrorTypeAiApi).
				Errorf("classify email %s: %v", email.ID, err)
			continue
		}

		err = o.pipeline.SetStatus(ctx, classification.JobID, classification.NewStatus, SourceEmail)
		if err != nil {
			log.WithField(logger.ErrorTypeField, logger.ErrorTypeDb).
				Errorf("apply email status to job %s: %v", classification.JobID, err)
			continue
		}
		applied++
	}

	log.Infof("inbox scan for profile %s: %d emails, %d statuses applied", profile.ID, len(emails), applied)
	return applied, nil
}

func jobText(job *entities.Job) string {
	parts, err := json.Marshal(map[string]any{
		"title":            job.Title,
		"company":          job.Company,
		"description":      job.Description,
		"responsibilities": job.Responsibilities,
		"requirements":     job.Requirements,
	})
	if err != nil {
		return fmt.Sprintf("%s, %s", job.Title, job.Company)
	}
	return string(parts)
}
