package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/jobdeck/jobdeck/internal/entities"
	"github.com/jobdeck/jobdeck/internal/metrics"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// ErrNoMatchingJob is the first-class "this email is about none of the
// tracked jobs" outcome. It is not a failure of the classifier.
var ErrNoMatchingJob = errors.New("no matching job for email")

const unknownSentinel = "unknown"

// ReplyClassifier maps an HR email onto a tracked job and the status the
// email implies. Matching and status inference are separate model calls on
// purpose: the match prompt stays small (id/title/company only) and a wrong
// match can't leak into the status answer.
type ReplyClassifier struct {
	ai aiClient
}

func NewReplyClassifier(ai aiClient) *ReplyClassifier {
	return &ReplyClassifier{ai: ai}
}

type Classification struct {
	JobID     string
	NewStatus entities.KanbanStatus
}

func (c *ReplyClassifier) Classify(ctx context.Context, email entities.Email,
	tracked []entities.Job, profile *entities.Profile,
	creds *CredentialProvider) (*Classification, error) {

	if len(tracked) == 0 {
		return nil, ErrNoMatchingJob
	}

	jobID, err := c.matchJob(ctx, email, tracked, profile, creds)
	if err != nil {
		return nil, err
	}

	status, err := c.inferStatus(ctx, email, profile, creds)
	if err != nil {
		return nil, err
	}

	metrics.ClassifiedEmailsCounter.WithLabelValues(string(status)).Inc()
	return &Classification{JobID: jobID, NewStatus: status}, nil
}

func (c *ReplyClassifier) matchJob(ctx context.Context, email entities.Email,
	tracked []entities.Job, profile *entities.Profile,
	creds *CredentialProvider) (string, error) {

	var lines []string
	byID := make(map[string]struct{}, len(tracked))
	for _, job := range tracked {
		lines = append(lines, fmt.Sprintf("%s | %s | %s", job.ID, job.Title, job.Company))
		byID[job.ID] = struct{}{}
	}

	template := profile.Templates.EmailMatch
	if template == "" {
		template = emailMatchPrompt
	}
	prompt := renderTemplate(template, map[string]string{
		"email": emailText(email),
		"jobs":  strings.Join(lines, "\n"),
	})

	var answer string
	err := creds.RotateAndRetry(ctx, func(apiKey string) error {
		var genErr error
		answer, genErr = c.ai.GenerateResponse(ctx, apiKey, prompt)
		return genErr
	})
	if err != nil {
		return "", err
	}

	answer = strings.TrimSpace(strings.Trim(strings.TrimSpace(answer), "\"'`"))
	if strings.EqualFold(answer, unknownSentinel) {
		metrics.ClassifiedEmailsCounter.WithLabelValues("unknown").Inc()
		return "", ErrNoMatchingJob
	}

	// a hallucinated id counts as no match, never as a guess
	if _, ok := byID[answer]; !ok {
		log.Warnf("email matcher returned unknown job id %q", answer)
		return "", ErrNoMatchingJob
	}
	return answer, nil
}

func (c *ReplyClassifier) inferStatus(ctx context.Context, email entities.Email,
	profile *entities.Profile, creds *CredentialProvider) (entities.KanbanStatus, error) {

	template := profile.Templates.HRAnalysis
	if template == "" {
		template = emailStatusPrompt
	}
	prompt := renderTemplate(template, map[string]string{"email": emailText(email)})

	var answer string
	err := creds.RotateAndRetry(ctx, func(apiKey string) error {
		var genErr error
		answer, genErr = c.ai.GenerateResponse(ctx, apiKey, prompt)
		return genErr
	})
	if err != nil {
		return "", err
	}

	return inferredStatus(answer), nil
}

// inferredStatus coerces the model's token into one of the four statuses an
// email may imply; anything else becomes tracking.
func inferredStatus(token string) entities.KanbanStatus {
	switch entities.KanbanStatus(strings.ToLower(strings.TrimSpace(token))) {
	case entities.StatusInterview:
		return entities.StatusInterview
	case entities.StatusOffer:
		return entities.StatusOffer
	case entities.StatusArchive:
		return entities.StatusArchive
	default:
		return entities.StatusTracking
	}
}

func emailText(email entities.Email) string {
	body := email.Body
	if body == "" {
		body = email.Snippet
	}
	return fmt.Sprintf("От: %s Тема: %s Текст: %s", email.From, email.Subject, body)
}
