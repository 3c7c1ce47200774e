package services

import (
	"context"
	"testing"

	"github.com/jobdeck/jobdeck/internal/entities"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

var classifierEmail = entities.Email{
	ID:      "m1",
	From:    "hr@acme.ru",
	Subject: "Приглашение на собеседование",
	Body:    "Добрый день! Приглашаем вас на собеседование в четверг.",
}

func classifierProfile() *entities.Profile {
	return &entities.Profile{ID: "p1", AIKeys: []string{"key"}}
}

func trackedJobs() []entities.Job {
	return []entities.Job{
		{ID: "job-1", Title: "Go developer", Company: "Acme"},
		{ID: "job-2", Title: "Backend developer", Company: "Globex"},
	}
}

func Test_ReplyClassifier_ShouldMatchJobAndInferStatus(t *testing.T) {

	ai := &mockAI{}
	ai.On("GenerateResponse", mock.Anything, mock.Anything, mock.Anything).Return("job-1", nil).Once()
	ai.On("GenerateResponse", mock.Anything, mock.Anything, mock.Anything).Return("interview", nil).Once()

	profile := classifierProfile()
	classification, err := NewReplyClassifier(ai).Classify(context.Background(),
		classifierEmail, trackedJobs(), profile, NewCredentialProvider(profile, nil))

	assert.NoError(t, err)
	assert.Equal(t, "job-1", classification.JobID)
	assert.Equal(t, entities.StatusInterview, classification.NewStatus)
}

func Test_ReplyClassifier_UnknownSentinel_ShouldReturnNoMatch(t *testing.T) {

	ai := &mockAI{}
	ai.On("GenerateResponse", mock.Anything, mock.Anything, mock.Anything).Return("unknown", nil).Once()

	profile := classifierProfile()
	_, err := NewReplyClassifier(ai).Classify(context.Background(),
		classifierEmail, trackedJobs(), profile, NewCredentialProvider(profile, nil))

	assert.ErrorIs(t, err, ErrNoMatchingJob)
	ai.AssertNumberOfCalls(t, "GenerateResponse", 1)
}

func Test_ReplyClassifier_HallucinatedJobId_ShouldReturnNoMatch(t *testing.T) {

	ai := &mockAI{}
	ai.On("GenerateResponse", mock.Anything, mock.Anything, mock.Anything).Return("job-999", nil).Once()

	profile := classifierProfile()
	_, err := NewReplyClassifier(ai).Classify(context.Background(),
		classifierEmail, trackedJobs(), profile, NewCredentialProvider(profile, nil))

	assert.ErrorIs(t, err, ErrNoMatchingJob)
	ai.AssertNumberOfCalls(t, "GenerateResponse", 1)
}

func Test_ReplyClassifier_WithNoTrackedJobs_ShouldSkipModelEntirely(t *testing.T) {

	ai := &mockAI{}

	profile := classifierProfile()
	_, err := NewReplyClassifier(ai).Classify(context.Background(),
		classifierEmail, nil, profile, NewCredentialProvider(profile, nil))

	assert.ErrorIs(t, err, ErrNoMatchingJob)
	ai.AssertNotCalled(t, "GenerateResponse", mock.Anything, mock.Anything, mock.Anything)
}

func Test_ReplyClassifier_UnexpectedStatusToken_ShouldFallBackToTracking(t *testing.T) {

	ai := &mockAI{}
	ai.On("GenerateResponse", mock.Anything, mock.Anything, mock.Anything).Return("job-2", nil).Once()
	ai.On("GenerateResponse", mock.Anything, mock.Anything, mock.Anything).Return("возможно собеседование", nil).Once()

	profile := classifierProfile()
	classification, err := NewReplyClassifier(ai).Classify(context.Background(),
		classifierEmail, trackedJobs(), profile, NewCredentialProvider(profile, nil))

	assert.NoError(t, err)
	assert.Equal(t, entities.StatusTracking, classification.NewStatus)
}

func Test_ReplyClassifier_OfferEmail_ShouldReturnOfferStatus(t *testing.T) {

	ai := &mockAI{}
	ai.On("GenerateResponse", mock.Anything, mock.Anything, mock.Anything).Return("job-2", nil).Once()
	ai.On("GenerateResponse", mock.Anything, mock.Anything, mock.Anything).Return("Offer", nil).Once()

	profile := classifierProfile()
	classification, err := NewReplyClassifier(ai).Classify(context.Background(),
		classifierEmail, trackedJobs(), profile, NewCredentialProvider(profile, nil))

	assert.NoError(t, err)
	assert.Equal(t, "job-2", classification.JobID)
	assert.Equal(t, entities.StatusOffer, classification.NewStatus)
}
