package services

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/jobdeck/jobdeck/internal/entities"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type mockAI struct {
	mock.Mock
}

func (m *mockAI) GenerateResponse(ctx context.Context, apiKey string, prompt string) (string, error) {
	args := m.Called(ctx, apiKey, prompt)
	return args.String(0), args.Error(1)
}

func (m *mockAI) GenerateJSON(ctx context.Context, apiKey string, prompt string, out any) error {
	args := m.Called(ctx, apiKey, prompt)
	if args.Error(1) != nil {
		return args.Error(1)
	}
	return json.Unmarshal([]byte(args.String(0)), out)
}

func (m *mockAI) GenerateStream(ctx context.Context, apiKey string, prompt string) (<-chan string, <-chan error) {
	args := m.Called(ctx, apiKey, prompt)
	text := make(chan string)
	errs := make(chan error, 1)
	deltas, _ := args.Get(0).([]string)
	go func() {
		defer close(text)
		defer close(errs)
		for _, delta := range deltas {
			text <- delta
		}
		if err := args.Error(1); err != nil {
			errs <- err
		}
	}()
	return text, errs
}

func rankingProfile() *entities.Profile {
	return &entities.Profile{
		ID:     "p1",
		Resume: "go developer",
		AIKeys: []string{"key"},
		Settings: entities.SearchSettings{
			Keywords: []string{"backend", "remote"},
		},
	}
}

func Test_RankingEngine_ShouldMergeAnalysesById(t *testing.T) {

	ai := &mockAI{}
	ai.On("GenerateJSON", mock.Anything, mock.Anything, mock.Anything).
		Return(`[{"id": "1", "matchAnalysis": "отличное совпадение"}, {"id": "2", "matchAnalysis": ""}]`, nil)

	jobs := []entities.Job{
		{ID: "1", Title: "Go developer"},
		{ID: "2", Title: "PHP developer"},
	}

	profile := rankingProfile()
	ranked, err := NewRankingEngine(ai).Rank(context.Background(), jobs, profile,
		NewCredentialProvider(profile, nil))

	assert.NoError(t, err)
	assert.Equal(t, "отличное совпадение", ranked[0].MatchAnalysis)
	assert.Equal(t, "", ranked[1].MatchAnalysis)
}

func Test_RankingEngine_UnknownIdInReply_ShouldBeIgnored(t *testing.T) {

	ai := &mockAI{}
	ai.On("GenerateJSON", mock.Anything, mock.Anything, mock.Anything).
		Return(`[{"id": "ghost", "matchAnalysis": "придумано"}]`, nil)

	jobs := []entities.Job{{ID: "1", Title: "Go developer"}}

	profile := rankingProfile()
	ranked, err := NewRankingEngine(ai).Rank(context.Background(), jobs, profile,
		NewCredentialProvider(profile, nil))

	assert.NoError(t, err)
	assert.Equal(t, "", ranked[0].MatchAnalysis)
}

func Test_RankingEngine_BatchFailure_ShouldLeaveJobsUntouched(t *testing.T) {

	ai := &mockAI{}
	ai.On("GenerateJSON", mock.Anything, mock.Anything, mock.Anything).
		Return("", errors.New("model unavailable"))

	jobs := []entities.Job{{ID: "1", MatchAnalysis: "старый анализ"}}

	profile := rankingProfile()
	_, err := NewRankingEngine(ai).Rank(context.Background(), jobs, profile,
		NewCredentialProvider(profile, nil))

	assert.Error(t, err)
	assert.Equal(t, "старый анализ", jobs[0].MatchAnalysis)
}

func Test_RankingEngine_WithNoJobs_ShouldSkipModelCall(t *testing.T) {

	ai := &mockAI{}

	profile := rankingProfile()
	ranked, err := NewRankingEngine(ai).Rank(context.Background(), nil, profile,
		NewCredentialProvider(profile, nil))

	assert.NoError(t, err)
	assert.Empty(t, ranked)
	ai.AssertNotCalled(t, "GenerateJSON", mock.Anything, mock.Anything, mock.Anything)
}
