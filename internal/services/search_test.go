package services

import (
	"context"
	"testing"

	"github.com/asaskevich/EventBus"
	"github.com/jobdeck/jobdeck/internal/entities"
	"github.com/jobdeck/jobdeck/internal/events"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type mockTrackedURLs struct {
	urls map[string]struct{}
}

func (m mockTrackedURLs) TrackedURLs(ctx context.Context, profileID string) (map[string]struct{}, error) {
	if m.urls == nil {
		return map[string]struct{}{}, nil
	}
	return m.urls, nil
}

type mockAdapter struct {
	mock.Mock
}

func (m *mockAdapter) Search(ctx context.Context, profile *entities.Profile,
	platform entities.Platform, creds *CredentialProvider) ([]Posting, error) {
	args := m.Called(ctx, profile, platform, creds)
	postings, _ := args.Get(0).([]Posting)
	return postings, args.Error(1)
}

func searchProfile(platforms ...entities.Platform) *entities.Profile {
	return &entities.Profile{
		ID:        "p1",
		UserID:    "u1",
		AIKeys:    []string{"key"},
		Platforms: platforms,
	}
}

func Test_SearchOrchestrator_WithNoEnabledPlatforms_ShouldFail(t *testing.T) {

	profile := searchProfile(entities.Platform{Name: "hh", Enabled: false, Kind: entities.PlatformAPI})
	orchestrator := NewSearchOrchestrator(EventBus.New(), mockTrackedURLs{}, &mockAdapter{}, &mockAdapter{})

	_, err := orchestrator.Run(context.Background(), profile, NewCredentialProvider(profile, nil))
	assert.ErrorIs(t, err, ErrNoActivePlatforms)
}

func Test_SearchOrchestrator_WithoutCredentials_ShouldFailBeforeAnyPlatform(t *testing.T) {

	adapter := &mockAdapter{}
	profile := searchProfile(entities.Platform{Name: "hh", Enabled: true, Kind: entities.PlatformAPI})
	profile.AIKeys = nil

	orchestrator := NewSearchOrchestrator(EventBus.New(), mockTrackedURLs{}, &mockAdapter{}, adapter)

	_, err := orchestrator.Run(context.Background(), profile, NewCredentialProvider(profile, nil))
	assert.ErrorIs(t, err, ErrNoCredentials)
	adapter.AssertNotCalled(t, "Search", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func Test_SearchOrchestrator_DisabledPlatform_ShouldNeverBeQueried(t *testing.T) {

	scrape := &mockAdapter{}
	api := &mockAdapter{}
	api.On("Search", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return([]Posting{{Title: "dev", Url: "https://hh.ru/1"}}, nil)

	profile := searchProfile(
		entities.Platform{Name: "habr", Enabled: false, Kind: entities.PlatformScrape},
		entities.Platform{Name: "hh", Enabled: true, Kind: entities.PlatformAPI},
	)

	orchestrator := NewSearchOrchestrator(EventBus.New(), mockTrackedURLs{}, scrape, api)

	results, err := orchestrator.Run(context.Background(), profile, NewCredentialProvider(profile, nil))
	assert.NoError(t, err)
	assert.Len(t, results, 1)
	scrape.AssertNotCalled(t, "Search", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func Test_SearchOrchestrator_DuplicateUrlAcrossPlatforms_ShouldKeepFirst(t *testing.T) {

	scrape := &mockAdapter{}
	scrape.On("Search", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return([]Posting{{Title: "Go developer", Company: "first", Url: "https://jobs/1"}}, nil)

	api := &mockAdapter{}
	api.On("Search", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return([]Posting{
			{Title: "Go developer", Company: "second", Url: "https://jobs/1"},
			{Title: "Backend developer", Company: "third", Url: "https://jobs/2"},
		}, nil)

	profile := searchProfile(
		entities.Platform{Name: "habr", Enabled: true, Kind: entities.PlatformScrape},
		entities.Platform{Name: "hh", Enabled: true, Kind: entities.PlatformAPI},
	)

	orchestrator := NewSearchOrchestrator(EventBus.New(), mockTrackedURLs{}, scrape, api)

	results, err := orchestrator.Run(context.Background(), profile, NewCredentialProvider(profile, nil))
	assert.NoError(t, err)
	assert.Len(t, results, 2)
	assert.Equal(t, "first", results[0].Company)
	assert.Equal(t, "third", results[1].Company)
}

func Test_SearchOrchestrator_AlreadyTrackedUrl_ShouldBeDropped(t *testing.T) {

	api := &mockAdapter{}
	api.On("Search", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return([]Posting{
			{Title: "dev", Url: "https://jobs/known"},
			{Title: "dev", Url: "https://jobs/new"},
		}, nil)

	profile := searchProfile(entities.Platform{Name: "hh", Enabled: true, Kind: entities.PlatformAPI})
	tracked := mockTrackedURLs{urls: map[string]struct{}{"https://jobs/known": {}}}

	orchestrator := NewSearchOrchestrator(EventBus.New(), tracked, &mockAdapter{}, api)

	results, err := orchestrator.Run(context.Background(), profile, NewCredentialProvider(profile, nil))
	assert.NoError(t, err)
	assert.Len(t, results, 1)
	assert.Equal(t, "https://jobs/new", results[0].Url)
}

func Test_SearchOrchestrator_LowCompanyRating_ShouldBeFilteredOut(t *testing.T) {

	api := &mockAdapter{}
	api.On("Search", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return([]Posting{
			{Title: "dev", Url: "https://jobs/1", CompanyRating: 2.1},
			{Title: "dev", Url: "https://jobs/2", CompanyRating: 4.8},
			{Title: "dev", Url: "https://jobs/3"}, // rating unknown, kept
		}, nil)

	profile := searchProfile(entities.Platform{Name: "hh", Enabled: true, Kind: entities.PlatformAPI})
	profile.Settings.MinCompanyRating = 4.0

	orchestrator := NewSearchOrchestrator(EventBus.New(), mockTrackedURLs{}, &mockAdapter{}, api)

	results, err := orchestrator.Run(context.Background(), profile, NewCredentialProvider(profile, nil))
	assert.NoError(t, err)
	assert.Len(t, results, 2)
	assert.Equal(t, "https://jobs/2", results[0].Url)
	assert.Equal(t, "https://jobs/3", results[1].Url)
}

func Test_SearchOrchestrator_PlatformFailure_ShouldFailWholeRun(t *testing.T) {

	scrape := &mockAdapter{}
	scrape.On("Search", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil, errors.New("prompt exploded"))

	api := &mockAdapter{}

	profile := searchProfile(
		entities.Platform{Name: "habr", Enabled: true, Kind: entities.PlatformScrape},
		entities.Platform{Name: "hh", Enabled: true, Kind: entities.PlatformAPI},
	)

	orchestrator := NewSearchOrchestrator(EventBus.New(), mockTrackedURLs{}, scrape, api)

	_, err := orchestrator.Run(context.Background(), profile, NewCredentialProvider(profile, nil))
	assert.Error(t, err)
	api.AssertNotCalled(t, "Search", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func Test_SearchOrchestrator_ShouldPublishProgressAfterEveryPlatform(t *testing.T) {

	scrape := &mockAdapter{}
	scrape.On("Search", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return([]Posting{{Title: "dev", Url: "https://jobs/1"}}, nil)

	api := &mockAdapter{}
	api.On("Search", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return([]Posting{{Title: "dev", Url: "https://jobs/2"}}, nil)

	profile := searchProfile(
		entities.Platform{Name: "habr", Enabled: true, Kind: entities.PlatformScrape},
		entities.Platform{Name: "hh", Enabled: true, Kind: entities.PlatformAPI},
	)

	bus := EventBus.New()
	var progress []events.SearchProgress
	err := bus.Subscribe(events.SearchProgressTopic, func(p events.SearchProgress) {
		progress = append(progress, p)
	})
	assert.NoError(t, err)

	orchestrator := NewSearchOrchestrator(bus, mockTrackedURLs{}, scrape, api)

	_, err = orchestrator.Run(context.Background(), profile, NewCredentialProvider(profile, nil))
	assert.NoError(t, err)

	bus.WaitAsync()
	assert.Len(t, progress, 2)
	assert.Equal(t, "habr", progress[0].Platform)
	assert.Len(t, progress[0].Results, 1)
	assert.Equal(t, "hh", progress[1].Platform)
	assert.Len(t, progress[1].Results, 2)
}
