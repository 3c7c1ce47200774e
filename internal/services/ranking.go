package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/jobdeck/jobdeck/internal/entities"
	"github.com/jobdeck/jobdeck/internal/logger"
	log "github.com/sirupsen/logrus"
)

// RankingEngine annotates found postings with a match explanation. The whole
// candidate set goes to the model in one batch request: per-item calls would
// multiply request volume for no precision gain.
type RankingEngine struct {
	ai aiClient
}

func NewRankingEngine(ai aiClient) *RankingEngine {
	return &RankingEngine{ai: ai}
}

type rankedEntry struct {
	ID            string `json:"id"`
	MatchAnalysis string `json:"matchAnalysis"`
}

// Rank returns the same jobs with MatchAnalysis populated. An empty analysis
// means "not recommended", not an error. A parse failure of the batch reply
// fails the whole step and leaves every posting untouched.
func (r *RankingEngine) Rank(ctx context.Context, jobs []entities.Job,
	profile *entities.Profile, creds *CredentialProvider) ([]entities.Job, error) {

	if len(jobs) == 0 {
		return jobs, nil
	}

	compact, err := compactJobsJSON(jobs)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize candidates: %w", err)
	}

	prompt := renderTemplate(rankPrompt, map[string]string{
		"resume": profile.Resume,
		"wishes": strings.Join(profile.Settings.Keywords, ", "),
		"jobs":   compact,
	})

	var ranked []rankedEntry
	err = creds.RotateAndRetry(ctx, func(apiKey string) error {
		ranked = nil
		return r.ai.GenerateJSON(ctx, apiKey, prompt, &ranked)
	})
	if err != nil {
		log.WithField(logger.ErrorTypeField, logger.ErrorTypeAiApi).
			Errorf("ranking failed for profile %v: %v", profile.ID, err)
		return nil, err
	}

	analyses := make(map[string]string, len(ranked))
	for _, entry := range ranked {
		analyses[entry.ID] = entry.MatchAnalysis
	}

	for i := range jobs {
		if analysis, ok := analyses[jobs[i].ID]; ok {
			jobs[i].MatchAnalysis = analysis
		}
	}
	return jobs, nil
}
