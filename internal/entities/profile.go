package entities

import (
	"time"

	"github.com/samber/lo"
)

type PlatformKind string

const (
	// PlatformScrape fetches the platform's search page and extracts postings with AI.
	PlatformScrape PlatformKind = "scrape"
	// PlatformAPI calls the job board's own search API with service credentials.
	PlatformAPI PlatformKind = "api"
)

type Platform struct {
	ID      string       `json:"id"`
	Name    string       `json:"name"`
	Url     string       `json:"url"`
	Enabled bool         `json:"enabled"`
	Kind    PlatformKind `json:"kind"`
}

// PromptTemplates holds the per-profile template strings. Placeholders are
// written as {name} and substituted at call time.
type PromptTemplates struct {
	Search       string `json:"search"`
	AdaptResume  string `json:"adapt_resume"`
	CoverLetter  string `json:"cover_letter"`
	HRAnalysis   string `json:"hr_analysis"`
	ShortMessage string `json:"short_message"`
	EmailMatch   string `json:"email_match"`
}

type SearchSettings struct {
	Positions        []string `json:"positions"`
	SalaryFrom       int      `json:"salary_from"`
	Currency         string   `json:"currency"`
	Location         string   `json:"location"`
	Remote           bool     `json:"remote"`
	Schedules        []string `json:"schedules"`
	Skills           []string `json:"skills"`
	Keywords         []string `json:"keywords"`
	MinCompanyRating float64  `json:"min_company_rating"`
	ResultLimit      int      `json:"result_limit"`
}

type Profile struct {
	ID     string `gorm:"primaryKey"`
	UserID string `gorm:"index"`
	Name   string

	Resume    string
	Templates PromptTemplates `gorm:"serializer:json"`
	Settings  SearchSettings  `gorm:"serializer:json"`
	Platforms []Platform      `gorm:"serializer:json"`

	// AIKeys is the ordered failover pool; ActiveKeyIndex points at the key
	// currently in use. Rotation advances the index modulo pool size.
	AIKeys         []string `gorm:"serializer:json"`
	ActiveKeyIndex int

	BoardClientID     string
	BoardClientSecret string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// ActiveKey returns the current AI key, or false when the pool is empty.
func (p *Profile) ActiveKey() (string, bool) {
	if len(p.AIKeys) == 0 {
		return "", false
	}
	return p.AIKeys[p.ActiveKeyIndex%len(p.AIKeys)], true
}

func (p *Profile) EnabledPlatforms() []Platform {
	return lo.Filter(p.Platforms, func(platform Platform, _ int) bool {
		return platform.Enabled
	})
}
