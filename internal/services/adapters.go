package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jobdeck/jobdeck/internal/clients/hh"
	"github.com/jobdeck/jobdeck/internal/entities"
	"github.com/patrickmn/go-cache"
	"github.com/samber/lo"
)

type aiClient interface {
	GenerateResponse(ctx context.Context, apiKey string, prompt string) (string, error)
	GenerateJSON(ctx context.Context, apiKey string, prompt string, out any) error
}

type pageFetcher interface {
	PageText(ctx context.Context, pageURL string) (string, error)
}

// Posting is the normalized shape every platform adapter produces. The JSON
// tags double as the schema the scrape prompt asks the model to fill.
type Posting struct {
	Title            string   `json:"title"`
	Company          string   `json:"company"`
	CompanyRating    float64  `json:"companyRating"`
	CompanyReviews   string   `json:"companyReviews"`
	Salary           string   `json:"salary"`
	Location         string   `json:"location"`
	Description      string   `json:"description"`
	Responsibilities []string `json:"responsibilities"`
	Requirements     []string `json:"requirements"`
	MatchAnalysis    string   `json:"matchAnalysis"`
	Url              string   `json:"url"`
	ContactEmail     string   `json:"contactEmail"`
	ContactPhone     string   `json:"contactPhone"`
	ContactTelegram  string   `json:"contactTelegram"`
}

// PlatformAdapter turns one configured platform into normalized postings.
// Adapters are stateless per invocation; a failure concerns that platform only.
type PlatformAdapter interface {
	Search(ctx context.Context, profile *entities.Profile, platform entities.Platform,
		creds *CredentialProvider) ([]Posting, error)
}

// ScrapeAdapter fetches the platform's search-results page and has the model
// extract structured postings from the raw markup.
type ScrapeAdapter struct {
	fetcher pageFetcher
	ai      aiClient
}

func NewScrapeAdapter(fetcher pageFetcher, ai aiClient) *ScrapeAdapter {
	return &ScrapeAdapter{fetcher: fetcher, ai: ai}
}

func (a *ScrapeAdapter) Search(ctx context.Context, profile *entities.Profile,
	platform entities.Platform, creds *CredentialProvider) ([]Posting, error) {

	markup, err := a.fetcher.PageText(ctx, platform.Url)
	if err != nil {
		return nil, fmt.Errorf("platform %v: %w", platform.Name, err)
	}

	template := profile.Templates.Search
	if template == "" {
		template = defaultSearchPrompt
	}
	prompt := renderTemplate(template, map[string]string{
		"resume":    profile.Resume,
		"markup":    markup,
		"positions": strings.Join(profile.Settings.Positions, ", "),
		"keywords":  strings.Join(profile.Settings.Keywords, ", "),
	})

	var postings []Posting
	err = creds.RotateAndRetry(ctx, func(apiKey string) error {
		postings = nil
		return a.ai.GenerateJSON(ctx, apiKey, prompt, &postings)
	})
	if err != nil {
		return nil, fmt.Errorf("platform %v: %w", platform.Name, err)
	}

	return lo.Filter(postings, func(p Posting, _ int) bool { return p.Url != "" }), nil
}

type boardClient interface {
	Authenticate(ctx context.Context, clientID, clientSecret string) error
	Search(ctx context.Context, parameters hh.SearchParameters) ([]hh.Vacancy, error)
	GetAreas(ctx context.Context) ([]hh.Area, error)
}

// APIAdapter queries the job board's own search endpoint and maps its native
// schema into postings, defaulting fields the board does not supply.
type APIAdapter struct {
	client boardClient
	areas  *cache.Cache
}

func NewAPIAdapter(client boardClient) *APIAdapter {
	return &APIAdapter{client: client, areas: cache.New(10*time.Minute, 20*time.Minute)}
}

func (a *APIAdapter) Search(ctx context.Context, profile *entities.Profile,
	platform entities.Platform, _ *CredentialProvider) ([]Posting, error) {

	if profile.BoardClientID != "" {
		if err := a.client.Authenticate(ctx, profile.BoardClientID, profile.BoardClientSecret); err != nil {
			return nil, fmt.Errorf("platform %v: %w", platform.Name, err)
		}
	}

	settings := profile.Settings

	areaID, err := a.resolveArea(ctx, settings.Location)
	if err != nil {
		return nil, fmt.Errorf("platform %v: %w", platform.Name, err)
	}

	params := hh.SearchParameters{
		Text:     searchText(settings),
		AreaID:   areaID,
		Salary:   settings.SalaryFrom,
		Currency: settings.Currency,
		PerPage:  resultLimit(settings),
	}
	if settings.Remote {
		params.Schedules = []hh.Schedule{hh.Remote}
	}

	vacancies, err := a.client.Search(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("platform %v: %w", platform.Name, err)
	}

	return lo.Map(vacancies, func(v hh.Vacancy, _ int) Posting { return toPosting(v) }), nil
}

// resolveArea maps the profile's location to the region id the search
// endpoint expects. An unknown location leaves the search unscoped.
func (a *APIAdapter) resolveArea(ctx context.Context, location string) (string, error) {

	if location == "" {
		return "", nil
	}

	key := normalizeAreaName(location)
	if id, found := a.areas.Get(key); found {
		return id.(string), nil
	}

	allAreas, err := a.client.GetAreas(ctx)
	if err != nil {
		return "", err
	}
	for _, area := range allAreas {
		a.areas.SetDefault(normalizeAreaName(area.Name), area.ID)
	}

	if id, found := a.areas.Get(key); found {
		return id.(string), nil
	}
	return "", nil
}

func normalizeAreaName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func toPosting(v hh.Vacancy) Posting {

	posting := Posting{
		Title:            v.Name,
		Company:          v.Employer.Name,
		Location:         v.Area.Name,
		Description:      v.Snippet.Responsibility,
		Url:              v.Url,
		Responsibilities: []string{},
		Requirements:     []string{},
	}
	if v.Snippet.Requirement != "" {
		posting.Requirements = []string{v.Snippet.Requirement}
	}
	if v.Salary != nil {
		posting.Salary = formatSalary(*v.Salary)
	}
	return posting
}

func formatSalary(s hh.Salary) string {
	switch {
	case s.From > 0 && s.To > 0:
		return fmt.Sprintf("%d–%d %s", s.From, s.To, s.Currency)
	case s.From > 0:
		return fmt.Sprintf("от %d %s", s.From, s.Currency)
	case s.To > 0:
		return fmt.Sprintf("до %d %s", s.To, s.Currency)
	}
	return ""
}

func searchText(settings entities.SearchSettings) string {
	if len(settings.Positions) > 0 {
		return strings.Join(settings.Positions, " OR ")
	}
	return strings.Join(settings.Keywords, " ")
}

func resultLimit(settings entities.SearchSettings) int {
	if settings.ResultLimit > 0 && settings.ResultLimit <= 100 {
		return settings.ResultLimit
	}
	return 20
}

func compactJobsJSON(jobs []entities.Job) (string, error) {
	type candidate struct {
		ID          string   `json:"id"`
		Title       string   `json:"title"`
		Company     string   `json:"company"`
		Description string   `json:"description"`
		Requirement []string `json:"requirements,omitempty"`
	}

	candidates := lo.Map(jobs, func(job entities.Job, _ int) candidate {
		return candidate{
			ID:          job.ID,
			Title:       job.Title,
			Company:     job.Company,
			Description: trimRunes(job.Description, 1500),
			Requirement: job.Requirements,
		}
	})

	raw, err := json.Marshal(candidates)
	return string(raw), err
}

func trimRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
