package hh

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/time/rate"
)

type getVacanciesResponse struct {
	Vacancies []Vacancy `json:"items"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client is the direct-API collaborator for the HeadHunter job board.
// Authenticate must be called before Search when the endpoint requires an
// application token.
type Client struct {
	httpClient  HTTPClient
	rateLimiter *rate.Limiter
	accessToken string
}

func NewClient() *Client {
	return &Client{httpClient: &http.Client{}}
}

func (c *Client) SetHTTPClient(client HTTPClient) {
	c.httpClient = client
}

func (c *Client) SetRateLimit(maxRequestsPerSecond float32) {
	c.rateLimiter = rate.NewLimiter(rate.Limit(maxRequestsPerSecond), 1)
}

// Authenticate exchanges application credentials for an access token
// (client_credentials grant).
func (c *Client) Authenticate(ctx context.Context, clientID, clientSecret string) error {

	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("client_id", clientID)
	form.Set("client_secret", clientSecret)

	req, err := http.NewRequestWithContext(ctx, "POST", "https://api.hh.ru/token",
		strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("error creating token request: %v", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	body, err := c.send(req)
	if err != nil {
		return fmt.Errorf("token exchange failed: %w", err)
	}

	var token tokenResponse
	if err := json.NewDecoder(bytes.NewReader(body)).Decode(&token); err != nil {
		return fmt.Errorf("error decoding token response: %v", err)
	}
	if token.AccessToken == "" {
		return fmt.Errorf("token exchange returned empty access token")
	}

	c.accessToken = token.AccessToken
	return nil
}

func (c *Client) Search(ctx context.Context, parameters SearchParameters) ([]Vacancy, error) {

	if err := parameters.Validate(); err != nil {
		return nil, fmt.Errorf("invalid parameters: %w", err)
	}

	apiURL := "https://api.hh.ru/vacancies"
	params := parameters.ToUrlParams()

	body, err := c.sendRequest(ctx, "GET", apiURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}

	var vacanciesResponse getVacanciesResponse
	if err := json.NewDecoder(bytes.NewReader(body)).Decode(&vacanciesResponse); err != nil {
		return nil, fmt.Errorf("error decoding JSON response: %v", err)
	}

	return vacanciesResponse.Vacancies, nil
}

// GetAreas returns the board's region tree flattened to a list.
func (c *Client) GetAreas(ctx context.Context) ([]Area, error) {

	body, err := c.sendRequest(ctx, "GET", "https://api.hh.ru/areas", nil)
	if err != nil {
		return nil, err
	}

	var tree []area
	if err := json.NewDecoder(bytes.NewReader(body)).Decode(&tree); err != nil {
		return nil, fmt.Errorf("error decoding JSON response: %v", err)
	}

	var allAreas []Area

	var collectAreas func(areas []area)
	collectAreas = func(areas []area) {
		for _, area := range areas {
			allAreas = append(allAreas, Area{ID: area.ID, Name: area.Name})
			collectAreas(area.Areas)
		}
	}
	collectAreas(tree)
	return allAreas, nil
}

func (c *Client) sendRequest(ctx context.Context, method string, url string, body io.Reader) ([]byte, error) {

	if c.rateLimiter != nil {
		err := c.rateLimiter.Wait(ctx)
		if err != nil {
			return nil, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %v", err)
	}
	if c.accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.accessToken)
	}

	return c.send(req)
}

func (c *Client) send(req *http.Request) ([]byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error sending request: %v", err)
	}
	defer resp.Body.Close()

	return c.handleResponse(resp)
}

func (c *Client) handleResponse(resp *http.Response) ([]byte, error) {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading response body: %v", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("request failed with status %v, body: %v", resp.StatusCode, string(body))
	}

	return body, nil
}
