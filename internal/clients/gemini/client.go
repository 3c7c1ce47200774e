package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

type Model string

const (
	//Model15Flash is fastest multimodal model with great performance for diverse, repetitive tasks
	Model15Flash Model = "gemini-1.5-flash"
	//Model15Flash8b is the smallest model for lower intelligence use cases
	Model15Flash8b Model = "gemini-1.5-flash-8b"
	//Model15Pro is next-generation model with a breakthrough 2 million context window
	Model15Pro Model = "gemini-1.5-pro"
)

// ErrQuotaExceeded signals per-key quota exhaustion. It is the only condition
// that should trigger key rotation and a caller-level retry.
var ErrQuotaExceeded = errors.New("ai provider quota exceeded")

// Client talks to the Gemini API. The API key is supplied per call so the
// credential pool can rotate keys without rebuilding the client; the rate
// limiters are shared across keys on purpose.
type Client struct {
	model             Model
	minuteRateLimiter *rate.Limiter
	dayRateLimiter    *rate.Limiter
}

func NewClient(model Model) *Client {
	return &Client{model: model}
}

func (c *Client) SetMinuteRateLimit(maxRequestsPerMinute float32) {
	c.minuteRateLimiter = rate.NewLimiter(rate.Limit(maxRequestsPerMinute/60), 1)
}

func (c *Client) SetDayRateLimit(maxRequestsPerDay float32) {
	c.dayRateLimiter = rate.NewLimiter(rate.Limit(maxRequestsPerDay/86400), int(maxRequestsPerDay))
}

// GenerateResponse returns the model's plain-text answer to the prompt.
func (c *Client) GenerateResponse(ctx context.Context, apiKey string, prompt string) (string, error) {

	var resp string
	var err error

	_, _, _ = lo.AttemptWhileWithDelay(3, 2*time.Second, func(i int, _ time.Duration) (error, bool) {
		if i > 0 {
			log.Warn("gemini api returned 500 error, retrying...")
		}
		resp, err = c.generate(ctx, apiKey, prompt, false)
		return err, isInternalError(err)
	})

	return resp, err
}

// GenerateJSON asks the model to answer in JSON and unmarshals the reply
// into out. A malformed reply is a hard error; out is left untouched then.
func (c *Client) GenerateJSON(ctx context.Context, apiKey string, prompt string, out any) error {

	var raw string
	var err error

	_, _, _ = lo.AttemptWhileWithDelay(3, 2*time.Second, func(i int, _ time.Duration) (error, bool) {
		if i > 0 {
			log.Warn("gemini api returned 500 error, retrying...")
		}
		raw, err = c.generate(ctx, apiKey, prompt, true)
		return err, isInternalError(err)
	})
	if err != nil {
		return err
	}

	if err = json.Unmarshal([]byte(stripCodeFence(raw)), out); err != nil {
		return fmt.Errorf("malformed JSON in ai response: %w", err)
	}
	return nil
}

// GenerateStream returns an ordered sequence of text deltas. The string
// channel is closed when the reply is complete; the error channel then yields
// at most one terminal error. Deltas are never reordered or coalesced.
func (c *Client) GenerateStream(ctx context.Context, apiKey string, prompt string) (<-chan string, <-chan error) {

	deltas := make(chan string)
	errc := make(chan error, 1)

	go func() {
		defer close(deltas)
		defer close(errc)

		if err := c.wait(ctx); err != nil {
			errc <- err
			return
		}

		client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
		if err != nil {
			errc <- err
			return
		}
		defer client.Close()

		iter := client.GenerativeModel(string(c.model)).GenerateContentStream(ctx, genai.Text(prompt))
		for {
			resp, err := iter.Next()
			if err == iterator.Done {
				return
			}
			if err != nil {
				errc <- translateError(err)
				return
			}
			if delta, ok := firstTextPart(resp); ok {
				select {
				case deltas <- delta:
				case <-ctx.Done():
					errc <- ctx.Err()
					return
				}
			}
		}
	}()

	return deltas, errc
}

func (c *Client) generate(ctx context.Context, apiKey string, prompt string, asJSON bool) (string, error) {

	if err := c.wait(ctx); err != nil {
		return "", err
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return "", err
	}
	defer client.Close()

	model := client.GenerativeModel(string(c.model))
	if asJSON {
		model.ResponseMIMEType = "application/json"
	}

	response, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", translateError(err)
	}

	text, ok := firstTextPart(response)
	if !ok {
		return "", fmt.Errorf("response part is not text")
	}
	return text, nil
}

func (c *Client) wait(ctx context.Context) error {
	limiters := []*rate.Limiter{c.minuteRateLimiter, c.dayRateLimiter}
	for _, limiter := range limiters {
		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				return err
			}
		}
	}
	return nil
}

func firstTextPart(resp *genai.GenerateContentResponse) (string, bool) {
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil ||
		len(resp.Candidates[0].Content.Parts) == 0 {
		return "", false
	}
	if textPart, ok := resp.Candidates[0].Content.Parts[0].(genai.Text); ok {
		return string(textPart), true
	}
	return "", false
}

func translateError(err error) error {
	if isQuotaError(err) {
		return errors.Wrap(ErrQuotaExceeded, err.Error())
	}
	return err
}

// IsQuotaError reports whether err means the current key's quota ran out.
func IsQuotaError(err error) bool {
	return errors.Is(err, ErrQuotaExceeded) || isQuotaError(err)
}

func isQuotaError(err error) bool {
	if err == nil {
		return false
	}
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) && apiErr.Code == 429 {
		return true
	}
	return strings.Contains(err.Error(), "RESOURCE_EXHAUSTED")
}

func isInternalError(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "Error 500")
}

// stripCodeFence removes a markdown ```json fence the model sometimes wraps
// around its reply despite the JSON MIME type.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}
	return strings.TrimSpace(s)
}
