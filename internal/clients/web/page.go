package web

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/pkg/errors"
)

// ErrGone marks a posting page that no longer exists (404/410).
var ErrGone = errors.New("page is gone")

func IsGone(err error) bool {
	return errors.Is(err, ErrGone)
}

const maxBodyBytes = 2 << 20

type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Fetcher downloads a page and reduces it to visible text, which keeps
// scrape-platform prompts within the model's context window.
type Fetcher struct {
	httpClient HTTPClient
}

func NewFetcher() *Fetcher {
	return &Fetcher{httpClient: &http.Client{}}
}

func (f *Fetcher) SetHTTPClient(client HTTPClient) {
	f.httpClient = client
}

func (f *Fetcher) PageText(ctx context.Context, pageURL string) (string, error) {

	req, err := http.NewRequestWithContext(ctx, "GET", pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("error creating request: %v", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; jobdeck/1.0)")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("error fetching %v: %v", pageURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone {
		return "", ErrGone
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("fetch of %v failed with status %v", pageURL, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", fmt.Errorf("error parsing page %v: %v", pageURL, err)
	}

	doc.Find("script, style, noscript, svg").Remove()
	return collapseWhitespace(doc.Find("body").Text()), nil
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
