package web

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type mockHTTPClient struct {
	mock.Mock
}

func (m *mockHTTPClient) Do(req *http.Request) (*http.Response, error) {
	args := m.Called(req)
	return args.Get(0).(*http.Response), args.Error(1)
}

func htmlResponse(status int, html string) (*http.Response, error) {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(html)),
	}, nil
}

func Test_Fetcher_PageText_ShouldStripMarkupAndScripts(t *testing.T) {

	mockClient := &mockHTTPClient{}
	mockClient.On("Do", mock.Anything).Return(htmlResponse(200,
		`<html><head><script>var x=1;</script></head>`+
			`<body><h1>Golang  dev</h1><p>remote   job</p></body></html>`))

	fetcher := NewFetcher()
	fetcher.SetHTTPClient(mockClient)

	text, err := fetcher.PageText(context.Background(), "https://example.com/jobs")
	assert.NoError(t, err)
	assert.Equal(t, "Golang dev remote job", text)
}

func Test_Fetcher_PageText_WhenNotFound_ShouldReturnErrGone(t *testing.T) {

	mockClient := &mockHTTPClient{}
	mockClient.On("Do", mock.Anything).Return(htmlResponse(404, "not found"))

	fetcher := NewFetcher()
	fetcher.SetHTTPClient(mockClient)

	_, err := fetcher.PageText(context.Background(), "https://example.com/dead")
	assert.ErrorIs(t, err, ErrGone)
}

func Test_Fetcher_PageText_WhenServerError_ShouldFail(t *testing.T) {

	mockClient := &mockHTTPClient{}
	mockClient.On("Do", mock.Anything).Return(htmlResponse(503, "unavailable"))

	fetcher := NewFetcher()
	fetcher.SetHTTPClient(mockClient)

	_, err := fetcher.PageText(context.Background(), "https://example.com/jobs")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrGone)
}
