package app

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ixtj-dev/daily-product-news/internal/config"
	"github.com/ixtj-dev/daily-product-news/internal/domain"
	"github.com/ixtj-dev/daily-product-news/internal/scraper"
	"github.com/ixtj-dev/daily-product-news/internal/summarizer"
	"github.com/ixtj-dev/daily-product-news/pkg/publishers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = func() time.Time { return time.Date(2024, 1, 1, 9, 30, 0, 0, time.UTC) }

// recorder tracks the order in which steps are invoked.
type recorder struct {
	steps []string
}

type fakeFetcher struct {
	rec  *recorder
	res  domain.FetchResult
	err  error
	urls []string
}

func (f *fakeFetcher) Fetch(_ context.Context, url string) (domain.FetchResult, error) {
	f.rec.steps = append(f.rec.steps, "fetch")
	f.urls = append(f.urls, url)
	return f.res, f.err
}

type fakeSummarizer struct {
	rec   *recorder
	out   domain.GeneratedContent
	err   error
	input []domain.FetchResult
}

func (f *fakeSummarizer) Summarize(_ context.Context, c domain.FetchResult) (domain.GeneratedContent, error) {
	f.rec.steps = append(f.rec.steps, "summarize")
	f.input = append(f.input, c)
	return f.out, f.err
}

type fakePublisher struct {
	rec      *recorder
	err      error
	payloads []domain.PublishPayload
}

func (f *fakePublisher) Publish(_ context.Context, p domain.PublishPayload) error {
	f.rec.steps = append(f.rec.steps, "publish")
	f.payloads = append(f.payloads, p)
	return f.err
}

type fixture struct {
	rec *recorder
	f   *fakeFetcher
	s   *fakeSummarizer
	p   *fakePublisher
}

func newFixture() *fixture {
	rec := &recorder{}
	return &fixture{
		rec: rec,
		f:   &fakeFetcher{rec: rec, res: domain.FetchResult{HTML: "<html>ok</html>"}},
		s:   &fakeSummarizer{rec: rec, out: "Sample body text"},
		p:   &fakePublisher{rec: rec},
	}
}

func (fx *fixture) pipeline(t *testing.T) *Pipeline {
	t.Helper()
	p, err := NewPipeline("https://example.com", "", fx.f, fx.s, fx.p, nil, WithClock(fixedNow))
	require.NoError(t, err)
	return p
}

func TestRunCallsStepsOnceInOrder(t *testing.T) {
	fx := newFixture()

	err := fx.pipeline(t).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"fetch", "summarize", "publish"}, fx.rec.steps)
	assert.Equal(t, []string{"https://example.com"}, fx.f.urls)
	assert.Equal(t, []domain.FetchResult{{HTML: "<html>ok</html>"}}, fx.s.input)
	require.Len(t, fx.p.payloads, 1)
	assert.Equal(t, domain.PublishPayload{
		Title: "Daily Product News - 2024-01-01",
		Body:  "Sample body text",
	}, fx.p.payloads[0])
	assert.Equal(t, 0, ExitCode(err))
}

func TestRunStopsAfterFetchFailure(t *testing.T) {
	fx := newFixture()
	fx.f.err = &scraper.FetchError{URL: "https://example.com", StatusCode: 404, Status: "Not Found"}

	err := fx.pipeline(t).Run(context.Background())

	var fetchErr *scraper.FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, []string{"fetch"}, fx.rec.steps)
	assert.Empty(t, fx.p.payloads)
	assert.Equal(t, 1, ExitCode(err))
}

func TestRunStopsAfterGenerationFailure(t *testing.T) {
	fx := newFixture()
	fx.s.err = &summarizer.GenerationError{Model: "m", Err: errors.New("quota")}

	err := fx.pipeline(t).Run(context.Background())

	var genErr *summarizer.GenerationError
	require.ErrorAs(t, err, &genErr)
	assert.Equal(t, []string{"fetch", "summarize"}, fx.rec.steps)
	assert.Equal(t, 1, ExitCode(err))
}

func TestRunSurfacesPublishFailure(t *testing.T) {
	fx := newFixture()
	fx.p.err = &publishers.PublishError{StatusCode: 500, Status: "Internal Server Error", Body: "server error"}

	err := fx.pipeline(t).Run(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "server error")
	assert.Equal(t, []string{"fetch", "summarize", "publish"}, fx.rec.steps)
	assert.Equal(t, 1, ExitCode(err))
}

func TestRunForwardsBodyVerbatim(t *testing.T) {
	fx := newFixture()
	fx.s.out = "  🚀 Tool\nhttps://www.producthunt.com/posts/tool\n\n"

	require.NoError(t, fx.pipeline(t).Run(context.Background()))
	assert.Equal(t, string(fx.s.out), fx.p.payloads[0].Body)
}

func TestNewPipelineRequiresComponents(t *testing.T) {
	fx := newFixture()
	_, err := NewPipeline("https://example.com", "", nil, fx.s, fx.p, nil)
	assert.Error(t, err)
	_, err = NewPipeline("", "", fx.f, fx.s, fx.p, nil)
	assert.Error(t, err)
}

func TestNewRejectsNilConfig(t *testing.T) {
	_, err := New(context.Background(), nil, nil)
	assert.Error(t, err)
}

// TestNewEndToEnd wires the production components against local servers.
func TestNewEndToEnd(t *testing.T) {
	var order []string

	target := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		order = append(order, "fetch")
		_, _ = io.WriteString(w, "<html>ok</html>")
	}))
	defer target.Close()

	var geminiPrompt string
	gemini := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		order = append(order, "generate")
		var req struct {
			Contents []struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"contents"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err == nil && len(req.Contents) > 0 && len(req.Contents[0].Parts) > 0 {
			geminiPrompt = req.Contents[0].Parts[0].Text
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"candidates":[{"content":{"role":"model","parts":[{"text":"Sample body text"}]}}]}`)
	}))
	defer gemini.Close()

	var published map[string]string
	var publishPath string
	slashpage := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		order = append(order, "publish")
		publishPath = r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&published)
		w.WriteHeader(http.StatusOK)
	}))
	defer slashpage.Close()

	cfg := &config.Config{
		GeminiAPIKey:         "gemini-key",
		GeminiModel:          "gemini-2.0-flash-lite",
		GeminiEndpoint:       gemini.URL + "/",
		SlashpageAPIKey:      "slash-key",
		SlashpageWebhookBase: slashpage.URL + "/api-webhook/note",
		SlashpageNotePath:    "ixtj-dev/1q3vdn2pjv43p2xy49pr",
		TitlePrefix:          "Daily Product News",
		TargetURL:            target.URL,
	}

	p, err := New(context.Background(), cfg, nil, WithClock(fixedNow))
	require.NoError(t, err)
	require.NoError(t, p.Run(context.Background()))

	assert.Equal(t, []string{"fetch", "generate", "publish"}, order)
	assert.True(t, strings.HasSuffix(geminiPrompt, `{"html":"<html>ok</html>"}`), "prompt tail: %q", geminiPrompt)
	assert.Equal(t, "/api-webhook/note/ixtj-dev/1q3vdn2pjv43p2xy49pr/slash-key", publishPath)
	assert.Equal(t, map[string]string{
		"title": "Daily Product News - 2024-01-01",
		"body":  "Sample body text",
	}, published)
}

func TestNewEndToEndFetch404SkipsLaterSteps(t *testing.T) {
	var hits []string
	target := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits = append(hits, "fetch")
		w.WriteHeader(http.StatusNotFound)
	}))
	defer target.Close()
	downstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits = append(hits, "downstream")
	}))
	defer downstream.Close()

	cfg := &config.Config{
		GeminiAPIKey:         "gemini-key",
		GeminiEndpoint:       downstream.URL + "/",
		SlashpageAPIKey:      "slash-key",
		SlashpageWebhookBase: downstream.URL,
		TargetURL:            target.URL,
	}

	p, err := New(context.Background(), cfg, nil)
	require.NoError(t, err)

	err = p.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
	assert.Equal(t, []string{"fetch"}, hits)
	assert.Equal(t, 1, ExitCode(err))
}
