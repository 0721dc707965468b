package summarizer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ixtj-dev/daily-product-news/internal/domain"
	"github.com/ixtj-dev/daily-product-news/internal/logger"
	"github.com/ixtj-dev/daily-product-news/internal/prompt"

	"google.golang.org/genai"
)

const DefaultModel = "gemini-2.0-flash-lite"

// GenerationError wraps any failure of the model call.
type GenerationError struct {
	Model string
	Err   error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generate content with %s: %v", e.Model, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// Options configures the Gemini client.
type Options struct {
	APIKey string
	Model  string
	// Endpoint overrides the API base URL; empty uses the Google default.
	Endpoint string
	// Timeout bounds the single generate call; zero means no deadline.
	Timeout time.Duration
}

// Summarizer renders the prompt and makes one generateContent call.
type Summarizer struct {
	models  *genai.Models
	model   string
	prompt  *prompt.Template
	timeout time.Duration
	log     logger.Logger
}

// New builds a Summarizer. A nil template selects the embedded default.
func New(ctx context.Context, opts Options, tmpl *prompt.Template, log logger.Logger) (*Summarizer, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, errors.New("gemini api key is empty")
	}
	if tmpl == nil {
		tmpl = prompt.Default()
	}
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = DefaultModel
	}

	clientCfg := &genai.ClientConfig{
		APIKey:  opts.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if ep := strings.TrimSpace(opts.Endpoint); ep != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{BaseURL: strings.TrimRight(ep, "/") + "/"}
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("init gemini client: %w", err)
	}

	return &Summarizer{
		models:  client.Models,
		model:   model,
		prompt:  tmpl,
		timeout: opts.Timeout,
		log:     logger.Ensure(log),
	}, nil
}

// Model returns the model identifier.
func (s *Summarizer) Model() string { return s.model }

// BuildPrompt serializes content and interpolates it into the template.
func BuildPrompt(tmpl *prompt.Template, content domain.FetchResult) (string, error) {
	serialized, err := content.JSON()
	if err != nil {
		return "", err
	}
	return tmpl.Render(serialized)
}

// Summarize returns the model's text output unmodified.
func (s *Summarizer) Summarize(ctx context.Context, content domain.FetchResult) (domain.GeneratedContent, error) {
	s.log.InfoObj("generating content", "generation_meta", map[string]any{
		"model":    s.model,
		"template": s.prompt.Name(),
	})

	text, err := BuildPrompt(s.prompt, content)
	if err != nil {
		return "", &GenerationError{Model: s.model, Err: err}
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	resp, err := s.models.GenerateContent(ctx, s.model, genai.Text(text), nil)
	if err != nil {
		return "", &GenerationError{Model: s.model, Err: err}
	}

	out, err := responseText(resp)
	if err != nil {
		return "", &GenerationError{Model: s.model, Err: err}
	}

	s.log.InfoObj("finished generating content", "generation_result", map[string]any{
		"model":        s.model,
		"prompt_chars": len(text),
		"output_chars": len(out),
	})
	return domain.GeneratedContent(out), nil
}

// responseText returns the text of the first candidate, failing when the
// model produced none.
func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		if resp != nil && resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
			return "", fmt.Errorf("prompt blocked: %s", resp.PromptFeedback.BlockReason)
		}
		return "", errors.New("response has no candidates")
	}

	out := resp.Text()
	if out == "" {
		return "", fmt.Errorf("candidate has no text (finish reason %q)", resp.Candidates[0].FinishReason)
	}
	return out, nil
}
