package ai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	genai "google.golang.org/genai"

	"github.com/thywilljoshua/study-buddy/internal/logging"
)

const DefaultModel = "gemini-2.5-flash"

// models is the slice of *genai.Models the client needs.
type models interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Usage is reported after every successful call.
type Usage struct {
	PromptTokens   int
	ResponseTokens int
}

type GeminiOptions struct {
	Model       string
	Timeout     time.Duration
	Temperature *float32
	Logger      *zap.Logger
	// OnUsage, when set, receives token counts from each response.
	OnUsage func(Usage)
}

type Gemini struct {
	models  models
	model   string
	timeout time.Duration
	temp    *float32
	log     *zap.Logger
	onUsage func(Usage)
}

func NewGemini(ctx context.Context, apiKey string, opts GeminiOptions) (*Gemini, error) {
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	c, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey, Backend: genai.BackendGeminiAPI})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return newGemini(c.Models, opts), nil
}

func newGemini(m models, opts GeminiOptions) *Gemini {
	if opts.Model == "" {
		opts.Model = DefaultModel
	}
	opts.Logger = logging.OrNop(opts.Logger)
	return &Gemini{
		models:  m,
		model:   opts.Model,
		timeout: opts.Timeout,
		temp:    opts.Temperature,
		log:     opts.Logger,
		onUsage: opts.OnUsage,
	}
}

func (g *Gemini) Model() string { return g.model }

func (g *Gemini) generate(ctx context.Context, op, prompt string, schema *genai.Schema) (string, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}
	cfg := &genai.GenerateContentConfig{Temperature: g.temp}
	if schema != nil {
		cfg.ResponseMIMEType = "application/json"
		cfg.ResponseSchema = schema
	}

	start := time.Now()
	res, err := g.models.GenerateContent(ctx, g.model, genai.Text(prompt), cfg)
	if err != nil {
		g.log.Warn("gemini call failed", zap.String("op", op), zap.String("model", g.model), zap.Error(err))
		return "", fmt.Errorf("gemini %s: %w", op, err)
	}
	text := res.Text()
	g.log.Debug("gemini call",
		zap.String("op", op),
		zap.String("model", g.model),
		zap.Int("response_bytes", len(text)),
		zap.Duration("latency", time.Since(start)))
	if g.onUsage != nil && res.UsageMetadata != nil {
		g.onUsage(Usage{
			PromptTokens:   int(res.UsageMetadata.PromptTokenCount),
			ResponseTokens: int(res.UsageMetadata.CandidatesTokenCount),
		})
	}
	return text, nil
}

func (g *Gemini) freeText(ctx context.Context, op, prompt string) (string, error) {
	out, err := g.generate(ctx, op, prompt, nil)
	if err != nil {
		return "", err
	}
	out = strings.TrimSpace(out)
	if out == "" {
		return "", fmt.Errorf("%w: empty %s", ErrMalformedResponse, op)
	}
	return out, nil
}

func (g *Gemini) Summary(ctx context.Context, text string) (string, error) {
	return g.freeText(ctx, "summary", summaryPrompt(text))
}

func (g *Gemini) Notes(ctx context.Context, text string) (string, error) {
	return g.freeText(ctx, "notes", notesPrompt(text))
}

func (g *Gemini) ImportantQuestions(ctx context.Context, text string) (string, error) {
	return g.freeText(ctx, "questions", questionsPrompt(text))
}

func (g *Gemini) Videos(ctx context.Context, text string, prefs VideoPrefs) ([]VideoSuggestion, error) {
	raw, err := g.generate(ctx, "videos", videosPrompt(text, prefs), videoSchema())
	if err != nil {
		return nil, err
	}
	var out []VideoSuggestion
	if err := decodeJSON(raw, &out); err != nil {
		g.log.Warn("failed to parse video suggestions", zap.Error(err))
		return nil, err
	}
	if err := validateVideos(out); err != nil {
		return nil, err
	}
	return out, nil
}

func (g *Gemini) Quiz(ctx context.Context, text string) ([]QuizQuestion, error) {
	raw, err := g.generate(ctx, "quiz", quizPrompt(text), quizSchema())
	if err != nil {
		return nil, err
	}
	var out []QuizQuestion
	if err := decodeJSON(raw, &out); err != nil {
		g.log.Warn("failed to parse quiz", zap.Error(err))
		return nil, err
	}
	for i := range out {
		out[i].Answer = strings.TrimSpace(out[i].Answer)
		for j := range out[i].Options {
			out[i].Options[j] = strings.TrimSpace(out[i].Options[j])
		}
	}
	if err := validateQuiz(out); err != nil {
		return nil, err
	}
	return out, nil
}

func (g *Gemini) SimplifyFormula(ctx context.Context, formula, explanation string) (string, error) {
	return g.freeText(ctx, "simplify", simplifyPrompt(formula, explanation))
}
