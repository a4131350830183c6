package ai

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
)

var (
	// ErrMissingAPIKey is returned by every call when no model credentials are configured.
	ErrMissingAPIKey = errors.New("Gemini API key not found")
	// ErrMalformedResponse means the model answered but not in the shape we asked for.
	ErrMalformedResponse = errors.New("The AI response was not in the expected format. Please try again.")
)

type VideoSuggestion struct {
	Topic       string `json:"topic"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// SearchURL points at a YouTube search for the suggested title.
func (v VideoSuggestion) SearchURL() string {
	return "https://www.youtube.com/results?search_query=" + url.QueryEscape(v.Title)
}

type QuizQuestion struct {
	Question string   `json:"question"`
	Options  []string `json:"options"`
	Answer   string   `json:"answer"`
	Reason   string   `json:"reason"`
}

type VideoLength string

const (
	LengthAny    VideoLength = "any"
	LengthShort  VideoLength = "short"
	LengthMedium VideoLength = "medium"
	LengthLong   VideoLength = "long"
)

// ParseVideoLength accepts the empty string as "any".
func ParseVideoLength(s string) (VideoLength, error) {
	switch l := VideoLength(strings.ToLower(strings.TrimSpace(s))); l {
	case "":
		return LengthAny, nil
	case LengthAny, LengthShort, LengthMedium, LengthLong:
		return l, nil
	default:
		return "", fmt.Errorf("unknown video length %q (want any|short|medium|long)", s)
	}
}

// describe returns the phrase used in prompts, or "" for no preference.
func (l VideoLength) describe() string {
	switch l {
	case LengthShort:
		return "under 10 minutes"
	case LengthMedium:
		return "between 10 and 30 minutes"
	case LengthLong:
		return "over 30 minutes"
	}
	return ""
}

type VideoPrefs struct {
	Channels string      `json:"channels"`
	Length   VideoLength `json:"length"`
}

// Generator is the hosted-model boundary. Every method is a single point request.
type Generator interface {
	Summary(ctx context.Context, text string) (string, error)
	Notes(ctx context.Context, text string) (string, error)
	ImportantQuestions(ctx context.Context, text string) (string, error)
	Videos(ctx context.Context, text string, prefs VideoPrefs) ([]VideoSuggestion, error)
	Quiz(ctx context.Context, text string) ([]QuizQuestion, error)
	SimplifyFormula(ctx context.Context, formula, explanation string) (string, error)
}

// Unconfigured stands in for the model when no API key is available.
type Unconfigured struct{}

func (Unconfigured) Summary(ctx context.Context, text string) (string, error) {
	return "", ErrMissingAPIKey
}
func (Unconfigured) Notes(ctx context.Context, text string) (string, error) {
	return "", ErrMissingAPIKey
}
func (Unconfigured) ImportantQuestions(ctx context.Context, text string) (string, error) {
	return "", ErrMissingAPIKey
}
func (Unconfigured) Videos(ctx context.Context, text string, prefs VideoPrefs) ([]VideoSuggestion, error) {
	return nil, ErrMissingAPIKey
}
func (Unconfigured) Quiz(ctx context.Context, text string) ([]QuizQuestion, error) {
	return nil, ErrMissingAPIKey
}
func (Unconfigured) SimplifyFormula(ctx context.Context, formula, explanation string) (string, error) {
	return "", ErrMissingAPIKey
}

// validateQuiz drops nothing: any question that cannot be played makes the whole reply malformed.
func validateQuiz(qs []QuizQuestion) error {
	if len(qs) == 0 {
		return fmt.Errorf("%w: quiz has no questions", ErrMalformedResponse)
	}
	for i, q := range qs {
		if strings.TrimSpace(q.Question) == "" {
			return fmt.Errorf("%w: question %d is empty", ErrMalformedResponse, i+1)
		}
		if len(q.Options) < 2 {
			return fmt.Errorf("%w: question %d has %d options", ErrMalformedResponse, i+1, len(q.Options))
		}
		seen := make(map[string]bool, len(q.Options))
		for _, o := range q.Options {
			if strings.TrimSpace(o) == "" {
				return fmt.Errorf("%w: question %d has a blank option", ErrMalformedResponse, i+1)
			}
			if seen[o] {
				return fmt.Errorf("%w: question %d repeats option %q", ErrMalformedResponse, i+1, o)
			}
			seen[o] = true
		}
		if !seen[q.Answer] {
			return fmt.Errorf("%w: answer to question %d is not one of its options", ErrMalformedResponse, i+1)
		}
	}
	return nil
}

func validateVideos(vs []VideoSuggestion) error {
	if len(vs) == 0 {
		return fmt.Errorf("%w: no video suggestions", ErrMalformedResponse)
	}
	for i, v := range vs {
		if strings.TrimSpace(v.Title) == "" {
			return fmt.Errorf("%w: suggestion %d has no title", ErrMalformedResponse, i+1)
		}
	}
	return nil
}
