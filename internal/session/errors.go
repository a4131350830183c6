package session

import (
	"errors"

	"github.com/thywilljoshua/study-buddy/internal/ai"
	"github.com/thywilljoshua/study-buddy/internal/quiz"
	"github.com/thywilljoshua/study-buddy/internal/source"
)

var (
	ErrNotFound          = errors.New("Session not found. Please start over.")
	ErrNoSource          = errors.New("Please provide a PDF or a topic first.")
	ErrActionUnavailable = errors.New("That action is not available for this source.")
	ErrWrongMode         = errors.New("This source does not match the selected mode.")
	ErrInvalidInput      = errors.New("invalid input")
	ErrSuperseded        = errors.New("This request was replaced by a newer one.")
	ErrNoDeck            = errors.New("There is no text result to present.")
	ErrNoQuiz            = errors.New("There is no quiz in progress.")
	ErrNoResult          = errors.New("There is no finished result yet.")
	ErrSimplify          = errors.New("Sorry, I was unable to simplify this explanation. Please try again.")
)

const (
	ConfigErrorTitle   = "Application Configuration Error"
	ConfigErrorMessage = "The Google Gemini API key is missing or invalid. The application cannot function without it. Please contact the administrator to resolve this issue."
)

// userFacing errors carry a message that can be shown as is.
var userFacing = []error{
	ErrNotFound, ErrNoSource, ErrActionUnavailable, ErrWrongMode, ErrSuperseded,
	ErrNoDeck, ErrNoQuiz, ErrNoResult, ErrSimplify,
	ai.ErrMalformedResponse,
	source.ErrEmptyTopic, source.ErrNotPDF, source.ErrUnreadablePDF,
	quiz.ErrFinished, quiz.ErrAlreadyAnswered, quiz.ErrNotAnswered, quiz.ErrUnknownOption, quiz.ErrNoQuestions,
}

// UserMessage turns err into the title and message shown to the user. action
// names the generation that failed, if any.
func UserMessage(action Action, err error) (title, message string) {
	if errors.Is(err, ai.ErrMissingAPIKey) {
		return ConfigErrorTitle, ConfigErrorMessage
	}
	if errors.Is(err, ErrInvalidInput) {
		return "", err.Error()
	}
	for _, e := range userFacing {
		if errors.Is(err, e) {
			return "", e.Error()
		}
	}
	if action != "" {
		return "", "Failed to generate " + string(action) + ". Please try again."
	}
	return "", "Something went wrong. Please try again."
}
