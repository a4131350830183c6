package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/thywilljoshua/study-buddy/internal/ai"
	"github.com/thywilljoshua/study-buddy/internal/quiz"
	"github.com/thywilljoshua/study-buddy/internal/session"
	"github.com/thywilljoshua/study-buddy/internal/source"
)

const (
	errInvalidRequest = "invalid_request"
	errNotFound       = "not_found"
	errConflict       = "conflict"
	errUnprocessable  = "unprocessable"
	errTooLarge       = "too_large"
	errModel          = "model_error"
	errConfiguration  = "configuration_error"
	errServer         = "server_error"
)

type apiError struct {
	Type    string `json:"type"`
	Title   string `json:"title,omitempty"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error apiError `json:"error"`
}

// classify maps err to an HTTP status and error type.
func classify(err error) (int, string) {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge, errTooLarge
	case errors.Is(err, ai.ErrMissingAPIKey):
		return http.StatusServiceUnavailable, errConfiguration
	case errors.Is(err, session.ErrNotFound):
		return http.StatusNotFound, errNotFound
	case errors.Is(err, session.ErrInvalidInput),
		errors.Is(err, session.ErrActionUnavailable),
		errors.Is(err, source.ErrEmptyTopic),
		errors.Is(err, source.ErrNotPDF):
		return http.StatusBadRequest, errInvalidRequest
	case errors.Is(err, source.ErrUnreadablePDF):
		return http.StatusUnprocessableEntity, errUnprocessable
	case errors.Is(err, session.ErrNoSource),
		errors.Is(err, session.ErrWrongMode),
		errors.Is(err, session.ErrSuperseded),
		errors.Is(err, session.ErrNoDeck),
		errors.Is(err, session.ErrNoResult),
		errors.Is(err, session.ErrNoQuiz),
		errors.Is(err, quiz.ErrFinished),
		errors.Is(err, quiz.ErrAlreadyAnswered),
		errors.Is(err, quiz.ErrNotAnswered):
		return http.StatusConflict, errConflict
	case errors.Is(err, quiz.ErrUnknownOption):
		return http.StatusBadRequest, errInvalidRequest
	case errors.Is(err, session.ErrSimplify),
		errors.Is(err, ai.ErrMalformedResponse),
		errors.Is(err, context.DeadlineExceeded):
		return http.StatusBadGateway, errModel
	case errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable, errServer
	default:
		return http.StatusBadGateway, errModel
	}
}

// writeError writes err as a JSON error body. action names the generation
// that failed, if any, for the fallback message.
func writeError(w http.ResponseWriter, action session.Action, err error) {
	status, typ := classify(err)
	title, msg := session.UserMessage(action, err)
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		msg = "The uploaded file is too large."
	}
	writeJSON(w, status, errorResponse{Error: apiError{Type: typ, Title: title, Message: msg}})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
