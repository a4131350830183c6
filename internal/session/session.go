// Package session holds the per-user study flow: the chosen mode, the loaded
// source, the selected action and its result, plus the slideshow and quiz
// cursors built from that result.
package session

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/thywilljoshua/study-buddy/internal/ai"
	"github.com/thywilljoshua/study-buddy/internal/quiz"
	"github.com/thywilljoshua/study-buddy/internal/render"
	"github.com/thywilljoshua/study-buddy/internal/slides"
	"github.com/thywilljoshua/study-buddy/internal/source"
)

type Mode string

const (
	ModeNone   Mode = ""
	ModeUpload Mode = "upload"
	ModeSearch Mode = "search"
)

func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case ModeNone, ModeUpload, ModeSearch:
		return m, nil
	default:
		return "", fmt.Errorf("%w: unknown mode %q (want upload|search)", ErrInvalidInput, s)
	}
}

type Action string

const (
	ActionSummary   Action = "Summary"
	ActionNotes     Action = "Notes"
	ActionExam      Action = "Exam Mode"
	ActionVideos    Action = "Videos"
	ActionQuestions Action = "Important Questions"
)

var allActions = []Action{ActionSummary, ActionNotes, ActionExam, ActionVideos, ActionQuestions}

// ParseAction accepts the display name or a short alias, case-insensitively.
func ParseAction(s string) (Action, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	key = strings.NewReplacer("-", " ", "_", " ").Replace(key)
	switch key {
	case "summary":
		return ActionSummary, nil
	case "notes":
		return ActionNotes, nil
	case "exam mode", "exam", "quiz":
		return ActionExam, nil
	case "videos", "video":
		return ActionVideos, nil
	case "important questions", "questions":
		return ActionQuestions, nil
	}
	return "", fmt.Errorf("%w: unknown action %q", ErrInvalidInput, s)
}

// Describe is the one-line blurb shown next to each action.
func (a Action) Describe() string {
	switch a {
	case ActionSummary:
		return "Get a quick summary of the key points."
	case ActionNotes:
		return "Generate detailed, structured notes."
	case ActionExam:
		return "Test your knowledge with a mock quiz."
	case ActionVideos:
		return "Find relevant video topic recommendations."
	case ActionQuestions:
		return "List common exam questions from the text."
	}
	return ""
}

// AvailableActions lists the actions offered in mode. Notes are not offered
// for uploaded documents.
func AvailableActions(mode Mode) []Action {
	out := make([]Action, 0, len(allActions))
	for _, a := range allActions {
		if a == ActionNotes && mode == ModeUpload {
			continue
		}
		out = append(out, a)
	}
	return out
}

func actionAvailable(mode Mode, a Action) bool {
	for _, x := range AvailableActions(mode) {
		if x == a {
			return true
		}
	}
	return false
}

type Status string

const (
	StatusIdle    Status = "idle"
	StatusLoading Status = "loading"
	StatusDone    Status = "done"
	StatusFailed  Status = "failed"
)

// Session is one user's flow. Fields are guarded by mu; read them through View.
type Session struct {
	ID        string
	Mode      Mode
	Source    *source.Source
	Action    Action
	Status    Status
	Err       error
	Prefs     ai.VideoPrefs
	Text      string
	Videos    []ai.VideoSuggestion
	Quiz      *quiz.Quiz
	Deck      *slides.Deck
	CreatedAt time.Time
	UpdatedAt time.Time

	mu     sync.Mutex
	gen    uint64
	cancel context.CancelFunc
}

// begin supersedes any running request and returns the new generation number.
// Callers hold mu.
func (s *Session) begin() uint64 {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.gen++
	return s.gen
}

func (s *Session) clearResult() {
	s.Status = StatusIdle
	s.Err = nil
	s.Text = ""
	s.Videos = nil
	s.Quiz = nil
	s.Deck = nil
}

func (s *Session) stop() {
	s.mu.Lock()
	s.begin()
	s.mu.Unlock()
}

// View is the serialisable snapshot returned to clients.
type View struct {
	ID         string         `json:"id"`
	Mode       Mode           `json:"mode"`
	Actions    []Action       `json:"actions"`
	Source     *source.Source `json:"source,omitempty"`
	Action     Action         `json:"action,omitempty"`
	Status     Status         `json:"status"`
	Error      *ErrorView     `json:"error,omitempty"`
	VideoPrefs ai.VideoPrefs  `json:"video_prefs"`
	Result     *ResultView    `json:"result,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

type ErrorView struct {
	Title   string `json:"title,omitempty"`
	Message string `json:"message"`
}

type ResultKind string

const (
	ResultText   ResultKind = "text"
	ResultVideos ResultKind = "videos"
	ResultQuiz   ResultKind = "quiz"
)

type ResultView struct {
	Kind   ResultKind     `json:"kind"`
	Title  string         `json:"title"`
	Text   string         `json:"text,omitempty"`
	Blocks []render.Block `json:"blocks,omitempty"`
	HTML   string         `json:"html,omitempty"`
	Slide  *SlideView     `json:"slide,omitempty"`
	Videos []VideoView    `json:"videos,omitempty"`
	Quiz   *quiz.State    `json:"quiz,omitempty"`
}

// SlideView is the deck position plus the current slide rendered.
type SlideView struct {
	slides.View
	Blocks []render.Block `json:"blocks"`
	HTML   string         `json:"html"`
}

func slideView(d *slides.Deck) *SlideView {
	v := d.View()
	blocks := render.Segment(v.Slide.Content)
	return &SlideView{View: v, Blocks: blocks, HTML: render.HTML(blocks)}
}

type VideoView struct {
	ai.VideoSuggestion
	URL string `json:"url"`
}

// ResultTitle is the heading shown above a result.
func ResultTitle(a Action) string {
	if a == ActionExam {
		return "Exam Mode Quiz"
	}
	return string(a) + " Result"
}

// view builds the snapshot. Callers hold mu.
func (s *Session) view() View {
	v := View{
		ID:         s.ID,
		Mode:       s.Mode,
		Actions:    AvailableActions(s.Mode),
		Action:     s.Action,
		Status:     s.Status,
		VideoPrefs: s.Prefs,
		CreatedAt:  s.CreatedAt,
		UpdatedAt:  s.UpdatedAt,
	}
	if s.Source != nil {
		src := *s.Source
		v.Source = &src
	}
	if s.Err != nil {
		title, msg := UserMessage(s.Action, s.Err)
		v.Error = &ErrorView{Title: title, Message: msg}
	}
	if s.Status != StatusDone {
		return v
	}
	r := &ResultView{Title: ResultTitle(s.Action)}
	switch {
	case s.Quiz != nil:
		st := s.Quiz.State()
		r.Kind = ResultQuiz
		r.Quiz = &st
	case s.Videos != nil:
		r.Kind = ResultVideos
		for _, vs := range s.Videos {
			r.Videos = append(r.Videos, VideoView{VideoSuggestion: vs, URL: vs.SearchURL()})
		}
	default:
		r.Kind = ResultText
		r.Text = s.Text
		r.Blocks = render.Segment(s.Text)
		r.HTML = render.HTML(r.Blocks)
		if s.Deck != nil {
			r.Slide = slideView(s.Deck)
		}
	}
	v.Result = r
	return v
}
