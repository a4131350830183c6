// Package quiz runs a multiple-choice mock exam: one answer per question,
// shown immediately, then a scored review at the end.
package quiz

import (
	"errors"
	"math"

	"github.com/thywilljoshua/study-buddy/internal/ai"
)

var (
	ErrNoQuestions     = errors.New("quiz has no questions")
	ErrFinished        = errors.New("quiz is already finished")
	ErrAlreadyAnswered = errors.New("question already answered")
	ErrNotAnswered     = errors.New("answer the current question first")
	ErrUnknownOption   = errors.New("option is not one of the choices")
)

type Question = ai.QuizQuestion

type Feedback string

const (
	FeedbackGood Feedback = "good"
	FeedbackFair Feedback = "fair"
	FeedbackPoor Feedback = "poor"
)

type Quiz struct {
	questions []Question
	selected  []string
	answered  []bool
	index     int
}

func New(questions []Question) (*Quiz, error) {
	if len(questions) == 0 {
		return nil, ErrNoQuestions
	}
	return &Quiz{
		questions: questions,
		selected:  make([]string, len(questions)),
		answered:  make([]bool, len(questions)),
	}, nil
}

// Questions returns a copy of the question set.
func (q *Quiz) Questions() []Question {
	return append([]Question(nil), q.questions...)
}

func (q *Quiz) Len() int       { return len(q.questions) }
func (q *Quiz) Index() int     { return q.index }
func (q *Quiz) Finished() bool { return q.index >= len(q.questions) }

// Current returns the question being asked, or false once the quiz is finished.
func (q *Quiz) Current() (Question, bool) {
	if q.Finished() {
		return Question{}, false
	}
	return q.questions[q.index], true
}

// Revealed reports whether the current question's answer has been shown.
func (q *Quiz) Revealed() bool {
	return !q.Finished() && q.answered[q.index]
}

// Answer locks option in for the current question and reports whether it was correct.
func (q *Quiz) Answer(option string) (bool, error) {
	if q.Finished() {
		return false, ErrFinished
	}
	if q.answered[q.index] {
		return false, ErrAlreadyAnswered
	}
	cur := q.questions[q.index]
	known := false
	for _, o := range cur.Options {
		if o == option {
			known = true
			break
		}
	}
	if !known {
		return false, ErrUnknownOption
	}
	q.selected[q.index] = option
	q.answered[q.index] = true
	return option == cur.Answer, nil
}

// AnswerIndex answers with the option at position i (0 = "A").
func (q *Quiz) AnswerIndex(i int) (bool, error) {
	cur, ok := q.Current()
	if !ok {
		return false, ErrFinished
	}
	if i < 0 || i >= len(cur.Options) {
		return false, ErrUnknownOption
	}
	return q.Answer(cur.Options[i])
}

// Next advances past an answered question; after the last one the quiz is finished.
func (q *Quiz) Next() error {
	if q.Finished() {
		return ErrFinished
	}
	if !q.answered[q.index] {
		return ErrNotAnswered
	}
	q.index++
	return nil
}

func (q *Quiz) Restart() {
	q.index = 0
	for i := range q.selected {
		q.selected[i] = ""
		q.answered[i] = false
	}
}

func (q *Quiz) Score() int {
	n := 0
	for i, s := range q.selected {
		if q.answered[i] && s == q.questions[i].Answer {
			n++
		}
	}
	return n
}

func (q *Quiz) Percentage() int {
	return int(math.Round(float64(q.Score()) / float64(len(q.questions)) * 100))
}

func (q *Quiz) Feedback() Feedback {
	switch p := q.Percentage(); {
	case p >= 75:
		return FeedbackGood
	case p >= 40:
		return FeedbackFair
	default:
		return FeedbackPoor
	}
}

type ReviewItem struct {
	Question string `json:"question"`
	Selected string `json:"selected,omitempty"`
	Answer   string `json:"answer"`
	Answered bool   `json:"answered"`
	Correct  bool   `json:"correct"`
	Reason   string `json:"reason"`
}

func (q *Quiz) Review() []ReviewItem {
	out := make([]ReviewItem, len(q.questions))
	for i, qu := range q.questions {
		out[i] = ReviewItem{
			Question: qu.Question,
			Selected: q.selected[i],
			Answer:   qu.Answer,
			Answered: q.answered[i],
			Correct:  q.answered[i] && q.selected[i] == qu.Answer,
			Reason:   qu.Reason,
		}
	}
	return out
}

// OptionLabel maps 0, 1, 2 ... to "A", "B", "C" ...
func OptionLabel(i int) string {
	if i < 0 || i >= 26 {
		return "?"
	}
	return string(rune('A' + i))
}

// State is what a client needs to draw the quiz. The answer and reason of the
// current question are only included once it has been answered.
type State struct {
	Index      int          `json:"index"`
	Total      int          `json:"total"`
	Score      int          `json:"score"`
	Finished   bool         `json:"finished"`
	Question   string       `json:"question,omitempty"`
	Options    []string     `json:"options,omitempty"`
	Answered   bool         `json:"answered"`
	Selected   string       `json:"selected,omitempty"`
	Answer     string       `json:"answer,omitempty"`
	Reason     string       `json:"reason,omitempty"`
	Percentage int          `json:"percentage,omitempty"`
	Feedback   Feedback     `json:"feedback,omitempty"`
	Review     []ReviewItem `json:"review,omitempty"`
}

func (q *Quiz) State() State {
	s := State{Index: q.index, Total: len(q.questions), Score: q.Score(), Finished: q.Finished()}
	if s.Finished {
		s.Percentage = q.Percentage()
		s.Feedback = q.Feedback()
		s.Review = q.Review()
		return s
	}
	cur := q.questions[q.index]
	s.Question = cur.Question
	s.Options = cur.Options
	if q.answered[q.index] {
		s.Answered = true
		s.Selected = q.selected[q.index]
		s.Answer = cur.Answer
		s.Reason = cur.Reason
	}
	return s
}
