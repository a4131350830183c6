package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/thywilljoshua/study-buddy/internal/ai"
	"github.com/thywilljoshua/study-buddy/internal/logging"
	"github.com/thywilljoshua/study-buddy/internal/observability"
	"github.com/thywilljoshua/study-buddy/internal/quiz"
	"github.com/thywilljoshua/study-buddy/internal/render"
	"github.com/thywilljoshua/study-buddy/internal/slides"
	"github.com/thywilljoshua/study-buddy/internal/source"
)

type Options struct {
	MaxSessions int
	TTL         time.Duration
	Logger      *zap.Logger
	Metrics     *observability.Metrics
}

// Manager runs the study flow for every session it holds.
type Manager struct {
	gen     ai.Generator
	store   *Store
	log     *zap.Logger
	metrics *observability.Metrics
	now     func() time.Time
}

func NewManager(gen ai.Generator, opts Options) *Manager {
	opts.Logger = logging.OrNop(opts.Logger)
	store := NewStore(opts.MaxSessions, opts.TTL)
	store.onEvict = (*Session).stop
	return &Manager{
		gen:     gen,
		store:   store,
		log:     opts.Logger,
		metrics: opts.Metrics,
		now:     time.Now,
	}
}

func (m *Manager) Create(mode Mode) View {
	now := m.now()
	s := &Session{
		Mode:      mode,
		Status:    StatusIdle,
		Prefs:     ai.VideoPrefs{Length: ai.LengthAny},
		CreatedAt: now,
		UpdatedAt: now,
	}
	m.store.Add(s)
	m.syncGauge()
	m.log.Debug("session created", zap.String("session", s.ID), zap.String("mode", string(mode)))

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view()
}

func (m *Manager) lookup(id string) (*Session, error) {
	s, ok := m.store.Get(id)
	if !ok {
		m.syncGauge()
		return nil, ErrNotFound
	}
	return s, nil
}

func (m *Manager) Get(id string) (View, error) {
	s, err := m.lookup(id)
	if err != nil {
		return View{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view(), nil
}

func (m *Manager) Delete(id string) error {
	if !m.store.Delete(id) {
		return ErrNotFound
	}
	m.syncGauge()
	return nil
}

// Reset starts the flow over: mode, source, action, result and video
// preferences are all cleared.
func (m *Manager) Reset(id string) (View, error) {
	s, err := m.lookup(id)
	if err != nil {
		return View{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.begin()
	s.Mode = ModeNone
	s.Source = nil
	s.Action = ""
	s.clearResult()
	s.Prefs = ai.VideoPrefs{Length: ai.LengthAny}
	s.UpdatedAt = m.now()
	return s.view(), nil
}

// SetMode picks upload or search for a session that has no source yet.
func (m *Manager) SetMode(id string, mode Mode) (View, error) {
	s, err := m.lookup(id)
	if err != nil {
		return View{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Source != nil && mode != modeFor(s.Source.Kind) {
		return s.view(), ErrWrongMode
	}
	s.Mode = mode
	s.UpdatedAt = m.now()
	return s.view(), nil
}

func modeFor(k source.Kind) Mode {
	if k == source.KindPDF {
		return ModeUpload
	}
	return ModeSearch
}

// SetSource loads new input and drops the previous action and result. A
// session without a mode takes the one implied by the source.
func (m *Manager) SetSource(id string, src source.Source) (View, error) {
	s, err := m.lookup(id)
	if err != nil {
		return View{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	want := modeFor(src.Kind)
	if s.Mode != ModeNone && s.Mode != want {
		return s.view(), ErrWrongMode
	}
	s.begin()
	s.Mode = want
	s.Source = &src
	s.Action = ""
	s.clearResult()
	s.UpdatedAt = m.now()
	m.log.Info("source loaded",
		zap.String("session", id),
		zap.String("kind", string(src.Kind)),
		zap.Int("pages", src.Pages),
		zap.Int("chars", src.Chars))
	return s.view(), nil
}

// SelectAction picks an action. Videos only records the choice and waits for
// FindVideos; every other action is generated before returning.
func (m *Manager) SelectAction(ctx context.Context, id string, action Action) (View, error) {
	s, err := m.lookup(id)
	if err != nil {
		return View{}, err
	}
	s.mu.Lock()
	if s.Source == nil {
		v := s.view()
		s.mu.Unlock()
		return v, ErrNoSource
	}
	if !actionAvailable(s.Mode, action) {
		v := s.view()
		s.mu.Unlock()
		return v, ErrActionUnavailable
	}
	if action == ActionVideos {
		defer s.mu.Unlock()
		s.begin()
		s.Action = action
		s.clearResult()
		s.UpdatedAt = m.now()
		return s.view(), nil
	}
	s.mu.Unlock()
	return m.run(ctx, s, action, ai.VideoPrefs{})
}

// FindVideos stores the preferences and asks for video suggestions.
func (m *Manager) FindVideos(ctx context.Context, id string, prefs ai.VideoPrefs) (View, error) {
	s, err := m.lookup(id)
	if err != nil {
		return View{}, err
	}
	prefs.Channels = strings.TrimSpace(prefs.Channels)
	if prefs.Length == "" {
		prefs.Length = ai.LengthAny
	}
	s.mu.Lock()
	if s.Source == nil {
		v := s.view()
		s.mu.Unlock()
		return v, ErrNoSource
	}
	s.Prefs = prefs
	s.mu.Unlock()
	return m.run(ctx, s, ActionVideos, prefs)
}

type result struct {
	text      string
	videos    []ai.VideoSuggestion
	questions []ai.QuizQuestion
}

func (m *Manager) generate(ctx context.Context, action Action, text string, prefs ai.VideoPrefs) (result, error) {
	var (
		r   result
		err error
	)
	switch action {
	case ActionSummary:
		r.text, err = m.gen.Summary(ctx, text)
	case ActionNotes:
		r.text, err = m.gen.Notes(ctx, text)
	case ActionQuestions:
		r.text, err = m.gen.ImportantQuestions(ctx, text)
	case ActionVideos:
		r.videos, err = m.gen.Videos(ctx, text, prefs)
	case ActionExam:
		r.questions, err = m.gen.Quiz(ctx, text)
	default:
		err = fmt.Errorf("%w: unknown action %q", ErrInvalidInput, action)
	}
	return r, err
}

// run generates action for s. A later request on the same session cancels
// this one and its result is discarded with ErrSuperseded.
func (m *Manager) run(ctx context.Context, s *Session, action Action, prefs ai.VideoPrefs) (View, error) {
	s.mu.Lock()
	if s.Source == nil {
		s.mu.Unlock()
		return View{}, ErrNoSource
	}
	gen := s.begin()
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.Action = action
	s.clearResult()
	s.Status = StatusLoading
	s.UpdatedAt = m.now()
	text := s.Source.Text
	id := s.ID
	s.mu.Unlock()
	defer cancel()

	start := time.Now()
	r, err := m.generate(ctx, action, text, prefs)
	var q *quiz.Quiz
	if err == nil && action == ActionExam {
		q, err = quiz.New(r.questions)
	}
	elapsed := time.Since(start)
	m.metrics.ObserveGeneration(string(action), outcome(err), elapsed)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen != gen {
		m.log.Debug("generation superseded", zap.String("session", id), zap.String("action", string(action)))
		return View{}, ErrSuperseded
	}
	s.cancel = nil
	s.UpdatedAt = m.now()
	if err != nil {
		m.log.Warn("generation failed",
			zap.String("session", id),
			zap.String("action", string(action)),
			zap.Duration("elapsed", elapsed),
			zap.Error(err))
		s.Status = StatusFailed
		s.Err = err
		return s.view(), err
	}

	switch action {
	case ActionExam:
		s.Quiz = q
	case ActionVideos:
		s.Videos = r.videos
	default:
		s.Text = r.text
		s.Deck = slides.NewDeck(string(action), r.text)
	}
	s.Status = StatusDone
	m.log.Info("generation finished",
		zap.String("session", id),
		zap.String("action", string(action)),
		zap.Duration("elapsed", elapsed))
	return s.view(), nil
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ai.ErrMissingAPIKey):
		return "unconfigured"
	case errors.Is(err, ai.ErrMalformedResponse), errors.Is(err, quiz.ErrNoQuestions):
		return "malformed"
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	default:
		return "error"
	}
}

// RenderedSlide is one slide with its content segmented and rendered.
type RenderedSlide struct {
	Title  string         `json:"title"`
	Blocks []render.Block `json:"blocks"`
	HTML   string         `json:"html"`
}

// Presentation is the full-screen deck for a text result.
type Presentation struct {
	Title  string          `json:"title"`
	Index  int             `json:"index"`
	Total  int             `json:"total"`
	Slides []RenderedSlide `json:"slides"`
}

// Present returns every slide of the current text result, titled
// "<source> - <action>" and positioned at the slide being viewed.
func (m *Manager) Present(id string) (Presentation, error) {
	s, err := m.lookup(id)
	if err != nil {
		return Presentation{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Deck == nil || s.Source == nil {
		return Presentation{}, ErrNoDeck
	}
	d := slides.Presentation(s.Source.Title, string(s.Action), s.Text)
	_ = d.GoTo(s.Deck.Index())

	p := Presentation{Title: d.Title, Index: d.Index(), Total: d.Len()}
	for _, sl := range d.Slides {
		blocks := render.Segment(sl.Content)
		p.Slides = append(p.Slides, RenderedSlide{Title: sl.Title, Blocks: blocks, HTML: render.HTML(blocks)})
	}
	return p, nil
}

func (m *Manager) NextSlide(id string) (*SlideView, error) {
	return m.moveSlide(id, (*slides.Deck).Next)
}

func (m *Manager) PrevSlide(id string) (*SlideView, error) {
	return m.moveSlide(id, (*slides.Deck).Prev)
}

func (m *Manager) moveSlide(id string, move func(*slides.Deck) bool) (*SlideView, error) {
	s, err := m.lookup(id)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Deck == nil {
		return nil, ErrNoDeck
	}
	move(s.Deck)
	return slideView(s.Deck), nil
}

// Answer locks in option for the current quiz question.
func (m *Manager) Answer(id, option string) (quiz.State, error) {
	return m.withQuiz(id, func(q *quiz.Quiz) error {
		_, err := q.Answer(option)
		return err
	})
}

// AnswerIndex answers with the option at position i (0 is "A").
func (m *Manager) AnswerIndex(id string, i int) (quiz.State, error) {
	return m.withQuiz(id, func(q *quiz.Quiz) error {
		_, err := q.AnswerIndex(i)
		return err
	})
}

func (m *Manager) NextQuestion(id string) (quiz.State, error) {
	return m.withQuiz(id, (*quiz.Quiz).Next)
}

func (m *Manager) RestartQuiz(id string) (quiz.State, error) {
	return m.withQuiz(id, func(q *quiz.Quiz) error {
		q.Restart()
		return nil
	})
}

func (m *Manager) withQuiz(id string, fn func(*quiz.Quiz) error) (quiz.State, error) {
	s, err := m.lookup(id)
	if err != nil {
		return quiz.State{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Quiz == nil {
		return quiz.State{}, ErrNoQuiz
	}
	err = fn(s.Quiz)
	s.UpdatedAt = m.now()
	return s.Quiz.State(), err
}

// Simplify rewrites a formula explanation in plain words. It is not tied to
// a session.
func (m *Manager) Simplify(ctx context.Context, formula, explanation string) (string, error) {
	if strings.TrimSpace(formula) == "" || strings.TrimSpace(explanation) == "" {
		return "", fmt.Errorf("%w: formula and explanation are required", ErrInvalidInput)
	}
	start := time.Now()
	out, err := m.gen.SimplifyFormula(ctx, formula, explanation)
	m.metrics.ObserveGeneration("Simplify", outcome(err), time.Since(start))
	if err != nil {
		m.log.Warn("simplify failed", zap.Error(err))
		return "", fmt.Errorf("%w: %w", ErrSimplify, err)
	}
	return out, nil
}

// Sweep drops expired sessions.
func (m *Manager) Sweep() int {
	n := m.store.Sweep()
	if n > 0 {
		m.log.Debug("expired sessions removed", zap.Int("count", n))
	}
	m.syncGauge()
	return n
}

// RunJanitor sweeps every interval until ctx is done.
func (m *Manager) RunJanitor(ctx context.Context, interval time.Duration) error {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			m.Sweep()
		}
	}
}

func (m *Manager) Len() int { return m.store.Len() }

func (m *Manager) syncGauge() {
	m.metrics.SetSessions(m.store.Len())
}
