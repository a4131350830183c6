package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/thywilljoshua/study-buddy/internal/ai"
	"github.com/thywilljoshua/study-buddy/internal/quiz"
	"github.com/thywilljoshua/study-buddy/internal/render"
	"github.com/thywilljoshua/study-buddy/internal/session"
	"github.com/thywilljoshua/study-buddy/internal/source"
)

// maxJSONBody bounds every JSON request body.
const maxJSONBody = 1 << 20

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return err
		}
		return fmt.Errorf("%w: malformed JSON body: %v", session.ErrInvalidInput, err)
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "sessions": s.sessions.Len()})
}

type actionInfo struct {
	Name        session.Action `json:"name"`
	Description string         `json:"description"`
}

func (s *Server) handleActions(w http.ResponseWriter, r *http.Request) {
	mode, err := session.ParseMode(r.URL.Query().Get("mode"))
	if err != nil {
		writeError(w, "", err)
		return
	}
	var out []actionInfo
	for _, a := range session.AvailableActions(mode) {
		out = append(out, actionInfo{Name: a, Description: a.Describe()})
	}
	writeJSON(w, http.StatusOK, map[string]any{"mode": mode, "actions": out})
}

type modeRequest struct {
	Mode string `json:"mode"`
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req modeRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, "", err)
			return
		}
	}
	mode, err := session.ParseMode(req.Mode)
	if err != nil {
		writeError(w, "", err)
		return
	}
	writeJSON(w, http.StatusCreated, s.sessions.Create(mode))
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	v, err := s.sessions.Get(r.PathValue("id"))
	if err != nil {
		writeError(w, "", err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.Delete(r.PathValue("id")); err != nil {
		writeError(w, "", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	v, err := s.sessions.Reset(r.PathValue("id"))
	if err != nil {
		writeError(w, "", err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (s *Server) handleSetMode(w http.ResponseWriter, r *http.Request) {
	var req modeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, "", err)
		return
	}
	mode, err := session.ParseMode(req.Mode)
	if err != nil {
		writeError(w, "", err)
		return
	}
	v, err := s.sessions.SetMode(r.PathValue("id"), mode)
	if err != nil {
		writeError(w, "", err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

type topicRequest struct {
	Topic string `json:"topic"`
}

func (s *Server) handleTopic(w http.ResponseWriter, r *http.Request) {
	var req topicRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, "", err)
		return
	}
	src, err := source.FromTopic(req.Topic)
	if err != nil {
		writeError(w, "", err)
		return
	}
	v, err := s.sessions.SetSource(r.PathValue("id"), src)
	if err != nil {
		writeError(w, "", err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (s *Server) handlePDF(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, err := s.sessions.Get(id); err != nil {
		writeError(w, "", err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if !errors.As(err, &tooLarge) {
			err = source.ErrNotPDF
		}
		writeError(w, "", err)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, "", fmt.Errorf("%w: %v", source.ErrUnreadablePDF, err))
		return
	}
	src, err := source.FromPDF(header.Filename, header.Header.Get("Content-Type"), data)
	if err != nil {
		s.log.Debug("pdf rejected", zap.String("file", header.Filename), zap.Error(err))
		writeError(w, "", err)
		return
	}
	v, err := s.sessions.SetSource(id, src)
	if err != nil {
		writeError(w, "", err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

type actionRequest struct {
	Action string `json:"action"`
}

func (s *Server) handleAction(w http.ResponseWriter, r *http.Request) {
	var req actionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, "", err)
		return
	}
	action, err := session.ParseAction(req.Action)
	if err != nil {
		writeError(w, "", err)
		return
	}
	v, err := s.sessions.SelectAction(r.Context(), r.PathValue("id"), action)
	if err != nil {
		writeError(w, action, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

type videosRequest struct {
	Channels string `json:"channels"`
	Length   string `json:"length"`
}

func (s *Server) handleVideos(w http.ResponseWriter, r *http.Request) {
	var req videosRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, "", err)
		return
	}
	length, err := ai.ParseVideoLength(req.Length)
	if err != nil {
		writeError(w, "", fmt.Errorf("%w: %v", session.ErrInvalidInput, err))
		return
	}
	v, err := s.sessions.FindVideos(r.Context(), r.PathValue("id"), ai.VideoPrefs{Channels: req.Channels, Length: length})
	if err != nil {
		writeError(w, session.ActionVideos, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (s *Server) handlePresentation(w http.ResponseWriter, r *http.Request) {
	p, err := s.sessions.Present(r.PathValue("id"))
	if err != nil {
		writeError(w, "", err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleNextSlide(w http.ResponseWriter, r *http.Request) {
	v, err := s.sessions.NextSlide(r.PathValue("id"))
	if err != nil {
		writeError(w, "", err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (s *Server) handlePrevSlide(w http.ResponseWriter, r *http.Request) {
	v, err := s.sessions.PrevSlide(r.PathValue("id"))
	if err != nil {
		writeError(w, "", err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// answerRequest names the option by text, or by position when Index is set.
type answerRequest struct {
	Option string `json:"option"`
	Index  *int   `json:"index,omitempty"`
}

func (s *Server) handleAnswer(w http.ResponseWriter, r *http.Request) {
	var req answerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, "", err)
		return
	}
	var (
		st  quiz.State
		err error
	)
	if req.Index != nil {
		st, err = s.sessions.AnswerIndex(r.PathValue("id"), *req.Index)
	} else {
		st, err = s.sessions.Answer(r.PathValue("id"), req.Option)
	}
	if err != nil {
		writeError(w, "", err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleNextQuestion(w http.ResponseWriter, r *http.Request) {
	st, err := s.sessions.NextQuestion(r.PathValue("id"))
	if err != nil {
		writeError(w, "", err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleRestartQuiz(w http.ResponseWriter, r *http.Request) {
	st, err := s.sessions.RestartQuiz(r.PathValue("id"))
	if err != nil {
		writeError(w, "", err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

type renderRequest struct {
	Content string `json:"content"`
	Plain   bool   `json:"plain"`
}

type renderResponse struct {
	Blocks []render.Block `json:"blocks"`
	HTML   string         `json:"html"`
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	var req renderRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, "", err)
		return
	}
	blocks := render.Segment(req.Content)
	if req.Plain {
		blocks = render.SegmentPlain(req.Content)
	}
	if blocks == nil {
		blocks = []render.Block{}
	}
	writeJSON(w, http.StatusOK, renderResponse{Blocks: blocks, HTML: render.HTML(blocks)})
}

type explainRequest struct {
	Formula     string `json:"formula"`
	Explanation string `json:"explanation"`
}

type explainResponse struct {
	Text   string         `json:"text"`
	Blocks []render.Block `json:"blocks"`
	HTML   string         `json:"html"`
}

func (s *Server) handleExplain(w http.ResponseWriter, r *http.Request) {
	var req explainRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, "", err)
		return
	}
	out, err := s.sessions.Simplify(r.Context(), req.Formula, req.Explanation)
	if err != nil {
		writeError(w, "", err)
		return
	}
	blocks := render.SegmentPlain(out)
	writeJSON(w, http.StatusOK, explainResponse{Text: out, Blocks: blocks, HTML: render.HTML(blocks)})
}
