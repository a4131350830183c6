package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thywilljoshua/study-buddy/internal/ai"
	"github.com/thywilljoshua/study-buddy/internal/config"
	"github.com/thywilljoshua/study-buddy/internal/observability"
	"github.com/thywilljoshua/study-buddy/internal/session"
)

type stubGen struct {
	ai.Unconfigured
	text      string
	videos    []ai.VideoSuggestion
	questions []ai.QuizQuestion
}

func (g stubGen) Summary(ctx context.Context, text string) (string, error) { return g.text, nil }
func (g stubGen) Quiz(ctx context.Context, text string) ([]ai.QuizQuestion, error) {
	return g.questions, nil
}
func (g stubGen) Videos(ctx context.Context, text string, prefs ai.VideoPrefs) ([]ai.VideoSuggestion, error) {
	return g.videos, nil
}

func newTestServer(t *testing.T, gen ai.Generator) *Server {
	t.Helper()
	cfg := config.Defaults()
	cfg.Server.MaxUploadBytes = 1024
	metrics := observability.NewMetrics()
	mgr := session.NewManager(gen, session.Options{MaxSessions: 10, TTL: time.Hour, Metrics: metrics})
	return New(cfg.Server, mgr, metrics, "/metrics", nil)
}

func do(t *testing.T, h http.Handler, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func createSession(t *testing.T, h http.Handler, mode string) session.View {
	t.Helper()
	rec := do(t, h, http.MethodPost, "/api/sessions", map[string]string{"mode": mode})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[session.View](t, rec)
}

func TestHealthAndRequestID(t *testing.T) {
	s := newTestServer(t, ai.Unconfigured{})
	rec := do(t, s.Handler(), http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", rec.Header().Get("X-Request-ID"))
}

func TestActionsByMode(t *testing.T) {
	s := newTestServer(t, ai.Unconfigured{})
	rec := do(t, s.Handler(), http.MethodGet, "/api/actions?mode=upload", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), `"Notes"`)

	rec = do(t, s.Handler(), http.MethodGet, "/api/actions?mode=search", nil)
	assert.Contains(t, rec.Body.String(), `"Notes"`)

	rec = do(t, s.Handler(), http.MethodGet, "/api/actions?mode=sideways", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSummaryOverHTTP(t *testing.T) {
	s := newTestServer(t, stubGen{text: "## Heat\nflows $Q$\n## Work\ndone"})
	h := s.Handler()
	v := createSession(t, h, "search")

	rec := do(t, h, http.MethodPost, "/api/sessions/"+v.ID+"/actions", map[string]string{"action": "summary"})
	assert.Equal(t, http.StatusConflict, rec.Code)
	errBody := decode[errorResponse](t, rec)
	assert.Equal(t, "Please provide a PDF or a topic first.", errBody.Error.Message)

	rec = do(t, h, http.MethodPost, "/api/sessions/"+v.ID+"/source/topic", map[string]string{"topic": "Thermodynamics"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = do(t, h, http.MethodPost, "/api/sessions/"+v.ID+"/actions", map[string]string{"action": "summary"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	got := decode[session.View](t, rec)
	require.NotNil(t, got.Result)
	assert.Equal(t, "Heat", got.Result.Slide.Slide.Title)

	rec = do(t, h, http.MethodPost, "/api/sessions/"+v.ID+"/slides/next", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"position":"2 of 2"`)

	rec = do(t, h, http.MethodGet, "/api/sessions/"+v.ID+"/presentation", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	p := decode[session.Presentation](t, rec)
	assert.Equal(t, "Thermodynamics - Summary", p.Title)

	rec = do(t, h, http.MethodGet, "/metrics", nil)
	assert.Contains(t, rec.Body.String(), `studybuddy_generations_total{action="Summary",outcome="ok"} 1`)
	assert.Contains(t, rec.Body.String(), `route="POST /api/sessions/{id}/actions"`)
}

func TestMissingKeyIsConfigError(t *testing.T) {
	s := newTestServer(t, ai.Unconfigured{})
	h := s.Handler()
	v := createSession(t, h, "search")
	do(t, h, http.MethodPost, "/api/sessions/"+v.ID+"/source/topic", map[string]string{"topic": "Optics"})

	rec := do(t, h, http.MethodPost, "/api/sessions/"+v.ID+"/actions", map[string]string{"action": "Important Questions"})
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	body := decode[errorResponse](t, rec)
	assert.Equal(t, "configuration_error", body.Error.Type)
	assert.Equal(t, session.ConfigErrorTitle, body.Error.Title)
}

func TestExamOverHTTP(t *testing.T) {
	s := newTestServer(t, stubGen{questions: []ai.QuizQuestion{
		{Question: "Unit of force?", Options: []string{"N", "J"}, Answer: "N", Reason: "Newton"},
	}})
	h := s.Handler()
	v := createSession(t, h, "search")
	do(t, h, http.MethodPost, "/api/sessions/"+v.ID+"/source/topic", map[string]string{"topic": "Mechanics"})
	rec := do(t, h, http.MethodPost, "/api/sessions/"+v.ID+"/actions", map[string]string{"action": "Exam Mode"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = do(t, h, http.MethodPost, "/api/sessions/"+v.ID+"/quiz/next", nil)
	assert.Equal(t, http.StatusConflict, rec.Code, "must answer first")

	rec = do(t, h, http.MethodPost, "/api/sessions/"+v.ID+"/quiz/answer", map[string]string{"option": "X"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPost, "/api/sessions/"+v.ID+"/quiz/answer", map[string]int{"index": 5})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPost, "/api/sessions/"+v.ID+"/quiz/answer", map[string]int{"index": 0})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"reason":"Newton"`)
	assert.Contains(t, rec.Body.String(), `"selected":"N"`)

	rec = do(t, h, http.MethodPost, "/api/sessions/"+v.ID+"/quiz/answer", map[string]string{"option": "J"})
	assert.Equal(t, http.StatusConflict, rec.Code, "answers are locked")

	rec = do(t, h, http.MethodPost, "/api/sessions/"+v.ID+"/quiz/next", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"feedback":"good"`)

	rec = do(t, h, http.MethodPost, "/api/sessions/"+v.ID+"/quiz/restart", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"question":"Unit of force?"`)
}

func TestVideosRejectsUnknownLength(t *testing.T) {
	s := newTestServer(t, stubGen{videos: []ai.VideoSuggestion{{Title: "Optics 101"}}})
	h := s.Handler()
	v := createSession(t, h, "search")
	do(t, h, http.MethodPost, "/api/sessions/"+v.ID+"/source/topic", map[string]string{"topic": "Optics"})

	rec := do(t, h, http.MethodPost, "/api/sessions/"+v.ID+"/videos", map[string]string{"length": "epic"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPost, "/api/sessions/"+v.ID+"/videos", map[string]string{"channels": "NPTEL", "length": "long"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), "search_query=Optics+101")
}

func uploadPDF(t *testing.T, h http.Handler, id, name, contentType string, data []byte) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	hdr := make(textproto.MIMEHeader)
	hdr.Set("Content-Disposition", `form-data; name="file"; filename="`+name+`"`)
	hdr.Set("Content-Type", contentType)
	part, err := mw.CreatePart(hdr)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/sessions/"+id+"/source/pdf", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

// onePagePDF builds a minimal PDF whose single page shows text.
func onePagePDF(text string) []byte {
	stream := fmt.Sprintf("BT /F1 12 Tf 72 720 Td (%s) Tj ET", text)
	objs := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 5 0 R >> >> /Contents 4 0 R >>",
		fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(stream), stream),
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>",
	}
	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objs))
	for i, o := range objs {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, o)
	}
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(objs)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objs)+1, xref)
	return buf.Bytes()
}

func TestPDFUploadAndSummary(t *testing.T) {
	cfg := config.Defaults()
	mgr := session.NewManager(stubGen{text: "## Entropy\nalways rises"}, session.Options{MaxSessions: 10, TTL: time.Hour})
	h := New(cfg.Server, mgr, nil, "", nil).Handler()
	v := createSession(t, h, "upload")

	rec := uploadPDF(t, h, v.ID, "unit1.pdf", "application/pdf", onePagePDF("Second law of thermodynamics"))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	got := decode[session.View](t, rec)
	require.NotNil(t, got.Source)
	assert.Equal(t, "unit1.pdf", got.Source.Title)
	assert.Equal(t, 1, got.Source.Pages)
	assert.Equal(t, session.ModeUpload, got.Mode)
	assert.NotContains(t, got.Actions, session.ActionNotes)
	assert.NotContains(t, rec.Body.String(), "Second law", "extracted text is not echoed back")

	rec = do(t, h, http.MethodPost, "/api/sessions/"+v.ID+"/actions", map[string]string{"action": "notes"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPost, "/api/sessions/"+v.ID+"/actions", map[string]string{"action": "summary"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Entropy", decode[session.View](t, rec).Result.Slide.Slide.Title)

	rec = do(t, h, http.MethodGet, "/api/sessions/"+v.ID+"/presentation", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "unit1.pdf - Summary", decode[session.Presentation](t, rec).Title)
}

func TestSetModeOverHTTP(t *testing.T) {
	s := newTestServer(t, ai.Unconfigured{})
	h := s.Handler()
	v := createSession(t, h, "search")
	path := "/api/sessions/" + v.ID + "/mode"

	rec := do(t, h, http.MethodPost, path, map[string]string{"mode": "upload"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	got := decode[session.View](t, rec)
	assert.Equal(t, session.ModeUpload, got.Mode)
	assert.NotContains(t, got.Actions, session.ActionNotes)

	rec = do(t, h, http.MethodPost, "/api/sessions/"+v.ID+"/source/topic", map[string]string{"topic": "Optics"})
	assert.Equal(t, http.StatusConflict, rec.Code, "a topic does not fit upload mode")

	rec = do(t, h, http.MethodPost, path, map[string]string{"mode": "search"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, decode[session.View](t, rec).Actions, session.ActionNotes)

	rec = do(t, h, http.MethodPost, "/api/sessions/"+v.ID+"/source/topic", map[string]string{"topic": "Optics"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, http.MethodPost, path, map[string]string{"mode": "upload"})
	assert.Equal(t, http.StatusConflict, rec.Code, "mode is fixed once a source is loaded")

	rec = do(t, h, http.MethodPost, path, map[string]string{"mode": "sideways"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPost, "/api/sessions/missing/mode", map[string]string{"mode": "search"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPDFUploadValidation(t *testing.T) {
	s := newTestServer(t, ai.Unconfigured{})
	h := s.Handler()
	v := createSession(t, h, "upload")

	upload := func(name, contentType string, data []byte) *httptest.ResponseRecorder {
		return uploadPDF(t, h, v.ID, name, contentType, data)
	}

	rec := upload("notes.txt", "text/plain", []byte("hello"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Please upload a valid PDF file.", decode[errorResponse](t, rec).Error.Message)

	rec = upload("broken.pdf", "application/pdf", []byte("%PDF-1.4 garbage"))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "Failed to process PDF. It may be corrupted or protected.", decode[errorResponse](t, rec).Error.Message)

	rec = upload("huge.pdf", "application/pdf", bytes.Repeat([]byte("x"), 4096))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestRenderEndpoint(t *testing.T) {
	s := newTestServer(t, ai.Unconfigured{})
	content := "$$E=mc^2$$\n### Formula Breakdown\n- E is energy\n## Next"
	rec := do(t, s.Handler(), http.MethodPost, "/api/render", map[string]any{"content": content})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"kind":"formula_explainer"`)

	rec = do(t, s.Handler(), http.MethodPost, "/api/render", map[string]any{"content": content, "plain": true})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), `"kind":"formula_explainer"`)

	rec = do(t, s.Handler(), http.MethodPost, "/api/render", map[string]any{"bogus": 1})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestExplainFailure(t *testing.T) {
	s := newTestServer(t, ai.Unconfigured{})
	rec := do(t, s.Handler(), http.MethodPost, "/api/explain", map[string]string{"formula": "F=ma", "explanation": "force"})
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestUnknownSession(t *testing.T) {
	s := newTestServer(t, ai.Unconfigured{})
	rec := do(t, s.Handler(), http.MethodGet, "/api/sessions/nope", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	v := createSession(t, s.Handler(), "")
	rec = do(t, s.Handler(), http.MethodDelete, "/api/sessions/"+v.ID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = do(t, s.Handler(), http.MethodDelete, "/api/sessions/"+v.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRecovery(t *testing.T) {
	s := newTestServer(t, ai.Unconfigured{})
	s.mux.HandleFunc("GET /boom", func(http.ResponseWriter, *http.Request) { panic("kaboom") })
	rec := do(t, s.Handler(), http.MethodGet, "/boom", nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "server_error"))
}

func TestServeShutsDownOnCancel(t *testing.T) {
	s := newTestServer(t, ai.Unconfigured{})
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + ln.Addr().String() + "/healthz")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
