// Package mcptools exposes the study generators as MCP tools so an assistant
// can call them over stdio.
package mcptools

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/thywilljoshua/study-buddy/internal/ai"
	"github.com/thywilljoshua/study-buddy/internal/logging"
	"github.com/thywilljoshua/study-buddy/internal/render"
	"github.com/thywilljoshua/study-buddy/internal/session"
	"github.com/thywilljoshua/study-buddy/internal/source"
)

const (
	ServerName    = "studybuddy"
	ServerVersion = "0.1.0"
)

// Argument keys, shared by the schemas and the handlers.
const (
	argText        = "text"
	argTopic       = "topic"
	argPath        = "path"
	argChannels    = "channels"
	argLength      = "length"
	argFormula     = "formula"
	argExplanation = "explanation"
	argContent     = "content"
)

// Tools holds the handlers; Register binds them to a server.
type Tools struct {
	gen ai.Generator
	log *zap.Logger
	// maxPDFBytes bounds extract_pdf reads.
	maxPDFBytes int64
}

func New(gen ai.Generator, maxPDFBytes int64, log *zap.Logger) *Tools {
	log = logging.OrNop(log)
	return &Tools{gen: gen, log: log, maxPDFBytes: maxPDFBytes}
}

// NewServer returns an MCP server with every tool registered.
func NewServer(t *Tools) *server.MCPServer {
	s := server.NewMCPServer(ServerName, ServerVersion)
	t.Register(s)
	return s
}

func inputArgs() []mcp.ToolOption {
	return []mcp.ToolOption{
		mcp.WithString(argText, mcp.Description("Study material, e.g. text extracted from a PDF")),
		mcp.WithString(argTopic, mcp.Description("A topic to study when no text is given")),
	}
}

func tool(name, desc string, opts ...mcp.ToolOption) mcp.Tool {
	return mcp.NewTool(name, append([]mcp.ToolOption{mcp.WithDescription(desc)}, opts...)...)
}

func (t *Tools) Register(s *server.MCPServer) {
	s.AddTool(tool("summarize", "Summarize study material into key points for exam preparation.", inputArgs()...),
		t.textTool(session.ActionSummary, t.gen.Summary))
	s.AddTool(tool("notes", "Generate detailed structured notes with formula breakdowns.", inputArgs()...),
		t.textTool(session.ActionNotes, t.gen.Notes))
	s.AddTool(tool("important_questions", "List likely exam questions grouped by type.", inputArgs()...),
		t.textTool(session.ActionQuestions, t.gen.ImportantQuestions))
	s.AddTool(tool("quiz", "Generate a multiple-choice mock quiz as JSON.", inputArgs()...),
		t.handleQuiz)
	s.AddTool(tool("suggest_videos", "Suggest YouTube videos for the material, with search links.",
		append(inputArgs(),
			mcp.WithString(argChannels, mcp.Description("Preferred channels, comma separated")),
			mcp.WithString(argLength, mcp.Description("Preferred length: any, short, medium or long")),
		)...),
		t.handleVideos)
	s.AddTool(tool("simplify_formula", "Explain a formula as if to a five year old.",
		mcp.WithString(argFormula, mcp.Required(), mcp.Description("The formula in LaTeX")),
		mcp.WithString(argExplanation, mcp.Required(), mcp.Description("The existing explanation")),
	), t.handleSimplify)
	s.AddTool(tool("extract_pdf", "Extract the text layer of a local PDF file.",
		mcp.WithString(argPath, mcp.Required(), mcp.Description("Absolute path to a PDF file")),
	), t.handleExtract)
	s.AddTool(tool("render_html", "Render Markdown with LaTeX math to HTML.",
		mcp.WithString(argContent, mcp.Required(), mcp.Description("Markdown content")),
	), t.handleRender)
}

func stringArg(req mcp.CallToolRequest, key string) string {
	v, _ := req.Params.Arguments[key].(string)
	return strings.TrimSpace(v)
}

// material returns the text argument, or the topic when no text is given.
func material(req mcp.CallToolRequest) (string, error) {
	if text := stringArg(req, argText); text != "" {
		return text, nil
	}
	src, err := source.FromTopic(stringArg(req, argTopic))
	if err != nil {
		return "", session.ErrNoSource
	}
	return src.Text, nil
}

func (t *Tools) failure(action session.Action, err error) *mcp.CallToolResult {
	t.log.Warn("tool failed", zap.String("action", string(action)), zap.Error(err))
	_, msg := session.UserMessage(action, err)
	return mcp.NewToolResultError(msg)
}

type textFunc func(ctx context.Context, text string) (string, error)

func (t *Tools) textTool(action session.Action, fn textFunc) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		text, err := material(req)
		if err != nil {
			return t.failure(action, err), nil
		}
		out, err := fn(ctx, text)
		if err != nil {
			return t.failure(action, err), nil
		}
		return mcp.NewToolResultText(out), nil
	}
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(string(b)), nil
}

func (t *Tools) handleQuiz(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := material(req)
	if err != nil {
		return t.failure(session.ActionExam, err), nil
	}
	qs, err := t.gen.Quiz(ctx, text)
	if err != nil {
		return t.failure(session.ActionExam, err), nil
	}
	return jsonResult(qs)
}

type videoResult struct {
	ai.VideoSuggestion
	URL string `json:"url"`
}

func (t *Tools) handleVideos(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := material(req)
	if err != nil {
		return t.failure(session.ActionVideos, err), nil
	}
	length, err := ai.ParseVideoLength(stringArg(req, argLength))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	vs, err := t.gen.Videos(ctx, text, ai.VideoPrefs{Channels: stringArg(req, argChannels), Length: length})
	if err != nil {
		return t.failure(session.ActionVideos, err), nil
	}
	out := make([]videoResult, len(vs))
	for i, v := range vs {
		out[i] = videoResult{VideoSuggestion: v, URL: v.SearchURL()}
	}
	return jsonResult(out)
}

func (t *Tools) handleSimplify(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	formula, explanation := stringArg(req, argFormula), stringArg(req, argExplanation)
	if formula == "" || explanation == "" {
		return mcp.NewToolResultError(argFormula + " and " + argExplanation + " are required"), nil
	}
	out, err := t.gen.SimplifyFormula(ctx, formula, explanation)
	if err != nil {
		return t.failure("", fmt.Errorf("%w: %w", session.ErrSimplify, err)), nil
	}
	return mcp.NewToolResultText(out), nil
}

func (t *Tools) handleExtract(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path := stringArg(req, argPath)
	if path == "" {
		return mcp.NewToolResultError(argPath + " is required"), nil
	}
	if !filepath.IsAbs(path) {
		return mcp.NewToolResultError(argPath + " must be absolute"), nil
	}
	info, err := os.Stat(path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if t.maxPDFBytes > 0 && info.Size() > t.maxPDFBytes {
		return mcp.NewToolResultError(fmt.Sprintf("%s is larger than %d bytes", path, t.maxPDFBytes)), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	src, err := source.FromPDF(filepath.Base(path), "", data)
	if err != nil {
		return t.failure("", err), nil
	}
	return mcp.NewToolResultText(src.Text), nil
}

func (t *Tools) handleRender(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	content, _ := req.Params.Arguments[argContent].(string)
	if strings.TrimSpace(content) == "" {
		return mcp.NewToolResultError(argContent + " is required"), nil
	}
	return mcp.NewToolResultText(render.HTML(render.Segment(content))), nil
}
