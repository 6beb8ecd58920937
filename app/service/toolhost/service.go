package toolhost

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"skimmer/app/model"
	"skimmer/app/service/session"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/samber/do"
)

const (
	serverName    = "skimmer"
	serverVersion = "1.0.0"
)

// Host exposes one coordinator as MCP tools over stdio.
type Host struct {
	coord *session.Coordinator
	mcp   *server.MCPServer
}

func New(di *do.Injector) (*Host, error) {
	return NewHost(do.MustInvoke[*session.Coordinator](di)), nil
}

func NewHost(coord *session.Coordinator) *Host {
	h := &Host{
		coord: coord,
		mcp: server.NewMCPServer(
			serverName,
			serverVersion,
			server.WithToolCapabilities(false),
			server.WithRecovery(),
		),
	}

	h.registerTools()

	return h
}

func (h *Host) registerTools() {
	h.mcp.AddTool(
		mcp.NewTool("summarize",
			mcp.WithDescription("Summarize text and start a new document. Uses the current selection when text is omitted."),
			mcp.WithString("text", mcp.Description("Text to summarize")),
		),
		h.summarize,
	)

	h.mcp.AddTool(
		mcp.NewTool("ask",
			mcp.WithDescription("Ask a question about the current document"),
			mcp.WithString("question", mcp.Required(), mcp.Description("Question about the summarized text")),
		),
		h.ask,
	)

	h.mcp.AddTool(
		mcp.NewTool("reset_chat",
			mcp.WithDescription("Forget the conversation but keep the current summary"),
		),
		h.resetChat,
	)

	h.mcp.AddTool(
		mcp.NewTool("list_history",
			mcp.WithDescription("List saved summaries, newest first"),
		),
		h.listHistory,
	)

	h.mcp.AddTool(
		mcp.NewTool("load_history",
			mcp.WithDescription("Make a saved summary the current document"),
			mcp.WithNumber("id", mcp.Required(), mcp.Description("Summary id from list_history")),
		),
		h.loadHistory,
	)
}

// Run initializes the session and serves MCP requests on stdin/stdout until ctx is done.
func (h *Host) Run(ctx context.Context) error {
	return h.Serve(ctx, os.Stdin, os.Stdout)
}

func (h *Host) Serve(ctx context.Context, in io.Reader, out io.Writer) error {
	if err := h.coord.Init(ctx); err != nil {
		slog.Warn("Initial summarization failed", "error", err)
	}

	slog.Info("MCP server started")

	err := server.NewStdioServer(h.mcp).Listen(ctx, in, out)
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("mcp stdio: %w", err)
	}

	return nil
}

func (h *Host) summarize(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text := request.GetString("text", "")
	if strings.TrimSpace(text) == "" {
		text = h.coord.Draft()
	}

	err := h.coord.Summarize(ctx, text)

	var validationErr *model.ValidationError
	switch {
	case errors.Is(err, model.ErrBusy):
		return mcp.NewToolResultError("a summary is already in progress"), nil
	case errors.As(err, &validationErr):
		return mcp.NewToolResultError("no text to summarize"), nil
	case err != nil:
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatDocument(h.coord.Snapshot().Document)), nil
}

func (h *Host) ask(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	question, err := request.RequireString("question")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	turn, err := h.coord.Ask(ctx, question)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(turn.Message), nil
}

func (h *Host) resetChat(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	h.coord.ResetChat()

	return mcp.NewToolResultText("chat cleared"), nil
}

func (h *Host) listHistory(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := h.coord.RefreshHistory(ctx); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	entries := h.coord.History()
	if len(entries) == 0 {
		return mcp.NewToolResultText("no saved summaries"), nil
	}

	lines := make([]string, 0, len(entries))
	for _, entry := range entries {
		line := fmt.Sprintf("%d: %s", entry.ID, entry.Summary)
		if entry.SourceURL != "" {
			line += " (" + entry.SourceURL + ")"
		}
		lines = append(lines, line)
	}

	return mcp.NewToolResultText(strings.Join(lines, "\n")), nil
}

func (h *Host) loadHistory(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireInt("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if err = h.coord.LoadHistoryEntry(int64(id)); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatDocument(h.coord.Snapshot().Document)), nil
}

func formatDocument(doc *session.Document) string {
	if doc == nil {
		return "nothing summarized yet"
	}

	var b strings.Builder

	switch {
	case doc.SummaryErr != "":
		b.WriteString(doc.SummaryErr)
	case doc.Summary == "":
		b.WriteString("No summary returned.")
	default:
		b.WriteString(doc.Summary)
	}

	if len(doc.KeyPoints) > 0 {
		b.WriteString("\n\nKey points:")
		for _, point := range doc.KeyPoints {
			b.WriteString("\n- ")
			b.WriteString(point)
		}
	}

	if doc.SourceURL != "" {
		b.WriteString("\n\nSource: ")
		b.WriteString(doc.SourceURL)
	}

	return b.String()
}
