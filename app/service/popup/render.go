package popup

import (
	"fmt"
	"io"
	"strings"

	"skimmer/app/model"
	"skimmer/app/service/session"

	"github.com/charmbracelet/lipgloss"
)

const (
	noSummary      = "No summary returned."
	noDocument     = "Summarize something first, then ask about it."
	previewLength  = 160
	historyPreview = 70
)

type styles struct {
	title  lipgloss.Style
	muted  lipgloss.Style
	box    lipgloss.Style
	bullet lipgloss.Style
	user   lipgloss.Style
	bot    lipgloss.Style
	err    lipgloss.Style
}

func newStyles(out io.Writer) styles {
	r := lipgloss.NewRenderer(out)

	return styles{
		title:  r.NewStyle().Bold(true).Foreground(lipgloss.Color("63")),
		muted:  r.NewStyle().Foreground(lipgloss.Color("245")),
		box:    r.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("63")).Padding(0, 1),
		bullet: r.NewStyle().Foreground(lipgloss.Color("212")),
		user:   r.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
		bot:    r.NewStyle().Bold(true).Foreground(lipgloss.Color("42")),
		err:    r.NewStyle().Foreground(lipgloss.Color("196")),
	}
}

func (s styles) document(snap session.Snapshot) string {
	doc := snap.Document
	if doc == nil {
		return s.muted.Render("Nothing summarized yet. Select some text or type /summarize <text>.")
	}

	var b strings.Builder

	b.WriteString(s.title.Render("Source"))
	b.WriteString("\n")
	b.WriteString(preview(doc.SourceText, previewLength))
	if doc.SourceURL != "" {
		b.WriteString("\n")
		b.WriteString(s.muted.Render(doc.SourceURL))
	}
	b.WriteString("\n\n")

	b.WriteString(s.title.Render("Summary"))
	b.WriteString("\n")
	switch {
	case snap.State == session.StateSummarizing:
		b.WriteString(s.muted.Render("Summarizing..."))
	case doc.SummaryErr != "":
		b.WriteString(s.err.Render(doc.SummaryErr))
	case doc.Summary == "":
		b.WriteString(noSummary)
	default:
		b.WriteString(doc.Summary)
	}

	if len(doc.KeyPoints) > 0 {
		b.WriteString("\n\n")
		b.WriteString(s.title.Render("Key points"))
		for _, point := range doc.KeyPoints {
			b.WriteString("\n")
			b.WriteString(s.bullet.Render("•"))
			b.WriteString(" ")
			b.WriteString(point)
		}
	}

	out := s.box.Render(b.String())

	if len(doc.Transcript) > 0 {
		lines := make([]string, 0, len(doc.Transcript))
		for _, turn := range doc.Transcript {
			lines = append(lines, s.turn(turn))
		}
		out += "\n" + strings.Join(lines, "\n")
	}

	return out
}

func (s styles) turn(turn model.Turn) string {
	if turn.Sender == model.SenderUser {
		return s.user.Render("You:") + " " + turn.Message
	}

	if strings.HasPrefix(turn.Message, "Error: ") {
		return s.bot.Render("Bot:") + " " + s.err.Render(turn.Message)
	}

	return s.bot.Render("Bot:") + " " + turn.Message
}

func (s styles) history(entries []model.HistoryEntry) string {
	if len(entries) == 0 {
		return s.muted.Render("No saved summaries.")
	}

	lines := []string{s.title.Render("History")}
	for i, entry := range entries {
		line := fmt.Sprintf("%2d. %s", i+1, preview(entry.Summary, historyPreview))
		if entry.SourceURL != "" {
			line += " " + s.muted.Render(entry.SourceURL)
		}
		lines = append(lines, line)
	}

	return strings.Join(lines, "\n")
}

func (s styles) preferences(prefs model.Preferences) string {
	text := prefs.Preferences
	if text == "" {
		text = s.muted.Render("(none)")
	}

	return fmt.Sprintf("%s language=%s preferences=%s", s.title.Render("Preferences"), prefs.Language, text)
}

func (s styles) help() string {
	return s.muted.Render(strings.Join([]string{
		"/summarize [text]           summarize text or the current selection",
		"/history                    list saved summaries",
		"/load N                     open saved summary N",
		"/reset                      start a new chat about the current summary",
		"/prefs                      show preferences",
		"/prefs set <lang> [text]    save preferences",
		"/show                       show the current summary and chat",
		"/quit                       exit",
		"anything else               ask a question about the summary",
	}, "\n"))
}

func (s styles) failure(msg string) string {
	return s.err.Render(msg)
}

func preview(text string, limit int) string {
	text = strings.Join(strings.Fields(text), " ")

	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}

	return string(runes[:limit]) + "…"
}
