package popup

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"skimmer/app/model"
	"skimmer/app/service/session"
	"skimmer/app/service/signal"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBackend struct {
	mu        sync.Mutex
	summaries int
	questions []string
	entries   []model.HistoryEntry
	prefs     model.Preferences
	prefsErr  error
}

func (f *fakeBackend) Load(_ context.Context, _ int64) model.Preferences {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.prefs.Normalize()
}

func (f *fakeBackend) Save(_ context.Context, _ int64, prefs model.Preferences) (model.Preferences, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.prefsErr != nil {
		return model.Preferences{}, f.prefsErr
	}
	f.prefs = prefs

	return prefs, nil
}

func (f *fakeBackend) List(_ context.Context, _ int64) ([]model.HistoryEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]model.HistoryEntry(nil), f.entries...), nil
}

func (f *fakeBackend) Append(_ context.Context, entry model.NewHistoryEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.entries = append([]model.HistoryEntry{{
		ID:         int64(len(f.entries) + 1),
		SourceText: entry.SourceText,
		Summary:    entry.Summary,
		KeyPoints:  entry.KeyPoints,
		SourceURL:  entry.SourceURL,
	}}, f.entries...)

	return nil
}

func (f *fakeBackend) Summarize(_ context.Context, text, _, _ string) (model.SummaryResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.summaries++
	if strings.Contains(text, "fox") {
		return model.SummaryResult{Summary: "A fox story.", KeyPoints: []string{"fox", "brown"}}, nil
	}

	return model.SummaryResult{Summary: "", KeyPoints: nil}, nil
}

func (f *fakeBackend) Ask(_ context.Context, question string, _ model.ChatContext, _ string) (model.ChatReply, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.questions = append(f.questions, question)

	return model.ChatReply{Answer: "It is about a fox.", SessionID: "s1"}, nil
}

func runPopup(t *testing.T, backend *fakeBackend, signals *signal.Store, input string) string {
	t.Helper()

	var source session.SignalSource
	if signals != nil {
		source = signals
	}

	coord := session.NewCoordinator(1, backend, backend, backend, backend, source, session.FixedTab(""))

	var out bytes.Buffer
	host := NewHost(coord, strings.NewReader(input), &out)
	require.NoError(t, host.Run(context.Background()))

	return out.String()
}

func TestPopup_SummarizeThenChat(t *testing.T) {
	backend := &fakeBackend{}

	out := runPopup(t, backend, nil, "/summarize The quick brown fox...\nWhat is it about?\n")

	assert.Contains(t, out, "A fox story.")
	assert.Contains(t, out, "• fox")
	question := strings.Index(out, "You: What is it about?")
	answer := strings.Index(out, "Bot: It is about a fox.")
	require.GreaterOrEqual(t, question, 0)
	require.GreaterOrEqual(t, answer, 0)
	assert.Less(t, question, answer)
	assert.Equal(t, 1, strings.Count(out, "You: What is it about?"))
	assert.Equal(t, []string{"What is it about?"}, backend.questions)
	assert.Len(t, backend.entries, 1)
}

func TestPopup_EmptySummaryShowsPlaceholder(t *testing.T) {
	out := runPopup(t, &fakeBackend{}, nil, "/summarize some text\n")

	assert.Contains(t, out, noSummary)
}

func TestPopup_QuestionWithoutDocument(t *testing.T) {
	backend := &fakeBackend{}

	out := runPopup(t, backend, nil, "What is it about?\n")

	assert.Contains(t, out, "Summarize something first")
	assert.NotContains(t, out, "You:")
	assert.Empty(t, backend.questions)
}

func TestPopup_BlankSummarize(t *testing.T) {
	backend := &fakeBackend{}

	out := runPopup(t, backend, nil, "/summarize\n")

	assert.Contains(t, out, "Nothing to summarize")
	assert.Zero(t, backend.summaries)
}

func TestPopup_AutoSummarizeFromSignal(t *testing.T) {
	store, err := signal.NewStore(filepath.Join(t.TempDir(), "signal.json"))
	require.NoError(t, err)
	require.NoError(t, store.Set(signal.Signal{
		SelectedText:  "The quick brown fox...",
		AutoSummarize: true,
		SourceURL:     "https://example.com/fox",
	}))

	backend := &fakeBackend{}

	out := runPopup(t, backend, store, "/quit\n")
	assert.Contains(t, out, "A fox story.")
	assert.Contains(t, out, "https://example.com/fox")
	assert.Equal(t, 1, backend.summaries)
	assert.Equal(t, "https://example.com/fox", backend.entries[0].SourceURL)

	out = runPopup(t, backend, store, "/quit\n")
	assert.Contains(t, out, "Selected text ready")
	assert.Equal(t, 1, backend.summaries)
}

func TestPopup_HistoryAndLoad(t *testing.T) {
	backend := &fakeBackend{entries: []model.HistoryEntry{
		{ID: 42, SourceText: "Old text", Summary: "Old summary.", KeyPoints: []string{"old"}, SourceURL: "https://old"},
	}}

	out := runPopup(t, backend, nil, "/history\n/load 1\n/load 7\n")

	assert.Contains(t, out, " 1. Old summary.")
	assert.Contains(t, out, "• old")
	assert.Contains(t, out, "Usage: /load N")
	assert.Zero(t, backend.summaries)
}

func TestPopup_Preferences(t *testing.T) {
	backend := &fakeBackend{}

	out := runPopup(t, backend, nil, "/prefs set fr keep it short\n/prefs\n")

	assert.Contains(t, out, "Preferences saved.")
	assert.Contains(t, out, "language=fr preferences=keep it short")
	assert.Equal(t, model.Preferences{Preferences: "keep it short", Language: "fr"}, backend.prefs)
}

func TestPopup_PreferencesFailureKeepsOld(t *testing.T) {
	backend := &fakeBackend{prefsErr: errors.New("service error [preferences]: status 500")}

	out := runPopup(t, backend, nil, "/prefs set fr\n/prefs\n")

	assert.Contains(t, out, "Failed to save preferences: service error [preferences]: status 500")
	assert.Contains(t, out, "language=en")
}

func TestPopup_ResetAndUnknownCommand(t *testing.T) {
	out := runPopup(t, &fakeBackend{}, nil, "/summarize The quick brown fox...\n/reset\n/bogus\n/quit\nignored question\n")

	assert.Contains(t, out, "Chat cleared.")
	assert.Contains(t, out, "Unknown command /bogus")
	assert.NotContains(t, out, "ignored question")
}

func TestPreview(t *testing.T) {
	assert.Equal(t, "a b c", preview("a\n b   c", 10))
	assert.Equal(t, "abc…", preview("abcdef", 3))
}
