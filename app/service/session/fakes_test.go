package session

import (
	"context"
	"errors"
	"sync"

	"skimmer/app/model"
	"skimmer/app/service/signal"
)

type fakePrefs struct {
	mu        sync.Mutex
	stored    model.Preferences
	saveErr   error
	loadCalls int
	saveCalls int
}

func (f *fakePrefs) Load(_ context.Context, _ int64) model.Preferences {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.loadCalls++
	return f.stored.Normalize()
}

func (f *fakePrefs) Save(_ context.Context, _ int64, prefs model.Preferences) (model.Preferences, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.saveCalls++
	if f.saveErr != nil {
		return model.Preferences{}, f.saveErr
	}

	f.stored = prefs
	return prefs.Normalize(), nil
}

type fakeHistory struct {
	mu        sync.Mutex
	entries   []model.HistoryEntry
	appended  []model.NewHistoryEntry
	listErr   error
	appendErr error
	listCalls int
}

func (f *fakeHistory) List(_ context.Context, _ int64) ([]model.HistoryEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.listCalls++
	if f.listErr != nil {
		return nil, f.listErr
	}

	return append([]model.HistoryEntry(nil), f.entries...), nil
}

func (f *fakeHistory) Append(_ context.Context, entry model.NewHistoryEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.appended = append(f.appended, entry)
	if f.appendErr != nil {
		return f.appendErr
	}

	f.entries = append([]model.HistoryEntry{{
		ID:         int64(len(f.entries) + 1),
		UserID:     entry.UserID,
		SourceText: entry.SourceText,
		Summary:    entry.Summary,
		KeyPoints:  entry.KeyPoints,
		SourceURL:  entry.SourceURL,
	}}, f.entries...)

	return nil
}

func (f *fakeHistory) appendedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return len(f.appended)
}

type summarizeCall struct {
	Text        string
	Language    string
	Preferences string
}

type fakeSummarizer struct {
	mu     sync.Mutex
	calls  []summarizeCall
	result model.SummaryResult
	err    error

	// When set, each call reports on started and waits for release.
	started chan struct{}
	release chan struct{}
}

func (f *fakeSummarizer) Summarize(_ context.Context, text, language, preferences string) (model.SummaryResult, error) {
	f.mu.Lock()
	f.calls = append(f.calls, summarizeCall{text, language, preferences})
	started, release := f.started, f.release
	f.mu.Unlock()

	if started != nil {
		started <- struct{}{}
		<-release
	}

	return f.result, f.err
}

func (f *fakeSummarizer) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return len(f.calls)
}

type chatCall struct {
	Question  string
	Context   model.ChatContext
	SessionID string
}

type fakeChat struct {
	mu    sync.Mutex
	calls []chatCall

	// reply builds the response for the n-th call (0 based).
	reply func(n int, question string) (model.ChatReply, error)

	// Questions listed here block until their channel is closed.
	gates   map[string]chan struct{}
	started chan string
}

func (f *fakeChat) Ask(_ context.Context, question string, chatCtx model.ChatContext, sessionID string) (model.ChatReply, error) {
	f.mu.Lock()
	n := len(f.calls)
	f.calls = append(f.calls, chatCall{question, chatCtx, sessionID})
	gate := f.gates[question]
	started := f.started
	f.mu.Unlock()

	if started != nil {
		started <- question
	}
	if gate != nil {
		<-gate
	}

	if f.reply == nil {
		return model.ChatReply{Answer: "answer to " + question, SessionID: "session-1"}, nil
	}

	return f.reply(n, question)
}

func (f *fakeChat) sessionIDs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	ids := make([]string, 0, len(f.calls))
	for _, call := range f.calls {
		ids = append(ids, call.SessionID)
	}

	return ids
}

type fakeSignals struct {
	mu    sync.Mutex
	sig   signal.Signal
	takes int
}

func (f *fakeSignals) Take() (signal.Signal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.takes++
	sig := f.sig
	f.sig.AutoSummarize = false

	return sig, nil
}

type staticTab struct {
	url string
	err error
}

func (s staticTab) CurrentURL(context.Context) (string, error) {
	return s.url, s.err
}

var errNoTab = errors.New("no active tab")
