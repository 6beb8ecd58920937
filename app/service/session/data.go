package session

import (
	"context"
	"slices"

	"skimmer/app/model"
	"skimmer/app/service/signal"
)

type State string

const (
	StateEmpty       State = "empty"
	StateSummarizing State = "summarizing"
	StateReady       State = "ready"
	StateChatting    State = "chatting"
)

// Document is the working unit: source text, its summary and the chat about it.
type Document struct {
	SourceText    string
	SourceURL     string
	Summary       string
	SummaryErr    string
	KeyPoints     []string
	ChatSessionID string
	Transcript    []model.Turn
}

func (d *Document) clone() *Document {
	if d == nil {
		return nil
	}

	cp := *d
	cp.KeyPoints = slices.Clone(d.KeyPoints)
	cp.Transcript = slices.Clone(d.Transcript)

	return &cp
}

func (d *Document) resetChat() {
	d.ChatSessionID = ""
	d.Transcript = nil
}

func (d *Document) chatContext() model.ChatContext {
	return model.ChatContext{
		Text:      d.SourceText,
		Summary:   d.Summary,
		KeyPoints: slices.Clone(d.KeyPoints),
	}
}

type Snapshot struct {
	State    State
	Document *Document
}

// PreferencesStore loads and saves the summary preferences of a user.
type PreferencesStore interface {
	Load(ctx context.Context, userID int64) model.Preferences
	Save(ctx context.Context, userID int64, prefs model.Preferences) (model.Preferences, error)
}

// HistoryStore lists and appends saved summaries.
type HistoryStore interface {
	List(ctx context.Context, userID int64) ([]model.HistoryEntry, error)
	Append(ctx context.Context, entry model.NewHistoryEntry) error
}

type Summarizer interface {
	Summarize(ctx context.Context, text, language, preferences string) (model.SummaryResult, error)
}

type Chatter interface {
	Ask(ctx context.Context, question string, chatCtx model.ChatContext, sessionID string) (model.ChatReply, error)
}

type SignalSource interface {
	Take() (signal.Signal, error)
}

// TabLocator reports the address of the page the text came from.
type TabLocator interface {
	CurrentURL(ctx context.Context) (string, error)
}

// FixedTab is a TabLocator for hosts told the page address up front.
type FixedTab string

func (t FixedTab) CurrentURL(context.Context) (string, error) {
	return string(t), nil
}
