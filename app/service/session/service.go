package session

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"skimmer/app/client/backend"
	"skimmer/app/config"
	"skimmer/app/model"
	"skimmer/app/service/signal"

	"github.com/elliotchance/pie/v2"
	"github.com/samber/do"
)

const noAnswer = "No response from server."

// Coordinator owns the single active Document and drives the remote clients.
// It is safe for use from several goroutines; the lock is never held across a
// network call.
type Coordinator struct {
	userID     int64
	prefsStore PreferencesStore
	history    HistoryStore
	summarizer Summarizer
	chat       Chatter
	signals    SignalSource
	tabs       TabLocator

	mu          sync.Mutex
	prefs       model.Preferences
	prefsLoaded bool
	doc         *Document
	draft       string
	draftURL    string
	entries     []model.HistoryEntry

	// docGen changes whenever the document is replaced, chatGen whenever its
	// chat is discarded. Responses tagged with an older value are dropped.
	docGen  uint64
	chatGen uint64

	summarizing    bool
	summarizingGen uint64
	pendingChats   int
}

func New(di *do.Injector) (*Coordinator, error) {
	cfg := do.MustInvoke[*config.Config](di)

	// The host decides whether a tab is known.
	tabs, _ := do.Invoke[TabLocator](di)

	return NewCoordinator(
		cfg.Service.UserID,
		do.MustInvoke[*backend.PreferencesClient](di),
		do.MustInvoke[*backend.HistoryClient](di),
		do.MustInvoke[*backend.SummarizeClient](di),
		do.MustInvoke[*backend.ChatClient](di),
		do.MustInvoke[*signal.Store](di),
		tabs,
	), nil
}

func NewCoordinator(
	userID int64,
	prefsStore PreferencesStore,
	history HistoryStore,
	summarizer Summarizer,
	chat Chatter,
	signals SignalSource,
	tabs TabLocator,
) *Coordinator {
	return &Coordinator{
		userID:     userID,
		prefsStore: prefsStore,
		history:    history,
		summarizer: summarizer,
		chat:       chat,
		signals:    signals,
		tabs:       tabs,
		prefs:      model.DefaultPreferences(),
	}
}

// Init loads preferences and history, then consumes a pending auto-summarize signal.
func (c *Coordinator) Init(ctx context.Context) error {
	c.loadPreferences(ctx)

	if err := c.RefreshHistory(ctx); err != nil {
		slog.Warn("Failed to load history", "error", err)
	}

	if c.signals == nil {
		return nil
	}

	sig, err := c.signals.Take()
	if err != nil {
		slog.Warn("Failed to read signal", "error", err)
		return nil
	}

	if strings.TrimSpace(sig.SelectedText) == "" {
		return nil
	}

	c.mu.Lock()
	c.draft = sig.SelectedText
	c.draftURL = sig.SourceURL
	c.mu.Unlock()

	if !sig.AutoSummarize {
		return nil
	}

	slog.Info("Auto-summarizing selection", "length", len(sig.SelectedText))

	return c.Summarize(ctx, sig.SelectedText)
}

// Summarize replaces the active document with text and asks the service for its
// summary. The result is saved to history even if the document was replaced meanwhile.
func (c *Coordinator) Summarize(ctx context.Context, text string) error {
	if strings.TrimSpace(text) == "" {
		return &model.ValidationError{Field: "text", Reason: "must not be blank"}
	}

	c.mu.Lock()
	if c.summarizing {
		c.mu.Unlock()
		return model.ErrBusy
	}
	c.summarizing = true
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.summarizing = false
		c.mu.Unlock()
	}()

	sourceURL := c.sourceURL(ctx, text)
	prefs := c.ensurePreferences(ctx)

	c.mu.Lock()
	c.docGen++
	c.chatGen++
	gen := c.docGen
	c.summarizingGen = gen
	c.draft = text
	c.draftURL = sourceURL
	c.doc = &Document{
		SourceText: text,
		SourceURL:  sourceURL,
	}
	c.mu.Unlock()

	result, err := c.summarizer.Summarize(ctx, text, prefs.Language, prefs.Preferences)

	c.mu.Lock()
	current := gen == c.docGen
	if err != nil {
		if current {
			c.doc.SummaryErr = "Error: " + err.Error()
		}
		c.mu.Unlock()
		return fmt.Errorf("summarize: %w", err)
	}

	keyPoints := result.KeyPoints
	if keyPoints == nil {
		keyPoints = []string{}
	}

	if current {
		c.doc.Summary = result.Summary
		c.doc.KeyPoints = slices.Clone(keyPoints)
	} else {
		slog.Warn("Document replaced while summarizing, result kept in history only")
	}
	c.mu.Unlock()

	slog.Info("Summarized text", "length", len(text), "key_points", len(keyPoints))

	err = c.history.Append(ctx, model.NewHistoryEntry{
		UserID:     c.userID,
		SourceText: text,
		Summary:    result.Summary,
		KeyPoints:  keyPoints,
		SourceURL:  sourceURL,
	})
	if err != nil {
		slog.Warn("Failed to save summary to history", "error", err)
	}

	if err = c.RefreshHistory(ctx); err != nil {
		slog.Warn("Failed to refresh history", "error", err)
	}

	return nil
}

// Ask sends a question about the active document and appends both turns to its
// transcript. A failed request is recorded as a bot turn rather than returned.
func (c *Coordinator) Ask(ctx context.Context, question string) (model.Turn, error) {
	if strings.TrimSpace(question) == "" {
		return model.Turn{}, &model.ValidationError{Field: "question", Reason: "must not be blank"}
	}

	c.mu.Lock()
	if c.doc == nil {
		c.mu.Unlock()
		return model.Turn{}, &model.ValidationError{Field: "document", Reason: "nothing to chat about yet"}
	}

	c.doc.Transcript = append(c.doc.Transcript, model.Turn{Sender: model.SenderUser, Message: question})
	gen := c.chatGen
	sessionID := c.doc.ChatSessionID
	chatCtx := c.doc.chatContext()
	c.pendingChats++
	c.mu.Unlock()

	reply, err := c.chat.Ask(ctx, question, chatCtx, sessionID)

	c.mu.Lock()
	defer c.mu.Unlock()

	c.pendingChats--

	if gen != c.chatGen {
		slog.Warn("Dropping chat reply for a discarded conversation", "question", question)
		return model.Turn{}, model.ErrSuperseded
	}

	turn := model.Turn{Sender: model.SenderBot}
	switch {
	case err != nil:
		slog.Warn("Chat request failed", "error", err)
		turn.Message = "Error: " + err.Error()
	case reply.Answer == "":
		turn.Message = noAnswer
	default:
		turn.Message = reply.Answer
	}

	if err == nil && reply.SessionID != "" {
		c.doc.ChatSessionID = reply.SessionID
	}

	c.doc.Transcript = append(c.doc.Transcript, turn)

	return turn, nil
}

// ResetChat forgets the conversation but keeps the summary.
func (c *Coordinator) ResetChat() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.chatGen++
	if c.doc != nil {
		c.doc.resetChat()
	}
}

// LoadHistoryEntry makes a stored summary the active document without asking
// the service to summarize again.
func (c *Coordinator) LoadHistoryEntry(id int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	idx := pie.FindFirstUsing(c.entries, func(e model.HistoryEntry) bool {
		return e.ID == id
	})
	if idx < 0 {
		return fmt.Errorf("%w: %d", model.ErrHistoryEntryNotFound, id)
	}

	entry := c.entries[idx]

	c.docGen++
	c.chatGen++
	c.draft = entry.SourceText
	c.draftURL = entry.SourceURL
	c.doc = &Document{
		SourceText: entry.SourceText,
		SourceURL:  entry.SourceURL,
		Summary:    entry.Summary,
		KeyPoints:  slices.Clone(entry.KeyPoints),
	}

	slog.Debug("Loaded history entry", "id", id, "url", entry.SourceURL)

	return nil
}

// RefreshHistory reloads the saved summaries from the service.
func (c *Coordinator) RefreshHistory(ctx context.Context) error {
	entries, err := c.history.List(ctx, c.userID)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.entries = entries
	c.mu.Unlock()

	return nil
}

func (c *Coordinator) History() []model.HistoryEntry {
	c.mu.Lock()
	defer c.mu.Unlock()

	return slices.Clone(c.entries)
}

// Preferences returns the preferences summaries are currently requested with.
func (c *Coordinator) Preferences() model.Preferences {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.prefs
}

// SavePreferences keeps the previous preferences when the service rejects the update.
func (c *Coordinator) SavePreferences(ctx context.Context, prefs model.Preferences) (model.Preferences, error) {
	saved, err := c.prefsStore.Save(ctx, c.userID, prefs)
	if err != nil {
		return c.Preferences(), err
	}

	c.mu.Lock()
	c.prefs = saved
	c.prefsLoaded = true
	c.mu.Unlock()

	return saved, nil
}

// Snapshot returns the current state and a copy of the active document.
func (c *Coordinator) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	return Snapshot{
		State:    c.state(),
		Document: c.doc.clone(),
	}
}

// State reports what the coordinator is doing right now.
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.state()
}

// Draft is the text the next summarize action would use.
func (c *Coordinator) Draft() string {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.draft
}

// SetDraft replaces the pending text. A different text loses the page address
// the previous one came with.
func (c *Coordinator) SetDraft(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if text != c.draft {
		c.draftURL = ""
	}
	c.draft = text
}

func (c *Coordinator) state() State {
	switch {
	case c.summarizing && c.summarizingGen == c.docGen:
		return StateSummarizing
	case c.doc == nil:
		return StateEmpty
	case c.pendingChats > 0:
		return StateChatting
	default:
		return StateReady
	}
}

func (c *Coordinator) loadPreferences(ctx context.Context) model.Preferences {
	prefs := c.prefsStore.Load(ctx, c.userID)

	c.mu.Lock()
	defer c.mu.Unlock()

	c.prefs = prefs
	c.prefsLoaded = true

	return prefs
}

func (c *Coordinator) ensurePreferences(ctx context.Context) model.Preferences {
	c.mu.Lock()
	loaded, prefs := c.prefsLoaded, c.prefs
	c.mu.Unlock()

	if loaded {
		return prefs
	}

	return c.loadPreferences(ctx)
}

// sourceURL keeps the address a selection arrived with and asks the tab
// locator for any other text.
func (c *Coordinator) sourceURL(ctx context.Context, text string) string {
	c.mu.Lock()
	draft, draftURL := c.draft, c.draftURL
	c.mu.Unlock()

	if draftURL != "" && text == draft {
		return draftURL
	}

	return c.currentURL(ctx)
}

func (c *Coordinator) currentURL(ctx context.Context) string {
	if c.tabs == nil {
		return ""
	}

	url, err := c.tabs.CurrentURL(ctx)
	if err != nil {
		slog.Warn("Could not get current tab URL", "error", err)
		return ""
	}

	return url
}
