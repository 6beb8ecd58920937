package popup

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"

	"skimmer/app/model"
	"skimmer/app/service/session"

	"github.com/samber/do"
)

const maxLineSize = 1024 * 1024

// Host is the terminal popup: it reads commands and questions line by line and
// renders the coordinator's state after each action.
type Host struct {
	coord *session.Coordinator
	in    io.Reader
	out   io.Writer
	st    styles

	outMu sync.Mutex
	chats sync.WaitGroup
}

func New(di *do.Injector) (*Host, error) {
	return NewHost(do.MustInvoke[*session.Coordinator](di), os.Stdin, os.Stdout), nil
}

func NewHost(coord *session.Coordinator, in io.Reader, out io.Writer) *Host {
	return &Host{
		coord: coord,
		in:    in,
		out:   out,
		st:    newStyles(out),
	}
}

// Run initializes the session and serves input until EOF, /quit or ctx is
// cancelled. Chat replies still in flight are awaited before returning.
func (h *Host) Run(ctx context.Context) error {
	defer h.chats.Wait()

	if err := h.coord.Init(ctx); err != nil {
		h.print(h.st.failure("Error: " + err.Error()))
	}

	h.print(h.st.document(h.coord.Snapshot()))
	if draft := h.coord.Draft(); draft != "" && h.coord.Snapshot().Document == nil {
		h.print(h.st.muted.Render("Selected text ready, type /summarize to summarize it."))
	}
	h.print(h.st.muted.Render("Type /help for commands."))

	scanner := bufio.NewScanner(h.in)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	for scanner.Scan() {
		if ctx.Err() != nil {
			return nil
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if !strings.HasPrefix(line, "/") {
			h.ask(ctx, line)
			continue
		}

		if quit := h.command(ctx, line); quit {
			return nil
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read input: %w", err)
	}

	return nil
}

func (h *Host) command(ctx context.Context, line string) bool {
	name, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)

	switch name {
	case "/quit", "/exit":
		return true
	case "/help":
		h.print(h.st.help())
	case "/summarize":
		h.summarize(ctx, arg)
	case "/show":
		h.print(h.st.document(h.coord.Snapshot()))
	case "/history":
		if err := h.coord.RefreshHistory(ctx); err != nil {
			h.print(h.st.failure("Could not refresh history: " + err.Error()))
		}
		h.print(h.st.history(h.coord.History()))
	case "/load":
		h.load(arg)
	case "/reset":
		h.coord.ResetChat()
		h.print(h.st.muted.Render("Chat cleared."))
	case "/prefs":
		h.preferences(ctx, arg)
	default:
		h.print(h.st.failure("Unknown command " + name + ", type /help"))
	}

	return false
}

func (h *Host) summarize(ctx context.Context, text string) {
	if text == "" {
		text = h.coord.Draft()
	}

	h.print(h.st.muted.Render("Summarizing..."))

	err := h.coord.Summarize(ctx, text)

	var validationErr *model.ValidationError
	switch {
	case errors.Is(err, model.ErrBusy):
		h.print(h.st.failure("A summary is already in progress."))
		return
	case errors.As(err, &validationErr):
		h.print(h.st.failure("Nothing to summarize. Select some text or type /summarize <text>."))
		return
	}

	h.print(h.st.document(h.coord.Snapshot()))
}

func (h *Host) load(arg string) {
	n, err := strconv.Atoi(arg)
	entries := h.coord.History()
	if err != nil || n < 1 || n > len(entries) {
		h.print(h.st.failure("Usage: /load N, where N is a number from /history"))
		return
	}

	if err = h.coord.LoadHistoryEntry(entries[n-1].ID); err != nil {
		h.print(h.st.failure("Error: " + err.Error()))
		return
	}

	h.print(h.st.document(h.coord.Snapshot()))
}

func (h *Host) preferences(ctx context.Context, arg string) {
	sub, rest, _ := strings.Cut(arg, " ")
	if sub != "set" {
		h.print(h.st.preferences(h.coord.Preferences()))
		return
	}

	language, text, _ := strings.Cut(strings.TrimSpace(rest), " ")
	if language == "" {
		h.print(h.st.failure("Usage: /prefs set <lang> [text]"))
		return
	}

	saved, err := h.coord.SavePreferences(ctx, model.Preferences{
		Preferences: strings.TrimSpace(text),
		Language:    language,
	})
	if err != nil {
		h.print(h.st.failure("Failed to save preferences: " + err.Error()))
		return
	}

	h.print(h.st.muted.Render("Preferences saved."))
	h.print(h.st.preferences(saved))
}

func (h *Host) ask(ctx context.Context, question string) {
	if h.coord.Snapshot().Document == nil {
		h.print(h.st.failure(noDocument))
		return
	}

	h.print(h.st.turn(model.Turn{Sender: model.SenderUser, Message: question}))

	h.chats.Add(1)

	go func() {
		defer h.chats.Done()

		turn, err := h.coord.Ask(ctx, question)

		var validationErr *model.ValidationError
		switch {
		case errors.Is(err, model.ErrSuperseded):
			return
		case errors.As(err, &validationErr):
			h.print(h.st.failure(noDocument))
			return
		case err != nil:
			h.print(h.st.failure("Error: " + err.Error()))
			return
		}

		h.print(h.st.turn(turn))
	}()
}

func (h *Host) print(text string) {
	h.outMu.Lock()
	defer h.outMu.Unlock()

	fmt.Fprintln(h.out, text)
}
