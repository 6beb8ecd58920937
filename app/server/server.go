package server

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"skimmer/app/config"
	"skimmer/app/model"
	"skimmer/app/service/assistant"
	"skimmer/app/service/summarizer"
	"skimmer/app/storage"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/samber/do"
	"golang.org/x/sync/errgroup"
)

const bodyLimit = 4 * 1024 * 1024

var _ do.Shutdownable = (*Server)(nil)

type Store interface {
	SaveSummary(ctx context.Context, entry model.NewHistoryEntry) (int64, error)
	ListSummaries(ctx context.Context, userID int64) ([]model.HistoryEntry, error)
	GetPreferences(ctx context.Context, userID int64) (storage.PreferencesRecord, error)
	UpsertPreferences(ctx context.Context, record storage.PreferencesRecord) (storage.PreferencesRecord, error)
}

type Summarizer interface {
	Summarize(ctx context.Context, text, language, preferences string) (model.SummaryResult, error)
}

type Assistant interface {
	Ask(ctx context.Context, question string, chatCtx model.ChatContext, sessionID string) (model.ChatReply, error)
}

// Server is the reference implementation of the summarization service.
type Server struct {
	app    *fiber.App
	listen string

	store      Store
	summarizer Summarizer
	assistant  Assistant

	validate *validator.Validate
	metrics  *metrics

	stopOnce sync.Once
	stopErr  error
}

func New(di *do.Injector) (*Server, error) {
	cfg := do.MustInvoke[*config.Config](di)

	return NewServer(
		cfg.Server.Listen,
		do.MustInvoke[*storage.Store](di),
		do.MustInvoke[*summarizer.Service](di),
		do.MustInvoke[*assistant.Service](di),
	), nil
}

func NewServer(listen string, store Store, summarizer Summarizer, assistant Assistant) *Server {
	s := &Server{
		app: fiber.New(fiber.Config{
			BodyLimit:             bodyLimit,
			DisableStartupMessage: true,
		}),
		listen:     listen,
		store:      store,
		summarizer: summarizer,
		assistant:  assistant,
		validate:   validator.New(),
		metrics:    newMetrics(),
	}

	s.app.Use(recover.New())
	s.app.Use(s.metrics.middleware)

	s.registerRoutes()

	return s
}

func (s *Server) registerRoutes() {
	s.app.Get("/preferences/:userId", s.getPreferences)
	s.app.Put("/preferences/:userId", s.updatePreferences)
	s.app.Post("/summarize", s.summarize)
	s.app.Post("/chat", s.chat)
	s.app.Post("/save_summary", s.saveSummary)
	s.app.Get("/summaries", s.listSummaries)
	s.app.Get("/metrics", s.metrics.handler())
}

// Run serves until ctx is cancelled or the listener fails.
func (s *Server) Run(ctx context.Context) error {
	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		slog.Info("Server listening", "addr", s.listen)

		if err := s.app.Listen(s.listen); err != nil {
			return fmt.Errorf("listen: %w", err)
		}

		return nil
	})

	group.Go(func() error {
		<-groupCtx.Done()

		slog.Info("Shutting down server...")

		return s.Shutdown()
	})

	return group.Wait()
}

func (s *Server) Shutdown() error {
	s.stopOnce.Do(func() {
		s.stopErr = s.app.Shutdown()
	})

	return s.stopErr
}
