package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "embed"

	"skimmer/app/config"
	"skimmer/app/model"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"github.com/samber/do"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

//go:embed chat_prompt_template.txt
var chatPromptTemplate string

const (
	maxAnswerDuration = 60 * time.Second
	maxAnswerTokens   = 800
	maxSessionTurns   = 40
)

var ErrEmptyQuestion = errors.New("no question provided")

// Service answers follow-up questions about a summarized document and keeps
// each conversation in memory, keyed by session id, until it goes idle.
type Service struct {
	llm      llms.Model
	sessions *cache.Cache
	ttl      time.Duration

	mu sync.Mutex
}

func New(di *do.Injector) (*Service, error) {
	cfg := do.MustInvoke[*config.Config](di)

	llm, err := openai.New(
		openai.WithToken(cfg.OpenAI.Chat.Token),
		openai.WithBaseURL(cfg.OpenAI.Chat.BaseURL),
		openai.WithModel(cfg.OpenAI.Chat.Model),
		openai.WithCallback(LogCallbackHandler{}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat model: %w", err)
	}

	return NewService(llm, cfg.Server.ChatTTL), nil
}

func NewService(llm llms.Model, ttl time.Duration) *Service {
	return &Service{
		llm:      llm,
		sessions: cache.New(ttl, ttl*2),
		ttl:      ttl,
	}
}

// Ask answers question using chatCtx. An empty sessionID starts a new
// conversation; an unknown one is recreated empty under the same id.
func (s *Service) Ask(ctx context.Context, question string, chatCtx model.ChatContext, sessionID string) (model.ChatReply, error) {
	if strings.TrimSpace(question) == "" {
		return model.ChatReply{}, ErrEmptyQuestion
	}

	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, systemPrompt(chatCtx)),
	}
	messages = append(messages, s.history(sessionID)...)
	messages = append(messages, llms.TextParts(llms.ChatMessageTypeHuman, question))

	ctx, cancel := context.WithTimeout(ctx, maxAnswerDuration)
	defer cancel()

	resp, err := s.llm.GenerateContent(ctx, messages, llms.WithMaxTokens(maxAnswerTokens))
	if err != nil {
		return model.ChatReply{}, fmt.Errorf("failed to generate answer: %w", err)
	}

	var answer string
	if len(resp.Choices) > 0 {
		answer = strings.TrimSpace(resp.Choices[0].Content)
	}

	s.remember(sessionID,
		llms.TextParts(llms.ChatMessageTypeHuman, question),
		llms.TextParts(llms.ChatMessageTypeAI, answer),
	)

	return model.ChatReply{
		Answer:    answer,
		SessionID: sessionID,
	}, nil
}

func (s *Service) history(sessionID string) []llms.MessageContent {
	s.mu.Lock()
	defer s.mu.Unlock()

	value, ok := s.sessions.Get(sessionID)
	if !ok {
		return nil
	}

	stored := value.([]llms.MessageContent)

	return append([]llms.MessageContent(nil), stored...)
}

func (s *Service) remember(sessionID string, turns ...llms.MessageContent) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var stored []llms.MessageContent
	if value, ok := s.sessions.Get(sessionID); ok {
		stored = value.([]llms.MessageContent)
	}

	stored = append(append([]llms.MessageContent(nil), stored...), turns...)
	if len(stored) > maxSessionTurns {
		stored = stored[len(stored)-maxSessionTurns:]
	}

	s.sessions.Set(sessionID, stored, s.ttl)
}

func systemPrompt(chatCtx model.ChatContext) string {
	templateValues := map[string]string{
		"text":       chatCtx.Text,
		"summary":    chatCtx.Summary,
		"key_points": strings.Join(chatCtx.KeyPoints, "; "),
	}

	prompt := chatPromptTemplate
	for key, value := range templateValues {
		prompt = strings.ReplaceAll(prompt, "{"+key+"}", value)
	}

	return prompt
}
