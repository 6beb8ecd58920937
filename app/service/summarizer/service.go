package summarizer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	_ "embed"

	"skimmer/app/config"
	"skimmer/app/model"

	"github.com/samber/do"
	"github.com/sashabaranov/go-openai"
)

//go:embed summarize_prompt.txt
var summarizePromptTemplate string

const (
	maxSummarizeDuration = 60 * time.Second
	maxCompletionTokens  = 1000
)

var ErrEmptyText = errors.New("no text provided")

var languageNames = map[string]string{
	"en": "English",
	"es": "Spanish",
	"fr": "French",
	"de": "German",
	"zh": "Chinese",
	"ja": "Japanese",
	"ar": "Arabic",
	"hi": "Hindi",
	"pt": "Portuguese",
}

type completer interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

type Service struct {
	client completer
	model  string
}

func New(di *do.Injector) (*Service, error) {
	cfg := do.MustInvoke[*config.Config](di)

	return NewService(createClient(cfg.OpenAI.Summary), cfg.OpenAI.Summary.Model), nil
}

func NewService(client completer, model string) *Service {
	return &Service{
		client: client,
		model:  model,
	}
}

func (s *Service) Summarize(ctx context.Context, text, language, preferences string) (model.SummaryResult, error) {
	if strings.TrimSpace(text) == "" {
		return model.SummaryResult{}, ErrEmptyText
	}

	templateValues := map[string]string{
		"language":    LanguageName(language),
		"preferences": preferences,
	}

	prompt := summarizePromptTemplate
	for key, value := range templateValues {
		prompt = strings.ReplaceAll(prompt, "{"+key+"}", value)
	}

	ctx, cancel := context.WithTimeout(ctx, maxSummarizeDuration)
	defer cancel()

	aiResponse, err := s.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model: s.model,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleSystem,
					Content: prompt,
				},
				{
					Role:    openai.ChatMessageRoleUser,
					Content: text,
				},
			},
			MaxCompletionTokens: maxCompletionTokens,
			ResponseFormat: &openai.ChatCompletionResponseFormat{
				Type: openai.ChatCompletionResponseFormatTypeJSONObject,
			},
		},
	)
	if err != nil {
		return model.SummaryResult{}, fmt.Errorf("failed to create chat completion: %w", err)
	}

	if len(aiResponse.Choices) == 0 {
		return model.SummaryResult{}, fmt.Errorf("no chat completion found")
	}

	return parseResult(aiResponse.Choices[0].Message.Content), nil
}

// LanguageName maps a language code to the name used in prompts.
func LanguageName(code string) string {
	if name, ok := languageNames[code]; ok {
		return name
	}

	return languageNames[model.DefaultLanguage]
}

// parseResult falls back to the raw output as the summary when it is not the
// expected JSON object.
func parseResult(content string) model.SummaryResult {
	raw := strings.TrimSpace(content)

	cleaned := strings.Trim(raw, "`")
	cleaned = strings.TrimSpace(cleaned)
	cleaned = strings.TrimPrefix(cleaned, "json")
	cleaned = strings.TrimSpace(cleaned)

	var result model.SummaryResult
	if err := json.Unmarshal([]byte(cleaned), &result); err != nil {
		slog.Warn("Model returned non-JSON summary", "error", err)
		return model.SummaryResult{Summary: raw, KeyPoints: []string{}}
	}

	if result.KeyPoints == nil {
		result.KeyPoints = []string{}
	}

	return result
}

func createClient(cfg config.ModelConfig) *openai.Client {
	clientConfig := openai.DefaultConfig(cfg.Token)

	clientConfig.BaseURL = cfg.BaseURL
	clientConfig.HTTPClient = &http.Client{
		Timeout: maxSummarizeDuration,
	}

	return openai.NewClientWithConfig(clientConfig)
}
