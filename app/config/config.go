package config

import (
	"errors"
	"io/fs"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/samber/oops"
	"gopkg.in/yaml.v3"
)

const DefaultPath = "config.yaml"

type Config struct {
	Log     Log     `yaml:"log"`
	Service Service `yaml:"service"`
	Signal  Signal  `yaml:"signal"`
	Server  Server  `yaml:"server"`
	OpenAI  OpenAI  `yaml:"openai"`
}

type Service struct {
	// Base URL of the summarization service
	BaseURL string `yaml:"base_url" example:"http://localhost:5000" validate:"required,url"`
	// User whose preferences and history are used
	UserID int64 `yaml:"user_id" example:"1" validate:"gt=0"`
	// Per request timeout
	Timeout time.Duration `yaml:"timeout" example:"30s" validate:"gt=0"`
}

type Signal struct {
	// File shared between the select action and the popup
	Path string `yaml:"path" example:"data/signal.json" validate:"required"`
}

type Server struct {
	// Address the reference backend listens on
	Listen string `yaml:"listen" example:":5000" validate:"required"`
	// SQLite database file
	DBPath string `yaml:"db_path" example:"data/skimmer.db" validate:"required"`
	// How long an idle chat session is remembered
	ChatTTL time.Duration `yaml:"chat_ttl" example:"1h" validate:"gt=0"`
}

type OpenAI struct {
	Summary ModelConfig `yaml:"summary" validate:"required"`
	Chat    ModelConfig `yaml:"chat" validate:"required"`
}

type ModelConfig struct {
	// OpenAI compatible base url
	BaseURL string `yaml:"base_url" example:"https://api.deepseek.com" validate:"required"`
	// API token
	Token string `yaml:"token" example:"sk-abc123" validate:"required"`
	// Model name
	Model string `yaml:"model" example:"deepseek-chat" validate:"required"`
}

type Log struct {
	// Telegram logging config
	Telegram TelegramLog `yaml:"telegram"`
}

type TelegramLog struct {
	// Chat bot token, obtain it via BotFather
	Token string `yaml:"token" example:"1234567890:ABCdefGHIjklMNopQRstUVwxyZ-123456789"`
	// Chat ID to send messages to
	ChatID string `yaml:"chat_id" example:"1001234567890"`
}

func Load(path string) (*Config, error) {
	var result Config

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, oops.Errorf("failed to read .env file: %w", err)
	}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, oops.Errorf("failed to read config file: %w", err)
	default:
		if err = yaml.Unmarshal(data, &result); err != nil {
			return nil, oops.Errorf("failed to parse YAML config: %w", err)
		}
	}

	applyDefaults(&result)

	validate := validator.New(validator.WithRequiredStructEnabled())
	if err = validate.Struct(result.Service); err != nil {
		return nil, oops.Errorf("failed to validate config: %w", err)
	}
	if err = validate.Struct(result.Signal); err != nil {
		return nil, oops.Errorf("failed to validate config: %w", err)
	}

	return &result, nil
}

// ValidateServer checks the sections only the reference backend needs.
func (c *Config) ValidateServer() error {
	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(c.Server); err != nil {
		return oops.Errorf("failed to validate server config: %w", err)
	}
	if err := validate.Struct(c.OpenAI); err != nil {
		return oops.Errorf("failed to validate openai config: %w", err)
	}

	return nil
}

func applyDefaults(cfg *Config) {
	if cfg.Service.BaseURL == "" {
		cfg.Service.BaseURL = "http://localhost:5000"
	}
	if cfg.Service.UserID == 0 {
		cfg.Service.UserID = 1
	}
	if cfg.Service.Timeout == 0 {
		cfg.Service.Timeout = 30 * time.Second
	}
	if cfg.Signal.Path == "" {
		cfg.Signal.Path = "data/signal.json"
	}
	if cfg.Server.Listen == "" {
		cfg.Server.Listen = ":5000"
	}
	if cfg.Server.DBPath == "" {
		cfg.Server.DBPath = "data/skimmer.db"
	}
	if cfg.Server.ChatTTL == 0 {
		cfg.Server.ChatTTL = time.Hour
	}

	token := os.Getenv("DEEPSEEK_API_KEY")
	if token == "" {
		token = os.Getenv("OPENAI_API_KEY")
	}
	for _, model := range []*ModelConfig{&cfg.OpenAI.Summary, &cfg.OpenAI.Chat} {
		if model.BaseURL == "" {
			model.BaseURL = "https://api.deepseek.com"
		}
		if model.Model == "" {
			model.Model = "deepseek-chat"
		}
		if model.Token == "" {
			model.Token = token
		}
	}
}
