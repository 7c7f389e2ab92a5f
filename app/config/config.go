package config

import (
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/samber/oops"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Log    Log    `yaml:"log"`
	Server Server `yaml:"server"`
	LLM    LLM    `yaml:"llm"`
	Store  Store  `yaml:"store"`
}

type LLM struct {
	// OpenAI-compatible base url
	BaseURL string `yaml:"base_url" example:"https://api.groq.com/openai/v1" validate:"required"`
	// Model used for every node of the workflow
	Model string `yaml:"model" example:"llama-3.1-8b-instant" validate:"required"`
	// Sampling temperature for free-text answers
	Temperature float32 `yaml:"temperature" example:"0.7"`
	// API token, filled from the OPENAI_API_KEY environment variable
	Token string `yaml:"-" validate:"required"`
}

type Server struct {
	// Address the HTTP server listens on
	Listen string `yaml:"listen" example:":8080" validate:"required"`
}

type Store struct {
	// Session store backend
	Backend string `yaml:"backend" example:"memory" validate:"required,oneof=memory file"`
	// Snapshot path of the file backend
	Path string `yaml:"path" example:"data/sessions.jsonl"`
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

func Load() (*Config, error) {
	var result Config

	data, err := os.ReadFile("config.yaml")
	if err != nil {
		return nil, oops.Errorf("failed to read config file: %w", err)
	}

	if err = yaml.Unmarshal(data, &result); err != nil {
		return nil, oops.Errorf("failed to parse YAML config: %w", err)
	}

	result.applyDefaults()

	result.LLM.Token = os.Getenv("OPENAI_API_KEY")
	if result.LLM.Token == "" {
		return nil, oops.Errorf("OPENAI_API_KEY environment variable not set")
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(result); err != nil {
		return nil, oops.Errorf("failed to validate config: %w", err)
	}

	return &result, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Listen == "" {
		c.Server.Listen = ":8080"
	}
	if c.LLM.BaseURL == "" {
		c.LLM.BaseURL = "https://api.groq.com/openai/v1"
	}
	if c.LLM.Model == "" {
		c.LLM.Model = "llama-3.1-8b-instant"
	}
	if c.LLM.Temperature == 0 {
		c.LLM.Temperature = 0.7
	}
	if c.Store.Backend == "" {
		c.Store.Backend = "memory"
	}
	if c.Store.Backend == "file" && c.Store.Path == "" {
		c.Store.Path = "data/sessions.jsonl"
	}
}
