// internal/config/config.go
package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const defaultSystemPrompt = `IDENTITY: You are 'OMNI', the advanced AI interface for OmnilertLab — a cutting-edge software agency.
OWNER: Mehrshad Hamavandy — Full-stack engineer, AI architect, WebGL specialist.
CAPABILITIES: WebGL/Three.js, Next.js, AI Integration, Blockchain security, mobile-first design, real-time systems.
SERVICES: Custom software, AI-powered apps, enterprise dashboards, WebGL experiences, smart contract auditing.
TONE: Futuristic, precise, professional, slightly cryptic but deeply helpful.
CONSTRAINT: Be concise but complete. Use technical vocabulary naturally. Never break character.
If asked about pricing or projects, encourage contacting via the transmission form.`

// Config holds all configuration for the application. Credentials for
// external systems are optional: leaving one empty degrades that capability
// to its documented fallback behavior instead of failing startup.
type Config struct {
	LogLevel   string `mapstructure:"LOG_LEVEL"`
	ListenAddr string `mapstructure:"LISTEN_ADDR"`

	GithubUsername   string        `mapstructure:"GITHUB_USERNAME"`
	GithubToken      string        `mapstructure:"GITHUB_TOKEN"`
	GithubPerPage    int           `mapstructure:"GITHUB_PER_PAGE"`
	ProjectsCacheTTL time.Duration `mapstructure:"PROJECTS_CACHE_TTL"`

	GroqAPIKey       string `mapstructure:"GROQ_API_KEY"`
	GroqModel        string `mapstructure:"GROQ_MODEL"`
	PerplexityAPIKey string `mapstructure:"PERPLEXITY_API_KEY"`
	PerplexityModel  string `mapstructure:"PERPLEXITY_MODEL"`
	SystemPrompt     string `mapstructure:"AI_SYSTEM_PROMPT"`
	AIMaxTokens      int    `mapstructure:"AI_MAX_TOKENS"`

	TelegramBotToken      string `mapstructure:"TELEGRAM_BOT_TOKEN"`
	TelegramChatID        string `mapstructure:"TELEGRAM_CHAT_ID"`
	TelegramWebhookSecret string `mapstructure:"TELEGRAM_WEBHOOK_SECRET"`

	ResendAPIKey string `mapstructure:"RESEND_API_KEY"`
	MailFrom     string `mapstructure:"MAIL_FROM"`
	MailOperator string `mapstructure:"MAIL_OPERATOR"`

	DBURL string `mapstructure:"DB_URL"`
}

// LoadConfig reads configuration from file and/or environment variables.
func LoadConfig() (*Config, error) {
	// Set default values
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("LISTEN_ADDR", ":8080")
	viper.SetDefault("GITHUB_PER_PAGE", 20)
	viper.SetDefault("PROJECTS_CACHE_TTL", "5m")
	viper.SetDefault("GROQ_MODEL", "llama-3.3-70b-versatile")
	viper.SetDefault("PERPLEXITY_MODEL", "llama-3.1-sonar-small-128k-online")
	viper.SetDefault("AI_SYSTEM_PROMPT", defaultSystemPrompt)
	viper.SetDefault("AI_MAX_TOKENS", 400)
	viper.SetDefault("MAIL_FROM", "Omnilertlab <onboarding@resend.dev>")
	viper.SetDefault("MAIL_OPERATOR", "mehrshad@omnilertlab.dev")

	// Load from .env file if it exists
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	_ = viper.ReadInConfig() // Ignore error if file not found

	// Bind environment variables
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	// Validate required fields
	if cfg.GithubUsername == "" {
		return nil, errors.New("GITHUB_USERNAME is a required configuration field")
	}
	if cfg.GithubPerPage < 1 || cfg.GithubPerPage > 100 {
		return nil, errors.New("GITHUB_PER_PAGE must be between 1 and 100")
	}
	if cfg.ProjectsCacheTTL <= 0 {
		return nil, errors.New("PROJECTS_CACHE_TTL must be a positive duration")
	}

	return &cfg, nil
}
