package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	DefaultAddr          = ":8082"
	DefaultGitLabBaseURL = "https://gitlab.com"
)

type Config struct {
	GitHub  GitHubConfig  `mapstructure:"github"`
	GitLab  GitLabConfig  `mapstructure:"gitlab"`
	Slack   SlackConfig   `mapstructure:"slack"`
	Webhook WebhookConfig `mapstructure:"webhook"`

	Addr     string `mapstructure:"addr"`
	LogLevel string `mapstructure:"log_level"`
	// RequestTimeout bounds each outbound call. Zero leaves the transport defaults.
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

type GitHubConfig struct {
	Token string `mapstructure:"token"`
}

type GitLabConfig struct {
	Token   string `mapstructure:"token"`
	BaseURL string `mapstructure:"base_url"`
}

type SlackConfig struct {
	BotToken string `mapstructure:"bot_token"`
	// APIURL overrides https://slack.com/api/ (tests, proxies).
	APIURL string `mapstructure:"api_url"`
}

type WebhookConfig struct {
	GitHubSecret string `mapstructure:"github_secret"`
	GitLabSecret string `mapstructure:"gitlab_secret"`
}

// Action inputs come first so a workflow's `with:` wins over the job env.
var envBindings = map[string][]string{
	"github.token":          {"INPUT_TOKEN", "GITHUB_TOKEN"},
	"gitlab.token":          {"GITLAB_TOKEN"},
	"gitlab.base_url":       {"GITLAB_BASE_URL"},
	"slack.bot_token":       {"INPUT_SLACKBOTTOKEN", "SLACK_BOT_TOKEN"},
	"slack.api_url":         {"SLACK_API_URL"},
	"webhook.github_secret": {"GITHUB_WEBHOOK_SECRET"},
	"webhook.gitlab_secret": {"GITLAB_WEBHOOK_SECRET"},
	"addr":                  {"NOTIFY_REVIEW_ADDR"},
	"log_level":             {"LOG_LEVEL"},
	"request_timeout":       {"REQUEST_TIMEOUT"},
}

// Load reads configuration from the environment and, when configPath is set,
// a YAML file. Environment values override the file.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	for key, envs := range envBindings {
		if err := v.BindEnv(append([]string{key}, envs...)...); err != nil {
			return nil, fmt.Errorf("binding %s: %w", key, err)
		}
	}

	v.SetDefault("gitlab.base_url", DefaultGitLabBaseURL)
	v.SetDefault("addr", DefaultAddr)
	v.SetDefault("log_level", "info")
	v.SetDefault("request_timeout", "0s")

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return &cfg, nil
}

// ValidateAction checks what a single GitHub Actions run needs.
func (c *Config) ValidateAction() error {
	var missing []string
	if c.GitHub.Token == "" {
		missing = append(missing, "github.token (INPUT_TOKEN)")
	}
	if c.Slack.BotToken == "" {
		missing = append(missing, "slack.bot_token (INPUT_SLACKBOTTOKEN)")
	}
	return missingErr(missing)
}

// ValidateServe checks the webhook receiver needs a Slack token and at least
// one forge token.
func (c *Config) ValidateServe() error {
	var missing []string
	if c.Slack.BotToken == "" {
		missing = append(missing, "slack.bot_token (SLACK_BOT_TOKEN)")
	}
	if c.GitHub.Token == "" && c.GitLab.Token == "" {
		missing = append(missing, "github.token (GITHUB_TOKEN) or gitlab.token (GITLAB_TOKEN)")
	}
	return missingErr(missing)
}

func (c *Config) SlogLevel() slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return l
}

func missingErr(missing []string) error {
	if len(missing) == 0 {
		return nil
	}
	return errors.New("missing required config: " + strings.Join(missing, ", "))
}
