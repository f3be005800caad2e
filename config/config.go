package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/go-playground/validator/v10"
	"github.com/joeshaw/envdecode"
)

const DefaultPath = "config.json"

const (
	DriverMemory = "memory"
	DriverRedis  = "redis"
	DriverSQLite = "sqlite"
)

// Options are the orchestration settings of a conversation.
type Options struct {
	AgentTimeoutMs     int    `json:"agentTimeoutMs" env:"VIEWAGENT_AGENT_TIMEOUT_MS" validate:"gt=0"`
	StrictUnknownProps bool   `json:"strictUnknownProps" env:"VIEWAGENT_STRICT_UNKNOWN_PROPS"`
	FallbackViewType   string `json:"fallbackViewType" env:"VIEWAGENT_FALLBACK_VIEW_TYPE" validate:"required"`
	HistoryTurns       int    `json:"historyTurns" env:"VIEWAGENT_HISTORY_TURNS" validate:"gte=0"`
}

func (o Options) AgentTimeout() time.Duration {
	return time.Duration(o.AgentTimeoutMs) * time.Millisecond
}

func DefaultOptions() Options {
	return Options{
		AgentTimeoutMs:     10000,
		StrictUnknownProps: true,
		FallbackViewType:   "InfoGatheringForm",
		HistoryTurns:       10,
	}
}

// StoreConfig selects where session snapshots are kept.
type StoreConfig struct {
	Driver      string `json:"driver" env:"VIEWAGENT_STORE_DRIVER" validate:"oneof=memory redis sqlite"`
	RedisAddr   string `json:"redis_addr" env:"VIEWAGENT_REDIS_ADDR" validate:"required_if=Driver redis"`
	RedisPrefix string `json:"redis_prefix" env:"VIEWAGENT_REDIS_PREFIX"`
	SQLitePath  string `json:"sqlite_path" env:"VIEWAGENT_SQLITE_PATH" validate:"required_if=Driver sqlite"`
}

type Config struct {
	APIKey    string `json:"api_key" env:"VIEWAGENT_API_KEY"`
	BaseURL   string `json:"base_url" env:"VIEWAGENT_BASE_URL"`
	Model     string `json:"model" env:"VIEWAGENT_MODEL"`
	UseTools  bool   `json:"use_tools" env:"VIEWAGENT_USE_TOOLS"`
	Addr      string `json:"addr" env:"VIEWAGENT_ADDR" validate:"required"`
	LogLevel  string `json:"log_level" env:"VIEWAGENT_LOG_LEVEL" validate:"oneof=debug info warn error"`
	LogFormat string `json:"log_format" env:"VIEWAGENT_LOG_FORMAT" validate:"oneof=text json"`

	Orchestration Options     `json:"orchestration"`
	Store         StoreConfig `json:"store"`
}

func Default() *Config {
	return &Config{
		Addr:          ":8080",
		LogLevel:      "info",
		LogFormat:     "text",
		Orchestration: DefaultOptions(),
		Store: StoreConfig{
			Driver:      DriverMemory,
			RedisPrefix: "viewagent:",
			SQLitePath:  "viewagent.db",
		},
	}
}

var validate = validator.New()

// Load builds the configuration from defaults, then the JSON file at path,
// then VIEWAGENT_* environment variables, and validates the result. A missing
// file is only an error when path is not DefaultPath.
func Load(path string) (*Config, error) {
	conf := Default()
	if path != "" {
		file, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := sonic.Unmarshal(file, conf); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		case errors.Is(err, fs.ErrNotExist) && path == DefaultPath:
		default:
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}
	if err := envdecode.Decode(conf); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return nil, fmt.Errorf("decode environment: %w", err)
	}
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	return conf, nil
}

func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return formatValidationError(err)
	}
	return nil
}

func formatValidationError(err error) error {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return err
	}
	msgs := make([]string, 0, len(validationErrors))
	for _, e := range validationErrors {
		msgs = append(msgs, formatFieldError(e))
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}

func formatFieldError(e validator.FieldError) string {
	field := e.Namespace()
	switch e.Tag() {
	case "required", "required_if":
		return fmt.Sprintf("%s is required", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, e.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, e.Param())
	case "gte":
		return fmt.Sprintf("%s must be at least %s", field, e.Param())
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}
