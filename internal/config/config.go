// Package config loads the runtime settings from SF_* environment variables.
package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gookit/validate"
	"github.com/spf13/viper"
)

const envPrefix = "SF"

var (
	ErrEmptyStoreURL = errors.New("error getting SF_STORE_URL: variable not specified or contains an empty string")
	ErrEmptySMTPAuth = errors.New("error getting SF_SMTP_USER/SF_SMTP_PASSWORD: variables not specified or contain an empty string")
	ErrInvalidConfig = errors.New("invalid configuration")
)

type Config struct {
	Env                 string        // Env is the current environment: local, development, production.
	RunTimeout          time.Duration // RunTimeout bounds one whole check.
	OnlyNotifyOnChanges bool
	Store               Store
	SMTP                SMTP
	Storage             Storage
	Tg                  Telegram
	Metrics             Metrics
}

// Store describes the storefront catalog to scan.
type Store struct {
	URL       string        `validate:"required|fullUrl"`
	Name      string        `validate:"required"`
	PageSize  int           `validate:"required|min:1|max:250"`
	MaxPages  int           `validate:"required|min:1"`
	Timeout   time.Duration `validate:"required|min:1"`
	Retries   int           `validate:"min:0"`
	RetryWait time.Duration `validate:"min:0"`
}

// SMTP holds the mail transport and envelope settings.
type SMTP struct {
	Host     string   `validate:"required"`
	Port     int      `validate:"required|min:1|max:65535"`
	User     string   `validate:"required"`
	Password string   `validate:"required"`
	From     string   `validate:"required|email"`
	To       []string `validate:"required"`
}

// Storage selects the state backend.
type Storage struct {
	Driver string `validate:"required|in:json,sqlite"`
	Path   string `validate:"required"`
}

// Telegram is optional; an empty token disables the channel.
type Telegram struct {
	Token   string
	ChatIDs []int64
}

// Metrics is optional; an empty push URL disables pushing.
type Metrics struct {
	PushURL string `validate:"fullUrl"`
	Job     string `validate:"required"`
}

// Load reads the configuration from environment variables and validates it.
func Load() (*Config, error) {
	v := viper.New()

	// Automatically binds environment variables to config keys
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()

	// optional args
	v.SetDefault("ENV", "production")
	v.SetDefault("RUN_TIMEOUT", "10m")
	v.SetDefault("ONLY_NOTIFY_ON_CHANGES", true)
	v.SetDefault("STORE_NAME", "Store")
	v.SetDefault("PAGE_SIZE", 250)
	v.SetDefault("MAX_PAGES", 100)
	v.SetDefault("HTTP_TIMEOUT", "30s")
	v.SetDefault("HTTP_RETRIES", 3)
	v.SetDefault("HTTP_RETRY_WAIT", "2s")
	v.SetDefault("SMTP_HOST", "smtp.gmail.com")
	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("STORAGE_DRIVER", "json")
	v.SetDefault("STORAGE_PATH", "state.json")
	v.SetDefault("METRICS_JOB", "stock-flow")

	if v.GetString("STORE_URL") == "" {
		return nil, ErrEmptyStoreURL
	}
	if v.GetString("SMTP_USER") == "" || v.GetString("SMTP_PASSWORD") == "" {
		return nil, ErrEmptySMTPAuth
	}

	user := v.GetString("SMTP_USER")
	from := v.GetString("MAIL_FROM")
	if from == "" {
		from = user
	}
	to := splitList(v.GetString("MAIL_TO"))
	if len(to) == 0 {
		to = []string{user}
	}

	chatIDs, err := parseChatIDs(v.GetString("TELEGRAM_CHAT_IDS"))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Env:                 v.GetString("ENV"),
		RunTimeout:          v.GetDuration("RUN_TIMEOUT"),
		OnlyNotifyOnChanges: v.GetBool("ONLY_NOTIFY_ON_CHANGES"),
		Store: Store{
			URL:       strings.TrimRight(v.GetString("STORE_URL"), "/"),
			Name:      v.GetString("STORE_NAME"),
			PageSize:  v.GetInt("PAGE_SIZE"),
			MaxPages:  v.GetInt("MAX_PAGES"),
			Timeout:   v.GetDuration("HTTP_TIMEOUT"),
			Retries:   v.GetInt("HTTP_RETRIES"),
			RetryWait: v.GetDuration("HTTP_RETRY_WAIT"),
		},
		SMTP: SMTP{
			Host:     v.GetString("SMTP_HOST"),
			Port:     v.GetInt("SMTP_PORT"),
			User:     user,
			Password: v.GetString("SMTP_PASSWORD"),
			From:     from,
			To:       to,
		},
		Storage: Storage{
			Driver: strings.ToLower(v.GetString("STORAGE_DRIVER")),
			Path:   v.GetString("STORAGE_PATH"),
		},
		Tg: Telegram{
			Token:   v.GetString("TELEGRAM_TOKEN"),
			ChatIDs: chatIDs,
		},
		Metrics: Metrics{
			PushURL: v.GetString("METRICS_PUSH_URL"),
			Job:     v.GetString("METRICS_JOB"),
		},
	}

	if err = cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks every section against its rules.
func (c *Config) Validate() error {
	sections := map[string]any{
		"store":   &c.Store,
		"smtp":    &c.SMTP,
		"storage": &c.Storage,
		"metrics": &c.Metrics,
	}

	for _, name := range []string{"store", "smtp", "storage", "metrics"} {
		v := validate.Struct(sections[name])
		if !v.Validate() {
			return fmt.Errorf("%w: %s: %s", ErrInvalidConfig, name, v.Errors.Error())
		}
	}

	if c.RunTimeout <= 0 {
		return fmt.Errorf("%w: run timeout must be positive, got %s", ErrInvalidConfig, c.RunTimeout)
	}
	if c.Tg.Token != "" && len(c.Tg.ChatIDs) == 0 {
		return fmt.Errorf("%w: SF_TELEGRAM_TOKEN is set but SF_TELEGRAM_CHAT_IDS is empty", ErrInvalidConfig)
	}

	return nil
}

func splitList(raw string) []string {
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}

	return out
}

func parseChatIDs(raw string) ([]int64, error) {
	items := splitList(raw)
	ids := make([]int64, 0, len(items))
	for _, item := range items {
		id, err := strconv.ParseInt(item, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: bad chat id %q in SF_TELEGRAM_CHAT_IDS", ErrInvalidConfig, item)
		}
		ids = append(ids, id)
	}

	return ids, nil
}
