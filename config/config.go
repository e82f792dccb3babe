package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Chat provider names accepted by chat.provider.
const (
	ProviderLocal  = "local"
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

// Record backends accepted by records.backend.
const (
	RecordsREST     = "rest"
	RecordsDatabase = "database"
)

// Config represents the overall application configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Records    RecordsConfig    `yaml:"records"`
	Database   DatabaseConfig   `yaml:"database"`
	Chat       ChatConfig       `yaml:"chat"`
	Search     SearchConfig     `yaml:"search"`
	Admin      AdminConfig      `yaml:"admin"`
	Push       PushConfig       `yaml:"push"`
	WorkerPool WorkerPoolConfig `yaml:"worker_pool"`
}

// ServerConfig holds the server-related configuration.
type ServerConfig struct {
	Port            int      `yaml:"port"`
	RateLimitPerSec float64  `yaml:"rate_limit_per_sec"`
	RateLimitBurst  int      `yaml:"rate_limit_burst"`
	CacheTTLSeconds int      `yaml:"cache_ttl_seconds"`
	AllowedOrigins  []string `yaml:"allowed_origins"`
	ReleaseMode     bool     `yaml:"release_mode"`
}

// RecordsConfig selects and configures the record store.
type RecordsConfig struct {
	Backend        string `yaml:"backend"`
	URL            string `yaml:"url"`
	Key            string `yaml:"key"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// DatabaseConfig holds the database connection configuration.
type DatabaseConfig struct {
	Driver                 string `yaml:"driver"`
	DSN                    string `yaml:"dsn"`
	MaxOpenConns           int    `yaml:"max_open_conns"`
	MaxIdleConns           int    `yaml:"max_idle_conns"`
	ConnMaxLifetimeMinutes int    `yaml:"conn_max_lifetime_minutes"`
}

// ChatConfig selects the chat-completion provider.
type ChatConfig struct {
	Provider          string         `yaml:"provider"`
	SendHistory       bool           `yaml:"send_history"`
	TimeoutSeconds    int            `yaml:"timeout_seconds"`
	SessionTTLMinutes int            `yaml:"session_ttl_minutes"`
	Local             ProviderConfig `yaml:"local"`
	OpenAI            ProviderConfig `yaml:"openai"`
	Gemini            ProviderConfig `yaml:"gemini"`
}

// ProviderConfig is the endpoint and credentials of one chat provider.
type ProviderConfig struct {
	BaseURL string `yaml:"base_url"`
	Model   string `yaml:"model"`
	APIKey  string `yaml:"api_key"`
}

// SearchConfig tunes the suggestion generator.
type SearchConfig struct {
	MinQueryLength int    `yaml:"min_query_length"`
	Provider       string `yaml:"provider"`
}

// AdminConfig protects the data-entry endpoints.
type AdminConfig struct {
	JWTSecret       string        `yaml:"jwt_secret"`
	PasswordHash    string        `yaml:"password_hash"`
	TokenTTLMinutes int           `yaml:"token_ttl_minutes"`
	TokenTTL        time.Duration `yaml:"-"` // Ignored by YAML parser
}

// PushConfig holds the VAPID keys for web push notifications.
type PushConfig struct {
	PublicKey  string `yaml:"vapid_public_key"`
	PrivateKey string `yaml:"vapid_private_key"`
	Subject    string `yaml:"subject"`
	TTL        int    `yaml:"ttl"`
}

// WorkerPoolConfig holds the configuration for the notification worker pool.
type WorkerPoolConfig struct {
	Size int `yaml:"size"`
}

// Enabled reports whether push notifications can be sent.
func (p PushConfig) Enabled() bool {
	return p.PublicKey != "" && p.PrivateKey != ""
}

// Load reads the configuration from the given path.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg Config
	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, err
	}

	cfg.applyEnv()
	cfg.applyDefaults()
	return &cfg, nil
}

// applyEnv lets credentials and endpoints come from the environment.
func (c *Config) applyEnv() {
	setString(&c.Records.URL, "SUPABASE_URL")
	setString(&c.Records.Key, "SUPABASE_KEY")
	setString(&c.Database.DSN, "DATABASE_URL")
	setString(&c.Chat.Provider, "CHAT_PROVIDER")
	setString(&c.Chat.Local.BaseURL, "LOCAL_LLM_URL")
	setString(&c.Chat.Local.Model, "LOCAL_LLM_MODEL")
	setString(&c.Chat.OpenAI.APIKey, "OPENAI_API_KEY")
	setString(&c.Chat.Gemini.APIKey, "GEMINI_API_KEY")
	setString(&c.Admin.JWTSecret, "ADMIN_JWT_SECRET")
	setString(&c.Admin.PasswordHash, "ADMIN_PASSWORD_HASH")
	setString(&c.Push.PublicKey, "VAPID_PUBLIC_KEY")
	setString(&c.Push.PrivateKey, "VAPID_PRIVATE_KEY")

	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Server.Port = port
		} else {
			log.Printf("ignoring invalid PORT %q: %v", v, err)
		}
	}
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func (c *Config) applyDefaults() {
	if c.Server.Port <= 0 {
		c.Server.Port = 8080
	}
	if c.Server.RateLimitPerSec <= 0 {
		c.Server.RateLimitPerSec = 10
	}
	if c.Server.RateLimitBurst <= 0 {
		c.Server.RateLimitBurst = 5
	}
	if c.Server.CacheTTLSeconds <= 0 {
		c.Server.CacheTTLSeconds = 60
	}

	if c.Records.Backend == "" {
		c.Records.Backend = RecordsREST
	}
	if c.Records.TimeoutSeconds <= 0 {
		c.Records.TimeoutSeconds = 30
	}

	if c.Database.Driver == "" {
		c.Database.Driver = "sqlite"
	}
	if c.Database.DSN == "" && c.Database.Driver == "sqlite" {
		c.Database.DSN = "stuud.db"
	}

	if c.Chat.Provider == "" {
		c.Chat.Provider = ProviderLocal
	}
	if c.Chat.SessionTTLMinutes <= 0 {
		c.Chat.SessionTTLMinutes = 30
	}
	if c.Chat.Local.BaseURL == "" {
		log.Printf("chat.local.base_url is not set; falling back to http://127.0.0.1:1234")
		c.Chat.Local.BaseURL = "http://127.0.0.1:1234"
	}
	if c.Chat.Local.Model == "" {
		c.Chat.Local.Model = "llama-3.2-1b-instruct"
	}
	if c.Chat.OpenAI.BaseURL == "" {
		c.Chat.OpenAI.BaseURL = "https://api.openai.com"
	}
	if c.Chat.OpenAI.Model == "" {
		c.Chat.OpenAI.Model = "gpt-4"
	}
	if c.Chat.Gemini.BaseURL == "" {
		c.Chat.Gemini.BaseURL = "https://generativelanguage.googleapis.com"
	}
	if c.Chat.Gemini.Model == "" {
		c.Chat.Gemini.Model = "gemini-pro"
	}

	if c.Search.MinQueryLength <= 0 {
		c.Search.MinQueryLength = 3
	}
	if c.Search.Provider == "" {
		c.Search.Provider = c.Chat.Provider
	}

	if c.Admin.TokenTTLMinutes <= 0 {
		c.Admin.TokenTTLMinutes = 12 * 60
	}
	c.Admin.TokenTTL = time.Duration(c.Admin.TokenTTLMinutes) * time.Minute

	if c.Push.TTL <= 0 {
		c.Push.TTL = 3600
	}

	if c.WorkerPool.Size <= 0 {
		log.Printf("worker_pool.size is not set or invalid; defaulting to 1")
		c.WorkerPool.Size = 1
	}
}

// Validate reports configuration that cannot work at runtime.
func (c *Config) Validate() error {
	var errs []error

	switch c.Records.Backend {
	case RecordsREST:
		if c.Records.URL == "" || c.Records.Key == "" {
			errs = append(errs, errors.New("records.url and records.key are required for the rest backend"))
		}
	case RecordsDatabase:
	default:
		errs = append(errs, fmt.Errorf("unknown records.backend %q", c.Records.Backend))
	}

	switch c.Database.Driver {
	case "sqlite", "postgres":
	default:
		errs = append(errs, fmt.Errorf("unknown database.driver %q", c.Database.Driver))
	}

	if c.Chat.TimeoutSeconds > 0 && c.Chat.TimeoutSeconds >= c.Chat.SessionTTLMinutes*60 {
		errs = append(errs, fmt.Errorf("chat.timeout_seconds (%d) must be shorter than chat.session_ttl_minutes (%d)",
			c.Chat.TimeoutSeconds, c.Chat.SessionTTLMinutes))
	}

	for _, p := range []string{c.Chat.Provider, c.Search.Provider} {
		if err := c.Chat.checkProvider(p); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

func (c ChatConfig) checkProvider(name string) error {
	switch name {
	case ProviderLocal:
		return nil
	case ProviderOpenAI:
		if c.OpenAI.APIKey == "" {
			return errors.New("chat.openai.api_key (or OPENAI_API_KEY) is required for the openai provider")
		}
		return nil
	case ProviderGemini:
		if c.Gemini.APIKey == "" {
			return errors.New("chat.gemini.api_key (or GEMINI_API_KEY) is required for the gemini provider")
		}
		return nil
	default:
		return fmt.Errorf("unknown chat provider %q", name)
	}
}
