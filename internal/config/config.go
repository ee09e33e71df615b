package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"resume-ai-backend/internal/domain/model"
)

type RuntimeConfig struct {
	Dev bool
}

type ServerConfig struct {
	Port        int    `yaml:"port"`
	BaseURL     string `yaml:"base_url"`
	AdminAPIKey string `yaml:"admin_api_key"`
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type DatabaseConfig struct {
	URL string `yaml:"url"`
}

type RedisConfig struct {
	URL      string `yaml:"url"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type AuthConfig struct {
	GoogleClientID string        `yaml:"google_client_id"`
	SessionSecret  string        `yaml:"session_secret"`
	SessionTTL     time.Duration `yaml:"session_ttl"`
	// AllowDevFallback only takes effect together with the -dev flag; a
	// production config cannot silently enable the fallback identity.
	AllowDevFallback bool   `yaml:"allow_dev_fallback"`
	DevEmail         string `yaml:"dev_email"`
}

type AIConfig struct {
	OpenAIKey       string        `yaml:"openai_key"`
	Model           string        `yaml:"model"`
	ConcurrentLimit int           `yaml:"concurrent_limit"` // max concurrent generator calls
	Timeout         time.Duration `yaml:"timeout"`
}

type PackConfig struct {
	Credits float64           `yaml:"credits"`
	Prices  map[string]string `yaml:"prices"` // currency -> processor price reference
}

type BillingConfig struct {
	StripeSecretKey  string        `yaml:"stripe_secret_key"`
	WebhookSecret    string        `yaml:"webhook_secret"`
	WebhookTolerance time.Duration `yaml:"webhook_tolerance"`
	DefaultCurrency  string        `yaml:"default_currency"`
	SuccessURL       string        `yaml:"success_url"`
	CancelURL        string        `yaml:"cancel_url"`

	Packs map[string]PackConfig `yaml:"packs"`
}

// CreditsConfig fields are pointers so an explicit zero in the file (free
// refines, no signup grant) is distinguishable from an absent key.
type CreditsConfig struct {
	StartingBalance *float64 `yaml:"starting_balance"`
	GenerateCost    *float64 `yaml:"generate_cost"`
	RefineCost      *float64 `yaml:"refine_cost"`
}

type LimitsConfig struct {
	InstructionChars    int `yaml:"instruction_chars"`
	HTMLChars           int `yaml:"html_chars"`
	ResumeChars         int `yaml:"resume_chars"`
	JobDescriptionChars int `yaml:"job_description_chars"`
	ExtraChars          int `yaml:"extra_chars"`
	RatePerMinute       int `yaml:"rate_per_minute"`
}

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Log      LogConfig      `yaml:"log"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Auth     AuthConfig     `yaml:"auth"`
	AI       AIConfig       `yaml:"ai"`
	Billing  BillingConfig  `yaml:"billing"`
	Credits  CreditsConfig  `yaml:"credits"`
	Limits   LimitsConfig   `yaml:"limits"`

	Runtime RuntimeConfig `yaml:"-"`

	catalog model.PackCatalog
}

func LoadConfig(path string, dev bool) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.Runtime.Dev = dev
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.BaseURL == "" {
		c.Server.BaseURL = fmt.Sprintf("http://localhost:%d", c.Server.Port)
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "json"
	}
	if c.Auth.SessionTTL <= 0 {
		c.Auth.SessionTTL = 24 * time.Hour
	}
	if c.AI.Model == "" {
		c.AI.Model = "gpt-4o-mini"
	}
	if c.AI.ConcurrentLimit <= 0 {
		c.AI.ConcurrentLimit = 16
	}
	if c.AI.Timeout <= 0 {
		c.AI.Timeout = 60 * time.Second
	}
	if c.Billing.WebhookTolerance <= 0 {
		c.Billing.WebhookTolerance = 5 * time.Minute
	}
	if c.Billing.DefaultCurrency == "" {
		c.Billing.DefaultCurrency = "eur"
	}
	if c.Billing.SuccessURL == "" {
		c.Billing.SuccessURL = c.Server.BaseURL + "/builder?payment=success"
	}
	if c.Billing.CancelURL == "" {
		c.Billing.CancelURL = c.Server.BaseURL + "/pricing?payment=cancelled"
	}
	if c.Credits.StartingBalance == nil {
		c.Credits.StartingBalance = floatPtr(5)
	}
	if c.Credits.GenerateCost == nil {
		c.Credits.GenerateCost = floatPtr(1)
	}
	if c.Credits.RefineCost == nil {
		c.Credits.RefineCost = floatPtr(0.5)
	}
	if c.Limits.InstructionChars <= 0 {
		c.Limits.InstructionChars = 500
	}
	if c.Limits.HTMLChars <= 0 {
		c.Limits.HTMLChars = 30000
	}
	if c.Limits.ResumeChars <= 0 {
		c.Limits.ResumeChars = 15000
	}
	if c.Limits.JobDescriptionChars <= 0 {
		c.Limits.JobDescriptionChars = 10000
	}
	if c.Limits.ExtraChars <= 0 {
		c.Limits.ExtraChars = 1000
	}
	if c.Limits.RatePerMinute <= 0 {
		c.Limits.RatePerMinute = 10
	}
}

func (c *Config) validate() error {
	if c.Database.URL == "" {
		return errors.New("database.url is required")
	}
	if c.Auth.SessionSecret == "" {
		return errors.New("auth.session_secret is required")
	}
	if c.Auth.GoogleClientID == "" && !(c.Runtime.Dev && c.Auth.AllowDevFallback) {
		return errors.New("auth.google_client_id is required")
	}
	if *c.Credits.StartingBalance < 0 || *c.Credits.GenerateCost < 0 || *c.Credits.RefineCost < 0 {
		return errors.New("credits amounts must not be negative")
	}

	catalog := make(model.PackCatalog, len(c.Billing.Packs))
	for id, p := range c.Billing.Packs {
		pack := model.CreditPack{
			ID:      id,
			Credits: decimal.NewFromFloat(p.Credits),
			Prices:  p.Prices,
		}
		if err := pack.Validate(); err != nil {
			return fmt.Errorf("billing.packs.%s: %w", id, err)
		}
		catalog[id] = pack
	}
	if len(catalog) == 0 {
		return errors.New("billing.packs must define at least one pack")
	}
	c.catalog = catalog
	return nil
}

// PackCatalog returns the validated pack table shared by checkout creation
// and webhook reconciliation.
func (c *Config) PackCatalog() model.PackCatalog { return c.catalog }

func (c *Config) StartingCredits() decimal.Decimal {
	return decimal.NewFromFloat(*c.Credits.StartingBalance)
}

func (c *Config) GenerateCost() decimal.Decimal {
	return decimal.NewFromFloat(*c.Credits.GenerateCost)
}

func (c *Config) RefineCost() decimal.Decimal {
	return decimal.NewFromFloat(*c.Credits.RefineCost)
}

func floatPtr(v float64) *float64 { return &v }
