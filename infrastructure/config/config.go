package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"e2e_harness/domain/entities"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnginePlaywright = "playwright"
	EngineStatic     = "static"
)

// Config is the full harness configuration
type Config struct {
	BaseURL     string            `mapstructure:"base_url" yaml:"base_url"`
	PortalURL   string            `mapstructure:"portal_url" yaml:"portal_url"`
	Wait        WaitConfig        `mapstructure:"wait" yaml:"wait"`
	Session     SessionConfig     `mapstructure:"session" yaml:"session"`
	Credentials CredentialsConfig `mapstructure:"credentials" yaml:"-"`
	Browser     BrowserConfig     `mapstructure:"browser" yaml:"browser"`
	Suite       SuiteConfig       `mapstructure:"suite" yaml:"suite"`
	Logger      LoggerConfig      `mapstructure:"logger" yaml:"logger"`
	// Params override scenario parameters such as search_term or expected_user
	Params map[string]string `mapstructure:"params" yaml:"params"`
}

type WaitConfig struct {
	Timeout         time.Duration `mapstructure:"timeout" yaml:"timeout"`
	PollInterval    time.Duration `mapstructure:"poll_interval" yaml:"poll_interval"`
	StableFrame     time.Duration `mapstructure:"stable_frame" yaml:"stable_frame"`
	DispatchTimeout time.Duration `mapstructure:"dispatch_timeout" yaml:"dispatch_timeout"`
}

type SessionConfig struct {
	File string `mapstructure:"file" yaml:"file"`
}

type CredentialsConfig struct {
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

type BrowserConfig struct {
	Engine    string        `mapstructure:"engine" yaml:"engine"`
	Headless  bool          `mapstructure:"headless" yaml:"headless"`
	SlowMo    time.Duration `mapstructure:"slow_mo" yaml:"slow_mo"`
	UserAgent string        `mapstructure:"user_agent" yaml:"user_agent"`
}

type SuiteConfig struct {
	Concurrency int `mapstructure:"concurrency" yaml:"concurrency"`
}

type LoggerConfig struct {
	Level      string `mapstructure:"level" yaml:"level"`
	Format     string `mapstructure:"format" yaml:"format"`
	File       string `mapstructure:"file" yaml:"file"`
	MaxSize    int    `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups int    `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge     int    `mapstructure:"max_age" yaml:"max_age"`
	Compress   bool   `mapstructure:"compress" yaml:"compress"`
}

// SetDefaults registers every key so environment overrides are picked up
func SetDefaults(v *viper.Viper) {
	v.SetDefault("base_url", "https://en.wikipedia.org")
	v.SetDefault("portal_url", "https://www.wikipedia.org/")

	v.SetDefault("wait.timeout", entities.DefaultTimeout)
	v.SetDefault("wait.poll_interval", entities.DefaultPollInterval)
	v.SetDefault("wait.stable_frame", 16*time.Millisecond)
	v.SetDefault("wait.dispatch_timeout", 2*time.Second)

	v.SetDefault("session.file", "auth/login.json")

	v.SetDefault("credentials.username", "")
	v.SetDefault("credentials.password", "")

	v.SetDefault("browser.engine", EnginePlaywright)
	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.slow_mo", time.Duration(0))
	v.SetDefault("browser.user_agent", "")

	v.SetDefault("suite.concurrency", 2)

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "text")
	v.SetDefault("logger.file", "")
	v.SetDefault("logger.max_size", 10)
	v.SetDefault("logger.max_backups", 3)
	v.SetDefault("logger.max_age", 28)
	v.SetDefault("logger.compress", false)
}

// NewConfigFromViper decodes and validates v
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config

	// Credentials also come from the variables the login suite always used
	_ = v.BindEnv("credentials.username", "E2E_CREDENTIALS_USERNAME", "WIKIPEDIA_USERNAME")
	_ = v.BindEnv("credentials.password", "E2E_CREDENTIALS_PASSWORD", "WIKIPEDIA_PASSWORD")

	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Load reads .env, the optional config file and E2E_* variables
func Load(configFile string) (*Config, error) {
	// .env file is optional
	_ = godotenv.Load()

	v := viper.New()
	SetDefaults(v)
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("e2e")
		v.SetConfigType("yaml")
	}
	v.SetEnvPrefix("E2E")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}
	return NewConfigFromViper(v)
}

// Validate checks the configuration for sane values
func (c *Config) Validate() error {
	if c.Wait.Timeout <= 0 {
		return fmt.Errorf("wait.timeout must be a positive duration")
	}
	if c.Wait.PollInterval <= 0 {
		return fmt.Errorf("wait.poll_interval must be a positive duration")
	}
	if c.Wait.PollInterval > c.Wait.Timeout {
		return fmt.Errorf("wait.poll_interval (%s) must not exceed wait.timeout (%s)", c.Wait.PollInterval, c.Wait.Timeout)
	}
	if c.Wait.StableFrame < 0 || c.Wait.DispatchTimeout < 0 {
		return fmt.Errorf("wait.stable_frame and wait.dispatch_timeout must not be negative")
	}
	switch c.Browser.Engine {
	case EnginePlaywright, EngineStatic:
	default:
		return fmt.Errorf("browser.engine must be %q or %q, got %q", EnginePlaywright, EngineStatic, c.Browser.Engine)
	}
	if c.Suite.Concurrency < 1 {
		return fmt.Errorf("suite.concurrency must be a positive integer")
	}
	if strings.TrimSpace(c.Session.File) == "" {
		return fmt.Errorf("session.file is a required configuration field")
	}
	if c.BaseURL == "" {
		return fmt.Errorf("base_url is a required configuration field")
	}
	return nil
}

// WaitPolicy is the default policy every engine call starts from
func (c *Config) WaitPolicy() entities.WaitPolicy {
	return entities.WaitPolicy{
		Timeout:      c.Wait.Timeout,
		PollInterval: c.Wait.PollInterval,
		Condition:    entities.ConditionExists,
	}
}
