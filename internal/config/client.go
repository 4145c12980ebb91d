package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every dashboard environment override
// (RETAILCHAT_GATEWAY_BASE_URL, RETAILCHAT_FESTIVAL_DELAY, ...).
const EnvPrefix = "RETAILCHAT"

// ClientConfig is the dashboard configuration.
type ClientConfig struct {
	Gateway struct {
		BaseURL       string        `mapstructure:"base_url"`
		Timeout       time.Duration `mapstructure:"timeout"`
		HealthTimeout time.Duration `mapstructure:"health_timeout"`
		UserID        string        `mapstructure:"user_id"`
	} `mapstructure:"gateway"`
	Festival struct {
		Delay time.Duration `mapstructure:"delay"`
	} `mapstructure:"festival"`
	Features struct {
		Multilingual    bool   `mapstructure:"multilingual"`
		CannedQuestions bool   `mapstructure:"canned_questions"`
		Language        string `mapstructure:"language"`
	} `mapstructure:"features"`
	State struct {
		Dir string `mapstructure:"dir"`
	} `mapstructure:"state"`
	Mail struct {
		WebhookURL string        `mapstructure:"webhook_url"`
		Timeout    time.Duration `mapstructure:"timeout"`
	} `mapstructure:"mail"`
	Log struct {
		Level string `mapstructure:"level"`
		File  string `mapstructure:"file"`
	} `mapstructure:"log"`
}

// SetClientDefaults registers the dashboard defaults on v.
func SetClientDefaults(v *viper.Viper) {
	v.SetDefault("gateway.base_url", "http://localhost:8080/api/v1")
	v.SetDefault("gateway.timeout", 60*time.Second)
	v.SetDefault("gateway.health_timeout", 5*time.Second)
	v.SetDefault("gateway.user_id", "")
	v.SetDefault("festival.delay", 2*time.Second)
	v.SetDefault("features.multilingual", false)
	v.SetDefault("features.canned_questions", true)
	v.SetDefault("features.language", "en")
	v.SetDefault("state.dir", defaultStateDir())
	v.SetDefault("mail.webhook_url", "")
	v.SetDefault("mail.timeout", 10*time.Second)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")
}

// NewClientViper returns a viper instance with defaults and env overrides.
// When file is non-empty it is read; a missing default file is not an error.
func NewClientViper(file string) (*viper.Viper, error) {
	v := viper.New()
	SetClientDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", file, err)
		}
		return v, nil
	}
	v.SetConfigName("dashboard")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if home, err := os.UserConfigDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, "retailchat"))
	}
	if err := v.ReadInConfig(); err != nil {
		var nf viper.ConfigFileNotFoundError
		if !errors.As(err, &nf) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}
	return v, nil
}

// LoadClient decodes and validates the dashboard configuration from v.
func LoadClient(v *viper.Viper) (ClientConfig, error) {
	var c ClientConfig
	if err := v.Unmarshal(&c); err != nil {
		return c, fmt.Errorf("decode config: %w", err)
	}
	c.Gateway.BaseURL = strings.TrimRight(strings.TrimSpace(c.Gateway.BaseURL), "/")
	c.Log.Level = strings.ToLower(strings.TrimSpace(c.Log.Level))
	if c.Log.Level == "warning" {
		c.Log.Level = "warn"
	}

	u, err := url.Parse(c.Gateway.BaseURL)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return c, errors.New("gateway.base_url must be an absolute http(s) URL")
	}
	if c.Gateway.Timeout <= 0 || c.Gateway.HealthTimeout <= 0 {
		return c, errors.New("gateway timeouts must be positive durations")
	}
	if c.Festival.Delay < 0 {
		return c, errors.New("festival.delay must be >= 0")
	}
	if c.Mail.Timeout <= 0 {
		return c, errors.New("mail.timeout must be a positive duration")
	}
	if strings.TrimSpace(c.State.Dir) == "" {
		return c, errors.New("state.dir must not be empty")
	}
	return c, nil
}

func defaultStateDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "retailchat")
	}
	return ".retailchat"
}
