package config

import (
	"errors"
	"fmt"
	"strings"
	_ "time/tzdata"

	"daily-routine/internal/utils"

	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"
	"golang.org/x/crypto/bcrypt"
)

var ErrMissingToken = errors.New("telegram token is not set (ROUTINE_TELEGRAM_TOKEN or TG_TOKEN)")

type Config struct {
	Telegram struct {
		Token string `mapstructure:"token" yaml:"token"`
	} `mapstructure:"telegram" yaml:"telegram"`
	Server struct {
		Port string `mapstructure:"port" yaml:"port"`
	} `mapstructure:"server" yaml:"server"`
	Database struct {
		Path string `mapstructure:"path" yaml:"path"`
	} `mapstructure:"database" yaml:"database"`
	Log struct {
		Level string `mapstructure:"level" yaml:"level"`
	} `mapstructure:"log" yaml:"log"`
	Routine struct {
		Timezone     string `mapstructure:"timezone" yaml:"timezone"`
		RolloverCron string `mapstructure:"rollover_cron" yaml:"rollover_cron"`
		SummaryCron  string `mapstructure:"summary_cron" yaml:"summary_cron"`
		DefaultColor string `mapstructure:"default_color" yaml:"default_color"`
	} `mapstructure:"routine" yaml:"routine"`
	Auth struct {
		BcryptCost int `mapstructure:"bcrypt_cost" yaml:"bcrypt_cost"`
	} `mapstructure:"auth" yaml:"auth"`
}

// Loader собирает конфигурацию: переменные окружения ROUTINE_*,
// затем routine.yaml (если есть), затем значения по умолчанию
type Loader struct {
	v          *viper.Viper
	configFile string
	envPrefix  string
}

func NewLoader() *Loader {
	return &Loader{
		v:         viper.New(),
		envPrefix: "ROUTINE",
	}
}

func (l *Loader) WithConfigFile(path string) *Loader {
	l.configFile = path
	return l
}

func (l *Loader) Viper() *viper.Viper {
	return l.v
}

func (l *Loader) Load() (*Config, error) {
	l.setDefaults()

	l.v.SetEnvPrefix(l.envPrefix)
	l.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	l.v.AutomaticEnv()
	// TG_TOKEN старое имя переменной, оставлено для существующих деплоев
	if err := l.v.BindEnv("telegram.token", l.envPrefix+"_TELEGRAM_TOKEN", "TG_TOKEN"); err != nil {
		return nil, fmt.Errorf("binding token env: %w", err)
	}

	if l.configFile != "" {
		l.v.SetConfigFile(l.configFile)
	} else {
		l.v.SetConfigName("routine")
		l.v.SetConfigType("yaml")
		l.v.AddConfigPath(".")
		l.v.AddConfigPath("/etc/daily-routine")
	}

	if err := l.v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (l *Loader) setDefaults() {
	l.v.SetDefault("server.port", "8080")
	l.v.SetDefault("database.path", "/data/daily-routine.db")
	l.v.SetDefault("log.level", "info")
	l.v.SetDefault("routine.timezone", "UTC")
	l.v.SetDefault("routine.rollover_cron", "0 0 * * *")
	l.v.SetDefault("routine.summary_cron", "55 21 * * *")
	l.v.SetDefault("routine.default_color", "#FDE68A")
	l.v.SetDefault("auth.bcrypt_cost", bcrypt.DefaultCost)
}

// Validate проверяет значения, без которых приложение не стартует
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Telegram.Token) == "" {
		return ErrMissingToken
	}
	if _, err := utils.LoadLocation(c.Routine.Timezone); err != nil {
		return fmt.Errorf("invalid routine.timezone %q: %w", c.Routine.Timezone, err)
	}
	for key, spec := range map[string]string{
		"routine.rollover_cron": c.Routine.RolloverCron,
		"routine.summary_cron":  c.Routine.SummaryCron,
	} {
		if _, err := cron.ParseStandard(spec); err != nil {
			return fmt.Errorf("invalid %s %q: %w", key, spec, err)
		}
	}
	if c.Auth.BcryptCost < bcrypt.MinCost || c.Auth.BcryptCost > bcrypt.MaxCost {
		return fmt.Errorf("invalid auth.bcrypt_cost %d", c.Auth.BcryptCost)
	}
	return nil
}

// Load конфигурация из окружения и routine.yaml
func Load() (*Config, error) {
	return NewLoader().Load()
}
