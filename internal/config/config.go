package config

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/sethvargo/go-envconfig"
	log "github.com/sirupsen/logrus"
)

type (
	Config struct {
		TelegramAPIToken string   `env:"TOKEN,required"`
		DefaultLanguage  string   `env:"LANG,default=en"`
		EnabledHandlers  []string `env:"HANDLERS,default=moderator"`
		LogLevel         int      `env:"LOG_LEVEL,default=2"`
		DotPath          string   `env:"DOT_PATH,default=~/.chatwarden"`
		MetricsAddr      string   `env:"METRICS_ADDR,default=:9091"`
		Moderation       Moderation
		AntiFlood        AntiFlood
	}

	// Moderation holds instance-wide defaults for the warning ladder; per-chat
	// settings rows override these once created.
	Moderation struct {
		MaxWarnings     int           `env:"MAX_WARNINGS,default=3"`
		WarningTTL      time.Duration `env:"WARNING_TTL,default=24h"`
		ThresholdAction string        `env:"THRESHOLD_ACTION,default=mute"`
		LogChannelID    int64         `env:"LOG_CHANNEL_ID"`
	}

	AntiFlood struct {
		Enabled     bool          `env:"ANTIFLOOD_ENABLED,default=false"`
		MaxMessages int           `env:"ANTIFLOOD_MAX_MESSAGES,default=5"`
		Window      time.Duration `env:"ANTIFLOOD_WINDOW,default=10s"`
		Action      string        `env:"ANTIFLOOD_ACTION,default=mute"`
	}
)

var (
	once         sync.Once
	globalConfig = &Config{}
	globalErr    error
)

func Load() (Config, error) {
	once.Do(func() {
		cfg := &Config{}
		envcfg := envconfig.Config{
			Lookuper: envconfig.PrefixLookuper("CW_", envconfig.OsLookuper()),
			Target:   cfg,
		}
		if err := envconfig.ProcessWith(context.Background(), &envcfg); err != nil {
			globalErr = fmt.Errorf("process env config: %w", err)
			return
		}
		home, err := os.UserHomeDir()
		if err != nil {
			globalErr = fmt.Errorf("get user home directory: %w", err)
			return
		}
		cfg.DotPath = strings.Replace(cfg.DotPath, "~", home, 1)
		log.Traceln("loaded config")
		globalConfig = cfg
	})
	return *globalConfig, globalErr
}

func Get() Config {
	cfg, err := Load()
	if err != nil {
		log.WithField("error", err.Error()).Error("cant load config")
	}
	return cfg
}
