package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"BlackjackTrainer/internal/game/table"

	"github.com/spf13/viper"
)

type Config struct {
	Server struct {
		Port string
	}
	Storage struct {
		Driver string // memory | redis | postgres
	}
	Database struct {
		DSN string
	}
	Redis struct {
		Addr     string
		Password string
		DB       int
	}
	JWT struct {
		Secret string
		TTL    time.Duration
	}
	Log struct {
		Level string
	}
	Game struct {
		Seed          int64
		SessionIdle   time.Duration `mapstructure:"session_idle"`
		SweepInterval time.Duration `mapstructure:"sweep_interval"`
	}
	Rules table.Rules
}

var C Config

func setDefaults(v *viper.Viper) {
	d := table.DefaultRules()

	v.SetDefault("server.port", ":8080")
	v.SetDefault("storage.driver", "memory")
	v.SetDefault("database.dsn", "")
	v.SetDefault("redis.addr", "127.0.0.1:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.ttl", 24*time.Hour)
	v.SetDefault("log.level", "info")
	v.SetDefault("game.seed", 0)
	v.SetDefault("game.session_idle", 30*time.Minute)
	v.SetDefault("game.sweep_interval", time.Minute)

	v.SetDefault("rules.num_decks", d.NumDecks)
	v.SetDefault("rules.penetration", d.Penetration)
	v.SetDefault("rules.dealer_hits_soft17", d.DealerHitsSoft17)
	v.SetDefault("rules.double_after_split", d.DoubleAfterSplit)
	v.SetDefault("rules.resplit", d.Resplit)
	v.SetDefault("rules.max_split_hands", d.MaxSplitHands)
	v.SetDefault("rules.early_surrender", d.EarlySurrender)
	v.SetDefault("rules.late_surrender", d.LateSurrender)
	v.SetDefault("rules.blackjack_payout", d.BlackjackPayout)
	v.SetDefault("rules.insurance_payout", d.InsurancePayout)
}

// Load 读 YAML 并叠加 BJ_ 前缀的环境变量（BJ_SERVER_PORT、BJ_RULES_NUM_DECKS ...）。
// path 为空或文件不存在时只用默认值和环境变量。
func Load(path string) error {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("BJ")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !isMissingFile(err) {
				return fmt.Errorf("read config: %w", err)
			}
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	if err := c.Rules.Validate(); err != nil {
		return fmt.Errorf("config rules: %w", err)
	}
	C = c
	return nil
}

// SetConfigFile 指定路径时 viper 直接返回 os 的错误
func isMissingFile(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}
