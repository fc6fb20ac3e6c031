// Package config loads cardclash settings from a YAML file, CARDCLASH_*
// environment variables and built-in defaults, in that order of precedence
// (environment wins).
package config

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/peterkuimelis/cardclash/internal/ai"
	"github.com/peterkuimelis/cardclash/internal/game"
	"github.com/peterkuimelis/cardclash/internal/log"
)

// EnvPrefix prefixes every environment override, e.g. CARDCLASH_SERVER_ADDRESS.
const EnvPrefix = "CARDCLASH"

// Config is the root configuration.
type Config struct {
	Logging      LoggingConfig               `mapstructure:"logging"`
	Match        MatchConfig                 `mapstructure:"match"`
	Difficulties map[string]DifficultyConfig `mapstructure:"difficulties"`
	Server       ServerConfig                `mapstructure:"server"`
	Catalog      CatalogConfig               `mapstructure:"catalog"`
}

// LoggingConfig selects the diagnostics logger.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // json or console
}

// MatchConfig holds the rules and defaults for new matches.
type MatchConfig struct {
	Seed           int64  `mapstructure:"seed"` // 0 picks a random seed
	StartingHealth int    `mapstructure:"starting_health"`
	HandLimit      int    `mapstructure:"hand_limit"`
	FieldLimit     int    `mapstructure:"field_limit"`
	OpeningHand    int    `mapstructure:"opening_hand"`
	ManaCap        int    `mapstructure:"mana_cap"` // human side
	LogCapacity    int    `mapstructure:"log_capacity"`
	Difficulty     string `mapstructure:"difficulty"`
}

// DifficultyConfig describes one opponent profile.
type DifficultyConfig struct {
	ManaCap    int           `mapstructure:"mana_cap"`
	PlayLimit  int           `mapstructure:"play_limit"`
	Strategy   string        `mapstructure:"strategy"`
	PhaseDelay time.Duration `mapstructure:"phase_delay"`
}

// ServerConfig configures the match authority's HTTP listener.
type ServerConfig struct {
	Address string `mapstructure:"address"`
}

// CatalogConfig locates the card and deck data. An empty catalog path uses
// the built-in catalog.
type CatalogConfig struct {
	Path  string `mapstructure:"path"`
	Decks string `mapstructure:"decks"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")

	v.SetDefault("match.seed", 0)
	v.SetDefault("match.starting_health", game.StartingHealth)
	v.SetDefault("match.hand_limit", game.HandLimit)
	v.SetDefault("match.field_limit", game.FieldLimit)
	v.SetDefault("match.opening_hand", game.OpeningHand)
	v.SetDefault("match.mana_cap", game.ManaCeiling)
	v.SetDefault("match.log_capacity", log.DefaultLogCapacity)
	v.SetDefault("match.difficulty", "normal")

	for name, p := range ai.DefaultProfiles() {
		key := "difficulties." + name
		v.SetDefault(key+".mana_cap", p.ManaCap)
		v.SetDefault(key+".play_limit", p.PlayLimit)
		v.SetDefault(key+".strategy", p.Strategy.Name())
		v.SetDefault(key+".phase_delay", 0)
	}

	v.SetDefault("server.address", ":8080")
	v.SetDefault("catalog.path", "")
	v.SetDefault("catalog.decks", "decks.yaml")
}

// Load reads the configuration. An empty path skips the file; a path that
// cannot be read is an error.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the built-in configuration.
func Default() *Config {
	cfg, err := Load("")
	if err != nil {
		panic(err)
	}
	return cfg
}

// Validate checks the limits and every difficulty profile.
func (c *Config) Validate() error {
	var errs []error
	m := c.Match
	if m.StartingHealth <= 0 {
		errs = append(errs, fmt.Errorf("match.starting_health must be positive"))
	}
	if m.HandLimit <= 0 || m.FieldLimit <= 0 {
		errs = append(errs, fmt.Errorf("match hand and field limits must be positive"))
	}
	if m.OpeningHand < 0 || m.OpeningHand > m.HandLimit {
		errs = append(errs, fmt.Errorf("match.opening_hand %d outside 0..%d", m.OpeningHand, m.HandLimit))
	}
	if m.ManaCap <= 0 {
		errs = append(errs, fmt.Errorf("match.mana_cap must be positive"))
	}
	if m.LogCapacity <= 0 {
		errs = append(errs, fmt.Errorf("match.log_capacity must be positive"))
	}
	if _, ok := c.Difficulties[m.Difficulty]; !ok {
		errs = append(errs, fmt.Errorf("match.difficulty %q is not configured", m.Difficulty))
	}
	for name, d := range c.Difficulties {
		if _, err := ai.StrategyByName(d.Strategy); err != nil {
			errs = append(errs, fmt.Errorf("difficulties.%s: %w", name, err))
		}
		if d.PlayLimit < 0 || d.ManaCap < 0 || d.PhaseDelay < 0 {
			errs = append(errs, fmt.Errorf("difficulties.%s: negative value", name))
		}
	}
	return errors.Join(errs...)
}

// Rules builds the match rules with the human side at match.mana_cap and the
// opponent at the named difficulty's ceiling.
func (c *Config) Rules(difficulty string) (game.Rules, error) {
	rules := game.Rules{
		StartingHealth: c.Match.StartingHealth,
		HandLimit:      c.Match.HandLimit,
		FieldLimit:     c.Match.FieldLimit,
		OpeningHand:    c.Match.OpeningHand,
		ManaCap:        [2]int{c.Match.ManaCap, c.Match.ManaCap},
	}
	p, err := c.Profile(difficulty)
	if err != nil {
		return rules, err
	}
	p.Apply(&rules, game.SideOpponent)
	return rules, nil
}

// Profile returns the opponent profile for a difficulty. An empty name uses
// match.difficulty.
func (c *Config) Profile(name string) (ai.Profile, error) {
	if name == "" {
		name = c.Match.Difficulty
	}
	d, ok := c.Difficulties[name]
	if !ok {
		return ai.Profile{}, fmt.Errorf("unknown difficulty %q (have %s)", name, strings.Join(c.DifficultyNames(), ", "))
	}
	s, err := ai.StrategyByName(d.Strategy)
	if err != nil {
		return ai.Profile{}, err
	}
	return ai.Profile{Name: name, ManaCap: d.ManaCap, PlayLimit: d.PlayLimit, Strategy: s}, nil
}

// Opponent builds a configured opponent for side.
func (c *Config) Opponent(side game.Side, difficulty string, logger *zap.Logger) (*ai.Opponent, error) {
	p, err := c.Profile(difficulty)
	if err != nil {
		return nil, err
	}
	if difficulty == "" {
		difficulty = c.Match.Difficulty
	}
	o := ai.NewOpponent(side, p)
	o.PhaseDelay = c.Difficulties[difficulty].PhaseDelay
	if logger != nil {
		o.Logger = logger.Named("ai")
	}
	return o, nil
}

// DifficultyNames lists configured difficulties in name order.
func (c *Config) DifficultyNames() []string {
	names := make([]string, 0, len(c.Difficulties))
	for name := range c.Difficulties {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NewLogger builds the diagnostics logger.
func NewLogger(cfg LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	switch cfg.Level {
	case "debug":
		level = zapcore.DebugLevel
	case "info":
		level = zapcore.InfoLevel
	case "warn":
		level = zapcore.WarnLevel
	case "error":
		level = zapcore.ErrorLevel
	default:
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
