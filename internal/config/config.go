// Package config loads session configuration from HCL
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/kelseyhightower/envconfig"

	"github.com/meir-san/ultimateholdem/internal/market"
	"github.com/meir-san/ultimateholdem/internal/odds"
	"github.com/meir-san/ultimateholdem/internal/round"
)

// Config represents the complete configuration file
type Config struct {
	LogLevel string          `hcl:"log_level,optional"`
	Game     *GameSettings   `hcl:"game,block"`
	Market   *MarketSettings `hcl:"market,block"`
	Feed     *FeedSettings   `hcl:"feed,block"`
}

// GameSettings configures the table, the engine and the player's session
type GameSettings struct {
	Variant      string `hcl:"variant,optional"`
	Decks        int    `hcl:"decks,optional"`
	FoldUnraised bool   `hcl:"fold_unraised,optional"`

	PredictionWindow string `hcl:"prediction_window,optional"`
	LockSeconds      *int   `hcl:"lock_seconds,optional"`
	CertaintyDelay   string `hcl:"certainty_delay,optional"`
	DisplayDelay     string `hcl:"display_delay,optional"`

	InitialBalance float64  `hcl:"initial_balance,optional"`
	DefaultBet     float64  `hcl:"default_bet,optional"`
	MaxBet         float64  `hcl:"max_bet,optional"`
	Fee            *float64 `hcl:"fee,optional"`
	Pricing        string   `hcl:"pricing,optional"`
	PoolBase       float64  `hcl:"pool_base,optional"`
	CrowdBets      *bool    `hcl:"crowd_bets,optional"`

	Samples        int   `hcl:"samples,optional"`
	PreDealSamples int   `hcl:"predeal_samples,optional"`
	ExactLimit     int   `hcl:"exact_limit,optional"`
	Workers        int   `hcl:"workers,optional"`
	Seed           int64 `hcl:"seed,optional"`
}

// MarketSettings tunes the pool dynamics and the synthetic crowd
type MarketSettings struct {
	RebalanceThreshold float64 `hcl:"rebalance_threshold,optional"`
	RebalanceFactor    float64 `hcl:"rebalance_factor,optional"`
	RebalanceFloor     float64 `hcl:"rebalance_floor,optional"`

	CrowdNoise    float64 `hcl:"crowd_noise,optional"`
	CrowdMinBet   float64 `hcl:"crowd_min_bet,optional"`
	CrowdMaxBet   float64 `hcl:"crowd_max_bet,optional"`
	CrowdMinDelay string  `hcl:"crowd_min_delay,optional"`
	CrowdMaxDelay string  `hcl:"crowd_max_delay,optional"`

	PriceHistory int `hcl:"price_history,optional"`
	ActivityFeed int `hcl:"activity_feed,optional"`
}

// FeedSettings configures the websocket event feed
type FeedSettings struct {
	Enabled        bool     `hcl:"enabled,optional"`
	Listen         string   `hcl:"listen,optional"`
	AllowedOrigins []string `hcl:"allowed_origins,optional"`
	AccessLog      bool     `hcl:"access_log,optional"`
}

// Environment overrides the file, e.g. ODDSMARKET_VARIANT=blackjack
type Environment struct {
	LogLevel       string   `envconfig:"log_level"`
	Variant        string   `envconfig:"variant"`
	Seed           int64    `envconfig:"seed"`
	FeedListen     string   `envconfig:"feed_listen"`
	AllowedOrigins []string `envconfig:"allowed_origins"`
}

// EnvPrefix prefixes every environment override
const EnvPrefix = "oddsmarket"

const (
	defaultLogLevel = "info"
	defaultListen   = "localhost:8080"
)

// Default returns the configuration used when no file is given
func Default() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

// Load reads filename, then applies the environment overrides. A missing
// file yields the defaults.
func Load(filename string) (*Config, error) {
	var c Config
	if _, err := os.Stat(filename); err == nil {
		parser := hclparse.NewParser()
		file, diags := parser.ParseHCLFile(filename)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
		}
		if diags := gohcl.DecodeBody(file.Body, nil, &c); diags.HasErrors() {
			return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}

	var env Environment
	if err := envconfig.Process(EnvPrefix, &env); err != nil {
		return nil, fmt.Errorf("reading environment: %w", err)
	}
	c.Override(env)
	c.applyDefaults()
	return &c, nil
}

// Override applies the non-empty values of env
func (c *Config) Override(env Environment) {
	if c.Game == nil {
		c.Game = &GameSettings{}
	}
	if c.Feed == nil {
		c.Feed = &FeedSettings{}
	}
	if env.LogLevel != "" {
		c.LogLevel = env.LogLevel
	}
	if env.Variant != "" {
		c.Game.Variant = env.Variant
	}
	if env.Seed != 0 {
		c.Game.Seed = env.Seed
	}
	if env.FeedListen != "" {
		c.Feed.Enabled = true
		c.Feed.Listen = env.FeedListen
	}
	if len(env.AllowedOrigins) > 0 {
		c.Feed.AllowedOrigins = env.AllowedOrigins
	}
}

// applyDefaults fills every unset value
func (c *Config) applyDefaults() {
	if c.LogLevel == "" {
		c.LogLevel = defaultLogLevel
	}
	if c.Game == nil {
		c.Game = &GameSettings{}
	}
	if c.Market == nil {
		c.Market = &MarketSettings{}
	}
	if c.Feed == nil {
		c.Feed = &FeedSettings{}
	}

	g := c.Game
	if g.Variant == "" {
		g.Variant = string(round.UTH)
	}
	v := round.Variant(g.Variant)
	if parsed, err := round.ParseVariant(g.Variant); err == nil {
		v = parsed
	}
	rd := round.DefaultConfig(v)
	mk := rd.Market
	od := odds.DefaultConfig()

	setInt(&g.Decks, rd.Decks)
	setDuration(&g.PredictionWindow, rd.PredictionWindow)
	setDuration(&g.CertaintyDelay, rd.CertaintyDelay)
	setDuration(&g.DisplayDelay, rd.DisplayDelay)
	if g.LockSeconds == nil {
		g.LockSeconds = &rd.LockSeconds
	}
	setFloat(&g.InitialBalance, rd.InitialBalance)
	setFloat(&g.DefaultBet, rd.DefaultBetAmount)
	setFloat(&g.MaxBet, rd.MaxBetAmount)
	if g.Fee == nil {
		g.Fee = &mk.Fee
	}
	if g.Pricing == "" {
		g.Pricing = mk.Pricing.String()
	}
	setFloat(&g.PoolBase, mk.PoolBase)
	if g.CrowdBets == nil {
		g.CrowdBets = &rd.CrowdBets
	}
	setInt(&g.Samples, od.Samples)
	setInt(&g.PreDealSamples, od.PreDealSamples)
	setInt(&g.ExactLimit, od.ExactLimit)

	m := c.Market
	setFloat(&m.RebalanceThreshold, mk.RebalanceThreshold)
	setFloat(&m.RebalanceFactor, mk.RebalanceFactor)
	setFloat(&m.RebalanceFloor, mk.RebalanceFloor)
	setFloat(&m.CrowdNoise, mk.Crowd.Noise)
	setFloat(&m.CrowdMinBet, mk.Crowd.MinAmount)
	setFloat(&m.CrowdMaxBet, mk.Crowd.MaxAmount)
	setDuration(&m.CrowdMinDelay, mk.Crowd.MinDelay)
	setDuration(&m.CrowdMaxDelay, mk.Crowd.MaxDelay)
	setInt(&m.PriceHistory, rd.PriceHistoryCap)
	setInt(&m.ActivityFeed, rd.ActivityCap)

	if c.Feed.Listen == "" {
		c.Feed.Listen = defaultListen
	}
}

func setInt(v *int, def int) {
	if *v == 0 {
		*v = def
	}
}

func setFloat(v *float64, def float64) {
	if *v == 0 {
		*v = def
	}
}

func setDuration(v *string, def time.Duration) {
	if *v == "" {
		*v = def.String()
	}
}

// Level returns the configured log level
func (c *Config) Level() (log.Level, error) {
	return log.ParseLevel(c.LogLevel)
}

// Round converts the file settings into the round configuration
func (c *Config) Round() (round.Config, error) {
	g, m := c.Game, c.Market

	variant, err := round.ParseVariant(g.Variant)
	if err != nil {
		return round.Config{}, err
	}
	pricing, err := market.ParsePricingModel(g.Pricing)
	if err != nil {
		return round.Config{}, err
	}

	rc := round.DefaultConfig(variant)
	durations := []struct {
		name string
		src  string
		dst  *time.Duration
	}{
		{"prediction_window", g.PredictionWindow, &rc.PredictionWindow},
		{"certainty_delay", g.CertaintyDelay, &rc.CertaintyDelay},
		{"display_delay", g.DisplayDelay, &rc.DisplayDelay},
		{"crowd_min_delay", m.CrowdMinDelay, &rc.Market.Crowd.MinDelay},
		{"crowd_max_delay", m.CrowdMaxDelay, &rc.Market.Crowd.MaxDelay},
	}
	for _, d := range durations {
		v, err := time.ParseDuration(d.src)
		if err != nil {
			return round.Config{}, fmt.Errorf("%s: %w", d.name, err)
		}
		*d.dst = v
	}

	rc.Decks = g.Decks
	rc.FoldUnraised = g.FoldUnraised
	rc.LockSeconds = *g.LockSeconds
	rc.InitialBalance = g.InitialBalance
	rc.DefaultBetAmount = g.DefaultBet
	rc.MaxBetAmount = g.MaxBet
	rc.CrowdBets = *g.CrowdBets
	rc.PriceHistoryCap = m.PriceHistory
	rc.ActivityCap = m.ActivityFeed

	rc.Market.Fee = *g.Fee
	rc.Market.Pricing = pricing
	rc.Market.PoolBase = g.PoolBase
	rc.Market.RebalanceThreshold = m.RebalanceThreshold
	rc.Market.RebalanceFactor = m.RebalanceFactor
	rc.Market.RebalanceFloor = m.RebalanceFloor
	rc.Market.Crowd.Noise = m.CrowdNoise
	rc.Market.Crowd.MinAmount = m.CrowdMinBet
	rc.Market.Crowd.MaxAmount = m.CrowdMaxBet
	return rc, nil
}

// Odds returns the probability engine configuration
func (c *Config) Odds() odds.Config {
	g := c.Game
	return odds.Config{
		Samples:        g.Samples,
		PreDealSamples: g.PreDealSamples,
		ExactLimit:     g.ExactLimit,
		Workers:        g.Workers,
		Seed:           g.Seed,
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if _, err := c.Level(); err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}
	rc, err := c.Round()
	if err != nil {
		return fmt.Errorf("invalid game settings: %w", err)
	}
	if err := rc.Validate(); err != nil {
		return err
	}
	m := rc.Market
	if m.RebalanceFactor < 0 || m.RebalanceFactor > 1 {
		return fmt.Errorf("rebalance_factor %.2f outside [0, 1]", m.RebalanceFactor)
	}
	if m.Crowd.MinAmount > m.Crowd.MaxAmount {
		return fmt.Errorf("crowd_min_bet %.2f above crowd_max_bet %.2f", m.Crowd.MinAmount, m.Crowd.MaxAmount)
	}
	if m.Crowd.MinDelay > m.Crowd.MaxDelay {
		return fmt.Errorf("crowd_min_delay %v above crowd_max_delay %v", m.Crowd.MinDelay, m.Crowd.MaxDelay)
	}
	if c.Game.Samples < 1 || c.Game.PreDealSamples < 1 {
		return fmt.Errorf("sample counts must be positive")
	}
	if c.Game.Workers < 0 {
		return fmt.Errorf("invalid workers: %d", c.Game.Workers)
	}
	if c.Feed.Enabled && c.Feed.Listen == "" {
		return fmt.Errorf("feed enabled without a listen address")
	}
	return nil
}
