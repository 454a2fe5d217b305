package round

import (
	"errors"
	"fmt"
	"time"

	"github.com/meir-san/ultimateholdem/internal/market"
)

// Config holds the table and session parameters of a Game
type Config struct {
	Variant      Variant
	Decks        int
	FoldUnraised bool

	PredictionWindow time.Duration // countdown per phase
	TickInterval     time.Duration
	LockSeconds      int // the market closes for the last seconds of a window
	CertaintyDelay   time.Duration
	DisplayDelay     time.Duration // pause on a resolved round before the next deal

	InitialBalance   float64
	DefaultBetAmount float64
	MaxBetAmount     float64

	PriceHistoryCap int
	ActivityCap     int

	CrowdBets bool
	Market    market.Config
}

// DefaultConfig returns the standard session parameters for variant
func DefaultConfig(variant Variant) Config {
	return Config{
		Variant:          variant,
		Decks:            1,
		PredictionWindow: 15 * time.Second,
		TickInterval:     time.Second,
		LockSeconds:      2,
		CertaintyDelay:   100 * time.Millisecond,
		DisplayDelay:     4 * time.Second,
		InitialBalance:   100,
		DefaultBetAmount: 10,
		MaxBetAmount:     100,
		PriceHistoryCap:  100,
		ActivityCap:      10,
		CrowdBets:        true,
		Market:           market.DefaultConfig(),
	}
}

// QuickAmounts are the preset bet sizes offered to the player
var QuickAmounts = []float64{5, 10, 25, 50}

var errInvalidConfig = errors.New("invalid round config")

// Validate checks the config for values the Game cannot run with
func (c Config) Validate() error {
	if _, err := ParseVariant(string(c.Variant)); err != nil {
		return fmt.Errorf("%w: %w", errInvalidConfig, err)
	}
	if c.Decks < 1 {
		return fmt.Errorf("%w: decks must be at least 1", errInvalidConfig)
	}
	if c.Variant != Blackjack && c.Decks != 1 {
		return fmt.Errorf("%w: %s is dealt from a single deck", errInvalidConfig, c.Variant)
	}
	if c.PredictionWindow < c.TickInterval || c.TickInterval <= 0 {
		return fmt.Errorf("%w: prediction window %v must cover at least one tick of %v", errInvalidConfig, c.PredictionWindow, c.TickInterval)
	}
	if c.LockSeconds < 0 {
		return fmt.Errorf("%w: negative lock window", errInvalidConfig)
	}
	if c.DefaultBetAmount <= 0 || c.DefaultBetAmount > c.MaxBetAmount {
		return fmt.Errorf("%w: default bet %.2f outside (0, %.2f]", errInvalidConfig, c.DefaultBetAmount, c.MaxBetAmount)
	}
	if c.InitialBalance < 0 {
		return fmt.Errorf("%w: negative balance", errInvalidConfig)
	}
	if c.Market.Fee < 0 || c.Market.Fee >= 1 {
		return fmt.Errorf("%w: fee %.3f outside [0, 1)", errInvalidConfig, c.Market.Fee)
	}
	if c.PriceHistoryCap < 1 || c.ActivityCap < 1 {
		return fmt.Errorf("%w: history caps must be positive", errInvalidConfig)
	}
	return nil
}

// windowTicks is the countdown value a fresh window starts at
func (c Config) windowTicks() int {
	return int(c.PredictionWindow / c.TickInterval)
}
