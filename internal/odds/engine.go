// Package odds computes the probability of every round outcome from a
// partial information state, by exact enumeration when the unknown space
// is small and by Monte-Carlo simulation otherwise.
package odds

import (
	"context"
	"fmt"
	"math/rand/v2"
	"runtime"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/meir-san/ultimateholdem/internal/market"
	"github.com/meir-san/ultimateholdem/internal/randutil"
)

// Computer prices an information state
type Computer interface {
	Compute(ctx context.Context, req Request) (market.Odds, error)
}

// Config tunes the engine
type Config struct {
	Samples        int   // Monte-Carlo trials per request
	PreDealSamples int   // trials for the cached pre-deal state
	ExactLimit     int   // most completions enumerated exactly; negative disables
	Workers        int   // parallel workers; 0 picks from the CPU count
	Seed           int64 // 0 seeds from the clock
}

// DefaultConfig returns the standard engine settings
func DefaultConfig() Config {
	return Config{
		Samples:        500,
		PreDealSamples: 20000,
		ExactLimit:     2_000_000,
	}
}

type cacheKey struct {
	rules        Rules
	unknown      int
	dealerHidden bool
}

// Engine is safe for concurrent use
type Engine struct {
	cfg    Config
	logger *log.Logger

	mu    sync.Mutex
	rng   *rand.Rand
	cache map[cacheKey]market.Odds
}

// New creates an engine
func New(cfg Config, logger *log.Logger) *Engine {
	def := DefaultConfig()
	if cfg.Samples <= 0 {
		cfg.Samples = def.Samples
	}
	if cfg.PreDealSamples <= 0 {
		cfg.PreDealSamples = def.PreDealSamples
	}
	if cfg.ExactLimit == 0 {
		cfg.ExactLimit = def.ExactLimit
	}
	if cfg.Workers <= 0 {
		cfg.Workers = min(runtime.NumCPU(), 8)
	}
	return &Engine{
		cfg:    cfg,
		logger: logger.WithPrefix("odds"),
		rng:    randutil.New(randutil.Seed(cfg.Seed)),
		cache:  make(map[cacheKey]market.Odds),
	}
}

// Compute returns the outcome distribution for req in percent. Entries for
// outcomes the rules cannot produce are zero.
func (e *Engine) Compute(ctx context.Context, req Request) (market.Odds, error) {
	if err := req.validate(); err != nil {
		return market.Odds{}, err
	}

	start := time.Now()
	var (
		odds market.Odds
		mode string
		err  error
	)
	switch {
	case req.preDeal():
		mode = "cached"
		odds, err = e.preDeal(ctx, req)
	case req.Rules.Game == Blackjack:
		odds, mode, err = e.blackjack(ctx, req)
	default:
		odds, mode, err = e.holdem(ctx, req)
	}
	if err != nil {
		return market.Odds{}, fmt.Errorf("computing odds: %w", err)
	}

	e.logger.Debug("Computed odds",
		"key", req.Key,
		"game", req.Rules.Game,
		"mode", mode,
		"odds", odds,
		"took", time.Since(start))
	return odds, nil
}

// preDeal serves the symmetric opening state from the cache, computing it
// once per rule set and deck size.
func (e *Engine) preDeal(ctx context.Context, req Request) (market.Odds, error) {
	key := cacheKey{rules: req.Rules, unknown: len(req.Unknown), dealerHidden: req.DealerHidden}

	e.mu.Lock()
	odds, ok := e.cache[key]
	e.mu.Unlock()
	if ok {
		return odds, nil
	}

	var err error
	if req.Rules.Game == Blackjack {
		odds, err = e.blackjackMonteCarlo(ctx, req, e.cfg.PreDealSamples)
	} else {
		odds, err = e.holdemMonteCarlo(ctx, req, e.cfg.PreDealSamples)
	}
	if err != nil {
		return market.Odds{}, err
	}

	e.mu.Lock()
	e.cache[key] = odds
	e.mu.Unlock()
	return odds, nil
}

// workerRands derives one independent generator per worker
func (e *Engine) workerRands() []*rand.Rand {
	e.mu.Lock()
	defer e.mu.Unlock()
	rngs := make([]*rand.Rand, e.cfg.Workers)
	for i := range rngs {
		rngs[i] = randutil.Child(e.rng)
	}
	return rngs
}

// split divides n trials over the workers
func split(n, workers int) []int {
	out := make([]int, workers)
	for i := range out {
		out[i] = n / workers
		if i < n%workers {
			out[i]++
		}
	}
	return out
}

type tally [market.NumOutcomes]int64

func (t *tally) add(o tally) {
	for i := range t {
		t[i] += o[i]
	}
}

func (t *tally) record(winner int) {
	if winner < 0 {
		t[market.Push]++
		return
	}
	t[winner]++
}

func (t tally) odds() market.Odds {
	var total int64
	for _, v := range t {
		total += v
	}
	var o market.Odds
	if total == 0 {
		return o
	}
	for i, v := range t {
		o[i] = float64(v) / float64(total) * 100
	}
	return o
}

// symmetrize averages the seats that cannot be told apart so sampling
// noise does not favour one of them.
func symmetrize(o market.Odds, seats []int) market.Odds {
	if len(seats) < 2 {
		return o
	}
	var sum float64
	for _, s := range seats {
		sum += o[s]
	}
	for _, s := range seats {
		o[s] = sum / float64(len(seats))
	}
	return o
}
