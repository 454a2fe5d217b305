package round

import (
	"context"
	"io"
	"math/rand/v2"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/stretchr/testify/require"

	"github.com/meir-san/ultimateholdem/internal/deck"
	"github.com/meir-san/ultimateholdem/internal/market"
	"github.com/meir-san/ultimateholdem/internal/odds"
	"github.com/meir-san/ultimateholdem/internal/randutil"
)

// scriptedComputer answers every request with fn and keeps the requests
type scriptedComputer struct {
	fn func(odds.Request) market.Odds

	mu       sync.Mutex
	requests []odds.Request
}

func fixedOdds(o market.Odds) *scriptedComputer {
	return &scriptedComputer{fn: func(odds.Request) market.Odds { return o }}
}

func (c *scriptedComputer) Compute(_ context.Context, req odds.Request) (market.Odds, error) {
	c.mu.Lock()
	c.requests = append(c.requests, req)
	c.mu.Unlock()
	return c.fn(req), nil
}

func (c *scriptedComputer) last() odds.Request {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.requests[len(c.requests)-1]
}

// gatedComputer blocks each request until the test releases its key
type gatedComputer struct {
	started chan uint64

	mu    sync.Mutex
	gates map[uint64]chan market.Odds
}

func newGatedComputer() *gatedComputer {
	return &gatedComputer{started: make(chan uint64, 16), gates: make(map[uint64]chan market.Odds)}
}

func (c *gatedComputer) gate(key uint64) chan market.Odds {
	c.mu.Lock()
	defer c.mu.Unlock()
	ch, ok := c.gates[key]
	if !ok {
		ch = make(chan market.Odds, 1)
		c.gates[key] = ch
	}
	return ch
}

func (c *gatedComputer) Compute(ctx context.Context, req odds.Request) (market.Odds, error) {
	c.started <- req.Key
	select {
	case o := <-c.gate(req.Key):
		return o, nil
	case <-ctx.Done():
		return market.Odds{}, ctx.Err()
	}
}

func (c *gatedComputer) next(t *testing.T) uint64 {
	t.Helper()
	select {
	case key := <-c.started:
		return key
	case <-time.After(5 * time.Second):
		t.Fatal("no odds request started")
		return 0
	}
}

// stackedDeck deals top first, then the rest of the shoe in shuffled order
func stackedDeck(top string) DeckFactory {
	return func(rng *rand.Rand, decks int) *deck.Deck {
		first := deck.MustParseCards(top)
		order := deck.Shuffle(rng, deck.Without(deck.Universe(decks), first...))
		for _, c := range slices.Backward(first) {
			order = append(order, c)
		}
		return deck.FromCards(order)
	}
}

func testConfig(v Variant) Config {
	cfg := DefaultConfig(v)
	cfg.CrowdBets = false
	return cfg
}

func newTestGame(t *testing.T, cfg Config, computer odds.Computer, opts ...Option) (*Game, *quartz.Mock) {
	t.Helper()
	mClock := quartz.NewMock(t)
	opts = append([]Option{WithClock(mClock), WithRand(randutil.New(1))}, opts...)
	g, err := New(cfg, computer, log.New(io.Discard), opts...)
	require.NoError(t, err)
	t.Cleanup(g.Close)
	return g, mClock
}

func testContext(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

// advance deals the next phase and waits for its odds
func advance(t *testing.T, g *Game) Snapshot {
	t.Helper()
	require.NoError(t, g.AdvancePhase())
	g.Wait()
	return g.Snapshot()
}

type recorder struct {
	g *Game

	mu     sync.Mutex
	events []EventType
	phases []Phase
}

func (r *recorder) OnEvent(e Event) {
	phase := r.g.Snapshot().Phase
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e.EventType())
	r.phases = append(r.phases, phase)
}

func (r *recorder) types() []EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.events)
}
