// Package round runs prediction-market rounds on a dealt card game. A Game
// owns all round state: cards are dealt phase by phase, every deal is priced
// by the odds engine in the background, and the human's trades settle
// against a fee-adjusted pool when the round resolves.
package round

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/meir-san/ultimateholdem/internal/deck"
	"github.com/meir-san/ultimateholdem/internal/evaluator"
	"github.com/meir-san/ultimateholdem/internal/market"
	"github.com/meir-san/ultimateholdem/internal/odds"
	"github.com/meir-san/ultimateholdem/internal/randutil"
	"github.com/meir-san/ultimateholdem/internal/roundid"
)

var (
	ErrMarketLocked        = errors.New("market is locked")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrNoPosition          = market.ErrNoPosition
	ErrInvalidBetAmount    = errors.New("invalid bet amount")
	ErrUnknownOutcome      = errors.New("outcome is not traded in this variant")
	ErrNoRound             = errors.New("no round in progress")
	ErrRoundResolved       = errors.New("round already resolved")
	ErrRoundInProgress     = errors.New("round still in progress")
	ErrClosed              = errors.New("game closed")
	ErrAlreadyRunning      = errors.New("game already running")
)

// DeckFactory builds the shoe for a new round
type DeckFactory func(rng *rand.Rand, decks int) *deck.Deck

// Option configures a Game
type Option func(*Game)

// WithClock sets the clock driving countdowns and delays
func WithClock(clock quartz.Clock) Option {
	return func(g *Game) { g.clock = clock }
}

// WithRand sets the random source for shuffles, pool seeding and crowd bets
func WithRand(rng *rand.Rand) Option {
	return func(g *Game) { g.rng = rng }
}

// WithDeckFactory replaces the shuffled shoe, e.g. with a stacked deck
func WithDeckFactory(f DeckFactory) Option {
	return func(g *Game) { g.newDeck = f }
}

// Game is one player's session at a table. All mutation goes through a
// single lock; events are published after it is released.
type Game struct {
	cfg    Config
	rules  odds.Rules
	active []market.Outcome
	logger *log.Logger
	clock  quartz.Clock
	async  *odds.Async
	ids    *roundid.Generator
	bus    *SimpleEventBus

	newDeck DeckFactory

	ctx      context.Context
	cancel   context.CancelFunc
	inflight sync.WaitGroup

	pubMu   sync.Mutex
	pubCond *sync.Cond
	pubDone uint64 // last ticket whose events were delivered

	mu       sync.Mutex
	rng      *rand.Rand
	st       *state
	gen      uint64 // bumped by every deal; odds results carry it back
	round    int
	opening  market.Odds
	balance  float64
	bet      float64
	volume   float64
	history  []HistoryItem
	outbox   []Event
	pubSeq   uint64
	running  bool
	closed   bool
	stopTick context.CancelFunc

	advanceTimer *quartz.Timer
	nextTimer    *quartz.Timer
	crowdTimer   *quartz.Timer
}

// New creates a Game. Nothing is dealt until StartRound or Start.
func New(cfg Config, computer odds.Computer, logger *log.Logger, opts ...Option) (*Game, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	rules := cfg.Variant.Rules(cfg.FoldUnraised)
	g := &Game{
		cfg:     cfg,
		rules:   rules,
		active:  rules.Outcomes(),
		logger:  logger.WithPrefix("round"),
		clock:   quartz.NewReal(),
		async:   odds.NewAsync(computer),
		bus:     NewEventBus(),
		newDeck: deck.New,
		balance: cfg.InitialBalance,
		bet:     cfg.DefaultBetAmount,
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.rng == nil {
		g.rng = randutil.New(randutil.Seed(0))
	}
	g.ids = roundid.NewGenerator(g.clock, g.rng)
	g.pubCond = sync.NewCond(&g.pubMu)
	g.opening = market.EvenOdds(g.active)
	g.ctx, g.cancel = context.WithCancel(context.Background())
	return g, nil
}

// Events returns the bus that round events are published on
func (g *Game) Events() EventBus {
	return g.bus
}

// Outcomes lists the outcomes traded in this variant
func (g *Game) Outcomes() []market.Outcome {
	return slices.Clone(g.active)
}

// Config returns the session parameters
func (g *Game) Config() Config {
	return g.cfg
}

// update is the single mutation path. Events queued by fn are published
// after the state lock is released, in the order the updates ran.
// Subscribers must not call Game actions synchronously from OnEvent.
func (g *Game) update(fn func() error) error {
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return ErrClosed
	}
	err := fn()
	events := g.outbox
	g.outbox = nil
	if len(events) == 0 {
		g.mu.Unlock()
		return err
	}
	g.pubSeq++
	ticket := g.pubSeq
	g.mu.Unlock()

	g.pubMu.Lock()
	for g.pubDone != ticket-1 {
		g.pubCond.Wait()
	}
	g.pubMu.Unlock()

	for _, e := range events {
		g.bus.Publish(e)
	}

	g.pubMu.Lock()
	g.pubDone = ticket
	g.pubCond.Broadcast()
	g.pubMu.Unlock()
	return err
}

func (g *Game) emit(e Event) {
	g.outbox = append(g.outbox, e)
}

func (g *Game) base() baseEvent {
	return baseEvent{snapshot: g.snapshot(), timestamp: g.clock.Now()}
}

// Start deals the first round and starts the countdown ticker and the
// crowd. Timers stop when ctx is done or the Game is closed.
func (g *Game) Start(ctx context.Context) error {
	g.mu.Lock()
	switch {
	case g.closed:
		g.mu.Unlock()
		return ErrClosed
	case g.running:
		g.mu.Unlock()
		return ErrAlreadyRunning
	}
	g.running = true
	tickCtx, stop := context.WithCancel(ctx)
	g.stopTick = stop
	g.mu.Unlock()

	g.clock.TickerFunc(tickCtx, g.cfg.TickInterval, func() error {
		if err := g.Tick(); err != nil && !errors.Is(err, ErrClosed) {
			g.logger.Warn("Tick failed", "error", err)
		}
		return nil
	}, "round", "tick")

	return g.StartRound()
}

// Run starts the game and blocks until ctx is done, then closes it
func (g *Game) Run(ctx context.Context) error {
	if err := g.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	g.Close()
	return nil
}

// Close stops every timer, abandons pending odds computations and waits
// for them to drain. The Game cannot be used afterwards.
func (g *Game) Close() {
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return
	}
	g.closed = true
	g.gen++
	g.stopTimers()
	if g.stopTick != nil {
		g.stopTick()
	}
	g.mu.Unlock()

	g.cancel()
	g.async.Close()
	g.inflight.Wait()
	g.logger.Debug("Game closed")
}

// Wait blocks until every dispatched odds computation has been applied
// or dropped.
func (g *Game) Wait() {
	g.inflight.Wait()
}

func (g *Game) stopTimers() {
	for _, t := range []**quartz.Timer{&g.advanceTimer, &g.nextTimer, &g.crowdTimer} {
		if *t != nil {
			(*t).Stop()
			*t = nil
		}
	}
}

// StartRound deals a fresh round: new shoe, empty hands, a reseeded pool
// and a full countdown. Balance and round history carry over. A round in
// progress is abandoned.
func (g *Game) StartRound() error {
	return g.update(g.startRound)
}

// NextRound starts the following round once the current one has resolved
func (g *Game) NextRound() error {
	return g.update(func() error {
		if g.st != nil && !g.st.resolved {
			return ErrRoundInProgress
		}
		return g.startRound()
	})
}

func (g *Game) startRound() error {
	g.stopTimers()
	g.gen++
	g.round++

	seats := g.cfg.Variant.Seats()
	st := &state{
		roundID:     g.ids.Next(),
		roundNumber: g.round,
		phase:       PreDeal,
		timer:       g.cfg.windowTicks(),
		deck:        g.newDeck(g.rng, g.cfg.Decks),
		hands:       make([][]deck.Card, seats),
		revealed:    make([]bool, seats),
		odds:        g.opening,
		ledger:      market.NewLedger(g.rng, g.opening, g.active, g.cfg.Market),
	}
	for i := range st.revealed {
		st.revealed[i] = !g.cfg.Variant.hidesSeat(i) && !(g.cfg.Variant == Blackjack && i == 1)
	}
	g.st = st
	g.bet = g.cfg.DefaultBetAmount

	g.logger.Debug("Starting round", "round", st.roundNumber, "id", st.roundID, "variant", g.cfg.Variant)
	g.dispatch()
	g.emit(RoundStartEvent{baseEvent: g.base()})
	g.scheduleCrowd()
	return nil
}

// visible returns the face-up prefix of seat i's cards
func (g *Game) visible(i int) []deck.Card {
	cards := g.st.hands[i]
	switch {
	case g.st.revealed[i]:
		return cards
	case g.cfg.Variant == Blackjack:
		return cards[:min(1, len(cards))]
	default:
		return nil
	}
}

// unknown returns every card the public cannot see
func (g *Game) unknown() []deck.Card {
	cards := g.st.deck.Cards()
	for i, hand := range g.st.hands {
		cards = append(cards, hand[len(g.visible(i)):]...)
	}
	return cards
}

func (g *Game) request() odds.Request {
	st := g.st
	holes := make([][]deck.Card, len(st.hands))
	for i := range st.hands {
		holes[i] = slices.Clone(g.visible(i))
	}
	req := odds.Request{
		Key:       g.gen,
		Rules:     g.rules,
		Holes:     holes,
		Community: slices.Clone(st.community),
		Unknown:   g.unknown(),
		Raised:    st.raised(),
	}
	if g.cfg.Variant == Blackjack {
		req.DealerHidden = !st.revealed[1]
	}
	return req
}

// dispatch prices the current state in the background under a new
// generation. Results for any other generation are dropped on arrival.
func (g *Game) dispatch() {
	g.gen++
	g.st.oddsPending = true
	results := g.async.Submit(g.ctx, g.request())

	g.inflight.Add(1)
	go func() {
		defer g.inflight.Done()
		g.applyOdds(<-results)
	}()
}

func (g *Game) applyOdds(res odds.Result) {
	_ = g.update(func() error {
		if res.Key != g.gen || g.st == nil {
			g.logger.Debug("Dropping stale odds", "key", res.Key, "gen", g.gen)
			return nil
		}
		st := g.st
		st.oddsPending = false

		if res.Err != nil {
			if !errors.Is(res.Err, context.Canceled) {
				g.logger.Error("Odds computation failed", "phase", st.phase, "error", res.Err)
			}
			st.timer = g.cfg.windowTicks()
			return nil
		}

		prev := st.odds
		st.odds = res.Odds
		st.oddsHistory = append(st.oddsHistory, res.Odds)
		if st.phase == PreDeal {
			g.opening = res.Odds
		}
		g.updatePriceHistory()
		rebalanced := g.rebalance(prev)

		if _, certain := res.Odds.Certain(); certain {
			st.timer = 0
			g.scheduleAdvance()
		} else {
			st.timer = g.cfg.windowTicks()
		}

		g.logger.Debug("Applied odds", "round", st.roundNumber, "phase", st.phase, "odds", res.Odds, "took", res.Elapsed)
		g.emit(OddsUpdateEvent{baseEvent: g.base(), Odds: res.Odds, Rebalanced: rebalanced})
		return nil
	})
}

// scheduleAdvance deals the next phase shortly after the odds become
// certain, unless something else has dealt in the meantime.
func (g *Game) scheduleAdvance() {
	gen := g.gen
	if g.advanceTimer != nil {
		g.advanceTimer.Stop()
	}
	g.advanceTimer = g.clock.AfterFunc(g.cfg.CertaintyDelay, func() {
		err := g.update(func() error {
			if g.gen != gen || g.st.resolved {
				return nil
			}
			return g.advance()
		})
		if err != nil && !errors.Is(err, ErrClosed) {
			g.logger.Warn("Auto-advance failed", "error", err)
		}
	}, "round", "advance")
}

func (g *Game) scheduleNextRound() {
	round := g.round
	g.nextTimer = g.clock.AfterFunc(g.cfg.DisplayDelay, func() {
		err := g.update(func() error {
			if g.round != round {
				return nil
			}
			return g.startRound()
		})
		if err != nil && !errors.Is(err, ErrClosed) {
			g.logger.Warn("Starting next round failed", "error", err)
		}
	}, "round", "next")
}

func (g *Game) scheduleCrowd() {
	if !g.running || !g.cfg.CrowdBets {
		return
	}
	if g.crowdTimer != nil {
		g.crowdTimer.Stop()
	}
	round := g.round
	g.crowdTimer = g.clock.AfterFunc(market.CrowdDelay(g.rng, g.cfg.Market.Crowd), func() {
		_ = g.update(func() error {
			if g.round != round {
				return nil
			}
			if _, err := g.simulateCrowdBet(); err != nil {
				g.logger.Debug("Skipped crowd bet", "reason", err)
			}
			g.scheduleCrowd()
			return nil
		})
	}, "round", "crowd")
}

// Tick counts the phase window down by one. When it reaches zero the next
// phase is dealt. The countdown holds while odds are pending.
func (g *Game) Tick() error {
	return g.update(func() error {
		st := g.st
		if st == nil || st.resolved || st.oddsPending || st.timer <= 0 {
			return nil
		}
		st.timer--
		g.emit(TickEvent{baseEvent: g.base(), Timer: st.timer})
		if st.timer == 0 {
			return g.advance()
		}
		return nil
	})
}

// AdvancePhase deals the next phase immediately
func (g *Game) AdvancePhase() error {
	return g.update(g.advance)
}

func (g *Game) advance() error {
	st := g.st
	if st == nil {
		return ErrNoRound
	}
	if st.resolved {
		return ErrRoundResolved
	}
	if g.advanceTimer != nil {
		g.advanceTimer.Stop()
		g.advanceTimer = nil
	}

	from := st.phase
	var (
		winner  market.Outcome
		settled bool
		err     error
	)
	if g.cfg.Variant == Blackjack {
		winner, settled, err = g.dealBlackjack()
	} else {
		winner, settled, err = g.dealHoldem()
	}
	if err != nil {
		return fmt.Errorf("dealing after %s: %w", from, err)
	}

	g.logger.Debug("Dealt phase", "round", st.roundNumber, "from", from, "to", st.phase, "settled", settled)
	if settled {
		g.emit(PhaseChangeEvent{baseEvent: g.base(), From: from, To: st.phase})
		g.resolve(winner)
		return nil
	}
	g.dispatch()
	g.emit(PhaseChangeEvent{baseEvent: g.base(), From: from, To: st.phase})
	return nil
}

// resolve settles the round for winner and credits the human's payout
func (g *Game) resolve(winner market.Outcome) {
	st := g.st
	g.gen++
	st.phase = Resolution
	st.resolved = true
	st.winner = winner
	st.timer = 0
	st.oddsPending = false
	for i := range st.revealed {
		st.revealed[i] = true
	}

	st.odds = market.CertainOdds(winner)
	st.oddsHistory = append(st.oddsHistory, st.odds)
	g.updatePriceHistory()

	payout := st.ledger.Payout(winner)
	st.roundProfit = payout - st.ledger.Invested()
	g.balance += payout

	item := HistoryItem{
		Round:           st.roundNumber,
		Winner:          winner,
		Label:           g.cfg.Variant.Label(winner),
		HandDescription: g.describe(winner),
	}
	g.history = append(g.history, item)

	g.logger.Info("Round resolved",
		"round", st.roundNumber,
		"winner", item.Label,
		"hand", item.HandDescription,
		"payout", payout,
		"profit", st.roundProfit)
	g.emit(RoundResolveEvent{baseEvent: g.base(), Result: item, Payout: payout})
	g.scheduleNextRound()
}

// describe summarizes how winner won
func (g *Game) describe(winner market.Outcome) string {
	st := g.st
	if g.cfg.Variant == Blackjack {
		player, dealer := st.hands[0], st.hands[1]
		p, d := evaluator.BlackjackCards(player), evaluator.BlackjackCards(dealer)
		switch {
		case p > evaluator.BlackjackLimit:
			return fmt.Sprintf("Player busts with %d", p)
		case d > evaluator.BlackjackLimit:
			return fmt.Sprintf("Dealer busts with %d", d)
		default:
			return fmt.Sprintf("Player %d vs Dealer %d", p, d)
		}
	}

	if st.folded {
		return "Player folds"
	}
	seat := 0
	if winner != market.Push {
		seat = int(winner)
	}
	desc := evaluator.Describe(st.hands[seat], st.community)
	if g.cfg.Variant == UTH && winner == market.Seat1 && !dealerQualifies(st.hands[1], st.community) {
		desc += ", dealer does not qualify"
	}
	return desc
}

// Snapshot returns a copy of the observable state
func (g *Game) Snapshot() Snapshot {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.snapshot()
}

func (g *Game) snapshot() Snapshot {
	s := Snapshot{
		Variant:        g.cfg.Variant,
		Outcomes:       slices.Clone(g.active),
		Labels:         make(map[market.Outcome]string, len(g.active)),
		Balance:        g.balance,
		BetAmount:      g.bet,
		LifetimeVolume: g.volume,
		RoundHistory:   slices.Clone(g.history),
	}
	for _, o := range g.active {
		s.Labels[o] = g.cfg.Variant.Label(o)
	}

	st := g.st
	if st == nil {
		return s
	}
	s.RoundID = st.roundID
	s.RoundNumber = st.roundNumber
	s.Phase = st.phase
	s.Timer = st.timer
	s.Community = slices.Clone(st.community)
	s.Odds = st.odds
	s.OddsPending = st.oddsPending
	s.OddsHistory = slices.Clone(st.oddsHistory)
	s.Pool = st.ledger.Pool
	s.Locked = g.locked()
	s.Resolved = st.resolved
	s.Winner = st.winner
	s.RoundProfit = st.roundProfit
	s.Raised = st.raised()
	s.Folded = st.folded
	s.BustRisk = st.bustRisk
	s.Activity = slices.Clone(st.activity)
	s.PriceHistory = slices.Clone(st.priceHistory)

	for _, o := range g.active {
		s.Prices[o] = st.ledger.Price(o, st.odds, g.active, g.cfg.Market.Pricing)
	}
	for o, ps := range st.ledger.Positions {
		s.Positions[o] = slices.Clone(ps)
	}
	for _, d := range st.decisions {
		s.Decisions = append(s.Decisions, d.String())
	}

	s.Seats = make([]Seat, len(st.hands))
	for i, hand := range st.hands {
		vis := g.visible(i)
		seat := Seat{
			Label:  g.cfg.Variant.Label(market.Seat(i)),
			Cards:  slices.Clone(vis),
			Hidden: len(hand) - len(vis),
		}
		if len(vis) > 0 {
			if g.cfg.Variant == Blackjack {
				seat.Total = evaluator.BlackjackCards(vis)
			} else {
				seat.Hand = evaluator.Describe(vis, st.community)
			}
		}
		s.Seats[i] = seat
	}
	return s
}
