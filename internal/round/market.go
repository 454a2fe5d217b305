package round

import (
	"fmt"
	"math"
	"slices"

	"github.com/meir-san/ultimateholdem/internal/market"
)

// Locked reports whether trading is closed
func (g *Game) Locked() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.st == nil || g.locked()
}

// locked closes the market once the round resolves or the player folds,
// once any outcome is certain, while new odds are pending, and for the
// final seconds of each window.
func (g *Game) locked() bool {
	st := g.st
	switch {
	case st.resolved, st.folded, st.oddsPending:
		return true
	case st.odds.IsCertain():
		return true
	default:
		return st.timer > 0 && st.timer <= g.cfg.LockSeconds
	}
}

func (g *Game) checkOutcome(o market.Outcome) error {
	if !slices.Contains(g.active, o) {
		return fmt.Errorf("%w: %s", ErrUnknownOutcome, o)
	}
	return nil
}

func (g *Game) checkTrading(o market.Outcome) error {
	if g.st == nil {
		return ErrNoRound
	}
	if err := g.checkOutcome(o); err != nil {
		return err
	}
	if g.locked() {
		return ErrMarketLocked
	}
	return nil
}

// PlaceBet buys shares of o for the selected bet amount at the current price
func (g *Game) PlaceBet(o market.Outcome) (market.Position, error) {
	var pos market.Position
	err := g.update(func() error {
		if err := g.checkTrading(o); err != nil {
			return err
		}
		amount := g.bet
		if g.balance < amount {
			return fmt.Errorf("%w: have %.2f, need %.2f", ErrInsufficientBalance, g.balance, amount)
		}

		st := g.st
		price := st.ledger.Price(o, st.odds, g.active, g.cfg.Market.Pricing)
		p, err := st.ledger.Buy(o, amount, price, g.cfg.Market.Fee)
		if err != nil {
			return fmt.Errorf("buying %s: %w", o, err)
		}
		g.balance -= amount
		g.volume += amount
		pos = p

		g.logger.Debug("Placed bet", "round", st.roundNumber, "outcome", o, "amount", amount, "price", price, "shares", p.Shares)
		g.record(ActivityItem{Kind: ActivityBet, Username: youName, Outcome: o, Amount: amount, You: true})
		return nil
	})
	return pos, err
}

// SellPosition cashes out every share held on o at the current price and
// returns the cash credited.
func (g *Game) SellPosition(o market.Outcome) (float64, error) {
	var cash float64
	err := g.update(func() error {
		if err := g.checkTrading(o); err != nil {
			return err
		}
		st := g.st
		price := st.ledger.Price(o, st.odds, g.active, g.cfg.Market.Pricing)
		c, err := st.ledger.Sell(o, price)
		if err != nil {
			return fmt.Errorf("selling %s: %w", o, err)
		}
		g.balance += c
		cash = c

		g.logger.Debug("Sold position", "round", st.roundNumber, "outcome", o, "price", price, "cash", c)
		g.record(ActivityItem{Kind: ActivitySell, Username: youName, Outcome: o, Amount: c, You: true})
		return nil
	})
	return cash, err
}

// SelectBetAmount sets the amount used by PlaceBet
func (g *Game) SelectBetAmount(amount float64) error {
	return g.update(func() error {
		if math.IsNaN(amount) || amount <= 0 || amount > g.cfg.MaxBetAmount {
			return fmt.Errorf("%w: %.2f outside (0, %.2f]", ErrInvalidBetAmount, amount, g.cfg.MaxBetAmount)
		}
		g.bet = amount
		return nil
	})
}

// SimulateCrowdBet places one synthetic bet sampled around the true odds
func (g *Game) SimulateCrowdBet() (market.Trade, error) {
	var trade market.Trade
	err := g.update(func() error {
		var err error
		trade, err = g.simulateCrowdBet()
		return err
	})
	return trade, err
}

func (g *Game) simulateCrowdBet() (market.Trade, error) {
	st := g.st
	if st == nil {
		return market.Trade{}, ErrNoRound
	}
	// The crowd keeps trading through pending odds and the closing window.
	switch {
	case st.resolved:
		return market.Trade{}, ErrRoundResolved
	case st.folded, st.odds.IsCertain():
		return market.Trade{}, ErrMarketLocked
	}
	t := market.CrowdBet(g.rng, st.odds, g.active, g.cfg.Market.Crowd)
	st.ledger.AddCrowd(t.Outcome, t.Amount)
	g.record(ActivityItem{Kind: ActivityBet, Username: t.Username, Outcome: t.Outcome, Amount: t.Amount})
	return t, nil
}

// UpdatePriceHistory samples the current odds into the price chart
func (g *Game) UpdatePriceHistory() error {
	return g.update(func() error {
		if g.st == nil {
			return ErrNoRound
		}
		g.updatePriceHistory()
		return nil
	})
}

func (g *Game) updatePriceHistory() {
	st := g.st
	st.priceHistory = append(st.priceHistory, PricePoint{Time: g.clock.Now(), Odds: st.odds})
	if n := len(st.priceHistory) - g.cfg.PriceHistoryCap; n > 0 {
		st.priceHistory = slices.Delete(st.priceHistory, 0, n)
	}
}

// Rebalance pulls crowd volume toward the current odds when they moved
// past the threshold since prev. It reports whether the pool changed.
func (g *Game) Rebalance(prev market.Odds) (bool, error) {
	var moved bool
	err := g.update(func() error {
		if g.st == nil {
			return ErrNoRound
		}
		moved = g.rebalance(prev)
		return nil
	})
	return moved, err
}

func (g *Game) rebalance(prev market.Odds) bool {
	st := g.st
	if st.resolved || !st.ledger.Rebalance(prev, st.odds, g.active, g.cfg.Market) {
		return false
	}
	o, shift := g.largestShift(prev)
	g.record(ActivityItem{Kind: ActivityRebalance, Username: marketName, Outcome: o, Amount: shift})
	return true
}

// largestShift returns the outcome whose odds moved furthest since prev
func (g *Game) largestShift(prev market.Odds) (market.Outcome, float64) {
	var (
		best  market.Outcome
		shift float64
	)
	for _, o := range g.active {
		if d := math.Abs(g.st.odds[o] - prev[o]); d > shift {
			best, shift = o, d
		}
	}
	return best, shift
}

// record puts item at the head of the activity feed
func (g *Game) record(item ActivityItem) {
	st := g.st
	item.Label = g.cfg.Variant.Label(item.Outcome)
	item.Time = g.clock.Now()
	st.activity = slices.Insert(st.activity, 0, item)
	if len(st.activity) > g.cfg.ActivityCap {
		st.activity = st.activity[:g.cfg.ActivityCap]
	}
	g.emit(TradeEvent{baseEvent: g.base(), Item: item})
}
