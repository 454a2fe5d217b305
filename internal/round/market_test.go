package round

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meir-san/ultimateholdem/internal/market"
)

func startedGame(t *testing.T, cfg Config) *Game {
	t.Helper()
	g, _ := newTestGame(t, cfg, fixedOdds(fortyFifty))
	require.NoError(t, g.StartRound())
	g.Wait()
	return g
}

func TestSelectBetAmount(t *testing.T) {
	g := startedGame(t, testConfig(Blackjack))

	tests := []struct {
		amount  float64
		wantErr bool
	}{
		{0, true},
		{-5, true},
		{101, true},
		{5, false},
		{100, false},
		{25, false},
	}
	for _, tt := range tests {
		err := g.SelectBetAmount(tt.amount)
		if tt.wantErr {
			assert.ErrorIs(t, err, ErrInvalidBetAmount, "amount %.2f", tt.amount)
		} else {
			assert.NoError(t, err, "amount %.2f", tt.amount)
		}
	}
	assert.Equal(t, 25.0, g.Snapshot().BetAmount)
}

func TestPlaceBetValidation(t *testing.T) {
	t.Run("outcome not traded", func(t *testing.T) {
		g := startedGame(t, testConfig(Blackjack))
		_, err := g.PlaceBet(market.Seat3)
		assert.ErrorIs(t, err, ErrUnknownOutcome)
	})

	t.Run("insufficient balance", func(t *testing.T) {
		cfg := testConfig(Blackjack)
		cfg.InitialBalance = 20
		g := startedGame(t, cfg)
		require.NoError(t, g.SelectBetAmount(25))
		_, err := g.PlaceBet(market.Seat1)
		assert.ErrorIs(t, err, ErrInsufficientBalance)
		assert.Equal(t, 20.0, g.Snapshot().Balance)
	})

	t.Run("sell without position", func(t *testing.T) {
		g := startedGame(t, testConfig(Blackjack))
		_, err := g.SellPosition(market.Seat2)
		assert.ErrorIs(t, err, ErrNoPosition)
	})

	t.Run("no round", func(t *testing.T) {
		g, _ := newTestGame(t, testConfig(Blackjack), fixedOdds(fortyFifty))
		_, err := g.PlaceBet(market.Seat1)
		assert.ErrorIs(t, err, ErrNoRound)
	})
}

func TestPlaceBetUpdatesBook(t *testing.T) {
	g := startedGame(t, testConfig(Blackjack))
	before := g.Snapshot()

	_, err := g.PlaceBet(market.Seat1)
	require.NoError(t, err)

	s := g.Snapshot()
	assert.InDelta(t, before.Pool[market.Seat1]+10*(1-market.DefaultFee), s.Pool[market.Seat1], 1e-9)
	assert.InDelta(t, 90, s.Balance, 1e-9)
	assert.Equal(t, 10.0, s.LifetimeVolume)
	require.Len(t, s.Positions[market.Seat1], 1)

	require.NotEmpty(t, s.Activity)
	head := s.Activity[0]
	assert.Equal(t, ActivityBet, head.Kind)
	assert.Equal(t, youName, head.Username)
	assert.True(t, head.You)
	assert.Equal(t, "Player", head.Label)
}

func TestSellPositionAtCurrentPrice(t *testing.T) {
	g := startedGame(t, testConfig(Blackjack))
	_, err := g.PlaceBet(market.Seat1)
	require.NoError(t, err)

	cash, err := g.SellPosition(market.Seat1)
	require.NoError(t, err)
	assert.InDelta(t, 24.125*0.40, cash, 1e-9)

	s := g.Snapshot()
	assert.InDelta(t, 90+cash, s.Balance, 1e-9)
	assert.Empty(t, s.Positions[market.Seat1])
	assert.Equal(t, ActivitySell, s.Activity[0].Kind)
	assert.GreaterOrEqual(t, s.Pool[market.Seat1], 0.0)
}

func TestCrowdBetsFillPoolAndFeed(t *testing.T) {
	g := startedGame(t, testConfig(Blackjack))
	before := g.Snapshot().TotalPool()

	var total float64
	for range 12 {
		trade, err := g.SimulateCrowdBet()
		require.NoError(t, err)
		assert.NotEqual(t, market.Seat3, trade.Outcome)
		total += trade.Amount
	}

	s := g.Snapshot()
	assert.InDelta(t, before+total, s.TotalPool(), 1e-9)
	assert.Len(t, s.Activity, 10)
	for _, item := range s.Activity {
		assert.False(t, item.You)
	}
}

func TestCrowdBetsTradeThroughClosingWindow(t *testing.T) {
	g := startedGame(t, testConfig(Blackjack))
	for range 13 {
		require.NoError(t, g.Tick())
	}
	require.True(t, g.Locked())

	_, err := g.PlaceBet(market.Seat1)
	assert.ErrorIs(t, err, ErrMarketLocked)

	before := g.Snapshot().TotalPool()
	trade, err := g.SimulateCrowdBet()
	require.NoError(t, err)
	assert.InDelta(t, before+trade.Amount, g.Snapshot().TotalPool(), 1e-9)
}

func TestCrowdBetsTradeWhileOddsPending(t *testing.T) {
	computer := newGatedComputer()
	g, _ := newTestGame(t, testConfig(Blackjack), computer)
	require.NoError(t, g.StartRound())
	key := computer.next(t)
	require.True(t, g.Snapshot().OddsPending)

	_, err := g.SimulateCrowdBet()
	assert.NoError(t, err)

	computer.gate(key) <- fortyFifty
	g.Wait()
}

func TestCrowdBetsStopAtResolution(t *testing.T) {
	g, _ := newTestGame(t, testConfig(Blackjack), fixedOdds(fortyFifty), WithDeckFactory(stackedDeck("Th7c6s9dKc")))
	require.NoError(t, g.StartRound())
	g.Wait()
	for range 3 {
		advance(t, g)
	}
	s := advance(t, g)
	require.True(t, s.Resolved)

	_, err := g.SimulateCrowdBet()
	assert.ErrorIs(t, err, ErrRoundResolved)
}

func TestPriceHistoryIsCapped(t *testing.T) {
	cfg := testConfig(Blackjack)
	cfg.PriceHistoryCap = 5
	g := startedGame(t, cfg)

	for range 10 {
		require.NoError(t, g.UpdatePriceHistory())
	}
	s := g.Snapshot()
	assert.Len(t, s.PriceHistory, 5)
	assert.Equal(t, fortyFifty, s.PriceHistory[4].Odds)
}

func TestRebalanceRecordsMarketActivity(t *testing.T) {
	g := startedGame(t, testConfig(Blackjack))
	_, err := g.PlaceBet(market.Seat1)
	require.NoError(t, err)

	moved, err := g.Rebalance(fortyFifty)
	require.NoError(t, err)
	assert.False(t, moved, "odds have not moved")

	moved, err = g.Rebalance(market.Odds{market.Seat1: 20, market.Seat2: 70, market.Push: 10})
	require.NoError(t, err)
	assert.True(t, moved)

	s := g.Snapshot()
	assert.Equal(t, ActivityRebalance, s.Activity[0].Kind)
	assert.Equal(t, marketName, s.Activity[0].Username)
	assert.InDelta(t, 20, s.Activity[0].Amount, 1e-9)
	// crowd floor plus the capital backing the human's shares
	assert.GreaterOrEqual(t, s.Pool[market.Seat1], 10+24.125*0.40-1e-9)
}

func TestPricesFollowPricingModel(t *testing.T) {
	cfg := testConfig(Blackjack)
	s := startedGame(t, cfg).Snapshot()
	assert.InDelta(t, 0.40, s.Prices[market.Seat1], 1e-12)
	assert.InDelta(t, 0.50, s.Prices[market.Seat2], 1e-12)

	cfg.Market.Pricing = market.PoolImplied
	s = startedGame(t, cfg).Snapshot()
	var sum float64
	for _, o := range s.Outcomes {
		sum += s.Prices[o]
	}
	assert.InDelta(t, 1, sum, 1e-9)
}
