package market

import (
	"testing"

	"github.com/meir-san/ultimateholdem/internal/randutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLedger(t *testing.T) {
	cfg := DefaultConfig()
	l := NewLedger(randutil.New(1), Odds{Seat1: 42, Seat2: 50, Push: 8}, headsUp, cfg)

	assert.InDelta(t, 420, l.Pool[Seat1], 25)
	assert.InDelta(t, 500, l.Pool[Seat2], 25)
	assert.InDelta(t, 80, l.Pool[Push], 10)
	assert.Zero(t, l.Pool[Seat3])
	assert.Equal(t, l.Pool, l.Crowd)
}

func TestBuyAndSell(t *testing.T) {
	l := &Ledger{}

	p, err := l.Buy(Seat1, 10, 0.40, DefaultFee)
	require.NoError(t, err)
	assert.InDelta(t, 24.125, p.Shares, 1e-9)
	assert.InDelta(t, 9.65, l.Pool[Seat1], 1e-9)
	assert.InDelta(t, 10.0, l.Invested(), 1e-9)
	assert.InDelta(t, 24.125, l.Payout(Seat1), 1e-9)
	assert.Zero(t, l.Payout(Seat2))

	cash, err := l.Sell(Seat1, 0.80)
	require.NoError(t, err)
	assert.InDelta(t, 19.3, cash, 1e-9)
	assert.Zero(t, l.Pool[Seat1], "pool is floored at zero")
	assert.Empty(t, l.Positions[Seat1])

	_, err = l.Sell(Seat1, 0.80)
	assert.ErrorIs(t, err, ErrNoPosition)

	_, err = l.Buy(Seat2, 0, 0.5, DefaultFee)
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = l.Buy(Seat2, 10, 0, DefaultFee)
	assert.ErrorIs(t, err, ErrNoPrice)
}

func TestSellNeverDrivesPoolNegative(t *testing.T) {
	rng := randutil.New(3)
	l := &Ledger{}
	for i := 0; i < 200; i++ {
		o := headsUp[rng.IntN(len(headsUp))]
		if rng.IntN(2) == 0 {
			_, _ = l.Buy(o, float64(1+rng.IntN(50)), 0.05+rng.Float64()*0.9, DefaultFee)
		} else {
			_, _ = l.Sell(o, rng.Float64())
		}
		for _, v := range l.Pool {
			require.GreaterOrEqual(t, v, 0.0)
		}
	}
}

func TestPrice(t *testing.T) {
	l := &Ledger{Pool: [NumOutcomes]float64{Seat1: 300, Seat2: 700}}
	odds := Odds{Seat1: 40, Seat2: 55, Push: 5}
	assert.InDelta(t, 0.40, l.Price(Seat1, odds, headsUp, TrueOdds), 1e-9)
	assert.InDelta(t, 0.30, l.Price(Seat1, odds, headsUp, PoolImplied), 1e-9)
}

func TestRebalance(t *testing.T) {
	cfg := DefaultConfig()

	t.Run("small shift is ignored", func(t *testing.T) {
		l := &Ledger{Crowd: [NumOutcomes]float64{Seat1: 450, Seat2: 480, Push: 70}}
		l.Pool = l.Crowd
		moved := l.Rebalance(Odds{Seat1: 45, Seat2: 48, Push: 7}, Odds{Seat1: 47, Seat2: 46, Push: 7}, headsUp, cfg)
		assert.False(t, moved)
		assert.Equal(t, l.Crowd, l.Pool)
	})

	t.Run("crowd pulled toward true odds", func(t *testing.T) {
		l := &Ledger{Crowd: [NumOutcomes]float64{Seat1: 450, Seat2: 480, Push: 70}}
		l.Pool = l.Crowd
		moved := l.Rebalance(Odds{Seat1: 45, Seat2: 48, Push: 7}, Odds{Seat1: 80, Seat2: 15, Push: 5}, headsUp, cfg)
		require.True(t, moved)

		// 1000 * (0.45 + (0.80-0.45)*0.9)
		assert.InDelta(t, 765, l.Crowd[Seat1], 1e-9)
		assert.InDelta(t, 1000*(0.48+(0.15-0.48)*0.9), l.Crowd[Seat2], 1e-9)
		assert.InDelta(t, 1000*(0.07+(0.05-0.07)*0.9), l.Crowd[Push], 1e-9)
	})

	t.Run("floor applies", func(t *testing.T) {
		l := &Ledger{Crowd: [NumOutcomes]float64{Seat1: 50, Seat2: 50}}
		require.True(t, l.Rebalance(Odds{Seat1: 50, Seat2: 50}, CertainOdds(Seat1), headsUp, cfg))
		assert.Equal(t, cfg.RebalanceFloor, l.Crowd[Push])
		assert.Equal(t, cfg.RebalanceFloor, l.Crowd[Seat2])
	})

	t.Run("human capital preserved", func(t *testing.T) {
		l := NewLedger(randutil.New(9), Odds{Seat1: 45, Seat2: 48, Push: 7}, headsUp, cfg)
		_, err := l.Buy(Seat1, 25, 0.45, cfg.Fee)
		require.NoError(t, err)
		_, err = l.Buy(Push, 10, 0.07, cfg.Fee)
		require.NoError(t, err)

		var before [NumOutcomes]float64
		for _, o := range headsUp {
			before[o] = l.HumanContribution(o)
		}

		require.True(t, l.Rebalance(Odds{Seat1: 45, Seat2: 48, Push: 7}, Odds{Seat1: 20, Seat2: 75, Push: 5}, headsUp, cfg))
		for _, o := range headsUp {
			assert.InDelta(t, before[o], l.HumanContribution(o), 1e-9)
			assert.InDelta(t, l.Crowd[o]+before[o], l.Pool[o], 1e-9)
		}
	})
}
