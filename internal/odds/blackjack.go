package odds

import (
	"context"
	"math/rand/v2"

	"github.com/meir-san/ultimateholdem/internal/deck"
	"github.com/meir-san/ultimateholdem/internal/evaluator"
	"github.com/meir-san/ultimateholdem/internal/market"
	"github.com/meir-san/ultimateholdem/internal/strategy"
	"golang.org/x/sync/errgroup"
)

func (e *Engine) blackjack(ctx context.Context, req Request) (market.Odds, string, error) {
	player, dealer := req.Holes[0], req.Holes[1]

	if evaluator.IsBust(player) {
		return market.CertainOdds(market.Seat2), "settled", nil
	}
	if !req.DealerHidden && evaluator.IsBust(dealer) {
		return market.CertainOdds(market.Seat1), "settled", nil
	}

	// Once the player's strategy stands only the dealer draws, and the
	// dealer's draws can be enumerated exactly by card value.
	if len(player) >= 2 && len(dealer) > 0 && !strategy.ShouldHit(player, dealer[0]) {
		return blackjackExact(&req), "exact", nil
	}

	odds, err := e.blackjackMonteCarlo(ctx, req, e.cfg.Samples)
	return odds, "monte-carlo", err
}

func winnerIndex(w evaluator.Winner) int {
	switch w {
	case evaluator.PlayerWins:
		return 0
	case evaluator.DealerWins:
		return 1
	default:
		return -1
	}
}

func (e *Engine) blackjackMonteCarlo(ctx context.Context, req Request, samples int) (market.Odds, error) {
	rngs := e.workerRands()
	parts := split(samples, len(rngs))
	results := make([]tally, len(rngs))

	g, ctx := errgroup.WithContext(ctx)
	for w := range rngs {
		g.Go(func() error {
			t, err := blackjackTrials(ctx, &req, parts[w], rngs[w])
			results[w] = t
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return market.Odds{}, err
	}

	var total tally
	for _, r := range results {
		total.add(r)
	}
	return total.odds(), nil
}

// blackjackTrials plays the round out: missing cards are dealt, the player
// follows basic strategy and the dealer draws to 17.
func blackjackTrials(ctx context.Context, req *Request, n int, rng *rand.Rand) (tally, error) {
	var t tally
	d := newDrawer(req.Unknown, rng)
	player := make([]deck.Card, 0, 12)
	dealer := make([]deck.Card, 0, 12)

	for i := 0; i < n; i++ {
		if i&63 == 0 {
			if err := ctx.Err(); err != nil {
				return t, err
			}
		}
		d.reset()
		player = append(player[:0], req.Holes[0]...)
		dealer = append(dealer[:0], req.Holes[1]...)

		for len(player) < 2 {
			player = append(player, d.draw())
		}
		if len(dealer) == 0 {
			dealer = append(dealer, d.draw())
		}
		if req.DealerHidden {
			dealer = append(dealer, d.draw())
		}

		for strategy.ShouldHit(player, dealer[0]) {
			player = append(player, d.draw())
		}
		if evaluator.IsBust(player) {
			t.record(1)
			continue
		}
		for strategy.DealerShouldHit(dealer) {
			dealer = append(dealer, d.draw())
		}
		t.record(winnerIndex(evaluator.CompareBlackjack(player, dealer)))
	}
	return t, nil
}

// blackjackExact weights every dealer draw sequence by its probability
// given the unknown cards grouped by blackjack value.
func blackjackExact(req *Request) market.Odds {
	var counts [11]int
	for _, c := range req.Unknown {
		counts[deck.BlackjackValue(c.BlackjackRank())]++
	}
	values := make([]int, 0, 16)
	for _, c := range req.Holes[1] {
		values = append(values, deck.BlackjackValue(c.BlackjackRank()))
	}

	var out [3]float64
	dealerDraws(values, &counts, len(req.Unknown), evaluator.BlackjackCards(req.Holes[0]), 1, &out)
	return market.Odds{
		market.Seat1: out[0] * 100,
		market.Seat2: out[1] * 100,
		market.Push:  out[2] * 100,
	}
}

// dealerDraws accumulates into out (player, dealer, push) the probability
// p of reaching the dealer hand values, recursing over the next card.
func dealerDraws(values []int, counts *[11]int, remaining, player int, p float64, out *[3]float64) {
	total := evaluator.BlackjackTotal(values)
	switch {
	case total > evaluator.BlackjackLimit:
		out[0] += p
		return
	case total >= strategy.DealerStandsOn:
		switch {
		case player > total:
			out[0] += p
		case total > player:
			out[1] += p
		default:
			out[2] += p
		}
		return
	}

	if remaining == 0 {
		panic("odds: deck exhausted while the dealer draws")
	}
	for v := 1; v <= 10; v++ {
		if counts[v] == 0 {
			continue
		}
		q := p * float64(counts[v]) / float64(remaining)
		counts[v]--
		dealerDraws(append(values, v), counts, remaining-1, player, q, out)
		counts[v]++
	}
}
