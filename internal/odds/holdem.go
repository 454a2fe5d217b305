package odds

import (
	"context"
	"fmt"
	"math/rand/v2"

	"github.com/meir-san/ultimateholdem/internal/deck"
	"github.com/meir-san/ultimateholdem/internal/evaluator"
	"github.com/meir-san/ultimateholdem/internal/market"
	"github.com/meir-san/ultimateholdem/internal/strategy"
	"golang.org/x/sync/errgroup"
)

func (e *Engine) holdem(ctx context.Context, req Request) (market.Odds, string, error) {
	if need := missingCards(&req); need > len(req.Unknown) {
		panic(fmt.Sprintf("odds: deck exhausted: %d cards needed, %d unknown", need, len(req.Unknown)))
	}

	if len(req.Community) >= 3 && completions(&req) <= float64(e.cfg.ExactLimit) {
		odds, err := e.holdemExact(ctx, req)
		return odds, "exact", err
	}
	odds, err := e.holdemMonteCarlo(ctx, req, e.cfg.Samples)
	return odds, "monte-carlo", err
}

func missingCards(req *Request) int {
	n := 5 - len(req.Community)
	for _, h := range req.Holes {
		n += 2 - len(h)
	}
	return n
}

// completions counts the distinct ways to finish every hand and the board
func completions(req *Request) float64 {
	n := len(req.Unknown)
	total := 1.0
	for _, h := range req.Holes {
		k := 2 - len(h)
		total *= binomial(n, k)
		n -= k
	}
	return total * binomial(n, 5-len(req.Community))
}

func binomial(n, k int) float64 {
	if k < 0 || k > n {
		return 0
	}
	r := 1.0
	for i := 0; i < k; i++ {
		r = r * float64(n-i) / float64(i+1)
	}
	return r
}

// settle returns the winning seat, or -1 for a push. hands hold the hole
// cards in their first two slots; the board is copied in.
func settle(req *Request, hands *[MaxSeats][7]deck.Card, board *[5]deck.Card) int {
	seats := req.Rules.Seats
	var scores [MaxSeats]uint32
	for s := 0; s < seats; s++ {
		copy(hands[s][2:], board[:])
		scores[s] = evaluator.Score7(&hands[s])
	}

	if req.Rules.FoldUnraised && !req.Raised && strategy.Line(hands[0][:2], board[:]) == strategy.Fold {
		return 1
	}
	if req.Rules.Qualify && evaluator.RankOf(scores[1]) < evaluator.Pair {
		return 0
	}
	return evaluator.WinnerOfScores(scores[:seats])
}

// holdemMonteCarlo deals random completions across parallel workers, each
// with its own seeded generator.
func (e *Engine) holdemMonteCarlo(ctx context.Context, req Request, samples int) (market.Odds, error) {
	rngs := e.workerRands()
	parts := split(samples, len(rngs))
	results := make([]tally, len(rngs))

	g, ctx := errgroup.WithContext(ctx)
	for w := range rngs {
		g.Go(func() error {
			t, err := holdemTrials(ctx, &req, parts[w], rngs[w])
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
	return symmetrize(total.odds(), req.symmetricSeats()), nil
}

func holdemTrials(ctx context.Context, req *Request, n int, rng *rand.Rand) (tally, error) {
	var (
		t     tally
		hands [MaxSeats][7]deck.Card
		board [5]deck.Card
	)
	d := newDrawer(req.Unknown, rng)

	for i := 0; i < n; i++ {
		if i&63 == 0 {
			if err := ctx.Err(); err != nil {
				return t, err
			}
		}
		d.reset()
		for s := 0; s < req.Rules.Seats; s++ {
			for k := copy(hands[s][:2], req.Holes[s]); k < 2; k++ {
				hands[s][k] = d.draw()
			}
		}
		for k := copy(board[:], req.Community); k < 5; k++ {
			board[k] = d.draw()
		}
		t.record(settle(req, &hands, &board))
	}
	return t, nil
}

// holdemExact enumerates every completion. Work is split on the first
// unknown card chosen, one stride per worker.
func (e *Engine) holdemExact(ctx context.Context, req Request) (market.Odds, error) {
	workers := e.cfg.Workers
	results := make([]tally, workers)

	g, ctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		g.Go(func() error {
			en := newEnumerator(&req, w, workers)
			err := en.run(ctx)
			results[w] = en.tally
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

type enumerator struct {
	req    *Request
	hands  [MaxSeats][7]deck.Card
	board  [5]deck.Card
	slots  [][]*deck.Card // unfilled positions, grouped per seat then board
	taken  deck.CardSet
	offset int
	stride int
	ctx    context.Context
	err    error
	tally  tally
}

func newEnumerator(req *Request, offset, stride int) *enumerator {
	en := &enumerator{req: req, offset: offset, stride: stride}
	for s := 0; s < req.Rules.Seats; s++ {
		var group []*deck.Card
		for k := copy(en.hands[s][:2], req.Holes[s]); k < 2; k++ {
			group = append(group, &en.hands[s][k])
		}
		if len(group) > 0 {
			en.slots = append(en.slots, group)
		}
	}
	var group []*deck.Card
	for k := copy(en.board[:], req.Community); k < 5; k++ {
		group = append(group, &en.board[k])
	}
	if len(group) > 0 {
		en.slots = append(en.slots, group)
	}
	return en
}

func (en *enumerator) run(ctx context.Context) error {
	if len(en.slots) == 0 {
		if en.offset == 0 {
			en.tally.record(settle(en.req, &en.hands, &en.board))
		}
		return nil
	}
	en.ctx = ctx
	en.walk(0, 0, 0)
	return en.err
}

// walk fills slot k of group g with unknown cards from index start on.
// Within a group cards are chosen in index order so each combination is
// visited once.
func (en *enumerator) walk(g, k, start int) {
	if g == len(en.slots) {
		en.tally.record(settle(en.req, &en.hands, &en.board))
		return
	}
	if k == len(en.slots[g]) {
		en.walk(g+1, 0, 0)
		return
	}

	top := g == 0 && k == 0
	for i := start; i < len(en.req.Unknown); i++ {
		if top {
			if i%en.stride != en.offset {
				continue
			}
			if err := en.ctx.Err(); err != nil {
				en.err = err
				return
			}
		}
		c := en.req.Unknown[i]
		if en.taken.Contains(c) {
			continue
		}
		en.taken.Add(c)
		*en.slots[g][k] = c
		en.walk(g, k+1, i+1)
		en.taken.Remove(c)
	}
}
