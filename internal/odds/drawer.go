package odds

import (
	"fmt"
	"math/rand/v2"

	"github.com/meir-san/ultimateholdem/internal/deck"
)

// drawer deals without replacement from a scratch copy of the unknown
// cards. Each trial resets it in O(n) without allocating.
type drawer struct {
	src   []deck.Card
	cards []deck.Card
	n     int
	rng   *rand.Rand
}

func newDrawer(src []deck.Card, rng *rand.Rand) *drawer {
	return &drawer{src: src, cards: make([]deck.Card, len(src)), rng: rng}
}

func (d *drawer) reset() {
	d.n = copy(d.cards, d.src)
}

func (d *drawer) draw() deck.Card {
	if d.n == 0 {
		panic(fmt.Sprintf("odds: deck exhausted after %d cards", len(d.src)))
	}
	j := d.rng.IntN(d.n)
	c := d.cards[j]
	d.n--
	d.cards[j] = d.cards[d.n]
	return c
}
