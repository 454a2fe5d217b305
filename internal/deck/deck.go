package deck

import (
	"errors"
	"math/rand/v2"
)

// CardsPerDeck is the size of one standard deck
const CardsPerDeck = 52

// ErrDeckExhausted is returned when dealing from an empty deck
var ErrDeckExhausted = errors.New("deck exhausted")

// Deck is an ordered shoe of one or more standard decks. Cards are dealt
// from the tail.
type Deck struct {
	cards []Card
	decks int
}

// Universe returns the ordered, unshuffled card universe for n decks
func Universe(n int) []Card {
	if n < 1 {
		n = 1
	}
	cards := make([]Card, 0, CardsPerDeck*n)
	for i := 0; i < n; i++ {
		for suit := Spades; suit <= Clubs; suit++ {
			for rank := Two; rank <= Ace; rank++ {
				cards = append(cards, NewCard(suit, rank))
			}
		}
	}
	return cards
}

// New creates a shuffled shoe of n standard decks using rng
func New(rng *rand.Rand, n int) *Deck {
	if n < 1 {
		n = 1
	}
	return &Deck{
		cards: Shuffle(rng, Universe(n)),
		decks: n,
	}
}

// FromCards creates a deck with a fixed order. The last card is dealt first.
func FromCards(cards []Card) *Deck {
	d := &Deck{cards: make([]Card, len(cards)), decks: 1}
	copy(d.cards, cards)
	return d
}

// Shuffle returns a Fisher-Yates shuffled copy of cards. The input is not modified.
func Shuffle(rng *rand.Rand, cards []Card) []Card {
	out := make([]Card, len(cards))
	copy(out, cards)
	ShuffleInPlace(rng, out)
	return out
}

// ShuffleInPlace performs a Fisher-Yates shuffle on cards
func ShuffleInPlace(rng *rand.Rand, cards []Card) {
	for i := len(cards) - 1; i > 0; i-- {
		j := rng.IntN(i + 1)
		cards[i], cards[j] = cards[j], cards[i]
	}
}

// Pop deals the card at the tail of the deck
func (d *Deck) Pop() (Card, error) {
	if len(d.cards) == 0 {
		return Card{}, ErrDeckExhausted
	}
	card := d.cards[len(d.cards)-1]
	d.cards = d.cards[:len(d.cards)-1]
	return card, nil
}

// PopN deals n cards from the tail of the deck
func (d *Deck) PopN(n int) ([]Card, error) {
	if n > len(d.cards) {
		return nil, ErrDeckExhausted
	}
	out := make([]Card, n)
	for i := range out {
		out[i], _ = d.Pop()
	}
	return out, nil
}

// Remove deletes the first occurrence of each given card from the deck.
// Cards that are not present are ignored.
func (d *Deck) Remove(cards ...Card) {
	for _, c := range cards {
		for i := range d.cards {
			if d.cards[i] == c {
				d.cards = append(d.cards[:i], d.cards[i+1:]...)
				break
			}
		}
	}
}

// Cards returns a copy of the remaining cards in deal order (tail last)
func (d *Deck) Cards() []Card {
	out := make([]Card, len(d.cards))
	copy(out, d.cards)
	return out
}

// Remaining returns the number of cards left in the deck
func (d *Deck) Remaining() int {
	return len(d.cards)
}

// Decks returns how many standard decks make up the shoe
func (d *Deck) Decks() int {
	return d.decks
}

// Without returns a copy of cards with each of exclude removed once
func Without(cards []Card, exclude ...Card) []Card {
	out := make([]Card, len(cards))
	copy(out, cards)
	for _, c := range exclude {
		for i := range out {
			if out[i] == c {
				out = append(out[:i], out[i+1:]...)
				break
			}
		}
	}
	return out
}
