package round

import (
	"fmt"
	"strings"

	"github.com/meir-san/ultimateholdem/internal/market"
	"github.com/meir-san/ultimateholdem/internal/odds"
)

// Phase names a point in the deal of a round
type Phase string

// Blackjack phases
const (
	PreDeal       Phase = "PRE_DEAL"
	PlayerCard1   Phase = "PLAYER_CARD_1"
	DealerCard1   Phase = "DEALER_CARD_1"
	PlayerCard2   Phase = "PLAYER_CARD_2"
	PlayerHitting Phase = "PLAYER_HITTING"
	DealerReveal  Phase = "DEALER_REVEAL"
	DealerHitting Phase = "DEALER_HITTING"
	Resolution    Phase = "RESOLUTION"
)

// Hold'em phases
const (
	PlayerCards Phase = "PLAYER_CARDS"
	Flop        Phase = "FLOP"
	Turn        Phase = "TURN"
	River       Phase = "RIVER"
	DealerCards Phase = "DEALER_CARDS"
	Showdown    Phase = "SHOWDOWN"
)

// Variant selects the card game a round is played with
type Variant string

const (
	Blackjack Variant = "blackjack"
	UTH       Variant = "uth"     // heads-up Ultimate Texas Hold'em against a qualifying dealer
	Holdem3   Variant = "holdem3" // three seats, two of them face down until showdown
)

// Variants lists every supported variant
var Variants = []Variant{Blackjack, UTH, Holdem3}

// ParseVariant accepts a variant name, case-insensitively
func ParseVariant(s string) (Variant, error) {
	for _, v := range Variants {
		if strings.EqualFold(s, string(v)) {
			return v, nil
		}
	}
	return "", fmt.Errorf("unknown variant %q", s)
}

// Phases returns the phase sequence. Blackjack repeats its hitting phases
// as often as the hands draw.
func (v Variant) Phases() []Phase {
	switch v {
	case Blackjack:
		return []Phase{PreDeal, PlayerCard1, DealerCard1, PlayerCard2, PlayerHitting, DealerReveal, DealerHitting, Resolution}
	case UTH:
		return []Phase{PreDeal, PlayerCards, Flop, Turn, River, DealerCards, Resolution}
	case Holdem3:
		return []Phase{PreDeal, PlayerCards, Flop, Turn, River, Showdown, Resolution}
	default:
		return nil
	}
}

// Rules returns the probability engine rules for the variant
func (v Variant) Rules(foldUnraised bool) odds.Rules {
	switch v {
	case Blackjack:
		return odds.Rules{Game: odds.Blackjack}
	case UTH:
		return odds.Rules{Game: odds.Holdem, Seats: 2, Qualify: true, FoldUnraised: foldUnraised}
	default:
		return odds.Rules{Game: odds.Holdem, Seats: 3}
	}
}

// Seats is the number of hands dealt
func (v Variant) Seats() int {
	if v == Holdem3 {
		return 3
	}
	return 2
}

// Label names an outcome for display
func (v Variant) Label(o market.Outcome) string {
	if o == market.Push {
		return "Push"
	}
	switch v {
	case Blackjack, UTH:
		if o == market.Seat1 {
			return "Player"
		}
		return "Dealer"
	default:
		return fmt.Sprintf("Player %d", int(o)+1)
	}
}

// hidesSeat reports whether seat i is dealt face down until the showdown
func (v Variant) hidesSeat(i int) bool {
	return v == Holdem3 && i > 0
}
