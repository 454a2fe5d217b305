package round

import (
	"time"

	"github.com/meir-san/ultimateholdem/internal/deck"
	"github.com/meir-san/ultimateholdem/internal/market"
	"github.com/meir-san/ultimateholdem/internal/strategy"
)

// Seat is the public view of one hand
type Seat struct {
	Label  string      `json:"label"`
	Cards  []deck.Card `json:"cards"`
	Hidden int         `json:"hidden"`          // face-down cards
	Total  int         `json:"total,omitempty"` // blackjack total of the visible cards
	Hand   string      `json:"hand,omitempty"`  // hold'em description of the visible cards
}

// HistoryItem records a settled round
type HistoryItem struct {
	Round           int            `json:"round"`
	Winner          market.Outcome `json:"winner"`
	Label           string         `json:"label"`
	HandDescription string         `json:"hand_description"`
}

// ActivityKind tags an activity feed entry
type ActivityKind string

const (
	ActivityBet       ActivityKind = "bet"
	ActivitySell      ActivityKind = "sell"
	ActivityRebalance ActivityKind = "rebalance"
)

// ActivityItem is one entry of the activity feed, newest first
type ActivityItem struct {
	Kind     ActivityKind   `json:"kind"`
	Username string         `json:"username"`
	Outcome  market.Outcome `json:"outcome"`
	Label    string         `json:"label"`
	Amount   float64        `json:"amount"`
	You      bool           `json:"you,omitempty"`
	Time     time.Time      `json:"time"`
}

// PricePoint samples the true odds for the price chart
type PricePoint struct {
	Time time.Time   `json:"time"`
	Odds market.Odds `json:"odds"`
}

const (
	youName    = "YOU"
	marketName = "MARKET"
)

// state is the mutable round state owned by Game
type state struct {
	roundID     string
	roundNumber int
	phase       Phase
	timer       int

	deck      *deck.Deck
	hands     [][]deck.Card
	community []deck.Card
	revealed  []bool // per seat; false while any of the seat's cards is face down

	odds        market.Odds
	oddsPending bool
	oddsHistory []market.Odds

	resolved    bool
	winner      market.Outcome
	roundProfit float64

	ledger    *market.Ledger
	decisions []strategy.Decision
	folded    bool
	bustRisk  float64

	activity     []ActivityItem
	priceHistory []PricePoint
}

// Snapshot is an immutable copy of the observable state of a Game
type Snapshot struct {
	RoundID     string                                `json:"round_id"`
	RoundNumber int                                   `json:"round_number"`
	Variant     Variant                               `json:"variant"`
	Phase       Phase                                 `json:"phase"`
	Timer       int                                   `json:"timer"`
	Seats       []Seat                                `json:"seats"`
	Community   []deck.Card                           `json:"community"`
	Outcomes    []market.Outcome                      `json:"outcomes"`
	Labels      map[market.Outcome]string             `json:"labels"`
	Odds        market.Odds                           `json:"odds"`
	OddsPending bool                                  `json:"odds_pending"`
	OddsHistory []market.Odds                         `json:"odds_history"`
	Prices      [market.NumOutcomes]float64           `json:"prices"` // decimal, under the pricing model
	Pool        [market.NumOutcomes]float64           `json:"pool"`
	Positions   [market.NumOutcomes][]market.Position `json:"positions"`
	Locked      bool                                  `json:"locked"`

	Resolved    bool           `json:"resolved"`
	Winner      market.Outcome `json:"winner"`
	RoundProfit float64        `json:"round_profit"`

	Balance        float64 `json:"balance"`
	BetAmount      float64 `json:"bet_amount"`
	LifetimeVolume float64 `json:"lifetime_volume"`

	Decisions []string `json:"decisions,omitempty"` // UTH raise decisions per street
	Raised    bool     `json:"raised"`
	Folded    bool     `json:"folded"`
	BustRisk  float64  `json:"bust_risk"`

	Activity     []ActivityItem `json:"activity"`
	PriceHistory []PricePoint   `json:"price_history"`
	RoundHistory []HistoryItem  `json:"round_history"`
}

// Position returns the human's open positions on o
func (s Snapshot) Position(o market.Outcome) []market.Position {
	return s.Positions[o]
}

// TotalPool returns the pool volume over all outcomes
func (s Snapshot) TotalPool() float64 {
	var total float64
	for _, v := range s.Pool {
		total += v
	}
	return total
}
