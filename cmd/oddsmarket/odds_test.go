package main

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meir-san/ultimateholdem/internal/deck"
	"github.com/meir-san/ultimateholdem/internal/market"
	"github.com/meir-san/ultimateholdem/internal/odds"
	"github.com/meir-san/ultimateholdem/internal/round"
)

func TestOddsRequest(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		cmd     OddsCmd
		variant round.Variant
		holes   []int
		board   int
		unknown int
		wantErr string
	}{
		{
			name:    "uth flop",
			cmd:     OddsCmd{Seat: []string{"AsKd"}, Board: "Td7s8h"},
			variant: round.UTH,
			holes:   []int{2, 0},
			board:   3,
			unknown: 47,
		},
		{
			name:    "holdem3 all seats",
			cmd:     OddsCmd{Seat: []string{"AsKd", "QhQc", "7c 2d"}},
			variant: round.Holdem3,
			holes:   []int{2, 2, 2},
			unknown: 46,
		},
		{
			name:    "blackjack",
			cmd:     OddsCmd{Seat: []string{"Th7c", "6s"}, DealerHidden: true},
			variant: round.Blackjack,
			holes:   []int{2, 1},
			unknown: 49,
		},
		{
			name:    "too many seats",
			cmd:     OddsCmd{Seat: []string{"AsKd", "QhQc", "2c2d"}},
			variant: round.UTH,
			wantErr: "2 seats",
		},
		{
			name:    "duplicate card",
			cmd:     OddsCmd{Seat: []string{"AsKd"}, Board: "As7s8h"},
			variant: round.UTH,
			wantErr: "appears twice",
		},
		{
			name:    "blackjack board",
			cmd:     OddsCmd{Seat: []string{"Th7c"}, Board: "As7s8h"},
			variant: round.Blackjack,
			wantErr: "no board",
		},
		{
			name:    "bad card",
			cmd:     OddsCmd{Seat: []string{"Zz"}},
			variant: round.UTH,
			wantErr: "seat 1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			req, err := tt.cmd.request(tt.variant)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)

			require.Len(t, req.Holes, len(tt.holes))
			for i, n := range tt.holes {
				assert.Len(t, req.Holes[i], n, "seat %d", i+1)
			}
			assert.Len(t, req.Community, tt.board)
			assert.Len(t, req.Unknown, tt.unknown)
			left := deck.NewCardSet(req.Unknown)
			for _, group := range append([][]deck.Card{req.Community}, req.Holes...) {
				for _, card := range group {
					assert.False(t, left.Contains(card), "%s is shown", card)
				}
			}
			assert.Equal(t, tt.cmd.DealerHidden, req.DealerHidden)
		})
	}
}

func TestRenderUTH(t *testing.T) {
	t.Parallel()
	req := odds.Request{
		Holes:     [][]deck.Card{deck.MustParseCards("AsKd"), nil},
		Community: deck.MustParseCards("Td7s8h"),
	}
	result := market.Odds{market.Seat1: 52.5, market.Seat2: 40, market.Push: 7.5}

	out := render(round.UTH, req, result, 12*time.Millisecond)

	assert.Contains(t, out, "Player")
	assert.Contains(t, out, "Dealer")
	assert.Contains(t, out, "52.50%")
	assert.Contains(t, out, "7.50%")
	assert.Contains(t, out, "High Card A")
	assert.True(t, strings.Contains(out, "Play:"), "flop decision shown")
}

func TestFavourite(t *testing.T) {
	t.Parallel()
	outcomes := []market.Outcome{market.Seat1, market.Seat2, market.Seat3, market.Push}
	o := market.Odds{market.Seat1: 20, market.Seat2: 45, market.Seat3: 30, market.Push: 5}
	assert.Equal(t, market.Seat2, favourite(o, outcomes))
}
