package evaluator

import (
	"testing"

	"github.com/meir-san/ultimateholdem/internal/deck"
	"github.com/stretchr/testify/assert"
)

func TestBlackjackTotal(t *testing.T) {
	tests := []struct {
		name     string
		ranks    []int
		expected int
	}{
		{"empty hand", nil, 0},
		{"plain sum", []int{2, 3, 4}, 9},
		{"face cards count ten", []int{11, 12}, 20},
		{"all tens", []int{10, 11, 12, 13}, 40},
		{"ace as eleven", []int{1, 9}, 20},
		{"natural", []int{1, 10}, 21},
		{"ace demoted", []int{1, 10, 10}, 21},
		{"ace demoted below", []int{1, 9, 9}, 19},
		{"two aces", []int{1, 1, 9}, 21},
		{"three aces", []int{1, 1, 1, 8}, 21},
		{"bust", []int{10, 10, 10}, 30},
		{"bust with ace", []int{1, 10, 10, 10}, 31},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, BlackjackTotal(tt.ranks))
		})
	}
}

func TestBlackjackCards(t *testing.T) {
	assert.Equal(t, 21, BlackjackCards(deck.MustParseCards("AhKd")))
	assert.True(t, IsSoft(deck.MustParseCards("Ah6d")))
	assert.False(t, IsSoft(deck.MustParseCards("Ah6dTc")))
	assert.False(t, IsSoft(deck.MustParseCards("Th7d")))
	assert.True(t, IsBust(deck.MustParseCards("ThQdKc")))
	assert.False(t, IsBust(deck.MustParseCards("AhAdAc")))
}

func TestCompareBlackjack(t *testing.T) {
	tests := []struct {
		name           string
		player, dealer string
		expected       Winner
	}{
		{"higher total wins", "Th9c", "Td8s", PlayerWins},
		{"dealer higher", "Th7c", "Td8s", DealerWins},
		{"equal totals push", "Th7c", "9d8s", Tie},
		{"dealer bust", "Th2c", "Td6s9c", PlayerWins},
		{"player bust loses first", "Th6cKs", "Td6s9c", DealerWins},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, CompareBlackjack(deck.MustParseCards(tt.player), deck.MustParseCards(tt.dealer)))
		})
	}
}
