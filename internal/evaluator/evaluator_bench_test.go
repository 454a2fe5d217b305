package evaluator

import (
	"testing"

	"github.com/meir-san/ultimateholdem/internal/deck"
	"github.com/meir-san/ultimateholdem/internal/randutil"
)

// generate7CardHands creates n random 7-card hands from a fixed seed
func generate7CardHands(seed int64, n int) [][7]deck.Card {
	rng := randutil.New(seed)
	hands := make([][7]deck.Card, n)
	for i := range hands {
		cards := deck.Shuffle(rng, deck.Universe(1))
		copy(hands[i][:], cards[:7])
	}
	return hands
}

func BenchmarkScore7(b *testing.B) {
	hands := generate7CardHands(42, 1024)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = Score7(&hands[i%len(hands)])
	}
}

func BenchmarkEvaluate7(b *testing.B) {
	hands := generate7CardHands(42, 1024)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		h := hands[i%len(hands)]
		_, _ = Evaluate(h[:])
	}
}
