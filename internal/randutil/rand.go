package randutil

import (
	rand "math/rand/v2"
	"time"
)

const (
	goldenRatio64 = 0x9e3779b97f4a7c15
)

// New returns a *rand.Rand seeded deterministically from the provided int64.
// All shuffles, simulations and crowd bets derive their randomness from here
// so a fixed seed replays a whole session.
func New(seed int64) *rand.Rand {
	u := uint64(seed)
	return rand.New(rand.NewPCG(mix(u), mix(u+goldenRatio64)))
}

// Seed returns seed when non-zero, otherwise a time-derived seed.
func Seed(seed int64) int64 {
	if seed != 0 {
		return seed
	}
	return time.Now().UnixNano()
}

// Child derives an independent generator from parent. Used to hand each
// worker goroutine its own source without sharing parent across goroutines.
func Child(parent *rand.Rand) *rand.Rand {
	return rand.New(rand.NewPCG(mix(parent.Uint64()), mix(parent.Uint64())))
}

func mix(x uint64) uint64 {
	x ^= x >> 30
	x *= 0xbf58476d1ce4e5b9
	x ^= x >> 27
	x *= 0x94d049bb133111eb
	x ^= x >> 31
	return x
}
