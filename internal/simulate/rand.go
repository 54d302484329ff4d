package simulate

import (
	"io"
	mathrand "math/rand"
	"time"
)

// Rand is the single randomness source threaded through selection, timeline
// jitter, failure injection, and event-ID generation. *math/rand.Rand
// satisfies it; tests substitute scripted sources without touching the
// algorithmic code.
type Rand interface {
	Float64() float64
	Intn(n int) int
	io.Reader
}

// NewRand returns a seedable source. Seed 0 falls back to the wall clock.
func NewRand(seed int64) Rand {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return mathrand.New(mathrand.NewSource(seed))
}
