package utils

import (
	cryptorand "crypto/rand"
	"encoding/binary"
	"sync"

	"golang.org/x/exp/rand"
)

// Rand is a PRNG for non-cryptographic uses: packet-size jitter and path
// challenge data. It is seeded from crypto/rand and safe for concurrent
// use.
type Rand struct {
	mx  sync.Mutex
	rng *rand.Rand
}

// NewRand returns a seeded Rand.
func NewRand() *Rand {
	var seed [8]byte
	if _, err := cryptorand.Read(seed[:]); err != nil {
		// fall back to a fixed seed, jitter quality doesn't matter then
		binary.BigEndian.PutUint64(seed[:], 0x9e3779b97f4a7c15)
	}
	return &Rand{rng: rand.New(rand.NewSource(binary.BigEndian.Uint64(seed[:])))}
}

// Int31n returns a random number in [0, n).
func (r *Rand) Int31n(n int32) int32 {
	r.mx.Lock()
	defer r.mx.Unlock()
	return r.rng.Int31n(n)
}

// Uint32 returns a random 32-bit value.
func (r *Rand) Uint32() uint32 {
	r.mx.Lock()
	defer r.mx.Unlock()
	return r.rng.Uint32()
}

// Read fills b with random bytes.
func (r *Rand) Read(b []byte) {
	r.mx.Lock()
	defer r.mx.Unlock()
	r.rng.Read(b)
}
