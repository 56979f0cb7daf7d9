package chip8vm

import "math/rand/v2"

// Random is the byte source consumed by the RND opcode.
type Random interface {
	Uint32() uint32
}

const pcgStream = 0xda3e39cb94b95bdb

// NewRandom returns a deterministic PCG source for the given seed.
func NewRandom(seed uint64) Random {
	return rand.New(rand.NewPCG(seed, pcgStream))
}
