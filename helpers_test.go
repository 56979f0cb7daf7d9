package chip8vm

import (
	"testing"

	"github.com/retroenv/retrogolib/assert"
)

// program encodes instruction words big-endian.
func program(words ...uint16) []byte {
	b := make([]byte, 0, 2*len(words))
	for _, w := range words {
		b = append(b, uint8(w>>8), uint8(w))
	}
	return b
}

func newTestSystem(t *testing.T, words ...uint16) *System {
	t.Helper()
	sys := New(NewRandom(1))
	assert.NoError(t, sys.Load(program(words...)))
	return sys
}

// poke writes an instruction word at addr.
func poke(sys *System, addr, word uint16) {
	sys.mem[addr] = uint8(word >> 8)
	sys.mem[addr+1] = uint8(word)
}

func tickN(t *testing.T, sys *System, keys uint16, n int) {
	t.Helper()
	for range n {
		assert.NoError(t, sys.Tick(keys))
	}
}
