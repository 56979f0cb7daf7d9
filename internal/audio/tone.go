package audio

import (
	"encoding/binary"
	"math"
)

const bytesPerSample = 4 // mono float32

// tone is an endless sine wave encoded as little endian float32 samples.
type tone struct {
	step      float64 // phase increment per sample
	phase     float64
	amplitude float32
	partial   []byte // bytes of a sample split across Read calls
}

func newTone(sampleRate int, frequency, amplitude float64) *tone {
	return &tone{
		step:      2 * math.Pi * frequency / float64(sampleRate),
		amplitude: float32(amplitude),
	}
}

func (t *tone) next() float32 {
	v := t.amplitude * float32(math.Sin(t.phase))
	t.phase += t.step
	if t.phase >= 2*math.Pi {
		t.phase -= 2 * math.Pi
	}
	return v
}

// Read fills p with samples and never fails.
func (t *tone) Read(p []byte) (int, error) {
	n := copy(p, t.partial)
	t.partial = t.partial[n:]

	var buf [bytesPerSample]byte
	for n < len(p) {
		binary.LittleEndian.PutUint32(buf[:], math.Float32bits(t.next()))
		c := copy(p[n:], buf[:])
		if c < bytesPerSample {
			t.partial = append(t.partial[:0], buf[c:]...)
		}
		n += c
	}
	return n, nil
}
