package chip8vm

const (
	GfxWidth      = 64
	GfxWidthBytes = GfxWidth / 8
	GfxHeight     = 32
	GfxSize       = GfxWidthBytes * GfxHeight
)

// Framebuffer is the packed 1 bit per pixel display, row-major.
// Bit 7 of each byte is the leftmost pixel of its group of eight.
type Framebuffer [GfxSize]uint8

// Pixel reports whether the pixel at (x, y) is set. Coordinates wrap.
func (fb *Framebuffer) Pixel(x, y int) bool {
	x, y = wrap(x, GfxWidth), wrap(y, GfxHeight)
	return fb[y*GfxWidthBytes+x/8]&(0x80>>(x%8)) != 0
}

func wrap(v, n int) int {
	v %= n
	if v < 0 {
		v += n
	}
	return v
}

type Graphics struct {
	buffer Framebuffer
	dirty  bool
}

func (g *Graphics) isDirty() bool {
	return g.dirty
}

func (g *Graphics) setDirty(dirty bool) {
	g.dirty = dirty
}

func (g *Graphics) clear() {
	g.buffer = Framebuffer{}
	g.dirty = true
}

// draw XORs an 8 pixel wide, h rows high sprite read from I onto the screen.
// Both axes wrap around. It reports whether any set pixel got cleared.
func (g *Graphics) draw(mem *Memory, I uint16, x, y, h uint8) bool {
	hit := false
	for r := uint8(0); r < h; r++ {
		row := mem.read(I + uint16(r))
		cy := (uint(y) + uint(r)) % GfxHeight
		for c := uint(0); c < 8; c++ {
			if row&(0x80>>c) == 0 {
				continue
			}
			cx := (uint(x) + c) % GfxWidth
			offset := cy*GfxWidthBytes + cx/8
			mask := uint8(0x80) >> (cx % 8)
			if g.buffer[offset]&mask != 0 {
				hit = true
			}
			g.buffer[offset] ^= mask
		}
	}
	g.dirty = true
	return hit
}
