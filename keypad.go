package chip8vm

import "math/bits"

// KeypadPress resolves a pending FX0A wait. pressed holds the keys that went
// down since the previous poll; the lowest numbered key wins. Without a
// pending wait, or with no key pressed, it does nothing.
func (sys *System) KeypadPress(pressed uint16) {
	if !sys.keyWait || pressed == 0 {
		return
	}
	sys.keyWait = false
	sys.cpu.V[sys.keyWaitReg] = uint8(bits.TrailingZeros16(pressed))
}

// Keypad turns successive "keys held" samples into "keys pressed" edges.
type Keypad struct {
	down uint16
}

// Update records the keys currently held and returns those that were not
// held at the previous update.
func (k *Keypad) Update(down uint16) uint16 {
	pressed := down &^ k.down
	k.down = down
	return pressed
}

// Down returns the keys held at the last update.
func (k *Keypad) Down() uint16 {
	return k.down
}
