package chip8vm

// Quirks selects between interpreter variants for two opcode families.
// The zero value shifts Vx in place and leaves I untouched by FX55/FX65.
type Quirks struct {
	// ShiftFromVY makes 8XY6 and 8XYE shift VY into VX, as on the COSMAC VIP.
	ShiftFromVY bool
	// IncrementIndex makes FX55 and FX65 leave I pointing past the last
	// transferred register (I += X + 1).
	IncrementIndex bool
}

// KeyWaitPolicy decides what Tick does while FX0A waits for a key.
type KeyWaitPolicy uint8

const (
	// KeyWaitStall turns Tick into a no-op until a key press resolves the wait.
	KeyWaitStall KeyWaitPolicy = iota
	// KeyWaitAdvance keeps executing the following instructions while the
	// wait latch stays set.
	KeyWaitAdvance
)

func (p KeyWaitPolicy) String() string {
	switch p {
	case KeyWaitStall:
		return "stall"
	case KeyWaitAdvance:
		return "advance"
	default:
		return "unknown"
	}
}

// ParseKeyWaitPolicy converts a policy name as printed by String.
func ParseKeyWaitPolicy(s string) (KeyWaitPolicy, bool) {
	switch s {
	case "stall":
		return KeyWaitStall, true
	case "advance":
		return KeyWaitAdvance, true
	default:
		return 0, false
	}
}
