// Package options contains the program options.
package options

// Program options of the emulator hosts.
type Program struct {
	Input string // ROM file to run

	Speed    float64 // emulation speed multiplier
	TickRate int     // instructions per second
	Seed     uint64  // random generator seed, 0 picks one from the clock
	Scale    int     // window pixels per CHIP-8 pixel

	ShiftFromVY    bool   // 8XY6/8XYE shift VY into VX
	IncrementIndex bool   // FX55/FX65 advance I
	KeyWait        string // FX0A policy: stall or advance

	Paused bool // start paused in single step mode
	Mute   bool // disable the buzzer
	Debug  bool // debug logging
	Quiet  bool // only log errors
}
