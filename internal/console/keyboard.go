package console

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"golang.org/x/term"
)

// Command is a debugger action typed on the keyboard.
type Command uint8

const (
	Quit Command = iota + 1
	TogglePause
	Step
	StepFrame
	Reset
)

// keyMap maps the left side of a QWERTY keyboard onto the hex keypad.
var keyMap = map[byte]uint8{
	'1': 0x1, '2': 0x2, '3': 0x3, '4': 0xC,
	'q': 0x4, 'w': 0x5, 'e': 0x6, 'r': 0xD,
	'a': 0x7, 's': 0x8, 'd': 0x9, 'f': 0xE,
	'z': 0xA, 'x': 0x0, 'c': 0xB, 'v': 0xF,
}

var commandMap = map[byte]Command{
	0x03: Quit, // ctrl-c
	0x1B: Quit, // escape
	'p':  TogglePause,
	'n':  Step,
	'm':  StepFrame,
	'o':  Reset,
}

// Translate maps a typed byte to a keypad key. Upper case letters map like
// lower case ones.
func Translate(b byte) (uint8, bool) {
	if b >= 'A' && b <= 'Z' {
		b += 'a' - 'A'
	}
	key, ok := keyMap[b]
	return key, ok
}

// holdState emulates key releases. A terminal only reports key presses, so a
// key counts as held until hold has passed since its last press or auto
// repeat.
type holdState struct {
	hold     time.Duration
	deadline [16]time.Time
}

func (h *holdState) press(key uint8, now time.Time) {
	h.deadline[key&0x0F] = now.Add(h.hold)
}

func (h *holdState) mask(now time.Time) uint16 {
	var down uint16
	for key, deadline := range h.deadline {
		if now.Before(deadline) {
			down |= 1 << key
		}
	}
	return down
}

// Keyboard reads the terminal in raw mode.
type Keyboard struct {
	in       *os.File
	fd       int
	oldState *term.State
	hold     holdState
	poll     time.Duration
}

// OpenKeyboard switches the input terminal to raw mode. Close restores it.
func OpenKeyboard(in *os.File, hold time.Duration) (*Keyboard, error) {
	fd := int(in.Fd())
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return nil, fmt.Errorf("setting terminal raw mode: %w", err)
	}
	return &Keyboard{
		in:       in,
		fd:       fd,
		oldState: oldState,
		hold:     holdState{hold: hold},
		poll:     10 * time.Millisecond,
	}, nil
}

// Close restores the terminal state.
func (k *Keyboard) Close() error {
	if k.oldState == nil {
		return nil
	}
	err := term.Restore(k.fd, k.oldState)
	k.oldState = nil
	if err != nil {
		return fmt.Errorf("restoring terminal state: %w", err)
	}
	return nil
}

// Run reports the held keys to keys whenever they change and typed debugger
// commands to commands. It returns when ctx is done, input ends or a Quit
// command was typed.
func (k *Keyboard) Run(ctx context.Context, keys func(down uint16), commands func(Command)) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	input := make(chan byte, 16)
	readErr := make(chan error, 1)
	go readInput(ctx, k.in, input, readErr)

	ticker := time.NewTicker(k.poll)
	defer ticker.Stop()

	var last uint16
	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-readErr:
			return fmt.Errorf("reading keyboard: %w", err)
		case b := <-input:
			if key, ok := Translate(b); ok {
				k.hold.press(key, time.Now())
			} else if cmd, ok := commandMap[b]; ok {
				commands(cmd)
				if cmd == Quit {
					return nil
				}
			}
		case <-ticker.C:
		}

		if down := k.hold.mask(time.Now()); down != last {
			last = down
			keys(down)
		}
	}
}

// readInput forwards bytes from r until reading fails or ctx is done.
func readInput(ctx context.Context, r io.Reader, input chan<- byte, readErr chan<- error) {
	buf := make([]byte, 1)
	for {
		if _, err := r.Read(buf); err != nil {
			select {
			case readErr <- err:
			case <-ctx.Done():
			}
			return
		}
		select {
		case input <- buf[0]:
		case <-ctx.Done():
			return
		}
	}
}
