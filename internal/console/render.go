// Package console implements a terminal front end: a goterm based renderer
// for the display and debugger panes and a raw mode keyboard reader.
package console

import (
	"fmt"
	"io"
	"strings"

	tm "github.com/buger/goterm"
	"github.com/p47t/chip8vm"
	"github.com/p47t/chip8vm/disasm"
)

const (
	pixelOn  = '@'
	pixelOff = '.'

	instructionViewRange = 3
)

// Render writes the display followed by the register, timer and
// instruction panes.
func Render(w io.Writer, snap chip8vm.Snapshot) {
	RenderDisplay(w, &snap.Display)
	fmt.Fprintln(w)
	RenderPanes(w, snap)
}

// RenderPanes writes the register, timer and instruction panes.
func RenderPanes(w io.Writer, snap chip8vm.Snapshot) {
	snap.CPU.Print(w)
	fmt.Fprintf(w, "DT = %d, ST = %d, sound = %s\n", snap.DelayTimer, snap.SoundTimer, onOff(snap.SoundActive))
	if snap.KeyWait {
		fmt.Fprintf(w, "waiting for key -> V%X\n", snap.KeyWaitRegister)
	}
	if snap.Fault != nil {
		fmt.Fprintf(w, "halted: %v\n", snap.Fault)
	}
	fmt.Fprintln(w)

	for _, line := range disasm.Window(&snap.Memory, snap.CPU.PC, instructionViewRange) {
		fmt.Fprintln(w, line)
	}
}

// RenderDisplay writes the framebuffer as one text line per pixel row.
func RenderDisplay(w io.Writer, fb *chip8vm.Framebuffer) {
	var line strings.Builder
	for y := range chip8vm.GfxHeight {
		line.Reset()
		for x := range chip8vm.GfxWidth {
			if fb.Pixel(x, y) {
				line.WriteByte(pixelOn)
			} else {
				line.WriteByte(pixelOff)
			}
		}
		line.WriteByte('\n')
		_, _ = io.WriteString(w, line.String())
	}
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

// Screen draws snapshots onto the terminal.
type Screen struct {
	buf strings.Builder
}

// Draw replaces the terminal contents with the rendered snapshot. Line
// endings carry a carriage return because the terminal is in raw mode.
func (s *Screen) Draw(snap chip8vm.Snapshot) {
	s.buf.Reset()
	Render(&s.buf, snap)

	tm.Clear()
	tm.MoveCursor(1, 1)
	_, _ = tm.Screen.WriteString(strings.ReplaceAll(s.buf.String(), "\n", "\r\n"))
	tm.Flush()
}
