package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"
	"unsafe"

	"github.com/go-gl/gl/v3.3-core/gl"
	"github.com/go-gl/glfw/v3.2/glfw"
	"github.com/p47t/chip8vm"
	"github.com/p47t/chip8vm/internal/audio"
	"github.com/p47t/chip8vm/internal/config"
	"github.com/p47t/chip8vm/internal/console"
	"github.com/p47t/chip8vm/internal/options"
	"github.com/retroenv/retrogolib/log"
	"golang.org/x/sync/errgroup"
)

const (
	ScreenWidth  = chip8vm.GfxWidth
	ScreenHeight = chip8vm.GfxHeight
	windowTitle  = "Chip8"
)

type Emulator struct {
	logger *log.Logger
	runner *chip8vm.Runner
	beeper *audio.Beeper
	quirks chip8vm.Quirks
	keys   uint16
	debug  io.Writer

	glfwReady bool
	glReady   bool

	screenData            []byte
	window                *glfw.Window
	fullScreenTriangleVAO uint32
	bufferTexture         uint32
	shaderProgram         uint32
}

const vertexShader = `
#version 330

noperspective out vec2 TexCoord;

void main(void) {
    TexCoord.x = (gl_VertexID == 2)? 2.0: 0.0;
    TexCoord.y = (gl_VertexID == 1)? 2.0: 0.0;

	gl_Position = vec4(2.0 * TexCoord - 1.0, 0.0, 1.0);
}
`

const fragmentShader = `
#version 330

uniform sampler2D buffer;
noperspective in vec2 TexCoord;

out vec3 outColor;

void main(void) {
	outColor = texture(buffer, TexCoord).rgb;
}
`

var keyMap = map[glfw.Key]uint8{
	glfw.Key1: 0x1,
	glfw.Key2: 0x2,
	glfw.Key3: 0x3,
	glfw.Key4: 0xC,
	glfw.KeyQ: 0x4,
	glfw.KeyW: 0x5,
	glfw.KeyE: 0x6,
	glfw.KeyR: 0xD,
	glfw.KeyA: 0x7,
	glfw.KeyS: 0x8,
	glfw.KeyD: 0x9,
	glfw.KeyF: 0xE,
	glfw.KeyZ: 0xA,
	glfw.KeyX: 0x0,
	glfw.KeyC: 0xB,
	glfw.KeyV: 0xF,
}

func (emu *Emulator) Initialize(logger *log.Logger, opts options.Program) error {
	emu.logger = logger
	emu.debug = os.Stdout

	sys := config.CreateSystem(opts)
	if err := sys.LoadFile(opts.Input); err != nil {
		return fmt.Errorf("loading rom '%s': %w", opts.Input, err)
	}
	emu.quirks = sys.Quirks()

	var beeper chip8vm.Beeper
	if !opts.Mute {
		b, err := audio.New(logger)
		if err != nil {
			logger.Warn("Audio output disabled", log.Err(err))
		} else {
			emu.beeper = b
			beeper = b
		}
	}
	emu.runner = chip8vm.NewRunner(logger, sys, config.RunnerConfig(opts), beeper)

	if err := glfw.Init(); err != nil {
		return fmt.Errorf("initializing glfw: %w", err)
	}
	emu.glfwReady = true

	// Create window
	glfw.WindowHint(glfw.Resizable, glfw.False)
	glfw.WindowHint(glfw.ContextVersionMajor, 3)
	glfw.WindowHint(glfw.ContextVersionMinor, 3)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	scale := max(opts.Scale, 1)
	var err error
	emu.window, err = glfw.CreateWindow(ScreenWidth*scale, ScreenHeight*scale, windowTitle, nil, nil)
	if err != nil {
		return fmt.Errorf("creating window: %w", err)
	}
	emu.window.MakeContextCurrent()

	emu.window.SetKeyCallback(emu.onKey)
	emu.window.SetDropCallback(emu.onDrop)

	// Initialize Glow
	if err := gl.Init(); err != nil {
		return fmt.Errorf("initializing opengl: %w", err)
	}
	emu.glReady = true
	gl.ClearColor(1.0, 0.0, 0.0, 1.0)

	gl.GenVertexArrays(1, &emu.fullScreenTriangleVAO)
	gl.BindVertexArray(emu.fullScreenTriangleVAO)

	if err := emu.linkProgram(); err != nil {
		return err
	}

	emu.screenData = make([]byte, ScreenWidth*ScreenHeight*3)
	for i := 0; i < len(emu.screenData); i++ {
		emu.screenData[i] = 0x80
	}

	gl.GenTextures(1, &emu.bufferTexture)
	gl.BindTexture(gl.TEXTURE_2D, emu.bufferTexture)

	gl.TexImage2D(
		gl.TEXTURE_2D, 0, gl.RGB,
		ScreenWidth, ScreenHeight, 0,
		gl.RGB, gl.UNSIGNED_BYTE, unsafe.Pointer(&emu.screenData[0]))

	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.NEAREST)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.NEAREST)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)

	bufferLoc := gl.GetUniformLocation(emu.shaderProgram, gl.Str("buffer"+"\x00"))
	gl.Uniform1i(bufferLoc, 0)

	gl.Disable(gl.DEPTH_TEST)
	gl.UseProgram(emu.shaderProgram)
	return nil
}

func (emu *Emulator) linkProgram() error {
	emu.shaderProgram = gl.CreateProgram()

	vs, err := compileShader(vertexShader, gl.VERTEX_SHADER)
	if err != nil {
		return err
	}
	defer gl.DeleteShader(vs)
	gl.AttachShader(emu.shaderProgram, vs)
	defer gl.DetachShader(emu.shaderProgram, vs)

	fs, err := compileShader(fragmentShader, gl.FRAGMENT_SHADER)
	if err != nil {
		return err
	}
	defer gl.DeleteShader(fs)
	gl.AttachShader(emu.shaderProgram, fs)
	defer gl.DetachShader(emu.shaderProgram, fs)

	var status int32
	gl.LinkProgram(emu.shaderProgram)
	gl.GetProgramiv(emu.shaderProgram, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		return errors.New("failed to link shader program")
	}
	return nil
}

func compileShader(source string, shaderType uint32) (uint32, error) {
	shader := gl.CreateShader(shaderType)

	csources, free := gl.Strs(source)
	gl.ShaderSource(shader, 1, csources, nil)
	free()
	gl.CompileShader(shader)

	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logLength)

		log := strings.Repeat("\x00", int(logLength+1))
		gl.GetShaderInfoLog(shader, logLength, nil, gl.Str(log))

		return 0, fmt.Errorf("failed to compile %v: %v", source, log)
	}

	return shader, nil
}

// onKey tracks the keypad and handles the debugger keys:
// space pauses, N steps, M steps a frame, F3 prints the register and
// instruction panes, F5 resets, F1/F2 toggle quirks, +/- change the speed
// and escape quits. Steps print the panes as well.
func (emu *Emulator) onKey(w *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
	if c8Key, ok := keyMap[key]; ok {
		switch action {
		case glfw.Press:
			emu.keys |= 1 << c8Key
		case glfw.Release:
			emu.keys &^= 1 << c8Key
		default:
			return
		}
		emu.runner.SetKeys(emu.keys)
		return
	}

	if action != glfw.Press {
		return
	}

	var err error
	switch key {
	case glfw.KeyEscape:
		w.SetShouldClose(true)
	case glfw.KeySpace:
		if emu.runner.Paused() {
			emu.runner.Resume()
		} else {
			emu.runner.Pause()
		}
		emu.updateTitle()
	case glfw.KeyN:
		err = emu.runner.Step()
		emu.printPanes()
	case glfw.KeyM:
		err = emu.runner.StepFrame()
		emu.printPanes()
	case glfw.KeyF3:
		emu.printPanes()
	case glfw.KeyF5:
		emu.runner.Reset()
	case glfw.KeyF1:
		emu.quirks.ShiftFromVY = !emu.quirks.ShiftFromVY
		emu.runner.SetQuirks(emu.quirks)
		emu.updateTitle()
	case glfw.KeyF2:
		emu.quirks.IncrementIndex = !emu.quirks.IncrementIndex
		emu.runner.SetQuirks(emu.quirks)
		emu.updateTitle()
	case glfw.KeyEqual, glfw.KeyKPAdd:
		emu.runner.SetSpeed(emu.runner.Speed() * 2)
		emu.updateTitle()
	case glfw.KeyMinus, glfw.KeyKPSubtract:
		emu.runner.SetSpeed(emu.runner.Speed() / 2)
		emu.updateTitle()
	}
	if err != nil {
		emu.logger.Error("Debugger command failed", log.Err(err))
	}
}

// onDrop loads a ROM file dropped onto the window.
func (emu *Emulator) onDrop(w *glfw.Window, names []string) {
	if len(names) == 0 {
		return
	}
	rom, err := os.ReadFile(names[0])
	if err == nil {
		err = emu.runner.Reload(rom)
	}
	if err != nil {
		emu.logger.Error("Loading dropped file failed", log.String("file", names[0]), log.Err(err))
	}
}

func (emu *Emulator) printPanes() {
	if emu.debug == nil {
		return
	}
	fmt.Fprintln(emu.debug)
	console.RenderPanes(emu.debug, emu.runner.Snapshot())
}

func (emu *Emulator) updateTitle() {
	title := fmt.Sprintf("%s - speed %gx", windowTitle, emu.runner.Speed())
	if emu.runner.Paused() {
		title += " - paused"
	}
	if emu.quirks.ShiftFromVY {
		title += " - shift VY"
	}
	if emu.quirks.IncrementIndex {
		title += " - increment I"
	}
	emu.window.SetTitle(title)
}

func (emu *Emulator) UpdateTexture(fb *chip8vm.Framebuffer) {
	for y := 0; y < ScreenHeight; y++ {
		for x := 0; x < ScreenWidth; x++ {
			offset := ((ScreenHeight-y-1)*ScreenWidth + x) * 3
			if !fb.Pixel(x, y) {
				emu.screenData[offset], emu.screenData[offset+1], emu.screenData[offset+2] = 0, 0, 0
			} else {
				emu.screenData[offset], emu.screenData[offset+1], emu.screenData[offset+2] = 0xFF, 0xFF, 0xFF
			}
		}
	}

	gl.TexSubImage2D(
		gl.TEXTURE_2D, 0, 0, 0,
		ScreenWidth, ScreenHeight, gl.RGB, gl.UNSIGNED_BYTE,
		unsafe.Pointer(&emu.screenData[0]))

	gl.BindVertexArray(emu.fullScreenTriangleVAO)
	gl.DrawArrays(gl.TRIANGLES, 0, 3)
}

// Loop runs the machine on a worker goroutine and renders on the calling
// thread, which must be the main thread, until the window closes.
func (emu *Emulator) Loop(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return emu.runner.Run(ctx)
	})

	ticker := time.NewTicker(time.Second / chip8vm.TimerHz)
	defer ticker.Stop()

	emu.updateTitle()
	for !emu.window.ShouldClose() && ctx.Err() == nil {
		glfw.PollEvents()

		select {
		case fb := <-emu.runner.Frames():
			gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)
			emu.UpdateTexture(&fb)
			emu.window.SwapBuffers()
		case <-ticker.C:
		case <-ctx.Done():
		}
	}

	cancel()
	return g.Wait()
}

func (emu *Emulator) Terminate() {
	if emu.beeper != nil {
		_ = emu.beeper.Close()
	}
	if emu.glReady {
		gl.DeleteVertexArrays(1, &emu.fullScreenTriangleVAO)
		gl.DeleteTextures(1, &emu.bufferTexture)
		gl.DeleteProgram(emu.shaderProgram)
	}
	if emu.glfwReady {
		glfw.Terminate()
	}
}
