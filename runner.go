package chip8vm

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/retroenv/retrogolib/log"
)

// Beeper plays the buzzer tone while the sound timer runs.
type Beeper interface {
	Play()
	Pause()
}

type nopBeeper struct{}

func (nopBeeper) Play()  {}
func (nopBeeper) Pause() {}

// Bounds of the speed multiplier.
const (
	MinSpeed = 0.001
	MaxSpeed = 500
)

// RunnerConfig controls the pacing of a Runner.
type RunnerConfig struct {
	TickRate  int     // instructions per emulated second
	FrameRate int     // timer frames per emulated second
	Speed     float64 // emulated seconds per wall clock second
	Paused    bool    // start in single step mode
}

// DefaultRunnerConfig returns the pacing of the original hardware.
func DefaultRunnerConfig() RunnerConfig {
	return RunnerConfig{
		TickRate:  SystemHz,
		FrameRate: TimerHz,
		Speed:     1,
	}
}

// Runner drives a System from wall clock time and owns the mutex that guards
// it. Hosts feed keys with SetKeys, read the display from Frames and inspect
// state through Snapshot.
type Runner struct {
	logger *log.Logger
	beeper Beeper

	mu     sync.Mutex
	sys    *System
	keypad Keypad
	cfg    RunnerConfig
	paused bool
	sound  bool
	budget float64

	frames chan Framebuffer
}

// NewRunner wraps sys. beeper may be nil.
func NewRunner(logger *log.Logger, sys *System, cfg RunnerConfig, beeper Beeper) *Runner {
	if beeper == nil {
		beeper = nopBeeper{}
	}
	if cfg.FrameRate <= 0 {
		cfg.FrameRate = TimerHz
	}
	if cfg.TickRate <= 0 {
		cfg.TickRate = SystemHz
	}
	if cfg.Speed <= 0 {
		cfg.Speed = 1
	}
	cfg.Speed = clampSpeed(cfg.Speed)
	return &Runner{
		logger: logger,
		beeper: beeper,
		sys:    sys,
		cfg:    cfg,
		paused: cfg.Paused,
		frames: make(chan Framebuffer, 1),
	}
}

// Run executes frames until ctx is done or the machine faults. Each frame runs
// TickRate/FrameRate instructions followed by one timer step.
func (r *Runner) Run(ctx context.Context) error {
	r.logger.Info("Starting machine",
		log.Int("tick_rate", r.cfg.TickRate),
		log.Int("frame_rate", r.cfg.FrameRate),
		log.String("speed", strconv.FormatFloat(r.cfg.Speed, 'g', -1, 64)))

	ticker := time.NewTicker(time.Second / time.Duration(r.cfg.FrameRate))
	defer ticker.Stop()
	defer r.beeper.Pause()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		if err := r.advance(); err != nil {
			return err
		}
	}
}

// advance runs as many emulated frames as the speed setting has accumulated.
func (r *Runner) advance() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.paused {
		return nil
	}
	r.budget += r.cfg.Speed
	for r.budget >= 1 {
		r.budget--
		if err := r.frameLocked(); err != nil {
			return err
		}
	}
	return nil
}

func (r *Runner) ticksPerFrame() int {
	return max(1, r.cfg.TickRate/r.cfg.FrameRate)
}

func (r *Runner) frameLocked() error {
	for range r.ticksPerFrame() {
		if err := r.tickLocked(); err != nil {
			return err
		}
	}

	if r.sys.DisplayChanged() {
		r.publish(r.sys.Framebuffer())
	}
	r.sys.Frame()
	r.updateSound()
	return nil
}

func (r *Runner) tickLocked() error {
	pc := r.sys.cpu.PC
	if err := r.sys.Tick(r.keypad.Down()); err != nil {
		r.logger.Error("Machine halted",
			log.Hex("pc", pc),
			log.Err(err))
		return fmt.Errorf("executing instruction at 0x%04X: %w", pc, err)
	}
	return nil
}

func (r *Runner) updateSound() {
	active := r.sys.SoundActive()
	if active == r.sound {
		return
	}
	r.sound = active
	if active {
		r.beeper.Play()
	} else {
		r.beeper.Pause()
	}
}

// publish hands the framebuffer to the renderer, replacing a frame that was
// not picked up yet.
func (r *Runner) publish(fb Framebuffer) {
	select {
	case <-r.frames:
	default:
	}
	select {
	case r.frames <- fb:
	default:
	}
}

// Frames delivers the display contents after every frame that drew to it.
func (r *Runner) Frames() <-chan Framebuffer {
	return r.frames
}

// SetKeys reports the keys currently held. Keys that went down since the
// previous call resolve a pending FX0A wait.
func (r *Runner) SetKeys(down uint16) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if pressed := r.keypad.Update(down); pressed != 0 {
		r.sys.KeypadPress(pressed)
	}
}

// Step executes a single instruction, regardless of the paused state.
func (r *Runner) Step() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.tickLocked(); err != nil {
		return err
	}
	if r.sys.DisplayChanged() {
		r.publish(r.sys.Framebuffer())
	}
	return nil
}

// StepFrame executes one frame worth of instructions and a timer step,
// regardless of the paused state.
func (r *Runner) StepFrame() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.frameLocked()
}

// Reset restarts the loaded program.
func (r *Runner) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sys.Reset()
	r.restartLocked()
	r.logger.Info("Machine reset")
}

// Reload replaces the program and restarts the machine.
func (r *Runner) Reload(rom []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.sys.Reload(rom); err != nil {
		return fmt.Errorf("reloading program: %w", err)
	}
	r.restartLocked()
	r.logger.Info("Program reloaded", log.Int("size", len(rom)))
	return nil
}

func (r *Runner) restartLocked() {
	r.budget = 0
	r.sound = false
	r.beeper.Pause()
	r.publish(r.sys.Framebuffer())
}

func (r *Runner) Pause() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.paused = true
	r.logger.Debug("Paused")
}

func (r *Runner) Resume() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.paused = false
	r.logger.Debug("Resumed")
}

func (r *Runner) Paused() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.paused
}

// SetSpeed changes the emulation speed multiplier, clamped to
// [MinSpeed, MaxSpeed]. Non-positive values are ignored.
func (r *Runner) SetSpeed(speed float64) {
	if speed <= 0 {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	r.cfg.Speed = clampSpeed(speed)
}

func clampSpeed(speed float64) float64 {
	return min(max(speed, MinSpeed), MaxSpeed)
}

func (r *Runner) Speed() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.cfg.Speed
}

func (r *Runner) SetQuirks(q Quirks) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sys.SetQuirks(q)
}

// Snapshot copies the machine state under the runner lock.
func (r *Runner) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.sys.Snapshot()
}
