package chip8vm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/retroenv/retrogolib/assert"
	"github.com/retroenv/retrogolib/log"
)

type fakeBeeper struct {
	calls []string
}

func (b *fakeBeeper) Play()  { b.calls = append(b.calls, "play") }
func (b *fakeBeeper) Pause() { b.calls = append(b.calls, "pause") }

func newTestRunner(t *testing.T, beeper Beeper, words ...uint16) *Runner {
	t.Helper()
	sys := newTestSystem(t, words...)
	return NewRunner(log.NewTestLogger(t), sys, DefaultRunnerConfig(), beeper)
}

func TestNewRunner_Defaults(t *testing.T) {
	r := NewRunner(log.NewTestLogger(t), newTestSystem(t), RunnerConfig{}, nil)

	assert.Equal(t, float64(1), r.Speed())
	assert.Equal(t, SystemHz/TimerHz, r.ticksPerFrame())
	assert.False(t, r.Paused())
}

func TestRunner_Step(t *testing.T) {
	r := newTestRunner(t, nil, 0x6001, 0x6102)

	assert.NoError(t, r.Step())
	snap := r.Snapshot()
	assert.Equal(t, uint8(1), snap.CPU.V[0])
	assert.Equal(t, uint8(0), snap.CPU.V[1])
	assert.Equal(t, uint16(0x202), snap.CPU.PC)
}

func TestRunner_StepFramePublishes(t *testing.T) {
	r := newTestRunner(t, nil, 0xA000, 0xD005, 0x1204)

	assert.NoError(t, r.StepFrame())
	snap := r.Snapshot()
	assert.Equal(t, int64(SystemHz/TimerHz), snap.CPU.Cycles())
	assert.False(t, snap.DisplayChanged)

	select {
	case fb := <-r.Frames():
		assert.True(t, fb.Pixel(0, 0))
		assert.False(t, fb.Pixel(4, 0))
	default:
		t.Fatal("no frame published")
	}

	// nothing drawn in the second frame
	assert.NoError(t, r.StepFrame())
	select {
	case <-r.Frames():
		t.Fatal("unexpected frame")
	default:
	}
}

func TestRunner_PublishReplacesPending(t *testing.T) {
	r := newTestRunner(t, nil)

	var first, second Framebuffer
	first[0] = 1
	second[0] = 2
	r.publish(first)
	r.publish(second)

	fb := <-r.Frames()
	assert.Equal(t, uint8(2), fb[0])
}

func TestRunner_Sound(t *testing.T) {
	beeper := &fakeBeeper{}
	r := newTestRunner(t, beeper, 0x6002, 0xF018, 0x1204)

	assert.NoError(t, r.StepFrame())
	assert.Equal(t, []string{"play"}, beeper.calls)

	assert.NoError(t, r.StepFrame())
	assert.Equal(t, []string{"play", "pause"}, beeper.calls)

	assert.NoError(t, r.StepFrame())
	assert.Len(t, beeper.calls, 2)
}

func TestRunner_SetKeys(t *testing.T) {
	r := newTestRunner(t, nil, 0xF30A, 0xF40A)

	r.SetKeys(1 << 2) // held before the wait starts
	assert.NoError(t, r.Step())
	assert.True(t, r.Snapshot().KeyWait)

	r.SetKeys(1 << 2)
	assert.True(t, r.Snapshot().KeyWait, "a held key is not a press")

	r.SetKeys(1<<2 | 1<<7)
	snap := r.Snapshot()
	assert.False(t, snap.KeyWait)
	assert.Equal(t, uint8(7), snap.CPU.V[3])

	assert.NoError(t, r.Step())
	r.SetKeys(0)
	r.SetKeys(1 << 2)
	assert.Equal(t, uint8(2), r.Snapshot().CPU.V[4])
}

func TestRunner_PausedRunsNothing(t *testing.T) {
	r := newTestRunner(t, nil, 0x7001, 0x1200)
	r.Pause()
	assert.True(t, r.Paused())

	assert.NoError(t, r.advance())
	assert.Equal(t, int64(0), r.Snapshot().CPU.Cycles())

	r.Resume()
	assert.NoError(t, r.advance())
	assert.Equal(t, int64(SystemHz/TimerHz), r.Snapshot().CPU.Cycles())
}

func TestRunner_SpeedBudget(t *testing.T) {
	r := newTestRunner(t, nil, 0x7001, 0x1200)
	r.SetSpeed(0.5)
	r.SetSpeed(-1)
	assert.Equal(t, 0.5, r.Speed())

	assert.NoError(t, r.advance())
	assert.Equal(t, int64(0), r.Snapshot().CPU.Cycles())
	assert.NoError(t, r.advance())
	assert.Equal(t, int64(SystemHz/TimerHz), r.Snapshot().CPU.Cycles())

	r.SetSpeed(2)
	assert.NoError(t, r.advance())
	assert.Equal(t, int64(3*SystemHz/TimerHz), r.Snapshot().CPU.Cycles())
}

func TestRunner_SpeedClamped(t *testing.T) {
	r := newTestRunner(t, nil)

	r.SetSpeed(1e9)
	assert.Equal(t, float64(MaxSpeed), r.Speed())
	r.SetSpeed(r.Speed() * 2)
	assert.Equal(t, float64(MaxSpeed), r.Speed())

	r.SetSpeed(1e-9)
	assert.Equal(t, MinSpeed, r.Speed())

	cfg := DefaultRunnerConfig()
	cfg.Speed = 10000
	r = NewRunner(log.NewTestLogger(t), newTestSystem(t), cfg, nil)
	assert.Equal(t, float64(MaxSpeed), r.Speed())
}

func TestRunner_ResetReload(t *testing.T) {
	beeper := &fakeBeeper{}
	r := newTestRunner(t, beeper, 0x6005, 0xF018, 0x1204)
	assert.NoError(t, r.StepFrame())

	r.Reset()
	snap := r.Snapshot()
	assert.Equal(t, uint16(StartAddress), snap.CPU.PC)
	assert.False(t, snap.SoundActive)
	assert.Equal(t, []string{"play", "pause"}, beeper.calls)

	assert.NoError(t, r.Reload(program(0x6109)))
	assert.NoError(t, r.Step())
	assert.Equal(t, uint8(9), r.Snapshot().CPU.V[1])

	err := r.Reload(make([]byte, MemorySize))
	assert.True(t, errors.Is(err, ErrMemoryOverflow))
	assert.ErrorContains(t, err, "reloading program")
	assert.Equal(t, uint8(9), r.Snapshot().CPU.V[1])
}

func TestRunner_SetQuirks(t *testing.T) {
	r := newTestRunner(t, nil, 0x8126)
	r.SetQuirks(Quirks{ShiftFromVY: true})
	r.sys.cpu.V[2] = 0x04

	assert.NoError(t, r.Step())
	snap := r.Snapshot()
	assert.Equal(t, uint8(0x02), snap.CPU.V[1])
	assert.True(t, snap.Quirks.ShiftFromVY)
}

func TestRunner_RunFault(t *testing.T) {
	r := newTestRunner(t, nil, 0xFFFF)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	err := r.Run(ctx)
	var badOp *BadOperationError
	assert.True(t, errors.As(err, &badOp))
	assert.ErrorContains(t, err, "executing instruction at 0x0200")
}

func TestRunner_RunCanceled(t *testing.T) {
	r := newTestRunner(t, nil, 0x1200)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := r.Run(ctx)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.True(t, r.Snapshot().CPU.Cycles() > 0)
}
