// Package audio plays the buzzer tone through the system audio device.
package audio

import (
	"fmt"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
	"github.com/retroenv/retrogolib/log"
)

const (
	sampleRate    = 44100
	toneFrequency = 440
	toneAmplitude = 0.25
	bufferSize    = 20 * time.Millisecond
)

// Beeper plays a sine tone while the sound timer runs.
type Beeper struct {
	logger *log.Logger
	ctx    *oto.Context

	mu      sync.Mutex
	player  *oto.Player
	playing bool
}

// New opens the audio device. Only one Beeper can exist per process.
func New(logger *log.Logger) (*Beeper, error) {
	op := &oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: 1,
		Format:       oto.FormatFloat32LE,
		BufferSize:   bufferSize,
	}

	ctx, ready, err := oto.NewContext(op)
	if err != nil {
		return nil, fmt.Errorf("creating audio context: %w", err)
	}
	<-ready

	return &Beeper{
		logger: logger,
		ctx:    ctx,
		player: ctx.NewPlayer(newTone(sampleRate, toneFrequency, toneAmplitude)),
	}, nil
}

func (b *Beeper) Play() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.player == nil || b.playing {
		return
	}
	b.player.Play()
	b.playing = true
	b.logger.Debug("Buzzer on")
}

func (b *Beeper) Pause() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.player == nil || !b.playing {
		return
	}
	b.player.Pause()
	b.playing = false
	b.logger.Debug("Buzzer off")
}

// Close stops the tone and releases the player.
func (b *Beeper) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.player == nil {
		return nil
	}
	err := b.player.Close()
	b.player = nil
	b.playing = false
	if err != nil {
		return fmt.Errorf("closing audio player: %w", err)
	}
	return nil
}
