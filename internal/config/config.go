// Package config handles application configuration and setup
package config

import (
	"time"

	"github.com/p47t/chip8vm"
	"github.com/p47t/chip8vm/internal/options"
	"github.com/retroenv/retrogolib/log"
)

// CreateLogger creates a logger with appropriate settings
func CreateLogger(debug, quiet bool) *log.Logger {
	cfg := log.DefaultConfig()
	if debug {
		cfg.Level = log.DebugLevel
	} else if quiet {
		cfg.Level = log.ErrorLevel
	}
	return log.NewWithConfig(cfg)
}

// CreateSystem builds a machine configured by the program options.
func CreateSystem(opts options.Program) *chip8vm.System {
	seed := opts.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}

	policy, _ := chip8vm.ParseKeyWaitPolicy(opts.KeyWait)
	return chip8vm.New(chip8vm.NewRandom(seed),
		chip8vm.WithQuirks(chip8vm.Quirks{
			ShiftFromVY:    opts.ShiftFromVY,
			IncrementIndex: opts.IncrementIndex,
		}),
		chip8vm.WithKeyWaitPolicy(policy),
	)
}

// RunnerConfig converts the pacing options.
func RunnerConfig(opts options.Program) chip8vm.RunnerConfig {
	cfg := chip8vm.DefaultRunnerConfig()
	if opts.TickRate > 0 {
		cfg.TickRate = opts.TickRate
	}
	if opts.Speed > 0 {
		cfg.Speed = opts.Speed
	}
	cfg.Paused = opts.Paused
	return cfg
}
