// Package main implements a CHIP-8 interpreter that runs in a terminal
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/p47t/chip8vm"
	"github.com/p47t/chip8vm/internal/audio"
	"github.com/p47t/chip8vm/internal/cli"
	"github.com/p47t/chip8vm/internal/config"
	"github.com/p47t/chip8vm/internal/console"
	"github.com/p47t/chip8vm/internal/options"
	"github.com/retroenv/retrogolib/app"
	"github.com/retroenv/retrogolib/buildinfo"
	"github.com/retroenv/retrogolib/log"
	"golang.org/x/sync/errgroup"
)

var (
	version = "dev"
	commit  = ""
	date    = ""
)

const (
	keyHold     = 150 * time.Millisecond
	refreshRate = 30
)

func main() {
	ctx := app.Context()

	opts, err := cli.ParseFlags("chip8term")
	if err != nil {
		logger := config.CreateLogger(opts.Debug, opts.Quiet)
		var usageErr *cli.UsageError
		if errors.As(err, &usageErr) {
			printBanner(logger)
			usageErr.ShowUsage()
		} else {
			logger.Fatal(err.Error())
		}
		os.Exit(1)
	}

	logger := config.CreateLogger(opts.Debug, opts.Quiet)
	printBanner(logger)

	if err := run(ctx, logger, opts); err != nil {
		logger.Error("Emulation failed", log.Err(err))
		os.Exit(1)
	}
}

func printBanner(logger *log.Logger) {
	logger.Info("chip8term - CHIP-8 interpreter", log.String("version", buildinfo.Version(version, commit, date)))
}

func run(ctx context.Context, logger *log.Logger, opts options.Program) error {
	sys := config.CreateSystem(opts)
	if err := sys.LoadFile(opts.Input); err != nil {
		return fmt.Errorf("loading rom '%s': %w", opts.Input, err)
	}

	var beeper chip8vm.Beeper
	if !opts.Mute {
		b, err := audio.New(logger)
		if err != nil {
			logger.Warn("Audio output disabled", log.Err(err))
		} else {
			defer func() { _ = b.Close() }()
			beeper = b
		}
	}

	runner := chip8vm.NewRunner(logger, sys, config.RunnerConfig(opts), beeper)

	keyboard, err := console.OpenKeyboard(os.Stdin, keyHold)
	if err != nil {
		return err
	}
	defer func() { _ = keyboard.Close() }()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return runner.Run(ctx)
	})
	g.Go(func() error {
		defer cancel()
		return keyboard.Run(ctx, runner.SetKeys, func(cmd console.Command) {
			handleCommand(logger, runner, cmd)
		})
	})
	g.Go(func() error {
		return render(ctx, runner)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func handleCommand(logger *log.Logger, runner *chip8vm.Runner, cmd console.Command) {
	var err error
	switch cmd {
	case console.TogglePause:
		if runner.Paused() {
			runner.Resume()
		} else {
			runner.Pause()
		}
	case console.Step:
		err = runner.Step()
	case console.StepFrame:
		err = runner.StepFrame()
	case console.Reset:
		runner.Reset()
	}
	if err != nil {
		logger.Error("Debugger command failed", log.Err(err))
	}
}

// render redraws the terminal at refreshRate. The display pane only changes
// when the runner publishes a new frame.
func render(ctx context.Context, runner *chip8vm.Runner) error {
	var screen console.Screen
	display := runner.Snapshot().Display

	ticker := time.NewTicker(time.Second / refreshRate)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case fb := <-runner.Frames():
			display = fb
			continue
		case <-ticker.C:
		}

		snap := runner.Snapshot()
		snap.Display = display
		screen.Draw(snap)
	}
}
