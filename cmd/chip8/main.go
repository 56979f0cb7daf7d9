// Package main implements a CHIP-8 interpreter with an OpenGL window
package main

import (
	"context"
	"errors"
	"os"
	"runtime"

	"github.com/p47t/chip8vm/internal/cli"
	"github.com/p47t/chip8vm/internal/config"
	"github.com/p47t/chip8vm/internal/options"
	"github.com/retroenv/retrogolib/app"
	"github.com/retroenv/retrogolib/buildinfo"
	"github.com/retroenv/retrogolib/log"
)

var (
	version = "dev"
	commit  = ""
	date    = ""
)

func init() {
	// GLFW event handling must run on the main OS thread
	runtime.LockOSThread()
}

func main() {
	ctx := app.Context()

	opts, err := cli.ParseFlags("chip8")
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
	logger.Info("chip8 - CHIP-8 interpreter", log.String("version", buildinfo.Version(version, commit, date)))
}

func run(ctx context.Context, logger *log.Logger, opts options.Program) error {
	var emu Emulator
	defer emu.Terminate()
	if err := emu.Initialize(logger, opts); err != nil {
		return err
	}

	if err := emu.Loop(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
