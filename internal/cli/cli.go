// Package cli handles command line interface logic
package cli

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/p47t/chip8vm"
	"github.com/p47t/chip8vm/internal/options"
)

// ParseFlags parses the command line of the named program.
func ParseFlags(name string) (options.Program, error) {
	return parse(name, os.Args[1:])
}

func parse(name string, arguments []string) (options.Program, error) {
	flags := flag.NewFlagSet(name, flag.ContinueOnError)
	flags.SetOutput(io.Discard)
	var opts options.Program
	readOptionFlags(flags, &opts)

	err := flags.Parse(arguments)
	args := flags.Args()
	if err != nil || len(args) == 0 {
		return opts, &UsageError{name: name, flags: flags}
	}

	if err := validateArgs(name, flags, args); err != nil {
		return opts, err
	}
	if err := validateOptions(opts); err != nil {
		return opts, err
	}

	opts.Input = args[0]
	return opts, nil
}

// UsageError represents an error that should show usage information
type UsageError struct {
	name  string
	flags *flag.FlagSet
	msg   string
}

func (e *UsageError) Error() string {
	return e.msg
}

func (e *UsageError) ShowUsage() {
	fmt.Printf("usage: %s [options] <rom file>\n\n", e.name)
	if e.flags != nil {
		e.flags.SetOutput(os.Stdout)
		e.flags.PrintDefaults()
	}
	fmt.Println()
}

// validateArgs checks if arguments are in correct order
func validateArgs(name string, flags *flag.FlagSet, args []string) error {
	for i, arg := range args {
		if i > 0 && strings.HasPrefix(arg, "-") {
			return &UsageError{
				name:  name,
				flags: flags,
				msg:   fmt.Sprintf("Potential argument %s found after rom file, please pass the rom file as last argument", arg),
			}
		}
	}
	return nil
}

func validateOptions(opts options.Program) error {
	if _, ok := chip8vm.ParseKeyWaitPolicy(opts.KeyWait); !ok {
		return fmt.Errorf("unsupported key wait policy: %s. Valid options: stall, advance", opts.KeyWait)
	}
	if opts.Speed <= 0 {
		return fmt.Errorf("speed must be positive: %g", opts.Speed)
	}
	if opts.TickRate < chip8vm.TimerHz {
		return fmt.Errorf("instruction rate must be at least %d: %d", chip8vm.TimerHz, opts.TickRate)
	}
	return nil
}

func readOptionFlags(flags *flag.FlagSet, opts *options.Program) {
	flags.Float64Var(&opts.Speed, "speed", 1, "emulation speed multiplier")
	flags.IntVar(&opts.TickRate, "hz", chip8vm.SystemHz, "instructions executed per second")
	flags.Uint64Var(&opts.Seed, "seed", 0, "seed of the random generator, 0 picks one from the clock")
	flags.IntVar(&opts.Scale, "scale", 10, "window pixels per CHIP-8 pixel")
	flags.BoolVar(&opts.ShiftFromVY, "shift-vy", false, "8XY6/8XYE shift VY into VX instead of shifting VX in place")
	flags.BoolVar(&opts.IncrementIndex, "inc-index", false, "FX55/FX65 leave I pointing after the last register")
	flags.StringVar(&opts.KeyWait, "key-wait", chip8vm.KeyWaitStall.String(), "FX0A behavior while waiting for a key (stall/advance)")
	flags.BoolVar(&opts.Paused, "paused", false, "start paused in single step mode")
	flags.BoolVar(&opts.Mute, "mute", false, "disable the buzzer")
	flags.BoolVar(&opts.Debug, "debug", false, "enable debugging options for extended logging")
	flags.BoolVar(&opts.Quiet, "q", false, "perform operations quietly")
}
