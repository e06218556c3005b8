package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/paulhankin/dxfcam/cmd/dxfcam/dxfcam"
	"github.com/paulhankin/dxfcam/config"
	"github.com/paulhankin/dxfcam/internal/logging"
	flag "github.com/spf13/pflag"
)

// exit codes
const (
	exitUsage = 1
	exitIO    = 2
	exitInput = 3
)

type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func usageErr(format string, args ...interface{}) error {
	return &exitError{exitUsage, fmt.Errorf(format, args...)}
}

func ioErr(err error) error {
	return &exitError{exitIO, err}
}

// inputErr is for an input that was read but could not be used: an
// empty or malformed drawing or program.
func inputErr(err error) error {
	if errors.Is(err, config.ErrInvalid) {
		return &exitError{exitUsage, err}
	}
	return &exitError{exitInput, err}
}

func usage(w io.Writer) {
	fmt.Fprintf(w, "usage:\n")
	fmt.Fprintf(w, "  dxfcam convert [flags] <in.dxf|in.svg> <out.gcode>\n")
	fmt.Fprintf(w, "  dxfcam simulate [flags] <in.gcode> <out.svg>\n")
}

// newFlags returns the flags shared by both commands.
func newFlags(name string) (fs *flag.FlagSet, cfgFile *string, verbose *bool) {
	fs = flag.NewFlagSet(name, flag.ContinueOnError)
	config.RegisterFlags(fs)
	cfgFile = fs.String("config", "", "config file (yaml, toml or json)")
	verbose = fs.BoolP("verbose", "v", false, "log debug output")
	return fs, cfgFile, verbose
}

func setup(name string, fs *flag.FlagSet, args []string, cfgFile *string, verbose *bool) (config.Config, error) {
	if err := fs.Parse(args); err != nil {
		return config.Config{}, usageErr("%v", err)
	}
	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logging.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	cfg, err := config.Load(fs, *cfgFile)
	if err != nil {
		if errors.Is(err, config.ErrInvalid) {
			return config.Config{}, usageErr("%v", err)
		}
		return config.Config{}, ioErr(err)
	}
	if fs.NArg() != 2 {
		return config.Config{}, usageErr("%s needs an input and an output file", name)
	}
	return cfg, nil
}

// writeFile creates name and writes to it with fn.
func writeFile(name string, fn func(io.Writer) error) error {
	f, err := os.Create(name)
	if err != nil {
		return ioErr(fmt.Errorf("failed to open output file: %w", err))
	}
	if err := fn(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return ioErr(fmt.Errorf("failed to write %s: %w", name, err))
	}
	return nil
}

func convert(args []string) error {
	fs, cfgFile, verbose := newFlags("convert")
	report := fs.String("report", "", "write a yaml summary of the conversion to this file")
	preview := fs.String("preview", "", "write an svg preview of the toolpath to this file")
	cfg, err := setup("convert", fs, args, cfgFile, verbose)
	if err != nil {
		return err
	}
	in, out := fs.Arg(0), fs.Arg(1)

	f, err := os.Open(in)
	if err != nil {
		return ioErr(err)
	}
	recs, err := dxfcam.ReadDrawing(in, f)
	f.Close()
	if err != nil {
		return inputErr(fmt.Errorf("failed to read %s: %w", in, err))
	}
	res, err := dxfcam.Convert(recs, cfg)
	if err != nil {
		return inputErr(err)
	}
	for _, w := range res.Warnings {
		fmt.Fprintf(os.Stderr, "warning: %v\n", w)
	}

	err = writeFile(out, func(w io.Writer) error {
		if _, err := res.Program.WriteTo(w); err != nil {
			return ioErr(fmt.Errorf("failed to write gcode: %w", err))
		}
		return nil
	})
	if err != nil {
		return err
	}
	if *report != "" {
		err := writeFile(*report, func(w io.Writer) error {
			if err := res.WriteReport(w); err != nil {
				return ioErr(fmt.Errorf("failed to write report: %w", err))
			}
			return nil
		})
		if err != nil {
			return err
		}
	}
	if *preview != "" {
		samples, err := dxfcam.Simulate(strings.NewReader(res.Program.String()), cfg)
		if err != nil {
			return inputErr(err)
		}
		return writeFile(*preview, func(w io.Writer) error {
			if err := dxfcam.WritePreview(w, samples, cfg); err != nil {
				return ioErr(err)
			}
			return nil
		})
	}
	return nil
}

func simulate(args []string) error {
	fs, cfgFile, verbose := newFlags("simulate")
	cfg, err := setup("simulate", fs, args, cfgFile, verbose)
	if err != nil {
		return err
	}
	in, out := fs.Arg(0), fs.Arg(1)
	f, err := os.Open(in)
	if err != nil {
		return ioErr(err)
	}
	samples, err := dxfcam.Simulate(f, cfg)
	f.Close()
	if err != nil {
		return inputErr(fmt.Errorf("failed to read %s: %w", in, err))
	}
	return writeFile(out, func(w io.Writer) error {
		if err := dxfcam.WritePreview(w, samples, cfg); err != nil {
			return ioErr(err)
		}
		return nil
	})
}

func run(args []string) error {
	if len(args) == 0 {
		return usageErr("missing command")
	}
	switch args[0] {
	case "convert":
		return convert(args[1:])
	case "simulate":
		return simulate(args[1:])
	case "help", "-h", "--help":
		usage(os.Stdout)
		return nil
	}
	return usageErr("unknown command %q", args[0])
}

func main() {
	err := run(os.Args[1:])
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "dxfcam: %v\n", err)
	code := exitInput
	var ee *exitError
	if errors.As(err, &ee) {
		code = ee.code
	}
	if code == exitUsage {
		usage(os.Stderr)
	}
	os.Exit(code)
}
