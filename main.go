// SPDX-License-Identifier: MIT
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"playbacque/cmd"
	"playbacque/internal/audio"
	"playbacque/internal/config"
	"playbacque/internal/decoder"
	applog "playbacque/internal/log"
	"playbacque/internal/output"
	"playbacque/internal/pcm"
	"playbacque/internal/playback"
	"playbacque/internal/stream"
	"playbacque/internal/tui"
	"playbacque/pkg/build"
)

// main is the entry point for the player. The program flow is divided into
// three phases:
//
// 1. Startup Phase:
//   - Initialize build information
//   - Parse command line arguments and load the configuration file
//   - Execute one-off commands (version, device listing) if requested
//   - Pick the output device if asked to
//
// 2. Playback Phase:
//   - Open the output sink
//   - Start ffmpeg and play its output on a loop until stopped
//
// 3. Shutdown Phase:
//   - Report why playback stopped and map it to the exit status
func main() {
	os.Exit(run())
}

func run() int {
	// ==================== STARTUP PHASE ====================

	buildErr := build.Initialize()

	opts, err := cmd.ParseArgs(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 2 // Usage error
	}
	if opts == nil {
		return 0 // --help
	}

	if opts.Version {
		fmt.Println(build.VersionString())
		return 0
	}

	// The flags apply before the file is read so its own logging honours them.
	applog.SetLevel(opts.LogLevel(""))
	if buildErr != nil {
		applog.Debugf("Build: %v", buildErr)
	}

	cfg, err := config.LoadConfig(opts.ConfigPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}
	applog.SetLevel(opts.LogLevel(cfg.LogLevel))

	if opts.ListDevices {
		if err := listDevices(); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			return 1
		}
		return 0
	}

	if opts.ChooseDevice {
		sel, err := chooseDevice()
		if errors.Is(err, tui.ErrCancelled) {
			return 0
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			return 1
		}
		opts.DeviceID = sel.DeviceID
		cfg.Output.LowLatency = sel.LowLatency
	}

	// ==================== PLAYBACK PHASE ====================

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Without a handler, writing to a closed stdout kills the process with
	// SIGPIPE. With one, the write fails with EPIPE and we exit cleanly.
	signal.Notify(make(chan os.Signal, 1), syscall.SIGPIPE)

	sink, err := output.Open(opts, cfg, os.Stdout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}

	inputArgs := cfg.DecoderInputArgs()
	if opts.PCM {
		inputArgs = append(pcm.Args(), inputArgs...)
	}

	player := &playback.Player{
		Launcher: decoder.NewExecLauncher(cfg.Decoder.Path),
		Decode: decoder.Options{
			Source:    opts.Source,
			Buffer:    opts.Buffer,
			InputArgs: inputArgs,
			ReadSize:  cfg.Decoder.ReadSize,
			WhenEmpty: stream.WhenEmptyError,
		},
		Sink:  sink,
		Limit: pcm.BytesFor(opts.Duration),
	}

	applog.Debugf("Playback: %s to %s (buffer %s)", opts.Source, opts.Output, opts.Buffer)
	err = player.Run(ctx)

	// ==================== SHUTDOWN PHASE ====================

	report(err, opts)
	return playback.ExitCode(err)
}

func listDevices() error {
	if err := audio.Initialize(); err != nil {
		return err
	}
	defer audio.Terminate()
	return audio.ListDevices(os.Stdout)
}

func chooseDevice() (tui.Selection, error) {
	if err := audio.Initialize(); err != nil {
		return tui.Selection{}, err
	}
	defer audio.Terminate()
	return tui.ChooseDevice()
}

// report prints why playback stopped. Interruption is silent.
func report(err error, opts *config.Options) {
	var launchErr *decoder.LaunchError

	switch {
	case err == nil, errors.Is(err, playback.ErrInterrupted):
	case errors.Is(err, playback.ErrSinkClosed):
		if opts.Output == config.OutputStdout {
			fmt.Fprintln(os.Stderr, "error: stdout closed")
		} else {
			applog.Infof("Playback: Output closed: %v", err)
		}
	case errors.As(err, &launchErr):
		fmt.Fprintf(os.Stderr, "error: could not start %s: %v\n", launchErr.Path, launchErr.Err)
	case errors.Is(err, stream.ErrEmptyLoop):
		fmt.Fprintf(os.Stderr, "error: %s decoded to no audio\n", opts.Source)
	case errors.Is(err, playback.ErrDecoderExhausted):
		fmt.Fprintln(os.Stderr, "error: decoder stopped unexpectedly, see its output above")
	default:
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
	}
}
