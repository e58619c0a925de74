// SPDX-License-Identifier: MIT
package config

import (
	"fmt"
	"time"

	"playbacque/internal/decoder"
	applog "playbacque/internal/log"
)

// OutputMode selects where the stream is written.
type OutputMode int

const (
	OutputDevice    OutputMode = iota // Local playback (default device or --device)
	OutputStdout                      // Raw PCM on stdout
	OutputWAV                         // WAV file
	OutputWebSocket                   // WebSocket broadcast
	OutputUDP                         // UDP datagrams
	OutputNull                        // Discard, paced at real time
)

func (m OutputMode) String() string {
	switch m {
	case OutputDevice:
		return "device"
	case OutputStdout:
		return "stdout"
	case OutputWAV:
		return "wav"
	case OutputWebSocket:
		return "websocket"
	case OutputUDP:
		return "udp"
	case OutputNull:
		return "null"
	default:
		return "unknown"
	}
}

// Core configuration constants that define the boundaries and defaults
// for the player.
const (
	DefaultDeviceID   = MinDeviceID // System default output device
	DefaultBuffer     = decoder.BufferAuto
	DefaultOutput     = OutputDevice
	DefaultDuration   = 0 // Play until interrupted
	DefaultVerbosity  = false
	DefaultConfigPath = "" // Search default locations

	MinDeviceID = -1 // -1 represents system default device
)

// Options holds the runtime options for one invocation, assembled from the
// command line.
type Options struct {
	Source string             // Input path, URL or "-" for stdin
	Buffer decoder.BufferMode // Loop buffering policy
	PCM    bool               // Input is already raw PCM in the output profile

	Output       OutputMode
	DeviceID     int    // Output device for OutputDevice
	ChooseDevice bool   // Pick the output device interactively
	WAVPath      string // Target file for OutputWAV
	Address      string // Listen address for OutputWebSocket, target for OutputUDP

	Duration time.Duration // Stop after this much audio, 0 for no limit

	ConfigPath  string
	Verbose     bool
	Quiet       bool
	ListDevices bool // One-off command: list devices and exit
	Version     bool // One-off command: print version and exit
}

// NewOptions creates Options populated with default values.
func NewOptions() *Options {
	return &Options{
		Buffer:     DefaultBuffer,
		Output:     DefaultOutput,
		DeviceID:   DefaultDeviceID,
		Duration:   DefaultDuration,
		ConfigPath: DefaultConfigPath,
		Verbose:    DefaultVerbosity,
	}
}

// LogLevel returns the level to log at. --verbose and --quiet win over the
// configuration file's level, which is empty before the file is loaded.
func (o *Options) LogLevel(fileLevel string) applog.LogLevel {
	switch {
	case o.Verbose:
		return applog.LevelDebug
	case o.Quiet:
		return applog.LevelError
	}
	level, _ := applog.ParseLevel(fileLevel)
	return level
}

// Validate checks the options for a playback run. One-off commands need no
// source.
func (o *Options) Validate() error {
	if o.ListDevices || o.Version {
		return nil
	}
	if o.Source == "" {
		return fmt.Errorf("no input file given")
	}
	if o.Verbose && o.Quiet {
		return fmt.Errorf("--verbose and --quiet are mutually exclusive")
	}
	if o.DeviceID < MinDeviceID {
		return fmt.Errorf("invalid device ID: %d", o.DeviceID)
	}
	if o.Duration < 0 {
		return fmt.Errorf("duration must not be negative: %s", o.Duration)
	}
	switch o.Output {
	case OutputWAV:
		if o.WAVPath == "" {
			return fmt.Errorf("wav output needs a file path")
		}
	case OutputWebSocket, OutputUDP:
		if o.Address == "" {
			return fmt.Errorf("%s output needs an address", o.Output)
		}
	}
	return nil
}
