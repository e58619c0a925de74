// SPDX-License-Identifier: MIT
package cmd

import (
	"playbacque/internal/config"
	"playbacque/internal/decoder"
	"playbacque/pkg/build"

	"github.com/spf13/cobra"
)

// ParseArgs builds the runtime options from the command line. It returns
// (nil, nil) when cobra handled the invocation itself, as with --help.
func ParseArgs(args []string) (*config.Options, error) {
	buildInfo := build.GetBuildFlags()
	options := config.NewOptions()
	parsed := false

	var buffer, noBuffer bool

	rootCmd := &cobra.Command{
		Use:           buildInfo.Name + " [flags] <file>",
		Short:         buildInfo.Description,
		Args:          cobra.MaximumNArgs(1),
		SilenceErrors: true,
		SilenceUsage:  true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd:   true,
			DisableDescriptions: true,
			DisableNoDescFlag:   true,
			HiddenDefaultCmd:    true,
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			parsed = true
			if len(args) == 1 {
				options.Source = decoder.NormalizeSource(args[0])
			}

			switch {
			case buffer:
				options.Buffer = decoder.BufferOn
			case noBuffer:
				options.Buffer = decoder.BufferOff
			}

			flags := cmd.Flags()
			switch {
			case flags.Changed("out"):
				options.Output = config.OutputStdout
			case flags.Changed("wav"):
				options.Output = config.OutputWAV
			case flags.Changed("ws"):
				options.Output = config.OutputWebSocket
			case flags.Changed("udp"):
				options.Output = config.OutputUDP
			case flags.Changed("null"):
				options.Output = config.OutputNull
			}
			if options.Address == addressFromConfig {
				options.Address = ""
			}

			return options.Validate()
		},
	}

	rootCmd.SetHelpCommand(&cobra.Command{Hidden: true})

	flags := rootCmd.Flags()

	// Decoding
	flags.BoolVarP(&buffer, "buffer", "b", false,
		"Decode once and loop from memory (default for stdin and pipes)")
	flags.BoolVar(&noBuffer, "no-buffer", false,
		"Let ffmpeg loop the input instead of buffering it")
	flags.BoolVarP(&options.PCM, "pcm", "p", false,
		"Input is raw 48 kHz stereo s16le PCM")
	flags.DurationVarP(&options.Duration, "duration", "d", config.DefaultDuration,
		"Stop after this much audio, e.g. 90s or 5m (0 plays forever)")

	// Output
	flags.BoolP("out", "o", false,
		"Write raw PCM to stdout instead of playing it")
	flags.IntVarP(&options.DeviceID, "device", "D", config.DefaultDeviceID,
		"Output device ID. Use --list-devices to see available devices.")
	flags.BoolVar(&options.ChooseDevice, "choose-device", false,
		"Pick the output device interactively")
	flags.StringVar(&options.WAVPath, "wav", "",
		"Record the loop to a WAV `file`")
	flags.StringVar(&options.Address, "ws", "",
		"Serve PCM to WebSocket clients on `addr` (defaults to transport.websocket_addr)")
	flags.StringVar(&options.Address, "udp", "",
		"Send PCM datagrams to `host:port` (defaults to transport.udp_target)")
	flags.Bool("null", false,
		"Discard the output, paced at real time")
	flags.Lookup("ws").NoOptDefVal = addressFromConfig
	flags.Lookup("udp").NoOptDefVal = addressFromConfig

	rootCmd.MarkFlagsMutuallyExclusive("buffer", "no-buffer")
	rootCmd.MarkFlagsMutuallyExclusive("out", "device", "choose-device", "wav", "ws", "udp", "null")

	// One-off commands
	flags.BoolVarP(&options.ListDevices, "list-devices", "L", false,
		"List audio devices and exit")
	flags.BoolVarP(&options.Version, "version", "V", false,
		"Print the version and exit")

	// Configuration
	flags.StringVarP(&options.ConfigPath, "config", "c", config.DefaultConfigPath,
		"Configuration `file` (default playbacque.yaml)")
	flags.BoolVarP(&options.Verbose, "verbose", "v", config.DefaultVerbosity,
		"Show debug output")
	flags.BoolVarP(&options.Quiet, "quiet", "q", false,
		"Only show errors")

	rootCmd.SetArgs(args)
	if err := rootCmd.Execute(); err != nil {
		return nil, err
	}
	if !parsed {
		return nil, nil
	}

	return options, nil
}

// addressFromConfig marks --ws or --udp given without a value.
const addressFromConfig = "\x00config"
