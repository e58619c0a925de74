// SPDX-License-Identifier: MIT
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"playbacque/internal/decoder"
	applog "playbacque/internal/log"
	"playbacque/pkg/bitint"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Output backends for local playback.
const (
	BackendPortAudio = "portaudio"
	BackendOto       = "oto"
)

const (
	DefaultFileName        = "playbacque.yaml"
	DefaultEnvFile         = ".env"
	DefaultLogLevel        = "info"
	DefaultFramesPerBuffer = 1024
	DefaultBackend         = BackendPortAudio
	DefaultWebSocketAddr   = "127.0.0.1:8080"
	DefaultUDPTarget       = "127.0.0.1:9090"

	MaxBufferFrames = 8192 // Maximum frames per buffer (power of 2)
	EnvPrefix       = "PLAYBACQUE_"
)

// File represents the configuration file, loaded from YAML.
type File struct {
	LogLevel  string          `yaml:"log_level"` // Logging level (e.g., "debug", "info", "warn", "error").
	Decoder   DecoderConfig   `yaml:"decoder"`
	Output    OutputConfig    `yaml:"output"`
	Transport TransportConfig `yaml:"transport"`
}

// DecoderConfig holds settings for the ffmpeg subprocess.
type DecoderConfig struct {
	Path      string   `yaml:"path"`       // ffmpeg binary name or path.
	InputArgs []string `yaml:"input_args"` // Extra arguments placed before the input.
	ReadSize  int      `yaml:"read_size"`  // Bytes per read from the decoder pipe.
}

// OutputConfig holds settings for local playback.
type OutputConfig struct {
	FramesPerBuffer int    `yaml:"frames_per_buffer"` // Rounded up to a power of two.
	Backend         string `yaml:"backend"`           // "portaudio" or "oto".
	LowLatency      bool   `yaml:"low_latency"`       // Request low latency settings from PortAudio device.
}

// TransportConfig holds defaults for the network sinks.
type TransportConfig struct {
	WebSocketAddr string `yaml:"websocket_addr"`  // Listen address when --ws has none.
	UDPTarget     string `yaml:"udp_target"`      // Target when --udp has none.
	UDPPacketSize int    `yaml:"udp_packet_size"` // Datagram payload, 0 for the default.
}

// DefaultFile returns the built-in configuration.
func DefaultFile() *File {
	return &File{
		LogLevel: DefaultLogLevel,
		Decoder: DecoderConfig{
			Path:     decoder.DefaultPath,
			ReadSize: decoder.DefaultReadSize,
		},
		Output: OutputConfig{
			FramesPerBuffer: DefaultFramesPerBuffer,
			Backend:         DefaultBackend,
		},
		Transport: TransportConfig{
			WebSocketAddr: DefaultWebSocketAddr,
			UDPTarget:     DefaultUDPTarget,
		},
	}
}

// LoadConfig loads configuration from a YAML file specified by path. If path
// is empty, it searches the working directory and the user config directory.
// If no file is found, it uses built-in defaults. Variables from a .env file
// and the environment are then applied, and the result is validated.
func LoadConfig(path string) (*File, error) {
	cfg := DefaultFile()

	if path == "" {
		path = findConfig()
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
		applog.Debugf("configuration: Loaded %s", path)
	}

	if err := loadEnvFile(DefaultEnvFile); err != nil {
		return nil, err
	}
	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func findConfig() string {
	candidates := []string{DefaultFileName}
	if dir, err := os.UserConfigDir(); err == nil {
		candidates = append(candidates, filepath.Join(dir, "playbacque", "config.yaml"))
	}
	for _, candidate := range candidates {
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return ""
}

// loadEnvFile exports variables from path without overriding the existing
// environment. A missing file is not an error.
func loadEnvFile(path string) error {
	err := godotenv.Load(path)
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("failed to load %s: %w", path, err)
}

// Validate checks the configuration and normalizes frames_per_buffer to a
// power of two.
func (c *File) Validate() error {
	if _, ok := applog.ParseLevel(c.LogLevel); !ok {
		return fmt.Errorf("log_level %q is not a known level", c.LogLevel)
	}

	if c.Decoder.Path == "" {
		return fmt.Errorf("decoder.path must be set")
	}
	if c.Decoder.ReadSize <= 0 {
		return fmt.Errorf("decoder.read_size must be positive, got %d", c.Decoder.ReadSize)
	}

	if c.Output.FramesPerBuffer <= 0 || c.Output.FramesPerBuffer > MaxBufferFrames {
		return fmt.Errorf("output.frames_per_buffer must be between 1 and %d, got %d",
			MaxBufferFrames, c.Output.FramesPerBuffer)
	}
	if !bitint.IsPowerOfTwo(c.Output.FramesPerBuffer) {
		rounded := bitint.NextPowerOfTwo(c.Output.FramesPerBuffer)
		applog.Debugf("configuration: Rounding output.frames_per_buffer %d up to %d",
			c.Output.FramesPerBuffer, rounded)
		c.Output.FramesPerBuffer = rounded
	}

	switch c.Output.Backend {
	case BackendPortAudio, BackendOto:
	default:
		return fmt.Errorf("output.backend %q must be %q or %q", c.Output.Backend, BackendPortAudio, BackendOto)
	}

	if n := c.Transport.UDPPacketSize; n < 0 || n%4 != 0 {
		return fmt.Errorf("transport.udp_packet_size must be a non-negative multiple of 4, got %d", n)
	}

	return nil
}

// DecoderInputArgs returns decoder.input_args in the form the decoder expects.
func (c *File) DecoderInputArgs() []any {
	args := make([]any, len(c.Decoder.InputArgs))
	for i, a := range c.Decoder.InputArgs {
		args[i] = a
	}
	return args
}

// applyEnvOverrides applies PLAYBACQUE_* variables on top of the file.
// Unparseable values are logged and ignored.
func (c *File) applyEnvOverrides() {
	if val, ok := lookupEnv("LOG_LEVEL"); ok {
		c.LogLevel = val
	}
	if val, ok := lookupEnv("FFMPEG"); ok {
		c.Decoder.Path = val
	}
	if val, ok := lookupEnv("READ_SIZE"); ok {
		envInt(val, "decoder.read_size", &c.Decoder.ReadSize)
	}
	if val, ok := lookupEnv("FRAMES_PER_BUFFER"); ok {
		envInt(val, "output.frames_per_buffer", &c.Output.FramesPerBuffer)
	}
	if val, ok := lookupEnv("BACKEND"); ok {
		c.Output.Backend = strings.ToLower(val)
	}
	if val, ok := lookupEnv("LOW_LATENCY"); ok {
		if b, err := strconv.ParseBool(val); err == nil {
			c.Output.LowLatency = b
		} else {
			applog.Warnf("configuration: Ignoring %sLOW_LATENCY=%q", EnvPrefix, val)
		}
	}
	if val, ok := lookupEnv("WS_ADDR"); ok {
		c.Transport.WebSocketAddr = val
	}
	if val, ok := lookupEnv("UDP_TARGET"); ok {
		c.Transport.UDPTarget = val
	}
}

func lookupEnv(name string) (string, bool) {
	val, ok := os.LookupEnv(EnvPrefix + name)
	if ok {
		applog.Debugf("configuration: Overriding from env %s%s=%s", EnvPrefix, name, val)
	}
	return val, ok
}

func envInt(val, key string, dst *int) {
	n, err := strconv.Atoi(val)
	if err != nil {
		applog.Warnf("configuration: Ignoring non-numeric override for %s: %q", key, val)
		return
	}
	*dst = n
}
