// SPDX-License-Identifier: MIT
/*
Package audio plays the PCM stream on local output devices:
- DeviceSink: PortAudio blocking output on a device chosen by index
- OtoSink: the system default device through oto, without PortAudio
- Device discovery and listing for the command line

Both sinks consume the fixed 48 kHz stereo s16le profile.
*/
package audio

import (
	"errors"
	"fmt"

	applog "playbacque/internal/log"
	"playbacque/internal/pcm"
	"playbacque/internal/transport"

	"github.com/gordonklaus/portaudio"
)

// DeviceSink writes PCM to a PortAudio output stream using blocking I/O.
// PortAudio consumes exactly one buffer of frames per write, so the sink is
// transport.Framed.
type DeviceSink struct {
	stream *portaudio.Stream
	device *portaudio.DeviceInfo
	buffer []int16 // Interleaved samples handed to PortAudio
	frames int
}

// OpenDeviceSink opens and starts an output stream on the given device,
// DefaultDevice for the system default. Initialize must have been called.
func OpenDeviceSink(deviceID, framesPerBuffer int, lowLatency bool) (*DeviceSink, error) {
	device, err := OutputDevice(deviceID)
	if err != nil {
		return nil, err
	}

	latency := device.DefaultHighOutputLatency
	if lowLatency {
		latency = device.DefaultLowOutputLatency
	}

	s := &DeviceSink{
		device: device,
		buffer: make([]int16, framesPerBuffer*pcm.Channels),
		frames: framesPerBuffer,
	}

	params := portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Channels: 0, // No input device
			Device:   nil,
		},
		Output: portaudio.StreamDeviceParameters{
			Channels: pcm.Channels,
			Device:   device,
			Latency:  latency,
		},
		FramesPerBuffer: framesPerBuffer,
		SampleRate:      pcm.SampleRate,
	}

	stream, err := portaudio.OpenStream(params, s.buffer)
	if err != nil {
		return nil, fmt.Errorf("failed to open output on %s: %w", device.Name, err)
	}
	s.stream = stream

	if err := s.stream.Start(); err != nil {
		s.stream.Close()
		return nil, fmt.Errorf("failed to start output on %s: %w", device.Name, err)
	}

	applog.Infof("DeviceSink: Playing on %s (%d frames per buffer, latency %s)",
		device.Name, framesPerBuffer, latency)
	return s, nil
}

// ChunkSize returns the number of bytes consumed per write.
func (s *DeviceSink) ChunkSize() int {
	return s.frames * pcm.FrameSize
}

// Send converts p into the stream buffer and blocks until PortAudio accepts
// it. A short final chunk is padded with silence.
func (s *DeviceSink) Send(p []byte) error {
	n := pcm.ToInt16(s.buffer, p)
	clear(s.buffer[n:])

	if err := s.stream.Write(); err != nil {
		if errors.Is(err, portaudio.OutputUnderflowed) {
			applog.Debug("DeviceSink: Output underflowed")
			return nil
		}
		return fmt.Errorf("failed to write to %s: %w", s.device.Name, err)
	}
	return nil
}

// Close stops and closes the output stream.
func (s *DeviceSink) Close() error {
	if s.stream == nil {
		return nil
	}
	defer func() { s.stream = nil }()

	if err := s.stream.Stop(); err != nil {
		s.stream.Close()
		return err
	}
	return s.stream.Close()
}

var (
	_ transport.Sink   = (*DeviceSink)(nil)
	_ transport.Framed = (*DeviceSink)(nil)
)
