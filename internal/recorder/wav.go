// SPDX-License-Identifier: MIT
//
// Package recorder writes the PCM stream to a 16-bit stereo WAV file.
package recorder

import (
	"errors"
	"fmt"
	"os"
	"sync"

	applog "playbacque/internal/log"
	"playbacque/internal/pcm"
	"playbacque/internal/transport"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// WAVSink is a transport.Sink that encodes everything it is sent into a WAV
// file. The header is finalized on Close.
type WAVSink struct {
	mu sync.Mutex

	path       string
	outputFile *os.File
	wavEncoder *wav.Encoder
	sampleBuf  *audio.IntBuffer
	samples    []int16
	written    int64
}

// Create opens path for writing, truncating any existing file.
func Create(path string) (*WAVSink, error) {
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create recording: %w", err)
	}

	s := &WAVSink{
		path:       path,
		outputFile: file,
		wavEncoder: wav.NewEncoder(file, pcm.SampleRate, pcm.BytesPerSample*8, pcm.Channels, 1),
		sampleBuf: &audio.IntBuffer{
			Format: &audio.Format{
				NumChannels: pcm.Channels,
				SampleRate:  pcm.SampleRate,
			},
			SourceBitDepth: pcm.BytesPerSample * 8,
		},
	}

	applog.Infof("WAVSink: Recording to %s", path)
	return s, nil
}

// Send encodes p. Trailing bytes that do not form a whole sample are dropped.
func (s *WAVSink) Send(p []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.wavEncoder == nil {
		return transport.ErrClosed
	}

	n := len(p) / pcm.BytesPerSample
	if cap(s.samples) < n {
		s.samples = make([]int16, n)
		s.sampleBuf.Data = make([]int, n)
	}
	s.samples = s.samples[:n]
	s.sampleBuf.Data = s.sampleBuf.Data[:n]

	pcm.ToInt16(s.samples, p)
	for i, v := range s.samples {
		s.sampleBuf.Data[i] = int(v)
	}

	if err := s.wavEncoder.Write(s.sampleBuf); err != nil {
		return fmt.Errorf("failed to write recording: %w", err)
	}
	s.written += int64(n * pcm.BytesPerSample)
	return nil
}

// Written returns the number of PCM bytes encoded so far.
func (s *WAVSink) Written() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.written
}

// Close finalizes the WAV header and closes the file. Further calls are
// no-ops.
func (s *WAVSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.wavEncoder == nil {
		return nil
	}

	encErr := s.wavEncoder.Close()
	s.wavEncoder = nil
	fileErr := s.outputFile.Close()
	s.outputFile = nil

	applog.Infof("WAVSink: Wrote %s of audio to %s", pcm.Duration(s.written), s.path)
	return errors.Join(encErr, fileErr)
}

var _ transport.Sink = (*WAVSink)(nil)
