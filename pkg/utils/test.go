// SPDX-License-Identifier: MIT
package utils

import (
	"encoding/binary"
	"math"
	"sync"

	"playbacque/internal/transport"
)

// MockSink implements transport.Sink for testing. It stores a copy of every
// buffer it is sent.
type MockSink struct {
	mu sync.Mutex

	Sent   [][]byte
	Closed bool

	// FailAfter makes Send return Err once this many bytes have been
	// accepted. Zero disables the failure.
	FailAfter int
	// Err is returned when FailAfter triggers. Defaults to transport.ErrClosed.
	Err error

	// Chunk, when non-zero, makes the sink report itself as transport.Framed.
	Chunk int
}

// Send stores the data for later inspection instead of playing it.
func (m *MockSink) Send(p []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailAfter > 0 && m.total() >= m.FailAfter {
		if m.Err != nil {
			return m.Err
		}
		return transport.ErrClosed
	}
	m.Sent = append(m.Sent, append([]byte{}, p...))
	return nil
}

// Close marks the sink as closed.
func (m *MockSink) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Closed = true
	return nil
}

// Bytes returns everything sent so far, concatenated.
func (m *MockSink) Bytes() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []byte
	for _, b := range m.Sent {
		out = append(out, b...)
	}
	return out
}

func (m *MockSink) total() int {
	n := 0
	for _, b := range m.Sent {
		n += len(b)
	}
	return n
}

// FramedMockSink is a MockSink that requires fixed-size writes.
type FramedMockSink struct {
	MockSink
}

// ChunkSize returns the configured chunk size.
func (m *FramedMockSink) ChunkSize() int {
	return m.Chunk
}

var (
	_ transport.Sink   = (*MockSink)(nil)
	_ transport.Framed = (*FramedMockSink)(nil)
)

// GenerateSineWave returns frames of stereo s16le PCM holding a sine wave of
// the given frequency and amplitude (0..1) on both channels.
func GenerateSineWave(frames int, sampleRate, frequency, amplitude float64) []byte {
	buf := make([]byte, frames*4)
	for i := range frames {
		t := float64(i) / sampleRate
		s := int16(math.Sin(2*math.Pi*frequency*t) * math.MaxInt16 * amplitude)
		binary.LittleEndian.PutUint16(buf[i*4:], uint16(s))
		binary.LittleEndian.PutUint16(buf[i*4+2:], uint16(s))
	}
	return buf
}

// GenerateComplexWave returns frames of stereo s16le PCM holding a 440Hz tone
// with two harmonics, scaled to 90% of full scale.
func GenerateComplexWave(frames int, sampleRate float64) []byte {
	buf := make([]byte, frames*4)
	for i := range frames {
		tm := float64(i) / sampleRate
		signal := math.Sin(2*math.Pi*440*tm)*0.5 +
			math.Sin(2*math.Pi*880*tm)*0.3 +
			math.Sin(2*math.Pi*1320*tm)*0.2 // 440Hz fundamental + harmonics
		s := int16(signal * math.MaxInt16 * 0.9)
		binary.LittleEndian.PutUint16(buf[i*4:], uint16(s))
		binary.LittleEndian.PutUint16(buf[i*4+2:], uint16(s))
	}
	return buf
}
