// SPDX-License-Identifier: MIT
package transport

import (
	applog "playbacque/internal/log"
	"playbacque/internal/pcm"
)

// NullSink implements the Sink interface by discarding data and counting it.
// It is useful for exercising the decoder without any output device.
type NullSink struct {
	bytes int64
}

// NewNullSink creates a new NullSink instance.
func NewNullSink() *NullSink {
	applog.Debug("Transport: Using NullSink")
	return &NullSink{}
}

// Send counts and drops the received data.
func (s *NullSink) Send(p []byte) error {
	s.bytes += int64(len(p))
	return nil // Null sink never fails to "send"
}

// Bytes returns the number of bytes received so far.
func (s *NullSink) Bytes() int64 {
	return s.bytes
}

// Close logs how much audio went through the sink.
func (s *NullSink) Close() error {
	applog.Infof("NullSink: discarded %d bytes (%s of audio)", s.bytes, pcm.Duration(s.bytes))
	return nil
}

// Ensure NullSink satisfies the interface at compile time.
var _ Sink = (*NullSink)(nil)
