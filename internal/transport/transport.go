// SPDX-License-Identifier: MIT
//
// Package transport holds the sinks that consume the PCM stream: raw writers
// (stdout), WebSocket and UDP forwarding, and a null sink. Device and file
// sinks live in their own packages but satisfy the same interface.
package transport

import (
	"errors"
	"fmt"
	"io"
	"os"
	"syscall"
)

// ErrClosed is returned by a sink whose consumer has gone away, such as a
// closed pipe on the other end of stdout.
var ErrClosed = errors.New("transport: sink closed")

// Sink consumes PCM buffers. Send must not retain p after it returns, since
// the producer reuses its buffers. Sinks are driven from a single goroutine.
type Sink interface {
	Send(p []byte) error
	Close() error
}

// Framed is implemented by sinks that can only accept buffers of one fixed
// size in bytes. The last buffer of a finite stream may be shorter.
type Framed interface {
	ChunkSize() int
}

// WriterSink forwards buffers verbatim to an io.Writer.
type WriterSink struct {
	w io.Writer
}

// NewWriterSink returns a sink writing to w. The writer is not closed by
// Close.
func NewWriterSink(w io.Writer) *WriterSink {
	return &WriterSink{w: w}
}

// Send writes p to the underlying writer. Errors that mean the reader went
// away are reported as ErrClosed.
func (s *WriterSink) Send(p []byte) error {
	if _, err := s.w.Write(p); err != nil {
		if IsClosedError(err) {
			return fmt.Errorf("%w: %v", ErrClosed, err)
		}
		return err
	}
	return nil
}

// Close is a no-op.
func (s *WriterSink) Close() error {
	return nil
}

// IsClosedError reports whether err means the receiving end of a pipe or file
// is gone. EINVAL shows up when stdout is closed before the first write.
func IsClosedError(err error) bool {
	return errors.Is(err, ErrClosed) ||
		errors.Is(err, syscall.EPIPE) ||
		errors.Is(err, syscall.EINVAL) ||
		errors.Is(err, os.ErrClosed) ||
		errors.Is(err, io.ErrClosedPipe)
}

// Ensure WriterSink satisfies the interface at compile time.
var _ Sink = (*WriterSink)(nil)
