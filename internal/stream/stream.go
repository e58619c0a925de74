// SPDX-License-Identifier: MIT
/*
Package stream implements the pull-based byte pipeline that sits between the
decoder process and an output sink:
- Stream: a lazy, forward-only sequence of byte buffers
- Chunk: normalises arbitrary buffer sizes into fixed-length chunks
- Loop: records a finite stream once and replays it forever

Ownership:
- A buffer returned by Next belongs to the producer and may be overwritten
  by the following call to Next. Consumers that need a buffer for longer
  must copy it.
- Streams are not safe for concurrent use. One consumer pulls at a time.
*/
package stream

import (
	"io"
)

// Stream is a lazily evaluated sequence of byte buffers. Next returns io.EOF
// once a finite stream is exhausted.
type Stream interface {
	Next() ([]byte, error)
}

// Func adapts an ordinary function to the Stream interface.
type Func func() ([]byte, error)

// Next calls f().
func (f Func) Next() ([]byte, error) {
	return f()
}

type sliceStream struct {
	bufs [][]byte
	pos  int
}

// FromSlices returns a finite Stream yielding bufs in order. The buffers are
// yielded as is, without copying.
func FromSlices(bufs ...[]byte) Stream {
	return &sliceStream{bufs: bufs}
}

func (s *sliceStream) Next() ([]byte, error) {
	if s.pos >= len(s.bufs) {
		return nil, io.EOF
	}
	b := s.bufs[s.pos]
	s.pos++
	return b, nil
}

// readerStream reads from r into a single scratch buffer.
type readerStream struct {
	r   io.Reader
	buf []byte
	err error
}

// FromReader returns a Stream that reads up to size bytes from r per pull.
// The returned buffer is reused across pulls. Read errors other than io.EOF
// are returned once any bytes read alongside them have been yielded.
func FromReader(r io.Reader, size int) Stream {
	if size <= 0 {
		panic("stream: read size must be positive")
	}
	return &readerStream{r: r, buf: make([]byte, size)}
}

func (s *readerStream) Next() ([]byte, error) {
	for s.err == nil {
		n, err := s.r.Read(s.buf)
		s.err = err
		if n > 0 {
			return s.buf[:n], nil
		}
	}
	return nil, s.err
}

// Take pulls up to n buffers from s and returns copies of them. It stops
// early, without error, if s ends.
func Take(s Stream, n int) ([][]byte, error) {
	out := make([][]byte, 0, n)
	for range n {
		b, err := s.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return out, err
		}
		out = append(out, append([]byte{}, b...))
	}
	return out, nil
}

// Collect drains a finite stream and returns copies of every buffer.
func Collect(s Stream) ([][]byte, error) {
	var out [][]byte
	for {
		b, err := s.Next()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, append([]byte{}, b...))
	}
}
