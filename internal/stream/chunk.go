// SPDX-License-Identifier: MIT
package stream

import "io"

// Chunker rewrites a stream of variable sized buffers into buffers of a fixed
// length. See Chunk.
type Chunker struct {
	src     Stream
	size    int
	pending []byte // bytes read from src; pending[off:] is not yet emitted
	off     int
	out     []byte // scratch buffer handed to the consumer
	done    bool
}

// Chunk returns a Stream whose buffers are exactly length bytes long, except
// the last one, which holds the remaining total%length bytes. The last buffer
// is always emitted, even when it is empty, so an empty source yields exactly
// one empty buffer.
//
// The yielded buffer is reused by the next call to Next.
func Chunk(src Stream, length int) *Chunker {
	if length <= 0 {
		panic("stream: chunk length must be positive")
	}
	return &Chunker{
		src:     src,
		size:    length,
		pending: make([]byte, 0, 2*length),
		out:     make([]byte, length),
	}
}

// Size returns the chunk length.
func (c *Chunker) Size() int {
	return c.size
}

// Next returns the next chunk.
func (c *Chunker) Next() ([]byte, error) {
	if c.done {
		return nil, io.EOF
	}

	for len(c.pending)-c.off < c.size {
		b, err := c.src.Next()
		if err == io.EOF {
			c.done = true
			n := copy(c.out, c.pending[c.off:])
			c.pending, c.off = c.pending[:0], 0
			return c.out[:n], nil
		}
		if err != nil {
			return nil, err
		}
		// Compact the unread tail once per source buffer.
		n := copy(c.pending, c.pending[c.off:])
		c.pending, c.off = append(c.pending[:n], b...), 0
	}

	copy(c.out, c.pending[c.off:c.off+c.size])
	c.off += c.size
	return c.out, nil
}
