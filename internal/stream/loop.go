// SPDX-License-Identifier: MIT
package stream

import (
	"errors"
	"io"
)

// ErrEmptyLoop is returned when the source of a Looper ends without having
// produced a single byte.
var ErrEmptyLoop = errors.New("stream: cannot loop an empty recording")

// WhenEmpty selects what a Looper does with a zero byte recording.
type WhenEmpty int

const (
	// WhenEmptyError fails with ErrEmptyLoop.
	WhenEmptyError WhenEmpty = iota

	// WhenEmptyIgnore skips the check.
	//
	// Deprecated: a recording made only of empty buffers is replayed
	// forever, so consumers waiting for data (such as Chunk) never return.
	// A recording with no buffers at all ends the stream with io.EOF.
	WhenEmptyIgnore
)

func (w WhenEmpty) String() string {
	switch w {
	case WhenEmptyError:
		return "error"
	case WhenEmptyIgnore:
		return "ignore"
	default:
		return "unknown"
	}
}

// Recording is the frozen result of the first pass over a Looper's source.
type Recording [][]byte

// Len returns the total number of bytes in the recording.
func (r Recording) Len() int {
	n := 0
	for _, b := range r {
		n += len(b)
	}
	return n
}

// Bytes returns the recording concatenated into one buffer.
func (r Recording) Bytes() []byte {
	out := make([]byte, 0, r.Len())
	for _, b := range r {
		out = append(out, b...)
	}
	return out
}

// LoopConfig controls a Looper. The zero value copies every buffer and
// rejects empty recordings.
type LoopConfig struct {
	// NoCopy records source buffers without copying them. Only set this when
	// the source never reuses a buffer after yielding it.
	NoCopy bool

	// WhenEmpty decides what happens when the source yields no bytes.
	WhenEmpty WhenEmpty

	// OnFrozen, if set, is called once with the complete recording before
	// replay starts.
	OnFrozen func(Recording)
}

// Looper consumes a finite stream once and then replays it forever.
type Looper struct {
	src       Stream
	config    LoopConfig
	recording Recording
	frozen    bool
	pos       int
	passes    int
}

// Loop returns a Looper over src. The first pass yields buffers as they are
// read from src; every later pass replays the recording without touching src.
//
// Buffers yielded during replay are shared with the recording and must not be
// modified by the consumer.
func Loop(src Stream, config LoopConfig) *Looper {
	return &Looper{src: src, config: config}
}

// Passes returns the number of completed passes over the recording.
func (l *Looper) Passes() int {
	return l.passes
}

// Next returns the next buffer.
func (l *Looper) Next() ([]byte, error) {
	if !l.frozen {
		b, err := l.src.Next()
		if err == nil {
			if !l.config.NoCopy {
				b = append([]byte(nil), b...)
			}
			l.recording = append(l.recording, b)
			return b, nil
		}
		if err != io.EOF {
			return nil, err
		}
		if err := l.freeze(); err != nil {
			return nil, err
		}
	}

	if len(l.recording) == 0 {
		return nil, io.EOF
	}

	b := l.recording[l.pos]
	l.pos++
	if l.pos == len(l.recording) {
		l.pos = 0
		l.passes++
	}
	return b, nil
}

func (l *Looper) freeze() error {
	if l.recording.Len() == 0 && l.config.WhenEmpty != WhenEmptyIgnore {
		return ErrEmptyLoop
	}
	l.frozen = true
	l.passes = 1
	l.src = nil
	if l.config.OnFrozen != nil {
		l.config.OnFrozen(l.recording)
	}
	return nil
}
