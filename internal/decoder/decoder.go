// SPDX-License-Identifier: MIT
/*
Package decoder turns a media source into an endless stream of PCM buffers
by running ffmpeg.

Looping strategies:
- Native: ffmpeg re-reads a seekable input forever (-stream_loop -1) and its
  output is streamed straight through.
- Buffered: ffmpeg decodes the input once and the output is recorded by a
  stream.Looper, which replays it from memory. Required for standard input.
*/
package decoder

import (
	"context"
	"errors"
	"io"

	"playbacque/internal/level"
	applog "playbacque/internal/log"
	"playbacque/internal/pcm"
	"playbacque/internal/stream"
)

// DefaultReadSize is the largest buffer read from the decoder per pull.
const DefaultReadSize = 1024 * pcm.FrameSize

// Options configures Open.
type Options struct {
	Source    string     // File path, PipeSource or StdinAlias
	Buffer    BufferMode // Looping strategy
	InputArgs []any      // Extra ffmpeg input arguments, stringified
	ReadSize  int        // Bytes per read, DefaultReadSize when zero

	// WhenEmpty is handed to the loop buffer. Only meaningful when buffered.
	WhenEmpty stream.WhenEmpty
}

// Decoder is a running decoder exposed as an endless stream.Stream. The
// stream only ends if the decoder fails or is stopped.
type Decoder struct {
	stream.Stream

	proc     io.ReadCloser
	buffered bool
	looper   *stream.Looper
}

// Open starts the decoder through l and returns its output stream.
func Open(ctx context.Context, l Launcher, opts Options) (*Decoder, error) {
	buffered := ResolveBuffer(opts.Source, opts.Buffer)
	args := Args(opts.Source, buffered, opts.InputArgs)

	applog.Debugf("Decoder: source=%q buffer=%s resolved=%v args=%q",
		opts.Source, opts.Buffer, buffered, args)

	proc, err := l.Launch(ctx, args)
	if err != nil {
		var le *LaunchError
		if !errors.As(err, &le) {
			err = &LaunchError{Err: err}
		}
		return nil, err
	}

	size := opts.ReadSize
	if size <= 0 {
		size = DefaultReadSize
	}

	d := &Decoder{
		Stream:   stream.FromReader(proc, size),
		proc:     proc,
		buffered: buffered,
	}

	if buffered {
		// The reader reuses its buffer, so the recording must copy.
		d.looper = stream.Loop(d.Stream, stream.LoopConfig{
			WhenEmpty: opts.WhenEmpty,
			OnFrozen:  d.frozen,
		})
		d.Stream = d.looper
		applog.Info("Decoder: Buffering input in memory for looping")
	} else {
		applog.Info("Decoder: Using native decoder looping")
	}

	return d, nil
}

// Buffered reports whether the audio is looped from memory.
func (d *Decoder) Buffered() bool {
	return d.buffered
}

// Looper returns the loop buffer, or nil when the decoder loops natively.
func (d *Decoder) Looper() *stream.Looper {
	return d.looper
}

// Close stops the decoder process.
func (d *Decoder) Close() error {
	return d.proc.Close()
}

// frozen runs once the whole input has been recorded. The decoder has done
// its job at that point, so it is reaped early.
func (d *Decoder) frozen(rec stream.Recording) {
	if applog.Enabled(applog.LevelInfo) {
		n := int64(rec.Len())
		applog.Infof("Decoder: Recorded %s of audio (%d bytes, %s), replaying from memory",
			pcm.Duration(n), n, level.Measure(rec...))
	}
	if err := d.proc.Close(); err != nil {
		applog.Warnf("Decoder: %v", err)
	}
}
