// SPDX-License-Identifier: MIT
/*
Package playback drives the pipeline end to end: it pulls buffers from the
decoder stream and pushes them into a sink until something stops it.

Termination:
- ErrInterrupted: the context was cancelled. This is the normal way out.
- ErrSinkClosed: the consumer of the sink went away (a closed stdout pipe).
- ErrDecoderExhausted: the endless stream ended, so the decoder most likely
  failed and has printed why on stderr.
- nil: a configured playing time limit was reached.
*/
package playback

import (
	"context"
	"errors"
	"fmt"
	"io"

	"playbacque/internal/decoder"
	applog "playbacque/internal/log"
	"playbacque/internal/pcm"
	"playbacque/internal/stream"
	"playbacque/internal/transport"
)

var (
	// ErrInterrupted reports a user requested stop.
	ErrInterrupted = errors.New("playback: interrupted")

	// ErrSinkClosed reports that the output went away mid-stream.
	ErrSinkClosed = transport.ErrClosed

	// ErrDecoderExhausted reports that the decoder stopped producing audio
	// without being asked to.
	ErrDecoderExhausted = errors.New("playback: decoder output ended unexpectedly")
)

// Driver copies a stream into a sink.
type Driver struct {
	src   stream.Stream
	sink  transport.Sink
	limit int64 // Bytes, zero for no limit

	written int64
}

// NewDriver returns a driver writing src to sink. A positive limit stops
// playback, successfully, after that many bytes.
func NewDriver(src stream.Stream, sink transport.Sink, limit int64) *Driver {
	return &Driver{src: src, sink: sink, limit: limit}
}

// Written returns the number of bytes delivered to the sink.
func (d *Driver) Written() int64 {
	return d.written
}

// Run pulls buffers until the stream ends, the sink fails, the limit is
// reached or ctx is cancelled. The sink is closed before Run returns. If the
// sink needs fixed-size writes, the stream is chunked to its size first.
func (d *Driver) Run(ctx context.Context) (err error) {
	defer func() {
		if cerr := d.sink.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close output: %w", cerr)
		}
	}()

	src := d.src
	framed := false
	if f, ok := d.sink.(transport.Framed); ok {
		src = stream.Chunk(src, f.ChunkSize())
		framed = true
		applog.Debugf("Playback: Writing %d byte chunks", f.ChunkSize())
	}

	for {
		if ctx.Err() != nil {
			return ErrInterrupted
		}

		buf, err := src.Next()
		if err != nil {
			if ctx.Err() != nil {
				return ErrInterrupted
			}
			if err == io.EOF {
				return ErrDecoderExhausted
			}
			return err
		}

		if d.limit > 0 {
			if remain := d.limit - d.written; int64(len(buf)) > remain {
				buf = buf[:remain]
			}
		}
		if len(buf) == 0 && framed {
			continue // Empty remainder, nothing to write
		}

		if err := d.sink.Send(buf); err != nil {
			if ctx.Err() != nil {
				return ErrInterrupted
			}
			if errors.Is(err, ErrSinkClosed) {
				return err
			}
			return fmt.Errorf("failed to write output: %w", err)
		}
		d.written += int64(len(buf))

		if d.limit > 0 && d.written >= d.limit {
			applog.Infof("Playback: Played %s, stopping", pcm.Duration(d.written))
			return nil
		}
	}
}

// Player ties a decoder to a sink.
type Player struct {
	Launcher decoder.Launcher
	Decode   decoder.Options
	Sink     transport.Sink
	Limit    int64
}

// Run starts the decoder and plays it into the sink until stopped. The
// decoder is always stopped and the sink always closed on return.
func (p *Player) Run(ctx context.Context) error {
	d, err := decoder.Open(ctx, p.Launcher, p.Decode)
	if err != nil {
		p.Sink.Close()
		return err
	}
	defer func() {
		if err := d.Close(); err != nil {
			applog.Debugf("Playback: %v", err)
		}
	}()

	return NewDriver(d, p.Sink, p.Limit).Run(ctx)
}

// ExitCode maps the result of a run to a process exit status. Interruption,
// a closed output and a completed time limit are successful; a decoder that
// ran out and every other error are not.
func ExitCode(err error) int {
	switch {
	case err == nil,
		errors.Is(err, ErrInterrupted),
		errors.Is(err, ErrSinkClosed):
		return 0
	default:
		return 1
	}
}
