// SPDX-License-Identifier: MIT
package audio

import (
	"fmt"
	"io"

	applog "playbacque/internal/log"
	"playbacque/internal/pcm"
	"playbacque/internal/transport"

	"github.com/ebitengine/oto/v3"
)

// OtoSink plays the stream on the default output device through oto. A
// persistent player reads from a pipe, so Send blocks while oto's buffer is
// full, which paces the pipeline at real time.
type OtoSink struct {
	otoCtx     *oto.Context
	player     *oto.Player
	pipeReader *io.PipeReader
	pipeWriter *io.PipeWriter
}

// OpenOtoSink creates the oto context and starts playback. oto allows one
// context per process, so only one OtoSink can ever be opened.
func OpenOtoSink() (*OtoSink, error) {
	op := &oto.NewContextOptions{
		SampleRate:   pcm.SampleRate,
		ChannelCount: pcm.Channels,
		Format:       oto.FormatSignedInt16LE,
	}

	ctx, ready, err := oto.NewContext(op)
	if err != nil {
		return nil, fmt.Errorf("failed to create oto context: %w", err)
	}
	<-ready

	s := &OtoSink{otoCtx: ctx}
	s.pipeReader, s.pipeWriter = io.Pipe()
	s.player = ctx.NewPlayer(s.pipeReader)
	s.player.Play()

	applog.Infof("OtoSink: Playing on default device (%d Hz, %d channels)", pcm.SampleRate, pcm.Channels)
	return s, nil
}

// Send hands p to the player, blocking until it has been consumed.
func (s *OtoSink) Send(p []byte) error {
	if _, err := s.pipeWriter.Write(p); err != nil {
		return fmt.Errorf("oto pipe write failed: %w", err)
	}
	return nil
}

// Close stops the player and suspends the context.
func (s *OtoSink) Close() error {
	s.pipeWriter.Close()
	if err := s.player.Close(); err != nil {
		applog.Debugf("OtoSink: closing player: %v", err)
	}
	s.pipeReader.Close()
	return s.otoCtx.Suspend()
}

var _ transport.Sink = (*OtoSink)(nil)
