// SPDX-License-Identifier: MIT
package playback

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"testing"

	"playbacque/internal/decoder"
	"playbacque/internal/stream"
	"playbacque/internal/transport"
	"playbacque/pkg/utils"
)

func slicesOf(ss ...string) stream.Stream {
	bufs := make([][]byte, len(ss))
	for i, s := range ss {
		bufs[i] = []byte(s)
	}
	return stream.FromSlices(bufs...)
}

func sentStrings(m *utils.MockSink) []string {
	out := make([]string, len(m.Sent))
	for i, b := range m.Sent {
		out[i] = string(b)
	}
	return out
}

func TestDriverDecoderExhausted(t *testing.T) {
	t.Parallel()

	sink := &utils.MockSink{}
	err := NewDriver(slicesOf("ab", "cd"), sink, 0).Run(context.Background())

	if !errors.Is(err, ErrDecoderExhausted) {
		t.Errorf("Run() = %v, want ErrDecoderExhausted", err)
	}
	if string(sink.Bytes()) != "abcd" {
		t.Errorf("sink received %q, want %q", sink.Bytes(), "abcd")
	}
	if !sink.Closed {
		t.Error("sink was not closed")
	}
	if ExitCode(err) != 1 {
		t.Errorf("ExitCode() = %d, want 1", ExitCode(err))
	}
}

func TestDriverChunksForFramedSinks(t *testing.T) {
	t.Parallel()

	sink := &utils.FramedMockSink{MockSink: utils.MockSink{Chunk: 3}}
	err := NewDriver(slicesOf("abcd", "efghi"), sink, 0).Run(context.Background())

	if !errors.Is(err, ErrDecoderExhausted) {
		t.Errorf("Run() = %v, want ErrDecoderExhausted", err)
	}
	want := []string{"abc", "def", "ghi"} // Empty remainder is not written
	if got := sentStrings(&sink.MockSink); !slices.Equal(got, want) {
		t.Errorf("sink received %q, want %q", got, want)
	}
}

func TestDriverShortFramedRemainder(t *testing.T) {
	t.Parallel()

	sink := &utils.FramedMockSink{MockSink: utils.MockSink{Chunk: 4}}
	_ = NewDriver(slicesOf("abcdef"), sink, 0).Run(context.Background())

	want := []string{"abcd", "ef"}
	if got := sentStrings(&sink.MockSink); !slices.Equal(got, want) {
		t.Errorf("sink received %q, want %q", got, want)
	}
}

func TestDriverLimit(t *testing.T) {
	t.Parallel()

	sink := &utils.MockSink{}
	looped := stream.Loop(slicesOf("xy", "z"), stream.LoopConfig{})
	d := NewDriver(looped, sink, 7)

	if err := d.Run(context.Background()); err != nil {
		t.Fatalf("Run() = %v, want nil at the limit", err)
	}
	if string(sink.Bytes()) != "xyzxyzx" {
		t.Errorf("sink received %q, want %q", sink.Bytes(), "xyzxyzx")
	}
	if d.Written() != 7 {
		t.Errorf("Written() = %d, want 7", d.Written())
	}
}

func TestDriverSinkClosed(t *testing.T) {
	t.Parallel()

	sink := &utils.MockSink{FailAfter: 10}
	looped := stream.Loop(slicesOf("abc"), stream.LoopConfig{})
	err := NewDriver(looped, sink, 0).Run(context.Background())

	if !errors.Is(err, ErrSinkClosed) {
		t.Fatalf("Run() = %v, want ErrSinkClosed", err)
	}
	if ExitCode(err) != 0 {
		t.Errorf("ExitCode() = %d, want 0 for a closed output", ExitCode(err))
	}
	if !sink.Closed {
		t.Error("sink was not closed")
	}
}

func TestDriverBrokenPipe(t *testing.T) {
	t.Parallel()

	r, w := io.Pipe()
	r.Close()

	looped := stream.Loop(slicesOf("abc"), stream.LoopConfig{})
	err := NewDriver(looped, transport.NewWriterSink(w), 0).Run(context.Background())
	if !errors.Is(err, ErrSinkClosed) {
		t.Errorf("Run() = %v, want ErrSinkClosed", err)
	}
}

func TestDriverSinkError(t *testing.T) {
	t.Parallel()

	boom := errors.New("device unplugged")
	sink := &utils.MockSink{FailAfter: 1, Err: boom}
	looped := stream.Loop(slicesOf("abc"), stream.LoopConfig{})
	err := NewDriver(looped, sink, 0).Run(context.Background())

	if !errors.Is(err, boom) {
		t.Fatalf("Run() = %v, want wrapped sink error", err)
	}
	if errors.Is(err, ErrSinkClosed) {
		t.Error("a device error must not look like a closed output")
	}
	if ExitCode(err) != 1 {
		t.Errorf("ExitCode() = %d, want 1", ExitCode(err))
	}
}

// cancelSink cancels the run after a number of sends.
type cancelSink struct {
	utils.MockSink
	after  int
	cancel context.CancelFunc
}

func (s *cancelSink) Send(p []byte) error {
	if err := s.MockSink.Send(p); err != nil {
		return err
	}
	if len(s.Sent) == s.after {
		s.cancel()
	}
	return nil
}

func TestDriverInterrupted(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sink := &cancelSink{after: 5, cancel: cancel}
	looped := stream.Loop(slicesOf("ab"), stream.LoopConfig{})
	err := NewDriver(looped, sink, 0).Run(ctx)

	if !errors.Is(err, ErrInterrupted) {
		t.Fatalf("Run() = %v, want ErrInterrupted", err)
	}
	if len(sink.Sent) != 5 {
		t.Errorf("sink received %d buffers, want 5", len(sink.Sent))
	}
	if ExitCode(err) != 0 {
		t.Errorf("ExitCode() = %d, want 0", ExitCode(err))
	}
}

func TestDriverInterruptedBeforeStart(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sink := &utils.MockSink{}
	err := NewDriver(slicesOf("ab"), sink, 0).Run(ctx)
	if !errors.Is(err, ErrInterrupted) {
		t.Errorf("Run() = %v, want ErrInterrupted", err)
	}
	if len(sink.Sent) != 0 {
		t.Errorf("nothing should be written after cancellation, got %q", sink.Bytes())
	}
}

func TestDriverEmptyLoop(t *testing.T) {
	t.Parallel()

	looped := stream.Loop(slicesOf("", ""), stream.LoopConfig{})
	err := NewDriver(looped, &utils.MockSink{}, 0).Run(context.Background())
	if !errors.Is(err, stream.ErrEmptyLoop) {
		t.Errorf("Run() = %v, want ErrEmptyLoop", err)
	}
	if ExitCode(err) != 1 {
		t.Errorf("ExitCode() = %d, want 1", ExitCode(err))
	}
}

func TestExitCode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err  error
		want int
	}{
		{nil, 0},
		{ErrInterrupted, 0},
		{fmt.Errorf("%w: broken pipe", ErrSinkClosed), 0},
		{ErrDecoderExhausted, 1},
		{&decoder.LaunchError{Path: "ffmpeg", Err: errors.New("not found")}, 1},
		{stream.ErrEmptyLoop, 1},
	}

	for _, tt := range tests {
		if got := ExitCode(tt.err); got != tt.want {
			t.Errorf("ExitCode(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

type fakeLauncher struct {
	data []byte
	err  error
	args []string
}

func (l *fakeLauncher) Launch(ctx context.Context, args []string) (io.ReadCloser, error) {
	l.args = args
	if l.err != nil {
		return nil, l.err
	}
	return io.NopCloser(bytes.NewReader(l.data)), nil
}

func TestPlayerPipeSourceLoopsFromMemory(t *testing.T) {
	t.Parallel()

	l := &fakeLauncher{data: []byte("0123")}
	sink := &utils.MockSink{}
	p := &Player{
		Launcher: l,
		Decode:   decoder.Options{Source: "-"},
		Sink:     sink,
		Limit:    10,
	}

	if err := p.Run(context.Background()); err != nil {
		t.Fatalf("Run() = %v, want nil", err)
	}
	if string(sink.Bytes()) != "0123012301" {
		t.Errorf("sink received %q, want %q", sink.Bytes(), "0123012301")
	}
	if slices.Contains(l.args, "-stream_loop") {
		t.Errorf("pipe source should not use native looping: %q", l.args)
	}
}

func TestPlayerFileSourceLoopsNatively(t *testing.T) {
	t.Parallel()

	l := &fakeLauncher{data: []byte("0123")}
	sink := &utils.MockSink{}
	p := &Player{
		Launcher: l,
		Decode:   decoder.Options{Source: "track.flac"},
		Sink:     sink,
	}

	// The fake decoder stops after one pass; with native looping nothing
	// replays it, so the run ends as if ffmpeg had died.
	err := p.Run(context.Background())
	if !errors.Is(err, ErrDecoderExhausted) {
		t.Fatalf("Run() = %v, want ErrDecoderExhausted", err)
	}
	if string(sink.Bytes()) != "0123" {
		t.Errorf("sink received %q, want %q", sink.Bytes(), "0123")
	}
	if !slices.Contains(l.args, "-stream_loop") {
		t.Errorf("file source should use native looping: %q", l.args)
	}
}

func TestPlayerLaunchFailure(t *testing.T) {
	t.Parallel()

	sink := &utils.MockSink{}
	p := &Player{
		Launcher: &fakeLauncher{err: errors.New("exec: not found")},
		Decode:   decoder.Options{Source: "a.mp3"},
		Sink:     sink,
	}

	err := p.Run(context.Background())
	var le *decoder.LaunchError
	if !errors.As(err, &le) {
		t.Fatalf("Run() = %v, want *decoder.LaunchError", err)
	}
	if !sink.Closed {
		t.Error("sink should be closed when the decoder cannot start")
	}
}
