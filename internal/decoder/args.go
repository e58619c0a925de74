// SPDX-License-Identifier: MIT
package decoder

import (
	"fmt"

	"playbacque/internal/pcm"
)

const (
	// PipeSource tells ffmpeg to read its input from standard input.
	PipeSource = "pipe:"
	// StdinAlias is accepted wherever PipeSource is.
	StdinAlias = "-"
)

// BufferMode selects how looping is done.
type BufferMode int

const (
	// BufferAuto buffers exactly when the source is standard input.
	BufferAuto BufferMode = iota
	// BufferOn decodes once and replays the decoded audio from memory.
	BufferOn
	// BufferOff asks ffmpeg to loop the input itself with -stream_loop -1.
	BufferOff
)

func (m BufferMode) String() string {
	switch m {
	case BufferAuto:
		return "auto"
	case BufferOn:
		return "on"
	case BufferOff:
		return "off"
	default:
		return "unknown"
	}
}

// NormalizeSource maps StdinAlias to PipeSource and returns every other
// source unchanged.
func NormalizeSource(source string) string {
	if source == StdinAlias {
		return PipeSource
	}
	return source
}

// ResolveBuffer decides whether the decoded audio must be buffered in memory.
// Only a seekable input can be looped by ffmpeg, so standard input is
// buffered unless the caller says otherwise.
func ResolveBuffer(source string, mode BufferMode) bool {
	switch mode {
	case BufferOn:
		return true
	case BufferOff:
		return false
	default:
		return NormalizeSource(source) == PipeSource
	}
}

// Args builds the ffmpeg command line. inputArgs go first, followed by the
// native loop flag when not buffering, the input, and the fixed PCM output
// format written to stdout.
func Args(source string, buffered bool, inputArgs []any) []string {
	args := make([]any, 0, len(inputArgs)+16)
	args = append(args, inputArgs...)
	if !buffered {
		args = append(args, "-stream_loop", -1) // -1 loops forever
	}
	args = append(args, "-i", NormalizeSource(source))
	args = append(args, pcm.Args()...)
	args = append(args,
		"pipe:",
		"-loglevel", "error",
		"-nostdin",
	)

	out := make([]string, len(args))
	for i, a := range args {
		out[i] = fmt.Sprint(a)
	}
	return out
}
