// SPDX-License-Identifier: MIT
//
// Package pcm describes the single raw audio format that flows through the
// pipeline: 48000 Hz, stereo, signed 16-bit little endian.
package pcm

import (
	"encoding/binary"
	"time"
)

const (
	SampleRate     = 48000
	Channels       = 2
	BytesPerSample = 2
	FrameSize      = Channels * BytesPerSample // Bytes per frame (one sample per channel)
	Format         = "s16le"                   // ffmpeg name of the sample format
)

// Args returns the ffmpeg format flags selecting the PCM profile. They are
// used as output options for decoding and as input options for raw PCM files.
func Args() []any {
	return []any{"-f", Format, "-ar", SampleRate, "-ac", Channels}
}

// BytesFor returns the number of bytes holding d worth of audio, rounded down
// to a whole frame. Whole seconds and the remainder are scaled separately so
// the result stays exact for any duration.
func BytesFor(d time.Duration) int64 {
	secs, rem := int64(d/time.Second), int64(d%time.Second)
	frames := secs*SampleRate + rem*SampleRate/int64(time.Second)
	return frames * FrameSize
}

// Duration returns the playing time of n bytes of audio, split the same way
// as BytesFor so it does not overflow on long runs.
func Duration(n int64) time.Duration {
	frames := n / FrameSize
	secs, rem := frames/SampleRate, frames%SampleRate
	return time.Duration(secs)*time.Second + time.Duration(rem)*time.Second/SampleRate
}

// ToInt16 decodes little endian samples from src into dst and returns the
// number of samples written. A trailing odd byte is ignored.
func ToInt16(dst []int16, src []byte) int {
	n := min(len(dst), len(src)/BytesPerSample)
	for i := range n {
		dst[i] = int16(binary.LittleEndian.Uint16(src[i*2:]))
	}
	return n
}

// ToFloat64 decodes little endian samples from src into dst, scaled to
// [-1, 1), and returns the number of samples written.
func ToFloat64(dst []float64, src []byte) int {
	n := min(len(dst), len(src)/BytesPerSample)
	for i := range n {
		dst[i] = float64(int16(binary.LittleEndian.Uint16(src[i*2:]))) / 32768
	}
	return n
}
