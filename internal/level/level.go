// SPDX-License-Identifier: MIT
//
// Package level measures the loudness of PCM audio. It is used to describe a
// recording in the logs once the loop buffer has captured it, which makes an
// accidentally silent capture (wrong input format, muted source) obvious.
package level

import (
	"fmt"
	"math"

	"playbacque/internal/pcm"

	"gonum.org/v1/gonum/floats"
)

// Silence is the dBFS value reported for digital silence.
var Silence = math.Inf(-1)

// Level holds peak and RMS amplitude, both normalised to [0, 1].
type Level struct {
	Peak float64
	RMS  float64
}

// PeakDB returns the peak level in dBFS.
func (l Level) PeakDB() float64 {
	return toDB(l.Peak)
}

// RMSDB returns the RMS level in dBFS.
func (l Level) RMSDB() float64 {
	return toDB(l.RMS)
}

func (l Level) String() string {
	return fmt.Sprintf("peak %.1f dBFS, rms %.1f dBFS", l.PeakDB(), l.RMSDB())
}

func toDB(v float64) float64 {
	if v <= 0 {
		return Silence
	}
	return 20 * math.Log10(v)
}

// Meter accumulates a running level over many buffers. The zero value is
// ready to use.
type Meter struct {
	peak    float64
	sumSq   float64
	samples int
	scratch []float64
}

// Write adds s16le PCM bytes to the measurement. It never fails.
func (m *Meter) Write(p []byte) (int, error) {
	n := len(p) / pcm.BytesPerSample
	if n == 0 {
		return len(p), nil
	}
	if cap(m.scratch) < n {
		m.scratch = make([]float64, n)
	}
	x := m.scratch[:n]
	pcm.ToFloat64(x, p)

	m.peak = math.Max(m.peak, math.Max(floats.Max(x), -floats.Min(x)))
	m.sumSq += floats.Dot(x, x)
	m.samples += n
	return len(p), nil
}

// Level returns the level of everything written so far.
func (m *Meter) Level() Level {
	if m.samples == 0 {
		return Level{}
	}
	return Level{
		Peak: m.peak,
		RMS:  math.Sqrt(m.sumSq / float64(m.samples)),
	}
}

// Measure returns the level of the given buffers taken together.
func Measure(bufs ...[]byte) Level {
	var m Meter
	for _, b := range bufs {
		m.Write(b)
	}
	return m.Level()
}
