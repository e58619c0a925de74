// SPDX-License-Identifier: MIT
package transport

import (
	"time"

	"playbacque/internal/pcm"
)

// PacedSink slows a sink down to real time. Network and null sinks accept
// data as fast as it is produced, which would make an in-memory loop spin
// flat out.
type PacedSink struct {
	Sink
	start time.Time
	sent  int64
	now   func() time.Time
	sleep func(time.Duration)
}

// Paced wraps s so that Send never runs ahead of the playing time of the
// audio sent so far. Framed sinks stay framed.
func Paced(s Sink) Sink {
	p := &PacedSink{Sink: s, now: time.Now, sleep: time.Sleep}
	if f, ok := s.(Framed); ok {
		return &pacedFramed{PacedSink: p, size: f.ChunkSize()}
	}
	return p
}

// Send waits until the stream position catches up with the wall clock, then
// forwards p.
func (p *PacedSink) Send(b []byte) error {
	if p.start.IsZero() {
		p.start = p.now()
	}
	if ahead := pcm.Duration(p.sent) - p.now().Sub(p.start); ahead > 0 {
		p.sleep(ahead)
	}
	p.sent += int64(len(b))
	return p.Sink.Send(b)
}

type pacedFramed struct {
	*PacedSink
	size int
}

func (p *pacedFramed) ChunkSize() int {
	return p.size
}
