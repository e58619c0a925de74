// SPDX-License-Identifier: MIT
package utils

import (
	"encoding/binary"
	"errors"
	"math"
	"testing"

	"playbacque/internal/transport"
)

const (
	testFrames     = 1024
	testSampleRate = 48000
	testFrequency  = 440.0 // A4 note
)

func TestMockSink(t *testing.T) {
	tests := []struct {
		name      string
		inputData []byte
	}{
		{"Empty Data", []byte{}},
		{"Single Value", []byte{0x05}},
		{"Multiple Values", []byte{1, 2, 3, 4, 5}},
		{"Large Dataset", make([]byte, 4096)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &MockSink{}

			if err := m.Send(tt.inputData); err != nil {
				t.Errorf("MockSink.Send() error = %v", err)
			}

			if got := m.Bytes(); len(got) != len(tt.inputData) {
				t.Errorf("MockSink.Send() stored length = %d, want %d", len(got), len(tt.inputData))
			}

			if len(tt.inputData) > 0 {
				original := tt.inputData[0]
				tt.inputData[0] = 0xff // Modify original.

				if m.Sent[0][0] == 0xff {
					t.Errorf("MockSink.Send() stored reference instead of copy")
				}

				tt.inputData[0] = original
			}
		})
	}
}

func TestMockSinkFailAfter(t *testing.T) {
	m := &MockSink{FailAfter: 4}

	if err := m.Send([]byte("abcd")); err != nil {
		t.Fatalf("first Send() error = %v", err)
	}
	if err := m.Send([]byte("e")); !errors.Is(err, transport.ErrClosed) {
		t.Errorf("expected transport.ErrClosed, got %v", err)
	}

	custom := errors.New("custom")
	m = &MockSink{FailAfter: 1, Err: custom}
	_ = m.Send([]byte("a"))
	if err := m.Send([]byte("b")); !errors.Is(err, custom) {
		t.Errorf("expected custom error, got %v", err)
	}
}

func TestGenerateSineWave(t *testing.T) {
	buf := GenerateSineWave(testFrames, testSampleRate, testFrequency, 1)

	if len(buf) != testFrames*4 {
		t.Fatalf("GenerateSineWave() length = %d, want %d", len(buf), testFrames*4)
	}

	for i := 0; i < len(buf); i += 4 {
		l := binary.LittleEndian.Uint16(buf[i:])
		r := binary.LittleEndian.Uint16(buf[i+2:])
		if l != r {
			t.Fatalf("frame %d: channels differ (%d != %d)", i/4, l, r)
		}
	}

	// The quarter period sample is the positive peak.
	quarter := int(math.Floor(testSampleRate / testFrequency / 4))
	s := int16(binary.LittleEndian.Uint16(buf[quarter*4:]))
	if float64(s) < math.MaxInt16*0.95 {
		t.Errorf("sample near quarter period = %d, expected close to full scale", s)
	}
}

func TestGenerateComplexWave(t *testing.T) {
	buf := GenerateComplexWave(testFrames, testSampleRate)

	if len(buf) != testFrames*4 {
		t.Fatalf("GenerateComplexWave() length = %d, want %d", len(buf), testFrames*4)
	}

	var peak int16
	for i := 0; i < len(buf); i += 4 {
		s := int16(binary.LittleEndian.Uint16(buf[i:]))
		if s < 0 {
			s = -s
		}
		peak = max(peak, s)
	}
	if peak == 0 {
		t.Error("GenerateComplexWave() produced silence")
	}
}
