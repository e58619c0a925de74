// SPDX-License-Identifier: MIT
package recorder

import (
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"playbacque/internal/transport"
	"playbacque/pkg/utils"

	"github.com/go-audio/wav"
)

func TestWAVSinkRoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "out.wav")
	s, err := Create(path)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	pcmData := utils.GenerateSineWave(4800, 48000, 440, 0.5)
	for i := 0; i < len(pcmData); i += 1000 {
		if err := s.Send(pcmData[i:min(i+1000, len(pcmData))]); err != nil {
			t.Fatalf("Send() error = %v", err)
		}
	}
	if got := s.Written(); got != int64(len(pcmData)) {
		t.Errorf("Written() = %d, want %d", got, len(pcmData))
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("failed to open recording: %v", err)
	}
	defer f.Close()

	d := wav.NewDecoder(f)
	if !d.IsValidFile() {
		t.Fatal("recording is not a valid WAV file")
	}
	buf, err := d.FullPCMBuffer()
	if err != nil {
		t.Fatalf("FullPCMBuffer() error = %v", err)
	}

	if d.SampleRate != 48000 || d.NumChans != 2 || d.BitDepth != 16 {
		t.Errorf("format = %d Hz, %d channels, %d bit; want 48000 Hz, 2 channels, 16 bit",
			d.SampleRate, d.NumChans, d.BitDepth)
	}
	if len(buf.Data) != len(pcmData)/2 {
		t.Fatalf("decoded %d samples, want %d", len(buf.Data), len(pcmData)/2)
	}
	for i, v := range buf.Data {
		want := int(int16(binary.LittleEndian.Uint16(pcmData[i*2:])))
		if v != want {
			t.Fatalf("sample %d = %d, want %d", i, v, want)
		}
	}
}

func TestWAVSinkClosed(t *testing.T) {
	t.Parallel()

	s, err := Create(filepath.Join(t.TempDir(), "closed.wav"))
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
	if err := s.Send([]byte{1, 2, 3, 4}); !errors.Is(err, transport.ErrClosed) {
		t.Errorf("Send() after Close = %v, want transport.ErrClosed", err)
	}
}

func TestCreateBadPath(t *testing.T) {
	t.Parallel()

	if _, err := Create(filepath.Join(t.TempDir(), "missing", "out.wav")); err == nil {
		t.Error("expected error creating file in a missing directory")
	}
}
