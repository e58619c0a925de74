// SPDX-License-Identifier: MIT
//
// Package output opens the sink selected on the command line.
package output

import (
	"fmt"
	"io"

	"playbacque/internal/audio"
	"playbacque/internal/config"
	applog "playbacque/internal/log"
	"playbacque/internal/recorder"
	"playbacque/internal/transport"
	"playbacque/internal/transport/udp"
)

// Open returns the sink for opts.Output. stdout receives raw PCM for
// config.OutputStdout. Network and null sinks are paced at real time.
func Open(opts *config.Options, cfg *config.File, stdout io.Writer) (transport.Sink, error) {
	switch opts.Output {
	case config.OutputStdout:
		return transport.NewWriterSink(stdout), nil

	case config.OutputWAV:
		if opts.Duration == 0 {
			applog.Warn("Output: Recording a loop without --duration never ends, stop it with Ctrl-C")
		}
		s, err := recorder.Create(opts.WAVPath)
		if err != nil {
			return nil, err
		}
		return s, nil

	case config.OutputWebSocket:
		s, err := transport.NewWebSocketSink(address(opts.Address, cfg.Transport.WebSocketAddr))
		if err != nil {
			return nil, err
		}
		return transport.Paced(s), nil

	case config.OutputUDP:
		s, err := udp.NewUDPSender(address(opts.Address, cfg.Transport.UDPTarget), cfg.Transport.UDPPacketSize)
		if err != nil {
			return nil, err
		}
		return transport.Paced(s), nil

	case config.OutputNull:
		return transport.Paced(transport.NewNullSink()), nil

	case config.OutputDevice:
		return openDevice(opts.DeviceID, cfg.Output)

	default:
		return nil, fmt.Errorf("unknown output mode: %s", opts.Output)
	}
}

func address(flag, fallback string) string {
	if flag != "" {
		return flag
	}
	return fallback
}

func openDevice(deviceID int, cfg config.OutputConfig) (transport.Sink, error) {
	if cfg.Backend == config.BackendOto {
		if deviceID != audio.DefaultDevice {
			return nil, fmt.Errorf("the %s backend only plays on the default device", config.BackendOto)
		}
		s, err := audio.OpenOtoSink()
		if err != nil {
			return nil, err
		}
		return s, nil
	}

	if err := audio.Initialize(); err != nil {
		return nil, err
	}
	s, err := audio.OpenDeviceSink(deviceID, cfg.FramesPerBuffer, cfg.LowLatency)
	if err != nil {
		audio.Terminate()
		return nil, err
	}
	return &terminating{DeviceSink: s}, nil
}

// terminating shuts PortAudio down once the device sink is closed.
type terminating struct {
	*audio.DeviceSink
}

func (t *terminating) Close() error {
	err := t.DeviceSink.Close()
	if terr := audio.Terminate(); err == nil {
		err = terr
	}
	return err
}
