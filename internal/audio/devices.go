// SPDX-License-Identifier: MIT
package audio

import (
	"fmt"
	"io"
	"time"

	"github.com/gordonklaus/portaudio"
)

// DefaultDevice selects the system default output device.
const DefaultDevice = -1

// Hooks over PortAudio device discovery, replaced in tests.
var (
	paDevicesFunc     = portaudio.Devices
	defaultOutputFunc = portaudio.DefaultOutputDevice
)

// Initialize sets up the PortAudio subsystem.
// This must be called before any device operations and paired with a Terminate() call.
func Initialize() error {
	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("failed to initialize PortAudio: %w", err)
	}
	return nil
}

// Terminate cleanly shuts down the PortAudio subsystem.
// This should be deferred immediately after Initialize().
func Terminate() error {
	if err := portaudio.Terminate(); err != nil {
		return fmt.Errorf("failed to terminate PortAudio: %w", err)
	}
	return nil
}

// OutputDevice retrieves the audio output device for the given device ID.
// If deviceID is DefaultDevice (-1), returns the system default output device.
// Returns an error if the device ID is invalid or the device cannot play
// stereo audio.
func OutputDevice(deviceID int) (*portaudio.DeviceInfo, error) {
	if deviceID == DefaultDevice {
		device, err := defaultOutputFunc()
		if err != nil {
			return nil, fmt.Errorf("no default output device: %w", err)
		}
		return device, nil
	}

	devices, err := paDevicesFunc()
	if err != nil {
		return nil, err
	}

	if deviceID < 0 || deviceID >= len(devices) {
		return nil, fmt.Errorf("invalid device ID: %d", deviceID)
	}
	device := devices[deviceID]
	if device.MaxOutputChannels < 2 {
		return nil, fmt.Errorf("device %d (%s) has %d output channels, need 2",
			deviceID, device.Name, device.MaxOutputChannels)
	}
	return device, nil
}

// ListDevices writes information about all available audio devices to w.
// For each device, it shows:
// - Device ID and name, with the default output marked by '*'
// - Device type (Input/Output/Input+Output)
// - Channel counts
// - Default sample rate and output latency range
func ListDevices(w io.Writer) error {
	devices, err := paDevicesFunc()
	if err != nil {
		return err
	}
	def, _ := defaultOutputFunc()

	for i, device := range devices {
		inputChannels := device.MaxInputChannels
		outputChannels := device.MaxOutputChannels

		deviceType := ""
		if inputChannels > 0 && outputChannels > 0 {
			deviceType = "Input/Output"
		} else if inputChannels > 0 {
			deviceType = "Input"
		} else if outputChannels > 0 {
			deviceType = "Output"
		}

		marker := " "
		if def != nil && device == def {
			marker = "*"
		}

		fmt.Fprintf(w, "%s[%d] %s (%s)\n", marker, i, device.Name, deviceType)
		fmt.Fprintf(w, "    Input channels: %d, Output channels: %d\n", inputChannels, outputChannels)
		fmt.Fprintf(w, "    Default sample rate: %.0f Hz\n", device.DefaultSampleRate)
		fmt.Fprintf(w, "    Output latency: Low=%.2fms, High=%.2fms\n",
			ms(device.DefaultLowOutputLatency), ms(device.DefaultHighOutputLatency))
	}

	return nil
}

func ms(d time.Duration) float64 {
	return d.Seconds() * 1000
}
