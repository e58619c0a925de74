// SPDX-License-Identifier: MIT
package audio

// Device represents an audio device
type Device struct {
	ID                int
	Name              string
	HostAPI           string
	MaxInputChannels  int
	MaxOutputChannels int
	DefaultSampleRate float64
	DefaultOutput     bool // System default output device
}

// CanPlay reports whether the device has enough output channels for the
// stereo stream.
func (d Device) CanPlay() bool {
	return d.MaxOutputChannels >= 2
}

// HostDevices returns all devices known to PortAudio, indexed by the IDs
// accepted by OutputDevice. Initialize must have been called.
func HostDevices() ([]Device, error) {
	paDeviceInfos, err := paDevicesFunc()
	if err != nil {
		return nil, err
	}

	// Failing to find a default output is not an error, many headless
	// machines have none.
	def, _ := defaultOutputFunc()

	devices := make([]Device, len(paDeviceInfos))
	for i, info := range paDeviceInfos {
		devices[i] = Device{
			ID:                i,
			Name:              info.Name,
			MaxInputChannels:  info.MaxInputChannels,
			MaxOutputChannels: info.MaxOutputChannels,
			DefaultSampleRate: info.DefaultSampleRate,
			DefaultOutput:     def != nil && info == def,
		}
		if info.HostApi != nil {
			devices[i].HostAPI = info.HostApi.Name
		}
	}

	return devices, nil
}

// OutputDevices returns the devices able to play the stream.
func OutputDevices() ([]Device, error) {
	all, err := HostDevices()
	if err != nil {
		return nil, err
	}
	var out []Device
	for _, d := range all {
		if d.CanPlay() {
			out = append(out, d)
		}
	}
	return out, nil
}
