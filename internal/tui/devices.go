// SPDX-License-Identifier: MIT
//
// Package tui provides the interactive output device picker.
package tui

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"playbacque/internal/audio"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFDF5")).
			Background(lipgloss.Color("#25A065")).
			Padding(0, 1).
			Bold(true)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFDF5"))

	highlightStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#25A065")).
			Bold(true)
)

// ErrCancelled is returned by ChooseDevice when the user quits without
// choosing.
var ErrCancelled = errors.New("device selection cancelled")

var (
	quitKeys   = key.NewBinding(key.WithKeys("q", "ctrl+c"))
	upKeys     = key.NewBinding(key.WithKeys("up", "k"))
	downKeys   = key.NewBinding(key.WithKeys("down", "j"))
	selectKeys = key.NewBinding(key.WithKeys("enter"))
	backKeys   = key.NewBinding(key.WithKeys("esc"))
)

// ScreenType defines which screen is currently active
type ScreenType int

const (
	ListScreen ScreenType = iota
	ConfirmScreen
)

// Selection is the result of the picker.
type Selection struct {
	DeviceID   int
	LowLatency bool
}

// DeviceListModel represents the Bubble Tea model for choosing an output
// device.
type DeviceListModel struct {
	fetch         func() ([]audio.Device, error)
	devices       []audio.Device
	selectedIndex int
	viewport      viewport.Model
	ready         bool
	err           error
	activeScreen  ScreenType

	lowLatency bool
	chosen     bool
}

type devicesMsg struct {
	devices []audio.Device
}

type errMsg struct {
	err error
}

// Init initializes the Bubble Tea model
func (m DeviceListModel) Init() tea.Cmd {
	return func() tea.Msg {
		devices, err := m.fetch()
		if err != nil {
			return errMsg{err}
		}
		return devicesMsg{devices}
	}
}

func (m DeviceListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		if !m.ready {
			m.viewport = viewport.New(msg.Width, msg.Height-4)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = msg.Height - 4
		}
		m.refresh()

	case devicesMsg:
		m.devices = msg.devices
		// Start on the system default output.
		for i, d := range m.devices {
			if d.DefaultOutput {
				m.selectedIndex = i
			}
		}
		m.refresh()

	case errMsg:
		m.err = msg.err
		return m, tea.Quit

	case tea.KeyMsg:
		if key.Matches(msg, quitKeys) {
			return m, tea.Quit
		}

		switch m.activeScreen {
		case ListScreen:
			switch {
			case key.Matches(msg, upKeys):
				if m.selectedIndex > 0 {
					m.selectedIndex--
				}
			case key.Matches(msg, downKeys):
				if m.selectedIndex < len(m.devices)-1 {
					m.selectedIndex++
				}
			case key.Matches(msg, selectKeys):
				if len(m.devices) > 0 {
					m.activeScreen = ConfirmScreen
				}
			}

		case ConfirmScreen:
			switch {
			case key.Matches(msg, backKeys):
				m.activeScreen = ListScreen
			case key.Matches(msg, upKeys), key.Matches(msg, downKeys):
				m.lowLatency = !m.lowLatency
			case key.Matches(msg, selectKeys):
				m.chosen = true
				return m, tea.Quit
			}
		}
		m.refresh()
	}

	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m *DeviceListModel) refresh() {
	if !m.ready {
		return
	}
	if m.activeScreen == ConfirmScreen {
		m.viewport.SetContent(m.renderConfirm())
	} else {
		m.viewport.SetContent(m.renderDevices())
	}
}

// View renders the UI
func (m DeviceListModel) View() string {
	if !m.ready {
		return "Initializing..."
	}

	if m.err != nil {
		return fmt.Sprintf("Error: %v\n", m.err)
	}

	var title, help string

	if m.activeScreen == ListScreen {
		title = titleStyle.Render("Output Devices")
		help = infoStyle.Render("↑/↓: Navigate • Enter: Choose • q: Quit")
	} else {
		title = titleStyle.Render("Output Settings")
		help = infoStyle.Render("↑/↓: Change Latency • Enter: Play • Esc: Back • q: Quit")
	}

	return fmt.Sprintf("%s\n\n%s\n\n%s", title, m.viewport.View(), help)
}

// renderDevices formats the device list
func (m DeviceListModel) renderDevices() string {
	var sb strings.Builder

	if len(m.devices) == 0 {
		return "No output devices found."
	}

	for i, device := range m.devices {
		marker := " "
		if device.DefaultOutput {
			marker = "*"
		}

		deviceInfo := fmt.Sprintf("%s[%d] %s\n", marker, device.ID, device.Name)
		if device.HostAPI != "" {
			deviceInfo += fmt.Sprintf("    Host API: %s\n", device.HostAPI)
		}
		deviceInfo += fmt.Sprintf("    Output channels: %d, Default sample rate: %.0f Hz\n",
			device.MaxOutputChannels, device.DefaultSampleRate)

		if i == m.selectedIndex {
			deviceInfo = highlightStyle.Render(deviceInfo)
		}

		sb.WriteString(deviceInfo)
		sb.WriteString("\n")
	}

	return sb.String()
}

// renderConfirm formats the settings screen for the chosen device
func (m DeviceListModel) renderConfirm() string {
	var sb strings.Builder
	device := m.devices[m.selectedIndex]

	fmt.Fprintf(&sb, "Play on: %s\n\n", device.Name)
	sb.WriteString("Latency:\n")

	for _, low := range []bool{false, true} {
		name := "High (stable)"
		if low {
			name = "Low"
		}
		line := fmt.Sprintf("    %s\n", name)
		if low == m.lowLatency {
			line = highlightStyle.Render(fmt.Sprintf("  ▶ %s\n", name))
		}
		sb.WriteString(line)
	}

	return sb.String()
}

// Selection returns the chosen device, or false if none was chosen.
func (m DeviceListModel) Selection() (Selection, bool) {
	if !m.chosen || len(m.devices) == 0 {
		return Selection{}, false
	}
	return Selection{
		DeviceID:   m.devices[m.selectedIndex].ID,
		LowLatency: m.lowLatency,
	}, true
}

// NewDeviceListModel creates a picker over the devices returned by fetch.
func NewDeviceListModel(fetch func() ([]audio.Device, error)) DeviceListModel {
	return DeviceListModel{
		fetch:        fetch,
		activeScreen: ListScreen,
	}
}

// ChooseDevice runs the picker over the PortAudio output devices. The UI is
// drawn on stderr so it never mixes with PCM on stdout. Initialize must have
// been called.
func ChooseDevice() (Selection, error) {
	p := tea.NewProgram(
		NewDeviceListModel(audio.OutputDevices),
		tea.WithAltScreen(),
		tea.WithOutput(os.Stderr),
	)
	final, err := p.Run()
	if err != nil {
		return Selection{}, err
	}

	m := final.(DeviceListModel)
	if m.err != nil {
		return Selection{}, m.err
	}
	sel, ok := m.Selection()
	if !ok {
		return Selection{}, ErrCancelled
	}
	return sel, nil
}
