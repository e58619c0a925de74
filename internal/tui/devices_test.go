// SPDX-License-Identifier: MIT
package tui

import (
	"errors"
	"strings"
	"testing"

	"playbacque/internal/audio"

	tea "github.com/charmbracelet/bubbletea"
)

var testDevices = []audio.Device{
	{ID: 1, Name: "Speakers", MaxOutputChannels: 2, DefaultSampleRate: 48000},
	{ID: 3, Name: "Interface", MaxOutputChannels: 8, DefaultSampleRate: 96000, DefaultOutput: true},
	{ID: 4, Name: "HDMI", MaxOutputChannels: 2, DefaultSampleRate: 48000},
}

func newTestModel(t *testing.T) DeviceListModel {
	t.Helper()

	m := NewDeviceListModel(func() ([]audio.Device, error) { return testDevices, nil })
	m = update(t, m, m.Init()())
	return update(t, m, tea.WindowSizeMsg{Width: 80, Height: 40})
}

func update(t *testing.T, m DeviceListModel, msg tea.Msg) DeviceListModel {
	t.Helper()
	next, _ := m.Update(msg)
	return next.(DeviceListModel)
}

func keyMsg(k tea.KeyType) tea.KeyMsg {
	return tea.KeyMsg{Type: k}
}

func runeMsg(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func TestPickerStartsOnDefault(t *testing.T) {
	t.Parallel()

	m := newTestModel(t)
	if m.selectedIndex != 1 {
		t.Errorf("selectedIndex = %d, want the default output at 1", m.selectedIndex)
	}
	if view := m.View(); !strings.Contains(view, "*[3] Interface") {
		t.Errorf("default device not marked in view:\n%s", view)
	}
}

func TestPickerSelect(t *testing.T) {
	t.Parallel()

	m := newTestModel(t)
	m = update(t, m, keyMsg(tea.KeyDown))
	m = update(t, m, runeMsg('j')) // Already at the bottom.
	m = update(t, m, keyMsg(tea.KeyEnter))

	if m.activeScreen != ConfirmScreen {
		t.Fatalf("activeScreen = %d, want ConfirmScreen", m.activeScreen)
	}
	if view := m.View(); !strings.Contains(view, "Play on: HDMI") {
		t.Errorf("confirm screen missing device name:\n%s", view)
	}

	m = update(t, m, keyMsg(tea.KeyDown)) // Toggle low latency.
	next, cmd := m.Update(keyMsg(tea.KeyEnter))
	m = next.(DeviceListModel)
	if cmd == nil {
		t.Fatal("expected quit command after choosing")
	}

	sel, ok := m.Selection()
	if !ok {
		t.Fatal("Selection() reported no choice")
	}
	if sel != (Selection{DeviceID: 4, LowLatency: true}) {
		t.Errorf("Selection() = %+v, want device 4 with low latency", sel)
	}
}

func TestPickerBackAndCancel(t *testing.T) {
	t.Parallel()

	m := newTestModel(t)
	m = update(t, m, keyMsg(tea.KeyUp))
	m = update(t, m, keyMsg(tea.KeyEnter))
	m = update(t, m, keyMsg(tea.KeyEsc))
	if m.activeScreen != ListScreen || m.selectedIndex != 0 {
		t.Errorf("after esc: screen %d, index %d; want list screen at 0", m.activeScreen, m.selectedIndex)
	}

	m = update(t, m, runeMsg('q'))
	if _, ok := m.Selection(); ok {
		t.Error("Selection() reported a choice after quitting")
	}
}

func TestPickerFetchError(t *testing.T) {
	t.Parallel()

	m := NewDeviceListModel(func() ([]audio.Device, error) { return nil, errors.New("no host") })
	m = update(t, m, m.Init()())
	if m.err == nil || m.err.Error() != "no host" {
		t.Errorf("err = %v, want no host", m.err)
	}
}

func TestPickerNoDevices(t *testing.T) {
	t.Parallel()

	m := NewDeviceListModel(func() ([]audio.Device, error) { return nil, nil })
	m = update(t, m, m.Init()())
	m = update(t, m, tea.WindowSizeMsg{Width: 80, Height: 20})
	m = update(t, m, keyMsg(tea.KeyEnter))

	if m.activeScreen != ListScreen {
		t.Error("enter with no devices should stay on the list")
	}
	if !strings.Contains(m.View(), "No output devices found.") {
		t.Errorf("unexpected view:\n%s", m.View())
	}
}
