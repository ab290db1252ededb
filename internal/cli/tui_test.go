package cli

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/matzehuels/ogbrand/pkg/geometry"
)

func press(m PositionPicker, keys ...tea.KeyMsg) (PositionPicker, tea.Cmd) {
	var cmd tea.Cmd
	for _, k := range keys {
		var next tea.Model
		next, cmd = m.Update(k)
		m = next.(PositionPicker)
	}
	return m, cmd
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestNewPositionPicker(t *testing.T) {
	tests := []struct {
		initial geometry.Position
		want    geometry.Position
	}{
		{geometry.TopLeft, geometry.TopLeft},
		{geometry.BottomRight, geometry.BottomRight},
		{"middle", geometry.Center},
		{"", geometry.Center},
	}
	for _, tt := range tests {
		if got := NewPositionPicker(tt.initial).Current(); got != tt.want {
			t.Errorf("NewPositionPicker(%q).Current() = %q, want %q", tt.initial, got, tt.want)
		}
	}
}

func TestPositionPickerMoves(t *testing.T) {
	tests := []struct {
		name string
		keys []tea.KeyMsg
		want geometry.Position
	}{
		{"right", []tea.KeyMsg{{Type: tea.KeyRight}}, geometry.Right},
		{"up left", []tea.KeyMsg{{Type: tea.KeyUp}, {Type: tea.KeyLeft}}, geometry.TopLeft},
		{"vim keys", []tea.KeyMsg{runes("j"), runes("l")}, geometry.BottomRight},
		{"clamped", []tea.KeyMsg{{Type: tea.KeyDown}, {Type: tea.KeyDown}, {Type: tea.KeyDown}}, geometry.Bottom},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, cmd := press(NewPositionPicker(geometry.Center), tt.keys...)
			if got := m.Current(); got != tt.want {
				t.Errorf("Current() = %q, want %q", got, tt.want)
			}
			if cmd != nil {
				t.Error("moving the cursor should not quit")
			}
			if m.Selected != "" {
				t.Errorf("Selected = %q before confirming", m.Selected)
			}
		})
	}
}

func TestPositionPickerSelect(t *testing.T) {
	m, cmd := press(NewPositionPicker(geometry.Center), tea.KeyMsg{Type: tea.KeyLeft}, tea.KeyMsg{Type: tea.KeyEnter})
	if m.Selected != geometry.Left {
		t.Errorf("Selected = %q, want %q", m.Selected, geometry.Left)
	}
	if cmd == nil {
		t.Error("enter should quit")
	}

	m, cmd = press(NewPositionPicker(geometry.Center), runes("q"))
	if m.Selected != "" {
		t.Errorf("Selected = %q after quitting, want empty", m.Selected)
	}
	if cmd == nil {
		t.Error("q should quit")
	}
}

func TestPositionPickerView(t *testing.T) {
	view := NewPositionPicker(geometry.TopRight).View()
	for _, p := range geometry.Positions {
		if !strings.Contains(view, string(p)) {
			t.Errorf("View() missing %q", p)
		}
	}
}
