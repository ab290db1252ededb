package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/ogbrand/pkg/geometry"
)

// Grid styles
var (
	cellSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan).Border(lipgloss.RoundedBorder()).BorderForeground(colorCyan)
	cellNormalStyle   = lipgloss.NewStyle().Foreground(colorGray).Border(lipgloss.RoundedBorder()).BorderForeground(colorDim)
	gridDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

// cellWidth fits the longest keyword.
const cellWidth = 14

// =============================================================================
// PositionPicker - Interactive placement keyword selection
// =============================================================================

// PositionPicker is the bubbletea model for picking one of the nine
// placement keywords on a 3x3 grid.
type PositionPicker struct {
	Row, Col int
	// Selected is set when the user confirmed a cell.
	Selected geometry.Position
}

// NewPositionPicker creates a picker with the cursor on initial. An
// invalid keyword starts at the center.
func NewPositionPicker(initial geometry.Position) PositionPicker {
	row, col := initial.Cell()
	if row < 0 {
		row, col = 1, 1
	}
	return PositionPicker{Row: row, Col: col}
}

// Current returns the keyword under the cursor.
func (m PositionPicker) Current() geometry.Position {
	return geometry.PositionAt(m.Row, m.Col)
}

func (m PositionPicker) Init() tea.Cmd {
	return nil
}

func (m PositionPicker) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.String() {
	case "q", "ctrl+c", "esc":
		return m, tea.Quit
	case "up", "k":
		m.Row = max(0, m.Row-1)
	case "down", "j":
		m.Row = min(2, m.Row+1)
	case "left", "h":
		m.Col = max(0, m.Col-1)
	case "right", "l":
		m.Col = min(2, m.Col+1)
	case "enter", " ":
		m.Selected = m.Current()
		return m, tea.Quit
	}
	return m, nil
}

func (m PositionPicker) View() string {
	var b strings.Builder
	b.WriteString(StyleTitle.Render("Select Position"))
	b.WriteString("\n")
	b.WriteString(gridDimStyle.Render("←/↑/↓/→ move  ⏎ select  q quit"))
	b.WriteString("\n\n")
	b.WriteString(renderGrid(m.Current()))
	b.WriteString("\n")
	b.WriteString(gridDimStyle.Render(fmt.Sprintf("  %s", m.Current())))
	b.WriteString("\n")
	return b.String()
}

// renderGrid draws the 3x3 keyword grid with selected highlighted.
func renderGrid(selected geometry.Position) string {
	rows := make([]string, 3)
	for r := range 3 {
		cells := make([]string, 3)
		for c := range 3 {
			p := geometry.PositionAt(r, c)
			style := cellNormalStyle
			if p == selected {
				style = cellSelectedStyle
			}
			cells[c] = style.Width(cellWidth).Align(lipgloss.Center).Render(string(p))
		}
		rows[r] = lipgloss.JoinHorizontal(lipgloss.Top, cells...)
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

// printGrid prints the grid with p highlighted.
func printGrid(p geometry.Position) {
	fmt.Fprintln(stdout, renderGrid(p))
}
