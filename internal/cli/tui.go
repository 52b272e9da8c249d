package cli

import (
	"fmt"
	"slices"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/astra/pkg/family"
)

// List styles
var (
	listDimStyle = lipgloss.NewStyle().Foreground(colorDim)
)

// =============================================================================
// PersonListModel - Interactive individual selection
// =============================================================================

// personItem is one selectable row.
type personItem struct {
	Key   string
	Born  string
	Place string
}

// PersonListModel is the bubbletea model for picking one individual of a
// family graph.
type PersonListModel struct {
	Title  string
	Items  []personItem
	Cursor int
	Height int
	Offset int

	// Optional allows leaving the list without a selection via "s".
	Optional bool

	Selected string
	Skipped  bool
}

// NewPersonListModel lists keys (in the given order) with their birth data
// from fg and places the cursor on initial.
func NewPersonListModel(title string, fg *family.Graph, keys []string, initial string) PersonListModel {
	items := make([]personItem, len(keys))
	for i, k := range keys {
		p := fg.People[k]
		items[i] = personItem{Key: k, Born: p.BirthDate, Place: p.BirthPlace}
	}
	m := PersonListModel{Title: title, Items: items, Height: 15}
	if i := slices.Index(keys, initial); i >= 0 {
		m.Cursor = i
		m.scroll()
	}
	return m
}

func (m PersonListModel) Init() tea.Cmd {
	return nil
}

func (m PersonListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "s":
			if m.Optional {
				m.Skipped = true
				return m, tea.Quit
			}
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
			}
		case "down", "j":
			if m.Cursor < len(m.Items)-1 {
				m.Cursor++
			}
		case "home", "g":
			m.Cursor = 0
		case "end", "G":
			m.Cursor = max(len(m.Items)-1, 0)
		case "enter":
			if len(m.Items) == 0 {
				return m, nil
			}
			m.Selected = m.Items[m.Cursor].Key
			return m, tea.Quit
		}
		m.scroll()
	case tea.WindowSizeMsg:
		m.Height = max(msg.Height-7, 5)
		m.scroll()
	}
	return m, nil
}

// scroll keeps the cursor inside the visible window.
func (m *PersonListModel) scroll() {
	if m.Cursor < m.Offset {
		m.Offset = m.Cursor
	}
	if m.Cursor >= m.Offset+m.Height {
		m.Offset = m.Cursor - m.Height + 1
	}
}

func (m PersonListModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render(m.Title))
	b.WriteString("\n")
	help := "↑/↓ navigate  ⏎ select  q quit"
	if m.Optional {
		help = "↑/↓ navigate  ⏎ select  s skip  q quit"
	}
	b.WriteString(listDimStyle.Render(help))
	b.WriteString("\n\n")

	end := min(m.Offset+m.Height, len(m.Items))

	rows := [][]string{}
	for i := m.Offset; i < end; i++ {
		it := m.Items[i]
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		rows = append(rows, []string{cursor, it.Key, it.Born, it.Place})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "Individual", "Born", "Place").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			base := lipgloss.NewStyle()
			if m.Offset+row == m.Cursor {
				return base.Foreground(colorGreen).Bold(true)
			}
			if col >= 2 {
				return base.Foreground(colorDim)
			}
			return base.Foreground(colorWhite)
		})

	b.WriteString(t.Render())
	b.WriteString("\n\n")
	if len(m.Items) > 0 {
		b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(m.Items))))
	}

	return b.String()
}
