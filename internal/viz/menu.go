package viz

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	menuTitle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#00cccc")).Bold(true)
	menuSub      = lipgloss.NewStyle().Foreground(lipgloss.Color("#666688"))
	menuCursor   = lipgloss.NewStyle().Foreground(lipgloss.Color("#00ffff")).Bold(true)
	menuActive   = lipgloss.NewStyle().Foreground(lipgloss.Color("#ffffff")).Bold(true)
	menuDesc     = lipgloss.NewStyle().Foreground(lipgloss.Color("#ff88ff"))
	menuInactive = lipgloss.NewStyle().Foreground(lipgloss.Color("#555566"))
	menuKey      = lipgloss.NewStyle().Foreground(lipgloss.Color("#00aaaa")).Bold(true)
	menuError    = lipgloss.NewStyle().Foreground(lipgloss.Color("#ff4444"))
)

// MenuItem is one starting universe offered by the menu.
type MenuItem struct {
	Name        string
	Description string
}

// StartFunc builds the viewer for the chosen item.
type StartFunc func(name string) (Model, error)

// Menu lets the user pick a starting universe and then hands over to the
// live viewer.
type Menu struct {
	items   []MenuItem
	start   StartFunc
	cursor  int
	started bool
	live    Model
	err     error

	width, height int
}

func NewMenu(items []MenuItem, start StartFunc) *Menu {
	return &Menu{items: items, start: start, width: defaultWidth, height: defaultHeight}
}

func (m *Menu) Init() tea.Cmd { return nil }

func (m *Menu) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.started {
		live, cmd := m.live.Update(msg)
		m.live = live.(Model)
		return m, cmd
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(m.items)-1 {
				m.cursor++
			}
		case "enter", " ":
			return m, m.choose()
		}
	}
	return m, nil
}

func (m *Menu) choose() tea.Cmd {
	if len(m.items) == 0 {
		return nil
	}
	live, err := m.start(m.items[m.cursor].Name)
	if err != nil {
		m.err = err
		return nil
	}
	m.live, m.started, m.err = live, true, nil
	m.live.resize(m.width, m.height)
	return m.live.Init()
}

func (m *Menu) View() string {
	if m.started {
		return m.live.View()
	}

	var b strings.Builder
	b.WriteString("\n\n    " + menuTitle.Render("PLANETS") + "\n    " + menuSub.Render("n-body gravity sandbox") + "\n    " + menuSub.Render("─────────────────────────") + "\n\n")
	for i, item := range m.items {
		if i == m.cursor {
			fmt.Fprintf(&b, "    %s %s  %s\n", menuCursor.Render("▸"), menuActive.Render(fmt.Sprintf("%-10s", item.Name)), menuDesc.Render(item.Description))
		} else {
			fmt.Fprintf(&b, "      %s  %s\n", menuInactive.Render(fmt.Sprintf("%-10s", item.Name)), menuSub.Render(item.Description))
		}
	}
	if m.err != nil {
		b.WriteString("\n    " + menuError.Render(m.err.Error()) + "\n")
	}
	b.WriteString("\n    " + menuKey.Render("j/k") + menuSub.Render(" navigate  ") + menuKey.Render("enter") + menuSub.Render(" start  ") + menuKey.Render("q") + menuSub.Render(" quit") + "\n")
	return b.String()
}
