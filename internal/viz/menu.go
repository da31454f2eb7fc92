package viz

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

// MenuItem is one launchable entry of the picker.
type MenuItem struct {
	Scenario    string
	Preset      string
	Description string
}

func (i MenuItem) Title() string {
	if i.Preset == "" {
		return i.Scenario
	}
	return i.Scenario + "/" + i.Preset
}

// Launcher builds the engine for a picked item.
type Launcher func(MenuItem) (Engine, error)

const (
	stateMenu = iota
	stateLive
)

// Menu lists scenarios and switches to a live view on selection.
type Menu struct {
	state  int
	cursor int
	items  []MenuItem
	launch Launcher
	live   Model
	err    error
	size   *tea.WindowSizeMsg
}

func NewMenu(items []MenuItem, launch Launcher) Menu {
	return Menu{items: items, launch: launch}
}

func (m Menu) Init() tea.Cmd { return nil }

func (m Menu) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if ws, ok := msg.(tea.WindowSizeMsg); ok {
		m.size = &ws
	}
	if m.state == stateLive {
		next, cmd := m.live.Update(msg)
		m.live = next.(Model)
		return m, cmd
	}

	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.String() {
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
		if len(m.items) == 0 {
			return m, nil
		}
		item := m.items[m.cursor]
		engine, err := m.launch(item)
		if err != nil {
			m.err = err
			return m, nil
		}
		m.err = nil
		m.live = NewModel(engine, item.Title())
		if m.size != nil {
			next, _ := m.live.Update(*m.size)
			m.live = next.(Model)
		}
		m.state = stateLive
		return m, m.live.Init()
	}
	return m, nil
}

func (m Menu) View() string {
	if m.state == stateLive {
		return m.live.View()
	}

	var b strings.Builder
	b.WriteString("\n\n    " + titleStyle.Foreground(CurrentTheme.Primary).Render("NBODYSIM") + "\n")
	b.WriteString("    " + subtleStyle.Render("gravitational n-body engine") + "\n")
	b.WriteString("    " + Separator(27) + "\n\n")

	for i, item := range m.items {
		name := fmt.Sprintf("%-24s", item.Title())
		if i == m.cursor {
			b.WriteString("    " + selectedStyle.Foreground(CurrentTheme.Primary).Render("▸ "+name) + " " + subtleStyle.Render(item.Description) + "\n")
		} else {
			b.WriteString("      " + subtleStyle.Render(name) + "\n")
		}
	}
	if m.err != nil {
		b.WriteString("\n    " + selectedStyle.Foreground(CurrentTheme.Error).Render(m.err.Error()) + "\n")
	}
	b.WriteString("\n    " + KeyHints("j/k", "navigate", "enter", "start", "q", "quit") + "\n")
	return b.String()
}

// Run starts a full-screen Bubble Tea program for m.
func Run(m tea.Model) error {
	_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}
