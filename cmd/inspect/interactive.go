package main

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))

	paneStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#444444"))
)

const (
	listRows    = 12
	headerLines = 4
	bytesPerRow = 16
)

type interactiveModel struct {
	err      error
	rep      *report
	opts     options
	view     viewport.Model
	selected int
	ready    bool
}

func newInteractiveModel(opts options) *interactiveModel {
	return &interactiveModel{opts: opts}
}

type inspectedMsg struct {
	err error
	rep *report
}

func runInteractive(opts options) error {
	_, err := tea.NewProgram(newInteractiveModel(opts), tea.WithAltScreen()).Run()
	return err
}

func (m *interactiveModel) Init() tea.Cmd {
	return m.load
}

func (m *interactiveModel) load() tea.Msg {
	rep, err := inspect(m.opts, zap.NewNop())
	return inspectedMsg{err: err, rep: rep}
}

func (m *interactiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "up", "k":
			if m.selected > 0 {
				m.selected--
				m.follow()
			}
			return m, nil
		case "down", "j":
			if m.rep != nil && m.selected < m.rep.image.Offsets.Len()-1 {
				m.selected++
				m.follow()
			}
			return m, nil
		}

	case tea.WindowSizeMsg:
		height := max(msg.Height-headerLines-listRows-4, 3)
		if !m.ready {
			m.view = viewport.New(msg.Width-2, height)
			m.ready = true
			m.fill()
		} else {
			m.view.Width = msg.Width - 2
			m.view.Height = height
		}

	case inspectedMsg:
		m.err = msg.err
		m.rep = msg.rep
		m.fill()
		return m, nil
	}

	var cmd tea.Cmd
	m.view, cmd = m.view.Update(msg)
	return m, cmd
}

func (m *interactiveModel) fill() {
	if !m.ready || m.rep == nil {
		return
	}
	m.view.SetContent(hex.Dump(m.rep.image.Data))
	m.follow()
}

// follow scrolls the dump to the selected offset field.
func (m *interactiveModel) follow() {
	if !m.ready || m.rep == nil || m.rep.image.Offsets.Len() == 0 {
		return
	}
	pos := m.rep.image.Offsets.Positions()[m.selected]
	m.view.SetYOffset(int(pos / bytesPerRow))
}

func (m *interactiveModel) View() string {
	if m.err != nil {
		return errorStyle.Render(fmt.Sprintf("Error: %v\n\nPress q to quit.", m.err))
	}
	if m.rep == nil || !m.ready {
		return "Loading..."
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("Asset Inspector"))
	b.WriteString(" ")
	b.WriteString(m.opts.file)
	b.WriteString("\n")
	b.WriteString(infoStyle.Render(fmt.Sprintf("%s • %s mode • %d live offsets • %d → %d bytes, %s",
		m.rep.format.Name(), m.rep.mode, m.rep.live, m.rep.input, len(m.rep.image.Data), orderName(m.rep.image.BigEndian))))
	b.WriteString("\n\n")

	b.WriteString(m.offsetList())
	b.WriteString("\n")
	b.WriteString(paneStyle.Render(m.view.View()))
	b.WriteString("\n")
	b.WriteString(helpStyle.Render("↑/↓ select offset • pgup/pgdn scroll • q quit"))
	return b.String()
}

func (m *interactiveModel) offsetList() string {
	positions := m.rep.image.Offsets.Positions()
	if len(positions) == 0 {
		return helpStyle.Render("no offset fields") + "\n"
	}
	start := max(0, min(m.selected-listRows/2, len(positions)-listRows))
	end := min(len(positions), start+listRows)

	var b strings.Builder
	for i := start; i < end; i++ {
		line := fmt.Sprintf("  field 0x%06x  row %d", positions[i], positions[i]/bytesPerRow)
		if i == m.selected {
			b.WriteString(selectedStyle.Render("> " + line[2:]))
		} else {
			b.WriteString(line)
		}
		b.WriteString("\n")
	}
	return b.String()
}
