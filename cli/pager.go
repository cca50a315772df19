package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			PaddingLeft(2)

	frameStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			PaddingLeft(2).
			PaddingRight(2)
)

// pagerModel shows a rendered report and jumps between issues or search
// hits line by line.
type pagerModel struct {
	viewport viewport.Model
	lines    []string
	ready    bool

	issues []int
	search textinput.Model
	typing bool
	hits   []int
}

func newPager(content string) *pagerModel {
	ti := textinput.New()
	ti.Prompt = "/"
	ti.PromptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))

	lines := strings.Split(content, "\n")
	return &pagerModel{
		lines: lines,
		issues: linesMatching(lines, func(l string) bool {
			return strings.Contains(l, errorMark) || strings.Contains(l, warningMark)
		}),
		search: ti,
	}
}

func linesMatching(lines []string, match func(string) bool) []int {
	var idx []int
	for i, l := range lines {
		if match(l) {
			idx = append(idx, i)
		}
	}
	return idx
}

func (m *pagerModel) Init() tea.Cmd {
	return nil
}

func (m *pagerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.typing {
			return m.updateSearch(msg)
		}
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "j", "down":
			m.viewport.ScrollDown(1)
		case "k", "up":
			m.viewport.ScrollUp(1)
		case "f", "pagedown", " ":
			m.viewport.ScrollDown(m.viewport.Height)
		case "b", "pageup":
			m.viewport.ScrollUp(m.viewport.Height)
		case "g", "home":
			m.viewport.GotoTop()
		case "G", "end":
			m.viewport.GotoBottom()
		case "e":
			m.jump(m.issues, true)
		case "E":
			m.jump(m.issues, false)
		case "n":
			m.jump(m.hits, true)
		case "N":
			m.jump(m.hits, false)
		case "/":
			m.typing = true
			m.search.Focus()
			return m, textinput.Blink
		}
		return m, nil

	case tea.WindowSizeMsg:
		if !m.ready {
			m.viewport = viewport.New(msg.Width, msg.Height-2)
			m.viewport.Style = frameStyle
			m.viewport.SetContent(strings.Join(m.lines, "\n"))
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = msg.Height - 2
		}
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m *pagerModel) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEscape:
		m.typing = false
		m.search.Reset()
		m.hits = nil
	case tea.KeyEnter:
		m.typing = false
		q := strings.ToLower(m.search.Value())
		m.hits = nil
		if q != "" {
			m.hits = linesMatching(m.lines, func(l string) bool {
				return strings.Contains(strings.ToLower(l), q)
			})
			m.jump(m.hits, true)
		}
	default:
		var cmd tea.Cmd
		m.search, cmd = m.search.Update(msg)
		return m, cmd
	}
	return m, nil
}

// jump scrolls to the next (or previous) line in targets relative to the
// top of the viewport, wrapping around.
func (m *pagerModel) jump(targets []int, forward bool) {
	if len(targets) == 0 {
		return
	}
	top := m.viewport.YOffset
	next := -1
	if forward {
		for _, t := range targets {
			if t > top {
				next = t
				break
			}
		}
		if next < 0 {
			next = targets[0]
		}
	} else {
		for i := len(targets) - 1; i >= 0; i-- {
			if targets[i] < top {
				next = targets[i]
				break
			}
		}
		if next < 0 {
			next = targets[len(targets)-1]
		}
	}
	m.viewport.SetYOffset(next)
}

func (m *pagerModel) View() string {
	if !m.ready {
		return "\nInitializing..."
	}
	if m.typing {
		return m.viewport.View() + "\n" + m.search.View()
	}
	help := fmt.Sprintf("↑/k ↓/j scroll • g/G top/bottom • e/E next/prev issue (%d) • / search", len(m.issues))
	if len(m.hits) > 0 {
		help += fmt.Sprintf(" • n/N next/prev hit (%d)", len(m.hits))
	}
	return m.viewport.View() + "\n" + helpStyle.Render(help+" • q quit")
}

// RunPager starts the pager program with the given content
func RunPager(content string) error {
	p := tea.NewProgram(
		newPager(content),
		tea.WithAltScreen(),
	)

	_, err := p.Run()
	return err
}
