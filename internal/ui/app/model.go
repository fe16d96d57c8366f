package app

import (
	"context"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"hostblock/internal/modules/session/dto"
	"hostblock/internal/ui/theme"
	statusview "hostblock/internal/ui/views/status"
)

const refreshInterval = time.Second

// StatusPort is the minimal session surface the watch view needs.
type StatusPort interface {
	Status(ctx context.Context) (dto.StatusOutput, error)
}

type tickMsg time.Time

type statusMsg struct {
	status dto.StatusOutput
	err    error
}

// Model is the root Bubble Tea model: a live status board refreshing once a
// second. All business logic stays behind the port.
type Model struct {
	port    StatusPort
	status  dto.StatusOutput
	loaded  bool
	lastErr error
	width   int
	height  int
}

func NewModel(port StatusPort) Model {
	return Model{port: port}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.fetchCmd(), tickCmd())
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tickMsg:
		return m, tea.Batch(m.fetchCmd(), tickCmd())

	case statusMsg:
		if msg.err != nil {
			m.lastErr = msg.err
		} else {
			m.status = msg.status
			m.loaded = true
			m.lastErr = nil
		}

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m Model) View() string {
	header := m.renderHeader()
	footer := m.renderFooter()

	var content string
	switch {
	case !m.loaded && m.lastErr != nil:
		content = theme.Warn.Render("status unavailable: " + m.lastErr.Error())
	case !m.loaded:
		content = theme.Muted.Render("loading…")
	default:
		content = statusview.Render(m.status, m.width)
	}
	return lipgloss.JoinVertical(lipgloss.Left, header, content, footer)
}

func (m Model) renderHeader() string {
	left := theme.Title.Render("hostblock")
	clock := ""
	if m.loaded {
		clock = theme.Muted.Render(m.status.Now.Format("15:04:05"))
	}
	gap := m.width - lipgloss.Width(left) - lipgloss.Width(clock)
	if gap < 1 {
		gap = 1
	}
	bar := left + strings.Repeat(" ", gap) + clock
	return lipgloss.NewStyle().Background(theme.Mantle).Width(m.width).Render(bar) + "\n"
}

func (m Model) renderFooter() string {
	left := ""
	if m.lastErr != nil && m.loaded {
		left = theme.Warn.Render("refresh failed: " + m.lastErr.Error())
	}
	right := theme.Muted.Render("q:quit")
	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	bar := left + strings.Repeat(" ", gap) + right
	return "\n" + lipgloss.NewStyle().Background(theme.Mantle).Width(m.width).Render(bar)
}

func tickCmd() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m Model) fetchCmd() tea.Cmd {
	return func() tea.Msg {
		status, err := m.port.Status(context.Background())
		return statusMsg{status: status, err: err}
	}
}
