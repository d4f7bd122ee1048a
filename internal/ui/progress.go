package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"fixall/internal/fixall"
)

// maxVisibleItems limits the item list; the rest is summarized in one line.
const maxVisibleItems = 12

type progressModel struct {
	title      string
	events     <-chan fixall.Event
	spinner    spinner.Model
	prog       progress.Model
	items      []item
	index      map[string]int
	stage      fixall.Stage
	stageLabel string
	failed     bool
	width      int
	done       bool
}

type item struct {
	name   string
	status string
	stage  fixall.Stage
	state  fixall.ItemState
}

type eventMsg fixall.Event
type doneMsg struct{}

// NewProgressModel returns a Bubble Tea model that renders fix-all progress.
// The model quits once events is closed.
func NewProgressModel(title string, events <-chan fixall.Event) tea.Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))

	prog := progress.New(progress.WithDefaultGradient())
	prog.Width = 76 // Default width

	return &progressModel{
		title:   title,
		events:  events,
		spinner: sp,
		prog:    prog,
		index:   make(map[string]int),
		width:   80,
	}
}

func (m *progressModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.listenForEvent())
}

func (m *progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case eventMsg:
		cmd := m.applyEvent(fixall.Event(msg))
		return m, tea.Batch(cmd, m.listenForEvent())
	case doneMsg:
		m.done = true
		return m, tea.Quit
	case spinner.TickMsg:
		if m.done {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case tea.WindowSizeMsg:
		if msg.Width > 0 {
			m.width = msg.Width
			m.prog.Width = msg.Width - 4
		}
		return m, nil
	case progress.FrameMsg:
		progressModel, cmd := m.prog.Update(msg)
		m.prog = progressModel.(progress.Model)
		return m, cmd
	}
	return m, nil
}

func (m *progressModel) View() string {
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("7"))
	header := m.title
	if m.stageLabel != "" {
		header = fmt.Sprintf("%s (%s)", header, m.stageLabel)
	}
	switch {
	case m.done && m.failed:
		header = fmt.Sprintf("failed: %s", header)
	case m.done:
		header = fmt.Sprintf("done: %s", header)
	default:
		header = fmt.Sprintf("%s %s", m.spinner.View(), header)
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(header))
	b.WriteString("\n\n")

	statusWidth := 12
	nameWidth := max(m.width-statusWidth-4, 20)

	for i, it := range m.items {
		if i == maxVisibleItems {
			fmt.Fprintf(&b, "  %12s %d more\n", "", len(m.items)-maxVisibleItems)
			break
		}
		statusStyled := styleStatus(it.state).Render(fmt.Sprintf("%12s", it.status))
		fmt.Fprintf(&b, "  %s %s\n", statusStyled, truncate(it.name, nameWidth))
	}

	b.WriteString("\n")
	if m.done && !m.failed {
		b.WriteString(m.prog.ViewAs(1.0))
	} else {
		b.WriteString(m.prog.View())
	}
	b.WriteString("\n")

	return b.String()
}

func (m *progressModel) listenForEvent() tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-m.events
		if !ok {
			return doneMsg{}
		}
		return eventMsg(ev)
	}
}

func (m *progressModel) applyEvent(ev fixall.Event) tea.Cmd {
	if ev.Item == "" {
		m.stage = ev.Stage
		m.stageLabel = stageLabel(ev.Stage, ev.State)
		if ev.State == fixall.StateError {
			m.failed = true
		}
		return m.prog.SetPercent(m.percent())
	}

	idx, ok := m.index[ev.Item]
	if !ok {
		idx = len(m.items)
		m.index[ev.Item] = idx
		m.items = append(m.items, item{name: ev.Item})
	}
	it := &m.items[idx]
	it.stage = ev.Stage
	it.state = ev.State
	it.status = statusLabel(ev.Stage, ev.State)
	return m.prog.SetPercent(m.percent())
}

// percent splits the bar evenly between stages; within a stage it grows
// with the share of items that finished it.
func (m *progressModel) percent() float64 {
	current := stageIndex(m.stage)
	if current < 0 {
		return 0
	}
	finished := 0
	for _, it := range m.items {
		if it.stage == m.stage && (it.state == fixall.StateDone || it.state == fixall.StateError) {
			finished++
		}
	}
	within := 0.0
	if len(m.items) > 0 {
		within = float64(finished) / float64(len(m.items))
	}
	return (float64(current) + within) / float64(len(fixall.Stages))
}

func stageIndex(stage fixall.Stage) int {
	for i, s := range fixall.Stages {
		if s == stage {
			return i
		}
	}
	return -1
}

func statusLabel(stage fixall.Stage, state fixall.ItemState) string {
	switch state {
	case fixall.StateQueued:
		return "queued"
	case fixall.StateDone:
		return "done"
	case fixall.StateError:
		return "error"
	case fixall.StateWorking:
		return stageLabel(stage, state)
	default:
		return ""
	}
}

func stageLabel(stage fixall.Stage, state fixall.ItemState) string {
	if state == fixall.StateError {
		return "error"
	}
	switch stage {
	case fixall.StageEnumerate:
		return "diagnosing"
	case fixall.StageCollect:
		return "collecting"
	case fixall.StageExtract:
		return "applying"
	case fixall.StageMerge:
		return "merging"
	default:
		return ""
	}
}

func styleStatus(state fixall.ItemState) lipgloss.Style {
	switch state {
	case fixall.StateDone:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	case fixall.StateError:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	case fixall.StateWorking:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	default:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("7"))
	}
}

func truncate(value string, width int) string {
	if width <= 0 {
		return value
	}
	if runewidth.StringWidth(value) <= width {
		return value
	}
	if width <= 3 {
		return runewidth.Truncate(value, width, "")
	}
	return runewidth.Truncate(value, width-3, "...")
}
