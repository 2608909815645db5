package main

import (
	"fmt"
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"voxkey/log"
	"voxkey/overlay"
)

// TUI message types
type SnapshotMsg struct{ Snap overlay.Snapshot }
type StatusLineMsg struct{ Text string }
type tickMsg time.Time

var (
	tuiProgram *tea.Program
	tuiMu      sync.Mutex
)

var (
	styleRecording = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	styleProcess   = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	styleSuccess   = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	styleError     = lipgloss.NewStyle().Foreground(lipgloss.Color("208"))
	styleIdle      = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	styleStatus    = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	styleHelp      = lipgloss.NewStyle().Foreground(lipgloss.Color("239"))
	styleTitle     = lipgloss.NewStyle().Foreground(lipgloss.Color("246")).Bold(true)
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

type tuiModel struct {
	snap          overlay.Snapshot
	statusLine    string
	lastText      string
	count         int
	frame         int
	width, height int
	hotkey        string
}

func NewTUIProgram(hotkeyName, statusLine string) *tea.Program {
	m := tuiModel{hotkey: hotkeyName, statusLine: statusLine}
	return tea.NewProgram(m, tea.WithAltScreen())
}

func tuiTick() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m tuiModel) Init() tea.Cmd {
	return tuiTick()
}

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" || msg.String() == "q" {
			return m, tea.Quit
		}

	case tickMsg:
		m.frame++
		return m, tuiTick()

	case SnapshotMsg:
		if msg.Snap.State == overlay.Success {
			m.lastText = msg.Snap.Text
			m.count++
		}
		m.snap = msg.Snap

	case StatusLineMsg:
		m.statusLine = msg.Text
	}
	return m, nil
}

func (m tuiModel) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	var lines []string
	lines = append(lines, styleTitle.Render("voxkey "+version))
	lines = append(lines, "")

	switch m.snap.State {
	case overlay.Recording:
		lines = append(lines, styleRecording.Render(fmt.Sprintf("● REC %ds", m.snap.Seconds)))
	case overlay.Processing:
		spin := spinnerFrames[m.frame%len(spinnerFrames)]
		lines = append(lines, styleProcess.Render(spin+" transcribing..."))
	case overlay.Success:
		lines = append(lines, styleSuccess.Render("✓ inserted"))
	case overlay.Error:
		lines = append(lines, styleError.Render("✗ "+m.snap.Message))
	default:
		lines = append(lines, styleIdle.Render("○ IDLE"))
	}

	if m.statusLine != "" {
		lines = append(lines, styleStatus.Render(m.statusLine))
	}

	lines = append(lines, "")
	if m.lastText != "" {
		lines = append(lines, styleStatus.Render(fmt.Sprintf("Last dictation (#%d):", m.count)))
		wrapWidth := m.width - 2
		if wrapWidth < 10 {
			wrapWidth = 10
		}
		for _, line := range wrapText(m.lastText, wrapWidth) {
			lines = append(lines, styleIdle.Render(line))
		}
		lines = append(lines, "")
	}

	lines = append(lines, styleHelp.Render("press "+m.hotkey+" to dictate, q to quit"))

	return lipgloss.NewStyle().
		Width(m.width).
		Height(m.height).
		Padding(1, 2).
		Render(strings.Join(lines, "\n"))
}

func wrapText(text string, width int) []string {
	if len(text) == 0 {
		return []string{""}
	}
	if width <= 0 {
		width = 1
	}

	runes := []rune(text)
	var lines []string
	for len(runes) > width {
		splitAt := width
		for i := width; i > 0; i-- {
			if runes[i] == ' ' {
				splitAt = i
				break
			}
		}
		lines = append(lines, string(runes[:splitAt]))
		runes = runes[splitAt:]
		for len(runes) > 0 && runes[0] == ' ' {
			runes = runes[1:]
		}
	}
	if len(runes) > 0 {
		lines = append(lines, string(runes))
	}
	return lines
}

func tuiSend(msg tea.Msg) {
	tuiMu.Lock()
	p := tuiProgram
	tuiMu.Unlock()
	if p != nil {
		p.Send(msg)
	}
}

// tuiSink feeds overlay snapshots into the Bubble Tea program.
type tuiSink struct{}

func (tuiSink) Update(snap overlay.Snapshot) {
	tuiSend(SnapshotMsg{Snap: snap})
}

// logSink is the headless fallback: state changes only hit the log.
type logSink struct{}

func (logSink) Update(snap overlay.Snapshot) {
	switch snap.State {
	case overlay.Error:
		log.Errorf("overlay: %s", snap.Message)
	case overlay.Success:
		log.Infof("overlay: inserted %d chars", len(snap.Text))
	}
}
