package main

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

// TUI message types
type transcriptMsg struct{ Text string }
type noticeMsg struct{ Text string }
type listeningMsg struct{ Prompt string }
type levelMsg struct{ Level float64 }
type stoppedMsg struct{}
type modeLineMsg struct{ Text string }
type deviceLineMsg struct{ Text string }
type tickMsg time.Time

const (
	toastTTL  = 3 * time.Second
	tickEvery = 100 * time.Millisecond
	meterBars = 20
)

var (
	styleListening = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	styleStandby   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	styleMode      = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	styleDevice    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	styleMeter     = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	styleText      = lipgloss.NewStyle().Foreground(lipgloss.Color("4"))
	stylePlace     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	styleToast     = lipgloss.NewStyle().Foreground(lipgloss.Color("208"))
	styleHelp      = lipgloss.NewStyle().Foreground(lipgloss.Color("239"))
	styleHelpKey   = lipgloss.NewStyle().Foreground(lipgloss.Color("239")).Bold(true)
	stylePanel     = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("238")).Padding(0, 1)
)

type tuiModel struct {
	actions chan<- action
	now     func() time.Time

	listening  bool
	prompt     string
	started    time.Time
	elapsed    time.Duration
	level      float64
	modeLine   string
	deviceLine string
	transcript string
	toast      string
	toastUntil time.Time
	width      int
	height     int
}

func newTUIModel(actions chan<- action) tuiModel {
	return tuiModel{actions: actions, now: time.Now}
}

func NewTUIProgram(actions chan<- action) *tea.Program {
	return tea.NewProgram(newTUIModel(actions), tea.WithAltScreen())
}

func tuiTick() tea.Cmd {
	return tea.Tick(tickEvery, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// send hands an action to the event loop without blocking the UI.
func (m tuiModel) send(a action) tea.Cmd {
	ch := m.actions
	return func() tea.Msg {
		ch <- a
		return nil
	}
}

var keyActions = map[string]action{
	"r":     actRecord,
	"enter": actFinish,
	"esc":   actCancel,
	"s":     actSend,
	"c":     actCopy,
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
		key := msg.String()
		if key == "q" || key == "ctrl+c" {
			return m, tea.Quit
		}
		if a, ok := keyActions[key]; ok {
			return m, m.send(a)
		}

	case tickMsg:
		now := m.now()
		if m.listening {
			m.elapsed = now.Sub(m.started)
		}
		if m.toast != "" && now.After(m.toastUntil) {
			m.toast = ""
		}
		return m, tuiTick()

	case listeningMsg:
		m.listening = true
		m.prompt = msg.Prompt
		m.started = m.now()
		m.elapsed = 0
		m.level = 0

	case levelMsg:
		if m.listening {
			m.level = m.level*0.6 + msg.Level*0.4
		}

	case stoppedMsg:
		m.listening = false
		m.level = 0

	case transcriptMsg:
		m.transcript = msg.Text

	case noticeMsg:
		m.toast = msg.Text
		m.toastUntil = m.now().Add(toastTTL)

	case modeLineMsg:
		m.modeLine = msg.Text

	case deviceLineMsg:
		m.deviceLine = msg.Text
	}
	return m, nil
}

func (m tuiModel) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	var lines []string
	if m.listening {
		status := styleListening.Render(fmt.Sprintf("● LISTENING %.1fs", m.elapsed.Seconds()))
		lines = append(lines, status+" "+styleMeter.Render(meter(m.level)))
	} else {
		lines = append(lines, styleStandby.Render("○ STANDBY"))
	}
	if m.modeLine != "" {
		lines = append(lines, styleMode.Render(m.modeLine))
	}
	if m.deviceLine != "" {
		lines = append(lines, styleDevice.Render(m.deviceLine))
	}

	panelWidth := max(m.width-4, 20)
	var body string
	if m.transcript == "" {
		body = stylePlace.Render("Nothing dictated yet")
	} else {
		body = styleText.Render(strings.Join(wrapText(m.transcript, panelWidth-2), "\n"))
	}
	lines = append(lines, stylePanel.Width(panelWidth).Render(body))

	if m.toast != "" {
		lines = append(lines, styleToast.Render(m.toast))
	} else {
		lines = append(lines, "")
	}
	lines = append(lines, helpLine())
	lines = append(lines, styleHelp.Render("sayso "+version))
	return strings.Join(lines, "\n")
}

func helpLine() string {
	keys := []struct{ key, desc string }{
		{"r", "record"},
		{"enter", "finish"},
		{"esc", "cancel"},
		{"s", "send"},
		{"c", "copy"},
		{"q", "quit"},
	}
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = styleHelpKey.Render(k.key) + styleHelp.Render(" "+k.desc)
	}
	return strings.Join(parts, styleHelp.Render(" · "))
}

// meter renders an RMS level as a bar. Speech RMS rarely exceeds 0.3.
func meter(level float64) string {
	n := min(int(level/0.3*meterBars), meterBars)
	n = max(n, 0)
	return strings.Repeat("▮", n) + strings.Repeat("▯", meterBars-n)
}

// wrapText breaks text into lines of at most width terminal cells, at word
// boundaries where possible.
func wrapText(text string, width int) []string {
	text = strings.TrimRight(text, " ")
	if text == "" {
		return []string{""}
	}
	lines := strings.Split(ansi.Wrap(text, max(width, 1), ""), "\n")
	for i, l := range lines {
		lines[i] = strings.TrimRight(l, " ")
	}
	return lines
}

// tuiSink forwards controller and recognizer output into the program.
type tuiSink struct {
	p *tea.Program
}

func (s tuiSink) Show(text string)        { s.p.Send(transcriptMsg{Text: text}) }
func (s tuiSink) Notify(msg string)       { s.p.Send(noticeMsg{Text: msg}) }
func (s tuiSink) Listening(prompt string) { s.p.Send(listeningMsg{Prompt: prompt}) }
func (s tuiSink) Level(rms float64)       { s.p.Send(levelMsg{Level: rms}) }
func (s tuiSink) Stopped()                { s.p.Send(stoppedMsg{}) }
func (s tuiSink) ModeLine(text string)    { s.p.Send(modeLineMsg{Text: text}) }
func (s tuiSink) DeviceLine(text string)  { s.p.Send(deviceLineMsg{Text: text}) }
