package main

import (
	"fmt"
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"hark/delivery"
	"hark/session"
	"hark/status"
)

// TUI message types
type PhaseMsg struct{ Phase session.Phase }
type ResultMsg struct{ Result session.Result }
type LogMsg struct{ Text string }
type ServiceLineMsg struct{ Text string } // service URL and health
type tickMsg time.Time

const maxLogLines = 5

type tuiModel struct {
	phase         session.Phase
	since         time.Time
	frame         int
	width, height int
	hotkeyLine    string
	serviceLine   string
	msgCount      int
	last          *session.Result
	logs          []string
	stats         *sessionStats
	toggle        func()
}

var (
	tuiProgram *tea.Program
	tuiMu      sync.Mutex
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

func NewTUIProgram(hotkeyLine string, stats *sessionStats, toggle func()) *tea.Program {
	m := tuiModel{hotkeyLine: hotkeyLine, stats: stats, toggle: toggle}
	return tea.NewProgram(m, tea.WithAltScreen())
}

func tuiSend(msg tea.Msg) {
	tuiMu.Lock()
	p := tuiProgram
	tuiMu.Unlock()
	if p != nil {
		p.Send(msg)
	}
}

func logToTUI(format string, args ...any) {
	tuiSend(LogMsg{Text: fmt.Sprintf(format, args...)})
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
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case " ":
			if m.toggle != nil {
				m.toggle()
			}
		}

	case tickMsg:
		m.frame++
		return m, tuiTick()

	case PhaseMsg:
		m.phase = msg.Phase
		if msg.Phase == session.Recording {
			m.since = time.Now()
		}

	case ResultMsg:
		m.msgCount++
		r := msg.Result
		m.last = &r

	case LogMsg:
		m.logs = append(m.logs, msg.Text)
		if len(m.logs) > maxLogLines {
			m.logs = m.logs[len(m.logs)-maxLogLines:]
		}

	case ServiceLineMsg:
		m.serviceLine = msg.Text
	}
	return m, nil
}

func (m tuiModel) statusLine() string {
	ind := status.For(m.phase)
	style := lipgloss.NewStyle().Foreground(lipgloss.Color(ind.Color)).Bold(ind.Tone != status.Neutral)
	switch m.phase {
	case session.Recording:
		return style.Render(fmt.Sprintf("● REC %.1fs", time.Since(m.since).Seconds()))
	case session.Transcribing:
		return style.Render(spinnerFrames[m.frame%len(spinnerFrames)] + " TRANSCRIBING")
	}
	return style.Render("○ " + strings.ToUpper(ind.Label))
}

func (m tuiModel) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	dim := lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	help := lipgloss.NewStyle().Foreground(lipgloss.Color("239"))
	bold := help.Bold(true)

	var b strings.Builder
	b.WriteString(m.statusLine() + "\n")
	if m.serviceLine != "" {
		b.WriteString(dim.Render(m.serviceLine) + "\n")
	}
	b.WriteString("\n")

	wrapWidth := m.width - 2
	if wrapWidth < 10 {
		wrapWidth = 10
	}

	if m.last != nil {
		title := lipgloss.NewStyle().Foreground(lipgloss.Color("246")).
			Render(fmt.Sprintf("Last transcription (#%d)", m.msgCount))
		b.WriteString(title + "\n\n")

		textStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("4"))
		lines := wrapText(m.last.Text, wrapWidth)
		for i, line := range lines {
			b.WriteString(textStyle.Render(line))
			if i == len(lines)-1 && m.last.Outcome == delivery.CopiedToClipboard {
				b.WriteString(" " + lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Render("[✓ copied]"))
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
		metrics := lipgloss.NewStyle().Foreground(lipgloss.Color("243"))
		for _, line := range resultMetrics(*m.last) {
			b.WriteString(metrics.Render(line) + "\n")
		}
	} else {
		b.WriteString(dim.Render("No transcriptions yet") + "\n")
	}

	if m.stats != nil {
		if table := m.stats.table(); table != "" {
			b.WriteString("\n")
			for _, line := range strings.Split(table, "\n") {
				b.WriteString(dim.Render(line) + "\n")
			}
		}
	}

	if len(m.logs) > 0 {
		b.WriteString("\n")
		for _, l := range m.logs {
			for _, line := range wrapText(l, wrapWidth) {
				b.WriteString(dim.Render(line) + "\n")
			}
		}
	}

	b.WriteString("\n")
	b.WriteString(bold.Render(m.hotkeyLine) + help.Render(" or space to record, q to quit") + "\n")
	b.WriteString(help.Render("hark " + version))

	return lipgloss.NewStyle().Width(m.width).Height(m.height).PaddingLeft(1).Render(b.String())
}

func resultMetrics(r session.Result) []string {
	lines := []string{fmt.Sprintf("audio %.1fs, %s, %s", r.Info.Duration.Seconds(), humanize.Bytes(uint64(r.Info.Size)), r.Outcome)}
	if m := r.Metrics; m != nil {
		reused := "new"
		if m.ConnReused {
			reused = "reused"
		}
		lines = append(lines, fmt.Sprintf("upload %dms, ttfb %dms, total %dms (conn %s)",
			m.ReqBody.Milliseconds(), m.TTFB.Milliseconds(), m.Total.Milliseconds(), reused))
	}
	return lines
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
		// Find last space within width
		splitAt := width
		for i := width; i > 0; i-- {
			if runes[i] == ' ' {
				splitAt = i
				break
			}
		}
		lines = append(lines, string(runes[:splitAt]))
		runes = []rune(strings.TrimLeft(string(runes[splitAt:]), " "))
	}
	if len(runes) > 0 {
		lines = append(lines, string(runes))
	}
	return lines
}
