package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"ztrkr/midi"
	"ztrkr/sequencer"
	"ztrkr/theme"
	"ztrkr/widgets"
)

// UI refresh rate
const fps = 30

type Model struct {
	Transport *sequencer.Transport
	Project   *sequencer.Project
	DeviceMgr *midi.DeviceManager
	Theme     *theme.Theme

	status   sequencer.Status
	port     string
	showHelp bool
	quitting bool
	err      error
}

type frameMsg time.Time

type DeviceEventMsg midi.DeviceEvent

// NewModel builds the monitor. deviceMgr may be nil when MIDI is off.
func NewModel(tr *sequencer.Transport, project *sequencer.Project, deviceMgr *midi.DeviceManager, th *theme.Theme) Model {
	return Model{
		Transport: tr,
		Project:   project,
		DeviceMgr: deviceMgr,
		Theme:     th,
		status:    tr.Status(),
	}
}

func nextFrame() tea.Cmd {
	return tea.Tick(time.Second/fps, func(t time.Time) tea.Msg {
		return frameMsg(t)
	})
}

func ListenForDevices(deviceMgr *midi.DeviceManager) tea.Cmd {
	if deviceMgr == nil {
		return nil
	}
	return func() tea.Msg {
		event, ok := <-deviceMgr.Events()
		if !ok {
			return nil
		}
		return DeviceEventMsg(event)
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(nextFrame(), ListenForDevices(m.DeviceMgr))
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			m.Transport.Stop()
			return m, tea.Quit

		case "p", " ":
			if m.Transport.Playing() {
				m.Transport.Stop()
			} else {
				m.err = m.Transport.Start()
			}

		case "+", "=":
			m.Transport.SetTempo(m.Transport.Tempo() + 5)

		case "-", "_":
			m.Transport.SetTempo(m.Transport.Tempo() - 5)

		case ">", ".":
			m.err = m.Transport.QueuePattern(m.relativePattern(1))

		case "<", ",":
			m.err = m.Transport.QueuePattern(m.relativePattern(-1))

		case "?":
			m.showHelp = !m.showHelp
		}
		m.status = m.Transport.Status()

	case frameMsg:
		m.status = m.Transport.Status()
		return m, nextFrame()

	case DeviceEventMsg:
		event := midi.DeviceEvent(msg)
		if event.Type == midi.DeviceConnected {
			m.port = event.Port
		} else {
			m.port = ""
		}
		return m, ListenForDevices(m.DeviceMgr)
	}

	return m, nil
}

// relativePattern returns the pattern index d away from the one playing
// or queued, wrapping around the project.
func (m Model) relativePattern(d int) int {
	n := len(m.Project.Patterns)
	cur := m.status.Pattern
	if m.status.Next >= 0 {
		cur = m.status.Next
	}
	return ((cur+d)%n + n) % n
}

var keyHelp = []widgets.KeySection{
	{Title: "transport", Keys: []widgets.KeyBinding{
		{Key: "p / space", Desc: "play / stop"},
		{Key: "+ / -", Desc: "tempo"},
		{Key: "< / >", Desc: "queue previous / next pattern"},
	}},
	{Title: "other", Keys: []widgets.KeyBinding{
		{Key: "?", Desc: "toggle help"},
		{Key: "q", Desc: "quit"},
	}},
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}
	s := m.status

	headerStyle := lipgloss.NewStyle().Foreground(m.Theme.Accent())
	dimStyle := lipgloss.NewStyle().Foreground(m.Theme.Muted())
	warnStyle := lipgloss.NewStyle().Foreground(m.Theme.Warning())

	playState := "STOP"
	if s.Running {
		playState = "PLAY"
	}
	where := fmt.Sprintf("pat:%02d", s.Pattern+1)
	if s.Next >= 0 {
		where += fmt.Sprintf(">%02d", s.Next+1)
	}
	if s.Song >= 0 {
		where = fmt.Sprintf("song:%02d row:%02d %s", s.Song+1, s.Row+1, where)
	}
	port := "midi:-"
	if m.port != "" {
		port = "midi:" + m.port
	}
	header := headerStyle.Render(fmt.Sprintf("ztrkr  %s  %5.1fbpm  swing:%3.0f  %s  %s",
		playState, s.Tempo, s.Swing, where, port))

	var out strings.Builder
	out.WriteString("\n")
	out.WriteString(header)
	out.WriteString("\n\n")

	if s.Pattern >= 0 && s.Pattern < len(m.Project.Patterns) {
		pat := m.Project.Patterns[s.Pattern]
		for i := range pat.Tracks {
			out.WriteString(widgets.RenderStepRow(m.Theme, widgets.StepRow{
				Index:    i,
				Track:    &pat.Tracks[i],
				Length:   s.Lengths[i],
				Playhead: s.Steps[i],
				Muted:    s.Muted.Has(i),
			}))
			out.WriteString("\n")
		}
	}

	if s.Late > 0 {
		out.WriteString(warnStyle.Render(fmt.Sprintf("\n%d late steps", s.Late)))
		out.WriteString("\n")
	}
	if m.err != nil {
		out.WriteString(warnStyle.Render("\n" + m.err.Error()))
		out.WriteString("\n")
	}

	out.WriteString("\n")
	if m.showHelp {
		out.WriteString(dimStyle.Render(widgets.RenderKeyHelp(keyHelp)))
	} else {
		out.WriteString(dimStyle.Render("p:play  +/-:tempo  </>:pattern  ?:help  q:quit"))
	}
	return out.String()
}
