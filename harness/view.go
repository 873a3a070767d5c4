package harness

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/gridseq/gridseq/core"
	"github.com/gridseq/gridseq/pattern"
)

var (
	styleOn      = lipgloss.NewStyle().Background(lipgloss.Color("40")).Foreground(lipgloss.Color("0"))
	styleOnStep  = lipgloss.NewStyle().Background(lipgloss.Color("226")).Foreground(lipgloss.Color("0"))
	styleOff     = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	styleOffStep = lipgloss.NewStyle().Background(lipgloss.Color("22")).Foreground(lipgloss.Color("250"))
	styleHeader  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("36"))
)

// tickMsg drives the free-running engine clock; the terminal has no
// audio callback, so a fixed-period ticker stands in for one.
type tickMsg time.Time

// Model is a bubbletea visualizer of an Engine's grid, playhead, and
// viewport. It owns the Engine directly (no MIDI ports) for dry-run
// inspection of sequencer behavior without hardware attached.
type Model struct {
	engine         *core.Engine
	samplesPerTick int32
	period         time.Duration
	quitting       bool
	status         string
}

// NewModel returns a Model wrapping a freshly activated Engine.
func NewModel(engine *core.Engine, samplesPerTick int32, period time.Duration) Model {
	engine.Activate()
	return Model{engine: engine, samplesPerTick: samplesPerTick, period: period}
}

func (m Model) Init() tea.Cmd {
	return m.scheduleTick()
}

func (m Model) scheduleTick() tea.Cmd {
	return tea.Tick(m.period, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.quitting = true
			return m, tea.Quit
		case "left":
			p := m.engine.Pattern()
			p.SetHardwarePage(0)
		case "right":
			p := m.engine.Pattern()
			if p.SequenceLength() > pattern.VisibleRows {
				p.SetHardwarePage(1)
			}
		case "up":
			p := m.engine.Pattern()
			p.SetPitchOffset(p.PitchOffset() + 1)
		case "down":
			p := m.engine.Pattern()
			p.SetPitchOffset(p.PitchOffset() - 1)
		default:
			if x, ok := columnKey(msg.String()); ok {
				p := m.engine.Pattern()
				step := x + 8*p.HardwarePage()
				p.Toggle(step, p.PitchOffset())
			}
		}
		return m, nil
	case tickMsg:
		out := m.engine.Tick(m.samplesPerTick, core.Inputs{})
		if len(out.Primary) > 0 {
			m.status = fmt.Sprintf("emitted %d event(s) this tick", len(out.Primary))
		}
		return m, m.scheduleTick()
	}
	return m, nil
}

// columnKey maps digit keys 1-8 to a column index, toggling the cell
// at the current pitch_offset row — enough to exercise the grid from a
// keyboard without a real pad controller attached.
func columnKey(key string) (x int, ok bool) {
	const cols = "12345678"
	if len(key) != 1 {
		return 0, false
	}
	for i := 0; i < len(cols); i++ {
		if key[0] == cols[i] {
			return i, true
		}
	}
	return 0, false
}

func (m Model) View() string {
	if m.quitting {
		return "bye\n"
	}
	p := m.engine.Pattern()
	currentStep := m.engine.Clock().CurrentStep(p.SequenceLength())
	page := p.HardwarePage()

	var b strings.Builder
	b.WriteString(styleHeader.Render(fmt.Sprintf(
		"gridseq harness — length=%d pitch_offset=%d page=%d step=%d",
		p.SequenceLength(), p.PitchOffset(), page, currentStep,
	)))
	b.WriteString("\n\n")

	for y := pattern.VisibleRows - 1; y >= 0; y-- {
		for x := 0; x < 8; x++ {
			step := x + 8*page
			pitch := p.PitchOffset() + y
			on := step < p.SequenceLength() && p.Get(step, pitch)
			isCurrent := step == currentStep

			cell := "  . "
			style := styleOff
			switch {
			case on && isCurrent:
				style = styleOnStep
				cell = "  ■ "
			case on:
				style = styleOn
				cell = "  ■ "
			case isCurrent:
				style = styleOffStep
			}
			b.WriteString(style.Render(cell))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if m.status != "" {
		b.WriteString(m.status + "\n")
	}
	b.WriteString("arrows: page/pitch  1-8: toggle column in row 0  q: quit\n")
	return b.String()
}
