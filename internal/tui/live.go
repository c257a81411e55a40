package tui

import (
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/san-kum/wavesim/internal/metrics"
	"github.com/san-kum/wavesim/internal/sim"
	"github.com/san-kum/wavesim/internal/viz"
)

const (
	canvasWidth     = 70
	canvasHeight    = 12
	historyCapacity = 600
	frameInterval   = time.Second / 30
	maxStepsPerTick = 512
)

type tickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(frameInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// Live steps a driver a few steps per frame and draws the current layer.
// The driver's sinks still fire on cadence points, so a live run can be
// recorded at the same time.
type Live struct {
	driver  *sim.Driver
	amp     float64
	speed   int
	paused  bool
	done    bool
	err     error
	energy  []float64
	initial float64
	width   int
}

func NewLive(d *sim.Driver) Live {
	g := d.Grid()
	amp := 0.0
	for _, v := range g.Current() {
		amp = math.Max(amp, math.Abs(v))
	}
	if amp == 0 {
		amp = 1
	}
	e0 := metrics.GridEnergy(g)
	return Live{
		driver:  d,
		amp:     amp * 1.1,
		speed:   1,
		initial: e0,
		energy:  []float64{e0},
		width:   canvasWidth,
	}
}

func (m Live) Init() tea.Cmd { return tick() }

func (m Live) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case " ", "p":
			m.paused = !m.paused
		case "+", "=", "right":
			m.speed = min(m.speed*2, maxStepsPerTick)
		case "-", "left":
			m.speed = max(m.speed/2, 1)
		case "s":
			if m.paused && !m.done {
				m.step(1)
			}
		}
		return m, nil
	case tea.WindowSizeMsg:
		m.width = min(max(msg.Width-4, 20), 160)
		return m, nil
	case tickMsg:
		if m.done {
			return m, nil
		}
		if !m.paused {
			m.step(m.speed)
		}
		return m, tick()
	}
	return m, nil
}

func (m *Live) step(n int) {
	for i := 0; i < n; i++ {
		done, err := m.driver.Advance()
		if err != nil {
			m.err, m.done = err, true
			return
		}
		if done {
			m.done = true
			break
		}
	}
	m.energy = append(m.energy, metrics.GridEnergy(m.driver.Grid()))
	if len(m.energy) > historyCapacity {
		m.energy = m.energy[len(m.energy)-historyCapacity:]
	}
}

// Done reports whether the driver finished and Err whether it failed.
func (m Live) Done() bool { return m.done }
func (m Live) Err() error { return m.err }

func (m Live) View() string {
	g := m.driver.Grid()
	var b strings.Builder

	status := viz.StatusRunning.Render("RUNNING")
	switch {
	case m.err != nil:
		status = viz.ErrorText.Render("FAILED")
	case m.done:
		status = viz.StatusDone.Render("FINISHED")
	case m.paused:
		status = viz.StatusPaused.Render("PAUSED")
	}
	b.WriteString(viz.Title.Render("wavesim live") + "  " + status + "\n")

	wave := viz.Wave.Render(viz.RenderLayer(g.Current(), max(m.width-4, 10), canvasHeight, m.amp))
	b.WriteString(viz.Panel.Render(strings.TrimSuffix(wave, "\n")) + "\n")

	e := m.energy[len(m.energy)-1]
	drift := 0.0
	if m.initial != 0 {
		drift = math.Abs(e-m.initial) / math.Abs(m.initial)
	}
	stats := lipgloss.JoinVertical(lipgloss.Left,
		viz.Metric("step", fmt.Sprintf("%d / %d", g.Step, m.driver.NSteps())),
		viz.Metric("time", fmt.Sprintf("%.4f", g.Time)),
		viz.Metric("energy", fmt.Sprintf("%.6g", e)),
		viz.Metric("drift", fmt.Sprintf("%.3e", drift)),
		viz.Metric("courant", fmt.Sprintf("%.3f", g.Courant())),
		viz.Metric("boundary", m.driver.Boundary().Name()),
		viz.Metric("speed", fmt.Sprintf("%d steps/frame", m.speed)),
	)
	spark := viz.SparklineChart(m.energy, 40)
	right := lipgloss.JoinVertical(lipgloss.Left,
		viz.MetricLabel.Render("energy"),
		viz.Wave.Render(spark),
		"",
		viz.ProgressBar(float64(g.Step)/float64(max(m.driver.NSteps(), 1)), 40),
	)
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, stats, "    ", right) + "\n")

	if m.err != nil {
		b.WriteString(viz.ErrorText.Render(m.err.Error()) + "\n")
	}
	b.WriteString(viz.KeyHint.Render("space pause • s step • +/- speed • q quit") + "\n")
	return b.String()
}

// RunLive drives d to completion inside a bubbletea program. Quitting early
// leaves the driver in the running phase.
func RunLive(d *sim.Driver, opts ...tea.ProgramOption) (Live, error) {
	final, err := tea.NewProgram(NewLive(d), opts...).Run()
	if err != nil {
		return Live{}, err
	}
	m := final.(Live)
	return m, m.err
}
