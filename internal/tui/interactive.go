package tui

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/san-kum/wavesim/internal/boundary"
	"github.com/san-kum/wavesim/internal/config"
	"github.com/san-kum/wavesim/internal/viz"
)

var ErrAborted = errors.New("tui: aborted")

type fieldKind int

const (
	intField fieldKind = iota
	floatField
)

type field struct {
	key   string
	label string
	kind  fieldKind
	value string
	min   float64
}

// Form collects run parameters. dt is never entered: it follows from the
// Courant number, and t_final is snapped to a multiple of it on submit.
type Form struct {
	kind    boundary.Kind
	fields  []field
	cursor  int
	editing bool
	buf     string

	notes  []string
	err    error
	result *config.Config
	quit   bool
}

func presetFor(k boundary.Kind) *config.Config {
	if p := config.GetPreset(k.String()); p != nil {
		return p
	}
	return config.DefaultConfig()
}

func NewForm(kind boundary.Kind) Form {
	f := Form{kind: kind}
	f.load(presetFor(kind))
	return f
}

func (f *Form) load(cfg *config.Config) {
	cfl := cfg.CFL
	if cfl <= 0 {
		cfl = cfg.Courant()
	}
	num := func(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }
	f.fields = []field{
		{key: "nx", label: "Spatial points Nx", kind: intField, value: strconv.Itoa(cfg.Nx), min: 3},
		{key: "dx", label: "Spatial step dx", kind: floatField, value: num(cfg.Dx), min: 1e-12},
		{key: "length", label: "Domain length L", kind: floatField, value: num(cfg.Dx * float64(cfg.Nx-1)), min: 1e-12},
		{key: "wave_speed", label: "Wave speed c", kind: floatField, value: num(cfg.WaveSpeed), min: 1e-12},
		{key: "cfl", label: "CFL number", kind: floatField, value: num(cfl), min: 1e-12},
		{key: "t_final", label: "Final time", kind: floatField, value: num(cfg.TFinal), min: 1e-12},
		{key: "snapshot_freq", label: "Save every N", kind: intField, value: strconv.Itoa(cfg.SnapshotFreq), min: 1},
	}
}

// rows: boundary, fields..., submit
func (f Form) rows() int { return len(f.fields) + 2 }

func (f Form) Init() tea.Cmd { return nil }

func (f Form) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return f, nil
	}
	if f.editing {
		return f.editKey(key), nil
	}

	switch key.String() {
	case "ctrl+c", "q", "esc":
		f.quit = true
		return f, tea.Quit
	case "up", "k", "shift+tab":
		f.cursor = (f.cursor + f.rows() - 1) % f.rows()
	case "down", "j", "tab":
		f.cursor = (f.cursor + 1) % f.rows()
	case "left", "right", " ":
		if f.cursor == 0 {
			f.toggleBoundary()
		}
	case "enter":
		switch {
		case f.cursor == 0:
			f.toggleBoundary()
		case f.cursor == f.rows()-1:
			cfg, notes, err := f.build()
			f.notes, f.err = notes, err
			if err == nil {
				f.result = cfg
				return f, tea.Quit
			}
		default:
			f.editing = true
			f.buf = ""
		}
	default:
		if f.cursor > 0 && f.cursor < f.rows()-1 && isNumeric(key.String()) {
			f.editing = true
			f.buf = key.String()
		}
	}
	return f, nil
}

func isNumeric(s string) bool {
	return len(s) == 1 && strings.ContainsAny(s, "0123456789.-+eE")
}

func (f Form) editKey(key tea.KeyMsg) Form {
	switch key.String() {
	case "enter":
		if f.buf != "" {
			f.fields[f.cursor-1].value = f.buf
		}
		f.editing, f.buf = false, ""
		f.err = nil
	case "esc":
		f.editing, f.buf = false, ""
	case "backspace":
		if len(f.buf) > 0 {
			f.buf = f.buf[:len(f.buf)-1]
		}
	default:
		if isNumeric(key.String()) {
			f.buf += key.String()
		}
	}
	return f
}

func (f *Form) toggleBoundary() {
	if f.kind == boundary.KindDirichlet {
		f.kind = boundary.KindNeumann
	} else {
		f.kind = boundary.KindDirichlet
	}
	f.load(presetFor(f.kind))
	f.notes, f.err = nil, nil
}

func (f Form) number(key string) (float64, error) {
	for _, fd := range f.fields {
		if fd.key != key {
			continue
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(fd.value), 64)
		if err != nil {
			return 0, fmt.Errorf("%s: not a number", fd.label)
		}
		if fd.kind == intField && v != math.Trunc(v) {
			return 0, fmt.Errorf("%s: must be an integer", fd.label)
		}
		if v < fd.min {
			return 0, fmt.Errorf("%s: must be >= %g", fd.label, fd.min)
		}
		return v, nil
	}
	return 0, fmt.Errorf("unknown field %s", key)
}

// build turns the form into a resolved config. The returned notes describe
// values that were adjusted on the way.
func (f Form) build() (*config.Config, []string, error) {
	vals := map[string]float64{}
	for _, fd := range f.fields {
		v, err := f.number(fd.key)
		if err != nil {
			return nil, nil, err
		}
		vals[fd.key] = v
	}

	cfg := presetFor(f.kind)
	cfg.Boundary = f.kind
	cfg.ScenarioID = f.kind.ScenarioID()
	cfg.Nx = int(vals["nx"])
	cfg.WaveSpeed = vals["wave_speed"]
	cfg.CFL = vals["cfl"]
	cfg.TFinal = vals["t_final"]
	cfg.SnapshotFreq = int(vals["snapshot_freq"])

	var notes []string
	cfg.Dx = vals["dx"]
	if want := vals["length"] / float64(cfg.Nx-1); math.Abs(want-cfg.Dx) > 1e-10 {
		cfg.Dx = want
		notes = append(notes, fmt.Sprintf("dx adjusted to %g so that (Nx-1)*dx = %g", want, vals["length"]))
	}

	cfg.Dt = 0
	cfg.Resolve()
	notes = append(notes, fmt.Sprintf("dt inferred from CFL: %g", cfg.Dt))
	if cfg.CoerceFinalTime() {
		notes = append(notes, fmt.Sprintf("t_final adjusted to %g, a multiple of dt", cfg.TFinal))
	}
	if err := cfg.CheckCourant(); err != nil {
		notes = append(notes, "warning: "+err.Error())
	}

	if err := cfg.Validate(); err != nil {
		return nil, notes, err
	}
	return cfg, notes, nil
}

// Result is the submitted config, or nil when the form was left.
func (f Form) Result() *config.Config { return f.result }
func (f Form) Notes() []string        { return f.notes }

func (f Form) View() string {
	var b strings.Builder
	b.WriteString(viz.Title.Render("wavesim: 1D wave equation") + "\n\n")

	line := func(row int, label, value string) {
		cursor := "  "
		style := viz.MetricLabel
		if f.cursor == row {
			cursor = viz.Selected.Render("> ")
		}
		b.WriteString(cursor + style.Width(20).Render(label) + viz.MetricValue.Render(value) + "\n")
	}

	line(0, "Boundary", fmt.Sprintf("%s (scenario %d)", f.kind, f.kind.ScenarioID()))
	for i, fd := range f.fields {
		v := fd.value
		if f.editing && f.cursor == i+1 {
			v = f.buf + "_"
		}
		line(i+1, fd.label, v)
	}

	submit := "[ run ]"
	if f.cursor == f.rows()-1 {
		submit = viz.Selected.Render("> [ run ]")
	}
	b.WriteString("\n" + submit + "\n\n")

	for _, n := range f.notes {
		b.WriteString(viz.Subtle.Render(n) + "\n")
	}
	if f.err != nil {
		b.WriteString(viz.ErrorText.Render(f.err.Error()) + "\n")
	}
	b.WriteString(viz.KeyHint.Render("↑/↓ move • enter edit/confirm • ←/→ boundary • q quit") + "\n")
	return b.String()
}

// RunForm shows the form and returns the submitted config.
func RunForm(kind boundary.Kind, opts ...tea.ProgramOption) (*config.Config, []string, error) {
	final, err := tea.NewProgram(NewForm(kind), opts...).Run()
	if err != nil {
		return nil, nil, err
	}
	f := final.(Form)
	if f.result == nil {
		return nil, nil, ErrAborted
	}
	return f.result, f.notes, nil
}
