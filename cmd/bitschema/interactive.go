package main

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/wippyai/bitschema/bus"
	"github.com/wippyai/bitschema/schema"
	"github.com/wippyai/bitschema/types"
	"github.com/wippyai/bitschema/value"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	pathStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	behaviorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	resultStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

type modelState int

const (
	stateSelect modelState = iota
	stateInput
)

// access is a pending write waiting for its value.
type access int

const (
	externalWrite access = iota
	internalSet
)

type interactiveModel struct {
	err      error
	bus      *bus.Bus
	mem      *bus.WasmMemory
	file     *types.File
	result   string
	ports    []bus.Port
	input    textinput.Model
	selected int
	pending  access
	state    modelState
}

func runInteractive(pkg *schema.Package, name string) error {
	f, err := pickFile(pkg, name)
	if err != nil {
		return err
	}

	ctx := context.Background()
	pages := uint32(f.ByteSize()+65535) / 65536
	mem, err := bus.NewWasmMemory(ctx, max(pages, 1))
	if err != nil {
		return err
	}
	defer mem.Close(ctx)

	b, err := bus.New(value.NewFile(f, 0), mem)
	if err != nil {
		return err
	}

	m := &interactiveModel{
		bus:   b,
		mem:   mem,
		file:  f,
		ports: b.Ports(),
		state: stateSelect,
	}
	_, err = tea.NewProgram(m).Run()
	return err
}

func pickFile(pkg *schema.Package, name string) (*types.File, error) {
	if name != "" {
		t, ok := pkg.Lookup(name)
		if !ok {
			return nil, fmt.Errorf("type %q not declared in %s", name, pkg.Name)
		}
		f, ok := t.(*types.File)
		if !ok {
			return nil, fmt.Errorf("%s is a %s, not a register file", name, t.Kind())
		}
		return f, nil
	}
	files := pkg.Files()
	if len(files) == 0 {
		return nil, fmt.Errorf("%s declares no register file", pkg.Name)
	}
	return files[0], nil
}

func (m *interactiveModel) Init() tea.Cmd {
	return nil
}

func (m *interactiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	if m.state == stateInput {
		switch key.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "esc":
			m.state = stateSelect
			return m, nil
		case "enter":
			m.apply()
			m.state = stateSelect
			return m, nil
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}

	switch key.String() {
	case "ctrl+c", "q":
		return m, tea.Quit

	case "up", "k":
		if m.selected > 0 {
			m.selected--
		}

	case "down", "j":
		if m.selected < len(m.ports)-1 {
			m.selected++
		}

	case "w", "enter":
		m.prompt(externalWrite)

	case "s":
		m.prompt(internalSet)

	case "r":
		p := m.ports[m.selected]
		v, err := m.bus.Read(p.Address)
		m.report("read", p, v, err)

	case "g":
		p := m.ports[m.selected]
		v, err := m.bus.Get(p.Path)
		m.report("get", p, v, err)

	case "x":
		m.err = m.bus.Reset()
		m.result = "reset"
	}
	return m, nil
}

func (m *interactiveModel) prompt(a access) {
	p := m.ports[m.selected]
	ti := textinput.New()
	ti.Placeholder = fmt.Sprintf("%d-bit value", p.Reg.Type().Width())
	ti.Prompt = p.Path + " = "
	ti.Width = 40
	ti.Focus()
	m.input = ti
	m.pending = a
	m.state = stateInput
}

func (m *interactiveModel) apply() {
	p := m.ports[m.selected]
	v, ok := new(big.Int).SetString(strings.TrimSpace(m.input.Value()), 0)
	if !ok {
		m.err = fmt.Errorf("%q is not an integer", m.input.Value())
		m.result = ""
		return
	}
	var err error
	op := "write"
	if m.pending == internalSet {
		op = "set"
		err = m.bus.Set(p.Path, v)
	} else {
		err = m.bus.Write(p.Address, v)
	}
	m.report(op, p, v, err)
}

func (m *interactiveModel) report(op string, p bus.Port, v *big.Int, err error) {
	m.err = err
	m.result = ""
	if err == nil {
		m.result = fmt.Sprintf("%s %s: %#x", op, p.Path, v)
	}
}

func (m *interactiveModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Register Browser"))
	fmt.Fprintf(&b, " %s (%d bytes in %d KiB of linear memory)\n\n",
		m.file.Name(), m.file.ByteSize(), m.mem.Size()/1024)

	pathWidth := 0
	for _, p := range m.ports {
		pathWidth = max(pathWidth, len(p.Path))
	}
	for i, p := range m.ports {
		line := m.formatPort(p, pathWidth)
		if i == m.selected {
			b.WriteString(selectedStyle.Render("> " + line))
		} else {
			b.WriteString("  " + line)
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")

	if m.state == stateInput {
		b.WriteString(m.input.View())
		b.WriteString("\n\n")
		b.WriteString(helpStyle.Render("enter apply • esc back"))
		return b.String()
	}

	switch {
	case m.err != nil:
		b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
	case m.result != "":
		b.WriteString(resultStyle.Render(m.result))
	}
	b.WriteString("\n\n")
	b.WriteString(helpStyle.Render("↑/↓ select • w write • r read • s set • g get • x reset • q quit"))
	return b.String()
}

func (m *interactiveModel) formatPort(p bus.Port, pathWidth int) string {
	desc := p.Reg.Descriptor()
	line := fmt.Sprintf("0x%04x  %s  %s  %#x",
		p.Address,
		pathStyle.Render(fmt.Sprintf("%-*s", pathWidth, p.Path)),
		behaviorStyle.Render(fmt.Sprintf("%-8s", desc.Behavior())),
		p.Reg.Get())
	if n := m.bus.Pending(p.Path); n > 0 {
		line += fmt.Sprintf("  (%d queued)", n)
	}
	if s := m.bus.Strobes(p.Path); s > 0 {
		line += fmt.Sprintf("  strobes %d", s)
	}
	return line
}
