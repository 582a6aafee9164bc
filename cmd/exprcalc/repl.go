package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/lemonberrylabs/exprcalc/pkg/expr"
	"github.com/lemonberrylabs/exprcalc/pkg/types"
)

var (
	accentColor    = lipgloss.Color("#3B82F6")
	successColor   = lipgloss.Color("#10B981")
	errorColor     = lipgloss.Color("#EF4444")
	mutedColor     = lipgloss.Color("#6B7280")
	highlightColor = lipgloss.Color("#F59E0B")

	promptStyle = lipgloss.NewStyle().
			Foreground(accentColor).
			Bold(true)

	resultStyle = lipgloss.NewStyle().
			Foreground(successColor)

	errorStyle = lipgloss.NewStyle().
			Foreground(errorColor)

	mutedStyle = lipgloss.NewStyle().
			Foreground(mutedColor)

	headerStyle = lipgloss.NewStyle().
			Foreground(accentColor).
			Bold(true).
			Padding(0, 1)

	helpKeyStyle = lipgloss.NewStyle().
			Foreground(highlightColor)

	helpDescStyle = lipgloss.NewStyle().
			Foreground(mutedColor)

	borderStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(accentColor).
			Padding(0, 1)
)

type historyEntry struct {
	input  string
	output []string
	isErr  bool
}

type replModel struct {
	textInput   textinput.Model
	opts        []expr.Option
	resultKind  *types.Kind
	history     []historyEntry
	cmdHistory  []string
	historyIdx  int
	width       int
	height      int
	showHelp    bool
	showPostfix bool
	quitting    bool
	initialized bool
}

type keyMap struct {
	Up    key.Binding
	Down  key.Binding
	Enter key.Binding
	CtrlC key.Binding
	CtrlD key.Binding
	CtrlL key.Binding
	CtrlK key.Binding
	CtrlP key.Binding
	Tab   key.Binding
}

var keys = keyMap{
	Up: key.NewBinding(
		key.WithKeys("up"),
		key.WithHelp("↑", "previous input"),
	),
	Down: key.NewBinding(
		key.WithKeys("down"),
		key.WithHelp("↓", "next input"),
	),
	Enter: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "evaluate"),
	),
	CtrlC: key.NewBinding(
		key.WithKeys("ctrl+c"),
		key.WithHelp("ctrl+c", "quit"),
	),
	CtrlD: key.NewBinding(
		key.WithKeys("ctrl+d"),
		key.WithHelp("ctrl+d", "quit"),
	),
	CtrlL: key.NewBinding(
		key.WithKeys("ctrl+l"),
		key.WithHelp("ctrl+l", "clear"),
	),
	CtrlK: key.NewBinding(
		key.WithKeys("ctrl+k"),
		key.WithHelp("ctrl+k", "toggle help"),
	),
	CtrlP: key.NewBinding(
		key.WithKeys("ctrl+p"),
		key.WithHelp("ctrl+p", "toggle postfix"),
	),
	Tab: key.NewBinding(
		key.WithKeys("tab"),
		key.WithHelp("tab", "complete type name"),
	),
}

// newREPLModel builds the prompt model. maxLength caps the input line; 0
// leaves it unbounded.
func newREPLModel(opts []expr.Option, maxLength int) replModel {
	ti := textinput.New()
	ti.Placeholder = "(2 * 2 + 4822) / 4"
	ti.Focus()
	ti.CharLimit = max(maxLength, 0)
	ti.Width = 60
	ti.PromptStyle = promptStyle
	ti.Prompt = "calc> "

	return replModel{
		textInput:  ti,
		opts:       opts,
		history:    make([]historyEntry, 0),
		cmdHistory: make([]string, 0),
		historyIdx: -1,
	}
}

func (m replModel) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, tea.EnterAltScreen)
}

func (m replModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.textInput.Width = msg.Width - 10
		m.initialized = true
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.CtrlC), key.Matches(msg, keys.CtrlD):
			m.quitting = true
			return m, tea.Quit

		case key.Matches(msg, keys.CtrlL):
			m.history = make([]historyEntry, 0)
			return m, nil

		case key.Matches(msg, keys.CtrlK):
			m.showHelp = !m.showHelp
			return m, nil

		case key.Matches(msg, keys.CtrlP):
			m.showPostfix = !m.showPostfix
			return m, nil

		case key.Matches(msg, keys.Up):
			if len(m.cmdHistory) > 0 {
				if m.historyIdx == -1 {
					m.historyIdx = len(m.cmdHistory) - 1
				} else if m.historyIdx > 0 {
					m.historyIdx--
				}
				m.textInput.SetValue(m.cmdHistory[m.historyIdx])
				m.textInput.CursorEnd()
			}
			return m, nil

		case key.Matches(msg, keys.Down):
			if m.historyIdx != -1 {
				if m.historyIdx < len(m.cmdHistory)-1 {
					m.historyIdx++
					m.textInput.SetValue(m.cmdHistory[m.historyIdx])
				} else {
					m.historyIdx = -1
					m.textInput.SetValue("")
				}
				m.textInput.CursorEnd()
			}
			return m, nil

		case key.Matches(msg, keys.Tab):
			m = m.handleAutocomplete()
			return m, nil

		case key.Matches(msg, keys.Enter):
			input := strings.TrimSpace(m.textInput.Value())
			if input == "" {
				return m, nil
			}

			if strings.HasPrefix(input, ":") {
				var cmd tea.Cmd
				m, cmd = m.handleCommand(input)
				m.textInput.SetValue("")
				m.historyIdx = -1
				return m, cmd
			}

			output, isErr := m.evaluate(input)
			m.history = append(m.history, historyEntry{
				input:  input,
				output: output,
				isErr:  isErr,
			})
			m.cmdHistory = append(m.cmdHistory, input)
			m.textInput.SetValue("")
			m.historyIdx = -1
			return m, nil
		}
	}

	m.textInput, cmd = m.textInput.Update(msg)
	return m, cmd
}

func (m replModel) handleCommand(input string) (replModel, tea.Cmd) {
	parts := strings.Fields(input)
	cmd := parts[0]

	switch cmd {
	case ":help", ":h":
		m.showHelp = !m.showHelp
	case ":clear", ":c":
		m.history = make([]historyEntry, 0)
	case ":postfix", ":p":
		m.showPostfix = !m.showPostfix
	case ":types", ":t":
		m.history = append(m.history, historyEntry{
			input:  input,
			output: []string{strings.Join(types.Names, " ")},
		})
	case ":as":
		m = m.setResultKind(input, parts[1:])
	case ":quit", ":q":
		m.quitting = true
		return m, tea.Quit
	default:
		m.history = append(m.history, historyEntry{
			input:  input,
			output: []string{fmt.Sprintf("Unknown command: %s", cmd)},
			isErr:  true,
		})
	}
	return m, nil
}

// setResultKind handles ":as <type>" and a bare ":as", which clears it.
func (m replModel) setResultKind(input string, args []string) replModel {
	if len(args) == 0 {
		m.resultKind = nil
		m.history = append(m.history, historyEntry{input: input, output: []string{"Results keep their own type"}})
		return m
	}

	k, err := types.ParseKind(args[0])
	if err != nil {
		m.history = append(m.history, historyEntry{input: input, output: []string{err.Error()}, isErr: true})
		return m
	}
	m.resultKind = &k
	m.history = append(m.history, historyEntry{input: input, output: []string{"Results converted to " + k.String()}})
	return m
}

// handleAutocomplete completes a type name after ":as ".
func (m replModel) handleAutocomplete() replModel {
	input := m.textInput.Value()
	if !strings.HasPrefix(input, ":as ") {
		return m
	}
	partial := strings.TrimSpace(strings.TrimPrefix(input, ":as "))

	var completions []string
	for _, name := range types.Names {
		if strings.HasPrefix(name, partial) {
			completions = append(completions, name)
		}
	}

	if len(completions) == 1 {
		m.textInput.SetValue(":as " + completions[0])
		m.textInput.CursorEnd()
	} else if len(completions) > 1 {
		m.history = append(m.history, historyEntry{
			output: []string{"Completions: " + strings.Join(completions, ", ")},
		})
	}

	return m
}

func (m replModel) evaluate(input string) ([]string, bool) {
	opts := m.opts
	if m.resultKind != nil {
		opts = append(opts[:len(opts):len(opts)], expr.WithResultKind(*m.resultKind))
	}

	results, err := expr.Eval(input, opts...)
	if err != nil {
		return []string{err.Error()}, true
	}

	var lines []string
	for _, r := range results {
		if !r.Ok {
			continue
		}
		if m.showPostfix {
			lines = append(lines, fmt.Sprintf("%s  (%s)", r, r.Expression))
		} else {
			lines = append(lines, r.String())
		}
	}
	if len(lines) == 0 {
		lines = append(lines, "(empty)")
	}
	return lines, false
}

func (m replModel) View() string {
	if !m.initialized {
		return "Loading..."
	}

	if m.quitting {
		return mutedStyle.Render("Goodbye!\n")
	}

	var b strings.Builder

	header := headerStyle.Render("exprcalc")
	b.WriteString(header + " " + mutedStyle.Render(version) + "\n")
	b.WriteString(mutedStyle.Render(strings.Repeat("─", max(min(m.width-2, 60), 0))) + "\n\n")

	reservedLines := 8 // header, input, footer
	if m.showHelp {
		reservedLines += 12
	}
	availableHeight := m.height - reservedLines

	// Each entry takes its input line, its outputs and a blank line.
	start := len(m.history)
	used := 0
	for start > 0 {
		n := len(m.history[start-1].output) + 2
		if used+n > availableHeight {
			break
		}
		used += n
		start--
	}

	for _, entry := range m.history[start:] {
		if entry.input != "" {
			b.WriteString(mutedStyle.Render("  › ") + entry.input + "\n")
		}
		for _, line := range entry.output {
			if entry.isErr {
				b.WriteString("  " + errorStyle.Render("✗ "+line) + "\n")
			} else {
				b.WriteString("  " + resultStyle.Render("→ "+line) + "\n")
			}
		}
		b.WriteString("\n")
	}

	if m.showHelp {
		b.WriteString(renderHelpPanel())
		b.WriteString("\n")
	}

	b.WriteString(m.textInput.View() + "\n\n")

	status := ""
	if m.resultKind != nil {
		status = mutedStyle.Render("as "+m.resultKind.String()) + "  "
	}
	footer := status +
		helpKeyStyle.Render("ctrl+k") + helpDescStyle.Render(" help  ") +
		helpKeyStyle.Render("ctrl+p") + helpDescStyle.Render(" postfix  ") +
		helpKeyStyle.Render("ctrl+l") + helpDescStyle.Render(" clear  ") +
		helpKeyStyle.Render("ctrl+c") + helpDescStyle.Render(" quit")
	b.WriteString(footer)

	return b.String()
}

func renderHelpPanel() string {
	help := []struct {
		key  string
		desc string
	}{
		{"↑/↓", "Navigate input history"},
		{"Enter", "Evaluate; separate expressions with ;"},
		{":as T", "Convert results to type T (Tab completes)"},
		{":as", "Keep each result's own type"},
		{":types", "List type names"},
		{":postfix", "Toggle postfix display"},
		{":help", "Toggle this help"},
		{":clear", "Clear history"},
		{":quit", "Exit"},
	}

	var lines []string
	lines = append(lines, lipgloss.NewStyle().Bold(true).Foreground(accentColor).Render("Help"))
	for _, h := range help {
		line := fmt.Sprintf("  %s  %s",
			helpKeyStyle.Render(fmt.Sprintf("%-9s", h.key)),
			helpDescStyle.Render(h.desc))
		lines = append(lines, line)
	}

	return borderStyle.Render(strings.Join(lines, "\n"))
}

func runREPL(opts []expr.Option, maxLength int) error {
	p := tea.NewProgram(newREPLModel(opts, maxLength), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
