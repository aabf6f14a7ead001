// SPDX-License-Identifier: MPL-2.0

package tui

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type (
	// ConfirmOptions configures the Confirm component.
	ConfirmOptions struct {
		// Title is the question/prompt to display.
		Title string
		// Description provides additional context below the title.
		Description string
		// Affirmative is the text for the affirmative option (default: "Yes").
		Affirmative string
		// Negative is the text for the negative option (default: "No").
		Negative string
		// Default is the preselected answer.
		Default bool
		// Config holds common TUI configuration.
		Config Config
	}

	confirmModel struct {
		result      bool
		done        bool
		cancelled   bool
		width       int
		title       string
		description string
		affirmative string
		negative    string
		selection   bool
	}
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED"))
	descStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	activeStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF")).Background(lipgloss.Color("#7C3AED")).Bold(true).Padding(0, 1)
	inactiveStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#9CA3AF")).Padding(0, 1)
	helpStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
)

// NewConfirmModel creates the Bubble Tea model behind Confirm.
func NewConfirmModel(opts ConfirmOptions) *confirmModel {
	affirmative, negative := opts.labels()
	return &confirmModel{
		result:      opts.Default,
		title:       opts.Title,
		description: opts.Description,
		affirmative: affirmative,
		negative:    negative,
		selection:   opts.Default,
	}
}

// Init implements tea.Model.
func (m *confirmModel) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *confirmModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case keyCtrlC, "esc":
			m.done = true
			m.cancelled = true
			return m, tea.Quit
		case "y", "Y":
			m.selection = true
			m.result = true
			m.done = true
			return m, tea.Quit
		case "n", "N":
			m.selection = false
			m.result = false
			m.done = true
			return m, tea.Quit
		case "left", "h":
			m.selection = true
		case "right", "l":
			m.selection = false
		case "up", "down", "tab", "shift+tab":
			m.selection = !m.selection
		case "enter", " ":
			m.result = m.selection
			m.done = true
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.width = msg.Width
	}

	return m, nil
}

// View implements tea.Model.
func (m *confirmModel) View() string {
	if m.done {
		return ""
	}

	yesView := inactiveStyle.Render(m.affirmative)
	noView := inactiveStyle.Render(m.negative)
	if m.selection {
		yesView = activeStyle.Render(m.affirmative)
	} else {
		noView = activeStyle.Render(m.negative)
	}

	lines := make([]string, 0, 4)
	if m.title != "" {
		lines = append(lines, titleStyle.Render(m.title))
	}
	if m.description != "" {
		lines = append(lines, descStyle.Render(m.description))
	}
	lines = append(lines,
		yesView+"  "+noView,
		helpStyle.Render("enter submit • y yes • n no • esc cancel"),
	)

	view := strings.Join(lines, "\n")
	if m.width > 0 {
		view = lipgloss.NewStyle().MaxWidth(m.width).Render(view)
	}
	return view + "\n"
}

// IsDone reports whether the user answered or cancelled.
func (m *confirmModel) IsDone() bool {
	return m.done
}

// Cancelled reports whether the user pressed Esc or Ctrl+C.
func (m *confirmModel) Cancelled() bool {
	return m.cancelled
}

// Result returns the answer, or ErrCancelled.
func (m *confirmModel) Result() (bool, error) {
	if m.cancelled {
		return false, ErrCancelled
	}
	return m.result, nil
}

// Confirm prompts the user to confirm an action (yes/no).
// Returns true for affirmative, false for negative, or ErrCancelled.
func Confirm(opts ConfirmOptions) (bool, error) {
	if opts.Config.Accessible {
		return confirmAccessible(opts)
	}

	p := tea.NewProgram(NewConfirmModel(opts),
		tea.WithInput(opts.Config.input()),
		tea.WithOutput(opts.Config.output()),
	)
	finalModel, err := p.Run()
	if err != nil {
		return false, fmt.Errorf("confirm prompt: %w", err)
	}

	m, ok := finalModel.(*confirmModel)
	if !ok {
		return false, fmt.Errorf("confirm prompt: unexpected model %T", finalModel)
	}
	return m.Result()
}

// confirmAccessible asks on a single line and reads one answer. An empty line
// selects the default; end of input cancels.
func confirmAccessible(opts ConfirmOptions) (bool, error) {
	out := opts.Config.output()
	affirmative, negative := opts.labels()

	hint := "y/N"
	if opts.Default {
		hint = "Y/n"
	}

	reader := bufio.NewReader(opts.Config.input())
	for {
		if opts.Description != "" {
			fmt.Fprintln(out, opts.Description)
		}
		fmt.Fprintf(out, "%s [%s] ", opts.Title, hint)

		line, err := reader.ReadString('\n')
		answer := strings.ToLower(strings.TrimSpace(line))
		if err != nil && (answer == "" || !errors.Is(err, io.EOF)) {
			fmt.Fprintln(out)
			return false, ErrCancelled
		}

		switch answer {
		case "":
			return opts.Default, nil
		case "y", "yes", strings.ToLower(affirmative):
			return true, nil
		case "n", "no", strings.ToLower(negative):
			return false, nil
		}
		fmt.Fprintf(out, "Please answer %s or %s.\n", affirmative, negative)
	}
}

func (opts ConfirmOptions) labels() (affirmative, negative string) {
	affirmative, negative = opts.Affirmative, opts.Negative
	if affirmative == "" {
		affirmative = "Yes"
	}
	if negative == "" {
		negative = "No"
	}
	return affirmative, negative
}
