package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/aretw0/abacus"
	"github.com/aretw0/abacus/pkg/domain"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	displayStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("36")).
			Padding(0, 1).
			Width(36).
			Align(lipgloss.Right)

	bufferStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	previewStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	errorStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("203"))

	historyTitleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("36")).MarginTop(1)
	historyItemStyle     = lipgloss.NewStyle().PaddingLeft(2)
	historySelectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("170")).Bold(true)

	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("203")).Italic(true)
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).MarginTop(1)
)

// SaveFunc persists the session after every change.
type SaveFunc func(ctx context.Context, state *domain.State) error

// App is the interactive keypad for one session.
type App struct {
	ctx     context.Context
	session *abacus.Session
	save    SaveFunc
	keys    keyMap

	showHistory bool
	cursor      int
	status      string
	width       int
}

// AppOption configures an App.
type AppOption func(*App)

// WithSaveFunc persists the session after every change.
func WithSaveFunc(fn SaveFunc) AppOption {
	return func(a *App) {
		a.save = fn
	}
}

// NewApp creates the keypad model for session.
func NewApp(ctx context.Context, session *abacus.Session, opts ...AppOption) *App {
	a := &App{
		ctx:     ctx,
		session: session,
		keys:    defaultKeyMap(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Run starts the program on the terminal and blocks until the user quits.
func (a *App) Run() error {
	_, err := tea.NewProgram(a, tea.WithContext(a.ctx)).Run()
	return err
}

// Session returns the driven session.
func (a *App) Session() *abacus.Session {
	return a.session
}

// Init implements tea.Model
func (a *App) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		return a, nil
	case tea.KeyMsg:
		return a.handleKey(msg)
	}
	return a, nil
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	a.status = ""

	switch {
	case key.Matches(msg, a.keys.Quit):
		return a, tea.Quit

	case key.Matches(msg, a.keys.ToggleHistory):
		a.showHistory = !a.showHistory
		a.cursor = 0
		return a, nil

	case key.Matches(msg, a.keys.ClearHistory):
		a.session.ClearHistory()
		a.cursor = 0
		a.persist()
		return a, nil
	}

	if a.showHistory {
		entries := a.session.History()
		switch {
		case key.Matches(msg, a.keys.Up):
			if a.cursor > 0 {
				a.cursor--
			}
			return a, nil
		case key.Matches(msg, a.keys.Down):
			if a.cursor < len(entries)-1 {
				a.cursor++
			}
			return a, nil
		case msg.Type == tea.KeyEnter:
			if err := a.session.SelectHistoryAt(a.cursor); err != nil {
				a.status = err.Error()
				return a, nil
			}
			a.showHistory = false
			a.persist()
			return a, nil
		}
	}

	var k domain.Key
	switch {
	case key.Matches(msg, a.keys.Equals):
		k = domain.Key{Kind: domain.KeyEquals}
	case key.Matches(msg, a.keys.Delete):
		k = domain.Key{Kind: domain.KeyDelete}
	case key.Matches(msg, a.keys.Clear):
		k = domain.Key{Kind: domain.KeyClear}
	default:
		var ok bool
		if k, ok = keypadKey(msg.String()); !ok {
			return a, nil
		}
	}

	if err := a.session.Press(a.ctx, k); err != nil {
		a.status = err.Error()
		return a, nil
	}
	a.persist()
	return a, nil
}

func (a *App) persist() {
	if a.save == nil {
		return
	}
	if err := a.save(a.ctx, a.session.State()); err != nil {
		a.status = fmt.Sprintf("save failed: %v", err)
	}
}

// View implements tea.Model
func (a *App) View() string {
	var sb strings.Builder

	buffer := a.session.Buffer()
	if buffer == "" {
		buffer = " "
	}
	preview := previewStyle.Render(a.session.Preview())
	if a.session.Err() != nil {
		preview = errorStyle.Render(a.session.Preview())
	}
	sb.WriteString(displayStyle.Render(bufferStyle.Render(buffer) + "\n" + preview))
	sb.WriteString("\n")

	if a.showHistory {
		sb.WriteString(historyTitleStyle.Render("History"))
		sb.WriteString("\n")
		entries := a.session.History()
		if len(entries) == 0 {
			sb.WriteString(historyItemStyle.Render("(empty)"))
			sb.WriteString("\n")
		}
		for i, e := range entries {
			line := fmt.Sprintf("%s = %s", e.Expression, e.Result)
			if i == a.cursor {
				sb.WriteString(historySelectedStyle.Render("> " + line))
			} else {
				sb.WriteString(historyItemStyle.Render(line))
			}
			sb.WriteString("\n")
		}
	}

	if a.status != "" {
		sb.WriteString(statusStyle.Render(a.status))
		sb.WriteString("\n")
	}

	help := "0-9 . + - * / ( ) • s c t sin cos tan • r √ • ^ x² • % • p π • enter = • ⌫ del • esc clear • h history • x clear history • q quit"
	if a.showHistory {
		help = "↑/↓: Navigate • Enter: Use result • x: Clear history • h: Close"
	}
	sb.WriteString(helpStyle.Render(help))
	return sb.String()
}
