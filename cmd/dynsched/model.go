package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/benjamonnguyen/dynsched"
)

const logo = `
	█▀▄ █▄█ █▄ █ █▀ █▀▀ █ █ █▀▀ █▀▄
	█▄▀  █  █ ▀█ ▄█ █▄▄ █▀█ ██▄ █▄▀`

// maximum number of output entries kept in the viewport
const maxHistory = 200

type model struct {
	// children
	vp        viewport.Model
	userinput textinput.Model
	spinner   spinner.Model

	// supplied
	l   dynsched.Logger
	app *app

	// state
	history  []string
	alerts   []string
	inFlight map[int]string
	nextID   int
	quitting bool
	h        int

	// configuration
	cmdTimeout time.Duration
}

func newModel(l dynsched.Logger, a *app, cmdTimeout time.Duration) model {
	userinput := textinput.New()
	userinput.Focus()
	userinput.CharLimit = 280
	userinput.Placeholder = "/h for help"
	userinput.PromptStyle = accentStyle

	return model{
		vp:         viewport.New(0, 0),
		userinput:  userinput,
		spinner:    spinner.New(spinner.WithSpinner(spinner.MiniDot), spinner.WithStyle(accentStyle)),
		l:          l,
		app:        a,
		inFlight:   make(map[int]string),
		cmdTimeout: cmdTimeout,
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var tiCmd, vpCmd, spCmd, cmd tea.Cmd

	m, cmd = m.updateParent(msg)

	// update children

	m.userinput, tiCmd = m.userinput.Update(msg)
	m.spinner, spCmd = m.spinner.Update(msg)

	switch msg.(type) {
	case tea.KeyMsg:
		// vp updates on KeyMsg cause view flickering
	default:
		m.vp, vpCmd = m.vp.Update(msg)
	}

	return m, tea.Batch(tiCmd, vpCmd, spCmd, cmd)
}

func (m model) updateParent(msg tea.Msg) (model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.h = msg.Height
		m.userinput.Width = msg.Width
		m.vp.Width = msg.Width
		m.resizeViewport()
		return m, nil
	case ResultMsg:
		delete(m.inFlight, msg.id)
		m.handleResult(msg)
		m.refresh()
		return m, nil
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyEnter:
			input := strings.TrimSpace(m.userinput.Value())
			m.userinput.Reset()
			if input == "" {
				return m, nil
			}

			m.alerts = nil
			var cmd tea.Cmd
			m, cmd = m.handleInput(input)
			m.refresh()
			return m, cmd
		case tea.KeyCtrlC:
			m.quitting = true
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m model) handleInput(input string) (model, tea.Cmd) {
	if !strings.HasPrefix(input, "/") {
		m.addAlert("commands start with /, enter /h for help", colorYellow)
		return m, nil
	}

	name, _ := splitCommand(input)
	switch name {
	case "/q":
		m.quitting = true
		return m, tea.Quit
	case "/h":
		m.addAlert(commandHelp, colorYellow)
		return m, nil
	}

	m.nextID++
	id := m.nextID
	m.inFlight[id] = name
	m.appendHistory(faintStyle.Render("> " + redactInput(input)))

	return m, func() tea.Msg {
		timeout, cancel := m.newTimeout()
		defer cancel()
		return ResultMsg{
			id:    id,
			input: input,
			res:   m.app.run(timeout, input),
		}
	}
}

func (m *model) handleResult(msg ResultMsg) {
	if msg.res.err == nil {
		m.appendHistory(msg.res.output)
		return
	}

	m.l.Debug("command failed", "cmd", redactInput(msg.input), "error", msg.res.err)
	m.appendHistory(colorize(colorRed, dynsched.Message(msg.res.err)))
	if to, ok := dynsched.RedirectTarget(msg.res.err); ok && to == dynsched.LoginRoute {
		m.addAlert("/login <username> <password> to continue", colorCyan)
	}
}

// redactInput hides passwords before echoing or logging a command.
func redactInput(input string) string {
	name, arg := splitCommand(input)
	fields := strings.Fields(arg)
	switch {
	case name == "/login" && len(fields) >= 2:
		fields[1] = "****"
	case name == "/register" && len(fields) >= 3:
		fields[2] = "****"
	default:
		return input
	}
	return name + " " + strings.Join(fields, " ")
}

func (m *model) appendHistory(entry string) {
	m.history = append(m.history, entry)
	if len(m.history) > maxHistory {
		m.history = m.history[len(m.history)-maxHistory:]
	}
}

func (m *model) addAlert(alert string, c string) {
	m.alerts = append(m.alerts, colorize(c, alert))
}

func (m *model) refresh() {
	m.vp.SetContent(strings.Join(m.history, "\n"))
	m.resizeViewport()
}

func (m model) renderHeader() string {
	var status string
	switch {
	case m.app.sessions.Loading():
		status = faintStyle.Render("checking session...")
	case m.app.sessions.IsAuthenticated():
		u, _ := m.app.sessions.CurrentUser()
		status = "logged in as " + accentStyle.Render(u.DisplayName())
	default:
		status = colorize(colorYellow, "not logged in: /login <username> <password> or /register")
	}
	return faintStyle.Render(logo) + "\n\n" + status + "\n"
}

func (m model) renderFooter() string {
	if m.quitting {
		return ""
	}

	var footer strings.Builder
	footer.WriteRune('\n')
	footer.WriteString(m.userinput.View())
	footer.WriteString("\n\n")

	showQuit := true
	if n := len(m.inFlight); n > 0 {
		footer.WriteString(fmt.Sprintf("%s %d pending", m.spinner.View(), n))
		footer.WriteString("\n\n")
		showQuit = false
	}

	if len(m.alerts) > 0 {
		footer.WriteString(strings.Join(m.alerts, "\n"))
		footer.WriteString("\n\n")
		showQuit = false
	}

	if showQuit {
		footer.WriteString(faintStyle.Render("(ctrl+c or /q to quit)"))
		footer.WriteRune('\n')
	}

	return footer.String()
}

func (m model) View() string {
	return lipgloss.JoinVertical(0, m.renderHeader(), m.vp.View(), m.renderFooter())
}

func (m model) newTimeout() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), m.cmdTimeout)
}

func (m *model) resizeViewport() {
	contentHeight := lipgloss.Height(strings.Join(m.history, "\n"))
	available := m.h - lipgloss.Height(m.renderHeader()) - lipgloss.Height(m.renderFooter())
	m.vp.Height = max(0, min(contentHeight, available))
	m.vp.GotoBottom()
}
