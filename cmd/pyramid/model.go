package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"pyramid/internal/command"
	"pyramid/internal/orchestrator"
	"pyramid/internal/transcript"
)

type turnEventMsg struct {
	event orchestrator.Event
}

type turnDoneMsg struct {
	turn    orchestrator.Turn
	outcome orchestrator.Outcome
}

type model struct {
	app    *app
	ctx    context.Context
	cancel context.CancelFunc

	log    *strings.Builder
	sink   *transcript.Writer
	worker *turnWorker

	statusLine  string
	inflight    bool
	quitConfirm bool
	notice      string

	width  int
	height int

	input    textinput.Model
	timeline viewport.Model
	spinner  spinner.Model

	theme uiTheme
}

func newModel(ctx context.Context, a *app) model {
	input := textinput.New()
	input.Prompt = "❯ "
	input.CharLimit = 4000
	input.Placeholder = "Type your message here..."
	input.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Points
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#05ffa1"))

	timeline := viewport.New(0, 0)
	timeline.MouseWheelEnabled = true
	timeline.MouseWheelDelta = 4

	ctx, cancel := context.WithCancel(ctx)
	buf := &strings.Builder{}
	return model{
		app:        a,
		ctx:        ctx,
		cancel:     cancel,
		log:        buf,
		sink:       transcript.NewWriter(buf),
		statusLine: "ready",
		input:      input,
		timeline:   timeline,
		spinner:    sp,
		theme:      newTheme(),
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, textinput.Blink)
}

// waitTurnMsg delivers the worker's next event, then its outcome once the
// event channel is drained and closed.
func waitTurnMsg(w *turnWorker) tea.Cmd {
	if w == nil {
		return nil
	}
	return func() tea.Msg {
		event, ok := <-w.sink.Events()
		if ok {
			return turnEventMsg{event: event}
		}
		return turnDoneMsg{turn: w.turn, outcome: <-w.done}
	}
}

// submitChat starts a turn. The user message is recorded and echoed before
// the worker makes any request.
func (m *model) submitChat(text string) tea.Cmd {
	turn, ok := m.app.orch.Begin(text, m.sink)
	if !ok {
		return nil
	}
	m.inflight = true
	m.statusLine = fmt.Sprintf("asking %d agents...", len(m.app.agents))
	m.worker = m.app.startTurn(m.ctx, turn)
	m.renderPanes()
	return waitTurnMsg(m.worker)
}

func (m *model) quit() tea.Cmd {
	m.cancel()
	return tea.Quit
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	switch msg := msg.(type) {
	case turnEventMsg:
		msg.event.Replay(m.sink)
		if msg.event.Kind == orchestrator.EventAgentStarted {
			m.statusLine = "streaming " + msg.event.Agent + "..."
		}
		m.renderPanes()
		cmds = append(cmds, waitTurnMsg(m.worker))
	case turnDoneMsg:
		m.inflight = false
		m.worker = nil
		m.app.orch.Commit(msg.turn, msg.outcome, m.sink)
		switch {
		case msg.outcome.Cancelled:
			m.statusLine = "turn canceled"
		case msg.outcome.OK():
			m.statusLine = fmt.Sprintf("turn complete · %d/%d agents answered", len(msg.outcome.Succeeded), len(m.app.agents))
		default:
			m.statusLine = "all agents failed"
		}
		m.renderPanes()
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		m.renderPanes()
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)
	case tea.MouseMsg:
		if m.quitConfirm || m.notice != "" {
			break
		}
		var cmd tea.Cmd
		m.timeline, cmd = m.timeline.Update(msg)
		cmds = append(cmds, cmd)
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, m.quit()
		}
		if m.notice != "" {
			switch msg.String() {
			case "enter", "esc", " ":
				m.notice = ""
			}
			return m, nil
		}
		if m.quitConfirm {
			switch msg.String() {
			case "y", "Y", "enter":
				return m, m.quit()
			case "n", "N", "esc":
				m.quitConfirm = false
				m.statusLine = "quit canceled"
				m.renderPanes()
			}
			return m, nil
		}

		switch msg.String() {
		case "esc":
			m.beginQuitConfirm()
			return m, nil
		case "enter":
			raw := m.input.Value()
			if m.inflight && !allowedMidTurn(command.Parse(raw).Kind) {
				m.statusLine = "wait for the current turn to finish"
				return m, nil
			}
			m.input.SetValue("")
			return m, m.handleInput(raw)
		case "pgup", "ctrl+b":
			m.timeline.LineUp(8)
			return m, nil
		case "pgdown", "ctrl+f":
			m.timeline.LineDown(8)
			return m, nil
		case "up":
			if strings.TrimSpace(m.input.Value()) == "" {
				m.timeline.LineUp(4)
				return m, nil
			}
		case "down":
			if strings.TrimSpace(m.input.Value()) == "" {
				m.timeline.LineDown(4)
				return m, nil
			}
		case "home":
			m.timeline.GotoTop()
			return m, nil
		case "end":
			m.timeline.GotoBottom()
			return m, nil
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		cmds = append(cmds, cmd)
	}
	return m, tea.Batch(cmds...)
}

// allowedMidTurn reports whether kind may run while a turn is streaming.
// Chat would start a second turn and load would replace state the running
// turn is about to commit into.
func allowedMidTurn(kind command.Kind) bool {
	switch kind {
	case command.Chat, command.Load:
		return false
	}
	return true
}

// handleInput runs one line typed into the input box.
func (m *model) handleInput(raw string) tea.Cmd {
	cmd := command.Parse(raw)
	switch cmd.Kind {
	case command.None:
		return nil
	case command.Exit:
		return m.quit()
	case command.History:
		styles := m.theme.history
		styles.Width = m.timeline.Width
		m.sink.Info(m.app.historyView(styles))
		m.statusLine = "history"
	case command.Clear:
		m.log.Reset()
		m.statusLine = "transcript cleared"
	case command.Save:
		path, err := m.app.saveConversation("")
		if err != nil {
			m.reportError(saveErrorMessage(err))
			break
		}
		m.sink.Info(savedMessage(path))
		m.statusLine = "saved " + path
	case command.Load:
		snap, err := m.app.loadConversation(cmd.Text)
		if err != nil {
			m.reportError(loadErrorMessage(err))
			break
		}
		for _, line := range loadedMessages(cmd.Text, snap) {
			m.sink.Info(line)
		}
		m.statusLine = "loaded " + cmd.Text
	case command.Chat:
		return m.submitChat(cmd.Text)
	}
	m.renderPanes()
	return nil
}

// reportError writes message to the transcript and blocks input until the
// user dismisses it.
func (m *model) reportError(message string) {
	m.sink.Info(message)
	m.notice = message
	m.statusLine = "error: " + compactSingleLine(message, 160)
}

func (m *model) beginQuitConfirm() {
	m.quitConfirm = true
	m.statusLine = "ARE YOU SURE YOU WANT TO QUIT?"
}

func (m model) View() string {
	header := m.renderHeader()
	content := m.renderContent()
	input := m.renderInput()
	footer := m.renderFooter()
	out := lipgloss.JoinVertical(lipgloss.Left, header, content, input, footer)
	switch {
	case m.notice != "":
		out = m.renderNoticeModal()
	case m.quitConfirm:
		out = m.renderQuitModal()
	}
	return m.theme.root.Render(out)
}

func (m *model) renderHeader() string {
	segments := []string{m.theme.banner.Render(transcript.Banner)}
	for _, spec := range m.app.agents {
		segments = append(segments, m.theme.agentTag.Render(spec.DisplayName))
	}
	contextLen, historyLen := m.app.state.Len()
	segments = append(segments, m.theme.helpText.Render(fmt.Sprintf(" context %d · history %d", contextLen, historyLen)))
	joined := lipgloss.JoinHorizontal(lipgloss.Left, segments...)
	return m.theme.header.Width(maxInt(20, m.width-4)).Render(joined)
}

func (m *model) renderContent() string {
	contentHeight := maxInt(8, m.height-12)
	contentWidth := maxInt(40, m.width-4)
	return m.theme.panel.Width(contentWidth).Height(contentHeight).Render(
		m.theme.panelTitle.Render("Transcript") + "\n" + m.timeline.View(),
	)
}

func (m *model) renderInput() string {
	contentWidth := maxInt(40, m.width-4)
	inputView := m.input.View()
	if m.inflight {
		inputView = m.spinner.View() + " processing... " + inputView
	}
	return m.theme.inputPanel.Width(contentWidth).Render(inputView)
}

func (m *model) renderFooter() string {
	contentWidth := maxInt(40, m.width-4)
	lower := strings.ToLower(m.statusLine)
	statusStyle := ternary(strings.Contains(lower, "failed") || strings.Contains(lower, "error"), m.theme.errorStatus, m.theme.status)
	line := statusStyle.Render(compactSingleLine(m.statusLine, 180))
	hints := m.theme.helpText.Render("Enter send · h history · save · load <file> · clear · exit · PgUp/PgDn or Up/Down (input empty) scroll · Esc quit prompt · Ctrl+C quit")
	return m.theme.footer.Width(contentWidth).Render(line + "\n" + hints)
}

func (m *model) renderQuitModal() string {
	title := m.theme.errorStatus.Render("LEAVE THE CONFERENCE?")
	subtitle := m.theme.helpText.Render("Are you sure you want to quit?")
	prompt := m.theme.pick.Render("[Y / Enter] Quit") + "    " + m.theme.helpText.Render("[N / Esc] Return")
	note := "Unsaved conversation is discarded. Type save first to keep it."
	if m.inflight {
		note = "The running turn will be canceled and not recorded."
	}
	return m.placeModal(m.theme.modal, strings.Join([]string{
		title,
		subtitle,
		"",
		m.theme.accent.Render("========================================"),
		m.theme.helpText.Render(note),
		m.theme.accent.Render("========================================"),
		"",
		prompt,
	}, "\n"))
}

func (m *model) renderNoticeModal() string {
	return m.placeModal(m.theme.errorModal, strings.Join([]string{
		m.theme.errorStatus.Render("SOMETHING WENT WRONG"),
		"",
		m.notice,
		"",
		m.theme.helpText.Render("[Enter / Esc] Dismiss"),
	}, "\n"))
}

func (m *model) placeModal(frame lipgloss.Style, body string) string {
	canvasWidth := maxInt(40, m.width-4)
	canvasHeight := maxInt(12, m.height-4)
	modalWidth := clampInt(int(float64(canvasWidth)*0.56), 42, 78)
	if modalWidth > canvasWidth-2 {
		modalWidth = canvasWidth - 2
	}
	return lipgloss.Place(
		canvasWidth,
		canvasHeight,
		lipgloss.Center,
		lipgloss.Center,
		frame.Width(modalWidth).Render(body),
		lipgloss.WithWhitespaceBackground(m.theme.canvas),
	)
}

func (m *model) renderPanes() {
	prevYOffset := m.timeline.YOffset
	prevAtBottom := m.timeline.AtBottom()

	contentHeight := maxInt(8, m.height-12)
	contentWidth := maxInt(40, m.width-4)
	m.timeline.Width = maxInt(20, contentWidth-4)
	m.timeline.Height = maxInt(5, contentHeight-1)

	m.timeline.SetContent(m.renderTimeline())
	if prevAtBottom {
		m.timeline.GotoBottom()
	} else {
		m.timeline.SetYOffset(prevYOffset)
	}
}

func (m *model) resize() {
	contentWidth := maxInt(40, m.width-4)
	m.input.Width = maxInt(20, contentWidth-6)
}

func (m *model) renderTimeline() string {
	text := strings.TrimLeft(m.log.String(), "\n")
	if strings.TrimSpace(text) == "" {
		return m.theme.helpText.Render("No messages yet. Type a message to ask every agent in turn.")
	}
	var b strings.Builder
	for i, line := range strings.Split(text, "\n") {
		if i > 0 {
			b.WriteString("\n")
		}
		style := m.theme.line[transcript.Classify(line)]
		for j, sub := range wrapText(line, maxInt(24, m.timeline.Width-2)) {
			if j > 0 {
				b.WriteString("\n")
			}
			b.WriteString(style.Render(sub))
		}
	}
	return b.String()
}
