package tui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Iron-Ham/askuser/internal/answer"
	"github.com/Iron-Ham/askuser/internal/errors"
	"github.com/Iron-Ham/askuser/internal/event"
	"github.com/Iron-Ham/askuser/internal/logging"
	"github.com/Iron-Ham/askuser/internal/tui/form"
	"github.com/Iron-Ham/askuser/internal/tui/keymap"
	"github.com/Iron-Ham/askuser/internal/tui/styles"
	"github.com/Iron-Ham/askuser/internal/tui/view"
)

// inputCharLimit bounds custom answers and notes.
const inputCharLimit = 500

// Banners shown when the session changes underneath the UI.
const (
	bannerRemoved = "This session was removed. Answers can no longer be saved."
	bannerExpired = "This session expired. Restart to answer again."
)

// Options configures a Model.
type Options struct {
	Styles *styles.Styles
	Keymap *keymap.Keymap
	Logger *logging.Logger
	// Context is passed to commits; nil means context.Background.
	Context context.Context
}

// Model is the bubbletea model of the question UI. It owns no session
// state of its own: every decision is delegated to the form machine.
type Model struct {
	machine *form.Machine
	styles  *styles.Styles
	keymap  *keymap.Keymap
	logger  *logging.Logger
	ctx     context.Context

	input        textinput.Model
	questionView *view.QuestionView
	reviewView   *view.ReviewView
	helpBar      *view.HelpBarView

	width    int
	height   int
	errorMsg string
	banner   string
	showHelp bool

	quitting bool
	aborted  bool
	result   map[int]answer.Answer
}

// NewModel creates a Model driving machine.
func NewModel(machine *form.Machine, opts Options) Model {
	if opts.Styles == nil {
		opts.Styles = styles.New(nil)
	}
	if opts.Keymap == nil {
		opts.Keymap = keymap.DefaultKeymap()
	}
	if opts.Logger == nil {
		opts.Logger = logging.NopLogger()
	}
	if opts.Context == nil {
		opts.Context = context.Background()
	}

	ti := textinput.New()
	ti.CharLimit = inputCharLimit
	ti.Width = 60
	ti.Prompt = ""

	return Model{
		machine:      machine,
		styles:       opts.Styles,
		keymap:       opts.Keymap,
		logger:       opts.Logger.WithSession(machine.Snapshot().SessionID),
		ctx:          opts.Context,
		input:        ti,
		questionView: view.NewQuestionView(opts.Styles),
		reviewView:   view.NewReviewView(opts.Styles),
		helpBar:      view.NewHelpBarView(opts.Styles),
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Result returns the submitted answers, or nil if the user quit first.
func (m Model) Result() map[int]answer.Answer {
	return m.result
}

// Aborted reports whether the user quit without submitting.
func (m Model) Aborted() bool {
	return m.aborted
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if msg.Width > 10 {
			m.input.Width = min(60, msg.Width-10)
		}
		return m, nil

	case SessionEventMsg:
		m.handleSessionEvent(msg.Event)
		return m, nil

	case tea.KeyMsg:
		m.errorMsg = ""
		return m.handleKeypress(msg)
	}

	if m.mode() == keymap.ModeInput {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

// mode derives the keymap mode from the machine state.
func (m Model) mode() keymap.Mode {
	st := m.machine.Snapshot()
	switch {
	case st.ShowReview:
		return keymap.ModeReview
	case st.Focus != form.FocusOption:
		return keymap.ModeInput
	default:
		return keymap.ModeQuestion
	}
}

func (m Model) handleKeypress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	mode := m.mode()
	cmd, ok := m.keymap.GetBinding(msg, mode)
	if !ok {
		if mode == keymap.ModeInput {
			var inputCmd tea.Cmd
			m.input, inputCmd = m.input.Update(msg)
			return m, inputCmd
		}
		return m, nil
	}

	switch cmd {
	case keymap.CmdQuit, keymap.CmdForceQuit:
		m.quitting = true
		m.aborted = true
		return m, tea.Quit

	case keymap.CmdToggleHelp:
		m.showHelp = !m.showHelp

	case keymap.CmdMoveUp:
		m.machine.MoveUp()

	case keymap.CmdMoveDown:
		m.machine.MoveDown()

	case keymap.CmdSelect:
		m.setError(m.machine.Select())

	case keymap.CmdConfirm:
		m.setError(m.machine.Confirm(m.ctx))

	case keymap.CmdCustom:
		if err := m.machine.BeginCustom(); err != nil {
			m.setError(err)
			return m, nil
		}
		focusCmd := m.focusInput()
		return m, focusCmd

	case keymap.CmdElaborate:
		if err := m.machine.BeginElaborate(); err != nil {
			m.setError(err)
			return m, nil
		}
		focusCmd := m.focusInput()
		return m, focusCmd

	case keymap.CmdSubmitInput:
		m.setError(m.machine.SubmitInput(m.input.Value()))
		m.blurInput()

	case keymap.CmdCancelInput:
		m.machine.CancelInput()
		m.blurInput()

	case keymap.CmdNextQuestion:
		m.machine.NextQuestion()

	case keymap.CmdPrevQuestion:
		m.machine.PrevQuestion()

	case keymap.CmdReview:
		m.setError(m.machine.RequestReview())

	case keymap.CmdEditQuestion:
		m.setError(m.machine.JumpToHighlighted())

	case keymap.CmdJumpToQuestion:
		if len(msg.Runes) > 0 {
			m.setError(m.machine.JumpTo(int(msg.Runes[0] - '1')))
		}

	case keymap.CmdBack:
		m.setError(m.machine.JumpTo(m.machine.Snapshot().CurrentQuestion))

	case keymap.CmdSubmit:
		answers, err := m.machine.Submit(m.ctx)
		if err != nil {
			m.setError(err)
			return m, nil
		}
		m.logger.Info("answers submitted", "answered", len(answers))
		m.result = answers
		m.quitting = true
		return m, tea.Quit
	}

	return m, nil
}

func (m *Model) focusInput() tea.Cmd {
	m.input.SetValue(m.machine.InputValue())
	m.input.CursorEnd()
	return m.input.Focus()
}

func (m *Model) blurInput() {
	m.input.Blur()
	m.input.SetValue("")
}

// setError shows err in the error line. Local rejections show their own
// text; failures from the session layer show the user-facing message.
func (m *Model) setError(err error) {
	switch {
	case err == nil:
		return
	case form.IsRejection(err):
		m.errorMsg = err.Error()
	default:
		m.logger.Warn("session operation failed", "error", err)
		m.errorMsg = errors.UserMessage(err)
	}
}

func (m *Model) handleSessionEvent(e event.Event) {
	switch ev := e.(type) {
	case event.SessionChangedEvent:
		if ev.Op == event.ChangeRemoved && !m.machine.Snapshot().Completed {
			m.banner = bannerRemoved
		}
	case event.SessionDeletedEvent:
		m.banner = bannerRemoved
	case event.SessionExpiredEvent:
		m.banner = bannerExpired
	}
}

// View implements tea.Model.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	st := m.machine.Snapshot()
	var b strings.Builder

	if banner := view.RenderBanner(m.styles, m.banner); banner != "" {
		b.WriteString(banner)
		b.WriteString("\n\n")
	}

	var content string
	if st.ShowReview {
		content = m.reviewView.Render(m.machine.Questions(), st)
	} else {
		content = m.questionView.Render(m.machine.Question(), st, m.input.View())
	}
	box := m.styles.ContentBox
	if m.width > 4 {
		box = box.Width(m.width - 4)
	}
	b.WriteString(box.Render(strings.TrimRight(content, "\n")))
	b.WriteString("\n")

	if errLine := view.RenderError(m.styles, m.errorMsg); errLine != "" {
		b.WriteString(errLine)
		b.WriteString("\n")
	}

	entries := m.keymap.Help(m.mode())
	if m.showHelp {
		b.WriteString(m.helpBar.RenderFull(entries))
	} else {
		b.WriteString(m.helpBar.Render(entries))
		b.WriteString("\n")
	}

	return lipgloss.NewStyle().Padding(0, 1).Render(b.String())
}
