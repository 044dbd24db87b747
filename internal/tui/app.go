package tui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Iron-Ham/askuser/internal/answer"
	"github.com/Iron-Ham/askuser/internal/errors"
	"github.com/Iron-Ham/askuser/internal/event"
)

// ErrAborted is returned by Run when the user quits without submitting.
var ErrAborted = errors.New("question session aborted")

// App wraps the Bubbletea program
type App struct {
	program   *tea.Program
	model     Model
	bus       *event.Bus
	sessionID string
	options   []tea.ProgramOption
}

// New creates a new TUI application. Events for sessionID published on bus
// are forwarded to the model while it runs; bus may be nil.
func New(model Model, bus *event.Bus, sessionID string, opts ...tea.ProgramOption) *App {
	if len(opts) == 0 {
		opts = []tea.ProgramOption{tea.WithAltScreen()}
	}
	return &App{
		model:     model,
		bus:       bus,
		sessionID: sessionID,
		options:   opts,
	}
}

// Run starts the TUI and blocks until the answers are submitted or the
// user quits.
func (a *App) Run() (map[int]answer.Answer, error) {
	a.program = tea.NewProgram(a.model, a.options...)

	if a.bus != nil {
		subID := a.bus.SubscribeSession(a.sessionID, a.forward(a.program.Send))
		defer a.bus.Unsubscribe(subID)
	}

	final, err := a.program.Run()
	if err != nil {
		return nil, fmt.Errorf("TUI error: %w", err)
	}

	m, ok := final.(Model)
	if !ok || m.Aborted() || m.Result() == nil {
		return nil, ErrAborted
	}
	return m.Result(), nil
}

// forward returns a bus handler sending relevant events to the program.
// Events may be published from inside the update loop, so sending happens
// on its own goroutine.
func (a *App) forward(send func(tea.Msg)) event.Handler {
	return func(e event.Event) {
		if !forwarded(e) {
			return
		}
		go send(SessionEventMsg{Event: e})
	}
}
