// Package form implements the question/answer state machine behind the
// terminal UI. It tracks the current question, the focus context, staged
// drafts and review mode, and hands finalized answers to a Committer at
// commit points. It has no rendering or terminal dependencies.
package form

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/Iron-Ham/askuser/internal/answer"
	"github.com/Iron-Ham/askuser/internal/errors"
)

// Errors reported by state machine operations. They are local UI rejections;
// the machine state is unchanged when one is returned.
var (
	ErrAnswerRequired    = errors.New("this question needs an answer")
	ErrTooManySelections = errors.New("too many options selected")
	ErrNotAllowed        = errors.New("not available for this question")
	ErrNothingSelected   = errors.New("select an option before adding a note")
	ErrUnanswered        = errors.New("answer the remaining questions first")
	ErrNotInReview       = errors.New("review your answers before submitting")
	ErrSubmitted         = errors.New("answers were already submitted")
	ErrNoInput           = errors.New("no input is being edited")
)

// IsRejection reports whether err is one of the machine's local rejections
// rather than a failure from the Committer.
func IsRejection(err error) bool {
	for _, target := range []error{
		ErrAnswerRequired, ErrTooManySelections, ErrNotAllowed, ErrNothingSelected,
		ErrUnanswered, ErrNotInReview, ErrSubmitted, ErrNoInput,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// Focus is the control currently receiving input.
type Focus int

const (
	FocusOption Focus = iota
	FocusCustomInput
	FocusElaborateInput
)

func (f Focus) String() string {
	switch f {
	case FocusOption:
		return "option"
	case FocusCustomInput:
		return "custom-input"
	case FocusElaborateInput:
		return "elaborate-input"
	default:
		return "unknown"
	}
}

// Config carries the selection limits. Zero disables a limit.
type Config struct {
	// MaxOptions rejects multi-select selections beyond this count.
	MaxOptions int
	// RecommendedOptions flags multi-select selections beyond this count.
	RecommendedOptions int
}

// Committer persists answers. *session.Manager satisfies it.
type Committer interface {
	CommitAnswer(ctx context.Context, sessionID string, index int, a answer.Answer) error
	ClearAnswer(ctx context.Context, sessionID string, index int) error
	Complete(ctx context.Context, sessionID string) error
}

// State is a snapshot of the machine after an input event.
type State struct {
	SessionID       string
	CurrentQuestion int
	QuestionCount   int
	// Answers holds committed answers by question index.
	Answers map[int]answer.Answer
	// ElaborationMarks holds staged notes by question index.
	ElaborationMarks map[int]string
	Focus            Focus
	// FocusedOption is -1 unless Focus is FocusOption and the question has options.
	FocusedOption int
	ShowReview    bool
	// ReviewIndex is the highlighted question while reviewing.
	ReviewIndex int
	// Draft is the staged answer of the current question.
	Draft answer.Answer
	// OverRecommended is set while the current draft selects more options
	// than recommended.
	OverRecommended bool
	Completed       bool
}

// draft is the local, uncommitted answer of one question.
type draft struct {
	selected    []string
	custom      string
	elaboration string
}

// Machine is the per-session UI state machine. It is not safe for
// concurrent use; the terminal UI drives it from its update loop.
type Machine struct {
	sessionID string
	questions []answer.Question
	cfg       Config
	committer Committer

	current     int
	drafts      []draft
	committed   map[int]answer.Answer
	focus       Focus
	focused     int
	showReview  bool
	reviewIndex int
	completed   bool
}

// New creates a machine positioned on the first question. questions must
// not be empty.
func New(sessionID string, questions []answer.Question, cfg Config, committer Committer) *Machine {
	return &Machine{
		sessionID: sessionID,
		questions: slices.Clone(questions),
		cfg:       cfg,
		committer: committer,
		drafts:    make([]draft, len(questions)),
		committed: make(map[int]answer.Answer),
	}
}

// Restore seeds the machine with previously committed answers and moves to
// question current, entering review if asked and allowed.
func (m *Machine) Restore(answers map[int]answer.Answer, current int, review bool) {
	for i, a := range answers {
		if i < 0 || i >= len(m.questions) {
			continue
		}
		m.committed[i] = a.Clone()
		m.drafts[i] = draftFrom(a)
	}
	if current >= 0 && current < len(m.questions) {
		m.enter(current)
	}
	if review && len(m.missing()) == 0 {
		m.showReview = true
		m.reviewIndex = m.current
	}
}

// Questions returns the questions in order.
func (m *Machine) Questions() []answer.Question {
	return m.questions
}

// Question returns the current question.
func (m *Machine) Question() answer.Question {
	return m.questions[m.current]
}

// Snapshot returns the current state.
func (m *Machine) Snapshot() State {
	st := State{
		SessionID:        m.sessionID,
		CurrentQuestion:  m.current,
		QuestionCount:    len(m.questions),
		Answers:          make(map[int]answer.Answer, len(m.committed)),
		ElaborationMarks: make(map[int]string),
		Focus:            m.focus,
		FocusedOption:    -1,
		ShowReview:       m.showReview,
		ReviewIndex:      m.reviewIndex,
		Completed:        m.completed,
	}
	for i, a := range m.committed {
		st.Answers[i] = a.Clone()
	}
	for i, d := range m.drafts {
		if d.elaboration != "" {
			st.ElaborationMarks[i] = d.elaboration
		}
	}
	if len(m.questions) == 0 {
		return st
	}
	if m.focus == FocusOption && len(m.Question().Options) > 0 {
		st.FocusedOption = m.focused
	}
	st.Draft = m.draftAnswer(m.current)
	st.OverRecommended = m.overRecommended()
	return st
}

// MoveUp moves the option focus, or the review highlight, up by one.
func (m *Machine) MoveUp() {
	m.move(-1)
}

// MoveDown moves the option focus, or the review highlight, down by one.
func (m *Machine) MoveDown() {
	m.move(1)
}

func (m *Machine) move(delta int) {
	if m.completed {
		return
	}
	if m.showReview {
		m.reviewIndex = clamp(m.reviewIndex+delta, 0, len(m.questions)-1)
		return
	}
	if m.focus != FocusOption {
		return
	}
	if n := len(m.Question().Options); n > 0 {
		m.focused = clamp(m.focused+delta, 0, n-1)
	}
}

// Select applies the focused option to the draft. Single-select questions
// replace the selection; multi-select questions toggle it. Selecting an
// option discards staged custom text.
func (m *Machine) Select() error {
	if err := m.editable(); err != nil {
		return err
	}
	if m.focus != FocusOption {
		return ErrNotAllowed
	}
	q := m.Question()
	if len(q.Options) == 0 {
		return ErrNotAllowed
	}

	d := &m.drafts[m.current]
	label := q.Options[m.focused].Label

	if !q.MultiSelect {
		if !slices.Equal(d.selected, []string{label}) {
			d.elaboration = ""
		}
		d.selected = []string{label}
		d.custom = ""
		return nil
	}

	if i := slices.Index(d.selected, label); i >= 0 {
		d.selected = slices.Delete(d.selected, i, i+1)
		if len(d.selected) == 0 {
			d.elaboration = ""
		}
		return nil
	}
	if m.cfg.MaxOptions > 0 && len(d.selected) >= m.cfg.MaxOptions {
		return fmt.Errorf("%w: pick at most %d", ErrTooManySelections, m.cfg.MaxOptions)
	}
	d.selected = append(d.selected, label)
	slices.SortFunc(d.selected, func(a, b string) int {
		return q.OptionIndex(a) - q.OptionIndex(b)
	})
	d.custom = ""
	return nil
}

// BeginCustom moves focus to the free-text input.
func (m *Machine) BeginCustom() error {
	if err := m.editable(); err != nil {
		return err
	}
	if !m.Question().AllowCustom {
		return ErrNotAllowed
	}
	m.focus = FocusCustomInput
	return nil
}

// BeginElaborate moves focus to the note input for the current selection.
func (m *Machine) BeginElaborate() error {
	if err := m.editable(); err != nil {
		return err
	}
	if !m.Question().AllowCustom {
		return ErrNotAllowed
	}
	if len(m.drafts[m.current].selected) == 0 {
		return ErrNothingSelected
	}
	m.focus = FocusElaborateInput
	return nil
}

// InputValue returns the staged text for the input that has focus.
func (m *Machine) InputValue() string {
	if len(m.questions) == 0 {
		return ""
	}
	d := m.drafts[m.current]
	switch m.focus {
	case FocusCustomInput:
		return d.custom
	case FocusElaborateInput:
		return d.elaboration
	default:
		return ""
	}
}

// SubmitInput stages text from the focused input and returns focus to the
// options. Non-empty custom text replaces any selection.
func (m *Machine) SubmitInput(text string) error {
	if m.completed {
		return ErrSubmitted
	}
	text = strings.TrimSpace(text)
	d := &m.drafts[m.current]

	switch m.focus {
	case FocusCustomInput:
		d.custom = text
		if text != "" {
			d.selected = nil
			d.elaboration = ""
		}
	case FocusElaborateInput:
		d.elaboration = text
	default:
		return ErrNoInput
	}
	m.focus = FocusOption
	return nil
}

// CancelInput discards the text being edited and returns focus to the options.
func (m *Machine) CancelInput() {
	m.focus = FocusOption
}

// Confirm commits the current draft and advances. After the last question
// the machine enters review, or returns to the first unanswered required
// question. An optional question left blank advances without a commit, and
// its previously committed answer is cleared.
func (m *Machine) Confirm(ctx context.Context) error {
	if err := m.editable(); err != nil {
		return err
	}
	if m.focus != FocusOption {
		return ErrNotAllowed
	}

	a := m.draftAnswer(m.current)
	if a.IsEmpty() {
		if m.Question().Required() {
			return ErrAnswerRequired
		}
		if _, ok := m.committed[m.current]; ok {
			if err := m.committer.ClearAnswer(ctx, m.sessionID, m.current); err != nil {
				return err
			}
			delete(m.committed, m.current)
		}
	} else {
		if err := m.committer.CommitAnswer(ctx, m.sessionID, m.current, a); err != nil {
			return err
		}
		m.committed[m.current] = a
	}

	if m.current < len(m.questions)-1 {
		m.enter(m.current + 1)
		return nil
	}
	if missing := m.missing(); len(missing) > 0 {
		m.enter(missing[0])
		return nil
	}
	m.showReview = true
	m.reviewIndex = m.current
	return nil
}

// NextQuestion moves to the next question without committing.
func (m *Machine) NextQuestion() {
	if m.completed || m.showReview || m.current >= len(m.questions)-1 {
		return
	}
	m.enter(m.current + 1)
}

// PrevQuestion moves to the previous question without committing.
func (m *Machine) PrevQuestion() {
	if m.completed || m.showReview || m.current == 0 {
		return
	}
	m.enter(m.current - 1)
}

// RequestReview enters review mode. Every required question must have a
// committed answer.
func (m *Machine) RequestReview() error {
	if m.completed {
		return ErrSubmitted
	}
	if missing := m.missing(); len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrUnanswered, formatIndices(missing))
	}
	m.showReview = true
	m.focus = FocusOption
	m.reviewIndex = m.current
	return nil
}

// JumpTo leaves review mode and moves to question i.
func (m *Machine) JumpTo(i int) error {
	if m.completed {
		return ErrSubmitted
	}
	if i < 0 || i >= len(m.questions) {
		return fmt.Errorf("%w: no question %d", ErrNotAllowed, i+1)
	}
	m.showReview = false
	m.enter(i)
	return nil
}

// JumpToHighlighted leaves review mode at the highlighted question.
func (m *Machine) JumpToHighlighted() error {
	if !m.showReview {
		return ErrNotInReview
	}
	return m.JumpTo(m.reviewIndex)
}

// Submit completes the session from review mode and returns the final
// answers. It succeeds at most once.
func (m *Machine) Submit(ctx context.Context) (map[int]answer.Answer, error) {
	if m.completed {
		return nil, ErrSubmitted
	}
	if !m.showReview {
		return nil, ErrNotInReview
	}
	if err := m.committer.Complete(ctx, m.sessionID); err != nil {
		return nil, err
	}
	m.completed = true
	return m.Snapshot().Answers, nil
}

// enter moves to question i with focus on its first selected option.
func (m *Machine) enter(i int) {
	m.current = i
	m.focus = FocusOption
	m.focused = 0
	q := m.questions[i]
	if sel := m.drafts[i].selected; len(sel) > 0 {
		if idx := q.OptionIndex(sel[0]); idx >= 0 {
			m.focused = idx
		}
	}
}

func (m *Machine) editable() error {
	if m.completed {
		return ErrSubmitted
	}
	if m.showReview {
		return ErrNotAllowed
	}
	return nil
}

// draftAnswer converts the staged draft of question i into an Answer.
func (m *Machine) draftAnswer(i int) answer.Answer {
	d := m.drafts[i]
	q := m.questions[i]
	if d.custom != "" {
		return answer.Answer{CustomText: d.custom}
	}
	var a answer.Answer
	switch {
	case len(d.selected) == 0:
		return a
	case q.MultiSelect:
		a.SelectedOptions = slices.Clone(d.selected)
	default:
		a.SelectedOption = d.selected[0]
	}
	a.Elaboration = d.elaboration
	return a
}

func (m *Machine) overRecommended() bool {
	q := m.Question()
	return q.MultiSelect && m.cfg.RecommendedOptions > 0 &&
		len(m.drafts[m.current].selected) > m.cfg.RecommendedOptions
}

// missing returns required questions without a committed answer.
func (m *Machine) missing() []int {
	var out []int
	for i, q := range m.questions {
		if _, ok := m.committed[i]; q.Required() && !ok {
			out = append(out, i)
		}
	}
	return out
}

func draftFrom(a answer.Answer) draft {
	d := draft{custom: a.CustomText, elaboration: a.Elaboration}
	switch {
	case a.SelectedOption != "":
		d.selected = []string{a.SelectedOption}
	case len(a.SelectedOptions) > 0:
		d.selected = slices.Clone(a.SelectedOptions)
	}
	return d
}

func formatIndices(indices []int) string {
	parts := make([]string, len(indices))
	for i, idx := range indices {
		parts[i] = fmt.Sprintf("%d", idx+1)
	}
	return "question " + strings.Join(parts, ", ")
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}

// Answers returns a copy of the committed answers.
func (m *Machine) Answers() map[int]answer.Answer {
	return m.Snapshot().Answers
}
