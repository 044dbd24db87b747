package view

import (
	"fmt"
	"strings"

	"github.com/Iron-Ham/askuser/internal/answer"
	"github.com/Iron-Ham/askuser/internal/tui/form"
	"github.com/Iron-Ham/askuser/internal/tui/styles"
)

// Markers used in the option list.
const (
	FocusMarker       = "›"
	SingleSelected    = "(•)"
	SingleUnselected  = "( )"
	MultiSelected     = "[x]"
	MultiUnselected   = "[ ]"
	ElaborationMarker = "✎"
)

// QuestionView renders the current question with its options and inputs.
type QuestionView struct {
	styles *styles.Styles
}

// NewQuestionView creates a QuestionView.
func NewQuestionView(s *styles.Styles) *QuestionView {
	return &QuestionView{styles: s}
}

// Render renders question q for the snapshot st. input is the rendered text
// input shown while a custom answer or note is being edited.
func (v *QuestionView) Render(q answer.Question, st form.State, input string) string {
	s := v.styles
	var b strings.Builder

	b.WriteString(v.renderProgress(st))
	b.WriteString("\n\n")

	if q.Header != "" {
		b.WriteString(s.Header.Render(q.Header))
		b.WriteString("\n\n")
	}
	b.WriteString(s.Prompt.Render(q.Prompt))
	b.WriteString("\n")

	for i, opt := range q.Options {
		b.WriteString(v.renderOption(q, opt, i, st))
		b.WriteString("\n")
		if opt.Description != "" {
			b.WriteString(s.Description.Render(opt.Description))
			b.WriteString("\n")
		}
	}

	if st.Draft.CustomText != "" && st.Focus != form.FocusCustomInput {
		b.WriteString("\n")
		b.WriteString(s.Selected.Render(fmt.Sprintf("Other: %q", st.Draft.CustomText)))
		b.WriteString("\n")
	}
	if st.Draft.Elaboration != "" && st.Focus != form.FocusElaborateInput {
		b.WriteString("\n")
		b.WriteString(s.Note.Render(ElaborationMarker + " " + st.Draft.Elaboration))
		b.WriteString("\n")
	}

	switch st.Focus {
	case form.FocusCustomInput:
		b.WriteString("\n")
		b.WriteString(s.Hint.Render("Your answer:"))
		b.WriteString("\n")
		b.WriteString(s.Input.Render(input))
		b.WriteString("\n")
	case form.FocusElaborateInput:
		b.WriteString("\n")
		b.WriteString(s.Hint.Render("Note for your selection:"))
		b.WriteString("\n")
		b.WriteString(s.Input.Render(input))
		b.WriteString("\n")
	}

	if st.OverRecommended {
		b.WriteString("\n")
		b.WriteString(s.Warning.Render("Consider picking fewer options."))
		b.WriteString("\n")
	}

	var hints []string
	if q.MultiSelect {
		hints = append(hints, "select all that apply")
	}
	if q.AllowCustom {
		hints = append(hints, "o: other answer")
	}
	if q.Optional {
		hints = append(hints, "optional")
	}
	if len(hints) > 0 {
		b.WriteString("\n")
		b.WriteString(s.Hint.Render(strings.Join(hints, " · ")))
		b.WriteString("\n")
	}

	return b.String()
}

func (v *QuestionView) renderProgress(st form.State) string {
	s := v.styles
	var dots strings.Builder
	for i := range st.QuestionCount {
		_, answered := st.Answers[i]
		switch {
		case i == st.CurrentQuestion:
			dots.WriteString(s.Focused.Render("●"))
		case answered:
			dots.WriteString(s.Selected.Render("●"))
		default:
			dots.WriteString(s.Progress.Render("○"))
		}
	}
	label := fmt.Sprintf("Question %d of %d", st.CurrentQuestion+1, st.QuestionCount)
	return s.Title.Render(label) + "  " + dots.String()
}

func (v *QuestionView) renderOption(q answer.Question, opt answer.Option, i int, st form.State) string {
	s := v.styles
	selected := st.Draft.IsSelected(opt.Label)

	marker := SingleUnselected
	switch {
	case q.MultiSelect && selected:
		marker = MultiSelected
	case q.MultiSelect:
		marker = MultiUnselected
	case selected:
		marker = SingleSelected
	}

	cursor := "  "
	if i == st.FocusedOption {
		cursor = FocusMarker + " "
	}

	line := fmt.Sprintf("%s %s", marker, opt.Label)
	switch {
	case i == st.FocusedOption:
		line = s.Focused.Render(line)
	case selected:
		line = s.Selected.Render(line)
	default:
		line = s.Option.Render(line)
	}
	return cursor + line
}
