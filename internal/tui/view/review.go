package view

import (
	"fmt"
	"strings"

	"github.com/Iron-Ham/askuser/internal/answer"
	"github.com/Iron-Ham/askuser/internal/tui/form"
	"github.com/Iron-Ham/askuser/internal/tui/styles"
)

// ReviewView renders the summary of all answers before submission.
type ReviewView struct {
	styles *styles.Styles
}

// NewReviewView creates a ReviewView.
func NewReviewView(s *styles.Styles) *ReviewView {
	return &ReviewView{styles: s}
}

// Render renders the review list with the highlight at st.ReviewIndex.
func (v *ReviewView) Render(questions []answer.Question, st form.State) string {
	s := v.styles
	var b strings.Builder

	b.WriteString(s.Title.Render("Review your answers"))
	b.WriteString("\n\n")

	for i, q := range questions {
		cursor := "  "
		if i == st.ReviewIndex {
			cursor = FocusMarker + " "
		}

		title := q.Header
		if title == "" {
			title = q.Prompt
		}
		line := fmt.Sprintf("%d. %s", i+1, title)
		if i == st.ReviewIndex {
			line = s.Focused.Render(line)
		} else {
			line = s.Option.Render(line)
		}
		b.WriteString(cursor + line)
		b.WriteString("\n")

		a, ok := st.Answers[i]
		switch {
		case ok:
			b.WriteString(s.Selected.Render("     " + a.Summary()))
		case q.Optional:
			b.WriteString(s.Hint.Render("     (skipped)"))
		default:
			b.WriteString(s.Warning.Render("     (unanswered)"))
		}
		b.WriteString("\n")
	}

	if st.Completed {
		b.WriteString("\n")
		b.WriteString(s.Selected.Render("Answers submitted."))
		b.WriteString("\n")
	}
	return b.String()
}
