package reader

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/hillway/coursegate/internal/course"
	"github.com/hillway/coursegate/internal/gate"
	"github.com/hillway/coursegate/internal/quiz"
	"github.com/hillway/coursegate/internal/ui/components"
	"github.com/hillway/coursegate/internal/ui/theme"
)

// render lays the course out at the given width. Hidden days contribute a
// lock notice and no section extents.
func (r *Reader) render(width, height int) *document {
	doc := newDocument(height)
	inner := width - 4
	if inner < 20 {
		inner = 20
	}
	body := lipgloss.NewStyle().Width(inner).PaddingLeft(2)

	days := r.session.Days()
	if len(days) == 0 {
		doc.blank()
		doc.add(theme.Hint.Render("  No gated content was found in this course."))
		return doc
	}

	threshold := r.session.Config().ScrollThreshold
	for _, d := range days {
		doc.dayTops[d.Number] = len(doc.lines)
		heading := fmt.Sprintf("Day %d", d.Number)
		if d.Title != "" {
			heading += " · " + d.Title
		}
		doc.add(theme.Title.Render(heading))
		doc.add(lipgloss.NewStyle().Foreground(theme.Border).Render(strings.Repeat("─", inner)))

		if !r.session.IsDayUnlocked(d.Number) {
			doc.add(theme.Overlay.Width(inner).Render(fmt.Sprintf(
				"🔒 Day %d is locked\nComplete Day %d's reading and quiz to unlock this content.",
				d.Number, d.Number-1)))
			doc.blank()
			continue
		}

		for _, sec := range d.Sections {
			top, _ := doc.add(theme.Heading.Render("  " + sectionHeading(sec)))
			bar := components.NewProgressBar("", sec.Progress(threshold), sec.TimerLabel(threshold), inner)
			if sec.ReadingComplete {
				bar.Fill = theme.Success
			}
			doc.add("  " + bar.View())
			doc.add(body.Render(sec.Body))
			doc.extents[sec.ID] = gate.Extent{Top: top, Height: len(doc.lines) - top}
			doc.blank()
		}

		if d.QuizID != "" {
			r.renderQuiz(doc, d, inner)
		}
	}
	return doc
}

func sectionHeading(sec *gate.Section) string {
	if sec.Title != "" {
		return sec.Title
	}
	return sec.ID
}

func (r *Reader) renderQuiz(doc *document, d *gate.Day, inner int) {
	doc.add(theme.Title.Render("  Knowledge check"))
	if r.session.IsQuizLocked(d.Number) {
		msg := "🔒 Quiz locked\nComplete the reading above to unlock this quiz."
		if c := r.session.QuizCountdown(d.Number); c != "" {
			msg += "\n" + c
		}
		doc.add(theme.Overlay.Width(inner).Render(msg))
		doc.blank()
		return
	}

	mday := r.manifestDay(d.Number)
	if mday == nil || mday.Quiz == nil || len(mday.Quiz.Questions) == 0 {
		doc.add(theme.Hint.Render("  This quiz has no questions."))
		doc.blank()
		return
	}

	for _, q := range mday.Quiz.Questions {
		top, _ := doc.add(r.renderQuestion(q, inner))
		doc.questions = append(doc.questions, anchor{number: q.Number, day: d.Number, line: top})
		doc.blank()
	}

	if r.engine.ModuleDone(d.Number) {
		correct, _, total := r.engine.ModuleScore(d.Number)
		card := fmt.Sprintf("Module score: %d / %d\n%s", correct, total, quiz.ModuleMessage(correct, total))
		doc.add(theme.Card.Width(inner).Render(card))
		doc.blank()
	}
}

func (r *Reader) renderQuestion(q course.Question, inner int) string {
	st := r.engine.State(q.Number)
	status := st.Status()

	marker := "  "
	if q.Number == r.focus {
		marker = theme.Selected.Render("› ")
	}
	text := lipgloss.NewStyle().Width(inner - 2).Bold(true).Render(fmt.Sprintf("%s. %s", q.Number, q.Text))
	out := lipgloss.JoinHorizontal(lipgloss.Top, marker, text) + "\n"

	list := components.OptionList{Focused: q.Number == r.focus && !status.Terminal()}
	for _, opt := range q.Options {
		list.Texts = append(list.Texts, opt.Text)
		list.States = append(list.States, optionState(st, q, opt.Value))
	}
	out += list.View()

	switch {
	case status == quiz.Unanswered && st.CurrentHint != nil:
		out += "\n" + lipgloss.NewStyle().Width(inner).Foreground(theme.Accent).Render("  "+*st.CurrentHint)
	case status.Terminal() && q.Explanation != "":
		out += "\n" + theme.Hint.Width(inner).Render("  "+q.Explanation)
	}
	return out
}

func optionState(st quiz.QuestionState, q course.Question, value string) components.OptionState {
	for _, w := range st.SelectedWrong {
		if w == value {
			return components.OptionTried
		}
	}
	switch st.Status() {
	case quiz.AnsweredCorrect:
		if st.SelectedCorrect != nil && *st.SelectedCorrect == value {
			return components.OptionCorrect
		}
		return components.OptionClosed
	case quiz.AnsweredLocked:
		if value == q.Answer {
			return components.OptionMissed
		}
		return components.OptionClosed
	}
	return components.OptionOpen
}
