package quiz

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"

	"github.com/hillway/coursegate/internal/course"
	"github.com/hillway/coursegate/internal/store"
)

var (
	ErrUnknownQuestion = errors.New("unknown question")
	ErrUnknownOption   = errors.New("unknown option")
	ErrQuestionLocked  = errors.New("question is already answered")
	ErrOptionUsed      = errors.New("option was already tried")
)

// Default hint bodies used when a question carries none.
const (
	defaultHint1 = "Think carefully about the options."
	defaultHint2 = "Review the section above for the answer."
)

// Submitter receives every answer attempt. Implementations must not block.
type Submitter interface {
	SubmitQuizAnswer(courseName, questionID, questionText, answerGiven, correctAnswer string, isCorrect bool, attempt int)
}

// Answered is published when a question reaches a terminal state.
type Answered struct {
	Number string
	Day    int
	QuizID string
	Status Status
}

// Result describes the outcome of one answer attempt.
type Result struct {
	Correct bool
	Attempt int
	Status  Status
	// Hint is set after a wrong answer that leaves attempts remaining.
	Hint string
	// Explanation is revealed once the question is terminal.
	Explanation string
	// CorrectAnswer is the text of the right option, revealed on lock.
	CorrectAnswer string
}

type questionRef struct {
	q      course.Question
	day    int
	quizID string
}

// Engine runs the tutoring-mode multiple-choice quizzes of a course. It is
// not safe for concurrent use.
type Engine struct {
	cfg       Config
	course    string
	questions map[string]*questionRef
	order     []string
	quizzes   map[string][]string // quiz id -> question numbers
	days      map[int]string      // day -> quiz id

	st        State
	state     *stateStore
	submitter Submitter
	events    store.EventRepo
	logger    *slog.Logger
	listeners []func(Answered)
}

// Options configures an Engine.
type Options struct {
	Config    Config
	Manifest  *course.Manifest
	KV        store.KV
	Submitter Submitter       // optional
	Events    store.EventRepo // optional progress log
	Logger    *slog.Logger
}

// NewEngine builds the quiz engine for a course and restores its persisted
// answers.
func NewEngine(ctx context.Context, opts Options) (*Engine, error) {
	if err := opts.Config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid quiz config: %w", err)
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	name := ""
	if opts.Manifest != nil {
		name = opts.Manifest.Course
	}
	e := &Engine{
		cfg:       opts.Config,
		course:    name,
		questions: make(map[string]*questionRef),
		quizzes:   make(map[string][]string),
		days:      make(map[int]string),
		submitter: opts.Submitter,
		events:    opts.Events,
		logger:    logger.With("course", name),
	}
	e.state = &stateStore{kv: opts.KV, key: opts.Config.StorageKey(name), logger: e.logger}

	if opts.Manifest != nil {
		for _, d := range opts.Manifest.Days {
			if d.Quiz == nil {
				continue
			}
			e.days[d.Day] = d.Quiz.ID
			e.quizzes[d.Quiz.ID] = []string{}
			for _, q := range d.Quiz.Questions {
				e.questions[q.Number] = &questionRef{q: q, day: d.Day, quizID: d.Quiz.ID}
				e.order = append(e.order, q.Number)
				e.quizzes[d.Quiz.ID] = append(e.quizzes[d.Quiz.ID], q.Number)
			}
		}
	}

	e.st = e.state.load(ctx)
	e.retally()
	return e, nil
}

// Subscribe registers fn to receive terminal transitions.
func (e *Engine) Subscribe(fn func(Answered)) {
	e.listeners = append(e.listeners, fn)
}

// Answer records an attempt at question number with the option value.
func (e *Engine) Answer(ctx context.Context, number, value string) (Result, error) {
	ref, ok := e.questions[number]
	if !ok {
		return Result{}, fmt.Errorf("%w: %q", ErrUnknownQuestion, number)
	}
	q := ref.q
	if !hasOption(q, value) {
		return Result{}, fmt.Errorf("%w: %q for question %s", ErrUnknownOption, value, number)
	}

	qs := e.st.QuestionStates[number]
	if qs.Locked {
		return Result{Status: qs.Status()}, ErrQuestionLocked
	}
	if qs.triedWrong(value) {
		return Result{Attempt: qs.Attempts, Status: Unanswered}, ErrOptionUsed
	}

	qs.Attempts++
	correct := value == q.Answer
	res := Result{Correct: correct, Attempt: qs.Attempts}

	if e.submitter != nil {
		e.submitter.SubmitQuizAnswer(e.course, "q"+number, q.Text, q.OptionText(value), q.OptionText(q.Answer), correct, qs.Attempts)
	}

	switch {
	case correct:
		qs.Locked = true
		qs.Correct = true
		qs.SelectedCorrect = &value
		qs.CurrentHint = nil
		res.Explanation = q.Explanation
	case qs.Attempts < e.cfg.MaxAttempts:
		qs.SelectedWrong = append(qs.SelectedWrong, value)
		hint := hintFor(q, qs.Attempts)
		qs.CurrentHint = &hint
		res.Hint = hint
	default:
		qs.Locked = true
		qs.Correct = false
		qs.SelectedWrong = append(qs.SelectedWrong, value)
		qs.CurrentHint = nil
		res.Explanation = q.Explanation
		res.CorrectAnswer = q.OptionText(q.Answer)
	}
	res.Status = qs.Status()

	e.st.QuestionStates[number] = qs
	e.retally()
	e.state.save(ctx, e.st)

	e.appendEvent(ctx, store.ProgressEventData{
		Kind:    store.KindAnswer,
		Day:     ref.day,
		Subject: number,
		Detail:  fmt.Sprintf("attempt=%d correct=%t status=%s", qs.Attempts, correct, res.Status),
	})

	if res.Status.Terminal() {
		e.logger.Info("question answered", "question", number, "status", res.Status.String(), "attempts", qs.Attempts)
		ev := Answered{Number: number, Day: ref.day, QuizID: ref.quizID, Status: res.Status}
		for _, fn := range e.listeners {
			fn(ev)
		}
	}
	return res, nil
}

// hintFor returns the hint shown after the given wrong attempt. Later
// attempts keep the last hint.
func hintFor(q course.Question, attempt int) string {
	if attempt <= 1 {
		h := q.Hint1
		if h == "" {
			h = defaultHint1
		}
		return "Not quite. " + h
	}
	h := q.Hint2
	if h == "" {
		h = defaultHint2
	}
	return "Here's a clue: " + h
}

// State returns the persisted progress of a question.
func (e *Engine) State(number string) QuestionState {
	return e.st.QuestionStates[number]
}

// Status returns the answer state of a question.
func (e *Engine) Status(number string) Status {
	return e.st.QuestionStates[number].Status()
}

// Question returns the question with the given number.
func (e *Engine) Question(number string) (course.Question, bool) {
	ref, ok := e.questions[number]
	if !ok {
		return course.Question{}, false
	}
	return ref.q, true
}

// QuizComplete reports whether the quiz has at least one question and all
// of its questions are terminal.
func (e *Engine) QuizComplete(quizID string) bool {
	numbers, ok := e.quizzes[quizID]
	if !ok || len(numbers) == 0 {
		return false
	}
	for _, n := range numbers {
		if !e.Status(n).Terminal() {
			return false
		}
	}
	return true
}

// ModuleScore returns the day's tally and question count.
func (e *Engine) ModuleScore(day int) (correct, answered, total int) {
	t := e.st.ModuleQuizzes[strconv.Itoa(day)]
	return t.Correct, t.Answered, len(e.quizzes[e.days[day]])
}

// ModuleDone reports whether every question of the day's quiz is answered,
// which is when its score card is shown.
func (e *Engine) ModuleDone(day int) bool {
	_, answered, total := e.ModuleScore(day)
	return total > 0 && answered >= total
}

// ModuleMessage returns the score card message for correct out of total.
func ModuleMessage(correct, total int) string {
	if total <= 0 {
		return ""
	}
	pct := int(math.Round(float64(correct) / float64(total) * 100))
	switch {
	case pct == 100:
		return "Perfect score. Excellent understanding."
	case pct >= 80:
		return "Strong result. You have a good grasp of this material."
	case pct >= 60:
		return "Good effort. Review the sections you missed before continuing."
	default:
		return "Take another look through the material and try again."
	}
}

// Totals returns the course-wide answered, correct and question counts.
func (e *Engine) Totals() (answered, correct, total int) {
	return e.st.Answered, e.st.Correct, len(e.order)
}

// Progress returns the course progress line, e.g. "12 of 120 questions".
func (e *Engine) Progress() string {
	answered, _, total := e.Totals()
	return fmt.Sprintf("%d of %d questions", answered, total)
}

// Reset clears every answer of the course.
func (e *Engine) Reset(ctx context.Context) {
	e.state.clear(ctx)
	e.st = newState()
	e.retally()
	e.logger.Info("quiz progress reset")
}

// retally recomputes the course and module counts from the question states.
func (e *Engine) retally() {
	e.st.Answered, e.st.Correct = 0, 0
	modules := make(map[string]Tally, len(e.days))
	for day := range e.days {
		modules[strconv.Itoa(day)] = Tally{}
	}
	for number, qs := range e.st.QuestionStates {
		if !qs.Status().Terminal() {
			continue
		}
		ref, ok := e.questions[number]
		if !ok {
			continue
		}
		key := strconv.Itoa(ref.day)
		t := modules[key]
		t.Answered++
		e.st.Answered++
		if qs.Correct {
			t.Correct++
			e.st.Correct++
		}
		modules[key] = t
	}
	e.st.ModuleQuizzes = modules
}

func (e *Engine) appendEvent(ctx context.Context, data store.ProgressEventData) {
	if e.events == nil {
		return
	}
	data.Course = e.course
	if err := e.events.AppendProgressEvent(ctx, data); err != nil {
		e.logger.Warn("warning: failed to record progress event", "kind", data.Kind, "error", err)
	}
}

func hasOption(q course.Question, value string) bool {
	for _, o := range q.Options {
		if o.Value == value {
			return true
		}
	}
	return false
}
