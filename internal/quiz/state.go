package quiz

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/hillway/coursegate/internal/store"
)

// Status is the answer state of a question.
type Status int

const (
	Unanswered Status = iota
	AnsweredCorrect
	AnsweredLocked
)

func (s Status) String() string {
	switch s {
	case AnsweredCorrect:
		return "answered-correct"
	case AnsweredLocked:
		return "answered-locked"
	default:
		return "unanswered"
	}
}

// Terminal reports whether the status can no longer change.
func (s Status) Terminal() bool {
	return s == AnsweredCorrect || s == AnsweredLocked
}

// QuestionState is the persisted progress of one question.
type QuestionState struct {
	Attempts        int      `json:"attempts"`
	Locked          bool     `json:"locked"`
	Correct         bool     `json:"correct"`
	SelectedWrong   []string `json:"selectedWrong"`
	SelectedCorrect *string  `json:"selectedCorrect"`
	CurrentHint     *string  `json:"currentHint"`
}

// Status derives the answer state.
func (q QuestionState) Status() Status {
	switch {
	case q.Locked && q.Correct:
		return AnsweredCorrect
	case q.Locked:
		return AnsweredLocked
	default:
		return Unanswered
	}
}

func (q QuestionState) triedWrong(value string) bool {
	for _, v := range q.SelectedWrong {
		if v == value {
			return true
		}
	}
	return false
}

// Tally counts answered and correct questions.
type Tally struct {
	Answered int `json:"answered"`
	Correct  int `json:"correct"`
}

// State is the persisted quiz progress of a course.
type State struct {
	Answered       int                      `json:"answered"`
	Correct        int                      `json:"correct"`
	ModuleQuizzes  map[string]Tally         `json:"moduleQuizzes"`
	QuestionStates map[string]QuestionState `json:"questionStates"`
}

func newState() State {
	return State{
		ModuleQuizzes:  map[string]Tally{},
		QuestionStates: map[string]QuestionState{},
	}
}

// stateStore is the best-effort persistence of a course's quiz State.
type stateStore struct {
	kv     store.KV
	key    string
	logger *slog.Logger
}

func (p *stateStore) load(ctx context.Context) State {
	st := newState()
	if p.kv == nil {
		return st
	}
	raw, ok, err := p.kv.Get(ctx, p.key)
	if err != nil {
		p.logger.Warn("warning: failed to load quiz state", "key", p.key, "error", err)
		return st
	}
	if !ok {
		return st
	}
	if err := json.Unmarshal(raw, &st); err != nil {
		p.logger.Warn("warning: discarding unreadable quiz state", "key", p.key, "error", err)
		return newState()
	}
	if st.ModuleQuizzes == nil {
		st.ModuleQuizzes = map[string]Tally{}
	}
	if st.QuestionStates == nil {
		st.QuestionStates = map[string]QuestionState{}
	}
	return st
}

func (p *stateStore) save(ctx context.Context, st State) {
	if p.kv == nil {
		return
	}
	raw, err := json.Marshal(st)
	if err != nil {
		p.logger.Warn("warning: failed to encode quiz state", "key", p.key, "error", err)
		return
	}
	if err := p.kv.Set(ctx, p.key, raw); err != nil {
		p.logger.Warn("warning: failed to save quiz state", "key", p.key, "error", err)
	}
}

func (p *stateStore) clear(ctx context.Context) {
	if p.kv == nil {
		return
	}
	if err := p.kv.Delete(ctx, p.key); err != nil {
		p.logger.Warn("warning: failed to clear quiz state", "key", p.key, "error", err)
	}
}
