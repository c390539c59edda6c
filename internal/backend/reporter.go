package backend

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Reporter forwards progress to the backend without blocking the caller.
// Every call runs on its own goroutine; failures are logged and dropped.
// A Reporter with a nil client or a local identity does nothing.
type Reporter struct {
	client   *Client
	identity Identity
	timeout  time.Duration
	logger   *slog.Logger
	wg       sync.WaitGroup
}

// NewReporter returns a Reporter for the learner.
func NewReporter(client *Client, identity Identity, timeout time.Duration, logger *slog.Logger) *Reporter {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = DefaultConfig().Timeout
	}
	return &Reporter{client: client, identity: identity, timeout: timeout, logger: logger}
}

// Active reports whether calls reach the backend.
func (r *Reporter) Active() bool {
	return r != nil && r.client != nil && !r.identity.IsLocal()
}

// TrackSectionComplete reports a completed section.
func (r *Reporter) TrackSectionComplete(course, sectionID string) {
	if !r.Active() {
		return
	}
	learner := r.identity.ID
	r.spawn(func(ctx context.Context) {
		if err := r.client.TrackSectionComplete(ctx, learner, course, sectionID); err != nil {
			r.logger.Warn("warning: failed to track progress", "course", course, "section", sectionID, "error", err)
		}
	})
}

// SubmitQuizAnswer reports an answer attempt.
func (r *Reporter) SubmitQuizAnswer(course, questionID, questionText, answerGiven, correctAnswer string, isCorrect bool, attempt int) {
	if !r.Active() {
		return
	}
	s := QuizSubmission{
		LearnerID:     r.identity.ID,
		Course:        course,
		QuestionID:    questionID,
		QuestionText:  questionText,
		AnswerGiven:   answerGiven,
		CorrectAnswer: correctAnswer,
		IsCorrect:     isCorrect,
		AttemptNumber: attempt,
	}
	r.spawn(func(ctx context.Context) {
		if err := r.client.SubmitQuizAnswer(ctx, s); err != nil {
			r.logger.Warn("warning: failed to submit quiz answer", "course", course, "question", questionID, "error", err)
		}
	})
}

// Close waits for in-flight calls to finish.
func (r *Reporter) Close() {
	if r == nil {
		return
	}
	r.wg.Wait()
}

func (r *Reporter) spawn(fn func(ctx context.Context)) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
		defer cancel()
		fn(ctx)
	}()
}
