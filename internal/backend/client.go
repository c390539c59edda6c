package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	learnersPath    = "/rest/v1/training_learners"
	submissionsPath = "/rest/v1/training_quiz_submissions"
	progressPath    = "/rest/v1/training_course_progress"

	preferRepresentation = "return=representation"
	preferMerge          = "return=representation,resolution=merge-duplicates"
)

// APIError is a non-2xx response from the backend.
type APIError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s %s: HTTP %d: %s", e.Method, e.Path, e.StatusCode, e.Body)
}

// Learner is a registered training learner.
type Learner struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// QuizSubmission is one recorded answer attempt.
type QuizSubmission struct {
	LearnerID     string `json:"learner_id"`
	Course        string `json:"course"`
	QuestionID    string `json:"question_id"`
	QuestionText  string `json:"question_text"`
	AnswerGiven   string `json:"answer_given"`
	CorrectAnswer string `json:"correct_answer"`
	IsCorrect     bool   `json:"is_correct"`
	AttemptNumber int    `json:"attempt_number"`
}

type sectionProgress struct {
	LearnerID string `json:"learner_id"`
	Course    string `json:"course"`
	SectionID string `json:"section_id"`
}

// Client talks to the PostgREST endpoints of the training backend. Calls are
// never retried.
type Client struct {
	baseURL string
	anonKey string
	client  *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.client = hc }
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.client.Timeout = d }
}

// NewClient returns a Client for cfg.
func NewClient(cfg Config, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(cfg.URL, "/"),
		anonKey: cfg.AnonKey,
		client:  &http.Client{Timeout: cfg.Timeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FindLearner looks a learner up by email. It returns nil when none exists.
func (c *Client) FindLearner(ctx context.Context, email string) (*Learner, error) {
	q := url.Values{}
	q.Set("email", "eq."+email)
	q.Set("select", "id,name")

	var found []Learner
	if err := c.do(ctx, http.MethodGet, learnersPath, q, nil, preferRepresentation, &found); err != nil {
		return nil, fmt.Errorf("find learner: %w", err)
	}
	if len(found) == 0 {
		return nil, nil
	}
	return &found[0], nil
}

// CreateLearner registers a new learner.
func (c *Client) CreateLearner(ctx context.Context, name, email string) (*Learner, error) {
	body := map[string]string{"name": name, "email": email}

	var created []Learner
	if err := c.do(ctx, http.MethodPost, learnersPath, nil, body, preferRepresentation, &created); err != nil {
		return nil, fmt.Errorf("create learner: %w", err)
	}
	if len(created) == 0 {
		return nil, fmt.Errorf("create learner: empty response")
	}
	return &created[0], nil
}

// RegisterLearner returns the learner with email, creating it if needed.
func (c *Client) RegisterLearner(ctx context.Context, name, email string) (*Learner, error) {
	l, err := c.FindLearner(ctx, email)
	if err != nil {
		return nil, err
	}
	if l != nil {
		return l, nil
	}
	return c.CreateLearner(ctx, name, email)
}

// SubmitQuizAnswer records an answer attempt.
func (c *Client) SubmitQuizAnswer(ctx context.Context, s QuizSubmission) error {
	if err := c.do(ctx, http.MethodPost, submissionsPath, nil, s, preferRepresentation, nil); err != nil {
		return fmt.Errorf("submit quiz answer: %w", err)
	}
	return nil
}

// TrackSectionComplete records a completed section. Repeated calls for the
// same section are merged by the backend.
func (c *Client) TrackSectionComplete(ctx context.Context, learnerID, course, sectionID string) error {
	body := sectionProgress{LearnerID: learnerID, Course: course, SectionID: sectionID}
	if err := c.do(ctx, http.MethodPost, progressPath, nil, body, preferMerge, nil); err != nil {
		return fmt.Errorf("track section: %w", err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any, prefer string, out any) error {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode body: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return err
	}
	req.Header.Set("apikey", c.anonKey)
	req.Header.Set("Authorization", "Bearer "+c.anonKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Prefer", prefer)

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{Method: method, Path: path, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(data))}
	}
	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
