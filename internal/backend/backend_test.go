package backend

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hillway/coursegate/internal/store"
)

type recordedRequest struct {
	Method string
	Path   string
	Query  string
	Header http.Header
	Body   map[string]any
}

// fakePostgREST records requests and serves canned learner rows.
type fakePostgREST struct {
	mu       sync.Mutex
	requests []recordedRequest
	learners []Learner
	status   int
}

func (f *fakePostgREST) handler(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		rec := recordedRequest{Method: r.Method, Path: r.URL.Path, Query: r.URL.RawQuery, Header: r.Header.Clone()}
		if len(raw) > 0 {
			assert.NoError(t, json.Unmarshal(raw, &rec.Body))
		}

		f.mu.Lock()
		f.requests = append(f.requests, rec)
		status := f.status
		f.mu.Unlock()

		if status != 0 {
			w.WriteHeader(status)
			_, _ = w.Write([]byte(`{"message":"boom"}`))
			return
		}

		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.Method == http.MethodGet && r.URL.Path == learnersPath:
			email := strings.TrimPrefix(r.URL.Query().Get("email"), "eq.")
			var out []Learner
			for _, l := range f.learners {
				if l.Name+"@example.com" == email {
					out = append(out, l)
				}
			}
			_ = json.NewEncoder(w).Encode(append([]Learner{}, out...))
		case r.Method == http.MethodPost && r.URL.Path == learnersPath:
			w.WriteHeader(http.StatusCreated)
			_ = json.NewEncoder(w).Encode([]Learner{{ID: "new-id", Name: rec.Body["name"].(string)}})
		default:
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`[]`))
		}
	})
}

func (f *fakePostgREST) recorded() []recordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]recordedRequest(nil), f.requests...)
}

func newTestClient(t *testing.T, f *fakePostgREST) *Client {
	t.Helper()
	srv := httptest.NewServer(f.handler(t))
	t.Cleanup(srv.Close)
	return NewClient(Config{URL: srv.URL + "/", AnonKey: "anon-key", Timeout: 5 * time.Second})
}

func TestRegisterLearnerFindsExisting(t *testing.T) {
	f := &fakePostgREST{learners: []Learner{{ID: "abc", Name: "alex"}}}
	c := newTestClient(t, f)

	l, err := c.RegisterLearner(context.Background(), "alex", "alex@example.com")
	require.NoError(t, err)
	assert.Equal(t, &Learner{ID: "abc", Name: "alex"}, l)

	reqs := f.recorded()
	require.Len(t, reqs, 1)
	assert.Equal(t, http.MethodGet, reqs[0].Method)
	assert.Contains(t, reqs[0].Query, "email=eq.alex%40example.com")
	assert.Contains(t, reqs[0].Query, "select=id%2Cname")
	assert.Equal(t, "anon-key", reqs[0].Header.Get("apikey"))
	assert.Equal(t, "Bearer anon-key", reqs[0].Header.Get("Authorization"))
	assert.Equal(t, "return=representation", reqs[0].Header.Get("Prefer"))
}

func TestRegisterLearnerCreatesNew(t *testing.T) {
	f := &fakePostgREST{}
	c := newTestClient(t, f)

	l, err := c.RegisterLearner(context.Background(), "sam", "sam@example.com")
	require.NoError(t, err)
	assert.Equal(t, "new-id", l.ID)

	reqs := f.recorded()
	require.Len(t, reqs, 2)
	assert.Equal(t, http.MethodPost, reqs[1].Method)
	assert.Equal(t, map[string]any{"name": "sam", "email": "sam@example.com"}, reqs[1].Body)
	assert.Equal(t, "application/json", reqs[1].Header.Get("Content-Type"))
}

func TestTrackSectionCompleteMergesDuplicates(t *testing.T) {
	f := &fakePostgREST{}
	c := newTestClient(t, f)

	require.NoError(t, c.TrackSectionComplete(context.Background(), "abc", "demo", "d1-intro"))

	reqs := f.recorded()
	require.Len(t, reqs, 1)
	assert.Equal(t, progressPath, reqs[0].Path)
	assert.Equal(t, "return=representation,resolution=merge-duplicates", reqs[0].Header.Get("Prefer"))
	assert.Equal(t, map[string]any{"learner_id": "abc", "course": "demo", "section_id": "d1-intro"}, reqs[0].Body)
}

func TestAPIError(t *testing.T) {
	f := &fakePostgREST{status: http.StatusUnauthorized}
	c := newTestClient(t, f)

	err := c.SubmitQuizAnswer(context.Background(), QuizSubmission{LearnerID: "abc"})
	require.Error(t, err)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Equal(t, submissionsPath, apiErr.Path)
	assert.Len(t, f.recorded(), 1, "no retries")
}

func TestReporterSubmitsInBackground(t *testing.T) {
	f := &fakePostgREST{}
	c := newTestClient(t, f)
	r := NewReporter(c, Identity{ID: "abc", Name: "alex"}, time.Second, nil)
	require.True(t, r.Active())

	r.SubmitQuizAnswer("demo", "q3", "Third?", "Alpha", "Charlie", false, 2)
	r.TrackSectionComplete("demo", "d1-intro")
	r.Close()

	reqs := f.recorded()
	require.Len(t, reqs, 2)
	var submission map[string]any
	for _, req := range reqs {
		if req.Path == submissionsPath {
			submission = req.Body
		}
	}
	require.NotNil(t, submission)
	assert.Equal(t, map[string]any{
		"learner_id":     "abc",
		"course":         "demo",
		"question_id":    "q3",
		"question_text":  "Third?",
		"answer_given":   "Alpha",
		"correct_answer": "Charlie",
		"is_correct":     false,
		"attempt_number": float64(2),
	}, submission)
}

func TestReporterSkipsLocalLearners(t *testing.T) {
	f := &fakePostgREST{}
	c := newTestClient(t, f)

	for _, id := range []Identity{{ID: "local-123", Name: "x"}, {}} {
		r := NewReporter(c, id, time.Second, nil)
		assert.False(t, r.Active())
		r.TrackSectionComplete("demo", "d1-intro")
		r.SubmitQuizAnswer("demo", "q1", "", "", "", true, 1)
		r.Close()
	}
	assert.Empty(t, f.recorded())

	var nilReporter *Reporter
	assert.False(t, nilReporter.Active())
	nilReporter.Close()
}

func TestReporterDropsFailures(t *testing.T) {
	f := &fakePostgREST{status: http.StatusInternalServerError}
	c := newTestClient(t, f)
	r := NewReporter(c, Identity{ID: "abc"}, time.Second, nil)

	r.TrackSectionComplete("demo", "d1-intro")
	r.Close()
	assert.Len(t, f.recorded(), 1)
}

func TestRegisterFallsBackToLocalID(t *testing.T) {
	f := &fakePostgREST{status: http.StatusServiceUnavailable}
	c := newTestClient(t, f)
	kv := store.NewMemoryKV()
	ctx := context.Background()

	id, err := Register(ctx, c, kv, " Alex ", "alex@example.com", nil)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(id.ID, "local-"))
	assert.True(t, id.IsLocal())
	assert.Equal(t, "Alex", id.Name)

	stored, ok, err := LoadIdentity(ctx, kv)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, id, stored)
}

func TestRegisterStoresBackendIdentity(t *testing.T) {
	f := &fakePostgREST{learners: []Learner{{ID: "abc", Name: "alex"}}}
	c := newTestClient(t, f)
	kv := store.NewMemoryKV()
	ctx := context.Background()

	id, err := Register(ctx, c, kv, "alex", "alex@example.com", nil)
	require.NoError(t, err)
	assert.Equal(t, Identity{ID: "abc", Name: "alex"}, id)
	assert.False(t, id.IsLocal())

	_, err = Register(ctx, c, kv, "", "alex@example.com", nil)
	assert.Error(t, err)
}

func TestLoadIdentityMissing(t *testing.T) {
	_, ok, err := LoadIdentity(context.Background(), store.NewMemoryKV())
	require.NoError(t, err)
	assert.False(t, ok)
}

func signKey(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return s
}

func TestConfigValidate(t *testing.T) {
	future := time.Now().Add(24 * time.Hour).Unix()
	past := time.Now().Add(-24 * time.Hour).Unix()

	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"disabled", DefaultConfig(), false},
		{"valid", Config{URL: "https://x.supabase.co", AnonKey: signKey(t, jwt.MapClaims{"role": "anon", "exp": future}), Timeout: time.Second}, false},
		{"no expiry", Config{URL: "https://x.supabase.co", AnonKey: signKey(t, jwt.MapClaims{"role": "anon"}), Timeout: time.Second}, false},
		{"bad url", Config{URL: "not a url", AnonKey: "k", Timeout: time.Second}, true},
		{"missing key", Config{URL: "https://x.supabase.co", Timeout: time.Second}, true},
		{"not a jwt", Config{URL: "https://x.supabase.co", AnonKey: "plain", Timeout: time.Second}, true},
		{"no role", Config{URL: "https://x.supabase.co", AnonKey: signKey(t, jwt.MapClaims{"exp": future}), Timeout: time.Second}, true},
		{"expired", Config{URL: "https://x.supabase.co", AnonKey: signKey(t, jwt.MapClaims{"role": "anon", "exp": past}), Timeout: time.Second}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("COURSEGATE_SUPABASE_URL", "https://x.supabase.co")
	t.Setenv("COURSEGATE_SUPABASE_ANON_KEY", "key")
	t.Setenv("COURSEGATE_BACKEND_TIMEOUT", "3s")

	cfg := ConfigFromEnv()
	assert.True(t, cfg.Enabled())
	assert.Equal(t, "key", cfg.AnonKey)
	assert.Equal(t, 3*time.Second, cfg.Timeout)
}
