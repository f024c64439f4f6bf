package http

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vncsmyrnk/kwickslot/internal/adapters/repository/memory"
	"github.com/vncsmyrnk/kwickslot/internal/core/domain"
	"github.com/vncsmyrnk/kwickslot/internal/core/services"
)

var testNow = time.Date(2024, 4, 20, 12, 0, 0, 0, time.UTC)

type testEnv struct {
	handler  http.Handler
	polls    *memory.PollRepository
	comments *memory.CommentRepository
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	polls := memory.NewPollRepository()
	comments := memory.NewCommentRepository()
	t.Cleanup(func() { _ = comments.Close() })

	clock := services.WithClock(func() time.Time { return testNow })
	pollHandler := NewPollHandler(services.NewPollService(polls, clock))
	pollHandler.now = func() time.Time { return testNow }
	responseHandler := NewResponseHandler(services.NewResponseService(polls, clock), pollHandler)
	commentHandler := NewCommentHandler(services.NewCommentService(polls, comments, clock))

	return &testEnv{
		handler:  NewHandler(pollHandler, responseHandler, commentHandler, []string{"https://kwickslot.example"}),
		polls:    polls,
		comments: comments,
	}
}

func (e *testEnv) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) seed(t *testing.T, expiresAt *time.Time, names ...string) *domain.Poll {
	t.Helper()
	poll := &domain.Poll{
		ID:        uuid.New(),
		Name:      "Team dinner",
		CreatedAt: testNow.Add(-time.Hour),
		ExpiresAt: expiresAt,
		Responses: []domain.Response{},
	}
	for _, name := range names {
		poll.Responses = append(poll.Responses, domain.Response{
			Name: name,
			Availability: []domain.DateAvailability{
				{Date: "2024-05-01", Times: []domain.Slot{domain.Morning}},
			},
		})
	}
	require.NoError(t, e.polls.Create(context.Background(), poll))
	return poll
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/health", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestCreateAndGetPoll(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/polls", `{"name":"  Team dinner  "}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	created := decode[map[string]any](t, rec)
	id, _ := created["id"].(string)
	require.NotEmpty(t, id)
	assert.Equal(t, "Team dinner", created["name"])
	assert.Equal(t, "open", created["status"])
	assert.Equal(t, "/poll/"+id, created["share_path"])
	assert.Equal(t, "/poll/"+id+"/results", created["results_path"])
	assert.Equal(t, []any{}, created["responses"])
	assert.NotContains(t, created, "expires_at")

	rec = env.do(t, http.MethodGet, "/api/polls/"+id, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, id, decode[map[string]any](t, rec)["id"])
}

func TestCreatePollValidation(t *testing.T) {
	env := newTestEnv(t)

	tests := map[string]string{
		"malformed body": `{"name":`,
		"missing name":   `{}`,
		"blank name":     `{"name":"   "}`,
		"past expiry":    `{"name":"x","expires_at":"2024-04-19T00:00:00Z"}`,
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			rec := env.do(t, http.MethodPost, "/api/polls", body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, "invalid_input", decode[errorResponse](t, rec).Error)
		})
	}
}

func TestGetPollNotFound(t *testing.T) {
	env := newTestEnv(t)

	for _, id := range []string{uuid.NewString(), "not-a-uuid"} {
		rec := env.do(t, http.MethodGet, "/api/polls/"+id, "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "poll_not_found", decode[errorResponse](t, rec).Error)
	}
}

func TestSubmitAndResults(t *testing.T) {
	env := newTestEnv(t)
	expires := testNow.Add(72 * time.Hour)
	poll := env.seed(t, &expires)
	base := "/api/polls/" + poll.ID.String()

	rec := env.do(t, http.MethodPost, base+"/responses",
		`{"name":"Alice","availability":[{"date":"2024-05-01","times":["Evening","Morning","Morning"]},{"date":"2024-05-02","times":[]}]}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = env.do(t, http.MethodPost, base+"/responses",
		`{"name":"Bob","availability":[{"date":"2024-05-01","times":["Morning"]},{"date":"2024-05-03","times":["Afternoon"]}]}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = env.do(t, http.MethodGet, base+"/results", "")
	require.Equal(t, http.StatusOK, rec.Code)

	res := decode[resultsResponse](t, rec)
	assert.Equal(t, 2, res.Respondents)
	assert.Equal(t, []domain.Date{"2024-05-01"}, res.BestDates)
	assert.Equal(t, "3 days from now", res.ExpiresIn)
	assert.Equal(t, domain.StatusOpen, res.Status)

	require.Len(t, res.Rows, 2)
	first := res.Rows[0]
	assert.Equal(t, "2024-05-01 Wednesday", first.Label)
	assert.True(t, first.Best)
	assert.Equal(t, 2, first.Headcount)
	require.Len(t, first.Slots, 3)
	assert.Equal(t, []string{"Alice", "Bob"}, first.Slots[0].Names)
	assert.EqualValues(t, "full", first.Slots[0].Level)
	assert.EqualValues(t, "none", first.Slots[1].Level)
	assert.EqualValues(t, "partial", first.Slots[2].Level)

	assert.Equal(t, domain.Date("2024-05-03"), res.Rows[1].Date)
	assert.False(t, res.Rows[1].Best)
}

func TestSubmitRejections(t *testing.T) {
	env := newTestEnv(t)
	past := testNow.Add(-time.Minute)
	expired := env.seed(t, &past)

	names := make([]string, domain.MaxResponses)
	for i := range names {
		names[i] = fmt.Sprintf("person-%02d", i)
	}
	full := env.seed(t, nil, names...)
	open := env.seed(t, nil)

	body := func(name, date, slot string) string {
		return fmt.Sprintf(`{"name":%q,"availability":[{"date":%q,"times":[%q]}]}`, name, date, slot)
	}

	tests := []struct {
		name   string
		poll   *domain.Poll
		body   string
		status int
		code   string
	}{
		{"expired poll", expired, body("Alice", "2024-05-01", "Morning"), http.StatusGone, "poll_expired"},
		{"full poll new name", full, body("Newcomer", "2024-05-01", "Morning"), http.StatusConflict, "poll_full"},
		{"unknown slot", open, body("Alice", "2024-05-01", "Night"), http.StatusBadRequest, "invalid_input"},
		{"malformed date", open, body("Alice", "05/01/2024", "Morning"), http.StatusBadRequest, "invalid_input"},
		{"empty selection", open, `{"name":"Alice","availability":[{"date":"2024-05-01","times":[]}]}`, http.StatusBadRequest, "invalid_input"},
		{"missing availability", open, `{"name":"Alice"}`, http.StatusBadRequest, "invalid_input"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, http.MethodPost, "/api/polls/"+tt.poll.ID.String()+"/responses", tt.body)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
			assert.Equal(t, tt.code, decode[errorResponse](t, rec).Error)
		})
	}

	t.Run("full poll existing name edits", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/polls/"+full.ID.String()+"/responses", body("person-07", "2024-05-04", "Evening"))
		assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	})
}

func TestGetResponse(t *testing.T) {
	env := newTestEnv(t)
	poll := env.seed(t, nil, "Alice B")
	base := "/api/polls/" + poll.ID.String() + "/responses/"

	rec := env.do(t, http.MethodGet, base+"Alice%20B", "")
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[domain.Response](t, rec)
	assert.Equal(t, "Alice B", resp.Name)
	assert.Equal(t, []domain.Slot{domain.Morning}, resp.Availability[0].Times)

	rec = env.do(t, http.MethodGet, base+"Carol", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "response_not_found", decode[errorResponse](t, rec).Error)
}

func TestComments(t *testing.T) {
	env := newTestEnv(t)
	poll := env.seed(t, nil)
	base := "/api/polls/" + poll.ID.String() + "/comments"

	rec := env.do(t, http.MethodGet, base, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	rec = env.do(t, http.MethodPost, base, `{"name":"Alice","message":"Morning works best"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	posted := decode[domain.Comment](t, rec)
	assert.Equal(t, poll.ID, posted.PollID)
	assert.True(t, testNow.Equal(posted.Timestamp))

	rec = env.do(t, http.MethodPost, base, `{"name":"Alice","message":"  "}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodGet, base, "")
	require.Equal(t, http.StatusOK, rec.Code)
	listed := decode[[]domain.Comment](t, rec)
	require.Len(t, listed, 1)
	assert.Equal(t, posted.ID, listed[0].ID)
}

func TestCommentsOnExpiredPoll(t *testing.T) {
	env := newTestEnv(t)
	past := testNow.Add(-time.Hour)
	poll := env.seed(t, &past)

	rec := env.do(t, http.MethodPost, "/api/polls/"+poll.ID.String()+"/comments", `{"name":"Alice","message":"too late?"}`)
	assert.Equal(t, http.StatusGone, rec.Code)
	assert.Equal(t, "poll_expired", decode[errorResponse](t, rec).Error)
}

func TestStreamComments(t *testing.T) {
	env := newTestEnv(t)
	poll := env.seed(t, nil)
	base := "/api/polls/" + poll.ID.String() + "/comments"

	rec := env.do(t, http.MethodPost, base, `{"name":"Alice","message":"first"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	srv := httptest.NewServer(env.handler)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+base+"/stream", nil)
	require.NoError(t, err)
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	events := make(chan domain.Comment)
	go func() {
		defer close(events)
		scanner := bufio.NewScanner(resp.Body)
		for scanner.Scan() {
			data, ok := strings.CutPrefix(scanner.Text(), "data: ")
			if !ok {
				continue
			}
			var c domain.Comment
			if json.Unmarshal([]byte(data), &c) == nil {
				select {
				case events <- c:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	backlog := <-events
	assert.Equal(t, "first", backlog.Message)

	rec = env.do(t, http.MethodPost, base, `{"name":"Bob","message":"second"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	live := <-events
	assert.Equal(t, "second", live.Message)
	assert.Equal(t, "Bob", live.Name)
}

func TestStreamCommentsUnknownPoll(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/polls/"+uuid.NewString()+"/comments/stream", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCORS(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/polls", nil)
	req.Header.Set("Origin", "https://kwickslot.example")
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://kwickslot.example", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://elsewhere.example")
	rec = httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}
