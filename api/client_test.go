package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/benjamonnguyen/dynsched"
	"github.com/benjamonnguyen/dynsched/charmlog"
)

type fakeTokens struct {
	token       string
	invalidated int
	rejected    string
}

func (f *fakeTokens) Token() string { return f.token }

func (f *fakeTokens) Invalidate(_ context.Context, rejected string) {
	f.invalidated++
	f.rejected = rejected
	f.token = ""
}

func newTestClient(t *testing.T, h http.HandlerFunc, ts TokenSource) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL+"/api/", charmlog.Discard(), WithHTTPClient(srv.Client()), WithTokenSource(ts))
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

func asAPIError(t *testing.T, err error) *dynsched.APIError {
	t.Helper()
	var apiErr *dynsched.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *dynsched.APIError, got %T: %v", err, err)
	}
	return apiErr
}

func TestLogin(t *testing.T) {
	tokens := &fakeTokens{token: "stale"}
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/auth/login" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "" {
			t.Errorf("login should not carry a token, got %q", got)
		}
		var creds dynsched.Credentials
		if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
			t.Errorf("decode credentials: %v", err)
		}
		if creds.Identifier != "alice" || creds.Password != "secret" {
			t.Errorf("unexpected credentials %+v", creds)
		}
		writeJSON(w, http.StatusOK, `{"user":{"id":"u1","username":"alice"},"token":"tok123"}`)
	}, tokens)

	res, err := c.Login(context.Background(), dynsched.Credentials{Identifier: "alice", Password: "secret"})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if res.User.ID != "u1" || res.User.Username != "alice" || res.Token != "tok123" {
		t.Errorf("unexpected result %+v", res)
	}
}

func TestLogin_Rejected(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantMsg string
	}{
		{"server message", http.StatusUnauthorized, `{"error":"Invalid credentials"}`, "Invalid credentials"},
		{"no message", http.StatusInternalServerError, ``, msgLoginFailed},
		{"success false", http.StatusOK, `{"success":false}`, msgLoginFailed},
		{"missing token", http.StatusOK, `{"success":true,"user":{"id":"u1"}}`, msgLoginFailed},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tokens := &fakeTokens{token: "existing"}
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, tc.status, tc.body)
			}, tokens)

			_, err := c.Login(context.Background(), dynsched.Credentials{Identifier: "alice", Password: "nope"})
			apiErr := asAPIError(t, err)
			if apiErr.Message != tc.wantMsg {
				t.Errorf("expected message %q, got %q", tc.wantMsg, apiErr.Message)
			}
			if apiErr.Redirect != "" {
				t.Errorf("login failure should not redirect, got %q", apiErr.Redirect)
			}
			if tokens.invalidated != 0 {
				t.Error("login failure should not invalidate the session")
			}
		})
	}
}

func TestRegister(t *testing.T) {
	tests := []struct {
		name string
		body string
		want dynsched.User
	}{
		{"wrapped", `{"success":true,"user":{"id":"u2","username":"bob"}}`, dynsched.User{ID: "u2", Username: "bob"}},
		{"bare", `{"id":"u2","username":"bob","email":"bob@example.com"}`, dynsched.User{ID: "u2", Username: "bob", Email: "bob@example.com"}},
		{"empty", ``, dynsched.User{Username: "bob", Email: "bob@example.com"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/api/auth/register" {
					t.Errorf("unexpected path %s", r.URL.Path)
				}
				writeJSON(w, http.StatusCreated, tc.body)
			}, nil)

			u, err := c.Register(context.Background(), dynsched.RegisterRequest{
				Username: "bob",
				Email:    "bob@example.com",
				Password: "pw",
			})
			if err != nil {
				t.Fatalf("Register: %v", err)
			}
			if u != tc.want {
				t.Errorf("expected %+v, got %+v", tc.want, u)
			}
		})
	}
}

func TestAuthenticatedRequestHeaders(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer tok123" {
			t.Errorf("expected bearer token, got %q", got)
		}
		if r.Header.Get(headerRequestID) == "" {
			t.Error("expected request id")
		}
		writeJSON(w, http.StatusOK, `[{"id":"e1","title":"Standup","priority":2,"user_id":"u1"}]`)
	}, &fakeTokens{token: "tok123"})

	events, err := c.ListEvents(context.Background())
	if err != nil {
		t.Fatalf("ListEvents: %v", err)
	}
	if len(events) != 1 || events[0].ID != "e1" || events[0].Priority != dynsched.PriorityHigh {
		t.Errorf("unexpected events %+v", events)
	}
}

func TestNoTokenNoHeader(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "" {
			t.Errorf("expected no authorization header, got %q", got)
		}
		writeJSON(w, http.StatusOK, `null`)
	}, &fakeTokens{})

	tasks, err := c.ListTasks(context.Background(), dynsched.TaskFilter{})
	if err != nil {
		t.Fatalf("ListTasks: %v", err)
	}
	if tasks == nil || len(tasks) != 0 {
		t.Errorf("expected empty non-nil slice, got %#v", tasks)
	}
}

func TestUnauthorizedInvalidatesSession(t *testing.T) {
	tokens := &fakeTokens{token: "expired"}
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, `{}`)
	}, tokens)

	_, err := c.CreateTask(context.Background(), dynsched.Task{Name: "Write report", Priority: dynsched.PriorityMedium})
	if !errors.Is(err, dynsched.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if tokens.invalidated != 1 || tokens.rejected != "expired" {
		t.Errorf("expected token source invalidated once for %q, got %d for %q", "expired", tokens.invalidated, tokens.rejected)
	}
	if to, ok := dynsched.RedirectTarget(err); !ok || to != dynsched.LoginRoute {
		t.Errorf("expected redirect to %s, got %q", dynsched.LoginRoute, to)
	}
	if got := dynsched.Message(err); got != msgExpired {
		t.Errorf("expected expiry message, got %q", got)
	}
}

func TestUnauthorizedWithoutToken(t *testing.T) {
	tokens := &fakeTokens{}
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, `{"error":"Authentication required"}`)
	}, tokens)

	_, err := c.ListEvents(context.Background())
	apiErr := asAPIError(t, err)
	if apiErr.Redirect != "" || tokens.invalidated != 0 {
		t.Errorf("expected plain failure, got redirect=%q invalidated=%d", apiErr.Redirect, tokens.invalidated)
	}
	if apiErr.Message != "Authentication required" {
		t.Errorf("expected server message, got %q", apiErr.Message)
	}
}

func TestTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()
	c := NewClient(url, charmlog.Discard())

	events, err := c.ListEvents(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	if events == nil || len(events) != 0 {
		t.Errorf("expected empty non-nil slice, got %#v", events)
	}
	if got := dynsched.Message(err); got != "Failed to fetch events. Please try again." {
		t.Errorf("unexpected message %q", got)
	}

	tasks, err := c.ListTasks(context.Background(), dynsched.TaskFilter{})
	if err == nil || tasks == nil || len(tasks) != 0 {
		t.Errorf("expected empty tasks and error, got %#v, %v", tasks, err)
	}

	_, err = c.CreateTask(context.Background(), dynsched.Task{Name: "x"})
	if got := dynsched.Message(err); got != "Failed to create task. Please try again." {
		t.Errorf("unexpected message %q", got)
	}
	if asAPIError(t, err).Status != 0 {
		t.Error("expected zero status without a response")
	}
}

func TestServerErrorMessage(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantMsg string
	}{
		{"verbatim", `{"error":"Task name is required"}`, "Task name is required"},
		{"generic", `<html>oops</html>`, "Failed to update task. Please try again."},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodPut || r.URL.Path != "/api/tasks/t1" {
					t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
				}
				writeJSON(w, http.StatusBadRequest, tc.body)
			}, nil)

			status := dynsched.StatusCompleted
			_, err := c.UpdateTask(context.Background(), "t1", dynsched.TaskUpdate{Status: &status})
			apiErr := asAPIError(t, err)
			if apiErr.Message != tc.wantMsg || apiErr.Status != http.StatusBadRequest {
				t.Errorf("expected %q/400, got %q/%d", tc.wantMsg, apiErr.Message, apiErr.Status)
			}
		})
	}
}

func TestListTasks_Filter(t *testing.T) {
	tests := []struct {
		name      string
		filter    dynsched.TaskFilter
		wantQuery string
	}{
		{"none", dynsched.TaskFilter{}, ""},
		{"status", dynsched.TaskFilter{Status: dynsched.StatusPending}, "status=pending"},
		{"both", dynsched.TaskFilter{Priority: dynsched.PriorityHigh, Status: dynsched.StatusInProgress}, "priority=2&status=in-progress"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				if r.URL.RawQuery != tc.wantQuery {
					t.Errorf("expected query %q, got %q", tc.wantQuery, r.URL.RawQuery)
				}
				writeJSON(w, http.StatusOK, `[]`)
			}, nil)
			if _, err := c.ListTasks(context.Background(), tc.filter); err != nil {
				t.Fatal(err)
			}
		})
	}
}

func TestGetEvent_NotFound(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, `{"error":"Event not found"}`)
	}, nil)

	_, err := c.GetEvent(context.Background(), "missing")
	if !errors.Is(err, dynsched.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestEmptyIDSkipsRequest(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
	}, nil)

	if err := c.DeleteTask(context.Background(), " "); err == nil {
		t.Error("expected error for empty id")
	}
	if err := c.DeleteEvent(context.Background(), ""); err == nil {
		t.Error("expected error for empty id")
	}
}

func TestGetScheduleSuggestions(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/schedule/suggestions" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var body struct {
			Tasks []dynsched.Task `json:"tasks"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode body: %v", err)
		}
		if len(body.Tasks) != 1 || body.Tasks[0].ID != "t1" {
			t.Errorf("unexpected tasks %+v", body.Tasks)
		}
		writeJSON(w, http.StatusOK, `{"schedule":[{"task_id":"t1","slot":"morning"}]}`)
	}, &fakeTokens{token: "tok123"})

	s, err := c.GetScheduleSuggestions(context.Background(), []dynsched.Task{{ID: "t1", Name: "Write report"}})
	if err != nil {
		t.Fatalf("GetScheduleSuggestions: %v", err)
	}
	if _, ok := s["schedule"]; !ok {
		t.Errorf("expected schedule key, got %v", s)
	}
}

func TestListEvents_DateFormats(t *testing.T) {
	tests := []struct {
		name string
		date string
		want time.Time
	}{
		{"rfc3339", "2024-01-15T10:00:00Z", time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)},
		{"naive", "2024-01-15T10:00:00", time.Date(2024, 1, 15, 10, 0, 0, 0, time.Local)},
		{"date only", "2024-01-15", time.Date(2024, 1, 15, 0, 0, 0, 0, time.Local)},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, http.StatusOK, `[{"id":"e1","title":"Standup","date":"`+tc.date+`","priority":2}]`)
			}, nil)

			events, err := c.ListEvents(context.Background())
			if err != nil {
				t.Fatalf("ListEvents: %v", err)
			}
			if len(events) != 1 || !events[0].Date.Equal(tc.want) {
				t.Errorf("expected one event at %v, got %+v", tc.want, events)
			}
		})
	}
}

func TestGetTask_NaiveDueDate(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"id":"t1","task_name":"Write report","due_date":"2024-01-20T17:00:00","priority":3,"status":"pending"}`)
	}, nil)

	task, err := c.GetTask(context.Background(), "t1")
	if err != nil {
		t.Fatalf("GetTask: %v", err)
	}
	want := time.Date(2024, 1, 20, 17, 0, 0, 0, time.Local)
	if task.DueDate == nil || !task.DueDate.Equal(want) {
		t.Errorf("expected due %v, got %v", want, task.DueDate)
	}
}
