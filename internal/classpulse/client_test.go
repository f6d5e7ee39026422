// Package classpulse tests document the expected behavior of the API client.
//
// Test requirements (this file serves as documentation):
// - Client reads activities and reactions whatever the field casing
// - Client treats a non-list feedback answer as "no new data"
// - Client authenticates teachers and forwards their bearer token
// - Client turns API status codes into actionable errors
package classpulse

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gauthierbraillon/classpulse/internal/feedback"
)

func newServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return server
}

func TestNewClient_DefaultsToLocalAPI(t *testing.T) {
	if got := NewClient().BaseURL(); got != DefaultBaseURL {
		t.Errorf("BaseURL() = %q, want %q", got, DefaultBaseURL)
	}
	if got := NewClient(WithBaseURL("http://api.test/api/")).BaseURL(); got != "http://api.test/api" {
		t.Errorf("trailing slash should be trimmed, got %q", got)
	}
}

func TestClient_GetFeedbacksByActivity(t *testing.T) {
	server := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/feedbacks/activity/42" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"Id": 7, "Emotion": "Happy", "Timestamp": "2025-03-10T09:30:00Z"},
			{"emotion": "confused", "createdAt": "2025-03-10T09:31:00.123+01:00"},
			{"id": "x", "emotion": "bored", "timestamp": "2025-03-10T09:32:00Z"}
		]`))
	})

	events, err := NewClient(WithBaseURL(server.URL)).GetFeedbacksByActivity(context.Background(), "42")

	if err != nil {
		t.Fatalf("user should see reactions, got error: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("unknown emotions should be dropped, got %d reactions", len(events))
	}
	if events[0].ID != "7" || events[0].Emotion != feedback.EmotionHappy {
		t.Errorf("PascalCase fields should be understood, got %+v", events[0])
	}
	if !events[0].Timestamp.Equal(time.Date(2025, 3, 10, 9, 30, 0, 0, time.UTC)) {
		t.Errorf("wrong timestamp %v", events[0].Timestamp)
	}
	if events[1].Emotion != feedback.EmotionConfused || events[1].Timestamp.Equal(feedback.Epoch) {
		t.Errorf("camelCase createdAt should be understood, got %+v", events[1])
	}
}

func TestClient_GetFeedbacksByActivity_NonListIsUnexpectedShape(t *testing.T) {
	server := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"message": "no feedback yet"}`))
	})

	_, err := NewClient(WithBaseURL(server.URL)).GetFeedbacksByActivity(context.Background(), "42")

	if !errors.Is(err, ErrUnexpectedShape) {
		t.Errorf("expected ErrUnexpectedShape, got %v", err)
	}
}

func TestClient_GetFeedbacksByActivity_MalformedJSON(t *testing.T) {
	server := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"emotion": `))
	})

	_, err := NewClient(WithBaseURL(server.URL)).GetFeedbacksByActivity(context.Background(), "42")

	if err == nil {
		t.Fatal("malformed body should be an error")
	}
	if errors.Is(err, ErrUnexpectedShape) {
		t.Error("malformed body is a failure, not 'no new data'")
	}
}

func TestClient_GetActivityByID(t *testing.T) {
	server := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/activities/42" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"Title": "Algebra", "AccessCode": "XYZ", "StartTime": "2025-03-10T09:00:00", "EndTime": null}`))
	})

	activity, err := NewClient(WithBaseURL(server.URL)).GetActivityByID(context.Background(), "42")

	if err != nil {
		t.Fatalf("user should see the activity, got error: %v", err)
	}
	if activity.ID != "42" {
		t.Errorf("missing id should default to the requested one, got %q", activity.ID)
	}
	if activity.Title != "Algebra" || activity.AccessCode != "XYZ" {
		t.Errorf("wrong activity %+v", activity)
	}
	if activity.StartTime == nil || activity.EndTime != nil {
		t.Errorf("start should be set and end unset, got %v / %v", activity.StartTime, activity.EndTime)
	}
}

func TestClient_StatusErrors(t *testing.T) {
	tests := []struct {
		status   int
		contains string
	}{
		{http.StatusUnauthorized, "classpulse login"},
		{http.StatusForbidden, "access denied"},
		{http.StatusNotFound, "not found"},
		{http.StatusTooManyRequests, "rate limit"},
		{http.StatusInternalServerError, "server error"},
		{http.StatusServiceUnavailable, "temporarily unavailable"},
		{http.StatusTeapot, "status 418"},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			server := newServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			})

			_, err := NewClient(WithBaseURL(server.URL)).GetFeedbacksByActivity(context.Background(), "1")

			if err == nil {
				t.Fatal("expected an error")
			}
			if !strings.Contains(err.Error(), tt.contains) {
				t.Errorf("user should see %q in error, got %q", tt.contains, err.Error())
			}
			if !strings.Contains(err.Error(), "ClassPulse API") {
				t.Errorf("error should name the ClassPulse API, got %q", err.Error())
			}
		})
	}
}

func TestClient_NotFoundMatchesSentinel(t *testing.T) {
	server := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := NewClient(WithBaseURL(server.URL)).GetActivityByID(context.Background(), "404")

	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestClient_UnreachableAPI(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	_, err := NewClient(WithBaseURL(url)).GetFeedbacksByActivity(context.Background(), "1")

	if err == nil || !strings.Contains(err.Error(), "unreachable") {
		t.Errorf("user should learn the API is unreachable, got %v", err)
	}
}

func TestClient_Login(t *testing.T) {
	server := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/teachers/login" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["email"] != "prof@school.edu" || body["password"] != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`{"token": "jwt-token"}`))
	})
	client := NewClient(WithBaseURL(server.URL))

	token, err := client.Login(context.Background(), "prof@school.edu", "secret")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if token != "jwt-token" {
		t.Errorf("token = %q", token)
	}

	_, err = client.Login(context.Background(), "prof@school.edu", "wrong")
	if err == nil || !strings.Contains(err.Error(), "email and password") {
		t.Errorf("bad credentials should explain what to check, got %v", err)
	}
}

func TestClient_Me_SendsBearerToken(t *testing.T) {
	server := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer jwt-token" {
			t.Errorf("expected Bearer token in Authorization header, got %q", got)
		}
		_, _ = w.Write([]byte(`{"Id": 3, "Name": "Ada", "Email": "ada@school.edu"}`))
	})

	teacher, err := NewClient(WithBaseURL(server.URL), WithToken("jwt-token")).Me(context.Background())

	if err != nil {
		t.Fatalf("Me failed: %v", err)
	}
	if teacher.ID != "3" || teacher.Name != "Ada" || teacher.Email != "ada@school.edu" {
		t.Errorf("wrong teacher %+v", teacher)
	}
}

func TestClient_Me_RequiresLogin(t *testing.T) {
	_, err := NewClient(WithBaseURL("http://unused.invalid")).Me(context.Background())

	if err == nil || !strings.Contains(err.Error(), "classpulse login") {
		t.Errorf("user should be told to log in, got %v", err)
	}
}

func TestClient_RegisterTeacher(t *testing.T) {
	server := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/teachers" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %q", ct)
		}
		w.WriteHeader(http.StatusCreated)
	})

	teacher, err := NewClient(WithBaseURL(server.URL)).RegisterTeacher(context.Background(), "Ada", "ada@school.edu", "pw")

	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if teacher.Name != "Ada" || teacher.Email != "ada@school.edu" {
		t.Errorf("empty body should fall back to submitted details, got %+v", teacher)
	}
}
