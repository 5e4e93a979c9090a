package jokes

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serve(t *testing.T, status int, body string) string {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv.URL
}

func TestJoke_FromService(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"array", `[{"id":1,"type":"programming","setup":"Why?","punchline":"Because."}]`, "Why? Because."},
		{"object", `{"setup":"Knock knock.","punchline":"Who's there?"}`, "Knock knock. Who's there?"},
		{"flat joke", `{"id":"x","joke":"I'm reading a book about anti-gravity.","status":200}`, "I'm reading a book about anti-gravity."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSource(serve(t, http.StatusOK, tt.body), nil)

			joke, err := s.Joke(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tt.want, joke)
		})
	}
}

func TestJoke_FallsBackOffline(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"server error", http.StatusInternalServerError, `oops`},
		{"not json", http.StatusOK, `<html></html>`},
		{"missing punchline", http.StatusOK, `{"setup":"Why?"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSource(serve(t, tt.status, tt.body), nil)
			s.pick = func(int) int { return 0 }

			joke, err := s.Joke(context.Background())
			require.NoError(t, err)
			assert.Equal(t, offline[0], joke)
		})
	}
}

func TestJoke_NoURL(t *testing.T) {
	s := NewSource("", nil)
	s.pick = func(n int) int { return n - 1 }

	joke, err := s.Joke(context.Background())
	require.NoError(t, err)
	assert.Equal(t, offline[len(offline)-1], joke)
}
