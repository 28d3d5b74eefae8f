package classifier

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestClassifyGenre(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("unexpected auth header %q", got)
		}

		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("failed to decode request: %v", err)
		}
		if len(req.Messages) == 0 {
			t.Fatal("expected at least one message")
		}

		json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"role": "assistant", "content": "\"Jazz.\"\n"}},
			},
		})
	}))
	defer server.Close()

	c := NewClient(&Config{APIBaseURL: server.URL, APIKey: "test-key", Model: "test-model"})
	genre, err := c.ClassifyGenre(context.Background(), "data:audio/mpeg;base64,AAAA")
	if err != nil {
		t.Fatalf("ClassifyGenre failed: %v", err)
	}
	if genre != "Jazz" {
		t.Fatalf("expected cleaned label Jazz, got %q", genre)
	}
}

func TestClassifyGenreServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	c := NewClient(&Config{APIBaseURL: server.URL, APIKey: "k", Model: "m"})
	if _, err := c.ClassifyGenre(context.Background(), "data:audio/mpeg;base64,AAAA"); err == nil {
		t.Fatal("expected error on 503 response")
	}
}

func TestCleanGenreLabel(t *testing.T) {
	cases := map[string]string{
		"Jazz":              "Jazz",
		"\"Electronic\"":    "Electronic",
		"Hip-Hop.\nBecause": "Hip-Hop",
		"  Rock  ":          "Rock",
	}
	for in, want := range cases {
		if got := cleanGenreLabel(in); got != want {
			t.Errorf("cleanGenreLabel(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestAudioDataURI(t *testing.T) {
	uri := AudioDataURI([]byte{1, 2, 3}, "audio/mpeg")
	if !strings.HasPrefix(uri, "data:audio/mpeg;base64,") {
		t.Fatalf("unexpected data uri %q", uri)
	}
}
