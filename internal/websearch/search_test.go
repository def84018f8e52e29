package websearch

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := New(context.Background(), zap.NewNop(), "test-key", "test-engine")
	client.APIURL = server.URL
	return client
}

func TestSearchDecodesItems(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("key") != "test-key" || q.Get("cx") != "test-engine" {
			t.Errorf("credentials not passed: %v", q)
		}
		if q.Get("q") != "site:linkedin.com/in golang" {
			t.Errorf("unexpected query: %q", q.Get("q"))
		}
		if q.Get("num") != "5" {
			t.Errorf("unexpected num: %q", q.Get("num"))
		}

		json.NewEncoder(w).Encode(map[string]any{
			"items": []map[string]any{
				{
					"title":   "Jane Doe - Engineer | LinkedIn",
					"link":    "https://www.linkedin.com/in/janedoe",
					"snippet": "Go developer in Berlin",
					"mime":    "text/html",
				},
				{
					"title": "John Roe",
					"link":  "https://github.com/johnroe",
				},
			},
		})
	})

	results, err := client.Search(&SearchParams{Query: "site:linkedin.com/in golang", Num: 5})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Title != "Jane Doe - Engineer | LinkedIn" {
		t.Fatalf("unexpected title: %q", results[0].Title)
	}
	if results[0].Link != "https://www.linkedin.com/in/janedoe" {
		t.Fatalf("unexpected link: %q", results[0].Link)
	}
	if results[1].Snippet != "" {
		t.Fatalf("expected empty snippet, got %q", results[1].Snippet)
	}
}

func TestSearchBoundsResultCount(t *testing.T) {
	tests := []struct {
		name string
		num  int
		want string
	}{
		{"zero defaults to max", 0, "10"},
		{"above api limit", 25, "10"},
		{"within limit", 3, "3"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotNum string
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				gotNum = r.URL.Query().Get("num")
				json.NewEncoder(w).Encode(map[string]any{})
			})

			if _, err := client.Search(&SearchParams{Query: "q", Num: tt.num}); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if gotNum != tt.want {
				t.Fatalf("expected num %q, got %q", tt.want, gotNum)
			}
		})
	}
}

func TestSearchEmptyResponse(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{})
	})

	results, err := client.Search(&SearchParams{Query: "nothing here"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("expected no results, got %d", len(results))
	}
}

func TestSearchBadStatus(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	})

	if _, err := client.Search(&SearchParams{Query: "q"}); err == nil {
		t.Fatalf("expected error for non-200 status")
	}
}
