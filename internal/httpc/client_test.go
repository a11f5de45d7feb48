package httpc

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestGetJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"frames": 42}`))
	}))
	defer srv.Close()

	var out struct {
		Frames int `json:"frames"`
	}
	if err := GetJSON(context.Background(), srv.URL+"/api/status", &out); err != nil {
		t.Fatalf("GetJSON: %v", err)
	}
	if out.Frames != 42 {
		t.Errorf("frames = %d, want 42", out.Frames)
	}

	if err := GetJSON(context.Background(), srv.URL+"/missing", &out); err == nil {
		t.Error("expected an error for 404")
	}
}
