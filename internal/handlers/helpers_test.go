package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestRespondJSON(t *testing.T) {
	t.Parallel()

	w := httptest.NewRecorder()
	respondJSON(w, http.StatusCreated, map[string]string{"message": "hello"})

	if w.Code != http.StatusCreated {
		t.Errorf("status = %d, want 201", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}

	var body map[string]any
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if success, ok := body["success"].(bool); !ok || !success {
		t.Errorf("success = %v, want true", body["success"])
	}
	data, ok := body["data"].(map[string]any)
	if !ok || data["message"] != "hello" {
		t.Errorf("data = %v", body["data"])
	}
	ts, _ := body["timestamp"].(string)
	if _, err := time.Parse(time.RFC3339, ts); err != nil {
		t.Errorf("timestamp %q not RFC3339: %v", ts, err)
	}
}

func TestRespondJSONError(t *testing.T) {
	t.Parallel()

	w := httptest.NewRecorder()
	respondJSONError(w, http.StatusBadRequest, "Bad Request", "something was off")

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}

	var body map[string]any
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if success, ok := body["success"].(bool); !ok || success {
		t.Errorf("success = %v, want false", body["success"])
	}
	if body["error"] != "Bad Request" {
		t.Errorf("error = %v", body["error"])
	}
	if body["message"] != "something was off" {
		t.Errorf("message = %v", body["message"])
	}
}

func TestSanitizeErrorMessageTruncates(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("a", 300)
	got := sanitizeErrorMessage(long)
	if len(got) != 203 {
		t.Errorf("len = %d, want 203 (200 chars plus ellipsis)", len(got))
	}
	if !strings.HasSuffix(got, "...") {
		t.Errorf("expected truncated suffix, got %q", got[len(got)-10:])
	}
}
