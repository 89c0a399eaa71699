package api

import (
	"bufio"
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/drcloud/assistant/internal/agent/runner"
	"github.com/drcloud/assistant/internal/store"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	svc, err := runner.New(runner.Config{
		Provider:      runner.ProviderMock,
		Model:         "mock",
		DocumentStore: store.NewMemoryStore(),
	})
	if err != nil {
		t.Fatalf("runner.New: %v", err)
	}
	t.Cleanup(func() { _ = svc.Close() })

	srv := New(0, svc, &NoOpReadinessChecker{})
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func postJSON(t *testing.T, url string, body interface{}) *http.Response {
	t.Helper()
	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	defer resp.Body.Close()
	var out map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	return out
}

func TestHealthEndpoint(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/health")
	if err != nil {
		t.Fatalf("GET /health: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	body := decodeBody(t, resp)
	if body["status"] != "healthy" || body["service"] != ServiceName {
		t.Errorf("unexpected health body %v", body)
	}
}

type notReadyChecker struct{}

func (notReadyChecker) IsReady() bool { return false }

func TestHealthReportsUnavailableUntilReady(t *testing.T) {
	svc, err := runner.New(runner.Config{Provider: runner.ProviderMock, DocumentStore: store.NewMemoryStore()})
	if err != nil {
		t.Fatalf("runner.New: %v", err)
	}
	t.Cleanup(func() { _ = svc.Close() })

	srv := New(0, svc, notReadyChecker{})
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	resp, err := http.Get(ts.URL + "/health")
	if err != nil {
		t.Fatalf("GET /health: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", resp.StatusCode)
	}
}

func TestSessionNewGeneratesIDs(t *testing.T) {
	ts := newTestServer(t)

	resp := postJSON(t, ts.URL+"/api/v1/session/new", map[string]string{})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	body := decodeBody(t, resp)

	userID, _ := body["user_id"].(string)
	sessionID, _ := body["session_id"].(string)
	if !strings.HasPrefix(userID, "user_") {
		t.Errorf("unexpected user_id %q", userID)
	}
	if !strings.HasPrefix(sessionID, "session_") {
		t.Errorf("unexpected session_id %q", sessionID)
	}
	if body["message"] != "Session created" {
		t.Errorf("unexpected message %v", body["message"])
	}
}

func TestSessionNewIsIdempotent(t *testing.T) {
	ts := newTestServer(t)

	req := map[string]string{"user_id": "user_abc", "session_id": "session_abc"}
	first := decodeBody(t, postJSON(t, ts.URL+"/api/v1/session/new", req))
	second := decodeBody(t, postJSON(t, ts.URL+"/api/v1/session/new", req))

	if first["message"] != "Session created" {
		t.Errorf("first create: %v", first["message"])
	}
	if second["message"] != "Session resumed" {
		t.Errorf("second create: %v", second["message"])
	}
}

func TestSessionStateNotFound(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/v1/session/state?user_id=u&session_id=missing")
	if err != nil {
		t.Fatalf("GET state: %v", err)
	}
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
	body := decodeBody(t, resp)
	if body["error"] != "NOT_FOUND" {
		t.Errorf("unexpected error code %v", body["error"])
	}
}

func TestSessionDeleteIsIdempotent(t *testing.T) {
	ts := newTestServer(t)

	req, err := http.NewRequest(http.MethodDelete, ts.URL+"/api/v1/session?user_id=u&session_id=s", nil)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("DELETE session: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
}

func TestChatValidation(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		name string
		body map[string]interface{}
	}{
		{"missing ids", map[string]interface{}{"message": "hi"}},
		{"missing message", map[string]interface{}{"user_id": "u", "session_id": "s"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := postJSON(t, ts.URL+"/api/v1/chat", tt.body)
			defer resp.Body.Close()
			if resp.StatusCode != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", resp.StatusCode)
			}
		})
	}
}

func TestChatTurn(t *testing.T) {
	ts := newTestServer(t)

	resp := postJSON(t, ts.URL+"/api/v1/chat", map[string]interface{}{
		"user_id":    "user_1",
		"session_id": "session_1",
		"message":    "I have a persistent cough",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	body := decodeBody(t, resp)

	if body["user_id"] != "user_1" || body["session_id"] != "session_1" {
		t.Errorf("ids not echoed: %v", body)
	}
	if s, _ := body["response"].(string); s == "" {
		t.Error("empty response")
	}
	if _, ok := body["metadata"].(map[string]interface{}); !ok {
		t.Error("missing metadata")
	}
}

func TestChatStreamEndsWithComplete(t *testing.T) {
	ts := newTestServer(t)

	payload, _ := json.Marshal(map[string]string{
		"user_id":    "user_1",
		"session_id": "session_1",
		"message":    "my knee hurts after running",
	})
	resp, err := http.Post(ts.URL+"/api/v1/chat/stream", "application/json", bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("POST stream: %v", err)
	}
	defer resp.Body.Close()

	if got := resp.Header.Get("Content-Type"); got != "text/event-stream" {
		t.Fatalf("content type = %q", got)
	}

	var types []string
	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		var frame struct {
			Type string `json:"type"`
		}
		if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &frame); err != nil {
			t.Fatalf("bad frame %q: %v", line, err)
		}
		types = append(types, frame.Type)
	}
	if err := scanner.Err(); err != nil {
		t.Fatalf("scan: %v", err)
	}

	if len(types) == 0 {
		t.Fatal("no frames received")
	}
	if types[len(types)-1] != string(runner.EventTypeComplete) {
		t.Errorf("last frame = %q, want complete", types[len(types)-1])
	}
	found := false
	for _, typ := range types {
		if typ == string(runner.EventTypeResponse) {
			found = true
		}
	}
	if !found {
		t.Error("missing response frame")
	}
}

func TestMethodNotAllowed(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/v1/chat")
	if err != nil {
		t.Fatalf("GET chat: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want 405", resp.StatusCode)
	}
}
