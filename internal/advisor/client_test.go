package advisor

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		goleak.IgnoreTopFunction("net/http.(*persistConn).readLoop"),
		goleak.IgnoreTopFunction("net/http.(*persistConn).writeLoop"),
	)
}

func testClient(t *testing.T, serverURL string) *Client {
	t.Helper()
	c := NewClient(Config{
		APIKey:  "test-key",
		BaseURL: serverURL,
		Model:   "test-model",
		Timeout: 5 * time.Second,
	}, nil)
	c.retryBackoffBase = time.Millisecond
	t.Cleanup(c.httpClient.CloseIdleConnections)
	return c
}

func textResponse(text string) string {
	return fmt.Sprintf(`{"candidates":[{"content":{"parts":[{"text":%q}]}}]}`, text)
}

func TestGenerate_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if !strings.Contains(r.URL.Path, "test-model:generateContent") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.URL.Query().Get("key") != "test-key" {
			t.Error("expected api key in query")
		}

		var body genRequest
		json.NewDecoder(r.Body).Decode(&body)
		if body.SystemInstruction == nil {
			t.Error("expected system instruction")
		}
		if body.GenerationConfig.Temperature != 0.2 {
			t.Errorf("expected temperature 0.2, got %v", body.GenerationConfig.Temperature)
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(textResponse("audit complete")))
	}))
	defer server.Close()

	c := testClient(t, server.URL)
	text, sources, err := c.generate(context.Background(), "report text", genOptions{
		system:      "sys",
		temperature: 0.2,
	})
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if text != "audit complete" {
		t.Errorf("expected 'audit complete', got %q", text)
	}
	if sources != nil {
		t.Errorf("expected no sources, got %v", sources)
	}
}

func TestGenerate_RetriesRateLimit(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(textResponse("recovered")))
	}))
	defer server.Close()

	c := testClient(t, server.URL)
	text, _, err := c.generate(context.Background(), "prompt", genOptions{temperature: 0.3})
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if attempts != 3 {
		t.Errorf("expected 3 attempts, got %d", attempts)
	}
	if text != "recovered" {
		t.Errorf("unexpected text %q", text)
	}
}

func TestGenerate_NoAPIKey(t *testing.T) {
	c := NewClient(Config{BaseURL: "http://127.0.0.1:0"}, nil)
	if _, _, err := c.generate(context.Background(), "prompt", genOptions{}); err == nil {
		t.Fatal("expected error without api key")
	}
}

func TestGenerate_ExtractsGroundingSources(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body genRequest
		json.NewDecoder(r.Body).Decode(&body)
		if len(body.Tools) != 1 || body.Tools[0].GoogleSearch == nil {
			t.Error("expected googleSearch tool in request")
		}

		w.Write([]byte(`{"candidates":[{
			"content":{"parts":[{"text":"grounded answer"}]},
			"groundingMetadata":{"groundingChunks":[
				{"web":{"uri":"https://example.com/iso","title":"ISO Update"}},
				{"web":{"uri":"https://example.com/untitled"}},
				{"web":{"uri":""}}
			]}
		}]}`))
	}))
	defer server.Close()

	c := testClient(t, server.URL)
	text, sources, err := c.generate(context.Background(), "topic", genOptions{googleSearch: true})
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if text != "grounded answer" {
		t.Errorf("unexpected text %q", text)
	}
	if len(sources) != 2 {
		t.Fatalf("expected 2 sources (empty URI dropped), got %d", len(sources))
	}
	if sources[0].Title != "ISO Update" || sources[0].URL != "https://example.com/iso" {
		t.Errorf("unexpected first source %+v", sources[0])
	}
	if sources[1].Title != "Intelligence Source" {
		t.Errorf("expected fallback title, got %q", sources[1].Title)
	}
}

func TestStream_DeliversFragmentsInOrder(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, "streamGenerateContent") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "text/event-stream")
		for _, text := range []string{"A", "B", "C"} {
			fmt.Fprintf(w, "data: %s\n\n", textResponse(text))
		}
	}))
	defer server.Close()

	c := testClient(t, server.URL)
	content, errs := c.stream(context.Background(), "hello", genOptions{temperature: 0.4})

	var got []string
	for fragment := range content {
		got = append(got, fragment)
	}
	if err := <-errs; err != nil {
		t.Fatalf("stream failed: %v", err)
	}
	if strings.Join(got, "") != "ABC" {
		t.Errorf("expected fragments ABC in order, got %v", got)
	}
}

func TestStream_SurfacesHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	c := testClient(t, server.URL)
	content, errs := c.stream(context.Background(), "hello", genOptions{})

	for range content {
	}
	if err := <-errs; err == nil {
		t.Fatal("expected error from 500 response")
	}
}

func TestStream_SkipsMalformedChunks(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "data: {not json}\n\n")
		fmt.Fprintf(w, "data: %s\n\n", textResponse("ok"))
		fmt.Fprint(w, ": keepalive comment\n\n")
	}))
	defer server.Close()

	c := testClient(t, server.URL)
	content, errs := c.stream(context.Background(), "hello", genOptions{})

	var got []string
	for fragment := range content {
		got = append(got, fragment)
	}
	if err := <-errs; err != nil {
		t.Fatalf("stream failed: %v", err)
	}
	if len(got) != 1 || got[0] != "ok" {
		t.Errorf("expected single fragment 'ok', got %v", got)
	}
}
