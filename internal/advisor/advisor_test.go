package advisor

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dualikorea/reception/internal/models"
)

// geminiTestServer starts a server and returns a client pointed at it.
func geminiTestServer(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return New(Config{
		APIKey:     "test-key",
		Endpoint:   server.URL,
		HTTPClient: server.Client(),
	})
}

func TestDiagnose(t *testing.T) {
	t.Parallel()

	client := geminiTestServer(t, func(writer http.ResponseWriter, request *http.Request) {
		if request.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", request.Method)
		}
		if want := "/v1beta/models/" + DefaultModel + ":generateContent"; request.URL.Path != want {
			t.Errorf("path = %s, want %s", request.URL.Path, want)
		}
		if key := request.Header.Get("x-goog-api-key"); key != "test-key" {
			t.Errorf("api key header = %q", key)
		}

		var wireRequest struct {
			Contents []struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"contents"`
			GenerationConfig struct {
				Temperature     float64 `json:"temperature"`
				TopP            float64 `json:"topP"`
				MaxOutputTokens int     `json:"maxOutputTokens"`
			} `json:"generationConfig"`
		}
		if err := json.NewDecoder(request.Body).Decode(&wireRequest); err != nil {
			writer.WriteHeader(http.StatusBadRequest)
			return
		}

		config := wireRequest.GenerationConfig
		if config.Temperature != 0.7 || config.TopP != 0.95 || config.MaxOutputTokens != 500 {
			t.Errorf("generationConfig = %+v", config)
		}
		if len(wireRequest.Contents) != 1 || len(wireRequest.Contents[0].Parts) != 1 {
			t.Errorf("contents = %+v", wireRequest.Contents)
			writer.WriteHeader(http.StatusBadRequest)
			return
		}
		prompt := wireRequest.Contents[0].Parts[0].Text
		for _, want := range []string{"Product: Widget", "Issue: cracked case", "1. Possible Cause", "2. Recommended Action"} {
			if !strings.Contains(prompt, want) {
				t.Errorf("prompt missing %q:\n%s", want, prompt)
			}
		}

		writer.Header().Set("Content-Type", "application/json")
		writer.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":"1. 원인: 충격\n"},{"text":"2. 조치: 케이스 교체"}]}}]}`))
	})

	got := client.Diagnose(context.Background(), "cracked case", "Widget")
	if want := "1. 원인: 충격\n2. 조치: 케이스 교체"; got != want {
		t.Errorf("Diagnose = %q, want %q", got, want)
	}
}

func TestDiagnoseFailingProvider(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"server error", func(writer http.ResponseWriter, _ *http.Request) {
			writer.WriteHeader(http.StatusInternalServerError)
			writer.Write([]byte(`{"error":{"code":500,"status":"INTERNAL","message":"boom"}}`))
		}},
		{"rate limited", func(writer http.ResponseWriter, _ *http.Request) {
			writer.WriteHeader(http.StatusTooManyRequests)
			writer.Write([]byte("slow down"))
		}},
		{"malformed body", func(writer http.ResponseWriter, _ *http.Request) {
			writer.Write([]byte("{not json"))
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := geminiTestServer(t, tt.handler)
			if got := client.Diagnose(context.Background(), "cracked case", "Widget"); got != FallbackMessage {
				t.Errorf("Diagnose = %q, want fallback", got)
			}
		})
	}
}

func TestDiagnoseUnreachable(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.NotFoundHandler())
	endpoint := server.URL
	server.Close()

	client := New(Config{APIKey: "k", Endpoint: endpoint})
	if got := client.Diagnose(context.Background(), "cracked case", "Widget"); got != FallbackMessage {
		t.Errorf("Diagnose = %q, want fallback", got)
	}
}

func TestDiagnoseWithoutKey(t *testing.T) {
	t.Parallel()

	client := New(Config{Endpoint: "http://127.0.0.1:1"})
	if got := client.Diagnose(context.Background(), "x", "y"); got != FallbackMessage {
		t.Errorf("Diagnose = %q, want fallback", got)
	}
}

func TestDiagnoseEmptyCandidates(t *testing.T) {
	t.Parallel()

	client := geminiTestServer(t, func(writer http.ResponseWriter, _ *http.Request) {
		writer.Write([]byte(`{"candidates":[]}`))
	})
	if got := client.Diagnose(context.Background(), "x", "y"); got != NoResultMessage {
		t.Errorf("Diagnose = %q, want no-result message", got)
	}
}

func TestAdvisoryErrorMessage(t *testing.T) {
	t.Parallel()

	client := geminiTestServer(t, func(writer http.ResponseWriter, _ *http.Request) {
		writer.WriteHeader(http.StatusForbidden)
		writer.Write([]byte(`{"error":{"status":"PERMISSION_DENIED","message":"bad key"}}`))
	})
	_, err := client.generate(context.Background(), "prompt")
	advisoryErr, ok := err.(*AdvisoryError)
	if !ok {
		t.Fatalf("err = %T %v, want *AdvisoryError", err, err)
	}
	if advisoryErr.StatusCode != http.StatusForbidden {
		t.Errorf("status = %d", advisoryErr.StatusCode)
	}
	if !strings.Contains(advisoryErr.Error(), "PERMISSION_DENIED: bad key") {
		t.Errorf("Error() = %q", advisoryErr.Error())
	}
}

func TestFormatAdvice(t *testing.T) {
	item := models.RequestItem{Customer: "Acme", Product: "Widget", Issue: "cracked case"}
	got := FormatAdvice(item, "replace the case")
	for _, want := range []string{"Widget • Acme", "증상: cracked case", "replace the case"} {
		if !strings.Contains(got, want) {
			t.Errorf("FormatAdvice missing %q:\n%s", want, got)
		}
	}
}

func TestBook(t *testing.T) {
	book := NewBook()

	if !book.Begin("a") {
		t.Fatal("first Begin should succeed")
	}
	if book.Begin("a") {
		t.Error("second Begin for the same id should be refused")
	}
	if !book.Begin("b") {
		t.Error("Begin for another id should succeed")
	}
	if !book.Pending("a") {
		t.Error("a should be pending")
	}

	book.Finish("a", "advice")
	if book.Pending("a") {
		t.Error("a should no longer be pending")
	}
	if got, ok := book.Advice("a"); !ok || got != "advice" {
		t.Errorf("Advice = %q, %v", got, ok)
	}
	if !book.Begin("a") {
		t.Error("Begin should succeed again after Finish")
	}

	book.Dismiss("a")
	if _, ok := book.Advice("a"); ok {
		t.Error("advice should be gone after Dismiss")
	}
}
