package advisor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/dualikorea/reception/internal/models"
)

const (
	DefaultEndpoint = "https://generativelanguage.googleapis.com"
	DefaultModel    = "gemini-3-flash-preview"
	DefaultTimeout  = 60 * time.Second

	// FallbackMessage is returned whenever the provider call fails.
	FallbackMessage = "AI 분석 중 오류가 발생했습니다. 잠시 후 다시 시도해주세요."
	// NoResultMessage is returned when the provider answers with no text.
	NoResultMessage = "AI 분석 결과를 가져올 수 없습니다."
)

// Fixed generation parameters.
const (
	temperature     = 0.7
	topP            = 0.95
	maxOutputTokens = 500
)

const promptTemplate = `You are a professional technical support engineer.
Analyze the following customer issue and provide a concise diagnostic suggestion and recommended next steps in Korean.
Product: %s
Issue: %s

Format the response with:
1. Possible Cause
2. Recommended Action
Keep it professional and helpful.`

// AdvisoryError wraps any failure reaching or decoding the provider.
type AdvisoryError struct {
	StatusCode int
	Err        error
}

func (e *AdvisoryError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("advisor: HTTP %d: %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("advisor: %v", e.Err)
}

func (e *AdvisoryError) Unwrap() error {
	return e.Err
}

type Config struct {
	APIKey   string
	Model    string
	Endpoint string
	Timeout  time.Duration
	// HTTPClient overrides the client built from Timeout.
	HTTPClient *http.Client
}

// Client asks a Gemini text-generation endpoint for repair advice.
type Client struct {
	httpClient *http.Client
	apiKey     string
	model      string
	endpoint   string
}

func New(cfg Config) *Client {
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	return &Client{
		httpClient: httpClient,
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		endpoint:   strings.TrimRight(cfg.Endpoint, "/"),
	}
}

// Diagnose returns the provider's cause/action advice for the issue. It never
// fails: errors are logged and replaced by FallbackMessage.
func (c *Client) Diagnose(ctx context.Context, issue, product string) string {
	text, err := c.generate(ctx, fmt.Sprintf(promptTemplate, product, issue))
	if err != nil {
		log.Printf("Error getting AI diagnosis: %v", err)
		return FallbackMessage
	}
	if strings.TrimSpace(text) == "" {
		return NoResultMessage
	}
	return text
}

type generateRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generationConfig struct {
	Temperature     float64 `json:"temperature"`
	TopP            float64 `json:"topP"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

// text concatenates the parts of the first candidate.
func (r *generateResponse) text() string {
	if len(r.Candidates) == 0 {
		return ""
	}
	var sb strings.Builder
	for _, p := range r.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	return sb.String()
}

func (c *Client) generate(ctx context.Context, prompt string) (string, error) {
	if c.apiKey == "" {
		return "", &AdvisoryError{Err: errors.New("no API key configured")}
	}

	body, err := json.Marshal(generateRequest{
		Contents: []content{{Role: "user", Parts: []part{{Text: prompt}}}},
		GenerationConfig: generationConfig{
			Temperature:     temperature,
			TopP:            topP,
			MaxOutputTokens: maxOutputTokens,
		},
	})
	if err != nil {
		return "", &AdvisoryError{Err: fmt.Errorf("marshaling request: %w", err)}
	}

	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent", c.endpoint, c.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", &AdvisoryError{Err: fmt.Errorf("creating request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &AdvisoryError{Err: fmt.Errorf("sending request: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", &AdvisoryError{StatusCode: resp.StatusCode, Err: readProviderError(resp.Body)}
	}

	var decoded generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", &AdvisoryError{Err: fmt.Errorf("decoding response: %w", err)}
	}
	return decoded.text(), nil
}

// readProviderError extracts the message from a Google API error body
// ({"error":{"status":"...","message":"..."}}), falling back to the raw body.
func readProviderError(body io.Reader) error {
	raw, _ := io.ReadAll(io.LimitReader(body, 4096))

	var wireError struct {
		Error struct {
			Status  string `json:"status"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if json.Unmarshal(raw, &wireError) == nil && wireError.Error.Message != "" {
		if wireError.Error.Status != "" {
			return fmt.Errorf("%s: %s", wireError.Error.Status, wireError.Error.Message)
		}
		return errors.New(wireError.Error.Message)
	}
	return errors.New(strings.TrimSpace(string(raw)))
}

// FormatAdvice creates the message shown to staff for a request's advice.
func FormatAdvice(item models.RequestItem, advice string) string {
	var sb strings.Builder

	sb.WriteString("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n")
	sb.WriteString(fmt.Sprintf("🤖 AI 진단 • %s", item.Product))
	if item.Customer != "" {
		sb.WriteString(fmt.Sprintf(" • %s", item.Customer))
	}
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("증상: %s\n", item.Issue))
	sb.WriteString("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n\n")
	sb.WriteString(advice)
	sb.WriteString("\n\n━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")

	return sb.String()
}
