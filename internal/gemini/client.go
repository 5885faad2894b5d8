package gemini

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"pagepress/pkg/logger"
)

const defaultBaseURL = "https://generativelanguage.googleapis.com"

// Generator is the one-shot text generation contract the content
// builder consumes.
type Generator interface {
	GenerateContent(prompt string) (string, error)
}

type Client struct {
	baseURL         string
	apiKey          string
	model           string
	maxOutputTokens int
	client          *http.Client
	logger          *logger.Logger
}

func NewClient(apiKey, model string, maxOutputTokens int, log *logger.Logger) *Client {
	return &Client{
		baseURL:         defaultBaseURL,
		apiKey:          apiKey,
		model:           model,
		maxOutputTokens: maxOutputTokens,
		client:          &http.Client{Timeout: 120 * time.Second},
		logger:          log,
	}
}

type generateRequest struct {
	Contents         []requestContent `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type requestContent struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generationConfig struct {
	MaxOutputTokens int `json:"maxOutputTokens"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []part `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// GenerateContent sends the prompt and returns the concatenated text of
// the first candidate.
func (c *Client) GenerateContent(prompt string) (string, error) {
	payload := generateRequest{
		Contents: []requestContent{
			{Parts: []part{{Text: prompt}}},
		},
		GenerationConfig: generationConfig{MaxOutputTokens: c.maxOutputTokens},
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent", c.baseURL, c.model)
	req, err := http.NewRequest("POST", url, bytes.NewBuffer(data))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, body)
	}

	var result generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	if len(result.Candidates) == 0 {
		return "", fmt.Errorf("response contained no candidates")
	}

	var text strings.Builder
	for _, p := range result.Candidates[0].Content.Parts {
		text.WriteString(p.Text)
	}
	return text.String(), nil
}

var _ Generator = (*Client)(nil)
