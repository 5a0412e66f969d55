package transcribe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"
)

const defaultBaseURL = "https://api.openai.com/v1"

// OpenAIBackend performs speech-to-text through the audio.transcriptions
// endpoint.
type OpenAIBackend struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
}

// OpenAIOption customizes an OpenAIBackend.
type OpenAIOption func(*OpenAIBackend)

// WithBaseURL points the backend at a different API host.
func WithBaseURL(url string) OpenAIOption {
	return func(b *OpenAIBackend) { b.baseURL = url }
}

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(client *http.Client) OpenAIOption {
	return func(b *OpenAIBackend) { b.client = client }
}

// NewOpenAIBackend creates a Whisper-family transcription backend.
func NewOpenAIBackend(apiKey, model string, opts ...OpenAIOption) *OpenAIBackend {
	b := &OpenAIBackend{
		apiKey:  apiKey,
		model:   model,
		baseURL: defaultBaseURL,
		// Transcription of long recordings is slow; the task-level timeout
		// is the real bound.
		client: &http.Client{Timeout: 10 * time.Minute},
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

type transcriptionResponse struct {
	Text string `json:"text"`
}

// Transcribe uploads the audio as a multipart form and returns the plain
// transcript text.
func (b *OpenAIBackend) Transcribe(ctx context.Context, audio io.Reader, filename string) (string, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	if err := mw.WriteField("model", b.model); err != nil {
		return "", fmt.Errorf("failed to write model field: %w", err)
	}

	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return "", fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := io.Copy(fw, audio); err != nil {
		return "", fmt.Errorf("failed to copy audio: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("failed to close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL+"/audio/transcriptions", &body)
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+b.apiKey)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := b.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("transcription request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		data, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("transcription http %d: %s", resp.StatusCode, string(data))
	}

	var tr transcriptionResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return "", fmt.Errorf("failed to decode transcription response: %w", err)
	}

	return tr.Text, nil
}
