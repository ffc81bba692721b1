// Package provider wraps the AI provider's file API. Training files live on
// the provider's side; this service only stores the opaque file handles.
package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"
)

// ErrNotFound reports a file handle the provider no longer knows.
var ErrNotFound = errors.New("provider: file not found")

// Files is the provider file surface the handlers depend on.
type Files interface {
	// Upload stores a fine-tune training file and returns its handle.
	Upload(ctx context.Context, filename string, data []byte) (string, error)
	// Content downloads the file behind a handle.
	Content(ctx context.Context, fileID string) ([]byte, error)
	// Delete removes the file behind a handle.
	Delete(ctx context.Context, fileID string) error
}

// Client talks to an OpenAI-compatible files API over HTTP.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// NewClient builds a provider client for the given base URL, for example
// "https://api.openai.com/v1".
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 60 * time.Second},
	}
}

func (c *Client) Upload(ctx context.Context, filename string, data []byte) (string, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if err := mw.WriteField("purpose", "fine-tune"); err != nil {
		return "", fmt.Errorf("provider: build upload: %w", err)
	}
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return "", fmt.Errorf("provider: build upload: %w", err)
	}
	if _, err := fw.Write(data); err != nil {
		return "", fmt.Errorf("provider: build upload: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("provider: build upload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/files", &body)
	if err != nil {
		return "", fmt.Errorf("provider: upload request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("provider: upload: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", statusError("upload", resp)
	}

	var out struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("provider: decode upload response: %w", err)
	}
	return out.ID, nil
}

func (c *Client) Content(ctx context.Context, fileID string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/files/"+fileID+"/content", nil)
	if err != nil {
		return nil, fmt.Errorf("provider: content request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("provider: content: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, statusError("content", resp)
	}
	return io.ReadAll(resp.Body)
}

func (c *Client) Delete(ctx context.Context, fileID string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.baseURL+"/files/"+fileID, nil)
	if err != nil {
		return fmt.Errorf("provider: delete request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("provider: delete: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return statusError("delete", resp)
	}
	return nil
}

func statusError(op string, resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return fmt.Errorf("provider: %s: unexpected status %d: %s", op, resp.StatusCode, body)
}
