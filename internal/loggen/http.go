package loggen

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

// HTTPClient wraps http.Client with a timeout
type HTTPClient struct {
	client *http.Client
}

// newHTTPClient creates a new HTTP client with timeout
func newHTTPClient(timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

// Get performs a GET request
func (c *HTTPClient) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	return c.client.Do(req)
}

// UploadCSV posts a CSV payload as a multipart form with a "file" part.
func (c *HTTPClient) UploadCSV(ctx context.Context, url, filename string, data []byte) (*http.Response, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return nil, fmt.Errorf("failed to write form file: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return c.client.Do(req)
}

// readResponseBody reads and closes the response body
func readResponseBody(resp *http.Response) ([]byte, error) {
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}

// uploadGame submits one generated log and classifies the outcome.
func uploadGame(ctx context.Context, client *HTTPClient, cfg *Config, game *Game, filename string, data []byte, stats *Stats) error {
	resp, err := client.UploadCSV(ctx, cfg.BaseURL+"/games", filename, data)
	if err != nil {
		stats.GamesFailed++
		return fmt.Errorf("upload failed: %w", err)
	}
	body, err := readResponseBody(resp)
	if err != nil {
		stats.GamesFailed++
		return fmt.Errorf("failed to read response: %w", err)
	}
	stats.GamesUploaded++

	switch resp.StatusCode {
	case http.StatusAccepted:
		stats.GamesAccepted++
		var ack uploadAck
		if err := json.Unmarshal(body, &ack); err != nil {
			return fmt.Errorf("unparseable accept response: %w", err)
		}
		if len(ack.Players) != len(game.Players) {
			return fmt.Errorf("server saw %d players, generated %d", len(ack.Players), len(game.Players))
		}
		if ack.TotalHands != game.Hands {
			return fmt.Errorf("server saw %d hands, generated %d", ack.TotalHands, game.Hands)
		}
		return nil
	case http.StatusOK:
		// 200 means the same session was submitted before.
		stats.GamesDuplicate++
		return nil
	default:
		stats.GamesFailed++
		return fmt.Errorf("upload rejected with status %d: %s", resp.StatusCode, string(body))
	}
}
