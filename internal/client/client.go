// Package client implements the HTTP client for the remote multimodal
// generation service: POST /generate with a multipart form body and
// GET /threads/{thread_id} for history retrieval.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"
	"strings"
	"time"

	"mmchat/internal/logger"
	"mmchat/pkg/chattypes"
)

// Config holds configuration for the generation service client.
type Config struct {
	BaseURL string        // e.g. "http://127.0.0.1:8000"
	Timeout time.Duration // Defaults to 30 seconds when zero
}

// Client talks to the remote generation service. It satisfies both
// chattypes.Generator and chattypes.HistoryFetcher.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a generation service client.
func New(config Config) *Client {
	timeout := config.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		baseURL:    strings.TrimSuffix(config.BaseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Generate sends one assembled request as a multipart form to /generate.
// The form carries either the "messages"/"image_base64" fields or the raw
// "file" part, never both; the submission pipeline decides the branch.
func (c *Client) Generate(ctx context.Context, req chattypes.GenerateRequest) (*chattypes.GenerateResponse, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	if err := c.writeGenerateForm(writer, req); err != nil {
		return nil, &chattypes.TransportError{Op: "generate", Err: err}
	}
	if err := writer.Close(); err != nil {
		return nil, &chattypes.TransportError{Op: "generate", Err: err}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/generate", body)
	if err != nil {
		return nil, &chattypes.TransportError{Op: "generate", Err: err}
	}
	httpReq.Header.Set("Content-Type", writer.FormDataContentType())

	logger.Debug("dispatching generate request",
		"thread", req.ThreadID,
		"has_file", req.File != nil,
		"has_image", req.ImageBase64 != "",
		"messages", len(req.Messages))

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &chattypes.TransportError{Op: "generate", Err: err}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &chattypes.TransportError{
			Op:         "generate",
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("server returned %s", resp.Status),
		}
	}

	var result chattypes.GenerateResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, &chattypes.TransportError{
			Op:         "generate",
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("malformed response body: %w", err),
		}
	}
	return &result, nil
}

// FetchThread retrieves the full message history for a thread.
func (c *Client) FetchThread(ctx context.Context, threadID string) ([]chattypes.Message, error) {
	endpoint := c.baseURL + "/threads/" + url.PathEscape(threadID)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, &chattypes.TransportError{Op: "fetch_thread", Err: err}
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &chattypes.TransportError{Op: "fetch_thread", Err: err}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &chattypes.TransportError{
			Op:         "fetch_thread",
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("server returned %s", resp.Status),
		}
	}

	var result struct {
		Messages []chattypes.Message `json:"messages"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, &chattypes.TransportError{
			Op:         "fetch_thread",
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("malformed response body: %w", err),
		}
	}
	return result.Messages, nil
}

func (c *Client) writeGenerateForm(writer *multipart.Writer, req chattypes.GenerateRequest) error {
	if req.ThreadID != "" {
		if err := writer.WriteField("thread_id", req.ThreadID); err != nil {
			return err
		}
	}

	if req.File != nil {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition",
			fmt.Sprintf(`form-data; name="file"; filename=%q`, req.File.Name))
		header.Set("Content-Type", req.File.ContentType)

		part, err := writer.CreatePart(header)
		if err != nil {
			return err
		}
		if _, err := io.Copy(part, bytes.NewReader(req.File.Data)); err != nil {
			return err
		}
	} else {
		encoded, err := json.Marshal(req.Messages)
		if err != nil {
			return fmt.Errorf("failed to encode messages: %w", err)
		}
		if err := writer.WriteField("messages", string(encoded)); err != nil {
			return err
		}
		if req.ImageBase64 != "" {
			if err := writer.WriteField("image_base64", req.ImageBase64); err != nil {
				return err
			}
		}
	}

	if req.MaxNewTokens > 0 {
		if err := writer.WriteField("max_new_tokens", strconv.Itoa(req.MaxNewTokens)); err != nil {
			return err
		}
	}
	if req.Temperature > 0 {
		if err := writer.WriteField("temperature", strconv.FormatFloat(req.Temperature, 'f', -1, 64)); err != nil {
			return err
		}
	}
	return nil
}
