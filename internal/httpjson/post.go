// Package httpjson posts JSON requests and decodes JSON responses.
package httpjson

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
)

// maxErrorBody bounds how much of a failed response is quoted in errors.
const maxErrorBody = 512

// StatusError is returned for non-2xx responses.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status code %d: %s", e.StatusCode, e.Body)
}

// Post sends body as JSON to url and decodes the response into Out.
// headers are set verbatim on the request.
func Post[Out any](ctx context.Context, client *http.Client, url string, body any, headers map[string]string) (*Out, error) {
	if client == nil {
		client = http.DefaultClient
	}

	jsonBody, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("error marshaling body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	res, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error sending request: %w", err)
	}
	defer func() {
		if closeErr := res.Body.Close(); closeErr != nil {
			slog.Warn("failed to close response body", "err", closeErr, "url", url)
		}
	}()

	respBody, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading response body: %w", err)
	}

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		msg := string(respBody)
		if len(msg) > maxErrorBody {
			msg = msg[:maxErrorBody]
		}
		return nil, &StatusError{StatusCode: res.StatusCode, Body: msg}
	}

	var out Out
	if err := json.Unmarshal(respBody, &out); err != nil {
		return nil, fmt.Errorf("error parsing response: %w", err)
	}
	return &out, nil
}
