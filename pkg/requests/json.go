package requests

// requests is a library for making JSON requests to HTTP APIs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// RequestJSON sends 'body' as JSON (or no body if nil), and decodes the
// response as JSON into T.
func RequestJSON[T any](ctx context.Context, method, url string, body any) (response *T, err error) {
	var bodyReader io.Reader
	contentType := ""
	if body != nil {
		bodyB, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		bodyReader = bytes.NewReader(bodyB)
		contentType = "application/json"
	}
	return RequestRawJSON[T](ctx, method, url, contentType, bodyReader)
}

// RequestRawJSON sends an arbitrary request body (eg an image file), and
// decodes the response as JSON into T.
func RequestRawJSON[T any](ctx context.Context, method, url, contentType string, body io.Reader) (response *T, err error) {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("%v. %v", resp.Status, string(msg))
	}
	var responseObj T
	if err := json.NewDecoder(resp.Body).Decode(&responseObj); err != nil {
		return nil, fmt.Errorf("%v. %w", resp.Status, err)
	}
	response = &responseObj
	return
}
