package apiclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// APIError is returned for every non-2xx response.
type APIError struct {
	Method     string
	URL        string
	StatusCode int
	Status     string
	// Message is the server's explanation: the JSON "message" field when the
	// body carries one, otherwise the raw body text.
	Message string
	Body    []byte
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return e.Status
	}
	return fmt.Sprintf("%s (%s)", e.Status, e.Message)
}

// IsNotFound reports whether err is an APIError with status 404.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

func newAPIError(method, url string, resp *http.Response, body []byte) *APIError {
	status := resp.Status
	if status == "" {
		status = fmt.Sprintf("%d %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	}
	return &APIError{
		Method:     method,
		URL:        url,
		StatusCode: resp.StatusCode,
		Status:     status,
		Message:    extractMessage(body),
		Body:       body,
	}
}

// extractMessage pulls a human readable message out of an error body. A raw
// body is folded onto one line.
func extractMessage(body []byte) string {
	text := strings.TrimSpace(string(body))
	if text == "" {
		return ""
	}
	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err == nil {
		if msg, ok := payload["message"].(string); ok && msg != "" {
			return msg
		}
	}
	return strings.Join(strings.Fields(text), " ")
}
