package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const maxErrorBody = 64 << 10

// Error is a backend error response. Detail carries the backend's
// {"detail": "..."} message verbatim when present.
type Error struct {
	Status int
	Detail string
}

func (e *Error) Error() string {
	return fmt.Sprintf("backend returned %d: %s", e.Status, e.Detail)
}

// AsError unwraps err into a backend *Error.
func AsError(err error) (*Error, bool) {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// IsUnauthorized reports whether err is a backend 401.
func IsUnauthorized(err error) bool {
	apiErr, ok := AsError(err)
	return ok && apiErr.Status == http.StatusUnauthorized
}

// IsNotFound reports whether err is a backend 404.
func IsNotFound(err error) bool {
	apiErr, ok := AsError(err)
	return ok && apiErr.Status == http.StatusNotFound
}

func decodeError(resp *http.Response) error {
	payload, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	var body struct {
		Detail string `json:"detail"`
	}
	detail := ""
	if err := json.Unmarshal(payload, &body); err == nil {
		detail = strings.TrimSpace(body.Detail)
	}
	if detail == "" {
		detail = strings.TrimSpace(string(payload))
	}
	if detail == "" {
		detail = http.StatusText(resp.StatusCode)
	}
	return &Error{Status: resp.StatusCode, Detail: detail}
}
