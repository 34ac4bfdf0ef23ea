package bria

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// APIError is a non-2xx answer from the engine.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	if msg := e.message(); msg != "" {
		return fmt.Sprintf("bria: status %d: %s", e.StatusCode, msg)
	}
	return fmt.Sprintf("bria: status %d", e.StatusCode)
}

func (e *APIError) message() string {
	var detail struct {
		Message string `json:"message"`
		Error   string `json:"error"`
		Detail  any    `json:"detail"`
	}
	if err := json.Unmarshal([]byte(e.Body), &detail); err == nil {
		switch {
		case detail.Message != "":
			return detail.Message
		case detail.Error != "":
			return detail.Error
		case detail.Detail != nil:
			if s, ok := detail.Detail.(string); ok {
				return s
			}
		}
	}
	if len(e.Body) > 300 {
		return e.Body[:300]
	}
	return e.Body
}

// User-facing messages for well-known failures.
const (
	MessageInvalidKey = "Invalid API key. Please check your credentials."
	MessageModeration = "Content moderation blocked this request."
	MessageMissingKey = "Please enter your API key to use this feature."
)

// Describe turns an error from this package into text for the UI.
func Describe(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, ErrMissingAPIKey) {
		return MessageMissingKey
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		switch apiErr.StatusCode {
		case http.StatusUnauthorized:
			return MessageInvalidKey
		case http.StatusUnprocessableEntity:
			return MessageModeration
		}
	}
	return err.Error()
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}
