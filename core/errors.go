package core

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/pkg/errors"
)

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string
	Error string
}

type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		if len(err.Fields) > 0 {
			return err.Fields[0].Field + ": " + err.Fields[0].Error
		}
		return ""
	}
	return err.Err.Error()
}

// genericPayload stands in for a backend failure that came without a body (eg. connection refused).
var genericPayload = json.RawMessage(`{"message":"Request failed"}`)

// APIError is a failed call to the backend. Payload is the backend's error body, kept verbatim.
type APIError struct {
	Status  int
	Payload json.RawMessage
}

// NewAPIError builds an APIError, substituting the generic payload when the backend sent nothing.
func NewAPIError(status int, payload []byte) *APIError {
	if len(payload) == 0 {
		payload = genericPayload
	}
	return &APIError{Status: status, Payload: append(json.RawMessage(nil), payload...)}
}

func (e *APIError) Error() string {
	if e.Status == 0 {
		return "backend: " + e.Message()
	}
	return fmt.Sprintf("backend %d: %s", e.Status, e.Message())
}

// Message extracts a human readable message from the payload: `message` or `error` keys of
// a JSON object, a JSON string, or the raw body as a last resort.
func (e *APIError) Message() string {
	var obj map[string]interface{}
	if err := json.Unmarshal(e.Payload, &obj); err == nil {
		for _, key := range []string{"message", "error"} {
			if s, ok := obj[key].(string); ok && s != "" {
				return s
			}
		}
		if e.Status != 0 {
			return http.StatusText(e.Status)
		}
		return "Request failed"
	}
	var s string
	if err := json.Unmarshal(e.Payload, &s); err == nil {
		return s
	}
	return string(e.Payload)
}

// AsAPIError unwraps err down to an *APIError, wrapping anything else (eg. a transport error)
// into one carrying the generic payload.
func AsAPIError(err error) *APIError {
	if err == nil {
		return nil
	}
	if apiErr, ok := errors.Cause(err).(*APIError); ok {
		return apiErr
	}
	return NewAPIError(0, nil)
}

type shutdown struct {
	message string
}

func NewShutdownError(msg string) error {
	return &shutdown{message: msg}
}

func (s shutdown) Error() string {
	return s.message
}

func IsShutdown(err error) bool {
	_, ok := errors.Cause(err).(*shutdown)
	return ok
}
