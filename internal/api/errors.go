package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// ErrUnexpectedResponse marks a response whose body does not match the
// expected shape.
var ErrUnexpectedResponse = errors.New("unexpected response")

// Error is a failed API call. Status is 0 when no response was received.
type Error struct {
	Method string
	Path   string
	Status int
	Detail string // server supplied "detail", if any
	Err    error
}

func (e *Error) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("api error: %s %s: %v", e.Method, e.Path, e.Err)
	}
	if e.Detail != "" {
		return fmt.Sprintf("api error: %s %s: %d %s: %s", e.Method, e.Path, e.Status, http.StatusText(e.Status), e.Detail)
	}
	return fmt.Sprintf("api error: %s %s: %d %s", e.Method, e.Path, e.Status, http.StatusText(e.Status))
}

func (e *Error) Unwrap() error {
	return e.Err
}

// ShapeError reports a body that could not be decoded or lacks a required field
type ShapeError struct {
	Path  string
	Field string
	Err   error
}

func (e *ShapeError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%v from %s: missing %s", ErrUnexpectedResponse, e.Path, e.Field)
	}
	return fmt.Sprintf("%v from %s: %v", ErrUnexpectedResponse, e.Path, e.Err)
}

func (e *ShapeError) Unwrap() error {
	return e.Err
}

func (e *ShapeError) Is(target error) bool {
	return target == ErrUnexpectedResponse
}

// IsUnauthorized reports whether err is an authentication rejection
func IsUnauthorized(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized
}

// IsNetwork reports whether err happened before any response arrived
func IsNetwork(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Status == 0
}

// DetailOf returns the server supplied detail carried by err, if any
func DetailOf(err error) string {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Detail
	}
	return ""
}

// parseDetail extracts a string "detail" field. Validation errors carry a
// list there, which is not user-facing text and is ignored.
func parseDetail(body []byte) string {
	var payload struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err != nil || len(payload.Detail) == 0 {
		return ""
	}
	var detail string
	if err := json.Unmarshal(payload.Detail, &detail); err != nil {
		return ""
	}
	return detail
}
