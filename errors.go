package main

import (
	"fmt"
	"net/http"
)

// ConfigError reports a missing or invalid setting. It is fatal at startup.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s %s", e.Field, e.Reason)
}

// RemoteRequestError is returned when the photo service answers with anything but 200.
type RemoteRequestError struct {
	StatusCode int
}

func (e *RemoteRequestError) Error() string {
	return fmt.Sprintf("unexpected HTTP status: %d %s", e.StatusCode, http.StatusText(e.StatusCode))
}

// MalformedResponseError is returned when a 200 response does not have the
// expected shape. Index is -1 when the body itself is not a JSON array.
type MalformedResponseError struct {
	Index int
	Field string
}

func (e *MalformedResponseError) Error() string {
	if e.Index < 0 {
		return "malformed response: " + e.Field
	}
	return fmt.Sprintf("malformed response: element %d: missing %s", e.Index, e.Field)
}

type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return "transport: " + e.Err.Error()
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
