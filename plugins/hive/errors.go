package hive

import (
	"errors"
	"fmt"
	"strings"
)

var ErrDeviceNotFound = errors.New("no heating device in account")

// AuthError is returned when login does not produce a token. Body holds the
// raw response when one was received.
type AuthError struct {
	Status int
	Body   string
	Err    error
}

func (e *AuthError) Error() string {
	msg := "hive login failed"
	if e.Status != 0 {
		msg += fmt.Sprintf(" (status %d)", e.Status)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if body := strings.TrimSpace(e.Body); body != "" {
		msg += ": " + body
	}
	return msg
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// APIError is a non-2xx status or an undecodable body on an authorized call.
type APIError struct {
	Op     string
	Status int
	Body   string
	Err    error
}

func (e *APIError) Error() string {
	msg := fmt.Sprintf("hive %s error %d", e.Op, e.Status)
	if e.Err != nil {
		msg = fmt.Sprintf("hive %s: %v", e.Op, e.Err)
	}
	if body := strings.TrimSpace(e.Body); body != "" {
		msg += ": " + body
	}
	return msg
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// NetworkError is a transport failure before any response arrived.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("hive %s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}
