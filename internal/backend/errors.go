package backend

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a failed backend call
type Kind int

const (
	KindAuthExpired Kind = iota + 1
	KindServer
	KindClient
	KindNetwork
	KindMalformed
)

func (k Kind) String() string {
	switch k {
	case KindAuthExpired:
		return "auth_expired"
	case KindServer:
		return "server_error"
	case KindClient:
		return "client_error"
	case KindNetwork:
		return "network_error"
	case KindMalformed:
		return "malformed_response"
	}
	return "unknown"
}

// Sentinels matched by errors.Is against *Error
var (
	ErrAuthExpired       = errors.New("session expired")
	ErrServer            = errors.New("server error")
	ErrClient            = errors.New("request rejected")
	ErrNetwork           = errors.New("connection error")
	ErrMalformedResponse = errors.New("malformed response")

	// ErrInvalidCredentials is returned by Login only
	ErrInvalidCredentials = errors.New("invalid username or password")
)

var kindSentinels = map[Kind]error{
	KindAuthExpired: ErrAuthExpired,
	KindServer:      ErrServer,
	KindClient:      ErrClient,
	KindNetwork:     ErrNetwork,
	KindMalformed:   ErrMalformedResponse,
}

// Error is a classified backend failure
type Error struct {
	Kind       Kind
	Op         string
	Status     int
	StatusText string
	// Detail is the message the backend put in its error body, if any
	Detail string
	Err    error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("backend %s: %s", e.Op, e.Kind)
	if e.Status != 0 {
		msg += fmt.Sprintf(" (%d %s)", e.Status, e.StatusText)
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches the kind sentinels
func (e *Error) Is(target error) bool {
	return kindSentinels[e.Kind] == target
}

// UserMessage is the text shown to the user for this failure
func (e *Error) UserMessage() string {
	switch e.Kind {
	case KindAuthExpired:
		return "Your session has expired. Please sign in again."
	case KindServer:
		return "Server error. Please try again later."
	case KindClient:
		msg := fmt.Sprintf("Error %d: %s", e.Status, e.StatusText)
		if e.Detail != "" {
			msg += " - " + e.Detail
		}
		return msg
	case KindNetwork:
		return "Connection error. Please check your connection and try again."
	case KindMalformed:
		return "Unexpected response from server."
	}
	return "Something went wrong."
}

// HTTPStatus maps the failure to the status the portal answers with
func (e *Error) HTTPStatus() int {
	switch e.Kind {
	case KindAuthExpired:
		return http.StatusUnauthorized
	case KindClient:
		if e.Status >= 400 && e.Status < 500 {
			return e.Status
		}
		return http.StatusBadRequest
	case KindNetwork:
		return http.StatusServiceUnavailable
	}
	return http.StatusBadGateway
}

// AsError classifies any error returned by this package. Errors that did not
// come from a backend call are treated as network failures when caused by the
// context, and as server failures otherwise.
func AsError(err error) *Error {
	if err == nil {
		return nil
	}
	var be *Error
	if errors.As(err, &be) {
		return be
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return &Error{Kind: KindNetwork, Op: "request", Err: err}
	}
	return &Error{Kind: KindServer, Op: "request", Err: err}
}

// statusError classifies a non-2xx status
func statusError(op string, status int, detail string) *Error {
	e := &Error{
		Op:         op,
		Status:     status,
		StatusText: http.StatusText(status),
		Detail:     detail,
	}
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		e.Kind = KindAuthExpired
	case status >= 500:
		e.Kind = KindServer
	default:
		e.Kind = KindClient
	}
	return e
}
