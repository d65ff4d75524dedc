// Package api provides a client for the storefront backend.
//
// The backend speaks JSON over HTTP. Every response body is an envelope with
// a "status" field that must equal "OK"; anything else is a rejection whose
// text is carried in "message".
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/grpc/codes"
)

// ClientError represents errors from client operations.
type ClientError struct {
	Kind       ErrorKind
	Op         string
	Message    string
	HTTPStatus int
	Cause      error
}

// ErrorKind categorizes client errors.
type ErrorKind int

const (
	// ErrTransport indicates the request never produced a response.
	ErrTransport ErrorKind = iota
	// ErrStatus indicates the server answered with a non-OK envelope.
	ErrStatus
	// ErrDecode indicates the response body could not be parsed.
	ErrDecode
	// ErrInvalidArgument indicates an invalid argument from the caller.
	ErrInvalidArgument
)

func (k ErrorKind) String() string {
	switch k {
	case ErrTransport:
		return "transport"
	case ErrStatus:
		return "status"
	case ErrDecode:
		return "decode"
	case ErrInvalidArgument:
		return "invalid_argument"
	default:
		return "unknown"
	}
}

func (e *ClientError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *ClientError) Unwrap() error {
	return e.Cause
}

// Code classifies the error with a gRPC status code.
//
// Rejections are mapped from the HTTP status. A rejection delivered with a
// 2xx status is a business rule refusal and maps to FailedPrecondition.
func (e *ClientError) Code() codes.Code {
	switch e.Kind {
	case ErrInvalidArgument:
		return codes.InvalidArgument
	case ErrDecode:
		return codes.Internal
	case ErrTransport:
		switch {
		case errors.Is(e.Cause, context.DeadlineExceeded):
			return codes.DeadlineExceeded
		case errors.Is(e.Cause, context.Canceled):
			return codes.Canceled
		default:
			return codes.Unavailable
		}
	}

	switch e.HTTPStatus {
	case http.StatusBadRequest:
		return codes.InvalidArgument
	case http.StatusUnauthorized:
		return codes.Unauthenticated
	case http.StatusForbidden:
		return codes.PermissionDenied
	case http.StatusNotFound:
		return codes.NotFound
	case http.StatusConflict:
		return codes.AlreadyExists
	case http.StatusTooManyRequests:
		return codes.ResourceExhausted
	case http.StatusNotImplemented:
		return codes.Unimplemented
	case http.StatusServiceUnavailable:
		return codes.Unavailable
	case http.StatusGatewayTimeout:
		return codes.DeadlineExceeded
	}
	if e.HTTPStatus >= 500 {
		return codes.Internal
	}
	if e.HTTPStatus >= 200 && e.HTTPStatus < 300 {
		return codes.FailedPrecondition
	}
	return codes.Unknown
}

// IsUnauthenticated returns true if the server refused the session token.
func (e *ClientError) IsUnauthenticated() bool {
	return e.Code() == codes.Unauthenticated
}

// IsNotFound returns true if this is a "not found" error.
func (e *ClientError) IsNotFound() bool {
	return e.Code() == codes.NotFound
}

// IsInvalidArgument returns true if this is an "invalid argument" error.
func (e *ClientError) IsInvalidArgument() bool {
	return e.Code() == codes.InvalidArgument
}

// IsConnectionError returns true if no response was received.
func (e *ClientError) IsConnectionError() bool {
	return e.Kind == ErrTransport
}

// Error constructors

// TransportError wraps a failure to send a request or read its response.
func TransportError(op string, err error) *ClientError {
	return &ClientError{Kind: ErrTransport, Op: op, Message: op + " failed", Cause: err}
}

// StatusError creates a rejection carrying the server's message.
func StatusError(op string, httpStatus int, message string) *ClientError {
	return &ClientError{Kind: ErrStatus, Op: op, Message: message, HTTPStatus: httpStatus}
}

// DecodeError wraps a response body parse failure.
func DecodeError(op string, err error) *ClientError {
	return &ClientError{Kind: ErrDecode, Op: op, Message: "invalid " + op + " response", Cause: err}
}

// InvalidArgumentError creates an invalid argument error.
func InvalidArgumentError(op, msg string) *ClientError {
	return &ClientError{Kind: ErrInvalidArgument, Op: op, Message: msg}
}

// IsClientError checks if an error is a ClientError.
func IsClientError(err error) bool {
	var clientErr *ClientError
	return errors.As(err, &clientErr)
}

// AsClientError extracts a ClientError from an error chain.
func AsClientError(err error) *ClientError {
	var clientErr *ClientError
	if errors.As(err, &clientErr) {
		return clientErr
	}
	return nil
}
