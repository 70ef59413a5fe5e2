package apperror

import (
	"errors"
	"fmt"
)

// Kind classifies a failure so the transport layer can pick a status
// code without inspecting error strings.
type Kind int

const (
	KindUnknown Kind = iota
	KindInvalidRequest
	KindNotFound
	KindUpstream
	KindUpstreamTimeout
	KindStorage
)

func (k Kind) String() string {
	switch k {
	case KindInvalidRequest:
		return "INVALID_REQUEST"
	case KindNotFound:
		return "NOT_FOUND"
	case KindUpstream:
		return "UPSTREAM_ERROR"
	case KindUpstreamTimeout:
		return "UPSTREAM_TIMEOUT"
	case KindStorage:
		return "STORAGE_ERROR"
	default:
		return "UNKNOWN"
	}
}

type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func InvalidRequest(message string) *Error {
	return New(KindInvalidRequest, message)
}

func NotFound(message string) *Error {
	return New(KindNotFound, message)
}

func Upstream(message string, err error) *Error {
	return Wrap(KindUpstream, message, err)
}

func UpstreamTimeout(message string, err error) *Error {
	return Wrap(KindUpstreamTimeout, message, err)
}

func Storage(message string, err error) *Error {
	return Wrap(KindStorage, message, err)
}

// KindOf extracts the kind from any error in the chain. Plain errors
// map to KindUnknown.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindUnknown
}
