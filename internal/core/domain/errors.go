package domain

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrorKind classifies a failed build request.
type ErrorKind int

const (
	// AuthInvalid means the credential was rejected by the identity provider.
	AuthInvalid ErrorKind = iota
	// AuthForbidden means the credential is valid but not in the allowed organization.
	AuthForbidden
	// RequestMalformed means the body could not be decoded.
	RequestMalformed
	// RequestIncomplete means a required field is missing.
	RequestIncomplete
	// RequestInvalid means a field holds a value the service cannot use.
	RequestInvalid
	// BuildFailed means the daemon reported a build error.
	BuildFailed
	// PushFailed means the daemon reported a push error.
	PushFailed
)

func (k ErrorKind) String() string {
	switch k {
	case AuthInvalid:
		return "AuthInvalid"
	case AuthForbidden:
		return "AuthForbidden"
	case RequestMalformed:
		return "RequestMalformed"
	case RequestIncomplete:
		return "RequestIncomplete"
	case RequestInvalid:
		return "RequestInvalid"
	case BuildFailed:
		return "BuildFailed"
	case PushFailed:
		return "PushFailed"
	default:
		return "Unknown"
	}
}

// Error is a terminal failure of a build request. Title and Description are
// returned to the caller as-is.
type Error struct {
	Kind        ErrorKind
	Title       string
	Description string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Title, e.Description)
}

// NewError builds an *Error.
func NewError(kind ErrorKind, title, description string) *Error {
	return &Error{Kind: kind, Title: title, Description: description}
}

// IsKind reports whether err is an *Error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}
