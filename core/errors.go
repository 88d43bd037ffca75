package core

import (
	"errors"
	"fmt"
)

// Kind classifies an error for transport mapping
type Kind int

const (
	KindUnknown Kind = iota
	KindValidation
	KindAuth
	KindForbidden
	KindNotFound
	KindConfig
	KindStore
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindAuth:
		return "auth"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindConfig:
		return "config"
	case KindStore:
		return "store"
	default:
		return "unknown"
	}
}

// Error carries a kind, a message that is safe to show to clients,
// and an optional internal cause.
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

func (e *Error) Unwrap() error { return e.Err }

// NewError creates an error of the given kind
func NewError(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap attaches cause to a new error of the given kind
func Wrap(kind Kind, message string, cause error) error {
	return &Error{Kind: kind, Message: message, Err: cause}
}

// KindOf returns the kind of the outermost core.Error in err's chain
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// PublicMessage returns the client-facing message of err
func PublicMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "Internal server error"
}

var (
	ErrMissingFields     = NewError(KindValidation, "Missing required fields")
	ErrMalformedMessage  = NewError(KindValidation, "Invalid message format")
	ErrUnsupportedChain  = NewError(KindValidation, "Unsupported wallet type")
	ErrEmptyProfile      = NewError(KindValidation, "Nothing to update")
	ErrInvalidSignature  = NewError(KindAuth, "Invalid signature")
	ErrMessageExpired    = NewError(KindAuth, "Message expired")
	ErrMessageFromFuture = NewError(KindAuth, "Message timestamp is in the future")
	ErrUnauthenticated   = NewError(KindAuth, "Authentication required")
	ErrInvalidToken      = NewError(KindAuth, "Invalid or expired token")
	ErrInvalidRefresh    = NewError(KindAuth, "Invalid or expired refresh token")
	ErrIdentityNotFound  = NewError(KindNotFound, "Profile not found")
	ErrIdentityExists    = NewError(KindStore, "Profile already exists")
	ErrSigningKeyMissing = NewError(KindConfig, "Server configuration error")
	ErrRefreshNotFound   = NewError(KindNotFound, "Refresh record not found")
)
