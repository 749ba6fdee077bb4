package auth

import "errors"

var (
	// ErrUnauthenticated is returned when an operation needs a credential and none is held
	ErrUnauthenticated = errors.New("not logged in")
	// ErrCredentialExpired means the held credential's expiry has passed
	ErrCredentialExpired = errors.New("credential expired")
	// ErrCredentialMalformed means the held credential could not be decoded
	ErrCredentialMalformed = errors.New("credential malformed")
)

// FailureKind tells which exchange failed
type FailureKind int

const (
	FailureLogin FailureKind = iota
	FailureRegistration
)

func (k FailureKind) String() string {
	if k == FailureRegistration {
		return "registration"
	}
	return "login"
}

// Failure is an expected, user-facing authentication failure. Message is safe
// to show; the underlying cause is only logged.
type Failure struct {
	Kind    FailureKind
	Message string
}

func (f *Failure) Error() string {
	return f.Message
}
