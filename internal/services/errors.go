package services

import "errors"

var (
	ErrNotFound         = errors.New("not found")
	ErrValidation       = errors.New("validation failed")
	ErrAlreadyApplied   = errors.New("already applied to this posting")
	ErrNoSpots          = errors.New("no spots available for this posting")
	ErrInvalidStatus    = errors.New("invalid application status")
	ErrAlreadyFollowing = errors.New("already following this user")
	ErrNotFollowing     = errors.New("not following this user")
	ErrSelfFollow       = errors.New("cannot follow yourself")
	ErrEmailTaken       = errors.New("an account with this email already exists")
	ErrBadCredentials   = errors.New("invalid email or password")
)

// ValidationError carries a message meant for the user. It matches
// ErrValidation under errors.Is.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

func invalid(msg string) error { return &ValidationError{Msg: msg} }
