package lock

import "errors"

var (
	// ErrForceReleaseDisabled indicates no admin secret is configured.
	ErrForceReleaseDisabled = errors.New("force release disabled: no admin secret configured")
	// ErrBadAdminSecret indicates the supplied admin secret does not match.
	ErrBadAdminSecret = errors.New("invalid admin secret")
)
