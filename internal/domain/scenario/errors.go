package scenario

import "errors"

var (
	// ErrInvalidSnapshot indicates loaded data failed structural validation.
	ErrInvalidSnapshot = errors.New("invalid scenario snapshot")
	// ErrInvalidParticipant indicates a participant failed validation.
	ErrInvalidParticipant = errors.New("invalid participant")
)
