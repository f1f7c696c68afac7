package grant

import "errors"

// Sentinel errors for grant registration.
var (
	ErrInvalidType    = errors.New("grant: invalid grant type")
	ErrBuiltinType    = errors.New("grant: grant type is built in")
	ErrDuplicateType  = errors.New("grant: grant type already registered")
	ErrNilHandler     = errors.New("grant: nil handler")
)
