package pipeline

import (
	"github.com/pkg/errors"
)

var (
	// ErrState is returned when a pipeline is used while working, or modified once locked.
	ErrState = errors.New("invalid pipeline state")
	// ErrLogic is returned for a transport bound to another input, or any attempt to delete transported data.
	ErrLogic = errors.New("logic error")
	// ErrArgument is returned for invalid arguments, for instance overwriting a structured transported value.
	ErrArgument = errors.New("invalid argument")
	// ErrAccess is returned when a pipeline exports a transport it does not own.
	ErrAccess = errors.New("access denied")
	// ErrCast is returned when a caster cannot coerce a value.
	ErrCast = errors.New("unable to cast value")
)
