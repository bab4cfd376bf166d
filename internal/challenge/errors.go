package challenge

import "errors"

var (
	// ErrNotStarted is returned when a day is completed before any program was started.
	ErrNotStarted = errors.New("no challenge in progress")

	// ErrUnknownProgram is returned for program ids outside the fixed set.
	ErrUnknownProgram = errors.New("unknown challenge program")
)
