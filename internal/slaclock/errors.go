package slaclock

import "errors"

var (
	// ErrInvalidInput flags a missing start instant, a negative target
	// duration, or a reversed reporting range.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnreachable flags a forward advance that exhausted its lookahead
	// horizon, e.g. an all-holiday calendar or a zero working-days mask.
	ErrUnreachable = errors.New("target duration unreachable within search horizon")

	// ErrMalformedException flags a calendar exception row that cannot be
	// interpreted, such as a half day missing its open or close time. It is
	// raised only when the offending date is actually consulted.
	ErrMalformedException = errors.New("malformed calendar exception")
)
