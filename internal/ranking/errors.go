package ranking

import (
	"errors"
	"fmt"
)

var (
	ErrDivisionByZero = errors.New("ranking: prior weight and rating count are both zero")
	ErrMissingField   = errors.New("ranking: rating or rating count unknown")
	ErrParse          = errors.New("ranking: unparsable travel text")
)

// ParseError reports travel text the cost model could not read.
// errors.Is(err, ErrParse) holds for every *ParseError.
type ParseError struct {
	Field string // "distance" or "travel_time"
	Input string
	Err   error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("ranking: parse %s %q: %v", e.Field, e.Input, e.Err)
	}
	return fmt.Sprintf("ranking: parse %s %q", e.Field, e.Input)
}

func (e *ParseError) Unwrap() error { return e.Err }

func (e *ParseError) Is(target error) bool { return target == ErrParse }
