package routefile

import (
	"errors"
	"fmt"
)

// ErrEmptyRoute is returned when a well-formed document has no track or route points.
var ErrEmptyRoute = errors.New("no track points or route points found")

// FormatError reports a document that could not be decoded as markup.
type FormatError struct {
	Err error
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("invalid route file: %v", e.Err)
}

func (e *FormatError) Unwrap() error {
	return e.Err
}

// UnsupportedFormatError reports a file type that is recognized but not implemented, or unknown.
type UnsupportedFormatError struct {
	Format  string
	Message string
}

func (e *UnsupportedFormatError) Error() string {
	return e.Message
}
