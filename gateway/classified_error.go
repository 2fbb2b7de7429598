package gateway

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrorKind tells the caller how to present a failure. Warnings are
// business-level notices (no store selected, store without cameras); errors
// are transport, HTTP or parse failures.
type ErrorKind string

const (
	KindError   ErrorKind = "error"
	KindWarning ErrorKind = "warning"
)

// Error is the classified failure every gateway call reports. Raw transport
// errors never escape the gateway; they arrive here already shaped.
type Error struct {
	Message string
	Kind    ErrorKind
}

func (e *Error) Error() string {
	return e.Message
}

// Errorf builds a classified error.
func Errorf(kind ErrorKind, format string, args ...interface{}) *Error {
	return &Error{Message: fmt.Sprintf(format, args...), Kind: kind}
}

// AsClassified extracts the classified error from err's chain, if present.
func AsClassified(err error) (*Error, bool) {
	var classified *Error
	if errors.As(err, &classified) {
		return classified, true
	}
	return nil, false
}
