package prediction

import (
	"errors"
	"fmt"
)

// GenericMessage is shown for every transport failure.
const GenericMessage = "Error predicting. Check backend server."

// ApplicationError is a rejection reported by the backend in its "error" field.
type ApplicationError struct {
	Message string
}

func (e *ApplicationError) Error() string { return e.Message }

// TransportError covers network failures, unreadable bodies and any other
// failure of the request/response cycle.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("prediction %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// UserMessage returns the text displayed for err. Application errors keep the
// backend's message; everything else collapses to GenericMessage.
func UserMessage(err error) string {
	var ae *ApplicationError
	if errors.As(err, &ae) {
		return ae.Message
	}
	return GenericMessage
}

// IsApplicationError reports whether err carries a backend rejection.
func IsApplicationError(err error) bool {
	var ae *ApplicationError
	return errors.As(err, &ae)
}
