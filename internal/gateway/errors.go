package gateway

import (
	"errors"
	"fmt"
)

// TransportError means the service could not be reached or did not answer
// with a readable envelope.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: transport failure: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ApplicationError means the service answered but declined the request.
// Message is the server's text, suitable for showing to the user.
type ApplicationError struct {
	Op      string
	Message string
}

func (e *ApplicationError) Error() string {
	return fmt.Sprintf("%s: rejected: %s", e.Op, e.Message)
}

func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

func IsApplication(err error) bool {
	var ae *ApplicationError
	return errors.As(err, &ae)
}

// Message returns the user-facing text for a gateway error.
func Message(err error) string {
	var ae *ApplicationError
	if errors.As(err, &ae) {
		return ae.Message
	}
	var te *TransportError
	if errors.As(err, &te) && te.Err != nil {
		return te.Err.Error()
	}
	if err == nil {
		return ""
	}
	return err.Error()
}
