package tickspot

import "fmt"

// ArgumentError reports a malformed or missing argument. It is returned
// synchronously, before any request is built.
type ArgumentError struct {
	Field  string
	Reason string
}

func (e *ArgumentError) Error() string {
	return e.Field + " " + e.Reason
}

// TransportError reports a network failure or a status code outside the
// accepted set. Body is kept verbatim for diagnostics.
type TransportError struct {
	Status int
	Body   string
	Err    error
}

func (e *TransportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("tickspot: transport: %v", e.Err)
	}
	return fmt.Sprintf("tickspot: unexpected status %d: %s", e.Status, e.Body)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ParseError reports a response body that is not well-formed XML.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("tickspot: malformed response: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }
