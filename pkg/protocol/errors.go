package protocol

import "fmt"

// ParseError reports input that is not syntactically valid JSON. The line is
// discarded and the dispatch loop keeps running.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string { return "parse envelope: " + e.Err.Error() }

func (e *ParseError) Unwrap() error { return e.Err }

// SchemaError reports a well-formed line that violates the envelope contract,
// e.g. a missing msg_id or an init without a roster. Likewise non-fatal.
type SchemaError struct {
	Reason string
}

func (e *SchemaError) Error() string { return "envelope schema: " + e.Reason }

// Standard error codes for error-typed reply bodies, as defined by the
// simulation harness protocol.
const (
	Timeout                = 0
	NodeNotFound           = 1
	NotSupported           = 10
	TemporarilyUnavailable = 11
	MalformedRequest       = 12
	Crash                  = 13
	Abort                  = 14
	KeyDoesNotExist        = 20
	KeyAlreadyExists       = 21
	PreconditionFailed     = 22
	TxnConflict            = 30
)

// ErrorBody builds a standard error reply body. Handlers that want to surface
// a failure to the sender reply with one of these explicitly; the runtime
// never translates handler failures into protocol replies on its own.
func ErrorBody(code int, text string) Body {
	return Body{Type: "error", Code: code, Text: text}
}

// RPCError is the typed form of an error reply delivered to a waiting caller.
type RPCError struct {
	Code int
	Text string
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("rpc error (code %d): %s", e.Code, e.Text)
}
