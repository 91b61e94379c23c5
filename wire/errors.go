package wire

import (
	"errors"
	"fmt"
)

// ErrMalformed is the umbrella for every decode failure in this package.
// Callers that do not care about the exact kind can match on it with
// errors.Is.
var ErrMalformed = errors.New("wire: malformed datagram")

var (
	// ErrShortDatagram means the buffer was too short to contain an opcode.
	ErrShortDatagram = fmt.Errorf("%w: too short for an opcode", ErrMalformed)
	// ErrTruncated means the payload was shorter than the minimum for its kind.
	ErrTruncated = fmt.Errorf("%w: truncated payload", ErrMalformed)
	// ErrTrailingData means the payload carried bytes past the end of the message.
	ErrTrailingData = fmt.Errorf("%w: unexpected trailing bytes", ErrMalformed)
	// ErrFieldCount means a request payload had fewer than two NUL-delimited fields.
	ErrFieldCount = fmt.Errorf("%w: not enough fields in request", ErrMalformed)
)

// UnknownOpcodeError reports an opcode outside the five defined by RFC1350.
type UnknownOpcodeError struct {
	Opcode uint16
}

func (e UnknownOpcodeError) Error() string {
	return fmt.Sprintf("wire: unknown opcode %d", e.Opcode)
}

func (e UnknownOpcodeError) Unwrap() error { return ErrMalformed }

// InvalidErrorCodeError reports an error code outside the standard set.
type InvalidErrorCodeError struct {
	Code uint16
}

func (e InvalidErrorCodeError) Error() string {
	return fmt.Sprintf("wire: unknown error code %d", e.Code)
}

func (e InvalidErrorCodeError) Unwrap() error { return ErrMalformed }
