package wire

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"strings"

	"go_tftp/wire/opcode"
)

// Datagram is a single decoded TFTP message. The concrete type is one of
// ReadRequest, WriteRequest, Data, Ack or Error, distinguished by Opcode.
type Datagram interface {
	Opcode() uint16
	// Bytes returns the wire representation including the opcode.
	Bytes() []byte
}

// SplitOpcode splits a raw datagram into its big-endian opcode and the
// remaining payload. Opcode legality is checked later by Create.
func SplitOpcode(dgram []byte) (uint16, []byte, error) {
	if len(dgram) < 2 {
		return 0, nil, ErrShortDatagram
	}
	return binary.BigEndian.Uint16(dgram[:2]), dgram[2:], nil
}

// Create parses payload as the datagram kind identified by op.
// Errors raised by the variant parsers are propagated as-is.
func Create(op uint16, payload []byte) (Datagram, error) {
	var (
		dgram Datagram
		err   error
	)
	switch op {
	case opcode.RRQ:
		dgram, err = ParseReadRequest(payload)
	case opcode.WRQ:
		dgram, err = ParseWriteRequest(payload)
	case opcode.DATA:
		dgram, err = ParseData(payload)
	case opcode.ACK:
		dgram, err = ParseAck(payload)
	case opcode.ERROR:
		dgram, err = ParseError(payload)
	default:
		return nil, UnknownOpcodeError{Opcode: op}
	}
	if err != nil {
		return nil, err
	}
	return dgram, nil
}

// ReadRequest asks the server to send the named file.
type ReadRequest struct {
	Filename string
	Mode     string
}

// WriteRequest asks the server to receive the named file.
type WriteRequest struct {
	Filename string
	Mode     string
}

// NewReadRequest stores the transfer mode lower-cased, whatever its wire casing.
func NewReadRequest(filename, mode string) *ReadRequest {
	return &ReadRequest{Filename: filename, Mode: strings.ToLower(mode)}
}

// NewWriteRequest stores the transfer mode lower-cased, whatever its wire casing.
func NewWriteRequest(filename, mode string) *WriteRequest {
	return &WriteRequest{Filename: filename, Mode: strings.ToLower(mode)}
}

func ParseReadRequest(payload []byte) (*ReadRequest, error) {
	filename, mode, err := requestFields(payload)
	if err != nil {
		return nil, err
	}
	return NewReadRequest(filename, mode), nil
}

func ParseWriteRequest(payload []byte) (*WriteRequest, error) {
	filename, mode, err := requestFields(payload)
	if err != nil {
		return nil, err
	}
	return NewWriteRequest(filename, mode), nil
}

// requestFields scans a request payload for its two NUL-delimited fields.
// Anything past the second field is ignored and does not need a terminator.
func requestFields(payload []byte) (string, string, error) {
	first := bytes.IndexByte(payload, 0)
	if first < 0 {
		return "", "", ErrFieldCount
	}
	rest := payload[first+1:]
	second := bytes.IndexByte(rest, 0)
	if second < 0 {
		second = len(rest)
	}
	return string(payload[:first]), string(rest[:second]), nil
}

func appendRequest(op uint16, filename, mode string) []byte {
	buf := make([]byte, 2, 2+len(filename)+1+len(mode)+1)
	binary.BigEndian.PutUint16(buf, op)
	buf = append(buf, filename...)
	buf = append(buf, 0)
	buf = append(buf, mode...)
	return append(buf, 0)
}

func (r *ReadRequest) Opcode() uint16 { return opcode.RRQ }

func (r *ReadRequest) Bytes() []byte {
	return appendRequest(opcode.RRQ, r.Filename, r.Mode)
}

func (r *ReadRequest) String() string {
	return fmt.Sprintf("RRQ(filename=%s, mode=%s)", r.Filename, r.Mode)
}

func (w *WriteRequest) Opcode() uint16 { return opcode.WRQ }

func (w *WriteRequest) Bytes() []byte {
	return appendRequest(opcode.WRQ, w.Filename, w.Mode)
}

func (w *WriteRequest) String() string {
	return fmt.Sprintf("WRQ(filename=%s, mode=%s)", w.Filename, w.Mode)
}

// Data carries one block of file content. The codec puts no upper bound on
// the payload; block segmentation is the session layer's business.
type Data struct {
	Block   uint16
	Payload []byte
}

func ParseData(payload []byte) (*Data, error) {
	if len(payload) < 2 {
		return nil, ErrTruncated
	}
	return &Data{
		Block:   binary.BigEndian.Uint16(payload[:2]),
		Payload: payload[2:],
	}, nil
}

func (d *Data) Opcode() uint16 { return opcode.DATA }

func (d *Data) Bytes() []byte {
	buf := make([]byte, 4, 4+len(d.Payload))
	binary.BigEndian.PutUint16(buf[0:2], opcode.DATA)
	binary.BigEndian.PutUint16(buf[2:4], d.Block)
	return append(buf, d.Payload...)
}

func (d *Data) String() string {
	return fmt.Sprintf("DATA(block=%d, %d bytes)", d.Block, len(d.Payload))
}

// Ack acknowledges one data block. Its payload is exactly two bytes on the
// wire; trailing bytes are rejected rather than reserved for extensions.
type Ack struct {
	Block uint16
}

func ParseAck(payload []byte) (*Ack, error) {
	if len(payload) < 2 {
		return nil, ErrTruncated
	}
	if len(payload) > 2 {
		return nil, ErrTrailingData
	}
	return &Ack{Block: binary.BigEndian.Uint16(payload)}, nil
}

func (a *Ack) Opcode() uint16 { return opcode.ACK }

func (a *Ack) Bytes() []byte {
	buf := make([]byte, 4)
	binary.BigEndian.PutUint16(buf[0:2], opcode.ACK)
	binary.BigEndian.PutUint16(buf[2:4], a.Block)
	return buf
}

func (a *Ack) String() string {
	return fmt.Sprintf("ACK(block=%d)", a.Block)
}

// Error reports a transfer failure. Message is never empty after
// construction: an empty wire message is replaced with the registry
// default for the code.
type Error struct {
	Code    uint16
	Message string
}

func ParseError(payload []byte) (*Error, error) {
	if len(payload) < 2 {
		return nil, ErrTruncated
	}
	code := binary.BigEndian.Uint16(payload[:2])
	def, known := DefaultMessage(code)
	if !known {
		return nil, InvalidErrorCodeError{Code: code}
	}
	text := payload[2:]
	if i := bytes.IndexByte(text, 0); i >= 0 {
		text = text[:i]
	}
	if len(text) == 0 {
		return &Error{Code: code, Message: def}, nil
	}
	return &Error{Code: code, Message: string(text)}, nil
}

// ErrorFromCode builds an Error for a standard code. An empty message
// selects the registry default for that code.
func ErrorFromCode(code uint16, message string) (*Error, error) {
	def, known := DefaultMessage(code)
	if !known {
		return nil, InvalidErrorCodeError{Code: code}
	}
	if message == "" {
		message = def
	}
	return &Error{Code: code, Message: message}, nil
}

func (e *Error) Opcode() uint16 { return opcode.ERROR }

func (e *Error) Bytes() []byte {
	buf := make([]byte, 4, 4+len(e.Message)+1)
	binary.BigEndian.PutUint16(buf[0:2], opcode.ERROR)
	binary.BigEndian.PutUint16(buf[2:4], e.Code)
	buf = append(buf, e.Message...)
	return append(buf, 0)
}

func (e *Error) String() string {
	return fmt.Sprintf("ERROR(code=%d, message=%s)", e.Code, e.Message)
}
