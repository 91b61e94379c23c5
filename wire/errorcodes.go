package wire

// Standard TFTP error codes.
const (
	ERR_NOT_DEFINED uint16 = iota
	ERR_FILE_NOT_FOUND
	ERR_ACCESS_VIOLATION
	ERR_DISK_FULL
	ERR_ILLEGAL_OP
	ERR_TID_UNKNOWN
	ERR_FILE_EXISTS
	ERR_NO_SUCH_USER
)

var defaultMessages = map[uint16]string{
	ERR_NOT_DEFINED:      "",
	ERR_FILE_NOT_FOUND:   "File not found",
	ERR_ACCESS_VIOLATION: "Access violation",
	ERR_DISK_FULL:        "Disk full or allocation exceeded",
	ERR_ILLEGAL_OP:       "Illegal TFTP operation",
	ERR_TID_UNKNOWN:      "Unknown transfer ID",
	ERR_FILE_EXISTS:      "File already exists",
	ERR_NO_SUCH_USER:     "No such user",
}

// DefaultMessage returns the standard message for code and whether code
// is one of the standardized TFTP error codes.
func DefaultMessage(code uint16) (string, bool) {
	msg, ok := defaultMessages[code]
	return msg, ok
}
