package fileio

import "errors"

// ErrUnsupported means the backend has the requested direction disabled.
var ErrUnsupported = errors.New("fileio: operation not supported")

// AccessViolationError reports a filename that escapes the backend root.
type AccessViolationError struct {
	Path string
}

func (e AccessViolationError) Error() string {
	return "fileio: insecure path: " + e.Path
}

// FileNotFoundError reports a read request for a missing file.
type FileNotFoundError struct {
	Path string
}

func (e FileNotFoundError) Error() string {
	return "fileio: file not found: " + e.Path
}

// FileExistsError reports a write request for a file that is already there.
type FileExistsError struct {
	Path string
}

func (e FileExistsError) Error() string {
	return "fileio: file already exists: " + e.Path
}
