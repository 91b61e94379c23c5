package fileio

import "io"

// Reader hands out file content for a read transfer. Close releases the
// file early when a transfer is cancelled; readers also close themselves
// once they hit EOF.
type Reader interface {
	io.Reader
	io.Closer
}

// Writer receives file content for a write transfer. Exactly one of
// Finish or Cancel must be called: Finish publishes the staged content,
// Cancel discards it.
type Writer interface {
	io.Writer
	Finish() error
	Cancel() error
}

// Backend resolves wire filenames to readers and writers.
type Backend interface {
	OpenRead(filename string) (Reader, error)
	OpenWrite(filename string) (Writer, error)
}
