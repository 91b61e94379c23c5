package netascii

import (
	"go_tftp/fileio"
)

// Reader wraps a backend reader and converts its content to netascii as a
// read transfer consumes it. Converted overflow is carried between reads,
// so the stream stays byte-exact across block boundaries. A chunk ending
// in the first byte(s) of a multi-byte newline is held back until the
// next chunk shows whether the sequence completes.
type Reader struct {
	src   fileio.Reader
	nl    []byte
	buf   []byte
	carry []byte
	err   error
}

func NewReader(src fileio.Reader) *Reader {
	return &Reader{src: src, nl: newline}
}

func (r *Reader) Read(p []byte) (int, error) {
	for len(r.buf) < len(p) && r.err == nil {
		chunk := make([]byte, len(p))
		n, err := r.src.Read(chunk)
		if n > 0 {
			data := append(r.carry, chunk[:n]...)
			r.carry = nil
			if hold := newlineSplit(data, r.nl); hold > 0 {
				r.carry = append([]byte(nil), data[len(data)-hold:]...)
				data = data[:len(data)-hold]
			}
			r.buf = append(r.buf, encode(data, r.nl)...)
		}
		if err != nil {
			r.err = err
			if len(r.carry) > 0 {
				// Stream ended mid-sequence; encode what is there.
				r.buf = append(r.buf, encode(r.carry, r.nl)...)
				r.carry = nil
			}
		}
	}
	n := copy(p, r.buf)
	r.buf = r.buf[n:]
	if n > 0 {
		return n, nil
	}
	if r.err != nil {
		return 0, r.err
	}
	return 0, nil
}

func (r *Reader) Close() error {
	return r.src.Close()
}

// Writer wraps a backend writer and decodes incoming netascii. A block
// ending in a lone CR is held back one byte until the next block shows
// whether it opens a CR LF or CR NUL pair.
type Writer struct {
	dst     fileio.Writer
	carryCR bool
}

func NewWriter(dst fileio.Writer) *Writer {
	return &Writer{dst: dst}
}

func (w *Writer) Write(p []byte) (int, error) {
	data := p
	if w.carryCR {
		data = append([]byte{cr}, p...)
		w.carryCR = false
	}
	if len(data) > 0 && data[len(data)-1] == cr {
		w.carryCR = true
		data = data[:len(data)-1]
	}
	if _, err := w.dst.Write(From(data)); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (w *Writer) Finish() error {
	if w.carryCR {
		// Stream ended mid-pair; keep the CR as-is.
		w.carryCR = false
		if _, err := w.dst.Write([]byte{cr}); err != nil {
			w.dst.Cancel()
			return err
		}
	}
	return w.dst.Finish()
}

func (w *Writer) Cancel() error {
	return w.dst.Cancel()
}
