package fileio

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Filesystem serves transfers from a single root directory. Requested
// filenames are confined to the root; attempts to escape it fail with
// AccessViolationError.
type Filesystem struct {
	root     string
	canRead  bool
	canWrite bool
}

// NewFilesystem validates root and returns a backend rooted there.
func NewFilesystem(root string, canRead, canWrite bool) (*Filesystem, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("fileio: root %s is not a directory", abs)
	}
	return &Filesystem{root: abs, canRead: canRead, canWrite: canWrite}, nil
}

// resolve maps a wire filename onto a path under the root. Clients may
// send either slash style.
func (f *Filesystem) resolve(name string) (string, error) {
	slashed := strings.ReplaceAll(name, "\\", "/")
	clean := filepath.Clean(filepath.FromSlash(slashed))
	if filepath.IsAbs(clean) || clean == ".." ||
		strings.HasPrefix(clean, ".."+string(os.PathSeparator)) {
		return "", AccessViolationError{Path: name}
	}
	return filepath.Join(f.root, clean), nil
}

func (f *Filesystem) OpenRead(filename string) (Reader, error) {
	if !f.canRead {
		return nil, ErrUnsupported
	}
	path, err := f.resolve(filename)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, FileNotFoundError{Path: filename}
		}
		return nil, err
	}
	return &fsReader{file: file}, nil
}

func (f *Filesystem) OpenWrite(filename string) (Writer, error) {
	if !f.canWrite {
		return nil, ErrUnsupported
	}
	path, err := f.resolve(filename)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	// Claim the destination up front so concurrent writes to the same
	// name fail fast.
	dest, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if os.IsExist(err) {
			return nil, FileExistsError{Path: filename}
		}
		return nil, err
	}
	temp, err := os.CreateTemp(filepath.Dir(path), ".tftp-*")
	if err != nil {
		dest.Close()
		os.Remove(path)
		return nil, err
	}
	return &fsWriter{dest: dest, temp: temp}, nil
}

// fsReader closes the underlying file as soon as EOF is reached.
type fsReader struct {
	file *os.File
	eof  bool
}

func (r *fsReader) Read(p []byte) (int, error) {
	if r.eof {
		return 0, io.EOF
	}
	n, err := r.file.Read(p)
	if err == io.EOF {
		r.eof = true
		r.file.Close()
	}
	return n, err
}

func (r *fsReader) Close() error {
	if r.eof {
		return nil
	}
	r.eof = true
	return r.file.Close()
}

// fsWriter stages incoming data in a temp file and copies it over the
// claimed destination on Finish.
type fsWriter struct {
	dest *os.File
	temp *os.File
}

func (w *fsWriter) Write(p []byte) (int, error) {
	return w.temp.Write(p)
}

func (w *fsWriter) Finish() error {
	if _, err := w.temp.Seek(0, io.SeekStart); err != nil {
		w.discard()
		return err
	}
	if _, err := io.Copy(w.dest, w.temp); err != nil {
		w.discard()
		return err
	}
	w.temp.Close()
	os.Remove(w.temp.Name())
	return w.dest.Close()
}

func (w *fsWriter) Cancel() error {
	w.discard()
	return nil
}

func (w *fsWriter) discard() {
	w.temp.Close()
	os.Remove(w.temp.Name())
	w.dest.Close()
	os.Remove(w.dest.Name())
}
