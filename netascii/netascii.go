package netascii

import (
	"bytes"
	"runtime"
)

// In netascii a newline (whatever that is on the local platform) travels
// as CR LF, and a bare CR travels as CR NUL.
const (
	cr  = 0x0d
	lf  = 0x0a
	nul = 0x00
)

var newline = platformNewline(runtime.GOOS)

func platformNewline(goos string) []byte {
	if goos == "windows" {
		return []byte{cr, lf}
	}
	return []byte{lf}
}

// From decodes netascii: CR LF becomes the platform newline, CR NUL a
// bare CR. Everything else is copied through.
func From(data []byte) []byte {
	out := make([]byte, 0, len(data))
	for i := 0; i < len(data); {
		if data[i] == cr && i+1 < len(data) {
			switch data[i+1] {
			case lf:
				out = append(out, newline...)
				i += 2
				continue
			case nul:
				out = append(out, cr)
				i += 2
				continue
			}
		}
		out = append(out, data[i])
		i++
	}
	return out
}

// To encodes to netascii: the platform newline becomes CR LF, a bare CR
// becomes CR NUL.
func To(data []byte) []byte {
	return encode(data, newline)
}

func encode(data, nl []byte) []byte {
	out := make([]byte, 0, len(data)+len(data)/8)
	for i := 0; i < len(data); {
		if bytes.HasPrefix(data[i:], nl) {
			out = append(out, cr, lf)
			i += len(nl)
			continue
		}
		if data[i] == cr {
			out = append(out, cr, nul)
			i++
			continue
		}
		out = append(out, data[i])
		i++
	}
	return out
}

// newlineSplit reports how many trailing bytes of data form a proper
// prefix of nl, meaning the chunk may have cut a newline sequence in two.
func newlineSplit(data, nl []byte) int {
	for k := len(nl) - 1; k > 0; k-- {
		if bytes.HasSuffix(data, nl[:k]) {
			return k
		}
	}
	return 0
}
