// Package sse splits a text/event-stream body into frames and parses the
// event and data lines of each frame.
package sse

import (
	"bytes"
	"errors"
	"io"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

const defaultChunkSize = 4096

var frameTerminator = []byte("\n\n")

// Reader reassembles frames from a byte stream that may arrive in chunks of
// any size. It is not safe for concurrent use; each stream owns one Reader.
type Reader struct {
	src   io.Reader
	chunk []byte
	buf   []byte
	// scanned is how far buf is known to hold no terminator.
	scanned int
	eof     bool
	// err is a read failure held back until the complete frames read
	// alongside it have been returned.
	err error

	// Reads counts calls made to the underlying reader.
	Reads int
}

// NewReader wraps body in a streaming UTF-8 decoder. A multi-byte character
// split across two reads is held back until its remaining bytes arrive;
// invalid sequences decode to U+FFFD.
func NewReader(body io.Reader) *Reader {
	return NewReaderSize(body, defaultChunkSize)
}

// NewReaderSize is NewReader with an explicit read size.
func NewReaderSize(body io.Reader, size int) *Reader {
	if size <= 0 {
		size = defaultChunkSize
	}
	return &Reader{
		src:   transform.NewReader(body, unicode.UTF8.NewDecoder()),
		chunk: make([]byte, size),
	}
}

// Next returns the next complete frame without its terminator. It returns
// io.EOF once the body is exhausted; text after the last terminator is
// dropped at that point. A read error is returned only after every complete
// frame that arrived before it.
func (r *Reader) Next() (string, error) {
	for {
		if i := bytes.Index(r.buf[r.scanned:], frameTerminator); i >= 0 {
			i += r.scanned
			frame := string(r.buf[:i])
			n := copy(r.buf, r.buf[i+len(frameTerminator):])
			r.buf = r.buf[:n]
			r.scanned = 0
			return frame, nil
		}
		if r.scanned = len(r.buf) - (len(frameTerminator) - 1); r.scanned < 0 {
			r.scanned = 0
		}
		if r.err != nil {
			r.buf = nil
			r.scanned = 0
			return "", r.err
		}
		if r.eof {
			r.buf = nil
			r.scanned = 0
			return "", io.EOF
		}
		n, err := r.src.Read(r.chunk)
		r.Reads++
		if n > 0 {
			r.buf = append(r.buf, r.chunk[:n]...)
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				r.eof = true
			} else {
				r.err = err
			}
		}
	}
}

// Pending returns the buffered text that has not yet formed a frame.
func (r *Reader) Pending() string {
	return string(r.buf)
}
