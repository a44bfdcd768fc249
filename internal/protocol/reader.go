package protocol

import (
	"bytes"

	"github.com/blukai/steamcm/internal/byteorder"
)

// Reader reads little-endian fields from a body without ever looking past its
// end. the first failed read is remembered; all reads after it return zero
// values and Err reports the failure. this keeps fixed-layout decoders as a
// flat list of reads followed by a single error check.
type Reader struct {
	what string
	buf  []byte
	off  int
	err  error
}

// NewReader returns a reader over buf. what names the message in errors.
func NewReader(what string, buf []byte) *Reader {
	return &Reader{what: what, buf: buf}
}

func (r *Reader) Err() error {
	return r.err
}

// Len returns the number of unread bytes.
func (r *Reader) Len() int {
	return len(r.buf) - r.off
}

func (r *Reader) Offset() int {
	return r.off
}

func (r *Reader) take(n int, field string) []byte {
	if r.err != nil {
		return nil
	}
	if n < 0 || n > r.Len() {
		r.err = Violationf("%s: need %d bytes for %s at offset %d, have %d",
			r.what, n, field, r.off, r.Len())
		return nil
	}
	b := r.buf[r.off : r.off+n]
	r.off += n
	return b
}

func (r *Reader) Uint8(field string) uint8 {
	b := r.take(1, field)
	if b == nil {
		return 0
	}
	return b[0]
}

func (r *Reader) Uint16(field string) uint16 {
	b := r.take(2, field)
	if b == nil {
		return 0
	}
	return byteorder.Letohs(b)
}

func (r *Reader) Uint32(field string) uint32 {
	b := r.take(4, field)
	if b == nil {
		return 0
	}
	return byteorder.Letohl(b)
}

func (r *Reader) Uint64(field string) uint64 {
	b := r.take(8, field)
	if b == nil {
		return 0
	}
	return byteorder.Letohll(b)
}

func (r *Reader) SteamID(field string) SteamID {
	return SteamID(r.Uint64(field))
}

// Bytes returns the next n bytes. the result aliases the underlying buffer.
func (r *Reader) Bytes(n int, field string) []byte {
	return r.take(n, field)
}

// Rest consumes and returns everything that is left.
func (r *Reader) Rest() []byte {
	if r.err != nil {
		return nil
	}
	b := r.buf[r.off:]
	r.off = len(r.buf)
	return b
}

// CString consumes a NUL-terminated string. the terminator is required.
func (r *Reader) CString(field string) string {
	if r.err != nil {
		return ""
	}
	i := bytes.IndexByte(r.buf[r.off:], 0)
	if i < 0 {
		r.err = Violationf("%s: %s at offset %d is not NUL-terminated", r.what, field, r.off)
		return ""
	}
	s := string(r.buf[r.off : r.off+i])
	r.off += i + 1
	return s
}

// Text consumes the rest of the body and returns the bytes before the first
// NUL, or all of them when there is no NUL at all. anything after the
// terminator is dropped.
func (r *Reader) Text() string {
	rest := r.Rest()
	if i := bytes.IndexByte(rest, 0); i >= 0 {
		rest = rest[:i]
	}
	return string(rest)
}
