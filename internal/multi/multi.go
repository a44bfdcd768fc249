// Package multi unpacks Multi envelopes: a CMsgMulti whose body is a
// (possibly zip compressed) sequence of length prefixed messages.
package multi

import (
	"bytes"
	"fmt"
	"io"

	"github.com/blukai/steamcm/internal/protocol"
	"github.com/blukai/steamcm/internal/protomsg"
	"github.com/klauspost/compress/zip"
)

const (
	// MaxSize bounds the declared uncompressed size of a batch. anything
	// bigger is refused before allocating.
	MaxSize = 64 << 20

	// EntryName is the only entry a compressed batch may contain.
	EntryName = "z"
)

// Unpack returns the sub-messages of a Multi body in the order they appear.
// each sub-message starts with its own header.
func Unpack(body []byte) ([][]byte, error) {
	payload, err := Payload(body)
	if err != nil {
		return nil, err
	}
	return Split(payload)
}

// Payload decodes a Multi body and returns the batch payload, inflated when
// the body is compressed.
func Payload(body []byte) ([]byte, error) {
	var m protomsg.Multi
	if err := m.Unmarshal(body); err != nil {
		return nil, fmt.Errorf("could not unmarshal multi: %w", err)
	}
	if m.SizeUnzipped == 0 {
		return m.MessageBody, nil
	}
	return inflate(m.MessageBody, m.SizeUnzipped)
}

func inflate(archive []byte, size uint32) ([]byte, error) {
	if size > MaxSize {
		return nil, protocol.Violationf("multi: uncompressed size %d exceeds %d", size, MaxSize)
	}

	zr, err := zip.NewReader(bytes.NewReader(archive), int64(len(archive)))
	if err != nil {
		return nil, protocol.Violationf("multi: could not open archive: %v", err)
	}
	if len(zr.File) != 1 {
		return nil, protocol.Violationf("multi: archive has %d entries (want 1)", len(zr.File))
	}

	f := zr.File[0]
	if f.Name != EntryName {
		return nil, protocol.Violationf("multi: archive entry is named %q (want %q)", f.Name, EntryName)
	}
	if f.UncompressedSize64 != uint64(size) {
		return nil, protocol.Violationf("multi: archive entry is %d bytes (want %d)", f.UncompressedSize64, size)
	}

	rc, err := f.Open()
	if err != nil {
		return nil, protocol.Violationf("multi: could not open archive entry: %v", err)
	}
	defer rc.Close()

	buf := make([]byte, size)
	if _, err := io.ReadFull(rc, buf); err != nil {
		return nil, protocol.Violationf("multi: could not inflate: %v", err)
	}
	// reading to the end makes the zip reader verify the checksum and catches
	// entries that inflate to more than they declared.
	extra, err := io.ReadAll(io.LimitReader(rc, 1))
	if err != nil {
		return nil, protocol.Violationf("multi: could not inflate: %v", err)
	}
	if len(extra) != 0 {
		return nil, protocol.Violationf("multi: archive entry inflates past %d bytes", size)
	}

	return buf, nil
}

// Split cuts a batch payload into sub-messages. every sub-message is
// preceded by its little-endian u32 length, the last one must end exactly at
// the end of the payload.
func Split(payload []byte) ([][]byte, error) {
	var subs [][]byte

	r := protocol.NewReader("multi payload", payload)
	for r.Len() > 0 {
		n := r.Uint32("sub message length")
		if err := r.Err(); err != nil {
			return nil, err
		}
		if uint64(n) > uint64(r.Len()) {
			return nil, protocol.Violationf("multi payload: sub message %d at offset %d is %d bytes, only %d left",
				len(subs), r.Offset()-4, n, r.Len())
		}
		subs = append(subs, r.Bytes(int(n), "sub message"))
	}

	return subs, r.Err()
}
