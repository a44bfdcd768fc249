package cmconn

import (
	"bytes"
	"fmt"
	"io"

	"github.com/blukai/steamcm/internal/byteorder"
	"github.com/blukai/steamcm/internal/protocol"
)

const (
	// Magic follows the length of every frame on a tcp connection.
	Magic = "VT01"

	FrameHeaderSize = 8
	MaxFrameSize    = 16 << 20
)

// AppendFrame appends payload to dst in the tcp framing: LE32 length, Magic,
// payload.
func AppendFrame(dst, payload []byte) []byte {
	dst = byteorder.AppendLel(dst, uint32(len(payload)))
	dst = append(dst, Magic...)
	return append(dst, payload...)
}

// ReadFrame reads one frame off r and returns its payload.
func ReadFrame(r io.Reader) ([]byte, error) {
	var header [FrameHeaderSize]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, err
	}

	size := byteorder.Letohl(header[0:4])
	if !bytes.Equal(header[4:8], []byte(Magic)) {
		return nil, protocol.Violationf("frame magic %q (want %q)", header[4:8], Magic)
	}
	if size > MaxFrameSize {
		return nil, protocol.Violationf("frame size %d exceeds %d", size, MaxFrameSize)
	}

	payload := make([]byte, size)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, fmt.Errorf("could not read %d byte frame: %w", size, err)
	}
	return payload, nil
}
