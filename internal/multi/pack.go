package multi

import (
	"bytes"
	"fmt"

	"github.com/blukai/steamcm/internal/byteorder"
	"github.com/blukai/steamcm/internal/protomsg"
	"github.com/klauspost/compress/zip"
)

// Join is the inverse of Split.
func Join(subs [][]byte) []byte {
	n := 0
	for _, sub := range subs {
		n += 4 + len(sub)
	}

	payload := make([]byte, 0, n)
	for _, sub := range subs {
		payload = byteorder.AppendLel(payload, uint32(len(sub)))
		payload = append(payload, sub...)
	}
	return payload
}

// Deflate packs payload into a single entry zip archive the way the servers
// do.
func Deflate(payload []byte) ([]byte, error) {
	buf := &bytes.Buffer{}

	zw := zip.NewWriter(buf)
	w, err := zw.CreateHeader(&zip.FileHeader{
		Name:   EntryName,
		Method: zip.Deflate,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create archive entry: %w", err)
	}
	if _, err := w.Write(payload); err != nil {
		return nil, fmt.Errorf("could not write archive entry: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("could not close archive: %w", err)
	}

	return buf.Bytes(), nil
}

// Pack builds a Multi body carrying subs, compressed when compress is set.
// an empty batch is never compressed, a zero size means uncompressed.
func Pack(subs [][]byte, compress bool) ([]byte, error) {
	payload := Join(subs)
	m := protomsg.Multi{MessageBody: payload}
	if compress && len(payload) > 0 {
		archive, err := Deflate(payload)
		if err != nil {
			return nil, err
		}
		m.SizeUnzipped = uint32(len(payload))
		m.MessageBody = archive
	}
	return m.Append(nil), nil
}
