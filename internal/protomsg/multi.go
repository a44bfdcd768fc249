package protomsg

import "google.golang.org/protobuf/encoding/protowire"

// Multi is CMsgMulti.
type Multi struct {
	SizeUnzipped uint32
	// MessageBody aliases the decoded buffer.
	MessageBody []byte
}

var _ Message = (*Multi)(nil)

func (m *Multi) Size() int {
	return sizeVarint(1, uint64(m.SizeUnzipped)) +
		sizeBytes(2, len(m.MessageBody))
}

func (m *Multi) Append(b []byte) []byte {
	b = appendVarint(b, 1, uint64(m.SizeUnzipped))
	b = appendBytes(b, 2, m.MessageBody)
	return b
}

func (m *Multi) Unmarshal(b []byte) error {
	*m = Multi{}
	return walk("multi", b, func(num protowire.Number, typ protowire.Type, b []byte) int {
		switch num {
		case 1:
			return consumeUint32(typ, b, &m.SizeUnzipped)
		case 2:
			return consumeBytes(typ, b, &m.MessageBody)
		}
		return skip
	})
}
