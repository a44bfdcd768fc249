package protomsg

import (
	"github.com/blukai/steamcm/internal/protocol"
	"google.golang.org/protobuf/encoding/protowire"
)

// UpdateMachineAuth is CMsgClientUpdateMachineAuth, the server pushing a
// sentry file.
type UpdateMachineAuth struct {
	Filename   string
	Offset     uint32
	CubToWrite uint32
	Bytes      []byte
}

var _ Message = (*UpdateMachineAuth)(nil)

func (m *UpdateMachineAuth) Size() int {
	return sizeBytes(1, len(m.Filename)) +
		sizeVarint(2, uint64(m.Offset)) +
		sizeVarint(3, uint64(m.CubToWrite)) +
		sizeBytes(4, len(m.Bytes))
}

func (m *UpdateMachineAuth) Append(b []byte) []byte {
	b = appendString(b, 1, m.Filename)
	b = appendVarint(b, 2, uint64(m.Offset))
	b = appendVarint(b, 3, uint64(m.CubToWrite))
	b = appendBytes(b, 4, m.Bytes)
	return b
}

func (m *UpdateMachineAuth) Unmarshal(b []byte) error {
	*m = UpdateMachineAuth{}
	return walk("update machine auth", b, func(num protowire.Number, typ protowire.Type, b []byte) int {
		switch num {
		case 1:
			return consumeString(typ, b, &m.Filename)
		case 2:
			return consumeUint32(typ, b, &m.Offset)
		case 3:
			return consumeUint32(typ, b, &m.CubToWrite)
		case 4:
			return consumeBytes(typ, b, &m.Bytes)
		}
		return skip
	})
}

// UpdateMachineAuthResponse is CMsgClientUpdateMachineAuthResponse.
type UpdateMachineAuthResponse struct {
	Filename string
	EResult  protocol.EResult
	FileSize uint32
	SHAFile  []byte
	Offset   uint32
	CubWrote uint32
}

var _ Message = (*UpdateMachineAuthResponse)(nil)

func (m *UpdateMachineAuthResponse) Size() int {
	return sizeBytes(1, len(m.Filename)) +
		sizeVarint(2, uint64(uint32(m.EResult))) +
		sizeVarint(3, uint64(m.FileSize)) +
		sizeBytes(4, len(m.SHAFile)) +
		sizeVarint(6, uint64(m.Offset)) +
		sizeVarint(7, uint64(m.CubWrote))
}

func (m *UpdateMachineAuthResponse) Append(b []byte) []byte {
	b = appendString(b, 1, m.Filename)
	b = appendVarint(b, 2, uint64(uint32(m.EResult)))
	b = appendVarint(b, 3, uint64(m.FileSize))
	b = appendBytes(b, 4, m.SHAFile)
	b = appendVarint(b, 6, uint64(m.Offset))
	b = appendVarint(b, 7, uint64(m.CubWrote))
	return b
}

func (m *UpdateMachineAuthResponse) Unmarshal(b []byte) error {
	*m = UpdateMachineAuthResponse{}
	var eresult uint32
	err := walk("update machine auth response", b, func(num protowire.Number, typ protowire.Type, b []byte) int {
		switch num {
		case 1:
			return consumeString(typ, b, &m.Filename)
		case 2:
			return consumeUint32(typ, b, &eresult)
		case 3:
			return consumeUint32(typ, b, &m.FileSize)
		case 4:
			return consumeBytes(typ, b, &m.SHAFile)
		case 6:
			return consumeUint32(typ, b, &m.Offset)
		case 7:
			return consumeUint32(typ, b, &m.CubWrote)
		}
		return skip
	})
	m.EResult = protocol.EResult(eresult)
	return err
}
