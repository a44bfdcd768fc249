package protomsg

import (
	"github.com/blukai/steamcm/internal/protocol"
	"google.golang.org/protobuf/encoding/protowire"
)

// Header is CMsgProtoBufHeader. job ids are 0 when absent.
type Header struct {
	SteamID         protocol.SteamID
	ClientSessionID int32
	JobIDSource     uint64
	JobIDTarget     uint64
	TargetJobName   string
	EResult         protocol.EResult
}

var _ Message = (*Header)(nil)

func (m *Header) Size() int {
	return sizeFixed64(1, uint64(m.SteamID)) +
		sizeVarint(2, int32Varint(m.ClientSessionID)) +
		sizeFixed64(10, m.JobIDSource) +
		sizeFixed64(11, m.JobIDTarget) +
		sizeBytes(12, len(m.TargetJobName)) +
		sizeVarint(13, int32Varint(int32(m.EResult)))
}

func (m *Header) Append(b []byte) []byte {
	b = appendFixed64(b, 1, uint64(m.SteamID))
	b = appendVarint(b, 2, int32Varint(m.ClientSessionID))
	b = appendFixed64(b, 10, m.JobIDSource)
	b = appendFixed64(b, 11, m.JobIDTarget)
	b = appendString(b, 12, m.TargetJobName)
	b = appendVarint(b, 13, int32Varint(int32(m.EResult)))
	return b
}

func (m *Header) Unmarshal(b []byte) error {
	*m = Header{}
	var steamID uint64
	var eresult int32
	err := walk("protobuf header", b, func(num protowire.Number, typ protowire.Type, b []byte) int {
		switch num {
		case 1:
			return consumeFixed64(typ, b, &steamID)
		case 2:
			return consumeInt32(typ, b, &m.ClientSessionID)
		case 10:
			return consumeFixed64(typ, b, &m.JobIDSource)
		case 11:
			return consumeFixed64(typ, b, &m.JobIDTarget)
		case 12:
			return consumeString(typ, b, &m.TargetJobName)
		case 13:
			return consumeInt32(typ, b, &eresult)
		}
		return skip
	})
	if err != nil {
		return err
	}
	m.SteamID = protocol.SteamID(steamID)
	m.EResult = protocol.EResult(eresult)
	m.JobIDSource = protocol.JobIDFromWire(m.JobIDSource)
	m.JobIDTarget = protocol.JobIDFromWire(m.JobIDTarget)
	return nil
}
