package protomsg

import (
	"github.com/blukai/steamcm/internal/protocol"
	"google.golang.org/protobuf/encoding/protowire"
)

// ProtocolVersion is what the client announces in Logon.
const ProtocolVersion = 65575

// Logon is CMsgClientLogon.
type Logon struct {
	ProtocolVersion   uint32
	ClientLanguage    string
	AccountName       string
	Password          string
	EResultSentryFile protocol.EResult
	SHASentryFile     []byte
	AuthCode          string
}

var _ Message = (*Logon)(nil)

func (m *Logon) Size() int {
	return sizeVarint(1, uint64(m.ProtocolVersion)) +
		sizeBytes(6, len(m.ClientLanguage)) +
		sizeBytes(50, len(m.AccountName)) +
		sizeBytes(51, len(m.Password)) +
		sizeVarint(82, int32Varint(int32(m.EResultSentryFile))) +
		sizeBytes(83, len(m.SHASentryFile)) +
		sizeBytes(84, len(m.AuthCode))
}

func (m *Logon) Append(b []byte) []byte {
	b = appendVarint(b, 1, uint64(m.ProtocolVersion))
	b = appendString(b, 6, m.ClientLanguage)
	b = appendString(b, 50, m.AccountName)
	b = appendString(b, 51, m.Password)
	b = appendVarint(b, 82, int32Varint(int32(m.EResultSentryFile)))
	b = appendBytes(b, 83, m.SHASentryFile)
	b = appendString(b, 84, m.AuthCode)
	return b
}

func (m *Logon) Unmarshal(b []byte) error {
	*m = Logon{}
	var eresult int32
	err := walk("logon", b, func(num protowire.Number, typ protowire.Type, b []byte) int {
		switch num {
		case 1:
			return consumeUint32(typ, b, &m.ProtocolVersion)
		case 6:
			return consumeString(typ, b, &m.ClientLanguage)
		case 50:
			return consumeString(typ, b, &m.AccountName)
		case 51:
			return consumeString(typ, b, &m.Password)
		case 82:
			return consumeInt32(typ, b, &eresult)
		case 83:
			return consumeBytes(typ, b, &m.SHASentryFile)
		case 84:
			return consumeString(typ, b, &m.AuthCode)
		}
		return skip
	})
	m.EResultSentryFile = protocol.EResult(eresult)
	return err
}

// LogonResponse is CMsgClientLogonResponse.
type LogonResponse struct {
	EResult                   protocol.EResult
	OutOfGameHeartbeatSeconds int32
	InGameHeartbeatSeconds    int32
	CellID                    uint32
}

var _ Message = (*LogonResponse)(nil)

func (m *LogonResponse) Size() int {
	return sizeVarint(1, int32Varint(int32(m.EResult))) +
		sizeVarint(2, int32Varint(m.OutOfGameHeartbeatSeconds)) +
		sizeVarint(3, int32Varint(m.InGameHeartbeatSeconds)) +
		sizeVarint(7, uint64(m.CellID))
}

func (m *LogonResponse) Append(b []byte) []byte {
	b = appendVarint(b, 1, int32Varint(int32(m.EResult)))
	b = appendVarint(b, 2, int32Varint(m.OutOfGameHeartbeatSeconds))
	b = appendVarint(b, 3, int32Varint(m.InGameHeartbeatSeconds))
	b = appendVarint(b, 7, uint64(m.CellID))
	return b
}

func (m *LogonResponse) Unmarshal(b []byte) error {
	*m = LogonResponse{}
	// NOTE: eresult defaults to Fail when absent
	eresult := int32(protocol.EResultFail)
	err := walk("logon response", b, func(num protowire.Number, typ protowire.Type, b []byte) int {
		switch num {
		case 1:
			return consumeInt32(typ, b, &eresult)
		case 2:
			return consumeInt32(typ, b, &m.OutOfGameHeartbeatSeconds)
		case 3:
			return consumeInt32(typ, b, &m.InGameHeartbeatSeconds)
		case 7:
			return consumeUint32(typ, b, &m.CellID)
		}
		return skip
	})
	m.EResult = protocol.EResult(eresult)
	return err
}

// HeartBeat is CMsgClientHeartBeat, it has no fields the client sets.
type HeartBeat struct{}

var _ Message = (*HeartBeat)(nil)

func (m *HeartBeat) Size() int              { return 0 }
func (m *HeartBeat) Append(b []byte) []byte { return b }

func (m *HeartBeat) Unmarshal(b []byte) error {
	return walk("heartbeat", b, func(protowire.Number, protowire.Type, []byte) int {
		return skip
	})
}
