package protomsg

import (
	"github.com/blukai/steamcm/internal/protocol"
	"google.golang.org/protobuf/encoding/protowire"
)

// Friend is CMsgClientPersonaState.Friend.
type Friend struct {
	FriendID      protocol.SteamID
	PersonaState  protocol.EPersonaState
	PlayerName    string
	SteamIDSource protocol.SteamID
}

var _ Message = (*Friend)(nil)

func (m *Friend) Size() int {
	return sizeFixed64(1, uint64(m.FriendID)) +
		sizeVarint(2, uint64(m.PersonaState)) +
		sizeBytes(15, len(m.PlayerName)) +
		sizeFixed64(25, uint64(m.SteamIDSource))
}

func (m *Friend) Append(b []byte) []byte {
	b = appendFixed64(b, 1, uint64(m.FriendID))
	b = appendVarint(b, 2, uint64(m.PersonaState))
	b = appendString(b, 15, m.PlayerName)
	b = appendFixed64(b, 25, uint64(m.SteamIDSource))
	return b
}

func (m *Friend) Unmarshal(b []byte) error {
	*m = Friend{}
	var friendID, source uint64
	var state uint32
	err := walk("persona state friend", b, func(num protowire.Number, typ protowire.Type, b []byte) int {
		switch num {
		case 1:
			return consumeFixed64(typ, b, &friendID)
		case 2:
			return consumeUint32(typ, b, &state)
		case 15:
			return consumeString(typ, b, &m.PlayerName)
		case 25:
			return consumeFixed64(typ, b, &source)
		}
		return skip
	})
	m.FriendID = protocol.SteamID(friendID)
	m.PersonaState = protocol.EPersonaState(state)
	m.SteamIDSource = protocol.SteamID(source)
	return err
}

// PersonaState is CMsgClientPersonaState.
type PersonaState struct {
	StatusFlags uint32
	Friends     []Friend
}

var _ Message = (*PersonaState)(nil)

func (m *PersonaState) Size() int {
	n := sizeVarint(1, uint64(m.StatusFlags))
	for i := range m.Friends {
		// NOTE: an empty friend is still a present element
		n += protowire.SizeTag(2) + protowire.SizeBytes(m.Friends[i].Size())
	}
	return n
}

func (m *PersonaState) Append(b []byte) []byte {
	b = appendVarint(b, 1, uint64(m.StatusFlags))
	for i := range m.Friends {
		f := &m.Friends[i]
		b = protowire.AppendTag(b, 2, protowire.BytesType)
		b = protowire.AppendVarint(b, uint64(f.Size()))
		b = f.Append(b)
	}
	return b
}

func (m *PersonaState) Unmarshal(b []byte) error {
	*m = PersonaState{}
	var friendErr error
	err := walk("persona state", b, func(num protowire.Number, typ protowire.Type, b []byte) int {
		switch num {
		case 1:
			return consumeUint32(typ, b, &m.StatusFlags)
		case 2:
			var raw []byte
			n := consumeBytes(typ, b, &raw)
			if n < 0 {
				return n
			}
			var f Friend
			if err := f.Unmarshal(raw); err != nil && friendErr == nil {
				friendErr = err
			}
			m.Friends = append(m.Friends, f)
			return n
		}
		return skip
	})
	if err != nil {
		return err
	}
	return friendErr
}

// ChangeStatus is CMsgClientChangeStatus.
type ChangeStatus struct {
	PersonaState protocol.EPersonaState
	PlayerName   string
}

var _ Message = (*ChangeStatus)(nil)

func (m *ChangeStatus) Size() int {
	return sizeVarint(1, uint64(m.PersonaState)) +
		sizeBytes(2, len(m.PlayerName))
}

func (m *ChangeStatus) Append(b []byte) []byte {
	b = appendVarint(b, 1, uint64(m.PersonaState))
	b = appendString(b, 2, m.PlayerName)
	return b
}

func (m *ChangeStatus) Unmarshal(b []byte) error {
	*m = ChangeStatus{}
	var state uint32
	err := walk("change status", b, func(num protowire.Number, typ protowire.Type, b []byte) int {
		switch num {
		case 1:
			return consumeUint32(typ, b, &state)
		case 2:
			return consumeString(typ, b, &m.PlayerName)
		}
		return skip
	})
	m.PersonaState = protocol.EPersonaState(state)
	return err
}
