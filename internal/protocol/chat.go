package protocol

import (
	"encoding"

	"github.com/blukai/steamcm/internal/byteorder"
	"github.com/blukai/steamcm/internal/debug"
)

const (
	ChatMemberSize           = 16 // steam id (8) + permissions (4) + details (4)
	ChatMsgHeaderSize        = 20 // chatter (8) + room (8) + entry type (4)
	ChatEnterHeaderSize      = 41 // room (8) + friend (8) + type (4) + owner (8) + clan (8) + flags (1) + response (4)
	ChatMemberInfoHeaderSize = 12 // room (8) + info type (4)
	ChatStateChangeSize      = 20 + ChatMemberSize
	JoinChatSize             = 9
)

type ChatMember struct {
	SteamID     SteamID
	Permissions EChatPermission
	Details     uint32
}

func (m *ChatMember) read(r *Reader) {
	m.SteamID = r.SteamID("member steam id")
	m.Permissions = EChatPermission(r.Uint32("member permissions"))
	m.Details = r.Uint32("member details")
}

// ChatMembers is a verbatim view over a packed array of ChatMember records as
// they arrived on the wire. it is never copied into a richer structure.
type ChatMembers []byte

func (ms ChatMembers) Len() int {
	return len(ms) / ChatMemberSize
}

func (ms ChatMembers) At(i int) ChatMember {
	debug.Assertf(i >= 0 && i < ms.Len(), "chat member index %d out of range [0, %d)", i, ms.Len())

	raw := ms[i*ChatMemberSize : (i+1)*ChatMemberSize]
	return ChatMember{
		SteamID:     SteamID(byteorder.Letohll(raw[0:8])),
		Permissions: EChatPermission(byteorder.Letohl(raw[8:12])),
		Details:     byteorder.Letohl(raw[12:16]),
	}
}

// ChatMsg is MsgClientChatMsg followed by the message text.
type ChatMsg struct {
	ChatterID SteamID
	RoomID    SteamID
	EntryType EChatEntryType
	Text      string
}

var (
	_ encoding.BinaryMarshaler   = (*ChatMsg)(nil)
	_ encoding.BinaryUnmarshaler = (*ChatMsg)(nil)
)

func (m *ChatMsg) MarshalBinary() ([]byte, error) {
	data := make([]byte, 0, ChatMsgHeaderSize+len(m.Text)+1)
	data = byteorder.AppendLell(data, uint64(m.ChatterID))
	data = byteorder.AppendLell(data, uint64(m.RoomID))
	data = byteorder.AppendLel(data, uint32(m.EntryType))
	data = append(data, m.Text...)
	data = append(data, 0)
	return data, nil
}

// UnmarshalBinary keeps the text up to the first NUL. peers that don't
// terminate the text at all get the whole tail, the same way the official
// client displays it.
func (m *ChatMsg) UnmarshalBinary(data []byte) error {
	r := NewReader("chat msg", data)
	m.ChatterID = r.SteamID("chatter id")
	m.RoomID = r.SteamID("room id")
	m.EntryType = EChatEntryType(r.Uint32("entry type"))
	m.Text = r.Text()
	return r.Err()
}

// ChatEnter is MsgClientChatEnter followed by the member count, the room name
// and the members.
type ChatEnter struct {
	RoomID        SteamID
	FriendID      SteamID
	RoomType      EChatRoomType
	OwnerID       SteamID
	ClanID        SteamID
	Flags         uint8
	EnterResponse EChatRoomEnterResponse
	MemberCount   uint32
	RoomName      string
	// Members aliases the decoded body.
	Members ChatMembers
}

var _ encoding.BinaryUnmarshaler = (*ChatEnter)(nil)

func (m *ChatEnter) UnmarshalBinary(data []byte) error {
	r := NewReader("chat enter", data)
	m.RoomID = r.SteamID("room id")
	m.FriendID = r.SteamID("friend id")
	m.RoomType = EChatRoomType(r.Uint32("room type"))
	m.OwnerID = r.SteamID("owner id")
	m.ClanID = r.SteamID("clan id")
	m.Flags = r.Uint8("flags")
	m.EnterResponse = EChatRoomEnterResponse(r.Uint32("enter response"))
	m.MemberCount = r.Uint32("member count")
	m.RoomName = r.CString("room name")
	if err := r.Err(); err != nil {
		return err
	}

	n := uint64(m.MemberCount) * ChatMemberSize
	if n > uint64(r.Len()) {
		return Violationf("chat enter: %d members need %d bytes, have %d", m.MemberCount, n, r.Len())
	}
	// NOTE: anything after the last member is ignored.
	m.Members = ChatMembers(r.Bytes(int(n), "members"))
	return r.Err()
}

// AppendChatEnter encodes m. Members must hold exactly MemberCount records.
func AppendChatEnter(data []byte, m *ChatEnter) []byte {
	debug.Assert(m.Members.Len() == int(m.MemberCount), "member count mismatch")

	data = byteorder.AppendLell(data, uint64(m.RoomID))
	data = byteorder.AppendLell(data, uint64(m.FriendID))
	data = byteorder.AppendLel(data, uint32(m.RoomType))
	data = byteorder.AppendLell(data, uint64(m.OwnerID))
	data = byteorder.AppendLell(data, uint64(m.ClanID))
	data = append(data, m.Flags)
	data = byteorder.AppendLel(data, uint32(m.EnterResponse))
	data = byteorder.AppendLel(data, m.MemberCount)
	data = append(data, m.RoomName...)
	data = append(data, 0)
	data = append(data, m.Members...)
	return data
}

// AppendChatMember packs one member record the way ChatMembers expects it.
func AppendChatMember(data []byte, m ChatMember) []byte {
	data = byteorder.AppendLell(data, uint64(m.SteamID))
	data = byteorder.AppendLel(data, uint32(m.Permissions))
	data = byteorder.AppendLel(data, m.Details)
	return data
}

type ChatStateChange struct {
	ActedOn     SteamID
	StateChange EChatMemberStateChange
	ActedBy     SteamID
	Member      ChatMember
}

// ChatMemberInfo is MsgClientChatMemberInfo. only the state change variant is
// decoded, StateChange is nil for every other info type.
type ChatMemberInfo struct {
	RoomID      SteamID
	Type        EChatInfoType
	StateChange *ChatStateChange
}

var (
	_ encoding.BinaryMarshaler   = (*ChatMemberInfo)(nil)
	_ encoding.BinaryUnmarshaler = (*ChatMemberInfo)(nil)
)

func (m *ChatMemberInfo) MarshalBinary() ([]byte, error) {
	data := make([]byte, 0, ChatMemberInfoHeaderSize+ChatStateChangeSize)
	data = byteorder.AppendLell(data, uint64(m.RoomID))
	data = byteorder.AppendLel(data, uint32(m.Type))
	if sc := m.StateChange; sc != nil {
		data = byteorder.AppendLell(data, uint64(sc.ActedOn))
		data = byteorder.AppendLel(data, uint32(sc.StateChange))
		data = byteorder.AppendLell(data, uint64(sc.ActedBy))
		data = AppendChatMember(data, sc.Member)
	}
	return data, nil
}

func (m *ChatMemberInfo) UnmarshalBinary(data []byte) error {
	r := NewReader("chat member info", data)
	m.RoomID = r.SteamID("room id")
	m.Type = EChatInfoType(r.Uint32("info type"))
	m.StateChange = nil
	if err := r.Err(); err != nil {
		return err
	}
	if m.Type != EChatInfoTypeStateChange {
		return nil
	}

	sc := &ChatStateChange{}
	sc.ActedOn = r.SteamID("acted on")
	sc.StateChange = EChatMemberStateChange(r.Uint32("state change"))
	sc.ActedBy = r.SteamID("acted by")
	sc.Member.read(r)
	if err := r.Err(); err != nil {
		return err
	}
	m.StateChange = sc
	return nil
}

// JoinChat is MsgClientJoinChat.
type JoinChat struct {
	RoomID       SteamID
	VoiceSpeaker bool
}

var (
	_ encoding.BinaryMarshaler   = (*JoinChat)(nil)
	_ encoding.BinaryUnmarshaler = (*JoinChat)(nil)
)

func (m *JoinChat) MarshalBinary() ([]byte, error) {
	data := make([]byte, 0, JoinChatSize)
	data = byteorder.AppendLell(data, uint64(m.RoomID))
	if m.VoiceSpeaker {
		data = append(data, 1)
	} else {
		data = append(data, 0)
	}
	return data, nil
}

func (m *JoinChat) UnmarshalBinary(data []byte) error {
	r := NewReader("join chat", data)
	m.RoomID = r.SteamID("room id")
	m.VoiceSpeaker = r.Uint8("voice speaker") != 0
	return r.Err()
}
