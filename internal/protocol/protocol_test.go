package protocol_test

import (
	"errors"
	"testing"

	"github.com/blukai/steamcm/internal/protocol"
	"github.com/google/go-cmp/cmp"
	"github.com/matryer/is"
)

var (
	roomID    = protocol.NewSteamID(protocol.EUniversePublic, protocol.EAccountTypeChat, 0, 1337)
	chatterID = protocol.NewSteamID(protocol.EUniversePublic, protocol.EAccountTypeIndividual, 1, 42)
)

func TestReaderFailsInsteadOfReadingPastEnd(t *testing.T) {
	is := is.New(t)

	r := protocol.NewReader("test", []byte{1, 2, 3})
	is.Equal(r.Uint16("a"), uint16(0x0201))
	is.Equal(r.Uint32("b"), uint32(0)) // only one byte left
	is.True(errors.Is(r.Err(), protocol.ErrProtocolViolation))

	// sticky
	is.Equal(r.Uint8("c"), uint8(0))
	is.Equal(r.Offset(), 2)
}

func TestReaderCString(t *testing.T) {
	is := is.New(t)

	r := protocol.NewReader("test", []byte("room\x00rest"))
	is.Equal(r.CString("name"), "room")
	is.NoErr(r.Err())
	is.Equal(string(r.Rest()), "rest")

	r = protocol.NewReader("test", []byte("room"))
	r.CString("name")
	is.True(errors.Is(r.Err(), protocol.ErrProtocolViolation))
}

func TestChatMsgText(t *testing.T) {
	testCases := []struct {
		name string
		tail string
		want string
	}{
		{"terminated with garbage", "hi\x00garbage", "hi"},
		{"not terminated", "hi", "hi"},
		{"empty", "", ""},
		{"only terminator", "\x00", ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			is := is.New(t)

			orig := protocol.ChatMsg{
				ChatterID: chatterID,
				RoomID:    roomID,
				EntryType: protocol.EChatEntryTypeChatMsg,
			}
			data, err := orig.MarshalBinary()
			is.NoErr(err)
			// replace the terminator MarshalBinary added with the raw tail
			data = append(data[:protocol.ChatMsgHeaderSize], tc.tail...)

			var decoded protocol.ChatMsg
			is.NoErr(decoded.UnmarshalBinary(data))
			is.Equal(decoded.Text, tc.want)
			is.Equal(decoded.RoomID, roomID)
			is.Equal(decoded.ChatterID, chatterID)
		})
	}
}

func TestChatMsgTooShort(t *testing.T) {
	is := is.New(t)

	var m protocol.ChatMsg
	err := m.UnmarshalBinary(make([]byte, protocol.ChatMsgHeaderSize-1))
	is.True(errors.Is(err, protocol.ErrProtocolViolation))
}

func newChatEnter(members ...protocol.ChatMember) *protocol.ChatEnter {
	var raw []byte
	for _, m := range members {
		raw = protocol.AppendChatMember(raw, m)
	}
	return &protocol.ChatEnter{
		RoomID:        roomID,
		FriendID:      chatterID,
		RoomType:      protocol.EChatRoomTypeMUC,
		EnterResponse: protocol.EChatRoomEnterResponseSuccess,
		MemberCount:   uint32(len(members)),
		RoomName:      "noita",
		Members:       raw,
	}
}

func TestChatEnter(t *testing.T) {
	is := is.New(t)

	members := []protocol.ChatMember{
		{SteamID: chatterID, Permissions: protocol.EChatPermissionTalk},
		{SteamID: chatterID + 1, Permissions: protocol.EChatPermissionKick | protocol.EChatPermissionBan, Details: 2},
	}
	orig := newChatEnter(members...)
	data := protocol.AppendChatEnter(nil, orig)
	is.Equal(len(data), protocol.ChatEnterHeaderSize+4+len("noita")+1+2*protocol.ChatMemberSize)

	var decoded protocol.ChatEnter
	is.NoErr(decoded.UnmarshalBinary(data))
	if diff := cmp.Diff(orig, &decoded); diff != "" {
		t.Fatalf("chat enter mismatch (-want +got):\n%s", diff)
	}
	is.Equal(decoded.Members.Len(), 2)
	is.Equal(decoded.Members.At(0), members[0])
	is.Equal(decoded.Members.At(1), members[1])
}

func TestChatEnterMalformed(t *testing.T) {
	t.Run("short header", func(t *testing.T) {
		is := is.New(t)
		var m protocol.ChatEnter
		err := m.UnmarshalBinary(make([]byte, protocol.ChatEnterHeaderSize))
		is.True(errors.Is(err, protocol.ErrProtocolViolation))
	})

	t.Run("name not terminated", func(t *testing.T) {
		is := is.New(t)
		data := protocol.AppendChatEnter(nil, newChatEnter())
		data = data[:len(data)-1]
		var m protocol.ChatEnter
		err := m.UnmarshalBinary(data)
		is.True(errors.Is(err, protocol.ErrProtocolViolation))
	})

	t.Run("members overrun", func(t *testing.T) {
		is := is.New(t)
		data := protocol.AppendChatEnter(nil, newChatEnter(protocol.ChatMember{SteamID: chatterID}))
		data = data[:len(data)-1]
		var m protocol.ChatEnter
		err := m.UnmarshalBinary(data)
		is.True(errors.Is(err, protocol.ErrProtocolViolation))
	})

	t.Run("huge member count", func(t *testing.T) {
		is := is.New(t)
		orig := newChatEnter()
		data := protocol.AppendChatEnter(nil, orig)
		// member count sits right after the fixed header
		copy(data[protocol.ChatEnterHeaderSize:], []byte{0xff, 0xff, 0xff, 0xff})
		var m protocol.ChatEnter
		err := m.UnmarshalBinary(data)
		is.True(errors.Is(err, protocol.ErrProtocolViolation))
	})
}

func TestChatMemberInfo(t *testing.T) {
	t.Run("state change", func(t *testing.T) {
		is := is.New(t)

		orig := protocol.ChatMemberInfo{
			RoomID: roomID,
			Type:   protocol.EChatInfoTypeStateChange,
			StateChange: &protocol.ChatStateChange{
				ActedOn:     chatterID,
				StateChange: protocol.EChatMemberStateChangeKicked,
				ActedBy:     chatterID + 7,
				Member:      protocol.ChatMember{SteamID: chatterID, Permissions: protocol.EChatPermissionTalk},
			},
		}
		data, err := orig.MarshalBinary()
		is.NoErr(err)
		is.Equal(len(data), protocol.ChatMemberInfoHeaderSize+protocol.ChatStateChangeSize)

		var decoded protocol.ChatMemberInfo
		is.NoErr(decoded.UnmarshalBinary(data))
		if diff := cmp.Diff(orig, decoded); diff != "" {
			t.Fatalf("member info mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("other info types are not decoded", func(t *testing.T) {
		is := is.New(t)

		orig := protocol.ChatMemberInfo{RoomID: roomID, Type: protocol.EChatInfoTypeInfoUpdate}
		data, err := orig.MarshalBinary()
		is.NoErr(err)

		var decoded protocol.ChatMemberInfo
		is.NoErr(decoded.UnmarshalBinary(data))
		is.Equal(decoded.Type, protocol.EChatInfoTypeInfoUpdate)
		is.True(decoded.StateChange == nil)
	})

	t.Run("truncated state change", func(t *testing.T) {
		is := is.New(t)

		orig := protocol.ChatMemberInfo{
			RoomID:      roomID,
			Type:        protocol.EChatInfoTypeStateChange,
			StateChange: &protocol.ChatStateChange{},
		}
		data, err := orig.MarshalBinary()
		is.NoErr(err)

		var decoded protocol.ChatMemberInfo
		err = decoded.UnmarshalBinary(data[:len(data)-3])
		is.True(errors.Is(err, protocol.ErrProtocolViolation))
	})
}

func TestHeaders(t *testing.T) {
	t.Run("msg header", func(t *testing.T) {
		is := is.New(t)

		orig := protocol.MsgHdr{EMsg: protocol.EMsgChannelEncryptResponse, SourceJobID: 9}
		data, err := orig.MarshalBinary()
		is.NoErr(err)
		is.Equal(len(data), protocol.MsgHdrSize)

		var decoded protocol.MsgHdr
		is.NoErr(decoded.UnmarshalBinary(data))
		is.Equal(decoded, orig)
	})

	t.Run("extended header", func(t *testing.T) {
		is := is.New(t)

		orig := protocol.ExtendedHdr{
			EMsg:        protocol.EMsgClientChatMsg,
			TargetJobID: 3,
			SteamID:     chatterID,
			SessionID:   -5,
		}
		data, err := orig.MarshalBinary()
		is.NoErr(err)
		is.Equal(len(data), protocol.ExtendedHdrSize)

		var decoded protocol.ExtendedHdr
		is.NoErr(decoded.UnmarshalBinary(data))
		is.Equal(decoded, orig)

		data[23] = 0 // canary
		err = decoded.UnmarshalBinary(data)
		is.True(errors.Is(err, protocol.ErrProtocolViolation))
	})

	t.Run("protobuf header", func(t *testing.T) {
		is := is.New(t)

		orig := protocol.ProtoHdr{EMsg: protocol.EMsgClientLogOnResponse, Header: []byte{1, 2, 3}}
		data, err := orig.MarshalBinary()
		is.NoErr(err)
		is.Equal(len(data), orig.Size())

		kind, proto, err := protocol.PeekEMsg(data)
		is.NoErr(err)
		is.Equal(kind, protocol.EMsgClientLogOnResponse)
		is.True(proto)

		var decoded protocol.ProtoHdr
		is.NoErr(decoded.UnmarshalBinary(data))
		is.Equal(decoded, orig)

		err = decoded.UnmarshalBinary(data[:len(data)-1])
		is.True(errors.Is(err, protocol.ErrProtocolViolation))
	})
}

func TestSteamIDString(t *testing.T) {
	is := is.New(t)

	id := protocol.NewSteamID(protocol.EUniversePublic, protocol.EAccountTypeIndividual, protocol.DesktopInstance, 46143802)
	is.Equal(uint64(id), uint64(76561198006409530))
	is.Equal(id.String(), "[U:1:46143802]")
	is.Equal(id.Instance(), protocol.DesktopInstance)
	is.True(id.IsValid())
	is.True(!protocol.SteamID(0).IsValid())
}
