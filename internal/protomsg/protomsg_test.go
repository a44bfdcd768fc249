package protomsg_test

import (
	"errors"
	"testing"

	"github.com/blukai/steamcm/internal/protocol"
	"github.com/blukai/steamcm/internal/protomsg"
	"github.com/google/go-cmp/cmp"
	"github.com/matryer/is"
	"google.golang.org/protobuf/encoding/protowire"
)

var steamID = protocol.NewSteamID(protocol.EUniversePublic, protocol.EAccountTypeIndividual, 1, 42)

func TestSizeMatchesAppend(t *testing.T) {
	testCases := []struct {
		name    string
		msg     protomsg.Message
		decoded protomsg.Message
	}{
		{
			"multi",
			&protomsg.Multi{SizeUnzipped: 300, MessageBody: []byte("payload")},
			&protomsg.Multi{},
		},
		{
			"header",
			&protomsg.Header{SteamID: steamID, ClientSessionID: -1, JobIDTarget: 77, EResult: protocol.EResultOK},
			&protomsg.Header{},
		},
		{
			"logon",
			&protomsg.Logon{
				ProtocolVersion: protomsg.ProtocolVersion,
				ClientLanguage:  "english",
				AccountName:     "user",
				Password:        "hunter2",
				SHASentryFile:   make([]byte, 20),
				AuthCode:        "ABCDE",
			},
			&protomsg.Logon{},
		},
		{
			"logon response",
			&protomsg.LogonResponse{EResult: protocol.EResultOK, OutOfGameHeartbeatSeconds: 9, CellID: 4},
			&protomsg.LogonResponse{},
		},
		{
			"update machine auth",
			&protomsg.UpdateMachineAuth{Filename: "ssfn", CubToWrite: 3, Bytes: []byte{1, 2, 3}},
			&protomsg.UpdateMachineAuth{},
		},
		{
			"update machine auth response",
			&protomsg.UpdateMachineAuthResponse{EResult: protocol.EResultOK, SHAFile: make([]byte, 20), CubWrote: 3},
			&protomsg.UpdateMachineAuthResponse{},
		},
		{
			"persona state",
			&protomsg.PersonaState{Friends: []protomsg.Friend{
				{FriendID: steamID, PersonaState: protocol.EPersonaStateOnline, PlayerName: "blukai", SteamIDSource: steamID + 1},
				{},
			}},
			&protomsg.PersonaState{},
		},
		{
			"change status",
			&protomsg.ChangeStatus{PersonaState: protocol.EPersonaStateBusy, PlayerName: "blukai"},
			&protomsg.ChangeStatus{},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			is := is.New(t)

			data := tc.msg.Append(nil)
			is.Equal(len(data), tc.msg.Size())

			is.NoErr(tc.decoded.Unmarshal(data))
			if diff := cmp.Diff(tc.msg, tc.decoded); diff != "" {
				t.Fatalf("decoded mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestUnknownFieldsAreSkipped(t *testing.T) {
	is := is.New(t)

	var data []byte
	data = protowire.AppendTag(data, 99, protowire.BytesType)
	data = protowire.AppendString(data, "whatever")
	data = protowire.AppendTag(data, 1, protowire.VarintType)
	data = protowire.AppendVarint(data, 1)
	// known number, wrong wire type
	data = protowire.AppendTag(data, 2, protowire.Fixed32Type)
	data = protowire.AppendFixed32(data, 5)

	var m protomsg.LogonResponse
	is.NoErr(m.Unmarshal(data))
	is.Equal(m.EResult, protocol.EResultOK)
	is.Equal(m.OutOfGameHeartbeatSeconds, int32(0))
}

func TestMalformedIsViolation(t *testing.T) {
	is := is.New(t)

	var data []byte
	data = protowire.AppendTag(data, 2, protowire.BytesType)
	data = protowire.AppendVarint(data, 10) // claims 10 bytes
	data = append(data, 1, 2)

	var m protomsg.Multi
	err := m.Unmarshal(data)
	is.True(errors.Is(err, protocol.ErrProtocolViolation))
}

func TestHeaderJobIDs(t *testing.T) {
	is := is.New(t)

	var data []byte
	data = protowire.AppendTag(data, 10, protowire.Fixed64Type)
	data = protowire.AppendFixed64(data, protocol.JobIDNone)

	var h protomsg.Header
	is.NoErr(h.Unmarshal(data))
	is.Equal(h.JobIDSource, uint64(0))
	is.Equal(h.JobIDTarget, uint64(0))
}
