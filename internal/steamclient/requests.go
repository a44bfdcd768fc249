package steamclient

import (
	"fmt"

	"github.com/blukai/steamcm/internal/handshake"
	"github.com/blukai/steamcm/internal/protocol"
	"github.com/blukai/steamcm/internal/protomsg"
)

type Credentials struct {
	Username string
	Password string
	// SentryHash is the sha1 of the sentry file from an earlier OnSentry, if
	// there is one.
	SentryHash []byte
	// AuthCode is the steam guard code sent by email.
	AuthCode string
}

// LogOn sends the logon request. the channel must be encrypted already, i.e.
// call it from Events.OnHandshake or later.
func (c *Client) LogOn(creds Credentials) error {
	if state := c.EncryptionState(); state != handshake.StateEstablished {
		return fmt.Errorf("could not log on: channel is %s", state)
	}

	// the server fills in the account id in the logon response header
	c.steamID = protocol.NewSteamID(
		protocol.EUniversePublic,
		protocol.EAccountTypeIndividual,
		protocol.DesktopInstance,
		0,
	)

	msg := protomsg.Logon{
		ProtocolVersion:   protomsg.ProtocolVersion,
		ClientLanguage:    "english",
		AccountName:       creds.Username,
		Password:          creds.Password,
		EResultSentryFile: protocol.EResultFileNotFound,
		AuthCode:          creds.AuthCode,
	}
	if len(creds.SentryHash) > 0 {
		msg.EResultSentryFile = protocol.EResultOK
		msg.SHASentryFile = creds.SentryHash
	}

	return c.writeProto(protocol.EMsgClientLogon, &msg, 0)
}

func (c *Client) SetPersonaState(state protocol.EPersonaState, name string) error {
	return c.writeProto(protocol.EMsgClientChangeStatus, &protomsg.ChangeStatus{
		PersonaState: state,
		PlayerName:   name,
	}, 0)
}

func (c *Client) JoinChat(roomID protocol.SteamID) error {
	return c.writeBinary(protocol.EMsgClientJoinChat, &protocol.JoinChat{RoomID: roomID})
}

func (c *Client) SendChatMessage(roomID protocol.SteamID, text string) error {
	return c.writeBinary(protocol.EMsgClientChatMsg, &protocol.ChatMsg{
		ChatterID: c.steamID,
		RoomID:    roomID,
		EntryType: protocol.EChatEntryTypeChatMsg,
		Text:      text,
	})
}
