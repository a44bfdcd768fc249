package steamclient

import "github.com/blukai/steamcm/internal/protocol"

// Events are the callbacks a Client notifies. every field is optional, a nil
// field means nobody listens and the matching message is decoded only as far
// as needed (usually not at all) and dropped.
//
// callbacks run on the goroutine that dispatches the message (see Client.Run)
// and must not block it for long.
type Events struct {
	// OnHandshake is called once the channel encryption is confirmed.
	OnHandshake func()

	// OnLogOn receives the logon result and the steam id assigned to the
	// session.
	OnLogOn func(result protocol.EResult, steamID protocol.SteamID)

	// OnSentry receives the sha1 of a sentry file pushed by the server, after
	// its receipt has been acknowledged.
	OnSentry func(digest [20]byte)

	OnUserInfo func(friendID, sourceID protocol.SteamID, name string)

	OnChatMsg func(roomID, chatterID protocol.SteamID, text string)

	// OnChatEnter receives the members as they arrived on the wire. the view
	// is only valid for the duration of the call.
	OnChatEnter func(
		roomID protocol.SteamID,
		response protocol.EChatRoomEnterResponse,
		name string,
		memberCount uint32,
		members protocol.ChatMembers,
	)

	OnChatStateChange func(
		roomID, actedBy, actedOn protocol.SteamID,
		change protocol.EChatMemberStateChange,
		member protocol.ChatMember,
	)
}
