package steamclient

import (
	"crypto/sha1"
	"fmt"
	"time"

	"github.com/blukai/steamcm/internal/multi"
	"github.com/blukai/steamcm/internal/protocol"
	"github.com/blukai/steamcm/internal/protomsg"
	"github.com/hashicorp/go-multierror"
)

func (c *Client) handleChannelEncryptRequest(body []byte) error {
	// NOTE(blukai): nothing in the request is needed to answer it, it is
	// decoded for the log only.
	var req protocol.ChannelEncryptRequest
	if err := req.UnmarshalBinary(body); err == nil {
		c.logger.Debug().
			Uint32("protocol_version", req.ProtocolVersion).
			Uint32("universe", uint32(req.Universe)).
			Msg("channel encrypt request")
	}

	var key []byte
	err := c.writeMessage(
		protocol.EMsgChannelEncryptResponse,
		false,
		c.negotiator.ResponseSize(),
		func(buf []byte) (err error) {
			key, err = c.negotiator.Respond(buf)
			return err
		},
		0,
	)
	if err != nil {
		return err
	}

	// NOTE(blukai): the key is only ours once the response is out. a failed
	// send leaves the channel unencrypted.
	c.negotiator.Commit(key)
	return nil
}

func (c *Client) handleChannelEncryptResult(body []byte) error {
	var res protocol.ChannelEncryptResult
	if err := res.UnmarshalBinary(body); err != nil {
		return err
	}
	if err := c.negotiator.Confirm(res.Result); err != nil {
		return err
	}

	c.logger.Info().Msg("channel encrypted")

	if c.events.OnHandshake != nil {
		c.events.OnHandshake()
	}
	return nil
}

// handleMulti dispatches every sub-message in order. a batch that can't be
// unpacked is rejected as a whole before anything in it is dispatched; a
// sub-message that fails doesn't stop the ones after it, the failures are
// returned together.
func (c *Client) handleMulti(body []byte, depth int) error {
	if depth >= MaxMultiDepth {
		return protocol.Violationf("multi nested %d deep, max %d", depth+1, MaxMultiDepth)
	}

	subs, err := multi.Unpack(body)
	if err != nil {
		return err
	}

	var errs error
	for i, sub := range subs {
		if err := c.handleFrame(sub, depth+1); err != nil {
			errs = multierror.Append(errs, fmt.Errorf("sub message %d: %w", i, err))
		}
	}
	return errs
}

func (c *Client) handleClientLogOnResponse(body []byte) error {
	// decoded even with nobody listening, the heartbeat depends on it
	var resp protomsg.LogonResponse
	if err := resp.Unmarshal(body); err != nil {
		return err
	}

	c.logger.Info().
		Stringer("result", resp.EResult).
		Stringer("steam_id", c.steamID).
		Msg("logon response")

	if c.events.OnLogOn != nil {
		c.events.OnLogOn(resp.EResult, c.steamID)
	}

	if resp.EResult == protocol.EResultOK {
		return c.armHeartbeat(time.Duration(resp.OutOfGameHeartbeatSeconds) * time.Second)
	}
	return nil
}

func (c *Client) handleClientUpdateMachineAuth(body []byte, jobID uint64) error {
	if c.events.OnSentry == nil {
		return nil
	}

	var req protomsg.UpdateMachineAuth
	if err := req.Unmarshal(body); err != nil {
		return err
	}

	digest := sha1.Sum(req.Bytes)

	resp := protomsg.UpdateMachineAuthResponse{
		Filename: req.Filename,
		EResult:  protocol.EResultOK,
		FileSize: uint32(len(req.Bytes)),
		SHAFile:  digest[:],
		Offset:   req.Offset,
		CubWrote: req.CubToWrite,
	}
	if err := c.writeProto(protocol.EMsgClientUpdateMachineAuthResponse, &resp, jobID); err != nil {
		return err
	}

	c.events.OnSentry(digest)
	return nil
}

func (c *Client) handleClientPersonaState(body []byte) error {
	if c.events.OnUserInfo == nil {
		return nil
	}

	var state protomsg.PersonaState
	if err := state.Unmarshal(body); err != nil {
		return err
	}
	// NOTE(blukai): friends is a repeated field, but the servers never put
	// more than one friend into a message.
	if len(state.Friends) != 1 {
		return protocol.Violationf("persona state with %d friends (want 1)", len(state.Friends))
	}

	friend := &state.Friends[0]
	c.events.OnUserInfo(friend.FriendID, friend.SteamIDSource, friend.PlayerName)
	return nil
}

func (c *Client) handleClientChatMsg(body []byte) error {
	if c.events.OnChatMsg == nil {
		return nil
	}

	var msg protocol.ChatMsg
	if err := msg.UnmarshalBinary(body); err != nil {
		return err
	}

	c.events.OnChatMsg(msg.RoomID, msg.ChatterID, msg.Text)
	return nil
}

func (c *Client) handleClientChatEnter(body []byte) error {
	if c.events.OnChatEnter == nil {
		return nil
	}

	var msg protocol.ChatEnter
	if err := msg.UnmarshalBinary(body); err != nil {
		return err
	}

	c.events.OnChatEnter(msg.RoomID, msg.EnterResponse, msg.RoomName, msg.MemberCount, msg.Members)
	return nil
}

func (c *Client) handleClientChatMemberInfo(body []byte) error {
	if c.events.OnChatStateChange == nil {
		return nil
	}

	var msg protocol.ChatMemberInfo
	if err := msg.UnmarshalBinary(body); err != nil {
		return err
	}
	if msg.StateChange == nil {
		// TODO(blukai): info update and member limit change
		return nil
	}

	sc := msg.StateChange
	c.events.OnChatStateChange(msg.RoomID, sc.ActedBy, sc.ActedOn, sc.StateChange, sc.Member)
	return nil
}
