package steamclient

import (
	"fmt"

	"github.com/blukai/steamcm/internal/protocol"
	"github.com/blukai/steamcm/internal/protomsg"
	"github.com/cespare/xxhash/v2"
)

// MaxMultiDepth is how deep Multi messages may nest. a Multi found inside
// MaxMultiDepth others is a protocol violation.
const MaxMultiDepth = 2

// HandleFrame is the entry point for one complete inbound message (header +
// body) read from the transport.
func (c *Client) HandleFrame(frame []byte) error {
	return c.handleFrame(frame, 0)
}

// handleFrame is HandleFrame for a message found depth Multis deep.
func (c *Client) handleFrame(frame []byte, depth int) error {
	emsg, proto, err := protocol.PeekEMsg(frame)
	if err != nil {
		return err
	}

	var (
		body  []byte
		jobID uint64
	)
	switch {
	case emsg.UsesMsgHdr():
		var h protocol.MsgHdr
		if err := h.UnmarshalBinary(frame); err != nil {
			return err
		}
		body, jobID = frame[protocol.MsgHdrSize:], h.SourceJobID
	case proto:
		var h protocol.ProtoHdr
		if err := h.UnmarshalBinary(frame); err != nil {
			return err
		}
		var ph protomsg.Header
		if err := ph.Unmarshal(h.Header); err != nil {
			return fmt.Errorf("could not unmarshal %s header: %w", emsg, err)
		}
		// NOTE(blukai): the first header that comes with a session (the
		// logon response) tells us who we are.
		if c.sessionID == 0 && len(h.Header) > 0 {
			c.sessionID = ph.ClientSessionID
			c.steamID = ph.SteamID
		}
		body, jobID = frame[h.Size():], ph.JobIDSource
	default:
		var h protocol.ExtendedHdr
		if err := h.UnmarshalBinary(frame); err != nil {
			return err
		}
		body, jobID = frame[protocol.ExtendedHdrSize:], h.SourceJobID
	}

	return c.handle(emsg, body, jobID, depth)
}

// Handle dispatches one message body. jobID is the job the sender wants
// answers correlated with, 0 for none. kinds without a handler are dropped.
func (c *Client) Handle(emsg protocol.EMsg, body []byte, jobID uint64) error {
	return c.handle(emsg, body, jobID, 0)
}

func (c *Client) handle(emsg protocol.EMsg, body []byte, jobID uint64, depth int) error {
	if e := c.logger.Debug(); e != nil {
		e.Stringer("emsg", emsg).
			Uint64("job", jobID).
			Int("size", len(body)).
			Int("depth", depth).
			Uint64("xxh", xxhash.Sum64(body)).
			Msg("recv")
	}

	var err error
	switch emsg {
	case protocol.EMsgChannelEncryptRequest:
		err = c.handleChannelEncryptRequest(body)
	case protocol.EMsgChannelEncryptResult:
		err = c.handleChannelEncryptResult(body)
	case protocol.EMsgMulti:
		err = c.handleMulti(body, depth)
	case protocol.EMsgClientLogOnResponse:
		err = c.handleClientLogOnResponse(body)
	case protocol.EMsgClientUpdateMachineAuth:
		err = c.handleClientUpdateMachineAuth(body, jobID)
	case protocol.EMsgClientPersonaState:
		err = c.handleClientPersonaState(body)
	case protocol.EMsgClientChatMsg:
		err = c.handleClientChatMsg(body)
	case protocol.EMsgClientChatEnter:
		err = c.handleClientChatEnter(body)
	case protocol.EMsgClientChatMemberInfo:
		err = c.handleClientChatMemberInfo(body)
	default:
		c.logger.Trace().
			Stringer("emsg", emsg).
			Msg("unhandled")
	}
	if err != nil {
		return fmt.Errorf("could not handle %s: %w", emsg, err)
	}
	return nil
}
