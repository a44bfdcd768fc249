package steamclient

import (
	"encoding"
	"fmt"

	"github.com/blukai/steamcm/internal/debug"
	"github.com/blukai/steamcm/internal/protocol"
	"github.com/blukai/steamcm/internal/protomsg"
	"github.com/cespare/xxhash/v2"
)

// writeMessage frames one outbound message and hands it to the transport.
//
// fill gets a slice of exactly size bytes with no spare capacity, so a fill
// that appends past it can't reach into anything else; fills that encode by
// appending must check that they stayed in place (see writeProto).
//
// proto selects the protobuf header. the channel encryption messages always
// go with the bare header. jobID, when not 0, is the job this message answers.
func (c *Client) writeMessage(
	emsg protocol.EMsg,
	proto bool,
	size int,
	fill func(body []byte) error,
	jobID uint64,
) error {
	debug.Assertf(size >= 0, "negative body size %d", size)

	var (
		header []byte
		err    error
	)
	switch {
	case emsg.UsesMsgHdr():
		h := protocol.MsgHdr{EMsg: emsg, TargetJobID: jobID}
		header, err = h.MarshalBinary()
	case proto:
		ph := protomsg.Header{
			SteamID:         c.steamID,
			ClientSessionID: c.sessionID,
			JobIDTarget:     jobID,
		}
		h := protocol.ProtoHdr{EMsg: emsg, Header: ph.Append(nil)}
		header, err = h.MarshalBinary()
	default:
		h := protocol.ExtendedHdr{
			EMsg:        emsg,
			TargetJobID: jobID,
			SteamID:     c.steamID,
			SessionID:   c.sessionID,
		}
		header, err = h.MarshalBinary()
	}
	debug.Assert(err == nil)

	n := len(header)
	frame := make([]byte, n+size)
	copy(frame, header)
	if err := fill(frame[n : n+size : n+size]); err != nil {
		return fmt.Errorf("could not fill %s body: %w", emsg, err)
	}

	if e := c.logger.Debug(); e != nil {
		e.Stringer("emsg", emsg).
			Bool("proto", proto).
			Uint64("job", jobID).
			Int("size", size).
			Uint64("xxh", xxhash.Sum64(frame[n:])).
			Msg("send")
	}

	if err := c.transport.SendFrame(frame); err != nil {
		return fmt.Errorf("could not send %s: %w", emsg, err)
	}
	return nil
}

func (c *Client) writeProto(emsg protocol.EMsg, msg protomsg.Message, jobID uint64) error {
	return c.writeMessage(emsg, true, msg.Size(), func(body []byte) error {
		out := msg.Append(body[:0])
		if len(out) != len(body) {
			return fmt.Errorf("encoded %d bytes into a %d byte body", len(out), len(body))
		}
		return nil
	}, jobID)
}

func (c *Client) writeBinary(emsg protocol.EMsg, msg encoding.BinaryMarshaler) error {
	data, err := msg.MarshalBinary()
	if err != nil {
		return fmt.Errorf("could not marshal %s: %w", emsg, err)
	}
	return c.writeMessage(emsg, false, len(data), func(body []byte) error {
		copy(body, data)
		return nil
	}, 0)
}
