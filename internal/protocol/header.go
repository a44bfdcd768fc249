package protocol

import (
	"encoding"

	"github.com/blukai/steamcm/internal/byteorder"
)

const (
	MsgHdrSize      = 20 // emsg (4) + target job id (8) + source job id (8)
	ExtendedHdrSize = 36 // emsg (4) + size (1) + version (2) + jobs (16) + canary (1) + steam id (8) + session (4)
	ProtoHdrSize    = 8  // emsg (4) + header length (4), followed by the protobuf header

	ExtendedHdrVersion = 2
	ExtendedHdrCanary  = 239

	// JobIDNone is how "no job" looks on the wire. in memory it is 0.
	JobIDNone = ^uint64(0)
)

// JobIDFromWire maps the wire "no job" value to 0.
func JobIDFromWire(id uint64) uint64 {
	if id == JobIDNone {
		return 0
	}
	return id
}

// JobIDToWire maps 0 to the wire "no job" value.
func JobIDToWire(id uint64) uint64 {
	if id == 0 {
		return JobIDNone
	}
	return id
}

// PeekEMsg reads the raw emsg at the start of a message and splits it into
// kind and protobuf flag.
func PeekEMsg(data []byte) (EMsg, bool, error) {
	r := NewReader("message", data)
	raw := r.Uint32("emsg")
	if err := r.Err(); err != nil {
		return EMsgInvalid, false, err
	}
	return EMsg(raw &^ ProtoMask), raw&ProtoMask != 0, nil
}

// MsgHdr is used by the channel encryption messages.
type MsgHdr struct {
	EMsg        EMsg
	TargetJobID uint64
	SourceJobID uint64
}

var (
	_ encoding.BinaryMarshaler   = (*MsgHdr)(nil)
	_ encoding.BinaryUnmarshaler = (*MsgHdr)(nil)
)

func (h *MsgHdr) MarshalBinary() ([]byte, error) {
	data := make([]byte, 0, MsgHdrSize)
	data = byteorder.AppendLel(data, uint32(h.EMsg))
	data = byteorder.AppendLell(data, JobIDToWire(h.TargetJobID))
	data = byteorder.AppendLell(data, JobIDToWire(h.SourceJobID))
	return data, nil
}

// UnmarshalBinary decodes the header from the start of data, trailing bytes
// (the body) are left alone.
func (h *MsgHdr) UnmarshalBinary(data []byte) error {
	r := NewReader("msg header", data)
	h.EMsg = EMsg(r.Uint32("emsg"))
	h.TargetJobID = JobIDFromWire(r.Uint64("target job id"))
	h.SourceJobID = JobIDFromWire(r.Uint64("source job id"))
	return r.Err()
}

// ExtendedHdr is used by non-protobuf client messages.
type ExtendedHdr struct {
	EMsg        EMsg
	TargetJobID uint64
	SourceJobID uint64
	SteamID     SteamID
	SessionID   int32
}

var (
	_ encoding.BinaryMarshaler   = (*ExtendedHdr)(nil)
	_ encoding.BinaryUnmarshaler = (*ExtendedHdr)(nil)
)

func (h *ExtendedHdr) MarshalBinary() ([]byte, error) {
	data := make([]byte, 0, ExtendedHdrSize)
	data = byteorder.AppendLel(data, uint32(h.EMsg))
	data = append(data, ExtendedHdrSize)
	data = append(data, byteorder.Htoles(ExtendedHdrVersion)...)
	data = byteorder.AppendLell(data, JobIDToWire(h.TargetJobID))
	data = byteorder.AppendLell(data, JobIDToWire(h.SourceJobID))
	data = append(data, ExtendedHdrCanary)
	data = byteorder.AppendLell(data, uint64(h.SteamID))
	data = byteorder.AppendLel(data, uint32(h.SessionID))
	return data, nil
}

func (h *ExtendedHdr) UnmarshalBinary(data []byte) error {
	r := NewReader("extended header", data)
	h.EMsg = EMsg(r.Uint32("emsg"))
	size := r.Uint8("header size")
	r.Uint16("header version")
	h.TargetJobID = JobIDFromWire(r.Uint64("target job id"))
	h.SourceJobID = JobIDFromWire(r.Uint64("source job id"))
	canary := r.Uint8("header canary")
	h.SteamID = r.SteamID("steam id")
	h.SessionID = int32(r.Uint32("session id"))
	if err := r.Err(); err != nil {
		return err
	}
	if size != ExtendedHdrSize {
		return Violationf("extended header: size %d (want %d)", size, ExtendedHdrSize)
	}
	if canary != ExtendedHdrCanary {
		return Violationf("extended header: canary %d (want %d)", canary, ExtendedHdrCanary)
	}
	return nil
}

// ProtoHdr is the fixed part of a protobuf-flagged message. Header holds the
// encoded CMsgProtoBufHeader, see protomsg.Header.
type ProtoHdr struct {
	EMsg   EMsg
	Header []byte
}

var (
	_ encoding.BinaryMarshaler   = (*ProtoHdr)(nil)
	_ encoding.BinaryUnmarshaler = (*ProtoHdr)(nil)
)

func (h *ProtoHdr) Size() int {
	return ProtoHdrSize + len(h.Header)
}

func (h *ProtoHdr) MarshalBinary() ([]byte, error) {
	data := make([]byte, 0, h.Size())
	data = byteorder.AppendLel(data, uint32(h.EMsg)|ProtoMask)
	data = byteorder.AppendLel(data, uint32(len(h.Header)))
	data = append(data, h.Header...)
	return data, nil
}

// UnmarshalBinary decodes the header from the start of data. Header aliases
// data.
func (h *ProtoHdr) UnmarshalBinary(data []byte) error {
	r := NewReader("protobuf header", data)
	h.EMsg = EMsg(r.Uint32("emsg") &^ ProtoMask)
	n := r.Uint32("header length")
	if r.Err() == nil && uint64(n) > uint64(r.Len()) {
		return Violationf("protobuf header: header length %d exceeds remaining %d", n, r.Len())
	}
	h.Header = r.Bytes(int(n), "header")
	return r.Err()
}
