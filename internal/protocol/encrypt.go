package protocol

import (
	"encoding"

	"github.com/blukai/steamcm/internal/byteorder"
)

const (
	ChannelEncryptRequestSize = 8
	ChannelEncryptResultSize  = 4

	ChannelEncryptProtocolVersion = 1
)

type ChannelEncryptRequest struct {
	ProtocolVersion uint32
	Universe        EUniverse
}

var (
	_ encoding.BinaryMarshaler   = (*ChannelEncryptRequest)(nil)
	_ encoding.BinaryUnmarshaler = (*ChannelEncryptRequest)(nil)
)

func (m *ChannelEncryptRequest) MarshalBinary() ([]byte, error) {
	data := make([]byte, 0, ChannelEncryptRequestSize)
	data = byteorder.AppendLel(data, m.ProtocolVersion)
	data = byteorder.AppendLel(data, uint32(m.Universe))
	return data, nil
}

func (m *ChannelEncryptRequest) UnmarshalBinary(data []byte) error {
	r := NewReader("channel encrypt request", data)
	m.ProtocolVersion = r.Uint32("protocol version")
	m.Universe = EUniverse(r.Uint32("universe"))
	return r.Err()
}

type ChannelEncryptResult struct {
	Result EResult
}

var (
	_ encoding.BinaryMarshaler   = (*ChannelEncryptResult)(nil)
	_ encoding.BinaryUnmarshaler = (*ChannelEncryptResult)(nil)
)

func (m *ChannelEncryptResult) MarshalBinary() ([]byte, error) {
	return byteorder.Htolel(uint32(m.Result)), nil
}

func (m *ChannelEncryptResult) UnmarshalBinary(data []byte) error {
	r := NewReader("channel encrypt result", data)
	m.Result = EResult(r.Uint32("result"))
	return r.Err()
}
