// Package protomsg encodes and decodes the protobuf bodies of the CM
// protocol. only the fields the client uses are modelled, everything else is
// skipped on decode.
package protomsg

import (
	"math"

	"github.com/blukai/steamcm/internal/protocol"
	"google.golang.org/protobuf/encoding/protowire"
)

// Message is implemented by every body in this package.
type Message interface {
	// Size returns the exact length of Append's output.
	Size() int
	Append(b []byte) []byte
	Unmarshal(b []byte) error
}

// skip is returned by field funcs for fields they don't know (or that arrive
// with an unexpected wire type).
const skip = math.MinInt32

type fieldFunc func(num protowire.Number, typ protowire.Type, b []byte) int

// walk calls fn for every field in b. fn returns the number of bytes it
// consumed, a negative protowire error code, or skip.
func walk(what string, b []byte, fn fieldFunc) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return protocol.Violationf("%s: %v", what, protowire.ParseError(n))
		}
		b = b[n:]

		m := fn(num, typ, b)
		if m == skip {
			m = protowire.ConsumeFieldValue(num, typ, b)
		}
		if m < 0 {
			return protocol.Violationf("%s: field %d: %v", what, num, protowire.ParseError(m))
		}
		b = b[m:]
	}
	return nil
}

func consumeVarint(typ protowire.Type, b []byte, dst *uint64) int {
	if typ != protowire.VarintType {
		return skip
	}
	v, n := protowire.ConsumeVarint(b)
	if n >= 0 {
		*dst = v
	}
	return n
}

func consumeUint32(typ protowire.Type, b []byte, dst *uint32) int {
	var v uint64
	n := consumeVarint(typ, b, &v)
	if n >= 0 {
		*dst = uint32(v)
	}
	return n
}

func consumeInt32(typ protowire.Type, b []byte, dst *int32) int {
	var v uint64
	n := consumeVarint(typ, b, &v)
	if n >= 0 {
		*dst = int32(v)
	}
	return n
}

func consumeFixed64(typ protowire.Type, b []byte, dst *uint64) int {
	if typ != protowire.Fixed64Type {
		return skip
	}
	v, n := protowire.ConsumeFixed64(b)
	if n >= 0 {
		*dst = v
	}
	return n
}

func consumeBytes(typ protowire.Type, b []byte, dst *[]byte) int {
	if typ != protowire.BytesType {
		return skip
	}
	v, n := protowire.ConsumeBytes(b)
	if n >= 0 {
		*dst = v
	}
	return n
}

func consumeString(typ protowire.Type, b []byte, dst *string) int {
	var v []byte
	n := consumeBytes(typ, b, &v)
	if n >= 0 {
		*dst = string(v)
	}
	return n
}

// NOTE(blukai): fields are only written when they are set, that matches the
// defaults of every field modelled here except the job ids, which are mapped
// to 0 on decode (see protocol.JobIDFromWire).

func appendVarint(b []byte, num protowire.Number, v uint64) []byte {
	if v == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, v)
}

func sizeVarint(num protowire.Number, v uint64) int {
	if v == 0 {
		return 0
	}
	return protowire.SizeTag(num) + protowire.SizeVarint(v)
}

// int32 fields are sign extended to 64 bits, same as the reference encoder.
func int32Varint(v int32) uint64 {
	return uint64(int64(v))
}

func appendFixed64(b []byte, num protowire.Number, v uint64) []byte {
	if v == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.Fixed64Type)
	return protowire.AppendFixed64(b, v)
}

func sizeFixed64(num protowire.Number, v uint64) int {
	if v == 0 {
		return 0
	}
	return protowire.SizeTag(num) + protowire.SizeFixed64()
}

func appendBytes(b []byte, num protowire.Number, v []byte) []byte {
	if len(v) == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, v)
}

func appendString(b []byte, num protowire.Number, v string) []byte {
	if len(v) == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, v)
}

func sizeBytes(num protowire.Number, n int) int {
	if n == 0 {
		return 0
	}
	return protowire.SizeTag(num) + protowire.SizeBytes(n)
}
