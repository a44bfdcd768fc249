package byteorder

import (
	"encoding/binary"
)

// NOTE(blukai): everything steam puts on the wire is little-endian, the names
// are kept close to the ones from the network byte order family so that they
// read the same at call sites.
//
// h  = host
// le = little-endian
// s  = short     = 16 bit
// l  = long      = 32 bit
// ll = long long = 64 bit

func Htoles(val uint16) []byte {
	buf := make([]byte, 2)
	binary.LittleEndian.PutUint16(buf, val)
	return buf
}

func Htolel(val uint32) []byte {
	buf := make([]byte, 4)
	binary.LittleEndian.PutUint32(buf, val)
	return buf
}

func Letohs(buf []byte) uint16 {
	return binary.LittleEndian.Uint16(buf)
}

func Letohl(buf []byte) uint32 {
	return binary.LittleEndian.Uint32(buf)
}

func Letohll(buf []byte) uint64 {
	return binary.LittleEndian.Uint64(buf)
}

// AppendLel appends val to buf, it is the allocation-free variant of Htolel.
func AppendLel(buf []byte, val uint32) []byte {
	return binary.LittleEndian.AppendUint32(buf, val)
}

func AppendLell(buf []byte, val uint64) []byte {
	return binary.LittleEndian.AppendUint64(buf, val)
}
