package byteorder_test

import (
	"testing"

	"github.com/blukai/steamcm/internal/byteorder"
	"github.com/matryer/is"
)

func TestLittleEndian(t *testing.T) {
	is := is.New(t)

	is.Equal(byteorder.Htoles(0x0102), []byte{0x02, 0x01})
	is.Equal(byteorder.Htolel(0x01020304), []byte{0x04, 0x03, 0x02, 0x01})
	is.Equal(byteorder.Letohs([]byte{0x02, 0x01}), uint16(0x0102))
	is.Equal(byteorder.Letohl([]byte{0x04, 0x03, 0x02, 0x01}), uint32(0x01020304))

	buf := byteorder.AppendLel([]byte{0xff}, 0x01020304)
	buf = byteorder.AppendLell(buf, 0x0102030405060708)
	is.Equal(buf, []byte{0xff, 4, 3, 2, 1, 8, 7, 6, 5, 4, 3, 2, 1})
	is.Equal(byteorder.Letohll(buf[5:]), uint64(0x0102030405060708))
}
