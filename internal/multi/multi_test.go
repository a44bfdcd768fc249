package multi_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/blukai/steamcm/internal/multi"
	"github.com/blukai/steamcm/internal/protocol"
	"github.com/blukai/steamcm/internal/protomsg"
	"github.com/klauspost/compress/zip"
	"github.com/matryer/is"
)

func TestSplitJoin(t *testing.T) {
	testCases := [][][]byte{
		nil,
		{[]byte("one")},
		{[]byte("one"), {}, []byte("three"), bytes.Repeat([]byte{0xAB}, 1000)},
	}

	for _, subs := range testCases {
		is := is.New(t)

		payload := multi.Join(subs)
		got, err := multi.Split(payload)
		is.NoErr(err)
		is.Equal(len(got), len(subs))
		total := 0
		for i := range subs {
			is.True(bytes.Equal(got[i], subs[i]))
			total += 4 + len(got[i])
		}
		is.Equal(total, len(payload))
	}
}

func TestSplitOverrun(t *testing.T) {
	is := is.New(t)

	payload := multi.Join([][]byte{[]byte("ok"), []byte("truncated")})

	_, err := multi.Split(payload[:len(payload)-1])
	is.True(errors.Is(err, protocol.ErrProtocolViolation))

	// a length prefix that is itself cut short
	_, err = multi.Split(append(multi.Join([][]byte{[]byte("ok")}), 1, 0))
	is.True(errors.Is(err, protocol.ErrProtocolViolation))

	// a length that would wrap around an int on 32-bit platforms
	_, err = multi.Split([]byte{0xff, 0xff, 0xff, 0xff, 1})
	is.True(errors.Is(err, protocol.ErrProtocolViolation))
}

func TestUnpack(t *testing.T) {
	subs := [][]byte{[]byte("first"), []byte("second"), []byte("third")}

	for _, compress := range []bool{false, true} {
		is := is.New(t)

		body, err := multi.Pack(subs, compress)
		is.NoErr(err)

		var m protomsg.Multi
		is.NoErr(m.Unmarshal(body))
		is.Equal(m.SizeUnzipped != 0, compress)

		got, err := multi.Unpack(body)
		is.NoErr(err)
		is.Equal(len(got), len(subs))
		for i := range subs {
			is.True(bytes.Equal(got[i], subs[i]))
		}
	}
}

type entry struct {
	name string
	data []byte
}

func archive(t *testing.T, entries ...entry) []byte {
	t.Helper()

	buf := &bytes.Buffer{}
	zw := zip.NewWriter(buf)
	for _, e := range entries {
		w, err := zw.Create(e.name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := w.Write(e.data); err != nil {
			t.Fatal(err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestUnpackMalformedArchive(t *testing.T) {
	payload := multi.Join([][]byte{[]byte("hello")})

	testCases := []struct {
		name string
		body protomsg.Multi
	}{
		{
			"wrong entry name",
			protomsg.Multi{
				SizeUnzipped: uint32(len(payload)),
				MessageBody:  archive(t, entry{"y", payload}),
			},
		},
		{
			"extra entry",
			protomsg.Multi{
				SizeUnzipped: uint32(len(payload)),
				MessageBody:  archive(t, entry{"z", payload}, entry{"z2", payload}),
			},
		},
		{
			"size mismatch",
			protomsg.Multi{
				SizeUnzipped: uint32(len(payload)) + 1,
				MessageBody:  archive(t, entry{"z", payload}),
			},
		},
		{
			"not an archive",
			protomsg.Multi{
				SizeUnzipped: uint32(len(payload)),
				MessageBody:  payload,
			},
		},
		{
			"too big",
			protomsg.Multi{
				SizeUnzipped: multi.MaxSize + 1,
				MessageBody:  archive(t, entry{"z", payload}),
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			is := is.New(t)

			_, err := multi.Unpack(tc.body.Append(nil))
			is.True(errors.Is(err, protocol.ErrProtocolViolation))
		})
	}
}
