package steamclient_test

import (
	"crypto/rand"
	"crypto/rsa"
	"sync"
	"testing"
	"time"

	"github.com/blukai/steamcm/internal/protocol"
	"github.com/blukai/steamcm/internal/protomsg"
	"github.com/blukai/steamcm/internal/steamclient"
)

var (
	testKeyOnce sync.Once
	testKey     *rsa.PrivateKey
	testKeyErr  error
)

// privateKey stands in for the servers' key, the real one is not ours.
func privateKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()
	testKeyOnce.Do(func() {
		testKey, testKeyErr = rsa.GenerateKey(rand.Reader, 1024)
	})
	if testKeyErr != nil {
		t.Fatal(testKeyErr)
	}
	return testKey
}

type transport struct {
	frames [][]byte
	// err, when set, fails every send
	err error
}

func (tr *transport) SendFrame(frame []byte) error {
	if tr.err != nil {
		return tr.err
	}
	tr.frames = append(tr.frames, frame)
	return nil
}

type scheduler struct {
	interval  time.Duration
	task      func()
	cancelled int
}

func (s *scheduler) Every(interval time.Duration, task func()) func() {
	s.interval = interval
	s.task = task
	return func() {
		s.cancelled++
		s.task = nil
	}
}

type fixture struct {
	client    *steamclient.Client
	transport *transport
	scheduler *scheduler
}

func newFixture(t *testing.T, events steamclient.Events) *fixture {
	f := &fixture{
		transport: &transport{},
		scheduler: &scheduler{},
	}
	f.client = steamclient.NewClient(f.transport, steamclient.Config{
		Events:    events,
		PublicKey: &privateKey(t).PublicKey,
		Scheduler: f.scheduler,
	})
	return f
}

var (
	selfID   = protocol.NewSteamID(protocol.EUniversePublic, protocol.EAccountTypeIndividual, 1, 1000)
	friendID = protocol.NewSteamID(protocol.EUniversePublic, protocol.EAccountTypeIndividual, 1, 2000)
	roomID   = protocol.NewSteamID(protocol.EUniversePublic, protocol.EAccountTypeChat, 0, 3000)
)

func msgHdrFrame(emsg protocol.EMsg, body []byte) []byte {
	h := protocol.MsgHdr{EMsg: emsg}
	frame, _ := h.MarshalBinary()
	return append(frame, body...)
}

func extendedFrame(emsg protocol.EMsg, body []byte) []byte {
	h := protocol.ExtendedHdr{EMsg: emsg, SteamID: selfID, SessionID: 7}
	frame, _ := h.MarshalBinary()
	return append(frame, body...)
}

func protoFrame(emsg protocol.EMsg, header protomsg.Header, body protomsg.Message) []byte {
	h := protocol.ProtoHdr{EMsg: emsg, Header: header.Append(nil)}
	frame, _ := h.MarshalBinary()
	return body.Append(frame)
}

type outbound struct {
	emsg   protocol.EMsg
	proto  bool
	header protomsg.Header
	ext    protocol.ExtendedHdr
	msgHdr protocol.MsgHdr
	body   []byte
}

// parseOutbound splits a frame the client sent the same way the server would.
func parseOutbound(t *testing.T, frame []byte) outbound {
	t.Helper()

	emsg, proto, err := protocol.PeekEMsg(frame)
	if err != nil {
		t.Fatal(err)
	}
	out := outbound{emsg: emsg, proto: proto}
	switch {
	case emsg.UsesMsgHdr():
		if err := out.msgHdr.UnmarshalBinary(frame); err != nil {
			t.Fatal(err)
		}
		out.body = frame[protocol.MsgHdrSize:]
	case proto:
		var h protocol.ProtoHdr
		if err := h.UnmarshalBinary(frame); err != nil {
			t.Fatal(err)
		}
		if err := out.header.Unmarshal(h.Header); err != nil {
			t.Fatal(err)
		}
		out.body = frame[h.Size():]
	default:
		if err := out.ext.UnmarshalBinary(frame); err != nil {
			t.Fatal(err)
		}
		out.body = frame[protocol.ExtendedHdrSize:]
	}
	return out
}
