// Package cmserver is a small stand-in for a CM server. it speaks enough of the
// protocol to drive a client through the handshake, logon, heartbeats and chat
// rooms over tcp, and is meant for tests.
package cmserver

import (
	"context"
	"crypto/rsa"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"

	"github.com/blukai/steamcm/internal/cmconn"
	"github.com/blukai/steamcm/internal/protocol"
	"github.com/blukai/steamcm/internal/protomsg"
	"github.com/cespare/xxhash/v2"
	"github.com/phuslu/log"
)

type connKey uint64

func makeConnKey(addr net.Addr) connKey {
	return connKey(xxhash.Sum64String(addr.String()))
}

type Account struct {
	Username   string
	Password   string
	AccountID  uint32
	PlayerName string
}

type Config struct {
	// PrivateKey decrypts session keys. clients must encrypt with its public
	// half.
	PrivateKey *rsa.PrivateKey
	Accounts   []Account

	// HeartbeatSeconds is announced in logon responses. 0 selects 9.
	HeartbeatSeconds int32
	// Compress zips the multi batch sent on logon.
	Compress bool
	// Sentry, when set, is pushed to every client after logon.
	Sentry []byte

	Logger *log.Logger
}

type session struct {
	key  connKey
	conn *cmconn.Conn

	sessionKey []byte
	steamID    protocol.SteamID
	sessionID  int32
	name       string
	state      protocol.EPersonaState

	rooms map[protocol.SteamID]struct{}
}

func (s *session) loggedOn() bool {
	return s.sessionID != 0
}

// Stats is what the server observed so far.
type Stats struct {
	Sessions   int
	Heartbeats int
	// SentryHashes are the digests clients acknowledged sentries with.
	SentryHashes [][]byte
}

type Server struct {
	listener net.Listener

	logger *log.Logger
	config Config

	// mu guards everything below and the session fields other connections
	// read (steam id, session id, name, state, rooms).
	mu            sync.Mutex
	sessions      map[connKey]*session
	nextSessionID int32
	nextJobID     uint64
	stats         Stats
}

func NewServer(network, address string, config Config) (*Server, error) {
	if config.PrivateKey == nil {
		return nil, errors.New("private key is required")
	}
	if config.HeartbeatSeconds == 0 {
		config.HeartbeatSeconds = 9
	}

	listener, err := net.Listen(network, address)
	if err != nil {
		return nil, fmt.Errorf("could not listen %s: %w", network, err)
	}

	logger := config.Logger
	// if logger is nil (which might be true in tests) => use default, but
	// silenced logger
	if logger == nil {
		tmp := log.DefaultLogger
		logger = &tmp
		logger.Writer = &log.IOWriter{Writer: io.Discard}
	}

	return &Server{
		listener: listener,

		logger: logger,
		config: config,

		sessions: make(map[connKey]*session),
	}, nil
}

// Addr can be useful to retreive server's address when Server was constructed
// with ":0".
func (s *Server) Addr() net.Addr {
	return s.listener.Addr()
}

func (s *Server) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := s.stats
	stats.Sessions = len(s.sessions)
	stats.SentryHashes = append([][]byte(nil), s.stats.SentryHashes...)
	return stats
}

// Run accepts connections until ctx is done. every connection is served on its
// own goroutine and closed before Run returns.
func (s *Server) Run(ctx context.Context) error {
	parent := ctx
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	wg := &sync.WaitGroup{}

	wg.Add(1)
	go func() {
		defer wg.Done()
		<-ctx.Done()
		s.listener.Close()
	}()

	var err error
	for {
		var conn net.Conn
		conn, err = s.listener.Accept()
		if err != nil {
			break
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			s.serve(ctx, conn)
		}()
	}

	// takes down the connections when accept failed on its own
	cancel()
	wg.Wait()
	if parent.Err() != nil {
		return nil
	}
	return fmt.Errorf("could not accept: %w", err)
}

func (s *Server) serve(ctx context.Context, nc net.Conn) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sess := &session{
		key:   makeConnKey(nc.RemoteAddr()),
		conn:  cmconn.NewConn(nc, s.logger),
		rooms: make(map[protocol.SteamID]struct{}),
	}

	s.mu.Lock()
	s.sessions[sess.key] = sess
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		delete(s.sessions, sess.key)
		s.mu.Unlock()
	}()

	s.logger.Debug().
		Str("remote", nc.RemoteAddr().String()).
		Msg("accepted")

	runErr := make(chan error, 1)
	go func() {
		runErr <- sess.conn.Run(ctx)
	}()

	if err := s.sendEncryptRequest(sess); err != nil {
		s.logger.Error().
			Msgf("could not request encryption: %v", err)
		cancel()
	}

	for frame := range sess.conn.Frames() {
		if err := s.handleFrame(sess, frame); err != nil {
			s.logger.Error().
				Str("remote", nc.RemoteAddr().String()).
				Msgf("dropping connection: %v", err)
			cancel()
		}
	}

	if err := <-runErr; err != nil {
		s.logger.Error().
			Msgf("connection failed: %v", err)
	}
}

func (s *Server) handleFrame(sess *session, frame []byte) error {
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
		body, jobID = frame[protocol.MsgHdrSize:], h.TargetJobID
	case proto:
		var h protocol.ProtoHdr
		if err := h.UnmarshalBinary(frame); err != nil {
			return err
		}
		var ph protomsg.Header
		if err := ph.Unmarshal(h.Header); err != nil {
			return err
		}
		body, jobID = frame[h.Size():], ph.JobIDTarget
	default:
		var h protocol.ExtendedHdr
		if err := h.UnmarshalBinary(frame); err != nil {
			return err
		}
		body, jobID = frame[protocol.ExtendedHdrSize:], h.TargetJobID
	}

	if e := s.logger.Debug(); e != nil {
		e.Stringer("emsg", emsg).
			Uint64("job", jobID).
			Int("size", len(body)).
			Uint64("xxh", xxhash.Sum64(body)).
			Msg("recv")
	}

	switch emsg {
	case protocol.EMsgChannelEncryptResponse:
		err = s.handleChannelEncryptResponse(sess, body)
	case protocol.EMsgClientLogon:
		err = s.handleClientLogon(sess, body)
	case protocol.EMsgClientHeartBeat:
		s.mu.Lock()
		s.stats.Heartbeats++
		s.mu.Unlock()
	case protocol.EMsgClientUpdateMachineAuthResponse:
		err = s.handleClientUpdateMachineAuthResponse(body)
	case protocol.EMsgClientChangeStatus:
		err = s.handleClientChangeStatus(sess, body)
	case protocol.EMsgClientJoinChat:
		err = s.handleClientJoinChat(sess, body)
	case protocol.EMsgClientChatMsg:
		err = s.handleClientChatMsg(sess, body)
	case protocol.EMsgClientLogOff:
		return errors.New("logged off")
	default:
		s.logger.Trace().
			Stringer("emsg", emsg).
			Msg("unhandled")
	}
	if err != nil {
		return fmt.Errorf("could not handle %s: %w", emsg, err)
	}
	return nil
}
