package cmserver

import (
	"crypto/rsa"
	"crypto/sha1"
	"fmt"

	"github.com/blukai/steamcm/internal/byteorder"
	"github.com/blukai/steamcm/internal/debug"
	"github.com/blukai/steamcm/internal/handshake"
	"github.com/blukai/steamcm/internal/multi"
	"github.com/blukai/steamcm/internal/protocol"
	"github.com/blukai/steamcm/internal/protomsg"
	"github.com/hashicorp/go-multierror"
)

func msgHdrFrame(emsg protocol.EMsg, body []byte) []byte {
	h := protocol.MsgHdr{EMsg: emsg}
	frame, err := h.MarshalBinary()
	debug.Assert(err == nil)
	return append(frame, body...)
}

// protoFrame must be called with s.mu held.
func (s *Server) protoFrame(sess *session, emsg protocol.EMsg, body []byte, jobID uint64) []byte {
	ph := protomsg.Header{
		SteamID:         sess.steamID,
		ClientSessionID: sess.sessionID,
		JobIDSource:     jobID,
	}
	h := protocol.ProtoHdr{EMsg: emsg, Header: ph.Append(nil)}
	frame, err := h.MarshalBinary()
	debug.Assert(err == nil)
	return append(frame, body...)
}

// extendedFrame must be called with s.mu held.
func (s *Server) extendedFrame(sess *session, emsg protocol.EMsg, body []byte) []byte {
	h := protocol.ExtendedHdr{
		EMsg:      emsg,
		SteamID:   sess.steamID,
		SessionID: sess.sessionID,
	}
	frame, err := h.MarshalBinary()
	debug.Assert(err == nil)
	return append(frame, body...)
}

func (s *Server) sendEncryptRequest(sess *session) error {
	req := protocol.ChannelEncryptRequest{
		ProtocolVersion: protocol.ChannelEncryptProtocolVersion,
		Universe:        protocol.EUniversePublic,
	}
	body, err := req.MarshalBinary()
	debug.Assert(err == nil)
	return sess.conn.SendFrame(msgHdrFrame(protocol.EMsgChannelEncryptRequest, body))
}

func (s *Server) handleChannelEncryptResponse(sess *session, body []byte) error {
	if sess.sessionKey != nil {
		return protocol.Violationf("channel is encrypted already")
	}

	result := protocol.EResultOK
	key, err := s.decryptSessionKey(body)
	if err != nil {
		s.logger.Error().
			Msgf("rejecting session key: %v", err)
		result = protocol.EResultFail
	}

	res := protocol.ChannelEncryptResult{Result: result}
	resBody, err := res.MarshalBinary()
	debug.Assert(err == nil)
	if err := sess.conn.SendFrame(msgHdrFrame(protocol.EMsgChannelEncryptResult, resBody)); err != nil {
		return err
	}

	if result != protocol.EResultOK {
		return protocol.Violationf("bad session key")
	}
	sess.sessionKey = key
	return nil
}

func (s *Server) decryptSessionKey(body []byte) ([]byte, error) {
	keySize := s.config.PrivateKey.PublicKey.Size()
	if len(body) != keySize+8 {
		return nil, fmt.Errorf("response is %d bytes, want %d", len(body), keySize+8)
	}

	ciphertext := body[:keySize]
	if crc := byteorder.Letohl(body[keySize:]); crc != handshake.Checksum(ciphertext) {
		return nil, fmt.Errorf("crc mismatch (got %#x; want %#x)", crc, handshake.Checksum(ciphertext))
	}

	key, err := rsa.DecryptOAEP(sha1.New(), nil, s.config.PrivateKey, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("could not decrypt: %w", err)
	}
	if len(key) != handshake.SessionKeySize {
		return nil, fmt.Errorf("session key is %d bytes, want %d", len(key), handshake.SessionKeySize)
	}
	return key, nil
}

func (s *Server) findAccount(username string) (Account, bool) {
	for _, account := range s.config.Accounts {
		if account.Username == username {
			return account, true
		}
	}
	return Account{}, false
}

func (s *Server) handleClientLogon(sess *session, body []byte) error {
	if sess.sessionKey == nil {
		return protocol.Violationf("logon on an unencrypted channel")
	}

	var logon protomsg.Logon
	if err := logon.Unmarshal(body); err != nil {
		return err
	}

	account, ok := s.findAccount(logon.AccountName)
	if !ok || account.Password != logon.Password {
		resp := protomsg.LogonResponse{EResult: protocol.EResultInvalidPassword}
		s.mu.Lock()
		frame := s.protoFrame(sess, protocol.EMsgClientLogOnResponse, resp.Append(nil), 0)
		s.mu.Unlock()
		return sess.conn.SendFrame(frame)
	}

	s.mu.Lock()
	s.nextSessionID++
	sess.sessionID = s.nextSessionID
	sess.steamID = protocol.NewSteamID(
		protocol.EUniversePublic,
		protocol.EAccountTypeIndividual,
		protocol.DesktopInstance,
		account.AccountID,
	)
	sess.name = account.PlayerName

	resp := protomsg.LogonResponse{
		EResult:                   protocol.EResultOK,
		OutOfGameHeartbeatSeconds: s.config.HeartbeatSeconds,
		InGameHeartbeatSeconds:    s.config.HeartbeatSeconds,
	}
	persona := protomsg.PersonaState{
		Friends: []protomsg.Friend{s.friend(sess)},
	}
	subs := [][]byte{
		s.protoFrame(sess, protocol.EMsgClientLogOnResponse, resp.Append(nil), 0),
		s.protoFrame(sess, protocol.EMsgClientPersonaState, persona.Append(nil), 0),
	}
	s.mu.Unlock()

	// NOTE(blukai): the real servers batch the logon response with whatever
	// else they have for the session.
	batch, err := multi.Pack(subs, s.config.Compress)
	if err != nil {
		return fmt.Errorf("could not pack multi: %w", err)
	}

	s.mu.Lock()
	frame := s.protoFrame(sess, protocol.EMsgMulti, batch, 0)
	s.mu.Unlock()
	if err := sess.conn.SendFrame(frame); err != nil {
		return err
	}

	if s.config.Sentry != nil {
		return s.sendSentry(sess)
	}
	return nil
}

// friend must be called with s.mu held.
func (s *Server) friend(sess *session) protomsg.Friend {
	return protomsg.Friend{
		FriendID:      sess.steamID,
		PersonaState:  sess.state,
		PlayerName:    sess.name,
		SteamIDSource: sess.steamID,
	}
}

func (s *Server) sendSentry(sess *session) error {
	req := protomsg.UpdateMachineAuth{
		Filename:   "sentry",
		CubToWrite: uint32(len(s.config.Sentry)),
		Bytes:      s.config.Sentry,
	}

	s.mu.Lock()
	s.nextJobID++
	frame := s.protoFrame(sess, protocol.EMsgClientUpdateMachineAuth, req.Append(nil), s.nextJobID)
	s.mu.Unlock()

	return sess.conn.SendFrame(frame)
}

func (s *Server) handleClientUpdateMachineAuthResponse(body []byte) error {
	var resp protomsg.UpdateMachineAuthResponse
	if err := resp.Unmarshal(body); err != nil {
		return err
	}

	s.mu.Lock()
	s.stats.SentryHashes = append(s.stats.SentryHashes, resp.SHAFile)
	s.mu.Unlock()
	return nil
}

func (s *Server) handleClientChangeStatus(sess *session, body []byte) error {
	var status protomsg.ChangeStatus
	if err := status.Unmarshal(body); err != nil {
		return err
	}

	s.mu.Lock()
	if !sess.loggedOn() {
		s.mu.Unlock()
		return protocol.Violationf("change status before logon")
	}
	sess.state = status.PersonaState
	if status.PlayerName != "" {
		sess.name = status.PlayerName
	}
	persona := protomsg.PersonaState{
		Friends: []protomsg.Friend{s.friend(sess)},
	}
	frame := s.protoFrame(sess, protocol.EMsgClientPersonaState, persona.Append(nil), 0)
	s.mu.Unlock()

	return sess.conn.SendFrame(frame)
}

// roomMembers must be called with s.mu held.
func (s *Server) roomMembers(roomID protocol.SteamID) []*session {
	var members []*session
	for _, other := range s.sessions {
		if _, ok := other.rooms[roomID]; ok {
			members = append(members, other)
		}
	}
	return members
}

func (s *Server) handleClientJoinChat(sess *session, body []byte) error {
	var join protocol.JoinChat
	if err := join.UnmarshalBinary(body); err != nil {
		return err
	}

	s.mu.Lock()
	if !sess.loggedOn() {
		s.mu.Unlock()
		return protocol.Violationf("join chat before logon")
	}
	sess.rooms[join.RoomID] = struct{}{}

	self := protocol.ChatMember{SteamID: sess.steamID, Permissions: protocol.EChatPermissionTalk}
	members := s.roomMembers(join.RoomID)

	var packed protocol.ChatMembers
	for _, member := range members {
		packed = protocol.AppendChatMember(packed, protocol.ChatMember{
			SteamID:     member.steamID,
			Permissions: protocol.EChatPermissionTalk,
		})
	}
	enter := protocol.AppendChatEnter(nil, &protocol.ChatEnter{
		RoomID:        join.RoomID,
		FriendID:      sess.steamID,
		RoomType:      protocol.EChatRoomTypeLobby,
		EnterResponse: protocol.EChatRoomEnterResponseSuccess,
		MemberCount:   uint32(len(members)),
		RoomName:      fmt.Sprintf("room %d", join.RoomID.AccountID()),
		Members:       packed,
	})
	frame := s.extendedFrame(sess, protocol.EMsgClientChatEnter, enter)

	info := protocol.ChatMemberInfo{
		RoomID: join.RoomID,
		Type:   protocol.EChatInfoTypeStateChange,
		StateChange: &protocol.ChatStateChange{
			ActedOn:     sess.steamID,
			StateChange: protocol.EChatMemberStateChangeEntered,
			ActedBy:     sess.steamID,
			Member:      self,
		},
	}
	infoBody, err := info.MarshalBinary()
	debug.Assert(err == nil)
	s.mu.Unlock()

	if err := sess.conn.SendFrame(frame); err != nil {
		return err
	}
	s.broadcast(sess, join.RoomID, protocol.EMsgClientChatMemberInfo, infoBody)
	return nil
}

func (s *Server) handleClientChatMsg(sess *session, body []byte) error {
	var msg protocol.ChatMsg
	if err := msg.UnmarshalBinary(body); err != nil {
		return err
	}

	s.mu.Lock()
	_, joined := sess.rooms[msg.RoomID]
	// the chatter is whoever sent it, not whatever the client claims
	msg.ChatterID = sess.steamID
	s.mu.Unlock()
	if !joined {
		return protocol.Violationf("chat msg to %s which was not joined", msg.RoomID)
	}

	out, err := msg.MarshalBinary()
	debug.Assert(err == nil)
	s.broadcast(sess, msg.RoomID, protocol.EMsgClientChatMsg, out)
	return nil
}

// broadcast sends body to everyone in the room but the sender. failed
// deliveries are logged, they are the recipients' problem and must not take
// the sender down.
func (s *Server) broadcast(sender *session, roomID protocol.SteamID, emsg protocol.EMsg, body []byte) {
	type delivery struct {
		sess  *session
		frame []byte
	}

	s.mu.Lock()
	var deliveries []delivery
	for _, member := range s.roomMembers(roomID) {
		// don't send to the sender
		if member.key == sender.key {
			continue
		}
		deliveries = append(deliveries, delivery{
			sess:  member,
			frame: s.extendedFrame(member, emsg, body),
		})
	}
	s.mu.Unlock()

	var errs error
	for _, d := range deliveries {
		if err := d.sess.conn.SendFrame(d.frame); err != nil {
			errs = multierror.Append(errs, fmt.Errorf("%s: %w", d.sess.conn.RemoteAddr(), err))
		}
	}
	if errs != nil {
		s.logger.Error().
			Stringer("emsg", emsg).
			Stringer("room", roomID).
			Msgf("could not broadcast: %v", errs)
	}
}
