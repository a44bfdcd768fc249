package handshake_test

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha1"
	"encoding/binary"
	"errors"
	"testing"

	"github.com/blukai/steamcm/internal/handshake"
	"github.com/blukai/steamcm/internal/protocol"
	"github.com/matryer/is"
)

func TestDefaultPublicKey(t *testing.T) {
	is := is.New(t)

	key := handshake.DefaultPublicKey()
	is.Equal(key.N.BitLen(), 1024)
	is.Equal(key.E, 17)
	is.Equal(handshake.NewNegotiator(nil, nil).ResponseSize(), 128+8)
}

func TestChecksum(t *testing.T) {
	is := is.New(t)

	// the standard crc-32 check value
	is.Equal(handshake.Checksum([]byte("123456789")), uint32(0xCBF43926))
	is.Equal(handshake.Checksum(nil), uint32(0))
}

func TestRespondEncryptsSessionKey(t *testing.T) {
	is := is.New(t)

	priv, err := rsa.GenerateKey(rand.Reader, 1024)
	is.NoErr(err)

	n := handshake.NewNegotiator(&priv.PublicKey, nil)
	is.Equal(n.State(), handshake.StateUnencrypted)

	buf := make([]byte, n.ResponseSize())
	key, err := n.Respond(buf)
	is.NoErr(err)
	// nothing changes until the response is sent
	is.Equal(n.State(), handshake.StateUnencrypted)
	is.True(n.SessionKey() == nil)

	n.Commit(key)
	is.Equal(n.State(), handshake.StateKeySent)

	keySize := priv.PublicKey.Size()
	is.Equal(len(buf), keySize+8)

	ciphertext := buf[:keySize]
	is.Equal(binary.LittleEndian.Uint32(buf[keySize:]), handshake.Checksum(ciphertext))
	is.Equal(binary.LittleEndian.Uint32(buf[keySize+4:]), uint32(0))

	sessionKey, err := rsa.DecryptOAEP(sha1.New(), nil, priv, ciphertext, nil)
	is.NoErr(err)
	is.Equal(len(sessionKey), handshake.SessionKeySize)
	is.Equal(sessionKey, n.SessionKey())
}

func TestStateTransitions(t *testing.T) {
	priv, err := rsa.GenerateKey(rand.Reader, 1024)
	if err != nil {
		t.Fatal(err)
	}

	respond := func(n *handshake.Negotiator) error {
		key, err := n.Respond(make([]byte, n.ResponseSize()))
		if err != nil {
			return err
		}
		n.Commit(key)
		return nil
	}

	t.Run("success", func(t *testing.T) {
		is := is.New(t)
		n := handshake.NewNegotiator(&priv.PublicKey, nil)
		is.NoErr(respond(n))
		is.NoErr(n.Confirm(protocol.EResultOK))
		is.Equal(n.State(), handshake.StateEstablished)

		// no downgrade, no second key
		err := respond(n)
		is.True(errors.Is(err, protocol.ErrProtocolViolation))
		err = n.Confirm(protocol.EResultOK)
		is.True(errors.Is(err, protocol.ErrProtocolViolation))
		is.Equal(n.State(), handshake.StateEstablished)
	})

	t.Run("rejected", func(t *testing.T) {
		is := is.New(t)
		n := handshake.NewNegotiator(&priv.PublicKey, nil)
		is.NoErr(respond(n))
		err := n.Confirm(protocol.EResultFail)
		is.True(errors.Is(err, protocol.ErrProtocolViolation))
		is.Equal(n.State(), handshake.StateKeySent)
	})

	t.Run("result without request", func(t *testing.T) {
		is := is.New(t)
		n := handshake.NewNegotiator(&priv.PublicKey, nil)
		err := n.Confirm(protocol.EResultOK)
		is.True(errors.Is(err, protocol.ErrProtocolViolation))
		is.Equal(n.State(), handshake.StateUnencrypted)
	})

	t.Run("wrong buffer size", func(t *testing.T) {
		is := is.New(t)
		n := handshake.NewNegotiator(&priv.PublicKey, nil)
		_, err := n.Respond(make([]byte, 10))
		is.True(err != nil)
		is.Equal(n.State(), handshake.StateUnencrypted)
	})
}

func TestRespondUncommitted(t *testing.T) {
	is := is.New(t)

	priv, err := rsa.GenerateKey(rand.Reader, 1024)
	is.NoErr(err)

	// a response that never went out can be produced again
	n := handshake.NewNegotiator(&priv.PublicKey, nil)
	_, err = n.Respond(make([]byte, n.ResponseSize()))
	is.NoErr(err)
	key, err := n.Respond(make([]byte, n.ResponseSize()))
	is.NoErr(err)

	n.Commit(key)
	is.Equal(n.SessionKey(), key)
	is.Equal(n.State(), handshake.StateKeySent)
}
