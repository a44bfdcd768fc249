// Package handshake implements the client side of the channel encryption
// bootstrap: a random session key is generated, encrypted with the CM public
// key and sent back with a checksum.
package handshake

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha1"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"hash/crc32"
	"io"

	"github.com/blukai/steamcm/internal/byteorder"
	"github.com/blukai/steamcm/internal/debug"
	"github.com/blukai/steamcm/internal/protocol"
)

const SessionKeySize = 32

// PublicKeyPEM is the public half of the key the CM servers (public universe)
// decrypt session keys with.
const PublicKeyPEM = `-----BEGIN PUBLIC KEY-----
MIGdMA0GCSqGSIb3DQEBAQUAA4GLADCBhwKBgQDf7BrWLBBmLBc1OhSwfFkRf53T
2Ct64+AVzRkeRuh7h3SiGEYxqQMUeYKO6UWiSRKpI2hzic9pobFhRr3Bvr/WARvY
gdTckPv+T1JzZsuVcNfFjrocejN1oWI0Rrtgt4Bo+hOneoo3S57G9F1fOpn5nsQ6
6WOiu4gZKODnFMBCiQIBEQ==
-----END PUBLIC KEY-----
`

type State uint8

const (
	StateUnencrypted State = iota
	StateKeySent
	StateEstablished
)

func (s State) String() string {
	switch s {
	case StateUnencrypted:
		return "unencrypted"
	case StateKeySent:
		return "key sent"
	case StateEstablished:
		return "established"
	}
	return fmt.Sprintf("State(%d)", uint8(s))
}

// ParsePublicKey decodes a PEM encoded PKIX rsa public key.
func ParsePublicKey(data []byte) (*rsa.PublicKey, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, fmt.Errorf("could not find pem block")
	}
	key, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("could not parse public key: %w", err)
	}
	rsaKey, ok := key.(*rsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("unexpected public key type %T", key)
	}
	return rsaKey, nil
}

// DefaultPublicKey parses PublicKeyPEM.
func DefaultPublicKey() *rsa.PublicKey {
	key, err := ParsePublicKey([]byte(PublicKeyPEM))
	if err != nil {
		// the key is a constant, this can only break at development time
		panic(err)
	}
	return key
}

// Negotiator holds the session key and encryption state of one connection.
// it is not safe for concurrent use.
type Negotiator struct {
	pub  *rsa.PublicKey
	rand io.Reader

	state      State
	sessionKey []byte
}

// NewNegotiator returns a negotiator that encrypts with pub and draws the
// session key from random. nil arguments select DefaultPublicKey and
// crypto/rand.
func NewNegotiator(pub *rsa.PublicKey, random io.Reader) *Negotiator {
	if pub == nil {
		pub = DefaultPublicKey()
	}
	if random == nil {
		random = rand.Reader
	}
	return &Negotiator{
		pub:  pub,
		rand: random,
	}
}

func (n *Negotiator) State() State {
	return n.state
}

// SessionKey returns the key once it has been generated, nil before.
func (n *Negotiator) SessionKey() []byte {
	return n.sessionKey
}

// ResponseSize is the length of the body Respond produces: the ciphertext, its
// crc and the reserved trailing field.
func (n *Negotiator) ResponseSize() int {
	return n.pub.Size() + 4 + 4
}

// Respond handles a ChannelEncryptRequest. it generates a session key,
// encrypts it and writes the response body into buf, which must be exactly
// ResponseSize bytes. the state doesn't change until the response is known to
// be sent, see Commit.
func (n *Negotiator) Respond(buf []byte) ([]byte, error) {
	if n.state != StateUnencrypted {
		return nil, protocol.Violationf("channel encrypt request in state %s", n.state)
	}
	if len(buf) != n.ResponseSize() {
		return nil, fmt.Errorf("response buffer is %d bytes, want %d", len(buf), n.ResponseSize())
	}

	key := make([]byte, SessionKeySize)
	if _, err := io.ReadFull(n.rand, key); err != nil {
		return nil, fmt.Errorf("could not generate session key: %w", err)
	}

	// NOTE(blukai): openssl's RSA_PKCS1_OAEP_PADDING, which is what the
	// servers expect, is oaep with sha1 and no label.
	ciphertext, err := rsa.EncryptOAEP(sha1.New(), n.rand, n.pub, key, nil)
	if err != nil {
		return nil, fmt.Errorf("could not encrypt session key: %w", err)
	}

	off := copy(buf, ciphertext)
	off += copy(buf[off:], byteorder.Htolel(Checksum(ciphertext)))
	copy(buf[off:], byteorder.Htolel(0))

	return key, nil
}

// Commit records key, as returned by Respond, once its response went out.
func (n *Negotiator) Commit(key []byte) {
	debug.Assertf(n.state == StateUnencrypted, "commit in state %s", n.state)
	debug.Assertf(len(key) == SessionKeySize, "session key is %d bytes", len(key))

	n.sessionKey = key
	n.state = StateKeySent
}

// Checksum is the zlib crc32 of data.
func Checksum(data []byte) uint32 {
	return crc32.ChecksumIEEE(data)
}

// Confirm handles a ChannelEncryptResult.
func (n *Negotiator) Confirm(result protocol.EResult) error {
	if n.state != StateKeySent {
		return protocol.Violationf("channel encrypt result in state %s", n.state)
	}
	if result != protocol.EResultOK {
		return protocol.Violationf("channel encryption rejected: %s", result)
	}
	n.state = StateEstablished
	return nil
}
