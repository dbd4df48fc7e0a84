package identity

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"

	"github.com/btcsuite/btcd/btcec/v2"
)

var (
	// ErrInvalidPrivateKey ...
	ErrInvalidPrivateKey = errors.New("invalid identity private key")
	// ErrInvalidPublicKey ...
	ErrInvalidPublicKey = errors.New("invalid identity public key")
)

// Identity wraps a caller's secp256k1 private key. It lives for the duration
// of a single request and is never persisted.
type Identity struct {
	prvkey *btcec.PrivateKey
}

// NewIdentity parses a 32-byte hex-encoded secp256k1 private key.
func NewIdentity(hexKey string) (*Identity, error) {
	buf, err := hex.DecodeString(hexKey)
	if err != nil || len(buf) != btcec.PrivKeyBytesLen {
		return nil, ErrInvalidPrivateKey
	}
	prvkey, _ := btcec.PrivKeyFromBytes(buf)
	if prvkey.Key.IsZero() {
		return nil, ErrInvalidPrivateKey
	}
	return &Identity{prvkey: prvkey}, nil
}

// PrivateKey returns the underlying signing key.
func (i *Identity) PrivateKey() *btcec.PrivateKey {
	return i.prvkey
}

// Public returns the hex-encoded compressed public key, used as the identity
// under which server-side state is indexed.
func (i *Identity) Public() string {
	return hex.EncodeToString(i.prvkey.PubKey().SerializeCompressed())
}

// ParsePublicKey parses a hex-encoded compressed secp256k1 public key,
// rejecting encodings that are not valid curve points.
func ParsePublicKey(hexKey string) (*btcec.PublicKey, error) {
	buf, err := hex.DecodeString(hexKey)
	if err != nil {
		return nil, ErrInvalidPublicKey
	}
	pubkey, err := btcec.ParsePubKey(buf)
	if err != nil {
		return nil, ErrInvalidPublicKey
	}
	return pubkey, nil
}

// SharedSecret derives the ECDH shared secret between the identity key and a
// counterparty public key. The scalar multiplication is constant-time with
// respect to the private key. The secret is symmetric:
// SharedSecret(skA, pkB) == SharedSecret(skB, pkA).
func (i *Identity) SharedSecret(counterparty *btcec.PublicKey) [sha256.Size]byte {
	return sha256.Sum256(btcec.GenerateSharedSecret(i.prvkey, counterparty))
}
