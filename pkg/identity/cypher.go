package identity

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
)

var (
	// ErrNullPlainText ...
	ErrNullPlainText = errors.New("plaintext must not be null")
	// ErrNullCypherText ...
	ErrNullCypherText = errors.New("cyphertext must not be null")
	// ErrInvalidCypherText ...
	ErrInvalidCypherText = errors.New("cyphertext is not a valid base64 string")
)

// EncryptOpts is the struct given to the Encrypt method.
type EncryptOpts struct {
	PlainText []byte
	Secret    [sha256.Size]byte
}

func (o EncryptOpts) validate() error {
	if len(o.PlainText) <= 0 {
		return ErrNullPlainText
	}
	return nil
}

// Encrypt encrypts (with AES-256-GCM) a payload with a shared secret derived
// via ECDH, so that only the two parties owning the key pair halves can read
// it. The result is meant to be stored as an opaque blob.
func Encrypt(opts EncryptOpts) (string, error) {
	if err := opts.validate(); err != nil {
		return "", err
	}

	blockCipher, err := aes.NewCipher(opts.Secret[:])
	if err != nil {
		return "", err
	}
	gcm, err := cipher.NewGCM(blockCipher)
	if err != nil {
		return "", err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}

	cyphertext := gcm.Seal(nonce, nonce, opts.PlainText, nil)

	return base64.StdEncoding.EncodeToString(cyphertext), nil
}

// DecryptOpts is the struct given to the Decrypt method.
type DecryptOpts struct {
	CypherText string
	Secret     [sha256.Size]byte
}

func (o DecryptOpts) validate() error {
	if len(o.CypherText) <= 0 {
		return ErrNullCypherText
	}
	if _, err := base64.StdEncoding.DecodeString(o.CypherText); err != nil {
		return ErrInvalidCypherText
	}
	return nil
}

// Decrypt decrypts a payload encrypted with Encrypt and the same shared
// secret.
func Decrypt(opts DecryptOpts) ([]byte, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}

	data, _ := base64.StdEncoding.DecodeString(opts.CypherText)

	blockCipher, err := aes.NewCipher(opts.Secret[:])
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(blockCipher)
	if err != nil {
		return nil, err
	}
	if len(data) < gcm.NonceSize() {
		return nil, ErrInvalidCypherText
	}
	nonce, text := data[:gcm.NonceSize()], data[gcm.NonceSize():]

	return gcm.Open(nil, nonce, text, nil)
}
