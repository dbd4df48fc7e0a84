package identity_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sealpay-network/sealpay-daemon/pkg/identity"
)

var (
	aliceKey = strings.Repeat("11", 32)
	bobKey   = strings.Repeat("22", 32)
)

func TestSharedSecretSymmetry(t *testing.T) {
	t.Parallel()

	alice, err := identity.NewIdentity(aliceKey)
	require.NoError(t, err)
	bob, err := identity.NewIdentity(bobKey)
	require.NoError(t, err)

	alicePub, err := identity.ParsePublicKey(alice.Public())
	require.NoError(t, err)
	bobPub, err := identity.ParsePublicKey(bob.Public())
	require.NoError(t, err)

	require.Equal(t, alice.SharedSecret(bobPub), bob.SharedSecret(alicePub))
	require.NotEqual(t, alice.SharedSecret(alicePub), alice.SharedSecret(bobPub))
}

func TestFailingNewIdentity(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		hexKey string
	}{
		{
			name:   "not_hex",
			hexKey: "nothex",
		},
		{
			name:   "short_key",
			hexKey: "deadbeef",
		},
		{
			name:   "zero_key",
			hexKey: strings.Repeat("00", 32),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := identity.NewIdentity(tt.hexKey)
			require.ErrorIs(t, err, identity.ErrInvalidPrivateKey)
		})
	}
}

func TestFailingParsePublicKey(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		hexKey string
	}{
		{
			name:   "not_hex",
			hexKey: "zz",
		},
		{
			name:   "not_a_curve_point",
			hexKey: "02" + strings.Repeat("00", 32),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := identity.ParsePublicKey(tt.hexKey)
			require.ErrorIs(t, err, identity.ErrInvalidPublicKey)
		})
	}
}

func TestEncryptDecrypt(t *testing.T) {
	t.Parallel()

	alice, err := identity.NewIdentity(aliceKey)
	require.NoError(t, err)
	bob, err := identity.NewIdentity(bobKey)
	require.NoError(t, err)

	bobPub, err := identity.ParsePublicKey(bob.Public())
	require.NoError(t, err)
	alicePub, err := identity.ParsePublicKey(alice.Public())
	require.NoError(t, err)

	plaintext := []byte("consignment payload")

	cyphertext, err := identity.Encrypt(identity.EncryptOpts{
		PlainText: plaintext,
		Secret:    alice.SharedSecret(bobPub),
	})
	require.NoError(t, err)

	revealed, err := identity.Decrypt(identity.DecryptOpts{
		CypherText: cyphertext,
		Secret:     bob.SharedSecret(alicePub),
	})
	require.NoError(t, err)
	require.Equal(t, plaintext, revealed)

	_, err = identity.Encrypt(identity.EncryptOpts{Secret: alice.SharedSecret(bobPub)})
	require.ErrorIs(t, err, identity.ErrNullPlainText)

	_, err = identity.Decrypt(identity.DecryptOpts{
		CypherText: "not base64!",
		Secret:     bob.SharedSecret(alicePub),
	})
	require.ErrorIs(t, err, identity.ErrInvalidCypherText)
}
