package application

import (
	"context"
	"encoding/hex"

	"github.com/sealpay-network/sealpay-daemon/internal/core/ports"
	"github.com/sealpay-network/sealpay-daemon/pkg/identity"
)

// IdentityService exposes the daemon's key material to callers: its public
// identity and ECDH shared secrets derived against counterparty keys, used
// to encrypt payloads before handing them to the blob store.
type IdentityService interface {
	// PublicKey returns the daemon's hex-encoded compressed public key.
	PublicKey(ctx context.Context) (string, error)
	// DeriveSharedSecret returns the hex-encoded ECDH secret between the
	// daemon's identity key and the given counterparty public key. The
	// derivation is symmetric, both parties compute the same secret.
	DeriveSharedSecret(ctx context.Context, counterpartyPubkey string) (string, error)
}

type identityService struct {
	credentialProvider ports.CredentialProvider
}

// NewIdentityService returns a new IdentityService backed by the given
// credential provider.
func NewIdentityService(credentialProvider ports.CredentialProvider) IdentityService {
	return &identityService{credentialProvider}
}

func (s *identityService) PublicKey(_ context.Context) (string, error) {
	ident, err := s.credentialProvider.ServerIdentity()
	if err != nil {
		return "", err
	}
	return ident.Public(), nil
}

func (s *identityService) DeriveSharedSecret(
	_ context.Context, counterpartyPubkey string,
) (string, error) {
	ident, err := s.credentialProvider.ServerIdentity()
	if err != nil {
		return "", err
	}
	pubkey, err := identity.ParsePublicKey(counterpartyPubkey)
	if err != nil {
		return "", err
	}
	secret := ident.SharedSecret(pubkey)
	return hex.EncodeToString(secret[:]), nil
}
