package ports

import "github.com/sealpay-network/sealpay-daemon/pkg/identity"

// CredentialProvider supplies the daemon's own identity key to the
// components that need it, like the shared-secret derivation endpoint.
// Implementations decide where the key material comes from (file, config,
// external secret manager); the core never reads it from the process
// environment directly.
type CredentialProvider interface {
	// ServerIdentity returns the daemon's identity key.
	ServerIdentity() (*identity.Identity, error)
}
