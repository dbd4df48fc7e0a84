package credential

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/sealpay-network/sealpay-daemon/internal/core/ports"
	"github.com/sealpay-network/sealpay-daemon/pkg/identity"
)

// provider resolves the daemon identity key from an explicit hex string or
// from a key file, parsing it once.
type provider struct {
	hexKey  string
	keyFile string

	once  sync.Once
	ident *identity.Identity
	err   error
}

// NewProvider returns a ports.CredentialProvider reading the daemon identity
// from the given hex key or, when empty, from the given file path. Exactly
// one of the two must be set.
func NewProvider(hexKey, keyFile string) (ports.CredentialProvider, error) {
	if (len(hexKey) > 0) == (len(keyFile) > 0) {
		return nil, fmt.Errorf(
			"credential: exactly one of identity key and key file must be set",
		)
	}
	return &provider{hexKey: hexKey, keyFile: keyFile}, nil
}

func (p *provider) ServerIdentity() (*identity.Identity, error) {
	p.once.Do(func() {
		hexKey := p.hexKey
		if len(p.keyFile) > 0 {
			buf, err := os.ReadFile(p.keyFile)
			if err != nil {
				p.err = fmt.Errorf("credential: reading key file: %w", err)
				return
			}
			hexKey = strings.TrimSpace(string(buf))
		}
		p.ident, p.err = identity.NewIdentity(hexKey)
	})
	return p.ident, p.err
}
