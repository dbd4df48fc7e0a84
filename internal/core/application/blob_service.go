package application

import (
	"context"

	log "github.com/sirupsen/logrus"

	"github.com/sealpay-network/sealpay-daemon/internal/core/ports"
	"github.com/sealpay-network/sealpay-daemon/pkg/identity"
)

// BlobService stores opaque payloads namespaced by identity. Payloads are
// expected to arrive already encrypted, typically with a secret derived via
// the identity service, and are handed off between counterparties by owner
// public key.
type BlobService interface {
	// PutBlob stores the payload under the caller's namespace,
	// last-write-wins.
	PutBlob(
		ctx context.Context, ident *identity.Identity, name string, data []byte,
	) error
	// GetBlob returns the payload stored by the given owner. Any identity
	// may read any namespace: retrieval is how stored state reaches the
	// counterparty, writes stay scoped to the caller.
	GetBlob(ctx context.Context, owner, name string) ([]byte, error)
}

type blobService struct {
	repoManager ports.RepoManager
}

// NewBlobService returns a new BlobService using the given repositories.
func NewBlobService(repoManager ports.RepoManager) BlobService {
	return &blobService{repoManager}
}

func (s *blobService) PutBlob(
	ctx context.Context, ident *identity.Identity, name string, data []byte,
) error {
	if err := validateResourceName(name); err != nil {
		return err
	}

	owner := ident.Public()
	if err := s.repoManager.BlobRepository().PutBlob(
		ctx, owner, name, data,
	); err != nil {
		return err
	}

	log.WithFields(log.Fields{
		"name": name,
		"size": len(data),
	}).Debug("stored blob")
	return nil
}

func (s *blobService) GetBlob(
	ctx context.Context, owner, name string,
) ([]byte, error) {
	if _, err := identity.ParsePublicKey(owner); err != nil {
		return nil, err
	}
	if err := validateResourceName(name); err != nil {
		return nil, err
	}
	return s.repoManager.BlobRepository().GetBlob(ctx, owner, name)
}
