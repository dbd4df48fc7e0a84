package dbbadger

import (
	"context"
	"errors"
	"time"

	"github.com/timshannon/badgerhold/v4"

	"github.com/sealpay-network/sealpay-daemon/internal/core/domain"
)

type blobRepositoryImpl struct {
	store *badgerhold.Store
}

// NewBlobRepositoryImpl returns a badger BlobRepository implementation.
func NewBlobRepositoryImpl(store *badgerhold.Store) domain.BlobRepository {
	return blobRepositoryImpl{store}
}

func (r blobRepositoryImpl) PutBlob(
	_ context.Context, owner, name string, data []byte,
) error {
	return r.store.Upsert(
		domain.BlobKey{Owner: owner, Name: name},
		domain.Blob{
			Owner:     owner,
			Name:      name,
			Data:      data,
			UpdatedAt: time.Now().Unix(),
		},
	)
}

func (r blobRepositoryImpl) GetBlob(
	_ context.Context, owner, name string,
) ([]byte, error) {
	var blob domain.Blob
	if err := r.store.Get(
		domain.BlobKey{Owner: owner, Name: name}, &blob,
	); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil, domain.ErrBlobNotFound
		}
		return nil, err
	}
	return blob.Data, nil
}
