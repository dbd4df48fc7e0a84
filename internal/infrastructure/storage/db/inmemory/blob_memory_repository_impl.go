package inmemory

import (
	"context"
	"time"

	"github.com/sealpay-network/sealpay-daemon/internal/core/domain"
)

type blobRepositoryImpl struct {
	store *blobInmemoryStore
}

// NewBlobRepositoryImpl returns a new inmemory BlobRepository implementation.
func NewBlobRepositoryImpl(store *blobInmemoryStore) domain.BlobRepository {
	return &blobRepositoryImpl{store}
}

func (r blobRepositoryImpl) PutBlob(
	_ context.Context, owner, name string, data []byte,
) error {
	r.store.locker.Lock()
	defer r.store.locker.Unlock()

	payload := make([]byte, len(data))
	copy(payload, data)
	r.store.blobs[domain.BlobKey{Owner: owner, Name: name}] = domain.Blob{
		Owner:     owner,
		Name:      name,
		Data:      payload,
		UpdatedAt: time.Now().Unix(),
	}
	return nil
}

func (r blobRepositoryImpl) GetBlob(
	_ context.Context, owner, name string,
) ([]byte, error) {
	r.store.locker.Lock()
	defer r.store.locker.Unlock()

	blob, ok := r.store.blobs[domain.BlobKey{Owner: owner, Name: name}]
	if !ok {
		return nil, domain.ErrBlobNotFound
	}
	payload := make([]byte, len(blob.Data))
	copy(payload, blob.Data)
	return payload, nil
}
