package domain

import "context"

// Blob is an opaque payload stored under (owner, name). Callers are expected
// to have encrypted the payload with a secret derived via ECDH before
// storing it, the store itself performs no encryption.
type Blob struct {
	Owner     string
	Name      string
	Data      []byte
	UpdatedAt int64
}

// BlobKey identifies a blob record.
type BlobKey struct {
	Owner string
	Name  string
}

// BlobRepository is the abstraction for any kind of database intended to
// persist Blobs. Writes under an existing key overwrite the previous record,
// last-write-wins, no versioning.
type BlobRepository interface {
	// PutBlob stores the payload under (owner, name), creating the owner
	// namespace if absent.
	PutBlob(ctx context.Context, owner, name string, data []byte) error
	// GetBlob returns the payload stored under (owner, name), or
	// ErrBlobNotFound.
	GetBlob(ctx context.Context, owner, name string) ([]byte, error)
}
