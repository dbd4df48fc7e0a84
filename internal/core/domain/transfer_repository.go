package domain

import (
	"context"

	"github.com/google/uuid"
)

// TransferRepository is the abstraction for any kind of database intended to
// persist Transfers.
type TransferRepository interface {
	// AddTransfer stores a new transfer.
	AddTransfer(ctx context.Context, transfer *Transfer) error
	// GetTransfer returns the transfer with the given id, or
	// ErrTransferNotFound.
	GetTransfer(ctx context.Context, transferID uuid.UUID) (*Transfer, error)
	// GetTransferByTransitionID returns the transfer embedding the state
	// transition with the given id, or ErrTransferNotFound. Transition ids
	// are content-derived, which makes this the idempotency lookup of the
	// acceptance path.
	GetTransferByTransitionID(ctx context.Context, transitionID string) (*Transfer, error)
	// GetAllTransfersForIdentity returns the transfers created by the given
	// identity, ordered by creation time.
	GetAllTransfersForIdentity(ctx context.Context, identity string) ([]*Transfer, error)
	// UpdateTransfer allows to commit multiple changes to the same transfer
	// in a transactional way.
	UpdateTransfer(
		ctx context.Context, transferID uuid.UUID,
		updateFn func(t *Transfer) (*Transfer, error),
	) error
}
