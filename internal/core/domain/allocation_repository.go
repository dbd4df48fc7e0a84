package domain

import (
	"context"

	"github.com/google/uuid"

	"github.com/sealpay-network/sealpay-daemon/pkg/seal"
)

// AllocationRepository is the abstraction for any kind of database intended
// to persist the per-contract ledger of Allocations.
type AllocationRepository interface {
	// AddAllocations stores new allocations. Allocations whose key is
	// already present are skipped.
	AddAllocations(ctx context.Context, allocations ...Allocation) error
	// GetAllocation returns the allocation with the given seal under the
	// given contract, or ErrAllocationNotFound.
	GetAllocation(
		ctx context.Context, contractID string, s seal.Concealed,
	) (*Allocation, error)
	// GetAvailableAllocationsForIdentity returns the unspent, unlocked
	// allocations owned by the given identity under the given contract.
	GetAvailableAllocationsForIdentity(
		ctx context.Context, contractID, identity string,
	) ([]Allocation, error)
	// GetBalanceForIdentity returns the aggregate unspent amount owned by
	// the given identity under the given contract.
	GetBalanceForIdentity(
		ctx context.Context, contractID, identity string,
	) (uint64, error)
	// LockAllocations reserves the given allocations for a pending transfer.
	LockAllocations(
		ctx context.Context, contractID string,
		seals []seal.Concealed, transferID uuid.UUID,
	) error
	// UnlockAllocations releases the reservation held by an abandoned
	// transfer.
	UnlockAllocations(
		ctx context.Context, contractID string, seals []seal.Concealed,
	) error
	// SpendAllocations marks the given allocations as consumed. All of them
	// must exist and be unspent, otherwise no state is mutated.
	SpendAllocations(
		ctx context.Context, contractID string, seals []seal.Concealed,
	) error
	// UpdateAllocation allows to commit multiple changes to the same
	// allocation in a transactional way.
	UpdateAllocation(
		ctx context.Context, contractID string, s seal.Concealed,
		updateFn func(a *Allocation) (*Allocation, error),
	) error
}
