package domain

import (
	"github.com/google/uuid"

	"github.com/sealpay-network/sealpay-daemon/pkg/seal"
)

// AllocationKey identifies an allocation by contract and seal digest.
type AllocationKey struct {
	ContractID string
	Seal       string
}

// Allocation binds an amount of a contract's asset to a single-use seal.
// It is the unit of the contract's ownership ledger: genesis creates the
// first allocation, every accepted state transition closes (spends) input
// allocations and creates output ones. The revealed seal is present only
// for allocations whose seal was created locally; allocations learned from
// counterparties stay concealed until disclosed.
type Allocation struct {
	ContractID string
	Seal       seal.Concealed
	Owner      string
	Amount     uint64
	Revealed   *seal.Revealed
	Spent      bool
	LockedBy   *uuid.UUID
}

// Key returns the ledger key of the allocation.
func (a *Allocation) Key() AllocationKey {
	return AllocationKey{ContractID: a.ContractID, Seal: a.Seal.String()}
}

// IsAvailable returns whether the allocation can be selected as input of a
// new transfer, ie. it is neither spent nor reserved by a pending one.
func (a *Allocation) IsAvailable() bool {
	return !a.Spent && a.LockedBy == nil
}

// Lock reserves the allocation for the transfer with the given id. Locking
// an allocation already locked by the same transfer is a no-op.
func (a *Allocation) Lock(transferID uuid.UUID) error {
	if a.Spent {
		return ErrAllocationAlreadySpent
	}
	if a.LockedBy != nil {
		if *a.LockedBy == transferID {
			return nil
		}
		return ErrAllocationLocked
	}
	a.LockedBy = &transferID
	return nil
}

// Unlock releases the reservation on the allocation.
func (a *Allocation) Unlock() {
	a.LockedBy = nil
}

// Spend marks the allocation as consumed by an executed transfer. Its spend
// status transitions exactly once.
func (a *Allocation) Spend() error {
	if a.Spent {
		return ErrAllocationAlreadySpent
	}
	a.Spent = true
	a.LockedBy = nil
	return nil
}
