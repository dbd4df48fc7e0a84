package inmemory

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/sealpay-network/sealpay-daemon/internal/core/domain"
	"github.com/sealpay-network/sealpay-daemon/pkg/seal"
)

type allocationRepositoryImpl struct {
	store *allocationInmemoryStore
}

// NewAllocationRepositoryImpl returns a new inmemory AllocationRepository
// implementation.
func NewAllocationRepositoryImpl(store *allocationInmemoryStore) domain.AllocationRepository {
	return &allocationRepositoryImpl{store}
}

func (r allocationRepositoryImpl) AddAllocations(
	_ context.Context, allocations ...domain.Allocation,
) error {
	r.store.locker.Lock()
	defer r.store.locker.Unlock()

	for _, allocation := range allocations {
		key := allocation.Key()
		if _, ok := r.store.allocations[key]; ok {
			continue
		}
		r.store.allocations[key] = allocation
	}
	return nil
}

func (r allocationRepositoryImpl) GetAllocation(
	_ context.Context, contractID string, s seal.Concealed,
) (*domain.Allocation, error) {
	r.store.locker.Lock()
	defer r.store.locker.Unlock()

	return r.getAllocation(contractID, s)
}

func (r allocationRepositoryImpl) GetAvailableAllocationsForIdentity(
	_ context.Context, contractID, identity string,
) ([]domain.Allocation, error) {
	r.store.locker.Lock()
	defer r.store.locker.Unlock()

	allocations := make([]domain.Allocation, 0)
	for _, allocation := range r.store.allocations {
		if allocation.ContractID == contractID &&
			allocation.Owner == identity && allocation.IsAvailable() {
			allocations = append(allocations, allocation)
		}
	}
	sort.Slice(allocations, func(i, j int) bool {
		return allocations[i].Seal.String() < allocations[j].Seal.String()
	})
	return allocations, nil
}

func (r allocationRepositoryImpl) GetBalanceForIdentity(
	_ context.Context, contractID, identity string,
) (uint64, error) {
	r.store.locker.Lock()
	defer r.store.locker.Unlock()

	var balance uint64
	for _, allocation := range r.store.allocations {
		if allocation.ContractID == contractID &&
			allocation.Owner == identity && !allocation.Spent {
			balance += allocation.Amount
		}
	}
	return balance, nil
}

func (r allocationRepositoryImpl) LockAllocations(
	_ context.Context, contractID string,
	seals []seal.Concealed, transferID uuid.UUID,
) error {
	r.store.locker.Lock()
	defer r.store.locker.Unlock()

	return r.updateAll(contractID, seals, func(a *domain.Allocation) error {
		return a.Lock(transferID)
	})
}

func (r allocationRepositoryImpl) UnlockAllocations(
	_ context.Context, contractID string, seals []seal.Concealed,
) error {
	r.store.locker.Lock()
	defer r.store.locker.Unlock()

	return r.updateAll(contractID, seals, func(a *domain.Allocation) error {
		a.Unlock()
		return nil
	})
}

func (r allocationRepositoryImpl) SpendAllocations(
	_ context.Context, contractID string, seals []seal.Concealed,
) error {
	r.store.locker.Lock()
	defer r.store.locker.Unlock()

	return r.updateAll(contractID, seals, func(a *domain.Allocation) error {
		return a.Spend()
	})
}

func (r allocationRepositoryImpl) UpdateAllocation(
	_ context.Context, contractID string, s seal.Concealed,
	updateFn func(a *domain.Allocation) (*domain.Allocation, error),
) error {
	r.store.locker.Lock()
	defer r.store.locker.Unlock()

	currentAllocation, err := r.getAllocation(contractID, s)
	if err != nil {
		return err
	}
	updatedAllocation, err := updateFn(currentAllocation)
	if err != nil {
		return err
	}

	r.store.allocations[updatedAllocation.Key()] = *updatedAllocation
	return nil
}

// updateAll applies fn to every targeted allocation on copies first and
// commits the batch only if all of them succeed, all-or-nothing.
func (r allocationRepositoryImpl) updateAll(
	contractID string, seals []seal.Concealed,
	fn func(a *domain.Allocation) error,
) error {
	updated := make([]domain.Allocation, 0, len(seals))
	for _, s := range seals {
		allocation, err := r.getAllocation(contractID, s)
		if err != nil {
			return err
		}
		if err := fn(allocation); err != nil {
			return err
		}
		updated = append(updated, *allocation)
	}
	for _, allocation := range updated {
		r.store.allocations[allocation.Key()] = allocation
	}
	return nil
}

func (r allocationRepositoryImpl) getAllocation(
	contractID string, s seal.Concealed,
) (*domain.Allocation, error) {
	key := domain.AllocationKey{ContractID: contractID, Seal: s.String()}
	allocation, ok := r.store.allocations[key]
	if !ok {
		return nil, domain.ErrAllocationNotFound
	}
	return &allocation, nil
}
