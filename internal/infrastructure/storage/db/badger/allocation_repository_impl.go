package dbbadger

import (
	"context"
	"errors"
	"sort"

	"github.com/google/uuid"
	"github.com/timshannon/badgerhold/v4"

	"github.com/sealpay-network/sealpay-daemon/internal/core/domain"
	"github.com/sealpay-network/sealpay-daemon/pkg/seal"
)

type allocationRepositoryImpl struct {
	store *badgerhold.Store
}

// NewAllocationRepositoryImpl returns a badger AllocationRepository
// implementation.
func NewAllocationRepositoryImpl(store *badgerhold.Store) domain.AllocationRepository {
	return allocationRepositoryImpl{store}
}

func (r allocationRepositoryImpl) AddAllocations(
	_ context.Context, allocations ...domain.Allocation,
) error {
	for _, allocation := range allocations {
		err := r.store.Insert(allocation.Key(), allocation)
		if err != nil && !errors.Is(err, badgerhold.ErrKeyExists) {
			return err
		}
	}
	return nil
}

func (r allocationRepositoryImpl) GetAllocation(
	_ context.Context, contractID string, s seal.Concealed,
) (*domain.Allocation, error) {
	return r.getAllocation(contractID, s)
}

func (r allocationRepositoryImpl) GetAvailableAllocationsForIdentity(
	_ context.Context, contractID, identity string,
) ([]domain.Allocation, error) {
	var found []domain.Allocation
	if err := r.store.Find(
		&found,
		badgerhold.Where("ContractID").Eq(contractID).
			And("Owner").Eq(identity).
			And("Spent").Eq(false),
	); err != nil {
		return nil, err
	}

	available := make([]domain.Allocation, 0, len(found))
	for _, allocation := range found {
		if allocation.IsAvailable() {
			available = append(available, allocation)
		}
	}
	sort.Slice(available, func(i, j int) bool {
		return available[i].Seal.String() < available[j].Seal.String()
	})
	return available, nil
}

func (r allocationRepositoryImpl) GetBalanceForIdentity(
	_ context.Context, contractID, identity string,
) (uint64, error) {
	var found []domain.Allocation
	if err := r.store.Find(
		&found,
		badgerhold.Where("ContractID").Eq(contractID).
			And("Owner").Eq(identity).
			And("Spent").Eq(false),
	); err != nil {
		return 0, err
	}

	var balance uint64
	for _, allocation := range found {
		balance += allocation.Amount
	}
	return balance, nil
}

func (r allocationRepositoryImpl) LockAllocations(
	_ context.Context, contractID string,
	seals []seal.Concealed, transferID uuid.UUID,
) error {
	return r.updateAll(contractID, seals, func(a *domain.Allocation) error {
		return a.Lock(transferID)
	})
}

func (r allocationRepositoryImpl) UnlockAllocations(
	_ context.Context, contractID string, seals []seal.Concealed,
) error {
	return r.updateAll(contractID, seals, func(a *domain.Allocation) error {
		a.Unlock()
		return nil
	})
}

func (r allocationRepositoryImpl) SpendAllocations(
	_ context.Context, contractID string, seals []seal.Concealed,
) error {
	return r.updateAll(contractID, seals, func(a *domain.Allocation) error {
		return a.Spend()
	})
}

func (r allocationRepositoryImpl) UpdateAllocation(
	_ context.Context, contractID string, s seal.Concealed,
	updateFn func(a *domain.Allocation) (*domain.Allocation, error),
) error {
	currentAllocation, err := r.getAllocation(contractID, s)
	if err != nil {
		return err
	}
	updatedAllocation, err := updateFn(currentAllocation)
	if err != nil {
		return err
	}
	return r.store.Update(updatedAllocation.Key(), *updatedAllocation)
}

// updateAll applies fn to every targeted allocation inside a single badger
// transaction, all-or-nothing.
func (r allocationRepositoryImpl) updateAll(
	contractID string, seals []seal.Concealed,
	fn func(a *domain.Allocation) error,
) error {
	tx := r.store.Badger().NewTransaction(true)
	defer tx.Discard()

	for _, s := range seals {
		key := domain.AllocationKey{ContractID: contractID, Seal: s.String()}
		var allocation domain.Allocation
		if err := r.store.TxGet(tx, key, &allocation); err != nil {
			if errors.Is(err, badgerhold.ErrNotFound) {
				return domain.ErrAllocationNotFound
			}
			return err
		}
		if err := fn(&allocation); err != nil {
			return err
		}
		if err := r.store.TxUpdate(tx, key, allocation); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (r allocationRepositoryImpl) getAllocation(
	contractID string, s seal.Concealed,
) (*domain.Allocation, error) {
	key := domain.AllocationKey{ContractID: contractID, Seal: s.String()}
	var allocation domain.Allocation
	if err := r.store.Get(key, &allocation); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil, domain.ErrAllocationNotFound
		}
		return nil, err
	}
	return &allocation, nil
}
