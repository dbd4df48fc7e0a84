package inmemory

import (
	"context"
	"sort"

	"github.com/sealpay-network/sealpay-daemon/internal/core/domain"
)

type contractRepositoryImpl struct {
	store *contractInmemoryStore
}

// NewContractRepositoryImpl returns a new inmemory ContractRepository
// implementation.
func NewContractRepositoryImpl(store *contractInmemoryStore) domain.ContractRepository {
	return &contractRepositoryImpl{store}
}

func (r contractRepositoryImpl) AddContract(
	_ context.Context, contract *domain.Contract,
) (*domain.Contract, error) {
	r.store.locker.Lock()
	defer r.store.locker.Unlock()

	if stored, ok := r.store.contracts[contract.ID]; ok {
		return &stored, nil
	}
	r.store.contracts[contract.ID] = *contract
	return contract, nil
}

func (r contractRepositoryImpl) GetContract(
	_ context.Context, contractID string,
) (*domain.Contract, error) {
	r.store.locker.Lock()
	defer r.store.locker.Unlock()

	contract, ok := r.store.contracts[contractID]
	if !ok {
		return nil, domain.ErrContractNotFound
	}
	return &contract, nil
}

func (r contractRepositoryImpl) GetAllContracts(
	_ context.Context,
) ([]*domain.Contract, error) {
	r.store.locker.Lock()
	defer r.store.locker.Unlock()

	return r.getContracts(func(domain.Contract) bool { return true }), nil
}

func (r contractRepositoryImpl) GetContractsForIdentity(
	_ context.Context, identity string,
) ([]*domain.Contract, error) {
	r.store.locker.Lock()
	defer r.store.locker.Unlock()

	return r.getContracts(func(c domain.Contract) bool {
		return c.Issuer == identity
	}), nil
}

func (r contractRepositoryImpl) getContracts(
	filter func(domain.Contract) bool,
) []*domain.Contract {
	contracts := make([]*domain.Contract, 0, len(r.store.contracts))
	for _, contract := range r.store.contracts {
		if filter(contract) {
			c := contract
			contracts = append(contracts, &c)
		}
	}
	sort.Slice(contracts, func(i, j int) bool {
		if contracts[i].CreatedAt != contracts[j].CreatedAt {
			return contracts[i].CreatedAt < contracts[j].CreatedAt
		}
		return contracts[i].ID < contracts[j].ID
	})
	return contracts
}
