package dbbadger

import (
	"context"
	"errors"
	"sort"

	"github.com/timshannon/badgerhold/v4"

	"github.com/sealpay-network/sealpay-daemon/internal/core/domain"
)

type contractRepositoryImpl struct {
	store *badgerhold.Store
}

// NewContractRepositoryImpl returns a badger ContractRepository
// implementation.
func NewContractRepositoryImpl(store *badgerhold.Store) domain.ContractRepository {
	return contractRepositoryImpl{store}
}

func (r contractRepositoryImpl) AddContract(
	_ context.Context, contract *domain.Contract,
) (*domain.Contract, error) {
	if err := r.store.Insert(contract.ID, *contract); err != nil {
		if errors.Is(err, badgerhold.ErrKeyExists) {
			var stored domain.Contract
			if err := r.store.Get(contract.ID, &stored); err != nil {
				return nil, err
			}
			return &stored, nil
		}
		return nil, err
	}
	return contract, nil
}

func (r contractRepositoryImpl) GetContract(
	_ context.Context, contractID string,
) (*domain.Contract, error) {
	var contract domain.Contract
	if err := r.store.Get(contractID, &contract); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil, domain.ErrContractNotFound
		}
		return nil, err
	}
	return &contract, nil
}

func (r contractRepositoryImpl) GetAllContracts(
	_ context.Context,
) ([]*domain.Contract, error) {
	return r.findContracts(&badgerhold.Query{})
}

func (r contractRepositoryImpl) GetContractsForIdentity(
	_ context.Context, identity string,
) ([]*domain.Contract, error) {
	return r.findContracts(badgerhold.Where("Issuer").Eq(identity))
}

func (r contractRepositoryImpl) findContracts(
	query *badgerhold.Query,
) ([]*domain.Contract, error) {
	var found []domain.Contract
	if err := r.store.Find(&found, query); err != nil {
		return nil, err
	}

	contracts := make([]*domain.Contract, 0, len(found))
	for i := range found {
		contracts = append(contracts, &found[i])
	}
	sort.Slice(contracts, func(i, j int) bool {
		if contracts[i].CreatedAt != contracts[j].CreatedAt {
			return contracts[i].CreatedAt < contracts[j].CreatedAt
		}
		return contracts[i].ID < contracts[j].ID
	})
	return contracts, nil
}
