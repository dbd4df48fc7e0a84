package domain

import "context"

// ContractRepository is the abstraction for any kind of database intended to
// persist issued Contracts.
type ContractRepository interface {
	// AddContract stores a new contract. Adding a contract whose id is
	// already present is a no-op returning the stored contract, so that
	// idempotent issuance retries succeed.
	AddContract(ctx context.Context, contract *Contract) (*Contract, error)
	// GetContract returns the contract with the given id, or
	// ErrContractNotFound.
	GetContract(ctx context.Context, contractID string) (*Contract, error)
	// GetAllContracts returns all contracts ordered by creation time, then id.
	GetAllContracts(ctx context.Context) ([]*Contract, error)
	// GetContractsForIdentity returns the contracts issued by the given
	// identity, ordered by creation time, then id.
	GetContractsForIdentity(ctx context.Context, identity string) ([]*Contract, error)
}
