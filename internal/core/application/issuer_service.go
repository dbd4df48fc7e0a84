package application

import (
	"context"

	log "github.com/sirupsen/logrus"

	"github.com/sealpay-network/sealpay-daemon/internal/core/domain"
	"github.com/sealpay-network/sealpay-daemon/internal/core/ports"
	"github.com/sealpay-network/sealpay-daemon/pkg/identity"
	"github.com/sealpay-network/sealpay-daemon/pkg/seal"
)

// IssuerService exposes contract issuance and the read-only catalog of
// contracts, interfaces and schemas.
type IssuerService interface {
	IssueContract(
		ctx context.Context, ident *identity.Identity,
		ticker, name, description string, precision uint32, supply string,
		sealDescriptor, iface string,
	) (*ContractInfo, error)
	ListContracts(ctx context.Context, ident *identity.Identity) ([]*ContractInfo, error)
	ListInterfaces(ctx context.Context) ([]InterfaceInfo, error)
	ListSchemas(ctx context.Context) ([]SchemaInfo, error)
}

type issuerService struct {
	repoManager ports.RepoManager
}

// NewIssuerService returns a new IssuerService using the given repositories.
func NewIssuerService(repoManager ports.RepoManager) IssuerService {
	return &issuerService{repoManager: repoManager}
}

func (s *issuerService) IssueContract(
	ctx context.Context, ident *identity.Identity,
	ticker, name, description string, precision uint32, supply string,
	sealDescriptor, iface string,
) (*ContractInfo, error) {
	if precision > domain.MaxPrecision {
		return nil, domain.ErrContractInvalidPrecision
	}
	supplyBaseUnits, err := parseAmount(supply, precision)
	if err != nil {
		return nil, domain.ErrContractInvalidSupply
	}
	genesisOutpoint, closeMethod, err := seal.ParseDescriptor(sealDescriptor)
	if err != nil {
		return nil, err
	}

	issuer := ident.Public()
	contract, err := domain.NewContract(
		issuer, ticker, name, description, precision, supplyBaseUnits, iface,
		*genesisOutpoint, closeMethod,
	)
	if err != nil {
		return nil, err
	}

	unlock := s.repoManager.LockIdentity(issuer)
	defer unlock()

	stored, err := s.repoManager.ContractRepository().AddContract(ctx, contract)
	if err != nil {
		return nil, err
	}
	if err := s.repoManager.AllocationRepository().AddAllocations(
		ctx, stored.GenesisAllocation(),
	); err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"contract": stored.ID,
		"ticker":   stored.Ticker,
		"supply":   stored.Supply,
	}).Info("issued new contract")

	return contractInfo(stored, stored.Supply), nil
}

func (s *issuerService) ListContracts(
	ctx context.Context, ident *identity.Identity,
) ([]*ContractInfo, error) {
	contracts, err := s.repoManager.ContractRepository().GetAllContracts(ctx)
	if err != nil {
		return nil, err
	}

	owner := ident.Public()
	infos := make([]*ContractInfo, 0, len(contracts))
	for _, contract := range contracts {
		balance, err := s.repoManager.AllocationRepository().GetBalanceForIdentity(
			ctx, contract.ID, owner,
		)
		if err != nil {
			return nil, err
		}
		infos = append(infos, contractInfo(contract, balance))
	}

	return infos, nil
}

func (s *issuerService) ListInterfaces(_ context.Context) ([]InterfaceInfo, error) {
	return []InterfaceInfo{
		{
			Name:        domain.InterfaceFungible,
			Description: "fungible asset with decimal precision and fixed supply",
		},
	}, nil
}

func (s *issuerService) ListSchemas(_ context.Context) ([]SchemaInfo, error) {
	return []SchemaInfo{
		{
			ID:          "spa20-fixed",
			Name:        "FixedSupplyFungible",
			Description: "fungible asset schema with a non-inflatable supply bound at genesis",
		},
	}, nil
}
