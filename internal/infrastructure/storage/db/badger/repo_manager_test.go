package dbbadger_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sealpay-network/sealpay-daemon/internal/core/domain"
	dbbadger "github.com/sealpay-network/sealpay-daemon/internal/infrastructure/storage/db/badger"
	"github.com/sealpay-network/sealpay-daemon/internal/core/ports"
	"github.com/sealpay-network/sealpay-daemon/pkg/seal"
)

var (
	testIdentity = strings.Repeat("02", 33)
	testTxID     = strings.Repeat("ab", 32)
)

func newTestRepoManager(t *testing.T) ports.RepoManager {
	t.Helper()

	// An empty datadir makes badger run in memory.
	repoManager, err := dbbadger.NewRepoManager("", nil)
	require.NoError(t, err)
	t.Cleanup(repoManager.Close)
	return repoManager
}

func TestContractRepository(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepoManager(t).ContractRepository()

	contract, err := domain.NewContract(
		testIdentity, "TICK", "Ticker Asset", "", 2, 100000, domain.InterfaceFungible,
		seal.Outpoint{TxID: testTxID, VOut: 0}, seal.CloseMethodTapretFirst,
	)
	require.NoError(t, err)

	stored, err := repo.AddContract(ctx, contract)
	require.NoError(t, err)
	require.Equal(t, contract.ID, stored.ID)

	// Issuance is idempotent: re-adding returns the stored record.
	again, err := repo.AddContract(ctx, contract)
	require.NoError(t, err)
	require.Equal(t, stored.ID, again.ID)

	found, err := repo.GetContract(ctx, contract.ID)
	require.NoError(t, err)
	require.Equal(t, contract.Ticker, found.Ticker)

	_, err = repo.GetContract(ctx, "unknown")
	require.ErrorIs(t, err, domain.ErrContractNotFound)

	byIssuer, err := repo.GetContractsForIdentity(ctx, testIdentity)
	require.NoError(t, err)
	require.Len(t, byIssuer, 1)
}

func TestInvoiceRepository(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepoManager(t).InvoiceRepository()

	revealed, _, err := seal.BlindWithFactor(seal.BlindOpts{
		Outpoint:    seal.Outpoint{TxID: testTxID, VOut: 1},
		CloseMethod: seal.CloseMethodOpretFirst,
	}, 7)
	require.NoError(t, err)

	invoice, err := domain.NewInvoice(
		testIdentity, "contract", domain.InterfaceFungible, 2500, revealed,
	)
	require.NoError(t, err)
	require.NoError(t, repo.AddInvoice(ctx, invoice))

	bySeal, err := repo.GetInvoiceBySeal(ctx, invoice.ConcealedSeal)
	require.NoError(t, err)
	require.Equal(t, invoice.ID, bySeal.ID)

	require.NoError(t, repo.UpdateInvoice(
		ctx, invoice.ID, func(i *domain.Invoice) (*domain.Invoice, error) {
			if err := i.Consume(); err != nil {
				return nil, err
			}
			return i, nil
		},
	))

	updated, err := repo.GetInvoice(ctx, invoice.ID)
	require.NoError(t, err)
	require.True(t, updated.Consumed)
}

func TestAllocationRepositoryAtomicSpend(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepoManager(t).AllocationRepository()

	seals := make([]seal.Concealed, 0, 2)
	for vout := uint32(0); vout < 2; vout++ {
		revealed, concealed, err := seal.BlindWithFactor(seal.BlindOpts{
			Outpoint:    seal.Outpoint{TxID: testTxID, VOut: vout},
			CloseMethod: seal.CloseMethodOpretFirst,
		}, uint64(vout)+1)
		require.NoError(t, err)
		require.NoError(t, repo.AddAllocations(ctx, domain.Allocation{
			ContractID: "contract",
			Seal:       concealed,
			Owner:      testIdentity,
			Amount:     100,
			Revealed:   revealed,
		}))
		seals = append(seals, concealed)
	}

	require.NoError(t, repo.SpendAllocations(ctx, "contract", seals[:1]))

	// A batch containing an already spent target fails without touching the
	// other targets.
	err := repo.SpendAllocations(ctx, "contract", seals)
	require.ErrorIs(t, err, domain.ErrAllocationAlreadySpent)

	other, err := repo.GetAllocation(ctx, "contract", seals[1])
	require.NoError(t, err)
	require.False(t, other.Spent)

	balance, err := repo.GetBalanceForIdentity(ctx, "contract", testIdentity)
	require.NoError(t, err)
	require.Equal(t, uint64(100), balance)
}
