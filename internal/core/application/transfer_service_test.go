package application_test

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sealpay-network/sealpay-daemon/internal/core/application"
	"github.com/sealpay-network/sealpay-daemon/internal/core/domain"
	"github.com/sealpay-network/sealpay-daemon/internal/core/ports"
	"github.com/sealpay-network/sealpay-daemon/internal/infrastructure/storage/db/inmemory"
	"github.com/sealpay-network/sealpay-daemon/pkg/identity"
	"github.com/sealpay-network/sealpay-daemon/pkg/seal"
)

var (
	payerKey    = strings.Repeat("11", 32)
	receiverKey = strings.Repeat("22", 32)
	genesisTxID = strings.Repeat("ab", 32)
	invoiceTxID = strings.Repeat("cd", 32)
)

type testServices struct {
	repoManager ports.RepoManager
	issuer      application.IssuerService
	invoicer    application.InvoiceService
	transferrer application.TransferService
}

func newTestServices(t *testing.T) *testServices {
	t.Helper()

	repoManager := inmemory.NewRepoManager()
	t.Cleanup(repoManager.Close)

	return &testServices{
		repoManager: repoManager,
		issuer:      application.NewIssuerService(repoManager),
		invoicer:    application.NewInvoiceService(repoManager),
		transferrer: application.NewTransferService(repoManager, nil),
	}
}

func newIdentity(t *testing.T, hexKey string) *identity.Identity {
	t.Helper()

	ident, err := identity.NewIdentity(hexKey)
	require.NoError(t, err)
	return ident
}

func issueTestContract(
	t *testing.T, svc *testServices, issuer *identity.Identity,
) *application.ContractInfo {
	t.Helper()

	contract, err := svc.issuer.IssueContract(
		context.Background(), issuer,
		"TICK", "Ticker Asset", "a test asset", 2, "10.00",
		fmt.Sprintf("tapret1st:%s:0", genesisTxID), domain.InterfaceFungible,
	)
	require.NoError(t, err)
	require.Equal(t, uint64(1000), contract.Supply)
	return contract
}

func TestTransferLifecycle(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc := newTestServices(t)
	payer := newIdentity(t, payerKey)
	receiver := newIdentity(t, receiverKey)

	contract := issueTestContract(t, svc, payer)

	invoice, err := svc.invoicer.CreateInvoice(
		ctx, receiver, contract.ContractID, domain.InterfaceFungible, "2.50",
		fmt.Sprintf("opret1st:%s:1", invoiceTxID),
	)
	require.NoError(t, err)

	unsigned, err := svc.transferrer.CreatePsbt(ctx, payer, invoice.Invoice)
	require.NoError(t, err)
	require.NotEmpty(t, unsigned.PsbtBase64)
	require.NotEmpty(t, unsigned.TxID)

	// The genesis allocation is locked by the pending transfer.
	_, err = svc.transferrer.CreatePsbt(ctx, payer, invoice.Invoice)
	require.ErrorIs(t, err, application.ErrInsufficientFunds)

	signed, err := svc.transferrer.Pay(ctx, payer, unsigned.PsbtBase64)
	require.NoError(t, err)
	require.Equal(t, unsigned.TxID, signed.TxID)
	require.NotEmpty(t, signed.Consignment)

	// Change went back to the payer: 10.00 - 2.50 at precision 2.
	balance, err := svc.repoManager.AllocationRepository().GetBalanceForIdentity(
		ctx, contract.ContractID, payer.Public(),
	)
	require.NoError(t, err)
	require.Equal(t, uint64(750), balance)

	result, err := svc.transferrer.AcceptTransfer(ctx, receiver, signed.Consignment, nil)
	require.NoError(t, err)
	require.True(t, result.Accepted)
	require.Equal(t, unsigned.TransitionID, result.TransitionID)

	balance, err = svc.repoManager.AllocationRepository().GetBalanceForIdentity(
		ctx, contract.ContractID, receiver.Public(),
	)
	require.NoError(t, err)
	require.Equal(t, uint64(250), balance)

	// Accepting the same consignment again is a no-op.
	result, err = svc.transferrer.AcceptTransfer(ctx, receiver, signed.Consignment, nil)
	require.NoError(t, err)
	require.True(t, result.Accepted)

	balance, err = svc.repoManager.AllocationRepository().GetBalanceForIdentity(
		ctx, contract.ContractID, receiver.Public(),
	)
	require.NoError(t, err)
	require.Equal(t, uint64(250), balance)

	// A consumed invoice cannot be paid again.
	_, err = svc.transferrer.CreatePsbt(ctx, payer, invoice.Invoice)
	require.ErrorIs(t, err, domain.ErrInvoiceAlreadyConsumed)
}

func TestAcceptTransferWithTamperedSeal(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc := newTestServices(t)
	payer := newIdentity(t, payerKey)
	receiver := newIdentity(t, receiverKey)

	contract := issueTestContract(t, svc, payer)

	invoice, err := svc.invoicer.CreateInvoice(
		ctx, receiver, contract.ContractID, domain.InterfaceFungible, "2.50",
		fmt.Sprintf("opret1st:%s:1", invoiceTxID),
	)
	require.NoError(t, err)

	unsigned, err := svc.transferrer.CreatePsbt(ctx, payer, invoice.Invoice)
	require.NoError(t, err)
	signed, err := svc.transferrer.Pay(ctx, payer, unsigned.PsbtBase64)
	require.NoError(t, err)

	// A revealed seal with the wrong blinding factor does not conceal to any
	// transition output.
	tampered, _, err := seal.BlindWithFactor(seal.BlindOpts{
		Outpoint:    seal.Outpoint{TxID: invoiceTxID, VOut: 1},
		CloseMethod: seal.CloseMethodOpretFirst,
	}, 999)
	require.NoError(t, err)

	result, err := svc.transferrer.AcceptTransfer(
		ctx, receiver, signed.Consignment, tampered,
	)
	require.NoError(t, err)
	require.False(t, result.Accepted)
	require.Equal(t, application.RejectReasonSealMismatch, result.Reason)

	// A malformed disclosed seal never matches any output either.
	malformed := &seal.Revealed{
		Method:   seal.CloseMethodOpretFirst,
		Outpoint: seal.Outpoint{TxID: "notahash", VOut: 1},
		Blinding: 999,
	}
	result, err = svc.transferrer.AcceptTransfer(
		ctx, receiver, signed.Consignment, malformed,
	)
	require.NoError(t, err)
	require.False(t, result.Accepted)
	require.Equal(t, application.RejectReasonSealMismatch, result.Reason)

	// The rejections mutated nothing, the genuine acceptance still works.
	result, err = svc.transferrer.AcceptTransfer(ctx, receiver, signed.Consignment, nil)
	require.NoError(t, err)
	require.True(t, result.Accepted)
}

func TestConcurrentPaySingleUseInvoice(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc := newTestServices(t)
	payer := newIdentity(t, payerKey)
	receiver := newIdentity(t, receiverKey)
	collector := newIdentity(t, strings.Repeat("44", 32))

	contract := issueTestContract(t, svc, payer)

	// Fund the receiver so that two distinct identities hold spendable
	// allocations of the same contract.
	funding, err := svc.invoicer.CreateInvoice(
		ctx, receiver, contract.ContractID, domain.InterfaceFungible, "2.50",
		fmt.Sprintf("opret1st:%s:1", invoiceTxID),
	)
	require.NoError(t, err)
	unsigned, err := svc.transferrer.CreatePsbt(ctx, payer, funding.Invoice)
	require.NoError(t, err)
	signed, err := svc.transferrer.Pay(ctx, payer, unsigned.PsbtBase64)
	require.NoError(t, err)
	result, err := svc.transferrer.AcceptTransfer(ctx, receiver, signed.Consignment, nil)
	require.NoError(t, err)
	require.True(t, result.Accepted)

	invoice, err := svc.invoicer.CreateInvoice(
		ctx, collector, contract.ContractID, domain.InterfaceFungible, "1.00",
		fmt.Sprintf("opret1st:%s:1", strings.Repeat("ee", 32)),
	)
	require.NoError(t, err)

	payerPsbt, err := svc.transferrer.CreatePsbt(ctx, payer, invoice.Invoice)
	require.NoError(t, err)
	receiverPsbt, err := svc.transferrer.CreatePsbt(ctx, receiver, invoice.Invoice)
	require.NoError(t, err)

	errs := make(chan error, 2)
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, err := svc.transferrer.Pay(ctx, payer, payerPsbt.PsbtBase64)
		errs <- err
	}()
	go func() {
		defer wg.Done()
		_, err := svc.transferrer.Pay(ctx, receiver, receiverPsbt.PsbtBase64)
		errs <- err
	}()
	wg.Wait()
	close(errs)

	failed := make([]error, 0, 2)
	for err := range errs {
		if err != nil {
			failed = append(failed, err)
		}
	}
	require.Len(t, failed, 1)
	require.ErrorIs(t, failed[0], domain.ErrInvoiceAlreadyConsumed)

	// Whoever lost the race kept its inputs untouched: exactly the invoice
	// amount left one of the two balances.
	payerBalance, err := svc.repoManager.AllocationRepository().GetBalanceForIdentity(
		ctx, contract.ContractID, payer.Public(),
	)
	require.NoError(t, err)
	receiverBalance, err := svc.repoManager.AllocationRepository().GetBalanceForIdentity(
		ctx, contract.ContractID, receiver.Public(),
	)
	require.NoError(t, err)
	require.Equal(t, uint64(900), payerBalance+receiverBalance)
	if payerBalance == 650 {
		require.Equal(t, uint64(250), receiverBalance)
	} else {
		require.Equal(t, uint64(750), payerBalance)
		require.Equal(t, uint64(150), receiverBalance)
	}
}

func TestAbandonedTransferNotPayable(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc := newTestServices(t)
	payer := newIdentity(t, payerKey)
	receiver := newIdentity(t, receiverKey)

	contract := issueTestContract(t, svc, payer)

	invoice, err := svc.invoicer.CreateInvoice(
		ctx, receiver, contract.ContractID, domain.InterfaceFungible, "2.50",
		fmt.Sprintf("opret1st:%s:1", invoiceTxID),
	)
	require.NoError(t, err)

	first, err := svc.transferrer.CreatePsbt(ctx, payer, invoice.Invoice)
	require.NoError(t, err)
	transfers, err := svc.transferrer.ListTransfers(ctx, payer)
	require.NoError(t, err)
	require.Len(t, transfers, 1)
	firstID := transfers[0].ID

	require.NoError(t, svc.transferrer.AbandonTransfer(ctx, payer, firstID))

	second, err := svc.transferrer.CreatePsbt(ctx, payer, invoice.Invoice)
	require.NoError(t, err)

	// Executing the abandoned transfer would spend the inputs reserved by
	// its replacement.
	_, err = svc.transferrer.Pay(ctx, payer, first.PsbtBase64)
	require.ErrorIs(t, err, application.ErrTransferNotPending)

	// Abandoning it twice would release those same inputs.
	require.ErrorIs(
		t, svc.transferrer.AbandonTransfer(ctx, payer, firstID),
		application.ErrTransferNotPending,
	)

	_, err = svc.transferrer.Pay(ctx, payer, second.PsbtBase64)
	require.NoError(t, err)
}

func TestPayWithForeignIdentity(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc := newTestServices(t)
	payer := newIdentity(t, payerKey)
	receiver := newIdentity(t, receiverKey)

	contract := issueTestContract(t, svc, payer)

	invoice, err := svc.invoicer.CreateInvoice(
		ctx, receiver, contract.ContractID, domain.InterfaceFungible, "1.00",
		fmt.Sprintf("opret1st:%s:1", invoiceTxID),
	)
	require.NoError(t, err)

	unsigned, err := svc.transferrer.CreatePsbt(ctx, payer, invoice.Invoice)
	require.NoError(t, err)

	_, err = svc.transferrer.Pay(ctx, receiver, unsigned.PsbtBase64)
	require.ErrorIs(t, err, application.ErrSigningKeyNotOwned)
}

func TestAbandonTransfer(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc := newTestServices(t)
	payer := newIdentity(t, payerKey)
	receiver := newIdentity(t, receiverKey)

	contract := issueTestContract(t, svc, payer)

	invoice, err := svc.invoicer.CreateInvoice(
		ctx, receiver, contract.ContractID, domain.InterfaceFungible, "2.50",
		fmt.Sprintf("opret1st:%s:1", invoiceTxID),
	)
	require.NoError(t, err)

	unsigned, err := svc.transferrer.CreatePsbt(ctx, payer, invoice.Invoice)
	require.NoError(t, err)

	transfers, err := svc.transferrer.ListTransfers(ctx, payer)
	require.NoError(t, err)
	require.Len(t, transfers, 1)

	require.NoError(t, svc.transferrer.AbandonTransfer(ctx, payer, transfers[0].ID))

	// The inputs are released and can back a new transfer. The transaction
	// is rebuilt on the same inputs and outputs, the change seal gets a fresh
	// blinding.
	retried, err := svc.transferrer.CreatePsbt(ctx, payer, invoice.Invoice)
	require.NoError(t, err)
	require.Equal(t, unsigned.TxID, retried.TxID)
	require.NotEqual(t, unsigned.TransitionID, retried.TransitionID)
}

func TestBlobService(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repoManager := inmemory.NewRepoManager()
	t.Cleanup(repoManager.Close)
	svc := application.NewBlobService(repoManager)
	owner := newIdentity(t, payerKey)

	require.ErrorIs(
		t, svc.PutBlob(ctx, owner, "../escape", []byte("data")),
		application.ErrInvalidResourceName,
	)
	_, err := svc.GetBlob(ctx, "notapubkey", "wallet.backup")
	require.ErrorIs(t, err, identity.ErrInvalidPublicKey)

	_, err = svc.GetBlob(ctx, owner.Public(), "wallet.backup")
	require.ErrorIs(t, err, domain.ErrBlobNotFound)

	require.NoError(t, svc.PutBlob(ctx, owner, "wallet.backup", []byte("v1")))

	// Reads are owner-addressed: any identity retrieves the payload by the
	// owner's public key.
	data, err := svc.GetBlob(ctx, owner.Public(), "wallet.backup")
	require.NoError(t, err)
	require.Equal(t, []byte("v1"), data)
}
