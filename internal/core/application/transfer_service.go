package application

import (
	"bytes"
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"sort"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil/psbt"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/sealpay-network/sealpay-daemon/internal/core/domain"
	"github.com/sealpay-network/sealpay-daemon/internal/core/ports"
	"github.com/sealpay-network/sealpay-daemon/pkg/explorer"
	"github.com/sealpay-network/sealpay-daemon/pkg/identity"
	"github.com/sealpay-network/sealpay-daemon/pkg/psbtutil"
	"github.com/sealpay-network/sealpay-daemon/pkg/seal"
	"github.com/sealpay-network/sealpay-daemon/pkg/transition"
)

// TransferService drives the psbt, pay and accept stages of the transfer
// lifecycle.
type TransferService interface {
	// CreatePsbt builds the unsigned transfer paying the given invoice,
	// locking the selected input allocations.
	CreatePsbt(
		ctx context.Context, ident *identity.Identity, invoice string,
	) (*UnsignedTransfer, error)
	// Pay signs the psbt and executes the transfer: input allocations are
	// spent, the invoice is consumed and the change allocation is credited,
	// atomically with respect to other writers of the same identity.
	Pay(
		ctx context.Context, ident *identity.Identity, psbtBase64 string,
	) (*SignedTransfer, error)
	// AcceptTransfer validates an incoming consignment against the local
	// ledger and either commits its transition or rejects it without side
	// effects. The disclosed seal defaults to the one retained with the
	// local invoice matching the payment output.
	AcceptTransfer(
		ctx context.Context, ident *identity.Identity,
		consignment string, disclosed *seal.Revealed,
	) (*AcceptResult, error)
	// AbandonTransfer releases the allocations locked by a pending,
	// never-executed transfer.
	AbandonTransfer(
		ctx context.Context, ident *identity.Identity, transferID uuid.UUID,
	) error
	// ListTransfers returns the transfers created by the given identity.
	ListTransfers(
		ctx context.Context, ident *identity.Identity,
	) ([]*domain.Transfer, error)
}

type transferService struct {
	repoManager ports.RepoManager
	explorerSvc explorer.Service
}

// NewTransferService returns a new TransferService using the given
// repositories. The explorer service is optional: when nil, witness
// transactions are not broadcast and publishing is left to the caller.
func NewTransferService(
	repoManager ports.RepoManager, explorerSvc explorer.Service,
) TransferService {
	return &transferService{
		repoManager: repoManager,
		explorerSvc: explorerSvc,
	}
}

func (s *transferService) CreatePsbt(
	ctx context.Context, ident *identity.Identity, invoice string,
) (*UnsignedTransfer, error) {
	terms, err := domain.ParseInvoiceTerms(invoice)
	if err != nil {
		return nil, err
	}

	contract, err := s.repoManager.ContractRepository().GetContract(
		ctx, terms.ContractID,
	)
	if err != nil {
		return nil, err
	}
	if contract.Interface != terms.Interface {
		return nil, ErrContractUnknownInterface
	}

	if err := s.checkInvoiceNotConsumed(ctx, terms); err != nil {
		return nil, err
	}

	payer := ident.Public()
	unlock := s.repoManager.LockIdentity(payer)
	defer unlock()

	available, err := s.repoManager.AllocationRepository().
		GetAvailableAllocationsForIdentity(ctx, contract.ID, payer)
	if err != nil {
		return nil, err
	}
	selected, total, err := selectAllocations(available, terms.Amount)
	if err != nil {
		return nil, err
	}

	inputs := make([]transition.Assignment, 0, len(selected))
	outpoints := make([]seal.Outpoint, 0, len(selected))
	inputSeals := make([]seal.Concealed, 0, len(selected))
	for _, allocation := range selected {
		inputs = append(inputs, transition.Assignment{
			Seal: allocation.Seal, Amount: allocation.Amount,
		})
		outpoints = append(outpoints, allocation.Revealed.Outpoint)
		inputSeals = append(inputSeals, allocation.Seal)
	}
	payment := transition.Assignment{Seal: terms.ConcealedSeal, Amount: terms.Amount}
	changeAmount := total - terms.Amount

	anchor := transition.Anchor(
		contract.ID, inputs, []transition.Assignment{payment},
	)
	packet, err := psbtutil.Build(psbtutil.BuildOpts{
		Anchor:       anchor[:],
		Outpoints:    outpoints,
		ChangePubkey: changePubkey(ident, changeAmount),
	})
	if err != nil {
		return nil, err
	}
	txid := psbtutil.TxID(packet)

	st := transition.StateTransition{
		ContractID: contract.ID,
		Inputs:     inputs,
		Outputs:    []transition.Assignment{payment},
	}
	var changeSeal *seal.Revealed
	if changeAmount > 0 {
		var changeConcealed seal.Concealed
		changeSeal, changeConcealed, err = seal.Blind(seal.BlindOpts{
			Outpoint:    seal.Outpoint{TxID: txid, VOut: 1},
			CloseMethod: seal.CloseMethodOpretFirst,
		})
		if err != nil {
			return nil, err
		}
		st.Outputs = append(st.Outputs, transition.Assignment{
			Seal: changeConcealed, Amount: changeAmount,
		})
	}
	if err := psbtutil.EmbedTransition(packet, &st); err != nil {
		return nil, err
	}
	psbtBase64, err := psbtutil.Encode(packet)
	if err != nil {
		return nil, err
	}

	transfer := domain.NewTransfer(payer, s.invoiceID(ctx, terms), st, psbtBase64, txid)
	transfer.ChangeSeal = changeSeal

	if err := s.repoManager.TransferRepository().AddTransfer(ctx, transfer); err != nil {
		return nil, err
	}
	if err := s.repoManager.AllocationRepository().LockAllocations(
		ctx, contract.ID, inputSeals, transfer.ID,
	); err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"transfer":   transfer.ID,
		"transition": transfer.TransitionID,
		"inputs":     len(inputs),
		"change":     changeAmount,
	}).Info("built unsigned transfer")

	return &UnsignedTransfer{
		TransferID:   transfer.ID.String(),
		TransitionID: transfer.TransitionID,
		PsbtBase64:   psbtBase64,
		TxID:         txid,
	}, nil
}

func (s *transferService) Pay(
	ctx context.Context, ident *identity.Identity, psbtBase64 string,
) (*SignedTransfer, error) {
	packet, err := psbtutil.Decode(psbtBase64)
	if err != nil {
		return nil, err
	}
	st, err := psbtutil.ExtractTransition(packet)
	if err != nil {
		return nil, err
	}

	transfer, err := s.repoManager.TransferRepository().GetTransferByTransitionID(
		ctx, st.ID(),
	)
	if err != nil {
		return nil, err
	}
	payer := ident.Public()
	if transfer.CreatedBy != payer {
		return nil, ErrSigningKeyNotOwned
	}
	if !transfer.IsPending() || transfer.Status.Failed {
		return nil, ErrTransferNotPending
	}

	// Signing only mutates the in-memory packet, stored state is untouched
	// until the commit point below.
	if err := psbtutil.Sign(psbtutil.SignOpts{
		Packet:     packet,
		SigningKey: ident.PrivateKey(),
	}); err != nil {
		return nil, s.failSigning(ctx, transfer, err)
	}
	signedPsbt, err := psbtutil.Encode(packet)
	if err != nil {
		return nil, s.failSigning(ctx, transfer, err)
	}

	if err := s.broadcast(ctx, packet); err != nil {
		return nil, err
	}

	unlock := s.repoManager.LockIdentity(payer)
	defer unlock()

	if err := s.commitPayment(ctx, payer, transfer, st, signedPsbt); err != nil {
		return nil, err
	}

	consignment := &transition.Consignment{Transition: *st, TxID: transfer.TxID}
	encoded, err := consignment.Encode()
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"transfer": transfer.ID,
		"txid":     transfer.TxID,
	}).Info("executed transfer")

	return &SignedTransfer{
		TransferID:  transfer.ID.String(),
		TxID:        transfer.TxID,
		PsbtBase64:  signedPsbt,
		Consignment: encoded,
	}, nil
}

// commitPayment is the single commit point of the pay stage: it is entered
// only once signing (and broadcast, when enabled) succeeded, and it is
// serialized with any other writer of the payer's state. The invoice is
// shared across payers, so its consumption is additionally serialized on the
// invoice lock and committed before any allocation is spent: a payer losing
// the race fails with its own state untouched.
func (s *transferService) commitPayment(
	ctx context.Context, payer string, transfer *domain.Transfer,
	st *transition.StateTransition, signedPsbt string,
) error {
	allocationRepo := s.repoManager.AllocationRepository()

	inputSeals := make([]seal.Concealed, 0, len(st.Inputs))
	for _, input := range st.Inputs {
		allocation, err := allocationRepo.GetAllocation(ctx, st.ContractID, input.Seal)
		if err != nil {
			return err
		}
		if allocation.Owner != payer {
			return ErrSigningKeyNotOwned
		}
		if allocation.Spent {
			return domain.ErrAllocationAlreadySpent
		}
		if allocation.LockedBy == nil || *allocation.LockedBy != transfer.ID {
			return domain.ErrAllocationLocked
		}
		inputSeals = append(inputSeals, input.Seal)
	}

	invoice, err := s.repoManager.InvoiceRepository().GetInvoiceBySeal(
		ctx, st.Outputs[0].Seal,
	)
	if err != nil && !errors.Is(err, domain.ErrInvoiceNotFound) {
		return err
	}
	if invoice != nil {
		unlockInvoice := s.repoManager.LockInvoice(invoice.ID)
		defer unlockInvoice()

		if err := s.repoManager.InvoiceRepository().UpdateInvoice(
			ctx, invoice.ID, func(i *domain.Invoice) (*domain.Invoice, error) {
				if err := i.Consume(); err != nil {
					return nil, err
				}
				return i, nil
			},
		); err != nil {
			return err
		}
	}

	if err := allocationRepo.SpendAllocations(
		ctx, st.ContractID, inputSeals,
	); err != nil {
		return err
	}
	if transfer.ChangeSeal != nil {
		changeAssignment := st.Outputs[len(st.Outputs)-1]
		if err := allocationRepo.AddAllocations(ctx, domain.Allocation{
			ContractID: st.ContractID,
			Seal:       changeAssignment.Seal,
			Owner:      payer,
			Amount:     changeAssignment.Amount,
			Revealed:   transfer.ChangeSeal,
		}); err != nil {
			return err
		}
	}

	return s.repoManager.TransferRepository().UpdateTransfer(
		ctx, transfer.ID, func(t *domain.Transfer) (*domain.Transfer, error) {
			t.Sign(signedPsbt)
			*transfer = *t
			return t, nil
		},
	)
}

func (s *transferService) AcceptTransfer(
	ctx context.Context, ident *identity.Identity,
	consignment string, disclosed *seal.Revealed,
) (*AcceptResult, error) {
	decoded, err := transition.DecodeConsignment(consignment)
	if err != nil {
		if errors.Is(err, transition.ErrInvalidConsignment) {
			return nil, err
		}
		return rejected("", RejectReasonInvalidTransition), nil
	}
	st := decoded.Transition
	transitionID := st.ID()

	// Accepting the same transition twice is a no-op.
	transfer, err := s.repoManager.TransferRepository().GetTransferByTransitionID(
		ctx, transitionID,
	)
	if err != nil && !errors.Is(err, domain.ErrTransferNotFound) {
		return nil, err
	}
	if transfer != nil && transfer.IsAccepted() {
		return &AcceptResult{TransitionID: transitionID, Accepted: true}, nil
	}

	if _, err := s.repoManager.ContractRepository().GetContract(
		ctx, st.ContractID,
	); err != nil {
		if errors.Is(err, domain.ErrContractNotFound) {
			return rejected(transitionID, RejectReasonUnknownContract), nil
		}
		return nil, err
	}

	if disclosed == nil {
		disclosed = decoded.DisclosedSeal
	}
	payment, invoice, disclosed, reason := s.resolvePayment(ctx, &st, disclosed)
	if reason != "" {
		return rejected(transitionID, reason), nil
	}
	if invoice != nil && invoice.Amount != payment.Amount {
		return rejected(transitionID, RejectReasonAmountMismatch), nil
	}

	if reason := s.verifyInputs(ctx, &st); reason != "" {
		return rejected(transitionID, reason), nil
	}
	if reason := s.verifyPayerSignature(transfer); reason != "" {
		return rejected(transitionID, reason), nil
	}

	receiver := ident.Public()
	unlock := s.repoManager.LockIdentity(receiver)
	defer unlock()

	// Commit: every validation passed, mutations start here.
	if transfer == nil {
		transfer = domain.NewTransfer("", uuid.Nil, st, "", decoded.TxID)
		if err := s.repoManager.TransferRepository().AddTransfer(
			ctx, transfer,
		); err != nil {
			return nil, err
		}
	}
	if err := s.repoManager.TransferRepository().UpdateTransfer(
		ctx, transfer.ID, func(t *domain.Transfer) (*domain.Transfer, error) {
			t.Accept()
			return t, nil
		},
	); err != nil {
		return nil, err
	}
	if err := s.repoManager.AllocationRepository().AddAllocations(
		ctx, domain.Allocation{
			ContractID: st.ContractID,
			Seal:       payment.Seal,
			Owner:      receiver,
			Amount:     payment.Amount,
			Revealed:   disclosed,
		},
	); err != nil {
		return nil, err
	}
	if invoice != nil && !invoice.Consumed {
		if err := s.repoManager.InvoiceRepository().UpdateInvoice(
			ctx, invoice.ID, func(i *domain.Invoice) (*domain.Invoice, error) {
				if !i.Consumed {
					if err := i.Consume(); err != nil {
						return nil, err
					}
				}
				return i, nil
			},
		); err != nil {
			return nil, err
		}
	}

	log.WithFields(log.Fields{
		"transition": transitionID,
		"contract":   st.ContractID,
		"amount":     payment.Amount,
	}).Info("accepted incoming transfer")

	return &AcceptResult{TransitionID: transitionID, Accepted: true}, nil
}

func (s *transferService) AbandonTransfer(
	ctx context.Context, ident *identity.Identity, transferID uuid.UUID,
) error {
	owner := ident.Public()
	unlock := s.repoManager.LockIdentity(owner)
	defer unlock()

	transfer, err := s.repoManager.TransferRepository().GetTransfer(ctx, transferID)
	if err != nil {
		return err
	}
	if transfer.CreatedBy != owner {
		return ErrSigningKeyNotOwned
	}
	if !transfer.IsPending() {
		return ErrTransferNotPending
	}

	inputSeals := make([]seal.Concealed, 0, len(transfer.Transition.Inputs))
	for _, input := range transfer.Transition.Inputs {
		inputSeals = append(inputSeals, input.Seal)
	}
	if err := s.repoManager.AllocationRepository().UnlockAllocations(
		ctx, transfer.ContractID, inputSeals,
	); err != nil {
		return err
	}

	return s.repoManager.TransferRepository().UpdateTransfer(
		ctx, transferID, func(t *domain.Transfer) (*domain.Transfer, error) {
			t.Abandon()
			return t, nil
		},
	)
}

// failSigning flags the transfer as failed to sign. Its inputs stay locked
// until the payer abandons it.
func (s *transferService) failSigning(
	ctx context.Context, transfer *domain.Transfer, cause error,
) error {
	if err := s.repoManager.TransferRepository().UpdateTransfer(
		ctx, transfer.ID, func(t *domain.Transfer) (*domain.Transfer, error) {
			t.Fail()
			return t, nil
		},
	); err != nil {
		log.WithError(err).Warn("could not flag transfer after signing failure")
	}
	return fmt.Errorf("%w: %s", ErrSigningFailed, cause)
}

func (s *transferService) ListTransfers(
	ctx context.Context, ident *identity.Identity,
) ([]*domain.Transfer, error) {
	return s.repoManager.TransferRepository().GetAllTransfersForIdentity(
		ctx, ident.Public(),
	)
}

// resolvePayment locates the transition output targeted at the receiver and
// resolves the revealed form of its seal: either the one disclosed by the
// caller, checked against the transition, or the one retained with the local
// invoice the output pays.
func (s *transferService) resolvePayment(
	ctx context.Context, st *transition.StateTransition, disclosed *seal.Revealed,
) (*transition.Assignment, *domain.Invoice, *seal.Revealed, RejectReason) {
	if disclosed != nil {
		if err := disclosed.Validate(); err != nil {
			return nil, nil, nil, RejectReasonSealMismatch
		}
		concealed := disclosed.Conceal()
		for i := range st.Outputs {
			if st.Outputs[i].Seal != concealed {
				continue
			}
			invoice, err := s.repoManager.InvoiceRepository().GetInvoiceBySeal(
				ctx, concealed,
			)
			if err != nil && !errors.Is(err, domain.ErrInvoiceNotFound) {
				return nil, nil, nil, RejectReasonSealMismatch
			}
			return &st.Outputs[i], invoice, disclosed, ""
		}
		return nil, nil, nil, RejectReasonSealMismatch
	}

	for i := range st.Outputs {
		invoice, err := s.repoManager.InvoiceRepository().GetInvoiceBySeal(
			ctx, st.Outputs[i].Seal,
		)
		if err != nil || invoice.RevealedSeal == nil {
			continue
		}
		return &st.Outputs[i], invoice, invoice.RevealedSeal, ""
	}
	return nil, nil, nil, RejectReasonSealMismatch
}

// verifyInputs checks that every seal the transition claims to close was
// previously committed to the ledger with the claimed amount and has been
// closed by an executed transfer.
func (s *transferService) verifyInputs(
	ctx context.Context, st *transition.StateTransition,
) RejectReason {
	for _, input := range st.Inputs {
		allocation, err := s.repoManager.AllocationRepository().GetAllocation(
			ctx, st.ContractID, input.Seal,
		)
		if err != nil {
			return RejectReasonUnknownInputs
		}
		if allocation.Amount != input.Amount {
			return RejectReasonAmountMismatch
		}
		if !allocation.Spent {
			return RejectReasonInputsNotClosed
		}
	}
	return ""
}

// verifyPayerSignature checks the payer signatures on the stored psbt when
// the transfer was built by this daemon. Foreign consignments carry no psbt
// and are accepted on ledger evidence alone.
func (s *transferService) verifyPayerSignature(transfer *domain.Transfer) RejectReason {
	if transfer == nil || transfer.PsbtBase64 == "" || transfer.CreatedBy == "" {
		return ""
	}
	packet, err := psbtutil.Decode(transfer.PsbtBase64)
	if err != nil {
		return RejectReasonMissingSignature
	}
	pubkey, err := identity.ParsePublicKey(transfer.CreatedBy)
	if err != nil {
		return RejectReasonMissingSignature
	}
	ok, err := psbtutil.Verify(psbtutil.VerifyOpts{Packet: packet, Pubkey: pubkey})
	if err != nil || !ok {
		return RejectReasonMissingSignature
	}
	return ""
}

// broadcast publishes the witness transaction when an explorer is
// configured. A broadcast failure aborts the payment before any state is
// committed.
func (s *transferService) broadcast(ctx context.Context, packet *psbt.Packet) error {
	if s.explorerSvc == nil {
		return nil
	}
	var buf bytes.Buffer
	if err := packet.UnsignedTx.Serialize(&buf); err != nil {
		return err
	}
	txid, err := s.explorerSvc.BroadcastTransaction(
		ctx, hex.EncodeToString(buf.Bytes()),
	)
	if err != nil {
		return err
	}
	log.WithField("txid", txid).Debug("broadcast witness transaction")
	return nil
}

// checkInvoiceNotConsumed enforces the single-use property of invoices at
// psbt-building time: a consumed invoice record or an already-committed
// payment allocation both mean the invoice was used.
func (s *transferService) checkInvoiceNotConsumed(
	ctx context.Context, terms *domain.InvoiceTerms,
) error {
	invoice, err := s.repoManager.InvoiceRepository().GetInvoiceBySeal(
		ctx, terms.ConcealedSeal,
	)
	if err != nil && !errors.Is(err, domain.ErrInvoiceNotFound) {
		return err
	}
	if invoice != nil && invoice.Consumed {
		return domain.ErrInvoiceAlreadyConsumed
	}

	if _, err := s.repoManager.AllocationRepository().GetAllocation(
		ctx, terms.ContractID, terms.ConcealedSeal,
	); err == nil {
		return domain.ErrInvoiceAlreadyConsumed
	}
	return nil
}

func (s *transferService) invoiceID(
	ctx context.Context, terms *domain.InvoiceTerms,
) uuid.UUID {
	invoice, err := s.repoManager.InvoiceRepository().GetInvoiceBySeal(
		ctx, terms.ConcealedSeal,
	)
	if err != nil {
		return uuid.Nil
	}
	return invoice.ID
}

func changePubkey(ident *identity.Identity, changeAmount uint64) *btcec.PublicKey {
	if changeAmount == 0 {
		return nil
	}
	return ident.PrivateKey().PubKey()
}

func rejected(transitionID string, reason RejectReason) *AcceptResult {
	return &AcceptResult{TransitionID: transitionID, Reason: reason}
}

// selectAllocations picks a covering set for the target amount: the
// smallest single allocation able to cover it when one exists, otherwise a
// greedy largest-first set, minimizing change fragmentation.
func selectAllocations(
	available []domain.Allocation, target uint64,
) ([]domain.Allocation, uint64, error) {
	candidates := make([]domain.Allocation, 0, len(available))
	for _, allocation := range available {
		// Only seals whose outpoint is known locally can back psbt inputs.
		if allocation.Revealed != nil {
			candidates = append(candidates, allocation)
		}
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Amount != candidates[j].Amount {
			return candidates[i].Amount > candidates[j].Amount
		}
		return bytes.Compare(
			candidates[i].Seal[:], candidates[j].Seal[:],
		) < 0
	})

	// Prefer the single smallest allocation covering the whole amount.
	for i := len(candidates) - 1; i >= 0; i-- {
		if candidates[i].Amount >= target {
			return candidates[i : i+1], candidates[i].Amount, nil
		}
	}

	selected := make([]domain.Allocation, 0, len(candidates))
	var total uint64
	for _, allocation := range candidates {
		selected = append(selected, allocation)
		total += allocation.Amount
		if total >= target {
			return selected, total, nil
		}
	}

	return nil, 0, ErrInsufficientFunds
}
