package application

import "errors"

var (
	// ErrInsufficientFunds is returned when no set of unspent allocations
	// covers the invoice amount.
	ErrInsufficientFunds = errors.New("insufficient funds to cover the invoice amount")
	// ErrSigningKeyNotOwned is returned when the identity executing a
	// payment does not own the inputs of the transfer.
	ErrSigningKeyNotOwned = errors.New(
		"signing key does not own the inputs of the transfer",
	)
	// ErrContractUnknownInterface is returned when a contract is requested
	// under an interface it was not issued with.
	ErrContractUnknownInterface = errors.New(
		"contract is not known under the requested interface",
	)
	// ErrAmountNotRepresentable is returned when an amount cannot be
	// expressed exactly at the contract's precision.
	ErrAmountNotRepresentable = errors.New(
		"amount is not representable at the contract precision",
	)
	// ErrInvalidResourceName ...
	ErrInvalidResourceName = errors.New(
		"resource name must be a non-empty string of at most 128 safe characters",
	)
	// ErrTransferNotPending is returned when paying a transfer that is not
	// in the pending state.
	ErrTransferNotPending = errors.New("transfer is not pending")
	// ErrSigningFailed wraps any failure while signing the psbt inputs. The
	// transfer is flagged as failed to sign and must be abandoned before its
	// inputs can back a new one.
	ErrSigningFailed = errors.New("failed to sign transfer")
)

// RejectReason explains why a transfer acceptance was refused. Rejections
// are side-effect-free and not fatal: the caller may retry with a corrected
// transfer.
type RejectReason string

const (
	// RejectReasonSealMismatch ...
	RejectReasonSealMismatch RejectReason = "disclosed seal does not match the transition output"
	// RejectReasonUnknownInputs ...
	RejectReasonUnknownInputs RejectReason = "transition closes seals never committed to the ledger"
	// RejectReasonInputsNotClosed ...
	RejectReasonInputsNotClosed RejectReason = "transition inputs have not been closed by an executed transfer"
	// RejectReasonAmountMismatch ...
	RejectReasonAmountMismatch RejectReason = "transition amounts do not match the committed ledger"
	// RejectReasonInvalidTransition ...
	RejectReasonInvalidTransition RejectReason = "transition is structurally invalid"
	// RejectReasonUnknownContract ...
	RejectReasonUnknownContract RejectReason = "transition references an unknown contract"
	// RejectReasonMissingSignature ...
	RejectReasonMissingSignature RejectReason = "transfer carries no valid payer signature"
)
