package domain

import (
	"time"

	"github.com/google/uuid"

	"github.com/sealpay-network/sealpay-daemon/pkg/seal"
	"github.com/sealpay-network/sealpay-daemon/pkg/transition"
)

// StatusCode enumerates the stages of the transfer lifecycle.
type StatusCode int

const (
	// StatusUndefined ...
	StatusUndefined StatusCode = iota
	// StatusPending marks a transfer whose psbt has been built but not
	// signed yet; its input allocations are locked.
	StatusPending
	// StatusSigned marks an executed transfer: psbt signed, input
	// allocations spent, invoice consumed.
	StatusSigned
	// StatusAccepted marks a transfer whose state transition has been
	// committed to the receiver's ledger.
	StatusAccepted
	// StatusAbandoned marks a transfer the payer gave up on before executing
	// it; its input allocations have been released. Terminal.
	StatusAbandoned
)

var (
	// EmptyStatus represents the status of an empty transfer.
	EmptyStatus = Status{Code: StatusUndefined}
	// PendingStatus represents the status of a built, unsigned transfer.
	PendingStatus = Status{Code: StatusPending}
	// SignedStatus represents the status of an executed transfer waiting for
	// acceptance by the receiver.
	SignedStatus = Status{Code: StatusSigned}
	// FailedToSignStatus represents the status of a transfer whose signing
	// failed; its allocations stay locked until explicitly abandoned.
	FailedToSignStatus = Status{Code: StatusPending, Failed: true}
	// AcceptedStatus represents the status of a completed transfer.
	AcceptedStatus = Status{Code: StatusAccepted}
	// AbandonedStatus represents the status of a transfer the payer gave up
	// on; it can neither be executed nor abandoned again.
	AbandonedStatus = Status{Code: StatusAbandoned}
)

// Status represents the different statuses that a transfer between a payer
// and a receiver can assume.
type Status struct {
	Code   StatusCode
	Failed bool
}

// Timestamp collects the times at which the transfer went through its
// lifecycle stages.
type Timestamp struct {
	Create uint64
	Sign   uint64
	Accept uint64
}

// Transfer tracks a state transition through the psbt, pay and accept
// stages. It is owned by the payer until acceptance.
type Transfer struct {
	ID           uuid.UUID
	ContractID   string
	TransitionID string
	InvoiceID    uuid.UUID
	Status       Status
	Transition   transition.StateTransition
	PsbtBase64   string
	TxID         string
	CreatedBy    string
	// ChangeSeal is the revealed form of the payer's change seal, retained
	// so the change allocation can be spent in later transfers.
	ChangeSeal *seal.Revealed
	Timestamp  Timestamp
}

// NewTransfer returns a pending transfer wrapping the given transition.
func NewTransfer(
	createdBy string, invoiceID uuid.UUID,
	st transition.StateTransition, psbtBase64, txID string,
) *Transfer {
	return &Transfer{
		ID:           uuid.New(),
		ContractID:   st.ContractID,
		TransitionID: st.ID(),
		InvoiceID:    invoiceID,
		Status:       PendingStatus,
		Transition:   st,
		PsbtBase64:   psbtBase64,
		TxID:         txID,
		CreatedBy:    createdBy,
		Timestamp:    Timestamp{Create: uint64(time.Now().Unix())},
	}
}

// IsPending returns whether the transfer is built but not yet executed.
func (t *Transfer) IsPending() bool {
	return t.Status.Code == StatusPending
}

// IsAccepted returns whether the transfer has been committed by the
// receiver.
func (t *Transfer) IsAccepted() bool {
	return t.Status.Code == StatusAccepted
}

// Sign records the signed psbt and moves the transfer to the signed status.
func (t *Transfer) Sign(signedPsbt string) {
	t.PsbtBase64 = signedPsbt
	t.Status = SignedStatus
	t.Timestamp.Sign = uint64(time.Now().Unix())
}

// Accept moves the transfer to the accepted status.
func (t *Transfer) Accept() {
	t.Status = AcceptedStatus
	t.Timestamp.Accept = uint64(time.Now().Unix())
}

// Fail flags the transfer as failed to sign. The transfer stays pending so
// its inputs remain reserved until it is explicitly abandoned.
func (t *Transfer) Fail() {
	t.Status = FailedToSignStatus
}

// Abandon moves the transfer to the abandoned status, releasing it for good.
func (t *Transfer) Abandon() {
	t.Status = AbandonedStatus
}
