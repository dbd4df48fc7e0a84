package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sealpay-network/sealpay-daemon/pkg/seal"
)

// invoiceScheme prefixes every encoded invoice string.
const invoiceScheme = "sealpay:"

// Invoice is a single-use payment request binding a contract, an interface,
// an amount and a concealed seal. The revealed form of the seal is retained
// by the creator and disclosed only once the counterparty's transfer is
// being accepted.
type Invoice struct {
	ID            uuid.UUID
	ContractID    string
	Interface     string
	Amount        uint64
	ConcealedSeal seal.Concealed
	RevealedSeal  *seal.Revealed
	CreatedBy     string
	Consumed      bool
	CreatedAt     int64
}

// NewInvoice returns a new open invoice for the given terms.
func NewInvoice(
	createdBy, contractID, iface string, amount uint64,
	revealed *seal.Revealed,
) (*Invoice, error) {
	if amount <= 0 {
		return nil, ErrInvoiceInvalidAmount
	}
	return &Invoice{
		ID:            uuid.New(),
		ContractID:    contractID,
		Interface:     iface,
		Amount:        amount,
		ConcealedSeal: revealed.Conceal(),
		RevealedSeal:  revealed,
		CreatedBy:     createdBy,
		CreatedAt:     time.Now().Unix(),
	}, nil
}

// Consume marks the invoice as consumed by an executed transfer. Consuming
// an invoice twice is an error, invoices are single-use.
func (i *Invoice) Consume() error {
	if i.Consumed {
		return ErrInvoiceAlreadyConsumed
	}
	i.Consumed = true
	return nil
}

// Encode returns the invoice string handed to the payer.
func (i *Invoice) Encode() string {
	return fmt.Sprintf(
		"%s%s/%s/%d/%s",
		invoiceScheme, i.ContractID, i.Interface, i.Amount, i.ConcealedSeal,
	)
}

// InvoiceTerms is the payer-side view of an invoice, parsed from its string
// form. It carries no secret material.
type InvoiceTerms struct {
	ContractID    string
	Interface     string
	Amount        uint64
	ConcealedSeal seal.Concealed
}

// ParseInvoiceTerms parses an invoice string produced by Encode.
func ParseInvoiceTerms(s string) (*InvoiceTerms, error) {
	if !strings.HasPrefix(s, invoiceScheme) {
		return nil, ErrInvalidInvoiceString
	}
	parts := strings.Split(strings.TrimPrefix(s, invoiceScheme), "/")
	if len(parts) != 4 {
		return nil, ErrInvalidInvoiceString
	}

	amount, err := strconv.ParseUint(parts[2], 10, 64)
	if err != nil || amount <= 0 {
		return nil, ErrInvalidInvoiceString
	}
	concealed, err := seal.ParseConcealed(parts[3])
	if err != nil {
		return nil, ErrInvalidInvoiceString
	}

	return &InvoiceTerms{
		ContractID:    parts[0],
		Interface:     parts[1],
		Amount:        amount,
		ConcealedSeal: concealed,
	}, nil
}
