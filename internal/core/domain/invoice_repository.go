package domain

import (
	"context"

	"github.com/google/uuid"

	"github.com/sealpay-network/sealpay-daemon/pkg/seal"
)

// InvoiceRepository is the abstraction for any kind of database intended to
// persist Invoices.
type InvoiceRepository interface {
	// AddInvoice stores a new invoice.
	AddInvoice(ctx context.Context, invoice *Invoice) error
	// GetInvoice returns the invoice with the given id, or
	// ErrInvoiceNotFound.
	GetInvoice(ctx context.Context, invoiceID uuid.UUID) (*Invoice, error)
	// GetInvoiceBySeal returns the invoice bound to the given concealed
	// seal, or ErrInvoiceNotFound.
	GetInvoiceBySeal(ctx context.Context, s seal.Concealed) (*Invoice, error)
	// GetAllInvoicesForIdentity returns the invoices created by the given
	// identity, ordered by creation time.
	GetAllInvoicesForIdentity(ctx context.Context, identity string) ([]*Invoice, error)
	// UpdateInvoice allows to commit multiple changes to the same invoice in
	// a transactional way.
	UpdateInvoice(
		ctx context.Context, invoiceID uuid.UUID,
		updateFn func(i *Invoice) (*Invoice, error),
	) error
}
