package ports

import (
	"github.com/google/uuid"

	"github.com/sealpay-network/sealpay-daemon/internal/core/domain"
)

// RepoManager aggregates the repositories of the daemon behind a single
// handle, passed into every application service.
type RepoManager interface {
	ContractRepository() domain.ContractRepository
	InvoiceRepository() domain.InvoiceRepository
	AllocationRepository() domain.AllocationRepository
	TransferRepository() domain.TransferRepository
	BlobRepository() domain.BlobRepository

	// LockIdentity serializes mutations of the per-identity state: while
	// the returned unlock function has not been called, no other writer for
	// the same identity can proceed. Writers for different identities do
	// not block each other, and readers are never blocked.
	LockIdentity(identity string) (unlock func())
	// LockInvoice serializes the consumption of an invoice, which is shared
	// across payers and therefore not covered by any identity lock. It is
	// always acquired after the identity lock, never the other way round.
	LockInvoice(invoiceID uuid.UUID) (unlock func())

	Close()
}
