package inmemory

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/sealpay-network/sealpay-daemon/internal/core/domain"
	"github.com/sealpay-network/sealpay-daemon/pkg/seal"
)

type invoiceRepositoryImpl struct {
	store *invoiceInmemoryStore
}

// NewInvoiceRepositoryImpl returns a new inmemory InvoiceRepository
// implementation.
func NewInvoiceRepositoryImpl(store *invoiceInmemoryStore) domain.InvoiceRepository {
	return &invoiceRepositoryImpl{store}
}

func (r invoiceRepositoryImpl) AddInvoice(
	_ context.Context, invoice *domain.Invoice,
) error {
	r.store.locker.Lock()
	defer r.store.locker.Unlock()

	r.store.invoices[invoice.ID] = *invoice
	r.store.invoicesBySeal[invoice.ConcealedSeal.String()] = invoice.ID
	return nil
}

func (r invoiceRepositoryImpl) GetInvoice(
	_ context.Context, invoiceID uuid.UUID,
) (*domain.Invoice, error) {
	r.store.locker.Lock()
	defer r.store.locker.Unlock()

	return r.getInvoice(invoiceID)
}

func (r invoiceRepositoryImpl) GetInvoiceBySeal(
	_ context.Context, s seal.Concealed,
) (*domain.Invoice, error) {
	r.store.locker.Lock()
	defer r.store.locker.Unlock()

	invoiceID, ok := r.store.invoicesBySeal[s.String()]
	if !ok {
		return nil, domain.ErrInvoiceNotFound
	}
	return r.getInvoice(invoiceID)
}

func (r invoiceRepositoryImpl) GetAllInvoicesForIdentity(
	_ context.Context, identity string,
) ([]*domain.Invoice, error) {
	r.store.locker.Lock()
	defer r.store.locker.Unlock()

	invoices := make([]*domain.Invoice, 0)
	for _, invoice := range r.store.invoices {
		if invoice.CreatedBy == identity {
			i := invoice
			invoices = append(invoices, &i)
		}
	}
	sort.Slice(invoices, func(i, j int) bool {
		if invoices[i].CreatedAt != invoices[j].CreatedAt {
			return invoices[i].CreatedAt < invoices[j].CreatedAt
		}
		return invoices[i].ID.String() < invoices[j].ID.String()
	})
	return invoices, nil
}

func (r invoiceRepositoryImpl) UpdateInvoice(
	_ context.Context, invoiceID uuid.UUID,
	updateFn func(i *domain.Invoice) (*domain.Invoice, error),
) error {
	r.store.locker.Lock()
	defer r.store.locker.Unlock()

	currentInvoice, err := r.getInvoice(invoiceID)
	if err != nil {
		return err
	}
	updatedInvoice, err := updateFn(currentInvoice)
	if err != nil {
		return err
	}

	r.store.invoices[invoiceID] = *updatedInvoice
	return nil
}

func (r invoiceRepositoryImpl) getInvoice(invoiceID uuid.UUID) (*domain.Invoice, error) {
	invoice, ok := r.store.invoices[invoiceID]
	if !ok {
		return nil, domain.ErrInvoiceNotFound
	}
	return &invoice, nil
}
