package dbbadger

import (
	"context"
	"errors"
	"sort"

	"github.com/google/uuid"
	"github.com/timshannon/badgerhold/v4"

	"github.com/sealpay-network/sealpay-daemon/internal/core/domain"
	"github.com/sealpay-network/sealpay-daemon/pkg/seal"
)

type invoiceRepositoryImpl struct {
	store *badgerhold.Store
}

// NewInvoiceRepositoryImpl returns a badger InvoiceRepository implementation.
func NewInvoiceRepositoryImpl(store *badgerhold.Store) domain.InvoiceRepository {
	return invoiceRepositoryImpl{store}
}

func (r invoiceRepositoryImpl) AddInvoice(
	_ context.Context, invoice *domain.Invoice,
) error {
	return r.store.Insert(invoice.ID, *invoice)
}

func (r invoiceRepositoryImpl) GetInvoice(
	_ context.Context, invoiceID uuid.UUID,
) (*domain.Invoice, error) {
	var invoice domain.Invoice
	if err := r.store.Get(invoiceID, &invoice); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil, domain.ErrInvoiceNotFound
		}
		return nil, err
	}
	return &invoice, nil
}

func (r invoiceRepositoryImpl) GetInvoiceBySeal(
	_ context.Context, s seal.Concealed,
) (*domain.Invoice, error) {
	var found []domain.Invoice
	if err := r.store.Find(
		&found, badgerhold.Where("ConcealedSeal").Eq(s),
	); err != nil {
		return nil, err
	}
	if len(found) <= 0 {
		return nil, domain.ErrInvoiceNotFound
	}
	return &found[0], nil
}

func (r invoiceRepositoryImpl) GetAllInvoicesForIdentity(
	_ context.Context, identity string,
) ([]*domain.Invoice, error) {
	var found []domain.Invoice
	if err := r.store.Find(
		&found, badgerhold.Where("CreatedBy").Eq(identity),
	); err != nil {
		return nil, err
	}

	invoices := make([]*domain.Invoice, 0, len(found))
	for i := range found {
		invoices = append(invoices, &found[i])
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
	ctx context.Context, invoiceID uuid.UUID,
	updateFn func(i *domain.Invoice) (*domain.Invoice, error),
) error {
	currentInvoice, err := r.GetInvoice(ctx, invoiceID)
	if err != nil {
		return err
	}
	updatedInvoice, err := updateFn(currentInvoice)
	if err != nil {
		return err
	}
	return r.store.Update(invoiceID, *updatedInvoice)
}
