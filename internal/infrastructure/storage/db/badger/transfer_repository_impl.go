package dbbadger

import (
	"context"
	"errors"
	"sort"

	"github.com/google/uuid"
	"github.com/timshannon/badgerhold/v4"

	"github.com/sealpay-network/sealpay-daemon/internal/core/domain"
)

type transferRepositoryImpl struct {
	store *badgerhold.Store
}

// NewTransferRepositoryImpl returns a badger TransferRepository
// implementation.
func NewTransferRepositoryImpl(store *badgerhold.Store) domain.TransferRepository {
	return transferRepositoryImpl{store}
}

func (r transferRepositoryImpl) AddTransfer(
	_ context.Context, transfer *domain.Transfer,
) error {
	return r.store.Insert(transfer.ID, *transfer)
}

func (r transferRepositoryImpl) GetTransfer(
	_ context.Context, transferID uuid.UUID,
) (*domain.Transfer, error) {
	var transfer domain.Transfer
	if err := r.store.Get(transferID, &transfer); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil, domain.ErrTransferNotFound
		}
		return nil, err
	}
	return &transfer, nil
}

func (r transferRepositoryImpl) GetTransferByTransitionID(
	_ context.Context, transitionID string,
) (*domain.Transfer, error) {
	var found []domain.Transfer
	if err := r.store.Find(
		&found, badgerhold.Where("TransitionID").Eq(transitionID),
	); err != nil {
		return nil, err
	}
	if len(found) <= 0 {
		return nil, domain.ErrTransferNotFound
	}
	return &found[0], nil
}

func (r transferRepositoryImpl) GetAllTransfersForIdentity(
	_ context.Context, identity string,
) ([]*domain.Transfer, error) {
	var found []domain.Transfer
	if err := r.store.Find(
		&found, badgerhold.Where("CreatedBy").Eq(identity),
	); err != nil {
		return nil, err
	}

	transfers := make([]*domain.Transfer, 0, len(found))
	for i := range found {
		transfers = append(transfers, &found[i])
	}
	sort.Slice(transfers, func(i, j int) bool {
		if transfers[i].Timestamp.Create != transfers[j].Timestamp.Create {
			return transfers[i].Timestamp.Create < transfers[j].Timestamp.Create
		}
		return transfers[i].ID.String() < transfers[j].ID.String()
	})
	return transfers, nil
}

func (r transferRepositoryImpl) UpdateTransfer(
	ctx context.Context, transferID uuid.UUID,
	updateFn func(t *domain.Transfer) (*domain.Transfer, error),
) error {
	currentTransfer, err := r.GetTransfer(ctx, transferID)
	if err != nil {
		return err
	}
	updatedTransfer, err := updateFn(currentTransfer)
	if err != nil {
		return err
	}
	return r.store.Update(transferID, *updatedTransfer)
}
