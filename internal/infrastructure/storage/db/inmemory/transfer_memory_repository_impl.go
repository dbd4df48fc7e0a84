package inmemory

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/sealpay-network/sealpay-daemon/internal/core/domain"
)

type transferRepositoryImpl struct {
	store *transferInmemoryStore
}

// NewTransferRepositoryImpl returns a new inmemory TransferRepository
// implementation.
func NewTransferRepositoryImpl(store *transferInmemoryStore) domain.TransferRepository {
	return &transferRepositoryImpl{store}
}

func (r transferRepositoryImpl) AddTransfer(
	_ context.Context, transfer *domain.Transfer,
) error {
	r.store.locker.Lock()
	defer r.store.locker.Unlock()

	r.store.transfers[transfer.ID] = *transfer
	r.store.transfersByTransitionID[transfer.TransitionID] = transfer.ID
	return nil
}

func (r transferRepositoryImpl) GetTransfer(
	_ context.Context, transferID uuid.UUID,
) (*domain.Transfer, error) {
	r.store.locker.Lock()
	defer r.store.locker.Unlock()

	return r.getTransfer(transferID)
}

func (r transferRepositoryImpl) GetTransferByTransitionID(
	_ context.Context, transitionID string,
) (*domain.Transfer, error) {
	r.store.locker.Lock()
	defer r.store.locker.Unlock()

	transferID, ok := r.store.transfersByTransitionID[transitionID]
	if !ok {
		return nil, domain.ErrTransferNotFound
	}
	return r.getTransfer(transferID)
}

func (r transferRepositoryImpl) GetAllTransfersForIdentity(
	_ context.Context, identity string,
) ([]*domain.Transfer, error) {
	r.store.locker.Lock()
	defer r.store.locker.Unlock()

	transfers := make([]*domain.Transfer, 0)
	for _, transfer := range r.store.transfers {
		if transfer.CreatedBy == identity {
			t := transfer
			transfers = append(transfers, &t)
		}
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
	_ context.Context, transferID uuid.UUID,
	updateFn func(t *domain.Transfer) (*domain.Transfer, error),
) error {
	r.store.locker.Lock()
	defer r.store.locker.Unlock()

	currentTransfer, err := r.getTransfer(transferID)
	if err != nil {
		return err
	}
	updatedTransfer, err := updateFn(currentTransfer)
	if err != nil {
		return err
	}

	r.store.transfers[transferID] = *updatedTransfer
	return nil
}

func (r transferRepositoryImpl) getTransfer(
	transferID uuid.UUID,
) (*domain.Transfer, error) {
	transfer, ok := r.store.transfers[transferID]
	if !ok {
		return nil, domain.ErrTransferNotFound
	}
	return &transfer, nil
}
