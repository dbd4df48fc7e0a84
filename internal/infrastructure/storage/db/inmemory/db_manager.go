package inmemory

import (
	"sync"

	"github.com/google/uuid"

	"github.com/sealpay-network/sealpay-daemon/internal/core/domain"
	"github.com/sealpay-network/sealpay-daemon/internal/core/ports"
)

type contractInmemoryStore struct {
	locker    *sync.Mutex
	contracts map[string]domain.Contract
}

type invoiceInmemoryStore struct {
	locker         *sync.Mutex
	invoices       map[uuid.UUID]domain.Invoice
	invoicesBySeal map[string]uuid.UUID
}

type allocationInmemoryStore struct {
	locker      *sync.Mutex
	allocations map[domain.AllocationKey]domain.Allocation
}

type transferInmemoryStore struct {
	locker                  *sync.Mutex
	transfers               map[uuid.UUID]domain.Transfer
	transfersByTransitionID map[string]uuid.UUID
}

type blobInmemoryStore struct {
	locker *sync.Mutex
	blobs  map[domain.BlobKey]domain.Blob
}

// RepoManager is the in-memory implementation of the ports.RepoManager
// interface. State is lost on restart, it is meant for tests and for running
// the daemon in regtest-like setups.
type RepoManager struct {
	contractRepository   domain.ContractRepository
	invoiceRepository    domain.InvoiceRepository
	allocationRepository domain.AllocationRepository
	transferRepository   domain.TransferRepository
	blobRepository       domain.BlobRepository

	locks    map[string]*sync.Mutex
	locksMtx sync.Mutex
}

// NewRepoManager returns a new empty in-memory RepoManager.
func NewRepoManager() ports.RepoManager {
	contractStore := &contractInmemoryStore{
		locker:    &sync.Mutex{},
		contracts: map[string]domain.Contract{},
	}
	invoiceStore := &invoiceInmemoryStore{
		locker:         &sync.Mutex{},
		invoices:       map[uuid.UUID]domain.Invoice{},
		invoicesBySeal: map[string]uuid.UUID{},
	}
	allocationStore := &allocationInmemoryStore{
		locker:      &sync.Mutex{},
		allocations: map[domain.AllocationKey]domain.Allocation{},
	}
	transferStore := &transferInmemoryStore{
		locker:                  &sync.Mutex{},
		transfers:               map[uuid.UUID]domain.Transfer{},
		transfersByTransitionID: map[string]uuid.UUID{},
	}
	blobStore := &blobInmemoryStore{
		locker: &sync.Mutex{},
		blobs:  map[domain.BlobKey]domain.Blob{},
	}

	return &RepoManager{
		contractRepository:   NewContractRepositoryImpl(contractStore),
		invoiceRepository:    NewInvoiceRepositoryImpl(invoiceStore),
		allocationRepository: NewAllocationRepositoryImpl(allocationStore),
		transferRepository:   NewTransferRepositoryImpl(transferStore),
		blobRepository:       NewBlobRepositoryImpl(blobStore),
		locks:                map[string]*sync.Mutex{},
	}
}

func (d *RepoManager) ContractRepository() domain.ContractRepository {
	return d.contractRepository
}

func (d *RepoManager) InvoiceRepository() domain.InvoiceRepository {
	return d.invoiceRepository
}

func (d *RepoManager) AllocationRepository() domain.AllocationRepository {
	return d.allocationRepository
}

func (d *RepoManager) TransferRepository() domain.TransferRepository {
	return d.transferRepository
}

func (d *RepoManager) BlobRepository() domain.BlobRepository {
	return d.blobRepository
}

// LockIdentity serializes writers of the same identity with a keyed mutex.
// Lock entries are never evicted, one mutex per identity ever seen.
func (d *RepoManager) LockIdentity(identity string) func() {
	return d.lock("identity/" + identity)
}

// LockInvoice serializes the consumption of a shared invoice across payers.
func (d *RepoManager) LockInvoice(invoiceID uuid.UUID) func() {
	return d.lock("invoice/" + invoiceID.String())
}

func (d *RepoManager) lock(key string) func() {
	d.locksMtx.Lock()
	lock, ok := d.locks[key]
	if !ok {
		lock = &sync.Mutex{}
		d.locks[key] = lock
	}
	d.locksMtx.Unlock()

	lock.Lock()
	return lock.Unlock
}

func (d *RepoManager) Close() {}
