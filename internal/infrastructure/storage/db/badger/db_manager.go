package dbbadger

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/dgraph-io/badger/v3"
	"github.com/dgraph-io/badger/v3/options"
	"github.com/google/uuid"
	"github.com/timshannon/badgerhold/v4"

	"github.com/sealpay-network/sealpay-daemon/internal/core/domain"
	"github.com/sealpay-network/sealpay-daemon/internal/core/ports"
)

// repoManager is the badger-backed implementation of the ports.RepoManager
// interface. Every record type lives in the same store so that a single
// datadir holds the whole daemon state.
type repoManager struct {
	store *badgerhold.Store

	contractRepository   domain.ContractRepository
	invoiceRepository    domain.InvoiceRepository
	allocationRepository domain.AllocationRepository
	transferRepository   domain.TransferRepository
	blobRepository       domain.BlobRepository

	locks    map[string]*sync.Mutex
	locksMtx sync.Mutex
}

// NewRepoManager opens (or creates if not existing) the badger store in the
// given directory. An empty directory makes badger run fully in memory.
func NewRepoManager(dbDir string, logger badger.Logger) (ports.RepoManager, error) {
	store, err := createDb(dbDir, logger)
	if err != nil {
		return nil, fmt.Errorf("opening db: %w", err)
	}

	return &repoManager{
		store:                store,
		contractRepository:   NewContractRepositoryImpl(store),
		invoiceRepository:    NewInvoiceRepositoryImpl(store),
		allocationRepository: NewAllocationRepositoryImpl(store),
		transferRepository:   NewTransferRepositoryImpl(store),
		blobRepository:       NewBlobRepositoryImpl(store),
		locks:                map[string]*sync.Mutex{},
	}, nil
}

func (d *repoManager) ContractRepository() domain.ContractRepository {
	return d.contractRepository
}

func (d *repoManager) InvoiceRepository() domain.InvoiceRepository {
	return d.invoiceRepository
}

func (d *repoManager) AllocationRepository() domain.AllocationRepository {
	return d.allocationRepository
}

func (d *repoManager) TransferRepository() domain.TransferRepository {
	return d.transferRepository
}

func (d *repoManager) BlobRepository() domain.BlobRepository {
	return d.blobRepository
}

func (d *repoManager) LockIdentity(identity string) func() {
	return d.lock("identity/" + identity)
}

func (d *repoManager) LockInvoice(invoiceID uuid.UUID) func() {
	return d.lock("invoice/" + invoiceID.String())
}

func (d *repoManager) lock(key string) func() {
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

func (d *repoManager) Close() {
	d.store.Close()
}

// JSONEncode is a custom JSON based encoder for badger.
func JSONEncode(value interface{}) ([]byte, error) {
	var buff bytes.Buffer
	if err := json.NewEncoder(&buff).Encode(value); err != nil {
		return nil, err
	}
	return buff.Bytes(), nil
}

// JSONDecode is a custom JSON based decoder for badger.
func JSONDecode(data []byte, value interface{}) error {
	return json.NewDecoder(bytes.NewReader(data)).Decode(value)
}

func createDb(dbDir string, logger badger.Logger) (*badgerhold.Store, error) {
	isInMemory := len(dbDir) <= 0

	opts := badger.DefaultOptions(dbDir)
	opts.Logger = logger
	if isInMemory {
		opts.InMemory = true
	} else {
		opts.Compression = options.ZSTD
	}

	return badgerhold.Open(badgerhold.Options{
		Encoder:          JSONEncode,
		Decoder:          JSONDecode,
		SequenceBandwith: 100,
		Options:          opts,
	})
}
