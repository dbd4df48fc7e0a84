package domain

import "errors"

var (
	// ErrContractInvalidTicker ...
	ErrContractInvalidTicker = errors.New(
		"contract ticker must be a non-empty string of at most 8 characters",
	)
	// ErrContractInvalidName ...
	ErrContractInvalidName = errors.New("contract name must not be null")
	// ErrContractInvalidPrecision ...
	ErrContractInvalidPrecision = errors.New(
		"contract precision must be in range [0, 18]",
	)
	// ErrContractInvalidSupply ...
	ErrContractInvalidSupply = errors.New("contract supply must be greater than zero")
	// ErrContractInvalidInterface ...
	ErrContractInvalidInterface = errors.New("contract interface is not supported")
	// ErrContractNotFound ...
	ErrContractNotFound = errors.New("contract not found")

	// ErrInvoiceInvalidAmount ...
	ErrInvoiceInvalidAmount = errors.New("invoice amount must be greater than zero")
	// ErrInvoiceNotFound ...
	ErrInvoiceNotFound = errors.New("invoice not found")
	// ErrInvoiceAlreadyConsumed is returned when attempting to pay an invoice
	// that an executed transfer already consumed.
	ErrInvoiceAlreadyConsumed = errors.New("invoice has already been consumed")
	// ErrInvalidInvoiceString ...
	ErrInvalidInvoiceString = errors.New("invalid invoice string")

	// ErrAllocationNotFound ...
	ErrAllocationNotFound = errors.New("allocation not found")
	// ErrAllocationAlreadySpent ...
	ErrAllocationAlreadySpent = errors.New("allocation has already been spent")
	// ErrAllocationLocked is returned when an allocation is reserved by a
	// pending transfer.
	ErrAllocationLocked = errors.New("allocation is locked by a pending transfer")

	// ErrTransferNotFound ...
	ErrTransferNotFound = errors.New("transfer not found")

	// ErrBlobNotFound ...
	ErrBlobNotFound = errors.New("blob not found")
)
