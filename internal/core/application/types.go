package application

import (
	"math/big"

	"github.com/shopspring/decimal"

	"github.com/sealpay-network/sealpay-daemon/internal/core/domain"
)

// ContractInfo is the caller-facing view of an issued contract.
type ContractInfo struct {
	ContractID  string
	Ticker      string
	Name        string
	Description string
	Precision   uint32
	Supply      uint64
	Interface   string
	GenesisSeal string
	Issuer      string
	Balance     uint64
}

func contractInfo(c *domain.Contract, balance uint64) *ContractInfo {
	return &ContractInfo{
		ContractID:  c.ID,
		Ticker:      c.Ticker,
		Name:        c.Name,
		Description: c.Description,
		Precision:   c.Precision,
		Supply:      c.Supply,
		Interface:   c.Interface,
		GenesisSeal: c.GenesisSeal.String(),
		Issuer:      c.Issuer,
		Balance:     balance,
	}
}

// InterfaceInfo describes a contract interface known to the daemon.
type InterfaceInfo struct {
	Name        string
	Description string
}

// SchemaInfo describes a contract schema known to the daemon.
type SchemaInfo struct {
	ID          string
	Name        string
	Description string
}

// InvoiceInfo is the caller-facing view of a created invoice: the encoded
// invoice string for the payer and the concealed seal it is bound to. The
// revealed seal stays server-side with the invoice record.
type InvoiceInfo struct {
	InvoiceID     string
	Invoice       string
	ConcealedSeal string
}

// UnsignedTransfer is the psbt-stage artifact: a built, unsigned transfer
// whose inputs are locked until it is executed or abandoned.
type UnsignedTransfer struct {
	TransferID   string
	TransitionID string
	PsbtBase64   string
	TxID         string
}

// SignedTransfer is the pay-stage artifact handed to the counterparty.
type SignedTransfer struct {
	TransferID  string
	TxID        string
	PsbtBase64  string
	Consignment string
}

// AcceptResult reports the outcome of a transfer acceptance. A rejected
// transfer carries the reason and mutates no state.
type AcceptResult struct {
	TransitionID string
	Accepted     bool
	Reason       RejectReason
}

// FormatAmount renders an amount of base units at the given precision.
func FormatAmount(amount uint64, precision uint32) string {
	return decimal.NewFromBigInt(
		new(big.Int).SetUint64(amount), -int32(precision),
	).String()
}
