package domain

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"time"

	"github.com/sealpay-network/sealpay-daemon/pkg/seal"
)

const (
	// MaxTickerLength ...
	MaxTickerLength = 8
	// MaxPrecision ...
	MaxPrecision = 18
)

// SupportedInterfaces lists the contract interfaces this daemon can issue
// and transfer.
var SupportedInterfaces = []string{InterfaceFungible}

const (
	// InterfaceFungible is the interface tag of fungible asset contracts.
	InterfaceFungible = "SPA20"
)

// contractIDTag domain-separates contract ids from other sha256 usages.
const contractIDTag = "sealpay/contract/v1"

// Contract is a fungible asset definition bound to a genesis seal. It is
// immutable after issuance except for its ledger of state transitions, which
// lives in the allocation and transfer repositories.
type Contract struct {
	ID            string
	Ticker        string
	Name          string
	Description   string
	Precision     uint32
	Supply        uint64
	Interface     string
	GenesisSeal   seal.Concealed
	GenesisSealed *seal.Revealed
	Issuer        string
	CreatedAt     int64
}

// NewContract issues a contract from the given parameters, binding the full
// supply to a genesis seal built on the given outpoint. The genesis blinding
// factor is derived deterministically from the issuance parameters, so two
// issuances with identical parameters produce the same contract id and
// genesis seal, making retries idempotent; any differing parameter produces
// a distinct id.
func NewContract(
	issuer, ticker, name, description string,
	precision uint32, supply uint64, iface string,
	genesisOutpoint seal.Outpoint, closeMethod seal.CloseMethod,
) (*Contract, error) {
	if len(ticker) <= 0 || len(ticker) > MaxTickerLength {
		return nil, ErrContractInvalidTicker
	}
	if len(name) <= 0 {
		return nil, ErrContractInvalidName
	}
	if precision > MaxPrecision {
		return nil, ErrContractInvalidPrecision
	}
	if supply <= 0 {
		return nil, ErrContractInvalidSupply
	}
	if !isSupportedInterface(iface) {
		return nil, ErrContractInvalidInterface
	}

	blinding := genesisBlinding(
		issuer, ticker, name, description, precision, supply, iface,
		genesisOutpoint, closeMethod,
	)
	genesisRevealed, genesisConcealed, err := seal.BlindWithFactor(seal.BlindOpts{
		Outpoint:    genesisOutpoint,
		CloseMethod: closeMethod,
	}, blinding)
	if err != nil {
		return nil, err
	}

	return &Contract{
		ID: contractID(
			issuer, ticker, name, description, precision, supply, iface,
			genesisConcealed,
		),
		Ticker:        ticker,
		Name:          name,
		Description:   description,
		Precision:     precision,
		Supply:        supply,
		Interface:     iface,
		GenesisSeal:   genesisConcealed,
		GenesisSealed: genesisRevealed,
		Issuer:        issuer,
		CreatedAt:     time.Now().Unix(),
	}, nil
}

// GenesisAllocation returns the allocation binding the whole supply to the
// contract's genesis seal, owned by the issuer.
func (c *Contract) GenesisAllocation() Allocation {
	return Allocation{
		ContractID: c.ID,
		Seal:       c.GenesisSeal,
		Owner:      c.Issuer,
		Amount:     c.Supply,
		Revealed:   c.GenesisSealed,
	}
}

func isSupportedInterface(iface string) bool {
	for _, supported := range SupportedInterfaces {
		if iface == supported {
			return true
		}
	}
	return false
}

func contractID(
	issuer, ticker, name, description string,
	precision uint32, supply uint64, iface string,
	genesisSeal seal.Concealed,
) string {
	h := sha256.New()
	h.Write([]byte(contractIDTag))
	writeContractFields(h, issuer, ticker, name, description, precision, supply, iface)
	h.Write(genesisSeal[:])
	return hex.EncodeToString(h.Sum(nil))
}

func genesisBlinding(
	issuer, ticker, name, description string,
	precision uint32, supply uint64, iface string,
	outpoint seal.Outpoint, closeMethod seal.CloseMethod,
) uint64 {
	h := sha256.New()
	h.Write([]byte(contractIDTag + "/genesis"))
	writeContractFields(h, issuer, ticker, name, description, precision, supply, iface)
	h.Write([]byte(outpoint.String()))
	h.Write([]byte(closeMethod))
	return binary.BigEndian.Uint64(h.Sum(nil)[:8])
}

func writeContractFields(
	h interface{ Write([]byte) (int, error) },
	issuer, ticker, name, description string,
	precision uint32, supply uint64, iface string,
) {
	var buf [12]byte
	binary.BigEndian.PutUint32(buf[:4], precision)
	binary.BigEndian.PutUint64(buf[4:], supply)
	for _, field := range []string{issuer, ticker, name, description, iface} {
		var l [8]byte
		binary.BigEndian.PutUint64(l[:], uint64(len(field)))
		h.Write(l[:])
		h.Write([]byte(field))
	}
	h.Write(buf[:])
}
