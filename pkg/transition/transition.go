package transition

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"

	"github.com/sealpay-network/sealpay-daemon/pkg/seal"
)

var (
	// ErrNoInputs ...
	ErrNoInputs = errors.New("state transition must close at least one input seal")
	// ErrNoOutputs ...
	ErrNoOutputs = errors.New("state transition must create at least one output seal")
	// ErrMissingContract ...
	ErrMissingContract = errors.New("state transition must reference a contract")
	// ErrAmountNotConserved is returned when the sum of the input amounts
	// does not match the sum of the output amounts exactly.
	ErrAmountNotConserved = errors.New("state transition does not conserve amounts")
	// ErrAmountOverflow ...
	ErrAmountOverflow = errors.New("state transition amounts overflow")
	// ErrDuplicateSeal is returned when the same seal appears twice among the
	// inputs or among the outputs of a transition.
	ErrDuplicateSeal = errors.New("state transition binds the same seal twice")
)

const (
	// idTag domain-separates transition ids from other sha256 usages.
	idTag = "sealpay/transition/v1"
	// anchorTag domain-separates witness-transaction anchors.
	anchorTag = "sealpay/anchor/v1"
)

// Assignment binds an amount of a contract's asset to a concealed seal.
type Assignment struct {
	Seal   seal.Concealed `json:"seal"`
	Amount uint64         `json:"amount"`
}

// StateTransition moves asset ownership from the input seals it closes to
// the output seals it creates. Amounts are expressed in the contract's base
// units and must be conserved exactly.
type StateTransition struct {
	ContractID string       `json:"contract_id"`
	Inputs     []Assignment `json:"inputs"`
	Outputs    []Assignment `json:"outputs"`
}

// ID returns the content-derived identifier of the transition, binding the
// contract and every input and output assignment. Two identical transitions
// collide deterministically, which makes acceptance idempotent.
func (t *StateTransition) ID() string {
	h := sha256.New()
	h.Write([]byte(idTag))
	h.Write([]byte(t.ContractID))

	var buf [8]byte
	writeAssignments := func(marker byte, assignments []Assignment) {
		h.Write([]byte{marker})
		binary.BigEndian.PutUint64(buf[:], uint64(len(assignments)))
		h.Write(buf[:])
		for _, a := range assignments {
			h.Write(a.Seal[:])
			binary.BigEndian.PutUint64(buf[:], a.Amount)
			h.Write(buf[:])
		}
	}
	writeAssignments(0x00, t.Inputs)
	writeAssignments(0x01, t.Outputs)

	return hex.EncodeToString(h.Sum(nil))
}

// Validate checks the structural invariants of the transition: non-empty
// input and output sets, no seal bound twice on the same side, and exact
// amount conservation.
func (t *StateTransition) Validate() error {
	if t.ContractID == "" {
		return ErrMissingContract
	}
	if len(t.Inputs) <= 0 {
		return ErrNoInputs
	}
	if len(t.Outputs) <= 0 {
		return ErrNoOutputs
	}
	if hasDuplicates(t.Inputs) || hasDuplicates(t.Outputs) {
		return ErrDuplicateSeal
	}

	totalIn, err := sumAmounts(t.Inputs)
	if err != nil {
		return err
	}
	totalOut, err := sumAmounts(t.Outputs)
	if err != nil {
		return err
	}
	if totalIn != totalOut {
		return ErrAmountNotConserved
	}
	return nil
}

// Anchor returns the witness-transaction commitment over a transition's
// fixed core: the contract, the seals it closes and the payment assignments
// known before any change seal is bound. Change seals reference the witness
// transaction itself, so they cannot take part in the commitment its outputs
// carry without creating a cycle.
func Anchor(contractID string, inputs, payments []Assignment) [sha256.Size]byte {
	h := sha256.New()
	h.Write([]byte(anchorTag))
	h.Write([]byte(contractID))
	var buf [8]byte
	for _, assignments := range [][]Assignment{inputs, payments} {
		binary.BigEndian.PutUint64(buf[:], uint64(len(assignments)))
		h.Write(buf[:])
		for _, a := range assignments {
			h.Write(a.Seal[:])
			binary.BigEndian.PutUint64(buf[:], a.Amount)
			h.Write(buf[:])
		}
	}

	var anchor [sha256.Size]byte
	copy(anchor[:], h.Sum(nil))
	return anchor
}

// TotalOutput returns the sum of the output amounts.
func (t *StateTransition) TotalOutput() (uint64, error) {
	return sumAmounts(t.Outputs)
}

func sumAmounts(assignments []Assignment) (uint64, error) {
	var total uint64
	for _, a := range assignments {
		if total+a.Amount < total {
			return 0, ErrAmountOverflow
		}
		total += a.Amount
	}
	return total, nil
}

func hasDuplicates(assignments []Assignment) bool {
	seen := make(map[seal.Concealed]struct{}, len(assignments))
	for _, a := range assignments {
		if _, ok := seen[a.Seal]; ok {
			return true
		}
		seen[a.Seal] = struct{}{}
	}
	return false
}
