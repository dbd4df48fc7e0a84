package transition

import (
	"encoding/base64"
	"encoding/json"
	"errors"

	"github.com/sealpay-network/sealpay-daemon/pkg/seal"
)

// ErrInvalidConsignment ...
var ErrInvalidConsignment = errors.New("invalid consignment encoding")

// Consignment is the bundle a payer hands to a receiver for acceptance: the
// state transition, the witness transaction id anchoring it and, optionally,
// the disclosed revealed form of the payment output seal. The receiver
// normally knows the revealed seal already because it created the invoice,
// so disclosure inside the consignment is only used when the artifact is
// relayed on behalf of someone else.
type Consignment struct {
	Transition    StateTransition `json:"transition"`
	TxID          string          `json:"txid"`
	DisclosedSeal *seal.Revealed  `json:"disclosed_seal,omitempty"`
}

// Encode serializes the consignment to a base64 string for transport or for
// storage as an opaque blob.
func (c *Consignment) Encode() (string, error) {
	buf, err := json.Marshal(c)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(buf), nil
}

// DecodeConsignment parses a consignment encoded with Encode.
func DecodeConsignment(s string) (*Consignment, error) {
	buf, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, ErrInvalidConsignment
	}
	consignment := &Consignment{}
	if err := json.Unmarshal(buf, consignment); err != nil {
		return nil, ErrInvalidConsignment
	}
	if err := consignment.Transition.Validate(); err != nil {
		return nil, err
	}
	return consignment, nil
}
