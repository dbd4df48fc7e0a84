package psbtutil

import (
	"bytes"
	"encoding/json"
	"errors"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/btcutil/psbt"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"

	"github.com/sealpay-network/sealpay-daemon/pkg/seal"
	"github.com/sealpay-network/sealpay-daemon/pkg/transition"
)

var (
	// ErrNullTransition ...
	ErrNullTransition = errors.New("psbt must embed a state transition")
	// ErrNullAnchor ...
	ErrNullAnchor = errors.New("psbt must commit to a transition anchor")
	// ErrNullInputs ...
	ErrNullInputs = errors.New("psbt must spend at least one outpoint")
	// ErrInvalidPsbt ...
	ErrInvalidPsbt = errors.New("invalid base64 psbt")
	// ErrTransitionNotFound is returned when a psbt does not carry an
	// embedded state transition under the proprietary key.
	ErrTransitionNotFound = errors.New("psbt carries no embedded state transition")
	// ErrTransitionAlreadyEmbedded ...
	ErrTransitionAlreadyEmbedded = errors.New("psbt already embeds a state transition")
)

// proprietaryKey marks the BIP-174 unknown key/value pair carrying the
// serialized state transition. 0xfc is the proprietary type prefix.
var proprietaryKey = append([]byte{0xfc}, []byte("sealpay/transition")...)

const (
	txVersion = 2
	// dustValue is the satoshi amount assigned to the change anchor output.
	dustValue = 546
)

// BuildOpts is the struct given to the Build method.
type BuildOpts struct {
	// Anchor is the commitment to the transition's fixed core, carried by
	// the first output through an OP_RETURN script.
	Anchor []byte
	// Outpoints are the Bitcoin outputs backing the asset allocations being
	// spent; they become the inputs of the witness transaction.
	Outpoints []seal.Outpoint
	// ChangePubkey, when set, adds a dust output owned by the payer to which
	// the change seal is bound.
	ChangePubkey *btcec.PublicKey
}

func (o BuildOpts) validate() error {
	if len(o.Anchor) <= 0 || len(o.Anchor) > txscript.MaxDataCarrierSize {
		return ErrNullAnchor
	}
	if len(o.Outpoints) <= 0 {
		return ErrNullInputs
	}
	for _, outpoint := range o.Outpoints {
		if _, err := outpoint.Hash(); err != nil {
			return err
		}
	}
	return nil
}

// Build crafts an unsigned psbt spending the given outpoints, with the
// first output committing to the given anchor through an OP_RETURN script.
// The transaction id is stable from this point on, which lets the caller
// bind change seals to it before embedding the full transition with
// EmbedTransition.
func Build(opts BuildOpts) (*psbt.Packet, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}

	inputs := make([]*wire.OutPoint, 0, len(opts.Outpoints))
	nSequences := make([]uint32, 0, len(opts.Outpoints))
	for _, outpoint := range opts.Outpoints {
		hash, _ := outpoint.Hash()
		inputs = append(inputs, wire.NewOutPoint(hash, outpoint.VOut))
		nSequences = append(nSequences, wire.MaxTxInSequenceNum)
	}

	anchorScript, err := txscript.NullDataScript(opts.Anchor)
	if err != nil {
		return nil, err
	}
	outputs := []*wire.TxOut{wire.NewTxOut(0, anchorScript)}

	if opts.ChangePubkey != nil {
		changeScript, err := txscript.NewScriptBuilder().
			AddOp(txscript.OP_0).
			AddData(btcutil.Hash160(opts.ChangePubkey.SerializeCompressed())).
			Script()
		if err != nil {
			return nil, err
		}
		outputs = append(outputs, wire.NewTxOut(dustValue, changeScript))
	}

	return psbt.New(inputs, outputs, txVersion, 0, nSequences)
}

// EmbedTransition attaches the state transition to the psbt under the
// proprietary key. The transition travels in the key/value map of the
// packet, so embedding it does not change the transaction id.
func EmbedTransition(packet *psbt.Packet, st *transition.StateTransition) error {
	if st == nil {
		return ErrNullTransition
	}
	if err := st.Validate(); err != nil {
		return err
	}
	if _, err := ExtractTransition(packet); err == nil {
		return ErrTransitionAlreadyEmbedded
	}

	payload, err := json.Marshal(st)
	if err != nil {
		return err
	}
	packet.Unknowns = append(packet.Unknowns, &psbt.Unknown{
		Key:   proprietaryKey,
		Value: payload,
	})
	return nil
}

// Decode parses a base64 psbt.
func Decode(psbtBase64 string) (*psbt.Packet, error) {
	packet, err := psbt.NewFromRawBytes(
		bytes.NewReader([]byte(psbtBase64)), true,
	)
	if err != nil {
		return nil, ErrInvalidPsbt
	}
	return packet, nil
}

// Encode serializes a psbt to base64.
func Encode(packet *psbt.Packet) (string, error) {
	return packet.B64Encode()
}

// ExtractTransition returns the state transition embedded in the psbt under
// the proprietary key.
func ExtractTransition(packet *psbt.Packet) (*transition.StateTransition, error) {
	for _, unknown := range packet.Unknowns {
		if !bytes.Equal(unknown.Key, proprietaryKey) {
			continue
		}
		st := &transition.StateTransition{}
		if err := json.Unmarshal(unknown.Value, st); err != nil {
			return nil, ErrTransitionNotFound
		}
		if err := st.Validate(); err != nil {
			return nil, err
		}
		return st, nil
	}
	return nil, ErrTransitionNotFound
}

// TxID returns the transaction id of the witness transaction wrapped by the
// psbt.
func TxID(packet *psbt.Packet) string {
	return packet.UnsignedTx.TxHash().String()
}
