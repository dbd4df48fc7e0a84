package psbtutil

import (
	"crypto/sha256"
	"errors"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/btcsuite/btcd/btcutil/psbt"
)

var (
	// ErrNullSigningKey ...
	ErrNullSigningKey = errors.New("signing key must not be null")
	// ErrAlreadySigned ...
	ErrAlreadySigned = errors.New("psbt input is already signed for this key")
)

// SignOpts is the struct given to the Sign method.
type SignOpts struct {
	Packet     *psbt.Packet
	SigningKey *btcec.PrivateKey
}

func (o SignOpts) validate() error {
	if o.Packet == nil {
		return ErrInvalidPsbt
	}
	if o.SigningKey == nil {
		return ErrNullSigningKey
	}
	if _, err := ExtractTransition(o.Packet); err != nil {
		return err
	}
	return nil
}

// Sign attaches a partial signature for every psbt input, committing to both
// the embedded transition id and the outpoint being spent. Signing mutates
// only the packet, never stored state, so a failed signing can always be
// retried.
func Sign(opts SignOpts) error {
	if err := opts.validate(); err != nil {
		return err
	}

	st, _ := ExtractTransition(opts.Packet)
	transitionID := st.ID()
	pubkey := opts.SigningKey.PubKey().SerializeCompressed()

	for i := range opts.Packet.Inputs {
		pin := &opts.Packet.Inputs[i]
		for _, partialSig := range pin.PartialSigs {
			if string(partialSig.PubKey) == string(pubkey) {
				return ErrAlreadySigned
			}
		}

		digest := signingDigest(
			transitionID, opts.Packet.UnsignedTx.TxIn[i].PreviousOutPoint.String(),
		)
		sig := ecdsa.Sign(opts.SigningKey, digest)

		pin.PartialSigs = append(pin.PartialSigs, &psbt.PartialSig{
			PubKey:    pubkey,
			Signature: sig.Serialize(),
		})
	}

	return nil
}

// VerifyOpts is the struct given to the Verify method.
type VerifyOpts struct {
	Packet *psbt.Packet
	Pubkey *btcec.PublicKey
}

// Verify checks that every input of the psbt carries a valid signature from
// the given public key over the embedded transition and the input outpoint.
func Verify(opts VerifyOpts) (bool, error) {
	if opts.Packet == nil {
		return false, ErrInvalidPsbt
	}
	st, err := ExtractTransition(opts.Packet)
	if err != nil {
		return false, err
	}
	transitionID := st.ID()
	pubkey := opts.Pubkey.SerializeCompressed()

	for i := range opts.Packet.Inputs {
		pin := &opts.Packet.Inputs[i]
		digest := signingDigest(
			transitionID, opts.Packet.UnsignedTx.TxIn[i].PreviousOutPoint.String(),
		)

		signed := false
		for _, partialSig := range pin.PartialSigs {
			if string(partialSig.PubKey) != string(pubkey) {
				continue
			}
			sig, err := ecdsa.ParseDERSignature(partialSig.Signature)
			if err != nil {
				return false, err
			}
			if sig.Verify(digest, opts.Pubkey) {
				signed = true
				break
			}
		}
		if !signed {
			return false, nil
		}
	}

	return true, nil
}

func signingDigest(transitionID, outpoint string) []byte {
	digest := sha256.Sum256([]byte("sealpay/sig/v1" + transitionID + outpoint))
	return digest[:]
}
