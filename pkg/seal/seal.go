package seal

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// CloseMethod is the tag identifying how a seal is closed on-chain.
type CloseMethod string

const (
	// CloseMethodTapretFirst seals are closed by a tapret commitment on the
	// first taproot output of the witness transaction.
	CloseMethodTapretFirst CloseMethod = "tapret1st"
	// CloseMethodOpretFirst seals are closed by an OP_RETURN commitment on
	// the first output of the witness transaction.
	CloseMethodOpretFirst CloseMethod = "opret1st"
)

var (
	// ErrInvalidCloseMethod ...
	ErrInvalidCloseMethod = errors.New("invalid seal close method")
	// ErrInvalidOutpoint ...
	ErrInvalidOutpoint = errors.New("invalid outpoint, must be in txid:vout format")
	// ErrInvalidDescriptor ...
	ErrInvalidDescriptor = errors.New(
		"invalid seal descriptor, must be in closemethod:txid:vout format",
	)
	// ErrInvalidConcealedSeal ...
	ErrInvalidConcealedSeal = errors.New("invalid concealed seal")
)

// concealTag domain-separates seal digests from any other sha256 usage.
const concealTag = "sealpay/seal/v1"

// ParseCloseMethod returns the CloseMethod matching the given string.
func ParseCloseMethod(s string) (CloseMethod, error) {
	switch CloseMethod(s) {
	case CloseMethodTapretFirst, CloseMethodOpretFirst:
		return CloseMethod(s), nil
	default:
		return "", ErrInvalidCloseMethod
	}
}

// Outpoint identifies a spendable Bitcoin output by transaction id and
// output index.
type Outpoint struct {
	TxID string `json:"txid"`
	VOut uint32 `json:"vout"`
}

// ParseOutpoint parses an outpoint from its txid:vout string form.
func ParseOutpoint(s string) (*Outpoint, error) {
	i := strings.LastIndex(s, ":")
	if i < 0 {
		return nil, ErrInvalidOutpoint
	}
	txid, voutStr := s[:i], s[i+1:]
	if _, err := chainhash.NewHashFromStr(txid); err != nil {
		return nil, ErrInvalidOutpoint
	}
	vout, err := strconv.ParseUint(voutStr, 10, 32)
	if err != nil {
		return nil, ErrInvalidOutpoint
	}
	return &Outpoint{TxID: txid, VOut: uint32(vout)}, nil
}

func (o Outpoint) String() string {
	return fmt.Sprintf("%s:%d", o.TxID, o.VOut)
}

// Hash returns the outpoint txid as a chainhash.Hash.
func (o Outpoint) Hash() (*chainhash.Hash, error) {
	return chainhash.NewHashFromStr(o.TxID)
}

// Revealed is the secret form of a single-use seal: the underlying outpoint
// together with the blinding factor. It is known only to its creator until
// disclosed at transfer acceptance.
type Revealed struct {
	Method   CloseMethod `json:"method"`
	Outpoint Outpoint    `json:"outpoint"`
	Blinding uint64      `json:"blinding"`
}

// Conceal derives the published one-way digest of the seal. The digest is
// deterministic for a fixed (method, outpoint, blinding) triple, while the
// revealed form cannot be recovered from it.
func (r *Revealed) Conceal() Concealed {
	h := sha256.New()
	h.Write([]byte(concealTag))
	h.Write([]byte(r.Method))
	if hash, err := r.Outpoint.Hash(); err == nil {
		h.Write(hash[:])
	} else {
		// Not a valid txid: commit to the raw string so even a malformed
		// seal digests over its full serialization.
		h.Write([]byte(r.Outpoint.TxID))
	}
	var buf [12]byte
	binary.BigEndian.PutUint32(buf[:4], r.Outpoint.VOut)
	binary.BigEndian.PutUint64(buf[4:], r.Blinding)
	h.Write(buf[:])

	var c Concealed
	copy(c[:], h.Sum(nil))
	return c
}

// Validate returns whether the revealed seal is well formed. Seals arriving
// from the outside must be validated before their digest means anything.
func (r *Revealed) Validate() error {
	if _, err := r.Outpoint.Hash(); err != nil {
		return ErrInvalidOutpoint
	}
	if _, err := ParseCloseMethod(string(r.Method)); err != nil {
		return err
	}
	return nil
}

// Descriptor returns the seal in closemethod:txid:vout form, ie. the
// revealed seal without its blinding factor.
func (r *Revealed) Descriptor() string {
	return fmt.Sprintf("%s:%s", r.Method, r.Outpoint)
}

// Concealed is the published digest form of a seal, safe to embed in
// invoices and state transitions.
type Concealed [sha256.Size]byte

// ParseConcealed parses a concealed seal from its hex string form.
func ParseConcealed(s string) (Concealed, error) {
	var c Concealed
	buf, err := hex.DecodeString(strings.TrimPrefix(s, "utxob:"))
	if err != nil || len(buf) != sha256.Size {
		return c, ErrInvalidConcealedSeal
	}
	copy(c[:], buf)
	return c, nil
}

func (c Concealed) String() string {
	return "utxob:" + hex.EncodeToString(c[:])
}

// MarshalText implements encoding.TextMarshaler.
func (c Concealed) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *Concealed) UnmarshalText(data []byte) error {
	parsed, err := ParseConcealed(string(data))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// BlindOpts is the struct given to the Blind method.
type BlindOpts struct {
	Outpoint    Outpoint
	CloseMethod CloseMethod
}

func (o BlindOpts) validate() error {
	if _, err := o.Outpoint.Hash(); err != nil {
		return ErrInvalidOutpoint
	}
	if _, err := ParseCloseMethod(string(o.CloseMethod)); err != nil {
		return err
	}
	return nil
}

// Blind converts an unspent outpoint into a single-use seal, drawing the
// blinding factor from a cryptographically secure random source. It returns
// both the revealed seal, to be retained by the caller, and its concealed
// digest, safe to publish.
func Blind(opts BlindOpts) (*Revealed, Concealed, error) {
	if err := opts.validate(); err != nil {
		return nil, Concealed{}, err
	}

	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return nil, Concealed{}, err
	}
	blinding := binary.BigEndian.Uint64(buf[:])

	return BlindWithFactor(opts, blinding)
}

// BlindWithFactor is like Blind but with a caller-provided blinding factor.
// It is meant for seals whose revealed form is public from the start, like
// contract genesis seals, where a deterministic digest is wanted for
// idempotent retries.
func BlindWithFactor(opts BlindOpts, blinding uint64) (*Revealed, Concealed, error) {
	if err := opts.validate(); err != nil {
		return nil, Concealed{}, err
	}

	revealed := &Revealed{
		Method:   opts.CloseMethod,
		Outpoint: opts.Outpoint,
		Blinding: blinding,
	}
	return revealed, revealed.Conceal(), nil
}

// ParseDescriptor parses a seal descriptor in closemethod:txid:vout form.
func ParseDescriptor(s string) (*Outpoint, CloseMethod, error) {
	i := strings.Index(s, ":")
	if i < 0 {
		return nil, "", ErrInvalidDescriptor
	}
	method, err := ParseCloseMethod(s[:i])
	if err != nil {
		return nil, "", err
	}
	outpoint, err := ParseOutpoint(s[i+1:])
	if err != nil {
		return nil, "", err
	}
	return outpoint, method, nil
}
