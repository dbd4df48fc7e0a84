package seal_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sealpay-network/sealpay-daemon/pkg/seal"
)

const testTxID = "2f1dd9f32d33857d222db8d318cd0b3d24642273200ca783b0bd4c8a9fe151bc"

func TestBlind(t *testing.T) {
	t.Parallel()

	opts := seal.BlindOpts{
		Outpoint:    seal.Outpoint{TxID: testTxID, VOut: 1},
		CloseMethod: seal.CloseMethodTapretFirst,
	}

	revealed, concealed, err := seal.Blind(opts)
	require.NoError(t, err)
	require.NotNil(t, revealed)
	require.Equal(t, opts.Outpoint, revealed.Outpoint)
	require.Equal(t, seal.CloseMethodTapretFirst, revealed.Method)
	require.Equal(t, revealed.Conceal(), concealed)

	// Same outpoint blinded twice must yield unlinkable digests.
	_, other, err := seal.Blind(opts)
	require.NoError(t, err)
	require.NotEqual(t, concealed, other)
}

func TestConcealIsDeterministic(t *testing.T) {
	t.Parallel()

	opts := seal.BlindOpts{
		Outpoint:    seal.Outpoint{TxID: testTxID, VOut: 0},
		CloseMethod: seal.CloseMethodOpretFirst,
	}

	first, firstDigest, err := seal.BlindWithFactor(opts, 42)
	require.NoError(t, err)
	second, secondDigest, err := seal.BlindWithFactor(opts, 42)
	require.NoError(t, err)

	require.Equal(t, firstDigest, secondDigest)
	require.Equal(t, first.Conceal(), second.Conceal())

	// Any change to the triple must change the digest.
	_, otherBlinding, err := seal.BlindWithFactor(opts, 43)
	require.NoError(t, err)
	require.NotEqual(t, firstDigest, otherBlinding)

	opts.CloseMethod = seal.CloseMethodTapretFirst
	_, otherMethod, err := seal.BlindWithFactor(opts, 42)
	require.NoError(t, err)
	require.NotEqual(t, firstDigest, otherMethod)
}

func TestFailingBlind(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		opts          seal.BlindOpts
		expectedError error
	}{
		{
			name: "invalid_txid",
			opts: seal.BlindOpts{
				Outpoint:    seal.Outpoint{TxID: "notahash", VOut: 0},
				CloseMethod: seal.CloseMethodTapretFirst,
			},
			expectedError: seal.ErrInvalidOutpoint,
		},
		{
			name: "invalid_close_method",
			opts: seal.BlindOpts{
				Outpoint:    seal.Outpoint{TxID: testTxID, VOut: 0},
				CloseMethod: seal.CloseMethod("tapret2nd"),
			},
			expectedError: seal.ErrInvalidCloseMethod,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := seal.Blind(tt.opts)
			require.ErrorIs(t, err, tt.expectedError)
		})
	}
}

func TestRevealedValidate(t *testing.T) {
	t.Parallel()

	revealed := &seal.Revealed{
		Method:   seal.CloseMethodOpretFirst,
		Outpoint: seal.Outpoint{TxID: testTxID, VOut: 0},
		Blinding: 1,
	}
	require.NoError(t, revealed.Validate())

	badTxID := &seal.Revealed{
		Method:   seal.CloseMethodOpretFirst,
		Outpoint: seal.Outpoint{TxID: "notahash", VOut: 0},
		Blinding: 1,
	}
	require.ErrorIs(t, badTxID.Validate(), seal.ErrInvalidOutpoint)

	badMethod := &seal.Revealed{
		Method:   seal.CloseMethod("opret2nd"),
		Outpoint: seal.Outpoint{TxID: testTxID, VOut: 0},
		Blinding: 1,
	}
	require.ErrorIs(t, badMethod.Validate(), seal.ErrInvalidCloseMethod)

	// Even malformed seals digest over their full serialization: distinct
	// invalid txids never collide by truncation.
	other := *badTxID
	other.Outpoint.TxID = "anotherhash"
	require.NotEqual(t, badTxID.Conceal(), other.Conceal())
}

func TestParseDescriptor(t *testing.T) {
	t.Parallel()

	outpoint, method, err := seal.ParseDescriptor("tapret1st:" + testTxID + ":3")
	require.NoError(t, err)
	require.Equal(t, seal.CloseMethodTapretFirst, method)
	require.Equal(t, testTxID, outpoint.TxID)
	require.Equal(t, uint32(3), outpoint.VOut)

	_, _, err = seal.ParseDescriptor(testTxID + ":3")
	require.Error(t, err)

	_, _, err = seal.ParseDescriptor("tapret1st:" + testTxID)
	require.ErrorIs(t, err, seal.ErrInvalidOutpoint)
}

func TestConcealedRoundTrip(t *testing.T) {
	t.Parallel()

	revealed := &seal.Revealed{
		Method:   seal.CloseMethodTapretFirst,
		Outpoint: seal.Outpoint{TxID: testTxID, VOut: 2},
		Blinding: 7777,
	}
	concealed := revealed.Conceal()

	parsed, err := seal.ParseConcealed(concealed.String())
	require.NoError(t, err)
	require.Equal(t, concealed, parsed)

	buf, err := json.Marshal(concealed)
	require.NoError(t, err)

	var decoded seal.Concealed
	require.NoError(t, json.Unmarshal(buf, &decoded))
	require.Equal(t, concealed, decoded)

	_, err = seal.ParseConcealed("utxob:deadbeef")
	require.ErrorIs(t, err, seal.ErrInvalidConcealedSeal)
}
