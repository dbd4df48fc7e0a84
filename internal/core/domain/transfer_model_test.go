package domain_test

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/sealpay-network/sealpay-daemon/internal/core/domain"
	"github.com/sealpay-network/sealpay-daemon/pkg/seal"
	"github.com/sealpay-network/sealpay-daemon/pkg/transition"
)

func newTestTransition(t *testing.T) transition.StateTransition {
	t.Helper()

	txid := strings.Repeat("ef", 32)
	_, in, err := seal.BlindWithFactor(seal.BlindOpts{
		Outpoint:    seal.Outpoint{TxID: txid, VOut: 0},
		CloseMethod: seal.CloseMethodOpretFirst,
	}, 1)
	require.NoError(t, err)
	_, out, err := seal.BlindWithFactor(seal.BlindOpts{
		Outpoint:    seal.Outpoint{TxID: txid, VOut: 1},
		CloseMethod: seal.CloseMethodOpretFirst,
	}, 2)
	require.NoError(t, err)

	return transition.StateTransition{
		ContractID: "contract",
		Inputs:     []transition.Assignment{{Seal: in, Amount: 100}},
		Outputs:    []transition.Assignment{{Seal: out, Amount: 100}},
	}
}

func TestTransferLifecycle(t *testing.T) {
	t.Parallel()

	st := newTestTransition(t)
	transfer := domain.NewTransfer(
		"payer", uuid.New(), st, "psbt", strings.Repeat("00", 32),
	)

	require.True(t, transfer.IsPending())
	require.False(t, transfer.IsAccepted())
	require.Equal(t, st.ID(), transfer.TransitionID)
	require.NotZero(t, transfer.Timestamp.Create)

	transfer.Sign("signed psbt")
	require.False(t, transfer.IsPending())
	require.Equal(t, domain.SignedStatus, transfer.Status)
	require.Equal(t, "signed psbt", transfer.PsbtBase64)
	require.NotZero(t, transfer.Timestamp.Sign)

	transfer.Accept()
	require.True(t, transfer.IsAccepted())
	require.NotZero(t, transfer.Timestamp.Accept)
}

func TestTransferFail(t *testing.T) {
	t.Parallel()

	st := newTestTransition(t)
	transfer := domain.NewTransfer("payer", uuid.Nil, st, "psbt", "")

	// A failed signature keeps the transfer pending so its inputs stay
	// reserved, but flags it failed.
	transfer.Fail()
	require.True(t, transfer.IsPending())
	require.Equal(t, domain.FailedToSignStatus, transfer.Status)
}

func TestTransferAbandon(t *testing.T) {
	t.Parallel()

	st := newTestTransition(t)
	transfer := domain.NewTransfer("payer", uuid.Nil, st, "psbt", "")

	transfer.Abandon()
	require.False(t, transfer.IsPending())
	require.False(t, transfer.IsAccepted())
	require.Equal(t, domain.AbandonedStatus, transfer.Status)
}
