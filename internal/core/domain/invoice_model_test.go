package domain_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sealpay-network/sealpay-daemon/internal/core/domain"
	"github.com/sealpay-network/sealpay-daemon/pkg/seal"
)

func newRevealedSeal(t *testing.T) *seal.Revealed {
	t.Helper()

	revealed, _, err := seal.Blind(seal.BlindOpts{
		Outpoint:    seal.Outpoint{TxID: strings.Repeat("bb", 32), VOut: 1},
		CloseMethod: seal.CloseMethodTapretFirst,
	})
	require.NoError(t, err)
	return revealed
}

func TestInvoiceEncodeParse(t *testing.T) {
	t.Parallel()

	revealed := newRevealedSeal(t)
	invoice, err := domain.NewInvoice(
		issuer, "contractid", domain.InterfaceFungible, 25000, revealed,
	)
	require.NoError(t, err)
	require.False(t, invoice.Consumed)
	require.Equal(t, revealed.Conceal(), invoice.ConcealedSeal)

	terms, err := domain.ParseInvoiceTerms(invoice.Encode())
	require.NoError(t, err)
	require.Equal(t, invoice.ContractID, terms.ContractID)
	require.Equal(t, invoice.Interface, terms.Interface)
	require.Equal(t, invoice.Amount, terms.Amount)
	require.Equal(t, invoice.ConcealedSeal, terms.ConcealedSeal)
}

func TestFailingParseInvoiceTerms(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		invoice string
	}{
		{
			name:    "missing_scheme",
			invoice: "contractid/SPA20/100/utxob:00",
		},
		{
			name:    "missing_parts",
			invoice: "sealpay:contractid/SPA20/100",
		},
		{
			name:    "null_amount",
			invoice: "sealpay:contractid/SPA20/0/utxob:00",
		},
		{
			name:    "invalid_seal",
			invoice: "sealpay:contractid/SPA20/100/utxob:zz",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := domain.ParseInvoiceTerms(tt.invoice)
			require.ErrorIs(t, err, domain.ErrInvalidInvoiceString)
		})
	}
}

func TestInvoiceConsume(t *testing.T) {
	t.Parallel()

	invoice, err := domain.NewInvoice(
		issuer, "contractid", domain.InterfaceFungible, 100, newRevealedSeal(t),
	)
	require.NoError(t, err)

	require.NoError(t, invoice.Consume())
	require.True(t, invoice.Consumed)
	require.ErrorIs(t, invoice.Consume(), domain.ErrInvoiceAlreadyConsumed)

	_, err = domain.NewInvoice(
		issuer, "contractid", domain.InterfaceFungible, 0, newRevealedSeal(t),
	)
	require.ErrorIs(t, err, domain.ErrInvoiceInvalidAmount)
}
