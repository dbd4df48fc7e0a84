package domain_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/sealpay-network/sealpay-daemon/internal/core/domain"
)

func TestAllocationLifecycle(t *testing.T) {
	t.Parallel()

	revealed := newRevealedSeal(t)
	allocation := domain.Allocation{
		ContractID: "contractid",
		Seal:       revealed.Conceal(),
		Owner:      issuer,
		Amount:     1000,
		Revealed:   revealed,
	}
	require.True(t, allocation.IsAvailable())

	transferID := uuid.New()
	require.NoError(t, allocation.Lock(transferID))
	require.False(t, allocation.IsAvailable())

	// Re-locking by the same transfer is a no-op, by another one an error.
	require.NoError(t, allocation.Lock(transferID))
	require.ErrorIs(t, allocation.Lock(uuid.New()), domain.ErrAllocationLocked)

	allocation.Unlock()
	require.True(t, allocation.IsAvailable())

	require.NoError(t, allocation.Lock(transferID))
	require.NoError(t, allocation.Spend())
	require.False(t, allocation.IsAvailable())
	require.Nil(t, allocation.LockedBy)

	require.ErrorIs(t, allocation.Spend(), domain.ErrAllocationAlreadySpent)
	require.ErrorIs(t, allocation.Lock(transferID), domain.ErrAllocationAlreadySpent)
}
