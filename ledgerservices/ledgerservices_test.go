package ledgerservices

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"snapshotledger/identity"
	"snapshotledger/ledgertypes"
)

func TestTransferSnapshotTransactionMovesBalance(t *testing.T) {
	svc := NewAddressService()
	src, err := identity.GenerateKeyPair()
	require.NoError(t, err)
	dst, err := identity.GenerateKeyPair()
	require.NoError(t, err)

	tx, err := ledgertypes.CreateTransactionEdge(src.Id(), dst.Id(), ledgertypes.EmptyLastTransactionRef, 7, src, nil, true)
	require.NoError(t, err)

	require.NoError(t, svc.TransferSnapshotTransaction(tx))

	want := decimal.NewFromInt(7 * ledgertypes.NormalizationFactor)
	require.True(t, svc.GetBalance(dst.Id()).Equal(want))
	require.True(t, svc.GetBalance(src.Id()).Equal(want.Neg()))
}

func TestTransferSnapshotTransactionSkipsDummy(t *testing.T) {
	svc := NewAddressService()
	src, _ := identity.GenerateKeyPair()
	dst, _ := identity.GenerateKeyPair()

	tx, err := ledgertypes.CreateTransactionEdge(src.Id(), dst.Id(), ledgertypes.EmptyLastTransactionRef, 0, src, nil, false)
	require.NoError(t, err)
	require.True(t, IsDummyTransaction(tx))

	require.NoError(t, svc.TransferSnapshotTransaction(tx))
	require.True(t, svc.GetBalance(dst.Id()).IsZero())
}

func TestApplySnapshotDirectIsIdempotent(t *testing.T) {
	svc := NewTransactionService()
	src, _ := identity.GenerateKeyPair()
	dst, _ := identity.GenerateKeyPair()
	tx, err := ledgertypes.CreateTransactionEdge(src.Id(), dst.Id(), ledgertypes.EmptyLastTransactionRef, 1, src, nil, true)
	require.NoError(t, err)

	require.NoError(t, svc.ApplySnapshotDirect(tx))
	require.NoError(t, svc.ApplySnapshotDirect(tx))
	require.True(t, svc.IsApplied(tx.BaseHash()))
	require.Equal(t, 1, svc.AppliedCount())
}

func TestObservationRemoveIsIdempotent(t *testing.T) {
	svc := NewObservationService()
	svc.Track("h1")
	require.Equal(t, 1, svc.PendingCount())
	svc.Remove("h1")
	svc.Remove("h1")
	require.Equal(t, 0, svc.PendingCount())
}
