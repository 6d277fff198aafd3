package token

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	treasuryAddr = "0x00000000000000000000000000000000000000aa"
	playerAddr   = "0x1111111111111111111111111111111111111111"
)

func TestLedger_TransferFromRequiresAllowanceAndBalance(t *testing.T) {
	ctx := context.Background()
	l := NewLedger(treasuryAddr, 0)

	l.Mint(playerAddr, 10)
	err := l.TransferFrom(ctx, playerAddr, 5)
	require.ErrorIs(t, err, ErrInsufficientAllowance)

	l.Approve(playerAddr, 100)
	err = l.TransferFrom(ctx, playerAddr, 50)
	require.ErrorIs(t, err, ErrInsufficientBalance)

	require.NoError(t, l.TransferFrom(ctx, playerAddr, 4))
	bal, _ := l.BalanceOf(ctx, playerAddr)
	assert.Equal(t, int64(6), bal)
	bal, _ = l.BalanceOf(ctx, l.Treasury())
	assert.Equal(t, int64(4), bal)
}

func TestLedger_Transfer(t *testing.T) {
	ctx := context.Background()
	l := NewLedger(treasuryAddr, 3)

	require.ErrorIs(t, l.Transfer(ctx, playerAddr, 4), ErrInsufficientBalance)
	require.ErrorIs(t, l.Transfer(ctx, playerAddr, 0), ErrInvalidAmount)
	require.NoError(t, l.Transfer(ctx, playerAddr, 3))

	bal, _ := l.BalanceOf(ctx, playerAddr)
	assert.Equal(t, int64(3), bal)
}

func TestNormalizeAddress(t *testing.T) {
	n, err := NormalizeAddress("0x5aaeb6053f3e94c9b9a09f16f4216a3f0c5a3d1f")
	require.NoError(t, err)
	assert.Equal(t, "0x5aAeb6053F3E94C9b9A09f16F4216A3F0C5A3D1F", n)

	_, err = NormalizeAddress("not-an-address")
	require.Error(t, err)
}
