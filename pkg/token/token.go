// Package token moves payment tokens between players and the lottery treasury.
package token

import (
	"context"
	"errors"

	"github.com/ethereum/go-ethereum/common"
)

var (
	ErrInsufficientBalance   = errors.New("insufficient token balance")
	ErrInsufficientAllowance = errors.New("insufficient token allowance")
	ErrInvalidAmount         = errors.New("amount must be positive")
)

// Token is the payment token as seen from the treasury.
type Token interface {
	// TransferFrom pulls amount from a player into the treasury using the player's allowance.
	TransferFrom(ctx context.Context, from string, amount int64) error
	// Transfer pays amount out of the treasury.
	Transfer(ctx context.Context, to string, amount int64) error
	BalanceOf(ctx context.Context, addr string) (int64, error)
}

// NormalizeAddress validates a hex address and returns its EIP-55 checksummed form.
func NormalizeAddress(addr string) (string, error) {
	if !common.IsHexAddress(addr) {
		return "", errors.New("not a hex address")
	}
	return common.HexToAddress(addr).Hex(), nil
}
