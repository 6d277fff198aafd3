package token

import (
	"context"
	"fmt"
	"sync"
)

var _ Token = (*Ledger)(nil)

// Ledger is an in-process token with balances and treasury allowances.
type Ledger struct {
	mu         sync.Mutex
	treasury   string
	balances   map[string]int64
	allowances map[string]int64
}

// NewLedger creates a ledger whose treasury starts with treasuryFunds.
func NewLedger(treasury string, treasuryFunds int64) *Ledger {
	l := &Ledger{
		treasury:   mustNormalize(treasury),
		balances:   make(map[string]int64),
		allowances: make(map[string]int64),
	}
	l.balances[l.treasury] = treasuryFunds
	return l
}

// Treasury is the address receiving ticket payments.
func (l *Ledger) Treasury() string {
	return l.treasury
}

// Mint credits addr with amount.
func (l *Ledger) Mint(addr string, amount int64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.balances[mustNormalize(addr)] += amount
}

// Approve sets the amount the treasury may pull from owner.
func (l *Ledger) Approve(owner string, amount int64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.allowances[mustNormalize(owner)] = amount
}

func (l *Ledger) TransferFrom(ctx context.Context, from string, amount int64) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	from = mustNormalize(from)
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.allowances[from] < amount {
		return fmt.Errorf("%w: %s allows %d, need %d", ErrInsufficientAllowance, from, l.allowances[from], amount)
	}
	if l.balances[from] < amount {
		return fmt.Errorf("%w: %s holds %d, need %d", ErrInsufficientBalance, from, l.balances[from], amount)
	}
	l.allowances[from] -= amount
	l.balances[from] -= amount
	l.balances[l.treasury] += amount
	return nil
}

func (l *Ledger) Transfer(ctx context.Context, to string, amount int64) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	to = mustNormalize(to)
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.balances[l.treasury] < amount {
		return fmt.Errorf("%w: treasury holds %d, need %d", ErrInsufficientBalance, l.balances[l.treasury], amount)
	}
	l.balances[l.treasury] -= amount
	l.balances[to] += amount
	return nil
}

func (l *Ledger) BalanceOf(ctx context.Context, addr string) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balances[mustNormalize(addr)], nil
}

// mustNormalize falls back to the raw string for non-hex identifiers.
func mustNormalize(addr string) string {
	if n, err := NormalizeAddress(addr); err == nil {
		return n
	}
	return addr
}
