package vrf

import (
	"context"
	"encoding/binary"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/google/uuid"
	"golang.org/x/exp/slog"
)

var _ Coordinator = (*LocalCoordinator)(nil)

// LocalConfig configures an in-process coordinator.
type LocalConfig struct {
	Secret              string
	SubscriptionBalance int64
	RequestFee          int64
	Buffer              int
}

type pendingRequest struct {
	id  string
	req Request
}

// LocalCoordinator derives random words from a secret with keccak256 and bills each request
// against a subscription. Requests made while the subscription cannot pay the fee stay pending
// until Fund tops it up.
type LocalCoordinator struct {
	mu         sync.Mutex
	secret     []byte
	balance    int64
	fee        int64
	subscribed bool
	unpaid     []pendingRequest
	backlog    []Fulfillment
	out        chan Fulfillment
	bySeed     map[string]string
}

// NewLocalCoordinator creates a coordinator with an active subscription.
func NewLocalCoordinator(cfg LocalConfig) *LocalCoordinator {
	buffer := cfg.Buffer
	if buffer <= 0 {
		buffer = 64
	}
	return &LocalCoordinator{
		secret:     []byte(cfg.Secret),
		balance:    cfg.SubscriptionBalance,
		fee:        cfg.RequestFee,
		subscribed: true,
		out:        make(chan Fulfillment, buffer),
		bySeed:     make(map[string]string),
	}
}

func (c *LocalCoordinator) RequestRandomWords(ctx context.Context, req Request) (string, error) {
	if req.NumWords <= 0 {
		return "", fmt.Errorf("%w: numWords must be positive", ErrInvalidRequest)
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.subscribed {
		return "", ErrNoSubscription
	}
	if id, ok := c.bySeed[string(req.Seed)]; ok && len(req.Seed) > 0 {
		slog.Debug("Randomness request repeated, returning original", "requestId", id)
		return id, nil
	}
	id := uuid.New().String()
	if len(req.Seed) > 0 {
		c.bySeed[string(req.Seed)] = id
	}
	p := pendingRequest{id: id, req: req}
	if c.balance < c.fee {
		slog.Warn("Randomness subscription underfunded, request left pending", "requestId", id, "balance", c.balance, "fee", c.fee)
		c.unpaid = append(c.unpaid, p)
		return id, nil
	}
	c.balance -= c.fee
	c.enqueue(c.fulfill(p))
	return id, nil
}

func (c *LocalCoordinator) Fulfillments() <-chan Fulfillment {
	return c.out
}

// Fund adds to the subscription balance and serves pending requests it can now pay for.
func (c *LocalCoordinator) Fund(amount int64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.balance += amount
	for len(c.unpaid) > 0 && c.balance >= c.fee {
		p := c.unpaid[0]
		c.unpaid = c.unpaid[1:]
		c.balance -= c.fee
		c.enqueue(c.fulfill(p))
	}
	c.flush()
}

// CancelSubscription makes every later request fail.
func (c *LocalCoordinator) CancelSubscription() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.subscribed = false
}

// Balance is the remaining subscription balance.
func (c *LocalCoordinator) Balance() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.balance
}

// PendingCount is the number of requests waiting for funds or channel capacity.
func (c *LocalCoordinator) PendingCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.unpaid) + len(c.backlog)
}

// Words derives the random words for a request. The derivation is deterministic per
// (secret, requestID, seed) so a fulfillment can be recomputed and verified.
func (c *LocalCoordinator) Words(requestID string, req Request) []*big.Int {
	words := make([]*big.Int, req.NumWords)
	for i := range words {
		var idx [8]byte
		binary.BigEndian.PutUint64(idx[:], uint64(i))
		h := crypto.Keccak256(c.secret, []byte(requestID), req.Seed, idx[:])
		words[i] = new(big.Int).SetBytes(h)
	}
	return words
}

func (c *LocalCoordinator) fulfill(p pendingRequest) Fulfillment {
	return Fulfillment{RequestID: p.id, RandomWords: c.Words(p.id, p.req)}
}

// enqueue must be called with mu held.
func (c *LocalCoordinator) enqueue(f Fulfillment) {
	c.backlog = append(c.backlog, f)
	c.flush()
}

func (c *LocalCoordinator) flush() {
	for len(c.backlog) > 0 {
		select {
		case c.out <- c.backlog[0]:
			c.backlog = c.backlog[1:]
		default:
			return
		}
	}
}
