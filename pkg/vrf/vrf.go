// Package vrf requests verifiable random words and delivers their fulfillments.
package vrf

import (
	"context"
	"errors"
	"math/big"
)

var (
	ErrNoSubscription = errors.New("randomness subscription does not exist")
	ErrInvalidRequest = errors.New("invalid randomness request")
)

// Request asks the oracle for NumWords random words. A non-empty Seed identifies the request:
// asking again with the same seed returns the original request ID.
type Request struct {
	Seed     []byte
	NumWords int
}

// Fulfillment is the oracle's answer to a request.
type Fulfillment struct {
	RequestID   string
	RandomWords []*big.Int
}

// Coordinator is the randomness oracle. Fulfillments arrive asynchronously on the channel.
type Coordinator interface {
	RequestRandomWords(ctx context.Context, req Request) (string, error)
	Fulfillments() <-chan Fulfillment
}
