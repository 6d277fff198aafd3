package vrf

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalCoordinator_FulfillsFundedRequest(t *testing.T) {
	c := NewLocalCoordinator(LocalConfig{Secret: "s", SubscriptionBalance: 10, RequestFee: 4})

	req := Request{Seed: []byte("day-1"), NumWords: 4}
	id, err := c.RequestRandomWords(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, int64(6), c.Balance())

	select {
	case f := <-c.Fulfillments():
		assert.Equal(t, id, f.RequestID)
		require.Len(t, f.RandomWords, 4)
		assert.Equal(t, c.Words(id, req), f.RandomWords)
	default:
		t.Fatal("expected a fulfillment")
	}
}

func TestLocalCoordinator_UnderfundedRequestWaitsForFunding(t *testing.T) {
	c := NewLocalCoordinator(LocalConfig{Secret: "s", SubscriptionBalance: 1, RequestFee: 4})

	id, err := c.RequestRandomWords(context.Background(), Request{NumWords: 4})
	require.NoError(t, err)
	assert.Equal(t, 1, c.PendingCount())
	select {
	case <-c.Fulfillments():
		t.Fatal("underfunded request must not be fulfilled")
	default:
	}

	c.Fund(10)
	f := <-c.Fulfillments()
	assert.Equal(t, id, f.RequestID)
	assert.Equal(t, int64(7), c.Balance())
	assert.Zero(t, c.PendingCount())
}

func TestLocalCoordinator_RepeatedSeedReturnsOriginalRequest(t *testing.T) {
	c := NewLocalCoordinator(LocalConfig{Secret: "s", SubscriptionBalance: 10, RequestFee: 4})
	ctx := context.Background()

	req := Request{Seed: []byte("day-1/attempt-1"), NumWords: 4}
	first, err := c.RequestRandomWords(ctx, req)
	require.NoError(t, err)
	again, err := c.RequestRandomWords(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, first, again)
	assert.Equal(t, int64(6), c.Balance(), "a repeated request must not be billed")

	f := <-c.Fulfillments()
	assert.Equal(t, first, f.RequestID)
	select {
	case <-c.Fulfillments():
		t.Fatal("a repeated request must not be fulfilled twice")
	default:
	}

	other, err := c.RequestRandomWords(ctx, Request{Seed: []byte("day-1/attempt-2"), NumWords: 4})
	require.NoError(t, err)
	assert.NotEqual(t, first, other)
	assert.Equal(t, int64(2), c.Balance())
}

func TestLocalCoordinator_CancelledSubscriptionFails(t *testing.T) {
	c := NewLocalCoordinator(LocalConfig{Secret: "s"})
	c.CancelSubscription()
	_, err := c.RequestRandomWords(context.Background(), Request{NumWords: 4})
	require.ErrorIs(t, err, ErrNoSubscription)
}

func TestLocalCoordinator_RejectsZeroWords(t *testing.T) {
	c := NewLocalCoordinator(LocalConfig{})
	_, err := c.RequestRandomWords(context.Background(), Request{})
	require.ErrorIs(t, err, ErrInvalidRequest)
}

func TestLocalCoordinator_BacklogWhenChannelFull(t *testing.T) {
	c := NewLocalCoordinator(LocalConfig{Buffer: 1})
	ctx := context.Background()
	_, err := c.RequestRandomWords(ctx, Request{NumWords: 1})
	require.NoError(t, err)
	_, err = c.RequestRandomWords(ctx, Request{NumWords: 1})
	require.NoError(t, err)
	assert.Equal(t, 1, c.PendingCount())

	<-c.Fulfillments()
	c.Fund(0)
	<-c.Fulfillments()
	assert.Zero(t, c.PendingCount())
}

func TestWordsAreDeterministicPerRequest(t *testing.T) {
	c := NewLocalCoordinator(LocalConfig{Secret: "s"})
	req := Request{Seed: []byte("x"), NumWords: 2}
	assert.Equal(t, c.Words("a", req), c.Words("a", req))
	assert.NotEqual(t, c.Words("a", req), c.Words("b", req))
}
