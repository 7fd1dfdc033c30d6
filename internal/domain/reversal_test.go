package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

const testWindow = 15 * time.Minute

func TestReversalEligible(t *testing.T) {
	now := time.Now()

	assert.True(t, ReversalEligible(now.Add(-5*time.Minute), now, testWindow))
	assert.False(t, ReversalEligible(now.Add(-20*time.Minute), now, testWindow))
}

func TestReversalEligible_Boundary(t *testing.T) {
	now := time.Now()

	// Exactly at the window edge is still eligible; one second past is not.
	assert.True(t, ReversalEligible(now.Add(-testWindow), now, testWindow))
	assert.False(t, ReversalEligible(now.Add(-testWindow-time.Second), now, testWindow))
}

func TestReversalEligible_FutureCreatedAt(t *testing.T) {
	// A created_at slightly ahead of our clock means skew between writers,
	// not an old transaction.
	now := time.Now()
	assert.True(t, ReversalEligible(now.Add(2*time.Second), now, testWindow))
}

func TestReversibleUntil(t *testing.T) {
	createdAt := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, createdAt.Add(testWindow), ReversibleUntil(createdAt, testWindow))
}

func TestReversalMarker(t *testing.T) {
	id := uuid.New()
	marker := ReversalMarker(id)

	assert.Equal(t, "WRONG_PAYMENT_REVERSAL:"+id.String(), marker)
	assert.True(t, IsReversalMarker(marker))
	assert.False(t, IsReversalMarker("Money transfer"))
	assert.False(t, IsReversalMarker(""))
}
