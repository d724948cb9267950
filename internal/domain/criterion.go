package domain

import (
	"fmt"
	"strings"
)

// Commitment is the durability level requested from the data provider.
type Commitment string

const (
	CommitmentProcessed Commitment = "processed"
	CommitmentConfirmed Commitment = "confirmed"
	CommitmentFinalized Commitment = "finalized"
)

// DefaultSubscriptionTag names the transaction filter of a pool subscription.
const DefaultSubscriptionTag = "pool_swaps"

// ParseCommitment parses a commitment level (case-insensitive).
func ParseCommitment(s string) (Commitment, error) {
	c := Commitment(strings.ToLower(strings.TrimSpace(s)))
	if !c.IsValid() {
		return "", fmt.Errorf("unknown commitment %q", s)
	}
	return c, nil
}

// IsValid checks if the commitment is a known level.
func (c Commitment) IsValid() bool {
	switch c {
	case CommitmentProcessed, CommitmentConfirmed, CommitmentFinalized:
		return true
	}
	return false
}

// String returns the string representation of Commitment.
func (c Commitment) String() string {
	return string(c)
}

// SubscriptionCriterion identifies what a subscription watches.
// It is a value type and is never mutated after construction.
type SubscriptionCriterion struct {
	Account    PublicKey  // pool (or any account) to watch
	Commitment Commitment // requested durability
	Tag        string     // filter tag the provider echoes on matching notifications
}

// NewSubscriptionCriterion builds a criterion, filling defaults for empty fields.
func NewSubscriptionCriterion(account PublicKey, commitment Commitment, tag string) (SubscriptionCriterion, error) {
	if account.IsZero() {
		return SubscriptionCriterion{}, fmt.Errorf("criterion account is required")
	}
	if commitment == "" {
		commitment = CommitmentConfirmed
	}
	if !commitment.IsValid() {
		return SubscriptionCriterion{}, fmt.Errorf("unknown commitment %q", commitment)
	}
	if tag == "" {
		tag = DefaultSubscriptionTag
	}
	return SubscriptionCriterion{
		Account:    account,
		Commitment: commitment,
		Tag:        tag,
	}, nil
}
