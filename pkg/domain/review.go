package domain

import (
	"encoding/json"
	"fmt"
)

// ReviewKind tags a human review checkpoint.
type ReviewKind string

const (
	ReviewList         ReviewKind = "list_review"
	ReviewExpansion    ReviewKind = "expansion_review"
	ReviewCategory     ReviewKind = "category_review"
	ReviewProduct      ReviewKind = "product_review"
	ReviewOptimization ReviewKind = "optimization_review"
)

// AllReviewKinds lists every checkpoint in pipeline order.
var AllReviewKinds = []ReviewKind{
	ReviewList,
	ReviewExpansion,
	ReviewCategory,
	ReviewProduct,
	ReviewOptimization,
}

// Valid reports whether k is a known review kind.
func (k ReviewKind) Valid() bool {
	for _, known := range AllReviewKinds {
		if k == known {
			return true
		}
	}
	return false
}

// ParseReviewKind validates a raw review kind.
func ParseReviewKind(raw string) (ReviewKind, error) {
	k := ReviewKind(raw)
	if !k.Valid() {
		return "", fmt.Errorf("unknown review kind %q", raw)
	}
	return k, nil
}

// Review is the payload surfaced to the caller when a stage suspends.
type Review struct {
	// ID addresses this particular suspension ("<thread_id>:<seq>").
	ID      string          `json:"id"`
	Kind    ReviewKind      `json:"kind"`
	Payload json.RawMessage `json:"payload"`
	Message string          `json:"message"`
}

// Decode unmarshals the stage-specific payload into v.
func (r *Review) Decode(v any) error {
	if r == nil || len(r.Payload) == 0 {
		return ErrNoPendingReview
	}
	return json.Unmarshal(r.Payload, v)
}

// ReviewSet is the set of enabled review checkpoints.
type ReviewSet map[ReviewKind]bool

// DefaultReviews enables the checkpoints surfaced by default.
func DefaultReviews() ReviewSet {
	return ReviewSet{
		ReviewExpansion:    true,
		ReviewCategory:     true,
		ReviewOptimization: true,
	}
}

// NewReviewSet enables exactly the given kinds.
func NewReviewSet(kinds ...ReviewKind) ReviewSet {
	set := make(ReviewSet, len(kinds))
	for _, k := range kinds {
		set[k] = true
	}
	return set
}

// Enabled reports whether k should suspend for review. Nil sets enable nothing.
func (s ReviewSet) Enabled(k ReviewKind) bool {
	return s[k]
}
