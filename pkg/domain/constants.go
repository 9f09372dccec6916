package domain

// Field constants for mapstructure and JSON standardization.
const (
	// KeyReviewID is the resume data key carrying the targeted review ID.
	KeyReviewID = "review_id"

	// KeyAction is the resume data key selecting accept or edit.
	KeyAction = "action"
)

// Review actions.
const (
	ActionAccept = "accept"
	ActionEdit   = "edit"
)
