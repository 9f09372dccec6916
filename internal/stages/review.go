package stages

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aretw0/cartwise/internal/sanitize"
	"github.com/aretw0/cartwise/pkg/domain"
	"github.com/mitchellh/mapstructure"
)

// Review messages shown to the human.
const (
	MessageList         = "Please review the items and budget extracted from your request."
	MessageExpansion    = "Please review the items needed for this goal."
	MessageCategory     = "Please review the category assignments for these items."
	MessageProduct      = "Please review the product options found for each item."
	MessageOptimization = "Please review the optimized product selections."
)

// ListPayload is surfaced by list_review.
type ListPayload struct {
	TaskType domain.TaskType `json:"task_type"`
	Items    []string        `json:"items"`
	Budget   *float64        `json:"budget"`
}

// ExpansionPayload is surfaced by expansion_review.
type ExpansionPayload struct {
	Goal  string   `json:"goal"`
	Items []string `json:"items"`
}

// CategoryPayload is surfaced by category_review.
type CategoryPayload struct {
	Items               []string          `json:"items"`
	SuggestedCategories map[string]string `json:"suggested_categories"`
}

// ProductPayload is surfaced by product_review.
type ProductPayload struct {
	Products []domain.ProductGroup `json:"products"`
}

// OptimizationPayload is surfaced by optimization_review.
type OptimizationPayload struct {
	OptimizedProducts []domain.Selection `json:"optimized_products"`
	Total             float64            `json:"total"`
	Budget            *float64           `json:"budget"`
}

// response is the common shape of resume data.
type response struct {
	Action     string         `mapstructure:"action"`
	Items      []string       `mapstructure:"items"`
	Categories map[string]any `mapstructure:"categories"`
}

// decode maps loosely typed resume data onto out.
func decode(data map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
		TagName:          "mapstructure",
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(data); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidReviewResponse, err)
	}
	return nil
}

// action normalizes the action field. A missing action means accept unless
// the stage asks for an explicit answer.
func (r response) action() (string, error) {
	switch a := strings.ToLower(strings.TrimSpace(r.Action)); a {
	case "", domain.ActionAccept, "approve", "ok":
		return domain.ActionAccept, nil
	case domain.ActionEdit:
		return domain.ActionEdit, nil
	default:
		return "", fmt.Errorf("%w: unknown action %q", domain.ErrInvalidReviewResponse, r.Action)
	}
}

// rawProducts re-reads a list of product records through JSON so prices and
// ratings get the same lenient coercion as model output.
func rawProducts(v any) ([]sanitize.RawProduct, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidReviewResponse, err)
	}
	var out []sanitize.RawProduct
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidReviewResponse, err)
	}
	return out, nil
}

// reviewedGroup is one entry of a product_review answer.
type reviewedGroup struct {
	Item    string                `json:"item"`
	Options []sanitize.RawProduct `json:"options"`
}

func reviewedGroups(v any) ([]reviewedGroup, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidReviewResponse, err)
	}
	var out []reviewedGroup
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidReviewResponse, err)
	}
	return out, nil
}

// budgetOf reads an optional budget entry. ok is false when the key is absent.
func budgetOf(data map[string]any) (budget *float64, ok bool, err error) {
	v, present := data["budget"]
	if !present {
		return nil, false, nil
	}
	switch b := v.(type) {
	case nil:
		return nil, true, nil
	case float64:
		if b < 0 {
			return nil, true, fmt.Errorf("%w: negative budget", domain.ErrInvalidReviewResponse)
		}
		return &b, true, nil
	case int:
		f := float64(b)
		if f < 0 {
			return nil, true, fmt.Errorf("%w: negative budget", domain.ErrInvalidReviewResponse)
		}
		return &f, true, nil
	case string:
		f, parsed := sanitize.ParseAmount(b)
		if !parsed || f < 0 {
			return nil, true, fmt.Errorf("%w: invalid budget %q", domain.ErrInvalidReviewResponse, b)
		}
		return &f, true, nil
	default:
		return nil, true, fmt.Errorf("%w: invalid budget %v", domain.ErrInvalidReviewResponse, v)
	}
}

func errMissing(key string) error {
	return fmt.Errorf("%w: %s is required for an edit", domain.ErrInvalidReviewResponse, key)
}
