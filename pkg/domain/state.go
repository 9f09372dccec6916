package domain

import (
	"encoding/json"
	"sort"
	"strings"
)

// TaskType classifies the user's request and drives routing after classification.
type TaskType string

const (
	TaskDirectList TaskType = "direct_product_list" // The user listed products to buy
	TaskGoal       TaskType = "goal_or_dish"        // The user described a goal, dish or task
	TaskUnknown    TaskType = "unknown"             // Classification failed or was ambiguous
)

// ParseTaskType normalizes a raw label. Anything unrecognized becomes TaskUnknown.
func ParseTaskType(raw string) TaskType {
	switch TaskType(strings.ToLower(strings.TrimSpace(raw))) {
	case TaskDirectList:
		return TaskDirectList
	case TaskGoal:
		return TaskGoal
	default:
		return TaskUnknown
	}
}

// ProductOption is one purchasable candidate for a shopping item.
type ProductOption struct {
	Name        string   `json:"name" mapstructure:"name"`
	Price       float64  `json:"price" mapstructure:"price"`
	Rating      *float64 `json:"rating,omitempty" mapstructure:"rating"`
	Brand       string   `json:"brand,omitempty" mapstructure:"brand"`
	Category    string   `json:"category,omitempty" mapstructure:"category"`
	Description string   `json:"description,omitempty" mapstructure:"description"`
}

// ProductGroup holds the discovered options for a single item.
type ProductGroup struct {
	Item     string          `json:"item" mapstructure:"item"`
	Category string          `json:"category" mapstructure:"category"`
	Options  []ProductOption `json:"options" mapstructure:"options"`
}

// Selection is the option picked for an item by the optimizer.
type Selection struct {
	Item          string `json:"item" mapstructure:"item"`
	ProductOption `mapstructure:",squash"`
}

// State is the shared record threaded through every stage.
// Absent values are explicit empties, never nil collections.
type State struct {
	// UserInput is the raw request. Set once at session start.
	UserInput string `json:"user_input"`

	TaskType      TaskType          `json:"task_type,omitempty"`
	ItemList      []string          `json:"item_list"`
	Budget        *float64          `json:"budget"`
	ExpandedItems []string          `json:"expanded_items"`
	Categories    map[string]string `json:"categories"`
	Products      []ProductGroup    `json:"products"`

	OptimizedProducts []Selection `json:"optimized_products"`
	CartURL           string      `json:"cart_url"`

	// InterruptType names the pending review checkpoint, empty when none.
	InterruptType ReviewKind `json:"interrupt_type,omitempty"`
}

// NewState creates a clean state for the given request.
func NewState(userInput string) *State {
	s := &State{UserInput: userInput}
	s.normalize()
	return s
}

// normalize replaces nil collections with empty ones.
func (s *State) normalize() {
	if s.ItemList == nil {
		s.ItemList = []string{}
	}
	if s.ExpandedItems == nil {
		s.ExpandedItems = []string{}
	}
	if s.Categories == nil {
		s.Categories = map[string]string{}
	}
	if s.Products == nil {
		s.Products = []ProductGroup{}
	}
	if s.OptimizedProducts == nil {
		s.OptimizedProducts = []Selection{}
	}
}

// UnmarshalJSON restores a persisted state with explicit empty defaults.
func (s *State) UnmarshalJSON(data []byte) error {
	type plain State
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*s = State(p)
	s.normalize()
	return nil
}

// Clone returns a deep copy, safe to hand to a stage.
func (s *State) Clone() *State {
	if s == nil {
		return nil
	}
	next := *s
	next.ItemList = append([]string{}, s.ItemList...)
	next.ExpandedItems = append([]string{}, s.ExpandedItems...)
	if s.Budget != nil {
		b := *s.Budget
		next.Budget = &b
	}
	next.Categories = make(map[string]string, len(s.Categories))
	for k, v := range s.Categories {
		next.Categories[k] = v
	}
	next.Products = make([]ProductGroup, len(s.Products))
	for i, g := range s.Products {
		g.Options = cloneOptions(g.Options)
		next.Products[i] = g
	}
	next.OptimizedProducts = make([]Selection, len(s.OptimizedProducts))
	for i, sel := range s.OptimizedProducts {
		sel.ProductOption = sel.ProductOption.clone()
		next.OptimizedProducts[i] = sel
	}
	next.normalize()
	return &next
}

func cloneOptions(opts []ProductOption) []ProductOption {
	out := make([]ProductOption, len(opts))
	for i, o := range opts {
		out[i] = o.clone()
	}
	return out
}

func (o ProductOption) clone() ProductOption {
	if o.Rating != nil {
		r := *o.Rating
		o.Rating = &r
	}
	return o
}

// WorkItems returns the items downstream stages operate on:
// the expanded items when present, the requested items otherwise.
func (s *State) WorkItems() []string {
	if len(s.ExpandedItems) > 0 {
		return s.ExpandedItems
	}
	return s.ItemList
}

// CategorizedItems returns the items holding a category, in resolution order.
// Items follow WorkItems order; keys added during review that are not work
// items come last, sorted.
func (s *State) CategorizedItems() []string {
	seen := make(map[string]bool, len(s.Categories))
	ordered := make([]string, 0, len(s.Categories))
	for _, item := range s.WorkItems() {
		if _, ok := s.Categories[item]; ok && !seen[item] {
			seen[item] = true
			ordered = append(ordered, item)
		}
	}
	var extra []string
	for item := range s.Categories {
		if !seen[item] {
			extra = append(extra, item)
		}
	}
	sort.Strings(extra)
	return append(ordered, extra...)
}

// Total sums the prices of the current selection.
func (s *State) Total() float64 {
	return SelectionTotal(s.OptimizedProducts)
}

// SelectionTotal sums the prices of a selection.
func SelectionTotal(sel []Selection) float64 {
	var total float64
	for _, p := range sel {
		total += p.Price
	}
	return total
}

// Result projects the terminal output of a run.
func (s *State) Result() Result {
	out := make([]Selection, len(s.OptimizedProducts))
	copy(out, s.OptimizedProducts)
	return Result{
		OptimizedProducts: out,
		CartURL:           s.CartURL,
	}
}

// Result is what a finished session hands back to the caller.
type Result struct {
	OptimizedProducts []Selection `json:"optimized_products"`
	CartURL           string      `json:"cart_url"`
}
