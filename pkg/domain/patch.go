package domain

import "strings"

// Field identifies a Shared State field for ownership checks.
type Field uint16

const (
	FieldTaskType Field = 1 << iota
	FieldItemList
	FieldBudget
	FieldExpandedItems
	FieldCategories
	FieldProducts
	FieldOptimizedProducts
	FieldCartURL
)

var fieldNames = []struct {
	f    Field
	name string
}{
	{FieldTaskType, "task_type"},
	{FieldItemList, "item_list"},
	{FieldBudget, "budget"},
	{FieldExpandedItems, "expanded_items"},
	{FieldCategories, "categories"},
	{FieldProducts, "products"},
	{FieldOptimizedProducts, "optimized_products"},
	{FieldCartURL, "cart_url"},
}

func (f Field) String() string {
	if f == 0 {
		return "none"
	}
	var names []string
	for _, fn := range fieldNames {
		if f&fn.f != 0 {
			names = append(names, fn.name)
		}
	}
	return strings.Join(names, ",")
}

// Opt is an optional patch value. The zero value leaves the field untouched.
type Opt[T any] struct {
	value T
	set   bool
}

// Set wraps a value that should replace the current field.
func Set[T any](v T) Opt[T] {
	return Opt[T]{value: v, set: true}
}

// Get returns the value and whether it was set.
func (o Opt[T]) Get() (T, bool) {
	return o.value, o.set
}

// IsSet reports whether the option carries a value.
func (o Opt[T]) IsSet() bool {
	return o.set
}

// Patch is the update a stage hands back to the driver.
// Only set fields are applied; each stage may only set the fields it owns.
type Patch struct {
	TaskType          Opt[TaskType]
	ItemList          Opt[[]string]
	Budget            Opt[*float64]
	ExpandedItems     Opt[[]string]
	Categories        Opt[map[string]string]
	Products          Opt[[]ProductGroup]
	OptimizedProducts Opt[[]Selection]
	CartURL           Opt[string]
}

// Fields reports which fields the patch touches.
func (p Patch) Fields() Field {
	var f Field
	if p.TaskType.IsSet() {
		f |= FieldTaskType
	}
	if p.ItemList.IsSet() {
		f |= FieldItemList
	}
	if p.Budget.IsSet() {
		f |= FieldBudget
	}
	if p.ExpandedItems.IsSet() {
		f |= FieldExpandedItems
	}
	if p.Categories.IsSet() {
		f |= FieldCategories
	}
	if p.Products.IsSet() {
		f |= FieldProducts
	}
	if p.OptimizedProducts.IsSet() {
		f |= FieldOptimizedProducts
	}
	if p.CartURL.IsSet() {
		f |= FieldCartURL
	}
	return f
}

// Apply writes the set fields of p into s.
func (s *State) Apply(p Patch) {
	if v, ok := p.TaskType.Get(); ok {
		s.TaskType = v
	}
	if v, ok := p.ItemList.Get(); ok {
		s.ItemList = v
	}
	if v, ok := p.Budget.Get(); ok {
		s.Budget = v
	}
	if v, ok := p.ExpandedItems.Get(); ok {
		s.ExpandedItems = v
	}
	if v, ok := p.Categories.Get(); ok {
		s.Categories = v
	}
	if v, ok := p.Products.Get(); ok {
		s.Products = v
	}
	if v, ok := p.OptimizedProducts.Get(); ok {
		s.OptimizedProducts = v
	}
	if v, ok := p.CartURL.Get(); ok {
		s.CartURL = v
	}
	s.normalize()
}
