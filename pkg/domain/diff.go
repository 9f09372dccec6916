package domain

import (
	"reflect"
)

// Diff reports which fields differ between oldState and newState.
// If oldState is nil, every non-empty field of newState counts as changed.
func Diff(oldState, newState *State) Field {
	if newState == nil {
		return 0
	}
	if oldState == nil {
		oldState = NewState(newState.UserInput)
	}
	// Clones carry explicit empties, so nil and empty compare equal.
	oldState, newState = oldState.Clone(), newState.Clone()

	var changed Field
	if oldState.TaskType != newState.TaskType {
		changed |= FieldTaskType
	}
	if !equalStrings(oldState.ItemList, newState.ItemList) {
		changed |= FieldItemList
	}
	if !equalBudget(oldState.Budget, newState.Budget) {
		changed |= FieldBudget
	}
	if !equalStrings(oldState.ExpandedItems, newState.ExpandedItems) {
		changed |= FieldExpandedItems
	}
	if !reflect.DeepEqual(oldState.Categories, newState.Categories) {
		changed |= FieldCategories
	}
	if !reflect.DeepEqual(oldState.Products, newState.Products) {
		changed |= FieldProducts
	}
	if !reflect.DeepEqual(oldState.OptimizedProducts, newState.OptimizedProducts) {
		changed |= FieldOptimizedProducts
	}
	if oldState.CartURL != newState.CartURL {
		changed |= FieldCartURL
	}
	return changed
}

// equalStrings treats nil and empty as the same list.
func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func equalBudget(a, b *float64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
