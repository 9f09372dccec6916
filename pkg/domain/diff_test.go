package domain

import (
	"testing"
)

func TestDiff(t *testing.T) {
	budget := 20.0
	otherBudget := 25.0

	base := NewState("buy milk")
	base.TaskType = TaskDirectList
	base.ItemList = []string{"milk"}
	base.Budget = &budget

	tests := []struct {
		name string
		old  *State
		new  func() *State
		want Field
	}{
		{
			name: "Initial Load (Old is Nil)",
			old:  nil,
			new:  func() *State { return base.Clone() },
			want: FieldTaskType | FieldItemList | FieldBudget,
		},
		{
			name: "No Changes",
			old:  base,
			new:  func() *State { return base.Clone() },
			want: 0,
		},
		{
			name: "Budget Value Changed",
			old:  base,
			new: func() *State {
				s := base.Clone()
				s.Budget = &otherBudget
				return s
			},
			want: FieldBudget,
		},
		{
			name: "Budget Cleared",
			old:  base,
			new: func() *State {
				s := base.Clone()
				s.Budget = nil
				return s
			},
			want: FieldBudget,
		},
		{
			name: "Categories And Cart",
			old:  base,
			new: func() *State {
				s := base.Clone()
				s.Categories["milk"] = "dairy"
				s.CartURL = "https://walmart.com/cart"
				return s
			},
			want: FieldCategories | FieldCartURL,
		},
		{
			name: "Nil And Empty Lists Are Equal",
			old:  &State{UserInput: "x"},
			new:  func() *State { return NewState("x") },
			want: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Diff(tt.old, tt.new())
			if got != tt.want {
				t.Errorf("Diff() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDiff_NilNew(t *testing.T) {
	if got := Diff(NewState("x"), nil); got != 0 {
		t.Errorf("expected no diff for nil state, got %v", got)
	}
}
