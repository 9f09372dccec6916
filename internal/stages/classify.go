package stages

import (
	"context"

	"github.com/aretw0/cartwise/internal/runtime"
	"github.com/aretw0/cartwise/internal/sanitize"
	"github.com/aretw0/cartwise/pkg/domain"
)

// Classify interprets the raw request into a task type, items and a budget.
type Classify struct {
	deps Deps
}

func (s *Classify) ID() domain.StageID { return domain.StageClassify }

func (s *Classify) Owns() domain.Field {
	return domain.FieldTaskType | domain.FieldItemList | domain.FieldBudget
}

type classification struct {
	TaskType string          `json:"task_type"`
	ItemList []string        `json:"item_list"`
	Budget   sanitize.Amount `json:"budget"`
}

func (s *Classify) Run(ctx context.Context, st *domain.State) (runtime.Result, error) {
	out, err := s.deps.Generator.Generate(ctx, classifyPrompt(st.UserInput))
	if err != nil {
		return runtime.Result{}, err
	}

	parsed, err := sanitize.Decode[classification](out)
	if err != nil {
		s.deps.logger().Warn("unparseable classification", "stage", s.ID(), "err", err, "output", sanitize.Preview(out, previewLen))
		return runtime.Next(domain.Patch{
			TaskType: domain.Set(domain.TaskUnknown),
			ItemList: domain.Set([]string{}),
			Budget:   domain.Set[*float64](nil),
		}).WithFallback("classification unparseable"), nil
	}

	taskType := domain.ParseTaskType(parsed.TaskType)
	items := sanitize.Items(parsed.ItemList)
	if taskType == domain.TaskGoal && len(items) > 1 {
		// A goal is carried as a single description.
		items = items[:1]
	}
	var budget *float64
	if v, ok := parsed.Budget.NonNegative(); ok {
		budget = &v
	}

	patch := domain.Patch{
		TaskType: domain.Set(taskType),
		ItemList: domain.Set(items),
		Budget:   domain.Set(budget),
	}
	if s.deps.Reviews.Enabled(domain.ReviewList) {
		return runtime.Pause(patch, domain.ReviewList, ListPayload{
			TaskType: taskType,
			Items:    items,
			Budget:   budget,
		}, MessageList), nil
	}
	return runtime.Next(patch), nil
}

// Resume accepts the extraction or applies edited items and budget.
func (s *Classify) Resume(ctx context.Context, st *domain.State, review *domain.Review, data map[string]any) (runtime.Result, error) {
	var resp response
	if err := decode(data, &resp); err != nil {
		return runtime.Result{}, err
	}
	action, err := resp.action()
	if err != nil {
		return runtime.Result{}, err
	}

	var patch domain.Patch
	if resp.Items != nil {
		items := sanitize.Items(resp.Items)
		if st.TaskType == domain.TaskGoal && len(items) > 1 {
			items = items[:1]
		}
		patch.ItemList = domain.Set(items)
	}
	budget, present, err := budgetOf(data)
	if err != nil {
		return runtime.Result{}, err
	}
	if present {
		patch.Budget = domain.Set(budget)
	}
	if action == domain.ActionEdit && patch.Fields() == 0 {
		return runtime.Result{}, errMissing("items or budget")
	}
	return runtime.Next(patch), nil
}
