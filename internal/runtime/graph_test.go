package runtime_test

import (
	"testing"

	"github.com/aretw0/cartwise/internal/runtime"
	"github.com/aretw0/cartwise/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRouteAfterClassify(t *testing.T) {
	tests := []struct {
		taskType domain.TaskType
		want     domain.StageID
	}{
		{domain.TaskGoal, domain.StageExpand},
		{domain.TaskDirectList, domain.StageCategorize},
		{domain.TaskUnknown, domain.StageCategorize},
		{"", domain.StageCategorize},
		{"something_else", domain.StageCategorize},
	}

	for _, tt := range tests {
		t.Run(string(tt.taskType), func(t *testing.T) {
			st := domain.NewState("x")
			st.TaskType = tt.taskType
			// Same input, same answer.
			for i := 0; i < 3; i++ {
				assert.Equal(t, tt.want, runtime.RouteAfterClassify(st))
			}
		})
	}
}

func TestGraph_Next(t *testing.T) {
	g := runtime.NewGraph("classify").
		AddStage(&fakeStage{id: "classify"}).
		AddStage(&fakeStage{id: "expand"}).
		AddStage(&fakeStage{id: "categorize"}).
		AddConditionalEdge("classify", runtime.RouteAfterClassify).
		AddEdge("expand", "categorize").
		AddEdge("categorize", domain.StageEnd)
	require.NoError(t, g.Validate())

	st := domain.NewState("make pasta")
	st.TaskType = domain.TaskGoal

	next, err := g.Next("classify", st)
	require.NoError(t, err)
	assert.Equal(t, domain.StageExpand, next)

	next, err = g.Next("categorize", st)
	require.NoError(t, err)
	assert.Equal(t, domain.StageEnd, next)

	_, err = g.Next("missing", st)
	assert.ErrorIs(t, err, domain.ErrUnknownStage)
}

func TestGraph_NextRoutesToUnregistered(t *testing.T) {
	g := runtime.NewGraph("a").
		AddStage(&fakeStage{id: "a"}).
		AddConditionalEdge("a", func(*domain.State) domain.StageID { return "ghost" })

	_, err := g.Next("a", domain.NewState(""))
	assert.ErrorIs(t, err, domain.ErrUnknownStage)
}

func TestGraph_Validate(t *testing.T) {
	t.Run("missing entry", func(t *testing.T) {
		g := runtime.NewGraph("a")
		assert.ErrorIs(t, g.Validate(), domain.ErrUnknownStage)
	})

	t.Run("dangling edge", func(t *testing.T) {
		g := runtime.NewGraph("a").
			AddStage(&fakeStage{id: "a"}).
			AddEdge("a", "b")
		assert.ErrorIs(t, g.Validate(), domain.ErrUnknownStage)
	})

	t.Run("dead end", func(t *testing.T) {
		g := runtime.NewGraph("a").
			AddStage(&fakeStage{id: "a"}).
			AddStage(&fakeStage{id: "b"}).
			AddEdge("a", "b")
		assert.Error(t, g.Validate())
	})
}
