package runtime

import (
	"fmt"

	"github.com/aretw0/cartwise/pkg/domain"
)

// Router picks the next stage from the current state.
type Router func(st *domain.State) domain.StageID

// RouteAfterClassify sends goals to expansion and everything else,
// unknown included, straight to categorization.
func RouteAfterClassify(st *domain.State) domain.StageID {
	if st.TaskType == domain.TaskGoal {
		return domain.StageExpand
	}
	return domain.StageCategorize
}

// Graph is the fixed stage topology: static edges plus conditional routers.
type Graph struct {
	entry  domain.StageID
	stages map[domain.StageID]Stage
	edges  map[domain.StageID]domain.StageID
	routes map[domain.StageID]Router
}

// NewGraph creates an empty graph starting at entry.
func NewGraph(entry domain.StageID) *Graph {
	return &Graph{
		entry:  entry,
		stages: make(map[domain.StageID]Stage),
		edges:  make(map[domain.StageID]domain.StageID),
		routes: make(map[domain.StageID]Router),
	}
}

// AddStage registers a stage under its ID.
func (g *Graph) AddStage(s Stage) *Graph {
	g.stages[s.ID()] = s
	return g
}

// AddEdge adds a fixed transition.
func (g *Graph) AddEdge(from, to domain.StageID) *Graph {
	g.edges[from] = to
	return g
}

// AddConditionalEdge routes out of from with r.
func (g *Graph) AddConditionalEdge(from domain.StageID, r Router) *Graph {
	g.routes[from] = r
	return g
}

// Entry returns the first stage.
func (g *Graph) Entry() domain.StageID {
	return g.entry
}

// Stage looks up a registered stage.
func (g *Graph) Stage(id domain.StageID) (Stage, bool) {
	s, ok := g.stages[id]
	return s, ok
}

// Next resolves the stage following from. Conditional edges win over static ones.
func (g *Graph) Next(from domain.StageID, st *domain.State) (domain.StageID, error) {
	var next domain.StageID
	if r, ok := g.routes[from]; ok {
		next = r(st)
	} else if to, ok := g.edges[from]; ok {
		next = to
	} else {
		return "", fmt.Errorf("no edge out of %s: %w", from, domain.ErrUnknownStage)
	}

	if next == domain.StageEnd {
		return next, nil
	}
	if _, ok := g.stages[next]; !ok {
		return "", fmt.Errorf("%s routes to %s: %w", from, next, domain.ErrUnknownStage)
	}
	return next, nil
}

// Validate checks that the entry and every static target are registered
// and that every stage has a way out.
func (g *Graph) Validate() error {
	if _, ok := g.stages[g.entry]; !ok {
		return fmt.Errorf("entry %s: %w", g.entry, domain.ErrUnknownStage)
	}
	for id := range g.stages {
		_, static := g.edges[id]
		_, routed := g.routes[id]
		if !static && !routed {
			return fmt.Errorf("stage %s has no outgoing edge", id)
		}
	}
	for from, to := range g.edges {
		if _, ok := g.stages[from]; !ok {
			return fmt.Errorf("edge from %s: %w", from, domain.ErrUnknownStage)
		}
		if to == domain.StageEnd {
			continue
		}
		if _, ok := g.stages[to]; !ok {
			return fmt.Errorf("edge %s -> %s: %w", from, to, domain.ErrUnknownStage)
		}
	}
	return nil
}
