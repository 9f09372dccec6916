package stages

import (
	"log/slog"

	"github.com/aretw0/cartwise/internal/logging"
	"github.com/aretw0/cartwise/internal/runtime"
	"github.com/aretw0/cartwise/pkg/domain"
	"github.com/aretw0/cartwise/pkg/ports"
)

// Discovery defaults.
const (
	DefaultQueryTemplate = "{item} {category} site:walmart.com price rating"
	DefaultMaxResults    = 5
	DefaultMaxOptions    = 5
	DefaultConcurrency   = 4
)

// previewLen bounds collaborator output quoted in logs.
const previewLen = 200

// DiscoveryOptions tunes product discovery.
type DiscoveryOptions struct {
	QueryTemplate string
	MaxResults    int
	MaxOptions    int
	Concurrency   int
}

func (o DiscoveryOptions) withDefaults() DiscoveryOptions {
	if o.QueryTemplate == "" {
		o.QueryTemplate = DefaultQueryTemplate
	}
	if o.MaxResults <= 0 {
		o.MaxResults = DefaultMaxResults
	}
	if o.MaxOptions <= 0 {
		o.MaxOptions = DefaultMaxOptions
	}
	if o.Concurrency <= 0 {
		o.Concurrency = DefaultConcurrency
	}
	return o
}

// Deps are the collaborators and settings shared by the stages.
type Deps struct {
	Generator ports.TextGenerator
	Searcher  ports.Searcher
	Cart      ports.CartBuilder
	Reviews   domain.ReviewSet
	Discovery DiscoveryOptions
	Logger    *slog.Logger
}

func (d Deps) logger() *slog.Logger {
	if d.Logger == nil {
		return logging.NewNop()
	}
	return d.Logger
}

// Graph wires the six stages into the pipeline topology:
//
//	classify -> (expand) -> categorize -> discover -> optimize -> cart -> end
func Graph(deps Deps) *runtime.Graph {
	deps.Discovery = deps.Discovery.withDefaults()

	return runtime.NewGraph(domain.StageClassify).
		AddStage(&Classify{deps: deps}).
		AddStage(&Expand{deps: deps}).
		AddStage(&Categorize{deps: deps}).
		AddStage(&Discover{deps: deps}).
		AddStage(&Optimize{deps: deps}).
		AddStage(&Cart{deps: deps}).
		AddConditionalEdge(domain.StageClassify, runtime.RouteAfterClassify).
		AddEdge(domain.StageExpand, domain.StageCategorize).
		AddEdge(domain.StageCategorize, domain.StageDiscover).
		AddEdge(domain.StageDiscover, domain.StageOptimize).
		AddEdge(domain.StageOptimize, domain.StageCart).
		AddEdge(domain.StageCart, domain.StageEnd)
}
