package stages

import (
	"context"

	"github.com/aretw0/cartwise/internal/runtime"
	"github.com/aretw0/cartwise/pkg/domain"
)

// Cart hands the final selection to the cart builder.
// An empty selection produces an empty URL without calling it.
type Cart struct {
	deps Deps
}

func (s *Cart) ID() domain.StageID { return domain.StageCart }

func (s *Cart) Owns() domain.Field { return domain.FieldCartURL }

func (s *Cart) Run(ctx context.Context, st *domain.State) (runtime.Result, error) {
	if len(st.OptimizedProducts) == 0 {
		return runtime.Next(domain.Patch{CartURL: domain.Set("")}), nil
	}
	url, err := s.deps.Cart.BuildCart(ctx, st.OptimizedProducts)
	if err != nil {
		return runtime.Result{}, err
	}
	return runtime.Next(domain.Patch{CartURL: domain.Set(url)}), nil
}
