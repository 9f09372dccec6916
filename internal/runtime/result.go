package runtime

import (
	"fmt"

	"github.com/aretw0/cartwise/pkg/domain"
)

// Kind tags the outcome of a stage run.
type Kind int

const (
	// Continue commits the patch and advances along the graph.
	Continue Kind = iota
	// Suspend commits the patch and surfaces a review to the caller.
	Suspend
)

func (k Kind) String() string {
	switch k {
	case Continue:
		return "continue"
	case Suspend:
		return "suspend"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Result is what a stage hands back to the driver.
type Result struct {
	Kind  Kind
	Patch domain.Patch

	// Review fields are only meaningful when Kind is Suspend.
	Review  domain.ReviewKind
	Payload any
	Message string

	// Fallbacks lists the degraded paths taken while producing the patch.
	Fallbacks []string
}

// Next builds a Continue result.
func Next(p domain.Patch) Result {
	return Result{Kind: Continue, Patch: p}
}

// Pause builds a Suspend result. The patch is committed before suspending so
// the reviewer sees exactly what downstream stages would consume.
func Pause(p domain.Patch, kind domain.ReviewKind, payload any, message string) Result {
	return Result{
		Kind:    Suspend,
		Patch:   p,
		Review:  kind,
		Payload: payload,
		Message: message,
	}
}

// WithFallback records a degraded path.
func (r Result) WithFallback(reason string) Result {
	r.Fallbacks = append(r.Fallbacks, reason)
	return r
}
