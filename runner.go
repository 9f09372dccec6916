package cartwise

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/aretw0/cartwise/pkg/domain"
)

// Runner drives a session from a line-oriented terminal: it shows each
// pending review, reads the human's answer and resumes until the session ends.
type Runner struct {
	Input    io.Reader
	Output   io.Writer
	Headless bool // accept every review without asking
	Renderer ContentRenderer
}

// ContentRenderer is a function that transforms the content before outputting it.
// This allows for TUI rendering (markdown to ANSI) without coupling the core package.
type ContentRenderer func(string) (string, error)

// ErrDetached is returned by Run when the user leaves a session suspended.
var ErrDetached = errors.New("session left suspended")

// NewRunner creates a Runner. Input and Output must be set before Run.
func NewRunner() *Runner {
	return &Runner{}
}

// Run loops over the reviews of out until the session is done.
// Answers are read one per line:
//
//	(empty) or accept    keep the proposal
//	{"action": ...}      a JSON object sent as resume data
//	exit or quit         stop and leave the session suspended
func (r *Runner) Run(ctx context.Context, engine *Engine, out *domain.Outcome) (*domain.Outcome, error) {
	if r.Input == nil && !r.Headless {
		return nil, fmt.Errorf("input reader must be set (use os.Stdin)")
	}
	if r.Output == nil {
		return nil, fmt.Errorf("output writer must be set (use os.Stdout)")
	}
	var lines *bufio.Reader
	if r.Input != nil {
		lines = bufio.NewReader(r.Input)
	}

	for out != nil && out.Status == domain.StatusSuspended && out.Review != nil {
		r.print(FormatReview(out.Review))

		data := map[string]any{"action": domain.ActionAccept}
		if !r.Headless {
			fmt.Fprint(r.Output, "> ")
			text, err := lines.ReadString('\n')
			if err != nil && !(errors.Is(err, io.EOF) && text != "") {
				if errors.Is(err, io.EOF) {
					return out, ErrDetached
				}
				return nil, fmt.Errorf("input error: %w", err)
			}
			answer := strings.TrimSpace(text)
			if answer == "exit" || answer == "quit" {
				fmt.Fprintf(r.Output, "Session %s is waiting. Resume it later with its thread id.\n", out.ThreadID)
				return out, ErrDetached
			}
			data, err = ParseAnswer(answer)
			if err != nil {
				fmt.Fprintf(r.Output, "Could not read that answer: %v\n", err)
				continue
			}
		}
		data["review_id"] = out.Review.ID

		next, err := engine.Resume(ctx, out.ThreadID, data)
		if errors.Is(err, domain.ErrInvalidReviewResponse) {
			fmt.Fprintf(r.Output, "%v\n", err)
			continue
		}
		if err != nil {
			return nil, err
		}
		out = next
	}

	if out.Done() {
		r.print(FormatResult(out.Result))
	}
	return out, nil
}

func (r *Runner) print(markdown string) {
	output := markdown
	if r.Renderer != nil {
		if rendered, err := r.Renderer(markdown); err == nil {
			output = rendered
		}
	}
	fmt.Fprintln(r.Output, strings.TrimSpace(output))
}

// ParseAnswer turns one line typed by the user into resume data.
func ParseAnswer(answer string) (map[string]any, error) {
	switch strings.ToLower(answer) {
	case "", domain.ActionAccept, "ok", "y", "yes":
		return map[string]any{"action": domain.ActionAccept}, nil
	}
	var data map[string]any
	if err := json.Unmarshal([]byte(answer), &data); err != nil {
		return nil, fmt.Errorf("expected accept or a JSON object: %w", err)
	}
	if data == nil {
		data = map[string]any{}
	}
	return data, nil
}

// FormatReview renders a pending review as markdown.
func FormatReview(rv *domain.Review) string {
	var b strings.Builder
	fmt.Fprintf(&b, "## %s\n\n%s\n\n", titleOf(rv.Kind), rv.Message)

	var payload map[string]any
	if err := rv.Decode(&payload); err != nil {
		return b.String()
	}
	switch rv.Kind {
	case domain.ReviewList, domain.ReviewExpansion:
		writeList(&b, payload["items"])
		if budget, ok := payload["budget"].(float64); ok {
			fmt.Fprintf(&b, "\nBudget: $%.2f\n", budget)
		}
	case domain.ReviewCategory:
		cats, _ := payload["suggested_categories"].(map[string]any)
		keys := make([]string, 0, len(cats))
		for k := range cats {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		b.WriteString("| Item | Category |\n|---|---|\n")
		for _, k := range keys {
			fmt.Fprintf(&b, "| %s | %v |\n", k, cats[k])
		}
	case domain.ReviewProduct:
		var pp struct {
			Products []domain.ProductGroup `json:"products"`
		}
		if rv.Decode(&pp) == nil {
			for _, g := range pp.Products {
				fmt.Fprintf(&b, "### %s (%s)\n\n", g.Item, g.Category)
				writeOptions(&b, g.Options)
				b.WriteString("\n")
			}
		}
	case domain.ReviewOptimization:
		var op struct {
			Selection []domain.Selection `json:"optimized_products"`
			Total     float64            `json:"total"`
			Budget    *float64           `json:"budget"`
		}
		if rv.Decode(&op) == nil {
			writeSelection(&b, op.Selection)
			fmt.Fprintf(&b, "\nTotal: $%.2f", op.Total)
			if op.Budget != nil {
				fmt.Fprintf(&b, " of $%.2f", *op.Budget)
			}
			b.WriteString("\n")
		}
	}
	b.WriteString("\nPress enter to accept, type a JSON answer to edit, or `exit` to stop.\n")
	return b.String()
}

// FormatResult renders a finished run as markdown.
func FormatResult(res *domain.Result) string {
	var b strings.Builder
	b.WriteString("## Your cart\n\n")
	if res == nil || len(res.OptimizedProducts) == 0 {
		b.WriteString(NoProductsMessage + "\n")
		return b.String()
	}
	writeSelection(&b, res.OptimizedProducts)
	fmt.Fprintf(&b, "\n%s\n", ResultMessage(res))
	if res.CartURL != "" {
		fmt.Fprintf(&b, "\nCheckout: %s\n", res.CartURL)
	}
	return b.String()
}

// Messages shown for a finished or waiting session.
const (
	NoProductsMessage = "No products found. Please try a different request."
	WaitingMessage    = "Waiting for your input"
)

// ResultMessage summarizes a result the way the chat front ends report it.
func ResultMessage(res *domain.Result) string {
	if res == nil || len(res.OptimizedProducts) == 0 {
		return NoProductsMessage
	}
	return fmt.Sprintf("Found %d optimized products for $%.2f",
		len(res.OptimizedProducts), domain.SelectionTotal(res.OptimizedProducts))
}

// OutcomeMessage is ResultMessage for done sessions and WaitingMessage otherwise.
func OutcomeMessage(out *domain.Outcome) string {
	if out.Done() {
		return ResultMessage(out.Result)
	}
	return WaitingMessage
}

func titleOf(k domain.ReviewKind) string {
	switch k {
	case domain.ReviewList:
		return "Shopping list"
	case domain.ReviewExpansion:
		return "Items for your goal"
	case domain.ReviewCategory:
		return "Categories"
	case domain.ReviewProduct:
		return "Product options"
	case domain.ReviewOptimization:
		return "Selection"
	default:
		return string(k)
	}
}

func writeList(b *strings.Builder, v any) {
	items, _ := v.([]any)
	for _, it := range items {
		fmt.Fprintf(b, "- %v\n", it)
	}
}

func writeOptions(b *strings.Builder, opts []domain.ProductOption) {
	b.WriteString("| Product | Price | Rating |\n|---|---|---|\n")
	for _, o := range opts {
		fmt.Fprintf(b, "| %s | $%.2f | %s |\n", o.Name, o.Price, rating(o.Rating))
	}
}

func writeSelection(b *strings.Builder, sel []domain.Selection) {
	b.WriteString("| Item | Product | Price | Rating |\n|---|---|---|---|\n")
	for _, s := range sel {
		fmt.Fprintf(b, "| %s | %s | $%.2f | %s |\n", s.Item, s.Name, s.Price, rating(s.Rating))
	}
}

func rating(r *float64) string {
	if r == nil {
		return "-"
	}
	return fmt.Sprintf("%.1f", *r)
}
