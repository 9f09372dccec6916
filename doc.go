/*
Package cartwise turns a free-form shopping request into an optimized,
budget-aware product selection and a checkout link.

A request flows through a fixed graph of stages that share one state record:

	classify -> (expand) -> categorize -> discover -> optimize -> cart

Classification decides the route. Goals such as "make pasta for four" are
expanded into concrete items, while plain lists skip that step. Every stage
talks to untrusted collaborators (a text generator, a web search and a cart
builder) and passes their output through a sanitizer, so malformed answers
degrade to documented defaults instead of failing the run.

# Human review

Stages may suspend for review. The session is checkpointed, the caller gets
a domain.Review describing the proposal, and the run continues with Resume once
a human accepts or edits it. Checkpoints live in a ports.CheckpointStore, so a
session can be resumed by another process or after a restart.

# Usage

	eng, err := cartwise.New(gemini.New(apiKey), tavily.New(searchKey), cart.NewURLBuilder(""))
	if err != nil {
		log.Fatal(err)
	}

	out, err := eng.Start(ctx, "milk and bread, $10 max")
	for err == nil && out.Status == domain.StatusSuspended {
		// Show out.Review to the user, then answer it.
		out, err = eng.Resume(ctx, out.ThreadID, map[string]any{
			"review_id": out.Review.ID,
			"action":    "accept",
		})
	}
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(out.Result.CartURL)
*/
package cartwise
