package stages

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aretw0/cartwise/internal/sanitize"
	"github.com/aretw0/cartwise/pkg/domain"
	"github.com/aretw0/cartwise/pkg/ports"
)

// Prompt headers. Each prompt starts with its header so fakes and logs can tell them apart.
const (
	HeaderClassify   = "You analyze requests for a smart shopping cart."
	HeaderExpand     = "You expand a shopping goal into concrete items."
	HeaderCategorize = "You map product names to Walmart.com categories."
	HeaderExtract    = "You extract product options from search results."
	HeaderOptimize   = "You choose products that fit a shopping budget."
)

func classifyPrompt(input string) string {
	var b strings.Builder
	b.WriteString(HeaderClassify + "\n\n")
	b.WriteString("Extract three fields from the user's request:\n")
	b.WriteString("1. task_type: \"direct_product_list\" if the user lists specific products, ")
	b.WriteString("\"goal_or_dish\" if the user describes a dish, meal or shopping goal.\n")
	b.WriteString("2. item_list: the product names for a list, or a single element with the goal for a goal.\n")
	b.WriteString("3. budget: the budget as a number if one is mentioned (\"$50\", \"under 100 dollars\"), otherwise null.\n\n")
	b.WriteString("Respond ONLY with a JSON object with the keys task_type, item_list and budget. Example:\n")
	b.WriteString(`{"task_type": "direct_product_list", "item_list": ["milk", "bread", "eggs"], "budget": 25.0}`)
	b.WriteString("\n\nUser input: ")
	b.WriteString(input)
	return b.String()
}

func expandPrompt(goal string) string {
	return HeaderExpand + "\n\n" +
		"List the specific items (ingredients, and tools if needed) required for the goal below.\n" +
		"Respond ONLY with a flat JSON array of item names.\n" +
		`Example: ["spaghetti", "tomato sauce", "ground beef", "onion", "garlic"]` + "\n\n" +
		"Goal or dish: " + goal
}

func categorizePrompt(items []string) string {
	list, _ := json.Marshal(items)
	return HeaderCategorize + "\n\n" +
		"Map each item to its most relevant top-level or second-level Walmart.com category.\n" +
		"Respond ONLY with a JSON object mapping every item name, spelled exactly as given, to a category name. Example:\n" +
		`{"milk": "Dairy & Eggs", "spaghetti": "Pasta & Noodles", "tomato sauce": "Pantry"}` + "\n\n" +
		"Items: " + string(list)
}

func extractPrompt(item, category string, results []ports.SearchResult, max int) string {
	var b strings.Builder
	b.WriteString(HeaderExtract + "\n\n")
	fmt.Fprintf(&b, "From the Walmart search results about %q below, extract up to %d different product options with:\n", item, max)
	b.WriteString("- name: product name\n")
	b.WriteString("- price: price as a number (from $X.XX)\n")
	b.WriteString("- rating: rating out of 5, or null if unknown\n")
	b.WriteString("- brand: brand name\n")
	b.WriteString("- category: product category\n")
	b.WriteString("- description: short description\n\n")
	b.WriteString("Search results:\n")
	for i, r := range results {
		fmt.Fprintf(&b, "[%d] %s\n%s\n%s\n\n", i+1, r.Title, sanitize.CleanSnippet(r.Snippet), r.URL)
	}
	if len(results) == 0 {
		b.WriteString("(no results)\n\n")
	}
	b.WriteString("Respond ONLY with a JSON array of product objects. Example:\n")
	fmt.Fprintf(&b, `[{"name": "Product Name", "price": 12.99, "rating": 4.5, "brand": "Brand", "category": %q, "description": "Short description"}]`, category)
	return b.String()
}

func optimizePrompt(groups []domain.ProductGroup, budget float64) string {
	summary, _ := json.Marshal(groups)
	return HeaderOptimize + "\n\n" +
		fmt.Sprintf("Each item below has several product options. With a total budget of $%.2f, ", budget) +
		"select at most one option per item so the total price does not exceed the budget. " +
		"Weigh both price and rating. If the budget is too low, drop items.\n" +
		"Respond ONLY with a JSON array of the selected options, each with item, name, price, rating, brand, category and description. Example:\n" +
		`[{"item": "milk", "name": "Great Value Milk", "price": 3.5, "rating": 4.2, "brand": "Great Value", "category": "Dairy & Eggs", "description": "1 gallon whole milk"}]` + "\n\n" +
		"Items and options: " + string(summary)
}
