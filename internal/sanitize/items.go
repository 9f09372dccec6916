package sanitize

import "strings"

// Items trims names, drops blanks and removes case-insensitive duplicates,
// keeping the first spelling and the original order.
func Items(raw []string) []string {
	out := make([]string, 0, len(raw))
	seen := make(map[string]bool, len(raw))
	for _, item := range raw {
		item = strings.Join(strings.Fields(item), " ")
		if item == "" {
			continue
		}
		key := strings.ToLower(item)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, item)
	}
	return out
}

// AnyStrings keeps the string elements of a loosely typed list.
func AnyStrings(raw []any) []string {
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// Categories keeps labels for the known items only, dropping blank labels.
// Keys are matched case-insensitively and rewritten to the known spelling.
func Categories(raw map[string]any, items []string) map[string]string {
	byKey := make(map[string]string, len(items))
	for _, item := range items {
		byKey[strings.ToLower(strings.TrimSpace(item))] = item
	}

	out := make(map[string]string, len(items))
	for k, v := range raw {
		item, ok := byKey[strings.ToLower(strings.TrimSpace(k))]
		if !ok {
			continue
		}
		label, ok := v.(string)
		if !ok {
			continue
		}
		label = strings.TrimSpace(label)
		if label == "" {
			continue
		}
		out[item] = label
	}
	return out
}
