package catalog

import "github.com/erazemk/dormswap/internal/model"

// FilterItems returns the items matching every predicate of f, in their
// original order. Items that are not available are always excluded.
func FilterItems(items []model.Item, f model.ItemFilters) []model.Item {
	out := make([]model.Item, 0, len(items))
	for _, it := range items {
		if f.Matches(it) {
			out = append(out, it)
		}
	}
	return out
}

// The transitions below never modify their input slice.

func prependItem(items []model.Item, item model.Item) []model.Item {
	out := make([]model.Item, 0, len(items)+1)
	out = append(out, item)
	for _, it := range items {
		if it.ID != item.ID {
			out = append(out, it)
		}
	}
	return out
}

func replaceItem(items []model.Item, id string, item model.Item) []model.Item {
	out := make([]model.Item, len(items))
	for i, it := range items {
		if it.ID == id {
			out[i] = item
		} else {
			out[i] = it
		}
	}
	return out
}

func removeItem(items []model.Item, id string) []model.Item {
	out := make([]model.Item, 0, len(items))
	for _, it := range items {
		if it.ID != id {
			out = append(out, it)
		}
	}
	return out
}
