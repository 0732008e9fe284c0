package changeset

import (
	"strings"

	"github.com/TomasRacil/WanderPlan-sub000/pkg/types"
)

// Packing adds carry {category, items}. Items are appended to an existing
// category of the same name, skipping texts already present (ignoring case);
// an unknown name creates a new category.
func commitPacking(list []types.PackingCategory, adds []map[string]any, updates []types.UpdateEntry, deletes map[string]bool, gen types.IDGenerator) []types.PackingCategory {
	for _, fields := range adds {
		name, _ := fields["category"].(string)
		if name == "" {
			name, _ = fields["name"].(string)
		}
		newItems := packingItemsFrom(fields["items"])

		idx := -1
		for i, c := range list {
			if c.Category == name {
				idx = i
				break
			}
		}
		if idx < 0 {
			list = append(list, types.PackingCategory{
				ID:       gen.NewID(),
				Category: name,
				Items:    []types.PackingItem{},
			})
			idx = len(list) - 1
		}
		list[idx].Items = appendPackingItems(list[idx].Items, newItems, gen)
	}

	for _, u := range updates {
		applyPackingUpdate(list, u, gen)
	}

	if len(deletes) > 0 {
		kept := list[:0]
		for _, c := range list {
			if deletes[c.ID] {
				continue
			}
			items := c.Items[:0]
			for _, it := range c.Items {
				if !deletes[it.ID] {
					items = append(items, it)
				}
			}
			c.Items = items
			kept = append(kept, c)
		}
		list = kept
	}
	return list
}

// applyPackingUpdate targets a category by id first, then an item inside any
// category. Unknown ids are ignored.
func applyPackingUpdate(list []types.PackingCategory, u types.UpdateEntry, gen types.IDGenerator) {
	for i := range list {
		c := &list[i]
		if c.ID != u.ID {
			continue
		}
		if len(u.Fields) > 0 {
			if _, replacing := u.Fields["items"]; replacing {
				// json reuses existing slice elements; start from an empty list.
				c.Items = nil
			}
			mergeInto(c, u.Fields)
			c.ID = u.ID
			for j := range c.Items {
				if c.Items[j].ID == "" {
					c.Items[j].ID = gen.NewID()
				}
				if c.Items[j].AttachmentIDs == nil {
					c.Items[j].AttachmentIDs = []string{}
				}
			}
		}
		if len(u.NewItems) > 0 {
			add := make([]types.PackingItem, 0, len(u.NewItems))
			for _, text := range u.NewItems {
				add = append(add, types.PackingItem{Text: text})
			}
			c.Items = appendPackingItems(c.Items, add, gen)
		}
		if len(u.RemoveItems) > 0 {
			c.Items = removePackingItems(c.Items, u.RemoveItems)
		}
		return
	}

	for i := range list {
		for j := range list[i].Items {
			it := &list[i].Items[j]
			if it.ID == u.ID {
				mergeInto(it, u.Fields)
				it.ID = u.ID
				return
			}
		}
	}
}

// packingItemsFrom reads an add payload's item list: plain texts or objects.
func packingItemsFrom(v any) []types.PackingItem {
	list, _ := v.([]any)
	out := make([]types.PackingItem, 0, len(list))
	for _, e := range list {
		switch x := e.(type) {
		case string:
			out = append(out, types.PackingItem{Text: x})
		case map[string]any:
			var it types.PackingItem
			mergeInto(&it, x)
			if it.Text == "" {
				it.Text, _ = x["item"].(string)
			}
			delete(it.Extra, "item")
			out = append(out, it)
		}
	}
	return out
}

// appendPackingItems appends items whose lowercase text is not already in
// existing, giving each a fresh id.
func appendPackingItems(existing, items []types.PackingItem, gen types.IDGenerator) []types.PackingItem {
	seen := make(map[string]bool, len(existing))
	for _, it := range existing {
		seen[strings.ToLower(it.Text)] = true
	}
	for _, it := range items {
		key := strings.ToLower(it.Text)
		if seen[key] {
			continue
		}
		seen[key] = true
		it.ID = gen.NewID()
		if it.AttachmentIDs == nil {
			it.AttachmentIDs = []string{}
		}
		existing = append(existing, it)
	}
	return existing
}

// removePackingItems drops items whose id or lowercase text matches refs.
func removePackingItems(items []types.PackingItem, refs []string) []types.PackingItem {
	byID := make(map[string]bool, len(refs))
	byText := make(map[string]bool, len(refs))
	for _, r := range refs {
		byID[r] = true
		byText[strings.ToLower(r)] = true
	}
	kept := items[:0]
	for _, it := range items {
		if byID[it.ID] || byText[strings.ToLower(it.Text)] {
			continue
		}
		kept = append(kept, it)
	}
	return kept
}
