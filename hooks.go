package pricemap

import (
	"github.com/agentstation/pricemap/pkg/catalogs"
)

// Hook function types for reconciliation events.
type (
	// ItemUpdatedHook is called when merging changed a catalog item.
	ItemUpdatedHook func(old, new catalogs.Item)

	// RowFailedHook is called for a row that could not be reconciled.
	RowFailedHook func(row catalogs.Row)
)

type hooks struct {
	onItemUpdated []ItemUpdatedHook
	onRowFailed   []RowFailedHook
}

// trigger compares the catalog before and after merging and fires hooks.
// before and after are index-aligned.
func (h *hooks) trigger(before, after []catalogs.Item, rows []catalogs.Row) {
	if len(h.onItemUpdated) > 0 {
		for i := range before {
			if i >= len(after) {
				break
			}
			old, updated := before[i], after[i]
			if old.Price.Equal(updated.Price) && old.Status == updated.Status {
				continue
			}
			for _, hook := range h.onItemUpdated {
				hook(old, updated)
			}
		}
	}

	for _, row := range rows {
		if !row.IsError() {
			continue
		}
		for _, hook := range h.onRowFailed {
			hook(row)
		}
	}
}
