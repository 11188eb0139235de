// Package availability derives an item's availability status from the stock
// its warehouses hold.
//
// Warehouses are ranked by two priority groups of short codes. Stock in any
// Group-1 warehouse means the item is in stock; stock only in Group-2
// warehouses means a 2-5 day lead time; stock elsewhere means 7-14 days; no
// stock at all means 14-21 days.
package availability

import (
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/agentstation/pricemap/pkg/catalogs"
)

type group int

const (
	groupOther group = iota
	groupPrimary
	groupSecondary
)

// Classifier maps stock listings to availability statuses.
type Classifier struct {
	names  map[string]string
	groups map[string]group
}

// NewClassifier builds a classifier over the given warehouse table.
func NewClassifier(w Warehouses) (*Classifier, error) {
	if err := w.Validate(); err != nil {
		return nil, err
	}

	c := &Classifier{
		names:  make(map[string]string, len(w.Names)),
		groups: make(map[string]group, len(w.Group1)+len(w.Group2)),
	}
	for name, code := range w.Names {
		c.names[canonical(name)] = canonical(code)
	}
	for _, code := range w.Group1 {
		c.groups[canonical(code)] = groupPrimary
	}
	for _, code := range w.Group2 {
		c.groups[canonical(code)] = groupSecondary
	}
	return c, nil
}

// Default returns a classifier over DefaultWarehouses.
func Default() *Classifier {
	c, err := NewClassifier(DefaultWarehouses())
	if err != nil {
		panic(err)
	}
	return c
}

func canonical(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}

// Code resolves a warehouse name to its short code. Names that already are a
// grouped code resolve to themselves. Unknown names return false.
func (c *Classifier) Code(name string) (string, bool) {
	name = canonical(name)
	if _, ok := c.groups[name]; ok {
		return name, true
	}
	code, ok := c.names[name]
	return code, ok
}

func (c *Classifier) group(name string) group {
	code, ok := c.Code(name)
	if !ok {
		return groupOther
	}
	return c.groups[code]
}

// Classify returns the status for a structured stock listing.
func (c *Classifier) Classify(stocks catalogs.Stocks) catalogs.Status {
	var primary, secondary, stocked bool
	for _, e := range stocks {
		if e.Quantity <= 0 {
			continue
		}
		stocked = true
		switch c.group(e.Name) {
		case groupPrimary:
			primary = true
		case groupSecondary:
			secondary = true
		}
	}

	switch {
	case primary:
		return catalogs.StatusInStock
	case secondary:
		return catalogs.StatusReady2to5
	case stocked:
		return catalogs.StatusReady7to14
	default:
		return catalogs.StatusReady14to21
	}
}

// ClassifyListing parses a serialized "name (qty), ..." listing and classifies
// it. Malformed entries are ignored.
func (c *Classifier) ClassifyListing(listing string) catalogs.Status {
	return c.Classify(catalogs.ParseListing(listing))
}
