package catalogs

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/agentstation/pricemap/pkg/errors"
)

// StockEntry is the quantity one warehouse holds of an item.
type StockEntry struct {
	WarehouseID string `json:"warehouse_id,omitempty" yaml:"warehouse_id,omitempty"`
	Name        string `json:"name" yaml:"name"`
	Quantity    int    `json:"quantity" yaml:"quantity"`
}

// Stocks is a stock listing in warehouse order.
type Stocks []StockEntry

// listingSeparator joins entries of a serialized stock listing.
const listingSeparator = ", "

var listingEntry = regexp.MustCompile(`^(.+) \((\d+)\)$`)

// Listing serializes the entries that hold stock as "name (qty), name (qty)".
// Entries with a zero quantity are omitted.
func (s Stocks) Listing() string {
	parts := make([]string, 0, len(s))
	for _, e := range s {
		if e.Quantity > 0 {
			parts = append(parts, fmt.Sprintf("%s (%d)", e.Name, e.Quantity))
		}
	}
	return strings.Join(parts, listingSeparator)
}

// Total returns the summed quantity across warehouses.
func (s Stocks) Total() int {
	total := 0
	for _, e := range s {
		total += e.Quantity
	}
	return total
}

// ParseListing turns a serialized listing back into Stocks. Empty input and
// "N/A" yield no entries; entries not shaped like "name (qty)" are skipped.
func ParseListing(listing string) Stocks {
	listing = strings.TrimSpace(listing)
	if listing == "" || listing == NotApplicable {
		return nil
	}

	var stocks Stocks
	for _, part := range strings.Split(listing, listingSeparator) {
		entry, err := ParseListingEntry(part)
		if err != nil {
			continue
		}
		stocks = append(stocks, entry)
	}
	return stocks
}

// ParseListingEntry parses a single "name (qty)" entry.
func ParseListingEntry(entry string) (StockEntry, error) {
	m := listingEntry.FindStringSubmatch(strings.TrimSpace(entry))
	if m == nil {
		return StockEntry{}, &errors.ParseError{
			Format:  "stock",
			Message: fmt.Sprintf("%q is not \"name (qty)\"", entry),
		}
	}
	qty, err := strconv.Atoi(m[2])
	if err != nil {
		return StockEntry{}, errors.WrapParse("stock", "", err)
	}
	return StockEntry{Name: strings.TrimSpace(m[1]), Quantity: qty}, nil
}
