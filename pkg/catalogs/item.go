// Package catalogs defines the data model shared by every stage of a
// reconciliation run: catalog items, remote quotes, stock listings, and the
// reconciliation rows produced for each item.
package catalogs

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// NotApplicable is written wherever a value has no meaning for a row,
// such as the percent change of an item whose old price is zero.
const NotApplicable = "N/A"

// Key identifies a catalog item. Article and brand together are unique.
type Key struct {
	Article string `json:"article" yaml:"article"`
	Brand   string `json:"brand" yaml:"brand"`
}

// String returns "article/brand".
func (k Key) String() string {
	return k.Article + "/" + k.Brand
}

// Item is one row of the price list being reconciled.
type Item struct {
	Article string          `json:"article" yaml:"article"`
	Brand   string          `json:"brand" yaml:"brand"`
	Price   decimal.Decimal `json:"price" yaml:"price"`
	Status  Status          `json:"status" yaml:"status"`
}

// Key returns the item's identity.
func (i Item) Key() Key {
	return Key{Article: i.Article, Brand: i.Brand}
}

// Queryable reports whether the item has an article to look up. Items without
// one stay in the catalog but are never sent to the pricing API.
func (i Item) Queryable() bool {
	return strings.TrimSpace(i.Article) != ""
}

// Keys returns the keys of items in catalog order.
func Keys(items []Item) []Key {
	keys := make([]Key, len(items))
	for i, item := range items {
		keys[i] = item.Key()
	}
	return keys
}

// Digest fingerprints the ordered key sequence of a catalog. Two catalogs with
// the same digest partition into identical batches.
func Digest(items []Item) string {
	h := sha256.New()
	for _, item := range items {
		h.Write([]byte(item.Article))
		h.Write([]byte{0})
		h.Write([]byte(item.Brand))
		h.Write([]byte{'\n'})
	}
	return hex.EncodeToString(h.Sum(nil))
}

var nonPriceChars = regexp.MustCompile(`[^\d.]`)

// ParsePrice reads a price written by a human or an API: everything except
// digits and the decimal point is dropped ("1 250 руб." is 1250). A value
// that still does not parse is zero.
func ParsePrice(s string) decimal.Decimal {
	cleaned := nonPriceChars.ReplaceAllString(s, "")
	if cleaned == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero
	}
	return d
}
