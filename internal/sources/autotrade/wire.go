package autotrade

import (
	"bytes"
	"encoding/json"
	"sort"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/agentstation/pricemap/pkg/catalogs"
)

// envelope is the status part every API response may carry.
type envelope struct {
	Code    flexInt `json:"code"`
	Message string  `json:"message"`
}

type storageRecord struct {
	ID             flexString `json:"id"`
	Name           string     `json:"name"`
	ForRealization flexInt    `json:"for_realization"`
	ForDelivery    flexInt    `json:"for_delivery"`
}

type stocksResponse struct {
	Items objectMap[itemRecord] `json:"items"`
}

type itemRecord struct {
	Price  flexPrice              `json:"price"`
	Stocks objectMap[stockRecord] `json:"stocks"`
}

type stockRecord struct {
	Name             string  `json:"name"`
	QuantityUnpacked flexInt `json:"quantity_unpacked"`
}

// quote converts an item record into its catalog form. Stocks are ordered by
// warehouse id.
func (r itemRecord) quote() catalogs.Quote {
	ids := make([]string, 0, len(r.Stocks))
	for id := range r.Stocks {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return lessID(ids[i], ids[j]) })

	q := catalogs.Quote{WholesalePrice: decimal.Decimal(r.Price)}
	for _, id := range ids {
		s := r.Stocks[id]
		q.Stocks = append(q.Stocks, catalogs.StockEntry{
			WarehouseID: id,
			Name:        s.Name,
			Quantity:    int(s.QuantityUnpacked),
		})
	}
	return q
}

func lessID(a, b string) bool {
	na, errA := strconv.Atoi(a)
	nb, errB := strconv.Atoi(b)
	if errA == nil && errB == nil {
		return na < nb
	}
	return a < b
}

// objectMap decodes a JSON object, also accepting the empty array PHP
// encodes for an empty associative array. Non-empty arrays are keyed by index.
type objectMap[V any] map[string]V

func (m *objectMap[V]) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*m = nil
		return nil
	case len(data) > 0 && data[0] == '[':
		var list []V
		if err := json.Unmarshal(data, &list); err != nil {
			return err
		}
		out := make(objectMap[V], len(list))
		for i, v := range list {
			out[strconv.Itoa(i)] = v
		}
		*m = out
		return nil
	default:
		var out map[string]V
		if err := json.Unmarshal(data, &out); err != nil {
			return err
		}
		*m = out
		return nil
	}
}

// flexInt accepts a JSON number, a numeric string, or a boolean.
type flexInt int

func (n *flexInt) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(bytes.TrimSpace(data)), `"`)
	switch s {
	case "", "null", "false":
		*n = 0
		return nil
	case "true":
		*n = 1
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return err
	}
	*n = flexInt(f)
	return nil
}

// flexString accepts a JSON string or number.
type flexString string

func (s *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		*s = flexString(str)
		return nil
	}
	if bytes.Equal(data, []byte("null")) {
		*s = ""
		return nil
	}
	*s = flexString(data)
	return nil
}

// flexPrice accepts a number or a human-formatted price string. Anything
// unparsable is zero.
type flexPrice decimal.Decimal

func (p *flexPrice) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		*p = flexPrice(catalogs.ParsePrice(str))
		return nil
	}
	*p = flexPrice(catalogs.ParsePrice(string(data)))
	return nil
}
