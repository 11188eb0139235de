// Package pricing computes retail prices from wholesale prices using a fixed
// ladder of markup tiers.
package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/agentstation/pricemap/pkg/errors"
)

// Tier is one band of the markup ladder. Prices strictly below Bound that did
// not fall into an earlier tier receive Markup.
type Tier struct {
	Bound  decimal.Decimal `json:"bound" yaml:"bound"`
	Markup int64           `json:"markup" yaml:"markup"`
}

// Tiers is an ordered markup ladder followed by a catch-all markup for prices
// at or above the last bound.
type Tiers struct {
	Bands    []Tier `json:"bands" yaml:"bands"`
	CatchAll int64  `json:"catch_all" yaml:"catch_all"`
}

func tier(bound, markup int64) Tier {
	return Tier{Bound: decimal.NewFromInt(bound), Markup: markup}
}

// DefaultTiers returns the markup ladder applied to every price list.
func DefaultTiers() Tiers {
	return Tiers{
		Bands: []Tier{
			tier(100, 25),
			tier(200, 50),
			tier(300, 75),
			tier(500, 100),
			tier(700, 150),
			tier(900, 200),
			tier(1100, 300),
			tier(1500, 400),
			tier(2000, 450),
			tier(3000, 500),
			tier(4500, 650),
			tier(6000, 750),
			tier(8000, 800),
			tier(10000, 900),
			tier(12000, 1100),
			tier(15000, 1300),
			tier(18000, 1500),
			tier(25000, 2500),
			tier(35000, 3000),
			tier(45000, 4500),
			tier(55000, 6000),
			tier(65000, 7000),
			tier(100000, 8000),
			tier(150000, 10000),
			tier(300000, 15000),
			tier(800000, 50000),
		},
		CatchAll: 50000,
	}
}

// Markup returns the markup for a wholesale price. The first band whose bound
// is strictly greater than price wins.
func (t Tiers) Markup(price decimal.Decimal) int64 {
	for _, band := range t.Bands {
		if price.LessThan(band.Bound) {
			return band.Markup
		}
	}
	return t.CatchAll
}

// RetailPrice returns wholesale plus its markup.
func (t Tiers) RetailPrice(wholesale decimal.Decimal) decimal.Decimal {
	return wholesale.Add(decimal.NewFromInt(t.Markup(wholesale)))
}

// Sentinel is the retail price of a zero wholesale price. A new price equal
// to it means the API reported no price at all.
func (t Tiers) Sentinel() decimal.Decimal {
	return t.RetailPrice(decimal.Zero)
}

// Validate checks that the ladder has at least one band, that bounds are
// positive and strictly ascending, and that no markup is negative.
func (t Tiers) Validate() error {
	if len(t.Bands) == 0 {
		return errors.NewValidationError("tiers", nil, "ladder has no bands")
	}
	prev := decimal.Zero
	for i, band := range t.Bands {
		field := fmt.Sprintf("tiers[%d]", i)
		if !band.Bound.GreaterThan(prev) {
			return errors.NewValidationError(field+".bound", band.Bound.String(),
				fmt.Sprintf("must be greater than %s", prev))
		}
		if band.Markup < 0 {
			return errors.NewValidationError(field+".markup", band.Markup, "must not be negative")
		}
		prev = band.Bound
	}
	if t.CatchAll < 0 {
		return errors.NewValidationError("tiers.catch_all", t.CatchAll, "must not be negative")
	}
	return nil
}

var defaultTiers = DefaultTiers()

// Markup applies the default ladder.
func Markup(price decimal.Decimal) int64 {
	return defaultTiers.Markup(price)
}

// RetailPrice applies the default ladder.
func RetailPrice(wholesale decimal.Decimal) decimal.Decimal {
	return defaultTiers.RetailPrice(wholesale)
}
