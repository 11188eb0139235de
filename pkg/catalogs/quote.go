package catalogs

import "github.com/shopspring/decimal"

// Quote is what the pricing API reports for one article.
type Quote struct {
	WholesalePrice decimal.Decimal `json:"wholesale_price"`
	Stocks         Stocks          `json:"stocks"`
}
