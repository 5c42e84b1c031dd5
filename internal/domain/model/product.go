package model

import "github.com/shopspring/decimal"

// カタログの商品（読み取り専用）
type Product struct {
	ID       int64           `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Image    string          `json:"image"`
	Delivery string          `json:"delivery"`
}
