package model

import "github.com/shopspring/decimal"

// 購入レシート。確定時のスナップショットだけを持つ。
type Receipt struct {
	OrderID string
	Email   string
	Lines   []CartLine
	Total   decimal.Decimal
}
