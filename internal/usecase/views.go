package usecase

import (
	"storefront/internal/domain/model"

	"github.com/shopspring/decimal"
)

// 金額は小数2桁の文字列で返す
func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

type CartLineView struct {
	ProductID int64  `json:"product_id"`
	Name      string `json:"name"`
	Price     string `json:"price"`
	Quantity  int64  `json:"quantity"`
	Subtotal  string `json:"subtotal"`
}

type CartView struct {
	Items     []CartLineView `json:"items"`
	Total     string         `json:"total"`
	CartCount int64          `json:"cart_count"`
}

func toLineViews(lines []model.CartLine) []CartLineView {
	out := make([]CartLineView, 0, len(lines))
	for _, l := range lines {
		out = append(out, CartLineView{
			ProductID: l.ProductID,
			Name:      l.Name,
			Price:     money(l.UnitPrice),
			Quantity:  l.Quantity,
			Subtotal:  money(l.Subtotal()),
		})
	}
	return out
}

func toCartView(c model.Cart) CartView {
	return CartView{
		Items:     toLineViews(c.Lines),
		Total:     money(c.Total()),
		CartCount: c.ItemCount(),
	}
}
