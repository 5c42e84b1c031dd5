package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// カートの明細
// 追加時点の価格を必ず保存。
type CartLine struct {
	ProductID int64           `json:"product_id"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"price"`
	Quantity  int64           `json:"quantity"`
}

func (l CartLine) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(l.Quantity))
}

// 1セッションにつき1つ。DBには保存しない。
type Cart struct {
	SessionID string     `json:"session_id"`
	Lines     []CartLine `json:"lines"`
	UpdatedAt time.Time  `json:"updated_at"`
}

func NewCart(sessionID string) Cart {
	return Cart{SessionID: sessionID, Lines: []CartLine{}}
}

// 同一商品は数量+1、無ければ数量1で追加
func (c *Cart) Add(p Product) {
	for i := range c.Lines {
		if c.Lines[i].ProductID == p.ID {
			c.Lines[i].Quantity++
			return
		}
	}
	c.Lines = append(c.Lines, CartLine{
		ProductID: p.ID,
		Name:      p.Name,
		UnitPrice: p.Price,
		Quantity:  1,
	})
}

// 指定された明細だけ数量を更新。1未満は1にする（削除はしない）。
// カートに無い商品IDは無視。
func (c *Cart) UpdateQuantities(updates map[int64]int64) {
	for i := range c.Lines {
		qty, ok := updates[c.Lines[i].ProductID]
		if !ok {
			continue
		}
		if qty < 1 {
			qty = 1
		}
		c.Lines[i].Quantity = qty
	}
}

func (c *Cart) Clear() {
	c.Lines = []CartLine{}
}

func (c Cart) IsEmpty() bool {
	return len(c.Lines) == 0
}

// 合計金額（単価×数量の和）
func (c Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, l := range c.Lines {
		total = total.Add(l.Subtotal())
	}
	return total
}

// バッジ表示用の合計点数
func (c Cart) ItemCount() int64 {
	var n int64
	for _, l := range c.Lines {
		n += l.Quantity
	}
	return n
}

// 注文確定用のコピー
func (c Cart) Snapshot() []CartLine {
	out := make([]CartLine, len(c.Lines))
	copy(out, c.Lines)
	return out
}
