package model

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// 確定済みの注文。作成後は更新しない。
type Order struct {
	ID     string `gorm:"type:varchar(36);primaryKey" json:"id"`
	UserID int64  `gorm:"not null;index" json:"user_id"`
	User   *User  `gorm:"foreignKey:UserID" json:"-"`

	//カート明細のスナップショット（JSON）
	Items string `gorm:"type:text;not null" json:"-"`

	//確定時に計算した合計。後から再計算しない。
	Total decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"total"`

	//決済の参照番号（検証はしない）
	PaymentReference string `gorm:"type:varchar(255);not null;default:''" json:"payment_reference"`

	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
}

func EncodeLines(lines []CartLine) (string, error) {
	b, err := json.Marshal(lines)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// スナップショットを明細に戻す
func (o Order) Lines() ([]CartLine, error) {
	var lines []CartLine
	if err := json.Unmarshal([]byte(o.Items), &lines); err != nil {
		return nil, err
	}
	return lines, nil
}
