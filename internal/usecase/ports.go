package usecase

import (
	"time"

	"storefront/internal/domain/model"
)

// UUID 等のIDを作る約束
type IDGenerator interface {
	NewID() string
}

// 現在の時間
type Clock interface {
	Now() time.Time
}

// レシート送信の受付。ブロックしない（受け付けられなければfalse）。
type ReceiptDispatcher interface {
	Dispatch(receipt model.Receipt) bool
}
