package repository

import (
	"context"

	"storefront/internal/domain/model"
)

// 注文は追記のみ（更新・削除なし）
type OrderRepository interface {
	Create(ctx context.Context, order *model.Order) error
	FindByID(ctx context.Context, orderID string) (model.Order, error)
	ListByUserID(ctx context.Context, userID int64) ([]model.Order, error)

	//管理者用：全件（新しい順）
	ListAll(ctx context.Context) ([]model.Order, error)
}
