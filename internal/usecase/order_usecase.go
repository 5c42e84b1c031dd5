package usecase

import (
	"context"
	"errors"
	"net/http"
	"time"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"
)

// 自分の注文履歴
type OrderUsecase struct {
	orders repo.OrderRepository
}

func NewOrderUsecase(orders repo.OrderRepository) *OrderUsecase {
	return &OrderUsecase{orders: orders}
}

type OrderOutput struct {
	ID               string         `json:"id"`
	UserID           int64          `json:"user_id"`
	Total            string         `json:"total"`
	PaymentReference string         `json:"payment_reference"`
	CreatedAt        time.Time      `json:"created_at"`
	Items            []CartLineView `json:"items"`
}

type OrderListOutput struct {
	Items []OrderOutput `json:"items"`
}

func (u *OrderUsecase) ListMyOrders(ctx context.Context, userID int64) (OrderListOutput, error) {
	if userID <= 0 {
		return OrderListOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	orders, err := u.orders.ListByUserID(ctx, userID)
	if err != nil {
		return OrderListOutput{}, internalError("db error", err)
	}

	out := OrderListOutput{Items: make([]OrderOutput, 0, len(orders))}
	for _, o := range orders {
		v, err := toOrderOutput(o)
		if err != nil {
			return OrderListOutput{}, err
		}
		out.Items = append(out.Items, v)
	}
	return out, nil
}

// 他人の注文は存在しない扱い（404）
func (u *OrderUsecase) GetMyOrder(ctx context.Context, userID int64, orderID string) (OrderOutput, error) {
	if userID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	o, err := u.orders.FindByID(ctx, orderID)
	if errors.Is(err, repo.ErrNotFound) {
		return OrderOutput{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return OrderOutput{}, internalError("db error", err)
	}
	if o.UserID != userID {
		return OrderOutput{}, NewHTTPError(http.StatusNotFound, "not found")
	}

	return toOrderOutput(o)
}

func toOrderOutput(o model.Order) (OrderOutput, error) {
	lines, err := o.Lines()
	if err != nil {
		return OrderOutput{}, internalError("order snapshot is broken", err)
	}
	return OrderOutput{
		ID:               o.ID,
		UserID:           o.UserID,
		Total:            money(o.Total),
		PaymentReference: o.PaymentReference,
		CreatedAt:        o.CreatedAt,
		Items:            toLineViews(lines),
	}, nil
}
