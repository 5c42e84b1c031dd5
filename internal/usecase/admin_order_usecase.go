package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"golang.org/x/sync/errgroup"
)

// 管理画面（全ユーザーと全注文）
type AdminOrderUsecase struct {
	users  repo.UserRepository
	orders repo.OrderRepository
	log    *slog.Logger
}

func NewAdminOrderUsecase(users repo.UserRepository, orders repo.OrderRepository, log *slog.Logger) *AdminOrderUsecase {
	return &AdminOrderUsecase{users: users, orders: orders, log: loggerOrDiscard(log)}
}

type AdminUserOutput struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

type AdminOrderRow struct {
	ProductID int64  `json:"product_id"`
	Name      string `json:"name"`
	Price     string `json:"price"`
	Quantity  int64  `json:"quantity"`
	Subtotal  string `json:"subtotal"`
}

type AdminOrderOutput struct {
	ID               string          `json:"id"`
	UserID           int64           `json:"user_id"`
	Username         string          `json:"username"`
	Email            string          `json:"email"`
	Total            string          `json:"total"`
	PaymentReference string          `json:"payment_reference"`
	CreatedAt        time.Time       `json:"created_at"`
	Items            []AdminOrderRow `json:"items"`
}

type AdminDashboardOutput struct {
	Users  []AdminUserOutput  `json:"users"`
	Orders []AdminOrderOutput `json:"orders"`
}

// Dashboard は管理者だけが見られる集計ビュー。
// 明細のスナップショットが1件でも壊れていたら全体を失敗にする。
func (u *AdminOrderUsecase) Dashboard(ctx context.Context, actorUserID int64) (AdminDashboardOutput, error) {
	actor, err := u.users.FindByID(ctx, actorUserID)
	if err != nil {
		return AdminDashboardOutput{}, internalError("db error", err)
	}
	if actor == nil {
		return AdminDashboardOutput{}, newSentinelError(http.StatusUnauthorized, ErrIdentityNotFound)
	}
	if !actor.IsAdmin() {
		return AdminDashboardOutput{}, newSentinelError(http.StatusForbidden, ErrForbidden)
	}

	var (
		users  []model.User
		orders []model.Order
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		users, err = u.users.List(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		orders, err = u.orders.ListAll(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return AdminDashboardOutput{}, internalError("db error", err)
	}

	byID := make(map[int64]model.User, len(users))
	out := AdminDashboardOutput{
		Users:  make([]AdminUserOutput, 0, len(users)),
		Orders: make([]AdminOrderOutput, 0, len(orders)),
	}
	for _, usr := range users {
		byID[usr.ID] = usr
		out.Users = append(out.Users, AdminUserOutput{
			ID:        usr.ID,
			Username:  usr.Username,
			Email:     usr.Email,
			Role:      string(usr.Role),
			CreatedAt: usr.CreatedAt,
		})
	}

	for _, o := range orders {
		lines, err := o.Lines()
		if err != nil {
			u.log.ErrorContext(ctx, "admin dashboard: broken order snapshot", "order_id", o.ID, "err", err)
			return AdminDashboardOutput{}, internalError("order history is unreadable", fmt.Errorf("order %s: %w", o.ID, err))
		}

		//Preload済みならそれを使う
		owner := byID[o.UserID]
		if o.User != nil {
			owner = *o.User
		}

		rows := make([]AdminOrderRow, 0, len(lines))
		for _, l := range lines {
			rows = append(rows, AdminOrderRow{
				ProductID: l.ProductID,
				Name:      l.Name,
				Price:     money(l.UnitPrice),
				Quantity:  l.Quantity,
				Subtotal:  money(l.Subtotal()),
			})
		}

		out.Orders = append(out.Orders, AdminOrderOutput{
			ID:               o.ID,
			UserID:           o.UserID,
			Username:         owner.Username,
			Email:            owner.Email,
			Total:            money(o.Total),
			PaymentReference: o.PaymentReference,
			CreatedAt:        o.CreatedAt,
			Items:            rows,
		})
	}

	return out, nil
}
