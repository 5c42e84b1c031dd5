package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"storefront/internal/domain/model"
	"storefront/internal/metrics"
	repo "storefront/internal/repository"
)

const maxPaymentReferenceLen = 255

// カート → 注文の確定処理
type CheckoutUsecase struct {
	users      repo.UserRepository
	carts      repo.CartStore
	orders     repo.OrderRepository
	dispatcher ReceiptDispatcher
	idGen      IDGenerator
	clock      Clock
	metrics    *metrics.Metrics
	log        *slog.Logger
}

// DI
func NewCheckoutUsecase(
	users repo.UserRepository,
	carts repo.CartStore,
	orders repo.OrderRepository,
	dispatcher ReceiptDispatcher,
	idGen IDGenerator,
	clock Clock,
	m *metrics.Metrics,
	log *slog.Logger,
) *CheckoutUsecase {
	return &CheckoutUsecase{
		users:      users,
		carts:      carts,
		orders:     orders,
		dispatcher: dispatcher,
		idGen:      idGen,
		clock:      clock,
		metrics:    m,
		log:        loggerOrDiscard(log),
	}
}

type CheckoutInput struct {
	SessionID        string
	Username         string
	PaymentReference string
}

type CheckoutOutput struct {
	Status    string         `json:"status"`
	OrderID   string         `json:"order_id"`
	Total     string         `json:"total"`
	Items     []CartLineView `json:"items"`
	CreatedAt time.Time      `json:"created_at"`
}

// Checkout はセッションのカートを注文にする。
// 注文の保存が成功した時だけレシート送信とカートのクリアを行う。
func (u *CheckoutUsecase) Checkout(ctx context.Context, in CheckoutInput) (CheckoutOutput, error) {
	if in.SessionID == "" {
		return CheckoutOutput{}, NewHTTPError(http.StatusBadRequest, "missing session")
	}
	ref := strings.TrimSpace(in.PaymentReference)
	if len(ref) > maxPaymentReferenceLen {
		return CheckoutOutput{}, NewHTTPError(http.StatusBadRequest, "payment reference too long")
	}

	//ユーザー解決（トークンはあるがユーザーが消えている場合は再ログイン）
	user, err := u.users.FindByUsername(ctx, in.Username)
	if err != nil {
		return CheckoutOutput{}, internalError("db error", err)
	}
	if user == nil {
		u.metrics.Checkout("identity_missing")
		return CheckoutOutput{}, newSentinelError(http.StatusUnauthorized, ErrIdentityNotFound)
	}

	//同じセッションの二重送信はここで直列化
	unlock, err := u.carts.Lock(ctx, in.SessionID)
	if errors.Is(err, repo.ErrCartLocked) {
		u.metrics.Checkout("busy")
		return CheckoutOutput{}, newSentinelError(http.StatusConflict, ErrCartBusy)
	}
	if err != nil {
		return CheckoutOutput{}, internalError("cart store error", err)
	}
	defer unlock()

	cart, err := u.carts.Get(ctx, in.SessionID)
	if err != nil {
		return CheckoutOutput{}, internalError("cart store error", err)
	}
	if cart.IsEmpty() {
		u.metrics.Checkout("empty")
		return CheckoutOutput{}, newSentinelError(http.StatusBadRequest, ErrEmptyCart)
	}

	//明細と合計はこの時点のスナップショット
	lines := cart.Snapshot()
	total := cart.Total()

	items, err := model.EncodeLines(lines)
	if err != nil {
		return CheckoutOutput{}, internalError("encode cart", err)
	}

	// 決済参照は記録するだけで検証しない（決済ゲートウェイ連携は無し）
	order := &model.Order{
		ID:               u.idGen.NewID(),
		UserID:           user.ID,
		Items:            items,
		Total:            total,
		PaymentReference: ref,
		CreatedAt:        u.clock.Now(),
	}

	if err := u.orders.Create(ctx, order); err != nil {
		u.log.ErrorContext(ctx, "checkout: persist order failed",
			"session_id", in.SessionID, "user_id", user.ID, "err", err)
		u.metrics.Checkout("persistence_error")
		return CheckoutOutput{}, &HTTPError{
			Status:  http.StatusInternalServerError,
			Message: ErrPersistence.Error(),
			Err:     fmt.Errorf("%w: %v", ErrPersistence, err),
		}
	}

	//レシートは非同期（失敗しても注文は確定済み）
	receipt := model.Receipt{
		OrderID: order.ID,
		Email:   user.Email,
		Lines:   lines,
		Total:   total,
	}
	if !u.dispatcher.Dispatch(receipt) {
		u.log.WarnContext(ctx, "checkout: receipt not queued", "order_id", order.ID)
	}

	//カートを空にする。失敗してもログだけ（注文は保存済み）
	if err := u.carts.Clear(ctx, in.SessionID); err != nil {
		u.log.ErrorContext(ctx, "checkout: clear cart failed",
			"session_id", in.SessionID, "order_id", order.ID, "err", err)
	}

	u.metrics.Checkout("success")
	u.log.InfoContext(ctx, "checkout: order placed",
		"order_id", order.ID, "user_id", user.ID, "total", money(total))

	return CheckoutOutput{
		Status:    "success",
		OrderID:   order.ID,
		Total:     money(total),
		Items:     toLineViews(lines),
		CreatedAt: order.CreatedAt,
	}, nil
}
