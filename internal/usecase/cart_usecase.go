package usecase

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"storefront/internal/metrics"
	repo "storefront/internal/repository"
)

// CartUsecase は /cart の業務ロジックです。
// カートはセッション単位で、DBではなくCartStoreに置く。
type CartUsecase struct {
	carts       repo.CartStore
	productRepo repo.ProductRepository
	metrics     *metrics.Metrics
	log         *slog.Logger
}

func NewCartUsecase(
	carts repo.CartStore,
	productRepo repo.ProductRepository,
	m *metrics.Metrics,
	log *slog.Logger,
) *CartUsecase {
	return &CartUsecase{
		carts:       carts,
		productRepo: productRepo,
		metrics:     m,
		log:         loggerOrDiscard(log),
	}
}

type AddToCartOutput struct {
	CartCount int64 `json:"cart_count"`
}

// GetCart はカート取得（無ければ空を返す）。
func (u *CartUsecase) GetCart(ctx context.Context, sessionID string) (CartView, error) {
	if sessionID == "" {
		return CartView{}, NewHTTPError(http.StatusBadRequest, "missing session")
	}

	cart, err := u.carts.Get(ctx, sessionID)
	if err != nil {
		return CartView{}, internalError("cart store error", err)
	}
	return toCartView(cart), nil
}

// AddToCart はカートに追加（同一商品は数量+1、価格は最初のまま）。
func (u *CartUsecase) AddToCart(ctx context.Context, sessionID string, productID int64) (AddToCartOutput, error) {
	if sessionID == "" {
		return AddToCartOutput{}, NewHTTPError(http.StatusBadRequest, "missing session")
	}

	// 商品チェック（カタログに無ければ何も変えない）
	p, err := u.productRepo.FindByID(ctx, productID)
	if errors.Is(err, repo.ErrNotFound) {
		u.log.WarnContext(ctx, "add to cart: unknown product", "session_id", sessionID, "product_id", productID)
		u.metrics.UnknownProduct()
		return AddToCartOutput{}, newSentinelError(http.StatusNotFound, ErrUnknownProduct)
	}
	if err != nil {
		return AddToCartOutput{}, internalError("catalog error", err)
	}

	unlock, err := u.lock(ctx, sessionID)
	if err != nil {
		return AddToCartOutput{}, err
	}
	defer unlock()

	cart, err := u.carts.Get(ctx, sessionID)
	if err != nil {
		return AddToCartOutput{}, internalError("cart store error", err)
	}

	cart.Add(p)

	if err := u.carts.Save(ctx, cart); err != nil {
		return AddToCartOutput{}, internalError("cart store error", err)
	}

	return AddToCartOutput{CartCount: cart.ItemCount()}, nil
}

// UpdateCart は数量の一括更新。
// キーは商品ID、値は数量（フォームの値そのまま）。空の値は指定なし扱い。
func (u *CartUsecase) UpdateCart(ctx context.Context, sessionID string, quantities map[string]string) (CartView, error) {
	if sessionID == "" {
		return CartView{}, NewHTTPError(http.StatusBadRequest, "missing session")
	}

	updates := parseQuantities(quantities)

	unlock, err := u.lock(ctx, sessionID)
	if err != nil {
		return CartView{}, err
	}
	defer unlock()

	cart, err := u.carts.Get(ctx, sessionID)
	if err != nil {
		return CartView{}, internalError("cart store error", err)
	}

	cart.UpdateQuantities(updates)

	if err := u.carts.Save(ctx, cart); err != nil {
		return CartView{}, internalError("cart store error", err)
	}

	return toCartView(cart), nil
}

func (u *CartUsecase) lock(ctx context.Context, sessionID string) (func(), error) {
	unlock, err := u.carts.Lock(ctx, sessionID)
	if errors.Is(err, repo.ErrCartLocked) {
		return nil, newSentinelError(http.StatusConflict, ErrCartBusy)
	}
	if err != nil {
		return nil, internalError("cart store error", err)
	}
	return unlock, nil
}

// 数字でないキーは無視。数字でない値は1（後でUpdateQuantitiesが1未満も1にする）。
func parseQuantities(raw map[string]string) map[int64]int64 {
	out := make(map[int64]int64, len(raw))
	for k, v := range raw {
		id, err := strconv.ParseInt(strings.TrimSpace(k), 10, 64)
		if err != nil {
			continue
		}

		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}

		qty, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			qty = 1
		}
		out[id] = qty
	}
	return out
}
