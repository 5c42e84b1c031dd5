package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"storefront/internal/config"
	"storefront/internal/usecase"

	"github.com/labstack/echo/v4"
)

// /cartのHTTP（ログイン不要、セッション単位）
type CartHandler struct {
	uc *usecase.CartUsecase
}

// DI
func NewCartHandler(uc *usecase.CartUsecase) *CartHandler {
	return &CartHandler{uc: uc}
}

type AddCartRequest struct {
	ProductID int64 `json:"product_id" form:"product_id"`
}

// 数量は文字列でも数値でも受ける（フォーム送信と同じ扱い）
type UpdateCartRequest struct {
	Quantities map[string]json.RawMessage `json:"quantities"`
}

func (h *CartHandler) RegisterRoutes(e *echo.Echo, cfg config.Config) {
	g := e.Group("/cart")
	g.Use(sessionMiddleware(cfg))

	g.GET("", h.getCart)
	g.POST("", h.addToCart)
	g.PATCH("", h.updateCart)
}

func (h *CartHandler) getCart(c echo.Context) error {
	out, err := h.uc.GetCart(c.Request().Context(), getSessionIDFromContext(c))
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}

func (h *CartHandler) addToCart(c echo.Context) error {
	var req AddCartRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if req.ProductID <= 0 {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid product_id"})
	}

	out, err := h.uc.AddToCart(c.Request().Context(), getSessionIDFromContext(c), req.ProductID)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}

func (h *CartHandler) updateCart(c echo.Context) error {
	quantities, err := bindQuantities(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	out, err := h.uc.UpdateCart(c.Request().Context(), getSessionIDFromContext(c), quantities)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}

// フォームならキー=商品ID、JSONなら quantities の中身
func bindQuantities(c echo.Context) (map[string]string, error) {
	ct := c.Request().Header.Get(echo.HeaderContentType)
	if strings.HasPrefix(ct, echo.MIMEApplicationForm) {
		form, err := c.FormParams()
		if err != nil {
			return nil, err
		}
		out := make(map[string]string, len(form))
		for k, v := range form {
			if len(v) > 0 {
				out[k] = v[0]
			}
		}
		return out, nil
	}

	var req UpdateCartRequest
	if err := json.NewDecoder(c.Request().Body).Decode(&req); err != nil {
		return nil, err
	}

	out := make(map[string]string, len(req.Quantities))
	for k, raw := range req.Quantities {
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			out[k] = s
			continue
		}
		var n json.Number
		if err := json.Unmarshal(raw, &n); err == nil {
			out[k] = n.String()
			continue
		}
		// 数値でも文字列でもない => 数量1扱い
		out[k] = string(raw)
	}
	return out, nil
}
