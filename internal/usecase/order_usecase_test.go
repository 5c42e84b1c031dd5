package usecase_test

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"
	"storefront/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func order(t *testing.T, id string, userID int64, lines ...model.CartLine) model.Order {
	t.Helper()
	items, err := model.EncodeLines(lines)
	require.NoError(t, err)

	c := model.Cart{Lines: lines}
	return model.Order{ID: id, UserID: userID, Items: items, Total: c.Total()}
}

func TestOrderUsecase_ListMyOrders(t *testing.T) {
	orders := new(OrderRepoMock)
	orders.On("ListByUserID", mock.Anything, int64(7)).Return([]model.Order{
		order(t, "o2", 7, model.CartLine{ProductID: 3, Name: "Cables", UnitPrice: dec("1.00"), Quantity: 4}),
		order(t, "o1", 7, model.CartLine{ProductID: 1, Name: "Solar Panels", UnitPrice: dec("5.00"), Quantity: 1}),
	}, nil).Once()

	out, err := usecase.NewOrderUsecase(orders).ListMyOrders(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, out.Items, 2)
	assert.Equal(t, "o2", out.Items[0].ID)
	assert.Equal(t, "4.00", out.Items[0].Total)
	assert.Equal(t, "4.00", out.Items[0].Items[0].Subtotal)
}

func TestOrderUsecase_GetMyOrder(t *testing.T) {
	orders := new(OrderRepoMock)
	orders.On("FindByID", mock.Anything, "mine").Return(order(t, "mine", 7, model.CartLine{ProductID: 1, Name: "Solar Panels", UnitPrice: dec("5.00"), Quantity: 2}), nil)
	orders.On("FindByID", mock.Anything, "theirs").Return(order(t, "theirs", 8), nil)
	orders.On("FindByID", mock.Anything, "missing").Return(model.Order{}, repo.ErrNotFound)
	orders.On("FindByID", mock.Anything, "broken").Return(model.Order{}, errors.New("db down"))

	uc := usecase.NewOrderUsecase(orders)
	ctx := context.Background()

	got, err := uc.GetMyOrder(ctx, 7, "mine")
	require.NoError(t, err)
	assert.Equal(t, "10.00", got.Total)

	cases := []struct {
		id     string
		status int
	}{
		{id: "theirs", status: http.StatusNotFound},
		{id: "missing", status: http.StatusNotFound},
		{id: "broken", status: http.StatusInternalServerError},
	}
	for _, tc := range cases {
		_, err := uc.GetMyOrder(ctx, 7, tc.id)
		he, ok := usecase.AsHTTPError(err)
		require.True(t, ok, tc.id)
		assert.Equal(t, tc.status, he.Status, tc.id)
	}

	_, err = uc.GetMyOrder(ctx, 0, "mine")
	he, _ := usecase.AsHTTPError(err)
	assert.Equal(t, http.StatusUnauthorized, he.Status)
}
