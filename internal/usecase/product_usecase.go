package usecase

import (
	"context"
	"errors"
	"net/http"

	repo "storefront/internal/repository"
)

type ProductUsecase struct {
	productRepo repo.ProductRepository
}

// DI
func NewProductUsecase(productRepo repo.ProductRepository) *ProductUsecase {
	return &ProductUsecase{productRepo: productRepo}
}

type ProductView struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Price    string `json:"price"`
	Image    string `json:"image"`
	Delivery string `json:"delivery"`
}

type ProductListOutput struct {
	Items []ProductView `json:"items"`
	Total int           `json:"total"`
}

// GET /products
func (u *ProductUsecase) ListProducts(ctx context.Context) (ProductListOutput, error) {
	items, err := u.productRepo.List(ctx)
	if err != nil {
		return ProductListOutput{}, internalError("catalog error", err)
	}

	views := make([]ProductView, 0, len(items))
	for _, p := range items {
		views = append(views, ProductView{
			ID:       p.ID,
			Name:     p.Name,
			Price:    money(p.Price),
			Image:    p.Image,
			Delivery: p.Delivery,
		})
	}
	return ProductListOutput{Items: views, Total: len(views)}, nil
}

func (u *ProductUsecase) GetProduct(ctx context.Context, productID int64) (ProductView, error) {
	p, err := u.productRepo.FindByID(ctx, productID)
	if errors.Is(err, repo.ErrNotFound) {
		return ProductView{}, newSentinelError(http.StatusNotFound, ErrUnknownProduct)
	}
	if err != nil {
		return ProductView{}, internalError("catalog error", err)
	}
	return ProductView{ID: p.ID, Name: p.Name, Price: money(p.Price), Image: p.Image, Delivery: p.Delivery}, nil
}
