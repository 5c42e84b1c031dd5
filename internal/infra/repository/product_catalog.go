package repository

import (
	"context"
	"fmt"
	"os"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// 読み取り専用のカタログ（起動時に固定）
type CatalogRepository struct {
	products []model.Product
	byID     map[int64]model.Product
}

// DI
func NewCatalogRepository(products []model.Product) (*CatalogRepository, error) {
	byID := make(map[int64]model.Product, len(products))
	for _, p := range products {
		if p.ID <= 0 {
			return nil, fmt.Errorf("catalog: invalid product id %d", p.ID)
		}
		if _, dup := byID[p.ID]; dup {
			return nil, fmt.Errorf("catalog: duplicate product id %d", p.ID)
		}
		if p.Name == "" {
			return nil, fmt.Errorf("catalog: product %d has no name", p.ID)
		}
		if p.Price.IsNegative() {
			return nil, fmt.Errorf("catalog: product %d has negative price", p.ID)
		}
		byID[p.ID] = p
	}

	list := make([]model.Product, len(products))
	copy(list, products)
	return &CatalogRepository{products: list, byID: byID}, nil
}

var _ repo.ProductRepository = (*CatalogRepository)(nil)

func (r *CatalogRepository) List(ctx context.Context) ([]model.Product, error) {
	out := make([]model.Product, len(r.products))
	copy(out, r.products)
	return out, nil
}

// IDで商品を取得
func (r *CatalogRepository) FindByID(ctx context.Context, id int64) (model.Product, error) {
	p, ok := r.byID[id]
	if !ok {
		return model.Product{}, repo.ErrNotFound
	}
	return p, nil
}

// 組み込みの商品一覧
func DefaultProducts() []model.Product {
	return []model.Product{
		{ID: 1, Name: "Solar Panels", Price: decimal.RequireFromString("5.00"), Image: "static/Solar_panel.jpg", Delivery: "2 days"},
		{ID: 2, Name: "Solar Inverter", Price: decimal.RequireFromString("15.00"), Image: "static/inverter.jpg", Delivery: "5 days"},
		{ID: 3, Name: "Cables", Price: decimal.RequireFromString("1.00"), Image: "static/cabless.webp", Delivery: "3 days"},
	}
}

type catalogFile struct {
	Products []catalogFileProduct `yaml:"products"`
}

type catalogFileProduct struct {
	ID       int64  `yaml:"id"`
	Name     string `yaml:"name"`
	Price    string `yaml:"price"`
	Image    string `yaml:"image"`
	Delivery string `yaml:"delivery"`
}

// CATALOG_FILE（YAML）から読む。価格は文字列で持って誤差を出さない。
func LoadCatalogFile(path string) ([]model.Product, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return ParseCatalog(data)
}

func ParseCatalog(data []byte) ([]model.Product, error) {
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}

	out := make([]model.Product, 0, len(f.Products))
	for _, p := range f.Products {
		price, err := decimal.NewFromString(p.Price)
		if err != nil {
			return nil, fmt.Errorf("catalog: product %d price %q: %w", p.ID, p.Price, err)
		}
		out = append(out, model.Product{
			ID:       p.ID,
			Name:     p.Name,
			Price:    price,
			Image:    p.Image,
			Delivery: p.Delivery,
		})
	}
	return out, nil
}
