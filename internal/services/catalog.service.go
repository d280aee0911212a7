package services

import (
	"context"

	"github.com/nimasrn/smartcart/internal/model"
	"github.com/nimasrn/smartcart/internal/repository"
	"github.com/pkg/errors"
)

type ProductRepository interface {
	Create(ctx context.Context, p *model.Product) (*model.Product, error)
	GetByBarcode(ctx context.Context, barcode string) (*model.Product, error)
	Update(ctx context.Context, barcode string, req model.ProductUpdateRequest) (*model.Product, error)
	Delete(ctx context.Context, barcode string) error
	List(ctx context.Context) ([]*model.Product, error)
	Seed(ctx context.Context, products []*model.Product) (int64, error)
}

// StarterCatalog is inserted by the seed-products task.
var StarterCatalog = []*model.Product{
	{Barcode: "189943756592", Name: "Milk Packet", Price: 25},
	{Barcode: "218285417523", Name: "Bread", Price: 30},
	{Barcode: "142186738718", Name: "Toothpaste", Price: 45},
	{Barcode: "653706002047", Name: "Soap Bar", Price: 20},
	{Barcode: "495428788836", Name: "Notebook", Price: 50},
	{Barcode: "773557903680", Name: "Chocolate", Price: 35},
}

type CatalogService struct {
	repo ProductRepository
}

func NewCatalogService(repo ProductRepository) *CatalogService {
	return &CatalogService{repo: repo}
}

func (s *CatalogService) Add(ctx context.Context, req model.ProductCreateRequest) (*model.Product, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, validationError(err)
	}

	p, err := s.repo.Create(ctx, &model.Product{
		Barcode: req.Barcode,
		Name:    req.Name,
		Price:   *req.Price,
	})
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateBarcode) {
			return nil, ErrDuplicateBarcode
		}
		return nil, errors.Wrap(err, "create product")
	}
	return p, nil
}

func (s *CatalogService) Get(ctx context.Context, barcode string) (*model.Product, error) {
	p, err := s.repo.GetByBarcode(ctx, barcode)
	if err != nil {
		return nil, mapProductErr(err, "get product")
	}
	return p, nil
}

func (s *CatalogService) Update(ctx context.Context, barcode string, req model.ProductUpdateRequest) (*model.Product, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, validationError(err)
	}

	p, err := s.repo.Update(ctx, barcode, req)
	if err != nil {
		return nil, mapProductErr(err, "update product")
	}
	return p, nil
}

func (s *CatalogService) Delete(ctx context.Context, barcode string) error {
	if err := s.repo.Delete(ctx, barcode); err != nil {
		return mapProductErr(err, "delete product")
	}
	return nil
}

func (s *CatalogService) List(ctx context.Context) ([]*model.Product, error) {
	products, err := s.repo.List(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list products")
	}
	return products, nil
}

// Seed inserts StarterCatalog, skipping barcodes already present.
func (s *CatalogService) Seed(ctx context.Context) (int64, error) {
	n, err := s.repo.Seed(ctx, StarterCatalog)
	if err != nil {
		return 0, errors.Wrap(err, "seed products")
	}
	return n, nil
}

func mapProductErr(err error, op string) error {
	if errors.Is(err, repository.ErrProductNotFound) {
		return ErrProductNotFound
	}
	return errors.Wrap(err, op)
}
