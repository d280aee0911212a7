package repository

import (
	"context"
	"errors"

	"github.com/nimasrn/smartcart/internal/model"
	"github.com/nimasrn/smartcart/pkg/pg"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrProductNotFound  = errors.New("product not found")
	ErrDuplicateBarcode = errors.New("barcode already exists")
)

type ProductRepository struct {
	*pg.DB
}

func NewProductRepository(db *pg.DB) *ProductRepository {
	return &ProductRepository{
		db,
	}
}

// Create inserts p and fails with ErrDuplicateBarcode when the barcode is taken.
func (r *ProductRepository) Create(ctx context.Context, p *model.Product) (*model.Product, error) {
	entity := toProductEntity(p)

	res := r.Write(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "barcode"}}, DoNothing: true}).
		Create(entity)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrDuplicateBarcode
	}

	return toProductModel(entity), nil
}

func (r *ProductRepository) GetByBarcode(ctx context.Context, barcode string) (*model.Product, error) {
	var entity ProductEntity
	err := r.Read(ctx).
		Where("barcode = ?", barcode).
		First(&entity).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	return toProductModel(&entity), nil
}

// Update applies the non-nil fields of req and returns the stored product.
func (r *ProductRepository) Update(ctx context.Context, barcode string, req model.ProductUpdateRequest) (*model.Product, error) {
	updates := map[string]interface{}{}
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Price != nil {
		updates["price"] = *req.Price
	}

	var out *model.Product
	err := r.WithinTransaction(ctx, func(ctx context.Context) error {
		res := r.Write(ctx).
			Model(&ProductEntity{}).
			Where("barcode = ?", barcode).
			Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrProductNotFound
		}

		var err error
		out, err = r.GetByBarcode(ctx, barcode)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *ProductRepository) Delete(ctx context.Context, barcode string) error {
	res := r.Write(ctx).
		Where("barcode = ?", barcode).
		Delete(&ProductEntity{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrProductNotFound
	}
	return nil
}

func (r *ProductRepository) List(ctx context.Context) ([]*model.Product, error) {
	var entities []*ProductEntity
	if err := r.Read(ctx).Order("name ASC").Order("barcode ASC").Find(&entities).Error; err != nil {
		return nil, err
	}
	return toProductModels(entities), nil
}

// Seed inserts products whose barcode is not stored yet and returns how many were added.
func (r *ProductRepository) Seed(ctx context.Context, products []*model.Product) (int64, error) {
	if len(products) == 0 {
		return 0, nil
	}
	entities := make([]*ProductEntity, len(products))
	for i, p := range products {
		entities[i] = toProductEntity(p)
	}

	res := r.Write(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "barcode"}}, DoNothing: true}).
		Create(&entities)
	return res.RowsAffected, res.Error
}
