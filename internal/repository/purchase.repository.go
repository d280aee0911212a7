package repository

import (
	"context"

	"github.com/nimasrn/smartcart/internal/model"
	"github.com/nimasrn/smartcart/pkg/pg"
)

// PurchaseRepository is the append-only purchase ledger. It has no update or delete.
type PurchaseRepository struct {
	*pg.DB
}

func NewPurchaseRepository(db *pg.DB) *PurchaseRepository {
	return &PurchaseRepository{
		db,
	}
}

func (r *PurchaseRepository) Create(ctx context.Context, p *model.Purchase) (*model.Purchase, error) {
	entity := toPurchaseEntity(p)

	if err := r.Write(ctx).Create(entity).Error; err != nil {
		return nil, err
	}

	return toPurchaseModel(entity), nil
}

// List returns purchases newest first, optionally restricted to one payment method.
func (r *PurchaseRepository) List(ctx context.Context, f model.PurchaseFilter) ([]*model.Purchase, error) {
	q := r.Read(ctx).Model(&PurchaseEntity{})

	if f.PaymentMethod != "" {
		q = q.Where("payment_method = ?", f.PaymentMethod)
	}

	var entities []*PurchaseEntity
	if err := q.Order("date DESC").Find(&entities).Error; err != nil {
		return nil, err
	}
	return toPurchaseModels(entities), nil
}
