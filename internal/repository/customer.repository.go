package repository

import (
	"context"
	"errors"

	"github.com/nimasrn/smartcart/internal/model"
	"github.com/nimasrn/smartcart/pkg/pg"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrCustomerNotFound = errors.New("customer not found")

type CustomerRepository struct {
	*pg.DB
}

func NewCustomerRepository(db *pg.DB) *CustomerRepository {
	return &CustomerRepository{
		db,
	}
}

// Upsert inserts the customer or, when the mobile is already known, replaces
// name and email while keeping the original created_at.
func (r *CustomerRepository) Upsert(ctx context.Context, c *model.Customer) (*model.Customer, error) {
	entity := toCustomerEntity(c)

	err := r.Write(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "mobile"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "email", "updated_at"}),
		}).
		Create(entity).
		Error
	if err != nil {
		return nil, err
	}

	return r.GetByMobile(ctx, c.Mobile)
}

func (r *CustomerRepository) GetByMobile(ctx context.Context, mobile string) (*model.Customer, error) {
	var entity CustomerEntity
	err := r.Read(ctx).
		Where("mobile = ?", mobile).
		First(&entity).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCustomerNotFound
		}
		return nil, err
	}
	return toCustomerModel(&entity), nil
}

// List returns every customer, most recently created first.
func (r *CustomerRepository) List(ctx context.Context) ([]*model.Customer, error) {
	var entities []*CustomerEntity
	if err := r.Read(ctx).Order("created_at DESC").Order("id DESC").Find(&entities).Error; err != nil {
		return nil, err
	}
	return toCustomerModels(entities), nil
}
