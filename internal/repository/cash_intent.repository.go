package repository

import (
	"context"
	"errors"
	"time"

	"github.com/nimasrn/smartcart/internal/model"
	"github.com/nimasrn/smartcart/pkg/pg"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrCashIntentNotFound = errors.New("cash intent not found")

type CashIntentRepository struct {
	*pg.DB
}

func NewCashIntentRepository(db *pg.DB) *CashIntentRepository {
	return &CashIntentRepository{
		db,
	}
}

// Upsert stores ci as the single pending intent of its mobile, replacing any earlier one.
func (r *CashIntentRepository) Upsert(ctx context.Context, ci *model.CashIntent) error {
	entity := toCashIntentEntity(ci)
	return r.Write(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "mobile"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "cashier_code", "date", "expires_at"}),
		}).
		Create(entity).
		Error
}

func (r *CashIntentRepository) FindByMobileAndCode(ctx context.Context, mobile, code string) (*model.CashIntent, error) {
	var entity CashIntentEntity
	err := r.Read(ctx).
		Where("mobile = ? AND cashier_code = ?", mobile, code).
		First(&entity).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCashIntentNotFound
		}
		return nil, err
	}
	return toCashIntentModel(&entity), nil
}

// DeleteByMobileAndCode removes the intent only while it still carries code,
// so a replacement issued in between survives. It reports how many rows went.
func (r *CashIntentRepository) DeleteByMobileAndCode(ctx context.Context, mobile, code string) (int64, error) {
	res := r.Write(ctx).
		Where("mobile = ? AND cashier_code = ?", mobile, code).
		Delete(&CashIntentEntity{})
	return res.RowsAffected, res.Error
}

func (r *CashIntentRepository) DeleteByMobile(ctx context.Context, mobile string) (int64, error) {
	res := r.Write(ctx).
		Where("mobile = ?", mobile).
		Delete(&CashIntentEntity{})
	return res.RowsAffected, res.Error
}

// ListExpired returns up to limit intents whose expiry is at or before now, oldest first.
func (r *CashIntentRepository) ListExpired(ctx context.Context, now time.Time, limit int) ([]*model.CashIntent, error) {
	if limit <= 0 || limit > 1000 {
		limit = 100
	}
	var entities []*CashIntentEntity
	err := r.Read(ctx).
		Where("expires_at <= ?", now).
		Order("expires_at ASC").
		Limit(limit).
		Find(&entities).
		Error
	if err != nil {
		return nil, err
	}
	return toCashIntentModels(entities), nil
}

// List returns all pending intents, most recent first.
func (r *CashIntentRepository) List(ctx context.Context) ([]*model.CashIntent, error) {
	var entities []*CashIntentEntity
	if err := r.Read(ctx).Order("date DESC").Order("id DESC").Find(&entities).Error; err != nil {
		return nil, err
	}
	return toCashIntentModels(entities), nil
}
