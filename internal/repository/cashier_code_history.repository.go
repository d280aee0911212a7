package repository

import (
	"context"
	"time"

	"github.com/nimasrn/smartcart/internal/model"
	"github.com/nimasrn/smartcart/pkg/pg"
)

// CashierCodeHistoryRepository is append-only apart from MarkVerified.
type CashierCodeHistoryRepository struct {
	*pg.DB
}

func NewCashierCodeHistoryRepository(db *pg.DB) *CashierCodeHistoryRepository {
	return &CashierCodeHistoryRepository{
		db,
	}
}

func (r *CashierCodeHistoryRepository) Create(ctx context.Context, h *model.CashierCodeHistory) (*model.CashierCodeHistory, error) {
	entity := toHistoryEntity(h)
	entity.Verified = false
	entity.VerifiedAt = nil
	if entity.CreatedAt.IsZero() {
		entity.CreatedAt = time.Now().UTC()
	}

	if err := r.Write(ctx).Create(entity).Error; err != nil {
		return nil, err
	}
	return toHistoryModel(entity), nil
}

// MarkVerified flips unverified entries for mobile+code to verified.
// Entries already verified are left alone so verified_at is set once.
func (r *CashierCodeHistoryRepository) MarkVerified(ctx context.Context, mobile, code string, at time.Time) (int64, error) {
	res := r.Write(ctx).
		Model(&CashierCodeHistoryEntity{}).
		Where("mobile = ? AND cashier_code = ? AND verified = ?", mobile, code, false).
		Updates(map[string]interface{}{
			"verified":    true,
			"verified_at": at,
		})
	return res.RowsAffected, res.Error
}

func (r *CashierCodeHistoryRepository) List(ctx context.Context) ([]*model.CashierCodeHistory, error) {
	var entities []*CashierCodeHistoryEntity
	if err := r.Read(ctx).Order("created_at DESC").Order("id DESC").Find(&entities).Error; err != nil {
		return nil, err
	}
	return toHistoryModels(entities), nil
}
