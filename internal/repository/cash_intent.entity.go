package repository

import (
	"time"

	"github.com/nimasrn/smartcart/internal/model"
)

type CashIntentEntity struct {
	ID          int64     `gorm:"primaryKey;autoIncrement;column:id"`
	Name        string    `gorm:"column:name;not null"`
	Mobile      string    `gorm:"column:mobile;not null;uniqueIndex"`
	CashierCode string    `gorm:"column:cashier_code;not null"`
	Date        time.Time `gorm:"column:date;not null;index"`
	ExpiresAt   time.Time `gorm:"column:expires_at;not null;index"`
}

func (CashIntentEntity) TableName() string {
	return "cash_intents"
}

func toCashIntentEntity(m *model.CashIntent) *CashIntentEntity {
	if m == nil {
		return nil
	}
	return &CashIntentEntity{
		Name:        m.Name,
		Mobile:      m.Mobile,
		CashierCode: m.CashierCode,
		Date:        m.Date,
		ExpiresAt:   m.ExpiresAt,
	}
}

func toCashIntentModel(e *CashIntentEntity) *model.CashIntent {
	if e == nil {
		return nil
	}
	return &model.CashIntent{
		Name:        e.Name,
		Mobile:      e.Mobile,
		CashierCode: e.CashierCode,
		Date:        e.Date,
		ExpiresAt:   e.ExpiresAt,
	}
}

func toCashIntentModels(entities []*CashIntentEntity) []*model.CashIntent {
	models := make([]*model.CashIntent, len(entities))
	for i, e := range entities {
		models[i] = toCashIntentModel(e)
	}
	return models
}

type CashierCodeHistoryEntity struct {
	ID          int64      `gorm:"primaryKey;autoIncrement;column:id"`
	CashierCode string     `gorm:"column:cashier_code;not null;index:idx_history_mobile_code,priority:2"`
	Mobile      string     `gorm:"column:mobile;not null;index:idx_history_mobile_code,priority:1"`
	Verified    bool       `gorm:"column:verified;not null;default:false"`
	VerifiedAt  *time.Time `gorm:"column:verified_at"`
	CreatedAt   time.Time  `gorm:"column:created_at;not null;index"`
}

func (CashierCodeHistoryEntity) TableName() string {
	return "cashier_code_histories"
}

func toHistoryEntity(m *model.CashierCodeHistory) *CashierCodeHistoryEntity {
	if m == nil {
		return nil
	}
	return &CashierCodeHistoryEntity{
		ID:          m.ID,
		CashierCode: m.CashierCode,
		Mobile:      m.Mobile,
		Verified:    m.Verified,
		VerifiedAt:  m.VerifiedAt,
		CreatedAt:   m.CreatedAt,
	}
}

func toHistoryModel(e *CashierCodeHistoryEntity) *model.CashierCodeHistory {
	if e == nil {
		return nil
	}
	return &model.CashierCodeHistory{
		ID:          e.ID,
		CashierCode: e.CashierCode,
		Mobile:      e.Mobile,
		Verified:    e.Verified,
		VerifiedAt:  e.VerifiedAt,
		CreatedAt:   e.CreatedAt,
	}
}

func toHistoryModels(entities []*CashierCodeHistoryEntity) []*model.CashierCodeHistory {
	models := make([]*model.CashierCodeHistory, len(entities))
	for i, e := range entities {
		models[i] = toHistoryModel(e)
	}
	return models
}
