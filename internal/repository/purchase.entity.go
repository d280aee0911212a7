package repository

import (
	"time"

	"github.com/google/uuid"
	"github.com/nimasrn/smartcart/internal/model"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type PurchaseEntity struct {
	ID            string                                 `gorm:"primaryKey;column:id;size:36"`
	Name          string                                 `gorm:"column:name;not null"`
	Mobile        string                                 `gorm:"column:mobile;not null;index"`
	Email         string                                 `gorm:"column:email"`
	Products      datatypes.JSONSlice[model.PurchaseItem] `gorm:"column:products;not null"`
	PaymentMethod string                                 `gorm:"column:payment_method;not null;index"`
	CashierCode   string                                 `gorm:"column:cashier_code"`
	Date          time.Time                              `gorm:"column:date;not null;index"`
}

func (PurchaseEntity) TableName() string {
	return "purchases"
}

func (e *PurchaseEntity) BeforeCreate(*gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Date.IsZero() {
		e.Date = time.Now().UTC()
	}
	return nil
}

func toPurchaseEntity(m *model.Purchase) *PurchaseEntity {
	if m == nil {
		return nil
	}
	items := make([]model.PurchaseItem, len(m.Products))
	copy(items, m.Products)
	return &PurchaseEntity{
		ID:            m.ID,
		Name:          m.Name,
		Mobile:        m.Mobile,
		Email:         m.Email,
		Products:      items,
		PaymentMethod: m.PaymentMethod,
		CashierCode:   m.CashierCode,
		Date:          m.Date,
	}
}

func toPurchaseModel(e *PurchaseEntity) *model.Purchase {
	if e == nil {
		return nil
	}
	items := make([]model.PurchaseItem, len(e.Products))
	copy(items, e.Products)
	return &model.Purchase{
		ID:            e.ID,
		Name:          e.Name,
		Mobile:        e.Mobile,
		Email:         e.Email,
		Products:      items,
		PaymentMethod: e.PaymentMethod,
		CashierCode:   e.CashierCode,
		Date:          e.Date,
	}
}

func toPurchaseModels(entities []*PurchaseEntity) []*model.Purchase {
	models := make([]*model.Purchase, len(entities))
	for i, e := range entities {
		models[i] = toPurchaseModel(e)
	}
	return models
}
