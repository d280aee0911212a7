package repository

import (
	"time"

	"github.com/nimasrn/smartcart/internal/model"
)

type ProductEntity struct {
	ID        int64     `gorm:"primaryKey;autoIncrement;column:id"`
	Barcode   string    `gorm:"column:barcode;not null;uniqueIndex"`
	Name      string    `gorm:"column:name;not null;index"`
	Price     float64   `gorm:"column:price;not null;default:0"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (ProductEntity) TableName() string {
	return "products"
}

func toProductEntity(m *model.Product) *ProductEntity {
	if m == nil {
		return nil
	}
	return &ProductEntity{
		Barcode: m.Barcode,
		Name:    m.Name,
		Price:   m.Price,
	}
}

func toProductModel(e *ProductEntity) *model.Product {
	if e == nil {
		return nil
	}
	return &model.Product{
		Barcode: e.Barcode,
		Name:    e.Name,
		Price:   e.Price,
	}
}

func toProductModels(entities []*ProductEntity) []*model.Product {
	models := make([]*model.Product, len(entities))
	for i, e := range entities {
		models[i] = toProductModel(e)
	}
	return models
}
