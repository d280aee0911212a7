package repository

import (
	"time"

	"github.com/nimasrn/smartcart/internal/model"
)

type AdminEntity struct {
	ID           int64     `gorm:"primaryKey;autoIncrement;column:id"`
	Email        string    `gorm:"column:email;not null;uniqueIndex"`
	PasswordHash string    `gorm:"column:password_hash;not null"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (AdminEntity) TableName() string {
	return "admins"
}

func toAdminModel(e *AdminEntity) *model.Admin {
	if e == nil {
		return nil
	}
	return &model.Admin{
		Email:        e.Email,
		PasswordHash: e.PasswordHash,
		CreatedAt:    e.CreatedAt,
	}
}
