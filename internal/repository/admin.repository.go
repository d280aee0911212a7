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
	ErrAdminNotFound  = errors.New("admin not found")
	ErrDuplicateAdmin = errors.New("admin email already exists")
)

type AdminRepository struct {
	*pg.DB
}

func NewAdminRepository(db *pg.DB) *AdminRepository {
	return &AdminRepository{
		db,
	}
}

func (r *AdminRepository) Create(ctx context.Context, email, passwordHash string) (*model.Admin, error) {
	entity := &AdminEntity{Email: email, PasswordHash: passwordHash}

	res := r.Write(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "email"}}, DoNothing: true}).
		Create(entity)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrDuplicateAdmin
	}
	return toAdminModel(entity), nil
}

func (r *AdminRepository) FindByEmail(ctx context.Context, email string) (*model.Admin, error) {
	var entity AdminEntity
	err := r.Read(ctx).Where("email = ?", email).First(&entity).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAdminNotFound
		}
		return nil, err
	}
	return toAdminModel(&entity), nil
}
