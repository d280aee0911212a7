package services

import (
	"context"
	"strings"

	"github.com/nimasrn/smartcart/internal/model"
	"github.com/nimasrn/smartcart/internal/repository"
	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"
)

type AdminRepository interface {
	Create(ctx context.Context, email, passwordHash string) (*model.Admin, error)
	FindByEmail(ctx context.Context, email string) (*model.Admin, error)
}

type AdminService struct {
	repo AdminRepository
	cost int
}

func NewAdminService(repo AdminRepository) *AdminService {
	return &AdminService{repo: repo, cost: bcrypt.DefaultCost}
}

// Authenticate answers only whether the credentials match a stored admin.
func (s *AdminService) Authenticate(ctx context.Context, req model.AdminLoginRequest) error {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return ErrInvalidCredentials
	}

	admin, err := s.repo.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrAdminNotFound) {
			return ErrInvalidCredentials
		}
		return errors.Wrap(err, "find admin")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(req.Password)); err != nil {
		return ErrInvalidCredentials
	}
	return nil
}

func (s *AdminService) Create(ctx context.Context, email, password string) (*model.Admin, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, validationError(errors.New("email and password are required"))
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, errors.Wrap(err, "hash password")
	}

	admin, err := s.repo.Create(ctx, email, string(hash))
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateAdmin) {
			return nil, ErrDuplicateAdmin
		}
		return nil, errors.Wrap(err, "create admin")
	}
	return admin, nil
}
