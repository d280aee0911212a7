package services

import (
	"context"

	"github.com/nimasrn/smartcart/internal/model"
	"github.com/pkg/errors"
)

type CustomerRepository interface {
	Upsert(ctx context.Context, c *model.Customer) (*model.Customer, error)
	List(ctx context.Context) ([]*model.Customer, error)
}

type CustomerService struct {
	repo CustomerRepository
}

func NewCustomerService(repo CustomerRepository) *CustomerService {
	return &CustomerService{repo: repo}
}

// Save upserts by mobile: a known mobile gets its name and email replaced.
func (s *CustomerService) Save(ctx context.Context, req model.CustomerSaveRequest) (*model.Customer, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, validationError(err)
	}

	c, err := s.repo.Upsert(ctx, &model.Customer{
		Name:   req.Name,
		Mobile: req.Mobile,
		Email:  req.Email,
	})
	if err != nil {
		return nil, errors.Wrap(err, "upsert customer")
	}
	return c, nil
}

func (s *CustomerService) List(ctx context.Context) ([]*model.Customer, error) {
	list, err := s.repo.List(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list customers")
	}
	return list, nil
}
