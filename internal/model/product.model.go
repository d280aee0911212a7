package model

import (
	"errors"
	"strings"
)

type Product struct {
	Barcode string  `json:"barcode"`
	Name    string  `json:"name"`
	Price   float64 `json:"price"`
}

// ProductCreateRequest is the body of POST /add-product.
// Price is a pointer so that an explicit 0 is told apart from a missing field.
type ProductCreateRequest struct {
	Barcode string   `json:"barcode"`
	Name    string   `json:"name"`
	Price   *float64 `json:"price"`
}

func (p *ProductCreateRequest) Normalize() {
	p.Barcode = strings.TrimSpace(p.Barcode)
	p.Name = strings.TrimSpace(p.Name)
}

func (p ProductCreateRequest) Validate() error {
	if p.Barcode == "" || p.Name == "" || p.Price == nil {
		return errors.New("All fields required")
	}
	return nil
}

type ProductUpdateRequest struct {
	Name  *string  `json:"name"`
	Price *float64 `json:"price"`
}

func (p *ProductUpdateRequest) Normalize() {
	if p.Name != nil {
		n := strings.TrimSpace(*p.Name)
		p.Name = &n
	}
}

func (p ProductUpdateRequest) Validate() error {
	if p.Name == nil && p.Price == nil {
		return errors.New("name or price is required")
	}
	if p.Name != nil && *p.Name == "" {
		return errors.New("name cannot be empty")
	}
	return nil
}
