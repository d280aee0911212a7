package model

import (
	"errors"
	"strings"
	"time"
)

const (
	PaymentMethodCash   = "cash"
	PaymentMethodOnline = "online"
)

// PurchaseItem is a snapshot of a catalog line at checkout time.
type PurchaseItem struct {
	Barcode  string  `json:"barcode"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
}

type Purchase struct {
	ID            string         `json:"id"`
	Name          string         `json:"name"`
	Mobile        string         `json:"mobile"`
	Email         string         `json:"email,omitempty"`
	Products      []PurchaseItem `json:"products"`
	PaymentMethod string         `json:"paymentMethod"`
	CashierCode   string         `json:"cashierCode,omitempty"`
	Date          time.Time      `json:"date"`
}

// Total sums price*quantity over the item snapshot.
func (p *Purchase) Total() float64 {
	var total float64
	for _, it := range p.Products {
		total += it.Price * float64(it.Quantity)
	}
	return total
}

type PurchaseCreateRequest struct {
	Name          string         `json:"name"`
	Mobile        string         `json:"mobile"`
	Email         string         `json:"email"`
	Products      []PurchaseItem `json:"products"`
	PaymentMethod string         `json:"paymentMethod"`
	CashierCode   string         `json:"cashierCode"`
}

func (p *PurchaseCreateRequest) Normalize() {
	p.Name = strings.TrimSpace(p.Name)
	p.Mobile = strings.TrimSpace(p.Mobile)
	p.Email = strings.TrimSpace(p.Email)
	p.PaymentMethod = strings.TrimSpace(p.PaymentMethod)
	p.CashierCode = strings.TrimSpace(p.CashierCode)
}

func (p PurchaseCreateRequest) Validate() error {
	if p.Name == "" || p.Mobile == "" || len(p.Products) == 0 || p.PaymentMethod == "" {
		return errors.New("Missing fields")
	}
	return nil
}

// PurchaseFilter controls List queries. An empty PaymentMethod matches all.
type PurchaseFilter struct {
	PaymentMethod string
}
