package model

import (
	"errors"
	"strings"
	"time"
)

type Customer struct {
	Name      string    `json:"name"`
	Mobile    string    `json:"mobile"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type CustomerSaveRequest struct {
	Name   string `json:"name"`
	Mobile string `json:"mobile"`
	Email  string `json:"email"`
}

func (p *CustomerSaveRequest) Normalize() {
	p.Name = strings.TrimSpace(p.Name)
	p.Mobile = strings.TrimSpace(p.Mobile)
	p.Email = strings.TrimSpace(p.Email)
}

func (p CustomerSaveRequest) Validate() error {
	if p.Name == "" || p.Mobile == "" || p.Email == "" {
		return errors.New("Missing fields")
	}
	return nil
}
