package model

import (
	"errors"
	"strings"
	"time"
)

type Admin struct {
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}

type AdminLoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (p *AdminLoginRequest) Normalize() {
	p.Email = strings.TrimSpace(p.Email)
}

func (p AdminLoginRequest) Validate() error {
	if p.Email == "" || p.Password == "" {
		return errors.New("email and password are required")
	}
	return nil
}
