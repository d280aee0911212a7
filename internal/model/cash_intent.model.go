package model

import (
	"errors"
	"strings"
	"time"
)

// CashIntent is a pending cash checkout awaiting cashier confirmation.
// There is at most one per mobile.
type CashIntent struct {
	Name        string    `json:"name"`
	Mobile      string    `json:"mobile"`
	CashierCode string    `json:"cashierCode"`
	Date        time.Time `json:"date"`
	ExpiresAt   time.Time `json:"expiresAt"`
}

// IsExpired reports whether now has reached ExpiresAt.
func (c *CashIntent) IsExpired(now time.Time) bool {
	return !now.Before(c.ExpiresAt)
}

type CashIntentCreateRequest struct {
	Name   string `json:"name"`
	Mobile string `json:"mobile"`
}

func (p *CashIntentCreateRequest) Normalize() {
	p.Name = strings.TrimSpace(p.Name)
	p.Mobile = strings.TrimSpace(p.Mobile)
}

func (p CashIntentCreateRequest) Validate() error {
	if p.Name == "" || p.Mobile == "" {
		return errors.New("Missing fields")
	}
	return nil
}

type CashierCodeVerifyRequest struct {
	Mobile      string `json:"mobile"`
	CashierCode string `json:"cashierCode"`
}

func (p *CashierCodeVerifyRequest) Normalize() {
	p.Mobile = strings.TrimSpace(p.Mobile)
	p.CashierCode = strings.TrimSpace(p.CashierCode)
}

func (p CashierCodeVerifyRequest) Validate() error {
	if p.Mobile == "" || p.CashierCode == "" {
		return errors.New("Missing fields")
	}
	return nil
}

// CashierCodeHistory is the durable audit trail of every code issued.
type CashierCodeHistory struct {
	ID          int64      `json:"id"`
	CashierCode string     `json:"cashierCode"`
	Mobile      string     `json:"mobile"`
	Verified    bool       `json:"verified"`
	VerifiedAt  *time.Time `json:"verifiedAt"`
	CreatedAt   time.Time  `json:"createdAt"`
}
