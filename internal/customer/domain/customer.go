package domain

import (
	"errors"
	"time"
)

// Customer is an ingested shopper record. Read-only after ingestion.
type Customer struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Phone      string    `json:"phone"`
	TotalSpend float64   `json:"totalSpend"`
	Visits     int       `json:"visits"`
	LastActive time.Time `json:"lastActive"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// Validate validates the customer for persistence. Returns an error describing the first validation failure.
func (c *Customer) Validate() error {
	if c.Name == "" {
		return errors.New("name is required")
	}
	if c.Email == "" {
		return errors.New("email is required")
	}
	if c.Phone == "" {
		return errors.New("phone is required")
	}
	if c.TotalSpend < 0 {
		return errors.New("totalSpend must be greater than or equal to 0")
	}
	if c.Visits < 0 {
		return errors.New("visits must be greater than or equal to 0")
	}
	if c.LastActive.IsZero() {
		return errors.New("lastActive is required")
	}
	return nil
}
