package domain

import (
	"errors"
	"time"
)

// Order is an ingested purchase. CustomerID is not checked against existing customers.
type Order struct {
	ID         string    `json:"id"`
	CustomerID string    `json:"customerId"`
	Amount     float64   `json:"amount"`
	Date       time.Time `json:"date"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Validate validates the order for persistence. Returns an error describing the first validation failure.
func (o *Order) Validate() error {
	if o.CustomerID == "" {
		return errors.New("customerId is required")
	}
	if o.Amount < 0 {
		return errors.New("amount must be greater than or equal to 0")
	}
	if o.Date.IsZero() {
		return errors.New("date is required")
	}
	return nil
}
