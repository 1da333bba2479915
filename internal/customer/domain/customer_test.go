package domain

import (
	"testing"
	"time"
)

func TestCustomerValidate(t *testing.T) {
	valid := func() Customer {
		return Customer{
			Name:       "Asha",
			Email:      "asha@example.com",
			Phone:      "+911234567890",
			TotalSpend: 120.5,
			Visits:     3,
			LastActive: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
		}
	}

	testCases := []struct {
		name    string
		mutate  func(c *Customer)
		wantErr string
	}{
		{"valid", func(*Customer) {}, ""},
		{"missing name", func(c *Customer) { c.Name = "" }, "name is required"},
		{"missing email", func(c *Customer) { c.Email = "" }, "email is required"},
		{"missing phone", func(c *Customer) { c.Phone = "" }, "phone is required"},
		{"negative spend", func(c *Customer) { c.TotalSpend = -1 }, "totalSpend must be greater than or equal to 0"},
		{"negative visits", func(c *Customer) { c.Visits = -2 }, "visits must be greater than or equal to 0"},
		{"zero last active", func(c *Customer) { c.LastActive = time.Time{} }, "lastActive is required"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			c := valid()
			tc.mutate(&c)
			err := c.Validate()
			if tc.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() = %v, want nil", err)
				}
				return
			}
			if err == nil || err.Error() != tc.wantErr {
				t.Errorf("Validate() = %v, want %q", err, tc.wantErr)
			}
		})
	}
}
