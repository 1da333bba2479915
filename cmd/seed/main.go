// seed inserts development sample customers and orders for local testing. Run via ./scripts/seed.sh.
// Idempotent: skips inserts if any customer already exists.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/google/uuid"

	"crm-campaigns/backend/internal/config"
	customerdomain "crm-campaigns/backend/internal/customer/domain"
	customerrepo "crm-campaigns/backend/internal/customer/repository"
	"crm-campaigns/backend/internal/db"
	orderdomain "crm-campaigns/backend/internal/order/domain"
	orderrepo "crm-campaigns/backend/internal/order/repository"
)

type sampleCustomer struct {
	name       string
	spend      float64
	visits     int
	daysIdle   int
	orderTotal []float64
}

// samples holds ten customers; four have more than five visits so "visits > 5" selects them.
var samples = []sampleCustomer{
	{"Asha Rao", 12500, 9, 2, []float64{4200, 8300}},
	{"Ben Okafor", 450, 1, 120, []float64{450}},
	{"Chen Li", 8900, 7, 10, []float64{3100, 2900, 2900}},
	{"Dana Whitfield", 0, 0, 200, nil},
	{"Elif Demir", 15300, 12, 1, []float64{5300, 10000}},
	{"Farah Haddad", 2300, 3, 45, []float64{2300}},
	{"Gabe Santos", 990, 2, 95, []float64{990}},
	{"Hana Sato", 6700, 6, 30, []float64{6700}},
	{"Ivan Petrov", 1200, 4, 60, []float64{700, 500}},
	{"Jo Mensah", 300, 5, 15, []float64{300}},
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.DatabaseURL == "" {
		fmt.Fprintln(os.Stderr, "DATABASE_URL is not set; create a .env from .env.example or set DATABASE_URL")
		os.Exit(1)
	}

	database, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer database.Close()

	ctx := context.Background()
	customers := customerrepo.NewPostgresRepository(database)
	orders := orderrepo.NewPostgresRepository(database)

	n, err := customers.Count(ctx)
	if err != nil {
		log.Fatalf("seed: count customers: %v", err)
	}
	if n > 0 {
		log.Printf("seed: %d customers already present, skipping", n)
		return
	}

	now := time.Now().UTC()
	var orderCount int
	for i, s := range samples {
		c := &customerdomain.Customer{
			ID:         uuid.New().String(),
			Name:       s.name,
			Email:      fmt.Sprintf("customer%02d@example.com", i+1),
			Phone:      fmt.Sprintf("+1555010%04d", i+1),
			TotalSpend: s.spend,
			Visits:     s.visits,
			LastActive: now.AddDate(0, 0, -s.daysIdle),
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		if err := c.Validate(); err != nil {
			log.Fatalf("seed: customer %s: %v", s.name, err)
		}
		if err := customers.Create(ctx, c); err != nil {
			log.Fatalf("seed: create customer %s: %v", s.name, err)
		}
		for j, amount := range s.orderTotal {
			o := &orderdomain.Order{
				ID:         uuid.New().String(),
				CustomerID: c.ID,
				Amount:     amount,
				Date:       c.LastActive.AddDate(0, 0, -7*j),
				CreatedAt:  now,
			}
			if err := orders.Create(ctx, o); err != nil {
				log.Fatalf("seed: create order for %s: %v", s.name, err)
			}
			orderCount++
		}
	}
	log.Printf("seed: inserted %d customers and %d orders", len(samples), orderCount)
}
