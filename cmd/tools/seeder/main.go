package main

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/noah-isme/sales-backoffice/internal/pricing"
	"github.com/noah-isme/sales-backoffice/internal/repo"
	"github.com/noah-isme/sales-backoffice/internal/sale"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL is not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		log.Fatalf("Failed to open DB: %v", err)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		log.Fatalf("Failed to ping DB: %v", err)
	}

	svc := &sale.Service{Store: repo.PostgresSales{Pool: pool}}

	branches := []string{"branch-central", "branch-north", "branch-harbor"}
	for i := 0; i < 25; i++ {
		in := sale.ReconcileInput{
			CustomerID: fmt.Sprintf("customer-%03d", rand.Intn(40)+1),
			BranchID:   branches[rand.Intn(len(branches))],
			Items:      randomItems(),
		}
		created, err := svc.Create(ctx, in)
		if err != nil {
			log.Fatalf("Failed to seed sale: %v", err)
		}
		log.Printf("Seeded sale %s with %d items, total %d", created.ID, len(created.Items), created.Total)
	}

	log.Println("Seeding completed successfully!")
}

func randomItems() []sale.ItemInput {
	count := rand.Intn(4) + 1
	items := make([]sale.ItemInput, 0, count)
	for i := 0; i < count; i++ {
		items = append(items, sale.ItemInput{
			ProductID: fmt.Sprintf("product-%03d", rand.Intn(60)+1),
			Qty:       rand.Intn(pricing.MaxQtyPerItem) + 1,
			UnitPrice: pricing.Money(rand.Intn(5000) + 100),
		})
	}
	return items
}
