// Command seedkeys provisions an API key directly against the database,
// printing the full token exactly once.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"github.com/solutionai/ticket-triage/backend/internal/auth"
	"github.com/solutionai/ticket-triage/backend/internal/config"
	"github.com/solutionai/ticket-triage/backend/internal/database"
	"github.com/solutionai/ticket-triage/backend/internal/store"
)

func main() {
	var (
		customerID = flag.String("customer", "", "customer identifier to attach the key to")
		name       = flag.String("name", "", "human readable key name")
		dailyLimit = flag.Int("daily-limit", 0, "daily request limit (0 uses the configured default)")
	)
	flag.Parse()

	if *customerID == "" {
		log.Fatal("a -customer identifier is required")
	}

	cfg, err := config.Load(config.Options{})
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	limit := *dailyLimit
	if limit <= 0 {
		limit = cfg.Quota.DefaultDailyLimit
	}

	ctx := context.Background()
	pool, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		log.Fatalf("connect database: %v", err)
	}
	defer pool.Close()

	prefix, secret, token, err := auth.GenerateAPIKey()
	if err != nil {
		log.Fatalf("generate api key: %v", err)
	}
	hash, err := auth.HashSecret(secret)
	if err != nil {
		log.Fatalf("hash api key secret: %v", err)
	}

	key, err := store.New(pool).CreateAPIKey(ctx, store.CreateAPIKeyParams{
		KeyPrefix:  prefix,
		SecretHash: hash,
		CustomerID: *customerID,
		Name:       *name,
		DailyLimit: int32(limit),
	})
	if err != nil {
		log.Fatalf("create api key: %v", err)
	}

	fmt.Printf("api key id: %s\n", key.ID)
	fmt.Printf("key prefix: %s\n", key.KeyPrefix)
	fmt.Printf("daily limit: %d\n", key.DailyLimit)
	fmt.Println("token (store it now, it is not recoverable):")
	fmt.Println(token)
}
