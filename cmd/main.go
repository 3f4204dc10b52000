package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/ortoqbank/ortoqbank-backend/internal/app"
)

func main() {
	// Missing .env is fine in deployed environments.
	_ = godotenv.Load()

	a, err := app.New()
	if err != nil {
		fmt.Printf("Failed to init app: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		a.Shutdown(ctx)
	}()

	if err := a.Start(context.Background()); err != nil {
		a.Log.Fatal("Aggregate rebuild failed", "error", err)
	}
	if err := a.Run(); err != nil {
		a.Log.Error("Server failed", "error", err)
	}
}
