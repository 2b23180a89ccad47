// Package main implements the entry point for the synthgen API server,
// which generates schema-conforming synthetic datasets with an LLM and
// exports them to CSV, SQLite, or PostgreSQL.
package main

import (
	"context"
	"log"
)

func main() {
	ctx := context.Background()

	app, err := newApplication(ctx)
	if err != nil {
		log.Fatalf("failed to initialize application: %v", err)
	}

	if err := app.run(ctx); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
