// Package main implements a one-shot CLI that generates a single synthetic
// dataset and writes it to a CSV file, using the same configuration as the
// server for the LLM and schema directory.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/phrazzld/synthgen/internal/config"
	"github.com/phrazzld/synthgen/internal/domain"
	"github.com/phrazzld/synthgen/internal/export"
	"github.com/phrazzld/synthgen/internal/platform/gemini"
	"github.com/phrazzld/synthgen/internal/platform/logger"
	"github.com/phrazzld/synthgen/internal/registry"
	"github.com/phrazzld/synthgen/internal/service"
)

func main() {
	var (
		schemaName   = flag.String("schema", "", "name of the registered schema to generate")
		count        = flag.Int("count", 10, "number of records to generate")
		out          = flag.String("out", "", "output CSV file path")
		instructions = flag.String("instructions", "", "extra generation instructions")
	)
	flag.Parse()

	if err := run(context.Background(), *schemaName, *count, *out, *instructions); err != nil {
		log.Fatalf("synthgen: %v", err)
	}
}

func run(ctx context.Context, schemaName string, count int, out, instructions string) error {
	if schemaName == "" {
		return fmt.Errorf("-schema is required")
	}
	if out == "" {
		out = fmt.Sprintf("%s.csv", schemaName)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	appLogger := logger.Setup(cfg.Server)

	reg, err := registry.New(cfg.Schemas.Dir, appLogger)
	if err != nil {
		return fmt.Errorf("failed to load schema registry: %w", err)
	}

	generator, err := gemini.NewGeminiGenerator(ctx, appLogger, cfg.LLM)
	if err != nil {
		return fmt.Errorf("failed to create generator: %w", err)
	}

	sinkFor := func(d *domain.Dataset) export.Sink {
		return export.NewCSVSink(out, appLogger)
	}

	svc, err := service.NewDatasetService(reg, generator, sinkFor, appLogger)
	if err != nil {
		return fmt.Errorf("failed to create dataset service: %w", err)
	}

	dataset, err := domain.NewDataset(schemaName, count)
	if err != nil {
		return err
	}

	if err := svc.Run(ctx, dataset, instructions); err != nil {
		// A partial dataset is still written; report it before failing.
		if dataset.Accepted > 0 {
			fmt.Fprintf(os.Stderr, "wrote %d of %d records to %s (%d rejected)\n",
				dataset.Accepted, dataset.Count, dataset.Destination, dataset.Rejected)
		}
		return err
	}

	fmt.Printf("wrote %d records to %s (%d rejected)\n",
		dataset.Accepted, dataset.Destination, dataset.Rejected)
	return nil
}
