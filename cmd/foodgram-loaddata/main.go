// Command foodgram-loaddata imports tags and ingredients from a YAML or
// JSON file. Records already present are left untouched.
package main

import (
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/impactys/foodgram/pkg/foodgram/config"
	"github.com/impactys/foodgram/pkg/foodgram/database"
	"github.com/impactys/foodgram/pkg/foodgram/logging"
	"github.com/impactys/foodgram/pkg/foodgram/seed"
)

func main() {
	path := flag.String("file", "data/ingredients.json", "seed file with tags and ingredients")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := database.Connect(cfg.Database); err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer database.Close()

	file, err := seed.ReadFile(*path)
	if err != nil {
		logger.Fatal("Failed to read seed file", zap.String("file", *path), zap.Error(err))
	}

	result, err := seed.NewLoader(database.GetDB(), logger).Load(file)
	if err != nil {
		logger.Fatal("Failed to load seed data", zap.Error(err))
	}

	fmt.Printf("Imported %d tags and %d ingredients, skipped %d\n",
		result.TagsImported, result.IngredientsImported, result.Skipped)
	for _, e := range result.Errors {
		fmt.Printf("  %s\n", e)
	}
}
