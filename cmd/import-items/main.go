// Command import-items loads a CSV or XLSX sheet of items into the ledger
// database without going through the HTTP API.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"go-inventory-ledger/internal/config"
	"go-inventory-ledger/internal/events"
	"go-inventory-ledger/internal/importer"
	"go-inventory-ledger/internal/repository"
	"go-inventory-ledger/internal/service"
	"go-inventory-ledger/pkg/database"
	"go-inventory-ledger/pkg/logging"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	gormlogger "gorm.io/gorm/logger"
)

func main() {
	path := flag.String("file", "items.csv", "CSV or XLSX file with name, spec, quantity and location columns")
	actor := flag.String("as", "csv-import", "name recorded as the creator of imported items")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, relying on system env")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger, err := logging.New(cfg.LogLevel, zap.String("service", "import-items"))
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logger.Sync()

	if err := run(cfg, logger, *path, *actor); err != nil {
		logger.Fatal("Import failed", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger, path, actor string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	rows, err := importer.Read(path, f)
	if err != nil {
		return err
	}

	db, err := database.Connect(cfg.DBDriver, cfg.DatabaseURL, gormlogger.Warn)
	if err != nil {
		return err
	}
	if err := database.Migrate(db); err != nil {
		return err
	}

	inventory := service.NewInventoryService(repository.NewStore(db), events.Nop, logger)
	ctx := service.WithIdentity(context.Background(), service.SystemIdentity(actor))

	report, err := inventory.BulkImport(ctx, rows)
	if err != nil {
		return err
	}

	fmt.Printf("imported: %d\nskipped: %d\n", report.Imported, report.Skipped)
	for _, e := range report.Errors {
		fmt.Println("error:", e)
	}
	return nil
}
