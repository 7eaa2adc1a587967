package main

import (
	"database/sql"
	"fmt"
	"log"
	"os"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
)

func newDBURLFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:     "db-url",
		Usage:    "Database connection string",
		Required: true,
		EnvVars:  []string{"DATABASE_URL"},
	}
}

// db is opened once per invocation by the Before hook and shared by
// every command action.
var db *sql.DB

func initDB(c *cli.Context) error {
	handle, err := sql.Open("pgx", c.String("db-url"))
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := handle.Ping(); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}
	db = handle
	return nil
}

func closeDB(c *cli.Context) error {
	if db != nil {
		return db.Close()
	}
	return nil
}

func catalogFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:    "file",
		Usage:   "Path to the product catalog YAML",
		Value:   "./config/products.yaml",
		EnvVars: []string{"CATALOG_PATH"},
	}
}

func transactionFlags() []cli.Flag {
	return append([]cli.Flag{
		&cli.StringFlag{
			Name:    "dir",
			Usage:   "Directory containing transaction CSV files",
			Value:   "./data/seeds/transactions",
			EnvVars: []string{"TRANSACTIONS_DIR"},
		},
		&cli.BoolFlag{
			Name:  "replace",
			Usage: "Delete existing transactions before loading",
		},
		&cli.BoolFlag{
			Name:  "download",
			Usage: "Download CSV files from object storage before loading",
		},
	}, storageFlags()...)
}

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("warning: could not load .env file: %v", err)
	}

	app := &cli.App{
		Name:  "seed",
		Usage: "Seed the database with catalog, transactions and inventory snapshots",
		Commands: []*cli.Command{
			{
				Name:   "schema",
				Usage:  "Create the database tables",
				Flags:  []cli.Flag{newDBURLFlag()},
				Before: initDB,
				After:  closeDB,
				Action: runSchema,
			},
			{
				Name:   "catalog",
				Usage:  "Load the product catalog from a YAML file",
				Flags:  []cli.Flag{newDBURLFlag(), catalogFlag()},
				Before: initDB,
				After:  closeDB,
				Action: runCatalog,
			},
			{
				Name:   "transactions",
				Usage:  "Load transaction history from CSV files",
				Flags:  append([]cli.Flag{newDBURLFlag()}, transactionFlags()...),
				Before: initDB,
				After:  closeDB,
				Action: runTransactions,
			},
			{
				Name:   "simulate",
				Usage:  "Run the inventory simulation over the loaded history",
				Flags:  []cli.Flag{newDBURLFlag()},
				Before: initDB,
				After:  closeDB,
				Action: runSimulate,
			},
			{
				Name:   "all",
				Usage:  "Create schema, load catalog and transactions, then simulate",
				Flags:  append([]cli.Flag{newDBURLFlag(), catalogFlag()}, transactionFlags()...),
				Before: initDB,
				After:  closeDB,
				Action: func(c *cli.Context) error {
					if err := runSchema(c); err != nil {
						return fmt.Errorf("error creating schema: %w", err)
					}
					if err := runCatalog(c); err != nil {
						return fmt.Errorf("error loading catalog: %w", err)
					}
					if err := runTransactions(c); err != nil {
						return fmt.Errorf("error loading transactions: %w", err)
					}
					if err := runSimulate(c); err != nil {
						return fmt.Errorf("error running simulation: %w", err)
					}
					return nil
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func storageFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "storage-endpoint",
			Usage:   "S3-compatible storage endpoint",
			EnvVars: []string{"STORAGE_ENDPOINT"},
		},
		&cli.StringFlag{
			Name:    "storage-access-key",
			Usage:   "S3-compatible storage access key",
			EnvVars: []string{"STORAGE_ACCESS_KEY"},
		},
		&cli.StringFlag{
			Name:    "storage-secret-key",
			Usage:   "S3-compatible storage secret key",
			EnvVars: []string{"STORAGE_SECRET_KEY"},
		},
		&cli.StringFlag{
			Name:    "storage-bucket",
			Usage:   "S3-compatible storage bucket",
			EnvVars: []string{"STORAGE_BUCKET"},
		},
		&cli.StringFlag{
			Name:    "storage-region",
			Usage:   "S3-compatible storage region",
			EnvVars: []string{"STORAGE_REGION"},
		},
		&cli.BoolFlag{
			Name:    "storage-use-ssl",
			Usage:   "Use TLS for object storage",
			Value:   true,
			EnvVars: []string{"STORAGE_USE_SSL"},
		},
		&cli.StringFlag{
			Name:    "storage-prefix",
			Usage:   "Object key prefix for transaction CSVs",
			Value:   "transactions",
			EnvVars: []string{"STORAGE_PREFIX"},
		},
	}
}
