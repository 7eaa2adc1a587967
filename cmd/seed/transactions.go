package main

import (
	"context"
	"database/sql"
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/andresuchdata/stockcast/internal/domain"
	"github.com/google/uuid"
	"github.com/urfave/cli/v2"
)

const insertBatchSize = 1000

var transactionDateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
}

func runTransactions(c *cli.Context) error {
	ctx := context.Background()
	dir := c.String("dir")

	if c.Bool("download") {
		downloader, err := newTransactionDownloader(c, dir)
		if err != nil {
			return fmt.Errorf("failed to initialize storage downloader: %w", err)
		}
		paths, err := downloader.downloadCSVs(ctx, c.String("storage-prefix"))
		if err != nil {
			return fmt.Errorf("failed to download transaction files: %w", err)
		}
		log.Printf("Downloaded %d CSV files to %s\n", len(paths), dir)
	}

	files, err := listCSVFiles(dir)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no CSV files found in %s", dir)
	}

	if c.Bool("replace") {
		if _, err := db.ExecContext(ctx, `DELETE FROM transactions`); err != nil {
			return fmt.Errorf("failed to clear transactions: %w", err)
		}
		log.Println("Cleared existing transactions")
	}

	total := 0
	for _, path := range files {
		n, err := loadTransactionFile(ctx, path)
		if err != nil {
			return fmt.Errorf("failed to load %s: %w", path, err)
		}
		total += n
		log.Printf("Loaded %d transactions from %s\n", n, path)
	}

	log.Printf("Transaction load complete (%d records)\n", total)
	return nil
}

func listCSVFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", dir, err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.HasSuffix(strings.ToLower(entry.Name()), ".csv") {
			files = append(files, filepath.Join(dir, entry.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}

func loadTransactionFile(ctx context.Context, path string) (int, error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	header, err := reader.Read()
	if err != nil {
		return 0, fmt.Errorf("failed to read CSV header: %w", err)
	}

	cols, err := mapTransactionColumns(header)
	if err != nil {
		return 0, err
	}

	var (
		batch []domain.Transaction
		total int
		line  = 1
	)
	for {
		record, err := reader.Read()
		if err != nil {
			if err == io.EOF {
				break
			}
			return total, fmt.Errorf("failed to read CSV record: %w", err)
		}
		line++

		tx, err := parseTransactionRecord(cols, record)
		if err != nil {
			return total, fmt.Errorf("line %d: %w", line, err)
		}
		batch = append(batch, tx)

		if len(batch) >= insertBatchSize {
			if err := insertTransactionBatch(ctx, batch); err != nil {
				return total, err
			}
			total += len(batch)
			batch = batch[:0]
		}
	}

	if len(batch) > 0 {
		if err := insertTransactionBatch(ctx, batch); err != nil {
			return total, err
		}
		total += len(batch)
	}
	return total, nil
}

type transactionColumns struct {
	id       int
	date     int
	product  int
	price    int
	quantity int
	channel  int
	payment  int
}

func mapTransactionColumns(header []string) (transactionColumns, error) {
	index := func(name string) int {
		for i, h := range header {
			if strings.EqualFold(strings.TrimSpace(h), name) {
				return i
			}
		}
		return -1
	}

	cols := transactionColumns{
		id:       index("id"),
		date:     index("date"),
		product:  index("product"),
		price:    index("price"),
		quantity: index("quantity"),
		channel:  index("channel"),
		payment:  index("payment_method"),
	}

	for name, idx := range map[string]int{
		"date": cols.date, "product": cols.product, "price": cols.price,
		"quantity": cols.quantity, "channel": cols.channel, "payment_method": cols.payment,
	} {
		if idx < 0 {
			return cols, fmt.Errorf("CSV header is missing column %q: %v", name, header)
		}
	}
	return cols, nil
}

func parseTransactionRecord(cols transactionColumns, record []string) (domain.Transaction, error) {
	var tx domain.Transaction

	if cols.id >= 0 && cols.id < len(record) && strings.TrimSpace(record[cols.id]) != "" {
		tx.ID = strings.TrimSpace(record[cols.id])
	} else {
		tx.ID = uuid.NewString()
	}

	date, err := parseTransactionDate(record[cols.date])
	if err != nil {
		return tx, err
	}
	tx.Date = date

	product, ok := domain.ParseProduct(record[cols.product])
	if !ok {
		return tx, fmt.Errorf("unknown product %q", record[cols.product])
	}
	tx.Product = product

	price, err := strconv.ParseFloat(strings.TrimSpace(record[cols.price]), 64)
	if err != nil {
		return tx, fmt.Errorf("invalid price %q: %w", record[cols.price], err)
	}
	tx.Price = price

	quantity, err := strconv.Atoi(strings.TrimSpace(record[cols.quantity]))
	if err != nil {
		return tx, fmt.Errorf("invalid quantity %q: %w", record[cols.quantity], err)
	}
	tx.Quantity = quantity

	channel, ok := domain.ParseChannel(record[cols.channel])
	if !ok {
		return tx, fmt.Errorf("unknown channel %q", record[cols.channel])
	}
	tx.Channel = channel

	payment, ok := domain.ParsePaymentMethod(record[cols.payment])
	if !ok {
		return tx, fmt.Errorf("unknown payment method %q", record[cols.payment])
	}
	tx.PaymentMethod = payment

	return tx, nil
}

func parseTransactionDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range transactionDateLayouts {
		if date, err := time.Parse(layout, value); err == nil {
			return date, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q", value)
}

func insertTransactionBatch(ctx context.Context, batch []domain.Transaction) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := execTransactionInsert(ctx, tx, batch); err != nil {
		return err
	}
	return tx.Commit()
}

func execTransactionInsert(ctx context.Context, tx *sql.Tx, batch []domain.Transaction) error {
	query := `
		INSERT INTO transactions (id, product, date, price, quantity, channel, payment_method)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO NOTHING
	`

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to prepare transaction insert: %w", err)
	}
	defer stmt.Close()

	for _, t := range batch {
		if _, err := stmt.ExecContext(ctx, t.ID, t.Product, t.Date, t.Price, t.Quantity, t.Channel, t.PaymentMethod); err != nil {
			return fmt.Errorf("failed to insert transaction %s: %w", t.ID, err)
		}
	}
	return nil
}
