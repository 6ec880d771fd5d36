package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/vladislavdragonenkov/reassign/internal/domain"
	"github.com/vladislavdragonenkov/reassign/internal/storage/postgres"
)

const defaultTimeout = 30 * time.Second

func main() {
	var (
		dsn   string
		key   string
		purge bool
	)

	flag.StringVar(&dsn, "dsn", "", "PostgreSQL DSN (fallback: REASSIGN_POSTGRES_DSN)")
	flag.StringVar(&key, "key", "", "limit output to a single transaction key")
	flag.BoolVar(&purge, "purge", false, "delete listed transactions instead of printing them")
	flag.Parse()

	if strings.TrimSpace(dsn) == "" {
		dsn = strings.TrimSpace(os.Getenv("REASSIGN_POSTGRES_DSN"))
	}
	if dsn == "" {
		fail("REASSIGN_POSTGRES_DSN (or -dsn) is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	store, err := postgres.Open(ctx, dsn)
	if err != nil {
		fail("open postgres store: %v", err)
	}
	defer store.Close()

	journal := postgres.NewTransactionLog(store)

	transactions, err := selectTransactions(ctx, journal, key)
	if err != nil {
		fail("%v", err)
	}

	if len(transactions) == 0 {
		fmt.Println("journal is empty: no unfinished transactions")
		return
	}

	for _, tx := range transactions {
		printTransaction(tx)
		if !purge {
			continue
		}
		if err := journal.Delete(ctx, tx.Key); err != nil {
			fail("delete transaction %s: %v", tx.Key, err)
		}
		fmt.Printf("  purged\n")
	}

	if purge {
		fmt.Printf("purged %d transaction(s)\n", len(transactions))
	} else {
		fmt.Printf("%d unfinished transaction(s)\n", len(transactions))
	}
}

// selectTransactions возвращает либо все записи журнала, либо одну по ключу.
func selectTransactions(ctx context.Context, journal domain.TransactionLog, key string) ([]domain.Transaction, error) {
	if key == "" {
		transactions, err := journal.ListAll(ctx)
		if err != nil {
			return nil, fmt.Errorf("list transactions: %w", err)
		}
		return transactions, nil
	}

	tx, err := journal.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("get transaction %s: %w", key, err)
	}
	if tx == nil {
		return nil, nil
	}
	return []domain.Transaction{*tx}, nil
}

func printTransaction(tx domain.Transaction) {
	fmt.Printf("%s\n", tx.Key)
	fmt.Printf("  draft: %s\n", tx.Draft.Name())
	fmt.Printf("  skus: %s\n", strings.Join(tx.Draft.SKUs(), ", "))
	if len(tx.Variants) > 0 {
		moved := make([]string, 0, len(tx.Variants))
		for _, v := range tx.Variants {
			moved = append(moved, v.SKU)
		}
		fmt.Printf("  moving variants: %s\n", strings.Join(moved, ", "))
	}
	if tx.BackupDraft != nil {
		fmt.Printf("  backup draft: %s\n", tx.BackupDraft.Name())
	}
	if tx.ProductToUpdate != nil {
		fmt.Printf("  pending product type change: %s\n", tx.ProductToUpdate.ID)
	}
	if !tx.CreatedAt.IsZero() {
		fmt.Printf("  age: %s\n", time.Since(tx.CreatedAt).Round(time.Second))
	}
}

func fail(format string, args ...any) {
	_, _ = fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
