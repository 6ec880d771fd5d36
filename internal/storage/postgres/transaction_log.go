package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/vladislavdragonenkov/reassign/internal/domain"
)

const opTimeout = 5 * time.Second

// transactionLog — PostgreSQL-реализация журнала переназначений.
// Записи сериализуются в JSONB и живут в пространстве имён
// domain.TransactionContainer.
type transactionLog struct {
	db *sql.DB
}

// NewTransactionLog создаёт PostgreSQL-реализацию TransactionLog.
func NewTransactionLog(store *Store) domain.TransactionLog {
	return &transactionLog{db: store.DB()}
}

func (l *transactionLog) Append(ctx context.Context, tx domain.Transaction) error {
	opCtx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	payload, err := json.Marshal(tx)
	if err != nil {
		return fmt.Errorf("marshal transaction %s: %w", tx.Key, err)
	}

	_, err = l.db.ExecContext(opCtx, `
		INSERT INTO reassignment_transactions (container, key, payload, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (container, key) DO UPDATE SET payload = EXCLUDED.payload
	`, domain.TransactionContainer, tx.Key, payload, tx.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("append transaction %s: %w", tx.Key, err)
	}
	return nil
}

func (l *transactionLog) Get(ctx context.Context, key string) (*domain.Transaction, error) {
	opCtx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var payload []byte
	err := l.db.QueryRowContext(opCtx, `
		SELECT payload
		FROM reassignment_transactions
		WHERE container = $1 AND key = $2
	`, domain.TransactionContainer, key).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get transaction %s: %w", key, err)
	}

	var tx domain.Transaction
	if err := json.Unmarshal(payload, &tx); err != nil {
		return nil, fmt.Errorf("unmarshal transaction %s: %w", key, err)
	}
	return &tx, nil
}

func (l *transactionLog) ListAll(ctx context.Context) ([]domain.Transaction, error) {
	opCtx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	rows, err := l.db.QueryContext(opCtx, `
		SELECT payload
		FROM reassignment_transactions
		WHERE container = $1
		ORDER BY key
	`, domain.TransactionContainer)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var result []domain.Transaction
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan transaction row: %w", err)
		}
		var tx domain.Transaction
		if err := json.Unmarshal(payload, &tx); err != nil {
			return nil, fmt.Errorf("unmarshal transaction row: %w", err)
		}
		result = append(result, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transaction rows: %w", err)
	}
	return result, nil
}

func (l *transactionLog) Delete(ctx context.Context, key string) error {
	opCtx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	_, err := l.db.ExecContext(opCtx, `
		DELETE FROM reassignment_transactions
		WHERE container = $1 AND key = $2
	`, domain.TransactionContainer, key)
	if err != nil {
		return fmt.Errorf("delete transaction %s: %w", key, err)
	}
	return nil
}

var _ domain.TransactionLog = (*transactionLog)(nil)
