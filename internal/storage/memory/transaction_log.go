package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/vladislavdragonenkov/reassign/internal/domain"
)

// transactionLogInMemory — простая in-memory реализация TransactionLog.
type transactionLogInMemory struct {
	mu    sync.RWMutex
	items map[string]domain.Transaction
}

// NewTransactionLog возвращает in-memory журнал для локальной разработки и тестов.
func NewTransactionLog() domain.TransactionLog {
	return &transactionLogInMemory{
		items: make(map[string]domain.Transaction),
	}
}

// Append сохраняет запись журнала; повторный Append с тем же ключом перезаписывает её.
func (l *transactionLogInMemory) Append(ctx context.Context, tx domain.Transaction) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	// Сохраняем копию, чтобы избежать непредсказуемых мутаций извне.
	l.items[tx.Key] = tx
	return nil
}

// Get возвращает запись или (nil, nil), если её нет.
func (l *transactionLogInMemory) Get(ctx context.Context, key string) (*domain.Transaction, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	tx, ok := l.items[key]
	if !ok {
		return nil, nil
	}
	return &tx, nil
}

// ListAll возвращает все записи журнала в порядке возрастания ключей.
func (l *transactionLogInMemory) ListAll(ctx context.Context) ([]domain.Transaction, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	result := make([]domain.Transaction, 0, len(l.items))
	for _, tx := range l.items {
		result = append(result, tx)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Key < result[j].Key })
	return result, nil
}

// Delete удаляет запись журнала; удаление отсутствующего ключа — no-op.
func (l *transactionLogInMemory) Delete(ctx context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	delete(l.items, key)
	return nil
}

var _ domain.TransactionLog = (*transactionLogInMemory)(nil)
