package domain

import "errors"

var (
	// ErrProductNotFound возвращается, если продукт не найден в каталоге.
	ErrProductNotFound = errors.New("product not found")
	// ErrProductTypeNotFound возвращается, если тип продукта не найден.
	ErrProductTypeNotFound = errors.New("product type not found")
	// ErrConcurrencyConflict сигнализирует о конфликте версий при обновлении продукта.
	ErrConcurrencyConflict = errors.New("product version conflict")
	// ErrBadRequest — каталог отверг запрос как некорректный.
	ErrBadRequest = errors.New("catalog rejected request")
	// ErrNoCandidates — выбор целевого продукта вызван с пустым списком кандидатов.
	ErrNoCandidates = errors.New("no candidate products for target selection")
	// ErrDraftWithoutSKUs — драфт не содержит ни одного SKU.
	ErrDraftWithoutSKUs = errors.New("product draft has no variant skus")
	// ErrTransactionNotFound возвращается, если запись журнала отсутствует.
	ErrTransactionNotFound = errors.New("transaction record not found")
	// ErrJournalUnavailable — журнал недоступен; фатально для всего батча.
	ErrJournalUnavailable = errors.New("transaction journal unavailable")
	// ErrBulkFetchFailed — массовая выборка продуктов не удалась; фатально для батча.
	ErrBulkFetchFailed = errors.New("bulk product fetch failed")
	// ErrOutboxPublish — ошибка при публикации сообщения из outbox.
	ErrOutboxPublish = errors.New("outbox publish failed")
)

// IsConcurrencyConflict проверяет, является ли ошибка конфликтом версий.
func IsConcurrencyConflict(err error) bool {
	return errors.Is(err, ErrConcurrencyConflict)
}

// IsNotFound проверяет, является ли ошибка отсутствием продукта.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrProductNotFound)
}

// IsBadRequest проверяет, отверг ли каталог запрос как некорректный.
func IsBadRequest(err error) bool {
	return errors.Is(err, ErrBadRequest)
}
