package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// TransactionContainer — фиксированное пространство имён журнала,
// чтобы записи не пересекались с посторонними объектами хранилища.
const TransactionContainer = "variant-reassignment"

// Transaction — durable-запись журнала на время обработки одного драфта.
// Существует с момента планирования до успешного завершения всех мутаций;
// её наличие после рестарта означает «обработку нужно возобновить».
type Transaction struct {
	// Key — сортируемый ключ записи, производный от времени создания.
	Key string `json:"key"`
	// Draft — исходный драфт, ради которого начата обработка.
	Draft ProductDraft `json:"newProductDraft"`
	// Variants — варианты, перемещаемые в целевой продукт из доноров.
	Variants []Variant `json:"variants,omitempty"`
	// BackupDraft — анонимизированный драфт остатков целевого продукта.
	BackupDraft *ProductDraft `json:"backupProductDraft,omitempty"`
	// ProductToUpdate — снапшот целевого продукта; заполняется только на время
	// смены типа продукта и очищается сразу после её завершения.
	ProductToUpdate *Product  `json:"ctpProductToUpdate,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
}

// NewTransactionKey генерирует сортируемый по времени уникальный ключ журнала.
func NewTransactionKey(now time.Time) string {
	return fmt.Sprintf("%s-%s", now.UTC().Format("20060102T150405.000000000Z"), uuid.NewString())
}

// Statistics агрегирует результат одного вызова Execute.
type Statistics struct {
	Processed          int
	Succeeded          int
	Anonymized         int
	ProductTypeChanged int
	TransactionRetries int
	BadRequestErrors   int
	ProcessedSKUs      [][]string
	FailedSKUs         [][]string
	AnonymizedSlugs    []string
}

// RecordProcessed фиксирует драфт, взятый в обработку.
func (s *Statistics) RecordProcessed(skus []string) {
	s.Processed++
	s.ProcessedSKUs = append(s.ProcessedSKUs, skus)
}

// RecordSucceeded фиксирует успешно обработанный драфт.
func (s *Statistics) RecordSucceeded() {
	s.Succeeded++
}

// RecordFailed фиксирует драфт, обработка которого не удалась после повтора.
func (s *Statistics) RecordFailed(skus []string) {
	s.FailedSKUs = append(s.FailedSKUs, skus)
}

// RecordAnonymized фиксирует анонимизацию продукта.
func (s *Statistics) RecordAnonymized(slug string) {
	s.Anonymized++
	s.AnonymizedSlugs = append(s.AnonymizedSlugs, slug)
}

// RecordProductTypeChanged фиксирует смену типа целевого продукта.
func (s *Statistics) RecordProductTypeChanged() {
	s.ProductTypeChanged++
}

// RecordRetry фиксирует повтор обработки драфта.
func (s *Statistics) RecordRetry() {
	s.TransactionRetries++
}

// RecordBadRequest фиксирует ошибку вида bad request от каталога.
func (s *Statistics) RecordBadRequest() {
	s.BadRequestErrors++
}
