package reassign

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/reassign/internal/domain"
	"github.com/vladislavdragonenkov/reassign/internal/metrics"
)

// maxConcurrentUpdates ограничивает число одновременных обновлений продуктов
// при зачистке доноров и анонимизации по slug. Это ограничение нагрузки на
// API каталога: каждое обновление адресует свой продукт.
const maxConcurrentUpdates = 3

// Coordinator выполняет многошаговую последовательность мутаций для одного
// драфта, журналируя прогресс до и после рискованных шагов. Присутствие
// записи журнала после рестарта означает, что обработку нужно возобновить.
type Coordinator struct {
	catalog    domain.CatalogGateway
	journal    domain.TransactionLog
	sameForAll *SameForAllResolver
	retain     map[string]struct{}
	logger     *log.Entry
	metrics    *metrics.ReassignMetrics
}

// NewCoordinator создаёт координатор транзакций переназначения.
// retainAttributes — имена атрибутов, чьи существующие значения сохраняются
// при переезде варианта вместо значений из драфта.
func NewCoordinator(
	catalog domain.CatalogGateway,
	journal domain.TransactionLog,
	resolver *SameForAllResolver,
	retainAttributes []string,
	logger *log.Entry,
	m *metrics.ReassignMetrics,
) *Coordinator {
	if logger == nil {
		logger = log.New().WithField("component", "coordinator")
	}
	retain := make(map[string]struct{}, len(retainAttributes))
	for _, name := range retainAttributes {
		retain[name] = struct{}{}
	}
	return &Coordinator{
		catalog:    catalog,
		journal:    journal,
		sameForAll: resolver,
		retain:     retain,
		logger:     logger,
		metrics:    m,
	}
}

// ProcessDraft обрабатывает драфт с нуля: выбирает цель, планирует перемещения,
// записывает транзакцию в журнал и выполняет последовательность мутаций.
// Запись журнала удаляется только после успеха всех шагов.
func (c *Coordinator) ProcessDraft(
	ctx context.Context,
	draft domain.ProductDraft,
	matching []*domain.Product,
	stats *domain.Statistics,
) error {
	target, err := SelectTarget(draft, matching)
	if err != nil {
		return err
	}

	plan := PlanVariantMoves(draft, matching, target)
	now := time.Now().UTC()
	tx := domain.Transaction{
		Key:         domain.NewTransactionKey(now),
		Draft:       draft,
		Variants:    plan.ToReassign,
		BackupDraft: BuildAnonymizedDraft(target, plan.ToRemoveFromTarget),
		CreatedAt:   now,
	}
	if err := c.journal.Append(ctx, tx); err != nil {
		return fmt.Errorf("append transaction %s: %w", tx.Key, err)
	}

	if err := c.run(ctx, &tx, matching, target, stats); err != nil {
		return err
	}
	return c.finish(ctx, tx.Key, stats)
}

// Resume возобновляет незавершённую транзакцию после сбоя. Сопоставляемые
// продукты и цель выводятся заново по свежему состоянию каталога; устаревшим
// ссылкам из журнала доверяется только снапшот цели на время смены типа.
func (c *Coordinator) Resume(ctx context.Context, tx domain.Transaction, stats *domain.Statistics) error {
	draft := tx.Draft

	skus := draft.SKUs()
	for _, variant := range tx.Variants {
		if !domain.ContainsSKU(skus, variant.SKU) {
			skus = append(skus, variant.SKU)
		}
	}
	if tx.BackupDraft != nil {
		for _, sku := range tx.BackupDraft.SKUs() {
			if !domain.ContainsSKU(skus, sku) {
				skus = append(skus, sku)
			}
		}
	}

	products, err := c.catalog.FetchBySKUsAndSlugs(ctx, skus, []domain.LocalizedString{draft.Slug})
	if err != nil {
		return fmt.Errorf("refetch products for resume: %w", err)
	}
	matching := make([]*domain.Product, 0, len(products))
	for i := range products {
		matching = append(matching, &products[i])
	}

	target, matching, err := c.resolveResumeTarget(ctx, &tx, matching)
	if err != nil {
		return err
	}
	if target == nil {
		// Вся работа уже была выполнена до сбоя; осталась только запись журнала.
		return c.finish(ctx, tx.Key, stats)
	}

	plan := PlanVariantMoves(draft, matching, target)
	tx.Variants = plan.ToReassign
	if tx.BackupDraft == nil {
		tx.BackupDraft = BuildAnonymizedDraft(target, plan.ToRemoveFromTarget)
	}

	if err := c.run(ctx, &tx, matching, target, stats); err != nil {
		return err
	}
	return c.finish(ctx, tx.Key, stats)
}

// resolveResumeTarget восстанавливает цель при возобновлении. Если смена типа
// была прервана, журнал содержит снапшот цели: ищем свежий продукт по его id,
// затем по совпадению типа и staged slug, иначе пересоздаём продукт из
// снапшота под типом драфта.
func (c *Coordinator) resolveResumeTarget(
	ctx context.Context,
	tx *domain.Transaction,
	matching []*domain.Product,
) (*domain.Product, []*domain.Product, error) {
	if tx.ProductToUpdate == nil {
		if len(matching) == 0 {
			return nil, matching, nil
		}
		target, err := SelectTarget(tx.Draft, matching)
		return target, matching, err
	}

	snapshot := tx.ProductToUpdate
	for _, product := range matching {
		if product.ID == snapshot.ID {
			return product, matching, nil
		}
	}
	for _, product := range matching {
		if product.ProductTypeID == snapshot.ProductTypeID && product.Staged.Slug.Equal(snapshot.Staged.Slug) {
			return product, matching, nil
		}
	}

	c.logger.WithFields(log.Fields{
		"transaction": tx.Key,
		"product_id":  snapshot.ID,
	}).Warn("target lost mid type change, recreating from journal snapshot")

	recreated, err := c.catalog.Create(ctx, productDraftFromProduct(snapshot, tx.Draft.ProductTypeID))
	if err != nil {
		return nil, matching, fmt.Errorf("recreate target from snapshot: %w", err)
	}
	matching = append(matching, &recreated)
	return &recreated, matching, nil
}

// run выполняет шаги координатора: смена типа → зачистка доноров →
// пополнение цели → обрезка цели и создание backup-продукта → дедупликация slug.
func (c *Coordinator) run(
	ctx context.Context,
	tx *domain.Transaction,
	matching []*domain.Product,
	target *domain.Product,
	stats *domain.Statistics,
) error {
	staleTargetID := target.ID

	target, err := c.ensureProductType(ctx, tx, target, stats)
	if err != nil {
		return err
	}

	// Цель исключается из сопоставленных продуктов; после смены типа её id
	// мог измениться, поэтому устаревшая ссылка вычищается и по старому id,
	// и по равенству наборов SKU — никогда по ссылочной идентичности.
	typeChanged := staleTargetID != target.ID
	donors := make([]*domain.Product, 0, len(matching))
	for _, product := range matching {
		if product.ID == target.ID || product.ID == staleTargetID {
			continue
		}
		if typeChanged && domain.SKUSetsEqual(domain.ProductSKUs(product), domain.ProductSKUs(target)) {
			continue
		}
		donors = append(donors, product)
	}

	donors, err = c.cleanDonors(ctx, tx, donors)
	if err != nil {
		return err
	}

	target, err = c.populateTarget(ctx, tx, target)
	if err != nil {
		return err
	}

	if err := c.pruneTargetAndBackup(ctx, tx, target, stats); err != nil {
		return err
	}

	return c.dedupSlugs(ctx, tx.Draft, donors, stats)
}

// ensureProductType приводит тип цели к типу драфта. Смена типа реализована
// как delete+recreate, поэтому id цели меняется; снапшот до изменения
// сохраняется в журнале на время операции (идемпотентно) и очищается после.
func (c *Coordinator) ensureProductType(
	ctx context.Context,
	tx *domain.Transaction,
	target *domain.Product,
	stats *domain.Statistics,
) (*domain.Product, error) {
	if target.ProductTypeID == tx.Draft.ProductTypeID {
		return target, nil
	}

	start := time.Now()
	oldID := target.ID
	if tx.ProductToUpdate == nil {
		snapshot := *target
		tx.ProductToUpdate = &snapshot
		if err := c.journal.Append(ctx, *tx); err != nil {
			return nil, fmt.Errorf("journal target snapshot: %w", err)
		}
	}

	if err := c.catalog.Delete(ctx, target.ID, target.Version); err != nil && !domain.IsNotFound(err) {
		return nil, fmt.Errorf("delete target %s for type change: %w", target.ID, err)
	}
	recreated, err := c.catalog.Create(ctx, productDraftFromProduct(target, tx.Draft.ProductTypeID))
	if err != nil {
		return nil, fmt.Errorf("recreate target under type %s: %w", tx.Draft.ProductTypeID, err)
	}

	tx.ProductToUpdate = nil
	if err := c.journal.Append(ctx, *tx); err != nil {
		return nil, fmt.Errorf("journal cleared snapshot: %w", err)
	}

	stats.RecordProductTypeChanged()
	if c.metrics != nil {
		c.metrics.RecordProductTypeChange()
		c.metrics.RecordStepDuration("type_change", time.Since(start))
	}
	c.logger.WithFields(log.Fields{
		"old_product_id": oldID,
		"product_id":     recreated.ID,
		"product_type":   tx.Draft.ProductTypeID,
	}).Info("target recreated under draft product type")

	return &recreated, nil
}

// cleanDonors удаляет переезжающие варианты из продуктов-доноров с ограниченной
// конкурентностью. Возвращает доноров в их пост-мутационном состоянии; целиком
// опустевшие и потому удалённые продукты выбывают из списка.
func (c *Coordinator) cleanDonors(
	ctx context.Context,
	tx *domain.Transaction,
	donors []*domain.Product,
) ([]*domain.Product, error) {
	reassignSKUs := make([]string, 0, len(tx.Variants))
	for _, variant := range tx.Variants {
		reassignSKUs = append(reassignSKUs, variant.SKU)
	}

	start := time.Now()
	results := make([]*domain.Product, len(donors))
	tasks := make([]func() error, 0, len(donors))
	for i, donor := range donors {
		i, donor := i, donor
		var skus []string
		for _, sku := range domain.ProductSKUs(donor) {
			if domain.ContainsSKU(reassignSKUs, sku) {
				skus = append(skus, sku)
			}
		}
		if len(skus) == 0 {
			results[i] = donor
			continue
		}
		tasks = append(tasks, func() error {
			updated, err := RemoveVariantsFromProduct(ctx, c.catalog, donor, skus)
			if err != nil {
				return err
			}
			results[i] = updated
			return nil
		})
	}
	if err := runBounded(maxConcurrentUpdates, tasks); err != nil {
		return nil, err
	}
	if c.metrics != nil && len(tasks) > 0 {
		c.metrics.RecordStepDuration("donor_cleanup", time.Since(start))
	}

	survivors := make([]*domain.Product, 0, len(results))
	for _, product := range results {
		if product != nil {
			survivors = append(survivors, product)
		}
	}
	return survivors, nil
}

// populateTarget добавляет в цель недостающие варианты: переезжающие от доноров
// и объявленные в драфте. Перед addVariant-действиями выполняется выравнивание
// SameForAll-атрибутов, чтобы добавляемые варианты сразу несли корректные значения.
func (c *Coordinator) populateTarget(
	ctx context.Context,
	tx *domain.Transaction,
	target *domain.Product,
) (*domain.Product, error) {
	existing := domain.VariantsBySKU(target.Staged)
	donorBySKU := make(map[string]domain.Variant, len(tx.Variants))
	for _, variant := range tx.Variants {
		donorBySKU[variant.SKU] = variant
	}

	var toAdd []*domain.Variant
	for _, draftVariant := range tx.Draft.AllVariants() {
		if draftVariant.SKU == "" {
			continue
		}
		if _, ok := existing[draftVariant.SKU]; ok {
			continue
		}
		variant := draftVariant.Variant()
		if donor, ok := donorBySKU[draftVariant.SKU]; ok {
			variant = c.mergeMovedVariant(donor, draftVariant)
		}
		toAdd = append(toAdd, &variant)
	}

	combined := make([]*domain.Variant, 0, len(existing)+len(toAdd))
	stagedVariants := target.Staged.AllVariants()
	for i := range stagedVariants {
		combined = append(combined, &stagedVariants[i])
	}
	combined = append(combined, toAdd...)

	actions, err := c.sameForAll.EnsureSameForAll(ctx, combined, target.ProductTypeID, tx.Draft)
	if err != nil {
		return nil, err
	}
	for _, variant := range toAdd {
		actions = append(actions, domain.AddVariantAction(*variant))
	}
	if len(actions) == 0 {
		return target, nil
	}

	start := time.Now()
	updated, err := c.catalog.Update(ctx, target.ID, target.Version, actions)
	if err != nil {
		return nil, fmt.Errorf("populate target %s: %w", target.ID, err)
	}
	if c.metrics != nil {
		c.metrics.RecordStepDuration("target_population", time.Since(start))
	}
	return &updated, nil
}

// mergeMovedVariant строит вариант для добавления в цель из donor-варианта и его
// описания в драфте. Драфт побеждает, кроме атрибутов из retain-списка и
// непустых donor-данных, отсутствующих в драфте.
func (c *Coordinator) mergeMovedVariant(donor domain.Variant, draftVariant domain.VariantDraft) domain.Variant {
	variant := draftVariant.Variant()
	for name := range c.retain {
		if value := donor.AttributeValue(name); value != nil {
			variant.SetAttribute(name, value)
		}
	}
	if len(variant.Prices) == 0 {
		variant.Prices = donor.Prices
	}
	if len(variant.Images) == 0 {
		variant.Images = donor.Images
	}
	return variant
}

// pruneTargetAndBackup удаляет из цели варианты, ушедшие в анонимизированный
// backup-драфт, и создаёт backup-продукт, если его ещё нет в каталоге
// (защита от дублирующего создания при повторе).
func (c *Coordinator) pruneTargetAndBackup(
	ctx context.Context,
	tx *domain.Transaction,
	target *domain.Product,
	stats *domain.Statistics,
) error {
	if tx.BackupDraft == nil {
		return nil
	}

	start := time.Now()
	removeSKUs := tx.BackupDraft.SKUs()
	if _, err := RemoveVariantsFromProduct(ctx, c.catalog, target, removeSKUs); err != nil {
		return err
	}

	owners, err := c.catalog.FetchBySKUs(ctx, []string{tx.BackupDraft.MasterVariant.SKU})
	if err != nil {
		return fmt.Errorf("check backup product existence: %w", err)
	}
	if len(owners) == 0 {
		if _, err := c.catalog.Create(ctx, *tx.BackupDraft); err != nil {
			return fmt.Errorf("create backup product: %w", err)
		}
		stats.RecordAnonymized(slugLabel(tx.BackupDraft.Slug))
		if c.metrics != nil {
			c.metrics.RecordAnonymized()
		}
		c.logger.WithFields(log.Fields{
			"transaction": tx.Key,
			"master_sku":  tx.BackupDraft.MasterVariant.SKU,
		}).Info("backup product created for leftover variants")
	}
	if c.metrics != nil {
		c.metrics.RecordStepDuration("target_pruning", time.Since(start))
	}
	return nil
}

// dedupSlugs анонимизирует оставшиеся сопоставленные продукты, чей staged или
// current slug конфликтует со slug драфта, с ограниченной конкурентностью.
func (c *Coordinator) dedupSlugs(
	ctx context.Context,
	draft domain.ProductDraft,
	donors []*domain.Product,
	stats *domain.Statistics,
) error {
	var conflicting []*domain.Product
	for _, product := range donors {
		if product.Staged.Slug.SharesValue(draft.Slug) || product.Current.Slug.SharesValue(draft.Slug) {
			conflicting = append(conflicting, product)
		}
	}
	if len(conflicting) == 0 {
		return nil
	}

	start := time.Now()
	var mu sync.Mutex
	tasks := make([]func() error, 0, len(conflicting))
	for _, product := range conflicting {
		product := product
		tasks = append(tasks, func() error {
			actions := AnonymizeProductActions(product)
			if _, err := c.catalog.Update(ctx, product.ID, product.Version, actions); err != nil {
				return fmt.Errorf("anonymize product %s: %w", product.ID, err)
			}
			mu.Lock()
			stats.RecordAnonymized(slugLabel(product.Staged.Slug))
			mu.Unlock()
			if c.metrics != nil {
				c.metrics.RecordAnonymized()
			}
			return nil
		})
	}
	if err := runBounded(maxConcurrentUpdates, tasks); err != nil {
		return err
	}
	if c.metrics != nil {
		c.metrics.RecordStepDuration("slug_dedup", time.Since(start))
	}
	return nil
}

// finish удаляет запись журнала и фиксирует успех драфта.
func (c *Coordinator) finish(ctx context.Context, key string, stats *domain.Statistics) error {
	if err := c.journal.Delete(ctx, key); err != nil {
		return fmt.Errorf("delete transaction %s: %w", key, err)
	}
	stats.RecordSucceeded()
	return nil
}

// productDraftFromProduct строит драфт пересоздания продукта из его
// staged-проекции под указанным типом.
func productDraftFromProduct(p *domain.Product, productTypeID string) domain.ProductDraft {
	variants := make([]domain.VariantDraft, 0, len(p.Staged.Variants))
	for _, variant := range p.Staged.Variants {
		variants = append(variants, domain.DraftFromVariant(variant))
	}
	return domain.ProductDraft{
		Key:           p.Key,
		ProductTypeID: productTypeID,
		TaxCategoryID: p.TaxCategoryID,
		StateID:       p.StateID,
		Slug:          p.Staged.Slug.Clone(),
		MasterVariant: domain.DraftFromVariant(p.Staged.MasterVariant),
		Variants:      variants,
	}
}

// slugLabel возвращает человекочитаемое значение slug для статистики:
// локаль en, иначе первое значение в отсортированном порядке локалей.
func slugLabel(slug domain.LocalizedString) string {
	if v := slug["en"]; v != "" {
		return v
	}
	locales := make([]string, 0, len(slug))
	for locale := range slug {
		if locale == SaltMarkerLocale {
			continue
		}
		locales = append(locales, locale)
	}
	sort.Strings(locales)
	for _, locale := range locales {
		if v := slug[locale]; v != "" {
			return v
		}
	}
	return slug[SaltMarkerLocale]
}

// runBounded выполняет задачи с ограничением на число одновременно
// работающих горутин и возвращает первую ошибку.
func runBounded(limit int, tasks []func() error) error {
	if len(tasks) == 0 {
		return nil
	}
	sem := make(chan struct{}, limit)
	var wg sync.WaitGroup
	var mu sync.Mutex
	var firstErr error

	for _, task := range tasks {
		task := task
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()
			if err := task(); err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	return firstErr
}
