package catalog

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/vladislavdragonenkov/reassign/internal/domain"
)

const (
	// fetchBatchSize — максимум SKU/slug в одном запросе выборки.
	fetchBatchSize = 20
	// fetchConcurrency — число одновременно выполняемых батчей выборки.
	fetchConcurrency = 2
)

// MockGateway — in-memory реализация CatalogGateway с семантикой
// действий каталога: версии optimistic locking, назначение variantId,
// publish/unpublish, смена master-варианта. Используется в тестах и
// локальной разработке; в production внедряется клиент реального каталога.
type MockGateway struct {
	mu            sync.Mutex
	products      map[string]domain.Product
	types         map[string]domain.ProductType
	nextVariantID int64

	failUpdates int
	updateErr   error
	fetchErr    error
}

// NewMockGateway возвращает пустой in-memory каталог.
func NewMockGateway() *MockGateway {
	return &MockGateway{
		products:      make(map[string]domain.Product),
		types:         make(map[string]domain.ProductType),
		nextVariantID: 1,
	}
}

// RegisterProductType добавляет определение типа продукта.
func (g *MockGateway) RegisterProductType(pt domain.ProductType) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.types[pt.ID] = pt
}

// SeedProduct помещает продукт в каталог, назначая id, версию и variantId
// там, где они не заданы.
func (g *MockGateway) SeedProduct(p domain.Product) domain.Product {
	g.mu.Lock()
	defer g.mu.Unlock()

	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.Version == 0 {
		p.Version = 1
	}
	// Вызывающий может передать одно значение Projection в обе проекции;
	// клонирование разрывает общий backing array вариантов.
	p.Staged = cloneProjection(p.Staged)
	p.Current = cloneProjection(p.Current)
	g.assignVariantIDs(&p.Staged)
	g.adoptVariantIDs(&p.Current, p.Staged)
	g.products[p.ID] = p
	return p
}

// FailUpdates заставляет следующие n вызовов Update вернуть err.
func (g *MockGateway) FailUpdates(n int, err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.failUpdates = n
	g.updateErr = err
}

// FailFetches заставляет выборки возвращать err до сброса (err == nil).
func (g *MockGateway) FailFetches(err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.fetchErr = err
}

// Products возвращает копию всех продуктов каталога.
func (g *MockGateway) Products() []domain.Product {
	g.mu.Lock()
	defer g.mu.Unlock()

	out := make([]domain.Product, 0, len(g.products))
	for _, p := range g.products {
		out = append(out, p)
	}
	return out
}

// FetchBySKUsAndSlugs возвращает продукты, владеющие любым из SKU либо
// пересекающиеся по slug хотя бы в одной локали. Выборка выполняется
// батчами по fetchBatchSize с конкурентностью fetchConcurrency.
func (g *MockGateway) FetchBySKUsAndSlugs(ctx context.Context, skus []string, slugs []domain.LocalizedString) ([]domain.Product, error) {
	matched := make(map[string]domain.Product)
	var matchedMu sync.Mutex
	var wg sync.WaitGroup
	sem := make(chan struct{}, fetchConcurrency)
	errCh := make(chan error, 1)

	for start := 0; start < len(skus); start += fetchBatchSize {
		end := start + fetchBatchSize
		if end > len(skus) {
			end = len(skus)
		}
		batch := skus[start:end]
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()
			found, err := g.FetchBySKUs(ctx, batch)
			if err != nil {
				select {
				case errCh <- err:
				default:
				}
				return
			}
			matchedMu.Lock()
			for _, p := range found {
				matched[p.ID] = p
			}
			matchedMu.Unlock()
		}()
	}
	wg.Wait()
	select {
	case err := <-errCh:
		return nil, err
	default:
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if g.fetchErr != nil {
		return nil, g.fetchErr
	}
	for _, p := range g.products {
		for _, slug := range slugs {
			if p.Staged.Slug.SharesValue(slug) || p.Current.Slug.SharesValue(slug) {
				matched[p.ID] = p
				break
			}
		}
	}

	out := make([]domain.Product, 0, len(matched))
	for _, p := range matched {
		out = append(out, p)
	}
	sortProducts(out)
	return out, nil
}

// FetchBySKUs возвращает продукты, владеющие любым из SKU в любой проекции.
func (g *MockGateway) FetchBySKUs(ctx context.Context, skus []string) ([]domain.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.fetchErr != nil {
		return nil, g.fetchErr
	}

	want := make(map[string]struct{}, len(skus))
	for _, sku := range skus {
		want[sku] = struct{}{}
	}

	var out []domain.Product
	for _, p := range g.products {
		product := p
		for _, sku := range domain.ProductSKUs(&product) {
			if _, ok := want[sku]; ok {
				out = append(out, product)
				break
			}
		}
	}
	sortProducts(out)
	return out, nil
}

// FetchByID возвращает продукт или (nil, nil), если его нет.
func (g *MockGateway) FetchByID(ctx context.Context, id string) (*domain.Product, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.fetchErr != nil {
		return nil, g.fetchErr
	}

	p, ok := g.products[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

// Create создаёт продукт из драфта: staged-проекция из драфта, current —
// её непубликованная копия, variantId назначаются последовательно.
func (g *MockGateway) Create(ctx context.Context, draft domain.ProductDraft) (domain.Product, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	variants := make([]domain.Variant, 0, len(draft.Variants))
	for _, v := range draft.Variants {
		variants = append(variants, v.Variant())
	}
	projection := domain.Projection{
		Slug:          draft.Slug.Clone(),
		MasterVariant: draft.MasterVariant.Variant(),
		Variants:      variants,
	}
	g.assignVariantIDs(&projection)

	product := domain.Product{
		ID:            uuid.NewString(),
		Version:       1,
		Key:           draft.Key,
		ProductTypeID: draft.ProductTypeID,
		TaxCategoryID: draft.TaxCategoryID,
		StateID:       draft.StateID,
		Staged:        projection,
		Current:       cloneProjection(projection),
	}
	g.products[product.ID] = product
	return product, nil
}

// Update применяет действия к продукту, проверяя версию.
func (g *MockGateway) Update(ctx context.Context, id string, version int64, actions []domain.UpdateAction) (domain.Product, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.failUpdates > 0 {
		g.failUpdates--
		return domain.Product{}, g.updateErr
	}

	product, ok := g.products[id]
	if !ok {
		return domain.Product{}, domain.ErrProductNotFound
	}
	if product.Version != version {
		return domain.Product{}, domain.ErrConcurrencyConflict
	}

	for _, action := range actions {
		if err := g.applyAction(&product, action); err != nil {
			return domain.Product{}, err
		}
	}

	product.Version++
	g.products[id] = product
	return product, nil
}

// Delete удаляет продукт, проверяя версию.
func (g *MockGateway) Delete(ctx context.Context, id string, version int64) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	product, ok := g.products[id]
	if !ok {
		return domain.ErrProductNotFound
	}
	if product.Version != version {
		return domain.ErrConcurrencyConflict
	}
	delete(g.products, id)
	return nil
}

// FetchProductType возвращает зарегистрированный тип продукта.
func (g *MockGateway) FetchProductType(ctx context.Context, id string) (domain.ProductType, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	pt, ok := g.types[id]
	if !ok {
		return domain.ProductType{}, domain.ErrProductTypeNotFound
	}
	return pt, nil
}

func (g *MockGateway) applyAction(product *domain.Product, action domain.UpdateAction) error {
	switch a := action.(type) {
	case domain.Publish:
		product.Current = cloneProjection(product.Staged)
		product.Current.Published = true
		product.Staged.Published = true
	case domain.Unpublish:
		product.Current.Published = false
		product.Staged.Published = false
	case domain.AddVariant:
		variant := domain.Variant{
			ID:         g.nextVariantID,
			SKU:        a.SKU,
			Key:        a.Key,
			Attributes: a.Attributes,
			Prices:     a.Prices,
			Images:     a.Images,
		}
		g.nextVariantID++
		product.Staged.Variants = append(product.Staged.Variants, variant)
	case domain.RemoveVariantByID:
		removeVariant(projectionFor(product, a.Staged), func(v domain.Variant) bool { return v.ID == a.VariantID })
	case domain.RemoveVariantBySKU:
		removeVariant(projectionFor(product, a.Staged), func(v domain.Variant) bool { return v.SKU == a.SKU })
	case domain.ChangeMasterVariant:
		changeMaster(projectionFor(product, a.Staged), a.SKU)
	case domain.SetAttributeInAllVariants:
		projection := projectionFor(product, a.Staged)
		projection.MasterVariant.SetAttribute(a.Name, a.Value)
		for i := range projection.Variants {
			projection.Variants[i].SetAttribute(a.Name, a.Value)
		}
	case domain.SetKey:
		product.Key = a.Key
	case domain.ChangeSlug:
		product.Staged.Slug = a.Slug.Clone()
	default:
		return fmt.Errorf("%w: unsupported action %q", domain.ErrBadRequest, action.ActionName())
	}
	return nil
}

func (g *MockGateway) assignVariantIDs(projection *domain.Projection) {
	if projection.MasterVariant.SKU != "" && projection.MasterVariant.ID == 0 {
		projection.MasterVariant.ID = g.nextVariantID
		g.nextVariantID++
	}
	for i := range projection.Variants {
		if projection.Variants[i].ID == 0 {
			projection.Variants[i].ID = g.nextVariantID
			g.nextVariantID++
		}
	}
}

// adoptVariantIDs назначает variantId второй проекции: вариант, известный
// staged-проекции по SKU, получает её id, остальные — свежие.
func (g *MockGateway) adoptVariantIDs(projection *domain.Projection, staged domain.Projection) {
	bySKU := domain.VariantsBySKU(staged)
	adopt := func(v *domain.Variant) {
		if v.SKU == "" || v.ID != 0 {
			return
		}
		if known, ok := bySKU[v.SKU]; ok {
			v.ID = known.ID
			return
		}
		v.ID = g.nextVariantID
		g.nextVariantID++
	}
	adopt(&projection.MasterVariant)
	for i := range projection.Variants {
		adopt(&projection.Variants[i])
	}
}

func projectionFor(product *domain.Product, staged bool) *domain.Projection {
	if staged {
		return &product.Staged
	}
	return &product.Current
}

func removeVariant(projection *domain.Projection, match func(domain.Variant) bool) {
	if match(projection.MasterVariant) {
		projection.MasterVariant = domain.Variant{}
		return
	}
	for i, variant := range projection.Variants {
		if match(variant) {
			projection.Variants = append(projection.Variants[:i], projection.Variants[i+1:]...)
			return
		}
	}
}

func changeMaster(projection *domain.Projection, sku string) {
	for i, variant := range projection.Variants {
		if variant.SKU == sku {
			old := projection.MasterVariant
			projection.MasterVariant = variant
			projection.Variants = append(projection.Variants[:i], projection.Variants[i+1:]...)
			if old.SKU != "" {
				projection.Variants = append(projection.Variants, old)
			}
			return
		}
	}
}

func cloneProjection(p domain.Projection) domain.Projection {
	out := p
	out.Slug = p.Slug.Clone()
	out.MasterVariant = cloneVariant(p.MasterVariant)
	out.Variants = make([]domain.Variant, len(p.Variants))
	for i, variant := range p.Variants {
		out.Variants[i] = cloneVariant(variant)
	}
	return out
}

func cloneVariant(v domain.Variant) domain.Variant {
	out := v
	if v.Attributes != nil {
		out.Attributes = make([]domain.Attribute, len(v.Attributes))
		copy(out.Attributes, v.Attributes)
	}
	if v.Prices != nil {
		out.Prices = make([]domain.Price, len(v.Prices))
		copy(out.Prices, v.Prices)
	}
	if v.Images != nil {
		out.Images = make([]domain.Image, len(v.Images))
		copy(out.Images, v.Images)
	}
	return out
}

func sortProducts(products []domain.Product) {
	sort.Slice(products, func(i, j int) bool { return products[i].ID < products[j].ID })
}

var _ domain.CatalogGateway = (*MockGateway)(nil)
