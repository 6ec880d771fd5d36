package reassign

import (
	"github.com/vladislavdragonenkov/reassign/internal/domain"
)

// Общие строители тестовых данных пакета.

func productWithSKUs(id, typeID string, slug domain.LocalizedString, skus ...string) *domain.Product {
	if len(skus) == 0 {
		panic("productWithSKUs requires at least one sku")
	}
	master := domain.Variant{ID: 1, SKU: skus[0]}
	variants := make([]domain.Variant, 0, len(skus)-1)
	for i, sku := range skus[1:] {
		variants = append(variants, domain.Variant{ID: int64(i + 2), SKU: sku})
	}
	projection := domain.Projection{
		Slug:          slug.Clone(),
		MasterVariant: master,
		Variants:      variants,
	}
	return &domain.Product{
		ID:            id,
		Version:       1,
		ProductTypeID: typeID,
		Staged:        projection,
		Current:       projection,
	}
}

func draftWithSKUs(key, typeID string, slug domain.LocalizedString, skus ...string) domain.ProductDraft {
	if len(skus) == 0 {
		panic("draftWithSKUs requires at least one sku")
	}
	variants := make([]domain.VariantDraft, 0, len(skus)-1)
	for _, sku := range skus[1:] {
		variants = append(variants, domain.VariantDraft{SKU: sku})
	}
	return domain.ProductDraft{
		Key:           key,
		ProductTypeID: typeID,
		Slug:          slug.Clone(),
		MasterVariant: domain.VariantDraft{SKU: skus[0]},
		Variants:      variants,
	}
}

func indexFor(products ...*domain.Product) (domain.SKUIndex, []*domain.Product) {
	return domain.BuildSKUIndex(products), products
}
