package reassign

import (
	"github.com/vladislavdragonenkov/reassign/internal/domain"
)

// Plan описывает дельты вариантов, вычисленные для одного драфта.
type Plan struct {
	// ToReassign — варианты, покидающие доноров и переезжающие в целевой продукт.
	ToReassign []domain.Variant
	// ToRemoveFromTarget — варианты целевого продукта, отсутствующие в драфте.
	ToRemoveFromTarget []domain.Variant
}

// PlanVariantMoves вычисляет перемещения вариантов для драфта и выбранной цели.
// Из каждого донора берутся варианты с SKU из набора драфта; из цели — варианты,
// чьих SKU в драфте нет.
func PlanVariantMoves(draft domain.ProductDraft, matching []*domain.Product, target *domain.Product) Plan {
	draftSKUs := draft.SKUs()
	var plan Plan

	for _, product := range matching {
		if product.ID == target.ID {
			continue
		}
		for _, variant := range combinedVariants(product) {
			if domain.ContainsSKU(draftSKUs, variant.SKU) {
				plan.ToReassign = append(plan.ToReassign, variant)
			}
		}
	}

	for _, variant := range combinedVariants(target) {
		if !domain.ContainsSKU(draftSKUs, variant.SKU) {
			plan.ToRemoveFromTarget = append(plan.ToRemoveFromTarget, variant)
		}
	}

	return plan
}

// combinedVariants объединяет варианты обеих проекций, дедуплицируя по SKU;
// staged-вариант предпочитается current-варианту. Порядок стабилен:
// сначала порядок staged, затем только-current.
func combinedVariants(p *domain.Product) []domain.Variant {
	seen := make(map[string]struct{})
	var out []domain.Variant
	for _, variant := range p.Staged.AllVariants() {
		if variant.SKU == "" {
			continue
		}
		if _, ok := seen[variant.SKU]; ok {
			continue
		}
		seen[variant.SKU] = struct{}{}
		out = append(out, variant)
	}
	for _, variant := range p.Current.AllVariants() {
		if variant.SKU == "" {
			continue
		}
		if _, ok := seen[variant.SKU]; ok {
			continue
		}
		seen[variant.SKU] = struct{}{}
		out = append(out, variant)
	}
	return out
}

// BuildAnonymizedDraft строит анонимизированный драфт из остатков целевого
// продукта. Остатки становятся новым самостоятельным продуктом: первый
// удаляемый вариант — master, прочие — обычные варианты; key, тип продукта,
// налоговая категория и state копируются с цели. Возвращает nil, если
// удалять с цели нечего.
func BuildAnonymizedDraft(target *domain.Product, toRemove []domain.Variant) *domain.ProductDraft {
	if len(toRemove) == 0 {
		return nil
	}

	variants := make([]domain.VariantDraft, 0, len(toRemove)-1)
	for _, variant := range toRemove[1:] {
		variants = append(variants, domain.DraftFromVariant(variant))
	}

	draft := &domain.ProductDraft{
		Key:           target.Key,
		ProductTypeID: target.ProductTypeID,
		TaxCategoryID: target.TaxCategoryID,
		StateID:       target.StateID,
		Slug:          target.Staged.Slug.Clone(),
		MasterVariant: domain.DraftFromVariant(toRemove[0]),
		Variants:      variants,
	}
	AnonymizeDraft(draft)
	return draft
}
