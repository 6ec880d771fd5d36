package reassign

import (
	"github.com/vladislavdragonenkov/reassign/internal/domain"
)

// SelectTarget выбирает единственный авторитетный продукт для драфта.
// Каскад правил; побеждает первое правило, дающее однозначный ответ:
//  1. полное совпадение набора SKU (staged+current) с набором SKU драфта;
//  2. единственный кандидат, чей staged slug совпадает с драфтом хотя бы в одной локали;
//  3. среди slug-кандидатов — совпадение SKU master-варианта;
//  4. первый кандидат во входном порядке.
func SelectTarget(draft domain.ProductDraft, candidates []*domain.Product) (*domain.Product, error) {
	if len(candidates) == 0 {
		return nil, domain.ErrNoCandidates
	}

	draftSKUs := draft.SKUs()
	for _, candidate := range candidates {
		if domain.SKUSetsEqual(domain.ProductSKUs(candidate), draftSKUs) {
			return candidate, nil
		}
	}

	var slugMatched []*domain.Product
	for _, candidate := range candidates {
		if candidate.Staged.Slug.SharesValue(draft.Slug) {
			slugMatched = append(slugMatched, candidate)
		}
	}
	if len(slugMatched) == 1 {
		return slugMatched[0], nil
	}

	for _, candidate := range slugMatched {
		if candidate.Staged.MasterVariant.SKU == draft.MasterVariant.SKU {
			return candidate, nil
		}
	}

	return candidates[0], nil
}

// MatchingProducts возвращает продукты, затронутые драфтом: владеющие хотя бы
// одним его SKU либо конфликтующие по slug (staged или current) хотя бы в одной локали.
func MatchingProducts(draft domain.ProductDraft, index domain.SKUIndex, all []*domain.Product) []*domain.Product {
	matched := domain.ProductsTouchedBySKUs(index, draft.SKUs())
	seen := make(map[string]struct{}, len(matched))
	for _, product := range matched {
		seen[product.ID] = struct{}{}
	}
	for _, product := range all {
		if _, ok := seen[product.ID]; ok {
			continue
		}
		if product.Staged.Slug.SharesValue(draft.Slug) || product.Current.Slug.SharesValue(draft.Slug) {
			seen[product.ID] = struct{}{}
			matched = append(matched, product)
		}
	}
	return matched
}

// NeedsReassignment решает, требует ли драфт какой-либо работы.
// Затронутость считается по SKU; slug проверяется только когда ни один SKU
// не занят, чтобы драфт с новыми SKU, конфликтующий по slug, всё же попал
// в обработку. Драфты, уже корректно размещённые в каталоге,
// отфильтровываются до любых мутаций: ни записи в журнал, ни вызовов каталога.
func NeedsReassignment(draft domain.ProductDraft, index domain.SKUIndex, all []*domain.Product) bool {
	touched := domain.ProductsTouchedBySKUs(index, draft.SKUs())
	switch len(touched) {
	case 0:
		for _, product := range all {
			if product.Staged.Slug.SharesValue(draft.Slug) || product.Current.Slug.SharesValue(draft.Slug) {
				return true
			}
		}
		// По-настоящему новый продукт.
		return false
	case 1:
		product := touched[0]
		if !domain.SKUSetsEqual(domain.ProductSKUs(product), draft.SKUs()) {
			return true
		}
		if product.ProductTypeID != draft.ProductTypeID {
			return true
		}
		return !product.Staged.Slug.Equal(draft.Slug)
	default:
		return true
	}
}
