package reassign

import (
	"context"
	"fmt"
	"sort"

	"github.com/vladislavdragonenkov/reassign/internal/domain"
)

// RemoveVariantsFromProduct удаляет варианты с указанными SKU из обеих проекций
// продукта одним вызовом обновления. Протокол:
//   - обе проекции пустеют → продукт удаляется целиком (возвращается nil);
//   - пустеет только current → сначала publish (staged копируется в current),
//     в конце unpublish;
//   - пустеет только staged → выжившие current-варианты добавляются в staged
//     до удалений, чтобы staged не остался без вариантов посреди цепочки;
//   - удаляемый master-вариант заменяется первым выжившим до removeVariant;
//   - removeVariant предпочитает variantId, когда он известен.
//
// SKU, отсутствующий в проекции, в ней просто пропускается. Если действий
// не накопилось, продукт возвращается без изменений.
func RemoveVariantsFromProduct(
	ctx context.Context,
	catalog domain.CatalogGateway,
	product *domain.Product,
	skus []string,
) (*domain.Product, error) {
	currentSurvivors := domain.VariantsBySKU(product.Current)
	stagedSurvivors := domain.VariantsBySKU(product.Staged)

	var removedCurrent, removedStaged []domain.Variant
	for _, sku := range skus {
		if variant, ok := currentSurvivors[sku]; ok {
			removedCurrent = append(removedCurrent, variant)
			delete(currentSurvivors, sku)
		}
		if variant, ok := stagedSurvivors[sku]; ok {
			removedStaged = append(removedStaged, variant)
			delete(stagedSurvivors, sku)
		}
	}

	if len(currentSurvivors) == 0 && len(stagedSurvivors) == 0 {
		if err := catalog.Delete(ctx, product.ID, product.Version); err != nil {
			return nil, fmt.Errorf("delete emptied product %s: %w", product.ID, err)
		}
		return nil, nil
	}

	var actions []domain.UpdateAction
	unpublishAtEnd := false
	currentProjection := product.Current

	if len(currentSurvivors) == 0 {
		// current опустел, staged нет: публикуем staged, работаем с его копией.
		actions = append(actions, domain.Publish{})
		currentProjection = product.Staged
		removedCurrent = removedStaged
		currentSurvivors = make(map[string]domain.Variant, len(stagedSurvivors))
		for sku, variant := range stagedSurvivors {
			currentSurvivors[sku] = variant
		}
		unpublishAtEnd = true
	} else if len(stagedSurvivors) == 0 {
		// staged опустел: переносим выживших из current до удалений.
		for _, sku := range sortedSKUs(currentSurvivors) {
			variant := currentSurvivors[sku]
			actions = append(actions, domain.AddVariantAction(variant))
			stagedSurvivors[sku] = variant
		}
	}

	actions = append(actions, projectionRemovalActions(product.Staged, stagedSurvivors, removedStaged, true)...)
	actions = append(actions, projectionRemovalActions(currentProjection, currentSurvivors, removedCurrent, false)...)

	if unpublishAtEnd {
		actions = append(actions, domain.Unpublish{})
	}

	if len(actions) == 0 {
		return product, nil
	}

	updated, err := catalog.Update(ctx, product.ID, product.Version, actions)
	if err != nil {
		return nil, fmt.Errorf("remove variants from product %s: %w", product.ID, err)
	}
	return &updated, nil
}

// projectionRemovalActions строит действия удаления для одной проекции,
// при необходимости предваряя их сменой master-варианта.
func projectionRemovalActions(
	projection domain.Projection,
	survivors map[string]domain.Variant,
	removed []domain.Variant,
	staged bool,
) []domain.UpdateAction {
	if len(removed) == 0 {
		return nil
	}

	var actions []domain.UpdateAction
	for _, variant := range removed {
		if variant.SKU == projection.MasterVariant.SKU {
			if survivorSKUs := sortedSKUs(survivors); len(survivorSKUs) > 0 {
				actions = append(actions, domain.ChangeMasterVariant{SKU: survivorSKUs[0], Staged: staged})
			}
			break
		}
	}
	for _, variant := range removed {
		actions = append(actions, domain.RemoveVariantAction(variant, staged))
	}
	return actions
}

func sortedSKUs(variants map[string]domain.Variant) []string {
	out := make([]string, 0, len(variants))
	for sku := range variants {
		out = append(out, sku)
	}
	sort.Strings(out)
	return out
}
