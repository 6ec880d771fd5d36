package reassign

import (
	"context"
	"fmt"
	"reflect"
	"sync"

	"github.com/vladislavdragonenkov/reassign/internal/domain"
)

// productTypeCache кэширует определения типов продуктов на время жизни движка.
// Инвалидации нет: типы продуктов считаются неизменными в пределах одного запуска.
type productTypeCache struct {
	mu      sync.Mutex
	catalog domain.CatalogGateway
	items   map[string]domain.ProductType
}

func newProductTypeCache(catalog domain.CatalogGateway) *productTypeCache {
	return &productTypeCache{
		catalog: catalog,
		items:   make(map[string]domain.ProductType),
	}
}

// Get возвращает тип продукта из кэша либо запрашивает его у каталога.
func (c *productTypeCache) Get(ctx context.Context, id string) (domain.ProductType, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if pt, ok := c.items[id]; ok {
		return pt, nil
	}
	pt, err := c.catalog.FetchProductType(ctx, id)
	if err != nil {
		return domain.ProductType{}, fmt.Errorf("fetch product type %q: %w", id, err)
	}
	c.items[id] = pt
	return pt, nil
}

// SameForAllResolver приводит атрибуты с ограничением SameForAll к единому
// значению при слиянии новых вариантов в целевой продукт.
type SameForAllResolver struct {
	types *productTypeCache
}

// NewSameForAllResolver создаёт resolver с собственным кэшем типов продуктов.
func NewSameForAllResolver(catalog domain.CatalogGateway) *SameForAllResolver {
	return &SameForAllResolver{types: newProductTypeCache(catalog)}
}

// EnsureSameForAll проверяет каждый SameForAll-атрибут типа продукта на всех
// переданных вариантах. Если значения расходятся, берётся значение из
// master-варианта драфта (nil, если там его нет), варианты правятся в памяти,
// и для атрибута эмитится одно действие setAttributeInAllVariants.
// Вызывается до построения addVariant-действий, чтобы добавляемые варианты
// уже несли исправленные значения.
func (r *SameForAllResolver) EnsureSameForAll(
	ctx context.Context,
	variants []*domain.Variant,
	productTypeID string,
	draft domain.ProductDraft,
) ([]domain.UpdateAction, error) {
	if len(variants) == 0 {
		return nil, nil
	}

	productType, err := r.types.Get(ctx, productTypeID)
	if err != nil {
		return nil, err
	}

	var actions []domain.UpdateAction
	for _, def := range productType.Attributes {
		if !def.SameForAll {
			continue
		}
		if allVariantsAgree(variants, def.Name) {
			continue
		}

		value := draft.MasterVariant.Variant().AttributeValue(def.Name)
		for _, variant := range variants {
			variant.SetAttribute(def.Name, value)
		}
		actions = append(actions, domain.SetAttributeInAllVariants{
			Name:   def.Name,
			Value:  value,
			Staged: true,
		})
	}
	return actions, nil
}

// allVariantsAgree проверяет, совпадает ли значение атрибута у всех вариантов.
// Отсутствие атрибута трактуется как nil.
func allVariantsAgree(variants []*domain.Variant, name string) bool {
	first := variants[0].AttributeValue(name)
	for _, variant := range variants[1:] {
		if !reflect.DeepEqual(first, variant.AttributeValue(name)) {
			return false
		}
	}
	return true
}
