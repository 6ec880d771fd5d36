package domain

import "sort"

// SKUIndex отображает SKU на продукты, владеющие этим SKU в любой из проекций.
type SKUIndex map[string][]*Product

// BuildSKUIndex строит индекс SKU→продукты по обеим проекциям, включая master-варианты.
func BuildSKUIndex(products []*Product) SKUIndex {
	index := make(SKUIndex)
	for _, product := range products {
		for _, sku := range ProductSKUs(product) {
			index[sku] = append(index[sku], product)
		}
	}
	return index
}

// ProductSKUs возвращает дедуплицированный набор SKU продукта
// (staged + current, master-варианты включены), в стабильном порядке.
func ProductSKUs(p *Product) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, variant := range append(p.Staged.AllVariants(), p.Current.AllVariants()...) {
		if variant.SKU == "" {
			continue
		}
		if _, ok := seen[variant.SKU]; ok {
			continue
		}
		seen[variant.SKU] = struct{}{}
		out = append(out, variant.SKU)
	}
	return out
}

// SKUSetsEqual сравнивает два набора SKU как множества.
func SKUSetsEqual(a, b []string) bool {
	if len(dedup(a)) != len(dedup(b)) {
		return false
	}
	set := make(map[string]struct{}, len(a))
	for _, sku := range a {
		set[sku] = struct{}{}
	}
	for _, sku := range b {
		if _, ok := set[sku]; !ok {
			return false
		}
	}
	return true
}

// ContainsSKU проверяет вхождение SKU в набор.
func ContainsSKU(skus []string, sku string) bool {
	for _, s := range skus {
		if s == sku {
			return true
		}
	}
	return false
}

// VariantsBySKU строит отображение SKU→вариант для одной проекции.
func VariantsBySKU(p Projection) map[string]Variant {
	out := make(map[string]Variant, len(p.Variants)+1)
	for _, variant := range p.AllVariants() {
		if variant.SKU != "" {
			out[variant.SKU] = variant
		}
	}
	return out
}

// ProductsTouchedBySKUs возвращает продукты, владеющие хотя бы одним из SKU,
// дедуплицированные по каталожному ID и в стабильном порядке по ID.
func ProductsTouchedBySKUs(index SKUIndex, skus []string) []*Product {
	byID := make(map[string]*Product)
	for _, sku := range skus {
		for _, product := range index[sku] {
			byID[product.ID] = product
		}
	}
	out := make([]*Product, 0, len(byID))
	for _, product := range byID {
		out = append(out, product)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// RemoveProduct возвращает срез без продукта с данным ID; сравнение только по ID,
// никогда по ссылочной идентичности.
func RemoveProduct(products []*Product, id string) []*Product {
	out := make([]*Product, 0, len(products))
	for _, product := range products {
		if product.ID != id {
			out = append(out, product)
		}
	}
	return out
}

func dedup(skus []string) []string {
	seen := make(map[string]struct{}, len(skus))
	out := make([]string, 0, len(skus))
	for _, sku := range skus {
		if _, ok := seen[sku]; ok {
			continue
		}
		seen[sku] = struct{}{}
		out = append(out, sku)
	}
	return out
}
