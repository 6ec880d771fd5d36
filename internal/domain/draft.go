package domain

// VariantDraft описывает желаемое состояние варианта; ID назначает каталог.
type VariantDraft struct {
	SKU        string      `json:"sku"`
	Key        string      `json:"key,omitempty"`
	Attributes []Attribute `json:"attributes,omitempty"`
	Prices     []Price     `json:"prices,omitempty"`
	Images     []Image     `json:"images,omitempty"`
}

// Variant конвертирует draft-вариант в Variant без каталожного ID.
func (d VariantDraft) Variant() Variant {
	return Variant{
		SKU:        d.SKU,
		Key:        d.Key,
		Attributes: d.Attributes,
		Prices:     d.Prices,
		Images:     d.Images,
	}
}

// DraftFromVariant строит VariantDraft из существующего варианта.
func DraftFromVariant(v Variant) VariantDraft {
	return VariantDraft{
		SKU:        v.SKU,
		Key:        v.Key,
		Attributes: v.Attributes,
		Prices:     v.Prices,
		Images:     v.Images,
	}
}

// ProductDraft — желаемое состояние продукта, поставляемое вызывающей стороной.
// ProductTypeID может изначально содержать имя типа; перед обработкой оно
// заменяется на реальный идентификатор по таблице соответствия.
type ProductDraft struct {
	Key           string          `json:"key,omitempty"`
	ProductTypeID string          `json:"productTypeId"`
	TaxCategoryID string          `json:"taxCategoryId,omitempty"`
	StateID       string          `json:"stateId,omitempty"`
	Slug          LocalizedString `json:"slug"`
	MasterVariant VariantDraft    `json:"masterVariant"`
	Variants      []VariantDraft  `json:"variants,omitempty"`
}

// SKUs возвращает SKU master-варианта и остальных вариантов в исходном порядке.
func (d ProductDraft) SKUs() []string {
	out := make([]string, 0, len(d.Variants)+1)
	if d.MasterVariant.SKU != "" {
		out = append(out, d.MasterVariant.SKU)
	}
	for _, v := range d.Variants {
		if v.SKU != "" {
			out = append(out, v.SKU)
		}
	}
	return out
}

// AllVariants возвращает master-вариант вместе с остальными вариантами драфта.
func (d ProductDraft) AllVariants() []VariantDraft {
	out := make([]VariantDraft, 0, len(d.Variants)+1)
	out = append(out, d.MasterVariant)
	out = append(out, d.Variants...)
	return out
}

// Name возвращает стабильную идентичность драфта для журнала и повторов:
// key, если задан, иначе slug первой непустой локали, иначе SKU master-варианта.
func (d ProductDraft) Name() string {
	if d.Key != "" {
		return d.Key
	}
	for _, locale := range []string{"en", "de", "ru"} {
		if v := d.Slug[locale]; v != "" {
			return v
		}
	}
	for _, v := range d.Slug {
		if v != "" {
			return v
		}
	}
	return d.MasterVariant.SKU
}
