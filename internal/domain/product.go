package domain

// LocalizedString хранит значения по локалям (slug, названия).
type LocalizedString map[string]string

// Clone возвращает независимую копию.
func (ls LocalizedString) Clone() LocalizedString {
	if ls == nil {
		return nil
	}
	out := make(LocalizedString, len(ls))
	for locale, value := range ls {
		out[locale] = value
	}
	return out
}

// Equal сравнивает два slug по всем локалям.
func (ls LocalizedString) Equal(other LocalizedString) bool {
	if len(ls) != len(other) {
		return false
	}
	for locale, value := range ls {
		if other[locale] != value {
			return false
		}
	}
	return true
}

// SharesValue возвращает true, если хотя бы в одной общей локали значения совпадают.
func (ls LocalizedString) SharesValue(other LocalizedString) bool {
	for locale, value := range ls {
		if value != "" && other[locale] == value {
			return true
		}
	}
	return false
}

// Attribute представляет именованное значение атрибута варианта.
type Attribute struct {
	Name  string `json:"name"`
	Value any    `json:"value"`
}

// Price переносится между продуктами как непрозрачное значение.
type Price struct {
	ID           string `json:"id,omitempty"`
	CurrencyCode string `json:"currencyCode"`
	CentAmount   int64  `json:"centAmount"`
	Country      string `json:"country,omitempty"`
}

// Image переносится между продуктами как непрозрачное значение.
type Image struct {
	URL   string `json:"url"`
	Label string `json:"label,omitempty"`
}

// Variant — вариант продукта. SKU является неизменяемой идентичностью
// при сопоставлении между продуктами; ID назначается каталогом.
type Variant struct {
	ID         int64       `json:"id,omitempty"`
	SKU        string      `json:"sku"`
	Key        string      `json:"key,omitempty"`
	Attributes []Attribute `json:"attributes,omitempty"`
	Prices     []Price     `json:"prices,omitempty"`
	Images     []Image     `json:"images,omitempty"`
}

// AttributeValue возвращает значение атрибута по имени; отсутствие трактуется как nil.
func (v Variant) AttributeValue(name string) any {
	for _, attr := range v.Attributes {
		if attr.Name == name {
			return attr.Value
		}
	}
	return nil
}

// SetAttribute перезаписывает значение атрибута; nil удаляет его.
func (v *Variant) SetAttribute(name string, value any) {
	for i, attr := range v.Attributes {
		if attr.Name == name {
			if value == nil {
				v.Attributes = append(v.Attributes[:i], v.Attributes[i+1:]...)
				return
			}
			v.Attributes[i].Value = value
			return
		}
	}
	if value != nil {
		v.Attributes = append(v.Attributes, Attribute{Name: name, Value: value})
	}
}

// Projection — одна из двух параллельных проекций продукта (staged или current).
type Projection struct {
	Slug          LocalizedString `json:"slug"`
	MasterVariant Variant         `json:"masterVariant"`
	Variants      []Variant       `json:"variants,omitempty"`
	Published     bool            `json:"published,omitempty"`
}

// AllVariants возвращает master-вариант вместе с остальными вариантами.
func (p Projection) AllVariants() []Variant {
	out := make([]Variant, 0, len(p.Variants)+1)
	out = append(out, p.MasterVariant)
	out = append(out, p.Variants...)
	return out
}

// Product — существующая сущность каталога с двумя проекциями.
// Version — токен optimistic locking; перечитывается после каждой мутации.
type Product struct {
	ID            string     `json:"id"`
	Version       int64      `json:"version"`
	Key           string     `json:"key,omitempty"`
	ProductTypeID string     `json:"productTypeId"`
	TaxCategoryID string     `json:"taxCategoryId,omitempty"`
	StateID       string     `json:"stateId,omitempty"`
	Staged        Projection `json:"staged"`
	Current       Projection `json:"current"`
}

// AttributeDefinition описывает атрибут, объявленный в типе продукта.
// SameForAll означает, что значение обязано совпадать у всех вариантов.
type AttributeDefinition struct {
	Name       string `json:"name"`
	SameForAll bool   `json:"sameForAll"`
}

// ProductType содержит определения атрибутов для продуктов данного типа.
type ProductType struct {
	ID         string                `json:"id"`
	Name       string                `json:"name,omitempty"`
	Attributes []AttributeDefinition `json:"attributes,omitempty"`
}
