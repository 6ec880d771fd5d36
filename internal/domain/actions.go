package domain

// UpdateAction — одно изменение продукта в терминах каталога.
// Каждый вид действия представлен отдельным типом; выбор между
// идентификацией по variantId и по sku делается явно при построении.
type UpdateAction interface {
	// ActionName возвращает имя действия в словаре каталога.
	ActionName() string
}

// Publish копирует staged-проекцию в current.
type Publish struct{}

func (Publish) ActionName() string { return "publish" }

// Unpublish снимает продукт с публикации.
type Unpublish struct{}

func (Unpublish) ActionName() string { return "unpublish" }

// AddVariant добавляет вариант в staged-проекцию.
type AddVariant struct {
	SKU        string
	Key        string
	Attributes []Attribute
	Prices     []Price
	Images     []Image
	Staged     bool
}

func (AddVariant) ActionName() string { return "addVariant" }

// RemoveVariantByID удаляет вариант по каталожному идентификатору.
type RemoveVariantByID struct {
	VariantID int64
	Staged    bool
}

func (RemoveVariantByID) ActionName() string { return "removeVariant" }

// RemoveVariantBySKU удаляет вариант по SKU, когда каталожный ID неизвестен.
type RemoveVariantBySKU struct {
	SKU    string
	Staged bool
}

func (RemoveVariantBySKU) ActionName() string { return "removeVariant" }

// ChangeMasterVariant назначает новый master-вариант по SKU.
type ChangeMasterVariant struct {
	SKU    string
	Staged bool
}

func (ChangeMasterVariant) ActionName() string { return "changeMasterVariant" }

// SetAttributeInAllVariants выставляет значение атрибута во всех вариантах.
// Value == nil означает удаление атрибута.
type SetAttributeInAllVariants struct {
	Name   string
	Value  any
	Staged bool
}

func (SetAttributeInAllVariants) ActionName() string { return "setAttributeInAllVariants" }

// SetKey меняет key продукта.
type SetKey struct {
	Key string
}

func (SetKey) ActionName() string { return "setKey" }

// ChangeSlug меняет slug staged-проекции.
type ChangeSlug struct {
	Slug LocalizedString
}

func (ChangeSlug) ActionName() string { return "changeSlug" }

// RemoveVariantAction строит действие удаления, предпочитая variantId,
// когда вариант им обладает, и sku в остальных случаях.
func RemoveVariantAction(v Variant, staged bool) UpdateAction {
	if v.ID != 0 {
		return RemoveVariantByID{VariantID: v.ID, Staged: staged}
	}
	return RemoveVariantBySKU{SKU: v.SKU, Staged: staged}
}

// AddVariantAction строит действие добавления варианта в staged-проекцию.
func AddVariantAction(v Variant) UpdateAction {
	return AddVariant{
		SKU:        v.SKU,
		Key:        v.Key,
		Attributes: v.Attributes,
		Prices:     v.Prices,
		Images:     v.Images,
		Staged:     true,
	}
}
