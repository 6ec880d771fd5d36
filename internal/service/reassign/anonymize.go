package reassign

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/vladislavdragonenkov/reassign/internal/domain"
)

// SaltMarkerLocale — зарезервированный ключ локали, под которым хранится
// сырая соль анонимизации. Служит одновременно маркером и гарантией
// уникальности slug.
const SaltMarkerLocale = "ctsd"

// newSalt генерирует соль из случайной и временной компонент.
// Две последовательные или конкурентные анонимизации никогда не совпадают.
func newSalt(now time.Time) string {
	return fmt.Sprintf("%s-%d", uuid.NewString()[:8], now.UnixNano())
}

// AnonymizeDraft подсаливает slug и key драфта на месте.
func AnonymizeDraft(draft *domain.ProductDraft) {
	salt := newSalt(time.Now())
	slug := draft.Slug.Clone()
	if slug == nil {
		slug = domain.LocalizedString{}
	}
	for locale, value := range slug {
		slug[locale] = value + "-" + salt
	}
	slug[SaltMarkerLocale] = salt
	draft.Slug = slug
	if draft.Key != "" {
		draft.Key = draft.Key + "-" + salt
	}
}

// AnonymizeProductActions строит действия анонимизации уже сохранённого
// продукта: снятие с публикации (если опубликован), смена key и slug.
// Соль добавляется в каждую локаль объединённого slug обеих проекций.
func AnonymizeProductActions(product *domain.Product) []domain.UpdateAction {
	salt := newSalt(time.Now())

	slug := domain.LocalizedString{}
	for locale, value := range product.Current.Slug {
		slug[locale] = value + "-" + salt
	}
	for locale, value := range product.Staged.Slug {
		slug[locale] = value + "-" + salt
	}
	slug[SaltMarkerLocale] = salt

	var actions []domain.UpdateAction
	if product.Current.Published || product.Staged.Published {
		actions = append(actions, domain.Unpublish{})
	}
	if product.Key != "" {
		actions = append(actions, domain.SetKey{Key: product.Key + "-" + salt})
	}
	actions = append(actions, domain.ChangeSlug{Slug: slug})
	return actions
}
