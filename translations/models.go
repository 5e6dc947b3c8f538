package translations

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Locale is reference data identified by its code (en, fr, pt-BR).
type Locale struct {
	bun.BaseModel `bun:"table:locales,alias:l"`

	ID   uuid.UUID `bun:",pk,type:uuid" json:"id"`
	Code string    `bun:"code,notnull,unique" json:"code"`
	Name string    `bun:"name,notnull" json:"name"`
}

// Tag is a free-form category attached to translations.
type Tag struct {
	bun.BaseModel `bun:"table:tags,alias:tg"`

	ID   uuid.UUID `bun:",pk,type:uuid" json:"id"`
	Name string    `bun:"name,notnull,unique" json:"name"`
}

// Translation is one keyed text entry for a locale. At most one live row
// exists per (key, locale_id); soft-deleted rows keep their values.
type Translation struct {
	bun.BaseModel `bun:"table:translations,alias:t"`

	ID        uuid.UUID `bun:",pk,type:uuid" json:"id"`
	Key       string    `bun:"key,notnull,type:varchar(255)" json:"key"`
	LocaleID  uuid.UUID `bun:"locale_id,notnull,type:uuid" json:"locale_id"`
	Content   string    `bun:"content,notnull" json:"content"`
	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp" json:"updated_at"`
	DeletedAt time.Time `bun:"deleted_at,soft_delete,nullzero" json:"-"`

	Locale *Locale `bun:"rel:belongs-to,join:locale_id=id" json:"locale,omitempty"`
	Tags   []*Tag  `bun:"m2m:translation_tag,join:Translation=Tag" json:"tags"`
}

// TranslationTag is the association row between a translation and a tag.
type TranslationTag struct {
	bun.BaseModel `bun:"table:translation_tag,alias:tt"`

	TranslationID uuid.UUID    `bun:"translation_id,pk,type:uuid"`
	Translation   *Translation `bun:"rel:belongs-to,join:translation_id=id"`
	TagID         uuid.UUID    `bun:"tag_id,pk,type:uuid"`
	Tag           *Tag         `bun:"rel:belongs-to,join:tag_id=id"`
}

// State is the lifecycle state of a translation.
type State string

const (
	StateActive  State = "active"
	StateDeleted State = "deleted"
)

// State reports whether the record is live or soft-deleted.
func (t *Translation) State() State {
	if t.IsDeleted() {
		return StateDeleted
	}
	return StateActive
}

func (t *Translation) IsDeleted() bool {
	return t != nil && !t.DeletedAt.IsZero()
}

// LocaleCode returns the code of the loaded locale, or "" when the relation
// was not loaded.
func (t *Translation) LocaleCode() string {
	if t == nil || t.Locale == nil {
		return ""
	}
	return t.Locale.Code
}

// TagIDs lists the ids of the loaded tags in load order.
func (t *Translation) TagIDs() []uuid.UUID {
	if t == nil {
		return nil
	}
	ids := make([]uuid.UUID, 0, len(t.Tags))
	for _, tag := range t.Tags {
		if tag != nil {
			ids = append(ids, tag.ID)
		}
	}
	return ids
}
