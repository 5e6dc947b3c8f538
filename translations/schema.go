package translations

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

// RegisterModels registers the association model used by the m2m relation.
// It must run before any query touching Translation.Tags.
func RegisterModels(db *bun.DB) {
	db.RegisterModel((*TranslationTag)(nil))
}

var schemaIndexes = []string{
	`CREATE UNIQUE INDEX IF NOT EXISTS translations_key_locale_live_idx ON translations ("key", locale_id) WHERE deleted_at IS NULL`,
	`CREATE INDEX IF NOT EXISTS translations_key_idx ON translations ("key")`,
	`CREATE INDEX IF NOT EXISTS translations_locale_id_idx ON translations (locale_id)`,
	`CREATE INDEX IF NOT EXISTS translation_tag_tag_id_idx ON translation_tag (tag_id)`,
}

// CreateSchema creates tables and indexes when they do not exist. It is
// safe to run repeatedly.
func CreateSchema(ctx context.Context, db bun.IDB) error {
	tables := []struct {
		model any
		fks   []string
	}{
		{model: (*Locale)(nil)},
		{model: (*Tag)(nil)},
		{model: (*Translation)(nil), fks: []string{
			`("locale_id") REFERENCES "locales" ("id") ON DELETE CASCADE`,
		}},
		{model: (*TranslationTag)(nil), fks: []string{
			`("translation_id") REFERENCES "translations" ("id") ON DELETE CASCADE`,
			`("tag_id") REFERENCES "tags" ("id") ON DELETE CASCADE`,
		}},
	}

	for _, table := range tables {
		q := db.NewCreateTable().Model(table.model).IfNotExists()
		for _, fk := range table.fks {
			q = q.ForeignKey(fk)
		}
		if _, err := q.Exec(ctx); err != nil {
			return fmt.Errorf("create table %T: %w", table.model, err)
		}
	}

	for _, stmt := range schemaIndexes {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create index: %w", err)
		}
	}
	return nil
}
