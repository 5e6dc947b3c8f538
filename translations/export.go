package translations

import (
	"context"

	"github.com/uptrace/bun"
)

// ExportByLocale streams every live translation of the locale ordered by key.
// An unknown locale yields an empty export.
func (r *BunRepository) ExportByLocale(ctx context.Context, localeCode string) (Export, error) {
	rows, err := r.db.NewSelect().
		Model((*Translation)(nil)).
		Column("key", "content").
		Where("?TableAlias.locale_id = (SELECT lx.id FROM locales AS lx WHERE lx.code = ?)", localeCode).
		OrderExpr("?TableAlias.? ASC", bun.Ident("key")).
		Rows(ctx)
	if err != nil {
		return nil, storeError(err, "export")
	}
	defer rows.Close()

	export := Export{}
	for rows.Next() {
		var entry ExportEntry
		if err := rows.Scan(&entry.Key, &entry.Content); err != nil {
			return nil, storeError(err, "export scan")
		}
		export = append(export, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, storeError(err, "export rows")
	}

	r.logger.Debug("translations exported", "locale", localeCode, "count", len(export))
	return export, nil
}
