package translations

import (
	"context"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect"
)

// Search returns one page of live translations matching every non-empty
// filter, ordered by key then id. It issues a count query, a page query that
// joins the locale and a single batched query for the tags of the page.
func (r *BunRepository) Search(ctx context.Context, filters SearchFilters) (*Page, error) {
	filters = filters.Normalize()

	total, err := r.db.NewSelect().
		Model((*Translation)(nil)).
		Apply(r.applyFilters(filters)).
		Count(ctx)
	if err != nil {
		return nil, storeError(err, "search count")
	}

	offset := (filters.Page - 1) * filters.PerPage
	if total == 0 || offset >= total {
		return newPage(nil, filters, total), nil
	}

	var records []*Translation
	if err := r.db.NewSelect().
		Model(&records).
		Relation("Locale").
		Relation("Tags", orderTags).
		Apply(r.applyFilters(filters)).
		OrderExpr("?TableAlias.? ASC, ?TableAlias.id ASC", bun.Ident("key")).
		Limit(filters.PerPage).
		Offset(offset).
		Scan(ctx); err != nil {
		return nil, storeError(err, "search")
	}

	return newPage(records, filters, total), nil
}

func (r *BunRepository) applyFilters(filters SearchFilters) func(*bun.SelectQuery) *bun.SelectQuery {
	return func(q *bun.SelectQuery) *bun.SelectQuery {
		if filters.Key != "" {
			q = q.Where(r.containsExpr(), bun.Ident("key"), filters.Key)
		}
		if filters.Content != "" {
			q = q.Where(r.containsExpr(), bun.Ident("content"), filters.Content)
		}
		if filters.Locale != "" {
			q = q.Where("EXISTS (SELECT 1 FROM locales AS lf WHERE lf.id = ?TableAlias.locale_id AND lf.code = ?)", filters.Locale)
		}
		if filters.Tag != "" {
			q = q.Where("EXISTS (SELECT 1 FROM translation_tag AS ttf JOIN tags AS tf ON tf.id = ttf.tag_id WHERE ttf.translation_id = ?TableAlias.id AND tf.name = ?)", filters.Tag)
		}
		return q
	}
}

// containsExpr is a literal, case-sensitive substring test. LIKE is avoided:
// it treats % and _ as wildcards and is case-insensitive on sqlite.
func (r *BunRepository) containsExpr() string {
	if r.db.Dialect().Name() == dialect.PG {
		return "strpos(?TableAlias.?, ?) > 0"
	}
	return "instr(?TableAlias.?, ?) > 0"
}
