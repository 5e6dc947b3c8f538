package translations

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-translations/internal/logging"
	"github.com/goliatone/go-translations/pkg/interfaces"
)

// Repository is the read/write contract for translations.
type Repository interface {
	Create(ctx context.Context, in CreateInput) (*Translation, error)
	Update(ctx context.Context, existing *Translation, in UpdateInput) (*Translation, error)
	// Delete soft-deletes existing and reports whether a live row was affected.
	Delete(ctx context.Context, existing *Translation) (bool, error)
	// FindByID returns found=false for missing and soft-deleted rows.
	FindByID(ctx context.Context, id uuid.UUID) (*Translation, bool, error)
	Search(ctx context.Context, filters SearchFilters) (*Page, error)
	ExportByLocale(ctx context.Context, localeCode string) (Export, error)
}

// BunRepository implements Repository on a bun database. Every mutation runs
// in a single transaction.
type BunRepository struct {
	db     *bun.DB
	logger interfaces.Logger
}

var _ Repository = (*BunRepository)(nil)

// Option customises a BunRepository.
type Option func(*BunRepository)

func WithLogger(logger interfaces.Logger) Option {
	return func(r *BunRepository) {
		if logger != nil {
			r.logger = logger
		}
	}
}

func NewBunRepository(db *bun.DB, opts ...Option) *BunRepository {
	repo := &BunRepository{db: db, logger: logging.NoOp()}
	for _, opt := range opts {
		opt(repo)
	}
	return repo
}

func (r *BunRepository) Create(ctx context.Context, in CreateInput) (*Translation, error) {
	if strings.TrimSpace(in.Key) == "" {
		return nil, &ValidationError{Field: "key", Message: "cannot be blank"}
	}
	if utf8.RuneCountInString(in.Key) > MaxKeyLength {
		return nil, &ValidationError{Field: "key", Message: fmt.Sprintf("must be at most %d characters", MaxKeyLength)}
	}
	if in.LocaleID == uuid.Nil {
		return nil, &ValidationError{Field: "locale_id", Message: "is required"}
	}

	now := time.Now().UTC()
	record := &Translation{
		ID:        uuid.New(),
		Key:       in.Key,
		LocaleID:  in.LocaleID,
		Content:   in.Content,
		CreatedAt: now,
		UpdatedAt: now,
	}
	tagIDs := uniqueIDs(in.Tags)

	err := r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		exists, err := tx.NewSelect().
			Model((*Locale)(nil)).
			Where("?TableAlias.id = ?", in.LocaleID).
			Exists(ctx)
		if err != nil {
			return fmt.Errorf("check locale: %w", err)
		}
		if !exists {
			return &ValidationError{Field: "locale_id", Message: "locale does not exist"}
		}

		if err := ensureTagsExist(ctx, tx, tagIDs); err != nil {
			return err
		}

		if _, err := tx.NewInsert().Model(record).Exec(ctx); err != nil {
			return err
		}

		return attachTags(ctx, tx, record.ID, tagIDs)
	})
	if err != nil {
		return nil, classifyStoreError(err, "create", in)
	}

	r.logger.Debug("translation created", "translation_id", record.ID, "key", record.Key)
	return r.reload(ctx, record.ID)
}

func (r *BunRepository) Update(ctx context.Context, existing *Translation, in UpdateInput) (*Translation, error) {
	if existing == nil || existing.ID == uuid.Nil {
		return nil, &ValidationError{Field: "id", Message: "is required"}
	}
	if in.Key != nil {
		if strings.TrimSpace(*in.Key) == "" {
			return nil, &ValidationError{Field: "key", Message: "cannot be blank"}
		}
		if utf8.RuneCountInString(*in.Key) > MaxKeyLength {
			return nil, &ValidationError{Field: "key", Message: fmt.Sprintf("must be at most %d characters", MaxKeyLength)}
		}
	}

	id := existing.ID
	conflictKey := CreateInput{Key: existing.Key, LocaleID: existing.LocaleID}
	if in.Key != nil {
		conflictKey.Key = *in.Key
	}

	err := r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		current := new(Translation)
		if err := tx.NewSelect().
			Model(current).
			Where("?TableAlias.id = ?", id).
			Scan(ctx); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return &NotFoundError{Resource: "translation", Key: id.String()}
			}
			return fmt.Errorf("load translation: %w", err)
		}
		conflictKey.LocaleID = current.LocaleID

		columns := make([]string, 0, 3)
		if in.Key != nil {
			current.Key = *in.Key
			columns = append(columns, "key")
		}
		if in.Content != nil {
			current.Content = *in.Content
			columns = append(columns, "content")
		}
		if len(columns) > 0 || in.Tags != nil {
			current.UpdatedAt = time.Now().UTC()
			columns = append(columns, "updated_at")

			res, err := tx.NewUpdate().
				Model(current).
				Column(columns...).
				WherePK().
				Exec(ctx)
			if err != nil {
				return err
			}
			if affected, err := res.RowsAffected(); err == nil && affected == 0 {
				return &NotFoundError{Resource: "translation", Key: id.String()}
			}
		}

		if in.Tags == nil {
			return nil
		}
		return syncTags(ctx, tx, id, uniqueIDs(*in.Tags))
	})
	if err != nil {
		return nil, classifyStoreError(err, "update", conflictKey)
	}

	r.logger.Debug("translation updated", "translation_id", id)
	return r.reload(ctx, id)
}

func (r *BunRepository) Delete(ctx context.Context, existing *Translation) (bool, error) {
	if existing == nil || existing.ID == uuid.Nil {
		return false, &ValidationError{Field: "id", Message: "is required"}
	}

	var affected int64
	err := r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		res, err := tx.NewDelete().
			Model(&Translation{ID: existing.ID}).
			WherePK().
			Exec(ctx)
		if err != nil {
			return err
		}
		affected, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return false, storeError(err, "delete")
	}

	if affected > 0 {
		r.logger.Debug("translation deleted", "translation_id", existing.ID)
	}
	return affected > 0, nil
}

func (r *BunRepository) FindByID(ctx context.Context, id uuid.UUID) (*Translation, bool, error) {
	record := new(Translation)
	err := r.db.NewSelect().
		Model(record).
		Relation("Locale").
		Relation("Tags", orderTags).
		Where("?TableAlias.id = ?", id).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, storeError(err, "find")
	}
	return record, true, nil
}

func (r *BunRepository) reload(ctx context.Context, id uuid.UUID) (*Translation, error) {
	record, found, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, &NotFoundError{Resource: "translation", Key: id.String()}
	}
	return record, nil
}

func orderTags(q *bun.SelectQuery) *bun.SelectQuery {
	return q.OrderExpr("?TableAlias.name ASC")
}

func ensureTagsExist(ctx context.Context, tx bun.Tx, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	count, err := tx.NewSelect().
		Model((*Tag)(nil)).
		Where("?TableAlias.id IN (?)", bun.In(ids)).
		Count(ctx)
	if err != nil {
		return fmt.Errorf("check tags: %w", err)
	}
	if count != len(ids) {
		return &ValidationError{Field: "tags", Message: "one or more tags do not exist"}
	}
	return nil
}

func attachTags(ctx context.Context, tx bun.Tx, translationID uuid.UUID, tagIDs []uuid.UUID) error {
	if len(tagIDs) == 0 {
		return nil
	}
	edges := make([]*TranslationTag, 0, len(tagIDs))
	for _, tagID := range tagIDs {
		edges = append(edges, &TranslationTag{TranslationID: translationID, TagID: tagID})
	}
	if _, err := tx.NewInsert().Model(&edges).Exec(ctx); err != nil {
		return fmt.Errorf("attach tags: %w", err)
	}
	return nil
}

// syncTags makes the tag set of translationID equal to want, touching only
// the edges that differ.
func syncTags(ctx context.Context, tx bun.Tx, translationID uuid.UUID, want []uuid.UUID) error {
	if err := ensureTagsExist(ctx, tx, want); err != nil {
		return err
	}

	var current []uuid.UUID
	if err := tx.NewSelect().
		Model((*TranslationTag)(nil)).
		Column("tag_id").
		Where("?TableAlias.translation_id = ?", translationID).
		Scan(ctx, &current); err != nil {
		return fmt.Errorf("load tags: %w", err)
	}

	detach, attach := diffIDs(current, want)
	if len(detach) > 0 {
		if _, err := tx.NewDelete().
			Model((*TranslationTag)(nil)).
			Where("?TableAlias.translation_id = ?", translationID).
			Where("?TableAlias.tag_id IN (?)", bun.In(detach)).
			Exec(ctx); err != nil {
			return fmt.Errorf("detach tags: %w", err)
		}
	}
	return attachTags(ctx, tx, translationID, attach)
}

// diffIDs returns the ids in current but not want, and in want but not
// current.
func diffIDs(current, want []uuid.UUID) (detach, attach []uuid.UUID) {
	have := make(map[uuid.UUID]struct{}, len(current))
	for _, id := range current {
		have[id] = struct{}{}
	}
	wanted := make(map[uuid.UUID]struct{}, len(want))
	for _, id := range want {
		wanted[id] = struct{}{}
		if _, ok := have[id]; !ok {
			attach = append(attach, id)
		}
	}
	for _, id := range current {
		if _, ok := wanted[id]; !ok {
			detach = append(detach, id)
		}
	}
	return detach, attach
}

func uniqueIDs(ids []uuid.UUID) []uuid.UUID {
	if len(ids) == 0 {
		return nil
	}
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
