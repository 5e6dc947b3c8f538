package translations

import (
	"context"
	"strings"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

func NewLocaleModelRepository(db *bun.DB) repository.Repository[*Locale] {
	return repository.MustNewRepository(db, repository.ModelHandlers[*Locale]{
		NewRecord: func() *Locale { return &Locale{} },
		GetID: func(l *Locale) uuid.UUID {
			return l.ID
		},
		SetID: func(l *Locale, id uuid.UUID) {
			l.ID = id
		},
		GetIdentifier: func() string {
			return "code"
		},
		GetIdentifierValue: func(l *Locale) string {
			return l.Code
		},
	})
}

func NewTagModelRepository(db *bun.DB) repository.Repository[*Tag] {
	return repository.MustNewRepository(db, repository.ModelHandlers[*Tag]{
		NewRecord: func() *Tag { return &Tag{} },
		GetID: func(t *Tag) uuid.UUID {
			return t.ID
		},
		SetID: func(t *Tag, id uuid.UUID) {
			t.ID = id
		},
		GetIdentifier: func() string {
			return "name"
		},
		GetIdentifierValue: func(t *Tag) string {
			return t.Name
		},
	})
}

// LocaleRepository manages locale reference data.
type LocaleRepository struct {
	db   *bun.DB
	repo repository.Repository[*Locale]
}

func NewLocaleRepository(db *bun.DB) *LocaleRepository {
	return &LocaleRepository{db: db, repo: NewLocaleModelRepository(db)}
}

// Ensure returns the locale with code, creating it with name when absent.
func (r *LocaleRepository) Ensure(ctx context.Context, code, name string) (*Locale, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, &ValidationError{Field: "code", Message: "cannot be blank"}
	}

	existing, err := r.GetByCode(ctx, code)
	if err == nil {
		return existing, nil
	}
	if !isNotFound(err) {
		return nil, err
	}

	created, err := r.repo.Create(ctx, &Locale{ID: uuid.New(), Code: code, Name: name})
	if err != nil {
		// lost a race with a concurrent Ensure
		if existing, lookupErr := r.GetByCode(ctx, code); lookupErr == nil {
			return existing, nil
		}
		return nil, storeError(err, "create locale")
	}
	return created, nil
}

func (r *LocaleRepository) GetByCode(ctx context.Context, code string) (*Locale, error) {
	record, err := r.repo.GetByIdentifier(ctx, code)
	if err != nil {
		return nil, mapRepositoryError(err, "locale", code)
	}
	return record, nil
}

func (r *LocaleRepository) GetByID(ctx context.Context, id uuid.UUID) (*Locale, error) {
	record, err := r.repo.GetByID(ctx, id.String())
	if err != nil {
		return nil, mapRepositoryError(err, "locale", id.String())
	}
	return record, nil
}

// List returns every locale ordered by code. It bypasses the model
// repository's List, which pages at 25 rows.
func (r *LocaleRepository) List(ctx context.Context) ([]*Locale, error) {
	records := []*Locale{}
	err := r.db.NewSelect().
		Model(&records).
		OrderExpr("?TableAlias.code ASC").
		Scan(ctx)
	if err != nil {
		return nil, storeError(err, "list locales")
	}
	return records, nil
}

// TagRepository manages tag reference data.
type TagRepository struct {
	db   *bun.DB
	repo repository.Repository[*Tag]
}

func NewTagRepository(db *bun.DB) *TagRepository {
	return &TagRepository{db: db, repo: NewTagModelRepository(db)}
}

// Ensure returns the tag called name, creating it when absent.
func (r *TagRepository) Ensure(ctx context.Context, name string) (*Tag, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, &ValidationError{Field: "name", Message: "cannot be blank"}
	}

	existing, err := r.GetByName(ctx, name)
	if err == nil {
		return existing, nil
	}
	if !isNotFound(err) {
		return nil, err
	}

	created, err := r.repo.Create(ctx, &Tag{ID: uuid.New(), Name: name})
	if err != nil {
		if existing, lookupErr := r.GetByName(ctx, name); lookupErr == nil {
			return existing, nil
		}
		return nil, storeError(err, "create tag")
	}
	return created, nil
}

func (r *TagRepository) GetByName(ctx context.Context, name string) (*Tag, error) {
	record, err := r.repo.GetByIdentifier(ctx, name)
	if err != nil {
		return nil, mapRepositoryError(err, "tag", name)
	}
	return record, nil
}

// List returns every tag ordered by name, unpaged.
func (r *TagRepository) List(ctx context.Context) ([]*Tag, error) {
	records := []*Tag{}
	err := r.db.NewSelect().
		Model(&records).
		OrderExpr("?TableAlias.name ASC").
		Scan(ctx)
	if err != nil {
		return nil, storeError(err, "list tags")
	}
	return records, nil
}

func isNotFound(err error) bool {
	_, ok := err.(*NotFoundError)
	return ok
}
