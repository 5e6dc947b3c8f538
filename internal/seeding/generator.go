package seeding

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-translations/internal/logging"
	"github.com/goliatone/go-translations/pkg/interfaces"
	"github.com/goliatone/go-translations/translations"
)

const DefaultBatchSize = 1000

// GeneratorLocales are taken in order when generating locales.
var GeneratorLocales = [][2]string{
	{"en", "English"},
	{"fr", "French"},
	{"es", "Spanish"},
	{"de", "German"},
	{"it", "Italian"},
	{"pt", "Portuguese"},
	{"nl", "Dutch"},
	{"sv", "Swedish"},
	{"no", "Norwegian"},
	{"da", "Danish"},
}

// GeneratorTags are taken in order when generating tags.
var GeneratorTags = []string{"mobile", "desktop", "web", "api", "admin"}

var baseKeys = []string{
	"welcome", "goodbye", "hello", "thank_you", "please", "sorry", "yes", "no",
	"login", "logout", "register", "profile", "settings", "dashboard", "home",
	"about", "contact", "help", "support", "documentation", "tutorial", "guide",
	"error", "success", "warning", "info", "loading", "saving", "deleted", "updated",
	"create", "edit", "delete", "save", "cancel", "submit", "search", "filter",
	"sort", "asc", "desc", "page", "next", "previous", "first", "last", "total",
}

// Invalidator drops cached exports for a locale.
type Invalidator interface {
	InvalidateLocale(ctx context.Context, localeCode string)
}

// GenerateOptions controls a bulk generation run.
type GenerateOptions struct {
	Count   int
	Locales int
	Tags    int
	// Seed makes the run reproducible. Zero picks a random seed.
	Seed uint64
}

// Summary reports row counts after a generation run.
type Summary struct {
	Generated    int
	Locales      int
	Tags         int
	Translations int
}

// Generator bulk-inserts synthetic translations for load testing.
type Generator struct {
	db          *bun.DB
	locales     *translations.LocaleRepository
	tags        *translations.TagRepository
	invalidator Invalidator
	batchSize   int
	logger      interfaces.Logger
}

type GeneratorOption func(*Generator)

func WithInvalidator(invalidator Invalidator) GeneratorOption {
	return func(g *Generator) {
		g.invalidator = invalidator
	}
}

func WithBatchSize(size int) GeneratorOption {
	return func(g *Generator) {
		if size > 0 {
			g.batchSize = size
		}
	}
}

func WithLogger(logger interfaces.Logger) GeneratorOption {
	return func(g *Generator) {
		if logger != nil {
			g.logger = logger
		}
	}
}

func NewGenerator(db *bun.DB, opts ...GeneratorOption) *Generator {
	g := &Generator{
		db:        db,
		locales:   translations.NewLocaleRepository(db),
		tags:      translations.NewTagRepository(db),
		batchSize: DefaultBatchSize,
		logger:    logging.NoOp(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate ensures the first opts.Locales locales and opts.Tags tags exist,
// then inserts opts.Count translations spread randomly across them, each
// with one to three tags. Keys are numbered after the existing row count so
// repeated runs never collide. Exports of the touched locales are
// invalidated after the insert commits.
func (g *Generator) Generate(ctx context.Context, opts GenerateOptions) (Summary, error) {
	if opts.Count < 0 {
		return Summary{}, errors.New("seeding: count must not be negative")
	}
	if opts.Locales < 1 || opts.Locales > len(GeneratorLocales) {
		return Summary{}, fmt.Errorf("seeding: locales must be between 1 and %d", len(GeneratorLocales))
	}
	if opts.Tags < 1 || opts.Tags > len(GeneratorTags) {
		return Summary{}, fmt.Errorf("seeding: tags must be between 1 and %d", len(GeneratorTags))
	}

	locales := make([]*translations.Locale, 0, opts.Locales)
	for _, pair := range GeneratorLocales[:opts.Locales] {
		locale, err := g.locales.Ensure(ctx, pair[0], pair[1])
		if err != nil {
			return Summary{}, fmt.Errorf("ensure locale %s: %w", pair[0], err)
		}
		locales = append(locales, locale)
	}

	tags := make([]*translations.Tag, 0, opts.Tags)
	for _, name := range GeneratorTags[:opts.Tags] {
		tag, err := g.tags.Ensure(ctx, name)
		if err != nil {
			return Summary{}, fmt.Errorf("ensure tag %s: %w", name, err)
		}
		tags = append(tags, tag)
	}

	seed := opts.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	rng := rand.New(rand.NewPCG(seed, seed>>1|1))

	touched := make(map[string]struct{}, len(locales))
	start := time.Now()

	err := g.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		offset, err := tx.NewSelect().
			Model((*translations.Translation)(nil)).
			WhereAllWithDeleted().
			Count(ctx)
		if err != nil {
			return fmt.Errorf("count translations: %w", err)
		}

		for done := 0; done < opts.Count; {
			size := min(g.batchSize, opts.Count-done)
			rows, edges := g.buildBatch(rng, offset+done, size, locales, tags, touched)

			if _, err := tx.NewInsert().Model(&rows).Exec(ctx); err != nil {
				return fmt.Errorf("insert translations: %w", err)
			}
			if _, err := tx.NewInsert().Model(&edges).Exec(ctx); err != nil {
				return fmt.Errorf("insert translation tags: %w", err)
			}

			done += size
			g.logger.Debug("generated batch", "done", done, "total", opts.Count)
		}
		return nil
	})
	if err != nil {
		return Summary{}, err
	}

	if g.invalidator != nil {
		for code := range touched {
			g.invalidator.InvalidateLocale(ctx, code)
		}
	}

	summary, err := g.summary(ctx)
	if err != nil {
		return Summary{}, err
	}
	summary.Generated = opts.Count

	g.logger.Info("translations generated",
		"count", opts.Count,
		"locales", len(locales),
		"tags", len(tags),
		"duration", time.Since(start),
	)
	return summary, nil
}

func (g *Generator) buildBatch(
	rng *rand.Rand,
	offset, size int,
	locales []*translations.Locale,
	tags []*translations.Tag,
	touched map[string]struct{},
) ([]translations.Translation, []translations.TranslationTag) {
	now := time.Now().UTC()
	rows := make([]translations.Translation, 0, size)
	edges := make([]translations.TranslationTag, 0, size*2)

	for i := range size {
		key := fmt.Sprintf("%s_%d", baseKeys[rng.IntN(len(baseKeys))], offset+i)
		locale := locales[rng.IntN(len(locales))]
		touched[locale.Code] = struct{}{}

		row := translations.Translation{
			ID:        uuid.New(),
			Key:       key,
			LocaleID:  locale.ID,
			Content:   titleCase(strings.ReplaceAll(key, "_", " ")) + " in " + locale.Code,
			CreatedAt: now,
			UpdatedAt: now,
		}
		rows = append(rows, row)

		picks := 1 + rng.IntN(min(3, len(tags)))
		for _, idx := range rng.Perm(len(tags))[:picks] {
			edges = append(edges, translations.TranslationTag{
				TranslationID: row.ID,
				TagID:         tags[idx].ID,
			})
		}
	}
	return rows, edges
}

func (g *Generator) summary(ctx context.Context) (Summary, error) {
	var (
		s   Summary
		err error
	)
	if s.Locales, err = g.db.NewSelect().Model((*translations.Locale)(nil)).Count(ctx); err != nil {
		return Summary{}, fmt.Errorf("count locales: %w", err)
	}
	if s.Tags, err = g.db.NewSelect().Model((*translations.Tag)(nil)).Count(ctx); err != nil {
		return Summary{}, fmt.Errorf("count tags: %w", err)
	}
	if s.Translations, err = g.db.NewSelect().Model((*translations.Translation)(nil)).Count(ctx); err != nil {
		return Summary{}, fmt.Errorf("count translations: %w", err)
	}
	return s, nil
}

// titleCase upper-cases the first letter of every space separated word.
func titleCase(s string) string {
	words := strings.Split(s, " ")
	for i, word := range words {
		r, size := utf8.DecodeRuneInString(word)
		if r == utf8.RuneError {
			continue
		}
		words[i] = string(unicode.ToUpper(r)) + word[size:]
	}
	return strings.Join(words, " ")
}
