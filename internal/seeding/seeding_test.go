package seeding

import (
	"context"
	"regexp"
	"strings"
	"testing"

	"github.com/uptrace/bun"

	"github.com/goliatone/go-translations/pkg/testsupport"
	"github.com/goliatone/go-translations/translations"
)

func newDB(t *testing.T) *bun.DB {
	t.Helper()
	db := testsupport.NewSQLiteDB(t)
	translations.RegisterModels(db)
	if err := translations.CreateSchema(context.Background(), db); err != nil {
		t.Fatalf("CreateSchema: %v", err)
	}
	return db
}

type recordingInvalidator struct {
	locales map[string]int
}

func (r *recordingInvalidator) InvalidateLocale(_ context.Context, code string) {
	if r.locales == nil {
		r.locales = map[string]int{}
	}
	r.locales[code]++
}

func TestSeedIsIdempotent(t *testing.T) {
	ctx := context.Background()
	db := newDB(t)
	locales := translations.NewLocaleRepository(db)
	tags := translations.NewTagRepository(db)

	first, err := Seed(ctx, locales, tags)
	if err != nil {
		t.Fatalf("Seed: %v", err)
	}
	second, err := Seed(ctx, locales, tags)
	if err != nil {
		t.Fatalf("second Seed: %v", err)
	}

	if len(first.Locales) != 3 || len(first.Tags) != 3 {
		t.Fatalf("unexpected seed result %+v", first)
	}
	for i := range first.Locales {
		if first.Locales[i].ID != second.Locales[i].ID {
			t.Fatalf("expected locale %s to be reused", first.Locales[i].Code)
		}
	}

	all, err := locales.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 3 || all[0].Code != "en" || all[0].Name != "English" {
		t.Fatalf("unexpected locales %+v", all)
	}
}

func TestGenerate(t *testing.T) {
	ctx := context.Background()
	db := newDB(t)
	invalidator := &recordingInvalidator{}
	gen := NewGenerator(db, WithBatchSize(40), WithInvalidator(invalidator))

	summary, err := gen.Generate(ctx, GenerateOptions{Count: 100, Locales: 3, Tags: 5, Seed: 42})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if summary.Generated != 100 || summary.Translations != 100 || summary.Locales != 3 || summary.Tags != 5 {
		t.Fatalf("unexpected summary %+v", summary)
	}
	if len(invalidator.locales) == 0 {
		t.Fatal("expected touched locales to be invalidated")
	}
	for code := range invalidator.locales {
		if code != "en" && code != "fr" && code != "es" {
			t.Fatalf("unexpected invalidated locale %q", code)
		}
	}

	var rows []translations.Translation
	if err := db.NewSelect().Model(&rows).Relation("Locale").Relation("Tags").Scan(ctx); err != nil {
		t.Fatalf("load rows: %v", err)
	}
	keyPattern := regexp.MustCompile(`^[a-z_]+_\d+$`)
	for _, row := range rows {
		if !keyPattern.MatchString(row.Key) {
			t.Fatalf("unexpected key %q", row.Key)
		}
		if !strings.HasSuffix(row.Content, " in "+row.LocaleCode()) {
			t.Fatalf("unexpected content %q for locale %s", row.Content, row.LocaleCode())
		}
		if n := len(row.Tags); n < 1 || n > 3 {
			t.Fatalf("expected 1-3 tags on %s, got %d", row.Key, n)
		}
	}
}

func TestGenerateTwiceDoesNotCollide(t *testing.T) {
	ctx := context.Background()
	db := newDB(t)
	gen := NewGenerator(db)

	if _, err := gen.Generate(ctx, GenerateOptions{Count: 20, Locales: 1, Tags: 1, Seed: 1}); err != nil {
		t.Fatalf("first Generate: %v", err)
	}
	summary, err := gen.Generate(ctx, GenerateOptions{Count: 20, Locales: 1, Tags: 1, Seed: 1})
	if err != nil {
		t.Fatalf("second Generate: %v", err)
	}
	if summary.Translations != 40 {
		t.Fatalf("expected 40 rows, got %d", summary.Translations)
	}
}

func TestGenerateValidatesOptions(t *testing.T) {
	gen := NewGenerator(newDB(t))
	cases := []GenerateOptions{
		{Count: -1, Locales: 1, Tags: 1},
		{Count: 1, Locales: 0, Tags: 1},
		{Count: 1, Locales: 11, Tags: 1},
		{Count: 1, Locales: 1, Tags: 6},
	}
	for _, opts := range cases {
		if _, err := gen.Generate(context.Background(), opts); err == nil {
			t.Fatalf("expected error for %+v", opts)
		}
	}
}

func TestTitleCase(t *testing.T) {
	if got := titleCase(strings.ReplaceAll("thank_you_12", "_", " ")); got != "Thank You 12" {
		t.Fatalf("unexpected %q", got)
	}
}
