package seeding

import (
	"context"
	"fmt"

	"github.com/goliatone/go-translations/translations"
)

// DefaultLocales are created by Seed, as code/name pairs.
var DefaultLocales = [][2]string{
	{"en", "English"},
	{"fr", "French"},
	{"es", "Spanish"},
}

// DefaultTags are created by Seed.
var DefaultTags = []string{"mobile", "desktop", "web"}

// SeedResult lists the reference data present after seeding.
type SeedResult struct {
	Locales []*translations.Locale
	Tags    []*translations.Tag
}

// Seed creates the default locales and tags. Existing rows are left as they
// are, so running it twice is a no-op.
func Seed(ctx context.Context, locales *translations.LocaleRepository, tags *translations.TagRepository) (SeedResult, error) {
	var result SeedResult

	for _, pair := range DefaultLocales {
		locale, err := locales.Ensure(ctx, pair[0], pair[1])
		if err != nil {
			return SeedResult{}, fmt.Errorf("seed locale %s: %w", pair[0], err)
		}
		result.Locales = append(result.Locales, locale)
	}

	for _, name := range DefaultTags {
		tag, err := tags.Ensure(ctx, name)
		if err != nil {
			return SeedResult{}, fmt.Errorf("seed tag %s: %w", name, err)
		}
		result.Tags = append(result.Tags, tag)
	}

	return result, nil
}
