package di

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/goliatone/go-translations/internal/seeding"
	"github.com/goliatone/go-translations/translations"
)

// TestConcurrentExportsAndWrites interleaves exports with writes on several
// locales and checks that, once writers finish, every cached export matches
// the store.
func TestConcurrentExportsAndWrites(t *testing.T) {
	ctx := context.Background()
	container := newTestContainer(t)

	locales := map[string]*translations.Locale{}
	for _, code := range []string{"en", "fr", "es"} {
		locale, err := container.Locales().Ensure(ctx, code, code)
		if err != nil {
			t.Fatal(err)
		}
		locales[code] = locale
	}

	repo := container.Translations()
	base := translations.NewBunRepository(container.DB())

	const workers = 12
	const writesPerWorker = 10

	var wg sync.WaitGroup
	errs := make(chan error, workers*writesPerWorker*2)

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			code := []string{"en", "fr", "es"}[worker%3]

			for i := 0; i < writesPerWorker; i++ {
				_, err := repo.Create(ctx, translations.CreateInput{
					Key:      fmt.Sprintf("key_%d_%d", worker, i),
					LocaleID: locales[code].ID,
					Content:  fmt.Sprintf("content %d", i),
				})
				if err != nil {
					errs <- fmt.Errorf("worker %d create %d: %w", worker, i, err)
					continue
				}
				if _, err := repo.ExportByLocale(ctx, code); err != nil {
					errs <- fmt.Errorf("worker %d export %d: %w", worker, i, err)
				}
			}
		}(w)
	}

	wg.Wait()
	close(errs)

	var errorCount int
	for err := range errs {
		t.Error(err)
		errorCount++
		if errorCount > 10 {
			t.Error("... and more errors")
			break
		}
	}
	if errorCount > 0 {
		t.Fatalf("Concurrent test failed with %d errors", errorCount)
	}

	for code := range locales {
		cached, err := repo.ExportByLocale(ctx, code)
		if err != nil {
			t.Fatal(err)
		}
		fresh, err := base.ExportByLocale(ctx, code)
		if err != nil {
			t.Fatal(err)
		}
		if len(cached) != len(fresh) || len(fresh) != workers/3*writesPerWorker {
			t.Fatalf("locale %s: cached %d entries, store has %d", code, len(cached), len(fresh))
		}
		for i := range fresh {
			if cached[i] != fresh[i] {
				t.Fatalf("locale %s: entry %d differs: %+v vs %+v", code, i, cached[i], fresh[i])
			}
		}
	}
}

func newBenchContainer(b *testing.B, rows int) *Container {
	b.Helper()
	container := newTestContainer(b)
	_, err := container.Generator().Generate(context.Background(), seeding.GenerateOptions{
		Count:   rows,
		Locales: 3,
		Tags:    5,
		Seed:    1,
	})
	if err != nil {
		b.Fatalf("Generate() failed: %v", err)
	}
	return container
}

func BenchmarkExportByLocaleCached(b *testing.B) {
	container := newBenchContainer(b, 10000)
	repo := container.Translations()
	ctx := context.Background()

	if _, err := repo.ExportByLocale(ctx, "en"); err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := repo.ExportByLocale(ctx, "en"); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkExportByLocaleUncached(b *testing.B) {
	container := newBenchContainer(b, 10000)
	repo := translations.NewBunRepository(container.DB())
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := repo.ExportByLocale(ctx, "en"); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkSearchByTag(b *testing.B) {
	container := newBenchContainer(b, 10000)
	repo := container.Translations()
	ctx := context.Background()
	filters := translations.SearchFilters{Key: "home", Tag: "web"}.Normalize()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := repo.Search(ctx, filters); err != nil {
			b.Fatal(err)
		}
	}
}
