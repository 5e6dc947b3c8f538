package translations

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"testing"

	"github.com/google/uuid"
)

func TestLocaleEnsureIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	again, err := f.locales.Ensure(ctx, "en", "Anglais")
	if err != nil {
		t.Fatalf("Ensure: %v", err)
	}
	if again.ID != f.en.ID || again.Name != "English" {
		t.Fatalf("expected existing locale, got %+v", again)
	}

	byID, err := f.locales.GetByID(ctx, f.en.ID)
	if err != nil || byID.Code != "en" {
		t.Fatalf("GetByID: %+v %v", byID, err)
	}

	list, err := f.locales.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 2 || list[0].Code != "en" || list[1].Code != "fr" {
		t.Fatalf("unexpected locales %+v", list)
	}
}

func TestLocaleLookupsMissing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	var notFound *NotFoundError
	if _, err := f.locales.GetByCode(ctx, "zz"); !errors.As(err, &notFound) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
	if _, err := f.locales.GetByID(ctx, uuid.New()); !errors.As(err, &notFound) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}

	var validationErr *ValidationError
	if _, err := f.locales.Ensure(ctx, "  ", "Blank"); !errors.As(err, &validationErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestTagEnsureAndList(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	again, err := f.tags.Ensure(ctx, "web")
	if err != nil || again.ID != f.web.ID {
		t.Fatalf("expected existing tag, got %+v %v", again, err)
	}
	if _, err := f.tags.Ensure(ctx, "desktop"); err != nil {
		t.Fatalf("Ensure: %v", err)
	}

	list, err := f.tags.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	names := make([]string, 0, len(list))
	for _, tag := range list {
		names = append(names, tag.Name)
	}
	if len(names) != 3 || names[0] != "desktop" || names[1] != "mobile" || names[2] != "web" {
		t.Fatalf("unexpected tags %v", names)
	}

	var notFound *NotFoundError
	if _, err := f.tags.GetByName(ctx, "Web"); !errors.As(err, &notFound) {
		t.Fatalf("expected case-sensitive lookup to miss, got %v", err)
	}
}

func TestReferenceListIsUnpaged(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for i := 0; i < 30; i++ {
		if _, err := f.locales.Ensure(ctx, fmt.Sprintf("x%02d", i), "Extra"); err != nil {
			t.Fatalf("Ensure locale: %v", err)
		}
		if _, err := f.tags.Ensure(ctx, fmt.Sprintf("t%02d", i)); err != nil {
			t.Fatalf("Ensure tag: %v", err)
		}
	}

	locales, err := f.locales.List(ctx)
	if err != nil {
		t.Fatalf("List locales: %v", err)
	}
	if len(locales) != 32 {
		t.Fatalf("expected 32 locales, got %d", len(locales))
	}
	if !sort.SliceIsSorted(locales, func(i, j int) bool { return locales[i].Code < locales[j].Code }) {
		t.Fatal("locales not ordered by code")
	}
	if locales[0].Code != "en" || locales[31].Code != "x29" {
		t.Fatalf("unexpected bounds %s..%s", locales[0].Code, locales[31].Code)
	}

	tags, err := f.tags.List(ctx)
	if err != nil {
		t.Fatalf("List tags: %v", err)
	}
	if len(tags) != 32 {
		t.Fatalf("expected 32 tags, got %d", len(tags))
	}
	if !sort.SliceIsSorted(tags, func(i, j int) bool { return tags[i].Name < tags[j].Name }) {
		t.Fatal("tags not ordered by name")
	}
	if tags[0].Name != "mobile" || tags[31].Name != "web" {
		t.Fatalf("unexpected bounds %s..%s", tags[0].Name, tags[31].Name)
	}
}
