package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/goliatone/go-translations/cache"
	"github.com/goliatone/go-translations/internal/auth"
	"github.com/goliatone/go-translations/internal/cacheinfra"
	"github.com/goliatone/go-translations/pkg/testsupport"
	"github.com/goliatone/go-translations/repositorycache"
	"github.com/goliatone/go-translations/translations"
)

type apiFixture struct {
	t       *testing.T
	handler http.Handler
	server  *Server
	token   string
	en      *translations.Locale
	fr      *translations.Locale
	web     *translations.Tag
	mobile  *translations.Tag
	healthy error
}

func newAPIFixture(t *testing.T, perMinute, exportPerMinute int) *apiFixture {
	t.Helper()
	ctx := context.Background()

	db := testsupport.NewSQLiteDB(t)
	translations.RegisterModels(db)
	if err := translations.CreateSchema(ctx, db); err != nil {
		t.Fatalf("CreateSchema: %v", err)
	}

	f := &apiFixture{t: t}
	locales := translations.NewLocaleRepository(db)
	tags := translations.NewTagRepository(db)
	var err error
	if f.en, err = locales.Ensure(ctx, "en", "English"); err != nil {
		t.Fatal(err)
	}
	if f.fr, err = locales.Ensure(ctx, "fr", "French"); err != nil {
		t.Fatal(err)
	}
	if f.web, err = tags.Ensure(ctx, "web"); err != nil {
		t.Fatal(err)
	}
	if f.mobile, err = tags.Ensure(ctx, "mobile"); err != nil {
		t.Fatal(err)
	}

	backend, err := cacheinfra.NewSturdycService(cacheinfra.DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	repo := repositorycache.New(translations.NewBunRepository(db), backend, cache.NewDefaultKeySerializer())

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	authService, err := auth.NewService(auth.Config{
		Secret:   "0123456789abcdef0123456789abcdef",
		Issuer:   "go-translations",
		TokenTTL: time.Hour,
		Users:    []string{"admin@example.com:" + string(hash)},
	})
	if err != nil {
		t.Fatal(err)
	}

	f.server, err = New(Options{
		Repository:      repo,
		Auth:            authService,
		Health:          func(context.Context) error { return f.healthy },
		PerMinute:       perMinute,
		ExportPerMinute: exportPerMinute,
	})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = f.server.Close() })
	f.handler = f.server.Handler()

	rec := f.do(http.MethodPost, "/api/login", map[string]string{
		"email":    "admin@example.com",
		"password": "password123",
	}, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("login: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var login struct {
		Success bool `json:"success"`
		Data    struct {
			Token string `json:"token"`
			User  struct {
				Email string `json:"email"`
			} `json:"user"`
		} `json:"data"`
	}
	decode(t, rec, &login)
	if !login.Success || login.Data.Token == "" || login.Data.User.Email != "admin@example.com" {
		t.Fatalf("unexpected login response %s", rec.Body.String())
	}
	f.token = login.Data.Token
	return f
}

func (f *apiFixture) do(method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	f.t.Helper()

	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		if err != nil {
			f.t.Fatal(err)
		}
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if f.token != "" {
		req.Header.Set("Authorization", "Bearer "+f.token)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func (f *apiFixture) create(key, content string, locale *translations.Locale, tags ...*translations.Tag) translations.Translation {
	f.t.Helper()
	ids := make([]string, 0, len(tags))
	for _, tag := range tags {
		ids = append(ids, tag.ID.String())
	}
	rec := f.do(http.MethodPost, "/api/translations", map[string]any{
		"key":       key,
		"locale_id": locale.ID.String(),
		"content":   content,
		"tags":      ids,
	}, nil)
	if rec.Code != http.StatusCreated {
		f.t.Fatalf("create %s: expected 201, got %d: %s", key, rec.Code, rec.Body.String())
	}
	var out struct {
		Data translations.Translation `json:"data"`
	}
	decode(f.t, rec, &out)
	return out.Data
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), dst); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
}

func TestLogin(t *testing.T) {
	f := newAPIFixture(t, 1000, 1000)
	f.token = ""

	cases := []struct {
		name   string
		body   any
		status int
	}{
		{"wrong password", map[string]string{"email": "admin@example.com", "password": "nope"}, http.StatusUnauthorized},
		{"missing password", map[string]string{"email": "admin@example.com"}, http.StatusUnprocessableEntity},
		{"invalid email", map[string]string{"email": "admin", "password": "x"}, http.StatusUnprocessableEntity},
		{"malformed body", "{", http.StatusUnprocessableEntity},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := f.do(http.MethodPost, "/api/login", tc.body, nil)
			if rec.Code != tc.status {
				t.Fatalf("expected %d, got %d: %s", tc.status, rec.Code, rec.Body.String())
			}
			if !strings.Contains(rec.Body.String(), `"success":false`) {
				t.Fatalf("expected error envelope, got %s", rec.Body.String())
			}
		})
	}
}

func TestTranslationRoutesRequireToken(t *testing.T) {
	f := newAPIFixture(t, 1000, 1000)
	f.token = ""

	for _, path := range []string{"/api/translations/search", "/api/translations/export?locale=en"} {
		if rec := f.do(http.MethodGet, path, nil, nil); rec.Code != http.StatusUnauthorized {
			t.Fatalf("%s: expected 401, got %d", path, rec.Code)
		}
	}
}

func TestCreateShowUpdateDelete(t *testing.T) {
	f := newAPIFixture(t, 1000, 1000)

	created := f.create("home.title", "Welcome", f.en, f.web)
	if created.Key != "home.title" || created.LocaleCode() != "en" {
		t.Fatalf("unexpected created record %+v", created)
	}
	if len(created.Tags) != 1 || created.Tags[0].ID != f.web.ID {
		t.Fatalf("expected web tag, got %+v", created.Tags)
	}

	path := "/api/translations/" + created.ID.String()
	rec := f.do(http.MethodGet, path, nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("show: expected 200, got %d", rec.Code)
	}

	rec = f.do(http.MethodPut, path, map[string]any{
		"content": "Hello",
		"tags":    []string{},
	}, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("update: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var updated struct {
		Data translations.Translation `json:"data"`
	}
	decode(t, rec, &updated)
	if updated.Data.Content != "Hello" || updated.Data.Key != "home.title" || len(updated.Data.Tags) != 0 {
		t.Fatalf("unexpected update result %+v", updated.Data)
	}

	if rec = f.do(http.MethodDelete, path, nil, nil); rec.Code != http.StatusNoContent {
		t.Fatalf("delete: expected 204, got %d", rec.Code)
	}

	rec = f.do(http.MethodGet, path, nil, nil)
	if rec.Code != http.StatusNotFound || !strings.Contains(rec.Body.String(), "Translation not found") {
		t.Fatalf("show after delete: expected 404, got %d: %s", rec.Code, rec.Body.String())
	}
	if rec = f.do(http.MethodDelete, path, nil, nil); rec.Code != http.StatusNotFound {
		t.Fatalf("second delete: expected 404, got %d", rec.Code)
	}
	if rec = f.do(http.MethodGet, "/api/translations/not-a-uuid", nil, nil); rec.Code != http.StatusNotFound {
		t.Fatalf("malformed id: expected 404, got %d", rec.Code)
	}
}

func TestCreateErrors(t *testing.T) {
	f := newAPIFixture(t, 1000, 1000)
	f.create("home.title", "Welcome", f.en)

	cases := []struct {
		name   string
		body   map[string]any
		status int
		field  string
	}{
		{"missing key", map[string]any{"locale_id": f.en.ID.String(), "content": "x"}, http.StatusUnprocessableEntity, "key"},
		{"bad locale id", map[string]any{"key": "a", "locale_id": "nope", "content": "x"}, http.StatusUnprocessableEntity, "locale_id"},
		{"bad tag id", map[string]any{"key": "a", "locale_id": f.en.ID.String(), "content": "x", "tags": []string{"nope"}}, http.StatusUnprocessableEntity, "tags"},
		{"key too long", map[string]any{"key": strings.Repeat("k", 256), "locale_id": f.en.ID.String(), "content": "x"}, http.StatusUnprocessableEntity, "key"},
		{"unknown locale", map[string]any{"key": "a", "locale_id": f.web.ID.String(), "content": "x"}, http.StatusUnprocessableEntity, "locale_id"},
		{"duplicate", map[string]any{"key": "home.title", "locale_id": f.en.ID.String(), "content": "x"}, http.StatusConflict, "key"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := f.do(http.MethodPost, "/api/translations", tc.body, nil)
			if rec.Code != tc.status {
				t.Fatalf("expected %d, got %d: %s", tc.status, rec.Code, rec.Body.String())
			}
			var body envelope
			decode(t, rec, &body)
			if body.Success {
				t.Fatal("expected success=false")
			}
			if _, ok := body.Errors[tc.field]; !ok {
				t.Fatalf("expected error on %q, got %+v", tc.field, body.Errors)
			}
		})
	}
}

func TestSearch(t *testing.T) {
	f := newAPIFixture(t, 1000, 1000)
	f.create("home.title", "Welcome", f.en, f.web)
	f.create("home.subtitle", "Hello", f.en, f.mobile)
	f.create("home.title", "Bienvenue", f.fr, f.web)

	rec := f.do(http.MethodGet, "/api/translations/search?key=home&locale=en&tag=web", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var page translations.Page
	decode(t, rec, &page)
	if page.Total != 1 || len(page.Data) != 1 || page.Data[0].Content != "Welcome" {
		t.Fatalf("unexpected page %+v", page)
	}
	if page.PerPage != translations.DefaultPerPage || page.CurrentPage != 1 {
		t.Fatalf("unexpected paging %+v", page)
	}

	rec = f.do(http.MethodGet, "/api/translations/search?per_page=500", nil, nil)
	decode(t, rec, &page)
	if page.PerPage != translations.MaxPerPage || page.Total != 3 {
		t.Fatalf("expected clamped per_page and 3 rows, got %+v", page)
	}

	if rec = f.do(http.MethodGet, "/api/translations/search?page=abc", nil, nil); rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for bad page, got %d", rec.Code)
	}
}

func TestExportETag(t *testing.T) {
	f := newAPIFixture(t, 1000, 1000)
	f.create("c.d", "Y", f.en)
	f.create("a.b", "X", f.en)

	rec := f.do(http.MethodGet, "/api/translations/export?locale=en", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec.Body.String() != `{"a.b":"X","c.d":"Y"}` {
		t.Fatalf("unexpected export %s", rec.Body.String())
	}
	etag := rec.Header().Get("ETag")
	if etag == "" {
		t.Fatal("expected ETag")
	}

	rec = f.do(http.MethodGet, "/api/translations/export?locale=en", nil, map[string]string{"If-None-Match": etag})
	if rec.Code != http.StatusNotModified || rec.Body.Len() != 0 {
		t.Fatalf("expected 304 without body, got %d", rec.Code)
	}

	f.create("b.c", "Z", f.en)
	rec = f.do(http.MethodGet, "/api/translations/export?locale=en", nil, map[string]string{"If-None-Match": etag})
	if rec.Code != http.StatusOK || rec.Header().Get("ETag") == etag {
		t.Fatalf("expected fresh export after create, got %d", rec.Code)
	}

	rec = f.do(http.MethodGet, "/api/translations/export?locale=xx", nil, nil)
	if rec.Code != http.StatusOK || rec.Body.String() != "{}" {
		t.Fatalf("expected empty export for unknown locale, got %d %s", rec.Code, rec.Body.String())
	}
	if rec = f.do(http.MethodGet, "/api/translations/export", nil, nil); rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 without locale, got %d", rec.Code)
	}
}

func TestRateLimit(t *testing.T) {
	f := newAPIFixture(t, 2, 3)

	for i := 0; i < 2; i++ {
		if rec := f.do(http.MethodGet, "/api/translations/search", nil, nil); rec.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i, rec.Code)
		}
	}
	rec := f.do(http.MethodGet, "/api/translations/search", nil, nil)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Fatal("expected Retry-After header")
	}

	for i := 0; i < 3; i++ {
		if rec := f.do(http.MethodGet, "/api/translations/export?locale=en", nil, nil); rec.Code != http.StatusOK {
			t.Fatalf("export %d: expected 200, got %d", i, rec.Code)
		}
	}
	if rec := f.do(http.MethodGet, "/api/translations/export?locale=en", nil, nil); rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected export 429, got %d", rec.Code)
	}
}

func TestHealthz(t *testing.T) {
	f := newAPIFixture(t, 1000, 1000)
	f.token = ""

	if rec := f.do(http.MethodGet, "/healthz", nil, nil); rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	f.healthy = errors.New("db down")
	if rec := f.do(http.MethodGet, "/healthz", nil, nil); rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}

func TestKeyedLimiterIsolatesKeys(t *testing.T) {
	limiter := NewKeyedLimiter(1)
	defer limiter.Close()

	if ok, _ := limiter.Allow("a"); !ok {
		t.Fatal("expected first request for a to pass")
	}
	ok, wait := limiter.Allow("a")
	if ok || wait <= 0 || wait > time.Minute {
		t.Fatalf("expected a to be limited with a wait, got ok=%v wait=%s", ok, wait)
	}
	if ok, _ := limiter.Allow("b"); !ok {
		t.Fatal("expected b to have its own bucket")
	}
	if limiter.Len() != 2 {
		t.Fatalf("expected 2 keys, got %d", limiter.Len())
	}
}
