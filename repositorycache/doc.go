// Package repositorycache provides the export-caching decorator for
// translations.Repository.
//
// # Overview
//
// CachedRepository wraps any translations.Repository. ExportByLocale is read
// through the cache under the key translations_export_<code> with a one hour
// TTL. Create, Update and Delete delegate to the base repository, which
// commits its transaction, and then remove the export key of the locale the
// translation belongs to before returning. Delete invalidates only when a
// live row was removed.
//
// FindByID and Search always reach the base repository.
//
// # Basic Usage
//
//	base := translations.NewBunRepository(db)
//	svc, _ := cache.NewCacheService(cache.DefaultConfig())
//
//	repo := repositorycache.New(base, svc, cache.NewDefaultKeySerializer())
//	export, err := repo.ExportByLocale(ctx, "en")
//
// # Cache Failures
//
// The cache is fail-open. A backend that cannot be read makes every export
// recompute from the store; a failed invalidation is logged and the mutation
// still succeeds. The stale window after a missed invalidation is bounded by
// the TTL.
//
// # Known Race
//
// A reader that misses, loads the export before a concurrent write commits
// and stores it after that write has invalidated the key leaves a stale
// snapshot until the TTL expires. Invalidation is delete-by-key and takes no
// locks.
package repositorycache
