// Package cache provides the byte-level cache contract used for export
// snapshots, a typed read-through helper on top of it, and key
// serialization.
//
// # Overview
//
//   - CacheService: Get, Set and Delete on raw bytes. Implemented by the
//     memory (sturdyc), redis and valkey backends in internal/cacheinfra.
//   - ReadThrough: typed get-or-fetch with a Codec (msgpack by default).
//   - KeySerializer: builds keys such as translations_export_en.
//
// # Basic Usage
//
//	svc, err := cache.NewCacheService(cache.DefaultConfig())
//	if err != nil {
//		return err
//	}
//	rt := cache.ReadThrough[translations.Export]{Service: svc, TTL: time.Hour}
//	export, err := rt.Get(ctx, "translations_export_en", func(ctx context.Context) (translations.Export, error) {
//		return repo.ExportByLocale(ctx, "en")
//	})
//
// # Failure Handling
//
// ReadThrough is fail-open. A backend error on read is logged and treated
// as a miss, a failed write or delete is logged and ignored. Only errors
// from the fetch function reach the caller. The redis backend also starts
// against an unreachable server, logging a warning through Config.Logger.
//
// The memory backend ignores the per-call TTL and uses the TTL from Config
// for every entry.
package cache
