// Package preferences resolves which delivery channels a user allows for
// each notification type.
//
// A user has one Global record (in-app, email and push switches plus a
// per-category opt-in map) and optional per-type overrides. The effective
// permission of a type starts from the override, or the catalog defaults
// when there is none, and is ANDed with the global switches and the
// category opt-in, so an override can only narrow what the user allows
// globally. The mute window comes from the override alone.
//
// The Resolver caches globals per user and effective values per
// (user, type). Caches are explicit objects produced by a factory: in
// request mode every Scoped resolver holds its own cache, in shared mode a
// VersionedCache is shared by the process and invalidated across processes
// by bumping a per-user counter in Redis.
//
//	factory, err := preferences.CacheFactory(cfg, preferences.NewRedisVersions(rdb, "", 0), log)
//	res := preferences.NewResolver(preferences.NewPGStorage(pool), cat,
//		preferences.WithCacheFactory(factory),
//		preferences.WithLogger(log),
//	)
//	eff := res.Scoped().Type(ctx, userID, "task.assigned")
//
// Reads never return errors. When storage fails the defaults are computed,
// a warning is logged and nothing is cached.
package preferences
