// Package tasks orchestrates multi-author favorites operations with real-time progress reporting.
//
// # Core Operations
//
// The [Engine] interface defines two operations:
//
//  1. [Engine.BulkFavorite] : Add or remove many authors at once
//     - De-duplicates and normalizes author keys
//     - Dispatches them to a worker pool paced by a [rate.Limiter]
//     - Each worker goes through the favorites cache, so every change is confirmed remotely
//     - Returns per-key results including failures
//
//  2. [Engine.Export] : Reload and write the favorites collection
//     - Loads the remote collection through the cache
//     - Writes JSON, CSV, Markdown or plain text via the formatter package
//
// # Progress Reporting
//
// All operations use non-blocking channels for progress updates.
//
// The [ProgressUpdate] struct contains phase, step counters, messages, and optional data for advanced UI rendering.
// Updates use select with default to prevent blocking.
//
// # Implementation
//
// [FavoritesEngine] implements [Engine] with a dependency on [Favoriter], satisfied by favorites.Cache.
package tasks
