// Package favorites keeps the signed-in user's favorite authors consistent with the account service.
//
// A [Cache] is keyed by author id. Catalog keys such as "/authors/OL23919A" are normalized first.
//
// # Mutation
//
// [Cache.Toggle] confirms every change remotely before touching the cache:
//
//	absent  -> pending add    -> present  (catalog lookup, then POST)
//	present -> pending remove -> absent   (DELETE)
//
// A failed request leaves the cache as it was. Only one toggle per author may be in flight;
// toggles for different authors run concurrently.
//
// # Session Binding
//
// [Cache.Bind] follows a [session.Session]: a new identity loads that user's collection,
// and sign-out resets the cache. Toggles that settle after a reset are discarded.
//
// # Mirror
//
// Every load and settled toggle writes the entries to the "favorites" storage key.
// [Mirrored] reads it back for offline listing.
package favorites
