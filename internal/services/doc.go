// Package services implements the HTTP clients: the account service (auth and favorites) and the Open Library catalog.
//
// # Transport
//
// [APIService] performs raw requests against one base URL and returns an [APIResponse] holding status, headers and body.
//
// # Gateway
//
// [Gateway] is the only place credentials are attached to requests. It reads the current pair from the
// [session.Session], and on a 401 performs a single refresh through a [Refresher] followed by a single retry.
//
// Refreshes are serialized; a caller that waited behind another refresh reuses the pair it produced.
//
// When the refresh fails the session is terminated, the [Notifier] shows "Session expired. Please log in again."
// and the [Navigator] sends the user to sign-in.
//
// # Clients
//
//   - [AccountService]: sign-up, sign-in (bounded by a timeout), logout and refresh
//   - [FavoritesService]: list, add and remove favorites through the [Gateway]
//   - [CatalogService]: Open Library author search and lookup, paced by a [rate.Limiter]
//
// # Error Handling
//
// Services use typed errors from shared package:
//   - [shared.ErrAuthExpired] : the account service still answered 401 after any refresh
//   - [shared.ErrRefreshFailed] : the refresh exchange failed and the session was terminated
//   - [shared.ErrRemoteMutation] : a favorites add or remove was rejected
//   - [shared.ErrMalformedResponse] : the body could not be decoded
//   - [shared.ErrTimeout] : sign-in did not finish in time
//   - [shared.ErrAuthorNotFound] : the catalog has no such author
package services
