// Package session holds the process-wide answer to "is this client authenticated, and as whom".
//
// A [Session] owns the access/refresh credential pair (as an [oauth2.Token]) and the cached
// [models.Identity], persisted through a [repositories.Store]. The lifecycle is:
//
//   - [Session.Initialize] hydrates from storage after a local liveness check ([CheckLiveness]);
//     anything missing, malformed or expired clears the persisted session.
//   - [Session.Establish] (sign-in/sign-up), or [Session.SetCredentials] followed by [Session.Login].
//   - [Session.SetCredentials] alone when the gateway refreshes the pair.
//   - [Session.Logout] or [Session.Terminate] tear everything down.
//
// Identity transitions are published to [Session.OnChange] subscribers so dependent caches can
// reload or reset.
package session
