// Package models defines the domain entities shared by the session, gateway and favorites layers.
//
// The package contains three groups of types:
//
// 1. Session values
//   - [Identity] : the signed-in user's display name and email (the favorites join key)
//   - [TokenPair] : access and refresh credentials returned by the account service
//
// 2. Favorites
//   - [FavoriteEntry] : a saved reference to a catalog author plus cached display metadata
//
// 3. Catalog data
//   - [Author] : author metadata from the Open Library catalog
//   - [AuthorSearchResult] : one page of author search hits
//
// Author identity is always the bare catalog id (e.g. "OL23919A"); route-style keys are
// normalized with [AuthorIDFromKey].
package models
