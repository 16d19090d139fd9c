// Package repositories implements durable key-value storage for session credentials and the favorites mirror.
//
// Every backend implements [Store]:
//   - [KVRepository] : SQLite table (default), multi-key writes and deletes run in one transaction
//   - [KeyringStore] : the operating system keyring, for credentials that should not sit in a file
//   - [MemoryStore] : process-local map, used for ephemeral sessions and tests
//
// Keys are plain strings with no schema versioning; the well-known keys are declared as constants
// ([KeyAccessToken], [KeyRefreshToken], [KeyUser], [KeyUserEmail], [KeyFavorites]).
package repositories
