// Package order implements the in-memory Order Store.
//
// Orders are kept in creation order behind a read/write lock. Nothing here blocks on I/O,
// so callers may invoke the store directly from request handlers.
package order
