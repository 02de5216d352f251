// Package repository provides a generic repository over a Bun session
// (bun.DB, bun.Tx or bun.Conn) with key lookups, filtered and eager-loaded
// reads, projections and paging. Errors from Bun are returned unchanged.
package repository
