// Command-line entry points are explicitly out of scope (spec.md §1); this
// file exists only to give the module root a package so `go doc slotpool`
// has something to say.
//
// slotpool is the storage-layer core of a disk-backed database: a
// fixed-capacity buffer pool (storage_engine/bufferpool) that caches
// variable-length records laid out in fixed-size slotted pages
// (storage_engine/page) on a single file (storage_engine/disk).
package slotpool
