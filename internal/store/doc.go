// Package store defines the storage engine contract.
//
// An [Engine] persists a tree of groups and datasets addressed by
// slash-separated paths ("/", "/grp/data") and moves raw dataset bytes
// through the [Engine.Transfer] primitive. Everything above this
// package deals in Go containers; everything below deals in the flat
// row-major [Buffer] defined here.
//
// Two engines implement the contract: memstore keeps everything in
// process memory, boltstore persists to a bbolt file with optional
// chunking and filter pipelines. Engines are safe for concurrent use.
//
// # Leases
//
// A read of variable-length data may hand out memory the engine still
// owns. Such a Buffer carries a nonzero Lease token; the caller copies
// the data into its own containers and then calls [Engine.Reclaim]
// with the token, exactly once. Fixed-size reads never set a lease.
package store
