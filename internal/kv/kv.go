// Package kv provides the key-value persistence abstraction consumed by
// the booking ledger, with an in-memory implementation for tests and a
// SQLite-backed implementation for nodes.
package kv

// Pair is one stored entry returned by List.
type Pair struct {
	Key   string
	Value []byte
}

// Store is a bucketed byte-string key-value store. List order follows the
// underlying store and is not guaranteed stable across calls.
type Store interface {
	Get(bucket, key string) ([]byte, bool, error)
	Put(bucket, key string, value []byte) error
	Delete(bucket, key string) error
	List(bucket string) ([]Pair, error)
	Close() error
}

// Bucket names used by the ledger's three indexes.
const (
	BucketRooms  = "rooms"
	BucketOwners = "owners"
	BucketGuests = "guests"
)
