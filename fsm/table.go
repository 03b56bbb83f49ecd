package fsm

import (
	"iter"
	"sync"
)

// Table maps (state, event) keys to rows.
//
// Insert is an upsert: registering the same key again replaces the
// previous row and never fails. Iteration order is unspecified.
//
// Thread-safety: the table returned by NewTable is not safe for concurrent
// use. Wrap it with NewThreadSafeTable when registration and lookup can
// overlap.
type Table interface {
	// Insert stores a row under (currentState, event), replacing any
	// previous row for that key.
	Insert(currentState, event string, action Action, nextState string)

	// Lookup returns the row for (currentState, event), if any.
	Lookup(currentState, event string) (Row, bool)

	// Size returns the number of distinct keys.
	Size() int

	// Entries ranges over every key and row.
	Entries() iter.Seq2[Key, Row]
}

// entry pairs a key with its row inside a bucket.
type entry struct {
	key Key
	row Row
}

// hashTable stores entries in buckets indexed by hash. Buckets are chained
// and resolved with Key.Equals, so a collision only costs a scan.
type hashTable struct {
	hash HashFunc
	data map[uint64][]entry
	size int
}

// NewTable creates an empty table using xxh3 hashing.
func NewTable() Table {
	return NewTableWithHash(Xxh3)
}

// NewTableWithHash creates an empty table with a custom hash function.
// A nil hash falls back to Xxh3.
func NewTableWithHash(hash HashFunc) Table {
	if hash == nil {
		hash = Xxh3
	}

	return &hashTable{
		hash: hash,
		data: make(map[uint64][]entry),
	}
}

func (t *hashTable) Insert(currentState, event string, action Action, nextState string) {
	key := Key{State: currentState, Event: event}
	row := Row{Action: action, NextState: nextState}
	hashVal := t.hash(key)

	bucket := t.data[hashVal]
	for i := range bucket {
		if bucket[i].key.Equals(key) {
			bucket[i].row = row

			return
		}
	}

	t.data[hashVal] = append(bucket, entry{key: key, row: row})
	t.size++
}

func (t *hashTable) Lookup(currentState, event string) (Row, bool) {
	key := Key{State: currentState, Event: event}

	for _, e := range t.data[t.hash(key)] {
		if e.key.Equals(key) {
			return e.row, true
		}
	}

	return Row{}, false
}

func (t *hashTable) Size() int {
	return t.size
}

func (t *hashTable) Entries() iter.Seq2[Key, Row] {
	return func(yield func(Key, Row) bool) {
		for _, bucket := range t.data {
			for _, e := range bucket {
				if !yield(e.key, e.row) {
					return
				}
			}
		}
	}
}

// NewThreadSafeTable wraps a table with a sync.RWMutex. Wrapping an
// already thread-safe table returns it unchanged.
func NewThreadSafeTable(table Table) Table {
	if table == nil {
		return nil
	}

	if tst, ok := table.(*threadSafeTable); ok {
		return tst
	}

	return &threadSafeTable{internal: table}
}

// threadSafeTable serializes inserts and allows concurrent lookups.
type threadSafeTable struct {
	mutex    sync.RWMutex
	internal Table
}

func (t *threadSafeTable) Insert(currentState, event string, action Action, nextState string) {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	t.internal.Insert(currentState, event, action, nextState)
}

func (t *threadSafeTable) Lookup(currentState, event string) (Row, bool) {
	t.mutex.RLock()
	defer t.mutex.RUnlock()

	return t.internal.Lookup(currentState, event)
}

func (t *threadSafeTable) Size() int {
	t.mutex.RLock()
	defer t.mutex.RUnlock()

	return t.internal.Size()
}

// Entries iterates over a snapshot so that yield may call back into the
// table without deadlocking.
func (t *threadSafeTable) Entries() iter.Seq2[Key, Row] {
	t.mutex.RLock()

	snapshot := make([]entry, 0, t.internal.Size())
	for k, r := range t.internal.Entries() {
		snapshot = append(snapshot, entry{key: k, row: r})
	}

	t.mutex.RUnlock()

	return func(yield func(Key, Row) bool) {
		for _, e := range snapshot {
			if !yield(e.key, e.row) {
				return
			}
		}
	}
}
