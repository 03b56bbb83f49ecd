package fsm

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collide(Key) uint64 {
	return 42
}

func TestTableInsertLookup(t *testing.T) {
	t.Parallel()

	table := NewTable()
	action := Always("go")

	table.Insert("a", "e", action, "b")

	row, ok := table.Lookup("a", "e")
	require.True(t, ok)
	assert.Equal(t, "b", row.NextState)
	assert.Equal(t, "go", row.ActionName())

	_, ok = table.Lookup("a", "other")
	assert.False(t, ok)

	_, ok = table.Lookup("b", "e")
	assert.False(t, ok)
}

func TestTableOverwrite(t *testing.T) {
	t.Parallel()

	table := NewTable()
	table.Insert("a", "e", Always("first"), "b")
	table.Insert("a", "e", Always("second"), "c")

	assert.Equal(t, 1, table.Size())

	row, ok := table.Lookup("a", "e")
	require.True(t, ok)
	assert.Equal(t, "c", row.NextState)
	assert.Equal(t, "second", row.ActionName())
}

func TestTableSizeCountsDistinctKeys(t *testing.T) {
	t.Parallel()

	table := NewTable()
	table.Insert("a", "e1", nil, "b")
	table.Insert("a", "e2", nil, "b")
	table.Insert("b", "e1", nil, "a")
	table.Insert("a", "e1", nil, "c")

	assert.Equal(t, 3, table.Size())

	seen := make(map[Key]string)
	for key, row := range table.Entries() {
		seen[key] = row.NextState
	}

	assert.Equal(t, map[Key]string{
		{State: "a", Event: "e1"}: "c",
		{State: "a", Event: "e2"}: "b",
		{State: "b", Event: "e1"}: "a",
	}, seen)
}

func TestTableHashCollisions(t *testing.T) {
	t.Parallel()

	table := NewTableWithHash(collide)
	table.Insert("a", "e", Always("one"), "x")
	table.Insert("b", "e", Always("two"), "y")
	table.Insert("a", "f", Always("three"), "z")
	table.Insert("b", "e", Always("four"), "w")

	assert.Equal(t, 3, table.Size())

	row, ok := table.Lookup("a", "e")
	require.True(t, ok)
	assert.Equal(t, "x", row.NextState)

	row, ok = table.Lookup("b", "e")
	require.True(t, ok)
	assert.Equal(t, "w", row.NextState)
	assert.Equal(t, "four", row.ActionName())

	row, ok = table.Lookup("a", "f")
	require.True(t, ok)
	assert.Equal(t, "z", row.NextState)

	_, ok = table.Lookup("c", "e")
	assert.False(t, ok)
}

func TestTableEntriesStopsEarly(t *testing.T) {
	t.Parallel()

	table := NewTableWithHash(collide)
	table.Insert("a", "1", nil, "b")
	table.Insert("a", "2", nil, "b")
	table.Insert("a", "3", nil, "b")

	count := 0
	for range table.Entries() {
		count++
		if count == 2 {
			break
		}
	}

	assert.Equal(t, 2, count)
}

func TestKeyHashIsUnambiguous(t *testing.T) {
	t.Parallel()

	// Plain concatenation would make these two keys identical.
	a := Key{State: "ab", Event: "c"}
	b := Key{State: "a", Event: "bc"}

	assert.False(t, a.Equals(b))
	assert.NotEqual(t, Xxh3(a), Xxh3(b))
	assert.Equal(t, Xxh3(a), Xxh3(Key{State: "ab", Event: "c"}))
	assert.Equal(t, "(ab, c)", a.String())
}

func TestThreadSafeTable(t *testing.T) {
	t.Parallel()

	assert.Nil(t, NewThreadSafeTable(nil))

	table := NewThreadSafeTable(NewTable())
	assert.Same(t, table, NewThreadSafeTable(table))

	var wg sync.WaitGroup

	for i := range 8 {
		wg.Add(1)

		go func() {
			defer wg.Done()

			event := string(rune('a' + i))
			table.Insert("s", event, Always(event), "t")
			_, _ = table.Lookup("s", event)

			for range table.Entries() {
			}
		}()
	}

	wg.Wait()

	assert.Equal(t, 8, table.Size())
}
