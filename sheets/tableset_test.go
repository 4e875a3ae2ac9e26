package sheets

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fallbackSet() *TableSet {
	return NewTableSet(
		TableRef{Name: "pilots", GID: "0", Source: SourceFallback},
		TableRef{Name: "mechs", GID: "123456789", Source: SourceFallback},
		TableRef{Name: "weapons", GID: "987654321", Source: SourceFallback},
	)
}

func TestTableSetKeepsFirstName(t *testing.T) {
	set := NewTableSet(TableRef{Name: "a", GID: "1"}, TableRef{Name: "b", GID: "2"})

	assert.False(t, set.Add(TableRef{Name: "a", GID: "3"}))
	assert.True(t, set.Add(TableRef{Name: "c", GID: "4"}))

	ref, ok := set.Get("a")
	require.True(t, ok)
	assert.Equal(t, "1", ref.GID)
	assert.Equal(t, []string{"a", "b", "c"}, set.Names())
}

func TestTableSetZeroAndNil(t *testing.T) {
	var zero TableSet
	assert.Equal(t, 0, zero.Len())
	assert.True(t, zero.Add(TableRef{Name: "x", GID: "1"}))
	assert.Equal(t, 1, zero.Len())

	var nilSet *TableSet
	assert.Equal(t, 0, nilSet.Len())
	assert.Nil(t, nilSet.Refs())
	_, ok := nilSet.Get("x")
	assert.False(t, ok)
}

func TestTableSetRefsIsACopy(t *testing.T) {
	set := NewTableSet(TableRef{Name: "a", GID: "1"})
	refs := set.Refs()
	refs[0].GID = "changed"

	ref, _ := set.Get("a")
	assert.Equal(t, "1", ref.GID)
}

func TestMergeDiscoveredWins(t *testing.T) {
	discovered := NewTableSet(
		TableRef{Name: "extra", GID: "42", Source: SourceDiscovered},
		TableRef{Name: "mechs", GID: "555", Source: SourceDiscovered},
	)

	merged := Merge(discovered, fallbackSet())

	assert.Equal(t, []string{"pilots", "mechs", "weapons", "extra"}, merged.Names())

	mechs, ok := merged.Get("mechs")
	require.True(t, ok)
	assert.Equal(t, "555", mechs.GID)
	assert.Equal(t, SourceDiscovered, mechs.Source)

	pilots, _ := merged.Get("pilots")
	assert.Equal(t, "0", pilots.GID)
	assert.Equal(t, SourceFallback, pilots.Source)
}

func TestMergeKeepsEveryFallbackName(t *testing.T) {
	discovered := NewTableSet(TableRef{Name: "other", GID: "7", Source: SourceDiscovered})
	fallback := fallbackSet()

	merged := Merge(discovered, fallback)

	for _, name := range fallback.Names() {
		_, ok := merged.Get(name)
		assert.True(t, ok, "fallback table %s missing", name)
	}
}

func TestMergeEmptyDiscovery(t *testing.T) {
	fallback := fallbackSet()

	assert.Equal(t, fallback.Refs(), Merge(&TableSet{}, fallback).Refs())
	assert.Equal(t, fallback.Refs(), Merge(nil, fallback).Refs())
}

func TestMergeIsIdempotent(t *testing.T) {
	discovered := NewTableSet(
		TableRef{Name: "weapons", GID: "1", Source: SourceDiscovered},
		TableRef{Name: "items", GID: "2", Source: SourceDiscovered},
	)
	fallback := fallbackSet()

	once := Merge(discovered, fallback)
	twice := Merge(discovered, once)

	assert.Equal(t, once.Refs(), twice.Refs())
}
