package sheets

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRowPadsValues(t *testing.T) {
	row := NewRow([]string{"a", "b", "c"}, []string{"1"})

	assert.Equal(t, []string{"1", "", ""}, row.Values())

	v, ok := row.Get("c")
	assert.True(t, ok)
	assert.Equal(t, "", v)

	_, ok = row.Get("missing")
	assert.False(t, ok)
}

func TestRowValuesIsACopy(t *testing.T) {
	row := NewRow([]string{"a"}, []string{"1"})
	values := row.Values()
	values[0] = "changed"

	v, _ := row.Get("a")
	assert.Equal(t, "1", v)
}

func TestRowMarshalEscapesQuotes(t *testing.T) {
	row := NewRow([]string{`say "hi"`}, []string{"line\nbreak"})

	data, err := row.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `{"say \"hi\"":"line\nbreak"}`, string(data))
}

func TestTableMarshal(t *testing.T) {
	columns := []string{"b", "a"}
	table := &Table{
		Name:    "t",
		Columns: columns,
		Rows:    []Row{NewRow(columns, []string{"1", "2"}), NewRow(columns, []string{"<3", "4"})},
	}

	data, err := table.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `[{"b":"1","a":"2"},{"b":"<3","a":"4"}]`, string(data))
	assert.Equal(t, 2, table.Len())
}

func TestEmptyTable(t *testing.T) {
	table := EmptyTable("pilots")

	data, err := table.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data))
	assert.Equal(t, 0, table.Len())

	var nilTable *Table
	assert.Equal(t, 0, nilTable.Len())
}

func TestCollectionMarshal(t *testing.T) {
	columns := []string{"id"}
	collection := Collection{
		{Name: "weapons", Columns: columns, Rows: []Row{NewRow(columns, []string{"1"})}},
		EmptyTable("mechs"),
		{Name: "A&B", Columns: columns, Rows: []Row{NewRow(columns, []string{"2"})}},
	}

	data, err := collection.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `{"weapons":[{"id":"1"}],"mechs":[],"A&B":[{"id":"2"}]}`, string(data))
}
