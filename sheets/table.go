package sheets

import (
	"bytes"
	"encoding/json"
)

// Row is one record of a table, keyed by the table's columns
type Row struct {
	columns []string
	values  []string
}

// NewRow builds a row; values shorter than columns are padded with ""
func NewRow(columns []string, values []string) Row {
	cells := make([]string, len(columns))
	copy(cells, values)
	return Row{columns: columns, values: cells}
}

// Get returns the cell of a column
func (r Row) Get(column string) (string, bool) {
	for i, c := range r.columns {
		if c == column {
			return r.values[i], true
		}
	}
	return "", false
}

// Values returns the cells in column order
func (r Row) Values() []string {
	values := make([]string, len(r.values))
	copy(values, r.values)
	return values
}

// Map returns the row as a column → value map
func (r Row) Map() map[string]string {
	m := make(map[string]string, len(r.columns))
	for i, c := range r.columns {
		m[c] = r.values[i]
	}
	return m
}

// MarshalJSON encodes the row as an object whose keys follow column order
func (r Row) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, c := range r.columns {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeJSONString(&buf, c); err != nil {
			return nil, err
		}
		buf.WriteByte(':')
		if err := writeJSONString(&buf, r.values[i]); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// writeJSONString writes s as a JSON string without HTML escaping
func writeJSONString(buf *bytes.Buffer, s string) error {
	var tmp bytes.Buffer
	enc := json.NewEncoder(&tmp)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return err
	}
	buf.Write(bytes.TrimSuffix(tmp.Bytes(), []byte("\n")))
	return nil
}

// Table is a parsed table: every row has exactly Columns as keys
type Table struct {
	Name    string
	Columns []string
	Rows    []Row
}

// EmptyTable returns a table without columns or rows
func EmptyTable(name string) *Table {
	return &Table{Name: name, Columns: []string{}, Rows: []Row{}}
}

// Len returns the number of rows
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// MarshalJSON encodes the table as the array of its rows
func (t *Table) MarshalJSON() ([]byte, error) {
	if t == nil || len(t.Rows) == 0 {
		return []byte("[]"), nil
	}

	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, row := range t.Rows {
		if i > 0 {
			buf.WriteByte(',')
		}
		data, err := row.MarshalJSON()
		if err != nil {
			return nil, err
		}
		buf.Write(data)
	}
	buf.WriteByte(']')
	return buf.Bytes(), nil
}

// Collection is an ordered list of tables, encoded as one object of table name to rows
type Collection []*Table

// MarshalJSON encodes the tables in list order, empty tables as []
func (c Collection) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, table := range c {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeJSONString(&buf, table.Name); err != nil {
			return nil, err
		}
		buf.WriteByte(':')
		data, err := table.MarshalJSON()
		if err != nil {
			return nil, err
		}
		buf.Write(data)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
