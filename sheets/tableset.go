// Package sheets discovers, downloads and parses the tables (tabs) of a public spreadsheet.
//
// Its tests use testify, the other packages of the module use plain testing.
package sheets

// Source tells where a table handle came from
type Source string

const (
	SourceDiscovered Source = "discovered"
	SourceFallback   Source = "fallback"
)

// TableRef identifies one table of the spreadsheet
type TableRef struct {
	Name      string
	GID       string // opaque handle selecting the tab on export
	HeaderRow int    // 0-based record offset of the header row
	Source    Source
}

// TableSet is an ordered mapping of table name to TableRef. The zero value is empty and ready to use.
type TableSet struct {
	refs  []TableRef
	index map[string]int
}

// NewTableSet builds a set from refs, keeping the first ref of each name
func NewTableSet(refs ...TableRef) *TableSet {
	s := &TableSet{}
	for _, ref := range refs {
		s.Add(ref)
	}
	return s
}

// Add appends ref unless its name is already present, and reports whether it was added
func (s *TableSet) Add(ref TableRef) bool {
	if s.index == nil {
		s.index = make(map[string]int)
	}
	if _, ok := s.index[ref.Name]; ok {
		return false
	}
	s.index[ref.Name] = len(s.refs)
	s.refs = append(s.refs, ref)
	return true
}

// Get returns the ref for a name
func (s *TableSet) Get(name string) (TableRef, bool) {
	if s == nil {
		return TableRef{}, false
	}
	i, ok := s.index[name]
	if !ok {
		return TableRef{}, false
	}
	return s.refs[i], true
}

// Len returns the number of tables in the set
func (s *TableSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.refs)
}

// Refs returns a copy of the refs in set order
func (s *TableSet) Refs() []TableRef {
	if s == nil {
		return nil
	}
	refs := make([]TableRef, len(s.refs))
	copy(refs, s.refs)
	return refs
}

// Names returns the table names in set order
func (s *TableSet) Names() []string {
	if s == nil {
		return nil
	}
	names := make([]string, len(s.refs))
	for i, ref := range s.refs {
		names[i] = ref.Name
	}
	return names
}

// Merge combines discovered and fallback handles. Every fallback name is kept in its
// position, discovered entries replace fallback entries of the same name, and names
// that were only discovered follow in discovery order.
func Merge(discovered, fallback *TableSet) *TableSet {
	merged := &TableSet{}

	for _, ref := range fallback.Refs() {
		if d, ok := discovered.Get(ref.Name); ok {
			ref = d
		}
		merged.Add(ref)
	}

	for _, ref := range discovered.Refs() {
		merged.Add(ref)
	}

	return merged
}
