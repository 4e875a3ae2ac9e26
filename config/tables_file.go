package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// TablesFile is the YAML layout of TABLES_FILE
//
//	header_row: 1
//	tables:
//	  - name: pilots
//	    gid: "0"
//	  - name: mechs
//	    gid: "123456789"
//	    header_row: 2
type TablesFile struct {
	HeaderRow *int          `yaml:"header_row,omitempty"`
	Tables    []TableConfig `yaml:"tables"`
}

// LoadTablesFile reads and validates a tables file
func LoadTablesFile(path string) (*TablesFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read tables file: %w", err)
	}

	var file TablesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse tables file %s: %w", path, err)
	}

	seen := map[string]bool{}
	for i, table := range file.Tables {
		name := TableName(table.Name)
		if name == "" {
			return nil, fmt.Errorf("tables file %s: table %d has no name", path, i)
		}
		if _, err := strconv.ParseUint(table.GID, 10, 64); err != nil {
			return nil, fmt.Errorf("tables file %s: gid %q for table %q must be numeric", path, table.GID, name)
		}
		if seen[name] {
			return nil, fmt.Errorf("tables file %s: duplicate table name %q", path, name)
		}
		seen[name] = true
		file.Tables[i].Name = name
	}

	return &file, nil
}

// applyTablesFile replaces the fallback list with the file's tables and
// merges its header rows over the environment ones
func (c *Config) applyTablesFile(path string) error {
	file, err := LoadTablesFile(path)
	if err != nil {
		return fmt.Errorf("invalid TABLES_FILE: %w", err)
	}

	if file.HeaderRow != nil {
		c.HeaderRow = *file.HeaderRow
	}

	if len(file.Tables) > 0 {
		c.FallbackTables = file.Tables
	}

	for _, table := range file.Tables {
		if table.HeaderRow != nil {
			c.HeaderRows[table.Name] = *table.HeaderRow
		}
	}

	return nil
}
