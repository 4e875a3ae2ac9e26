// Package config has the configuration of the sync runs
package config

import (
	"fmt"
	"net"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"
)

// Environment is the deployment environment the binary runs in
type Environment string

const (
	EnvDevelopment Environment = "dev"
	EnvStaging     Environment = "staging"
	EnvProduction  Environment = "prod"
	EnvTest        Environment = "test"
)

// String returns the short environment name
func (e Environment) String() string {
	return string(e)
}

// ParseEnvironment maps an ENV value, including its long aliases, to an Environment
func ParseEnvironment(value string) (Environment, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "dev", "development":
		return EnvDevelopment, nil
	case "staging":
		return EnvStaging, nil
	case "prod", "production":
		return EnvProduction, nil
	case "test":
		return EnvTest, nil
	}

	return EnvDevelopment, fmt.Errorf("ENV must be one of: %v, got: %s",
		[]Environment{EnvDevelopment, EnvStaging, EnvProduction, EnvTest}, value)
}

const (
	DefaultSheetID        = "1cG37dxatVK7go9rDvu4VMrp1XN4qCvgbVyyiqHqLBy0"
	DefaultBaseURL        = "https://docs.google.com/spreadsheets/d"
	DefaultOutputDir      = "public/data"
	DefaultFallbackTables = "pilots=0,mechs=123456789,weapons=987654321"
	DefaultSyncAt         = "06:00;18:00"
)

var (
	sheetIDPattern  = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)
	sheetURLPattern = regexp.MustCompile(`^https://docs.google.com/spreadsheets/d/(.*?)(?:/.*)?$`)
	syncTimePattern = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)
)

// TableConfig is one statically configured table
type TableConfig struct {
	Name      string `yaml:"name"`
	GID       string `yaml:"gid"`
	HeaderRow *int   `yaml:"header_row,omitempty"`
}

// Config holds all application configuration
type Config struct {
	SheetID         string
	BaseURL         string
	OutputDir       string
	Discovery       bool
	FallbackTables  []TableConfig
	HeaderRow       int            // Default header row offset for every table
	HeaderRows      map[string]int // Per-table header row offsets, by table name
	TablesFile      string
	HTTPTimeout     time.Duration
	MaxResponseSize int64 // Maximum CSV/HTML body size in bytes

	Env               Environment
	LogLevel          string
	LogDir            string
	LogRetentionWeeks int // Number of weeks to keep log files

	SyncAt       string
	SyncInterval time.Duration

	Port    string
	Address string
}

// Load loads and validates configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		SheetID:           getEnvWithDefault("SHEET_ID", DefaultSheetID),
		BaseURL:           strings.TrimRight(getEnvWithDefault("SHEETS_BASE_URL", DefaultBaseURL), "/"),
		OutputDir:         getEnvWithDefault("OUTPUT_DIR", DefaultOutputDir),
		Discovery:         getBoolEnvWithDefault("DISCOVERY", true),
		HeaderRow:         getIntEnvWithDefault("HEADER_ROW", 0),
		TablesFile:        os.Getenv("TABLES_FILE"),
		HTTPTimeout:       getDurationEnvWithDefault("HTTP_TIMEOUT", 30*time.Second),
		MaxResponseSize:   getInt64EnvWithDefault("MAX_RESPONSE_SIZE", 33554432), // 32MB default
		LogLevel:          strings.ToLower(os.Getenv("LOG_LEVEL")),
		LogDir:            lookupEnvWithDefault("LOG_DIR", "logs"),
		LogRetentionWeeks: getIntEnvWithDefault("LOG_RETENTION_WEEKS", 4),
		SyncAt:            getEnvWithDefault("SYNC_AT", DefaultSyncAt),
		SyncInterval:      getDurationEnvWithDefault("SYNC_INTERVAL", 0),
		Port:              getEnvWithDefault("PORT", "8000"),
		Address:           getEnvWithDefault("ADDRESS", "127.0.0.1"),
	}

	env, err := ParseEnvironment(getEnvWithDefault("ENV", string(EnvDevelopment)))
	if err != nil {
		return nil, fmt.Errorf("invalid ENV: %w", err)
	}
	cfg.Env = env

	if id, ok := SheetIDFromURL(cfg.SheetID); ok {
		cfg.SheetID = id
	}

	tables, err := ParseTableList(getEnvWithDefault("FALLBACK_TABLES", DefaultFallbackTables))
	if err != nil {
		return nil, fmt.Errorf("invalid FALLBACK_TABLES: %w", err)
	}
	cfg.FallbackTables = tables

	headerRows, err := ParseHeaderRows(os.Getenv("HEADER_ROWS"))
	if err != nil {
		return nil, fmt.Errorf("invalid HEADER_ROWS: %w", err)
	}
	cfg.HeaderRows = headerRows

	if cfg.TablesFile != "" {
		if err := cfg.applyTablesFile(cfg.TablesFile); err != nil {
			return nil, err
		}
	}

	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// HeaderRowFor returns the header row offset configured for a table
func (c *Config) HeaderRowFor(name string) int {
	if row, ok := c.HeaderRows[TableName(name)]; ok {
		return row
	}
	return c.HeaderRow
}

// SetSheet replaces the spreadsheet, given as an identifier or a spreadsheet URL
func (c *Config) SetSheet(value string) error {
	value = strings.TrimSpace(value)
	if id, ok := SheetIDFromURL(value); ok {
		value = id
	}

	if err := validateSheetID(value); err != nil {
		return fmt.Errorf("invalid sheet: %w", err)
	}

	c.SheetID = value
	return nil
}

// SheetIDFromURL extracts the spreadsheet identifier from a spreadsheet URL
func SheetIDFromURL(url string) (string, bool) {
	match := sheetURLPattern.FindStringSubmatch(url)
	if len(match) < 2 || match[1] == "" {
		return "", false
	}
	return match[1], true
}

// TableName trims and NFC normalises a configured table name, so it matches the
// name discovery reports for the same tab
func TableName(name string) string {
	return norm.NFC.String(strings.TrimSpace(name))
}

// ParseTableList parses a "name=gid,name=gid" list, keeping its order
func ParseTableList(value string) ([]TableConfig, error) {
	tables := []TableConfig{}
	seen := map[string]bool{}

	for _, entry := range strings.Split(value, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		name, gid, ok := strings.Cut(entry, "=")
		name = TableName(name)
		gid = strings.TrimSpace(gid)
		if !ok || name == "" || gid == "" {
			return nil, fmt.Errorf("entry %q must be in the form name=gid", entry)
		}

		if _, err := strconv.ParseUint(gid, 10, 64); err != nil {
			return nil, fmt.Errorf("gid %q for table %q must be numeric", gid, name)
		}

		if seen[name] {
			return nil, fmt.Errorf("duplicate table name %q", name)
		}
		seen[name] = true

		tables = append(tables, TableConfig{Name: name, GID: gid})
	}

	return tables, nil
}

// ParseHeaderRows parses a "name=row,name=row" list of header row offsets
func ParseHeaderRows(value string) (map[string]int, error) {
	rows := map[string]int{}

	for _, entry := range strings.Split(value, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		name, row, ok := strings.Cut(entry, "=")
		name = TableName(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("entry %q must be in the form name=row", entry)
		}

		n, err := strconv.Atoi(strings.TrimSpace(row))
		if err != nil {
			return nil, fmt.Errorf("header row for table %q must be a number: %w", name, err)
		}

		rows[name] = n
	}

	return rows, nil
}

// validateConfig validates all configuration values
func validateConfig(cfg *Config) error {
	if err := validateSheetID(cfg.SheetID); err != nil {
		return fmt.Errorf("invalid SHEET_ID: %w", err)
	}

	if err := validateBaseURL(cfg.BaseURL); err != nil {
		return fmt.Errorf("invalid SHEETS_BASE_URL: %w", err)
	}

	if strings.TrimSpace(cfg.OutputDir) == "" {
		return fmt.Errorf("invalid OUTPUT_DIR: OUTPUT_DIR cannot be empty")
	}

	if err := validateHeaderRow(cfg.HeaderRow, "HEADER_ROW"); err != nil {
		return fmt.Errorf("invalid HEADER_ROW: %w", err)
	}

	for name, row := range cfg.HeaderRows {
		if err := validateHeaderRow(row, name); err != nil {
			return fmt.Errorf("invalid HEADER_ROWS: %w", err)
		}
	}

	if len(cfg.FallbackTables) == 0 && !cfg.Discovery {
		return fmt.Errorf("no tables configured: set FALLBACK_TABLES or enable DISCOVERY")
	}

	if err := validateTimeout(cfg.HTTPTimeout); err != nil {
		return fmt.Errorf("invalid HTTP_TIMEOUT: %w", err)
	}

	if err := validateSizeLimit(cfg.MaxResponseSize, "MAX_RESPONSE_SIZE"); err != nil {
		return fmt.Errorf("invalid MAX_RESPONSE_SIZE: %w", err)
	}

	if err := validateLogLevel(cfg.LogLevel); err != nil {
		return fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}

	if err := validateLogRetentionWeeks(cfg.LogRetentionWeeks); err != nil {
		return fmt.Errorf("invalid LOG_RETENTION_WEEKS: %w", err)
	}

	if err := validateSyncAt(cfg.SyncAt); err != nil {
		return fmt.Errorf("invalid SYNC_AT: %w", err)
	}

	if cfg.SyncInterval != 0 && cfg.SyncInterval < time.Minute {
		return fmt.Errorf("invalid SYNC_INTERVAL: must be at least 1m, got: %s", cfg.SyncInterval)
	}

	if err := validatePort(cfg.Port); err != nil {
		return fmt.Errorf("invalid PORT: %w", err)
	}

	if err := validateAddress(cfg.Address); err != nil {
		return fmt.Errorf("invalid ADDRESS: %w", err)
	}

	return nil
}

// validateSheetID validates the spreadsheet identifier
func validateSheetID(id string) error {
	if id == "" {
		return fmt.Errorf("SHEET_ID cannot be empty")
	}

	if !sheetIDPattern.MatchString(id) {
		return fmt.Errorf("SHEET_ID must only contain letters, digits, '-' and '_', got: %s", id)
	}

	return nil
}

// validateBaseURL validates the spreadsheet endpoint root
func validateBaseURL(url string) error {
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		return fmt.Errorf("SHEETS_BASE_URL must start with http:// or https://, got: %s", url)
	}

	return nil
}

// validateHeaderRow validates a header row offset
func validateHeaderRow(row int, name string) error {
	if row < 0 {
		return fmt.Errorf("header row for %s must not be negative, got: %d", name, row)
	}

	if row > 1000 {
		return fmt.Errorf("header row for %s is too large (max 1000), got: %d", name, row)
	}

	return nil
}

// validateTimeout validates the HTTP client timeout
func validateTimeout(timeout time.Duration) error {
	if timeout <= 0 {
		return fmt.Errorf("HTTP_TIMEOUT must be positive, got: %s", timeout)
	}

	if timeout > 10*time.Minute {
		return fmt.Errorf("HTTP_TIMEOUT is too large (max 10m), got: %s", timeout)
	}

	return nil
}

// validateSizeLimit validates size limit configuration values
func validateSizeLimit(size int64, configName string) error {
	if size <= 0 {
		return fmt.Errorf("%s must be positive, got: %d", configName, size)
	}

	if size > 1024*1024*1024 { // 1GB
		return fmt.Errorf("%s is too large (max 1GB), got: %d bytes", configName, size)
	}

	return nil
}

// validateLogLevel validates the LOG_LEVEL environment variable, empty means per environment
func validateLogLevel(logLevel string) error {
	if logLevel == "" {
		return nil
	}

	validLevels := []string{"debug", "info", "warn", "warning", "error"}

	for _, level := range validLevels {
		if logLevel == level {
			return nil
		}
	}

	return fmt.Errorf("LOG_LEVEL must be one of: %v, got: %s", validLevels, logLevel)
}

// validateLogRetentionWeeks validates the LOG_RETENTION_WEEKS environment variable
func validateLogRetentionWeeks(weeks int) error {
	if weeks <= 0 {
		return fmt.Errorf("LOG_RETENTION_WEEKS must be positive, got: %d", weeks)
	}

	if weeks > 52 { // 1 year maximum
		return fmt.Errorf("LOG_RETENTION_WEEKS is too large (max 52 weeks), got: %d", weeks)
	}

	return nil
}

// validateSyncAt validates a "HH:MM;HH:MM" list of daily sync times
func validateSyncAt(syncAt string) error {
	if strings.TrimSpace(syncAt) == "" {
		return fmt.Errorf("SYNC_AT cannot be empty")
	}

	for _, at := range strings.Split(syncAt, ";") {
		if !syncTimePattern.MatchString(strings.TrimSpace(at)) {
			return fmt.Errorf("SYNC_AT entries must be HH:MM, got: %q", at)
		}
	}

	return nil
}

// validatePort validates the PORT environment variable
func validatePort(port string) error {
	if port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}

	portNum, err := strconv.Atoi(port)
	if err != nil {
		return fmt.Errorf("PORT must be a valid number: %w", err)
	}

	if portNum < 1 || portNum > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535")
	}

	// Check for privileged ports
	if portNum < 1024 {
		return fmt.Errorf("PORT %d is privileged (less than 1024), use ports 1024-65535", portNum)
	}

	return nil
}

// validateAddress validates the ADDRESS environment variable
func validateAddress(address string) error {
	if address == "" {
		return fmt.Errorf("ADDRESS cannot be empty")
	}

	if address == "127.0.0.1" || address == "::1" || address == "localhost" {
		return nil
	}

	ip := net.ParseIP(address)
	if ip == nil {
		return fmt.Errorf("ADDRESS must be a valid IP address or 'localhost', got: %s", address)
	}

	if !ip.IsLoopback() && !ip.IsPrivate() && !ip.IsUnspecified() {
		return fmt.Errorf("ADDRESS %s is a public IP, consider using private network ranges for security", address)
	}

	return nil
}

// getEnvWithDefault gets an environment variable with a default value
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// lookupEnvWithDefault is like getEnvWithDefault but keeps a value explicitly set to ""
func lookupEnvWithDefault(key, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return defaultValue
}

// getIntEnvWithDefault gets an environment variable as int with a default value
func getIntEnvWithDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getInt64EnvWithDefault gets an environment variable as int64 with a default value
func getInt64EnvWithDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getBoolEnvWithDefault gets an environment variable as bool with a default value
func getBoolEnvWithDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// getDurationEnvWithDefault gets an environment variable as a duration with a default value
func getDurationEnvWithDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// GetEnvVars returns a list of all expected environment variables
func GetEnvVars() []string {
	return []string{
		"SHEET_ID",
		"SHEETS_BASE_URL",
		"OUTPUT_DIR",
		"DISCOVERY",
		"FALLBACK_TABLES",
		"TABLES_FILE",
		"HEADER_ROW",
		"HEADER_ROWS",
		"HTTP_TIMEOUT",
		"MAX_RESPONSE_SIZE",
		"ENV",
		"LOG_LEVEL",
		"LOG_DIR",
		"LOG_RETENTION_WEEKS",
		"SYNC_AT",
		"SYNC_INTERVAL",
		"PORT",
		"ADDRESS",
	}
}
