package sheets

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"github.com/giygas/sheets-sync/logging"
	"golang.org/x/net/html"
	"golang.org/x/text/unicode/norm"
)

// Strategy extracts name/handle pairs from the editor page with one pattern
type Strategy struct {
	Name      string
	Pattern   *regexp.Regexp
	NameGroup int
	GIDGroup  int
}

// DefaultStrategies are tried in order, from the most specific page layout to the loosest
var DefaultStrategies = []Strategy{
	{
		Name:      "items-push",
		Pattern:   regexp.MustCompile(`items\.push\(\{\s*name:\s*"((?:[^"\\]|\\.)*)"[^}]*?gid:\s*"?(\d+)"?`),
		NameGroup: 1,
		GIDGroup:  2,
	},
	{
		Name:      "sheet-properties",
		Pattern:   regexp.MustCompile(`\\?"sheetId\\?"\s*:\s*(\d+)\s*,\s*\\?"title\\?"\s*:\s*\\?"((?:[^"\\]|\\[^"])*)\\?"`),
		NameGroup: 2,
		GIDGroup:  1,
	},
	{
		Name:      "name-gid",
		Pattern:   regexp.MustCompile(`\\?"name\\?"\s*:\s*\\?"((?:[^"\\]|\\[^"])*)\\?"[^{}]{0,200}?\\?"gid\\?"\s*:\s*\\?"?(\d+)`),
		NameGroup: 1,
		GIDGroup:  2,
	},
	{
		Name:      "sheet-tabs",
		Pattern:   regexp.MustCompile(`id="sheet-button-(\d+)"[^>]*>(?:\s*<[^>]+>)*\s*([^<]+?)\s*<`),
		NameGroup: 2,
		GIDGroup:  1,
	},
}

// Extract runs the strategy against page, keeping the first handle of each name
func (s Strategy) Extract(page string) *TableSet {
	set := &TableSet{}
	for _, match := range s.Pattern.FindAllStringSubmatch(page, -1) {
		name := cleanName(match[s.NameGroup])
		gid := match[s.GIDGroup]
		if name == "" || gid == "" {
			continue
		}
		set.Add(TableRef{Name: name, GID: gid, Source: SourceDiscovered})
	}
	return set
}

// Extract tries strategies in order and returns the first non-empty result, with the
// name of the strategy that produced it. DefaultStrategies are used when none are given.
func Extract(page string, strategies ...Strategy) (*TableSet, string) {
	if len(strategies) == 0 {
		strategies = DefaultStrategies
	}

	for _, strategy := range strategies {
		if set := strategy.Extract(page); set.Len() > 0 {
			return set, strategy.Name
		}
	}

	return &TableSet{}, ""
}

// cleanName undoes script and HTML escaping of a scraped name
func cleanName(raw string) string {
	name := raw
	if strings.Contains(name, `\`) {
		escaped := strings.ReplaceAll(name, `\/`, `/`)
		if unquoted, err := strconv.Unquote(`"` + escaped + `"`); err == nil {
			name = unquoted
		}
	}
	name = html.UnescapeString(name)
	return norm.NFC.String(strings.TrimSpace(name))
}

// Discoverer finds the tables of a spreadsheet by scraping its editor page
type Discoverer struct {
	client     *Client
	strategies []Strategy
}

// NewDiscoverer creates a discoverer; DefaultStrategies are used when none are given
func NewDiscoverer(client *Client, strategies ...Strategy) *Discoverer {
	if len(strategies) == 0 {
		strategies = DefaultStrategies
	}
	return &Discoverer{client: client, strategies: strategies}
}

// Discover returns the tables found on the editor page. Failures are logged and
// yield an empty set, the fallback tables cover for them.
func (d *Discoverer) Discover(ctx context.Context, sheetID string) *TableSet {
	page, err := d.client.FetchPage(ctx, sheetID)
	if err != nil {
		logging.Warn("Table discovery failed, using fallback tables", "sheet_id", sheetID, "error", err)
		return &TableSet{}
	}

	set, strategy := Extract(page, d.strategies...)
	if set.Len() == 0 {
		logging.Warn("No tables found on spreadsheet page, using fallback tables",
			"sheet_id", sheetID,
			"page_bytes", len(page),
			"strategies_tried", len(d.strategies))
		return set
	}

	logging.Info("Discovered tables",
		"sheet_id", sheetID,
		"strategy", strategy,
		"count", set.Len(),
		"tables", set.Names())

	return set
}
