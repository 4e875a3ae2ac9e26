package sheets

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractStrategies(t *testing.T) {
	tests := []struct {
		name     string
		page     string
		strategy string
		want     map[string]string
	}{
		{
			name:     "items push",
			page:     `<script>items.push({name: "Pilots", hidden: false, gid: "0"});items.push({name: "Mechs", gid: "123"});</script>`,
			strategy: "items-push",
			want:     map[string]string{"Pilots": "0", "Mechs": "123"},
		},
		{
			name:     "sheet properties",
			page:     `var bootstrap = {"sheets":[{"properties":{"sheetId":0,"title":"Pilots","index":0}},{"properties":{"sheetId":77,"title":"Mechs"}}]}`,
			strategy: "sheet-properties",
			want:     map[string]string{"Pilots": "0", "Mechs": "77"},
		},
		{
			name:     "escaped sheet properties",
			page:     `var data = "[{\"sheetId\":5,\"title\":\"Weapons\"}]";`,
			strategy: "sheet-properties",
			want:     map[string]string{"Weapons": "5"},
		},
		{
			name:     "name gid pairs",
			page:     `{"name":"Items","visible":true,"gid":"31"} {"name":"Maps","gid":32}`,
			strategy: "name-gid",
			want:     map[string]string{"Items": "31", "Maps": "32"},
		},
		{
			name:     "sheet tabs",
			page:     `<div id="sheet-button-9" class="docs-sheet-tab"><div><span class="name">Ranks</span></div></div>`,
			strategy: "sheet-tabs",
			want:     map[string]string{"Ranks": "9"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			set, strategy := Extract(tt.page)
			assert.Equal(t, tt.strategy, strategy)

			got := make(map[string]string)
			for _, ref := range set.Refs() {
				got[ref.Name] = ref.GID
				assert.Equal(t, SourceDiscovered, ref.Source)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtractStopsAtFirstMatchingStrategy(t *testing.T) {
	page := `items.push({name: "Pilots", gid: "0"}); <div id="sheet-button-9"><span>Other</span></div>`

	set, strategy := Extract(page)

	assert.Equal(t, "items-push", strategy)
	assert.Equal(t, []string{"Pilots"}, set.Names())
}

func TestExtractNothing(t *testing.T) {
	set, strategy := Extract("<html><body>no tabs here</body></html>")

	assert.Equal(t, 0, set.Len())
	assert.Equal(t, "", strategy)
}

func TestExtractCleansNames(t *testing.T) {
	page := `items.push({name: "A\/B タイプ", gid: "1"});items.push({name: "Q&amp;A", gid: "2"});items.push({name: " Pilots ", gid: "3"});`

	set, _ := Extract(page)

	assert.Equal(t, []string{"A/B タイプ", "Q&A", "Pilots"}, set.Names())
}

func TestExtractKeepsFirstHandle(t *testing.T) {
	page := `items.push({name: "Pilots", gid: "0"});items.push({name: "Pilots", gid: "99"});`

	set, _ := Extract(page)

	ref, ok := set.Get("Pilots")
	require.True(t, ok)
	assert.Equal(t, "0", ref.GID)
	assert.Equal(t, 1, set.Len())
}

func TestDiscover(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/sheet/edit" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<script>items.push({name: "Pilots", gid: "0"});</script>`))
	}))
	defer server.Close()

	discoverer := NewDiscoverer(NewClient(server.URL, time.Second, 1<<20))

	set := discoverer.Discover(context.Background(), "sheet")
	assert.Equal(t, []string{"Pilots"}, set.Names())

	set = discoverer.Discover(context.Background(), "missing")
	assert.Equal(t, 0, set.Len())
}

func TestDiscoverUnreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	discoverer := NewDiscoverer(NewClient(url, time.Second, 1<<20))

	set := discoverer.Discover(context.Background(), "sheet")
	require.NotNil(t, set)
	assert.Equal(t, 0, set.Len())
}
