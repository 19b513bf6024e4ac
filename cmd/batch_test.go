package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aeolive/competitor-cli/internal/catalog"
	"github.com/aeolive/competitor-cli/internal/competitors"
	"github.com/aeolive/competitor-cli/internal/discovery"
	"github.com/aeolive/competitor-cli/internal/model"
	"github.com/aeolive/competitor-cli/internal/store"
)

func TestReadDomains(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{
			name:  "plain list",
			input: "acme.com\n\n# comment\n  joesplumbing.com  \n",
			want:  []string{"acme.com", "joesplumbing.com"},
		},
		{
			name:  "csv domain column",
			input: "Name,Domain\nAcme,acme.com\nEmpty,\nJoe,joesplumbing.com\n",
			want:  []string{"acme.com", "joesplumbing.com"},
		},
		{
			name:  "csv url column",
			input: "company,url\nAcme,https://acme.com\n",
			want:  []string{"https://acme.com"},
		},
		{
			name:  "domain preferred over website",
			input: "website,domain\nwww.a.com,a.com\n",
			want:  []string{"a.com"},
		},
		{
			name:  "single column header",
			input: "domain\r\nacme.com\r\n",
			want:  []string{"acme.com"},
		},
		{
			name:  "bom header",
			input: "\ufeffDomain,Name\nacme.com,Acme\n",
			want:  []string{"acme.com"},
		},
		{
			name:  "comma line without known header is a plain list",
			input: "foo,bar\nacme.com\n",
			want:  []string{"foo,bar", "acme.com"},
		},
		{
			name:  "empty",
			input: "",
			want:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := readDomains(strings.NewReader(tt.input))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

type slowProfiler struct {
	inFlight, peak atomic.Int64
}

func (p *slowProfiler) Profile(_ context.Context, domain string) *model.SiteProfile {
	n := p.inFlight.Add(1)
	defer p.inFlight.Add(-1)
	for {
		old := p.peak.Load()
		if n <= old || p.peak.CompareAndSwap(old, n) {
			break
		}
	}
	time.Sleep(5 * time.Millisecond)

	industry := "Legal Services"
	if strings.Contains(domain, "plumb") {
		industry = "Plumbing Services"
	}
	return &model.SiteProfile{
		Domain:          domain,
		Industry:        industry,
		Keywords:        []string{"x"},
		Score:           10,
		MatchedKeywords: []string{"x"},
		Source:          model.ProfileSourceContent,
	}
}

func TestRunBatch_OrderAndLimit(t *testing.T) {
	cat := catalog.Default()
	prof := &slowProfiler{}
	env := &discoveryEnv{
		Catalog: cat,
		Service: discovery.New(prof, competitors.New(cat), cat),
	}

	domains := []string{"a-law.com", "b-plumb.com", "c-law.com", "d-plumb.com", "e-law.com", "f-plumb.com"}
	results := runBatch(context.Background(), env, domains, 2)

	require.Len(t, results, len(domains))
	for i, res := range results {
		require.NotNil(t, res)
		assert.Equal(t, domains[i], res.Domain)
		assert.NotEmpty(t, res.Competitors)
	}
	assert.Equal(t, "Plumbing Services", results[1].Classification.Industry)
	assert.LessOrEqual(t, prof.peak.Load(), int64(2))
}

func TestRunBatch_Records(t *testing.T) {
	cat := catalog.Default()
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.Migrate(context.Background()))

	env := &discoveryEnv{
		Catalog: cat,
		Service: discovery.New(&slowProfiler{}, competitors.New(cat), cat),
		Store:   st,
	}
	runBatch(context.Background(), env, []string{"a-law.com", "b-plumb.com"}, 2)

	runs, err := st.ListRuns(context.Background(), store.RunFilter{})
	require.NoError(t, err)
	assert.Len(t, runs, 2)
}

func TestWriteNDJSON(t *testing.T) {
	results := []*model.DiscoveryResult{
		{Domain: "a.com", Status: model.DiscoveryComplete, Competitors: []model.CompetitorRecord{}},
		{Domain: "b.com", Status: model.DiscoveryDegraded, Competitors: []model.CompetitorRecord{}},
	}

	var buf bytes.Buffer
	require.NoError(t, writeNDJSON(&buf, results))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	var first model.DiscoveryResult
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	assert.Equal(t, "a.com", first.Domain)
	assert.Contains(t, lines[1], `"status":"degraded"`)
}

func TestWriteBatchOutput_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.ndjson")
	results := []*model.DiscoveryResult{
		{Domain: "a.com", Status: model.DiscoveryComplete, Competitors: []model.CompetitorRecord{}},
	}

	require.NoError(t, writeBatchOutput(path, results))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"domain":"a.com"`)
	assert.True(t, strings.HasSuffix(string(data), "\n"))
}

func TestWriteBatchOutput_CreateError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "out.ndjson")

	err := writeBatchOutput(path, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "batch: create output")
}
