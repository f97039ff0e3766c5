package legislators

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unitedstates/congress-sub000/pkg/fetch"
	"github.com/unitedstates/congress-sub000/pkg/ratelimit"
	"github.com/unitedstates/congress-sub000/pkg/retry"
)

func testRegistry(t *testing.T) *Registry {
	t.Helper()
	return New("testdata", nil)
}

func TestLookup(t *testing.T) {
	r := testRegistry(t)
	ctx := context.Background()

	tests := []struct {
		name string
		q    Query
		want string
	}{
		{"accent folded", Query{Congress: 111, RoleType: "rep", Name: "Velazquez", State: "NY", Party: "D", When: "2010-03-21", IDKind: Bioguide}, "V000081"},
		{"state disambiguates", Query{Congress: 111, RoleType: "rep", Name: "Smith", State: "WA", Party: "D", When: "2010-03-21", IDKind: Bioguide}, "S000583"},
		{"first name", Query{Congress: 111, RoleType: "rep", Name: "Smith, Christopher", State: "NJ", Party: "R", When: "2010-03-21", IDKind: Bioguide}, "S000522"},
		{"nickname", Query{Congress: 111, RoleType: "rep", Name: "Smith, Chris", State: "NJ", Party: "R", When: "2010-03-21", IDKind: Bioguide}, "S000522"},
		{"initial", Query{Congress: 111, RoleType: "rep", Name: "Smith, C.", State: "NJ", Party: "R", When: "2010-03-21", IDKind: Govtrack}, "400380"},
		{"compound surname", Query{Congress: 106, RoleType: "rep", Name: "Chenoweth", State: "ID", Party: "R", When: "1999-03-01", IDKind: Bioguide}, "C000354"},
		{"senate lis", Query{Congress: 111, RoleType: "sen", Name: "McCain", State: "AZ", Party: "R", When: "2010-03-24", IDKind: LIS}, "S197"},
		{"historical file", Query{Congress: 111, RoleType: "rep", Name: "Becerra", State: "CA", Party: "D", When: "2010-03-21", IDKind: Bioguide}, "B000287"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.Lookup(ctx, tt.q)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLookup_NotFound(t *testing.T) {
	r := testRegistry(t)
	ctx := context.Background()

	_, err := r.Lookup(ctx, Query{Congress: 111, RoleType: "rep", Name: "Nobody", State: "NY", Party: "D", When: "2010-03-21", IDKind: Bioguide})
	assert.ErrorIs(t, err, ErrNotFound)

	// Out of term.
	_, err = r.Lookup(ctx, Query{Congress: 111, RoleType: "rep", Name: "Becerra", State: "CA", Party: "D", When: "2011-06-01", IDKind: Bioguide})
	assert.ErrorIs(t, err, ErrNotFound)

	// Party disagrees and the name is not a known switcher.
	_, err = r.Lookup(ctx, Query{Congress: 111, RoleType: "sen", Name: "Specter", State: "PA", Party: "R", When: "2009-03-01", IDKind: Bioguide})
	assert.ErrorIs(t, err, ErrNotFound)

	// No LIS id for a representative.
	_, err = r.Lookup(ctx, Query{Congress: 111, RoleType: "rep", Name: "Becerra", State: "CA", Party: "D", When: "2010-03-21", IDKind: LIS})
	assert.ErrorIs(t, err, ErrNotFound)
}

func twins() []Legislator {
	term := Term{Type: "rep", Start: "2009-01-06", End: "2011-01-03", State: "NJ", Party: "Republican"}
	return []Legislator{
		{ID: IDs{Bioguide: "A000001"}, Name: Name{First: "Alice", Last: "Smith"}, Terms: []Term{term}},
		{ID: IDs{Bioguide: "B000002"}, Name: Name{First: "Bob", Last: "Smith"}, Terms: []Term{term}},
	}
}

func TestLookup_AmbiguousAndElimination(t *testing.T) {
	r := FromLegislators(twins())
	ctx := context.Background()
	q := Query{Congress: 111, RoleType: "rep", Name: "Smith", State: "NJ", Party: "R", When: "2010-03-21", IDKind: Bioguide}

	_, err := r.Lookup(ctx, q)
	assert.ErrorIs(t, err, ErrAmbiguous)

	q.Exclude = map[string]bool{"A000001": true}
	got, err := r.Lookup(ctx, q)
	require.NoError(t, err)
	assert.Equal(t, "B000002", got)

	q.Exclude = nil
	q.Name = "Smith, Alice"
	got, err = r.Lookup(ctx, q)
	require.NoError(t, err)
	assert.Equal(t, "A000001", got)
}

func TestTranslate(t *testing.T) {
	r := testRegistry(t)
	ctx := context.Background()

	got, err := r.Translate(ctx, LIS, "S197", Bioguide)
	require.NoError(t, err)
	assert.Equal(t, "M000303", got)

	got, err = r.Translate(ctx, Bioguide, "M000303", Govtrack)
	require.NoError(t, err)
	assert.Equal(t, "300071", got)

	got, err = r.Translate(ctx, Bioguide, "M000303", Bioguide)
	require.NoError(t, err)
	assert.Equal(t, "M000303", got)

	_, err = r.Translate(ctx, LIS, "S999", Bioguide)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLoad_DownloadsMissingFiles(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		data, err := os.ReadFile(filepath.Join("testdata", filepath.Base(r.URL.Path)))
		if err != nil {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write(data)
	}))
	defer srv.Close()

	cache := t.TempDir()
	newRegistry := func() *Registry {
		f := fetch.New(fetch.Config{
			CacheDir: cache,
			Limiter:  ratelimit.Unlimited{},
			Retry:    retry.Policy{BaseDelay: time.Millisecond, MaxDelay: time.Millisecond},
		})
		r := New(t.TempDir(), f)
		r.BaseURL = srv.URL
		return r
	}

	got, err := newRegistry().Translate(context.Background(), LIS, "S197", Bioguide)
	require.NoError(t, err)
	assert.Equal(t, "M000303", got)
	assert.Equal(t, int32(2), hits.Load())

	_, err = newRegistry().Translate(context.Background(), LIS, "S197", Bioguide)
	require.NoError(t, err)
	assert.Equal(t, int32(2), hits.Load(), "second registry reads the cached copies")
}

func TestLoad_MissingWithoutFetcher(t *testing.T) {
	r := New(t.TempDir(), nil)
	_, err := r.Lookup(context.Background(), Query{Congress: 111})
	require.Error(t, err)
	_, err = r.Translate(context.Background(), LIS, "S197", Bioguide)
	require.Error(t, err, "a failed load is remembered")
}

func TestFold(t *testing.T) {
	assert.Equal(t, "Velazquez", fold("Velázquez"))
	assert.Equal(t, "Chenoweth Hage", fold("Chenoweth-Hage"))
	assert.Equal(t, "Lujan Grisham", fold("Luján Grisham"))
}
