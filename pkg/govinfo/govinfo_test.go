package govinfo

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unitedstates/congress-sub000/pkg/artifacts"
	"github.com/unitedstates/congress-sub000/pkg/fetch"
	"github.com/unitedstates/congress-sub000/pkg/ledger"
	"github.com/unitedstates/congress-sub000/pkg/ratelimit"
	"github.com/unitedstates/congress-sub000/pkg/retry"
	"github.com/unitedstates/congress-sub000/pkg/runner"
	"github.com/unitedstates/congress-sub000/pkg/selector"
)

// publisher is a fake govinfo serving fixed paths and counting requests.
type publisher struct {
	srv   *httptest.Server
	mu    sync.Mutex
	files map[string][]byte
	hits  map[string]int
}

func newPublisher(t *testing.T) *publisher {
	t.Helper()
	p := &publisher{files: make(map[string][]byte), hits: make(map[string]int)}
	p.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p.mu.Lock()
		p.hits[r.URL.Path]++
		body, ok := p.files[r.URL.Path]
		p.mu.Unlock()
		if !ok {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write(body)
	}))
	t.Cleanup(p.srv.Close)
	return p
}

func (p *publisher) serve(path string, body []byte) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.files[path] = body
}

func (p *publisher) count(path string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.hits[path]
}

func (p *publisher) sitemapIndex(children map[string]string) []byte {
	var b bytes.Buffer
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?><sitemapindex xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">`)
	for loc, lastmod := range children {
		fmt.Fprintf(&b, `<sitemap><loc>%s%s</loc><lastmod>%s</lastmod></sitemap>`, p.srv.URL, loc, lastmod)
	}
	b.WriteString(`</sitemapindex>`)
	return b.Bytes()
}

func (p *publisher) urlset(urls map[string]string) []byte {
	var b bytes.Buffer
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?><urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">`)
	for loc, lastmod := range urls {
		fmt.Fprintf(&b, `<url><loc>%s%s</loc><lastmod>%s</lastmod></url>`, p.srv.URL, loc, lastmod)
	}
	b.WriteString(`</urlset>`)
	return b.Bytes()
}

type env struct {
	walker  *Walker
	dataDir string
	cache   string
}

func newEnv(t *testing.T, p *publisher, opts Options) env {
	t.Helper()
	dataDir, cacheDir := t.TempDir(), t.TempDir()
	local, err := artifacts.NewFileStore(dataDir)
	require.NoError(t, err)
	f := fetch.New(fetch.Config{
		CacheDir: cacheDir,
		Limiter:  ratelimit.Unlimited{},
		Retry:    retry.Policy{BaseDelay: time.Millisecond, MaxDelay: time.Millisecond},
	})
	w := New(f, artifacts.NewMirror(local), opts)
	w.BaseURL = p.srv.URL + "/"
	return env{walker: w, dataDir: dataDir, cache: cacheDir}
}

func readFile(t *testing.T, parts ...string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(parts...))
	require.NoError(t, err)
	return string(data)
}

const billStatusLastmod = "2024-01-05T09:30:00.000Z"

func serveBillStatus(p *publisher) {
	p.serve("/sitemap/bulkdata/BILLSTATUS/sitemapindex.xml", p.sitemapIndex(map[string]string{
		"/sitemap/bulkdata/BILLSTATUS/113hr/sitemap.xml": "2024-01-05T10:00:00.000Z",
	}))
	p.serve("/sitemap/bulkdata/BILLSTATUS/113hr/sitemap.xml", p.urlset(map[string]string{
		"/bulkdata/BILLSTATUS/113/hr/BILLSTATUS-113hr1.xml": billStatusLastmod,
	}))
	p.serve("/bulkdata/BILLSTATUS/113/hr/BILLSTATUS-113hr1.xml", []byte("<billStatus><version>3.0.0</version></billStatus>"))
}

func TestWalkBulkData_BillStatusLayout(t *testing.T) {
	p := newPublisher(t)
	serveBillStatus(p)
	e := newEnv(t, p, Options{})

	stats, err := e.walker.WalkBulkData(context.Background(), "BILLSTATUS")
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Files)
	assert.Equal(t, 2, stats.Sitemaps)

	dir := filepath.Join(e.dataDir, "113", "bills", "hr", "hr1")
	assert.Equal(t, "<billStatus><version>3.0.0</version></billStatus>", readFile(t, dir, "fdsys_billstatus.xml"))
	assert.Equal(t, billStatusLastmod, readFile(t, dir, "fdsys_billstatus-lastmod.txt"))

	entry, err := ledger.Load(filepath.Join(e.cache, "govinfo", "sitemap", "bulkdata", "BILLSTATUS", "113hr", "sitemap-lastmod.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "2024-01-05T10:00:00.000Z", entry.SitemapLastmod())
}

func TestWalkBulkData_Idempotent(t *testing.T) {
	p := newPublisher(t)
	serveBillStatus(p)
	e := newEnv(t, p, Options{})
	ctx := context.Background()

	_, err := e.walker.WalkBulkData(ctx, "BILLSTATUS")
	require.NoError(t, err)
	stats, err := e.walker.WalkBulkData(ctx, "BILLSTATUS")
	require.NoError(t, err)

	assert.Equal(t, 0, stats.Files)
	assert.Equal(t, 1, stats.Skipped)
	assert.Equal(t, 1, p.count("/bulkdata/BILLSTATUS/113/hr/BILLSTATUS-113hr1.xml"))
	assert.Equal(t, 1, p.count("/sitemap/bulkdata/BILLSTATUS/113hr/sitemap.xml"), "unchanged sitemaps come from the cache")

	e.walker.Options.Force = true
	_, err = e.walker.WalkBulkData(ctx, "BILLSTATUS")
	require.NoError(t, err)
	assert.Equal(t, 2, p.count("/bulkdata/BILLSTATUS/113/hr/BILLSTATUS-113hr1.xml"))
}

func TestWalkBulkData_CongressAndTypeFilters(t *testing.T) {
	p := newPublisher(t)
	serveBillStatus(p)
	ctx := context.Background()

	for name, opts := range map[string]Options{
		"congress": {Congresses: []int{114}},
		"type":     {BillTypes: []string{"s"}},
		"filter":   {Filter: regexp.MustCompile(`hr2\.xml$`)},
	} {
		t.Run(name, func(t *testing.T) {
			e := newEnv(t, p, opts)
			stats, err := e.walker.WalkBulkData(ctx, "BILLSTATUS")
			require.NoError(t, err)
			assert.Equal(t, 0, stats.Files)
			assert.NoFileExists(t, filepath.Join(e.dataDir, "113", "bills", "hr", "hr1", "fdsys_billstatus.xml"))
		})
	}
}

type outcomeRecorder struct {
	mu       sync.Mutex
	outcomes map[string]runner.Outcome
}

func (r *outcomeRecorder) Record(_ context.Context, _, _ string, o runner.Outcome) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes[o.Item] = o
	return nil
}

type countingNotifier struct {
	mu    sync.Mutex
	calls int
}

func (n *countingNotifier) Notify(context.Context, string, string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls++
	return nil
}

func TestWalkItem_ThroughRunner(t *testing.T) {
	p := newPublisher(t)
	serveBillStatus(p)
	e := newEnv(t, p, Options{})

	rec := &outcomeRecorder{outcomes: make(map[string]runner.Outcome)}
	notifier := &countingNotifier{}
	r := runner.New("govinfo", 2)
	r.Receipts = rec
	r.Notifier = notifier

	// BILLS has no sitemap index on this publisher.
	summary, _ := r.Run(context.Background(), []string{BulkDataItem("BILLSTATUS"), "BILLS"}, e.walker.WalkItem)
	assert.Equal(t, 2, summary.Total)
	assert.Equal(t, 1, summary.Saved)
	assert.Equal(t, 1, summary.Errors)
	assert.Equal(t, 1, notifier.calls)

	ok := rec.outcomes["bulkdata/BILLSTATUS"]
	require.NoError(t, ok.Err)
	assert.True(t, ok.Result.Saved)
	assert.Equal(t, "2 sitemaps, 0 packages, 1 files, 0 skipped", ok.Result.Reason)

	failed := rec.outcomes["BILLS"]
	var se *fetch.StatusError
	require.True(t, errors.As(failed.Err, &se))
	assert.Equal(t, http.StatusNotFound, se.StatusCode)

	assert.Equal(t, 1, e.walker.Totals().Files)
}

func TestWalk_ListMode(t *testing.T) {
	p := newPublisher(t)
	serveBillStatus(p)
	e := newEnv(t, p, Options{List: true})

	_, err := e.walker.WalkBulkData(context.Background(), "BILLSTATUS")
	require.NoError(t, err)
	listed := e.walker.Listed()
	require.Len(t, listed, 1)
	assert.Equal(t, "bulkdata", listed[0].Kind)
	assert.Equal(t, "113/hr/BILLSTATUS-113hr1.xml", listed[0].Name)
	assert.Equal(t, billStatusLastmod, listed[0].Lastmod)
	assert.Equal(t, 0, p.count("/bulkdata/BILLSTATUS/113/hr/BILLSTATUS-113hr1.xml"))
}

func TestWalk_UnrecognizedURL(t *testing.T) {
	p := newPublisher(t)
	p.serve("/sitemap/bulkdata/BILLSTATUS/sitemapindex.xml", p.sitemapIndex(map[string]string{
		"/sitemap/bulkdata/BILLSTATUS/113hr/sitemap.xml": "x",
	}))
	p.serve("/sitemap/bulkdata/BILLSTATUS/113hr/sitemap.xml", p.urlset(map[string]string{
		"/something/else.xml": "y",
	}))
	e := newEnv(t, p, Options{})

	_, err := e.walker.WalkBulkData(context.Background(), "BILLSTATUS")
	require.ErrorIs(t, err, ErrUnrecognizedURL)
	var ue *URLError
	require.True(t, errors.As(err, &ue))
	assert.Equal(t, p.srv.URL+"/something/else.xml", ue.URL)
	require.Len(t, ue.Breadcrumbs, 2)
	assert.Contains(t, ue.Breadcrumbs[1], "/sitemap/bulkdata/BILLSTATUS/113hr/sitemap.xml")
}

func zipArchive(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, body := range files {
		fw, err := zw.Create(name)
		require.NoError(t, err)
		_, err = fw.Write([]byte(body))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

const billsMods = `<?xml version="1.0" encoding="UTF-8"?>
<mods xmlns="http://www.loc.gov/mods/v3" version="3.3">
  <location>
    <url access="object in context" displayLabel="Content Detail">https://www.govinfo.gov/app/details/BILLS-113hr1ih</url>
    <url access="raw object" displayLabel="HTML rendition">https://www.govinfo.gov/content/pkg/BILLS-113hr1ih/html/BILLS-113hr1ih.htm</url>
    <url access="raw object" displayLabel="PDF rendition">https://www.govinfo.gov/content/pkg/BILLS-113hr1ih/pdf/BILLS-113hr1ih.pdf</url>
  </location>
  <originInfo>
    <dateIssued encoding="w3cdtf">2013-01-03</dateIssued>
  </originInfo>
</mods>`

func serveBills(t *testing.T, p *publisher, archive []byte) {
	p.serve("/sitemap/BILLS_sitemap_index.xml", p.sitemapIndex(map[string]string{
		"/sitemap/BILLS_2013_sitemap.xml": "2013-02-01T00:00:00Z",
	}))
	p.serve("/sitemap/BILLS_2013_sitemap.xml", p.urlset(map[string]string{
		"/app/details/BILLS/BILLS-113hr1ih": "2013-01-10T12:00:00Z",
	}))
	p.serve("/content/pkg/BILLS-113hr1ih.zip", archive)
}

func TestWalkCollection_MirrorsBillsPackage(t *testing.T) {
	p := newPublisher(t)
	serveBills(t, p, zipArchive(t, map[string]string{
		"BILLS-113hr1ih/pdf/BILLS-113hr1ih.pdf":  "%PDF-1.4",
		"BILLS-113hr1ih/html/BILLS-113hr1ih.htm": "<html><body><pre>113th CONGRESS\n1st Session\n&lt;H. R. 1&gt;</pre></body></html>",
		"BILLS-113hr1ih/mods.xml":                billsMods,
	}))
	e := newEnv(t, p, Options{})
	ctx := context.Background()

	stats, err := e.walker.WalkCollection(ctx, "BILLS")
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Packages)

	dir := filepath.Join(e.dataDir, "113", "bills", "hr", "hr1", "text-versions", "ih")
	assert.FileExists(t, filepath.Join(dir, "package.zip"))
	assert.Equal(t, "%PDF-1.4", readFile(t, dir, "document.pdf"))
	assert.Equal(t, "113th CONGRESS\n1st Session\n<H. R. 1>", readFile(t, dir, "document.txt"))
	assert.NoFileExists(t, filepath.Join(dir, "document.xml"), "absent members are not an error")

	var meta BillVersion
	require.NoError(t, json.Unmarshal([]byte(readFile(t, dir, "data.json")), &meta))
	assert.Equal(t, "hr1-113-ih", meta.BillVersionID)
	assert.Equal(t, "ih", meta.VersionCode)
	assert.Equal(t, "2013-01-03", meta.IssuedOn)
	assert.Equal(t, "https://www.govinfo.gov/content/pkg/BILLS-113hr1ih/pdf/BILLS-113hr1ih.pdf", meta.URLs["pdf"])
	assert.Equal(t, "https://www.govinfo.gov/content/pkg/BILLS-113hr1ih/html/BILLS-113hr1ih.htm", meta.URLs["html"])

	entry, err := ledger.Load(filepath.Join(e.cache, "govinfo", "sitemap", "BILLS", "2013", "sitemap-lastmod.yaml"))
	require.NoError(t, err)
	for _, format := range []string{ledger.PackageFileKey, "pdf", "text", "xml", "mods", "premis"} {
		ts, ok := entry.FileLastmod("BILLS-113hr1ih", format)
		assert.True(t, ok, format)
		assert.Equal(t, "2013-01-10T12:00:00Z", ts, format)
	}

	stats, err = e.walker.WalkCollection(ctx, "BILLS")
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Packages)
	assert.Equal(t, 1, p.count("/content/pkg/BILLS-113hr1ih.zip"))
}

func TestWalkCollection_MissingArchiveIsDownloadedAgain(t *testing.T) {
	p := newPublisher(t)
	serveBills(t, p, zipArchive(t, map[string]string{"BILLS-113hr1ih/mods.xml": billsMods}))
	e := newEnv(t, p, Options{})
	ctx := context.Background()

	_, err := e.walker.WalkCollection(ctx, "BILLS")
	require.NoError(t, err)
	require.NoError(t, os.Remove(filepath.Join(e.dataDir, "113", "bills", "hr", "hr1", "text-versions", "ih", "package.zip")))

	_, err = e.walker.WalkCollection(ctx, "BILLS")
	require.NoError(t, err)
	assert.Equal(t, 2, p.count("/content/pkg/BILLS-113hr1ih.zip"))
}

func TestWalkCollection_CorruptArchive(t *testing.T) {
	p := newPublisher(t)
	serveBills(t, p, []byte("<html>Service unavailable</html>"))
	e := newEnv(t, p, Options{})

	_, err := e.walker.WalkCollection(context.Background(), "BILLS")
	require.ErrorIs(t, err, ErrCorruptArchive)

	assert.NoFileExists(t, filepath.Join(e.dataDir, "113", "bills", "hr", "hr1", "text-versions", "ih", "package.zip"))
	entry, err := ledger.Load(filepath.Join(e.cache, "govinfo", "sitemap", "BILLS", "2013", "sitemap-lastmod.yaml"))
	require.NoError(t, err)
	_, ok := entry.FileLastmod("BILLS-113hr1ih", ledger.PackageFileKey)
	assert.False(t, ok, "a corrupt archive leaves no ledger entry")
}

func TestWalkCollection_YearFilterAndSelector(t *testing.T) {
	p := newPublisher(t)
	serveBills(t, p, zipArchive(t, map[string]string{"BILLS-113hr1ih/mods.xml": billsMods}))
	ctx := context.Background()

	e := newEnv(t, p, Options{Years: []int{2014}})
	stats, err := e.walker.WalkCollection(ctx, "BILLS")
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Skipped)
	assert.Equal(t, 0, p.count("/sitemap/BILLS_2013_sitemap.xml"))

	sel, err := selector.New(`kind != "package" || bill_type == "s"`)
	require.NoError(t, err)
	e = newEnv(t, p, Options{Selector: sel})
	stats, err = e.walker.WalkCollection(ctx, "BILLS")
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Packages)
	assert.Equal(t, 0, p.count("/content/pkg/BILLS-113hr1ih.zip"))
}

func TestWalkCollection_FormatSubset(t *testing.T) {
	p := newPublisher(t)
	serveBills(t, p, zipArchive(t, map[string]string{
		"BILLS-113hr1ih/pdf/BILLS-113hr1ih.pdf": "%PDF-1.4",
		"BILLS-113hr1ih/mods.xml":               billsMods,
	}))
	e := newEnv(t, p, Options{Formats: []string{"pdf"}})

	_, err := e.walker.WalkCollection(context.Background(), "BILLS")
	require.NoError(t, err)
	dir := filepath.Join(e.dataDir, "113", "bills", "hr", "hr1", "text-versions", "ih")
	assert.FileExists(t, filepath.Join(dir, "document.pdf"))
	assert.NoFileExists(t, filepath.Join(dir, "mods.xml"))
	assert.NoFileExists(t, filepath.Join(dir, "data.json"))
}

func TestPackageDir(t *testing.T) {
	w := &Walker{}
	dir, ok := w.packageDir("CRPT", "CRPT-116hrpt9")
	assert.True(t, ok)
	assert.Equal(t, "116/crpt/hrpt/hrpt9", dir)

	dir, ok = w.packageDir("FR", "FR-2020-01-02")
	assert.True(t, ok)
	assert.Equal(t, "govinfo/FR/FR-2020-01-02", dir)

	w.Options.Congresses = []int{115}
	_, ok = w.packageDir("BILLS", "BILLS-113hr1ih")
	assert.False(t, ok)
}
