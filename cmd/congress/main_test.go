package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unitedstates/congress-sub000/pkg/ident"
	"github.com/unitedstates/congress-sub000/pkg/layout"
)

// isolate points every setting at temporary directories.
func isolate(t *testing.T) (dataDir string) {
	t.Helper()
	dataDir = t.TempDir()
	t.Setenv("DATA_DIR", dataDir)
	t.Setenv("CACHE_DIR", t.TempDir())
	t.Setenv("LEGISLATORS_DIR", t.TempDir())
	t.Setenv("LOG_LEVEL", "ERROR")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("REQUESTS_PER_MINUTE", "6000")
	t.Setenv("RETRY_ATTEMPTS", "0")
	t.Setenv("WORKERS", "1")
	t.Setenv("RECEIPTS_DRIVER", "none")
	t.Setenv("VALIDATE_OUTPUT", "true")
	t.Setenv("OUTPUT_REPLICA_TYPE", "none")
	t.Setenv("OTEL_ENABLED", "false")
	t.Setenv("RATE_LIMIT_REDIS_ADDR", "")
	t.Setenv("VOTE_OVERRIDES_FILE", "")
	return dataDir
}

func run(args ...string) (int, string, string) {
	var stdout, stderr bytes.Buffer
	code := Run(append([]string{"congress"}, args...), &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestRun_Usage(t *testing.T) {
	code, _, stderr := run()
	assert.Equal(t, 2, code)
	assert.Contains(t, stderr, "USAGE")

	code, _, stderr = run("frobnicate")
	assert.Equal(t, 2, code)
	assert.Contains(t, stderr, "Unknown command: frobnicate")

	code, stdout, _ := run("help")
	assert.Equal(t, 0, code)
	assert.Contains(t, stdout, "get-votes")
}

func TestRun_Version(t *testing.T) {
	code, stdout, _ := run("version")
	assert.Equal(t, 0, code)
	assert.Equal(t, "congress "+version+"\n", stdout)
}

func TestRun_FlagErrors(t *testing.T) {
	isolate(t)
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"govinfo needs a collection", []string{"govinfo"}, "--collections or --bulkdata is required"},
		{"govinfo bad format", []string{"govinfo", "--collections=BILLS", "--store=pdf,doc"}, `unknown format "doc"`},
		{"govinfo bad regex", []string{"govinfo", "--bulkdata=BILLSTATUS", "--filter=("}, "--filter"},
		{"govinfo bad expr", []string{"govinfo", "--bulkdata=BILLSTATUS", "--expr=name +"}, "--expr"},
		{"govinfo bad years", []string{"govinfo", "--collections=BILLS", "--years=20x3"}, "--years"},
		{"get-bill needs an id", []string{"get-bill"}, "--bill_id is required"},
		{"get-bill bad id", []string{"get-bill", "--bill_id=hr3590"}, "Error"},
		{"get-bills needs a congress", []string{"get-bills"}, "--congress is required"},
		{"get-vote bad id", []string{"get-vote", "--vote_id=x768-111.2010"}, "Error"},
		{"get-vote bad id kind", []string{"get-vote", "--vote_id=h768-111.2010", "--ids=thomas"}, `unknown id kind "thomas"`},
		{"get-votes bad chamber", []string{"get-votes", "--congress=111", "--chamber=x"}, "--chamber must be h or s"},
		{"get-votes bad session", []string{"get-votes", "--congress=111", "--session=2013"}, "not a session year"},
		{"unknown flag", []string{"get-bills", "--nope"}, "flag provided but not defined"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _, stderr := run(tt.args...)
			assert.Equal(t, 2, code)
			assert.Contains(t, stderr, tt.want)
		})
	}
}

func TestRun_InvalidConfig(t *testing.T) {
	isolate(t)
	t.Setenv("WORKERS", "9")
	code, _, stderr := run("get-bills", "--congress=111")
	assert.Equal(t, 2, code)
	assert.Contains(t, stderr, "workers must be between 1 and 4")
}

func mirrorBillStatus(t *testing.T, dataDir string) ident.BillID {
	t.Helper()
	id := ident.BillID{Type: "hr", Number: 3590, Congress: 111}
	src, err := os.ReadFile(filepath.Join("..", "..", "pkg", "bills", "testdata", "BILLSTATUS-111hr3590.xml"))
	require.NoError(t, err)
	p := filepath.Join(dataDir, filepath.FromSlash(layout.BillStatusPath(id)))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, src, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dataDir, filepath.FromSlash(layout.LastmodPath(layout.BillStatusPath(id)))), []byte("2023-01-11T13:35:52Z"), 0o644))
	return id
}

func TestGetBill(t *testing.T) {
	dataDir := isolate(t)
	id := mirrorBillStatus(t, dataDir)

	code, stdout, stderr := run("get-bill", "--bill_id=hr3590-111")
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, "bills: 1 items, 1 saved, 0 skipped, 0 errors")

	data, err := os.ReadFile(filepath.Join(dataDir, filepath.FromSlash(layout.BillDataPath(id, layout.DataJSON))))
	require.NoError(t, err)
	var rec map[string]any
	require.NoError(t, json.Unmarshal(data, &rec))
	assert.Equal(t, "hr3590-111", rec["bill_id"])
	assert.FileExists(t, filepath.Join(dataDir, filepath.FromSlash(layout.BillDataPath(id, layout.DataXML))))

	// Unchanged source: skipped on the second run.
	code, stdout, _ = run("get-bills", "--congress=111")
	assert.Equal(t, 0, code)
	assert.Contains(t, stdout, "bills: 1 items, 0 saved, 1 skipped, 0 errors")
}

func TestGetBill_MissingSourceFails(t *testing.T) {
	isolate(t)
	code, stdout, _ := run("get-bill", "--bill_id=hr1-113")
	assert.Equal(t, 1, code)
	assert.Contains(t, stdout, "1 errors")
	assert.Contains(t, stdout, "hr1-113")
}

func TestGetBills_WithReceipts(t *testing.T) {
	dataDir := isolate(t)
	mirrorBillStatus(t, dataDir)
	dsn := filepath.Join(t.TempDir(), "receipts.db")
	t.Setenv("RECEIPTS_DRIVER", "sqlite")
	t.Setenv("RECEIPTS_DSN", dsn)

	code, _, stderr := run("get-bills", "--congress=111", "--limit=1")
	require.Equal(t, 0, code, stderr)
	assert.FileExists(t, dsn)
}

const rollCall = `<?xml version="1.0" encoding="UTF-8"?>
<rollcall-vote>
<vote-metadata>
<congress>111</congress>
<session>1st</session>
<rollcall-num>5</rollcall-num>
<legis-num>H R 2</legis-num>
<vote-question>On Passage</vote-question>
<vote-type>YEA-AND-NAY</vote-type>
<vote-result>Passed</vote-result>
<action-date>9-Jan-2009</action-date>
<action-time time-etz="14:05">2:05 PM</action-time>
<vote-desc>Children's Health Insurance Program Reauthorization Act</vote-desc>
</vote-metadata>
<vote-data>
<recorded-vote><legislator name-id="A000014" sort-field="Abercrombie" unaccented-name="Abercrombie" party="D" state="HI" role="legislator">Abercrombie</legislator><vote>Yea</vote></recorded-vote>
<recorded-vote><legislator name-id="S000583" sort-field="Smith (WA)" unaccented-name="Smith (WA)" party="D" state="WA" role="legislator">Smith (WA)</legislator><vote>Nay</vote></recorded-vote>
</vote-data>
</rollcall-vote>
`

func TestGetVote(t *testing.T) {
	dataDir := isolate(t)
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/evs/2009/roll005.xml" {
			http.NotFound(w, r)
			return
		}
		hits.Add(1)
		_, _ = w.Write([]byte(rollCall))
	}))
	defer srv.Close()
	t.Setenv("HOUSE_BASE_URL", srv.URL+"/")

	code, stdout, stderr := run("get-vote", "--vote_id=h5-111.2009", "--ids=native")
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, "votes: 1 items, 1 saved")
	assert.Equal(t, int32(1), hits.Load())

	id, err := ident.ParseVoteID("h5-111.2009")
	require.NoError(t, err)
	data, err := os.ReadFile(filepath.Join(dataDir, filepath.FromSlash(layout.VoteDir(id)), layout.DataJSON))
	require.NoError(t, err)

	var rec struct {
		VoteID   string `json:"vote_id"`
		Category string `json:"category"`
		Votes    map[string][]struct {
			ID string `json:"id"`
		} `json:"votes"`
	}
	require.NoError(t, json.Unmarshal(data, &rec))
	assert.Equal(t, "h5-111.2009", rec.VoteID)
	assert.Equal(t, "passage", rec.Category)
	require.Len(t, rec.Votes["Yea"], 1)
	assert.Equal(t, "A000014", rec.Votes["Yea"][0].ID)
	require.Len(t, rec.Votes["Nay"], 1)
	assert.Equal(t, "S000583", rec.Votes["Nay"][0].ID)
	assert.FileExists(t, filepath.Join(dataDir, filepath.FromSlash(layout.VoteDir(id)), layout.DataXML))
}

func TestGetVote_PublisherMissing(t *testing.T) {
	isolate(t)
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()
	t.Setenv("HOUSE_BASE_URL", srv.URL+"/")

	code, stdout, _ := run("get-vote", "--vote_id=h5-111.2009", "--ids=native")
	assert.Equal(t, 1, code)
	assert.Contains(t, stdout, "h5-111.2009")
}

func TestIntsAndList(t *testing.T) {
	got, err := ints("2013, 2014,,")
	require.NoError(t, err)
	assert.Equal(t, []int{2013, 2014}, got)

	_, err = ints("2013,x")
	assert.Error(t, err)

	assert.Nil(t, list(""))
	assert.Equal(t, []string{"BILLS", "CRPT"}, list("BILLS, CRPT"))
	assert.Equal(t, []string{"a"}, limit([]string{"a", "b"}, 1))
	assert.Equal(t, []string{"a", "b"}, limit([]string{"a", "b"}, 0))
}
