package votes

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unitedstates/congress-sub000/pkg/artifacts"
	"github.com/unitedstates/congress-sub000/pkg/fetch"
	"github.com/unitedstates/congress-sub000/pkg/ident"
	"github.com/unitedstates/congress-sub000/pkg/legislators"
	"github.com/unitedstates/congress-sub000/pkg/ratelimit"
	"github.com/unitedstates/congress-sub000/pkg/retry"
	"github.com/unitedstates/congress-sub000/pkg/validate"
)

func registry() *legislators.Registry {
	rep := func(state, party string) []legislators.Term {
		return []legislators.Term{{Type: "rep", Start: "2009-01-06", End: "2011-01-03", State: state, Party: party}}
	}
	sen := func(state, party string) []legislators.Term {
		return []legislators.Term{{Type: "sen", Start: "2007-01-04", End: "2013-01-03", State: state, Party: party}}
	}
	return legislators.FromLegislators([]legislators.Legislator{
		{ID: legislators.IDs{Bioguide: "A000014", Govtrack: 400001}, Name: legislators.Name{First: "Neil", Last: "Abercrombie"}, Terms: rep("HI", "Democrat")},
		{ID: legislators.IDs{Bioguide: "S000522", Govtrack: 400380}, Name: legislators.Name{First: "Christopher", Last: "Smith"}, Terms: rep("NJ", "Republican")},
		{ID: legislators.IDs{Bioguide: "S000999", Govtrack: 499999}, Name: legislators.Name{First: "Albert", Last: "Smith"}, Terms: rep("NJ", "Republican")},
		{ID: legislators.IDs{Bioguide: "S000583", Govtrack: 400381}, Name: legislators.Name{First: "Adam", Last: "Smith"}, Terms: rep("WA", "Democrat")},
		{ID: legislators.IDs{Bioguide: "V000081", Govtrack: 400416}, Name: legislators.Name{First: "Nydia", Last: "Velázquez"}, Terms: rep("NY", "Democrat")},
		{ID: legislators.IDs{Bioguide: "M000303", LIS: "S197", Govtrack: 300071}, Name: legislators.Name{First: "John", Last: "McCain"}, Terms: sen("AZ", "Republican")},
		{ID: legislators.IDs{Bioguide: "S000709", LIS: "S057", Govtrack: 300087}, Name: legislators.Name{First: "Arlen", Last: "Specter"}, Terms: sen("PA", "Democrat")},
		{ID: legislators.IDs{Bioguide: "W000802", LIS: "S316", Govtrack: 412247}, Name: legislators.Name{First: "Sheldon", Last: "Whitehouse"}, Terms: sen("RI", "Democrat")},
	})
}

type clerk struct {
	srv  *httptest.Server
	mu   sync.Mutex
	docs map[string][]byte
	hits map[string]int
}

func newClerk(t *testing.T) *clerk {
	t.Helper()
	c := &clerk{docs: make(map[string][]byte), hits: make(map[string]int)}
	c.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c.mu.Lock()
		c.hits[r.URL.Path]++
		body, ok := c.docs[r.URL.Path]
		c.mu.Unlock()
		if !ok {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write(body)
	}))
	t.Cleanup(c.srv.Close)
	return c
}

func (c *clerk) serveFile(t *testing.T, urlPath, fixture string) {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", fixture))
	require.NoError(t, err)
	c.serve(urlPath, data)
}

func (c *clerk) serve(urlPath string, data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.docs[urlPath] = data
}

func (c *clerk) count(urlPath string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits[urlPath]
}

var fixedNow = time.Date(2010, 3, 25, 12, 0, 0, 0, ident.Eastern)

func newProcessor(t *testing.T, c *clerk) (*Processor, string) {
	t.Helper()
	dataDir := t.TempDir()
	local, err := artifacts.NewFileStore(dataDir)
	require.NoError(t, err)
	f := fetch.New(fetch.Config{
		CacheDir: t.TempDir(),
		Limiter:  ratelimit.Unlimited{},
		Retry:    retry.Policy{BaseDelay: time.Millisecond, MaxDelay: time.Millisecond},
	})
	p := NewProcessor(f, artifacts.NewMirror(local), registry())
	p.HouseBaseURL = c.srv.URL
	p.SenateBaseURL = c.srv.URL
	p.Now = func() time.Time { return fixedNow }
	p.Validator, err = validate.New()
	require.NoError(t, err)
	return p, dataDir
}

func readVote(t *testing.T, dataDir, dir string) map[string]any {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dataDir, dir, "data.json"))
	require.NoError(t, err)
	var out map[string]any
	require.NoError(t, json.Unmarshal(data, &out))
	return out
}

func voterIDs(t *testing.T, v map[string]any, option string) []string {
	t.Helper()
	list, ok := v["votes"].(map[string]any)[option].([]any)
	require.True(t, ok, option)
	ids := make([]string, 0, len(list))
	for _, item := range list {
		if s, ok := item.(string); ok {
			ids = append(ids, s)
			continue
		}
		ids = append(ids, item.(map[string]any)["id"].(string))
	}
	return ids
}

const houseVotePath = "/evs/2009/roll768.xml"
const senateVotePath = "/legislative/LIS/roll_call_votes/vote1112/vote_111_2_00105.xml"

func TestProcessVote_House(t *testing.T) {
	c := newClerk(t)
	c.serveFile(t, houseVotePath, "roll768.xml")
	p, dataDir := newProcessor(t, c)

	res, err := p.ProcessVote(context.Background(), "h768-111.2009")
	require.NoError(t, err)
	assert.True(t, res.OK)
	assert.True(t, res.Saved)

	v := readVote(t, dataDir, "111/votes/2009/h768")
	assert.Equal(t, "h768-111.2009", v["vote_id"])
	assert.Equal(t, "2009", v["session"])
	assert.Equal(t, "2009-10-08T18:48:00-04:00", v["date"])
	assert.Equal(t, "On Motion to Suspend the Rules and Pass, as Amended: H R 3590 Service Members Home Ownership Tax Act", v["question"])
	assert.Equal(t, "On Motion to Suspend the Rules and Pass", v["type"])
	assert.Equal(t, "passage-suspension", v["category"])
	assert.Equal(t, "2/3", v["requires"])
	assert.Equal(t, "Passed", v["result"])
	assert.Equal(t, map[string]any{"congress": float64(111), "type": "hr", "number": float64(3590)}, v["bill"])
	assert.Equal(t, c.srv.URL+houseVotePath, v["source_url"])

	// Publisher order is kept; the bare "Smith" gets the id left over after
	// "Smith, Christopher" is matched.
	assert.Equal(t, []string{"A000014", "S000999", "S000522", "S000583"}, voterIDs(t, v, "Yea"))
	assert.Equal(t, []string{"V000081"}, voterIDs(t, v, "Nay"))
	assert.Empty(t, voterIDs(t, v, "Present"))
	assert.Empty(t, voterIDs(t, v, "Not Voting"))

	legacy, err := os.ReadFile(filepath.Join(dataDir, "111/votes/2009/h768/data.xml"))
	require.NoError(t, err)
	assert.Contains(t, string(legacy), `<roll where="house" session="111" year="2009" roll="768" source="house.gov"`)
	assert.Contains(t, string(legacy), `aye="4" nay="1" nv="0" present="0"`)
	assert.Contains(t, string(legacy), `<bill session="111" type="h" number="3590"></bill>`)
	assert.Contains(t, string(legacy), `<voter id="V000081" vote="-" value="Nay" state="NY"></voter>`)
}

func TestProcessVote_SenateGovtrackIDs(t *testing.T) {
	c := newClerk(t)
	c.serveFile(t, senateVotePath, "vote_111_2_00105.xml")
	p, dataDir := newProcessor(t, c)
	p.IDKind = IDsGovtrack

	res, err := p.ProcessVote(context.Background(), "s105-111.2010")
	require.NoError(t, err)
	require.True(t, res.Saved)

	v := readVote(t, dataDir, "111/votes/2010/s105")
	assert.Equal(t, "2010-03-24T14:52:00-04:00", v["date"])
	assert.Equal(t, "2010-03-24T15:10:00-04:00", v["record_modified"])
	assert.Equal(t, "On the Amendment", v["type"])
	assert.Equal(t, "amendment", v["category"])
	assert.Equal(t, "Amendment Number 3564 to H.R. 4872", v["subject"])
	assert.Equal(t, map[string]any{"type": "s", "number": float64(3564), "purpose": "To prohibit the use of certain funds."}, v["amendment"])
	assert.Equal(t, map[string]any{"congress": float64(111), "type": "hr", "number": float64(4872)}, v["bill"])

	assert.Equal(t, []string{"300071"}, voterIDs(t, v, "Yea"))
	assert.Equal(t, []string{"300087", "VP"}, voterIDs(t, v, "Nay"))
	assert.Equal(t, []string{"412247"}, voterIDs(t, v, "Not Voting"))
	assert.Empty(t, voterIDs(t, v, "Present"))

	legacy, err := os.ReadFile(filepath.Join(dataDir, "111/votes/2010/s105/data.xml"))
	require.NoError(t, err)
	assert.Contains(t, string(legacy), `<voter VP="1" vote="-" value="Nay"></voter>`)
}

func TestProcessVote_UnresolvedVoterRejectsVote(t *testing.T) {
	c := newClerk(t)
	data, err := os.ReadFile(filepath.Join("testdata", "roll768.xml"))
	require.NoError(t, err)
	c.serve(houseVotePath, bytes.Replace(data, []byte(`unaccented-name="Velazquez" party="D" state="NY"`), []byte(`unaccented-name="Velazquez" party="D" state="CA"`), 1))
	p, dataDir := newProcessor(t, c)

	_, err = p.ProcessVote(context.Background(), "h768-111.2009")
	require.ErrorIs(t, err, ErrUnresolvedVoter)
	assert.NoFileExists(t, filepath.Join(dataDir, "111/votes/2009/h768/data.json"))
	assert.NoFileExists(t, filepath.Join(dataDir, "111/votes/2009/h768/data.xml"))
}

func TestProcessVote_EmptyRegistryRejectsVote(t *testing.T) {
	c := newClerk(t)
	c.serveFile(t, senateVotePath, "vote_111_2_00105.xml")
	p, _ := newProcessor(t, c)
	p.Registry = legislators.FromLegislators(nil)

	_, err := p.ProcessVote(context.Background(), "s105-111.2010")
	require.ErrorIs(t, err, ErrUnresolvedVoter)
}

func TestProcessVote_Vacated(t *testing.T) {
	c := newClerk(t)
	data, err := os.ReadFile(filepath.Join("testdata", "roll768.xml"))
	require.NoError(t, err)
	c.serve(houseVotePath, bytes.Replace(data, []byte("<vote-result>Passed</vote-result>"), []byte("<vote-result>Vacated</vote-result>"), 1))
	p, dataDir := newProcessor(t, c)

	dir := filepath.Join(dataDir, "111/votes/2009/h768")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "data.json"), []byte("{}"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "data.xml"), []byte("<roll/>"), 0o644))

	res, err := p.ProcessVote(context.Background(), "h768-111.2009")
	require.NoError(t, err)
	assert.True(t, res.OK)
	assert.False(t, res.Saved)
	assert.Equal(t, "vote was vacated", res.Reason)
	assert.NoFileExists(t, filepath.Join(dir, "data.json"))
	assert.NoFileExists(t, filepath.Join(dir, "data.xml"))
}

func TestProcessVote_FastMode(t *testing.T) {
	c := newClerk(t)
	c.serveFile(t, houseVotePath, "roll768.xml")
	p, dataDir := newProcessor(t, c)
	p.Fast = true
	ctx := context.Background()

	dir := filepath.Join(dataDir, "111/votes/2009/h768")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "data.json"), []byte(`{"date": "2009-10-08T18:48:00-04:00"}`), 0o644))

	res, err := p.ProcessVote(ctx, "h768-111.2009")
	require.NoError(t, err)
	assert.False(t, res.Saved)
	assert.Equal(t, 0, c.count(houseVotePath))

	p.Now = func() time.Time { return time.Date(2009, 10, 9, 9, 0, 0, 0, ident.Eastern) }
	res, err = p.ProcessVote(ctx, "h768-111.2009")
	require.NoError(t, err)
	assert.True(t, res.Saved)
	assert.Equal(t, 1, c.count(houseVotePath))
}

// The written record is byte-identical across runs except for updated_at,
// which is the processor clock at write time.
func TestProcessVote_RerunChangesOnlyUpdatedAt(t *testing.T) {
	c := newClerk(t)
	c.serveFile(t, senateVotePath, "vote_111_2_00105.xml")
	p, dataDir := newProcessor(t, c)
	path := filepath.Join(dataDir, "111/votes/2010/s105/data.json")

	write := func() []byte {
		t.Helper()
		res, err := p.ProcessVote(context.Background(), "s105-111.2010")
		require.NoError(t, err)
		require.True(t, res.Saved)
		data, err := os.ReadFile(path)
		require.NoError(t, err)
		return data
	}

	first := write()
	assert.Equal(t, string(first), string(write()))

	p.Now = func() time.Time { return fixedNow.Add(time.Hour) }
	later := write()
	assert.NotEqual(t, string(first), string(later))

	var a, b map[string]any
	require.NoError(t, json.Unmarshal(first, &a))
	require.NoError(t, json.Unmarshal(later, &b))
	assert.Equal(t, "2010-03-25T12:00:00-04:00", a["updated_at"])
	assert.Equal(t, "2010-03-25T13:00:00-04:00", b["updated_at"])
	delete(a, "updated_at")
	delete(b, "updated_at")
	assert.Equal(t, a, b)
}

// Transform leaves updated_at and source_url empty; ProcessVote stamps them.
func TestTransform_Deterministic(t *testing.T) {
	data, err := os.ReadFile(filepath.Join("testdata", "vote_111_2_00105.xml"))
	require.NoError(t, err)
	p := &Processor{Registry: registry()}
	id, err := ident.ParseVoteID("s105-111.2010")
	require.NoError(t, err)

	var outputs [][]byte
	for i := 0; i < 2; i++ {
		v, err := p.Transform(context.Background(), id, data)
		require.NoError(t, err)
		doc, err := artifacts.EncodeJSON(v)
		require.NoError(t, err)
		outputs = append(outputs, doc)
	}
	assert.Equal(t, string(outputs[0]), string(outputs[1]))
}

func TestTransform_RejectsMismatchedDocument(t *testing.T) {
	data, err := os.ReadFile(filepath.Join("testdata", "roll768.xml"))
	require.NoError(t, err)
	id, err := ident.ParseVoteID("h769-111.2009")
	require.NoError(t, err)
	_, err = (&Processor{Registry: registry()}).Transform(context.Background(), id, data)
	require.Error(t, err)
}

func TestTransform_Overrides(t *testing.T) {
	data, err := os.ReadFile(filepath.Join("testdata", "roll768.xml"))
	require.NoError(t, err)
	data = bytes.Replace(data, []byte(`name-id="A000014"`), []byte(`name-id="A999999"`), 1)
	id, err := ident.ParseVoteID("h768-111.2009")
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "overrides.yaml")
	require.NoError(t, os.WriteFile(path, []byte("- vote_id: h768-111.2009\n  match_id: A999999\n  id: A000014\n"), 0o644))
	overrides, err := LoadOverrides(path)
	require.NoError(t, err)

	p := &Processor{Registry: registry(), Overrides: overrides, IDKind: IDsGovtrack}
	v, err := p.Transform(context.Background(), id, data)
	require.NoError(t, err)
	assert.Equal(t, "400001", v.Votes["Yea"][0].ID)

	p.Overrides = nil
	_, err = p.Transform(context.Background(), id, data)
	require.ErrorIs(t, err, ErrUnresolvedVoter, "the bad id has no govtrack counterpart")
}

func TestLoadOverrides_RequiresMatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "overrides.yaml")
	require.NoError(t, os.WriteFile(path, []byte("- vote_id: h1-111.2009\n  id: A000014\n"), 0o644))
	_, err := LoadOverrides(path)
	require.Error(t, err)

	empty, err := LoadOverrides("")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

const senateCloture = `<roll_call_vote>
  <congress>111</congress><session>1</session><vote_number>395</vote_number>
  <vote_date>December 23, 2009,  07:20 AM</vote_date>
  <vote_question_text>On the Cloture Motion</vote_question_text>
  <question>On the Cloture Motion</question>
  <vote_title>Motion to Invoke Cloture on H.R. 3590</vote_title>
  <majority_requirement>3/5</majority_requirement>
  <vote_result>Cloture Motion Agreed to</vote_result>
  <document><document_type>H.R.</document_type><document_number>3590</document_number><document_name>H.R. 3590</document_name></document>
  <members/>
</roll_call_vote>`

func TestParseSenate_ClotureSwap(t *testing.T) {
	id, err := ident.ParseVoteID("s395-111.2009")
	require.NoError(t, err)
	pv, err := parseSenate([]byte(senateCloture), id)
	require.NoError(t, err)
	assert.Equal(t, "cloture", pv.vote.Category)
	assert.Equal(t, "Motion to Invoke Cloture on H.R. 3590", pv.vote.Question)
	assert.Equal(t, "On the Cloture Motion", pv.vote.Subject)
	assert.Equal(t, "On the Cloture Motion", pv.vote.Type)
	assert.Equal(t, "2009-12-23T07:20:00-05:00", pv.vote.Date)
	assert.Equal(t, []string{"Yea", "Nay", "Present", "Not Voting"}, pv.vote.Options())
}

const speakerElection = `<rollcall-vote><vote-metadata>
<congress>111</congress><rollcall-num>2</rollcall-num>
<legis-num>0</legis-num>
<vote-question>Election of the Speaker</vote-question>
<vote-type>QUORUM</vote-type>
<vote-result>Pelosi</vote-result>
<action-date>6-Jan-2009</action-date>
<vote-totals>
<totals-by-candidate><candidate>Pelosi</candidate><candidate-total>255</candidate-total></totals-by-candidate>
<totals-by-candidate><candidate>Boehner</candidate><candidate-total>174</candidate-total></totals-by-candidate>
<totals-by-candidate><candidate>Present</candidate><candidate-total>1</candidate-total></totals-by-candidate>
</vote-totals>
</vote-metadata><vote-data/></rollcall-vote>`

func TestParseHouse_SpeakerCandidates(t *testing.T) {
	id, err := ident.ParseVoteID("h2-111.2009")
	require.NoError(t, err)
	pv, err := parseHouse([]byte(strings.Replace(speakerElection, "<legis-num>0</legis-num>", "", 1)), id)
	require.NoError(t, err)
	assert.Equal(t, "leadership", pv.vote.Category)
	assert.Equal(t, "QUORUM", pv.vote.Requires)
	assert.Equal(t, "2009-01-06", pv.vote.Date)
	assert.Equal(t, []string{"Pelosi", "Boehner", "Present"}, pv.vote.Options())
	assert.Nil(t, pv.vote.Bill)
}

func TestParseHouse_UnhandledLegisNum(t *testing.T) {
	id, err := ident.ParseVoteID("h2-111.2009")
	require.NoError(t, err)
	_, err = parseHouse([]byte(speakerElection), id)
	require.Error(t, err)
}

func TestCategory(t *testing.T) {
	tests := map[string]string{
		"On Overriding the Veto":                               "veto-override",
		"Passage, Objections of the President Notwithstanding": "veto-override",
		"On Passage":                                           "passage",
		"On Agreeing to the Resolution":                        "passage",
		"On the Conference Report":                             "passage",
		"On the Resolution of Ratification":                    "treaty",
		"On the Amendment":                                     "amendment",
		"On Agreeing to the Amendment":                         "amendment",
		"On the Cloture Motion":                                "cloture",
		"On the Nomination":                                    "nomination",
		"Guilty or Not Guilty":                                 "conviction",
		"On Motion to Recommit with Instructions":              "recommit",
		"On Motion to Suspend the Rules and Pass, as Amended":  "passage-suspension",
		"Call of the House":                                    "quorum",
		"Election of the Speaker":                              "leadership",
		"On Motion to Table":                                   "procedural",
		"On the Motion to Proceed":                             "procedural",
		"On Ordering the Previous Question":                    "procedural",
		"Something Entirely Different":                         "unknown",
	}
	for question, want := range tests {
		assert.Equal(t, want, Category(question), question)
	}
}

func TestCanonicalOptions(t *testing.T) {
	assert.Equal(t, []string{"Guilty", "Not Guilty", "Present", "Not Voting"}, CanonicalOptions(Senate, "Guilty or Not Guilty", ""))
	assert.Equal(t, []string{"Yea", "Nay", "Present", "Not Voting"}, CanonicalOptions(Senate, "On the Nomination", ""))
	assert.Equal(t, []string{"Yea", "Nay", "Present", "Not Voting"}, CanonicalOptions(House, "On Passage", "YEA-AND-NAY"))
	assert.Equal(t, []string{"Aye", "No", "Present", "Not Voting"}, CanonicalOptions(House, "On Passage", "RECORDED VOTE"))
}

func TestDiscover(t *testing.T) {
	c := newClerk(t)
	c.serveFile(t, "/evs/2009/index.asp", "index.asp")
	c.serveFile(t, "/evs/2009/ROLL_000.asp", "ROLL_000.asp")
	c.serveFile(t, "/evs/2009/ROLL_700.asp", "ROLL_700.asp")
	c.serveFile(t, "/legislative/LIS/roll_call_lists/vote_menu_111_1.xml", "vote_menu_111_2.xml")
	c.serveFile(t, "/legislative/LIS/roll_call_lists/vote_menu_111_2.xml", "vote_menu_111_2.xml")
	p, _ := newProcessor(t, c)
	ctx := context.Background()

	ids, err := p.Discover(ctx, 111, 2009, House)
	require.NoError(t, err)
	assert.Equal(t, []string{"h1-111.2009", "h2-111.2009", "h767-111.2009", "h768-111.2009"}, ids)

	ids, err = p.Discover(ctx, 111, 2010, Senate)
	require.NoError(t, err)
	assert.Equal(t, []string{"s105-111.2010", "s106-111.2010"}, ids)

	_, err = p.Discover(ctx, 111, 2009, Senate)
	require.ErrorIs(t, err, ErrMismatchedMenu)

	_, err = p.Discover(ctx, 111, 2015, "")
	require.Error(t, err)
}
