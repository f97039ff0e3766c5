package votes

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/unitedstates/congress-sub000/pkg/artifacts"
	"github.com/unitedstates/congress-sub000/pkg/fetch"
	"github.com/unitedstates/congress-sub000/pkg/ident"
	"github.com/unitedstates/congress-sub000/pkg/layout"
	"github.com/unitedstates/congress-sub000/pkg/legislators"
	"github.com/unitedstates/congress-sub000/pkg/observability"
	"github.com/unitedstates/congress-sub000/pkg/runner"
	"github.com/unitedstates/congress-sub000/pkg/validate"
)

const (
	DefaultHouseBaseURL  = "https://clerk.house.gov/"
	DefaultSenateBaseURL = "https://www.senate.gov/"

	// fastWindow is how recent a stored vote must be to be fetched again
	// in fast mode.
	fastWindow = 3 * 24 * time.Hour
)

var vacatedRe = regexp.MustCompile(`(?i)\bvacated\b`)

// Processor fetches and transforms roll-call votes.
type Processor struct {
	Fetcher   *fetch.Fetcher
	Store     *artifacts.Mirror
	Registry  *legislators.Registry
	Validator *validate.Validator
	Obs       *observability.Provider
	Overrides Overrides

	HouseBaseURL  string
	SenateBaseURL string
	// IDKind is the voter id kind written: native, bioguide or govtrack.
	IDKind string
	Force  bool
	// Fast skips stored votes older than three days.
	Fast bool
	Now  func() time.Time

	logger *slog.Logger
}

func NewProcessor(f *fetch.Fetcher, store *artifacts.Mirror, registry *legislators.Registry) *Processor {
	return &Processor{
		Fetcher:       f,
		Store:         store,
		Registry:      registry,
		HouseBaseURL:  DefaultHouseBaseURL,
		SenateBaseURL: DefaultSenateBaseURL,
		IDKind:        IDsNative,
		Now:           time.Now,
		logger:        slog.Default().With("component", "votes"),
	}
}

func (p *Processor) log() *slog.Logger {
	if p.logger == nil {
		return slog.Default().With("component", "votes")
	}
	return p.logger
}

func (p *Processor) now() time.Time {
	if p.Now == nil {
		return time.Now()
	}
	return p.Now()
}

func base(u, fallback string) string {
	if u == "" {
		u = fallback
	}
	return strings.TrimSuffix(u, "/") + "/"
}

// SourceURL is where the chamber publishes the roll-call XML.
func (p *Processor) SourceURL(id ident.VoteID) string {
	if id.Chamber == House {
		return fmt.Sprintf("%sevs/%d/roll%03d.xml", base(p.HouseBaseURL, DefaultHouseBaseURL), id.SessionYear, id.Number)
	}
	session := id.Session()
	return fmt.Sprintf("%slegislative/LIS/roll_call_votes/vote%d%d/vote_%d_%d_%05d.xml",
		base(p.SenateBaseURL, DefaultSenateBaseURL), id.Congress, session, id.Congress, session, id.Number)
}

// ProcessVote fetches, transforms and writes one vote. It has the
// runner.Worker signature.
func (p *Processor) ProcessVote(ctx context.Context, voteID string) (res runner.Result, err error) {
	id, err := ident.ParseVoteID(voteID)
	if err != nil {
		return runner.Result{}, err
	}
	ctx, done := p.Obs.TrackOperation(ctx, "votes.transform", observability.VoteID(voteID))
	defer func() { done(err) }()

	dir := layout.VoteDir(id)
	jsonKey, xmlKey := path.Join(dir, layout.DataJSON), path.Join(dir, layout.DataXML)

	if p.Fast && !p.Force {
		recent, err := p.recent(ctx, jsonKey)
		if err != nil {
			return runner.Result{}, err
		}
		if !recent {
			return runner.Result{OK: true, Reason: "not recent"}, nil
		}
	}

	sourceURL := p.SourceURL(id)
	fetched, err := p.Fetcher.Get(ctx, sourceURL, layout.VoteSourceCachePath(id), fetch.Options{Binary: true, Force: p.Force})
	if err != nil {
		return runner.Result{}, fmt.Errorf("vote %s: %w", voteID, err)
	}

	vote, err := p.Transform(ctx, id, fetched.Body)
	if errors.Is(err, errVacated) {
		for _, key := range []string{jsonKey, xmlKey} {
			if err := p.Store.Delete(ctx, key); err != nil {
				return runner.Result{}, err
			}
		}
		p.log().InfoContext(ctx, "vote vacated", "vote_id", voteID)
		return runner.Result{OK: true, Reason: "vote was vacated"}, nil
	}
	if err != nil {
		return runner.Result{}, err
	}
	vote.SourceURL = sourceURL
	vote.UpdatedAt = ident.FormatDateTime(p.now())

	doc, err := artifacts.EncodeJSON(vote)
	if err != nil {
		return runner.Result{}, err
	}
	if err := p.Validator.Record(validate.Vote, doc); err != nil {
		return runner.Result{}, fmt.Errorf("%s: %w", voteID, err)
	}
	legacy, err := EncodeLegacyXML(vote)
	if err != nil {
		return runner.Result{}, err
	}
	if err := p.Store.Put(ctx, jsonKey, doc); err != nil {
		return runner.Result{}, err
	}
	if err := p.Store.Put(ctx, xmlKey, legacy); err != nil {
		return runner.Result{}, err
	}
	p.log().InfoContext(ctx, "vote written", "vote_id", voteID, "category", vote.Category)
	return runner.Result{OK: true, Saved: true, Record: doc}, nil
}

var errVacated = errors.New("vote was vacated")

// Transform parses a chamber document and resolves every voter. A vote
// with any voter left without an id fails with ErrUnresolvedVoter.
func (p *Processor) Transform(ctx context.Context, id ident.VoteID, data []byte) (*Vote, error) {
	var (
		pv  *parsed
		err error
	)
	switch id.Chamber {
	case House:
		pv, err = parseHouse(data, id)
	case Senate:
		pv, err = parseSenate(data, id)
	default:
		return nil, fmt.Errorf("%w: %s", ident.ErrInvalidVoteID, id)
	}
	if err != nil {
		return nil, err
	}
	if vacatedRe.MatchString(pv.vote.ResultText) {
		return nil, errVacated
	}
	if err := p.resolve(ctx, pv); err != nil {
		return nil, fmt.Errorf("vote %s: %w", id, err)
	}
	return pv.vote, nil
}

func (p *Processor) resolve(ctx context.Context, pv *parsed) error {
	v := pv.vote
	roleType, nativeKind := "rep", legislators.Bioguide
	if v.Chamber == Senate {
		roleType, nativeKind = "sen", legislators.LIS
	}
	when := v.Date
	if len(when) > 10 {
		when = when[:10]
	}

	seen := make(map[string]bool)
	for _, i := range eliminationOrder(pv.members) {
		m := &pv.members[i]
		p.Overrides.apply(v.VoteID, m)
		if m.id == "" {
			if p.Registry == nil {
				return fmt.Errorf("%w: %s (%s-%s)", ErrUnresolvedVoter, m.displayName, m.state, m.party)
			}
			found, err := p.Registry.Lookup(ctx, legislators.Query{
				Congress: v.Congress,
				RoleType: roleType,
				Name:     m.lookupName,
				State:    m.state,
				Party:    m.party,
				When:     when,
				IDKind:   nativeKind,
				Exclude:  seen,
			})
			if err != nil {
				return fmt.Errorf("%w: %s (%s-%s): %v", ErrUnresolvedVoter, m.displayName, m.state, m.party, err)
			}
			m.id = found
		}
		seen[m.id] = true
	}

	for _, m := range pv.members {
		id, err := p.voterID(ctx, nativeKind, m.id)
		if err != nil {
			return fmt.Errorf("%w: %s (%s-%s): %v", ErrUnresolvedVoter, m.displayName, m.state, m.party, err)
		}
		v.add(m.option, &Voter{
			ID:          id,
			State:       m.state,
			Party:       m.party,
			DisplayName: m.displayName,
			FirstName:   m.firstName,
			LastName:    m.lastName,
		})
	}
	if pv.tieBreaker != "" {
		v.add(pv.tieBreaker, vicePresident)
	}
	return nil
}

func (p *Processor) voterID(ctx context.Context, nativeKind, id string) (string, error) {
	switch p.IDKind {
	case "", IDsNative:
		return id, nil
	case IDsBioguide, IDsGovtrack:
		if p.Registry == nil {
			return "", fmt.Errorf("no legislator registry to translate %s", id)
		}
		return p.Registry.Translate(ctx, nativeKind, id, p.IDKind)
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownIDKind, p.IDKind)
}

// recent reports whether the stored record is missing or dated within the
// fast-mode window.
func (p *Processor) recent(ctx context.Context, jsonKey string) (bool, error) {
	data, err := p.Store.Get(ctx, jsonKey)
	if errors.Is(err, artifacts.ErrNotFound) {
		return true, nil
	}
	if err != nil {
		return false, err
	}
	var stored struct {
		Date string `json:"date"`
	}
	if err := json.Unmarshal(data, &stored); err != nil || len(stored.Date) < 10 {
		return true, nil
	}
	day, err := time.ParseInLocation("2006-01-02", stored.Date[:10], ident.Eastern)
	if err != nil {
		return true, nil
	}
	return p.now().Sub(day) < fastWindow, nil
}
