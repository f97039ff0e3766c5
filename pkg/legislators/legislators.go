// Package legislators resolves roll-call voters to stable person ids using
// the congress-legislators YAML files.
package legislators

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"gopkg.in/yaml.v3"

	"github.com/unitedstates/congress-sub000/pkg/fetch"
	"github.com/unitedstates/congress-sub000/pkg/ident"
)

const (
	CurrentFile    = "legislators-current.yaml"
	HistoricalFile = "legislators-historical.yaml"

	DefaultBaseURL = "https://unitedstates.github.io/congress-legislators/"

	memoSize = 4096
)

// Id kinds understood by Translate and Lookup.
const (
	Bioguide = "bioguide"
	LIS      = "lis"
	Govtrack = "govtrack"
	Thomas   = "thomas"
)

var (
	ErrNotFound  = errors.New("legislator not found")
	ErrAmbiguous = errors.New("legislator name is ambiguous")
)

// Legislator is one entry of the registry files.
type Legislator struct {
	ID         IDs         `yaml:"id"`
	Name       Name        `yaml:"name"`
	OtherNames []OtherName `yaml:"other_names"`
	Terms      []Term      `yaml:"terms"`
}

type IDs struct {
	Bioguide string `yaml:"bioguide"`
	Thomas   string `yaml:"thomas"`
	LIS      string `yaml:"lis"`
	Govtrack int    `yaml:"govtrack"`
}

// Get returns the id of the given kind, or "".
func (ids IDs) Get(kind string) string {
	switch kind {
	case Bioguide:
		return ids.Bioguide
	case LIS:
		return ids.LIS
	case Thomas:
		return ids.Thomas
	case Govtrack:
		if ids.Govtrack == 0 {
			return ""
		}
		return strconv.Itoa(ids.Govtrack)
	}
	return ""
}

type Name struct {
	First        string `yaml:"first"`
	Middle       string `yaml:"middle"`
	Last         string `yaml:"last"`
	Nickname     string `yaml:"nickname"`
	OfficialFull string `yaml:"official_full"`
}

// OtherName is a former name, valid between Start and End when set.
type OtherName struct {
	First string `yaml:"first"`
	Last  string `yaml:"last"`
	Start string `yaml:"start"`
	End   string `yaml:"end"`
}

type Term struct {
	Type  string `yaml:"type"`
	Start string `yaml:"start"`
	End   string `yaml:"end"`
	State string `yaml:"state"`
	Party string `yaml:"party"`
}

// candidate is a legislator together with one of their terms.
type candidate struct {
	moc  *Legislator
	term *Term
}

// Registry answers lookups. It reads its files on first use and is safe
// for concurrent use afterwards.
type Registry struct {
	Dir     string
	BaseURL string
	Fetcher *fetch.Fetcher

	once       sync.Once
	err        error
	byCongress map[int][]candidate
	byID       map[string]map[string]*Legislator
	memo       *lru.Cache[string, string]
	logger     *slog.Logger
}

// New returns a registry reading from dir. When a file is missing there it
// is downloaded through f, if f is not nil.
func New(dir string, f *fetch.Fetcher) *Registry {
	return &Registry{
		Dir:     dir,
		BaseURL: DefaultBaseURL,
		Fetcher: f,
		logger:  slog.Default().With("component", "legislators"),
	}
}

// FromLegislators builds a registry over an in-memory list.
func FromLegislators(people []Legislator) *Registry {
	r := New("", nil)
	r.once.Do(func() { r.err = r.index(people) })
	return r
}

func (r *Registry) load(ctx context.Context) error {
	r.once.Do(func() {
		var people []Legislator
		for _, name := range []string{HistoricalFile, CurrentFile} {
			data, err := r.read(ctx, name)
			if err != nil {
				r.err = err
				return
			}
			var batch []Legislator
			if err := yaml.Unmarshal(data, &batch); err != nil {
				r.err = fmt.Errorf("parse %s: %w", name, err)
				return
			}
			people = append(people, batch...)
		}
		r.err = r.index(people)
		if r.err == nil {
			r.log().InfoContext(ctx, "registry loaded", "legislators", len(people))
		}
	})
	return r.err
}

func (r *Registry) read(ctx context.Context, name string) ([]byte, error) {
	if r.Dir != "" {
		data, err := os.ReadFile(filepath.Join(r.Dir, name))
		if err == nil {
			return data, nil
		}
		if !errors.Is(err, os.ErrNotExist) || r.Fetcher == nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
	}
	if r.Fetcher == nil {
		return nil, fmt.Errorf("read %s: no registry directory or fetcher", name)
	}
	base := r.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	res, err := r.Fetcher.Get(ctx, strings.TrimSuffix(base, "/")+"/"+name, "legislators/"+name, fetch.Options{Binary: true})
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", name, err)
	}
	return res.Body, nil
}

func (r *Registry) index(people []Legislator) error {
	memo, err := lru.New[string, string](memoSize)
	if err != nil {
		return err
	}
	r.memo = memo
	r.byCongress = make(map[int][]candidate)
	r.byID = make(map[string]map[string]*Legislator)
	for i := range people {
		moc := &people[i]
		for _, kind := range []string{Bioguide, LIS, Govtrack, Thomas} {
			if id := moc.ID.Get(kind); id != "" {
				if r.byID[kind] == nil {
					r.byID[kind] = make(map[string]*Legislator)
				}
				r.byID[kind][id] = moc
			}
		}
		for j := range moc.Terms {
			term := &moc.Terms[j]
			first, last := termYear(term.Start), termYear(term.End)
			if first == 0 || last == 0 {
				continue
			}
			for c := ident.CongressForYear(first) - 1; c <= ident.CongressForYear(last)+1; c++ {
				r.byCongress[c] = append(r.byCongress[c], candidate{moc: moc, term: term})
			}
		}
	}
	return nil
}

func termYear(date string) int {
	if len(date) < 4 {
		return 0
	}
	y, _ := strconv.Atoi(date[:4])
	return y
}

func (r *Registry) log() *slog.Logger {
	if r.logger == nil {
		return slog.Default().With("component", "legislators")
	}
	return r.logger
}

// Translate maps an id of one kind to another, e.g. a LIS id to a bioguide id.
func (r *Registry) Translate(ctx context.Context, fromKind, id, toKind string) (string, error) {
	if err := r.load(ctx); err != nil {
		return "", err
	}
	if fromKind == toKind {
		return id, nil
	}
	moc, ok := r.byID[fromKind][id]
	if !ok {
		return "", fmt.Errorf("%w: %s %s", ErrNotFound, fromKind, id)
	}
	out := moc.ID.Get(toKind)
	if out == "" {
		return "", fmt.Errorf("%w: %s %s has no %s id", ErrNotFound, fromKind, id, toKind)
	}
	return out, nil
}

// Query describes a voter as a roll call names them.
type Query struct {
	Congress int
	// RoleType is "rep" or "sen".
	RoleType string
	// Name is "Last" or "Last, First".
	Name  string
	State string
	// Party is the one-letter party code.
	Party string
	// When is the vote date, YYYY-MM-DD.
	When string
	// IDKind is the kind of id returned.
	IDKind string
	// Exclude holds ids already assigned to other voters of the same vote.
	Exclude map[string]bool
}

func (q Query) key() string {
	ex := make([]string, 0, len(q.Exclude))
	for id := range q.Exclude {
		ex = append(ex, id)
	}
	sort.Strings(ex)
	return strings.Join([]string{strconv.Itoa(q.Congress), q.RoleType, q.Name, q.State, q.Party, q.When, q.IDKind, strings.Join(ex, ",")}, "|")
}

// Lookup returns the id of the single legislator serving on q.When whose
// term and name agree with q. It fails with ErrNotFound or ErrAmbiguous
// unless exactly one legislator matches.
func (r *Registry) Lookup(ctx context.Context, q Query) (string, error) {
	if err := r.load(ctx); err != nil {
		return "", err
	}
	key := q.key()
	if id, ok := r.memo.Get(key); ok {
		return id, nil
	}

	var matches []*Legislator
	for _, c := range r.byCongress[q.Congress] {
		if !termMatches(c.term, q) {
			continue
		}
		if q.Exclude[c.moc.ID.Get(q.IDKind)] {
			continue
		}
		if !nameMatches(c.moc, q.Name, q.When) {
			continue
		}
		if !containsMoc(matches, c.moc) {
			matches = append(matches, c.moc)
		}
	}

	switch len(matches) {
	case 0:
		r.log().WarnContext(ctx, "no legislator matches", "name", q.Name, "state", q.State, "party", q.Party, "date", q.When)
		return "", fmt.Errorf("%w: %s (%s-%s; %s)", ErrNotFound, q.Name, q.State, q.Party, q.When)
	case 1:
	default:
		names := make([]string, len(matches))
		for i, m := range matches {
			names[i] = m.Name.OfficialFull
		}
		r.log().WarnContext(ctx, "several legislators match", "name", q.Name, "state", q.State, "date", q.When, "candidates", names)
		return "", fmt.Errorf("%w: %s (%s-%s; %s) matches %s", ErrAmbiguous, q.Name, q.State, q.Party, q.When, strings.Join(names, "; "))
	}

	id := matches[0].ID.Get(q.IDKind)
	if id == "" {
		return "", fmt.Errorf("%w: %s has no %s id", ErrNotFound, q.Name, q.IDKind)
	}
	r.memo.Add(key, id)
	return id, nil
}

func containsMoc(list []*Legislator, moc *Legislator) bool {
	for _, m := range list {
		if m == moc {
			return true
		}
	}
	return false
}
