// Package govinfo mirrors the publisher's package archives and bulk-data
// files by walking its sitemaps.
package govinfo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"slices"
	"strings"
	"sync"

	"github.com/unitedstates/congress-sub000/pkg/artifacts"
	"github.com/unitedstates/congress-sub000/pkg/fetch"
	"github.com/unitedstates/congress-sub000/pkg/observability"
	"github.com/unitedstates/congress-sub000/pkg/runner"
	"github.com/unitedstates/congress-sub000/pkg/selector"
)

const DefaultBaseURL = "https://www.govinfo.gov/"

var (
	// ErrUnrecognizedURL is returned for sitemap locations that match none
	// of the publisher's URL templates.
	ErrUnrecognizedURL = errors.New("unrecognized govinfo url")
	// ErrCorruptArchive is returned when a downloaded package is not a
	// readable ZIP file. The archive has already been removed.
	ErrCorruptArchive = errors.New("corrupt package archive")
)

// URLError reports an unexpected URL together with the sitemaps that led
// to it.
type URLError struct {
	URL         string
	Breadcrumbs []string
}

func (e *URLError) Error() string {
	return fmt.Sprintf("%s: %s (via %s)", ErrUnrecognizedURL, e.URL, strings.Join(e.Breadcrumbs, " > "))
}

func (e *URLError) Unwrap() error { return ErrUnrecognizedURL }

// Options select what a walk visits and stores.
type Options struct {
	// Force ignores the ledger and re-downloads everything.
	Force bool
	// Cached never downloads sitemaps or bulk-data files; the cached copies
	// are used as they are.
	Cached bool
	// List records entries instead of mirroring them.
	List bool

	Years      []int
	Congresses []int
	BillTypes  []string
	// Filter is matched against package names and bulk-data item paths.
	Filter *regexp.Regexp
	// Selector is evaluated for every sitemap and entry.
	Selector *selector.Selector
	// Formats names the package members to extract. Empty means all.
	Formats []string
}

// Listed is an entry collected in list mode.
type Listed struct {
	Kind       string `json:"kind"`
	Collection string `json:"collection"`
	Name       string `json:"name"`
	URL        string `json:"url"`
	Lastmod    string `json:"lastmod"`
}

// Stats counts what a walk did.
type Stats struct {
	Sitemaps int
	Packages int
	Files    int
	Skipped  int
}

func (s Stats) String() string {
	return fmt.Sprintf("%d sitemaps, %d packages, %d files, %d skipped", s.Sitemaps, s.Packages, s.Files, s.Skipped)
}

func (s *Stats) add(o Stats) {
	s.Sitemaps += o.Sitemaps
	s.Packages += o.Packages
	s.Files += o.Files
	s.Skipped += o.Skipped
}

// Walker walks sitemaps and mirrors what they list. Distinct collections
// may be walked concurrently.
type Walker struct {
	Fetcher *fetch.Fetcher
	Store   *artifacts.Mirror
	Obs     *observability.Provider
	BaseURL string
	Options Options

	mu     sync.Mutex
	listed []Listed
	totals Stats
	logger *slog.Logger
}

func New(f *fetch.Fetcher, store *artifacts.Mirror, opts Options) *Walker {
	return &Walker{
		Fetcher: f,
		Store:   store,
		BaseURL: DefaultBaseURL,
		Options: opts,
		logger:  slog.Default().With("component", "govinfo"),
	}
}

// Listed returns the entries collected in list mode so far.
func (w *Walker) Listed() []Listed {
	w.mu.Lock()
	defer w.mu.Unlock()
	return slices.Clone(w.listed)
}

// Totals sums the stats of every WalkItem call so far.
func (w *Walker) Totals() Stats {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.totals
}

// BulkDataItem is the work item naming a bulk-data collection.
func BulkDataItem(collection string) string {
	return bulkDataPrefix + collection
}

const bulkDataPrefix = "bulkdata/"

// WalkItem walks the collection named by a work item: a package
// collection such as "BILLS", or a bulk-data collection written as
// BulkDataItem("BILLSTATUS"). It has the runner.Worker signature.
func (w *Walker) WalkItem(ctx context.Context, item string) (runner.Result, error) {
	var (
		stats Stats
		err   error
	)
	if collection, ok := strings.CutPrefix(item, bulkDataPrefix); ok {
		stats, err = w.WalkBulkData(ctx, collection)
	} else {
		stats, err = w.WalkCollection(ctx, item)
	}
	w.mu.Lock()
	w.totals.add(stats)
	w.mu.Unlock()
	if err != nil {
		return runner.Result{}, err
	}
	return runner.Result{OK: true, Saved: stats.Packages+stats.Files > 0, Reason: stats.String()}, nil
}

func (w *Walker) record(l Listed) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.listed = append(w.listed, l)
}

func (w *Walker) log() *slog.Logger {
	if w.logger == nil {
		return slog.Default().With("component", "govinfo")
	}
	return w.logger
}

func (w *Walker) baseURL() string {
	if w.BaseURL == "" {
		return DefaultBaseURL
	}
	return strings.TrimSuffix(w.BaseURL, "/") + "/"
}

func (w *Walker) wantFormat(format string) bool {
	return len(w.Options.Formats) == 0 || slices.Contains(w.Options.Formats, format)
}

func (w *Walker) wantCongress(congress int) bool {
	return len(w.Options.Congresses) == 0 || slices.Contains(w.Options.Congresses, congress)
}
