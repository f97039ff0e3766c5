package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"regexp"
	"slices"
	"strings"
	"syscall"

	"github.com/unitedstates/congress-sub000/pkg/govinfo"
	"github.com/unitedstates/congress-sub000/pkg/selector"
)

// runGovinfoCmd implements `congress govinfo`.
//
// Walks the GovInfo sitemaps of the named collections and bulk-data
// collections and mirrors what changed since the last run. With --list the
// entries are printed as JSON lines instead.
func runGovinfoCmd(args []string, stdout, stderr io.Writer) int {
	cmd := flag.NewFlagSet("govinfo", flag.ContinueOnError)
	cmd.SetOutput(stderr)
	configPath := configFlag(cmd)

	var (
		collections string
		bulkdata    string
		years       string
		congresses  string
		billTypes   string
		filter      string
		expr        string
		formats     string
		listOnly    bool
		force       bool
		cached      bool
	)
	cmd.StringVar(&collections, "collections", "", "Comma-separated package collections, e.g. BILLS,CRPT")
	cmd.StringVar(&bulkdata, "bulkdata", "", "Comma-separated bulk-data collections, e.g. BILLSTATUS")
	cmd.StringVar(&years, "years", "", "Only walk these years (package collections)")
	cmd.StringVar(&congresses, "congress", "", "Only walk these congresses")
	cmd.StringVar(&billTypes, "types", "", "Only walk these bill types (bulk data)")
	cmd.StringVar(&filter, "filter", "", "Regular expression matched against package names and bulk-data paths")
	cmd.StringVar(&expr, "expr", "", "CEL expression evaluated for every sitemap and entry")
	cmd.StringVar(&formats, "store", "", "Package members to extract: "+strings.Join(govinfo.Formats, ","))
	cmd.BoolVar(&listOnly, "list", false, "Print entries instead of mirroring them")
	cmd.BoolVar(&force, "force", false, "Ignore the freshness ledger")
	cmd.BoolVar(&cached, "cached", false, "Use cached sitemaps and bulk-data files without downloading")

	if err := cmd.Parse(args); err != nil {
		return 2
	}
	if collections == "" && bulkdata == "" {
		_, _ = fmt.Fprintln(stderr, "Error: --collections or --bulkdata is required")
		return 2
	}

	opts := govinfo.Options{
		Force:     force,
		Cached:    cached,
		List:      listOnly,
		BillTypes: list(billTypes),
		Formats:   list(formats),
	}
	var err error
	if opts.Years, err = ints(years); err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: --years: %v\n", err)
		return 2
	}
	if opts.Congresses, err = ints(congresses); err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: --congress: %v\n", err)
		return 2
	}
	for _, f := range opts.Formats {
		if !slices.Contains(govinfo.Formats, f) {
			_, _ = fmt.Fprintf(stderr, "Error: --store: unknown format %q\n", f)
			return 2
		}
	}
	if filter != "" {
		if opts.Filter, err = regexp.Compile(filter); err != nil {
			_, _ = fmt.Fprintf(stderr, "Error: --filter: %v\n", err)
			return 2
		}
	}
	if expr != "" {
		if opts.Selector, err = selector.New(expr); err != nil {
			_, _ = fmt.Fprintf(stderr, "Error: --expr: %v\n", err)
			return 2
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	e, err := setup(ctx, *configPath, stderr)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}
	defer func() { _ = e.close(context.Background()) }()

	w := govinfo.New(e.fetcher, e.store, opts)
	w.BaseURL = e.cfg.GovinfoBaseURL
	w.Obs = e.obs

	var items []string
	items = append(items, list(collections)...)
	for _, c := range list(bulkdata) {
		items = append(items, govinfo.BulkDataItem(c))
	}
	summary, _ := e.runner("govinfo").Run(ctx, items, w.WalkItem)

	if listOnly {
		enc := json.NewEncoder(stdout)
		for _, l := range w.Listed() {
			if err := enc.Encode(l); err != nil {
				_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
				return 2
			}
		}
		return report(stderr, summary)
	}
	_, _ = fmt.Fprintf(stdout, "govinfo: %s\n", w.Totals())
	return report(stdout, summary)
}
