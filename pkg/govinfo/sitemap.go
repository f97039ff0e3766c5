package govinfo

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"net/url"
	"path"
	"regexp"
	"slices"
	"strconv"

	"github.com/unitedstates/congress-sub000/pkg/fetch"
	"github.com/unitedstates/congress-sub000/pkg/ident"
	"github.com/unitedstates/congress-sub000/pkg/ledger"
	"github.com/unitedstates/congress-sub000/pkg/observability"
	"github.com/unitedstates/congress-sub000/pkg/selector"
)

const sitemapNS = "http://www.sitemaps.org/schemas/sitemap/0.9"

type sitemapDoc struct {
	XMLName  xml.Name
	Sitemaps []sitemapItem `xml:"http://www.sitemaps.org/schemas/sitemap/0.9 sitemap"`
	URLs     []sitemapItem `xml:"http://www.sitemaps.org/schemas/sitemap/0.9 url"`
}

type sitemapItem struct {
	Loc     string `xml:"http://www.sitemaps.org/schemas/sitemap/0.9 loc"`
	Lastmod string `xml:"http://www.sitemaps.org/schemas/sitemap/0.9 lastmod"`
}

var (
	collectionIndexRe = regexp.MustCompile(`^/sitemap/([^/_]+)_sitemap_index\.xml$`)
	collectionYearRe  = regexp.MustCompile(`^/sitemap/([^/_]+)_(\d{4})_sitemap\.xml$`)
	bulkIndexRe       = regexp.MustCompile(`^/sitemap/bulkdata/([^/]+)/sitemapindex\.xml$`)
	bulkGroupRe       = regexp.MustCompile(`^/sitemap/bulkdata/([^/]+)/([^/]+)/sitemap\.xml$`)
	groupingRe        = regexp.MustCompile(`^(\d+)([a-z]*)$`)

	packageURLRe = regexp.MustCompile(`^/app/details/([^/]+)/([^/]+)$`)
	bulkURLRe    = regexp.MustCompile(`^/bulkdata/([^/]+)/(.+)$`)
)

// sitemapRef is what can be told about a sitemap from its URL alone.
type sitemapRef struct {
	collection string
	cacheDir   string
	year       int
	congress   int
	billType   string
}

func parseSitemapURL(raw string) (sitemapRef, bool) {
	u, err := url.Parse(raw)
	if err != nil {
		return sitemapRef{}, false
	}
	p := u.Path
	if m := collectionIndexRe.FindStringSubmatch(p); m != nil {
		return sitemapRef{collection: m[1], cacheDir: path.Join("govinfo/sitemap", m[1])}, true
	}
	if m := collectionYearRe.FindStringSubmatch(p); m != nil {
		year, _ := strconv.Atoi(m[2])
		return sitemapRef{collection: m[1], cacheDir: path.Join("govinfo/sitemap", m[1], m[2]), year: year}, true
	}
	if m := bulkIndexRe.FindStringSubmatch(p); m != nil {
		return sitemapRef{collection: m[1], cacheDir: path.Join("govinfo/sitemap/bulkdata", m[1])}, true
	}
	if m := bulkGroupRe.FindStringSubmatch(p); m != nil {
		ref := sitemapRef{collection: m[1], cacheDir: path.Join("govinfo/sitemap/bulkdata", m[1], m[2])}
		if g := groupingRe.FindStringSubmatch(m[2]); g != nil {
			ref.congress, _ = strconv.Atoi(g[1])
			ref.billType = g[2]
		}
		return ref, true
	}
	return sitemapRef{}, false
}

// skip applies the caller's filters to a sitemap before it is fetched.
func (w *Walker) skip(ref sitemapRef, raw, lastmod string) (bool, error) {
	o := w.Options
	if ref.year != 0 && len(o.Years) > 0 && !slices.Contains(o.Years, ref.year) {
		return true, nil
	}
	if ref.congress != 0 && !w.wantCongress(ref.congress) {
		return true, nil
	}
	if ref.billType != "" && len(o.BillTypes) > 0 && !slices.Contains(o.BillTypes, ref.billType) {
		return true, nil
	}
	ok, err := o.Selector.Match(selector.Entry{
		Kind:       "sitemap",
		URL:        raw,
		Collection: ref.collection,
		BillType:   ref.billType,
		Lastmod:    lastmod,
		Congress:   ref.congress,
		Year:       ref.year,
	})
	return !ok, err
}

// WalkCollection walks the package sitemaps of a collection such as BILLS.
func (w *Walker) WalkCollection(ctx context.Context, collection string) (Stats, error) {
	return w.Walk(ctx, w.baseURL()+"sitemap/"+collection+"_sitemap_index.xml", "", nil)
}

// WalkBulkData walks the bulk-data sitemaps of a collection such as
// BILLSTATUS.
func (w *Walker) WalkBulkData(ctx context.Context, collection string) (Stats, error) {
	return w.Walk(ctx, w.baseURL()+"sitemap/bulkdata/"+collection+"/sitemapindex.xml", "", nil)
}

// Walk visits the sitemap at sitemapURL. parentLastmod is the timestamp the
// parent index reported for it; the sitemap is downloaded again only when it
// differs from the one in the ledger. Errors for individual packages and
// files do not stop the walk and are returned joined at the end.
func (w *Walker) Walk(ctx context.Context, sitemapURL, parentLastmod string, breadcrumbs []string) (stats Stats, err error) {
	crumbs := append(slices.Clone(breadcrumbs), sitemapURL)
	ref, ok := parseSitemapURL(sitemapURL)
	if !ok {
		return stats, &URLError{URL: sitemapURL, Breadcrumbs: crumbs}
	}

	ctx, done := w.Obs.TrackOperation(ctx, "govinfo.sitemap", observability.Collection(ref.collection), observability.Sitemap(sitemapURL))
	defer func() { done(err) }()

	ledgerPath := w.Fetcher.CachePath(path.Join(ref.cacheDir, "sitemap-lastmod.yaml"))
	entry, err := ledger.Load(ledgerPath)
	if err != nil {
		return stats, err
	}
	defer func() {
		if serr := entry.Save(ledgerPath); serr != nil {
			err = errors.Join(err, serr)
		}
	}()

	force := w.Options.Force || parentLastmod == "" || parentLastmod != entry.SitemapLastmod()
	if w.Options.Cached {
		force = false
	}
	res, err := w.Fetcher.Get(ctx, sitemapURL, path.Join(ref.cacheDir, "sitemap.xml"), fetch.Options{Binary: true, Force: force})
	if err != nil {
		return stats, fmt.Errorf("sitemap %s: %w", sitemapURL, err)
	}
	if !res.FromCache {
		w.log().InfoContext(ctx, "sitemap downloaded", "url", sitemapURL)
	}
	entry.SetSitemapLastmod(parentLastmod)
	stats.Sitemaps++

	var doc sitemapDoc
	if err := xml.NewDecoder(bytes.NewReader(res.Body)).Decode(&doc); err != nil {
		return stats, fmt.Errorf("parse sitemap %s: %w", sitemapURL, err)
	}
	if doc.XMLName.Space != sitemapNS {
		return stats, fmt.Errorf("sitemap %s: unexpected namespace %q", sitemapURL, doc.XMLName.Space)
	}

	var errs []error
	switch doc.XMLName.Local {
	case "sitemapindex":
		for _, sm := range doc.Sitemaps {
			if err := ctx.Err(); err != nil {
				return stats, errors.Join(append(errs, err)...)
			}
			child, ok := parseSitemapURL(sm.Loc)
			if !ok {
				return stats, errors.Join(append(errs, &URLError{URL: sm.Loc, Breadcrumbs: crumbs})...)
			}
			skip, err := w.skip(child, sm.Loc, sm.Lastmod)
			if err != nil {
				return stats, errors.Join(append(errs, err)...)
			}
			if skip {
				stats.Skipped++
				continue
			}
			sub, err := w.Walk(ctx, sm.Loc, sm.Lastmod, crumbs)
			stats.add(sub)
			if err != nil {
				var ue *URLError
				if errors.As(err, &ue) {
					return stats, errors.Join(append(errs, err)...)
				}
				errs = append(errs, err)
			}
		}

	case "urlset":
		for _, u := range doc.URLs {
			if err := ctx.Err(); err != nil {
				return stats, errors.Join(append(errs, err)...)
			}
			if err := w.visitURL(ctx, entry, u, crumbs, &stats); err != nil {
				var ue *URLError
				if errors.As(err, &ue) {
					return stats, errors.Join(append(errs, err)...)
				}
				w.log().ErrorContext(ctx, "entry failed", "url", u.Loc, "error", err)
				errs = append(errs, err)
			}
		}

	default:
		return stats, fmt.Errorf("sitemap %s: unexpected root element %q", sitemapURL, doc.XMLName.Local)
	}
	return stats, errors.Join(errs...)
}

// visitURL dispatches one urlset entry to the package or bulk-data mirror.
func (w *Walker) visitURL(ctx context.Context, entry *ledger.Entry, u sitemapItem, crumbs []string, stats *Stats) error {
	parsed, err := url.Parse(u.Loc)
	if err != nil {
		return &URLError{URL: u.Loc, Breadcrumbs: crumbs}
	}

	if m := packageURLRe.FindStringSubmatch(parsed.Path); m != nil {
		collection, pkg := m[1], m[2]
		sel := selector.Entry{Kind: "package", URL: u.Loc, Collection: collection, Package: pkg, Lastmod: u.Lastmod}
		if bv, ok := billVersionFor(pkg); ok {
			sel.Congress, sel.BillType = bv.Congress, bv.Type
		}
		if ok, err := w.want(pkg, sel); err != nil || !ok {
			stats.Skipped++
			return err
		}
		if w.Options.List {
			w.record(Listed{Kind: "package", Collection: collection, Name: pkg, URL: u.Loc, Lastmod: u.Lastmod})
			return nil
		}
		saved, err := w.mirrorPackage(ctx, entry, collection, pkg, u.Lastmod)
		if saved {
			stats.Packages++
		} else if err == nil {
			stats.Skipped++
		}
		return err
	}

	if m := bulkURLRe.FindStringSubmatch(parsed.Path); m != nil {
		collection, item := m[1], m[2]
		sel := selector.Entry{Kind: "bulkdata", URL: u.Loc, Collection: collection, Package: item, Lastmod: u.Lastmod}
		if id, ok := billStatusFor(collection, item); ok {
			sel.Congress, sel.BillType = id.Congress, id.Type
		}
		if ok, err := w.want(item, sel); err != nil || !ok {
			stats.Skipped++
			return err
		}
		if w.Options.List {
			w.record(Listed{Kind: "bulkdata", Collection: collection, Name: item, URL: u.Loc, Lastmod: u.Lastmod})
			return nil
		}
		saved, err := w.mirrorBulkFile(ctx, collection, item, u.Loc, u.Lastmod)
		if saved {
			stats.Files++
		} else if err == nil {
			stats.Skipped++
		}
		return err
	}

	return &URLError{URL: u.Loc, Breadcrumbs: crumbs}
}

func (w *Walker) want(name string, e selector.Entry) (bool, error) {
	if w.Options.Filter != nil && !w.Options.Filter.MatchString(name) {
		return false, nil
	}
	if e.Congress != 0 && !w.wantCongress(e.Congress) {
		return false, nil
	}
	return w.Options.Selector.Match(e)
}

var (
	billsPackageRe = regexp.MustCompile(`^BILLS-(\d+)([a-z]+)(\d+)([a-z0-9]+)$`)
	crptPackageRe  = regexp.MustCompile(`^CRPT-(\d+)([a-z]+)(\d+)$`)
	billStatusRe   = regexp.MustCompile(`^(\d+)/([a-z]+)/BILLSTATUS-\d+[a-z]+(\d+)\.xml$`)
)

// billVersionFor parses a BILLS package name such as BILLS-113hr1ih.
func billVersionFor(pkg string) (ident.BillVersionID, bool) {
	m := billsPackageRe.FindStringSubmatch(pkg)
	if m == nil {
		return ident.BillVersionID{}, false
	}
	id, err := ident.ParseBillVersionID(fmt.Sprintf("%s%s-%s-%s", m[2], m[3], m[1], m[4]))
	if err != nil {
		return ident.BillVersionID{}, false
	}
	return id, true
}

// billStatusFor parses a BILLSTATUS item path such as
// 113/hr/BILLSTATUS-113hr1.xml.
func billStatusFor(collection, item string) (ident.BillID, bool) {
	if collection != "BILLSTATUS" {
		return ident.BillID{}, false
	}
	m := billStatusRe.FindStringSubmatch(item)
	if m == nil {
		return ident.BillID{}, false
	}
	id, err := ident.ParseBillID(fmt.Sprintf("%s%s-%s", m[2], m[3], m[1]))
	if err != nil {
		return ident.BillID{}, false
	}
	return id, true
}
