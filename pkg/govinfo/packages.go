package govinfo

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path"
	"strings"

	"golang.org/x/net/html"

	"github.com/unitedstates/congress-sub000/pkg/artifacts"
	"github.com/unitedstates/congress-sub000/pkg/fetch"
	"github.com/unitedstates/congress-sub000/pkg/layout"
	"github.com/unitedstates/congress-sub000/pkg/ledger"
	"github.com/unitedstates/congress-sub000/pkg/observability"
)

// packageFormat is one member that can be extracted from a package archive.
type packageFormat struct {
	name   string
	member string // archive path, %[1]s is the package name
	file   string
}

// Formats lists the extractable package members in extraction order.
var Formats = []string{"pdf", "text", "xml", "mods", "premis"}

var packageFormats = []packageFormat{
	{name: "pdf", member: "%[1]s/pdf/%[1]s.pdf", file: "document.pdf"},
	{name: "text", member: "%[1]s/html/%[1]s.htm", file: "document.html"},
	{name: "xml", member: "%[1]s/xml/%[1]s.xml", file: "document.xml"},
	{name: "mods", member: "%[1]s/mods.xml", file: "mods.xml"},
	{name: "premis", member: "%[1]s/premis.xml", file: "premis.xml"},
}

// packageDir is the data-relative directory a package is mirrored into. ok
// is false when the congress filter excludes the package.
func (w *Walker) packageDir(collection, pkg string) (string, bool) {
	switch collection {
	case "BILLS":
		if bv, found := billVersionFor(pkg); found {
			return layout.TextVersionDir(bv), w.wantCongress(bv.Congress)
		}
	case "CRPT":
		if m := crptPackageRe.FindStringSubmatch(pkg); m != nil {
			var congress, number int
			_, _ = fmt.Sscan(m[1], &congress)
			_, _ = fmt.Sscan(m[3], &number)
			return layout.CommitteeReportDir(congress, m[2], number), w.wantCongress(congress)
		}
	}
	return layout.GovinfoPackageDir(collection, pkg), true
}

// mirrorPackage brings the local copy of one package up to date with the
// publisher's lastmod. It reports whether anything was written.
func (w *Walker) mirrorPackage(ctx context.Context, entry *ledger.Entry, collection, pkg, lastmod string) (saved bool, err error) {
	dir, ok := w.packageDir(collection, pkg)
	if !ok {
		return false, nil
	}
	ctx, done := w.Obs.TrackOperation(ctx, "govinfo.package", observability.Collection(collection), observability.Package(pkg))
	defer func() { done(err) }()

	zipKey := path.Join(dir, layout.PackageArchive)
	var archive []byte

	if prev, ok := entry.FileLastmod(pkg, ledger.PackageFileKey); ok && prev == lastmod && !w.Options.Force {
		if len(w.staleFormats(entry, pkg, lastmod)) == 0 {
			exists, err := w.Store.Exists(ctx, zipKey)
			if err != nil {
				return false, err
			}
			if exists {
				return false, nil
			}
		}
		archive, err = w.Store.Get(ctx, zipKey)
		switch {
		case errors.Is(err, artifacts.ErrNotFound):
			w.log().WarnContext(ctx, "package missing locally, downloading again", "package", pkg)
			entry.ClearPackage(pkg)
			archive, err = nil, nil
		case err != nil:
			return false, err
		}
	}

	if archive == nil {
		res, err := w.Fetcher.Get(ctx, w.baseURL()+"content/pkg/"+pkg+".zip", "", fetch.Options{Binary: true, Force: true})
		if err != nil {
			return false, fmt.Errorf("package %s: %w", pkg, err)
		}
		if _, err := zip.NewReader(bytes.NewReader(res.Body), int64(len(res.Body))); err != nil {
			_ = w.Store.Delete(ctx, zipKey)
			return false, fmt.Errorf("%w: %s: %v", ErrCorruptArchive, pkg, err)
		}
		if err := w.Store.Put(ctx, zipKey, res.Body); err != nil {
			return false, err
		}
		archive = res.Body
		entry.SetFileLastmod(pkg, ledger.PackageFileKey, lastmod)
		saved = true
		w.log().InfoContext(ctx, "package downloaded", "collection", collection, "package", pkg)
	}

	pkgLastmod, _ := entry.FileLastmod(pkg, ledger.PackageFileKey)
	zr, err := zip.NewReader(bytes.NewReader(archive), int64(len(archive)))
	if err != nil {
		_ = w.Store.Delete(ctx, zipKey)
		entry.ClearPackage(pkg)
		return saved, fmt.Errorf("%w: %s: %v", ErrCorruptArchive, pkg, err)
	}

	modsRefreshed := false
	for _, f := range w.staleFormats(entry, pkg, pkgLastmod) {
		body, found, err := readMember(zr, fmt.Sprintf(f.member, pkg))
		if err != nil {
			return saved, fmt.Errorf("package %s: %w", pkg, err)
		}
		if found {
			if err := w.Store.Put(ctx, path.Join(dir, f.file), body); err != nil {
				return saved, err
			}
			if f.name == "text" {
				if err := w.Store.Put(ctx, path.Join(dir, "document.txt"), []byte(preText(body))); err != nil {
					return saved, err
				}
			}
			if f.name == "mods" {
				modsRefreshed = true
			}
			saved = true
		} else {
			w.log().DebugContext(ctx, "package has no member", "package", pkg, "format", f.name)
		}
		entry.SetFileLastmod(pkg, f.name, pkgLastmod)
	}

	if modsRefreshed && collection == "BILLS" {
		if err := w.writeBillVersion(ctx, dir, pkg); err != nil {
			return saved, err
		}
	}
	return saved, nil
}

// staleFormats lists the wanted formats last extracted before lastmod.
func (w *Walker) staleFormats(entry *ledger.Entry, pkg, lastmod string) []packageFormat {
	var out []packageFormat
	for _, f := range packageFormats {
		if !w.wantFormat(f.name) {
			continue
		}
		if prev, ok := entry.FileLastmod(pkg, f.name); ok && prev >= lastmod && !w.Options.Force {
			continue
		}
		out = append(out, f)
	}
	return out
}

func readMember(zr *zip.Reader, name string) ([]byte, bool, error) {
	f, err := zr.Open(name)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("open %s: %w", name, err)
	}
	defer func() { _ = f.Close() }()
	body, err := io.ReadAll(f)
	if err != nil {
		return nil, false, fmt.Errorf("read %s: %w", name, err)
	}
	return body, true, nil
}

// preText returns the text of the first <pre> element of a wrapped-HTML
// document, or all of its text when there is none.
func preText(doc []byte) string {
	root, err := html.Parse(bytes.NewReader(doc))
	if err != nil {
		return fetch.StripControl(string(doc))
	}
	var pre *html.Node
	var find func(n *html.Node)
	find = func(n *html.Node) {
		if pre != nil {
			return
		}
		if n.Type == html.ElementNode && n.Data == "pre" {
			pre = n
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			find(c)
		}
	}
	find(root)
	if pre == nil {
		pre = root
	}
	var b strings.Builder
	var collect func(n *html.Node)
	collect = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			collect(c)
		}
	}
	collect(pre)
	return fetch.StripControl(b.String())
}
