// Package layout derives where every artifact lives below the data directory.
// All paths are slash separated and relative, so they double as object keys
// for the output replicas.
package layout

import (
	"fmt"
	"path"
	"strings"

	"github.com/unitedstates/congress-sub000/pkg/ident"
)

const (
	BillStatusFile       = "fdsys_billstatus.xml"
	BillDataLastmodFile  = "data-fromfdsys-lastmod.txt"
	DataJSON             = "data.json"
	DataXML              = "data.xml"
	PackageArchive       = "package.zip"
	textVersionsSubdir   = "text-versions"
	committeeReportsRoot = "crpt"
)

func BillDir(b ident.BillID) string {
	return fmt.Sprintf("%d/bills/%s/%s%d", b.Congress, b.Type, b.Type, b.Number)
}

func BillStatusPath(b ident.BillID) string {
	return path.Join(BillDir(b), BillStatusFile)
}

func BillDataPath(b ident.BillID, name string) string {
	return path.Join(BillDir(b), name)
}

func TextVersionDir(v ident.BillVersionID) string {
	return path.Join(BillDir(v.BillID), textVersionsSubdir, v.Version)
}

// CommitteeReportDir is where a CRPT package lands, e.g. 116/crpt/hrpt/hrpt9.
func CommitteeReportDir(congress int, reportType string, number int) string {
	return fmt.Sprintf("%d/%s/%s/%s%d", congress, committeeReportsRoot, reportType, reportType, number)
}

func GovinfoPackageDir(collection, pkg string) string {
	return path.Join("govinfo", collection, pkg)
}

func GovinfoBulkPath(collection, item string) string {
	return path.Join("govinfo", collection, item)
}

func VoteDir(v ident.VoteID) string {
	return fmt.Sprintf("%d/votes/%d/%s%d", v.Congress, v.SessionYear, v.Chamber, v.Number)
}

// VoteSourceCachePath is the cache location of the chamber's roll-call XML.
func VoteSourceCachePath(v ident.VoteID) string {
	return fmt.Sprintf("%s/%s%d.xml", VoteDir(v), v.Chamber, v.Number)
}

// VotePagesCacheDir holds the chamber listing pages used for discovery.
func VotePagesCacheDir(congress, year int) string {
	return fmt.Sprintf("%d/votes/%d/pages", congress, year)
}

// LastmodPath is the sibling file recording the publisher timestamp of p.
func LastmodPath(p string) string {
	if strings.HasSuffix(p, ".xml") {
		return strings.TrimSuffix(p, ".xml") + "-lastmod.txt"
	}
	return p + "-lastmod.txt"
}
