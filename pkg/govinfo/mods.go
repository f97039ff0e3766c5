package govinfo

import (
	"context"
	"encoding/xml"
	"fmt"
	"path"
	"strings"

	"github.com/unitedstates/congress-sub000/pkg/artifacts"
	"github.com/unitedstates/congress-sub000/pkg/layout"
)

type modsDoc struct {
	URLs []struct {
		Label string `xml:"displayLabel,attr"`
		URL   string `xml:",chardata"`
	} `xml:"http://www.loc.gov/mods/v3 location>url"`
	DateIssued string `xml:"http://www.loc.gov/mods/v3 originInfo>dateIssued"`
}

// BillVersion is the per-version metadata record written beside a mirrored
// bill text.
type BillVersion struct {
	BillVersionID string            `json:"bill_version_id"`
	VersionCode   string            `json:"version_code"`
	IssuedOn      string            `json:"issued_on"`
	URLs          map[string]string `json:"urls"`
}

func urlFormat(label string) string {
	switch {
	case strings.Contains(label, "HTML"):
		return "html"
	case strings.Contains(label, "PDF"):
		return "pdf"
	case strings.Contains(label, "XML"):
		return "xml"
	}
	return "unknown"
}

// writeBillVersion derives data.json for a BILLS package from its mods.xml.
func (w *Walker) writeBillVersion(ctx context.Context, dir, pkg string) error {
	bv, ok := billVersionFor(pkg)
	if !ok {
		return nil
	}
	data, err := w.Store.Get(ctx, path.Join(dir, "mods.xml"))
	if err != nil {
		return err
	}
	var mods modsDoc
	if err := xml.Unmarshal(data, &mods); err != nil {
		return fmt.Errorf("parse mods for %s: %w", pkg, err)
	}

	rec := BillVersion{
		BillVersionID: bv.String(),
		VersionCode:   bv.Version,
		IssuedOn:      strings.TrimSpace(mods.DateIssued),
		URLs:          make(map[string]string),
	}
	for _, u := range mods.URLs {
		rec.URLs[urlFormat(u.Label)] = strings.TrimSpace(u.URL)
	}
	doc, err := artifacts.EncodeJSON(rec)
	if err != nil {
		return err
	}
	return w.Store.Put(ctx, path.Join(dir, layout.DataJSON), doc)
}
