package govinfo

import (
	"context"
	"errors"
	"strings"

	"github.com/unitedstates/congress-sub000/pkg/artifacts"
	"github.com/unitedstates/congress-sub000/pkg/fetch"
	"github.com/unitedstates/congress-sub000/pkg/layout"
	"github.com/unitedstates/congress-sub000/pkg/observability"
)

// bulkFileKey is where a bulk-data item is stored. Bill status documents
// go next to the bill they describe.
func bulkFileKey(collection, item string) string {
	if id, ok := billStatusFor(collection, item); ok {
		return layout.BillStatusPath(id)
	}
	return layout.GovinfoBulkPath(collection, item)
}

// mirrorBulkFile downloads one bulk-data file unless the timestamp stored
// beside it already equals lastmod. It reports whether the file was written.
func (w *Walker) mirrorBulkFile(ctx context.Context, collection, item, fileURL, lastmod string) (saved bool, err error) {
	key := bulkFileKey(collection, item)
	lastmodKey := layout.LastmodPath(key)

	if !w.Options.Force {
		prev, err := w.Store.Get(ctx, lastmodKey)
		switch {
		case err == nil && strings.TrimSpace(string(prev)) == lastmod:
			return false, nil
		case err != nil && !errors.Is(err, artifacts.ErrNotFound):
			return false, err
		}
	}
	if w.Options.Cached {
		return false, nil
	}

	ctx, done := w.Obs.TrackOperation(ctx, "govinfo.bulkdata", observability.Collection(collection), observability.Package(item))
	defer func() { done(err) }()

	res, err := w.Fetcher.Get(ctx, fileURL, "", fetch.Options{Binary: true, Force: true})
	if err != nil {
		return false, err
	}
	if err := w.Store.Put(ctx, key, res.Body); err != nil {
		return false, err
	}
	if err := w.Store.Put(ctx, lastmodKey, []byte(lastmod)); err != nil {
		return false, err
	}
	w.log().InfoContext(ctx, "bulk file mirrored", "collection", collection, "item", item, "lastmod", lastmod)
	return true, nil
}
