package bills

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"

	"github.com/unitedstates/congress-sub000/pkg/artifacts"
	"github.com/unitedstates/congress-sub000/pkg/ident"
	"github.com/unitedstates/congress-sub000/pkg/layout"
	"github.com/unitedstates/congress-sub000/pkg/observability"
	"github.com/unitedstates/congress-sub000/pkg/runner"
	"github.com/unitedstates/congress-sub000/pkg/validate"
)

// Processor turns mirrored bill status documents into bill records.
type Processor struct {
	Store     *artifacts.Mirror
	Validator *validate.Validator
	Obs       *observability.Provider
	// Force rewrites records even when the source has not changed.
	Force bool

	logger *slog.Logger
}

func NewProcessor(store *artifacts.Mirror) *Processor {
	return &Processor{
		Store:  store,
		logger: slog.Default().With("component", "bills"),
	}
}

// ProcessBill transforms one bill. It has the runner.Worker signature.
func (p *Processor) ProcessBill(ctx context.Context, billID string) (res runner.Result, err error) {
	id, err := ident.ParseBillID(billID)
	if err != nil {
		return runner.Result{}, err
	}
	ctx, done := p.Obs.TrackOperation(ctx, "bills.transform", observability.BillID(billID))
	defer func() { done(err) }()

	sourceKey := layout.BillStatusPath(id)
	data, err := p.Store.Get(ctx, sourceKey)
	if errors.Is(err, artifacts.ErrNotFound) {
		return runner.Result{OK: false, Reason: "no bill status document mirrored"}, nil
	}
	if err != nil {
		return runner.Result{}, err
	}

	sourceLastmod, err := p.readLastmod(ctx, layout.LastmodPath(sourceKey))
	if err != nil {
		return runner.Result{}, err
	}
	doneKey := layout.BillDataPath(id, layout.BillDataLastmodFile)
	if !p.Force && sourceLastmod != "" {
		seen, err := p.readLastmod(ctx, doneKey)
		if err != nil {
			return runner.Result{}, err
		}
		if seen == sourceLastmod {
			return runner.Result{OK: true, Reason: "unchanged"}, nil
		}
	}

	src, err := ParseSource(data)
	if err != nil {
		return runner.Result{}, fmt.Errorf("%s: %w", billID, err)
	}
	bill, err := Transform(src)
	if err != nil {
		return runner.Result{}, err
	}
	doc, err := artifacts.EncodeJSON(bill)
	if err != nil {
		return runner.Result{}, err
	}
	if err := p.Validator.Record(validate.Bill, doc); err != nil {
		return runner.Result{}, fmt.Errorf("%s: %w", billID, err)
	}
	legacy, err := EncodeLegacyXML(bill)
	if err != nil {
		return runner.Result{}, fmt.Errorf("%s: %w", billID, err)
	}

	if err := p.Store.Put(ctx, layout.BillDataPath(id, layout.DataJSON), doc); err != nil {
		return runner.Result{}, err
	}
	if err := p.Store.Put(ctx, layout.BillDataPath(id, layout.DataXML), legacy); err != nil {
		return runner.Result{}, err
	}
	if sourceLastmod != "" {
		if err := p.Store.Put(ctx, doneKey, []byte(sourceLastmod)); err != nil {
			return runner.Result{}, err
		}
	}
	p.log().InfoContext(ctx, "bill written", "bill_id", billID, "status", bill.Status)
	return runner.Result{OK: true, Saved: true, Record: doc}, nil
}

func (p *Processor) readLastmod(ctx context.Context, key string) (string, error) {
	data, err := p.Store.Get(ctx, key)
	if errors.Is(err, artifacts.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

func (p *Processor) log() *slog.Logger {
	if p.logger == nil {
		return slog.Default().With("component", "bills")
	}
	return p.logger
}

// BillIDsFor lists the bills of a congress that have a mirrored bill
// status document, in bill id order.
func (p *Processor) BillIDsFor(congress int) ([]string, error) {
	pattern := filepath.Join(p.Store.Local().BaseDir(), fmt.Sprint(congress), "bills", "*", "*", layout.BillStatusFile)
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("list bills: %w", err)
	}
	var ids []string
	for _, m := range matches {
		dir := filepath.Base(filepath.Dir(m))
		id, err := ident.ParseBillID(fmt.Sprintf("%s-%d", dir, congress))
		if err != nil {
			continue
		}
		ids = append(ids, id.String())
	}
	sort.Strings(ids)
	return ids, nil
}
