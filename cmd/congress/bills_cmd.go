package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/unitedstates/congress-sub000/pkg/bills"
	"github.com/unitedstates/congress-sub000/pkg/ident"
)

// runGetBillCmd implements `congress get-bill`: transforms one mirrored
// bill status document into data.json and data.xml.
func runGetBillCmd(args []string, stdout, stderr io.Writer) int {
	cmd := flag.NewFlagSet("get-bill", flag.ContinueOnError)
	cmd.SetOutput(stderr)
	configPath := configFlag(cmd)

	var (
		billID string
		force  bool
	)
	cmd.StringVar(&billID, "bill_id", "", "Bill id, e.g. hr3590-111 (REQUIRED)")
	cmd.BoolVar(&force, "force", false, "Rewrite the record even if the source is unchanged")

	if err := cmd.Parse(args); err != nil {
		return 2
	}
	if billID == "" {
		_, _ = fmt.Fprintln(stderr, "Error: --bill_id is required")
		return 2
	}
	if _, err := ident.ParseBillID(billID); err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}
	return runBills(*configPath, []string{billID}, 0, 0, force, stdout, stderr)
}

// runGetBillsCmd implements `congress get-bills`: transforms every bill of
// a congress that has a mirrored bill status document.
func runGetBillsCmd(args []string, stdout, stderr io.Writer) int {
	cmd := flag.NewFlagSet("get-bills", flag.ContinueOnError)
	cmd.SetOutput(stderr)
	configPath := configFlag(cmd)

	var (
		congress int
		maxBills int
		force    bool
	)
	cmd.IntVar(&congress, "congress", 0, "Congress number (REQUIRED)")
	cmd.IntVar(&maxBills, "limit", 0, "Process at most this many bills")
	cmd.BoolVar(&force, "force", false, "Rewrite records even if the source is unchanged")

	if err := cmd.Parse(args); err != nil {
		return 2
	}
	if congress < 1 {
		_, _ = fmt.Fprintln(stderr, "Error: --congress is required")
		return 2
	}
	return runBills(*configPath, nil, congress, maxBills, force, stdout, stderr)
}

// runBills processes ids, or at most maxBills bills of congress when ids
// is empty.
func runBills(configPath string, ids []string, congress, maxBills int, force bool, stdout, stderr io.Writer) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	e, err := setup(ctx, configPath, stderr)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}
	defer func() { _ = e.close(context.Background()) }()

	p := bills.NewProcessor(e.store)
	p.Validator = e.validator
	p.Obs = e.obs
	p.Force = force

	if len(ids) == 0 {
		ids, err = p.BillIDsFor(congress)
		if err != nil {
			_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
			return 2
		}
		ids = limit(ids, maxBills)
	}

	summary, _ := e.runner("bills").Run(ctx, ids, p.ProcessBill)
	return report(stdout, summary)
}
