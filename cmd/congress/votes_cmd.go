package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/unitedstates/congress-sub000/pkg/ident"
	"github.com/unitedstates/congress-sub000/pkg/legislators"
	"github.com/unitedstates/congress-sub000/pkg/votes"
)

type voteFlags struct {
	configPath *string
	idKind     string
	force      bool
	fast       bool
}

func (f *voteFlags) register(cmd *flag.FlagSet) {
	f.configPath = configFlag(cmd)
	cmd.StringVar(&f.idKind, "ids", votes.IDsBioguide, "Voter ids to write: native, bioguide or govtrack")
	cmd.BoolVar(&f.force, "force", false, "Download the roll call again even if cached")
}

func (f *voteFlags) validate(stderr io.Writer) bool {
	switch f.idKind {
	case votes.IDsNative, votes.IDsBioguide, votes.IDsGovtrack:
		return true
	}
	_, _ = fmt.Fprintf(stderr, "Error: --ids: unknown id kind %q\n", f.idKind)
	return false
}

// runGetVoteCmd implements `congress get-vote`.
func runGetVoteCmd(args []string, stdout, stderr io.Writer) int {
	cmd := flag.NewFlagSet("get-vote", flag.ContinueOnError)
	cmd.SetOutput(stderr)

	var (
		vf     voteFlags
		voteID string
	)
	vf.register(cmd)
	cmd.StringVar(&voteID, "vote_id", "", "Vote id, e.g. h768-111.2010 (REQUIRED)")

	if err := cmd.Parse(args); err != nil {
		return 2
	}
	if voteID == "" {
		_, _ = fmt.Fprintln(stderr, "Error: --vote_id is required")
		return 2
	}
	if _, err := ident.ParseVoteID(voteID); err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}
	if !vf.validate(stderr) {
		return 2
	}

	return runVotes(vf, stdout, stderr, func(context.Context, *votes.Processor) ([]string, error) {
		return []string{voteID}, nil
	})
}

// runGetVotesCmd implements `congress get-votes`: discovers the roll calls
// of a session and transforms each of them.
//
// Without --session every year of the congress up to the current one is
// walked. Without --chamber both chambers are.
func runGetVotesCmd(args []string, stdout, stderr io.Writer) int {
	cmd := flag.NewFlagSet("get-votes", flag.ContinueOnError)
	cmd.SetOutput(stderr)

	var (
		vf       voteFlags
		congress int
		session  int
		chamber  string
		maxVotes int
	)
	vf.register(cmd)
	cmd.IntVar(&congress, "congress", 0, "Congress number (default: the current congress)")
	cmd.IntVar(&session, "session", 0, "Session year, e.g. 2010")
	cmd.StringVar(&chamber, "chamber", "", "h or s (default: both)")
	cmd.IntVar(&maxVotes, "limit", 0, "Process at most this many votes")
	cmd.BoolVar(&vf.fast, "fast", false, "Only refresh votes from the last three days")

	if err := cmd.Parse(args); err != nil {
		return 2
	}
	if !vf.validate(stderr) {
		return 2
	}
	switch chamber {
	case "", votes.House, votes.Senate:
	default:
		_, _ = fmt.Fprintf(stderr, "Error: --chamber must be h or s, got %q\n", chamber)
		return 2
	}

	current := time.Now().In(ident.Eastern).Year()
	if congress == 0 {
		congress = ident.CongressForYear(current)
	}
	var years []int
	if session != 0 {
		if n := ident.SessionNumber(congress, session); n < 1 || n > 3 {
			_, _ = fmt.Fprintf(stderr, "Error: %d is not a session year of congress %d\n", session, congress)
			return 2
		}
		years = []int{session}
	} else {
		for y := ident.CongressFirstYear(congress); y <= ident.CongressFirstYear(congress)+1 && y <= current; y++ {
			years = append(years, y)
		}
	}

	return runVotes(vf, stdout, stderr, func(ctx context.Context, p *votes.Processor) ([]string, error) {
		var ids []string
		for _, y := range years {
			found, err := p.Discover(ctx, congress, y, chamber)
			if err != nil {
				return nil, err
			}
			ids = append(ids, found...)
		}
		return limit(ids, maxVotes), nil
	})
}

func runVotes(vf voteFlags, stdout, stderr io.Writer, items func(context.Context, *votes.Processor) ([]string, error)) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	e, err := setup(ctx, *vf.configPath, stderr)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}
	defer func() { _ = e.close(context.Background()) }()

	overrides, err := votes.LoadOverrides(e.cfg.VoteOverridesFile)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}

	registry := legislators.New(e.cfg.LegislatorsDir, e.fetcher)
	registry.BaseURL = e.cfg.LegislatorsBaseURL

	p := votes.NewProcessor(e.fetcher, e.store, registry)
	p.HouseBaseURL = e.cfg.HouseBaseURL
	p.SenateBaseURL = e.cfg.SenateBaseURL
	p.Validator = e.validator
	p.Obs = e.obs
	p.Overrides = overrides
	p.IDKind = vf.idKind
	p.Force = vf.force
	p.Fast = vf.fast

	ids, err := items(ctx, p)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}

	summary, _ := e.runner("votes").Run(ctx, ids, p.ProcessVote)
	return report(stdout, summary)
}
