package main

import (
	"fmt"
	"io"
	"os"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "0.1.0-dev"

// Dispatcher
func main() {
	os.Exit(Run(os.Args, os.Stdout, os.Stderr))
}

// Run is the entrypoint for testing.
//
// Exit codes:
//
//	0 = every item succeeded
//	1 = some items failed
//	2 = usage or runtime error
func Run(args []string, stdout, stderr io.Writer) int {
	if len(args) < 2 {
		printUsage(stderr)
		return 2
	}

	switch args[1] {
	case "govinfo":
		return runGovinfoCmd(args[2:], stdout, stderr)
	case "get-bill":
		return runGetBillCmd(args[2:], stdout, stderr)
	case "get-bills", "bills":
		return runGetBillsCmd(args[2:], stdout, stderr)
	case "get-vote":
		return runGetVoteCmd(args[2:], stdout, stderr)
	case "get-votes", "votes":
		return runGetVotesCmd(args[2:], stdout, stderr)
	case "version", "--version":
		_, _ = fmt.Fprintf(stdout, "congress %s\n", version)
		return 0
	case "help", "--help", "-h":
		printUsage(stdout)
		return 0
	default:
		_, _ = fmt.Fprintf(stderr, "Unknown command: %s\n", args[1])
		printUsage(stderr)
		return 2
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "USAGE:")
	fmt.Fprintln(w, "  congress <command> [flags]")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "COMMANDS:")
	printCommand(w, "govinfo", "Mirror GovInfo collections and bulk data (--collections, --bulkdata)")
	printCommand(w, "get-bill", "Transform one mirrored bill status document (--bill_id)")
	printCommand(w, "get-bills", "Transform every mirrored bill of a congress (--congress)")
	printCommand(w, "get-vote", "Fetch and transform one roll-call vote (--vote_id)")
	printCommand(w, "get-votes", "Discover and transform the votes of a session (--congress, --session)")
	printCommand(w, "version", "Print the version")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Every command accepts --config=<file.yaml>; the environment overrides the file.")
}

func printCommand(w io.Writer, name, desc string) {
	fmt.Fprintf(w, "  %-12s %s\n", name, desc)
}
