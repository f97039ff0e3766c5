package bills

import (
	"fmt"
	"regexp"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/unitedstates/congress-sub000/pkg/actions"
	"github.com/unitedstates/congress-sub000/pkg/ident"
)

var (
	anchorTagRe     = regexp.MustCompile(`</?[Aa]( \S.*?)?>`)
	trailingRefsRe  = regexp.MustCompile(`\s*\(([^)]+)\)\s*$`)
	refSeparatorRe  = regexp.MustCompile(`[,:] ([a-zT])`)
	refNumberWordRe = regexp.MustCompile(`(\d+) +([a-z])`)
	refSplitRe      = regexp.MustCompile(`; ?`)
)

// isLibraryOfCongress reports whether the action came from the Library of
// Congress rather than a chamber clerk.
func (a sourceAction) isLibraryOfCongress() bool {
	return a.SourceCode == "9" || a.SourceName == "Library of Congress"
}

// dedupeActions drops Library of Congress entries that repeat the
// chamber-sourced action before them. items must already be in
// chronological order.
func dedupeActions(items []sourceAction) []sourceAction {
	out := make([]sourceAction, 0, len(items))
	var prev *sourceAction
	for i := range items {
		it := items[i]
		keep := true
		if prev != nil && it.isLibraryOfCongress() && !prev.isLibraryOfCongress() &&
			it.ActionDate == prev.ActionDate &&
			(it.ActionTime == "" || prev.ActionTime == "" || it.ActionTime == prev.ActionTime) &&
			strings.HasPrefix(stripSpaces(it.Text), stripSpaces(prev.Text)) {
			keep = false
		}
		prev = &items[i]
		if keep {
			out = append(out, it)
		}
	}
	return out
}

func stripSpaces(s string) string {
	return strings.Join(strings.Fields(s), "")
}

// actedAt is the action date, or the date and time in Eastern time when
// the publisher recorded a time.
func actedAt(date, clock string) (string, error) {
	if clock == "" {
		return date, nil
	}
	t, err := time.ParseInLocation("2006-01-02 15:04:05", date+" "+clock, ident.Eastern)
	if err != nil {
		return "", fmt.Errorf("action time %q %q: %w", date, clock, err)
	}
	return ident.FormatDateTime(t), nil
}

// references parses the parenthesized citation list that closes many action
// lines, e.g. "(CR H1234-1240; text of measure as introduced: CR H1250)".
func references(text string) []Reference {
	refs := []Reference{}
	m := trailingRefsRe.FindStringSubmatchIndex(text)
	if m == nil {
		return refs
	}
	inner := text[m[2]:m[3]]
	inner = refSeparatorRe.ReplaceAllString(inner, "; $1")
	inner = strings.ReplaceAll(inner, "CR:", "CR")
	inner = refNumberWordRe.ReplaceAllString(inner, "$1; $2")
	for _, part := range refSplitRe.Split(inner, -1) {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		typ, ref, found := strings.Cut(part, ": ")
		if !found {
			refs = append(refs, Reference{Reference: part})
			continue
		}
		refs = append(refs, Reference{Type: typ, Reference: ref})
	}
	return refs
}

// actionsFor builds the bill's chronological action list and runs each
// line through the status machine.
func actionsFor(bill ident.BillID, items []sourceAction, title string) ([]Action, error) {
	ordered := slices.Clone(items)
	slices.Reverse(ordered)
	ordered = slices.DeleteFunc(ordered, func(a sourceAction) bool {
		return strings.TrimSpace(a.Text) == ""
	})
	ordered = dedupeActions(ordered)
	sortChronologically(ordered)

	out := make([]Action, 0, len(ordered))
	status := actions.Introduced
	for _, it := range ordered {
		at, err := actedAt(it.ActionDate, it.ActionTime)
		if err != nil {
			return nil, err
		}
		text := strings.TrimSpace(anchorTagRe.ReplaceAllString(it.Text, ""))
		refs := references(text)

		fields, next, err := actions.Parse(text, status, bill, title)
		if err != nil {
			return nil, err
		}
		a := Action{
			ActedAt:    at,
			ActionCode: it.ActionCode,
			References: refs,
			Text:       text,
			Links:      it.Links,
		}
		if fields != nil {
			a.Fields = *fields
		} else {
			a.Fields.Type = actions.TypeAction
		}
		for _, code := range it.Committees {
			a.Committees = append(a.Committees, committeeID(code))
		}
		if next != "" {
			a.Status = next
			status = next
		}
		out = append(out, a)
	}
	return out, nil
}

// sortChronologically orders actions by date. Within a day, actions with a
// time are put in time order among the slots they occupy; actions without
// one keep their publisher position.
func sortChronologically(items []sourceAction) {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].ActionDate < items[j].ActionDate
	})
	for start := 0; start < len(items); {
		end := start
		for end < len(items) && items[end].ActionDate == items[start].ActionDate {
			end++
		}
		var slots []int
		var timed []sourceAction
		for i := start; i < end; i++ {
			if items[i].ActionTime != "" {
				slots = append(slots, i)
				timed = append(timed, items[i])
			}
		}
		sort.SliceStable(timed, func(i, j int) bool {
			return timed[i].ActionTime < timed[j].ActionTime
		})
		for k, i := range slots {
			items[i] = timed[k]
		}
		start = end
	}
}

// StatusOf replays the statuses recorded on actions. It returns
// INTRODUCED at introducedAt when no action changed the status.
func StatusOf(list []Action, introducedAt string) (actions.Status, string) {
	status, at := actions.Introduced, introducedAt
	for _, a := range list {
		if a.Status != "" {
			status, at = a.Status, a.ActedAt
		}
	}
	return status, at
}
