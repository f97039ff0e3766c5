package bills

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// ErrUnknownTitleType is returned for a title type outside the known set.
var ErrUnknownTitleType = errors.New("unknown title type")

var titleStageRe = regexp.MustCompile(` as | on `)

const forPortionSuffix = " for portions of this bill"

// titleType maps the publisher's title type ("Short Titles as Passed
// House") to its code.
func titleType(kind string) (string, error) {
	switch {
	case strings.Contains(kind, "Popular Title"):
		return "popular", nil
	case strings.Contains(kind, "Short Title"):
		return "short", nil
	case strings.Contains(kind, "Official Title"):
		return "official", nil
	case strings.Contains(kind, "Display Title"):
		return "display", nil
	case kind == "Non-bill-report":
		return "nonbillreport", nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownTitleType, kind)
}

func titlesFor(items []sourceTitle) ([]Title, error) {
	titles := make([]Title, 0, len(items))
	for _, it := range items {
		kind, stage := it.TitleType, ""
		portion := false
		if loc := titleStageRe.FindStringIndex(it.TitleType); loc != nil {
			kind, stage = it.TitleType[:loc[0]], it.TitleType[loc[1]:]
			if strings.HasSuffix(stage, forPortionSuffix) {
				portion = true
				stage = strings.TrimSuffix(stage, forPortionSuffix)
			}
			stage = strings.ToLower(strings.ReplaceAll(stage, ":", ""))
		}
		typ, err := titleType(kind)
		if err != nil {
			return nil, err
		}
		titles = append(titles, Title{Title: it.Title, IsForPortion: portion, As: stage, Type: typ})
	}
	sortTitles(titles)
	return titles, nil
}

// sortTitles orders titles by type (in order of first appearance), then by
// stage with the latest stage last, then whole-bill titles before portion
// titles, then alphabetically.
func sortTitles(titles []Title) {
	firstType := make(map[string]int)
	firstStage := make(map[[2]string]int)
	for i, t := range titles {
		if _, ok := firstType[t.Type]; !ok {
			firstType[t.Type] = i
		}
		k := [2]string{t.Type, t.As}
		if _, ok := firstStage[k]; !ok {
			firstStage[k] = i
		}
	}
	sort.SliceStable(titles, func(i, j int) bool {
		a, b := titles[i], titles[j]
		if ta, tb := firstType[a.Type], firstType[b.Type]; ta != tb {
			return ta < tb
		}
		if sa, sb := firstStage[[2]string{a.Type, a.As}], firstStage[[2]string{b.Type, b.As}]; sa != sb {
			return sa > sb
		}
		if a.IsForPortion != b.IsForPortion {
			return !a.IsForPortion
		}
		return strings.ToLower(a.Title) < strings.ToLower(b.Title)
	})
}

// CurrentTitle returns the whole-bill title of the given type from the
// latest stage, or nil when the bill has none.
func CurrentTitle(titles []Title, typ string) *string {
	var current *string
	var stage string
	seen := false
	for i := range titles {
		t := titles[i]
		if t.Type != typ || t.IsForPortion {
			continue
		}
		if seen && t.As == stage {
			continue
		}
		title := t.Title
		current, stage, seen = &title, t.As, true
	}
	return current
}
